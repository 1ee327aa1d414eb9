package adapthttp

import (
	"errors"
	"io/fs"
	"net/http"
	"path"
	"strings"
)

// spaHandler serves the built front end. Paths that do not name a file fall
// back to index.html so client-side routes survive a reload.
type spaHandler struct {
	root  http.FileSystem
	files http.Handler
}

func spaFromDisk(dir string) http.Handler {
	root := http.Dir(dir)
	return spaHandler{root: root, files: http.FileServer(root)}
}

func (h spaHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	p := path.Clean("/" + r.URL.Path)
	if p == "/api" || strings.HasPrefix(p, "/api/") {
		writeError(w, http.StatusNotFound, "not found")
		return
	}

	if p != "/" && h.isFile(p) {
		h.files.ServeHTTP(w, r)
		return
	}
	h.serveIndex(w, r)
}

func (h spaHandler) isFile(name string) bool {
	f, err := h.root.Open(name)
	if err != nil {
		return false
	}
	defer f.Close() //nolint:errcheck
	fi, err := f.Stat()
	return err == nil && !fi.IsDir()
}

func (h spaHandler) serveIndex(w http.ResponseWriter, r *http.Request) {
	f, err := h.root.Open("/index.html")
	if errors.Is(err, fs.ErrNotExist) {
		writeError(w, http.StatusNotFound, "not found")
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to open index.html")
		return
	}
	defer f.Close() //nolint:errcheck

	fi, err := f.Stat()
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to open index.html")
		return
	}
	http.ServeContent(w, r, "index.html", fi.ModTime(), f)
}
