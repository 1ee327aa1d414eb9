package adapthttp

import (
	"net/http"

	"weighttracker/internal/app"

	"github.com/gorilla/mux"
)

func (s *Server) handleListWeights(w http.ResponseWriter, r *http.Request) {
	entries, err := s.weight.List(r.Context())
	if err != nil {
		writeServiceError(w, r, "fetch weight entries", "", err)
		return
	}
	writeJSON(w, http.StatusOK, entries)
}

func (s *Server) handleCreateWeight(w http.ResponseWriter, r *http.Request) {
	var in app.WeightInput
	if err := parseJSON(w, r, &in); err != nil {
		writeServiceError(w, r, "create weight entry", "", badRequest(err))
		return
	}
	entry, err := s.weight.Create(r.Context(), in)
	if err != nil {
		writeServiceError(w, r, "create weight entry", "", err)
		return
	}
	s.countWrite("create")
	writeJSON(w, http.StatusCreated, entry)
}

func (s *Server) handleGetWeight(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	entry, err := s.weight.Get(r.Context(), id)
	if err != nil {
		writeServiceError(w, r, "fetch weight entry", id, err)
		return
	}
	writeJSON(w, http.StatusOK, entry)
}

func (s *Server) handleUpdateWeight(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	var in app.WeightInput
	if err := parseJSON(w, r, &in); err != nil {
		writeServiceError(w, r, "update weight entry", id, badRequest(err))
		return
	}
	entry, err := s.weight.Update(r.Context(), id, in)
	if err != nil {
		writeServiceError(w, r, "update weight entry", id, err)
		return
	}
	s.countWrite("update")
	writeJSON(w, http.StatusOK, entry)
}

func (s *Server) handleDeleteWeight(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	if err := s.weight.Delete(r.Context(), id); err != nil {
		writeServiceError(w, r, "delete weight entry", id, err)
		return
	}
	s.countWrite("delete")
	writeJSON(w, http.StatusOK, map[string]any{"message": "Weight entry deleted successfully"})
}

func (s *Server) countWrite(op string) {
	if s.metrics != nil {
		s.metrics.CounterEntryWrites.WithLabelValues(op).Inc()
	}
}
