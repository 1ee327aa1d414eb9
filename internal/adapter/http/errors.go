package adapthttp

import (
	"errors"
	"net/http"

	"weighttracker/internal/domain"

	log "github.com/sirupsen/logrus"
)

const (
	msgNotFound         = "Weight entry not found"
	msgStoreUnavailable = "Failed to connect to database. Please check your database connection."
)

// writeServiceError logs err and answers with the status its kind maps to.
// op names the failed action, e.g. "update weight entry".
func writeServiceError(w http.ResponseWriter, r *http.Request, op, id string, err error) {
	status, msg := http.StatusInternalServerError, "Failed to "+op

	var vErr *domain.ValidationError
	switch {
	case errors.As(err, &vErr):
		status, msg = http.StatusBadRequest, vErr.Message
	case errors.Is(err, domain.ErrNotFound):
		status, msg = http.StatusNotFound, msgNotFound
	case errors.Is(err, domain.ErrStoreUnavailable):
		msg = msgStoreUnavailable
	}

	entry := log.WithFields(log.Fields{
		"op":     op,
		"method": r.Method,
		"path":   r.URL.Path,
		"status": status,
	})
	if id != "" {
		entry = entry.WithField("id", id)
	}
	if status >= http.StatusInternalServerError {
		entry.WithError(err).Error("request failed")
	} else {
		entry.WithError(err).Warn("request rejected")
	}

	writeError(w, status, msg)
}

func badRequest(err error) error {
	return domain.NewValidationError("body", err.Error())
}
