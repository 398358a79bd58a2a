package httpadapter

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/score-labs/score-backend/internal/core/domain"
)

var (
	errQueryRequired   = errors.New("query is required")
	errTopicRequired   = errors.New("topic is required")
	errMessageRequired = errors.New("message is required")
)

func mapErrorToHTTPStatus(err error) int {
	switch {
	case domain.IsKind(err, domain.ErrInvalidInput):
		return http.StatusBadRequest
	case domain.IsKind(err, domain.ErrAccessDenied):
		return http.StatusForbidden
	case domain.IsKind(err, domain.ErrUserNotFound), domain.IsKind(err, domain.ErrDeckNotFound):
		return http.StatusNotFound
	case domain.IsKind(err, domain.ErrTemporary):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

func writeError(w http.ResponseWriter, err error) {
	status := mapErrorToHTTPStatus(err)
	if status >= 500 {
		slog.Error("request_failed", "status", status, "error", err)
	}
	writeJSON(w, status, map[string]string{"error": err.Error()})
}
