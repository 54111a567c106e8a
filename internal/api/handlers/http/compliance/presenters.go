package compliance

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/RaaSaaR-org/robot-management-system-sub004/pkg/e"
)

func (h *Handler) handleError(w http.ResponseWriter, r *http.Request, err error) {
	l := h.log(r)

	l.Error("handler error",
		slog.String("method", r.Method),
		slog.String("path", r.URL.Path),
		slog.Any("error", err),
	)

	switch {
	case errors.Is(err, e.ErrNotFound):
		h.writeJSON(w, http.StatusNotFound, errBody("not found"))
	case errors.Is(err, e.ErrValidation):
		h.writeJSON(w, http.StatusBadRequest, errBody("invalid input"))
	case errors.Is(err, e.ErrInvalidTransition):
		h.writeJSON(w, http.StatusUnprocessableEntity, errBody("transition not allowed"))
	case errors.Is(err, e.ErrAlreadyFinalized):
		h.writeJSON(w, http.StatusConflict, errBody("already finalized"))
	case errors.Is(err, e.ErrConflict):
		h.writeJSON(w, http.StatusConflict, errBody("conflict"))
	case errors.Is(err, e.ErrUniqueViolation):
		h.writeJSON(w, http.StatusConflict, errBody("duplicate"))
	default:
		h.writeJSON(w, http.StatusInternalServerError, errBody("internal error"))
	}
}

func (h *Handler) writeJSON(w http.ResponseWriter, code int, v interface{}) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(v)
}

func errBody(msg string) map[string]string {
	return map[string]string{"error": msg}
}

func parseInt(s string, def int) int {
	if s == "" {
		return def
	}
	i, err := strconv.Atoi(s)
	if err != nil {
		return def
	}
	return i
}
