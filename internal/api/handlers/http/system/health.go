package system

import (
	"context"
	"log/slog"
	"net/http"
	"time"
)

// Pinger reports whether a backing dependency is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

type Handler struct {
	logger   *slog.Logger
	postgres Pinger
	redis    Pinger
}

func NewHandler(logger *slog.Logger, postgres, redis Pinger) *Handler {
	return &Handler{logger: logger, postgres: postgres, redis: redis}
}

func (h *Handler) SystemHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

// SystemReady pings the store and the cache with a short deadline.
func (h *Handler) SystemReady(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	for name, p := range map[string]Pinger{"postgres": h.postgres, "redis": h.redis} {
		if p == nil {
			continue
		}
		if err := p.Ping(ctx); err != nil {
			h.logger.Error("readiness check failed",
				slog.String("dependency", name),
				slog.Any("error", err),
			)
			http.Error(w, name+" unavailable", http.StatusServiceUnavailable)
			return
		}
	}

	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ready"))
}
