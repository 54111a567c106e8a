package api

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/RaaSaaR-org/robot-management-system-sub004/internal/api/handlers/http/compliance"
	"github.com/RaaSaaR-org/robot-management-system-sub004/internal/api/handlers/http/system"
	"github.com/RaaSaaR-org/robot-management-system-sub004/internal/config"
	"github.com/RaaSaaR-org/robot-management-system-sub004/internal/middleware"
	"github.com/RaaSaaR-org/robot-management-system-sub004/internal/service"
)

type Server struct {
	logger *slog.Logger
	router *chi.Mux
	cfg    config.Config
}

func NewServer(cfg *config.Config, logger *slog.Logger, svc *service.Service, postgres, redis system.Pinger) *Server {
	complianceHandler := compliance.NewHandler(logger, svc)
	systemHandler := system.NewHandler(logger, postgres, redis)

	r := InitRouter(cfg, complianceHandler, systemHandler, logger)

	return &Server{
		logger: logger,
		router: r,
		cfg:    *cfg,
	}
}

func InitRouter(cfg *config.Config, h *compliance.Handler, sys *system.Handler, logger *slog.Logger) *chi.Mux {
	r := chi.NewMux()

	r.Use(chimw.RequestID)
	r.Use(chimw.Recoverer)
	r.Use(chimw.Logger)

	r.Route("/api/v1", func(api chi.Router) {
		api.Group(func(pr chi.Router) {
			pr.Use(middleware.APIKey(cfg.APIKey))
			pr.Use(middleware.Limit(10, 20, 10*time.Minute, logger))

			pr.Route("/incidents", func(ir chi.Router) {
				ir.Post("/", h.IncidentCreate)
				ir.Get("/", h.IncidentList)

				ir.Route("/{id}", func(rr chi.Router) {
					rr.Get("/", h.IncidentGet)
					rr.Put("/", h.IncidentUpdate)
					rr.Delete("/", h.IncidentDelete)
					rr.Post("/transition", h.IncidentTransition)

					rr.Get("/notifications", h.NotificationList)
					rr.Post("/notifications/regenerate", h.NotificationRegenerate)
				})
			})

			pr.Route("/notifications/{id}", func(nr chi.Router) {
				nr.Post("/send", h.NotificationSend)
				nr.Post("/acknowledge", h.NotificationAcknowledge)
				nr.Put("/content", h.NotificationContent)
			})

			pr.Route("/templates", func(tr chi.Router) {
				tr.Post("/", h.TemplateCreate)
				tr.Get("/", h.TemplateList)

				tr.Route("/{id}", func(rr chi.Router) {
					rr.Get("/", h.TemplateGet)
					rr.Put("/", h.TemplateUpdate)
					rr.Delete("/", h.TemplateDelete)
				})
			})

			pr.Get("/stats/dashboard", h.DashboardStats)
		})

		api.Get("/health", sys.SystemHealth)
		api.Get("/ready", sys.SystemReady)
	})

	return r
}

func (s *Server) Run(ctx context.Context) error {
	port := s.cfg.Http.Port
	if !strings.HasPrefix(port, ":") {
		port = ":" + port
	}

	srv := &http.Server{
		Addr:         port,
		Handler:      s.router,
		ReadTimeout:  s.cfg.Http.ReadTimeout,
		WriteTimeout: s.cfg.Http.WriteTimeout,
		IdleTimeout:  30 * time.Second,
	}

	errChan := make(chan error, 1)

	go func() {
		s.logger.Info("starting HTTP server",
			slog.String("addr", srv.Addr),
			slog.Duration("read_timeout", s.cfg.Http.ReadTimeout),
			slog.Duration("write_timeout", s.cfg.Http.WriteTimeout),
		)

		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errChan <- fmt.Errorf("ListenAndServe error: %w", err)
		}
	}()

	select {
	case <-ctx.Done():
		s.logger.Info("shutting down HTTP server", slog.String("reason", ctx.Err().Error()))

		shutdownCtx, cancel := context.WithTimeout(context.Background(), s.cfg.Http.ShutdownTimeout)
		defer cancel()

		if err := srv.Shutdown(shutdownCtx); err != nil {
			s.logger.Error("server shutdown failed", slog.Any("error", err))
			return err
		}
		return nil

	case err := <-errChan:
		return err
	}
}
