package web

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/rs/zerolog"

	"event-ticket-ledger/internal/config"
	"event-ticket-ledger/internal/infra/metrics"
	red "event-ticket-ledger/internal/infra/redis"
	"event-ticket-ledger/internal/usecase"
)

// HealthFunc reports whether backing stores are reachable.
type HealthFunc func(ctx context.Context) error

type Server struct {
	ledger   usecase.LedgerUseCase
	identity *IdentityManager
	limiter  Limiter
	health   HealthFunc
	cfg      config.HTTPConfig
	log      *zerolog.Logger
}

// NewServer wires the ledger API. limiter and health may be nil.
func NewServer(ledger usecase.LedgerUseCase, identity *IdentityManager, limiter Limiter, health HealthFunc, cfg config.HTTPConfig, logger *zerolog.Logger) *Server {
	return &Server{
		ledger:   ledger,
		identity: identity,
		limiter:  limiter,
		health:   health,
		cfg:      cfg,
		log:      logger,
	}
}

func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(TraceID)
	r.Use(RequestLog(s.log))
	r.Use(Recover(s.log))
	r.Use(middleware.RealIP)
	if len(s.cfg.AllowedOrigins) > 0 {
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins:   s.cfg.AllowedOrigins,
			AllowedMethods:   []string{"GET", "POST", "PUT", "OPTIONS"},
			AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", DevAccountHeader, traceHeader},
			ExposedHeaders:   []string{traceHeader},
			AllowCredentials: false,
			MaxAge:           300,
		}))
	}

	r.Get("/health", s.healthz)
	r.Handle("/metrics", metrics.Handler())

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(Timeout(s.cfg.RequestTimeout))
		r.Use(Identity(s.identity))
		r.Use(RateLimit(s.limiter, red.AccountRouteKey, s.log))

		r.Get("/owner", s.getOwner)
		r.Get("/admins", s.listAdmins)
		r.Post("/admins", s.addAdmin)

		r.Post("/tickets", s.issueTickets)
		r.Get("/tickets/{code}", s.getTicket)
		r.Post("/tickets/{code}/buy", s.buyTicket)

		r.Post("/members", s.register)
		r.Get("/members/{account}", s.getMember)

		r.Get("/price", s.getPrice)
		r.Put("/price", s.setPrice)

		r.Get("/accounts/{account}/tickets", s.accountTickets)
		r.Get("/accounts/{account}/purchases", s.accountPurchases)
		r.Get("/stats", s.stats)
	})
	return r
}

func (s *Server) healthz(w http.ResponseWriter, r *http.Request) {
	if s.health != nil {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		if err := s.health(ctx); err != nil {
			s.log.Warn().Err(err).Msg("health check failed")
			writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unavailable"})
			return
		}
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// ListenAndServe blocks until ctx is done, then drains in-flight requests.
func (s *Server) ListenAndServe(ctx context.Context) error {
	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", s.cfg.Port),
		Handler:           s.Router(),
		ReadHeaderTimeout: 5 * time.Second,
	}
	errCh := make(chan error, 1)
	go func() {
		s.log.Info().Str("addr", srv.Addr).Msg("http server listening")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
