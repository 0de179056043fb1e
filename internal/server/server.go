// Package server exposes the validation pipeline over HTTP.
package server

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/healthpay/claimcheck/internal/config"
	"github.com/healthpay/claimcheck/internal/pipeline"
	"github.com/healthpay/claimcheck/internal/store"
)

// Server serves the validation API.
type Server struct {
	cfg      config.ServerConfig
	pipeline *pipeline.Pipeline
	store    store.Store
	limiter  *rate.Limiter
}

// New creates a Server. st must be the same store the pipeline persists to.
func New(cfg config.ServerConfig, p *pipeline.Pipeline, st store.Store) *Server {
	rps := cfg.RateLimitRPS
	if rps <= 0 {
		rps = 20
	}
	burst := cfg.RateLimitBurst
	if burst <= 0 {
		burst = int(rps) * 2
	}
	return &Server{
		cfg:      cfg,
		pipeline: p,
		store:    st,
		limiter:  rate.NewLimiter(rate.Limit(rps), burst),
	}
}

// Router builds the HTTP routes.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Authorization", "Content-Type"},
		MaxAge:         300,
	}))
	r.Use(s.rateLimit)

	r.Get("/health", s.handleHealth)
	r.Post("/validate", s.handleValidate)
	r.Post("/claims", s.handleSubmitClaim)
	r.Route("/runs", func(r chi.Router) {
		r.Get("/", s.handleListRuns)
		r.Get("/{id}", s.handleGetRun)
		r.Get("/{id}/findings", s.handleListFindings)
	})

	return r
}

// Start runs the server until ctx is cancelled, then shuts down gracefully.
func (s *Server) Start(ctx context.Context) error {
	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", s.cfg.Port),
		Handler:           s.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()
		zap.L().Info("server: shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			zap.L().Warn("server: shutdown", zap.Error(err))
		}
	}()

	zap.L().Info("server: listening", zap.Int("port", s.cfg.Port))
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return eris.Wrap(err, "server: listen")
	}
	return nil
}

func (s *Server) rateLimit(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !s.limiter.Allow() {
			writeError(w, http.StatusTooManyRequests, "rate limit exceeded")
			return
		}
		next.ServeHTTP(w, r)
	})
}
