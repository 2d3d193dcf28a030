// Package server exposes the agent use cases over HTTP.
package server

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/m-mizutani/goerr/v2"
	"github.com/pcscout-dev/pcscout/pkg/usecase/provider"
	"github.com/pcscout-dev/pcscout/pkg/usecase/query"
	"github.com/pcscout-dev/pcscout/pkg/usecase/search"
	"github.com/pcscout-dev/pcscout/pkg/utils/logging"
)

// Server is the HTTP front door. It serves conversational queries,
// similarity retrieval and direct provider runs.
type Server struct {
	httpServer *http.Server
}

// New builds the router over the given use cases
func New(addr string, queryUC *query.Query, searchUC *search.Search, orchestrator *provider.Orchestrator) *Server {
	h := &handler{
		query:        queryUC,
		search:       searchUC,
		orchestrator: orchestrator,
	}

	r := chi.NewRouter()
	r.Use(requestLogger)
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		respondJSON(r.Context(), w, http.StatusOK, map[string]string{"status": "ok"})
	})
	r.Post("/query", h.handleQuery)
	r.Post("/query_db", h.handleQueryDB)
	r.Post("/provider", h.handleProvider)

	return &Server{
		httpServer: &http.Server{
			Addr:    addr,
			Handler: r,
			// Query handling runs full agent loops, so the write
			// timeout has to cover several model round trips
			ReadTimeout:  30 * time.Second,
			WriteTimeout: 10 * time.Minute,
			IdleTimeout:  60 * time.Second,
		},
	}
}

// Handler returns the underlying HTTP handler for tests
func (s *Server) Handler() http.Handler {
	return s.httpServer.Handler
}

// Run serves until the context is cancelled or an interrupt signal
// arrives, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	logger := logging.From(ctx)

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(quit)

	errCh := make(chan error, 1)
	go func() {
		logger.Info("starting server", "addr", s.httpServer.Addr)
		if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return goerr.Wrap(err, "server failed")
	case sig := <-quit:
		logger.Info("shutting down server", "signal", sig.String())
	case <-ctx.Done():
		logger.Info("shutting down server", "reason", "context cancelled")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
		return goerr.Wrap(err, "server shutdown failed")
	}

	logger.Info("server stopped")
	return nil
}

// requestLogger logs method, path and duration of each request
func requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		next.ServeHTTP(w, r)
		logging.From(r.Context()).Info("request handled",
			"method", r.Method,
			"path", r.URL.Path,
			"duration", time.Since(start).String())
	})
}
