// Package http exposes the transaction, shared account and dashboard
// services as a JSON API.
package http

import (
	"context"
	"net/http"
	"time"

	"wisetogether/internal/log"
	"wisetogether/internal/services"
)

// Deps are the services the API serves. Ready may be nil.
type Deps struct {
	Transactions *services.TransactionService
	Accounts     *services.SharedAccountService
	Dashboard    *services.DashboardService
	Ready        func(context.Context) error
}

type Server struct {
	http.Server
	deps        Deps
	logger      *log.Logger
	rateLimiter *rateLimiter
	metrics     *securityMetrics
}

// NewServer configures routes and middleware. Call ListenAndServe to start.
func NewServer(addr string, deps Deps, logger *log.Logger) *Server {
	logger = logger.WithComponent(log.ComponentHTTP)
	s := &Server{
		deps:        deps,
		logger:      logger,
		rateLimiter: newRateLimiter(mutationLimit, mutationWindow),
		metrics:     &securityMetrics{},
	}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /healthz", s.handleHealth)
	mux.HandleFunc("GET /readyz", s.handleReady)

	mux.HandleFunc("GET /api/dashboard", s.handleDashboard)

	mux.HandleFunc("GET /api/transactions", s.handleListTransactions)
	mux.HandleFunc("POST /api/transactions", s.handleCreateTransaction)
	mux.HandleFunc("GET /api/transactions/{id}", s.handleGetTransaction)
	mux.HandleFunc("PUT /api/transactions/{id}", s.handleUpdateTransaction)
	mux.HandleFunc("DELETE /api/transactions/{id}", s.handleDeleteTransaction)

	mux.HandleFunc("POST /api/split/preview", s.handleSplitPreview)

	mux.HandleFunc("POST /api/shared-accounts", s.handleCreateAccount)
	mux.HandleFunc("POST /api/shared-accounts/join", s.handleJoinAccount)
	mux.HandleFunc("GET /api/shared-accounts/me", s.handleMyAccount)

	mux.HandleFunc("PUT /api/profiles/me", s.handleUpsertProfile)

	s.Addr = addr
	s.Handler = chain(mux,
		withRequestID,
		log.Middleware(logger),
		log.RequestIDMiddleware(func(r *http.Request) string { return r.Header.Get(requestIDHeader) }),
		s.guard,
	)
	s.ReadHeaderTimeout = 10 * time.Second
	s.ReadTimeout = 15 * time.Second
	s.WriteTimeout = 30 * time.Second
	s.IdleTimeout = 60 * time.Second
	return s
}

// Shutdown stops the rate limiter and drains the HTTP server.
func (s *Server) Shutdown(ctx context.Context) error {
	s.rateLimiter.stop()
	m := s.metrics.snapshot()
	s.logger.Info("HTTP server stopping",
		"rate_limit_hits", m["rate_limit_hits"],
		"anonymous_requests", m["anonymous_requests"],
		log.FieldOperation, log.OpShutdown)
	return s.Server.Shutdown(ctx)
}
