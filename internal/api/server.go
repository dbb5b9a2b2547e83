// Package api exposes the order bridge over HTTP.
package api

import (
	"context"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/rs/zerolog"

	"brokerbridge/internal/broker"
	"brokerbridge/internal/config"
	"brokerbridge/internal/engine"
	"brokerbridge/internal/journal"
)

// Server wires the broker registry, switcher, strategy router, failover
// controller and trade journal behind an HTTP API.
type Server struct {
	cfg      *config.Config
	logger   zerolog.Logger
	registry *broker.Registry
	switcher *broker.Switcher
	router   *engine.StrategyRouter
	failover *engine.FailoverController
	journal  *journal.Journal
	signals  *signalLog

	httpSrv *http.Server
}

// NewServer assembles the HTTP server over already-constructed components.
func NewServer(cfg *config.Config, logger zerolog.Logger, registry *broker.Registry, switcher *broker.Switcher, router *engine.StrategyRouter, failover *engine.FailoverController, jrnl *journal.Journal) *Server {
	s := &Server{
		cfg:      cfg,
		logger:   logger,
		registry: registry,
		switcher: switcher,
		router:   router,
		failover: failover,
		journal:  jrnl,
		signals:  newSignalLog(25),
	}

	r := mux.NewRouter()
	r.Use(s.logMiddleware)

	r.HandleFunc("/health", s.handleHealth).Methods(http.MethodGet)

	r.HandleFunc("/brokers/status", s.handleBrokerStatus).Methods(http.MethodGet)
	r.HandleFunc("/brokers/active", s.handleActiveBroker).Methods(http.MethodGet)
	r.HandleFunc("/brokers/switch", s.handleSwitch).Methods(http.MethodPost)
	r.HandleFunc("/brokers/priority", s.handleSetPriority).Methods(http.MethodPost)
	r.HandleFunc("/brokers/configure", s.handleConfigure).Methods(http.MethodPost)
	r.HandleFunc("/brokers/session", s.handleSetSession).Methods(http.MethodPost)
	r.HandleFunc("/brokers/disconnect", s.handleDisconnect).Methods(http.MethodPost)
	r.HandleFunc("/brokers/profile", s.handleProfile).Methods(http.MethodGet)

	r.HandleFunc("/brokers/place-order", s.handlePlaceOrder).Methods(http.MethodPost)
	r.HandleFunc("/brokers/execute-strategy", s.handleExecuteStrategy).Methods(http.MethodPost)
	r.HandleFunc("/brokers/execute-orders", s.handleExecuteOrders).Methods(http.MethodPost)

	r.HandleFunc("/webhook", s.handleWebhook).Methods(http.MethodPost)
	r.HandleFunc("/webhook", s.handleWebhookInfo).Methods(http.MethodGet)
	r.HandleFunc("/api/webhook/events", s.handleWebhookEvents).Methods(http.MethodGet)

	r.HandleFunc("/brokers/trades", s.handleTrades).Methods(http.MethodGet)
	r.HandleFunc("/brokers/trade-analytics", s.handleTradeAnalytics).Methods(http.MethodGet)
	r.HandleFunc("/brokers/risk-config", s.handleGetRiskConfig).Methods(http.MethodGet)
	r.HandleFunc("/brokers/risk-config", s.handleUpdateRiskConfig).Methods(http.MethodPost)

	s.httpSrv = &http.Server{
		Handler:      r,
		Addr:         cfg.Server.Addr,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 60 * time.Second,
	}
	return s
}

// Handler returns the HTTP handler, for tests.
func (s *Server) Handler() http.Handler {
	return s.httpSrv.Handler
}

// ListenAndServe runs the server until the context is cancelled, then
// shuts down gracefully.
func (s *Server) ListenAndServe(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		s.logger.Info().Str("addr", s.httpSrv.Addr).Msg("HTTP server listening")
		if err := s.httpSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
			return
		}
		errCh <- nil
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := s.httpSrv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	s.logger.Info().Msg("HTTP server stopped")
	return <-errCh
}

func (s *Server) logMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		next.ServeHTTP(w, r)
		s.logger.Debug().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Dur("elapsed", time.Since(start)).
			Msg("HTTP request")
	})
}
