package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"pathtech-academy/internal/usecase"
)

// SweepRunner runs one expiration sweep and records its outcome.
type SweepRunner interface {
	RunOnce(ctx context.Context) (usecase.SweepResult, error)
}

// Deps are the use cases the API exposes.
type Deps struct {
	Gateway  usecase.AccessGateway
	Payments usecase.PaymentWorkflow
	Receipts usecase.ReceiptService
	Sweeper  usecase.ExpirationSweeper
	Sweep    SweepRunner
	Verifier *TokenVerifier
	// Health, when set, is probed by /health.
	Health func(ctx context.Context) error
}

type Options struct {
	Port            int
	RequestTimeout  time.Duration
	ShutdownTimeout time.Duration
	ReceiptMaxBytes int64
}

// Server is the JSON API over the access and payment use cases.
type Server struct {
	gateway         usecase.AccessGateway
	payments        usecase.PaymentWorkflow
	receipts        usecase.ReceiptService
	sweeper         usecase.ExpirationSweeper
	sweep           SweepRunner
	verifier        *TokenVerifier
	health          func(ctx context.Context) error
	opts            Options
	receiptMaxBytes int64
	log             *zerolog.Logger
}

func NewServer(deps Deps, opts Options, logger *zerolog.Logger) *Server {
	if opts.RequestTimeout <= 0 {
		opts.RequestTimeout = 15 * time.Second
	}
	if opts.ShutdownTimeout <= 0 {
		opts.ShutdownTimeout = 10 * time.Second
	}
	if opts.ReceiptMaxBytes <= 0 {
		opts.ReceiptMaxBytes = usecase.DefaultReceiptMaxBytes
	}
	l := logger.With().Str("component", "http").Logger()
	return &Server{
		gateway:         deps.Gateway,
		payments:        deps.Payments,
		receipts:        deps.Receipts,
		sweeper:         deps.Sweeper,
		sweep:           deps.Sweep,
		verifier:        deps.Verifier,
		health:          deps.Health,
		opts:            opts,
		receiptMaxBytes: opts.ReceiptMaxBytes,
		log:             &l,
	}
}

// Routes builds the full handler tree.
func (s *Server) Routes() http.Handler {
	r := chi.NewRouter()
	r.Use(identityScope(), TraceID(), RequestLog(s.log), Recover(s.log))

	r.Get("/health", s.handleHealth)
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(Timeout(s.opts.RequestTimeout), Authenticate(s.verifier))

		r.Get("/access/{kind}/{id}", s.handleAccessCheck)
		r.Post("/access/bulk", s.handleAccessBulk)

		r.Post("/payments", s.handleCreatePayment)
		r.Get("/payments", s.handleListMyPayments)
		r.Post("/payments/{id}/receipt", s.handleUploadReceipt)

		r.Route("/admin", func(r chi.Router) {
			r.Use(RequireAdmin())
			r.Get("/payments/pending", s.handleListPending)
			r.Post("/payments/{id}/approve", s.handleApprove)
			r.Post("/payments/{id}/reject", s.handleReject)
			r.Get("/payments/{id}/receipt", s.handleReceipt)
			r.Get("/access/expiring", s.handleExpiring)
			r.Post("/sweep", s.handleSweep)
			r.Post("/users/{id}/summary/rebuild", s.handleRebuildSummary)
		})
	})

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusNotFound, errorBody("not_found", "route not found"))
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusMethodNotAllowed, errorBody("method_not_allowed", "method not allowed"))
	})
	return r
}

// Run serves until ctx is cancelled, then drains in-flight requests.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", s.opts.Port),
		Handler:           s.Routes(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.log.Info().Int("port", s.opts.Port).Msg("HTTP server listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), s.opts.ShutdownTimeout)
	defer cancel()
	s.log.Info().Msg("HTTP server shutting down")
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("http shutdown: %w", err)
	}
	return nil
}
