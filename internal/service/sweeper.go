package service

import (
	"context"
	"log/slog"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/Agamvashisht/fintrack/internal/repository"
)

var tokensSweptTotal = promauto.NewCounter(prometheus.CounterOpts{
	Name: "refresh_tokens_swept_total",
	Help: "Total number of expired or revoked refresh tokens deleted by the sweeper",
})

// Sweeper periodically deletes expired and revoked refresh tokens so the
// store only holds rows that could still authenticate a request.
type Sweeper struct {
	tokenRepo repository.RefreshTokenRepository
	interval  time.Duration
	logger    *slog.Logger
}

// NewSweeper creates a token sweeper running at the given interval.
func NewSweeper(tokenRepo repository.RefreshTokenRepository, interval time.Duration, logger *slog.Logger) *Sweeper {
	return &Sweeper{
		tokenRepo: tokenRepo,
		interval:  interval,
		logger:    logger,
	}
}

// Run sweeps on a ticker until the context is canceled. Sweep errors are
// logged and the loop continues; a failed pass just leaves rows for the next.
func (s *Sweeper) Run(ctx context.Context) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	s.logger.Info("token sweeper started", slog.Duration("interval", s.interval))

	for {
		select {
		case <-ctx.Done():
			s.logger.Info("token sweeper stopped")
			return
		case <-ticker.C:
			s.sweep(ctx)
		}
	}
}

func (s *Sweeper) sweep(ctx context.Context) {
	deleted, err := s.tokenRepo.DeleteExpiredOrRevoked(ctx)
	if err != nil {
		s.logger.ErrorContext(ctx, "token sweep error", slog.String("error", err.Error()))
		return
	}

	if deleted > 0 {
		tokensSweptTotal.Add(float64(deleted))
		s.logger.InfoContext(ctx, "expired refresh tokens swept", slog.Int64("deleted", deleted))
	}
}
