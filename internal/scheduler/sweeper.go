// Package scheduler runs the in-process background jobs of the store.
package scheduler

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/AntonKrinichnyi/CineFlow/internal/repository"
)

// TokenSweeper periodically deletes expired activation and password reset
// tokens.  Consumption paths already ignore expired rows, so the sweep is
// pure housekeeping and a missed tick is harmless.
type TokenSweeper struct {
	Tokens   *repository.TokenRepo
	Interval time.Duration
}

func NewTokenSweeper(tokens *repository.TokenRepo, interval time.Duration) *TokenSweeper {
	if interval <= 0 {
		interval = time.Hour
	}
	return &TokenSweeper{Tokens: tokens, Interval: interval}
}

// Run sweeps once at startup and then on every tick until the context is
// cancelled.  Intended to be launched as a goroutine from main.
func (s *TokenSweeper) Run(ctx context.Context) {
	s.sweep(ctx)

	ticker := time.NewTicker(s.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			logrus.Info("token sweeper stopped")
			return
		case <-ticker.C:
			s.sweep(ctx)
		}
	}
}

func (s *TokenSweeper) sweep(ctx context.Context) {
	sctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	activation, err := s.Tokens.DeleteExpiredActivation(sctx)
	if err != nil {
		logrus.WithError(err).Warn("activation token sweep failed")
	}
	reset, err := s.Tokens.DeleteExpiredReset(sctx)
	if err != nil {
		logrus.WithError(err).Warn("reset token sweep failed")
	}
	if activation > 0 || reset > 0 {
		logrus.WithFields(logrus.Fields{
			"activation_tokens": activation,
			"reset_tokens":      reset,
		}).Info("expired tokens swept")
	}
}
