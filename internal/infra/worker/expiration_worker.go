package worker

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/glowlocal/lead-payments/internal/usecase"
)

// ExpirationWorker actively enforces interaction TTLs: open interactions past
// ttl_expires_at are forced to EXPIRED so stale AWAITING_PAYMENT rows do not
// linger forever. Read paths still check the timestamp themselves; the worker
// only keeps the stored status honest.
type ExpirationWorker struct {
	interactions usecase.InteractionRepositoryInterface
	tickInterval time.Duration
	logger       *zap.Logger
}

func NewExpirationWorker(interactions usecase.InteractionRepositoryInterface, logger *zap.Logger) *ExpirationWorker {
	return &ExpirationWorker{
		interactions: interactions,
		tickInterval: 5 * time.Minute,
		logger:       logger,
	}
}

func (w *ExpirationWorker) Start(ctx context.Context) {
	w.logger.Info("interaction expiration worker started",
		zap.Duration("tick", w.tickInterval))

	ticker := time.NewTicker(w.tickInterval)
	defer ticker.Stop()

	w.sweep(ctx)

	for {
		select {
		case <-ctx.Done():
			w.logger.Info("interaction expiration worker stopped")
			return
		case <-ticker.C:
			w.sweep(ctx)
		}
	}
}

func (w *ExpirationWorker) sweep(ctx context.Context) {
	n, err := w.interactions.ExpireStale(ctx, time.Now())
	if err != nil {
		w.logger.Error("ttl sweep failed", zap.Error(err))
		return
	}
	if n > 0 {
		w.logger.Info("interactions expired", zap.Int64("count", n))
	}
}
