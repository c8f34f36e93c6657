package worker

import (
	"context"
	"errors"

	"github.com/panjf2000/ants/v2"
	"go.uber.org/zap"

	"github.com/spec-kit/crm-service/internal/config"
	"github.com/spec-kit/crm-service/internal/service"
)

// RoutingRunner is the slice of RoutingService the worker needs.
type RoutingRunner interface {
	RunRouting(ctx context.Context) (service.RoutingResult, error)
}

// RoutingWorker executes routing passes on a background goroutine pool
// so lead creation never waits on routing. Errors and panics are
// contained here; the dispatching caller observes nothing.
type RoutingWorker struct {
	pool   *ants.PoolWithFunc
	runner RoutingRunner
	logger *zap.Logger
}

// NewRoutingWorker builds the worker and its pool.
func NewRoutingWorker(cfg config.RoutingConfig, runner RoutingRunner, logger *zap.Logger) (*RoutingWorker, error) {
	w := &RoutingWorker{runner: runner, logger: logger}

	size := cfg.WorkerPoolSize
	if size <= 0 {
		size = 1
	}
	pool, err := ants.NewPoolWithFunc(size, func(_ interface{}) {
		w.runOnce()
	},
		ants.WithNonblocking(true),
		ants.WithPanicHandler(func(r interface{}) {
			logger.Error("routing worker panic recovered", zap.Any("panic", r))
		}),
	)
	if err != nil {
		return nil, err
	}
	w.pool = pool
	return w, nil
}

// TriggerRouting submits a routing pass without blocking. When the pool
// is saturated the trigger is dropped and logged; the next trigger or a
// manual run covers the backlog.
func (w *RoutingWorker) TriggerRouting() {
	if err := w.pool.Invoke(struct{}{}); err != nil {
		if errors.Is(err, ants.ErrPoolOverload) {
			w.logger.Warn("routing trigger dropped, pool saturated")
			return
		}
		w.logger.Error("routing trigger failed", zap.Error(err))
	}
}

// Stop releases the pool.
func (w *RoutingWorker) Stop() {
	if w.pool != nil {
		w.pool.Release()
	}
}

func (w *RoutingWorker) runOnce() {
	result, err := w.runner.RunRouting(context.Background())
	if err != nil {
		w.logger.Error("background routing pass failed",
			zap.Int("routed_before_failure", result.Routed),
			zap.Error(err))
		return
	}
	w.logger.Info("background routing pass finished", zap.Int("routed", result.Routed))
}
