// Package worker runs work that must outlive the request that started it.
//
// Slack expects an acknowledgement within three seconds, while a webhook
// dispatch may take up to the configured webhook timeout. Handlers ack first
// and hand the remaining work to a Pool.
//
// Features:
// - Tracked goroutines, so shutdown can drain in-flight work
// - Panic recovery per task, counted and logged with a stack
// - Graceful shutdown with a bounded drain window, then context cancellation
// - Metrics for task status and tasks in flight
package worker

import (
	"context"
	"runtime/debug"
	"sync"
	"time"

	"github.com/rudderlabs/automationbot/pkg/metrics"
	"go.uber.org/zap"
)

const (
	statusCompleted = "completed"
	statusPanicked  = "panicked"
	statusRejected  = "rejected"
)

// Pool tracks background tasks.
//
// Thread safety:
// - Go may be called from any goroutine
// - Once Stop begins, Go refuses new tasks
// - Tasks receive the pool context, which is cancelled only when the drain
//   window passed to Stop runs out
type Pool struct {
	metrics *metrics.Metrics
	logger  *zap.Logger
	ctx     context.Context
	cancel  context.CancelFunc

	mu      sync.Mutex
	stopped bool
	wg      sync.WaitGroup
}

// NewPool creates a running pool. m may be nil.
func NewPool(logger *zap.Logger, m *metrics.Metrics) *Pool {
	ctx, cancel := context.WithCancel(context.Background())

	return &Pool{
		metrics: m,
		logger:  logger,
		ctx:     ctx,
		cancel:  cancel,
	}
}

// Go runs fn on a new tracked goroutine. It returns false, without running fn,
// once Stop has been called.
func (p *Pool) Go(task string, fn func(ctx context.Context)) bool {
	p.mu.Lock()
	if p.stopped {
		p.mu.Unlock()
		p.logger.Warn("background task rejected - pool stopped", zap.String("task", task))
		p.recordTask(task, statusRejected)
		return false
	}
	p.wg.Add(1)
	p.mu.Unlock()

	if p.metrics != nil {
		p.metrics.AsyncTasksInFlight.Inc()
	}

	go func() {
		defer p.wg.Done()
		if p.metrics != nil {
			defer p.metrics.AsyncTasksInFlight.Dec()
		}
		defer func() {
			if r := recover(); r != nil {
				if p.metrics != nil {
					p.metrics.PanicRecoveriesTotal.Inc()
				}
				p.recordTask(task, statusPanicked)
				p.logger.Error("panic recovered in background task",
					zap.String("task", task),
					zap.Any("error", r),
					zap.String("stack", string(debug.Stack())),
				)
			}
		}()

		fn(p.ctx)
		p.recordTask(task, statusCompleted)
	}()

	return true
}

// Wait blocks until every task started so far has returned.
func (p *Pool) Wait() {
	p.wg.Wait()
}

// Stop refuses new tasks and waits up to timeout for running ones. Tasks still
// running after that see their context cancelled; Stop then waits for them to
// return. It reports whether the drain finished inside the window.
func (p *Pool) Stop(timeout time.Duration) bool {
	p.mu.Lock()
	p.stopped = true
	p.mu.Unlock()

	p.logger.Info("worker pool shutdown initiated", zap.Duration("drain_timeout", timeout))

	done := make(chan struct{})
	go func() {
		p.wg.Wait()
		close(done)
	}()

	drained := true
	select {
	case <-done:
	case <-time.After(timeout):
		drained = false
		p.logger.Warn("worker pool drain timed out, cancelling remaining tasks")
		p.cancel()
		<-done
	}

	p.cancel()
	p.logger.Info("worker pool shutdown complete", zap.Bool("drained", drained))
	return drained
}

// recordTask records a task status metric.
func (p *Pool) recordTask(task, status string) {
	if p.metrics == nil {
		return
	}

	p.metrics.AsyncTasksTotal.WithLabelValues(task, status).Inc()
}
