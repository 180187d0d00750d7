package notify

import (
	"context"
	"storefront-be/internal/logger"
	"sync"
	"time"

	"go.uber.org/zap"
)

const DefaultTimeout = 10 * time.Second

// Dispatcher sends notifications in the background. A failed send is logged
// and never reaches the caller.
type Dispatcher struct {
	notifier Notifier
	timeout  time.Duration
	wg       sync.WaitGroup
}

func NewDispatcher(n Notifier, timeout time.Duration) *Dispatcher {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Dispatcher{notifier: n, timeout: timeout}
}

// Dispatch returns immediately. The send outlives ctx's cancellation and is
// bounded by the dispatcher timeout instead.
func (d *Dispatcher) Dispatch(ctx context.Context, msg Message) {
	log := logger.FromCtx(ctx).With(
		zap.String("layer", "notify"),
		zap.String("to", msg.To),
		zap.String("subject", msg.Subject),
	)
	sendCtx := context.WithoutCancel(ctx)

	d.wg.Add(1)
	go func() {
		defer d.wg.Done()

		ctx, cancel := context.WithTimeout(sendCtx, d.timeout)
		defer cancel()

		if err := d.notifier.Notify(ctx, msg); err != nil {
			log.Warn("notification failed", zap.Error(err))
			return
		}
		log.Debug("notification sent")
	}()
}

// Wait blocks until every dispatched send has finished.
func (d *Dispatcher) Wait() {
	d.wg.Wait()
}
