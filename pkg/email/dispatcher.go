package email

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"estatehub_backend/pkg/logging"
)

// Dispatcher runs sends in the background. Failures are logged and dropped;
// callers never see them.
type Dispatcher struct {
	timeout time.Duration
	logger  zerolog.Logger
	wg      sync.WaitGroup
}

func NewDispatcher(timeout time.Duration) *Dispatcher {
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &Dispatcher{timeout: timeout, logger: logging.NewLogger("notifications")}
}

// Go starts send on its own goroutine with a fresh timeout context.
func (d *Dispatcher) Go(name string, send func(ctx context.Context) error) {
	d.wg.Add(1)
	go func() {
		defer d.wg.Done()
		defer func() {
			if r := recover(); r != nil {
				d.logger.Error().Str("notification", name).Interface("panic", r).Msg("notification send panicked")
			}
		}()

		ctx, cancel := context.WithTimeout(context.Background(), d.timeout)
		defer cancel()

		if err := send(ctx); err != nil {
			d.logger.Warn().Err(err).Str("notification", name).Msg("notification send failed")
			return
		}
		d.logger.Debug().Str("notification", name).Msg("notification sent")
	}()
}

// Wait blocks until every started send has returned.
func (d *Dispatcher) Wait() {
	d.wg.Wait()
}
