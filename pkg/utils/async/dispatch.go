package async

import (
	"context"
	"sync"

	"github.com/m-mizutani/goerr/v2"
	"github.com/pawnotes/pawnotes/pkg/utils/errutil"
	"github.com/pawnotes/pawnotes/pkg/utils/logging"
)

// Dispatcher runs fire-and-forget jobs such as chat notifications outside
// the request path. Wait blocks until every dispatched job has returned,
// which lets the server drain notifications on shutdown.
type Dispatcher struct {
	wg sync.WaitGroup
}

// NewDispatcher returns an empty Dispatcher.
func NewDispatcher() *Dispatcher {
	return &Dispatcher{}
}

// Dispatch executes handler in a new goroutine. The request context is
// detached so that the job outlives the request, but its logger is kept.
func (d *Dispatcher) Dispatch(ctx context.Context, name string, handler func(ctx context.Context) error) {
	bgCtx := logging.With(context.WithoutCancel(ctx), logging.From(ctx).With("job", name))

	d.wg.Add(1)
	go func() {
		defer d.wg.Done()
		defer func() {
			if r := recover(); r != nil {
				errutil.Handle(bgCtx, goerr.New("panic in async job", goerr.V("panic", r)), "async job panicked")
			}
		}()

		if err := handler(bgCtx); err != nil {
			errutil.Handle(bgCtx, err, "async job failed")
		}
	}()
}

// Wait blocks until all dispatched jobs finish or ctx is done.
func (d *Dispatcher) Wait(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		d.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return goerr.Wrap(ctx.Err(), "async jobs did not finish in time")
	}
}
