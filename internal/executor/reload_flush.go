package executor

import (
	"context"

	"github.com/cenkalti/backoff/v4"

	"github.com/lirsacc/crible/internal/index"
)

// newBackoff returns the bounded retry policy wrapping backend I/O: a few
// quick retries to absorb a transient blip (a dropped connection, a file
// briefly locked by another process) without turning every reload/flush
// into a long stall.
func newBackoff(ctx context.Context) backoff.BackOffContext {
	b := backoff.NewExponentialBackOff()
	b.MaxElapsedTime = 0
	return backoff.WithContext(backoff.WithMaxRetries(b, 3), ctx)
}

// Reload replaces the in-memory Index with whatever the backend currently
// holds. It runs inside Spawn, so it competes for a worker slot like any
// other operation, and takes the backend mutex for the duration of the
// load so it can't race a concurrent Flush.
func (e *Executor) Reload(ctx context.Context) error {
	_, err := e.Spawn(ctx, func(h *IndexHandle) (any, error) {
		e.beMu.Lock()
		defer e.beMu.Unlock()

		var loaded *index.Index
		op := func() error {
			var err error
			loaded, err = e.be.Load(ctx)
			return err
		}
		if err := backoff.Retry(op, newBackoff(ctx)); err != nil {
			return nil, err
		}
		h.replace(loaded)
		return nil, nil
	})
	return err
}

// Flush persists a snapshot of the current Index to the backend. It is a
// no-op when the Executor is read-only. The snapshot is taken under the
// index read lock; the (potentially slow) backend write happens outside
// any Index lock, serialized only by the backend mutex.
func (e *Executor) Flush(ctx context.Context) error {
	if e.readOnly {
		return nil
	}
	_, err := e.Spawn(ctx, func(h *IndexHandle) (any, error) {
		e.beMu.Lock()
		defer e.beMu.Unlock()

		snapshot := h.snapshot()
		op := func() error {
			return e.be.Dump(ctx, snapshot)
		}
		return nil, backoff.Retry(op, newBackoff(ctx))
	})
	return err
}
