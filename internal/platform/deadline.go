// Package platform holds the cross-cutting helpers every component uses:
// deadlines and the request-scoped cancellation discipline described in §5.
package platform

import (
	"context"
	"time"
)

// Default per-operation deadlines, §5 "Timeouts".
const (
	RequestDeadline    = 30 * time.Second
	DatabaseDeadline   = 10 * time.Second
	ObjectUploadDeadline = 30 * time.Second
	SignedURLDeadline  = 5 * time.Second
)

// WithDeadline runs fn under a context bounded by d, replacing the
// teacher's per-call-site context.WithTimeout idiom (storage/s3aws.go,
// db/postgres.go) with the single helper the REDESIGN FLAGS call for.
// The returned error is fn's error, or ctx.Err() if the deadline won the
// race.
func WithDeadline(ctx context.Context, d time.Duration, fn func(ctx context.Context) error) error {
	dctx, cancel := context.WithTimeout(ctx, d)
	defer cancel()

	done := make(chan error, 1)
	go func() {
		done <- fn(dctx)
	}()

	select {
	case err := <-done:
		return err
	case <-dctx.Done():
		return dctx.Err()
	}
}
