package async

import (
	"context"
	"errors"
	"sync/atomic"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/rs/zerolog/log"
)

// ErrDuplicateCompletion is logged when a callback-style producer reports
// more than one outcome.
var ErrDuplicateCompletion = errors.New("operation completed more than once")

var duplicateCompletionsTotal = promauto.NewCounter(prometheus.CounterOpts{
	Name: "seal_async_duplicate_completions_total",
	Help: "Total number of completions dropped because the operation had already settled",
})

// Op is a unit of asynchronous work producing a value or an error exactly once.
type Op[T any] func(ctx context.Context) (T, error)

// Then chains fn onto op. fn only runs when op succeeds.
func Then[T, U any](op Op[T], fn func(T) (U, error)) Op[U] {
	return func(ctx context.Context) (U, error) {
		v, err := op(ctx)
		if err != nil {
			var zero U
			return zero, err
		}
		return fn(v)
	}
}

// Value returns an Op that succeeds immediately with v.
func Value[T any](v T) Op[T] {
	return func(context.Context) (T, error) { return v, nil }
}

// Fail returns an Op that fails immediately with err.
func Fail[T any](err error) Op[T] {
	return func(context.Context) (T, error) {
		var zero T
		return zero, err
	}
}

// FromCallback adapts a producer that reports its outcome through a done
// callback. The first call to done settles the Op; later calls are counted,
// logged and ignored. If ctx ends before done is called the Op fails with
// the context error.
func FromCallback[T any](start func(ctx context.Context, done func(T, error))) Op[T] {
	type outcome struct {
		data T
		err  error
	}

	return func(ctx context.Context) (T, error) {
		var settled atomic.Bool
		ch := make(chan outcome, 1)

		start(ctx, func(data T, err error) {
			if !settled.CompareAndSwap(false, true) {
				duplicateCompletionsTotal.Inc()
				log.Warn().
					Err(ErrDuplicateCompletion).
					AnErr("dropped_error", err).
					Msg("Ignoring duplicate completion")
				return
			}
			ch <- outcome{data: data, err: err}
		})

		select {
		case o := <-ch:
			return o.data, o.err
		case <-ctx.Done():
			var zero T
			return zero, ctx.Err()
		}
	}
}
