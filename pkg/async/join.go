package async

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"
)

// ErrNilOp is the failure recorded for a key whose Op is nil.
var ErrNilOp = errors.New("nil operation")

var joinFailuresTotal = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "seal_join_failures_total",
	Help: "Total number of failed operations inside a join by key",
}, []string{"key"})

// JoinError reports the failed keys of a Join. Keys that succeeded are not
// included.
type JoinError struct {
	Failures map[string]error
}

// Error implements the error interface.
func (e *JoinError) Error() string {
	keys := e.Keys()
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, fmt.Sprintf("%s: %v", k, e.Failures[k]))
	}
	return fmt.Sprintf("join failed for %d key(s): %s", len(keys), strings.Join(parts, "; "))
}

// Unwrap exposes the individual failures to errors.Is/As.
func (e *JoinError) Unwrap() []error {
	keys := e.Keys()
	errs := make([]error, 0, len(keys))
	for _, k := range keys {
		errs = append(errs, e.Failures[k])
	}
	return errs
}

// Keys returns the failed keys in sorted order.
func (e *JoinError) Keys() []string {
	keys := make([]string, 0, len(e.Failures))
	for k := range e.Failures {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

type outcome[T any] struct {
	data T
	err  error
}

// Join returns an Op that runs every op concurrently and waits for all of
// them to settle. If any op failed the result is a *JoinError holding the
// failures of the failed keys only; otherwise it is a map of every key to
// its value. An empty ops map succeeds immediately with an empty map.
//
// The key set is fixed when Join is called; mutating ops afterwards has no
// effect on the returned Op.
func Join[T any](ops map[string]Op[T]) Op[map[string]T] {
	keys := make([]string, 0, len(ops))
	for k := range ops {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	fns := make([]Op[T], len(keys))
	for i, k := range keys {
		fns[i] = ops[k]
	}

	return func(ctx context.Context) (map[string]T, error) {
		if len(keys) == 0 {
			return map[string]T{}, nil
		}

		start := time.Now()
		outcomes := make([]outcome[T], len(keys))

		var g errgroup.Group
		for i, fn := range fns {
			g.Go(func() error {
				if fn == nil {
					outcomes[i].err = ErrNilOp
					return nil
				}
				data, err := fn(ctx)
				outcomes[i] = outcome[T]{data: data, err: err}
				return nil
			})
		}
		// Children report through outcomes, never through the group.
		_ = g.Wait()

		var failures map[string]error
		for i, o := range outcomes {
			if o.err == nil {
				continue
			}
			if failures == nil {
				failures = make(map[string]error)
			}
			failures[keys[i]] = o.err
			joinFailuresTotal.WithLabelValues(keys[i]).Inc()
		}

		if failures != nil {
			log.Debug().
				Strs("keys", keys).
				Int("failed", len(failures)).
				Dur("duration", time.Since(start)).
				Msg("Join settled with failures")
			return nil, &JoinError{Failures: failures}
		}

		results := make(map[string]T, len(keys))
		for i, o := range outcomes {
			results[keys[i]] = o.data
		}

		log.Debug().
			Strs("keys", keys).
			Dur("duration", time.Since(start)).
			Msg("Join settled")

		return results, nil
	}
}
