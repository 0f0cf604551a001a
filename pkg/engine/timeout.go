package engine

import (
	"errors"
	"fmt"
	"sync"
	"time"
)

// EvalTimeout is the default limit for a single evaluation.
const EvalTimeout = 5 * time.Second

// ErrSuperseded is returned when a newer evaluation started before this one
// finished.
var ErrSuperseded = errors.New("evaluation superseded by newer request")

// ErrTimeout is returned when an evaluation exceeds its limit.
var ErrTimeout = errors.New("evaluation timed out")

type evalResult struct {
	res Result
	err error
}

// waitWithTimeout waits for a result on ch for at most timeout. A result
// whose generation is no longer current is discarded.
//
// On timeout halt is called so the evaluating goroutine stops working; its
// result, if any, lands in the buffered channel and is never read.
func waitWithTimeout(
	ch <-chan evalResult,
	gen uint64,
	timeout time.Duration,
	mu *sync.Mutex,
	currentGen *uint64,
	halt func(),
) (Result, error) {
	timer := time.NewTimer(timeout)
	defer timer.Stop()

	select {
	case r := <-ch:
		mu.Lock()
		current := *currentGen
		mu.Unlock()

		if gen != current {
			return Result{}, ErrSuperseded
		}
		return r.res, r.err

	case <-timer.C:
		halt()
		return Result{}, fmt.Errorf("%w after %s", ErrTimeout, timeout)
	}
}
