package util

import (
	"context"
	"sync"
)

// Parallel calls fn for every input on at most workerLimit goroutines and
// returns the results in input order. A failing item does not stop the
// others; its error lands at the same index in errs. Items not reached
// before ctx is cancelled get ctx.Err().
func Parallel[T, R any](ctx context.Context, inputs []T, workerLimit int, fn func(context.Context, T) (R, error)) (results []R, errs []error) {
	results = make([]R, len(inputs))
	errs = make([]error, len(inputs))
	if len(inputs) == 0 {
		return results, errs
	}

	if workerLimit <= 0 {
		workerLimit = 1
	}
	workerLimit = min(workerLimit, len(inputs))

	tasks := make(chan int)

	// workers
	wg := sync.WaitGroup{}
	for i := 0; i < workerLimit; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for idx := range tasks {
				results[idx], errs[idx] = fn(ctx, inputs[idx])
			}
		}()
	}

	// feed tasks
	fed := 0
feed:
	for ; fed < len(inputs); fed++ {
		if ctx.Err() != nil {
			break
		}
		select {
		case <-ctx.Done():
			break feed
		case tasks <- fed:
		}
	}
	close(tasks)
	wg.Wait()

	for i := fed; i < len(inputs); i++ {
		errs[i] = ctx.Err()
	}
	return results, errs
}
