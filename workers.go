package osmworld

import (
	"context"
	"sync"
)

// runPartitioned splits [0, total) into at most `workers` contiguous chunks and
// processes each chunk in its own goroutine.
//
// Workers never touch shared state: each returns a local result which is handed
// to merge under a single lock once the worker completes. merge is therefore
// called at most `workers` times.
func runPartitioned[T any](ctx context.Context, total, workers int, work func(lo, hi int) T, merge func(T)) error {
	if total == 0 {
		return ctx.Err()
	}
	if workers <= 0 {
		workers = 1
	}
	if workers > total {
		workers = total
	}
	chunkSize := (total + workers - 1) / workers

	var wg sync.WaitGroup
	var mu sync.Mutex
	for lo := 0; lo < total; lo += chunkSize {
		hi := min(lo+chunkSize, total)
		wg.Add(1)
		go func(lo, hi int) {
			defer wg.Done()
			if ctx.Err() != nil {
				return
			}
			local := work(lo, hi)
			mu.Lock()
			merge(local)
			mu.Unlock()
		}(lo, hi)
	}
	wg.Wait()
	return ctx.Err()
}
