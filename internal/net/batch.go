package net

import (
	"fmt"
	"runtime"
	"sync"
)

// UnrollBatch unrolls independent sequences across worker goroutines.
// The snapshot is shared read-only. Results keep the order of seqs.
// If any sequence fails, the error of the lowest failing index is returned
// and no traces are.
func UnrollBatch(snap *Snapshot, seqs [][][]float64, future, workers int) ([]*Trace, error) {
	if snap == nil {
		return nil, ErrNoSnapshot
	}
	n := len(seqs)
	if n == 0 {
		return []*Trace{}, nil
	}
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	workers = min(workers, n)

	traces := make([]*Trace, n)
	errs := make([]error, n)

	var wg sync.WaitGroup
	worker := func(start, end int) {
		defer wg.Done()
		for i := start; i < end; i++ {
			traces[i], errs[i] = Unroll(snap, seqs[i], future)
		}
	}

	// Distribute work across workers
	chunkSize := (n + workers - 1) / workers
	for i := 0; i < workers; i++ {
		start := i * chunkSize
		end := min(start+chunkSize, n)
		if start < end {
			wg.Add(1)
			go worker(start, end)
		}
	}
	wg.Wait()

	for i, err := range errs {
		if err != nil {
			return nil, fmt.Errorf("sequence %d: %w", i, err)
		}
	}
	return traces, nil
}
