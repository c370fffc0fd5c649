package sim

import (
	"context"
	"sync"
)

// Job builds one independent run. Simulators share nothing, so jobs can run
// on separate goroutines.
type Job func(ctx context.Context) (*Result, error)

// Ensemble runs jobs concurrently, at most workers at a time.
type Ensemble struct {
	jobs    []Job
	workers int
}

// NewEnsemble returns an ensemble. workers <= 0 runs every job at once.
func NewEnsemble(workers int, jobs ...Job) *Ensemble {
	return &Ensemble{jobs: jobs, workers: workers}
}

// Run returns results in job order. The first error wins, but every job is
// allowed to finish.
func (e *Ensemble) Run(ctx context.Context) ([]*Result, error) {
	results := make([]*Result, len(e.jobs))
	errs := make([]error, len(e.jobs))

	workers := e.workers
	if workers <= 0 || workers > len(e.jobs) {
		workers = len(e.jobs)
	}
	sem := make(chan struct{}, max(workers, 1))

	var wg sync.WaitGroup
	for i, job := range e.jobs {
		wg.Add(1)
		go func(idx int, job Job) {
			defer wg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()

			results[idx], errs[idx] = job(ctx)
		}(i, job)
	}

	wg.Wait()

	for _, err := range errs {
		if err != nil {
			return nil, err
		}
	}

	return results, nil
}
