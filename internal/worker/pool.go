// Package worker provides the bounded-concurrency primitives the scheduler
// fans out with: a fixed-size task pool and a per-dependency rate limiter.
package worker

import (
	"context"
	"sync"
)

// Task is a unit of work executed by the pool
type Task interface {
	Execute(ctx context.Context) Result
}

// Result is the outcome of one task
type Result interface {
	Err() error
}

// Pool executes tasks at a hard concurrency cap. The cap is not dynamically
// scaled: the binding constraint is an external provider's rate limit, not
// local compute.
type Pool struct {
	workers int
}

// NewPool creates a pool with the given concurrency cap.
func NewPool(workers int) *Pool {
	if workers <= 0 {
		workers = 1
	}
	return &Pool{workers: workers}
}

// Run executes all tasks and returns their results in task order. It
// returns once every task has finished or the context is cancelled; tasks
// already in flight are allowed to complete.
func (p *Pool) Run(ctx context.Context, tasks []Task) []Result {
	if len(tasks) == 0 {
		return nil
	}

	results := make([]Result, len(tasks))
	jobs := make(chan int)

	var wg sync.WaitGroup
	workers := p.workers
	if workers > len(tasks) {
		workers = len(tasks)
	}

	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for idx := range jobs {
				results[idx] = tasks[idx].Execute(ctx)
			}
		}()
	}

	for i := range tasks {
		select {
		case <-ctx.Done():
			close(jobs)
			wg.Wait()
			return results
		case jobs <- i:
		}
	}
	close(jobs)
	wg.Wait()
	return results
}
