// Package async provides a small worker pool for running independent named
// tasks concurrently and collecting their results by name.
package async

import (
	"context"
)

// Task is one unit of work identified by name.
type Task struct {
	Name    string
	Execute func() (interface{}, error)
}

// Result carries a task's outcome under its name.
type Result struct {
	Name string
	Data interface{}
	Err  error
}

// Pool fans tasks out over a fixed number of workers. Channels are created
// per Execute call, so a pool can be reused.
type Pool struct {
	workerCount int
}

// NewPool creates a pool with the given worker count.
func NewPool(workerCount int) *Pool {
	return &Pool{workerCount: workerCount}
}

// Execute runs all tasks and returns their results keyed by task name. When
// the context is cancelled the map may be missing entries for tasks that
// never completed, so callers must check len(results) against len(tasks).
// Workers always drain: the result channel is buffered for every task, so an
// in-flight task finishing after cancellation delivers its result and exits
// instead of blocking on a departed collector.
func (p *Pool) Execute(ctx context.Context, tasks []Task) map[string]Result {
	taskCh := make(chan Task)
	resultCh := make(chan Result, len(tasks))

	for i := 0; i < p.workerCount; i++ {
		go func() {
			for task := range taskCh {
				data, err := task.Execute()
				resultCh <- Result{
					Name: task.Name,
					Data: data,
					Err:  err,
				}
			}
		}()
	}

	go func() {
		defer close(taskCh)
		for _, task := range tasks {
			select {
			case taskCh <- task:
			case <-ctx.Done():
				return
			}
		}
	}()

	results := make(map[string]Result, len(tasks))
	for i := 0; i < len(tasks); i++ {
		select {
		case result := <-resultCh:
			results[result.Name] = result
		case <-ctx.Done():
			return results
		}
	}

	return results
}
