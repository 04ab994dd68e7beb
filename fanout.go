package main

import (
	"context"
	"log"

	"golang.org/x/sync/errgroup"
)

// FanOutTask is one independent keyed unit of work
type FanOutTask struct {
	Key string
	Run func(ctx context.Context) (string, error)
}

// TaskResult is one settled fan-out task. Err carries the task's failure;
// a failed task never affects its siblings.
type TaskResult struct {
	Key     string
	Content string
	Err     error
}

// Dispatch runs all tasks concurrently and returns a channel that delivers
// settlements in completion order, not submission order. The channel is
// closed once every task has settled, so callers can range over it.
//
// Cancellation is cooperative: each task receives ctx, and callers should
// stop draining when ctx is done. The channel is buffered to task count so
// uninterruptible stragglers can settle and be discarded without leaking
// goroutines.
func Dispatch(ctx context.Context, tasks []FanOutTask) <-chan TaskResult {
	results := make(chan TaskResult, len(tasks))

	// A plain errgroup joins the tasks; task failures are captured into
	// results, never returned, so one failure cannot cancel the rest.
	var g errgroup.Group
	for _, task := range tasks {
		task := task // Capture loop variable
		g.Go(func() error {
			content, err := task.Run(ctx)
			if err != nil {
				log.Printf("Fan-out task %s failed: %v", task.Key, err)
			}
			results <- TaskResult{Key: task.Key, Content: content, Err: err}
			return nil
		})
	}

	go func() {
		g.Wait()
		close(results)
	}()

	return results
}

// ModelTasks builds one fan-out task per model, all sharing the same message
// history.
func ModelTasks(client ModelClient, models []string, messages []ChatMessage) []FanOutTask {
	tasks := make([]FanOutTask, 0, len(models))
	for _, model := range models {
		model := model
		tasks = append(tasks, FanOutTask{
			Key: model,
			Run: func(ctx context.Context) (string, error) {
				return client.Generate(ctx, model, messages)
			},
		})
	}
	return tasks
}
