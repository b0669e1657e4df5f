package tasks

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

// Agent resolves one submitted message into a reply. requestForm may be
// called mid-task to surface a form to the polling client.
type Agent interface {
	Respond(ctx context.Context, threadID, message string, requestForm func(form string)) (string, error)
}

// Queue accepts chat submissions and resolves them on a fixed pool of
// workers. Clients observe progress through the Store.
type Queue struct {
	store   Store
	agent   Agent
	jobs    chan *Task
	workers int
	timeout time.Duration

	wg     sync.WaitGroup
	cancel context.CancelFunc
}

func NewQueue(store Store, agent Agent, workers int, timeout time.Duration) *Queue {
	return &Queue{
		store:   store,
		agent:   agent,
		jobs:    make(chan *Task, 64),
		workers: workers,
		timeout: timeout,
	}
}

// Start launches the worker pool.
func (q *Queue) Start() {
	ctx, cancel := context.WithCancel(context.Background())
	q.cancel = cancel

	for i := 0; i < q.workers; i++ {
		q.wg.Add(1)
		go q.worker(ctx, i)
	}
	log.Info().Int("workers", q.workers).Msg("Task queue started")
}

// Stop drains no further work and waits for in-flight tasks to finish.
func (q *Queue) Stop() {
	if q.cancel != nil {
		q.cancel()
	}
	q.wg.Wait()
}

// Submit records a pending task and enqueues it for a worker. It returns
// the task id for status polling.
func (q *Queue) Submit(ctx context.Context, threadID, message string) (string, error) {
	task := &Task{
		ID:        uuid.NewString(),
		ThreadID:  threadID,
		Message:   message,
		State:     StatePending,
		CreatedAt: time.Now().UTC(),
	}

	if err := q.store.Put(ctx, task); err != nil {
		return "", fmt.Errorf("failed to record task: %w", err)
	}

	select {
	case q.jobs <- task:
	default:
		task.State = StateFailed
		task.Error = "The assistant is busy right now. Please try again shortly."
		_ = q.store.Put(ctx, task)
		return "", fmt.Errorf("task queue full")
	}

	log.Info().Str("task_id", task.ID).Str("thread_id", threadID).Msg("Task enqueued")
	return task.ID, nil
}

func (q *Queue) worker(ctx context.Context, id int) {
	defer q.wg.Done()
	for {
		select {
		case <-ctx.Done():
			return
		case task := <-q.jobs:
			q.process(ctx, task)
		}
	}
}

func (q *Queue) process(ctx context.Context, task *Task) {
	taskCtx, cancel := context.WithTimeout(ctx, q.timeout)
	defer cancel()

	started := time.Now()
	log.Debug().Str("task_id", task.ID).Msg("Processing task")

	requestForm := func(form string) {
		task.FormToDisplay = form
		if err := q.store.Put(taskCtx, task); err != nil {
			log.Error().Err(err).Str("task_id", task.ID).Msg("Failed to record form request")
		}
	}

	reply, err := q.agent.Respond(taskCtx, task.ThreadID, task.Message, requestForm)
	if err != nil {
		log.Error().Err(err).Str("task_id", task.ID).Msg("Task failed")
		task.State = StateFailed
		task.Error = fmt.Sprintf("An internal error occurred: %v", err)
	} else {
		task.State = StateCompleted
		task.Reply = reply
		// Completion supersedes any outstanding form request.
		task.FormToDisplay = ""
	}

	if err := q.store.Put(context.WithoutCancel(taskCtx), task); err != nil {
		log.Error().Err(err).Str("task_id", task.ID).Msg("Failed to record task result")
	}

	log.Info().
		Str("task_id", task.ID).
		Str("state", string(task.State)).
		Dur("elapsed", time.Since(started)).
		Msg("Task resolved")
}
