package queue

import (
	"context"
	"fmt"

	"fieldnotify/internal/domain/notification"

	"github.com/hibiken/asynq"
)

// QueueNotifications is the asynq queue dispatch tasks are placed on.
const QueueNotifications = "notifications"

// NewClient creates a new asynq client connected to Redis.
func NewClient(redisAddr, password string, db int) *asynq.Client {
	return asynq.NewClient(asynq.RedisClientOpt{
		Addr:     redisAddr,
		Password: password,
		DB:       db,
	})
}

// NewServer creates a new asynq server connected to Redis.
func NewServer(redisAddr, password string, db int, concurrency int) *asynq.Server {
	return asynq.NewServer(
		asynq.RedisClientOpt{
			Addr:     redisAddr,
			Password: password,
			DB:       db,
		},
		asynq.Config{
			Concurrency: concurrency,
			Queues: map[string]int{
				QueueNotifications: 10, // priority weight
				"default":          1,
			},
		},
	)
}

// TaskEnqueuer abstracts asynq.Client for tests.
type TaskEnqueuer interface {
	EnqueueContext(ctx context.Context, task *asynq.Task, opts ...asynq.Option) (*asynq.TaskInfo, error)
}

// Dispatcher hands events to the worker process through asynq.
type Dispatcher struct {
	client TaskEnqueuer
}

var _ notification.Enqueuer = (*Dispatcher)(nil)

// NewDispatcher wraps an asynq client as a notification.Enqueuer.
func NewDispatcher(client TaskEnqueuer) *Dispatcher {
	return &Dispatcher{client: client}
}

// EnqueueDispatch enqueues an event:dispatch task. Delivery is at most once,
// so the task is never retried.
func (d *Dispatcher) EnqueueDispatch(ctx context.Context, event notification.Event) error {
	task, err := notification.NewDispatchEventTask(event)
	if err != nil {
		return fmt.Errorf("creating task: %w", err)
	}

	_, err = d.client.EnqueueContext(ctx, task,
		asynq.MaxRetry(0),
		asynq.Queue(QueueNotifications),
	)
	if err != nil {
		return fmt.Errorf("enqueuing task: %w", err)
	}
	return nil
}
