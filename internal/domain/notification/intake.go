package notification

import (
	"context"
	"log/slog"
	"maps"
	"sync"
	"time"
)

// Intake modes reported to callers.
const (
	ModeQueue  = "queue"
	ModeInline = "inline"
)

// Enqueuer hands an event to the background queue.
// This allows the intake to be decoupled from the specific queue implementation.
type Enqueuer interface {
	EnqueueDispatch(ctx context.Context, event Event) error
}

// Intake is the entry point for business code. Emit never blocks on delivery
// and never fails the caller.
type Intake struct {
	dispatcher *Dispatcher
	enqueuer   Enqueuer
	timeout    time.Duration
	wg         sync.WaitGroup
}

// NewIntake creates an intake. With a nil enqueuer, events are dispatched on
// a detached goroutine bounded by timeout.
func NewIntake(dispatcher *Dispatcher, enqueuer Enqueuer, timeout time.Duration) *Intake {
	if timeout <= 0 {
		timeout = 2 * time.Minute
	}
	return &Intake{
		dispatcher: dispatcher,
		enqueuer:   enqueuer,
		timeout:    timeout,
	}
}

// Emit schedules a dispatch for the event and returns the mode used. A queue
// failure falls back to an inline dispatch.
func (i *Intake) Emit(ctx context.Context, eventType string, data map[string]any) string {
	event := Event{Type: eventType, Data: maps.Clone(data)}

	if i.enqueuer != nil {
		err := i.enqueuer.EnqueueDispatch(ctx, event)
		if err == nil {
			slog.Debug("event enqueued", "event_type", eventType)
			return ModeQueue
		}
		slog.Warn("enqueue failed, dispatching inline", "event_type", eventType, "error", err)
	}

	i.wg.Add(1)
	go func() {
		defer i.wg.Done()

		dctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), i.timeout)
		defer cancel()

		i.dispatcher.Dispatch(dctx, event)
	}()

	return ModeInline
}

// Wait blocks until all inline dispatches started by Emit have finished.
func (i *Intake) Wait() {
	i.wg.Wait()
}
