package notification

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/hibiken/asynq"
)

// TaskTypeDispatchEvent is the asynq task type for dispatching an event.
const TaskTypeDispatchEvent = "event:dispatch"

// DispatchEventPayload is the serialized payload for a dispatch task.
type DispatchEventPayload struct {
	Type string         `json:"type"`
	Data map[string]any `json:"data,omitempty"`
}

// NewDispatchEventTask creates a new asynq task for dispatching an event.
func NewDispatchEventTask(event Event) (*asynq.Task, error) {
	payload, err := json.Marshal(DispatchEventPayload{Type: event.Type, Data: event.Data})
	if err != nil {
		return nil, fmt.Errorf("marshaling task payload: %w", err)
	}
	return asynq.NewTask(TaskTypeDispatchEvent, payload), nil
}

// ParseDispatchEventPayload deserializes the task payload into an event.
// Numbers are kept as json.Number so large ids survive the round trip.
func ParseDispatchEventPayload(data []byte) (Event, error) {
	var p DispatchEventPayload
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	if err := dec.Decode(&p); err != nil {
		return Event{}, fmt.Errorf("unmarshaling task payload: %w", err)
	}
	if p.Type == "" {
		return Event{}, fmt.Errorf("task payload has no event type")
	}
	return Event{Type: p.Type, Data: p.Data}, nil
}
