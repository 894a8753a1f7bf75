package diag

import (
	"context"
	"fmt"
	"time"

	"github.com/everflowhq/everflow/backend"
	"github.com/everflowhq/everflow/core"
)

// WorkflowInstanceRef is a summary of a single workflow execution.
type WorkflowInstanceRef struct {
	Instance    *core.WorkflowInstance     `json:"instance,omitempty"`
	CreatedAt   time.Time                  `json:"created_at,omitempty"`
	CompletedAt *time.Time                 `json:"completed_at,omitempty"`
	State       core.WorkflowInstanceState `json:"state"`
	Queue       string                     `json:"queue"`
}

// Event is a read-only view of a history event with the type rendered as a
// string.
type Event struct {
	ID              string      `json:"id,omitempty"`
	SequenceID      int64       `json:"sequence_id,omitempty"`
	Type            string      `json:"type,omitempty"`
	Timestamp       time.Time   `json:"timestamp,omitempty"`
	ScheduleEventID int64       `json:"schedule_event_id,omitempty"`
	Attributes      interface{} `json:"attributes,omitempty"`
	VisibleAt       *time.Time  `json:"visible_at,omitempty"`
}

type WorkflowInstanceInfo struct {
	*WorkflowInstanceRef

	History []*Event `json:"history,omitempty"`
}

// Backend is implemented by backends which support diagnostic queries in
// addition to the regular backend contract.
type Backend interface {
	backend.Backend

	GetWorkflowInstance(ctx context.Context, instance *core.WorkflowInstance) (*WorkflowInstanceRef, error)
	GetWorkflowInstances(ctx context.Context, afterInstanceID, afterExecutionID string, count int) ([]*WorkflowInstanceRef, error)
}

// GetWorkflowInstanceInfo returns the summary and full history of the given
// execution.
func GetWorkflowInstanceInfo(ctx context.Context, b Backend, instance *core.WorkflowInstance) (*WorkflowInstanceInfo, error) {
	ref, err := b.GetWorkflowInstance(ctx, instance)
	if err != nil {
		return nil, fmt.Errorf("getting instance: %w", err)
	}

	h, err := b.GetWorkflowInstanceHistory(ctx, instance, nil)
	if err != nil {
		return nil, fmt.Errorf("getting instance history: %w", err)
	}

	events := make([]*Event, 0, len(h))
	for _, event := range h {
		events = append(events, &Event{
			ID:              event.ID,
			SequenceID:      event.SequenceID,
			Type:            event.Type.String(),
			Timestamp:       event.Timestamp,
			ScheduleEventID: event.ScheduleEventID,
			Attributes:      event.Attributes,
			VisibleAt:       event.VisibleAt,
		})
	}

	return &WorkflowInstanceInfo{
		WorkflowInstanceRef: ref,
		History:             events,
	}, nil
}

// Diagnosis classifies an execution as progressing or stuck.
type Diagnosis struct {
	*WorkflowInstanceRef

	// LastEventAt is the timestamp of the newest history event
	LastEventAt time.Time `json:"last_event_at,omitempty"`

	// Stuck is true if the execution is still active but has not recorded an
	// event within the given window
	Stuck bool `json:"stuck"`
}

// Diagnose inspects the history of an active execution and reports whether it
// has made progress within the given window. Completed executions are never
// stuck.
func Diagnose(ctx context.Context, b Backend, instance *core.WorkflowInstance, window time.Duration) (*Diagnosis, error) {
	info, err := GetWorkflowInstanceInfo(ctx, b, instance)
	if err != nil {
		return nil, err
	}

	d := &Diagnosis{
		WorkflowInstanceRef: info.WorkflowInstanceRef,
	}

	if len(info.History) > 0 {
		d.LastEventAt = info.History[len(info.History)-1].Timestamp
	} else {
		d.LastEventAt = info.CreatedAt
	}

	if info.State == core.WorkflowInstanceStateActive && time.Since(d.LastEventAt) > window {
		d.Stuck = true
	}

	return d, nil
}
