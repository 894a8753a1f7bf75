package history

import (
	"time"

	"github.com/everflowhq/everflow/backend/metadata"
	"github.com/everflowhq/everflow/backend/payload"
	"github.com/everflowhq/everflow/core"
)

type ActivityScheduledAttributes struct {
	Name string `json:"name,omitempty"`

	// Attempt is the zero-based attempt number of this execution of the
	// logical activity. Retries schedule new attempts of the same activity,
	// not new activities.
	Attempt int `json:"attempt,omitempty"`

	Inputs []payload.Payload `json:"inputs,omitempty"`

	Metadata *metadata.WorkflowMetadata `json:"metadata,omitempty"`

	Queue *core.Queue `json:"queue,omitempty"`

	// StartToCloseTimeout bounds a single execution attempt, enforced by the
	// worker executing the activity.
	StartToCloseTimeout time.Duration `json:"start_to_close_timeout,omitempty"`

	// ScheduleToStartTimeout bounds the time the task may spend queued before
	// a worker claims it.
	ScheduleToStartTimeout time.Duration `json:"schedule_to_start_timeout,omitempty"`

	// HeartbeatTimeout, if set, requires the executing worker to report
	// liveness within the window; a missed heartbeat fails the attempt.
	HeartbeatTimeout time.Duration `json:"heartbeat_timeout,omitempty"`
}
