package history

import "github.com/everflowhq/everflow/core"

// EventsByWorkflowInstance groups the given events by target workflow
// instance.
func EventsByWorkflowInstance(events []*WorkflowEvent) map[core.WorkflowInstance][]*WorkflowEvent {
	groupedEvents := make(map[core.WorkflowInstance][]*WorkflowEvent)

	for _, m := range events {
		instance := *m.WorkflowInstance

		groupedEvents[instance] = append(groupedEvents[instance], m)
	}

	return groupedEvents
}
