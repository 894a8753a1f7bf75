package core

import (
	"errors"
	"regexp"
)

// Queue is the name of a task queue. Workflow and activity tasks are matched
// to workers polling the same queue.
type Queue string

const (
	// QueueDefault is used when no explicit queue is given.
	QueueDefault = Queue("default")

	// QueueSystem is reserved for internal workflows and activities.
	QueueSystem = Queue("_system_")
)

var validQueueName = regexp.MustCompile(`^[a-zA-Z0-9_-]{1,63}$`)

// ValidQueue ensures that the queue name is valid.
func ValidQueue(q Queue) error {
	if !validQueueName.MatchString(string(q)) {
		return errors.New("invalid queue name")
	}

	return nil
}
