package metrics

import "time"

type timer struct {
	client Client
	name   string
	tags   Tags
	start  time.Time
}

// Timer starts a timer which reports a timing metric when stopped.
func Timer(client Client, name string, tags Tags) *timer {
	return &timer{
		client: client,
		name:   name,
		tags:   tags,
		start:  time.Now(),
	}
}

func (t *timer) Stop() {
	t.client.Timing(t.name, t.tags, time.Since(t.start))
}
