// Package diag is the observability side channel for device request failures.
// Reporters must not block: they are called from the console loop.
package diag

import (
	"time"
)

// Event describes one failed device request.
type Event struct {
	Op        string    `json:"op"` // poll | pump
	RequestID string    `json:"request_id"`
	Err       string    `json:"error"`
	Failures  int       `json:"consecutive_failures,omitempty"`
	At        time.Time `json:"at"`
}

// Reporter receives failure events.
type Reporter interface {
	Report(ev Event)
}

// Multi fans an event out to several reporters.
type Multi []Reporter

// Report passes ev to each reporter in order, skipping nil ones.
func (m Multi) Report(ev Event) {
	for _, r := range m {
		if r != nil {
			r.Report(ev)
		}
	}
}
