package diag

import "smartfarmer_console/internal/logger"

// LogReporter writes failures to the structured log.
type LogReporter struct {
	log *logger.Logger
}

// NewLogReporter reports through log. A nil log discards events.
func NewLogReporter(log *logger.Logger) *LogReporter {
	return &LogReporter{log: log}
}

// Report logs ev as a warning named after its op, e.g. poll_failed.
func (r *LogReporter) Report(ev Event) {
	if r.log == nil {
		return
	}
	r.log.Warnw(ev.Op+"_failed",
		"request_id", ev.RequestID,
		"err", ev.Err,
		"consecutive_failures", ev.Failures,
	)
}
