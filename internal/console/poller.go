package console

import (
	"context"

	"smartfarmer_console/internal/tasks"
)

// startPoll issues one telemetry read. Earlier polls still in flight are left alone;
// with stale discarding on they are cancelled once a newer reply is applied.
func (c *Console) startPoll(ctx context.Context) {
	st, seq := c.state.IssuePoll()
	c.state = st
	id := c.tasks.Start(ctx, tasks.KindPoll, func(tctx context.Context, id string) {
		snap, err := c.dev.FetchTelemetry(tctx, id)
		c.post(ctx, pollResult{seq: seq, id: id, snap: snap, err: err})
	})
	if id != "" {
		c.polls[seq] = id
	}
}

func (c *Console) applyPoll(r pollResult) {
	if _, ok := c.polls[r.seq]; !ok {
		// cancelled as superseded
		return
	}
	delete(c.polls, r.seq)

	if r.err != nil {
		prevLink := c.state.Link()
		c.state = c.state.PollFailed()
		c.report(tasks.KindPoll, r.id, c.state.Failures(), r.err)
		// Readouts stay as they were; only a link change is worth redrawing.
		if c.state.Link() != prevLink {
			c.render()
		}
		return
	}

	st, applied := c.state.ApplyPoll(r.seq, r.snap)
	if !applied {
		c.log.Debugw("poll_response_dropped", "request_id", r.id, "seq", r.seq)
		return
	}
	c.state = st
	if c.state.discardStale {
		c.cancelSupersededPolls(r.seq)
	}
	c.log.Debugw("poll_applied",
		"request_id", r.id,
		"moisture_pct", r.snap.MoisturePct,
		"ai_wilting_prob", r.snap.AIWiltingProb,
		"pump_active", r.snap.PumpActive,
	)
	c.render()
}

// cancelSupersededPolls abandons polls issued before seq; their replies would be dropped anyway.
func (c *Console) cancelSupersededPolls(seq uint64) {
	for s, id := range c.polls {
		if s < seq {
			c.tasks.Cancel(id)
			delete(c.polls, s)
			c.log.Debugw("poll_superseded", "request_id", id, "seq", s)
		}
	}
}
