package console

import (
	"context"

	"smartfarmer_console/internal/tasks"
)

// startToggle applies the optimistic intent, redraws, then asks the device.
// Overlapping toggles are not serialized.
func (c *Console) startToggle(ctx context.Context) {
	st, want, seq := c.state.BeginToggle()
	c.state = st
	c.render()

	c.tasks.Start(ctx, tasks.KindPump, func(tctx context.Context, id string) {
		active, err := c.dev.SetPump(tctx, id, want)
		c.post(ctx, pumpResult{seq: seq, id: id, requested: want, active: active, err: err})
	})
}

// applyPump reconciles the intent with the device's answer.
// A failed command keeps the optimistic intent until the next good poll.
func (c *Console) applyPump(r pumpResult) {
	if r.err != nil {
		c.report(tasks.KindPump, r.id, 0, r.err)
		return
	}
	st, applied := c.state.ApplyToggle(r.seq, r.active)
	if !applied {
		c.log.Debugw("pump_response_dropped", "request_id", r.id, "seq", r.seq)
		return
	}
	c.state = st
	if r.active != r.requested {
		c.log.Infow("pump_command_overridden", "request_id", r.id, "requested", r.requested, "pump_active", r.active)
	}
	c.render()
}
