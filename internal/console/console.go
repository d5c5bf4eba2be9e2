// Package console keeps the dashboard in step with the device.
//
// A single goroutine (Run) owns the State. Timer ticks, user toggles and
// device replies all reach it as events, so State needs no locking. Device
// requests run as tasks and report back through the same event channel;
// replies are applied in arrival order unless stale-response discarding is on.
package console

import (
	"context"
	"errors"
	"time"

	"smartfarmer_console/internal/diag"
	"smartfarmer_console/internal/logger"
	"smartfarmer_console/internal/models"
	"smartfarmer_console/internal/tasks"
)

// ErrStopped is returned by calls made after Run has returned.
var ErrStopped = errors.New("console stopped")

// Device is the device HTTP API.
type Device interface {
	FetchTelemetry(ctx context.Context, requestID string) (models.Snapshot, error)
	SetPump(ctx context.Context, requestID string, on bool) (bool, error)
}

// Display receives every rendered view. Show is called from the loop goroutine and must not block.
type Display interface {
	Show(v models.View)
}

// Options tune the loop.
type Options struct {
	PollInterval          time.Duration
	StaleAfterFailures    int
	DiscardStaleResponses bool
}

type (
	pollResult struct {
		seq  uint64
		id   string
		snap models.Snapshot
		err  error
	}
	pumpResult struct {
		seq       uint64
		id        string
		requested bool
		active    bool
		err       error
	}
	toggleRequest struct{ reply chan models.View }
	viewRequest   struct{ reply chan models.View }
)

// Console runs the Poller and the Actuator Controller.
type Console struct {
	dev      Device
	display  Display
	reporter diag.Reporter
	tasks    *tasks.Registry
	log      *logger.Logger
	interval time.Duration

	state  State
	polls  map[uint64]string // outstanding poll request ids by sequence number
	events chan any
	done   chan struct{}
}

// New wires a console. display and reporter may be nil.
func New(dev Device, display Display, reporter diag.Reporter, reg *tasks.Registry, log *logger.Logger, opts Options) *Console {
	if log == nil {
		log = logger.Nop()
	}
	return &Console{
		dev:      dev,
		display:  display,
		reporter: reporter,
		tasks:    reg,
		log:      log,
		interval: opts.PollInterval,
		state:    NewState(opts.DiscardStaleResponses, opts.StaleAfterFailures),
		polls:    make(map[uint64]string),
		events:   make(chan any),
		done:     make(chan struct{}),
	}
}

// Run polls immediately, then every PollInterval, until ctx is cancelled.
func (c *Console) Run(ctx context.Context) {
	defer close(c.done)

	ticker := time.NewTicker(c.interval)
	defer ticker.Stop()

	c.startPoll(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			c.startPoll(ctx)
		case ev := <-c.events:
			c.handle(ctx, ev)
		}
	}
}

// Done is closed once Run has returned.
func (c *Console) Done() <-chan struct{} {
	return c.done
}

// Toggle flips the pump intent and sends the command to the device.
// It returns the optimistic view, before the device has answered.
func (c *Console) Toggle(ctx context.Context) (models.View, error) {
	return c.ask(ctx, toggleRequest{reply: make(chan models.View, 1)})
}

// View returns the current view.
func (c *Console) View(ctx context.Context) (models.View, error) {
	return c.ask(ctx, viewRequest{reply: make(chan models.View, 1)})
}

func (c *Console) ask(ctx context.Context, req any) (models.View, error) {
	var reply chan models.View
	switch r := req.(type) {
	case toggleRequest:
		reply = r.reply
	case viewRequest:
		reply = r.reply
	}
	select {
	case c.events <- req:
	case <-c.done:
		return models.View{}, ErrStopped
	case <-ctx.Done():
		return models.View{}, ctx.Err()
	}
	select {
	case v := <-reply:
		return v, nil
	case <-ctx.Done():
		return models.View{}, ctx.Err()
	}
}

func (c *Console) handle(ctx context.Context, ev any) {
	switch e := ev.(type) {
	case pollResult:
		c.applyPoll(e)
	case pumpResult:
		c.applyPump(e)
	case toggleRequest:
		c.startToggle(ctx)
		e.reply <- c.state.View()
	case viewRequest:
		e.reply <- c.state.View()
	}
}

// post hands a task result to the loop; it is dropped once the loop has stopped.
func (c *Console) post(ctx context.Context, ev any) {
	select {
	case c.events <- ev:
	case <-ctx.Done():
	}
}

func (c *Console) render() {
	if c.display != nil {
		c.display.Show(c.state.View())
	}
}

func (c *Console) report(op, id string, failures int, err error) {
	if c.reporter == nil {
		return
	}
	c.reporter.Report(diag.Event{
		Op:        op,
		RequestID: id,
		Err:       err.Error(),
		Failures:  failures,
		At:        time.Now().UTC(),
	})
}
