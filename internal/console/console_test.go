package console

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"smartfarmer_console/internal/diag"
	"smartfarmer_console/internal/models"
	"smartfarmer_console/internal/tasks"
)

// ---- test doubles ----

type pumpCall struct {
	on    bool
	id    string
	reply chan pumpReply
}

type pumpReply struct {
	active bool
	err    error
}

type fakeDevice struct {
	mu      sync.Mutex
	snap    models.Snapshot
	pollErr error
	polls   int

	pumpCalls chan pumpCall
}

func newFakeDevice(snap models.Snapshot) *fakeDevice {
	return &fakeDevice{snap: snap, pumpCalls: make(chan pumpCall, 8)}
}

func (d *fakeDevice) FetchTelemetry(ctx context.Context, _ string) (models.Snapshot, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.polls++
	if d.pollErr != nil {
		return models.Snapshot{}, d.pollErr
	}
	return d.snap, nil
}

func (d *fakeDevice) SetPump(ctx context.Context, id string, on bool) (bool, error) {
	call := pumpCall{on: on, id: id, reply: make(chan pumpReply, 1)}
	d.pumpCalls <- call
	select {
	case r := <-call.reply:
		return r.active, r.err
	case <-ctx.Done():
		return false, ctx.Err()
	}
}

func (d *fakeDevice) setPollErr(err error) {
	d.mu.Lock()
	d.pollErr = err
	d.mu.Unlock()
}

func (d *fakeDevice) pollCount() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.polls
}

type recordingDisplay struct {
	mu    sync.Mutex
	views []models.View
}

func (r *recordingDisplay) Show(v models.View) {
	r.mu.Lock()
	r.views = append(r.views, v)
	r.mu.Unlock()
}

func (r *recordingDisplay) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.views)
}

func (r *recordingDisplay) last() models.View {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.views) == 0 {
		return models.View{}
	}
	return r.views[len(r.views)-1]
}

type recordingReporter struct {
	mu     sync.Mutex
	events []diag.Event
}

func (r *recordingReporter) Report(ev diag.Event) {
	r.mu.Lock()
	r.events = append(r.events, ev)
	r.mu.Unlock()
}

func (r *recordingReporter) countOp(op string) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, e := range r.events {
		if e.Op == op {
			n++
		}
	}
	return n
}

// ---- helpers ----

func waitFor(t *testing.T, what string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(2 * time.Millisecond)
	}
	t.Fatalf("timed out waiting for %s", what)
}

type harness struct {
	c       *Console
	dev     *fakeDevice
	display *recordingDisplay
	rep     *recordingReporter
}

func startConsole(t *testing.T, dev *fakeDevice, opts Options) *harness {
	t.Helper()
	if opts.PollInterval == 0 {
		opts.PollInterval = time.Hour // only the startup poll
	}
	h := &harness{dev: dev, display: &recordingDisplay{}, rep: &recordingReporter{}}
	reg := tasks.NewRegistry(0)
	h.c = New(dev, h.display, h.rep, reg, nil, opts)

	ctx, cancel := context.WithCancel(context.Background())
	go h.c.Run(ctx)
	t.Cleanup(func() {
		cancel()
		<-h.c.done
		_ = reg.Close()
	})
	return h
}

func (h *harness) nextPumpCall(t *testing.T) pumpCall {
	t.Helper()
	select {
	case call := <-h.dev.pumpCalls:
		return call
	case <-time.After(2 * time.Second):
		t.Fatalf("no pump request reached the device")
	}
	return pumpCall{}
}

var scenarioSnapshot = models.Snapshot{MoisturePct: 42.37, AIWiltingProb: 81.0, SecondsToSleep: 120, PumpActive: false}

// ---- scenarios ----

func TestConsole_FirstPollRendersSnapshot(t *testing.T) {
	h := startConsole(t, newFakeDevice(scenarioSnapshot), Options{})

	waitFor(t, "first render", func() bool { return h.display.count() == 1 })
	v := h.display.last()
	if v.Moisture.Text != "42.4%" || v.AIPredict.Text != "81.0%" || v.Countdown != "120" {
		t.Fatalf("unexpected readouts: %+v", v)
	}
	if v.Pump.Label != "Standby" || v.Link != models.LinkOnline {
		t.Fatalf("unexpected pump/link: %+v / %q", v.Pump, v.Link)
	}
}

func TestConsole_PollsOnInterval(t *testing.T) {
	h := startConsole(t, newFakeDevice(scenarioSnapshot), Options{PollInterval: 10 * time.Millisecond})
	waitFor(t, "several polls", func() bool { return h.dev.pollCount() >= 3 })
	waitFor(t, "one render per poll", func() bool { return h.display.count() >= 3 })
}

func TestConsole_ToggleAcceptedStaysActive(t *testing.T) {
	h := startConsole(t, newFakeDevice(scenarioSnapshot), Options{})
	waitFor(t, "first render", func() bool { return h.display.count() == 1 })

	v, err := h.c.Toggle(context.Background())
	if err != nil {
		t.Fatalf("Toggle: %v", err)
	}
	if v.Pump.Label != "Active" || v.Pump.Button != "Stop Irrigation" {
		t.Fatalf("optimistic view must be active, got %+v", v.Pump)
	}
	if got := h.display.last().Pump.State; got != models.PumpActive {
		t.Fatalf("display must show active before the device answers, got %q", got)
	}

	call := h.nextPumpCall(t)
	if !call.on {
		t.Fatalf("expected state=1 request")
	}
	if call.id == "" {
		t.Fatalf("pump request must carry a request id")
	}
	call.reply <- pumpReply{active: true}

	waitFor(t, "reconciliation render", func() bool { return h.display.count() == 3 })
	if got := h.display.last().Pump; got.Label != "Active" || got.Button != "Stop Irrigation" {
		t.Fatalf("expected active after accept, got %+v", got)
	}
}

func TestConsole_ToggleRejectedRevertsToStandby(t *testing.T) {
	h := startConsole(t, newFakeDevice(scenarioSnapshot), Options{})
	waitFor(t, "first render", func() bool { return h.display.count() == 1 })

	v, err := h.c.Toggle(context.Background())
	if err != nil {
		t.Fatalf("Toggle: %v", err)
	}
	if v.Pump.State != models.PumpActive {
		t.Fatalf("optimistic view must be active")
	}

	call := h.nextPumpCall(t)
	call.reply <- pumpReply{active: false}

	waitFor(t, "reconciliation render", func() bool { return h.display.count() == 3 })
	if got := h.display.last().Pump; got.Label != "Standby" || got.Button != "Force Irrigation" {
		t.Fatalf("device rejection must win, got %+v", got)
	}
}

func TestConsole_ToggleFailureKeepsOptimisticIntent(t *testing.T) {
	h := startConsole(t, newFakeDevice(scenarioSnapshot), Options{})
	waitFor(t, "first render", func() bool { return h.display.count() == 1 })

	if _, err := h.c.Toggle(context.Background()); err != nil {
		t.Fatalf("Toggle: %v", err)
	}
	call := h.nextPumpCall(t)
	call.reply <- pumpReply{err: errors.New("connection refused")}

	waitFor(t, "pump failure reported", func() bool { return h.rep.countOp(tasks.KindPump) == 1 })
	v, err := h.c.View(context.Background())
	if err != nil {
		t.Fatalf("View: %v", err)
	}
	if v.Pump.State != models.PumpActive {
		t.Fatalf("failed command must not roll back, got %q", v.Pump.State)
	}
	if h.display.count() != 2 {
		t.Fatalf("failure must not trigger a render, got %d renders", h.display.count())
	}
}

func TestConsole_NextPollCorrectsIntent(t *testing.T) {
	h := startConsole(t, newFakeDevice(scenarioSnapshot), Options{PollInterval: 20 * time.Millisecond})
	waitFor(t, "first render", func() bool { return h.display.count() >= 1 })

	if _, err := h.c.Toggle(context.Background()); err != nil {
		t.Fatalf("Toggle: %v", err)
	}
	call := h.nextPumpCall(t)
	call.reply <- pumpReply{err: errors.New("timeout")}

	waitFor(t, "poll overwrites optimistic intent", func() bool {
		return h.display.last().Pump.State == models.PumpStandby
	})
}

func TestConsole_OverlappingTogglesAreNotSerialized(t *testing.T) {
	h := startConsole(t, newFakeDevice(scenarioSnapshot), Options{})
	waitFor(t, "first render", func() bool { return h.display.count() == 1 })

	first, _ := h.c.Toggle(context.Background())
	second, _ := h.c.Toggle(context.Background())
	if first.Pump.State != models.PumpActive || second.Pump.State != models.PumpStandby {
		t.Fatalf("each toggle flips the intent: %q then %q", first.Pump.State, second.Pump.State)
	}

	a := h.nextPumpCall(t)
	b := h.nextPumpCall(t)
	if a.on == b.on {
		t.Fatalf("expected one on and one off request, got %v/%v", a.on, b.on)
	}
	// Arrival order decides: the reply delivered last is what stays on screen.
	b.reply <- pumpReply{active: b.on}
	waitFor(t, "first reply", func() bool { return h.display.count() == 4 })
	a.reply <- pumpReply{active: a.on}
	waitFor(t, "second reply", func() bool { return h.display.count() == 5 })

	want := models.PumpStandby
	if a.on {
		want = models.PumpActive
	}
	if got := h.display.last().Pump.State; got != want {
		t.Fatalf("last-arrived reply must win: got %q, want %q", got, want)
	}
}

func TestConsole_PollTimeoutsKeepDisplay(t *testing.T) {
	dev := newFakeDevice(scenarioSnapshot)
	h := startConsole(t, dev, Options{PollInterval: 10 * time.Millisecond, StaleAfterFailures: 3})
	waitFor(t, "first render", func() bool { return h.display.count() >= 1 })

	before, err := h.c.View(context.Background())
	if err != nil {
		t.Fatalf("View: %v", err)
	}
	dev.setPollErr(context.DeadlineExceeded)
	waitFor(t, "three failed polls", func() bool { return h.rep.countOp(tasks.KindPoll) >= 3 })

	after, err := h.c.View(context.Background())
	if err != nil {
		t.Fatalf("View: %v", err)
	}
	if after.Moisture != before.Moisture || after.AIPredict != before.AIPredict ||
		after.Countdown != before.Countdown || after.Pump != before.Pump {
		t.Fatalf("readouts changed after failures:\nbefore %+v\nafter  %+v", before, after)
	}
	if after.Link != models.LinkStale {
		t.Fatalf("link=%q, want stale", after.Link)
	}
	waitFor(t, "stale render", func() bool { return h.display.last().Link == models.LinkStale })

	dev.setPollErr(nil)
	waitFor(t, "recovery", func() bool { return h.display.last().Link == models.LinkOnline })
}

func TestConsole_FailedFirstPollLeavesPlaceholders(t *testing.T) {
	dev := newFakeDevice(scenarioSnapshot)
	dev.setPollErr(errors.New("no route to host"))
	h := startConsole(t, dev, Options{})

	waitFor(t, "failure reported", func() bool { return h.rep.countOp(tasks.KindPoll) == 1 })
	v, err := h.c.View(context.Background())
	if err != nil {
		t.Fatalf("View: %v", err)
	}
	if v.Moisture.Text != placeholderPct || v.Countdown != placeholderCountdown || v.Link != models.LinkConnecting {
		t.Fatalf("unexpected view: %+v", v)
	}
}

func TestConsole_CallsAfterStopReturnErrStopped(t *testing.T) {
	reg := tasks.NewRegistry(0)
	defer func() { _ = reg.Close() }()
	c := New(newFakeDevice(scenarioSnapshot), nil, nil, reg, nil, Options{PollInterval: time.Hour})

	ctx, cancel := context.WithCancel(context.Background())
	go c.Run(ctx)
	cancel()
	<-c.done

	if _, err := c.Toggle(context.Background()); !errors.Is(err, ErrStopped) {
		t.Fatalf("expected ErrStopped, got %v", err)
	}
}

// hangingFirstPoll blocks its first telemetry read until the request is cancelled.
type hangingFirstPoll struct {
	*fakeDevice
	once      sync.Once
	cancelled chan error
}

func (d *hangingFirstPoll) FetchTelemetry(ctx context.Context, id string) (models.Snapshot, error) {
	first := false
	d.once.Do(func() { first = true })
	if first {
		<-ctx.Done()
		d.cancelled <- ctx.Err()
		return models.Snapshot{}, ctx.Err()
	}
	return d.fakeDevice.FetchTelemetry(ctx, id)
}

func TestConsole_DiscardStaleCancelsSupersededPoll(t *testing.T) {
	dev := &hangingFirstPoll{fakeDevice: newFakeDevice(scenarioSnapshot), cancelled: make(chan error, 1)}
	rep := &recordingReporter{}
	reg := tasks.NewRegistry(0)
	c := New(dev, nil, rep, reg, nil, Options{PollInterval: 10 * time.Millisecond, DiscardStaleResponses: true})

	ctx, cancel := context.WithCancel(context.Background())
	go c.Run(ctx)
	defer func() {
		cancel()
		<-c.Done()
		_ = reg.Close()
	}()

	select {
	case err := <-dev.cancelled:
		if !errors.Is(err, context.Canceled) {
			t.Fatalf("expected context.Canceled, got %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatalf("superseded poll was never cancelled")
	}

	v, err := c.View(context.Background())
	if err != nil {
		t.Fatalf("View: %v", err)
	}
	if v.Link != models.LinkOnline {
		t.Fatalf("link=%q, want online", v.Link)
	}
	if n := rep.countOp(tasks.KindPoll); n != 0 {
		t.Fatalf("a cancelled superseded poll must not count as a failure, got %d reports", n)
	}
}

func TestConsole_ShutdownWhilePolling(t *testing.T) {
	for i := 0; i < 200; i++ {
		reg := tasks.NewRegistry(0)
		c := New(newFakeDevice(scenarioSnapshot), nil, nil, reg, nil, Options{PollInterval: time.Microsecond})

		ctx, cancel := context.WithCancel(context.Background())
		go c.Run(ctx)
		time.Sleep(50 * time.Microsecond)

		cancel()
		select {
		case <-c.Done():
		case <-time.After(2 * time.Second):
			t.Fatalf("round %d: Run did not return", i)
		}
		if err := reg.Close(); err != nil {
			t.Fatalf("round %d: Close: %v", i, err)
		}
		if reg.Len() != 0 {
			t.Fatalf("round %d: %d tasks outstanding after Close", i, reg.Len())
		}
	}
}
