// Package devicesim is a stand-in for the SmartFarmer edge node, used for local
// development and end-to-end tests. It serves the same two endpoints as the firmware.
package devicesim

import (
	"context"
	"math/rand"
	"sync"
	"time"

	"smartfarmer_console/internal/logger"
	"smartfarmer_console/internal/models"
)

// ----------- Simulation constants -----------
const (
	WetV       = 1.0 // filtered probe voltage at 100% moisture
	DryV       = 2.5 // filtered probe voltage at 0% moisture
	MaxV       = 2.6 // voltage ceiling when bone dry
	SaturatedV = 1.2 // relay cuts out at or below this

	WetRateVPerSec   = 0.02  // voltage drop per second while irrigating
	DryRateVPerSec   = 0.004 // voltage rise per second while drying
	FlowPulsesPerSec = 2.5

	AwakeWindowSec = 300 // seconds awake before deep sleep

	highRiskV = 2.0
	midRiskV  = 1.5
)

// State is the simulated node's internal state.
type State struct {
	VoltageV       float64
	PumpActive     bool
	FlowPulses     int
	SecondsToSleep float64
	AIWiltingProb  float64
	UpdatedAt      time.Time
}

// Simulator advances the node's state over time.
type Simulator struct {
	mu     sync.Mutex
	st     State
	jitter func(max float64) float64
	log    *logger.Logger
}

// NewSimulator returns a simulator starting from moderately moist soil.
func NewSimulator(log *logger.Logger) *Simulator {
	if log == nil {
		log = logger.Nop()
	}
	s := &Simulator{
		jitter: func(max float64) float64 { return rand.Float64()*max*2 - max },
		log:    log,
	}
	s.st = State{
		VoltageV:       1.6,
		SecondsToSleep: AwakeWindowSec,
		UpdatedAt:      time.Now(),
	}
	s.st.AIWiltingProb = s.predictWilting(s.st.VoltageV)
	return s
}

// Run ticks at the given interval until ctx is canceled.
func (s *Simulator) Run(ctx context.Context, tick time.Duration) {
	t := time.NewTicker(tick)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case now := <-t.C:
			s.Step(now)
		}
	}
}

// Step advances the simulation to now.
func (s *Simulator) Step(now time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()

	elapsed := now.Sub(s.st.UpdatedAt).Seconds()
	if elapsed <= 0 {
		return
	}

	if s.st.PumpActive {
		s.handleIrrigating(&s.st, elapsed)
	} else {
		s.handleDrying(&s.st, elapsed)
	}
	s.applyAutoRelay(&s.st)
	s.st.AIWiltingProb = s.predictWilting(s.st.VoltageV)
	s.countdownSleep(&s.st, elapsed)
	s.st.UpdatedAt = now
}

// Snapshot is what GET /api/data reports.
func (s *Simulator) Snapshot() models.Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return models.Snapshot{
		MoisturePct:    moisturePct(s.st.VoltageV),
		AIWiltingProb:  s.st.AIWiltingProb,
		SecondsToSleep: int(s.st.SecondsToSleep),
		PumpActive:     s.st.PumpActive,
	}
}

// State returns a copy of the internal state.
func (s *Simulator) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.st
}

// SetPump handles a manual override and returns the resulting relay state.
// Switching on is refused while the soil is saturated.
func (s *Simulator) SetPump(on bool) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.st.SecondsToSleep = AwakeWindowSec
	if on && s.st.VoltageV <= SaturatedV {
		s.log.Infow("pump_on_refused", "voltage_v", s.st.VoltageV)
		return s.st.PumpActive
	}
	if s.st.PumpActive != on {
		s.log.Infow("pump_override", "pump_active", on)
	}
	s.st.PumpActive = on
	return s.st.PumpActive
}

// ... helpers ...

// handleIrrigating wets the soil and counts flow pulses.
func (s *Simulator) handleIrrigating(st *State, elapsed float64) {
	st.VoltageV = maxFloat(st.VoltageV-WetRateVPerSec*elapsed, WetV)
	st.FlowPulses += int(FlowPulsesPerSec * elapsed)
}

// handleDrying lets the soil dry out, with a little sensor noise.
func (s *Simulator) handleDrying(st *State, elapsed float64) {
	st.VoltageV += DryRateVPerSec*elapsed + s.jitter(DryRateVPerSec/2)*elapsed
	st.VoltageV = clamp(st.VoltageV, WetV, MaxV)
}

// applyAutoRelay is the node's own cycle-and-soak rule.
func (s *Simulator) applyAutoRelay(st *State) {
	switch {
	case st.VoltageV > DryV && !st.PumpActive:
		s.log.Infow("pump_auto_on", "voltage_v", st.VoltageV)
		st.PumpActive = true
	case st.VoltageV <= SaturatedV && st.PumpActive:
		s.log.Infow("pump_auto_off", "voltage_v", st.VoltageV)
		st.PumpActive = false
	}
}

// predictWilting stands in for the on-device model.
func (s *Simulator) predictWilting(v float64) float64 {
	switch {
	case v > highRiskV:
		return 85.5 + s.jitter(10)
	case v > midRiskV:
		return 40.2 + s.jitter(5)
	default:
		return 15.0 + s.jitter(5)
	}
}

func (s *Simulator) countdownSleep(st *State, elapsed float64) {
	st.SecondsToSleep -= elapsed
	if st.SecondsToSleep <= 0 {
		// slept and woke again
		st.SecondsToSleep = AwakeWindowSec
	}
}

func moisturePct(v float64) float64 {
	return clamp((DryV-v)/(DryV-WetV)*100, 0, 100)
}

func maxFloat(a, b float64) float64 {
	if a >= b {
		return a
	}
	return b
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
