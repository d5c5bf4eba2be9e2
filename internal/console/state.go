package console

import "smartfarmer_console/internal/models"

// State is everything the console believes about the device.
// It is a value: transitions return a new State and never mutate the receiver's snapshot.
type State struct {
	snapshot    *models.Snapshot
	intent      bool
	failures    int
	pollIssued  uint64
	pollApplied uint64
	pumpIssued  uint64
	pumpApplied uint64

	discardStale bool
	staleAfter   int
}

// NewState returns the state before the first poll: no snapshot, intent false.
// discardStale drops responses older than the last applied one of the same kind;
// staleAfter is the consecutive poll failures that flip the link to stale (0 disables).
func NewState(discardStale bool, staleAfter int) State {
	return State{discardStale: discardStale, staleAfter: staleAfter}
}

// Snapshot returns the last applied snapshot, or nil before the first success.
func (s State) Snapshot() *models.Snapshot { return s.snapshot }

// Intent is the local pump intent.
func (s State) Intent() bool { return s.intent }

// Failures is the number of consecutive failed polls.
func (s State) Failures() int { return s.failures }

// IssuePoll allocates the sequence number for a new poll request.
func (s State) IssuePoll() (State, uint64) {
	s.pollIssued++
	return s, s.pollIssued
}

// ApplyPoll replaces the snapshot and overwrites the intent with the device's pump state.
// It reports false, leaving the state unchanged, when the response is dropped as stale.
func (s State) ApplyPoll(seq uint64, snap models.Snapshot) (State, bool) {
	if s.discardStale && seq <= s.pollApplied {
		return s, false
	}
	if seq > s.pollApplied {
		s.pollApplied = seq
	}
	s.snapshot = &snap
	s.intent = snap.PumpActive
	s.failures = 0
	return s, true
}

// PollFailed counts a failed poll. The snapshot and intent are kept.
func (s State) PollFailed() State {
	s.failures++
	return s
}

// BeginToggle flips the intent optimistically and returns the pump state to request.
func (s State) BeginToggle() (State, bool, uint64) {
	s.intent = !s.intent
	s.pumpIssued++
	return s, s.intent, s.pumpIssued
}

// ApplyToggle reconciles the intent with the device's reply.
func (s State) ApplyToggle(seq uint64, active bool) (State, bool) {
	if s.discardStale && seq <= s.pumpApplied {
		return s, false
	}
	if seq > s.pumpApplied {
		s.pumpApplied = seq
	}
	s.intent = active
	return s, true
}

// Link summarizes how fresh the readings are.
func (s State) Link() string {
	switch {
	case s.staleAfter > 0 && s.failures >= s.staleAfter:
		return models.LinkStale
	case s.snapshot == nil:
		return models.LinkConnecting
	default:
		return models.LinkOnline
	}
}

// View renders the state.
func (s State) View() models.View {
	v := Render(s.snapshot, s.intent)
	v.Link = s.Link()
	return v
}
