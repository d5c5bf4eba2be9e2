package models

// Snapshot is the full set of readings returned by one successful poll of the device.
type Snapshot struct {
	MoisturePct    float64 `json:"moisture_pct"`     // % (device may emit values outside 0..100)
	AIWiltingProb  float64 `json:"ai_wilting_prob"`  // % (device may emit values outside 0..100)
	SecondsToSleep int     `json:"seconds_to_sleep"` // seconds until deep sleep
	PumpActive     bool    `json:"pump_active"`
}

// PumpState is the device's reply to a pump command.
type PumpState struct {
	PumpActive bool `json:"pump_active"`
}
