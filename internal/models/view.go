package models

// Link values describe how fresh the displayed readings are.
const (
	LinkConnecting = "connecting"
	LinkOnline     = "online"
	LinkStale      = "stale"
)

// Pump presentation states.
const (
	PumpStandby = "standby"
	PumpActive  = "active"
)

// Gauge is a percentage readout with its bar fill.
type Gauge struct {
	Text     string  `json:"text"`     // e.g. "42.4%"
	Fraction float64 `json:"fraction"` // 0..1
	Width    string  `json:"width"`    // CSS width, e.g. "42.37%"
}

// PumpView is the badge and button presentation of the pump intent.
type PumpView struct {
	State       string `json:"state"` // standby | active
	Label       string `json:"label"`
	Badge       string `json:"badge"`
	BadgeColor  string `json:"badge_color"`
	BadgeBorder string `json:"badge_border"`
	BadgeBg     string `json:"badge_bg"`
	Button      string `json:"button"`
	ButtonClass string `json:"button_class,omitempty"`
}

// View is everything the dashboard shows.
type View struct {
	Moisture  Gauge    `json:"moisture"`
	AIPredict Gauge    `json:"ai_forecast"`
	Countdown string   `json:"countdown"`
	Pump      PumpView `json:"pump"`
	Link      string   `json:"link"`
}
