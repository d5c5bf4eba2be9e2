package console

import (
	"fmt"
	"math"
	"strconv"

	"smartfarmer_console/internal/models"
)

// Presentation constants, matching the dashboard stylesheet.
const (
	placeholderPct       = "-- %"
	placeholderCountdown = "--"

	labelStandby  = "Standby"
	labelActive   = "Active"
	badgeStandby  = "Pump: Stby"
	badgeActive   = "Pump: ACTIVE"
	buttonStandby = "Force Irrigation"
	buttonActive  = "Stop Irrigation"
	activeClass   = "active-state"

	accentPrimary       = "var(--primary)"
	accentPrimaryBorder = "rgba(88, 166, 255, 0.2)"
	accentPrimaryBg     = "rgba(88, 166, 255, 0.1)"
	accentAlert         = "#ff7b72"
	accentAlertBorder   = "rgba(255, 123, 114, 0.2)"
	accentAlertBg       = "rgba(255, 123, 114, 0.1)"
)

// Render projects a snapshot and the pump intent onto the dashboard widgets.
// snap is nil until the first successful poll. Render keeps no state: equal inputs give equal views.
// The pump widgets follow intent, never snap.PumpActive.
func Render(snap *models.Snapshot, intent bool) models.View {
	v := models.View{
		Moisture:  models.Gauge{Text: placeholderPct, Width: "0%"},
		AIPredict: models.Gauge{Text: placeholderPct, Width: "0%"},
		Countdown: placeholderCountdown,
		Pump:      renderPump(intent),
	}
	if snap != nil {
		v.Moisture = renderGauge(snap.MoisturePct)
		v.AIPredict = renderGauge(snap.AIWiltingProb)
		v.Countdown = strconv.Itoa(snap.SecondsToSleep)
	}
	return v
}

func renderGauge(raw float64) models.Gauge {
	pct := clampPct(raw)
	return models.Gauge{
		Text:     fmt.Sprintf("%.1f%%", pct),
		Fraction: pct / 100,
		Width:    strconv.FormatFloat(pct, 'f', -1, 64) + "%",
	}
}

// clampPct limits v to [0,100]; NaN renders as 0.
func clampPct(v float64) float64 {
	if math.IsNaN(v) {
		return 0
	}
	return math.Max(0, math.Min(100, v))
}

func renderPump(active bool) models.PumpView {
	if active {
		return models.PumpView{
			State:       models.PumpActive,
			Label:       labelActive,
			Badge:       badgeActive,
			BadgeColor:  accentAlert,
			BadgeBorder: accentAlertBorder,
			BadgeBg:     accentAlertBg,
			Button:      buttonActive,
			ButtonClass: activeClass,
		}
	}
	return models.PumpView{
		State:       models.PumpStandby,
		Label:       labelStandby,
		Badge:       badgeStandby,
		BadgeColor:  accentPrimary,
		BadgeBorder: accentPrimaryBorder,
		BadgeBg:     accentPrimaryBg,
		Button:      buttonStandby,
	}
}
