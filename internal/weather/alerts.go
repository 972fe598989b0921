package weather

import "fmt"

// Alert thresholds for the broadcast alert job.
const (
	heatAlertTemp  = 42.0 // °C
	frostAlertTemp = 2.0  // °C
	windAlertSpeed = 15.0 // m/s
)

// Alert returns a warning message when conditions cross a severe
// threshold, and "" otherwise.
func (c *Conditions) Alert() string {
	switch {
	case c.Temperature >= heatAlertTemp:
		return fmt.Sprintf("🔥 Heat alert: %.0f°C expected. Irrigate early and shade sensitive crops.", c.Temperature)
	case c.Temperature <= frostAlertTemp:
		return fmt.Sprintf("❄️ Frost alert: %.0f°C expected. Cover seedlings and delay transplanting.", c.Temperature)
	case c.WindSpeed >= windAlertSpeed:
		return fmt.Sprintf("💨 Wind alert: %.0f m/s gusts. Secure covers and postpone spraying.", c.WindSpeed)
	case c.Condition == "Thunderstorm":
		return "⛈️ Storm alert: thunderstorms expected. Postpone field work and check drainage."
	default:
		return ""
	}
}
