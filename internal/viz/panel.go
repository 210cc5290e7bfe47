package viz

import (
	"fmt"
	"strings"

	"github.com/san-kum/quadsim/internal/dynamo"
)

const barWidth = 16

var motorLabels = [4]string{"FR", "FL", "BL", "BR"}

func modeBadge(m dynamo.Mode, st Styles) string {
	label := strings.ToUpper(m.String())
	switch m {
	case dynamo.ModeArmed:
		return st.Good.Render(label)
	case dynamo.ModeDepleted:
		return st.Warn.Render(label)
	default:
		return st.Bad.Render(label)
	}
}

// TelemetryPanel renders one sample as labelled rows. power is the recent
// electrical power history for the sparkline; maxRPM scales the motor bars.
func TelemetryPanel(s dynamo.Sample, power []float64, maxRPM float64, st Styles) string {
	tel, obs := s.Telemetry, s.Observation
	row := func(label, value string) string {
		return st.Label.Render(label) + st.Value.Render(value) + "\n"
	}

	var b strings.Builder
	b.WriteString(st.Header.Render("QUADSIM") + "  " + modeBadge(tel.Mode, st) + "\n\n")
	b.WriteString(row("Time", fmt.Sprintf("%.2fs", s.Time)))
	b.WriteString(row("Altitude", fmt.Sprintf("%.2f m", obs.Altitude())))
	b.WriteString(row("Speed", fmt.Sprintf("%.2f m/s", obs.Velocity.Len())))
	b.WriteString(row("Tilt", fmt.Sprintf("%.1f°", obs.TiltDeg())))
	b.WriteString(row("Heading", fmt.Sprintf("%.0f°", tel.HeadingDeg)))
	b.WriteString("\n")
	b.WriteString(row("Throttle", Bar(tel.Throttle, barWidth)+fmt.Sprintf(" %3.0f%%", tel.Throttle*100)))
	b.WriteString(row("Effective", Bar(tel.EffectiveThrottle, barWidth)+fmt.Sprintf(" %3.0f%%", tel.EffectiveThrottle*100)))
	b.WriteString(row("Tilt comp", fmt.Sprintf("×%.2f", tel.TiltCompFactor)))
	b.WriteString(row("Thrust", fmt.Sprintf("%.1f N", tel.TotalThrustN)))
	b.WriteString(row("Power", fmt.Sprintf("%-7s ", fmt.Sprintf("%.0fW", tel.PowerW))+Sparkline(power, barWidth-4, st.Graph)))
	b.WriteString(st.Label.Render("Battery") + LevelBar(tel.Battery01, barWidth, st) +
		st.Value.Render(fmt.Sprintf(" %3.0f%%", tel.Battery01*100)) + "\n")
	b.WriteString("\n")
	for i, rpm := range tel.MotorRPM {
		frac := 0.0
		if maxRPM > 0 {
			frac = rpm / maxRPM
		}
		b.WriteString(row("Motor "+motorLabels[i], Bar(frac, barWidth)+fmt.Sprintf(" %5.0f", rpm)))
	}
	w := tel.WindVel
	b.WriteString(row("Wind", fmt.Sprintf("%+.1f %+.1f %+.1f", w[0], w[1], w[2])))
	return st.Panel.Render(strings.TrimRight(b.String(), "\n"))
}
