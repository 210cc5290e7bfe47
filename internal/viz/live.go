package viz

import (
	"fmt"
	"math"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/go-gl/mathgl/mgl64"
	"github.com/guptarohit/asciigraph"

	"github.com/san-kum/quadsim/internal/dynamo"
	"github.com/san-kum/quadsim/internal/flight"
	"github.com/san-kum/quadsim/internal/input"
	"github.com/san-kum/quadsim/internal/sim"
)

const (
	canvasWidth     = 60
	canvasHeight    = 22
	historyCapacity = 600
	trailCapacity   = 240
	frameRate       = 60
)

type TickMsg time.Time

// Model is the Bubble Tea model for interactive flight. Key presses go
// through a Normalizer into a Latch that the simulator reads as its pilot;
// every frame advances the simulation by one frame of simulated time.
type Model struct {
	sim   *sim.Simulator
	norm  *input.Normalizer
	latch *input.Latch
	dt    float64

	wall    float64
	running bool
	err     error

	canvas *Canvas
	camera *Camera
	wire   Wireframe
	trail  []mgl64.Vec3

	last         dynamo.Sample
	altHistory   []float64
	powerHistory []float64

	theme    Theme
	showHelp bool
}

// NewModel drives s, whose pilot must read latch, at dt per tick.
func NewModel(s *sim.Simulator, latch *input.Latch, dt float64) *Model {
	return &Model{
		sim:          s,
		norm:         input.NewNormalizer(nil, input.DefaultHold),
		latch:        latch,
		dt:           dt,
		running:      true,
		canvas:       NewCanvas(canvasWidth, canvasHeight),
		camera:       NewCamera(),
		last:         s.Snapshot(),
		altHistory:   make([]float64, 0, historyCapacity),
		powerHistory: make([]float64, 0, historyCapacity),
		theme:        ThemeCockpit,
	}
}

// SetTheme selects a theme by name.
func (m *Model) SetTheme(name string) { m.theme = GetTheme(name) }

// Err is the simulation error that stopped the model, if any.
func (m *Model) Err() error { return m.err }

func tick() tea.Cmd {
	return tea.Tick(time.Second/frameRate, func(t time.Time) tea.Msg { return TickMsg(t) })
}

func (m *Model) Init() tea.Cmd { return tick() }

func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "esc":
			return m, tea.Quit
		case " ":
			m.running = !m.running
		case "?":
			m.showHelp = !m.showHelp
		case "t":
			m.theme = m.theme.Next()
		case "[":
			m.camera.Orbit(-0.15, 0)
		case "]":
			m.camera.Orbit(0.15, 0)
		case "+", "=":
			m.camera.ZoomIn()
		case "-", "_":
			m.camera.ZoomOut()
		default:
			m.norm.Key(msg.String(), m.wall)
		}
	case TickMsg:
		if m.running {
			m.Advance(1.0 / frameRate)
		}
		return m, tick()
	}
	return m, nil
}

// Advance feeds the current keys to the latch and runs enough ticks to cover
// frame seconds. A simulation error pauses the model.
func (m *Model) Advance(frame float64) {
	m.wall += frame
	m.latch.Set(m.norm.Command(m.wall))
	if m.norm.TakeReset() {
		m.latch.RequestBatteryReset()
	}

	steps := max(1, int(math.Round(frame/m.dt)))
	for i := 0; i < steps; i++ {
		s, err := m.sim.Tick(m.dt)
		if err != nil {
			m.err = err
			m.running = false
			return
		}
		m.record(s)
	}
}

func (m *Model) record(s dynamo.Sample) {
	m.last = s
	m.altHistory = appendCapped(m.altHistory, s.Observation.Altitude(), historyCapacity)
	m.powerHistory = appendCapped(m.powerHistory, s.Telemetry.PowerW, historyCapacity)
	m.trail = append(m.trail, s.Observation.Position)
	if len(m.trail) > trailCapacity {
		m.trail = m.trail[1:]
	}
}

func appendCapped(buf []float64, v float64, capacity int) []float64 {
	buf = append(buf, v)
	if len(buf) > capacity {
		buf = buf[1:]
	}
	return buf
}

func (m *Model) draw() {
	m.canvas.Clear()
	m.wire.Clear()

	obs := m.last.Observation
	m.camera.Target = obs.Position
	GroundGrid(&m.wire, obs.Position, 0, 6, 2)

	armLength := m.sim.Vehicle().Params().ArmLength
	hubs := flight.MotorPositions(obs.Position, obs.Rotation, armLength)
	// Scale the frame up so it reads at terminal resolution.
	const visualScale = 3
	for i := range hubs {
		hubs[i] = obs.Position.Add(hubs[i].Sub(obs.Position).Mul(visualScale))
	}
	Quad(&m.wire, obs.Position, obs.Rotation, hubs, armLength*visualScale)
	for i := 1; i < len(m.trail); i += 2 {
		m.wire.AddPoint(m.trail[i])
	}
	Render(m.canvas, &m.wire, m.camera)
}

func (m *Model) View() string {
	st := m.theme.Styles()
	m.draw()

	status := st.Good.Render("FLYING")
	switch {
	case m.err != nil:
		status = st.Bad.Render("HALTED: " + m.err.Error())
	case !m.running:
		status = st.Warn.Render("PAUSED")
	}

	left := lipgloss.JoinVertical(lipgloss.Left,
		st.Panel.Render(st.Graph.Render(m.canvas.String())),
		m.altitudeChart(st),
	)
	maxRPM := m.sim.Vehicle().Params().MaxRPM
	right := TelemetryPanel(m.last, m.powerHistory, maxRPM, st)
	main := lipgloss.JoinHorizontal(lipgloss.Top, left, right)

	help := st.Help.Render("w/s pitch  a/d roll  q/e yaw  ↑/↓ throttle  k kill  r battery  space pause  ? help  esc quit")
	out := status + "\n" + main + "\n" + help
	if m.showHelp {
		out = helpText + "\n" + out
	}
	return out
}

func (m *Model) altitudeChart(st Styles) string {
	if len(m.altHistory) < 2 {
		return ""
	}
	data := m.altHistory
	if len(data) > canvasWidth {
		data = downsample(data, canvasWidth)
	}
	chart := asciigraph.Plot(data,
		asciigraph.Height(6),
		asciigraph.Width(canvasWidth-8),
		asciigraph.Precision(1),
		asciigraph.Caption(fmt.Sprintf("altitude (m), last %.0fs", float64(len(m.altHistory))*m.dt)),
	)
	return st.Graph.Render(chart)
}

// downsample keeps n evenly spaced points including the last.
func downsample(data []float64, n int) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = data[i*(len(data)-1)/(n-1)]
	}
	return out
}

var helpText = strings.TrimLeft(`
╔══════════════════════════════════════╗
║            FLIGHT CONTROLS           ║
╠══════════════════════════════════════╣
║  W / S     pitch forward / back      ║
║  A / D     roll left / right         ║
║  Q / E     yaw left / right          ║
║  ↑ / ↓     throttle up / down        ║
║  K         kill motors (toggle)      ║
║  R         refill battery            ║
║  [ / ]     orbit camera              ║
║  + / -     zoom                      ║
║  T         cycle theme               ║
║  Space     pause                     ║
║  Esc       quit                      ║
╚══════════════════════════════════════╝`, "\n")

// Run starts the live view full screen and blocks until the user quits.
func Run(m *Model) error {
	_, err := tea.NewProgram(m, tea.WithAltScreen()).Run()
	if err != nil {
		return err
	}
	return m.Err()
}
