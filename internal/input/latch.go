package input

import (
	"sync"

	"github.com/san-kum/quadsim/internal/dynamo"
)

// Latch hands the latest command from an input goroutine to the tick loop.
// Later commands overwrite earlier ones; a kill toggle survives until one
// tick has consumed it. Reads never block on the writer for longer than a
// copy.
type Latch struct {
	mu    sync.Mutex
	cmd   dynamo.Command
	kill  bool
	reset bool
}

func NewLatch() *Latch {
	return &Latch{}
}

// Set replaces the held command.
func (l *Latch) Set(cmd dynamo.Command) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.cmd = cmd.Clamped()
	l.kill = l.kill || cmd.KillToggle
}

// RequestBatteryReset asks the simulator to refill the battery before the
// next tick.
func (l *Latch) RequestBatteryReset() {
	l.mu.Lock()
	l.reset = true
	l.mu.Unlock()
}

// Peek returns the held command without consuming the kill edge.
func (l *Latch) Peek() dynamo.Command {
	l.mu.Lock()
	defer l.mu.Unlock()
	cmd := l.cmd
	cmd.KillToggle = l.kill
	return cmd
}

func (l *Latch) Command(_ dynamo.Observation, _ dynamo.Telemetry, _ float64) dynamo.Command {
	l.mu.Lock()
	defer l.mu.Unlock()
	cmd := l.cmd
	cmd.KillToggle = l.kill
	l.kill = false
	return cmd
}

func (l *Latch) ServiceBattery(float64) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	r := l.reset
	l.reset = false
	return r
}
