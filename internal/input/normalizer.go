package input

import (
	"github.com/san-kum/quadsim/internal/dynamo"
)

type Action int

const (
	ActionNone Action = iota
	ActionPitchForward
	ActionPitchBack
	ActionRollLeft
	ActionRollRight
	ActionYawLeft
	ActionYawRight
	ActionThrottleUp
	ActionThrottleDown
	ActionKill
	ActionResetBattery
)

// DefaultBindings maps terminal key names to actions.
func DefaultBindings() map[string]Action {
	return map[string]Action{
		"w":     ActionPitchForward,
		"s":     ActionPitchBack,
		"a":     ActionRollLeft,
		"d":     ActionRollRight,
		"q":     ActionYawLeft,
		"e":     ActionYawRight,
		"up":    ActionThrottleUp,
		"down":  ActionThrottleDown,
		"left":  ActionYawLeft,
		"right": ActionYawRight,
		"k":     ActionKill,
		"r":     ActionResetBattery,
	}
}

// DefaultHold is how long a key press counts as held. Terminals only report
// presses and auto-repeat, never releases.
const DefaultHold = 0.15

// Normalizer turns key presses into a clamped Command. Axis keys stay held
// for the hold window after their last press. Kill and battery reset are
// edges reported once per press.
type Normalizer struct {
	bindings  map[string]Action
	hold      float64
	lastPress map[Action]float64
	kill      bool
	reset     bool
}

func NewNormalizer(bindings map[string]Action, hold float64) *Normalizer {
	if bindings == nil {
		bindings = DefaultBindings()
	}
	if hold <= 0 {
		hold = DefaultHold
	}
	return &Normalizer{
		bindings:  bindings,
		hold:      hold,
		lastPress: make(map[Action]float64),
	}
}

// Key records a press of the named key at time now. It reports whether the
// key is bound.
func (n *Normalizer) Key(name string, now float64) bool {
	a, ok := n.bindings[name]
	if !ok {
		return false
	}
	n.Press(a, now)
	return true
}

func (n *Normalizer) Press(a Action, now float64) {
	switch a {
	case ActionNone:
	case ActionKill:
		n.kill = true
	case ActionResetBattery:
		n.reset = true
	default:
		n.lastPress[a] = now
	}
}

func (n *Normalizer) held(a Action, now float64) bool {
	t, ok := n.lastPress[a]
	return ok && now-t <= n.hold
}

func (n *Normalizer) axis(pos, neg Action, now float64) float64 {
	v := 0.0
	if n.held(pos, now) {
		v++
	}
	if n.held(neg, now) {
		v--
	}
	return v
}

// Command samples the held keys at now and consumes the kill edge.
func (n *Normalizer) Command(now float64) dynamo.Command {
	cmd := dynamo.Command{
		Pitch:         n.axis(ActionPitchBack, ActionPitchForward, now),
		Roll:          n.axis(ActionRollRight, ActionRollLeft, now),
		Yaw:           n.axis(ActionYawRight, ActionYawLeft, now),
		ThrottleDelta: n.axis(ActionThrottleUp, ActionThrottleDown, now),
		KillToggle:    n.kill,
	}
	n.kill = false
	return cmd.Clamped()
}

// TakeReset consumes a pending battery reset request.
func (n *Normalizer) TakeReset() bool {
	r := n.reset
	n.reset = false
	return r
}
