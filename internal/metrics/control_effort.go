package metrics

import (
	"math"

	"github.com/san-kum/quadsim/internal/dynamo"
)

// ControlEffort is the mean absolute stick deflection per tick, summed over
// the four axes.
type ControlEffort struct {
	name    string
	sum     float64
	samples int
}

func NewControlEffort() *ControlEffort {
	return &ControlEffort{
		name: "control_effort",
	}
}

func (c *ControlEffort) Name() string {
	return c.name
}

func (c *ControlEffort) Observe(s dynamo.Sample) {
	cmd := s.Command
	c.sum += math.Abs(cmd.Pitch) + math.Abs(cmd.Roll) + math.Abs(cmd.Yaw) + math.Abs(cmd.ThrottleDelta)
	c.samples++
}

func (c *ControlEffort) Value() float64 {
	if c.samples == 0 {
		return 0
	}
	return c.sum / float64(c.samples)
}

func (c *ControlEffort) Reset() {
	c.sum = 0
	c.samples = 0
}
