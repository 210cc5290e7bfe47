package control

import (
	"testing"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/san-kum/quadsim/internal/dynamo"
)

func TestAutopilot_Directions(t *testing.T) {
	params := DefaultAutopilotParams()
	params.HoldVelocity = true
	params.TargetForwardVel = 2
	params.TargetHeadingDeg = 90

	tests := []struct {
		name  string
		obs   dynamo.Observation
		tel   dynamo.Telemetry
		check func(t *testing.T, c dynamo.Command)
	}{
		{
			name: "below target climbs",
			obs:  dynamo.Observation{Position: mgl64.Vec3{0, 0, 0}, Rotation: mgl64.QuatIdent()},
			tel:  dynamo.Telemetry{HeadingDeg: 90},
			check: func(t *testing.T, c dynamo.Command) {
				if c.ThrottleDelta <= 0 {
					t.Errorf("throttle delta = %v, want > 0", c.ThrottleDelta)
				}
			},
		},
		{
			name: "above target descends",
			obs:  dynamo.Observation{Position: mgl64.Vec3{0, 20, 0}, Rotation: mgl64.QuatIdent()},
			tel:  dynamo.Telemetry{HeadingDeg: 90},
			check: func(t *testing.T, c dynamo.Command) {
				if c.ThrottleDelta >= 0 {
					t.Errorf("throttle delta = %v, want < 0", c.ThrottleDelta)
				}
			},
		},
		{
			name: "heading behind turns right",
			obs:  dynamo.Observation{Position: mgl64.Vec3{0, 5, 0}, Rotation: mgl64.QuatIdent()},
			tel:  dynamo.Telemetry{HeadingDeg: 45},
			check: func(t *testing.T, c dynamo.Command) {
				if c.Yaw <= 0 {
					t.Errorf("yaw = %v, want > 0", c.Yaw)
				}
			},
		},
		{
			name: "heading across zero turns short way",
			obs:  dynamo.Observation{Position: mgl64.Vec3{0, 5, 0}, Rotation: mgl64.QuatIdent()},
			tel:  dynamo.Telemetry{HeadingDeg: 300},
			check: func(t *testing.T, c dynamo.Command) {
				if c.Yaw <= 0 {
					t.Errorf("yaw = %v, want > 0 (150° right beats 210° left)", c.Yaw)
				}
			},
		},
		{
			name: "slow forward pushes nose down",
			obs:  dynamo.Observation{Position: mgl64.Vec3{0, 5, 0}, Rotation: mgl64.QuatIdent()},
			tel:  dynamo.Telemetry{HeadingDeg: 90},
			check: func(t *testing.T, c dynamo.Command) {
				if c.Pitch >= 0 {
					t.Errorf("pitch = %v, want < 0", c.Pitch)
				}
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ap := NewAutopilot(params)
			c := ap.Command(tt.obs, tt.tel, 0)
			for _, v := range []float64{c.Pitch, c.Roll, c.Yaw, c.ThrottleDelta} {
				if v < -1 || v > 1 {
					t.Fatalf("command %+v not clamped", c)
				}
			}
			tt.check(t, c)
		})
	}
}

func TestAutopilot_Reset(t *testing.T) {
	ap := NewAutopilot(DefaultAutopilotParams())
	obs := dynamo.Observation{Position: mgl64.Vec3{0, 1, 0}, Rotation: mgl64.QuatIdent()}
	first := ap.Command(obs, dynamo.Telemetry{}, 0)
	for i := 1; i < 50; i++ {
		ap.Command(obs, dynamo.Telemetry{}, float64(i)/120)
	}
	ap.Reset()
	again := ap.Command(obs, dynamo.Telemetry{}, 0)
	if again != first {
		t.Errorf("after Reset got %+v, want %+v", again, first)
	}
}
