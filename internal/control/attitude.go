package control

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/san-kum/quadsim/internal/dynamo"
)

// axisEpsilon is the smallest sin(angle/2) for which an error axis is defined.
const axisEpsilon = 1e-9

var (
	axisX = mgl64.Vec3{1, 0, 0}
	axisY = mgl64.Vec3{0, 1, 0}
	axisZ = mgl64.Vec3{0, 0, 1}
)

// Attitude is a target orientation in degrees. Yaw is the heading about world
// up, pitch is about the body right axis (positive is nose down) and roll is
// about the body forward axis (positive is left bank).
type Attitude struct {
	PitchDeg float64
	YawDeg   float64
	RollDeg  float64
}

// Quat composes yaw, then pitch, then roll.
func (a Attitude) Quat() mgl64.Quat {
	yaw := mgl64.QuatRotate(mgl64.DegToRad(a.YawDeg), axisY)
	pitch := mgl64.QuatRotate(mgl64.DegToRad(a.PitchDeg), axisX)
	roll := mgl64.QuatRotate(mgl64.DegToRad(a.RollDeg), axisZ)
	return yaw.Mul(pitch).Mul(roll).Normalize()
}

// ResolveTarget advances the heading integrator by the yaw stick and maps the
// pitch and roll sticks onto tilt angles. Forward stick (pitch < 0) yields a
// nose-down target; right stick (roll > 0) yields a right bank.
func ResolveTarget(headingDeg float64, cmd dynamo.Command, maxTiltDeg, yawRateDegPerSec, dt float64) (float64, Attitude) {
	heading := dynamo.WrapDegrees(headingDeg + cmd.Yaw*yawRateDegPerSec*dt)
	return heading, Attitude{
		PitchDeg: -cmd.Pitch * maxTiltDeg,
		YawDeg:   heading,
		RollDeg:  -cmd.Roll * maxTiltDeg,
	}
}

// ShortestRotationError returns the world-frame rotation taking current onto
// desired as a unit axis and an angle in (-π, π]. The double cover is resolved
// toward the short way round. ok is false when the axis is undefined, which
// happens when the two orientations already agree.
func ShortestRotationError(desired, current mgl64.Quat) (axis mgl64.Vec3, angle float64, ok bool) {
	q := desired.Mul(current.Inverse()).Normalize()
	if q.W < 0 {
		q = mgl64.Quat{W: -q.W, V: q.V.Mul(-1)}
	}

	// atan2 keeps full precision near zero and near a half turn, where acos
	// of the scalar part does not.
	sinHalf := q.V.Len()
	if sinHalf < axisEpsilon || !dynamo.IsFinite(sinHalf) || !dynamo.IsFinite(q.W) {
		return mgl64.Vec3{}, 0, false
	}

	axis = q.V.Mul(1 / sinHalf)
	if !dynamo.IsFiniteVec(axis) {
		return mgl64.Vec3{}, 0, false
	}
	angle = dynamo.WrapPi(2 * math.Atan2(sinHalf, q.W))
	return axis.Normalize(), angle, true
}

// PD is a proportional-derivative attitude law on quaternion error.
type PD struct {
	Kp float64
	Kd float64
}

// Correction returns an angular acceleration steering current toward desired.
// ok is false and the result is zero when the error axis is undefined; the
// derivative term is skipped with it.
func (c PD) Correction(desired, current mgl64.Quat, angVel mgl64.Vec3) (mgl64.Vec3, bool) {
	axis, angle, ok := ShortestRotationError(desired, current)
	if !ok {
		return mgl64.Vec3{}, false
	}
	accel := axis.Mul(c.Kp * angle).Sub(angVel.Mul(c.Kd))
	if !dynamo.IsFiniteVec(accel) {
		return mgl64.Vec3{}, false
	}
	return accel, true
}

// Rescue configures the tumble recovery torque.
type Rescue struct {
	Strength float64
	StartDeg float64
	FullDeg  float64
}

// Torque returns an angular acceleration rotating bodyUp toward world up.
// It is zero up to StartDeg of tilt and ramps linearly to Strength at FullDeg.
// When fully inverted the rotation axis falls back to bodyRight.
func (r Rescue) Torque(bodyUp, bodyRight mgl64.Vec3) mgl64.Vec3 {
	if r.Strength <= 0 {
		return mgl64.Vec3{}
	}
	c := mgl64.Clamp(bodyUp.Dot(dynamo.WorldUp), -1, 1)
	tiltDeg := mgl64.RadToDeg(math.Acos(c))
	if tiltDeg <= r.StartDeg {
		return mgl64.Vec3{}
	}

	axis := bodyUp.Cross(dynamo.WorldUp)
	if axis.Len() < axisEpsilon {
		axis = bodyRight
	}
	if axis.Len() < axisEpsilon {
		return mgl64.Vec3{}
	}

	span := math.Max(axisEpsilon, r.FullDeg-r.StartDeg)
	scale := r.Strength * dynamo.Clamp01((tiltDeg-r.StartDeg)/span)
	return axis.Normalize().Mul(scale)
}
