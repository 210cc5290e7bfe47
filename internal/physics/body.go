package physics

import (
	"fmt"
	"math"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/san-kum/quadsim/internal/dynamo"
)

// State layout: position (3), velocity (3), orientation quaternion w,x,y,z (4),
// world angular velocity (3).
const (
	idxPos    = 0
	idxVel    = 3
	idxQuat   = 6
	idxAngVel = 10
	stateDim  = 13
)

// Control layout: world force (3) followed by world angular acceleration (3).
const controlDim = 6

type BodyParams struct {
	Mass           float64    `yaml:"mass"`
	Size           mgl64.Vec3 `yaml:"size,flow"`
	Gravity        float64    `yaml:"gravity"`
	LinearDamping  float64    `yaml:"linear_damping"`
	AngularDamping float64    `yaml:"angular_damping"`
	FloorEnabled   bool       `yaml:"floor_enabled"`
	Floor          float64    `yaml:"floor"`
	FloorFriction  float64    `yaml:"floor_friction"`
}

func DefaultBodyParams() BodyParams {
	return BodyParams{
		Mass:           DefaultMass,
		Size:           mgl64.Vec3{0.5, 0.1, 0.5},
		Gravity:        DefaultGravity,
		AngularDamping: 0.05,
		FloorEnabled:   true,
		FloorFriction:  0.2,
	}
}

func (p BodyParams) Validate() error {
	checks := []error{
		dynamo.Positive("mass", p.Mass),
		dynamo.Positive("size.x", p.Size.X()),
		dynamo.Positive("size.y", p.Size.Y()),
		dynamo.Positive("size.z", p.Size.Z()),
		dynamo.NonNegative("gravity", p.Gravity),
		dynamo.NonNegative("linear_damping", p.LinearDamping),
		dynamo.NonNegative("angular_damping", p.AngularDamping),
		dynamo.InRange("floor_friction", p.FloorFriction, 0, 1),
	}
	for _, err := range checks {
		if err != nil {
			return err
		}
	}
	return nil
}

// Body is a single rigid box advanced by a pluggable integrator. Forces and
// torques accumulate between Integrate calls and are held constant across one
// step. The gyroscopic term is neglected.
type Body struct {
	params     BodyParams
	integrator dynamo.Integrator
	inertia    mgl64.Vec3

	x            dynamo.State
	com          mgl64.Vec3
	maxAngVel    float64
	force        mgl64.Vec3
	momentAbout  mgl64.Vec3
	angularAccel mgl64.Vec3
}

func NewBody(params BodyParams, integrator dynamo.Integrator) (*Body, error) {
	if err := params.Validate(); err != nil {
		return nil, fmt.Errorf("physics: %w", err)
	}
	if integrator == nil {
		return nil, fmt.Errorf("physics: nil integrator")
	}
	s := params.Size
	m := params.Mass
	b := &Body{
		params:     params,
		integrator: integrator,
		inertia: mgl64.Vec3{
			m / 12 * (s.Y()*s.Y() + s.Z()*s.Z()),
			m / 12 * (s.X()*s.X() + s.Z()*s.Z()),
			m / 12 * (s.X()*s.X() + s.Y()*s.Y()),
		},
		x: make(dynamo.State, stateDim),
	}
	b.x[idxQuat] = 1
	return b, nil
}

func (b *Body) StateDim() int   { return stateDim }
func (b *Body) ControlDim() int { return controlDim }

func (b *Body) Params() BodyParams { return b.params }

// State returns a copy of the integrator state vector.
func (b *Body) State() dynamo.State { return b.x.Clone() }

func (b *Body) Pose() (mgl64.Vec3, mgl64.Quat) {
	return vec(b.x, idxPos), quat(b.x)
}

func (b *Body) Velocity() mgl64.Vec3        { return vec(b.x, idxVel) }
func (b *Body) AngularVelocity() mgl64.Vec3 { return vec(b.x, idxAngVel) }
func (b *Body) Mass() float64               { return b.params.Mass }
func (b *Body) Gravity() float64            { return b.params.Gravity }

func (b *Body) SetCenterOfMass(offset mgl64.Vec3) { b.com = offset }
func (b *Body) SetMaxAngularVelocity(max float64) { b.maxAngVel = max }

func (b *Body) SetPose(pos mgl64.Vec3, rot mgl64.Quat) {
	setVec(b.x, idxPos, pos)
	setQuat(b.x, rot.Normalize())
}

func (b *Body) SetVelocity(v mgl64.Vec3)        { setVec(b.x, idxVel, v) }
func (b *Body) SetAngularVelocity(w mgl64.Vec3) { setVec(b.x, idxAngVel, w) }

// CenterOfMass returns the world position of the centre of mass.
func (b *Body) CenterOfMass() mgl64.Vec3 {
	pos, rot := b.Pose()
	return pos.Add(rot.Rotate(b.com))
}

func (b *Body) AddForceAtPoint(force, point mgl64.Vec3) {
	force = dynamo.SanitizeVec(force)
	b.force = b.force.Add(force)
	arm := dynamo.SanitizeVec(point.Sub(b.CenterOfMass()))
	b.momentAbout = b.momentAbout.Add(arm.Cross(force))
}

func (b *Body) AddTorque(angularAccel mgl64.Vec3) {
	b.angularAccel = b.angularAccel.Add(dynamo.SanitizeVec(angularAccel))
}

// Wrench returns the accumulated control for the next step.
func (b *Body) Wrench() dynamo.Control {
	alpha := b.angularAccel.Add(b.worldInverseInertia(b.momentAbout))
	return dynamo.Control{
		b.force[0], b.force[1], b.force[2],
		alpha[0], alpha[1], alpha[2],
	}
}

// worldInverseInertia applies R·I⁻¹·Rᵀ to a world-frame torque.
func (b *Body) worldInverseInertia(torque mgl64.Vec3) mgl64.Vec3 {
	_, rot := b.Pose()
	local := rot.Inverse().Rotate(torque)
	for i := range local {
		local[i] /= math.Max(1e-9, b.inertia[i])
	}
	return rot.Rotate(local)
}

func (b *Body) Derive(x dynamo.State, u dynamo.Control, t float64) dynamo.State {
	dx := make(dynamo.State, stateDim)
	var force, alpha mgl64.Vec3
	if len(u) >= controlDim {
		force = mgl64.Vec3{u[0], u[1], u[2]}
		alpha = mgl64.Vec3{u[3], u[4], u[5]}
	}

	vel := vec(x, idxVel)
	acc := force.Mul(1 / b.params.Mass).
		Add(mgl64.Vec3{0, -b.params.Gravity, 0}).
		Sub(vel.Mul(b.params.LinearDamping))
	setVec(dx, idxPos, vel)
	setVec(dx, idxVel, acc)

	// q̇ = ½ (0, ω) ⊗ q for a world-frame ω.
	w := vec(x, idxAngVel)
	q := mgl64.Quat{W: x[idxQuat], V: mgl64.Vec3{x[idxQuat+1], x[idxQuat+2], x[idxQuat+3]}}
	dq := mgl64.Quat{W: 0, V: w}.Mul(q).Scale(0.5)
	setQuat(dx, dq)

	setVec(dx, idxAngVel, alpha.Sub(w.Mul(b.params.AngularDamping)))
	return dx
}

// Integrate advances the body by dt using the accumulated wrench and clears
// it. A non-finite result leaves the body unchanged and returns ErrInvalidState.
func (b *Body) Integrate(t, dt float64) error {
	u := b.Wrench()
	b.force, b.momentAbout, b.angularAccel = mgl64.Vec3{}, mgl64.Vec3{}, mgl64.Vec3{}

	next := b.integrator.Step(b, b.x, u, t, dt)
	if len(next) != stateDim || !next.IsValid() {
		return &dynamo.SimulationError{Time: t, State: next, Wrapped: dynamo.ErrInvalidState}
	}

	setQuat(next, quat(next))
	if b.maxAngVel > 0 {
		if w := vec(next, idxAngVel); w.Len() > b.maxAngVel {
			setVec(next, idxAngVel, w.Normalize().Mul(b.maxAngVel))
		}
	}
	if b.params.FloorEnabled && next[idxPos+1] < b.params.Floor {
		next[idxPos+1] = b.params.Floor
		if next[idxVel+1] < 0 {
			next[idxVel+1] = 0
		}
		next[idxVel] *= 1 - b.params.FloorFriction
		next[idxVel+2] *= 1 - b.params.FloorFriction
	}

	b.x = next
	return nil
}

// Grounded reports whether the body rests on the floor plane.
func (b *Body) Grounded() bool {
	return b.params.FloorEnabled && b.x[idxPos+1] <= b.params.Floor
}

func vec(x dynamo.State, i int) mgl64.Vec3 {
	return mgl64.Vec3{x[i], x[i+1], x[i+2]}
}

func setVec(x dynamo.State, i int, v mgl64.Vec3) {
	x[i], x[i+1], x[i+2] = v[0], v[1], v[2]
}

func quat(x dynamo.State) mgl64.Quat {
	q := mgl64.Quat{W: x[idxQuat], V: mgl64.Vec3{x[idxQuat+1], x[idxQuat+2], x[idxQuat+3]}}
	if q.Len() < 1e-12 {
		return mgl64.QuatIdent()
	}
	return q.Normalize()
}

func setQuat(x dynamo.State, q mgl64.Quat) {
	x[idxQuat], x[idxQuat+1], x[idxQuat+2], x[idxQuat+3] = q.W, q.V[0], q.V[1], q.V[2]
}
