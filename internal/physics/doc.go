// Package physics holds the reference rigid body the flight controller drives.
//
// [Body] implements both [dynamo.System] and [dynamo.RigidBody]: the vehicle
// accumulates forces at world points during a tick, then [Body.Integrate]
// advances a 13-element state (position, velocity, orientation, angular
// velocity) with whichever [dynamo.Integrator] it was built with.
//
//	body, _ := physics.NewBody(physics.DefaultBodyParams(), integrators.NewRK4())
//	body.AddForceAtPoint(mgl64.Vec3{0, 12, 0}, body.CenterOfMass())
//	if err := body.Integrate(t, dt); err != nil {
//	    // errors.Is(err, dynamo.ErrInvalidState)
//	}
package physics
