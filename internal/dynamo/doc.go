// Package dynamo provides the primitives shared by the flight core and its hosts.
//
//   - [State], [System], [Integrator]: ODE plumbing used by rigid-body backends
//   - [RigidBody]: the physics port a vehicle drives
//   - [Command]: normalized pilot input for one tick
//   - [Telemetry]: read-only snapshot published after every tick
//   - [Pilot], [Metric], [Observer]: run-loop extension points
//
// # Frame
//
// World +Y is up, +Z is forward and +X is right. Rotations are unit
// quaternions from mgl64.
//
// # Thread Safety
//
// Nothing here is safe for concurrent mutation. Each vehicle and body is
// owned by exactly one tick loop.
package dynamo
