// Package flight is the per-vehicle control loop of a quadrocopter.
//
// Each [Vehicle.Step] runs one fixed tick in this order:
//
//  1. kill toggle and throttle command
//  2. attitude target, PD correction and upright rescue (torques)
//  3. throttle smoothing and tilt compensation
//  4. power draw and battery drain
//  5. thrust, split evenly across the four arm points along body up
//  6. motor mixing, spool and RPM (telemetry only, net thrust is unchanged)
//  7. wind, drag and turbulence
//  8. telemetry publish
//
// All forces are accumulated on the [dynamo.RigidBody]; the host integrates
// the body after Step returns.
//
// # Modes
//
// A vehicle is armed by default. The kill toggle moves it between armed and
// killed. An empty battery is terminal until [Vehicle.ResetBattery].
package flight
