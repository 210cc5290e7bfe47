// Package control holds the attitude law and the command sources built on it.
//
//   - [ResolveTarget]: integrates the yaw stick into a heading and maps sticks to tilt
//   - [ShortestRotationError]: quaternion error as axis and angle, short way round
//   - [PD]: proportional-derivative attitude correction
//   - [Rescue]: tilt-scaled torque that rights a tumbling vehicle
//   - [Autopilot]: PID altitude, heading and velocity hold producing stick commands
//
// # Usage
//
//	heading, target := control.ResolveTarget(heading, cmd, 35, 140, dt)
//	accel, ok := control.PD{Kp: 40, Kd: 9}.Correction(target.Quat(), rot, angVel)
//	if ok {
//	    body.AddTorque(accel)
//	}
package control
