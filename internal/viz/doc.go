// Package viz is the interactive terminal view of a flight.
//
// [Model] is a Bubble Tea program: key presses go through an
// input.Normalizer into the input.Latch the simulator flies with, and every
// frame advances one frame of simulated time. The screen shows a wireframe
// of the vehicle on a Braille [Canvas] seen through an orbiting [Camera], an
// asciigraph altitude history and a lipgloss telemetry panel.
//
// # Key Bindings
//
//	W/S A/D Q/E  - pitch, roll, yaw
//	Up/Down      - throttle
//	K            - kill motors (toggle)
//	R            - refill battery
//	[ ] + -      - orbit and zoom the camera
//	T            - cycle themes
//	Space        - pause
//	Esc          - quit
package viz
