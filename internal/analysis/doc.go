// Package analysis post-processes recorded telemetry channels.
//
// Spectra ([FFT], [PowerSpectrum], [DominantFrequency]) find oscillation in
// attitude or altitude. Step-response helpers ([SettlingTime], [Overshoot])
// grade how the autopilot recovers from a disturbance. [Trace] renders two
// channels against each other as text.
//
//	f, err := analysis.DominantFrequency(tilt, dt)
package analysis
