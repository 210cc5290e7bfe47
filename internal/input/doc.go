// Package input turns interactive key presses into pilot commands and hands
// them to the simulation loop.
package input
