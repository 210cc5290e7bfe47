// Package metrics reduces a run's samples to scalar figures of merit.
package metrics
