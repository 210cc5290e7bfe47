// Package optim tunes autopilot gains by brute force.
//
// A [GridSearch] flies one configuration per point of a gain grid, in
// parallel, and ranks the points by a recorded metric (lower is better):
//
//	gs := optim.NewGridSearch([]string{"climb_rate.kp"}, [][]float64{{0.1, 0.25, 0.4}})
//	res, err := gs.Search(ctx, cfg, "altitude_rms_m")
package optim
