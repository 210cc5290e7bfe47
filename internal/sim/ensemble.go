package sim

import (
	"context"
	"fmt"
	"runtime"

	"golang.org/x/sync/errgroup"

	"github.com/san-kum/quadsim/internal/dynamo"
)

// Factory builds a fresh, independently owned simulator for one seed.
type Factory func(seed int64) (*Simulator, error)

// Ensemble repeats a run across consecutive seeds in parallel. Every member
// gets its own vehicle, body and environment from the factory.
type Ensemble struct {
	factory     Factory
	numRuns     int
	seedStart   int64
	parallelism int
}

func NewEnsemble(factory Factory, numRuns int, seedStart int64) *Ensemble {
	return &Ensemble{
		factory:     factory,
		numRuns:     numRuns,
		seedStart:   seedStart,
		parallelism: runtime.GOMAXPROCS(0),
	}
}

// SetParallelism caps concurrent runs. Values below one mean unlimited.
func (e *Ensemble) SetParallelism(n int) { e.parallelism = n }

// Run returns one result per seed, in seed order. The first failure cancels
// the remaining runs.
func (e *Ensemble) Run(ctx context.Context, cfg dynamo.Config) ([]*dynamo.Result, error) {
	if e.factory == nil || e.numRuns <= 0 {
		return nil, fmt.Errorf("sim: ensemble needs a factory and at least one run")
	}
	results := make([]*dynamo.Result, e.numRuns)

	g, ctx := errgroup.WithContext(ctx)
	if e.parallelism > 0 {
		g.SetLimit(e.parallelism)
	}
	for i := 0; i < e.numRuns; i++ {
		g.Go(func() error {
			seed := e.seedStart + int64(i)
			s, err := e.factory(seed)
			if err != nil {
				return fmt.Errorf("sim: build seed %d: %w", seed, err)
			}
			runCfg := cfg
			runCfg.Seed = seed
			res, err := s.Run(ctx, runCfg)
			if err != nil {
				return fmt.Errorf("sim: seed %d: %w", seed, err)
			}
			results[i] = res
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}
