package optim

import (
	"context"
	"fmt"
	"math"
	"runtime"
	"sort"
	"strconv"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/san-kum/quadsim/internal/config"
	"github.com/san-kum/quadsim/internal/control"
	"github.com/san-kum/quadsim/internal/dynamo"
	"github.com/san-kum/quadsim/internal/experiment"
)

// gainField addresses an autopilot gain as "<loop>.<term>".
func gainField(p *control.AutopilotParams, name string) (*float64, error) {
	loop, term, ok := strings.Cut(name, ".")
	if !ok {
		return nil, fmt.Errorf("optim: gain %q: want <loop>.<kp|ki|kd>: %w", name, dynamo.ErrUnknownName)
	}
	var g *control.Gains
	switch loop {
	case "altitude":
		g = &p.AltitudeGains
	case "climb_rate":
		g = &p.ClimbRateGains
	case "heading":
		g = &p.HeadingGains
	case "velocity":
		g = &p.VelocityGains
	default:
		return nil, fmt.Errorf("optim: loop %q: %w", loop, dynamo.ErrUnknownName)
	}
	switch term {
	case "kp":
		return &g.Kp, nil
	case "ki":
		return &g.Ki, nil
	case "kd":
		return &g.Kd, nil
	}
	return nil, fmt.Errorf("optim: term %q: %w", term, dynamo.ErrUnknownName)
}

// ApplyGains writes named gains into p.
func ApplyGains(p *control.AutopilotParams, gains map[string]float64) error {
	for name, v := range gains {
		f, err := gainField(p, name)
		if err != nil {
			return err
		}
		*f = v
	}
	return nil
}

// ParseAxis reads "name=v1,v2,..." or "name=start:stop:count".
func ParseAxis(spec string) (string, []float64, error) {
	name, values, ok := strings.Cut(spec, "=")
	if !ok || name == "" {
		return "", nil, fmt.Errorf("optim: axis %q: want name=values", spec)
	}
	if parts := strings.Split(values, ":"); len(parts) == 3 {
		lo, err1 := strconv.ParseFloat(parts[0], 64)
		hi, err2 := strconv.ParseFloat(parts[1], 64)
		n, err3 := strconv.Atoi(parts[2])
		if err1 != nil || err2 != nil || err3 != nil || n < 1 {
			return "", nil, fmt.Errorf("optim: axis %q: bad range", spec)
		}
		out := make([]float64, n)
		for i := range out {
			if n == 1 {
				out[i] = lo
				continue
			}
			out[i] = lo + (hi-lo)*float64(i)/float64(n-1)
		}
		return name, out, nil
	}

	var out []float64
	for _, f := range strings.Split(values, ",") {
		v, err := strconv.ParseFloat(strings.TrimSpace(f), 64)
		if err != nil {
			return "", nil, fmt.Errorf("optim: axis %q: %w", spec, err)
		}
		out = append(out, v)
	}
	return name, out, nil
}

// GridSearch flies every combination of autopilot gains and keeps the one
// with the lowest metric.
type GridSearch struct {
	paramNames  []string
	ranges      [][]float64
	parallelism int
}

func NewGridSearch(params []string, ranges [][]float64) *GridSearch {
	return &GridSearch{paramNames: params, ranges: ranges, parallelism: runtime.GOMAXPROCS(0)}
}

func (g *GridSearch) SetParallelism(n int) {
	if n > 0 {
		g.parallelism = n
	}
}

// Trial is one evaluated grid point.
type Trial struct {
	Gains map[string]float64
	Score float64
	Err   error
}

type Result struct {
	Best   map[string]float64
	Score  float64
	Trials []Trial
}

func (g *GridSearch) points() []map[string]float64 {
	points := []map[string]float64{{}}
	for i, name := range g.paramNames {
		var next []map[string]float64
		for _, p := range points {
			for _, v := range g.ranges[i] {
				q := make(map[string]float64, len(p)+1)
				for k, x := range p {
					q[k] = x
				}
				q[name] = v
				next = append(next, q)
			}
		}
		points = next
	}
	return points
}

// Search runs base once per grid point. Trials that fail to build or leave
// the metric non-finite score +Inf; only context cancellation aborts.
func (g *GridSearch) Search(ctx context.Context, base *config.Config, metricName string) (*Result, error) {
	if len(g.paramNames) != len(g.ranges) {
		return nil, fmt.Errorf("optim: %d names for %d ranges", len(g.paramNames), len(g.ranges))
	}
	probe := control.DefaultAutopilotParams()
	for _, name := range g.paramNames {
		if _, err := gainField(&probe, name); err != nil {
			return nil, err
		}
	}

	points := g.points()
	trials := make([]Trial, len(points))

	eg, ctx := errgroup.WithContext(ctx)
	eg.SetLimit(g.parallelism)
	for i, p := range points {
		eg.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			trials[i] = evaluate(ctx, base, p, metricName)
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return nil, err
	}

	res := &Result{Score: math.Inf(1), Trials: trials}
	for _, t := range trials {
		if t.Score < res.Score {
			res.Score = t.Score
			res.Best = t.Gains
		}
	}
	sort.SliceStable(res.Trials, func(i, j int) bool { return res.Trials[i].Score < res.Trials[j].Score })
	return res, nil
}

func evaluate(ctx context.Context, base *config.Config, gains map[string]float64, metricName string) Trial {
	t := Trial{Gains: gains, Score: math.Inf(1)}
	cfg := base.Clone()
	if t.Err = ApplyGains(&cfg.Autopilot, gains); t.Err != nil {
		return t
	}
	s, err := experiment.Build(cfg)
	if err != nil {
		t.Err = err
		return t
	}
	res, err := s.Run(ctx, dynamo.Config{Dt: cfg.Dt, Duration: cfg.Duration, Seed: cfg.Seed, ValidateState: true})
	if err != nil {
		t.Err = err
		return t
	}
	v, ok := res.Metrics[metricName]
	if !ok {
		t.Err = fmt.Errorf("optim: metric %q: %w", metricName, dynamo.ErrUnknownName)
		return t
	}
	if len(res.Errors) == 0 && dynamo.IsFinite(v) {
		t.Score = v
	}
	return t
}
