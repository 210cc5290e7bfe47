package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"sort"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/san-kum/quadsim/internal/automation"
	"github.com/san-kum/quadsim/internal/config"
	"github.com/san-kum/quadsim/internal/dynamo"
	"github.com/san-kum/quadsim/internal/experiment"
	"github.com/san-kum/quadsim/internal/input"
	"github.com/san-kum/quadsim/internal/optim"
	"github.com/san-kum/quadsim/internal/sim"
	"github.com/san-kum/quadsim/internal/storage"
	"github.com/san-kum/quadsim/internal/viz"
)

// flightFlags are the flags shared by every command that flies.
type flightFlags struct {
	preset     string
	configFile string
	scenario   string
	pilot      string
	integrator string
	dt         float64
	duration   float64
	seed       int64
}

func (f *flightFlags) register(cmd *cobra.Command) {
	fs := cmd.Flags()
	fs.StringVar(&f.preset, "preset", "", "start from a named preset")
	fs.StringVar(&f.configFile, "config", "", "config file path (yaml)")
	fs.StringVar(&f.scenario, "scenario", "", "fly a scripted scenario (builtin name or yaml path)")
	fs.StringVar(&f.pilot, "pilot", config.PilotHover, "pilot (idle, hover, script)")
	fs.StringVar(&f.integrator, "integrator", "rk4", "integrator (euler, rk4, rk45)")
	fs.Float64Var(&f.dt, "dt", config.DefaultDt, "timestep in seconds")
	fs.Float64Var(&f.duration, "time", config.DefaultDuration, "duration in seconds")
	fs.Int64Var(&f.seed, "seed", 1, "noise seed")
}

// resolve builds the config: preset or file first, then any flags given
// explicitly on the command line.
func (f *flightFlags) resolve(cmd *cobra.Command) (*config.Config, error) {
	var cfg *config.Config
	switch {
	case f.preset != "" && f.configFile != "":
		return nil, fmt.Errorf("--preset and --config are exclusive")
	case f.preset != "":
		cfg = config.GetPreset(f.preset)
		if cfg == nil {
			return nil, fmt.Errorf("preset %q: %w", f.preset, dynamo.ErrUnknownName)
		}
	case f.configFile != "":
		var err error
		if cfg, err = config.Load(f.configFile); err != nil {
			return nil, err
		}
	default:
		cfg = config.DefaultConfig()
	}

	changed := cmd.Flags().Changed
	if changed("pilot") {
		cfg.Pilot = f.pilot
	}
	if changed("integrator") {
		cfg.Integrator = f.integrator
	}
	if changed("dt") {
		cfg.Dt = f.dt
	}
	if changed("time") {
		cfg.Duration = f.duration
	}
	if changed("seed") {
		cfg.Seed = f.seed
	}
	if f.scenario != "" {
		sc, err := automation.Resolve(f.scenario)
		if err != nil {
			return nil, err
		}
		cfg.Pilot = config.PilotScript
		cfg.Scenario = f.scenario
		if !changed("time") {
			cfg.Duration = sc.Duration()
		}
	}
	return cfg, cfg.Validate()
}

func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt)
}

func newRunCmd() *cobra.Command {
	var (
		flags flightFlags
		name  string
		save  bool
	)
	cmd := &cobra.Command{
		Use:   "run",
		Short: "fly a headless simulation and record it",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := flags.resolve(cmd)
			if err != nil {
				return err
			}
			if name != "" {
				cfg.Name = name
			}

			exp := experiment.New(cfg, experiment.WithLogger(log))
			if err := exp.Setup(); err != nil {
				return err
			}
			ctx, cancel := signalContext()
			defer cancel()

			log.Info().Str("pilot", cfg.Pilot).Float64("duration", cfg.Duration).Msg("flying")
			result, err := exp.Run(ctx)
			if err != nil {
				return err
			}
			for _, e := range result.Errors {
				log.Warn().Err(e).Msg("simulation error")
			}

			final := result.Final()
			fmt.Printf("steps: %d  mode: %s  altitude: %.2f m  battery: %.0f%%\n",
				result.StepsTaken, final.Telemetry.Mode, final.Observation.Altitude(), final.Telemetry.Battery01*100)
			printMetrics(result.Metrics)

			if !save {
				return nil
			}
			store, err := openStore()
			if err != nil {
				return err
			}
			defer store.Close()
			id, err := store.Save(metadataFor(cfg, result), result.Samples)
			if err != nil {
				return err
			}
			fmt.Printf("saved: %s\n", id)
			return nil
		},
	}
	flags.register(cmd)
	cmd.Flags().StringVar(&name, "name", "", "run name (defaults to the preset or config name)")
	cmd.Flags().BoolVar(&save, "save", true, "record the run in the data directory")
	return cmd
}

func metadataFor(cfg *config.Config, result *dynamo.Result) storage.RunMetadata {
	name := cfg.Name
	if name == "" {
		name = cfg.Pilot
	}
	return storage.RunMetadata{
		Name:       name,
		Seed:       cfg.Seed,
		Dt:         cfg.Dt,
		Duration:   cfg.Duration,
		Integrator: cfg.Integrator,
		Pilot:      cfg.Pilot,
		Scenario:   cfg.Scenario,
		Metrics:    result.Metrics,
	}
}

func printMetrics(metrics map[string]float64) {
	names := make([]string, 0, len(metrics))
	for k := range metrics {
		names = append(names, k)
	}
	sort.Strings(names)

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	for _, k := range names {
		fmt.Fprintf(w, "  %s\t%.4f\n", k, metrics[k])
	}
	w.Flush()
}

func newEnsembleCmd() *cobra.Command {
	var (
		flags    flightFlags
		runs     int
		parallel int
		lockstep bool
	)
	cmd := &cobra.Command{
		Use:   "ensemble",
		Short: "fly seeded copies of one configuration in parallel",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := flags.resolve(cmd)
			if err != nil {
				return err
			}
			if runs < 1 {
				return fmt.Errorf("--runs must be at least 1")
			}
			exp := experiment.New(cfg, experiment.WithLogger(log))
			ctx, cancel := signalContext()
			defer cancel()

			var results []*dynamo.Result
			if lockstep {
				results, err = runFleet(ctx, exp, cfg, runs)
			} else {
				ens := sim.NewEnsemble(exp.Factory(), runs, cfg.Seed)
				if parallel > 0 {
					ens.SetParallelism(parallel)
				}
				results, err = ens.Run(ctx, dynamo.Config{Dt: cfg.Dt, Duration: cfg.Duration, Seed: cfg.Seed, ValidateState: true})
			}
			if err != nil {
				return err
			}
			printEnsemble(cfg.Seed, results)
			return nil
		},
	}
	flags.register(cmd)
	cmd.Flags().IntVarP(&runs, "runs", "n", 8, "number of vehicles")
	cmd.Flags().IntVar(&parallel, "parallel", 0, "worker limit (0 uses GOMAXPROCS)")
	cmd.Flags().BoolVar(&lockstep, "lockstep", false, "tick all vehicles together as one fleet")
	return cmd
}

func runFleet(ctx context.Context, exp *experiment.Experiment, cfg *config.Config, n int) ([]*dynamo.Result, error) {
	factory := exp.Factory()
	fleet := sim.NewFleet()
	for i := 0; i < n; i++ {
		s, err := factory(cfg.Seed + int64(i))
		if err != nil {
			return nil, err
		}
		fleet.Add(s)
	}
	return fleet.Run(ctx, dynamo.Config{Dt: cfg.Dt, Duration: cfg.Duration, Seed: cfg.Seed, ValidateState: true})
}

func printEnsemble(seedStart int64, results []*dynamo.Result) {
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "SEED\tSTEPS\tMODE\tALT(m)\tX(m)\tZ(m)\tENERGY(J)\tSTABLE")
	var alt, energy float64
	for i, r := range results {
		final := r.Final()
		pos := final.Observation.Position
		fmt.Fprintf(w, "%d\t%d\t%s\t%.2f\t%.2f\t%.2f\t%.0f\t%.2f\n",
			seedStart+int64(i), r.StepsTaken, final.Telemetry.Mode,
			pos.Y(), pos.X(), pos.Z(), r.Metrics["energy_used_j"], r.Metrics["stability"])
		alt += pos.Y()
		energy += r.Metrics["energy_used_j"]
	}
	if n := float64(len(results)); n > 0 {
		fmt.Fprintf(w, "mean\t\t\t%.2f\t\t\t%.0f\t\n", alt/n, energy/n)
	}
	w.Flush()
}

func newTuneCmd() *cobra.Command {
	var (
		flags    flightFlags
		axes     []string
		metric   string
		parallel int
		top      int
	)
	cmd := &cobra.Command{
		Use:     "tune",
		Short:   "grid search autopilot gains",
		Example: "  quadsim tune --preset gusty --axis climb_rate.kp=0.1:0.4:4 --axis altitude.kp=0.5,0.8,1.2",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := flags.resolve(cmd)
			if err != nil {
				return err
			}
			if len(axes) == 0 {
				return fmt.Errorf("at least one --axis is required")
			}
			names := make([]string, len(axes))
			ranges := make([][]float64, len(axes))
			for i, spec := range axes {
				if names[i], ranges[i], err = optim.ParseAxis(spec); err != nil {
					return err
				}
			}

			gs := optim.NewGridSearch(names, ranges)
			gs.SetParallelism(parallel)
			ctx, cancel := signalContext()
			defer cancel()

			res, err := gs.Search(ctx, cfg, metric)
			if err != nil {
				return err
			}

			w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
			fmt.Fprintf(w, "%s\t%s\n", strings.ToUpper(strings.Join(names, "\t")), strings.ToUpper(metric))
			for i, t := range res.Trials {
				if i == top {
					break
				}
				row := make([]string, len(names))
				for j, n := range names {
					row[j] = fmt.Sprintf("%.4g", t.Gains[n])
				}
				score := fmt.Sprintf("%.4f", t.Score)
				if t.Err != nil {
					score = t.Err.Error()
				}
				fmt.Fprintf(w, "%s\t%s\n", strings.Join(row, "\t"), score)
			}
			return w.Flush()
		},
	}
	flags.register(cmd)
	cmd.Flags().StringArrayVar(&axes, "axis", nil, "gain axis: <loop>.<kp|ki|kd>=v1,v2 or =start:stop:count")
	cmd.Flags().StringVar(&metric, "metric", "altitude_rms_m", "metric to minimize")
	cmd.Flags().IntVar(&parallel, "parallel", 0, "worker limit (0 uses GOMAXPROCS)")
	cmd.Flags().IntVar(&top, "top", 10, "rows to print")
	return cmd
}

func newLiveCmd() *cobra.Command {
	var (
		flags flightFlags
		theme string
	)
	cmd := &cobra.Command{
		Use:   "live",
		Short: "fly interactively in the terminal",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := flags.resolve(cmd)
			if err != nil {
				return err
			}
			cfg.Pilot = config.PilotKeyboard

			latch := input.NewLatch()
			reg := experiment.NewRegistry()
			reg.RegisterPilot(config.PilotKeyboard, func(*config.Config) (dynamo.Pilot, error) {
				return latch, nil
			})
			// Log lines would tear the full screen view.
			s, err := experiment.Build(cfg, experiment.WithRegistry(reg))
			if err != nil {
				return err
			}
			m := viz.NewModel(s, latch, cfg.Dt)
			m.SetTheme(theme)
			return viz.Run(m)
		},
	}
	flags.register(cmd)
	cmd.Flags().StringVar(&theme, "theme", viz.ThemeCockpit.Name, "colour theme")
	return cmd
}
