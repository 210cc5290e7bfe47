package main

import (
	"fmt"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/guptarohit/asciigraph"
	"github.com/spf13/cobra"

	"github.com/san-kum/quadsim/internal/analysis"
	"github.com/san-kum/quadsim/internal/automation"
	"github.com/san-kum/quadsim/internal/config"
	"github.com/san-kum/quadsim/internal/export"
	"github.com/san-kum/quadsim/internal/storage"
)

func newListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "list recorded runs",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := openStore()
			if err != nil {
				return err
			}
			defer store.Close()

			runs, err := store.List()
			if err != nil {
				return err
			}
			if len(runs) == 0 {
				fmt.Println("no runs found")
				return nil
			}

			w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "ID\tPILOT\tINTEGRATOR\tSEED\tSTEPS\tMODE\tTIME")
			for _, r := range runs {
				fmt.Fprintf(w, "%s\t%s\t%s\t%d\t%d\t%s\t%s\n",
					r.ID, r.Pilot, r.Integrator, r.Seed, r.Steps, r.FinalMode, r.Timestamp.Format("2006-01-02 15:04:05"))
			}
			return w.Flush()
		},
	}
}

// loadRun fetches both halves of a stored run.
func loadRun(id string) (*storage.RunMetadata, *storage.Series, error) {
	store, err := openStore()
	if err != nil {
		return nil, nil, err
	}
	defer store.Close()

	meta, err := store.Load(id)
	if err != nil {
		return nil, nil, err
	}
	series, err := store.LoadSeries(id)
	if err != nil {
		return nil, nil, err
	}
	return meta, series, nil
}

func newPlotCmd() *cobra.Command {
	var (
		columns []string
		height  int
		width   int
	)
	cmd := &cobra.Command{
		Use:   "plot [run_id]",
		Short: "plot telemetry channels of a run",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			meta, series, err := loadRun(args[0])
			if err != nil {
				return err
			}
			fmt.Printf("%s (%s, %d steps)\n\n", meta.ID, meta.Pilot, meta.Steps)
			for _, col := range columns {
				data, err := series.Column(col)
				if err != nil {
					return err
				}
				if len(data) < 2 {
					continue
				}
				fmt.Println(asciigraph.Plot(data,
					asciigraph.Height(height),
					asciigraph.Width(width),
					asciigraph.Caption(col),
				))
				fmt.Println()
			}
			return nil
		},
	}
	cmd.Flags().StringSliceVarP(&columns, "columns", "c", []string{"y", "tilt_deg", "battery", "power_w"}, "channels to plot")
	cmd.Flags().IntVar(&height, "height", 10, "plot height")
	cmd.Flags().IntVar(&width, "width", 80, "plot width")
	return cmd
}

func newExportCSVCmd() *cobra.Command {
	var out string
	cmd := &cobra.Command{
		Use:   "export-csv [run_id]",
		Short: "export run telemetry as CSV",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			_, series, err := loadRun(args[0])
			if err != nil {
				return err
			}
			return storage.ExportCSV(out, series)
		},
	}
	cmd.Flags().StringVarP(&out, "out", "o", "-", "output path (- for stdout)")
	return cmd
}

func newExportJSONCmd() *cobra.Command {
	var out string
	cmd := &cobra.Command{
		Use:   "export-json [run_id]",
		Short: "export run metadata and telemetry as JSON",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			meta, series, err := loadRun(args[0])
			if err != nil {
				return err
			}
			return storage.ExportJSON(out, *meta, series)
		},
	}
	cmd.Flags().StringVarP(&out, "out", "o", "-", "output path (- for stdout)")
	return cmd
}

func newExportSVGCmd() *cobra.Command {
	var (
		out    string
		xCol   string
		yCol   string
		width  int
		height int
	)
	cmd := &cobra.Command{
		Use:   "export-svg [run_id]",
		Short: "draw one channel against another as SVG",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			_, series, err := loadRun(args[0])
			if err != nil {
				return err
			}
			xs, err := series.Column(xCol)
			if err != nil {
				return err
			}
			ys, err := series.Column(yCol)
			if err != nil {
				return err
			}
			svg := export.TraceSVG(analysis.NewTrace(xs, ys), width, height, "#00ffff")
			if out == "-" {
				_, err = fmt.Print(svg)
				return err
			}
			return os.WriteFile(out, []byte(svg), 0644)
		},
	}
	cmd.Flags().StringVarP(&out, "out", "o", "-", "output path (- for stdout)")
	cmd.Flags().StringVar(&xCol, "x", "x", "horizontal channel")
	cmd.Flags().StringVar(&yCol, "y", "z", "vertical channel")
	cmd.Flags().IntVar(&width, "width", 600, "image width")
	cmd.Flags().IntVar(&height, "height", 400, "image height")
	return cmd
}

func newAnalyzeCmd() *cobra.Command {
	var (
		column string
		target float64
		band   float64
		track  bool
	)
	cmd := &cobra.Command{
		Use:   "analyze [run_id]",
		Short: "spectrum and step response of a telemetry channel",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			meta, series, err := loadRun(args[0])
			if err != nil {
				return err
			}
			data, err := series.Column(column)
			if err != nil {
				return err
			}
			dt := series.Dt()
			if dt == 0 {
				dt = meta.Dt
			}

			stats := analysis.Summarize(data)
			w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
			fmt.Fprintf(w, "channel\t%s\n", column)
			fmt.Fprintf(w, "samples\t%d\n", len(data))
			fmt.Fprintf(w, "min / max\t%.4f / %.4f\n", stats.Min, stats.Max)
			fmt.Fprintf(w, "mean\t%.4f\n", stats.Mean)
			fmt.Fprintf(w, "rms\t%.4f\n", stats.RMS)
			if f, err := analysis.DominantFrequency(data, dt); err == nil {
				fmt.Fprintf(w, "dominant frequency\t%.3f Hz\n", f)
			}
			if cmd.Flags().Changed("target") {
				fmt.Fprintf(w, "overshoot\t%.1f%%\n", analysis.Overshoot(data, target))
				if ts, ok := analysis.SettlingTime(data, target, band, dt); ok {
					fmt.Fprintf(w, "settling time (±%g)\t%.2fs\n", band, ts)
				} else {
					fmt.Fprintf(w, "settling time (±%g)\tnot settled\n", band)
				}
			}
			if err := w.Flush(); err != nil {
				return err
			}

			if track {
				xs, _ := series.Column("x")
				zs, _ := series.Column("z")
				fmt.Println("\nground track (x right, z up the page):")
				fmt.Print(analysis.NewTrace(xs, zs).ASCII(60, 20))
			}
			return nil
		},
	}
	cmd.Flags().StringVarP(&column, "column", "c", "tilt_deg", "channel to analyze")
	cmd.Flags().Float64Var(&target, "target", 0, "step response target (enables overshoot and settling)")
	cmd.Flags().Float64Var(&band, "band", 0.5, "settling band around target")
	cmd.Flags().BoolVar(&track, "track", false, "also plot the ground track")
	return cmd
}

func newPresetsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "presets",
		Short: "list flight presets",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "NAME\tPILOT\tSCENARIO\tDURATION\tINTEGRATOR")
			for _, name := range config.ListPresets() {
				p := config.GetPreset(name)
				scenario := p.Scenario
				if scenario == "" {
					scenario = "-"
				}
				fmt.Fprintf(w, "%s\t%s\t%s\t%.0fs\t%s\n", name, p.Pilot, scenario, p.Duration, p.Integrator)
			}
			return w.Flush()
		},
	}
}

func newScenariosCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "scenarios",
		Short: "list builtin scripted scenarios",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "NAME\tSEGMENTS\tDURATION\tDESCRIPTION")
			for _, name := range automation.ListBuiltin() {
				sc, err := automation.Builtin(name)
				if err != nil {
					return err
				}
				fmt.Fprintf(w, "%s\t%d\t%.0fs\t%s\n", name, len(sc.Segments), sc.Duration(), strings.TrimSpace(sc.Description))
			}
			return w.Flush()
		},
	}
}
