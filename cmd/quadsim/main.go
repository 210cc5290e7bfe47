package main

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/san-kum/quadsim/internal/storage"
)

var log = zerolog.Nop()

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "quadsim",
		Short:         "quadrocopter flight simulator",
		SilenceUsage:  true,
		SilenceErrors: false,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if err := loadSettings(); err != nil {
				return err
			}
			return setupLogging(viper.GetString("log-level"))
		},
	}

	pf := rootCmd.PersistentFlags()
	pf.String("data", ".quadsim", "data directory")
	pf.String("backend", storage.KindFile, "run storage backend (file, sqlite)")
	pf.String("log-level", "warn", "log level (trace, debug, info, warn, error)")
	for _, name := range []string{"data", "backend", "log-level"} {
		_ = viper.BindPFlag(name, pf.Lookup(name))
	}

	rootCmd.AddCommand(
		newRunCmd(),
		newEnsembleCmd(),
		newTuneCmd(),
		newLiveCmd(),
		newListCmd(),
		newPlotCmd(),
		newExportCSVCmd(),
		newExportJSONCmd(),
		newExportSVGCmd(),
		newAnalyzeCmd(),
		newPresetsCmd(),
		newScenariosCmd(),
	)
	return rootCmd
}

// loadSettings layers QUADSIM_* environment variables and an optional
// quadsim.yaml in the working directory under the command line flags.
func loadSettings() error {
	viper.SetEnvPrefix("QUADSIM")
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv()

	viper.SetConfigName("quadsim")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(".")
	if err := viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return fmt.Errorf("reading settings: %w", err)
		}
	}
	return nil
}

func setupLogging(level string) error {
	lvl, err := zerolog.ParseLevel(strings.ToLower(level))
	if err != nil {
		return fmt.Errorf("log level %q: %w", level, err)
	}
	zerolog.SetGlobalLevel(lvl)
	zerolog.TimestampFunc = func() time.Time { return time.Now().UTC() }
	log = zerolog.New(zerolog.ConsoleWriter{
		Out:        os.Stderr,
		TimeFormat: time.RFC3339,
	}).With().Timestamp().Logger()
	return nil
}

func openStore() (storage.Backend, error) {
	store, err := storage.New(viper.GetString("backend"), viper.GetString("data"))
	if err != nil {
		return nil, err
	}
	if err := store.Init(); err != nil {
		store.Close()
		return nil, err
	}
	return store, nil
}
