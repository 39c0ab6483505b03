// Package cmd implements the attain CLI commands.
package cmd

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/theirongolddev/attain/internal/config"
	"github.com/theirongolddev/attain/internal/model"
	"github.com/theirongolddev/attain/internal/source"
)

var (
	flagRange    string
	flagSource   string
	flagDataFile string
	flagDBPath   string
	flagQuiet    bool
	flagDebug    bool
)

var rootCmd = &cobra.Command{
	Use:   "attain",
	Short: "Target achievement dashboard",
	Long:  "Track completed and forecast sales against targets by category and time range.",
	PersistentPreRunE: func(_ *cobra.Command, _ []string) error {
		// A missing .env is normal.
		_ = godotenv.Load()
		setupLogging(os.Stderr)
		return nil
	},
	RunE:          runSummary,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute is the main entry point called from main.go.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "  Error: %v\n", err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&flagRange, "range", "r", "", "Time range: week, month, quarter, year (default from config)")
	rootCmd.PersistentFlags().StringVarP(&flagSource, "source", "s", "", "Data source: demo, file, sqlite (default from config)")
	rootCmd.PersistentFlags().StringVarP(&flagDataFile, "data", "f", "", "TOML dataset path for the file source")
	rootCmd.PersistentFlags().StringVar(&flagDBPath, "db", "", "SQLite database path for the sqlite source")
	rootCmd.PersistentFlags().BoolVarP(&flagQuiet, "quiet", "q", false, "Suppress progress output")
	rootCmd.PersistentFlags().BoolVar(&flagDebug, "debug", false, "Verbose logging")
}

// setupLogging installs the default slog logger. Only warnings and errors
// are shown unless --debug is set.
func setupLogging(w *os.File) {
	level := slog.LevelWarn
	if flagDebug {
		level = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level})))
}

// loadConfig reads the config file and applies command-line overrides.
func loadConfig() (config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return cfg, err
	}
	if flagRange != "" {
		cfg.General.DefaultRange = flagRange
	}
	if flagSource != "" {
		cfg.General.Source = flagSource
	}
	if flagDataFile != "" {
		cfg.General.DataFile = flagDataFile
	}
	if flagDBPath != "" {
		cfg.General.DBPath = flagDBPath
	}
	if err := cfg.Validate(); err != nil {
		return cfg, fmt.Errorf("invalid configuration:\n%w", err)
	}
	return cfg, nil
}

// selectedRange resolves the range to show from flags and config.
func selectedRange(cfg config.Config) model.TimeRange {
	r, err := model.ParseTimeRange(cfg.General.DefaultRange)
	if err != nil {
		return model.Month
	}
	return r
}

// openSource is the shared data source path used by all commands.
func openSource(cfg config.Config) (source.Source, error) {
	src, err := source.Open(cfg.General.Source, source.Options{
		DataFile: config.DataFile(cfg),
		DBPath:   config.DBPath(cfg),
	})
	if err != nil {
		return nil, err
	}
	slog.Debug("source opened", "component", "cmd", "source", src.Name())
	if !flagQuiet {
		fmt.Fprintf(os.Stderr, "  Reading %s\n", src.Name())
	}
	return src, nil
}
