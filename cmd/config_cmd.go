package cmd

import (
	"fmt"
	"net/url"

	"github.com/spf13/cobra"

	"github.com/theirongolddev/attain/internal/config"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Show current configuration",
	RunE:  runConfig,
}

func init() {
	rootCmd.AddCommand(configCmd)
}

func runConfig(_ *cobra.Command, _ []string) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	fmt.Printf("  Config file: %s\n", config.Path())
	if config.Exists() {
		fmt.Println("  Status: loaded")
	} else {
		fmt.Println("  Status: using defaults (no config file)")
	}
	fmt.Println()

	fmt.Println("  [General]")
	fmt.Printf("    Default range: %s\n", cfg.General.DefaultRange)
	fmt.Printf("    Source:        %s\n", cfg.General.Source)
	if p := config.DataFile(cfg); p != "" {
		fmt.Printf("    Data file:     %s\n", p)
	}
	if p := config.DBPath(cfg); p != "" {
		fmt.Printf("    Database:      %s\n", p)
	}
	fmt.Println()

	fmt.Println("  [Animation]")
	fmt.Printf("    Duration: %dms\n", cfg.Animation.DurationMS)
	fmt.Printf("    FPS:      %d\n", cfg.Animation.FPS)
	fmt.Println()

	fmt.Println("  [TUI]")
	fmt.Printf("    Auto refresh: %v (every %ds)\n", cfg.TUI.AutoRefresh, cfg.TUI.RefreshIntervalSec)
	fmt.Println()

	fmt.Println("  [Daemon]")
	fmt.Printf("    Address:  %s\n", cfg.Daemon.Addr)
	fmt.Printf("    Interval: %ds\n", cfg.Daemon.IntervalSec)
	fmt.Printf("    Events:   %d buffered\n", cfg.Daemon.EventsBuffer)
	fmt.Println()

	fmt.Println("  [AMQP]")
	if u := config.AMQPURL(cfg); u != "" {
		fmt.Printf("    URL:      %s\n", maskURL(u))
		fmt.Printf("    Exchange: %s (%s.<range>)\n", cfg.AMQP.Exchange, cfg.AMQP.RoutingKey)
	} else {
		fmt.Println("    Publisher: disabled")
	}
	fmt.Println()

	fmt.Println("  [Appearance]")
	fmt.Printf("    Theme: %s\n", cfg.Appearance.Theme)
	fmt.Println()

	if err := cfg.Validate(); err != nil {
		fmt.Printf("  Problems:\n    %v\n\n", err)
	}
	fmt.Println("  Run `attain setup` to reconfigure.")
	return nil
}

// maskURL hides the password in a broker URL.
func maskURL(raw string) string {
	u, err := url.Parse(raw)
	if err != nil {
		return "****"
	}
	return u.Redacted()
}
