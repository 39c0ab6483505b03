package cmd

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
	"github.com/spf13/cobra"

	"github.com/theirongolddev/attain/internal/config"
	"github.com/theirongolddev/attain/internal/tui"
	"github.com/theirongolddev/attain/internal/tui/theme"
)

var tuiCmd = &cobra.Command{
	Use:   "tui",
	Short: "Launch interactive TUI dashboard",
	RunE:  runTUI,
}

func init() {
	rootCmd.AddCommand(tuiCmd)
}

func runTUI(_ *cobra.Command, _ []string) error {
	// The TUI owns the terminal; logging goes to a file or nowhere.
	if flagDebug {
		if err := os.MkdirAll(config.Dir(), 0o750); err != nil {
			return fmt.Errorf("creating config dir: %w", err)
		}
		f, err := tea.LogToFile(filepath.Join(config.Dir(), "debug.log"), "attain")
		if err != nil {
			return fmt.Errorf("opening debug log: %w", err)
		}
		defer func() { _ = f.Close() }()
		slog.SetDefault(slog.New(slog.NewTextHandler(f, &slog.HandlerOptions{Level: slog.LevelDebug})))
	} else {
		slog.SetDefault(slog.New(slog.DiscardHandler))
	}

	needSetup := !config.Exists()
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	theme.SetActive(cfg.Appearance.Theme)

	// Force TrueColor profile so all background styling produces ANSI codes
	// Without this, lipgloss may default to Ascii profile (no colors)
	lipgloss.SetColorProfile(termenv.TrueColor)

	flagQuiet = true
	src, err := openSource(cfg)
	if err != nil {
		return err
	}

	app := tui.NewApp(tui.Options{
		Source:    src,
		Config:    cfg,
		Range:     selectedRange(cfg),
		NeedSetup: needSetup,
	})
	p := tea.NewProgram(app, tea.WithAltScreen())

	if _, err := p.Run(); err != nil {
		return fmt.Errorf("TUI error: %w", err)
	}
	return nil
}
