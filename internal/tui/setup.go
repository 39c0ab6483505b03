package tui

import (
	"errors"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"

	"github.com/theirongolddev/attain/internal/config"
	"github.com/theirongolddev/attain/internal/model"
	"github.com/theirongolddev/attain/internal/source"
	"github.com/theirongolddev/attain/internal/tui/theme"
)

// setupValues collects the first-run answers bound to the huh form fields.
// App copies share one instance so answers survive the value receivers.
type setupValues struct {
	source   string
	dataFile string
	dbPath   string
	rng      string
	theme    string
}

func newSetupForm(cfg config.Config, vals *setupValues) *huh.Form {
	vals.source = cfg.General.Source
	vals.dataFile = config.DataFile(cfg)
	vals.dbPath = config.DBPath(cfg)
	vals.rng = cfg.General.DefaultRange
	vals.theme = cfg.Appearance.Theme

	sourceOpts := []huh.Option[string]{
		huh.NewOption("Built-in demo figures", "demo"),
		huh.NewOption("TOML targets file", "file"),
		huh.NewOption("SQLite database", "sqlite"),
	}

	rangeOpts := make([]huh.Option[string], 0, len(model.TimeRanges))
	for _, r := range model.TimeRanges {
		rangeOpts = append(rangeOpts, huh.NewOption(r.Label(), r.String()))
	}

	themeOpts := make([]huh.Option[string], 0, len(theme.All))
	for _, name := range theme.Names() {
		themeOpts = append(themeOpts, huh.NewOption(name, name))
	}

	required := func(what string) func(string) error {
		return func(s string) error {
			if strings.TrimSpace(s) == "" {
				return errors.New(what + " is required")
			}
			return nil
		}
	}

	return huh.NewForm(
		huh.NewGroup(
			huh.NewNote().
				Title("Welcome to attain").
				Description("Track completed and forecast sales against targets.\nA few choices and you're in."),
			huh.NewSelect[string]().
				Title("Where do your figures come from?").
				Options(sourceOpts...).
				Value(&vals.source),
		),
		huh.NewGroup(
			huh.NewInput().
				Title("Path to targets file").
				Placeholder("~/attain/targets.toml").
				Value(&vals.dataFile).
				Validate(required("data file")),
		).WithHideFunc(func() bool { return vals.source != "file" }),
		huh.NewGroup(
			huh.NewInput().
				Title("Path to SQLite database").
				Placeholder("~/attain/attain.db").
				Value(&vals.dbPath).
				Validate(required("database path")),
		).WithHideFunc(func() bool { return vals.source != "sqlite" }),
		huh.NewGroup(
			huh.NewSelect[string]().
				Title("Default time range").
				Options(rangeOpts...).
				Value(&vals.rng),
			huh.NewSelect[string]().
				Title("Color theme").
				Options(themeOpts...).
				Value(&vals.theme),
		),
	).WithShowHelp(true)
}

// applySetup persists the wizard answers and reloads from the chosen source.
func (a App) applySetup() (tea.Model, tea.Cmd) {
	v := *a.setupVals

	a.cfg.General.Source = v.source
	a.cfg.General.DataFile = strings.TrimSpace(v.dataFile)
	a.cfg.General.DBPath = strings.TrimSpace(v.dbPath)
	a.cfg.General.DefaultRange = v.rng
	a.cfg.Appearance.Theme = v.theme
	theme.SetActive(v.theme)

	if err := config.Save(a.cfg); err != nil {
		a.lastErr = err
	}

	srcName := ""
	if a.src != nil {
		srcName = a.src.Name()
	}
	src, err := source.Open(v.source, source.Options{
		DataFile: config.DataFile(a.cfg),
		DBPath:   config.DBPath(a.cfg),
	})
	switch {
	case err != nil:
		a.lastErr = err
	case src.Name() != srcName:
		if a.src != nil {
			_ = a.src.Close()
		}
		a.src = src
	default:
		_ = src.Close()
	}

	if r, err := model.ParseTimeRange(v.rng); err == nil {
		a.rng = r
	}
	return a.reload()
}
