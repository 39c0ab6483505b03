// Package tui provides the interactive Bubble Tea dashboard for attain.
package tui

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"

	"github.com/theirongolddev/attain/internal/anim"
	"github.com/theirongolddev/attain/internal/cli"
	"github.com/theirongolddev/attain/internal/config"
	"github.com/theirongolddev/attain/internal/model"
	"github.com/theirongolddev/attain/internal/pipeline"
	"github.com/theirongolddev/attain/internal/source"
	"github.com/theirongolddev/attain/internal/tui/components"
	"github.com/theirongolddev/attain/internal/tui/theme"
)

// RangeLoadedMsg carries the records fetched for one range. Seq ties it to
// the request that produced it so superseded loads can be dropped.
type RangeLoadedMsg struct {
	Range    model.TimeRange
	Seq      int
	Records  model.RangeRecords
	Err      error
	LoadTime time.Duration
}

// App is the root Bubble Tea model.
type App struct {
	src source.Source
	cfg config.Config

	// Data
	rng      model.TimeRange
	dash     pipeline.Dashboard
	loaded   bool
	loadTime time.Duration
	lastErr  error

	// Completed total of the previous load of the same range.
	prevCompleted float64
	hasPrev       bool
	zeroFilled    bool // dash stands in for a range that failed to load

	// Animated figures; shared by every copy of App.
	engine *anim.Engine
	clock  func() time.Time

	// Loading / refresh state
	loadSeq         int
	loading         bool
	autoRefresh     bool
	refreshInterval time.Duration
	lastRefresh     time.Time

	// UI state
	width     int
	height    int
	activeTab int
	showHelp  bool

	settings settingsState

	// First-run setup (huh form)
	setupForm *huh.Form
	setupVals *setupValues
	needSetup bool

	spinner spinner.Model
}

// Options configures NewApp.
type Options struct {
	Source    source.Source
	Config    config.Config
	Range     model.TimeRange
	NeedSetup bool
}

const (
	minTerminalWidth = 80
	compactWidth     = 110
	maxContentWidth  = 160
	minContentHeight = 5

	minRefreshInterval = 10 * time.Second
	ringRadius         = 4
)

const (
	tabOverview = iota
	tabCategories
	tabSettings
)

// NewApp creates a new TUI app model. The first range load is already
// in flight from Init's point of view.
func NewApp(opts Options) App {
	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = lipgloss.NewStyle().Foreground(theme.Active.Accent).Background(theme.Active.Surface)

	refreshInterval := time.Duration(opts.Config.TUI.RefreshIntervalSec) * time.Second
	if refreshInterval < minRefreshInterval {
		refreshInterval = 30 * time.Second
	}

	return App{
		src:             opts.Source,
		cfg:             opts.Config,
		rng:             opts.Range,
		engine:          anim.New(opts.Config.AnimationDuration(), opts.Config.Animation.FPS),
		clock:           time.Now,
		loadSeq:         1,
		loading:         true,
		autoRefresh:     opts.Config.TUI.AutoRefresh,
		refreshInterval: refreshInterval,
		needSetup:       opts.NeedSetup,
		setupVals:       &setupValues{},
		spinner:         sp,
	}
}

// Init implements tea.Model.
func (a App) Init() tea.Cmd {
	return tea.Batch(
		tea.EnableMouseCellMotion,
		loadRangeCmd(a.src, a.rng, a.loadSeq),
		a.spinner.Tick,
		tickCmd(),
	)
}

// Engine exposes the animation engine, mainly for tests.
func (a App) Engine() *anim.Engine { return a.engine }

// Range is the currently selected time range.
func (a App) Range() model.TimeRange { return a.rng }

// Dashboard is the most recent computed dashboard.
func (a App) Dashboard() pipeline.Dashboard { return a.dash }

// Update implements tea.Model.
func (a App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {

	case tea.WindowSizeMsg:
		a.width = msg.Width
		a.height = msg.Height
		if a.setupForm != nil {
			a.setupForm = a.setupForm.WithWidth(msg.Width).WithHeight(msg.Height)
		}
		return a, nil

	case tea.MouseMsg:
		if !a.loaded || a.showHelp || a.setupForm != nil {
			return a, nil
		}
		if msg.Action == tea.MouseActionPress && msg.Button == tea.MouseButtonLeft && msg.Y == 0 {
			if tab := a.tabAtX(msg.X); tab >= 0 {
				a.activeTab = tab
			}
		}
		return a, nil

	case tea.KeyMsg:
		return a.updateKey(msg)

	case RangeLoadedMsg:
		return a.applyLoad(msg)

	case anim.FrameMsg:
		return a, a.engine.Update(msg)

	case spinner.TickMsg:
		if !a.loaded || a.loading {
			var cmd tea.Cmd
			a.spinner, cmd = a.spinner.Update(msg)
			return a, cmd
		}
		return a, nil

	case tickMsg:
		cmds := []tea.Cmd{tickCmd()}
		if a.loaded && a.autoRefresh && !a.loading && a.clock().Sub(a.lastRefresh) >= a.refreshInterval {
			var cmd tea.Cmd
			a, cmd = a.reload()
			cmds = append(cmds, cmd)
		}
		return a, tea.Batch(cmds...)
	}

	// Forward unhandled messages to the setup form (cursor blinks, etc.)
	if a.setupForm != nil {
		return a.updateSetupForm(msg)
	}
	return a, nil
}

func (a App) updateKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	key := msg.String()

	if key == "ctrl+c" {
		return a.quit()
	}

	if !a.loaded {
		return a, nil
	}

	// First-run setup wizard intercepts all keys
	if a.setupForm != nil {
		return a.updateSetupForm(msg)
	}

	if key == "?" {
		a.showHelp = !a.showHelp
		return a, nil
	}
	if a.showHelp {
		a.showHelp = false
		return a, nil
	}

	if a.activeTab == tabSettings {
		if m, cmd, handled := a.updateSettingsKey(msg); handled {
			return m, cmd
		}
	}

	switch key {
	case "q":
		return a.quit()
	case "1", "2", "3", "4":
		idx := int(key[0] - '1')
		return a.selectRange(model.TimeRanges[idx])
	case "[":
		return a.selectRange(a.rng.Prev())
	case "]":
		return a.selectRange(a.rng.Next())
	case "r":
		if !a.loading {
			return a.reload()
		}
		return a, nil
	case "R":
		a.autoRefresh = !a.autoRefresh
		// Persist to config (best-effort, ignore errors)
		a.cfg.TUI.AutoRefresh = a.autoRefresh
		_ = config.Save(a.cfg)
		return a, nil
	case "left":
		a.activeTab = (a.activeTab - 1 + len(components.Tabs)) % len(components.Tabs)
		return a, nil
	case "right":
		a.activeTab = (a.activeTab + 1) % len(components.Tabs)
		return a, nil
	}

	if len(msg.Runes) == 1 {
		if idx := components.TabIdxByKey(msg.Runes[0]); idx >= 0 {
			a.activeTab = idx
		}
	}
	return a, nil
}

// quit tears down the animation engine before leaving so no frame fires
// into a dead program.
func (a App) quit() (tea.Model, tea.Cmd) {
	a.engine.Stop()
	if a.src != nil {
		_ = a.src.Close()
	}
	return a, tea.Quit
}

// selectRange switches the active range. The dashboard for the new range
// replaces the old one wholesale once its load resolves.
func (a App) selectRange(r model.TimeRange) (tea.Model, tea.Cmd) {
	if r == a.rng {
		return a, nil
	}
	a.rng = r
	return a.reload()
}

func (a App) reload() (App, tea.Cmd) {
	a.loadSeq++
	a.loading = true
	return a, tea.Batch(loadRangeCmd(a.src, a.rng, a.loadSeq), a.spinner.Tick)
}

func (a App) applyLoad(msg RangeLoadedMsg) (tea.Model, tea.Cmd) {
	// A newer request superseded this one.
	if msg.Seq != a.loadSeq || msg.Range != a.rng {
		return a, nil
	}

	a.loading = false
	a.loaded = true
	a.loadTime = msg.LoadTime
	a.lastRefresh = a.clock()

	var cmds []tea.Cmd
	if msg.Err != nil {
		a.lastErr = msg.Err
		// Figures from another range never stand in for the selected one.
		if len(a.dash.Rows) == 0 || a.dash.Aggregate.Range != msg.Range {
			a.hasPrev = false
			a.zeroFilled = true
			a.dash = pipeline.Compute(model.RangeRecords{Range: msg.Range})
			a.engine.SetAll(animTargets(a.dash), a.clock())
			cmds = append(cmds, a.engine.Schedule())
		}
	} else {
		a.lastErr = nil
		next := pipeline.Compute(msg.Records)
		a.hasPrev = !a.zeroFilled && len(a.dash.Rows) > 0 && a.dash.Aggregate.Range == next.Aggregate.Range
		a.zeroFilled = false
		a.prevCompleted = a.dash.Aggregate.Completed
		a.dash = next
		a.engine.SetAll(animTargets(a.dash), a.clock())
		cmds = append(cmds, a.engine.Schedule())
	}

	if a.needSetup && a.setupForm == nil {
		a.setupForm = newSetupForm(a.cfg, a.setupVals)
		if a.width > 0 {
			a.setupForm = a.setupForm.WithWidth(a.width).WithHeight(a.height)
		}
		cmds = append(cmds, a.setupForm.Init())
	}
	return a, tea.Batch(cmds...)
}

// animTargets lists every animated figure for a dashboard: the aggregate
// fields, both rates, and each category row.
func animTargets(d pipeline.Dashboard) map[anim.Field]float64 {
	agg := d.Aggregate
	targets := map[anim.Field]float64{
		anim.FieldTarget:       agg.Target,
		anim.FieldCompleted:    agg.Completed,
		anim.FieldForecast:     agg.ForecastCompletion,
		anim.FieldGap:          agg.Gap(),
		anim.FieldPipeline:     agg.Pipeline,
		anim.FieldAchievement:  d.Rates.Achievement,
		anim.FieldForecastRate: d.Rates.Forecast,
	}
	for _, r := range d.Rows {
		targets[rowField(r.Category, anim.FieldTarget)] = r.Target
		targets[rowField(r.Category, anim.FieldCompleted)] = r.Completed
		targets[rowField(r.Category, anim.FieldForecast)] = r.ForecastCompletion
		targets[rowField(r.Category, anim.FieldGap)] = r.Gap
		targets[rowField(r.Category, anim.FieldPipeline)] = r.Pipeline
		targets[rowField(r.Category, anim.FieldAchievement)] = r.Achievement
	}
	return targets
}

func rowField(c model.Category, f anim.Field) anim.Field {
	return anim.Field(c.String() + "." + string(f))
}

// animatedRow returns a row with its numbers replaced by displayed values.
func (a App) animatedRow(r model.Row) model.Row {
	v := func(f anim.Field) float64 { return a.engine.Value(rowField(r.Category, f)) }
	r.Target = v(anim.FieldTarget)
	r.Completed = v(anim.FieldCompleted)
	r.ForecastCompletion = v(anim.FieldForecast)
	r.Gap = v(anim.FieldGap)
	r.Pipeline = v(anim.FieldPipeline)
	r.Achievement = v(anim.FieldAchievement)
	return r
}

func (a App) updateSetupForm(msg tea.Msg) (tea.Model, tea.Cmd) {
	form, cmd := a.setupForm.Update(msg)
	if f, ok := form.(*huh.Form); ok {
		a.setupForm = f
	}

	switch a.setupForm.State {
	case huh.StateCompleted:
		a.needSetup = false
		a.setupForm = nil
		return a.applySetup()
	case huh.StateAborted:
		a.needSetup = false
		a.setupForm = nil
		return a, nil
	}
	return a, cmd
}

func (a App) contentWidth() int {
	cw := a.width
	if cw > maxContentWidth {
		cw = maxContentWidth
	}
	return cw
}

func (a App) isCompactLayout() bool {
	return a.contentWidth() < compactWidth
}

// View implements tea.Model.
func (a App) View() string {
	if a.width == 0 {
		return ""
	}
	if a.width < minTerminalWidth {
		return a.viewTooNarrow()
	}
	if !a.loaded {
		return a.viewLoading()
	}
	if a.setupForm != nil {
		return a.setupForm.View()
	}
	if a.showHelp {
		return a.viewHelp()
	}
	return a.viewMain()
}

func (a App) viewTooNarrow() string {
	h := a.height
	if h < 5 {
		h = 5
	}

	msg := fmt.Sprintf(
		"\n  Terminal too narrow (%d cols)\n\n  attain needs at least %d columns.\n",
		a.width,
		minTerminalWidth,
	)
	return padHeight(truncateHeight(msg, h), h)
}

func (a App) viewLoading() string {
	t := theme.Active

	cardStyle := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(t.BorderAccent).
		Background(t.Surface).
		Padding(2, 4)

	logoStyle := lipgloss.NewStyle().Foreground(t.AccentBright).Background(t.Surface).Bold(true)
	subtitleStyle := lipgloss.NewStyle().Foreground(t.TextMuted).Background(t.Surface)

	var b strings.Builder
	b.WriteString(logoStyle.Render("◎ attain"))
	b.WriteString(subtitleStyle.Render(" · Target Achievement"))
	b.WriteString("\n\n")
	b.WriteString(a.spinner.View())
	b.WriteString(subtitleStyle.Render(fmt.Sprintf(" Loading %s figures...", strings.ToLower(a.rng.Label()))))

	return lipgloss.Place(a.width, a.height, lipgloss.Center, lipgloss.Center, cardStyle.Render(b.String()),
		lipgloss.WithWhitespaceBackground(t.Background))
}

func (a App) viewHelp() string {
	t := theme.Active

	cardStyle := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(t.BorderAccent).
		Background(t.Surface).
		Padding(1, 3)

	titleStyle := lipgloss.NewStyle().Foreground(t.AccentBright).Background(t.Surface).Bold(true)
	sectionStyle := lipgloss.NewStyle().Foreground(t.Accent).Background(t.Surface).Bold(true)
	keyStyle := lipgloss.NewStyle().Foreground(t.Cyan).Background(t.Surface).Bold(true)
	descStyle := lipgloss.NewStyle().Foreground(t.TextMuted).Background(t.Surface)
	dimStyle := lipgloss.NewStyle().Foreground(t.TextDim).Background(t.Surface)

	sections := []struct {
		title    string
		bindings []struct{ key, desc string }
	}{
		{"Navigation", []struct{ key, desc string }{
			{"o c x", "Jump to tab"},
			{"← →", "Previous / Next tab"},
			{"1 2 3 4", "Week / Month / Quarter / Year"},
			{"[ ]", "Previous / Next range"},
		}},
		{"Actions", []struct{ key, desc string }{
			{"r", "Refresh data"},
			{"R", "Toggle auto-refresh"},
			{"Enter", "Change setting"},
			{"?", "Toggle help"},
			{"q", "Quit"},
		}},
	}

	var b strings.Builder
	b.WriteString(titleStyle.Render("◎ Keyboard Shortcuts"))
	b.WriteString("\n")
	for _, sec := range sections {
		b.WriteString("\n")
		b.WriteString(sectionStyle.Render(sec.title))
		b.WriteString("\n")
		for _, bind := range sec.bindings {
			fmt.Fprintf(&b, "  %s  %s\n",
				keyStyle.Render(fmt.Sprintf("%-10s", bind.key)),
				descStyle.Render(bind.desc))
		}
	}
	b.WriteString("\n")
	b.WriteString(dimStyle.Render("Press any key to close"))

	return lipgloss.Place(a.width, a.height, lipgloss.Center, lipgloss.Center, cardStyle.Render(b.String()),
		lipgloss.WithWhitespaceBackground(t.Background))
}

func (a App) viewMain() string {
	t := theme.Active
	w := a.width
	cw := a.contentWidth()
	h := a.height

	// 1. Header: tab bar + range selector
	pill := lipgloss.NewStyle().Foreground(t.TextDim).Background(t.Surface)
	active := lipgloss.NewStyle().Foreground(t.Accent).Background(t.Surface).Bold(true)

	var rangeRow strings.Builder
	rangeRow.WriteString(pill.Render(" "))
	for i, r := range model.TimeRanges {
		label := fmt.Sprintf("%d %s", i+1, r.Label())
		if r == a.rng {
			rangeRow.WriteString(active.Render("▸" + label))
		} else {
			rangeRow.WriteString(pill.Render(" " + label))
		}
		rangeRow.WriteString(pill.Render("  "))
	}

	header := components.RenderTabBar(a.activeTab, w) + "\n" +
		lipgloss.NewStyle().Background(t.Surface).Width(w).Render(rangeRow.String())

	// 2. Status bar
	age := ""
	if !a.lastRefresh.IsZero() {
		age = cli.FormatAge(a.clock().Sub(a.lastRefresh))
	}
	srcName := ""
	if a.src != nil {
		srcName = a.src.Name()
	}
	statusBar := components.RenderStatusBar(w, components.Status{
		Range:       a.rng.Label(),
		Source:      srcName,
		DataAge:     age,
		Refreshing:  a.loading,
		AutoRefresh: a.autoRefresh,
		Err:         a.lastErr,
	})

	// 3. Content zone height
	contentH := h - lipgloss.Height(header) - lipgloss.Height(statusBar)
	if contentH < minContentHeight {
		contentH = minContentHeight
	}

	// 4. Tab content
	var content string
	switch a.activeTab {
	case tabOverview:
		content = a.renderOverviewTab(cw)
	case tabCategories:
		content = a.renderCategoriesTab(cw)
	case tabSettings:
		content = a.renderSettingsTab(cw)
	}

	content = padHeight(truncateHeight(content, contentH), contentH)
	content = fillLinesWithBackground(content, cw, t.Background)
	content = lipgloss.Place(w, contentH, lipgloss.Center, lipgloss.Top, content,
		lipgloss.WithWhitespaceBackground(t.Background))

	output := lipgloss.JoinVertical(lipgloss.Left, header, content, statusBar)
	return lipgloss.Place(w, h, lipgloss.Left, lipgloss.Top, output,
		lipgloss.WithWhitespaceBackground(t.Background))
}

// ─── Helpers ────────────────────────────────────────────────────

type tickMsg struct{}

func tickCmd() tea.Cmd {
	return tea.Tick(time.Second, func(time.Time) tea.Msg {
		return tickMsg{}
	})
}

// loadRangeCmd fetches one range off the update loop.
func loadRangeCmd(src source.Source, r model.TimeRange, seq int) tea.Cmd {
	return func() tea.Msg {
		start := time.Now()
		if src == nil {
			return RangeLoadedMsg{Range: r, Seq: seq, Err: errors.New("no data source")}
		}
		ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()

		recs, err := src.MetricsForRange(ctx, r)
		return RangeLoadedMsg{
			Range:    r,
			Seq:      seq,
			Records:  recs,
			Err:      err,
			LoadTime: time.Since(start),
		}
	}
}

func truncateHeight(s string, limit int) string {
	lines := strings.Split(s, "\n")
	if len(lines) <= limit {
		return s
	}
	return strings.Join(lines[:limit], "\n")
}

func padHeight(s string, h int) string {
	lines := strings.Split(s, "\n")
	if len(lines) >= h {
		return s
	}
	return s + strings.Repeat("\n", h-len(lines))
}

// fillLinesWithBackground pads each line to width w with background color.
func fillLinesWithBackground(s string, w int, bg lipgloss.Color) string {
	lines := strings.Split(s, "\n")

	var result strings.Builder
	for i, line := range lines {
		result.WriteString(lipgloss.PlaceHorizontal(w, lipgloss.Left, line,
			lipgloss.WithWhitespaceBackground(bg)))
		if i < len(lines)-1 {
			result.WriteString("\n")
		}
	}
	return result.String()
}

// tabAtX returns the tab index at the given X coordinate, or -1 if none.
// Hitboxes are derived from the same width rules used by RenderTabBar.
func (a App) tabAtX(x int) int {
	pos := 0
	for i, tab := range components.Tabs {
		tabW := components.TabVisualWidth(tab, i == a.activeTab)
		if x >= pos && x < pos+tabW {
			return i
		}
		pos += tabW + 1 // one-column separator
	}
	return -1
}
