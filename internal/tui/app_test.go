package tui

import (
	"context"
	"errors"
	"path/filepath"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/theirongolddev/attain/internal/anim"
	"github.com/theirongolddev/attain/internal/config"
	"github.com/theirongolddev/attain/internal/model"
	"github.com/theirongolddev/attain/internal/source"
	"github.com/theirongolddev/attain/internal/tui/theme"
)

var testNow = time.Date(2025, 6, 1, 9, 0, 0, 0, time.UTC)

func key(s string) tea.KeyMsg {
	switch s {
	case "enter":
		return tea.KeyMsg{Type: tea.KeyEnter}
	case "esc":
		return tea.KeyMsg{Type: tea.KeyEsc}
	}
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func demoRecords(t *testing.T, r model.TimeRange) model.RangeRecords {
	t.Helper()
	recs, err := source.Demo{}.MetricsForRange(context.Background(), r)
	if err != nil {
		t.Fatalf("demo %s: %v", r, err)
	}
	return recs
}

// loadedApp returns an app that has applied its first month load.
func loadedApp(t *testing.T) App {
	t.Helper()
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())

	a := NewApp(Options{Source: source.Demo{}, Config: config.DefaultConfig(), Range: model.Month})
	a.clock = func() time.Time { return testNow }

	m, _ := a.Update(RangeLoadedMsg{Range: model.Month, Seq: 1, Records: demoRecords(t, model.Month)})
	a = m.(App)
	if !a.loaded {
		t.Fatal("app not loaded after first RangeLoadedMsg")
	}
	return a
}

func update(t *testing.T, a App, msg tea.Msg) (App, tea.Cmd) {
	t.Helper()
	m, cmd := a.Update(msg)
	return m.(App), cmd
}

func TestApp_FirstLoadAnimatesFromZero(t *testing.T) {
	a := loadedApp(t)

	if got := a.Dashboard().Aggregate.Target; got != 1428 {
		t.Fatalf("target = %v, want 1428", got)
	}
	if v := a.Engine().Value(anim.FieldTarget); v != 0 {
		t.Errorf("displayed target before any frame = %v, want 0", v)
	}

	a.Engine().Tick(testNow.Add(a.Engine().Duration()))
	if v := a.Engine().Value(anim.FieldTarget); v != 1428 {
		t.Errorf("displayed target after animation = %v, want 1428", v)
	}
	row := a.animatedRow(a.Dashboard().Rows[0])
	if row.Target != 714 {
		t.Errorf("animated new buyout target = %v, want 714", row.Target)
	}
}

func TestApp_StaleLoadDiscarded(t *testing.T) {
	a := loadedApp(t)

	a, cmd := update(t, a, key("1"))
	if cmd == nil {
		t.Fatal("range key returned no load command")
	}
	if a.Range() != model.Week || a.loadSeq != 2 || !a.loading {
		t.Fatalf("after '1': range=%v seq=%d loading=%v", a.Range(), a.loadSeq, a.loading)
	}

	// The superseded month request resolves late.
	a, _ = update(t, a, RangeLoadedMsg{Range: model.Month, Seq: 1, Records: model.RangeRecords{Range: model.Month}})
	if got := a.Dashboard().Aggregate.Target; got != 1428 {
		t.Errorf("stale load replaced dashboard: target = %v", got)
	}
	if !a.loading {
		t.Error("stale load cleared the loading flag")
	}

	a, _ = update(t, a, RangeLoadedMsg{Range: model.Week, Seq: 2, Records: demoRecords(t, model.Week)})
	if got := a.Dashboard().Aggregate.Target; got != 357 {
		t.Errorf("week target = %v, want 357", got)
	}
	if a.loading {
		t.Error("still loading after the current request resolved")
	}
}

func TestApp_RangeKeys(t *testing.T) {
	tests := []struct {
		key  string
		want model.TimeRange
	}{
		{"1", model.Week},
		{"3", model.Quarter},
		{"4", model.Year},
		{"]", model.Quarter},
		{"[", model.Week},
	}
	for _, tt := range tests {
		a := loadedApp(t)
		a, _ = update(t, a, key(tt.key))
		if a.Range() != tt.want {
			t.Errorf("key %q: range = %v, want %v", tt.key, a.Range(), tt.want)
		}
	}

	// Re-selecting the current range does not start a load.
	a := loadedApp(t)
	a, cmd := update(t, a, key("2"))
	if cmd != nil || a.loadSeq != 1 {
		t.Errorf("selecting current range: cmd=%v seq=%d", cmd != nil, a.loadSeq)
	}
}

func TestApp_LoadErrorKeepsDashboard(t *testing.T) {
	a := loadedApp(t)

	a, _ = update(t, a, key("r"))
	a, _ = update(t, a, RangeLoadedMsg{Range: model.Month, Seq: 2, Err: errors.New("connection refused")})

	if a.lastErr == nil {
		t.Fatal("load error not recorded")
	}
	if got := a.Dashboard().Aggregate.Target; got != 1428 {
		t.Errorf("failed load replaced dashboard: target = %v", got)
	}

	a, _ = update(t, a, key("r"))
	a, _ = update(t, a, RangeLoadedMsg{Range: model.Month, Seq: 3, Records: demoRecords(t, model.Month)})
	if a.lastErr != nil {
		t.Errorf("successful load left lastErr = %v", a.lastErr)
	}
}

func TestApp_FailedRangeSwitchShowsZeros(t *testing.T) {
	a := loadedApp(t)

	a, _ = update(t, a, key("3"))
	a, _ = update(t, a, RangeLoadedMsg{Range: model.Quarter, Seq: 2, Err: errors.New("connection refused")})

	if a.lastErr == nil {
		t.Fatal("load error not recorded")
	}
	d := a.Dashboard()
	if d.Aggregate.Range != model.Quarter {
		t.Errorf("dashboard range = %v, want quarter", d.Aggregate.Range)
	}
	if d.Aggregate.Target != 0 || d.Aggregate.Completed != 0 {
		t.Errorf("month figures shown under quarter: %+v", d.Aggregate)
	}
	if len(d.Rows) != len(model.Categories) {
		t.Errorf("rows = %d, want zero-filled %d", len(d.Rows), len(model.Categories))
	}

	a.Engine().Tick(testNow.Add(a.Engine().Duration()))
	if v := a.Engine().Value(anim.FieldTarget); v != 0 {
		t.Errorf("displayed target = %v, want 0", v)
	}
	if a.hasPrev {
		t.Error("completed delta kept across ranges")
	}

	// Recovery is a fresh first load, not a delta against the zeros.
	a, _ = update(t, a, key("r"))
	a, _ = update(t, a, RangeLoadedMsg{Range: model.Quarter, Seq: 3, Records: demoRecords(t, model.Quarter)})
	if a.lastErr != nil || a.Dashboard().Aggregate.Target == 0 {
		t.Fatalf("quarter did not recover: err=%v target=%v", a.lastErr, a.Dashboard().Aggregate.Target)
	}
	if a.hasPrev {
		t.Error("delta computed against a zero-filled dashboard")
	}
}

func TestApp_QuitStopsEngine(t *testing.T) {
	a := loadedApp(t)
	if !a.Engine().Animating() {
		t.Fatal("engine idle right after first load")
	}

	a, cmd := update(t, a, key("q"))
	if cmd == nil {
		t.Fatal("q returned no command")
	}
	if _, ok := cmd().(tea.QuitMsg); !ok {
		t.Error("q did not quit")
	}
	if !a.Engine().Stopped() {
		t.Error("engine still running after quit")
	}

	_, cmd = update(t, a, anim.FrameMsg{ID: a.Engine().ID(), Time: testNow.Add(time.Second)})
	if cmd != nil {
		t.Error("frame after quit scheduled more work")
	}
}

func TestApp_AutoRefreshOnTick(t *testing.T) {
	a := loadedApp(t)

	a, _ = update(t, a, tickMsg{})
	if a.loadSeq != 1 {
		t.Fatalf("tick before interval reloaded (seq=%d)", a.loadSeq)
	}

	a.clock = func() time.Time { return testNow.Add(31 * time.Second) }
	a, _ = update(t, a, tickMsg{})
	if a.loadSeq != 2 || !a.loading {
		t.Errorf("tick after interval: seq=%d loading=%v, want reload", a.loadSeq, a.loading)
	}

	// Toggling auto-refresh off stops further reloads.
	a, _ = update(t, a, RangeLoadedMsg{Range: model.Month, Seq: 2, Records: demoRecords(t, model.Month)})
	a, _ = update(t, a, key("R"))
	a.clock = func() time.Time { return testNow.Add(2 * time.Minute) }
	a, _ = update(t, a, tickMsg{})
	if a.loadSeq != 2 {
		t.Errorf("tick with auto-refresh off reloaded (seq=%d)", a.loadSeq)
	}
}

func TestApp_TabKeys(t *testing.T) {
	a := loadedApp(t)

	a, _ = update(t, a, key("c"))
	if a.activeTab != tabCategories {
		t.Errorf("'c' -> tab %d, want categories", a.activeTab)
	}
	a, _ = update(t, a, key("x"))
	if a.activeTab != tabSettings {
		t.Errorf("'x' -> tab %d, want settings", a.activeTab)
	}
	a, _ = update(t, a, tea.KeyMsg{Type: tea.KeyRight})
	if a.activeTab != tabOverview {
		t.Errorf("right from settings -> tab %d, want overview", a.activeTab)
	}
}

func TestApp_SettingsAnimationLength(t *testing.T) {
	a := loadedApp(t)
	a.activeTab = tabSettings
	a.settings.cursor = settingsFieldAnimation

	a, _ = update(t, a, key("enter"))
	if !a.settings.editing {
		t.Fatal("enter did not open the editor")
	}

	// Keys go to the input while editing, including q.
	a, _ = update(t, a, key("q"))
	if a.Engine().Stopped() {
		t.Fatal("q quit while editing a setting")
	}

	a.settings.input.SetValue("250")
	a, _ = update(t, a, key("enter"))
	if a.settings.editing {
		t.Error("still editing after enter")
	}
	if a.settings.saveErr != nil {
		t.Fatalf("save failed: %v", a.settings.saveErr)
	}
	if a.Engine().Duration() != 250*time.Millisecond {
		t.Errorf("engine duration = %v, want 250ms", a.Engine().Duration())
	}

	cfg, err := config.Load()
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Animation.DurationMS != 250 {
		t.Errorf("saved duration_ms = %d, want 250", cfg.Animation.DurationMS)
	}
}

func TestApp_SettingsRejectsBadInterval(t *testing.T) {
	a := loadedApp(t)
	a.activeTab = tabSettings
	a.settings.cursor = settingsFieldRefreshInterval

	a, _ = update(t, a, key("enter"))
	a.settings.input.SetValue("5")
	a, _ = update(t, a, key("enter"))

	if a.settings.saveErr == nil {
		t.Error("interval below minimum accepted")
	}
	if a.refreshInterval != 30*time.Second {
		t.Errorf("refresh interval = %v, want unchanged 30s", a.refreshInterval)
	}
}

// settle feeds msg to the app and keeps feeding back whatever the returned
// commands produce within a short window. Timers that would outlive the
// window (cursor blink, spinner, refresh tick) are dropped.
func settle(t *testing.T, a App, msg tea.Msg) App {
	t.Helper()
	queue := []tea.Msg{msg}
	for steps := 0; len(queue) > 0 && steps < 200; steps++ {
		next := queue[0]
		queue = queue[1:]
		if batch, ok := next.(tea.BatchMsg); ok {
			for _, c := range batch {
				queue = append(queue, runCmd(c)...)
			}
			continue
		}
		var cmd tea.Cmd
		a, cmd = update(t, a, next)
		queue = append(queue, runCmd(cmd)...)
	}
	return a
}

func runCmd(cmd tea.Cmd) []tea.Msg {
	if cmd == nil {
		return nil
	}
	done := make(chan tea.Msg, 1)
	go func() { done <- cmd() }()
	select {
	case msg := <-done:
		if msg == nil {
			return nil
		}
		if _, ok := msg.(tea.QuitMsg); ok {
			return nil
		}
		return []tea.Msg{msg}
	case <-time.After(50 * time.Millisecond):
		return nil
	}
}

func TestApp_SetupFormKeepsAnswers(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	defer theme.SetActive(theme.FlexokiDark.Name)
	dataFile := filepath.Join(t.TempDir(), "targets.toml")

	cfg := config.DefaultConfig()
	cfg.Animation.DurationMS = 0
	a := NewApp(Options{Source: source.Demo{}, Config: cfg, Range: model.Month, NeedSetup: true})
	a.clock = func() time.Time { return testNow }
	a = settle(t, a, RangeLoadedMsg{Range: model.Month, Seq: 1, Records: demoRecords(t, model.Month)})
	if a.setupForm == nil {
		t.Fatal("setup form not shown on first run")
	}

	// Source select: demo -> file.
	a = settle(t, a, tea.KeyMsg{Type: tea.KeyDown})
	a = settle(t, a, key("enter"))
	a = settle(t, a, tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(dataFile)})
	for i := 0; i < 6 && a.setupForm != nil; i++ {
		a = settle(t, a, key("enter"))
	}
	if a.setupForm != nil {
		t.Fatal("setup form never completed")
	}

	if a.cfg.General.Source != "file" {
		t.Errorf("source = %q, want file", a.cfg.General.Source)
	}
	if a.cfg.General.DataFile != dataFile {
		t.Errorf("data file = %q, want %q", a.cfg.General.DataFile, dataFile)
	}
	if got := a.src.Name(); got != "file:"+dataFile {
		t.Errorf("active source = %q, want the chosen file", got)
	}
	if a.loadSeq < 2 {
		t.Errorf("setup did not reload (seq=%d)", a.loadSeq)
	}

	saved, err := config.Load()
	if err != nil {
		t.Fatalf("load saved config: %v", err)
	}
	if saved.General.Source != "file" || saved.General.DataFile != dataFile {
		t.Errorf("saved general = %+v", saved.General)
	}
}

func TestApp_ApplySetup(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	defer theme.SetActive(theme.FlexokiDark.Name)

	a := NewApp(Options{Source: source.Demo{}, Config: config.DefaultConfig(), Range: model.Month, NeedSetup: true})
	a.clock = func() time.Time { return testNow }
	a, _ = update(t, a, RangeLoadedMsg{Range: model.Month, Seq: 1, Records: demoRecords(t, model.Month)})

	*a.setupVals = setupValues{source: "demo", rng: "year", theme: "tokyo-night"}
	m, cmd := a.applySetup()
	a = m.(App)

	if cmd == nil || a.loadSeq != 2 {
		t.Errorf("applySetup did not reload (seq=%d)", a.loadSeq)
	}
	if a.Range() != model.Year {
		t.Errorf("range = %v, want year", a.Range())
	}
	if theme.Active.Name != "tokyo-night" {
		t.Errorf("active theme = %q", theme.Active.Name)
	}
	if !config.Exists() {
		t.Error("setup did not write a config file")
	}
}

func TestApp_ViewTabs(t *testing.T) {
	a := loadedApp(t)
	a, _ = update(t, a, tea.WindowSizeMsg{Width: 120, Height: 40})
	a.Engine().Tick(testNow.Add(time.Second))

	tests := []struct {
		tab  int
		want []string
	}{
		{tabOverview, []string{"Achievement Rate", "Forecast Completion", "By Category"}},
		{tabCategories, []string{"New Buyout", "Total"}},
		{tabSettings, []string{"Animation", "Config file"}},
	}
	for _, tt := range tests {
		a.activeTab = tt.tab
		view := a.View()
		for _, w := range tt.want {
			if !strings.Contains(view, w) {
				t.Errorf("tab %d view missing %q", tt.tab, w)
			}
		}
	}

	a.width = 60
	if !strings.Contains(a.View(), "too narrow") {
		t.Error("narrow terminal not reported")
	}
}

func TestApp_CompletedDeltaTracksSameRange(t *testing.T) {
	a := loadedApp(t)
	if a.hasPrev {
		t.Fatal("first load has a previous figure")
	}

	recs := demoRecords(t, model.Month)
	recs.PerCategory[0].Completed += 60

	a, _ = update(t, a, key("r"))
	a, _ = update(t, a, RangeLoadedMsg{Range: model.Month, Seq: 2, Records: recs})
	if !a.hasPrev || a.prevCompleted != 677 {
		t.Errorf("hasPrev=%v prev=%v, want true 677", a.hasPrev, a.prevCompleted)
	}

	a, _ = update(t, a, key("1"))
	a, _ = update(t, a, RangeLoadedMsg{Range: model.Week, Seq: 3, Records: demoRecords(t, model.Week)})
	if a.hasPrev {
		t.Error("switching range kept a previous figure from another range")
	}
}
