package tui

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/theirongolddev/attain/internal/config"
	"github.com/theirongolddev/attain/internal/model"
	"github.com/theirongolddev/attain/internal/tui/components"
	"github.com/theirongolddev/attain/internal/tui/theme"
)

const (
	settingsFieldTheme = iota
	settingsFieldRange
	settingsFieldAnimation
	settingsFieldAutoRefresh
	settingsFieldRefreshInterval
	settingsFieldCount // sentinel
)

// settingsState tracks the settings tab state.
type settingsState struct {
	cursor  int
	editing bool
	input   textinput.Model
	saved   bool  // flash "saved" message briefly
	saveErr error // non-nil if last save failed
}

// updateSettingsKey handles keys on the settings tab. The bool reports
// whether the key was consumed.
func (a App) updateSettingsKey(msg tea.KeyMsg) (tea.Model, tea.Cmd, bool) {
	if a.settings.editing {
		m, cmd := a.updateSettingsInput(msg)
		return m, cmd, true
	}

	switch msg.String() {
	case "j", "down":
		a.settings.cursor = (a.settings.cursor + 1) % settingsFieldCount
		a.settings.saved = false
		return a, nil, true
	case "k", "up":
		a.settings.cursor = (a.settings.cursor - 1 + settingsFieldCount) % settingsFieldCount
		a.settings.saved = false
		return a, nil, true
	case "enter", " ":
		switch a.settings.cursor {
		case settingsFieldAnimation, settingsFieldRefreshInterval:
			m, cmd := a.settingsStartEdit()
			return m, cmd, true
		}
		a.settingsCycle()
		return a, nil, true
	}
	return a, nil, false
}

// settingsCycle steps enumerated settings to their next value and saves.
func (a *App) settingsCycle() {
	switch a.settings.cursor {
	case settingsFieldTheme:
		next := theme.Next(a.cfg.Appearance.Theme)
		a.cfg.Appearance.Theme = next.Name
		theme.SetActive(next.Name)
	case settingsFieldRange:
		r, err := model.ParseTimeRange(a.cfg.General.DefaultRange)
		if err != nil {
			r = model.Month
		}
		a.cfg.General.DefaultRange = r.Next().String()
	case settingsFieldAutoRefresh:
		a.autoRefresh = !a.autoRefresh
		a.cfg.TUI.AutoRefresh = a.autoRefresh
	}
	a.settingsPersist()
}

func (a App) settingsStartEdit() (tea.Model, tea.Cmd) {
	a.settings.editing = true
	a.settings.saved = false

	ti := textinput.New()
	ti.CharLimit = 6
	ti.Width = 12

	switch a.settings.cursor {
	case settingsFieldAnimation:
		ti.Placeholder = "500 (ms, 0 disables)"
		ti.SetValue(strconv.Itoa(a.cfg.Animation.DurationMS))
	case settingsFieldRefreshInterval:
		ti.Placeholder = "30 (seconds, minimum 10)"
		ti.SetValue(strconv.Itoa(int(a.refreshInterval.Seconds())))
	}

	ti.Focus()
	a.settings.input = ti
	return a, ti.Cursor.BlinkCmd()
}

func (a App) updateSettingsInput(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "enter":
		a.settingsApplyInput()
		a.settings.editing = false
		return a, nil
	case "esc":
		a.settings.editing = false
		return a, nil
	}

	var cmd tea.Cmd
	a.settings.input, cmd = a.settings.input.Update(msg)
	return a, cmd
}

// settingsApplyInput validates the edited number. Invalid input leaves the
// setting unchanged.
func (a *App) settingsApplyInput() {
	n, err := strconv.Atoi(strings.TrimSpace(a.settings.input.Value()))
	if err != nil {
		a.settings.saveErr = fmt.Errorf("%q is not a whole number", a.settings.input.Value())
		return
	}

	switch a.settings.cursor {
	case settingsFieldAnimation:
		if n < 0 {
			a.settings.saveErr = errors.New("animation length must not be negative")
			return
		}
		a.cfg.Animation.DurationMS = n
		a.engine.SetDuration(a.cfg.AnimationDuration())
	case settingsFieldRefreshInterval:
		if n < int(minRefreshInterval.Seconds()) {
			a.settings.saveErr = fmt.Errorf("refresh interval must be at least %s", minRefreshInterval)
			return
		}
		a.cfg.TUI.RefreshIntervalSec = n
		a.refreshInterval = time.Duration(n) * time.Second
	}
	a.settingsPersist()
}

func (a *App) settingsPersist() {
	a.settings.saveErr = config.Save(a.cfg)
	a.settings.saved = a.settings.saveErr == nil
}

func (a App) renderSettingsTab(cw int) string {
	t := theme.Active

	labelStyle := lipgloss.NewStyle().Foreground(t.TextMuted).Background(t.Surface)
	valueStyle := lipgloss.NewStyle().Foreground(t.TextPrimary).Background(t.Surface)
	selectedStyle := lipgloss.NewStyle().Foreground(t.TextPrimary).Background(t.SurfaceBright).Bold(true)
	selectedLabelStyle := lipgloss.NewStyle().Foreground(t.Accent).Background(t.SurfaceBright).Bold(true)
	accentStyle := lipgloss.NewStyle().Foreground(t.AccentBright).Background(t.Surface)
	greenStyle := lipgloss.NewStyle().Foreground(t.GreenBright).Background(t.Surface)
	markerStyle := lipgloss.NewStyle().Foreground(t.AccentBright).Background(t.SurfaceBright)

	rangeLabel := a.cfg.General.DefaultRange
	if r, err := model.ParseTimeRange(rangeLabel); err == nil {
		rangeLabel = r.Label()
	}
	animLabel := fmt.Sprintf("%dms", a.cfg.Animation.DurationMS)
	if a.cfg.Animation.DurationMS == 0 {
		animLabel = "off"
	}

	fields := []struct{ label, value string }{
		{"Theme", a.cfg.Appearance.Theme},
		{"Default Range", rangeLabel},
		{"Animation", animLabel},
		{"Auto Refresh", strconv.FormatBool(a.autoRefresh)},
		{"Refresh Interval", fmt.Sprintf("%ds", int(a.refreshInterval.Seconds()))},
	}

	innerW := components.CardInnerWidth(cw)
	var formBody strings.Builder
	for i, f := range fields {
		if a.settings.editing && i == a.settings.cursor {
			formBody.WriteString(markerStyle.Render("▸ "))
			formBody.WriteString(accentStyle.Render(fmt.Sprintf("%-18s ", f.label)))
			formBody.WriteString(a.settings.input.View())
			formBody.WriteString("\n")
			continue
		}

		if i == a.settings.cursor {
			marker := markerStyle.Render("▸ ")
			label := selectedLabelStyle.Render(fmt.Sprintf("%-18s ", f.label+":"))
			value := selectedStyle.Render(f.value)
			formBody.WriteString(marker + label + value)
			used := lipgloss.Width(marker) + lipgloss.Width(label) + lipgloss.Width(value)
			if pad := innerW - used; pad > 0 {
				formBody.WriteString(lipgloss.NewStyle().Background(t.SurfaceBright).Render(strings.Repeat(" ", pad)))
			}
		} else {
			formBody.WriteString(lipgloss.NewStyle().Background(t.Surface).Render("  "))
			formBody.WriteString(labelStyle.Render(fmt.Sprintf("%-18s ", f.label+":")))
			formBody.WriteString(valueStyle.Render(f.value))
		}
		formBody.WriteString("\n")
	}

	if a.settings.saveErr != nil {
		warnStyle := lipgloss.NewStyle().Foreground(t.Orange).Background(t.Surface)
		formBody.WriteString("\n")
		formBody.WriteString(warnStyle.Render(fmt.Sprintf("Not saved: %s", a.settings.saveErr)))
	} else if a.settings.saved {
		formBody.WriteString("\n")
		formBody.WriteString(greenStyle.Render("Saved!"))
	}

	formBody.WriteString("\n")
	formBody.WriteString(labelStyle.Render("[j/k] navigate  [Enter] change  [Esc] cancel"))

	srcName := "(none)"
	if a.src != nil {
		srcName = a.src.Name()
	}
	var infoBody strings.Builder
	infoBody.WriteString(labelStyle.Render("Data source:  ") + valueStyle.Render(srcName) + "\n")
	infoBody.WriteString(labelStyle.Render("Categories:   ") + valueStyle.Render(strconv.Itoa(len(a.dash.Rows))) + "\n")
	infoBody.WriteString(labelStyle.Render("Load time:    ") + valueStyle.Render(fmt.Sprintf("%dms", a.loadTime.Milliseconds())) + "\n")
	infoBody.WriteString(labelStyle.Render("Config file:  ") + valueStyle.Render(config.Path()))

	var b strings.Builder
	b.WriteString(components.ContentCard("Settings", formBody.String(), cw))
	b.WriteString("\n")
	b.WriteString(components.ContentCard("General", infoBody.String(), cw))
	return b.String()
}
