package components

import (
	"strings"
	"testing"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"

	"github.com/theirongolddev/attain/internal/model"
	"github.com/theirongolddev/attain/internal/tui/theme"
)

func init() {
	// Force TrueColor output so ANSI codes are generated in tests
	lipgloss.SetColorProfile(termenv.TrueColor)
}

func TestLayoutRow(t *testing.T) {
	got := LayoutRow(10, 3)
	want := []int{4, 3, 3}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("LayoutRow(10,3) = %v, want %v", got, want)
		}
	}
	if LayoutRow(10, 0) != nil {
		t.Error("LayoutRow with n=0 should be nil")
	}
}

func TestCardRowBackgroundFill(t *testing.T) {
	theme.SetActive("flexoki-dark")

	shortCard := ContentCard("Short", "Content", 22)
	tallCard := ContentCard("Tall", "Line 1\nLine 2\nLine 3\nLine 4\nLine 5", 22)

	shortLines := lipgloss.Height(shortCard)
	tallLines := lipgloss.Height(tallCard)
	if shortLines >= tallLines {
		t.Fatal("test setup: short card should be shorter than tall card")
	}

	joined := CardRow([]string{tallCard, shortCard})
	lines := strings.Split(joined, "\n")
	if len(lines) != tallLines {
		t.Fatalf("joined height = %d, want %d", len(lines), tallLines)
	}

	wantW := lipgloss.Width(tallCard) + lipgloss.Width(shortCard)
	for i, line := range lines {
		if w := lipgloss.Width(line); w != wantW {
			t.Errorf("line %d width = %d, want %d", i, w, wantW)
		}
		if i >= shortLines && !strings.Contains(line, "\x1b[") {
			t.Errorf("padding line %d has no styling: %q", i, line)
		}
	}
}

func TestMetricCardRow_SumsToWidth(t *testing.T) {
	row := MetricCardRow([]Metric{
		{Label: "Target", Value: "1,000"},
		{Label: "Completed", Value: "940", Delta: "94.0%"},
		{Label: "Forecast", Value: "1,000", Color: theme.Active.Green},
	}, 91)

	for i, line := range strings.Split(row, "\n") {
		if w := lipgloss.Width(line); w != 91 {
			t.Errorf("line %d width = %d, want 91", i, w)
		}
	}
}

func countCells(grid [][]ringCell) (filled, track int) {
	for _, row := range grid {
		for _, c := range row {
			switch c {
			case cellFilled:
				filled++
			case cellTrack:
				track++
			}
		}
	}
	return filled, track
}

func TestRingGrid_Sweep(t *testing.T) {
	filled, track := countCells(ringGrid(4, 0))
	if filled != 0 || track == 0 {
		t.Errorf("0%%: filled=%d track=%d", filled, track)
	}
	total := track

	filled, track = countCells(ringGrid(4, 100))
	if filled != total || track != 0 {
		t.Errorf("100%%: filled=%d track=%d, want all %d filled", filled, track, total)
	}

	over, _ := countCells(ringGrid(4, 137))
	if over != total {
		t.Errorf("137%% should sweep the full ring like 100%%: filled=%d", over)
	}

	half, _ := countCells(ringGrid(4, 50))
	if half*10 < total*4 || half*10 > total*6 {
		t.Errorf("50%%: filled=%d of %d, want about half", half, total)
	}

	neg, _ := countCells(ringGrid(4, -20))
	if neg != 0 {
		t.Errorf("negative rate filled %d cells", neg)
	}
}

func TestRingGrid_ClockwiseFromTop(t *testing.T) {
	grid := ringGrid(4, 25)
	cx := (len(grid[0]) - 1) / 2
	for y, row := range grid {
		for x, c := range row {
			if c == cellFilled && (x < cx || y > len(grid)/2) {
				t.Fatalf("25%% sweep filled cell (%d,%d) outside the top-right quadrant", x, y)
			}
		}
	}
}

func TestRing_LabelShowsRawRate(t *testing.T) {
	out := Ring(137, "achieved", theme.Active.Green, 4)
	if !strings.Contains(out, "137.0%") {
		t.Errorf("ring label should show raw rate:\n%s", out)
	}
	if !strings.Contains(out, "achieved") {
		t.Error("ring caption missing")
	}

	lines := strings.Split(out, "\n")
	if len(lines) != 9 {
		t.Fatalf("radius 4 ring has %d lines, want 9", len(lines))
	}
	w := lipgloss.Width(lines[0])
	for i, l := range lines {
		if lipgloss.Width(l) != w {
			t.Errorf("line %d width %d, want %d", i, lipgloss.Width(l), w)
		}
	}
}

func TestRateBar(t *testing.T) {
	out := RateBar("Renewal", 75, 10, 20)
	if !strings.Contains(out, "75.0%") || !strings.Contains(out, "Renewal") {
		t.Errorf("rate bar = %q", out)
	}
	if got := lipgloss.Width(RateBar("Lease", 250, 10, 20)); got != lipgloss.Width(out) {
		t.Errorf("over-target bar width %d differs from %d", got, lipgloss.Width(out))
	}
}

func TestSeverityColor(t *testing.T) {
	theme.SetActive("tokyo-night")
	defer theme.SetActive("flexoki-dark")

	if SeverityColor(model.Good) != theme.TokyoNight.Good {
		t.Error("good should use the theme Good color")
	}
	if SeverityColor(model.Warning) != theme.TokyoNight.Warning {
		t.Error("warning should use the theme Warning color")
	}
	if SeverityColor(model.Critical) != theme.TokyoNight.Critical {
		t.Error("critical should use the theme Critical color")
	}
}

func TestCategoryTable(t *testing.T) {
	rows := []model.Row{
		{Category: model.NewBuyout, Target: 500, Completed: 480, ForecastCompletion: 480, Gap: 20, Achievement: 96, Severity: model.Good},
		{Category: model.NewLease, Target: 300, Completed: 310, ForecastCompletion: 310, Achievement: 103.3, Severity: model.Good},
		{Category: model.Renewal, Target: 200, Completed: 150, ForecastCompletion: 210, Pipeline: 60, Achievement: 75, Severity: model.Warning},
	}
	total := model.Row{Target: 1000, Completed: 940, ForecastCompletion: 1000, Pipeline: 60, Achievement: 94, Severity: model.Good}

	out := CategoryTable(rows, total, 90)
	for _, want := range []string{"Category", "Forecast", "Pipeline", "New Buyout", "New Lease", "Renewal", "Total", "1,000", "94.0%", "103.3%"} {
		if !strings.Contains(out, want) {
			t.Errorf("table missing %q", want)
		}
	}
	if strings.Index(out, "Renewal") > strings.Index(out, "Total") {
		t.Error("totals row should be last")
	}
}

func TestTabIdxByKey(t *testing.T) {
	if TabIdxByKey('o') != 0 || TabIdxByKey('c') != 1 || TabIdxByKey('x') != 2 {
		t.Error("tab shortcut mapping wrong")
	}
	if TabIdxByKey('z') != -1 {
		t.Error("unknown key should map to -1")
	}
}

func TestStatusBar_FitsWidth(t *testing.T) {
	out := RenderStatusBar(80, Status{Range: "Monthly", Source: "demo", DataAge: "5s ago", AutoRefresh: true})
	if w := lipgloss.Width(out); w != 80 {
		t.Errorf("status bar width = %d, want 80", w)
	}
	if !strings.Contains(out, "Monthly") {
		t.Error("status bar missing range")
	}
}
