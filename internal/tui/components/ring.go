package components

import (
	"math"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/theirongolddev/attain/internal/cli"
	"github.com/theirongolddev/attain/internal/pipeline"
	"github.com/theirongolddev/attain/internal/tui/theme"
)

// Terminal cells are roughly twice as tall as they are wide.
const cellAspect = 2.0

// ringCell classifies one position of the ring grid.
type ringCell int

const (
	cellBlank ringCell = iota
	cellTrack
	cellFilled
)

// ringGrid lays out a circle of the given radius (in rows) and marks the
// cells swept clockwise from twelve o'clock up to sweep percent.
func ringGrid(radius int, sweep float64) [][]ringCell {
	if radius < 2 {
		radius = 2
	}
	sweep = pipeline.ClampRate(sweep)

	rows := 2*radius + 1
	cols := int(math.Round(float64(2*radius)*cellAspect)) + 1
	cy := float64(radius)
	cx := float64(cols-1) / 2

	grid := make([][]ringCell, rows)
	for y := range grid {
		grid[y] = make([]ringCell, cols)
		for x := range grid[y] {
			dx := (float64(x) - cx) / cellAspect
			dy := float64(y) - cy
			dist := math.Hypot(dx, dy)
			if math.Abs(dist-float64(radius)) > 0.5 {
				continue
			}

			// Angle measured clockwise from the top, in [0, 1).
			angle := math.Atan2(dx, -dy) / (2 * math.Pi)
			if angle < 0 {
				angle++
			}

			if sweep >= 100 || (sweep > 0 && angle*100 < sweep) {
				grid[y][x] = cellFilled
			} else {
				grid[y][x] = cellTrack
			}
		}
	}
	return grid
}

// Ring renders a circular progress gauge. The arc sweep uses the rate
// clamped to [0, 100]; the centre label shows rate unclamped.
func Ring(rate float64, caption string, color lipgloss.Color, radius int) string {
	t := theme.Active
	grid := ringGrid(radius, rate)

	filled := lipgloss.NewStyle().Foreground(color).Background(t.Surface)
	track := lipgloss.NewStyle().Foreground(t.RingTrack).Background(t.Surface)
	blank := lipgloss.NewStyle().Background(t.Surface)
	labelStyle := lipgloss.NewStyle().Foreground(color).Background(t.Surface).Bold(true)
	captionStyle := lipgloss.NewStyle().Foreground(t.TextMuted).Background(t.Surface)

	mid := len(grid) / 2
	label := cli.FormatRate(rate)

	var b strings.Builder
	for y, row := range grid {
		if y > 0 {
			b.WriteString("\n")
		}
		centre := ""
		var centreStyle lipgloss.Style
		switch {
		case y == mid:
			centre, centreStyle = label, labelStyle
		case y == mid+1 && caption != "":
			centre, centreStyle = caption, captionStyle
		}

		start, end := -1, -1
		if centre != "" {
			w := lipgloss.Width(centre)
			inner := innerSpan(row)
			if w <= inner[1]-inner[0] {
				start = inner[0] + (inner[1]-inner[0]-w)/2
				end = start + w
			}
		}

		for x := 0; x < len(row); x++ {
			if x == start {
				b.WriteString(centreStyle.Render(centre))
				x = end - 1
				continue
			}
			switch row[x] {
			case cellFilled:
				b.WriteString(filled.Render("●"))
			case cellTrack:
				b.WriteString(track.Render("·"))
			default:
				b.WriteString(blank.Render(" "))
			}
		}
	}
	return b.String()
}

// innerSpan returns the blank run between the left and right arcs of a row.
func innerSpan(row []ringCell) [2]int {
	left, right := 0, len(row)
	for i := len(row) / 2; i >= 0; i-- {
		if row[i] != cellBlank {
			left = i + 1
			break
		}
	}
	for i := len(row) / 2; i < len(row); i++ {
		if row[i] != cellBlank {
			right = i
			break
		}
	}
	return [2]int{left, right}
}
