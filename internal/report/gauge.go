package report

import (
	"io"
	"math"
	"os"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"golang.org/x/term"

	"github.com/verte-zerg/attendo/internal/model"
)

const (
	minGaugeWidth       = 10
	maxGaugeWidth       = 40
	gaugeOverhead       = 12
	terminalWidthBackup = 80
	gaugeFilled         = "█"
	gaugeEmpty          = "░"
)

var (
	safeStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("#3FB950"))
	warningStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#C89A3A"))
	dangerStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#FF4D4F"))
	mutedStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#6E6E6E"))
)

// ZoneStyle returns the colour style for a compliance zone.
func ZoneStyle(zone model.Zone) lipgloss.Style {
	switch zone {
	case model.ZoneSafe:
		return safeStyle
	case model.ZoneWarning:
		return warningStyle
	default:
		return dangerStyle
	}
}

// Gauge renders a horizontal bar filled to pct percent, with a marker at the
// required percentage.
func Gauge(pct, required float64, width int, zone model.Zone, useColor bool) string {
	if width < minGaugeWidth {
		width = minGaugeWidth
	}
	filled := cellsFor(pct, width)
	marker := cellsFor(required, width) - 1

	var b strings.Builder
	for i := 0; i < width; i++ {
		cell := gaugeEmpty
		if i < filled {
			cell = gaugeFilled
		}
		if i == marker && i >= filled {
			cell = "|"
		}
		b.WriteString(cell)
	}
	bar := b.String()
	if !useColor {
		return "[" + bar + "]"
	}
	filledPart := strings.Repeat(gaugeFilled, filled)
	rest := strings.TrimPrefix(bar, filledPart)
	return "[" + ZoneStyle(zone).Render(filledPart) + mutedStyle.Render(rest) + "]"
}

func cellsFor(pct float64, width int) int {
	if math.IsNaN(pct) || pct <= 0 {
		return 0
	}
	if pct >= 100 {
		return width
	}
	return int(math.Round(pct / 100 * float64(width)))
}

// GaugeWidthFor picks a bar width that fits within the total available width.
func GaugeWidthFor(totalWidth int) int {
	if totalWidth <= 0 {
		totalWidth = terminalWidthBackup
	}
	width := totalWidth - gaugeOverhead
	if width > maxGaugeWidth {
		width = maxGaugeWidth
	}
	if width < minGaugeWidth {
		width = minGaugeWidth
	}
	return width
}

// TerminalWidth returns the stdout terminal width, or a fallback.
func TerminalWidth() int {
	width, _, err := term.GetSize(int(os.Stdout.Fd()))
	if err != nil || width <= 0 {
		return terminalWidthBackup
	}
	return width
}

// ShouldUseColor reports whether w is a terminal that accepts colour.
func ShouldUseColor(w io.Writer) bool {
	if os.Getenv("NO_COLOR") != "" {
		return false
	}
	file, ok := w.(*os.File)
	if !ok {
		return false
	}
	return term.IsTerminal(int(file.Fd()))
}
