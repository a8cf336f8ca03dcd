// Package report renders attendance state as plain text tables.
package report

import (
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/verte-zerg/attendo/internal/attendance"
	"github.com/verte-zerg/attendo/internal/model"
)

// Options controls rendering.
type Options struct {
	Color bool
	Width int
}

// FormatPercent formats a percentage with two decimals.
func FormatPercent(v float64) string {
	return fmt.Sprintf("%.2f%%", v)
}

// FormatAmount formats a class count without trailing zeros.
func FormatAmount(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// FormatClasses formats a derived class count; unbounded renders as label.
func FormatClasses(n int, unboundedLabel string) string {
	if attendance.IsUnbounded(n) {
		return unboundedLabel
	}
	return strconv.Itoa(n)
}

// FormatSpan formats a day or week figure.
func FormatSpan(v float64) string {
	if attendance.IsUnboundedSpan(v) {
		return "-"
	}
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// RenderSnapshot prints the gauge and the current counters.
func RenderSnapshot(w io.Writer, snap model.Snapshot, opts Options) error {
	gauge := Gauge(snap.Percentage, snap.Settings.RequiredPercentage, GaugeWidthFor(opts.Width), snap.Zone, opts.Color)
	pct := FormatPercent(snap.Percentage)
	if opts.Color {
		pct = ZoneStyle(snap.Zone).Render(pct)
	}
	if _, err := fmt.Fprintf(w, "%s %s\n", gauge, pct); err != nil {
		return err
	}
	tbl := newTable()
	tbl.add("Present", FormatAmount(snap.Counters.Present))
	tbl.add("Total", FormatAmount(snap.Counters.Total))
	tbl.add("Required", FormatAmount(snap.Settings.RequiredPercentage)+"%")
	tbl.add("Bunks left", FormatClasses(snap.BunksLeft, "unlimited"))
	tbl.add("Need", FormatClasses(snap.ClassesNeeded, "unreachable"))
	tbl.add("Status", string(snap.Zone))
	return writeLines(w, tbl.lines())
}

// RenderResult prints the metrics after a daily record.
func RenderResult(w io.Writer, res model.CalculationResult) error {
	if _, err := fmt.Fprintf(w, "Current: %s\n", FormatPercent(res.CurrentPercentage)); err != nil {
		return err
	}
	tbl := spanTable()
	tbl.add("Need", FormatClasses(res.ClassesNeeded, "unreachable"), FormatSpan(res.ClassesNeededDays), FormatSpan(res.ClassesNeededWeeks))
	tbl.add("Bunks left", FormatClasses(res.BunksLeft, "unlimited"), FormatSpan(res.BunksLeftDays), FormatSpan(res.BunksLeftWeeks))
	return writeLines(w, tbl.lines())
}

// RenderPrediction prints a projected state.
func RenderPrediction(w io.Writer, pred model.PredictionResult) error {
	if _, err := fmt.Fprintf(w, "Predicted: %s\n", FormatPercent(pred.Percentage)); err != nil {
		return err
	}
	tbl := spanTable()
	tbl.add("Need", FormatClasses(pred.ClassesNeeded, "unreachable"), FormatSpan(pred.Days), FormatSpan(pred.Weeks))
	tbl.add("Bunks left", FormatClasses(pred.BunksLeft, "unlimited"))
	return writeLines(w, tbl.lines())
}

func spanTable() *table {
	return newTable("", "Classes", "Days", "Weeks").alignRight(1, 2, 3)
}

// RenderSettings prints the settings and any validation problem.
func RenderSettings(w io.Writer, s model.Settings, validationErr error) error {
	tbl := newTable()
	tbl.add(string(attendance.SettingRequiredPercentage), FormatAmount(s.RequiredPercentage))
	tbl.add(string(attendance.SettingClassesPerDay), strconv.Itoa(s.ClassesPerDay))
	tbl.add(string(attendance.SettingDaysPerWeek), strconv.Itoa(s.DaysPerWeek))
	if err := writeLines(w, tbl.lines()); err != nil {
		return err
	}
	if validationErr != nil {
		_, err := fmt.Fprintf(w, "warning: %v\n", validationErr)
		return err
	}
	return nil
}

// RenderSession prints when the counters session expires.
func RenderSession(w io.Writer, info model.SessionInfo, now time.Time) error {
	line := fmt.Sprintf("Session %s", shortID(info.ID))
	if !info.ExpiresAt.IsZero() {
		line += fmt.Sprintf(", expires in %s", info.ExpiresAt.Sub(now).Round(time.Minute))
	}
	_, err := fmt.Fprintln(w, line)
	return err
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

func writeLines(w io.Writer, lines []string) error {
	if len(lines) == 0 {
		return nil
	}
	_, err := fmt.Fprintln(w, strings.Join(lines, "\n"))
	return err
}
