// Package attendance implements the attendance calculation engine.
package attendance

import (
	"math"
	"strconv"
	"strings"

	"github.com/verte-zerg/attendo/internal/model"
)

// Unbounded is reported when no finite number of classes satisfies the requirement.
const Unbounded = math.MaxInt

// UnboundedSpan is the day/week figure for an Unbounded class count.
const UnboundedSpan = math.MaxFloat64

// warningBand is how far below the requirement the warning zone reaches.
const warningBand = 5.0

// epsilon absorbs float noise before ceil/floor.
const epsilon = 1e-9

// IsUnbounded reports whether n is the saturating Unbounded marker.
func IsUnbounded(n int) bool {
	return n == Unbounded
}

// IsUnboundedSpan reports whether v is the saturating day/week marker.
func IsUnboundedSpan(v float64) bool {
	return v == UnboundedSpan
}

// Percentage returns present/total as a percentage rounded to two decimals.
func Percentage(present, total float64) float64 {
	if total == 0 || !finite(present, total) {
		return 0
	}
	return Round2(100 * present / total)
}

// ClassesNeeded returns the smallest x such that (present+x)/(total+x) reaches required percent.
// With no classes recorded yet only a requirement of 100% is unreachable.
func ClassesNeeded(present, total, required float64) int {
	if !finite(present, total, required) {
		return 0
	}
	if total <= 0 {
		if required >= 100 {
			return Unbounded
		}
		return 0
	}
	if 100*present >= required*total {
		return 0
	}
	if required >= 100 {
		return Unbounded
	}
	needed := (required*total - 100*present) / (100 - required)
	if needed <= epsilon {
		return 0
	}
	return saturate(math.Ceil(needed - epsilon))
}

// BunksLeft returns the largest x such that present/(total+x) stays at or above required percent.
func BunksLeft(present, total, required float64) int {
	if !finite(present, total, required) {
		return 0
	}
	if required <= 0 {
		return Unbounded
	}
	bunks := (100*present - required*total) / required
	if bunks <= 0 {
		return 0
	}
	return saturate(math.Floor(bunks + epsilon))
}

// ClassesToDays converts a class count into days.
func ClassesToDays(classes, classesPerDay int) float64 {
	if IsUnbounded(classes) {
		return UnboundedSpan
	}
	if classesPerDay <= 0 {
		return 0
	}
	return Round2(float64(classes) / float64(classesPerDay))
}

// ClassesToWeeks converts a class count into weeks.
func ClassesToWeeks(classes, classesPerDay, daysPerWeek int) float64 {
	if IsUnbounded(classes) {
		return UnboundedSpan
	}
	if classesPerDay <= 0 || daysPerWeek <= 0 {
		return 0
	}
	return Round2(float64(classes) / float64(classesPerDay*daysPerWeek))
}

// ClassesFor converts a span in the given unit into a whole number of classes.
func ClassesFor(value float64, unit model.Unit, s model.Settings) int {
	classes := value
	switch unit {
	case model.UnitDays:
		classes = value * float64(s.ClassesPerDay)
	case model.UnitWeeks:
		classes = value * float64(s.DaysPerWeek) * float64(s.ClassesPerDay)
	}
	return saturate(math.Round(classes))
}

// ZoneFor classifies a percentage against the required percentage.
func ZoneFor(percentage, required float64) model.Zone {
	switch {
	case percentage >= required:
		return model.ZoneSafe
	case percentage >= required-warningBand:
		return model.ZoneWarning
	default:
		return model.ZoneDanger
	}
}

// Calculate derives the full metric set for the given counters.
func Calculate(c model.Counters, s model.Settings) model.CalculationResult {
	needed := ClassesNeeded(c.Present, c.Total, s.RequiredPercentage)
	bunks := BunksLeft(c.Present, c.Total, s.RequiredPercentage)
	return model.CalculationResult{
		CurrentPercentage:  Percentage(c.Present, c.Total),
		ClassesNeeded:      needed,
		BunksLeft:          bunks,
		ClassesNeededDays:  ClassesToDays(needed, s.ClassesPerDay),
		ClassesNeededWeeks: ClassesToWeeks(needed, s.ClassesPerDay, s.DaysPerWeek),
		BunksLeftDays:      ClassesToDays(bunks, s.ClassesPerDay),
		BunksLeftWeeks:     ClassesToWeeks(bunks, s.ClassesPerDay, s.DaysPerWeek),
	}
}

// Project derives prediction metrics for a hypothetical present/total pair.
func Project(present, total float64, s model.Settings) model.PredictionResult {
	needed := ClassesNeeded(present, total, s.RequiredPercentage)
	return model.PredictionResult{
		Percentage:    Percentage(present, total),
		ClassesNeeded: needed,
		BunksLeft:     BunksLeft(present, total, s.RequiredPercentage),
		Days:          ClassesToDays(needed, s.ClassesPerDay),
		Weeks:         ClassesToWeeks(needed, s.ClassesPerDay, s.DaysPerWeek),
	}
}

// Round2 rounds half away from zero to two decimals, working on the shortest
// decimal representation so 1.005 becomes 1.01.
func Round2(x float64) float64 {
	if !finite(x) {
		return x
	}
	s := strconv.FormatFloat(math.Abs(x), 'f', -1, 64)
	dot := strings.IndexByte(s, '.')
	if dot < 0 || len(s)-dot-1 <= 2 {
		return x
	}
	truncated, err := strconv.ParseFloat(s[:dot+3], 64)
	if err != nil {
		return x
	}
	if s[dot+3] >= '5' {
		truncated += 0.01
	}
	out, err := strconv.ParseFloat(strconv.FormatFloat(truncated, 'f', 2, 64), 64)
	if err != nil {
		return x
	}
	if x < 0 {
		return -out
	}
	return out
}

func saturate(v float64) int {
	if v >= float64(math.MaxInt) {
		return Unbounded
	}
	if v <= 0 {
		return 0
	}
	return int(v)
}

func finite(values ...float64) bool {
	for _, v := range values {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}
