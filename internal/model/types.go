// Package model defines shared data structures.
package model

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// Settings defines the durable attendance configuration.
type Settings struct {
	RequiredPercentage float64
	ClassesPerDay      int
	DaysPerWeek        int
}

// DefaultSettings returns the settings used when nothing usable is stored.
func DefaultSettings() Settings {
	return Settings{
		RequiredPercentage: 75,
		ClassesPerDay:      5,
		DaysPerWeek:        6,
	}
}

// Counters holds the running attendance totals for the current session.
type Counters struct {
	Present float64
	Total   float64
}

// Delta is the contribution of the most recently applied daily record.
type Delta struct {
	Present float64
	Total   float64
}

// Parse errors, comparable with errors.Is.
var (
	ErrInvalidStatus = errors.New("invalid status")
	ErrInvalidUnit   = errors.New("invalid unit")
)

// Status is the attendance status of a daily record or prediction.
type Status string

// Attendance statuses.
const (
	StatusPresent Status = "present"
	StatusAbsent  Status = "absent"
)

// Valid reports whether s is a known status.
func (s Status) Valid() bool {
	return s == StatusPresent || s == StatusAbsent
}

// ParseStatus parses a status name, case-insensitively.
func ParseStatus(value string) (Status, error) {
	s := Status(strings.ToLower(strings.TrimSpace(value)))
	if !s.Valid() {
		return "", fmt.Errorf("%w: unknown status %q (expected present or absent)", ErrInvalidStatus, value)
	}
	return s, nil
}

// Unit is the unit a prediction span is expressed in.
type Unit string

// Prediction units.
const (
	UnitClasses Unit = "classes"
	UnitDays    Unit = "days"
	UnitWeeks   Unit = "weeks"
)

// Valid reports whether u is a known unit.
func (u Unit) Valid() bool {
	switch u {
	case UnitClasses, UnitDays, UnitWeeks:
		return true
	default:
		return false
	}
}

// ParseUnit parses a unit name, case-insensitively.
func ParseUnit(value string) (Unit, error) {
	u := Unit(strings.ToLower(strings.TrimSpace(value)))
	if !u.Valid() {
		return "", fmt.Errorf("%w: unknown unit %q (expected classes, days or weeks)", ErrInvalidUnit, value)
	}
	return u, nil
}

// DailyRecord describes one day: Total classes held, Classes of them with the given Status.
type DailyRecord struct {
	Status  Status
	Classes float64
	Total   float64
}

// CalculationResult captures derived metrics after a counters change.
type CalculationResult struct {
	CurrentPercentage  float64
	ClassesNeeded      int
	BunksLeft          int
	ClassesNeededDays  float64
	ClassesNeededWeeks float64
	BunksLeftDays      float64
	BunksLeftWeeks     float64
}

// PredictionResult captures metrics for a hypothetical future state.
type PredictionResult struct {
	Percentage    float64
	ClassesNeeded int
	BunksLeft     int
	Days          float64
	Weeks         float64
}

// Zone classifies a percentage against the requirement.
type Zone string

// Compliance zones.
const (
	ZoneSafe    Zone = "safe"
	ZoneWarning Zone = "warning"
	ZoneDanger  Zone = "danger"
)

// Snapshot summarizes the current state for display.
type Snapshot struct {
	Settings      Settings
	Counters      Counters
	Percentage    float64
	ClassesNeeded int
	BunksLeft     int
	Zone          Zone
}

// SessionInfo describes the lifetime of the stored counters.
type SessionInfo struct {
	ID        string
	StartedAt time.Time
	UpdatedAt time.Time
	ExpiresAt time.Time
}
