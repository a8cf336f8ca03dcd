package model

import (
	"errors"
	"testing"
)

func TestParseStatus(t *testing.T) {
	got, err := ParseStatus(" Absent ")
	if err != nil || got != StatusAbsent {
		t.Fatalf("ParseStatus = %q, %v", got, err)
	}
	if _, err := ParseStatus("late"); !errors.Is(err, ErrInvalidStatus) {
		t.Fatalf("expected ErrInvalidStatus, got %v", err)
	}
}

func TestParseUnit(t *testing.T) {
	got, err := ParseUnit("WEEKS")
	if err != nil || got != UnitWeeks {
		t.Fatalf("ParseUnit = %q, %v", got, err)
	}
	if _, err := ParseUnit("months"); !errors.Is(err, ErrInvalidUnit) {
		t.Fatalf("expected ErrInvalidUnit, got %v", err)
	}
}
