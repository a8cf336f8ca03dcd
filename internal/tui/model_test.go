package tui

import (
	"context"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/verte-zerg/attendo/internal/attendance"
	"github.com/verte-zerg/attendo/internal/model"
)

func newTestModel(t *testing.T) *Model {
	t.Helper()
	engine := attendance.New(context.Background(), attendance.NewMemoryGateway())
	return NewModel(engine)
}

func press(m *Model, key tea.KeyType) tea.Cmd {
	_, cmd := m.Update(tea.KeyMsg{Type: key})
	return cmd
}

func typeText(m *Model, text string) {
	for _, r := range text {
		m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{r}})
	}
}

func TestRecordTodayIsIdempotent(t *testing.T) {
	m := newTestModel(t)
	if m.focus != fieldDailyClasses {
		t.Fatalf("expected focus on daily classes, got %d", m.focus)
	}
	typeText(m, "4")
	press(m, tea.KeyTab)
	typeText(m, "5")
	press(m, tea.KeyEnter)
	press(m, tea.KeyEnter)

	if got := m.engine.Counters(); got != (model.Counters{Present: 4, Total: 5}) {
		t.Fatalf("unexpected counters %+v", got)
	}
	if m.errMsg != "" {
		t.Fatalf("unexpected error %q", m.errMsg)
	}
	if m.notice == "" {
		t.Fatalf("expected a notice after recording")
	}
}

func TestStatusToggleReplacesEntry(t *testing.T) {
	m := newTestModel(t)
	typeText(m, "4")
	press(m, tea.KeyTab)
	typeText(m, "5")
	press(m, tea.KeyEnter)

	press(m, tea.KeyShiftTab)
	press(m, tea.KeyShiftTab)
	if m.focus != fieldDailyStatus {
		t.Fatalf("expected focus on daily status, got %d", m.focus)
	}
	press(m, tea.KeyRight)
	if m.dailyStatus != model.StatusAbsent {
		t.Fatalf("expected absent, got %s", m.dailyStatus)
	}
	press(m, tea.KeyEnter)

	if got := m.engine.Counters(); got != (model.Counters{Present: 1, Total: 5}) {
		t.Fatalf("unexpected counters %+v", got)
	}
}

func TestPredictUsesTodayAsPreview(t *testing.T) {
	m := newTestModel(t)
	typeText(m, "4")
	press(m, tea.KeyTab)
	typeText(m, "5")
	press(m, tea.KeyEnter)

	// Change today's entry without applying it; the prediction should see it.
	m.setFocus(fieldDailyStatus)
	press(m, tea.KeySpace)
	m.setFocus(fieldPredictValue)
	typeText(m, "2")
	press(m, tea.KeyEnter)

	pred, ok := m.engine.LastPrediction()
	if !ok {
		t.Fatalf("expected a prediction, error %q", m.errMsg)
	}
	if pred.Percentage != 42.86 {
		t.Fatalf("unexpected prediction %+v", pred)
	}
	if got := m.engine.Counters(); got != (model.Counters{Present: 4, Total: 5}) {
		t.Fatalf("prediction must not change counters, got %+v", got)
	}
}

func TestPredictUnitCycles(t *testing.T) {
	m := newTestModel(t)
	m.setFocus(fieldPredictUnit)
	press(m, tea.KeyRight)
	press(m, tea.KeyRight)
	if m.predictUnit != model.UnitWeeks {
		t.Fatalf("expected weeks, got %s", m.predictUnit)
	}
	press(m, tea.KeyRight)
	if m.predictUnit != model.UnitClasses {
		t.Fatalf("expected wrap to classes, got %s", m.predictUnit)
	}
	press(m, tea.KeyLeft)
	if m.predictUnit != model.UnitWeeks {
		t.Fatalf("expected wrap back to weeks, got %s", m.predictUnit)
	}
}

func TestEmptyDailyShowsError(t *testing.T) {
	m := newTestModel(t)
	press(m, tea.KeyEnter)
	if m.errMsg != "Total classes today must be a positive number." {
		t.Fatalf("unexpected error %q", m.errMsg)
	}
	if !strings.Contains(m.View(), "Total classes today") {
		t.Fatalf("error missing from view")
	}
}

func TestSettingsEditUpdatesEngine(t *testing.T) {
	m := newTestModel(t)
	m.setFocus(fieldRequired)
	press(m, tea.KeyBackspace)
	press(m, tea.KeyBackspace)
	typeText(m, "80")
	if got := m.engine.Settings().RequiredPercentage; got != 80 {
		t.Fatalf("expected required 80, got %v", got)
	}

	m.setFocus(fieldClassesPerDay)
	press(m, tea.KeyBackspace)
	typeText(m, "2.5")
	if m.errMsg != "Classes per day must be a whole number." {
		t.Fatalf("unexpected error %q", m.errMsg)
	}
	if got := m.engine.Settings().ClassesPerDay; got != 2 {
		t.Fatalf("expected last valid classes per day 2, got %d", got)
	}
}

func TestResetClearsCounters(t *testing.T) {
	m := newTestModel(t)
	typeText(m, "3")
	press(m, tea.KeyTab)
	typeText(m, "4")
	press(m, tea.KeyEnter)
	press(m, tea.KeyCtrlR)

	if got := m.engine.Counters(); got != (model.Counters{}) {
		t.Fatalf("expected zero counters, got %+v", got)
	}
	if m.inputs[fieldDailyTotal].Value() != "" {
		t.Fatalf("expected daily inputs cleared")
	}
	if m.notice != "Attendance reset." {
		t.Fatalf("unexpected notice %q", m.notice)
	}
}

func TestFocusWraps(t *testing.T) {
	m := newTestModel(t)
	m.setFocus(fieldPredictStatus)
	press(m, tea.KeyTab)
	if m.focus != fieldRequired {
		t.Fatalf("expected wrap to first field, got %d", m.focus)
	}
	press(m, tea.KeyUp)
	if m.focus != fieldPredictStatus {
		t.Fatalf("expected wrap to last field, got %d", m.focus)
	}
}

func TestQuitKeys(t *testing.T) {
	m := newTestModel(t)
	cmd := press(m, tea.KeyCtrlC)
	if cmd == nil {
		t.Fatalf("expected quit command")
	}
	if _, ok := cmd().(tea.QuitMsg); !ok {
		t.Fatalf("expected quit message")
	}
}

func TestViewShowsSections(t *testing.T) {
	m := newTestModel(t)
	m.Update(tea.WindowSizeMsg{Width: 140, Height: 40})
	out := m.View()
	for _, want := range []string{"attendo", "Settings", "Today", "Predict", "Bunks left", "enter apply"} {
		if !strings.Contains(out, want) {
			t.Fatalf("view missing %q:\n%s", want, out)
		}
	}
}
