// Package tui provides the Bubble Tea attendance form.
package tui

import (
	"bytes"
	"context"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/charmbracelet/bubbles/cursor"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/verte-zerg/attendo/internal/attendance"
	"github.com/verte-zerg/attendo/internal/model"
	"github.com/verte-zerg/attendo/internal/report"
)

type field int

const (
	fieldRequired field = iota
	fieldClassesPerDay
	fieldDaysPerWeek
	fieldDailyStatus
	fieldDailyClasses
	fieldDailyTotal
	fieldPredictValue
	fieldPredictUnit
	fieldPredictStatus
	fieldCount
)

type section int

const (
	sectionSettings section = iota
	sectionDaily
	sectionPredict
)

var fieldLabels = [fieldCount]string{
	fieldRequired:      "Required %",
	fieldClassesPerDay: "Classes/day",
	fieldDaysPerWeek:   "Days/week",
	fieldDailyStatus:   "Status",
	fieldDailyClasses:  "Classes",
	fieldDailyTotal:    "Total",
	fieldPredictValue:  "Next",
	fieldPredictUnit:   "Unit",
	fieldPredictStatus: "Status",
}

var (
	statuses = []model.Status{model.StatusPresent, model.StatusAbsent}
	units    = []model.Unit{model.UnitClasses, model.UnitDays, model.UnitWeeks}
)

var (
	titleStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#C89A3A")).Bold(true)
	cardStyle  = lipgloss.NewStyle().
			Padding(0, 1).
			Border(lipgloss.RoundedBorder(), true).
			BorderForeground(lipgloss.Color("#4A4A4A"))
	activeCardStyle = cardStyle.Copy().BorderForeground(lipgloss.Color("#C89A3A"))
	cardTitleStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#8C8C8C"))
	labelStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("#B0B0B0")).Width(12)
	activeLabel     = labelStyle.Copy().Foreground(lipgloss.Color("#F0F0F0")).Bold(true)
	choiceStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("#F0F0F0"))
	errorStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("#FF4D4F"))
	noticeStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("#3FB950"))
	footerStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("#6E6E6E"))
)

const helpText = "tab/↓ next · shift+tab/↑ prev · ←/→ change · enter apply · ctrl+r reset · esc quit"

// Model implements the Bubble Tea attendance form.
type Model struct {
	engine *attendance.Engine

	inputs        [fieldCount]textinput.Model
	dailyStatus   model.Status
	predictUnit   model.Unit
	predictStatus model.Status
	focus         field

	errMsg string
	notice string

	width  int
	height int
}

// NewModel constructs the form over an engine.
func NewModel(engine *attendance.Engine) *Model {
	m := &Model{
		engine:        engine,
		dailyStatus:   model.StatusPresent,
		predictUnit:   model.UnitClasses,
		predictStatus: model.StatusPresent,
	}
	m.initInputs()
	m.setFocus(fieldDailyClasses)
	return m
}

func (m *Model) initInputs() {
	s := m.engine.Settings()
	for f := field(0); f < fieldCount; f++ {
		if isChoice(f) {
			continue
		}
		m.inputs[f] = newNumberInput()
	}
	m.inputs[fieldRequired].SetValue(report.FormatAmount(s.RequiredPercentage))
	m.inputs[fieldClassesPerDay].SetValue(strconv.Itoa(s.ClassesPerDay))
	m.inputs[fieldDaysPerWeek].SetValue(strconv.Itoa(s.DaysPerWeek))
}

func newNumberInput() textinput.Model {
	input := textinput.New()
	input.Prompt = ""
	input.CharLimit = 10
	input.Width = 10
	input.Cursor.SetMode(cursor.CursorBlink)
	return input
}

// Init implements tea.Model.
func (m *Model) Init() tea.Cmd {
	return textinput.Blink
}

// Update implements tea.Model.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil
	case tea.KeyMsg:
		return m.handleKey(msg)
	default:
		if isChoice(m.focus) {
			return m, nil
		}
		var cmd tea.Cmd
		m.inputs[m.focus], cmd = m.inputs[m.focus].Update(msg)
		return m, cmd
	}
}

func (m *Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyCtrlC, tea.KeyEsc:
		return m, tea.Quit
	case tea.KeyTab, tea.KeyDown:
		return m, m.setFocus(m.focus + 1)
	case tea.KeyShiftTab, tea.KeyUp:
		return m, m.setFocus(m.focus - 1)
	case tea.KeyCtrlR:
		m.reset()
		return m, nil
	case tea.KeyEnter:
		m.submit()
		return m, nil
	}

	if isChoice(m.focus) {
		switch msg.String() {
		case "right", " ", "l":
			m.cycleChoice(1)
		case "left", "h":
			m.cycleChoice(-1)
		}
		return m, nil
	}

	before := m.inputs[m.focus].Value()
	var cmd tea.Cmd
	m.inputs[m.focus], cmd = m.inputs[m.focus].Update(msg)
	if sectionOf(m.focus) == sectionSettings && m.inputs[m.focus].Value() != before {
		m.applySetting(m.focus)
	}
	return m, cmd
}

func (m *Model) setFocus(f field) tea.Cmd {
	if f < 0 {
		f = fieldCount - 1
	}
	if f >= fieldCount {
		f = 0
	}
	m.focus = f
	var cmd tea.Cmd
	for i := field(0); i < fieldCount; i++ {
		if isChoice(i) {
			continue
		}
		if i == f {
			cmd = m.inputs[i].Focus()
		} else {
			m.inputs[i].Blur()
		}
	}
	return cmd
}

func (m *Model) cycleChoice(step int) {
	switch m.focus {
	case fieldDailyStatus:
		m.dailyStatus = cycle(statuses, m.dailyStatus, step)
	case fieldPredictStatus:
		m.predictStatus = cycle(statuses, m.predictStatus, step)
	case fieldPredictUnit:
		m.predictUnit = cycle(units, m.predictUnit, step)
	}
}

func cycle[T comparable](values []T, current T, step int) T {
	idx := 0
	for i, v := range values {
		if v == current {
			idx = i
			break
		}
	}
	idx = (idx + step + len(values)) % len(values)
	return values[idx]
}

// applySetting pushes a settings edit to the engine. Partial input that does
// not parse yet is left alone.
func (m *Model) applySetting(f field) {
	raw := strings.TrimSpace(m.inputs[f].Value())
	if raw == "" {
		return
	}
	value, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return
	}
	if err := m.engine.UpdateSetting(context.Background(), settingFor(f), value); err != nil {
		m.errMsg = err.Error()
		return
	}
	m.errMsg = ""
	m.notice = ""
}

func (m *Model) submit() {
	switch sectionOf(m.focus) {
	case sectionSettings:
		m.setFocus(m.focus + 1)
	case sectionDaily:
		m.applyDaily()
	case sectionPredict:
		m.predict()
	}
}

func (m *Model) applyDaily() {
	classes := parseInput(m.inputs[fieldDailyClasses])
	total := parseInput(m.inputs[fieldDailyTotal])
	if _, err := m.engine.ApplyDailyRecord(context.Background(), m.dailyStatus, classes, total); err != nil {
		m.errMsg = err.Error()
		m.notice = ""
		return
	}
	m.errMsg = ""
	m.notice = "Today's attendance recorded."
}

func (m *Model) predict() {
	value := parseInput(m.inputs[fieldPredictValue])
	preview := &model.DailyRecord{
		Status:  m.dailyStatus,
		Classes: parseInput(m.inputs[fieldDailyClasses]),
		Total:   parseInput(m.inputs[fieldDailyTotal]),
	}
	if _, err := m.engine.Predict(value, m.predictUnit, m.predictStatus, preview); err != nil {
		m.errMsg = err.Error()
		m.notice = ""
		return
	}
	m.errMsg = ""
	m.notice = ""
}

func (m *Model) reset() {
	if err := m.engine.Reset(context.Background()); err != nil {
		m.errMsg = err.Error()
		m.notice = ""
		return
	}
	m.inputs[fieldDailyClasses].SetValue("")
	m.inputs[fieldDailyTotal].SetValue("")
	m.errMsg = ""
	m.notice = "Attendance reset."
}

// parseInput reads a numeric field; blank or malformed input is NaN so the
// engine reports it.
func parseInput(input textinput.Model) float64 {
	value, err := strconv.ParseFloat(strings.TrimSpace(input.Value()), 64)
	if err != nil {
		return math.NaN()
	}
	return value
}

func isChoice(f field) bool {
	return f == fieldDailyStatus || f == fieldPredictUnit || f == fieldPredictStatus
}

func sectionOf(f field) section {
	switch {
	case f <= fieldDaysPerWeek:
		return sectionSettings
	case f <= fieldDailyTotal:
		return sectionDaily
	default:
		return sectionPredict
	}
}

func settingFor(f field) attendance.Setting {
	switch f {
	case fieldClassesPerDay:
		return attendance.SettingClassesPerDay
	case fieldDaysPerWeek:
		return attendance.SettingDaysPerWeek
	default:
		return attendance.SettingRequiredPercentage
	}
}

// View implements tea.Model.
func (m *Model) View() string {
	content := m.renderContent()
	if m.width == 0 || m.height == 0 {
		return content
	}
	footer := footerStyle.Render(helpText)
	if m.height < 3 {
		return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, content)
	}
	body := lipgloss.Place(m.width, m.height-1, lipgloss.Center, lipgloss.Center, content)
	footerLine := lipgloss.Place(m.width, 1, lipgloss.Center, lipgloss.Center, footer)
	return body + "\n" + footerLine
}

func (m *Model) renderContent() string {
	snap := m.engine.Snapshot()
	parts := []string{
		titleStyle.Render("attendo"),
		m.renderSummary(snap),
		m.renderCards(),
	}
	if results := m.renderResults(); results != "" {
		parts = append(parts, results)
	}
	if warn := m.engine.ValidateSettings(); warn != nil && m.errMsg == "" {
		parts = append(parts, m.renderMessage(warn.Error(), errorStyle))
	}
	if m.errMsg != "" {
		parts = append(parts, m.renderMessage(m.errMsg, errorStyle))
	}
	if m.notice != "" {
		parts = append(parts, m.renderMessage(m.notice, noticeStyle))
	}
	if m.width == 0 || m.height == 0 {
		parts = append(parts, footerStyle.Render(helpText))
	}
	return lipgloss.JoinVertical(lipgloss.Left, parts...)
}

func (m *Model) renderSummary(snap model.Snapshot) string {
	gauge := report.Gauge(snap.Percentage, snap.Settings.RequiredPercentage, report.GaugeWidthFor(m.width), snap.Zone, true)
	pct := report.ZoneStyle(snap.Zone).Render(report.FormatPercent(snap.Percentage))
	stats := fmt.Sprintf("Present %s · Total %s · Bunks left %s · Need %s",
		report.FormatAmount(snap.Counters.Present),
		report.FormatAmount(snap.Counters.Total),
		report.FormatClasses(snap.BunksLeft, "unlimited"),
		report.FormatClasses(snap.ClassesNeeded, "unreachable"),
	)
	return gauge + " " + pct + "\n" + cardTitleStyle.Render(stats)
}

func (m *Model) renderCards() string {
	settings := m.renderCard("Settings", sectionSettings, fieldRequired, fieldClassesPerDay, fieldDaysPerWeek)
	daily := m.renderCard("Today", sectionDaily, fieldDailyStatus, fieldDailyClasses, fieldDailyTotal)
	predict := m.renderCard("Predict", sectionPredict, fieldPredictValue, fieldPredictUnit, fieldPredictStatus)
	row := lipgloss.JoinHorizontal(lipgloss.Top, settings, " ", daily, " ", predict)
	if m.width > 0 && lipgloss.Width(row) > m.width {
		return lipgloss.JoinVertical(lipgloss.Left, settings, daily, predict)
	}
	return row
}

func (m *Model) renderCard(title string, sec section, fields ...field) string {
	lines := []string{cardTitleStyle.Render(title)}
	for _, f := range fields {
		label := labelStyle
		if f == m.focus {
			label = activeLabel
		}
		lines = append(lines, label.Render(fieldLabels[f])+m.renderField(f))
	}
	style := cardStyle
	if sectionOf(m.focus) == sec {
		style = activeCardStyle
	}
	return style.Render(strings.Join(lines, "\n"))
}

func (m *Model) renderField(f field) string {
	var value string
	switch f {
	case fieldDailyStatus:
		value = string(m.dailyStatus)
	case fieldPredictStatus:
		value = string(m.predictStatus)
	case fieldPredictUnit:
		value = string(m.predictUnit)
	default:
		return m.inputs[f].View()
	}
	if f == m.focus {
		return choiceStyle.Render("‹ " + value + " ›")
	}
	return choiceStyle.Render("  " + value)
}

func (m *Model) renderResults() string {
	var blocks []string
	if res, ok := m.engine.LastResult(); ok {
		var buf bytes.Buffer
		if err := report.RenderResult(&buf, res); err == nil {
			blocks = append(blocks, cardStyle.Render(strings.TrimRight(buf.String(), "\n")))
		}
	}
	if pred, ok := m.engine.LastPrediction(); ok {
		var buf bytes.Buffer
		if err := report.RenderPrediction(&buf, pred); err == nil {
			blocks = append(blocks, cardStyle.Render(strings.TrimRight(buf.String(), "\n")))
		}
	}
	if len(blocks) == 0 {
		return ""
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, blocks...)
}

func (m *Model) renderMessage(text string, style lipgloss.Style) string {
	width := m.width
	if width > 4 {
		width -= 4
	}
	return style.Render(strings.Join(wrapText(text, width), "\n"))
}
