package attendance

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"math"
	"strings"

	"github.com/verte-zerg/attendo/internal/model"
)

// Gateway persists settings durably and counters for the current session.
type Gateway interface {
	LoadSettings(ctx context.Context) (model.Settings, bool, error)
	SaveSettings(ctx context.Context, s model.Settings) error
	LoadCounters(ctx context.Context) (model.Counters, bool, error)
	SaveCounters(ctx context.Context, c model.Counters) error
	ClearCounters(ctx context.Context) error
}

// Setting names a Settings field that UpdateSetting can change.
type Setting string

// Settings fields.
const (
	SettingRequiredPercentage Setting = "required-percentage"
	SettingClassesPerDay      Setting = "classes-per-day"
	SettingDaysPerWeek        Setting = "days-per-week"
)

// SettingFields lists the updatable fields in display order.
var SettingFields = []Setting{SettingRequiredPercentage, SettingClassesPerDay, SettingDaysPerWeek}

// ParseSetting resolves a setting name; underscores and case are ignored.
func ParseSetting(name string) (Setting, error) {
	normalized := Setting(strings.ReplaceAll(strings.ToLower(strings.TrimSpace(name)), "_", "-"))
	for _, s := range SettingFields {
		if s == normalized {
			return s, nil
		}
	}
	return "", invalid(ErrUnknownSetting, fmt.Sprintf("Unknown setting %q.", name))
}

// Option configures an Engine.
type Option func(*Engine)

// WithLogger sets the logger used for persistence warnings.
func WithLogger(log *slog.Logger) Option {
	return func(e *Engine) {
		if log != nil {
			e.log = log
		}
	}
}

// Engine tracks attendance counters against the configured requirement.
// Calls must be serialized by the caller.
type Engine struct {
	gw  Gateway
	log *slog.Logger

	settings  model.Settings
	counters  model.Counters
	lastDelta *model.Delta

	lastResult     *model.CalculationResult
	lastPrediction *model.PredictionResult
	lastErr        error
}

// New constructs an engine and loads stored state. Missing or malformed
// stored values fall back to defaults.
func New(ctx context.Context, gw Gateway, opts ...Option) *Engine {
	e := &Engine{
		gw:       gw,
		log:      slog.New(slog.NewTextHandler(io.Discard, nil)),
		settings: model.DefaultSettings(),
	}
	for _, opt := range opts {
		opt(e)
	}
	e.load(ctx)
	return e
}

func (e *Engine) load(ctx context.Context) {
	settings, ok, err := e.gw.LoadSettings(ctx)
	switch {
	case err != nil:
		e.log.Warn("failed to load settings, using defaults", "err", err)
	case ok:
		e.settings = sanitizeSettings(settings, e.log)
	}

	counters, ok, err := e.gw.LoadCounters(ctx)
	switch {
	case err != nil:
		e.log.Warn("failed to load counters, starting from zero", "err", err)
	case ok:
		e.counters = sanitizeCounters(counters, e.log)
	}
}

func sanitizeSettings(s model.Settings, log *slog.Logger) model.Settings {
	if math.IsNaN(s.RequiredPercentage) || math.IsInf(s.RequiredPercentage, 0) {
		log.Warn("stored required percentage is malformed, using default", "value", s.RequiredPercentage)
		s.RequiredPercentage = model.DefaultSettings().RequiredPercentage
	}
	return s
}

func sanitizeCounters(c model.Counters, log *slog.Logger) model.Counters {
	if !finite(c.Present, c.Total) || c.Present < -epsilon || c.Total < -epsilon || c.Present-c.Total > noiseFor(c.Total) {
		log.Warn("stored counters are malformed, starting from zero", "present", c.Present, "total", c.Total)
		return model.Counters{}
	}
	return clampCounters(c)
}

// clampCounters keeps 0 <= Present <= Total after float arithmetic.
func clampCounters(c model.Counters) model.Counters {
	c.Total = math.Max(c.Total, 0)
	c.Present = math.Min(math.Max(c.Present, 0), c.Total)
	return c
}

// noiseFor is the rounding slack tolerated around a counter of magnitude v.
func noiseFor(v float64) float64 {
	return epsilon * math.Max(1, math.Abs(v))
}

// Settings returns the current settings.
func (e *Engine) Settings() model.Settings {
	return e.settings
}

// Counters returns the current counters.
func (e *Engine) Counters() model.Counters {
	return e.counters
}

// LastDelta returns the contribution of the last applied daily record, if any.
func (e *Engine) LastDelta() (model.Delta, bool) {
	if e.lastDelta == nil {
		return model.Delta{}, false
	}
	return *e.lastDelta, true
}

// LastResult returns the result of the last successful ApplyDailyRecord.
func (e *Engine) LastResult() (model.CalculationResult, bool) {
	if e.lastResult == nil {
		return model.CalculationResult{}, false
	}
	return *e.lastResult, true
}

// LastPrediction returns the last successful prediction, if still valid.
func (e *Engine) LastPrediction() (model.PredictionResult, bool) {
	if e.lastPrediction == nil {
		return model.PredictionResult{}, false
	}
	return *e.lastPrediction, true
}

// LastError returns the error of the last failed command, or nil.
func (e *Engine) LastError() error {
	return e.lastErr
}

// Percentage returns the current attendance percentage.
func (e *Engine) Percentage() float64 {
	return Percentage(e.counters.Present, e.counters.Total)
}

// Snapshot summarizes the current counters against the settings.
func (e *Engine) Snapshot() model.Snapshot {
	pct := e.Percentage()
	return model.Snapshot{
		Settings:      e.settings,
		Counters:      e.counters,
		Percentage:    pct,
		ClassesNeeded: ClassesNeeded(e.counters.Present, e.counters.Total, e.settings.RequiredPercentage),
		BunksLeft:     BunksLeft(e.counters.Present, e.counters.Total, e.settings.RequiredPercentage),
		Zone:          ZoneFor(pct, e.settings.RequiredPercentage),
	}
}

// UpdateSetting sets one settings field and persists the settings. Range
// checks are deferred to ValidateSettings so partial edits are allowed.
func (e *Engine) UpdateSetting(ctx context.Context, field Setting, value float64) error {
	if math.IsNaN(value) || math.IsInf(value, 0) {
		return e.fail(invalid(settingKind(field), "Value must be a finite number."))
	}
	next := e.settings
	switch field {
	case SettingRequiredPercentage:
		next.RequiredPercentage = value
	case SettingClassesPerDay, SettingDaysPerWeek:
		n, ok := wholeNumber(value)
		if !ok {
			return e.fail(invalid(settingKind(field), fmt.Sprintf("%s must be a whole number.", settingLabel(field))))
		}
		if field == SettingClassesPerDay {
			next.ClassesPerDay = n
		} else {
			next.DaysPerWeek = n
		}
	default:
		return e.fail(invalid(ErrUnknownSetting, fmt.Sprintf("Unknown setting %q.", field)))
	}

	e.lastErr = nil
	e.settings = next
	if err := e.gw.SaveSettings(ctx, e.settings); err != nil {
		e.log.Warn("failed to save settings", "err", err)
	}
	return nil
}

// ValidateSettings checks the settings before any calculation.
func (e *Engine) ValidateSettings() error {
	s := e.settings
	if !(s.RequiredPercentage > 0 && s.RequiredPercentage <= 100) {
		return invalid(ErrInvalidRequiredPercentage, "Required percentage must be greater than 0 and at most 100.")
	}
	if s.ClassesPerDay < 1 {
		return invalid(ErrInvalidClassesPerDay, "Classes per day must be at least 1.")
	}
	if s.DaysPerWeek < 1 {
		return invalid(ErrInvalidDaysPerWeek, "Days per week must be at least 1.")
	}
	return nil
}

// ApplyDailyRecord records today's attendance. Resubmitting replaces the
// previous entry instead of adding to it.
func (e *Engine) ApplyDailyRecord(ctx context.Context, status model.Status, classesToday, totalToday float64) (model.CalculationResult, error) {
	e.lastPrediction = nil
	if err := e.validateDaily(status, classesToday, totalToday); err != nil {
		return model.CalculationResult{}, e.fail(err)
	}

	delta := model.Delta{Present: presentFor(status, classesToday, totalToday), Total: totalToday}
	counters := e.undone()
	counters.Present += delta.Present
	counters.Total += delta.Total

	e.lastErr = nil
	e.counters = clampCounters(counters)
	e.lastDelta = &delta
	result := Calculate(e.counters, e.settings)
	e.lastResult = &result

	if err := e.gw.SaveCounters(ctx, e.counters); err != nil {
		e.log.Warn("failed to save counters", "err", err)
	}
	e.log.Debug("daily record applied", "status", status, "classes", classesToday, "total", totalToday,
		"present_count", e.counters.Present, "total_count", e.counters.Total)
	return result, nil
}

func (e *Engine) validateDaily(status model.Status, classesToday, totalToday float64) error {
	if !status.Valid() {
		return invalid(ErrInvalidStatus, fmt.Sprintf("Unknown status %q.", status))
	}
	if err := e.ValidateSettings(); err != nil {
		return err
	}
	if !finite(totalToday) || totalToday <= 0 {
		return invalid(ErrInvalidTotalToday, "Total classes today must be a positive number.")
	}
	if !finite(classesToday) || classesToday < 0 {
		return invalid(ErrInvalidClassesToday, "Value must be a non-negative number.")
	}
	if classesToday > totalToday {
		if status == model.StatusPresent {
			return invalid(ErrExceedsTotal, "Present classes cannot exceed total classes.")
		}
		return invalid(ErrExceedsTotal, "Absent classes cannot exceed total classes.")
	}
	return nil
}

// Predict projects the percentage after value more units of classes with the
// given status. preview, when valid, stands in for today's entry.
func (e *Engine) Predict(value float64, unit model.Unit, status model.Status, preview *model.DailyRecord) (model.PredictionResult, error) {
	if !finite(value) || value <= 0 {
		return model.PredictionResult{}, e.fail(invalid(ErrInvalidPredictionValue, "Prediction value must be a positive number."))
	}
	if err := e.ValidateSettings(); err != nil {
		return model.PredictionResult{}, e.fail(err)
	}
	if !unit.Valid() {
		return model.PredictionResult{}, e.fail(invalid(ErrInvalidUnit, fmt.Sprintf("Unknown unit %q.", unit)))
	}
	if !status.Valid() {
		return model.PredictionResult{}, e.fail(invalid(ErrInvalidStatus, fmt.Sprintf("Unknown status %q.", status)))
	}

	base := e.counters
	if usablePreview(preview) {
		base = e.undone()
		base.Present += presentFor(preview.Status, preview.Classes, preview.Total)
		base.Total += preview.Total
	}
	if base.Total <= 0 {
		return model.PredictionResult{}, e.fail(invalid(ErrNoBaselineYet, "Record some attendance before predicting."))
	}

	n := float64(ClassesFor(value, unit, e.settings))
	present := base.Present
	if status == model.StatusPresent {
		present += n
	}
	result := Project(present, base.Total+n, e.settings)

	e.lastErr = nil
	e.lastPrediction = &result
	return result, nil
}

// Reset clears the counters and the last applied entry. Settings are kept.
func (e *Engine) Reset(ctx context.Context) error {
	e.counters = model.Counters{}
	e.lastDelta = nil
	e.lastResult = nil
	e.lastPrediction = nil
	e.lastErr = nil
	if err := e.gw.ClearCounters(ctx); err != nil {
		return fmt.Errorf("failed to clear counters: %w", err)
	}
	return nil
}

// undone returns the counters without the last applied entry.
func (e *Engine) undone() model.Counters {
	c := e.counters
	if e.lastDelta != nil {
		c.Present -= e.lastDelta.Present
		c.Total -= e.lastDelta.Total
	}
	return clampCounters(c)
}

func (e *Engine) fail(err error) error {
	e.lastErr = err
	return err
}

func usablePreview(p *model.DailyRecord) bool {
	if p == nil || !p.Status.Valid() || !finite(p.Classes, p.Total) {
		return false
	}
	return p.Total > 0 && p.Classes >= 0 && p.Classes <= p.Total
}

func presentFor(status model.Status, classes, total float64) float64 {
	if status == model.StatusPresent {
		return classes
	}
	return total - classes
}

func wholeNumber(v float64) (int, bool) {
	if v != math.Trunc(v) || math.Abs(v) > math.MaxInt32 {
		return 0, false
	}
	return int(v), true
}

func settingKind(field Setting) error {
	switch field {
	case SettingRequiredPercentage:
		return ErrInvalidRequiredPercentage
	case SettingClassesPerDay:
		return ErrInvalidClassesPerDay
	case SettingDaysPerWeek:
		return ErrInvalidDaysPerWeek
	default:
		return ErrUnknownSetting
	}
}

func settingLabel(field Setting) string {
	switch field {
	case SettingClassesPerDay:
		return "Classes per day"
	case SettingDaysPerWeek:
		return "Days per week"
	default:
		return "Required percentage"
	}
}
