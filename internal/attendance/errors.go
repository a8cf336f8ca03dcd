package attendance

import (
	"errors"

	"github.com/verte-zerg/attendo/internal/model"
)

// Error kinds, comparable with errors.Is.
var (
	ErrInvalidRequiredPercentage = errors.New("invalid required percentage")
	ErrInvalidClassesPerDay      = errors.New("invalid classes per day")
	ErrInvalidDaysPerWeek        = errors.New("invalid days per week")

	ErrInvalidTotalToday   = errors.New("invalid total today")
	ErrInvalidClassesToday = errors.New("invalid classes today")
	ErrExceedsTotal        = errors.New("classes exceed total")

	ErrInvalidPredictionValue = errors.New("invalid prediction value")
	ErrNoBaselineYet          = errors.New("no baseline yet")

	ErrInvalidStatus  = model.ErrInvalidStatus
	ErrInvalidUnit    = model.ErrInvalidUnit
	ErrUnknownSetting = errors.New("unknown setting")
)

// ValidationError is a user-facing failure of an engine command.
type ValidationError struct {
	Kind    error
	Message string
}

// Error returns the human-readable message.
func (e *ValidationError) Error() string {
	return e.Message
}

// Unwrap returns the error kind.
func (e *ValidationError) Unwrap() error {
	return e.Kind
}

func invalid(kind error, message string) *ValidationError {
	return &ValidationError{Kind: kind, Message: message}
}

// IsValidationError reports whether err is a user-facing validation failure.
func IsValidationError(err error) bool {
	var verr *ValidationError
	return errors.As(err, &verr)
}
