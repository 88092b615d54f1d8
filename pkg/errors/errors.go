// Package errors provides the error taxonomy for the mixcut appearance
// model subsystem. Errors are structured types carrying the data a caller
// needs to react (class index, sample counts, matrix shapes), wrapped with
// stack traces via cockroachdb/errors and marshalable to zerolog events.
package errors

import (
	"fmt"

	"github.com/cockroachdb/errors"
	"github.com/rs/zerolog"
)

// ===========================================================================
//
//	Recoverable conditions
//
// ===========================================================================

// InsufficientDataError signals that a class does not have enough labeled
// samples to fit a mixture. It is the only recoverable condition in the
// taxonomy: the caller is expected to collect more annotation and retry,
// not to treat it as a program defect.
type InsufficientDataError struct {
	Class    int
	Samples  int
	Required int
}

func (e *InsufficientDataError) Error() string {
	return fmt.Sprintf("mixcut: class %d has %d labeled samples, need at least %d; add more annotation",
		e.Class, e.Samples, e.Required)
}

// MarshalZerologObject adds the structured condition to a zerolog event.
func (e *InsufficientDataError) MarshalZerologObject(event *zerolog.Event) {
	event.Int("class", e.Class).
		Int("samples", e.Samples).
		Int("required", e.Required).
		Str("type", "InsufficientDataError")
}

// NewInsufficientDataError creates an InsufficientDataError with a stack trace.
func NewInsufficientDataError(class, samples, required int) error {
	err := &InsufficientDataError{Class: class, Samples: samples, Required: required}
	return errors.WithStack(err)
}

// ===========================================================================
//
//	Fatal fitting conditions
//
// ===========================================================================

// OverfitError signals that a mixture component's responsibility mass
// collapsed below the overfit threshold during an M-step. The component is
// effectively unused and continuing would drive its covariance to a
// singularity; the fit must be re-run with different initialization or a
// smaller component count.
type OverfitError struct {
	Component int
	Mass      float64
	Threshold float64
}

func (e *OverfitError) Error() string {
	return fmt.Sprintf("mixcut: component %d responsibility mass %.3g collapsed below %.3g; reduce components or re-initialize",
		e.Component, e.Mass, e.Threshold)
}

// MarshalZerologObject adds the structured condition to a zerolog event.
func (e *OverfitError) MarshalZerologObject(event *zerolog.Event) {
	event.Int("component", e.Component).
		Float64("mass", e.Mass).
		Float64("threshold", e.Threshold).
		Str("type", "OverfitError")
}

// NewOverfitError creates an OverfitError with a stack trace.
func NewOverfitError(component int, mass, threshold float64) error {
	err := &OverfitError{Component: component, Mass: mass, Threshold: threshold}
	return errors.WithStack(err)
}

// NumericalError signals a degenerate numerical state: a covariance that
// lost positive-definiteness after an update, or a singular covariance at
// scoring time. Fatal; there is no internal retry.
type NumericalError struct {
	Op        string
	Class     int // -1 when not attributable to a class
	Component int // -1 when not attributable to a component
	Detail    string
}

func (e *NumericalError) Error() string {
	if e.Class >= 0 && e.Component >= 0 {
		return fmt.Sprintf("mixcut: %s: class %d component %d: %s", e.Op, e.Class, e.Component, e.Detail)
	}
	if e.Component >= 0 {
		return fmt.Sprintf("mixcut: %s: component %d: %s", e.Op, e.Component, e.Detail)
	}
	return fmt.Sprintf("mixcut: %s: %s", e.Op, e.Detail)
}

// MarshalZerologObject adds the structured condition to a zerolog event.
func (e *NumericalError) MarshalZerologObject(event *zerolog.Event) {
	event.Str("operation", e.Op).
		Int("class", e.Class).
		Int("component", e.Component).
		Str("detail", e.Detail).
		Str("type", "NumericalError")
}

// NewNumericalError creates a NumericalError with a stack trace.
func NewNumericalError(op string, class, component int, detail string) error {
	err := &NumericalError{Op: op, Class: class, Component: component, Detail: detail}
	return errors.WithStack(err)
}

// ===========================================================================
//
//	Configuration and caller errors
//
// ===========================================================================

// UnsupportedConfigError signals a configuration the subsystem has no
// defined behavior for, such as requesting more components than the
// initializer palette provides, or palette initialization on non-color
// feature spaces.
type UnsupportedConfigError struct {
	Param  string
	Reason string
	Value  interface{}
}

func (e *UnsupportedConfigError) Error() string {
	return fmt.Sprintf("mixcut: unsupported configuration for '%s': %s (got: %v)", e.Param, e.Reason, e.Value)
}

// MarshalZerologObject adds the structured condition to a zerolog event.
func (e *UnsupportedConfigError) MarshalZerologObject(event *zerolog.Event) {
	event.Str("param", e.Param).
		Str("reason", e.Reason).
		Interface("value", e.Value).
		Str("type", "UnsupportedConfigError")
}

// NewUnsupportedConfigError creates an UnsupportedConfigError with a stack trace.
func NewUnsupportedConfigError(param, reason string, value interface{}) error {
	err := &UnsupportedConfigError{Param: param, Reason: reason, Value: value}
	return errors.WithStack(err)
}

// DimensionError signals inconsistent shapes among inputs, or between
// inputs and a fitted model.
type DimensionError struct {
	Op       string
	Expected int
	Got      int
	Axis     int // 0 for rows/samples, 1 for columns/features
}

func (e *DimensionError) Error() string {
	axisName := "features"
	if e.Axis == 0 {
		axisName = "rows"
	}
	return fmt.Sprintf("mixcut: %s: dimension mismatch on axis %d (%s). Expected %d, got %d",
		e.Op, e.Axis, axisName, e.Expected, e.Got)
}

// MarshalZerologObject adds the structured condition to a zerolog event.
func (e *DimensionError) MarshalZerologObject(event *zerolog.Event) {
	event.Str("operation", e.Op).
		Int("expected", e.Expected).
		Int("got", e.Got).
		Int("axis", e.Axis).
		Str("type", "DimensionError")
}

// NewDimensionError creates a DimensionError with a stack trace.
func NewDimensionError(op string, expected, got, axis int) error {
	err := &DimensionError{Op: op, Expected: expected, Got: got, Axis: axis}
	return errors.WithStack(err)
}

// ValidationError signals that an input parameter failed validation.
type ValidationError struct {
	ParamName string
	Reason    string
	Value     interface{}
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("mixcut: validation failed for parameter '%s': %s (got: %v)", e.ParamName, e.Reason, e.Value)
}

// MarshalZerologObject adds the structured condition to a zerolog event.
func (e *ValidationError) MarshalZerologObject(event *zerolog.Event) {
	event.Str("param_name", e.ParamName).
		Str("reason", e.Reason).
		Interface("value", e.Value).
		Str("type", "ValidationError")
}

// NewValidationError creates a ValidationError with a stack trace.
func NewValidationError(param, reason string, value interface{}) error {
	err := &ValidationError{ParamName: param, Reason: reason, Value: value}
	return errors.WithStack(err)
}

// ===========================================================================
//
//	cockroachdb/errors wrappers
//
// ===========================================================================

// Is reports whether err matches the target error.
func Is(err, target error) bool {
	return errors.Is(err, target)
}

// As reports whether err can be assigned to the target type.
func As(err error, target interface{}) bool {
	return errors.As(err, target)
}

// Wrap wraps an existing error with a message.
func Wrap(err error, message string) error {
	return errors.Wrap(err, message)
}

// Wrapf wraps an existing error with a formatted message.
func Wrapf(err error, format string, args ...interface{}) error {
	return errors.Wrapf(err, format, args...)
}

// New creates a new error with a stack trace.
func New(message string) error {
	return errors.New(message)
}

// Newf creates a new formatted error with a stack trace.
func Newf(format string, args ...interface{}) error {
	return errors.Newf(format, args...)
}

// WithStack annotates an error with a stack trace.
func WithStack(err error) error {
	return errors.WithStack(err)
}

// ===========================================================================
//
//	Common error variables
//
// ===========================================================================

var (
	// ErrEmptyData is returned when an empty sample matrix is passed in.
	ErrEmptyData = New("empty data")

	// ErrSingularMatrix is returned when a covariance cannot be factorized.
	ErrSingularMatrix = New("singular matrix")
)
