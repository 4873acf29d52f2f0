package input

import (
	"errors"
	"fmt"
)

// ErrorCode identifies the failure category of a mapping error
type ErrorCode int

const (
	CodeEntityNotFound ErrorCode = iota + 1
	CodeTypeMismatch
	CodeInvalidConfiguration
	CodeInvalidInput
)

// String returns the string representation of the error code
func (c ErrorCode) String() string {
	switch c {
	case CodeEntityNotFound:
		return "EntityNotFound"
	case CodeTypeMismatch:
		return "TypeMismatch"
	case CodeInvalidConfiguration:
		return "InvalidConfiguration"
	case CodeInvalidInput:
		return "InvalidInput"
	default:
		return "Unknown"
	}
}

// Sentinels matched by the typed errors through errors.Is
var (
	ErrEntityNotFound       = errors.New("entity not found")
	ErrTypeMismatch         = errors.New("type mismatch")
	ErrInvalidConfiguration = errors.New("invalid configuration")
	ErrInvalidInput         = errors.New("invalid input")
)

// EntityNotFoundError is returned when a FromEntity lookup finds nothing
type EntityNotFoundError struct {
	Entity string
	By     string
	Value  any
}

func (e *EntityNotFoundError) Error() string {
	return fmt.Sprintf("could not find entity '%s' by condition '%s = %v'", e.Entity, e.By, e.Value)
}

func (e *EntityNotFoundError) Is(target error) bool { return target == ErrEntityNotFound }
func (e *EntityNotFoundError) Code() ErrorCode      { return CodeEntityNotFound }

// TypeMismatchError is returned when a value does not have the shape an operation needs
type TypeMismatchError struct {
	Expected string
	Value    any
	Context  string
}

func (e *TypeMismatchError) Error() string {
	msg := fmt.Sprintf("expected %s, got %T", e.Expected, e.Value)
	if e.Context != "" {
		msg = e.Context + ": " + msg
	}
	return msg
}

func (e *TypeMismatchError) Is(target error) bool { return target == ErrTypeMismatch }
func (e *TypeMismatchError) Code() ErrorCode      { return CodeTypeMismatch }

// ConfigurationError reports misdeclared mapping metadata or collaborator wiring
type ConfigurationError struct {
	Msg string
	Err error
}

func (e *ConfigurationError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("invalid configuration: %s: %v", e.Msg, e.Err)
	}
	return "invalid configuration: " + e.Msg
}

func (e *ConfigurationError) Unwrap() error        { return e.Err }
func (e *ConfigurationError) Is(target error) bool { return target == ErrInvalidConfiguration }
func (e *ConfigurationError) Code() ErrorCode      { return CodeInvalidConfiguration }

// InvalidInputError is returned when a constructor rejects its input
type InvalidInputError struct {
	Type  string
	Value any
	Err   error
}

func (e *InvalidInputError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("invalid input %v for %s: %v", e.Value, e.Type, e.Err)
	}
	return fmt.Sprintf("invalid input %v for %s", e.Value, e.Type)
}

func (e *InvalidInputError) Unwrap() error        { return e.Err }
func (e *InvalidInputError) Is(target error) bool { return target == ErrInvalidInput }
func (e *InvalidInputError) Code() ErrorCode      { return CodeInvalidInput }

// FieldError attaches the target field name to an error raised while loading its value
type FieldError struct {
	Field string
	Err   error
}

func (e *FieldError) Error() string { return fmt.Sprintf("field %s: %v", e.Field, e.Err) }
func (e *FieldError) Unwrap() error { return e.Err }

// CodeOf returns the ErrorCode carried by err, or 0 when err is not a mapping error
func CodeOf(err error) ErrorCode {
	var coded interface{ Code() ErrorCode }
	if errors.As(err, &coded) {
		return coded.Code()
	}
	return 0
}

func configErrorf(format string, args ...any) *ConfigurationError {
	return &ConfigurationError{Msg: fmt.Sprintf(format, args...)}
}
