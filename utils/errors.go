package utils

import (
	"github.com/pkg/errors"
)

var (
	// ErrConfiguration marks invalid planner parameters or a missing required input. Configuration
	// errors are fatal at setup time.
	ErrConfiguration = errors.New("invalid configuration")

	// ErrInput marks malformed primitives or scenario files. Input errors are fatal at load time.
	ErrInput = errors.New("invalid input")
)

// NewConfigurationError wraps ErrConfiguration with a formatted reason.
func NewConfigurationError(format string, args ...interface{}) error {
	return errors.Wrapf(ErrConfiguration, format, args...)
}

// NewInputError wraps ErrInput with a formatted reason.
func NewInputError(format string, args ...interface{}) error {
	return errors.Wrapf(ErrInput, format, args...)
}

// NewUnexpectedTypeError is used when there is a type mismatch.
func NewUnexpectedTypeError(expected interface{}, actual interface{}) error {
	return errors.Errorf("expected %T but got %T", expected, actual)
}
