package errors

import (
	"errors"
	"fmt"
)

// Relay-side error types
var (
	// ErrInvalidRequest wraps body decode and validation failures.
	ErrInvalidRequest = errors.New("invalid request")

	// ErrUpstreamUnavailable means the provider could not be reached or its
	// response could not be read.
	ErrUpstreamUnavailable = errors.New("upstream unavailable")
)

// Wrapf wraps an error with context using fmt.Errorf
func Wrapf(err error, format string, args ...interface{}) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf(format+": %w", append(args, err)...)
}

// Is reports whether any error in err's chain matches target
func Is(err, target error) bool {
	return errors.Is(err, target)
}

// As finds the first error in err's chain that matches target
func As(err error, target interface{}) bool {
	return errors.As(err, target)
}
