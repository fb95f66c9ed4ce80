package itemhash

import (
	"errors"
	"fmt"
)

// ErrInvalidHash matches every *InvalidHashError via errors.Is.
var ErrInvalidHash = errors.New("itemhash: invalid hash")

// InvalidHashError reports a malformed identity string.
type InvalidHashError struct {
	Input  string
	Reason string
	Cause  error
}

func (e *InvalidHashError) Error() string {
	if e == nil {
		return "<nil>"
	}
	if e.Input == "" {
		return fmt.Sprintf("itemhash: invalid hash: %s", e.Reason)
	}
	return fmt.Sprintf("itemhash: invalid hash %q: %s", e.Input, e.Reason)
}

func (e *InvalidHashError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Cause
}

func (e *InvalidHashError) Is(target error) bool { return target == ErrInvalidHash }

func invalid(input, reason string) error {
	return &InvalidHashError{Input: input, Reason: reason}
}
