package utils

import "fmt"

// FormatError reports a value that could not be interpreted in the expected chain format
// (malformed address, bad hex word, unexpected sibling instruction, ...).
type FormatError struct {
	Op    string // operation that failed, e.g. "unpad evm address"
	Value string // offending input, rendered for logs
	Err   error
}

func (e *FormatError) Error() string {
	return fmt.Sprintf("%s: invalid value %q: %v", e.Op, e.Value, e.Err)
}

func (e *FormatError) Unwrap() error { return e.Err }

func newFormatError(op, value string, format string, args ...interface{}) *FormatError {
	return &FormatError{Op: op, Value: value, Err: fmt.Errorf(format, args...)}
}

// SiblingNotFoundError is returned when a Solana instruction's companion instruction
// (usually the token transfer carrying the amount) is not within its scan window.
type SiblingNotFoundError struct {
	FormatError
	Want   []string
	Window int
}

// NewSiblingNotFoundError builds the error for the instruction at index.
func NewSiblingNotFoundError(instruction string, index, window int, want []string) *SiblingNotFoundError {
	return &SiblingNotFoundError{
		FormatError: FormatError{
			Op:    "find sibling instruction",
			Value: fmt.Sprintf("%s#%d", instruction, index),
			Err:   fmt.Errorf("none of %v within %d instructions", want, window),
		},
		Want:   want,
		Window: window,
	}
}

// Unwrap exposes the embedded FormatError so errors.As matches either type.
func (e *SiblingNotFoundError) Unwrap() error { return &e.FormatError }
