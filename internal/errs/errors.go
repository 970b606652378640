// Package errs holds the error taxonomy shared by the progress and quiz
// engines.
package errs

import "fmt"

// ConfigurationError reports malformed reference data: a section weight
// that is not positive, an unknown section kind, a quiz with no questions.
// It is a programmer or content-authoring error and is never retried.
type ConfigurationError struct {
	Field  string
	Reason string
	Err    error
}

func (e *ConfigurationError) Error() string {
	msg := "configuration error"
	if e.Field != "" {
		msg += fmt.Sprintf(" (%s)", e.Field)
	}
	if e.Reason != "" {
		msg += ": " + e.Reason
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *ConfigurationError) Unwrap() error { return e.Err }

// Configf builds a ConfigurationError for a field.
func Configf(field, format string, args ...any) *ConfigurationError {
	return &ConfigurationError{Field: field, Reason: fmt.Sprintf(format, args...)}
}

// TransientSyncError wraps a failed remote call (progress sync or attempt
// submission). The wrapped reason is opaque: callers must not inspect it
// for transport-specific types.
type TransientSyncError struct {
	Op  string
	Err error
}

func (e *TransientSyncError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("%s failed", e.Op)
	}
	return fmt.Sprintf("%s failed: %v", e.Op, e.Err)
}

func (e *TransientSyncError) Unwrap() error { return e.Err }
