// Package fault defines the error taxonomy shared by the application
// services and mapped to HTTP status codes at the transport boundary.
package fault

import "fmt"

// ValidationError rejects malformed or missing input before any I/O happens.
type ValidationError struct {
	Msg string
}

func (e *ValidationError) Error() string { return e.Msg }

// Validation builds a ValidationError from a format string.
func Validation(format string, args ...interface{}) *ValidationError {
	return &ValidationError{Msg: fmt.Sprintf(format, args...)}
}

// NotFoundError reports a missing source file, job id, or stored file.
type NotFoundError struct {
	Msg string
}

func (e *NotFoundError) Error() string { return e.Msg }

// NotFound builds a NotFoundError from a format string.
func NotFound(format string, args ...interface{}) *NotFoundError {
	return &NotFoundError{Msg: fmt.Sprintf(format, args...)}
}

// ProcessError reports a subprocess that could not be started or exited
// nonzero. ExitCode is nil when the process never started. Detail carries
// the tool's trailing diagnostic output.
type ProcessError struct {
	ExitCode *int
	Detail   string
}

func (e *ProcessError) Error() string {
	if e.ExitCode != nil {
		return fmt.Sprintf("process exited with code %d: %s", *e.ExitCode, e.Detail)
	}
	return "process failed to start: " + e.Detail
}

// ExternalServiceError reports a failed or unparseable response from an
// external service call.
type ExternalServiceError struct {
	Msg string
	Err error
}

func (e *ExternalServiceError) Error() string {
	if e.Err != nil {
		return e.Msg + ": " + e.Err.Error()
	}
	return e.Msg
}

func (e *ExternalServiceError) Unwrap() error { return e.Err }

// FilesystemError reports a missing expected output or a failed read/delete.
type FilesystemError struct {
	Msg string
	Err error
}

func (e *FilesystemError) Error() string {
	if e.Err != nil {
		return e.Msg + ": " + e.Err.Error()
	}
	return e.Msg
}

func (e *FilesystemError) Unwrap() error { return e.Err }
