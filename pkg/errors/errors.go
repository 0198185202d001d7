package errors

import (
	"fmt"
)

// ParseError represents a YAML parsing failure with optional line metadata.
type ParseError struct {
	Path    string
	Line    int
	Message string
	Err     error
}

// NewParseError constructs a ParseError.
func NewParseError(path string, line int, err error) error {
	message := ""
	if err != nil {
		message = err.Error()
	}
	return &ParseError{Path: path, Line: line, Message: message, Err: err}
}

func (e *ParseError) Error() string {
	if e == nil {
		return ""
	}
	if e.Line > 0 {
		return fmt.Sprintf("parse error: %s:%d: %s", e.Path, e.Line, e.Message)
	}
	return fmt.Sprintf("parse error: %s: %s", e.Path, e.Message)
}

// Unwrap exposes the underlying error.
func (e *ParseError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// ValidationError captures configuration validation issues.
type ValidationError struct {
	Field   string
	Message string
	Err     error
}

// NewValidationError constructs a ValidationError.
func NewValidationError(field, message string, err error) error {
	return &ValidationError{Field: field, Message: message, Err: err}
}

func (e *ValidationError) Error() string {
	if e == nil {
		return ""
	}
	if e.Field != "" {
		return fmt.Sprintf("validation error: %s: %s", e.Field, e.Message)
	}
	return fmt.Sprintf("validation error: %s", e.Message)
}

// Unwrap exposes the underlying error.
func (e *ValidationError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// PrecheckError indicates an ERROR-severity prerequisite check. It blocks
// every mutating phase of the run that raised it.
type PrecheckError struct {
	CheckID string
	Message string
	Err     error
}

// NewPrecheckError constructs a PrecheckError for a failed check.
func NewPrecheckError(checkID, message string, err error) error {
	return &PrecheckError{CheckID: checkID, Message: message, Err: err}
}

func (e *PrecheckError) Error() string {
	if e == nil {
		return ""
	}
	if e.CheckID != "" {
		return fmt.Sprintf("precheck failed [%s]: %s", e.CheckID, e.Message)
	}
	return fmt.Sprintf("precheck failed: %s", e.Message)
}

// Unwrap exposes the underlying error.
func (e *PrecheckError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// DetectionError reports an unreadable component probe. Detection degrades
// to Absent on this error and never escalates silently.
type DetectionError struct {
	Component string
	Err       error
}

// NewDetectionError constructs a DetectionError.
func NewDetectionError(component string, err error) error {
	return &DetectionError{Component: component, Err: err}
}

func (e *DetectionError) Error() string {
	if e == nil {
		return ""
	}
	return fmt.Sprintf("detection error for %s: %v", e.Component, e.Err)
}

// Unwrap exposes the underlying error.
func (e *DetectionError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// BackupError is fatal for the run that raised it: no mutation proceeds
// without a verified snapshot when one is required.
type BackupError struct {
	Component string
	Err       error
}

// NewBackupError constructs a BackupError.
func NewBackupError(component string, err error) error {
	return &BackupError{Component: component, Err: err}
}

func (e *BackupError) Error() string {
	if e == nil {
		return ""
	}
	return fmt.Sprintf("backup error for %s: %v", e.Component, e.Err)
}

// Unwrap exposes the underlying error.
func (e *BackupError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// ApplyError represents a runtime failure while applying an install plan
// step. Partial mutation is assumed possible; recovery is delegated to the
// rollback controller, never to in-place retries.
type ApplyError struct {
	Component string
	Step      string
	Err       error
}

// NewApplyError constructs an ApplyError.
func NewApplyError(component, step string, err error) error {
	return &ApplyError{Component: component, Step: step, Err: err}
}

func (e *ApplyError) Error() string {
	if e == nil {
		return ""
	}
	if e.Step != "" {
		return fmt.Sprintf("apply error on %s step %s: %v", e.Component, e.Step, e.Err)
	}
	return fmt.Sprintf("apply error on %s: %v", e.Component, e.Err)
}

// Unwrap exposes the root error.
func (e *ApplyError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// VerifyError records a failed verification. Timeout distinguishes "the
// probe never answered within budget" from an active unhealthy report;
// both are rollback-eligible.
type VerifyError struct {
	Component string
	Timeout   bool
	Detail    string
}

// NewVerifyError constructs a VerifyError.
func NewVerifyError(component string, timeout bool, detail string) error {
	return &VerifyError{Component: component, Timeout: timeout, Detail: detail}
}

func (e *VerifyError) Error() string {
	if e == nil {
		return ""
	}
	if e.Timeout {
		return fmt.Sprintf("verification of %s timed out: %s", e.Component, e.Detail)
	}
	return fmt.Sprintf("verification of %s reported unhealthy: %s", e.Component, e.Detail)
}

// RollbackError is terminal: the engine never attempts a nested rollback
// of a rollback, so this always means manual recovery.
type RollbackError struct {
	Component string
	Location  string
	Err       error
}

// NewRollbackError constructs a RollbackError.
func NewRollbackError(component, location string, err error) error {
	return &RollbackError{Component: component, Location: location, Err: err}
}

func (e *RollbackError) Error() string {
	if e == nil {
		return ""
	}
	if e.Location != "" {
		return fmt.Sprintf("rollback error for %s (backup at %s): %v", e.Component, e.Location, e.Err)
	}
	return fmt.Sprintf("rollback error for %s: %v", e.Component, e.Err)
}

// Unwrap exposes the underlying error.
func (e *RollbackError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// ExecutorError indicates issues within executor registration or lookup.
type ExecutorError struct {
	Executor string
	Message  string
	Err      error
}

// NewExecutorError constructs an ExecutorError for the given component type.
func NewExecutorError(executor string, err error) error {
	message := ""
	if err != nil {
		message = err.Error()
	}
	return &ExecutorError{Executor: executor, Message: message, Err: err}
}

func (e *ExecutorError) Error() string {
	if e == nil {
		return ""
	}
	if e.Executor != "" {
		return fmt.Sprintf("executor error [%s]: %s", e.Executor, e.Message)
	}
	return fmt.Sprintf("executor error: %s", e.Message)
}

// Unwrap exposes the underlying error.
func (e *ExecutorError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}
