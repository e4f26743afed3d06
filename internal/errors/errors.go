// Package errors provides centralized error definitions and error handling
// utilities for the sessionizer codebase. It defines the error taxonomy that
// maps onto process exit codes, error constructors with context wrapping, and
// classification helpers.
//
// # Error Types
//
// Each fatal condition belongs to exactly one taxonomy type:
//   - UsageError: invalid flags or arguments (exit 2)
//   - DependencyError: a required external tool is missing or too old (exit 3)
//   - ConfigError: no usable directories, empty index, unnameable or
//     vanished selection (exit 4)
//   - BackendError: a tmux create/attach/query call failed (exit 5)
//   - Interrupted: the user cancelled interactive selection (exit 130,
//     success-shaped: no diagnostic output)
//
// # Usage
//
// Creating errors:
//
//	err := errors.NewConfigError("no valid directories", nil).WithAttempted(attempted)
//	err := errors.NewDependencyError("tmux", "brew install tmux / apt install tmux")
//
// Checking errors:
//
//	if errors.Is(err, errors.ErrInterrupted) { ... }
//	var cfgErr *errors.ConfigError
//	if errors.As(err, &cfgErr) { ... }
//	os.Exit(errors.ExitCode(err))
package errors

import (
	"errors"
	"fmt"
	"strings"
)

// Re-export standard library functions for convenience.
// This allows callers to import only this package for all error handling.
var (
	Is     = errors.Is
	As     = errors.As
	Unwrap = errors.Unwrap
	New    = errors.New
	Join   = errors.Join
)

// Exit codes for the sessionizer CLI.
const (
	ExitOK          = 0
	ExitGeneral     = 1
	ExitUsage       = 2
	ExitDependency  = 3
	ExitConfig      = 4
	ExitBackend     = 5
	ExitInterrupted = 130
)

// Sentinel errors for common conditions.
var (
	// ErrInterrupted indicates the user cancelled interactive selection.
	ErrInterrupted = New("selection interrupted")
	// ErrNoDirectories indicates that no usable search directories remain.
	ErrNoDirectories = New("no valid directories")
	// ErrEmptyIndex indicates that discovery produced no candidates at all.
	ErrEmptyIndex = New("no directories found")
	// ErrEmptyName indicates a directory basename sanitized to nothing.
	ErrEmptyName = New("session name empty after sanitization")
	// ErrCollisionLimit indicates every naming strategy was exhausted.
	ErrCollisionLimit = New("session name collision limit reached")
	// ErrSelectionVanished indicates the chosen directory disappeared or
	// lost access between indexing and naming.
	ErrSelectionVanished = New("selected directory no longer accessible")
)

// baseError provides common functionality for the taxonomy types.
type baseError struct {
	message string
	cause   error
}

func (e *baseError) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %v", e.message, e.cause)
	}
	return e.message
}

func (e *baseError) Unwrap() error {
	return e.cause
}

func (e *baseError) Is(target error) bool {
	if e.cause != nil {
		return errors.Is(e.cause, target)
	}
	return false
}

// UsageError represents invalid command-line usage.
type UsageError struct {
	baseError
	Flag string
}

// NewUsageError creates a new UsageError.
func NewUsageError(message string, cause error) *UsageError {
	return &UsageError{baseError: baseError{message: message, cause: cause}}
}

// WithFlag adds the offending flag to the error context.
func (e *UsageError) WithFlag(flag string) *UsageError {
	e.Flag = flag
	return e
}

// Error returns the formatted error message.
func (e *UsageError) Error() string {
	prefix := "usage error"
	if e.Flag != "" {
		prefix = fmt.Sprintf("usage error [flag=%s]", e.Flag)
	}
	if e.cause != nil {
		return fmt.Sprintf("%s: %s: %v", prefix, e.message, e.cause)
	}
	return fmt.Sprintf("%s: %s", prefix, e.message)
}

// Is checks if this error matches the target.
func (e *UsageError) Is(target error) bool {
	if _, ok := target.(*UsageError); ok {
		return true
	}
	return e.baseError.Is(target)
}

// DependencyError represents a required external tool that is missing or
// below the minimum supported version.
type DependencyError struct {
	baseError
	Tool    string
	Install string
}

// NewDependencyError creates a new DependencyError. The install string is
// shown to the user as guidance and should name a package manager command.
func NewDependencyError(tool, install string) *DependencyError {
	return &DependencyError{
		baseError: baseError{message: fmt.Sprintf("required tool %q not found", tool)},
		Tool:      tool,
		Install:   install,
	}
}

// WithCause adds a cause to the error.
func (e *DependencyError) WithCause(cause error) *DependencyError {
	e.cause = cause
	return e
}

// WithMessage overrides the default message (e.g. for version failures).
func (e *DependencyError) WithMessage(message string) *DependencyError {
	e.message = message
	return e
}

// Error returns the formatted error message including install guidance.
func (e *DependencyError) Error() string {
	msg := e.message
	if e.cause != nil {
		msg = fmt.Sprintf("%s: %v", msg, e.cause)
	}
	if e.Install != "" {
		msg = fmt.Sprintf("%s (install with: %s)", msg, e.Install)
	}
	return fmt.Sprintf("dependency error [tool=%s]: %s", e.Tool, msg)
}

// Is checks if this error matches the target.
func (e *DependencyError) Is(target error) bool {
	if _, ok := target.(*DependencyError); ok {
		return true
	}
	return e.baseError.Is(target)
}

// ConfigError represents a configuration or directory resolution failure.
// It always carries the list of attempted sources for diagnosis.
type ConfigError struct {
	baseError
	Source    string
	Attempted []string
}

// NewConfigError creates a new ConfigError.
func NewConfigError(message string, cause error) *ConfigError {
	return &ConfigError{baseError: baseError{message: message, cause: cause}}
}

// WithSource records which configuration tier produced the failure.
func (e *ConfigError) WithSource(source string) *ConfigError {
	e.Source = source
	return e
}

// WithAttempted records the directories that were tried and rejected.
func (e *ConfigError) WithAttempted(attempted []string) *ConfigError {
	e.Attempted = attempted
	return e
}

// Error returns the formatted error message including attempted entries.
func (e *ConfigError) Error() string {
	prefix := "config error"
	if e.Source != "" {
		prefix = fmt.Sprintf("config error [source=%s]", e.Source)
	}
	msg := e.message
	if e.cause != nil {
		msg = fmt.Sprintf("%s: %v", msg, e.cause)
	}
	if len(e.Attempted) > 0 {
		msg = fmt.Sprintf("%s (attempted: %s)", msg, strings.Join(e.Attempted, ", "))
	}
	return fmt.Sprintf("%s: %s", prefix, msg)
}

// Is checks if this error matches the target.
func (e *ConfigError) Is(target error) bool {
	if _, ok := target.(*ConfigError); ok {
		return true
	}
	return e.baseError.Is(target)
}

// BackendError represents a failed call against the tmux backend.
type BackendError struct {
	baseError
	Session   string
	Operation string
	Output    string // Captured tmux command output
}

// NewBackendError creates a new BackendError.
func NewBackendError(message string, cause error) *BackendError {
	return &BackendError{baseError: baseError{message: message, cause: cause}}
}

// WithSession adds a session name to the error context.
func (e *BackendError) WithSession(name string) *BackendError {
	e.Session = name
	return e
}

// WithOperation adds the backend operation to the error context.
func (e *BackendError) WithOperation(op string) *BackendError {
	e.Operation = op
	return e
}

// WithOutput adds captured tmux output to the error context.
func (e *BackendError) WithOutput(output string) *BackendError {
	e.Output = strings.TrimSpace(output)
	return e
}

// Error returns the formatted error message.
func (e *BackendError) Error() string {
	var parts []string
	if e.Operation != "" {
		parts = append(parts, fmt.Sprintf("op=%s", e.Operation))
	}
	if e.Session != "" {
		parts = append(parts, fmt.Sprintf("session=%s", e.Session))
	}

	prefix := "backend error"
	if len(parts) > 0 {
		prefix = fmt.Sprintf("backend error [%s]", strings.Join(parts, ", "))
	}

	msg := e.message
	if e.cause != nil {
		msg = fmt.Sprintf("%s: %v", msg, e.cause)
	}
	if e.Output != "" {
		msg = fmt.Sprintf("%s\ntmux output: %s", msg, e.Output)
	}
	return fmt.Sprintf("%s: %s", prefix, msg)
}

// Is checks if this error matches the target.
func (e *BackendError) Is(target error) bool {
	if _, ok := target.(*BackendError); ok {
		return true
	}
	return e.baseError.Is(target)
}

// ExitCode maps an error onto the process exit code for the CLI.
// A nil error maps to ExitOK; unclassified errors map to ExitGeneral.
func ExitCode(err error) int {
	if err == nil {
		return ExitOK
	}
	if Is(err, ErrInterrupted) {
		return ExitInterrupted
	}

	var usageErr *UsageError
	if As(err, &usageErr) {
		return ExitUsage
	}
	var depErr *DependencyError
	if As(err, &depErr) {
		return ExitDependency
	}
	var cfgErr *ConfigError
	if As(err, &cfgErr) {
		return ExitConfig
	}
	var backendErr *BackendError
	if As(err, &backendErr) {
		return ExitBackend
	}
	return ExitGeneral
}

// IsInterrupted reports whether the error represents user cancellation.
// Interrupted errors are success-shaped: they terminate the run without
// diagnostic output.
func IsInterrupted(err error) bool {
	return Is(err, ErrInterrupted)
}

// Wrap wraps an error with additional context message.
//
// Example:
//
//	err := errors.Wrap(baseErr, "failed to build index")
func Wrap(err error, message string) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", message, err)
}

// Wrapf wraps an error with a formatted context message.
func Wrapf(err error, format string, args ...any) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", fmt.Sprintf(format, args...), err)
}
