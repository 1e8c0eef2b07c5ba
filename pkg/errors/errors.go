// Package errors provides custom error types for the akahusync system.
// These errors separate fatal configuration/persistence failures from
// recoverable matching failures and enable programmatic error checking
// throughout the application.
package errors

import (
	"errors"
	"fmt"
)

// New returns an error that formats as the given text.
// It's an alias for the standard library errors.New for convenience.
var New = errors.New

// Common sentinel errors for the akahusync system
var (
	// ErrNotFound indicates that a requested resource was not found
	ErrNotFound = errors.New("not found")

	// ErrAlreadyMapped indicates that a target account is already bound
	// to a different aggregator account
	ErrAlreadyMapped = errors.New("already mapped")

	// ErrInvalidInput indicates that provided input was invalid
	ErrInvalidInput = errors.New("invalid input")

	// ErrNoMatch indicates that no acceptable match candidate was found
	ErrNoMatch = errors.New("no match")

	// ErrPlatformUnavailable indicates that a platform API is temporarily unavailable
	ErrPlatformUnavailable = errors.New("platform unavailable")

	// ErrRunInProgress indicates that a reconciliation run is already executing
	ErrRunInProgress = errors.New("run in progress")

	// ErrTimeout indicates that an operation timed out
	ErrTimeout = errors.New("operation timed out")
)

// ConfigError represents a configuration error. Configuration errors are
// fatal at startup: the process must not proceed without valid credentials
// and at least one enabled sync target.
type ConfigError struct {
	Component string
	Message   string
	Err       error
}

// Error implements the error interface
func (e *ConfigError) Error() string {
	if e.Component != "" {
		return fmt.Sprintf("configuration error in %s: %s", e.Component, e.Message)
	}
	return fmt.Sprintf("configuration error: %s", e.Message)
}

// Unwrap implements errors.Unwrap
func (e *ConfigError) Unwrap() error {
	return e.Err
}

// NewConfigError creates a new ConfigError
func NewConfigError(component, message string, err error) *ConfigError {
	return &ConfigError{Component: component, Message: message, Err: err}
}

// APIError represents an error from a platform API. A failed account fetch
// aborts the current run: reconciling against a partial snapshot would
// produce false "removed" determinations.
type APIError struct {
	Platform   string
	StatusCode int
	Message    string
	Endpoint   string
	Err        error
}

// Error implements the error interface
func (e *APIError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("API error from %s (status %d): %s", e.Platform, e.StatusCode, e.Message)
	}
	return fmt.Sprintf("API error from %s: %s", e.Platform, e.Message)
}

// Unwrap implements errors.Unwrap
func (e *APIError) Unwrap() error {
	return e.Err
}

// Is implements errors.Is support
func (e *APIError) Is(target error) bool {
	if e.StatusCode >= 500 {
		return target == ErrPlatformUnavailable
	}
	return false
}

// NewAPIError creates a new APIError
func NewAPIError(platform string, statusCode int, message string) *APIError {
	return &APIError{
		Platform:   platform,
		StatusCode: statusCode,
		Message:    message,
	}
}

// StoreError represents a failure to load or persist the mapping document.
// Load failures on an existing document are fatal (proceeding would risk
// losing confirmed mappings); save failures mean the run must not report
// success.
type StoreError struct {
	Operation string // "load", "save"
	Path      string
	Message   string
	Err       error
}

// Error implements the error interface
func (e *StoreError) Error() string {
	if e.Path != "" {
		return fmt.Sprintf("mapping store %s failed for %s: %s", e.Operation, e.Path, e.Message)
	}
	return fmt.Sprintf("mapping store %s failed: %s", e.Operation, e.Message)
}

// Unwrap implements errors.Unwrap
func (e *StoreError) Unwrap() error {
	return e.Err
}

// NewStoreError creates a new StoreError
func NewStoreError(operation, path string, err error) *StoreError {
	message := ""
	if err != nil {
		message = err.Error()
	}
	return &StoreError{Operation: operation, Path: path, Message: message, Err: err}
}

// MatchError represents a recoverable failure of matching assistance
// (disambiguation service error, prompter unavailable). The run degrades
// and continues; it never aborts on a MatchError.
type MatchError struct {
	AccountID string
	Platform  string
	Message   string
	Err       error
}

// Error implements the error interface
func (e *MatchError) Error() string {
	if e.AccountID != "" {
		return fmt.Sprintf("match error for account %s on %s: %s", e.AccountID, e.Platform, e.Message)
	}
	return fmt.Sprintf("match error on %s: %s", e.Platform, e.Message)
}

// Unwrap implements errors.Unwrap
func (e *MatchError) Unwrap() error {
	return e.Err
}

// Is implements errors.Is support
func (e *MatchError) Is(target error) bool {
	return target == ErrNoMatch
}

// SyncError represents an error during transaction sync operations
type SyncError struct {
	Platform string
	Accounts []string
	Err      error
}

// Error implements the error interface
func (e *SyncError) Error() string {
	if len(e.Accounts) > 0 {
		return fmt.Sprintf("sync error for platform %s (affected accounts: %v): %v", e.Platform, e.Accounts, e.Err)
	}
	return fmt.Sprintf("sync error for platform %s: %v", e.Platform, e.Err)
}

// Unwrap implements errors.Unwrap
func (e *SyncError) Unwrap() error {
	return e.Err
}

// ValidationError represents a validation failure
type ValidationError struct {
	Field   string
	Value   interface{}
	Message string
}

// Error implements the error interface
func (e *ValidationError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("validation failed for field %s: %s", e.Field, e.Message)
	}
	return fmt.Sprintf("validation failed: %s", e.Message)
}

// Is implements errors.Is support
func (e *ValidationError) Is(target error) bool {
	return target == ErrInvalidInput
}

// ParseError represents an error when parsing data formats
type ParseError struct {
	Format  string // "json", "yaml"
	File    string
	Message string
	Err     error
}

// Error implements the error interface
func (e *ParseError) Error() string {
	if e.File != "" {
		return fmt.Sprintf("parse error in %s file %s: %s", e.Format, e.File, e.Message)
	}
	return fmt.Sprintf("%s parse error: %s", e.Format, e.Message)
}

// Unwrap implements errors.Unwrap
func (e *ParseError) Unwrap() error {
	return e.Err
}

// IOError represents an error during I/O operations
type IOError struct {
	Operation string // "read", "write", "create", "rename"
	Path      string
	Message   string
	Err       error
}

// Error implements the error interface
func (e *IOError) Error() string {
	if e.Path != "" {
		return fmt.Sprintf("IO error during %s of %s: %s", e.Operation, e.Path, e.Message)
	}
	return fmt.Sprintf("IO error during %s: %s", e.Operation, e.Message)
}

// Unwrap implements errors.Unwrap
func (e *IOError) Unwrap() error {
	return e.Err
}

// NewIOError creates a new IOError
func NewIOError(operation, path string, err error) *IOError {
	message := ""
	if err != nil {
		message = err.Error()
	}
	return &IOError{Operation: operation, Path: path, Message: message, Err: err}
}

// Helper functions for error checking

// IsNotFound checks if an error is a not found error
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// IsNoMatch checks if an error is a no-match outcome
func IsNoMatch(err error) bool {
	return errors.Is(err, ErrNoMatch)
}

// IsPlatformUnavailable checks if an error indicates platform unavailability
func IsPlatformUnavailable(err error) bool {
	return errors.Is(err, ErrPlatformUnavailable)
}

// IsRunInProgress checks if an error indicates a run is already executing
func IsRunInProgress(err error) bool {
	return errors.Is(err, ErrRunInProgress)
}

// Helper wrapping functions for common patterns

// WrapIO wraps an error as an IOError
func WrapIO(operation, path string, err error) error {
	if err == nil {
		return nil
	}
	return NewIOError(operation, path, err)
}

// WrapParse wraps an error as a ParseError
func WrapParse(format, file string, err error) error {
	if err == nil {
		return nil
	}
	return &ParseError{Format: format, File: file, Message: err.Error(), Err: err}
}

// WrapAPI wraps an error as an APIError
func WrapAPI(platform string, statusCode int, err error) error {
	if err == nil {
		return nil
	}
	return &APIError{
		Platform:   platform,
		StatusCode: statusCode,
		Message:    err.Error(),
		Err:        err,
	}
}
