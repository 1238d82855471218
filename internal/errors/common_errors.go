package errors

import (
	stderrors "errors"
	"fmt"
)

// ErrorType represents the type of error
type ErrorType string

const (
	ErrTypeLoad        ErrorType = "LOAD"
	ErrTypeSchema      ErrorType = "SCHEMA"
	ErrTypeComputation ErrorType = "COMPUTATION"
	ErrTypeConfig      ErrorType = "CONFIG"
	ErrTypeExport      ErrorType = "EXPORT"
	ErrTypeValidation  ErrorType = "VALIDATION"
)

// AppError represents an application-specific error
type AppError struct {
	Type    ErrorType
	Message string
	Cause   error
	Context map[string]interface{}
}

// Error implements the error interface
func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Type, e.Message, e.Cause)
	}
	return fmt.Sprintf("[%s] %s", e.Type, e.Message)
}

// Unwrap allows errors.Is and errors.As to work with AppError
func (e *AppError) Unwrap() error {
	return e.Cause
}

// WithContext adds context to the error
func (e *AppError) WithContext(key string, value interface{}) *AppError {
	if e.Context == nil {
		e.Context = make(map[string]interface{})
	}
	e.Context[key] = value
	return e
}

// NewAppError creates a new application error
func NewAppError(errType ErrorType, message string, cause error) *AppError {
	return &AppError{
		Type:    errType,
		Message: message,
		Cause:   cause,
		Context: make(map[string]interface{}),
	}
}

// NewLoadError reports a source file that could not be read as a usable spreadsheet.
func NewLoadError(path, message string, cause error) *AppError {
	return NewAppError(ErrTypeLoad, message, cause).WithContext("path", path)
}

// NewSchemaError reports required columns absent from a dataset. The message
// always carries the complete missing set and every available column.
func NewSchemaError(dataset string, missing, available []string) *AppError {
	msg := fmt.Sprintf("%s is missing required columns: %q; available columns: %q", dataset, missing, available)
	return NewAppError(ErrTypeSchema, msg, nil).
		WithContext("dataset", dataset).
		WithContext("missing", missing).
		WithContext("available", available)
}

// NewComputationError reports a defect detected while computing derived values.
func NewComputationError(message string) *AppError {
	return NewAppError(ErrTypeComputation, message, nil)
}

// NewConfigError creates a configuration error
func NewConfigError(message string, cause error) *AppError {
	return NewAppError(ErrTypeConfig, message, cause)
}

// NewExportError reports a failure writing the output report.
func NewExportError(path, message string, cause error) *AppError {
	return NewAppError(ErrTypeExport, message, cause).WithContext("path", path)
}

// NewAppValidationError creates a validation error for AppError type
func NewAppValidationError(message string) *AppError {
	return NewAppError(ErrTypeValidation, message, nil)
}

// IsType reports whether err wraps an AppError of the given type.
func IsType(err error, errType ErrorType) bool {
	var appErr *AppError
	if stderrors.As(err, &appErr) {
		return appErr.Type == errType
	}
	return false
}
