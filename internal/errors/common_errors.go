package errors

import (
	"fmt"
)

// ErrorType represents the type of error
type ErrorType string

const (
	ErrTypeMissingFile ErrorType = "MISSING_FILE"
	ErrTypeFormat      ErrorType = "FORMAT"
	ErrTypeValidation  ErrorType = "VALIDATION"
	ErrTypeConfig      ErrorType = "CONFIG"
	ErrTypeStorage     ErrorType = "STORAGE"
	ErrTypeRender      ErrorType = "RENDER"
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

// Is matches any AppError of the same type, so callers can test against the
// sentinel values below.
func (e *AppError) Is(target error) bool {
	t, ok := target.(*AppError)
	if !ok {
		return false
	}
	return t.Type == e.Type
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

// Sentinels for errors.Is. They carry no message and must not be returned directly.
var (
	ErrMissingFile = &AppError{Type: ErrTypeMissingFile}
	ErrFormat      = &AppError{Type: ErrTypeFormat}
	ErrValidation  = &AppError{Type: ErrTypeValidation}
	ErrConfig      = &AppError{Type: ErrTypeConfig}
	ErrStorage     = &AppError{Type: ErrTypeStorage}
	ErrRender      = &AppError{Type: ErrTypeRender}
)

// NewMissingFileError reports an input path that does not resolve to a file.
func NewMissingFileError(path string, cause error) *AppError {
	return NewAppError(ErrTypeMissingFile, fmt.Sprintf("file not found: %s", path), cause).
		WithContext("path", path)
}

// NewFormatError reports an input file whose structure does not match the
// expected export layout.
func NewFormatError(message string, cause error) *AppError {
	return NewAppError(ErrTypeFormat, message, cause)
}

// NewValidationError reports labels or values outside the declared configuration.
func NewValidationError(message string) *AppError {
	return NewAppError(ErrTypeValidation, message, nil)
}

// NewConfigError creates a configuration error
func NewConfigError(message string, cause error) *AppError {
	return NewAppError(ErrTypeConfig, message, cause)
}

// NewStorageError creates a storage-related error
func NewStorageError(message string, cause error) *AppError {
	return NewAppError(ErrTypeStorage, message, cause)
}

// NewRenderError reports a chart that could not be drawn or encoded.
func NewRenderError(message string, cause error) *AppError {
	return NewAppError(ErrTypeRender, message, cause)
}
