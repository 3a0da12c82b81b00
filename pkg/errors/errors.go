package errors

import (
	"errors"
	"fmt"
)

// ErrorCode represents a unique error code for stable testing
type ErrorCode string

// Error codes for different error categories
const (
	// General errors
	ErrUnknown      ErrorCode = "UNKNOWN"
	ErrInternal     ErrorCode = "INTERNAL"
	ErrInvalidInput ErrorCode = "INVALID_INPUT"
	ErrNotFound     ErrorCode = "NOT_FOUND"

	// Context store errors
	ErrKeyNotFound  ErrorCode = "KEY_NOT_FOUND"
	ErrNoLowerIndex ErrorCode = "NO_LOWER_INDEX"

	// Configuration errors
	ErrConfigLoad  ErrorCode = "CONFIG_LOAD"
	ErrConfigParse ErrorCode = "CONFIG_PARSE"
	ErrConfigValid ErrorCode = "CONFIG_INVALID"

	// Template errors
	ErrTemplateNotFound ErrorCode = "TEMPLATE_NOT_FOUND"
	ErrTemplateRender   ErrorCode = "TEMPLATE_RENDER"

	// Action errors
	ErrActionInvalid ErrorCode = "ACTION_INVALID"
	ErrActionExecute ErrorCode = "ACTION_EXECUTE"

	// Module errors
	ErrModuleNotFound ErrorCode = "MODULE_NOT_FOUND"
	ErrBlockNotFound  ErrorCode = "BLOCK_NOT_FOUND"

	// FileSystem errors
	ErrFileNotFound  ErrorCode = "FILE_NOT_FOUND"
	ErrFileAccess    ErrorCode = "FILE_ACCESS"
	ErrFileWrite     ErrorCode = "FILE_WRITE"
	ErrSymlinkCreate ErrorCode = "SYMLINK_CREATE"
	ErrDirCreate     ErrorCode = "DIR_CREATE"
	ErrPermission    ErrorCode = "PERMISSION"
)

// AstralError represents a structured error with code and details
type AstralError struct {
	Code    ErrorCode
	Message string
	Details map[string]interface{}
	Wrapped error
}

// Error implements the error interface
func (e *AstralError) Error() string {
	if e.Wrapped != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Wrapped)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap implements the errors.Unwrap interface
func (e *AstralError) Unwrap() error {
	return e.Wrapped
}

// Is matches any AstralError carrying the same code
func (e *AstralError) Is(target error) bool {
	var targetErr *AstralError
	if errors.As(target, &targetErr) {
		return e.Code == targetErr.Code
	}
	return false
}

// New creates a new AstralError with the given code and message
func New(code ErrorCode, message string) *AstralError {
	return &AstralError{
		Code:    code,
		Message: message,
		Details: make(map[string]interface{}),
	}
}

// Newf creates a new AstralError with a formatted message
func Newf(code ErrorCode, format string, args ...interface{}) *AstralError {
	return &AstralError{
		Code:    code,
		Message: fmt.Sprintf(format, args...),
		Details: make(map[string]interface{}),
	}
}

// Wrap wraps an existing error with an AstralError
func Wrap(err error, code ErrorCode, message string) *AstralError {
	if err == nil {
		return nil
	}
	return &AstralError{
		Code:    code,
		Message: message,
		Details: make(map[string]interface{}),
		Wrapped: err,
	}
}

// Wrapf wraps an existing error with a formatted message
func Wrapf(err error, code ErrorCode, format string, args ...interface{}) *AstralError {
	if err == nil {
		return nil
	}
	return &AstralError{
		Code:    code,
		Message: fmt.Sprintf(format, args...),
		Details: make(map[string]interface{}),
		Wrapped: err,
	}
}

// WithDetail adds a detail to the error
func (e *AstralError) WithDetail(key string, value interface{}) *AstralError {
	if e.Details == nil {
		e.Details = make(map[string]interface{})
	}
	e.Details[key] = value
	return e
}

// IsErrorCode checks if an error has a specific error code
func IsErrorCode(err error, code ErrorCode) bool {
	var astralErr *AstralError
	if errors.As(err, &astralErr) {
		return astralErr.Code == code
	}
	return false
}

// GetErrorCode returns the error code from an error, or ErrUnknown if not an AstralError
func GetErrorCode(err error) ErrorCode {
	var astralErr *AstralError
	if errors.As(err, &astralErr) {
		return astralErr.Code
	}
	return ErrUnknown
}

// GetErrorDetails returns the details from an error, or nil if not an AstralError
func GetErrorDetails(err error) map[string]interface{} {
	var astralErr *AstralError
	if errors.As(err, &astralErr) {
		return astralErr.Details
	}
	return nil
}
