package errors

import (
	"errors"
	"fmt"
)

// ErrorCode represents stable error codes for all fatal failure modes
type ErrorCode string

const (
	// RootMissing indicates a configured scan root does not exist or is unreadable
	RootMissing ErrorCode = "ROOT_MISSING"
	// DuplicateDecision indicates two declarations derived the same identifier
	DuplicateDecision ErrorCode = "DUPLICATE_DECISION"
	// InvalidDeclaration indicates a declaration that cannot satisfy the record contract
	InvalidDeclaration ErrorCode = "INVALID_DECLARATION"
	// ParseFailed indicates a source file could not be parsed
	ParseFailed ErrorCode = "PARSE_FAILED"
	// UnresolvedReference indicates a usage annotation names an unknown decision
	UnresolvedReference ErrorCode = "UNRESOLVED_REFERENCE"
	// WriteFailed indicates the output document could not be written
	WriteFailed ErrorCode = "WRITE_FAILED"
	// ConfigInvalid indicates the configuration failed validation
	ConfigInvalid ErrorCode = "CONFIG_INVALID"
	// ParserUnavailable indicates source parsing support is not compiled in
	ParserUnavailable ErrorCode = "PARSER_UNAVAILABLE"
	// InternalError indicates an unexpected error
	InternalError ErrorCode = "INTERNAL_ERROR"
)

// AdxError represents an adx error with a stable code and optional cause
type AdxError struct {
	Code    ErrorCode   `json:"code"`
	Message string      `json:"message"`
	Details interface{} `json:"details,omitempty"`
	cause   error       // Underlying error (not exported to JSON)
}

// New creates a new AdxError
func New(code ErrorCode, message string) *AdxError {
	return &AdxError{Code: code, Message: message}
}

// Wrap creates a new AdxError with an underlying cause
func Wrap(code ErrorCode, message string, cause error) *AdxError {
	return &AdxError{Code: code, Message: message, cause: cause}
}

// Error implements the error interface
func (e *AdxError) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.cause)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap returns the underlying error
func (e *AdxError) Unwrap() error {
	return e.cause
}

// WithDetails adds details to the error
func (e *AdxError) WithDetails(details interface{}) *AdxError {
	e.Details = details
	return e
}

// CodeOf extracts the error code from err, or InternalError when err is not
// an AdxError.
func CodeOf(err error) ErrorCode {
	var ae *AdxError
	if errors.As(err, &ae) {
		return ae.Code
	}
	return InternalError
}

// IsFatalCode reports whether a code always aborts the run regardless of
// policy configuration.
func IsFatalCode(code ErrorCode) bool {
	switch code {
	case RootMissing, DuplicateDecision, WriteFailed, ConfigInvalid, ParserUnavailable:
		return true
	default:
		return false
	}
}
