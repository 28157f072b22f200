package errors

import (
	stderrors "errors"
	"fmt"
	"time"
)

// ExtractionError reports that a PDF could not be turned into text.
// It is fatal to a pipeline run.
type ExtractionError struct {
	Type       ErrorType `json:"type"`
	Message    string    `json:"message"`
	Filename   string    `json:"filename,omitempty"`
	PageNumber int       `json:"page_number,omitempty"`
	Cause      error     `json:"-"`
	Timestamp  time.Time `json:"timestamp"`
}

// ErrorType represents the category of an extraction failure
type ErrorType int

const (
	ErrorTypeUnknown ErrorType = iota
	ErrorTypeEmptyInput
	ErrorTypeTooLarge
	ErrorTypeInvalidHeader
	ErrorTypeCorruptedData
	ErrorTypeMalformedPage
	ErrorTypeLibraryPanic
)

// Error implements the error interface
func (e *ExtractionError) Error() string {
	msg := fmt.Sprintf("[%s] %s", e.Type.String(), e.Message)
	if e.Filename != "" {
		msg = fmt.Sprintf("%s (%s)", msg, e.Filename)
	}
	if e.PageNumber > 0 {
		msg = fmt.Sprintf("%s page %d", msg, e.PageNumber)
	}
	if e.Cause != nil {
		msg = fmt.Sprintf("%s: %v", msg, e.Cause)
	}
	return msg
}

// Unwrap returns the underlying cause
func (e *ExtractionError) Unwrap() error {
	return e.Cause
}

// String returns a string representation of the ErrorType
func (et ErrorType) String() string {
	switch et {
	case ErrorTypeEmptyInput:
		return "EMPTY_INPUT"
	case ErrorTypeTooLarge:
		return "TOO_LARGE"
	case ErrorTypeInvalidHeader:
		return "INVALID_HEADER"
	case ErrorTypeCorruptedData:
		return "CORRUPTED_DATA"
	case ErrorTypeMalformedPage:
		return "MALFORMED_PAGE"
	case ErrorTypeLibraryPanic:
		return "LIBRARY_PANIC"
	default:
		return "UNKNOWN"
	}
}

// NewExtractionError creates a new extraction error
func NewExtractionError(errorType ErrorType, message string) *ExtractionError {
	return &ExtractionError{
		Type:      errorType,
		Message:   message,
		Timestamp: time.Now(),
	}
}

// Wrap creates an extraction error around an underlying cause
func Wrap(errorType ErrorType, message string, cause error) *ExtractionError {
	e := NewExtractionError(errorType, message)
	e.Cause = cause
	return e
}

// WithFile sets the source filename
func (e *ExtractionError) WithFile(filename string) *ExtractionError {
	e.Filename = filename
	return e
}

// WithPage sets the page the failure happened on
func (e *ExtractionError) WithPage(pageNumber int) *ExtractionError {
	e.PageNumber = pageNumber
	return e
}

// AsExtraction returns the ExtractionError in err's chain, if any
func AsExtraction(err error) (*ExtractionError, bool) {
	var target *ExtractionError
	if stderrors.As(err, &target) {
		return target, true
	}
	return nil, false
}

// IsExtraction reports whether err is or wraps an ExtractionError
func IsExtraction(err error) bool {
	_, ok := AsExtraction(err)
	return ok
}
