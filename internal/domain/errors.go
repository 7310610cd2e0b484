package domain

import "fmt"

// DomainError represents a domain-specific error
type DomainError struct {
	Code    string
	Message string
	Err     error
}

// Error implements the error interface
func (e *DomainError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap returns the underlying error
func (e *DomainError) Unwrap() error {
	return e.Err
}

// NewDomainError creates a new DomainError
func NewDomainError(code, message string) *DomainError {
	return &DomainError{Code: code, Message: message}
}

// NewDomainErrorWithCause creates a new DomainError with an underlying cause
func NewDomainErrorWithCause(code, message string, err error) *DomainError {
	return &DomainError{Code: code, Message: message, Err: err}
}

// Common domain error codes
const (
	ErrCodeValidation        = "VALIDATION_ERROR"
	ErrCodeNotFound          = "NOT_FOUND"
	ErrCodeUnsupportedFormat = "UNSUPPORTED_FORMAT"
	ErrCodeInitialization    = "INITIALIZATION_FAILED"
	ErrCodeInternalError     = "INTERNAL_ERROR"
)

var (
	// ErrUnsupportedFormat is returned for files with an unknown extension.
	// Fatal for that file, never for a batch.
	ErrUnsupportedFormat = NewDomainError(ErrCodeUnsupportedFormat, "unsupported file format")

	// ErrStoreUnavailable is the terminal error after the full store
	// initialization retry ladder has been exhausted.
	ErrStoreUnavailable = NewDomainError(ErrCodeInitialization, "vector store initialization failed")

	// ErrDocumentNotFound is returned when a document ID is unknown.
	ErrDocumentNotFound = NewDomainError(ErrCodeNotFound, "document not found")

	// ErrEmptyQuery is returned for blank query text.
	ErrEmptyQuery = NewDomainError(ErrCodeValidation, "query must not be empty")

	// ErrEmptyDocument is returned when text extraction produced no content.
	ErrEmptyDocument = NewDomainError(ErrCodeValidation, "document contains no extractable text")
)
