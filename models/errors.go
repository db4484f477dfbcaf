package models

import "fmt"

// Error codes used in API responses and internal error handling.
const (
	ErrCodeInvalidInput = "INVALID_INPUT"
	ErrCodeFetch        = "FETCH_FAILED"
	ErrCodeExtraction   = "EXTRACTION_FAILED"
	ErrCodeTimeout      = "TIMEOUT"
	ErrCodeRateLimited  = "RATE_LIMITED"
	ErrCodeUnauthorized = "UNAUTHORIZED"
	ErrCodeInternal     = "INTERNAL_ERROR"
)

// ErrorDetail is the structured error in API responses.
type ErrorDetail struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	// Document is the index of the offending document, when one is known.
	Document *int `json:"document,omitempty"`
}

// PipelineError is the internal error type carrying an error code.
// It implements the error interface and supports error wrapping via Unwrap.
type PipelineError struct {
	Code     string
	Message  string
	Document int // -1 when the error is not tied to one document
	Err      error
}

func (e *PipelineError) Error() string {
	prefix := e.Code
	if e.Document >= 0 {
		prefix = fmt.Sprintf("%s: document %d", e.Code, e.Document)
	}
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", prefix, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", prefix, e.Message)
}

func (e *PipelineError) Unwrap() error {
	return e.Err
}

// NewPipelineError creates a PipelineError that is not tied to a document.
func NewPipelineError(code, message string, err error) *PipelineError {
	return &PipelineError{Code: code, Message: message, Document: -1, Err: err}
}

// DocumentError creates a PipelineError for the document at index.
func DocumentError(index int, code, message string, err error) *PipelineError {
	return &PipelineError{Code: code, Message: message, Document: index, Err: err}
}

// ToDetail converts an internal error to an API-facing ErrorDetail.
func (e *PipelineError) ToDetail() *ErrorDetail {
	d := &ErrorDetail{Code: e.Code, Message: e.Message}
	if e.Document >= 0 {
		idx := e.Document
		d.Document = &idx
	}
	return d
}

// ErrorResponse is the body of requests rejected before reaching a handler.
type ErrorResponse struct {
	Success bool         `json:"success"`
	Error   *ErrorDetail `json:"error"`
}
