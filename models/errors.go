package models

import (
	"errors"
	"fmt"
)

// Error codes used across the sweep and its collaborators.
const (
	ErrCodeNotFound          = "ELEMENT_NOT_FOUND"
	ErrCodeNavigation        = "NAVIGATION_FAILED"
	ErrCodeExtraction        = "EXTRACTION_FAILED"
	ErrCodeUnsupportedFormat = "UNSUPPORTED_FORMAT"
	ErrCodeTimeout           = "SCRAPE_TIMEOUT"
	ErrCodeBrowserCrash      = "BROWSER_CRASH"
	ErrCodeInvalidInput      = "INVALID_INPUT"
)

// ErrOutOfRange is wrapped by extraction errors for rows with fewer cells
// than the record has fields.
var ErrOutOfRange = errors.New("cell index out of range")

// ScrapeError is the internal error type carrying an error code.
// It implements the error interface and supports error wrapping via Unwrap.
type ScrapeError struct {
	Code    string
	Message string
	Err     error // wrapped original error
}

func (e *ScrapeError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *ScrapeError) Unwrap() error {
	return e.Err
}

// NewScrapeError creates a new ScrapeError.
func NewScrapeError(code, message string, err error) *ScrapeError {
	return &ScrapeError{Code: code, Message: message, Err: err}
}

// HasCode reports whether err, or any error it wraps, is a ScrapeError
// with the given code.
func HasCode(err error, code string) bool {
	var se *ScrapeError
	if !errors.As(err, &se) {
		return false
	}
	return se.Code == code
}
