// Package source provides access to raw race form documents from external providers.
package source

import (
	"context"
	"errors"
	"time"
)

// Document represents one raw race form document ready for parsing
type Document struct {
	Name      string    `json:"name"`       // Provider's document name or file name
	Text      string    `json:"text"`       // Raw document text
	FetchedAt time.Time `json:"fetched_at"` // When the document was retrieved
	Err       error     `json:"-"`          // Set when this document could not be retrieved
}

// DocumentSource defines the interface for fetching race form documents
type DocumentSource interface {
	// FetchDocuments retrieves all pending documents from the provider
	FetchDocuments(ctx context.Context) ([]Document, error)

	// FetchDocument retrieves a single document by name
	FetchDocument(ctx context.Context, name string) (*Document, error)

	// Name returns the name of the document source
	Name() string

	// IsEnabled returns whether this source is currently enabled
	IsEnabled() bool
}

// SourceError represents errors from document source operations
type SourceError struct {
	Source  string // Document source name
	Code    string // Error code (e.g., "rate_limit_exceeded")
	Message string // Error message
	Err     error  // Underlying error
}

func (e SourceError) Error() string {
	if e.Err != nil {
		return e.Source + ": " + e.Code + ": " + e.Message + " (" + e.Err.Error() + ")"
	}
	return e.Source + ": " + e.Code + ": " + e.Message
}

func (e SourceError) Unwrap() error {
	return e.Err
}

// Common error codes
const (
	ErrCodeRateLimitExceeded    = "rate_limit_exceeded"
	ErrCodeAuthenticationFailed = "authentication_failed"
	ErrCodeNotFound             = "not_found"
	ErrCodeInvalidData          = "invalid_data"
	ErrCodeNetworkError         = "network_error"
	ErrCodeServerError          = "server_error"
)

// Sentinel errors
var (
	ErrRateLimitExceeded    = errors.New("rate limit exceeded")
	ErrAuthenticationFailed = errors.New("authentication failed")
	ErrNotFound             = errors.New("document not found")
	ErrInvalidData          = errors.New("invalid document data")
)

// NewSourceError creates a new document source error
func NewSourceError(source, code, message string, err error) SourceError {
	return SourceError{
		Source:  source,
		Code:    code,
		Message: message,
		Err:     err,
	}
}
