package source

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"time"
)

// RemoteSource fetches race form documents from a provider HTTP API
type RemoteSource struct {
	httpClient *RateLimitedHTTPClient
	baseURL    string
	apiKey     string
	enabled    bool
	logger     *log.Logger
}

// remoteDocumentEntry represents one document in the provider's listing
type remoteDocumentEntry struct {
	Name        string `json:"name"`
	PublishedAt string `json:"publishedAt"`
}

// NewRemoteSource creates a new remote document source
func NewRemoteSource(httpClient *RateLimitedHTTPClient, baseURL, apiKey string, enabled bool, logger *log.Logger) *RemoteSource {
	return &RemoteSource{
		httpClient: httpClient,
		baseURL:    baseURL,
		apiKey:     apiKey,
		enabled:    enabled,
		logger:     logger,
	}
}

// FetchDocuments lists and downloads all pending documents from the provider
func (s *RemoteSource) FetchDocuments(ctx context.Context) ([]Document, error) {
	if !s.enabled {
		return nil, NewSourceError("remote", ErrCodeNetworkError, "source is disabled", nil)
	}

	entries, err := s.listDocuments(ctx)
	if err != nil {
		return nil, err
	}

	docs := make([]Document, 0, len(entries))
	for _, entry := range entries {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		doc, err := s.FetchDocument(ctx, entry.Name)
		if err != nil {
			if s.logger != nil {
				s.logger.Printf("Skipping document %s: %v", entry.Name, err)
			}
			docs = append(docs, Document{Name: entry.Name, FetchedAt: time.Now(), Err: err})
			continue
		}
		docs = append(docs, *doc)
	}

	if s.logger != nil {
		s.logger.Printf("Fetched %d documents from remote source", len(docs))
	}
	return docs, nil
}

// FetchDocument downloads a single document body by name
func (s *RemoteSource) FetchDocument(ctx context.Context, name string) (*Document, error) {
	if !s.enabled {
		return nil, NewSourceError("remote", ErrCodeNetworkError, "source is disabled", nil)
	}

	endpoint := fmt.Sprintf("%s/api/v1/documents/%s", s.baseURL, url.PathEscape(name))
	resp, err := s.get(ctx, endpoint)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return nil, NewSourceError("remote", ErrCodeNotFound, fmt.Sprintf("document %q not found", name), nil)
	}
	if err := checkStatus(resp); err != nil {
		return nil, err
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, NewSourceError("remote", ErrCodeNetworkError, "failed to read document body", err)
	}

	return &Document{
		Name:      name,
		Text:      string(body),
		FetchedAt: time.Now(),
	}, nil
}

// listDocuments retrieves the provider's pending document listing
func (s *RemoteSource) listDocuments(ctx context.Context) ([]remoteDocumentEntry, error) {
	resp, err := s.get(ctx, s.baseURL+"/api/v1/documents")
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if err := checkStatus(resp); err != nil {
		return nil, err
	}

	var entries []remoteDocumentEntry
	if err := json.NewDecoder(resp.Body).Decode(&entries); err != nil {
		return nil, NewSourceError("remote", ErrCodeInvalidData, "failed to parse document listing", err)
	}
	return entries, nil
}

func (s *RemoteSource) get(ctx context.Context, endpoint string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, NewSourceError("remote", ErrCodeNetworkError, "failed to create request", err)
	}
	if s.apiKey != "" {
		req.Header.Set("Authorization", fmt.Sprintf("Bearer %s", s.apiKey))
	}
	req.Header.Set("Accept", "application/json")

	resp, err := s.httpClient.Do(ctx, req)
	if err != nil {
		return nil, NewSourceError("remote", ErrCodeNetworkError, "request failed", err)
	}
	return resp, nil
}

func checkStatus(resp *http.Response) error {
	switch {
	case resp.StatusCode == http.StatusUnauthorized:
		return NewSourceError("remote", ErrCodeAuthenticationFailed, "invalid API key", nil)
	case resp.StatusCode == http.StatusTooManyRequests:
		return NewSourceError("remote", ErrCodeRateLimitExceeded, "rate limit exceeded", nil)
	case resp.StatusCode == http.StatusNotFound:
		return NewSourceError("remote", ErrCodeNotFound, "not found", nil)
	case resp.StatusCode != http.StatusOK:
		body, _ := io.ReadAll(resp.Body)
		return NewSourceError("remote", ErrCodeServerError, fmt.Sprintf("unexpected status %d: %s", resp.StatusCode, string(body)), nil)
	}
	return nil
}

// Name returns the source name
func (s *RemoteSource) Name() string {
	return "remote"
}

// IsEnabled returns whether the source is enabled
func (s *RemoteSource) IsEnabled() bool {
	return s.enabled
}
