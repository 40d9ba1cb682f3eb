package source

import (
	"fmt"
	"log"

	"github.com/yourusername/formcast/internal/config"
)

// SourceType represents the type of document source
type SourceType string

const (
	// FileSourceType reads documents from a local directory
	FileSourceType SourceType = "files"
	// RemoteSourceType fetches documents from a provider HTTP API
	RemoteSourceType SourceType = "remote"
)

// NewDocumentSource creates a DocumentSource from configuration
func NewDocumentSource(cfg config.DocumentsConfig, logger *log.Logger) (DocumentSource, error) {
	switch SourceType(cfg.Source) {
	case FileSourceType:
		if cfg.Dir == "" {
			return nil, fmt.Errorf("documents.dir is required for the files source")
		}
		return NewFileSource(cfg.Dir, cfg.Pattern, logger), nil

	case RemoteSourceType:
		if cfg.RemoteURL == "" {
			return nil, fmt.Errorf("documents.remote_url is required for the remote source")
		}
		httpClient := NewRateLimitedHTTPClient(HTTPClientConfigFromDocuments(cfg), logger)
		return NewRemoteSource(httpClient, cfg.RemoteURL, cfg.APIKey, true, logger), nil

	default:
		return nil, fmt.Errorf("unknown document source: %s", cfg.Source)
	}
}
