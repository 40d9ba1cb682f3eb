package source

import (
	"context"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sort"
	"time"
)

// FileSource reads race form documents from a local directory
type FileSource struct {
	dir     string
	pattern string
	enabled bool
	logger  *log.Logger
}

// NewFileSource creates a new file-backed document source
func NewFileSource(dir, pattern string, logger *log.Logger) *FileSource {
	if pattern == "" {
		pattern = "*.txt"
	}
	return &FileSource{
		dir:     dir,
		pattern: pattern,
		enabled: true,
		logger:  logger,
	}
}

// FetchDocuments reads all documents matching the pattern, sorted by name
func (s *FileSource) FetchDocuments(ctx context.Context) ([]Document, error) {
	matches, err := filepath.Glob(filepath.Join(s.dir, s.pattern))
	if err != nil {
		return nil, NewSourceError("files", ErrCodeInvalidData, fmt.Sprintf("bad pattern %q", s.pattern), err)
	}
	sort.Strings(matches)

	docs := make([]Document, 0, len(matches))
	for _, path := range matches {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		doc, err := s.readFile(path)
		if err != nil {
			// A single unreadable file must not sink the whole batch; the
			// failed entry is reported downstream with the rest.
			if s.logger != nil {
				s.logger.Printf("Skipping unreadable document %s: %v", path, err)
			}
			docs = append(docs, Document{Name: filepath.Base(path), FetchedAt: time.Now(), Err: err})
			continue
		}
		docs = append(docs, *doc)
	}

	if s.logger != nil {
		s.logger.Printf("Loaded %d documents from %s", len(docs), s.dir)
	}
	return docs, nil
}

// FetchDocument reads a single document by file name relative to the source directory
func (s *FileSource) FetchDocument(ctx context.Context, name string) (*Document, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return s.readFile(filepath.Join(s.dir, filepath.Base(name)))
}

func (s *FileSource) readFile(path string) (*Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, NewSourceError("files", ErrCodeNotFound, fmt.Sprintf("document %q not found", path), err)
		}
		return nil, NewSourceError("files", ErrCodeInvalidData, fmt.Sprintf("failed to read %q", path), err)
	}
	return &Document{
		Name:      filepath.Base(path),
		Text:      string(data),
		FetchedAt: time.Now(),
	}, nil
}

// Name returns the source name
func (s *FileSource) Name() string {
	return "files"
}

// IsEnabled returns whether the source is enabled
func (s *FileSource) IsEnabled() bool {
	return s.enabled
}
