package source

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yourusername/formcast/internal/config"
)

func TestFileSourceFetchDocuments(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "b_meeting.txt"), []byte("Race No 1"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "a_meeting.txt"), []byte("Race No 2"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.md"), []byte("ignored"), 0o644))

	src := NewFileSource(dir, "*.txt", nil)
	docs, err := src.FetchDocuments(context.Background())
	require.NoError(t, err)

	require.Len(t, docs, 2)
	assert.Equal(t, "a_meeting.txt", docs[0].Name)
	assert.Equal(t, "Race No 2", docs[0].Text)
	assert.Equal(t, "b_meeting.txt", docs[1].Name)
}

func TestFileSourceSkipsUnreadableEntry(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "good.txt"), []byte("Race No 1"), 0o644))
	// A directory matching the glob must not sink the readable documents.
	require.NoError(t, os.Mkdir(filepath.Join(dir, "bad.txt"), 0o755))

	src := NewFileSource(dir, "*.txt", nil)
	docs, err := src.FetchDocuments(context.Background())
	require.NoError(t, err)
	require.Len(t, docs, 2)

	assert.Equal(t, "bad.txt", docs[0].Name)
	assert.Error(t, docs[0].Err)
	assert.Empty(t, docs[0].Text)

	assert.Equal(t, "good.txt", docs[1].Name)
	assert.NoError(t, docs[1].Err)
	assert.Equal(t, "Race No 1", docs[1].Text)
}

func TestFileSourceFetchDocumentNotFound(t *testing.T) {
	src := NewFileSource(t.TempDir(), "*.txt", nil)

	_, err := src.FetchDocument(context.Background(), "missing.txt")
	require.Error(t, err)

	var srcErr SourceError
	require.True(t, errors.As(err, &srcErr))
	assert.Equal(t, ErrCodeNotFound, srcErr.Code)
}

func TestFileSourceDefaultPattern(t *testing.T) {
	src := NewFileSource("data", "", nil)
	assert.Equal(t, "*.txt", src.pattern)
	assert.Equal(t, "files", src.Name())
	assert.True(t, src.IsEnabled())
}

func newTestHTTPClient() *RateLimitedHTTPClient {
	cfg := DefaultHTTPClientConfig()
	cfg.MaxRetries = 0
	cfg.RateLimit = 1000
	return NewRateLimitedHTTPClient(cfg, nil)
}

func TestRemoteSourceFetchDocuments(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))
		switch r.URL.Path {
		case "/api/v1/documents":
			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte(`[{"name":"meeting_1.txt"},{"name":"meeting_2.txt"}]`))
		case "/api/v1/documents/meeting_1.txt":
			_, _ = w.Write([]byte("Race No 1"))
		case "/api/v1/documents/meeting_2.txt":
			_, _ = w.Write([]byte("Race No 2"))
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer server.Close()

	src := NewRemoteSource(newTestHTTPClient(), server.URL, "test-key", true, nil)
	docs, err := src.FetchDocuments(context.Background())
	require.NoError(t, err)

	require.Len(t, docs, 2)
	assert.Equal(t, "meeting_1.txt", docs[0].Name)
	assert.Equal(t, "Race No 1", docs[0].Text)
}

func TestRemoteSourceContinuesAfterFailedDownload(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api/v1/documents":
			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte(`[{"name":"gone.txt"},{"name":"meeting_1.txt"}]`))
		case "/api/v1/documents/meeting_1.txt":
			_, _ = w.Write([]byte("Race No 1"))
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer server.Close()

	src := NewRemoteSource(newTestHTTPClient(), server.URL, "test-key", true, nil)
	docs, err := src.FetchDocuments(context.Background())
	require.NoError(t, err)
	require.Len(t, docs, 2)

	assert.Equal(t, "gone.txt", docs[0].Name)
	assert.Error(t, docs[0].Err)

	assert.Equal(t, "meeting_1.txt", docs[1].Name)
	assert.NoError(t, docs[1].Err)
	assert.Equal(t, "Race No 1", docs[1].Text)
}

func TestRemoteSourceAuthenticationFailure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer server.Close()

	src := NewRemoteSource(newTestHTTPClient(), server.URL, "bad-key", true, nil)
	_, err := src.FetchDocuments(context.Background())
	require.Error(t, err)

	var srcErr SourceError
	require.True(t, errors.As(err, &srcErr))
	assert.Equal(t, ErrCodeAuthenticationFailed, srcErr.Code)
}

func TestRemoteSourceDisabled(t *testing.T) {
	src := NewRemoteSource(newTestHTTPClient(), "http://localhost", "", false, nil)
	_, err := src.FetchDocuments(context.Background())
	assert.Error(t, err)
}

func TestNewDocumentSourceFactory(t *testing.T) {
	fileSrc, err := NewDocumentSource(config.DocumentsConfig{Source: "files", Dir: "data"}, nil)
	require.NoError(t, err)
	assert.Equal(t, "files", fileSrc.Name())

	remoteSrc, err := NewDocumentSource(config.DocumentsConfig{
		Source:         "remote",
		RemoteURL:      "http://localhost:8200",
		TimeoutSeconds: 5,
	}, nil)
	require.NoError(t, err)
	assert.Equal(t, "remote", remoteSrc.Name())

	_, err = NewDocumentSource(config.DocumentsConfig{Source: "ftp"}, nil)
	assert.Error(t, err)

	_, err = NewDocumentSource(config.DocumentsConfig{Source: "files"}, nil)
	assert.Error(t, err)

	_, err = NewDocumentSource(config.DocumentsConfig{Source: "remote"}, nil)
	assert.Error(t, err)
}
