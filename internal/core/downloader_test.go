package core_test

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strconv"
	"testing"

	"smm/internal/core"
	"smm/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDownloader_Download(t *testing.T) {
	content := []byte("pretend this is a mod archive")
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Length", strconv.Itoa(len(content)))
		w.Write(content)
	}))
	t.Cleanup(srv.Close)

	destPath := filepath.Join(t.TempDir(), "downloads", "mod.zip")
	result, err := core.NewDownloader(nil).Download(context.Background(), srv.URL, destPath, nil)
	require.NoError(t, err)

	assert.Equal(t, destPath, result.Path)
	assert.Equal(t, int64(len(content)), result.Size)

	sum := sha256.Sum256(content)
	assert.Equal(t, hex.EncodeToString(sum[:]), result.SHA256)

	data, err := os.ReadFile(destPath)
	require.NoError(t, err)
	assert.Equal(t, content, data)

	// No temp file debris.
	assert.NoFileExists(t, destPath+".tmp")
}

func TestDownloader_ReportsProgress(t *testing.T) {
	content := make([]byte, 64*1024)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Length", strconv.Itoa(len(content)))
		w.Write(content)
	}))
	t.Cleanup(srv.Close)

	var last core.DownloadProgress
	calls := 0
	progressFn := func(p core.DownloadProgress) {
		calls++
		last = p
	}

	destPath := filepath.Join(t.TempDir(), "mod.zip")
	_, err := core.NewDownloader(nil).Download(context.Background(), srv.URL, destPath, progressFn)
	require.NoError(t, err)

	assert.Greater(t, calls, 0)
	assert.Equal(t, int64(len(content)), last.Downloaded)
	assert.Equal(t, int64(len(content)), last.TotalBytes)
	assert.InDelta(t, 100.0, last.Percentage, 0.001)
}

func TestDownloader_HTTPErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "not here", http.StatusNotFound)
	}))
	t.Cleanup(srv.Close)

	destPath := filepath.Join(t.TempDir(), "mod.zip")
	_, err := core.NewDownloader(nil).Download(context.Background(), srv.URL, destPath, nil)

	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrDownloadFailed)
	assert.NoFileExists(t, destPath)
}

func TestDownloader_ConnectionRefused(t *testing.T) {
	destPath := filepath.Join(t.TempDir(), "mod.zip")
	_, err := core.NewDownloader(nil).Download(context.Background(), "http://127.0.0.1:1/mod.zip", destPath, nil)

	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrDownloadFailed)
}

func TestDownloader_CancelledMidTransfer(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Length", "1048576")
		w.Write(make([]byte, 1024))
		if f, ok := w.(http.Flusher); ok {
			f.Flush()
		}
		cancel()
		<-r.Context().Done()
	}))
	t.Cleanup(srv.Close)

	destPath := filepath.Join(t.TempDir(), "mod.zip")
	_, err := core.NewDownloader(nil).Download(ctx, srv.URL, destPath, nil)

	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrDownloadFailed)

	// The interrupted transfer leaves no plausible-looking archive.
	assert.NoFileExists(t, destPath)
	assert.NoFileExists(t, destPath+".tmp")
}
