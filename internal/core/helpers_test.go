package core_test

import (
	"archive/zip"
	"bytes"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"testing"

	"smm/internal/archive"

	"github.com/charmbracelet/log"
	"github.com/stretchr/testify/require"
)

func testLogger() *log.Logger {
	return log.New(io.Discard)
}

// writeZip builds a zip archive at path from name to content pairs. Names
// with a trailing slash become directories.
func writeZip(t *testing.T, path string, files map[string]string) string {
	t.Helper()

	names := make([]string, 0, len(files))
	for name := range files {
		names = append(names, name)
	}
	sort.Strings(names)

	var buf bytes.Buffer
	w := zip.NewWriter(&buf)
	for _, name := range names {
		entry, err := w.Create(name)
		require.NoError(t, err)
		if !strings.HasSuffix(name, "/") {
			_, err = entry.Write([]byte(files[name]))
			require.NoError(t, err)
		}
	}
	require.NoError(t, w.Close())
	require.NoError(t, os.WriteFile(path, buf.Bytes(), 0644))
	return path
}

// resolveZip builds a zip and opens it as a resolved payload handle.
func resolveZip(t *testing.T, files map[string]string) *archive.Handle {
	t.Helper()
	path := writeZip(t, filepath.Join(t.TempDir(), "mod.zip"), files)
	h, err := archive.Resolve(archive.Source{Path: path})
	require.NoError(t, err)
	t.Cleanup(func() { h.Close() })
	return h
}
