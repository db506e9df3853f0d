package core_test

import (
	"os"
	"path/filepath"
	"testing"

	"smm/internal/core"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// writeMod lays down one installed mod directory under modsRoot.
func writeMod(t *testing.T, modsRoot, dirName, descriptor string) string {
	t.Helper()
	dir := filepath.Join(modsRoot, dirName)
	require.NoError(t, os.MkdirAll(dir, 0755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "mod_info.json"), []byte(descriptor), 0644))
	return dir
}

func TestScanner_Scan(t *testing.T) {
	modsRoot := t.TempDir()
	writeMod(t, modsRoot, "Nexerelin", `{"id": "nexerelin", "name": "Nexerelin", "version": "0.11.2b"}`)
	writeMod(t, modsRoot, "LazyLib", `{"id": "lazylib", "name": "LazyLib", "version": "2.8"}`)
	require.NoError(t, core.WriteEnabled(modsRoot, []string{"nexerelin"}))

	scanner := core.NewScanner(testLogger())
	snap, issues, err := scanner.Scan(modsRoot)
	require.NoError(t, err)
	assert.Empty(t, issues)
	require.Equal(t, 2, snap.Len())

	nex, ok := snap.ByID("nexerelin")
	require.True(t, ok)
	assert.Equal(t, "Nexerelin", nex.Name)
	assert.Equal(t, filepath.Join(modsRoot, "Nexerelin"), nex.InstallPath)
	assert.True(t, nex.Enabled)
	assert.False(t, nex.InstalledAt.IsZero())

	lazy, ok := snap.ByID("lazylib")
	require.True(t, ok)
	assert.False(t, lazy.Enabled)
}

func TestScanner_MissingRootIsEmpty(t *testing.T) {
	scanner := core.NewScanner(testLogger())
	snap, issues, err := scanner.Scan(filepath.Join(t.TempDir(), "does-not-exist"))
	require.NoError(t, err)
	assert.Empty(t, issues)
	assert.Equal(t, 0, snap.Len())
}

func TestScanner_SkipsDotDirsAndFiles(t *testing.T) {
	modsRoot := t.TempDir()
	writeMod(t, modsRoot, "LazyLib", `{"id": "lazylib", "name": "LazyLib", "version": "2.8"}`)
	writeMod(t, modsRoot, ".LazyLib.replaced", `{"id": "lazylib", "name": "LazyLib", "version": "2.7"}`)
	require.NoError(t, os.WriteFile(filepath.Join(modsRoot, "readme.txt"), []byte("notes"), 0644))

	scanner := core.NewScanner(testLogger())
	snap, issues, err := scanner.Scan(modsRoot)
	require.NoError(t, err)
	assert.Empty(t, issues)
	require.Equal(t, 1, snap.Len())

	mod, ok := snap.ByID("lazylib")
	require.True(t, ok)
	assert.Equal(t, "2.8", mod.Version)
}

func TestScanner_ReportsNonModDirs(t *testing.T) {
	modsRoot := t.TempDir()
	writeMod(t, modsRoot, "LazyLib", `{"id": "lazylib", "name": "LazyLib", "version": "2.8"}`)
	require.NoError(t, os.MkdirAll(filepath.Join(modsRoot, "screenshots"), 0755))

	scanner := core.NewScanner(testLogger())
	snap, issues, err := scanner.Scan(modsRoot)
	require.NoError(t, err)
	assert.Equal(t, 1, snap.Len())

	require.Len(t, issues, 1)
	assert.Equal(t, filepath.Join(modsRoot, "screenshots"), issues[0].Dir)
	assert.Error(t, issues[0].Err)
}

func TestScanner_ToleratesLooseDescriptors(t *testing.T) {
	modsRoot := t.TempDir()
	// Starsector descriptors are JSON in name only.
	writeMod(t, modsRoot, "Nexerelin", `{
		id: "nexerelin", // unquoted key
		"name": "Nexerelin",
		"version": {"major": 0, "minor": 11, "patch": "2b"},
	}`)

	scanner := core.NewScanner(testLogger())
	snap, issues, err := scanner.Scan(modsRoot)
	require.NoError(t, err)
	assert.Empty(t, issues)

	mod, ok := snap.ByID("nexerelin")
	require.True(t, ok)
	assert.Equal(t, "0.11.2b", mod.Version)
}

func TestReadInstalled_NoDescriptor(t *testing.T) {
	dir := t.TempDir()
	_, err := core.ReadInstalled(dir)
	assert.Error(t, err)
}
