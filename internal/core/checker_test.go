package core_test

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"

	"smm/internal/core"
	"smm/internal/domain"
	"smm/internal/source/versionfile"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// installedWithVersionFile lays down a mod directory carrying a .version
// file pointing at masterURL.
func installedWithVersionFile(t *testing.T, modsRoot, id, version, masterURL string) domain.InstalledMod {
	t.Helper()
	dir := writeMod(t, modsRoot, id,
		fmt.Sprintf(`{"id": %q, "name": %q, "version": %q}`, id, id, version))
	vf := fmt.Sprintf(`{
		"masterVersionFile": %q,
		"modName": %q,
		"modVersion": %q
	}`, masterURL, id, version)
	require.NoError(t, os.WriteFile(filepath.Join(dir, id+".version"), []byte(vf), 0644))

	return domain.InstalledMod{
		ModDescriptor: domain.ModDescriptor{ID: id, Name: id, Version: version},
		InstallPath:   dir,
	}
}

func masterServer(t *testing.T, body string, status int) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(status)
		fmt.Fprint(w, body)
	}))
	t.Cleanup(srv.Close)
	return srv
}

func newTestChecker() *core.Checker {
	return core.NewChecker(versionfile.NewClient(nil), testLogger())
}

func TestChecker_FindsUpdate(t *testing.T) {
	srv := masterServer(t, `{
		"modName": "nexerelin",
		"modVersion": "0.11.3",
		"directDownloadURL": "https://example.com/nexerelin-0.11.3.zip"
	}`, http.StatusOK)

	modsRoot := t.TempDir()
	mod := installedWithVersionFile(t, modsRoot, "nexerelin", "0.11.2b", srv.URL)

	updates, err := newTestChecker().CheckUpdates(context.Background(), []domain.InstalledMod{mod}, nil)
	require.NoError(t, err)
	require.Len(t, updates, 1)

	u := updates[0]
	assert.Equal(t, "nexerelin", u.InstalledMod.ID)
	assert.Equal(t, "0.11.3", u.NewVersion)
	assert.Equal(t, domain.VersionNewer, u.Relation)
	assert.Equal(t, "https://example.com/nexerelin-0.11.3.zip", u.DownloadURL)
}

func TestChecker_UpToDateIsQuiet(t *testing.T) {
	srv := masterServer(t, `{"modName": "lazylib", "modVersion": "2.8"}`, http.StatusOK)

	modsRoot := t.TempDir()
	mod := installedWithVersionFile(t, modsRoot, "lazylib", "2.8", srv.URL)

	updates, err := newTestChecker().CheckUpdates(context.Background(), []domain.InstalledMod{mod}, nil)
	require.NoError(t, err)
	assert.Empty(t, updates)
}

func TestChecker_SkipsPinnedMods(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		fmt.Fprint(w, `{"modName": "nexerelin", "modVersion": "99.0"}`)
	}))
	t.Cleanup(srv.Close)

	modsRoot := t.TempDir()
	mod := installedWithVersionFile(t, modsRoot, "nexerelin", "0.11.2b", srv.URL)
	policies := map[string]domain.UpdatePolicy{"nexerelin": domain.UpdatePinned}

	updates, err := newTestChecker().CheckUpdates(context.Background(), []domain.InstalledMod{mod}, policies)
	require.NoError(t, err)
	assert.Empty(t, updates)
	assert.Zero(t, hits.Load(), "pinned mods must not be polled")
}

func TestChecker_SkipsModsWithoutVersionFile(t *testing.T) {
	modsRoot := t.TempDir()
	dir := writeMod(t, modsRoot, "vanillaplus", `{"id": "vanillaplus", "name": "Vanilla Plus", "version": "1.0"}`)
	mod := domain.InstalledMod{
		ModDescriptor: domain.ModDescriptor{ID: "vanillaplus", Version: "1.0"},
		InstallPath:   dir,
	}

	updates, err := newTestChecker().CheckUpdates(context.Background(), []domain.InstalledMod{mod}, nil)
	require.NoError(t, err)
	assert.Empty(t, updates)
}

func TestChecker_RemoteFailureDoesNotStopOthers(t *testing.T) {
	good := masterServer(t, `{"modName": "lazylib", "modVersion": "2.9"}`, http.StatusOK)
	bad := masterServer(t, "gone", http.StatusNotFound)

	modsRoot := t.TempDir()
	broken := installedWithVersionFile(t, modsRoot, "nexerelin", "0.11.2b", bad.URL)
	healthy := installedWithVersionFile(t, modsRoot, "lazylib", "2.8", good.URL)

	updates, err := newTestChecker().CheckUpdates(context.Background(),
		[]domain.InstalledMod{broken, healthy}, nil)

	require.Error(t, err)
	assert.ErrorContains(t, err, "nexerelin")
	require.Len(t, updates, 1)
	assert.Equal(t, "lazylib", updates[0].InstalledMod.ID)
}

func TestChecker_ReportsProgress(t *testing.T) {
	srv := masterServer(t, `{"modName": "lazylib", "modVersion": "2.8"}`, http.StatusOK)

	modsRoot := t.TempDir()
	mod := installedWithVersionFile(t, modsRoot, "lazylib", "2.8", srv.URL)

	var calls []string
	progress := domain.UpdateProgressFunc(func(n, total int, name string) {
		calls = append(calls, fmt.Sprintf("%d/%d %s", n, total, name))
	})
	ctx := context.WithValue(context.Background(), domain.UpdateProgressContextKey, progress)

	_, err := newTestChecker().CheckUpdates(ctx, []domain.InstalledMod{mod}, nil)
	require.NoError(t, err)
	assert.Equal(t, []string{"1/1 lazylib"}, calls)
}

func TestChecker_Cancelled(t *testing.T) {
	srv := masterServer(t, `{"modName": "lazylib", "modVersion": "2.9"}`, http.StatusOK)

	modsRoot := t.TempDir()
	mod := installedWithVersionFile(t, modsRoot, "lazylib", "2.8", srv.URL)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := newTestChecker().CheckUpdates(ctx, []domain.InstalledMod{mod}, nil)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestAutoUpdatable(t *testing.T) {
	updates := []domain.Update{
		{NewVersion: "1.1", Policy: domain.UpdateAuto},
		{NewVersion: "2.0", Policy: domain.UpdateNotify},
		{NewVersion: "3.0", Policy: domain.UpdateAuto},
	}

	auto := core.AutoUpdatable(updates)
	require.Len(t, auto, 2)
	assert.Equal(t, "1.1", auto[0].NewVersion)
	assert.Equal(t, "3.0", auto[1].NewVersion)
}
