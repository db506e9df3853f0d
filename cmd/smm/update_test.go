package main

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUpdateCmd_Structure(t *testing.T) {
	assert.Equal(t, "update", updateCmd.Use)
	assert.NotEmpty(t, updateCmd.Short)
	assert.NotEmpty(t, updateCmd.Long)

	assert.NotNil(t, updateCmd.Flags().Lookup("apply"))
	assert.NotNil(t, updateCmd.Flags().Lookup("auto"))
}

func TestUpdateCmd_NothingToCheck(t *testing.T) {
	modsRoot := testEnv(t)
	updateApply, updateAuto = false, false

	writeInstalledMod(t, modsRoot, "lazylib", "LazyLib", "2.8b")

	require.NoError(t, execute(t, updateCmd, "update"))
}

func TestUpdateCmd_ReportsAvailableUpdate(t *testing.T) {
	modsRoot := testEnv(t)
	updateApply, updateAuto = false, false

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"modName": "LazyLib", "modVersion": "2.9"}`)
	}))
	t.Cleanup(srv.Close)

	writeInstalledMod(t, modsRoot, "lazylib", "LazyLib", "2.8")
	versionFile := fmt.Sprintf(`{"modName": "LazyLib", "modVersion": "2.8", "masterVersionFile": %q}`, srv.URL)
	require.NoError(t, os.WriteFile(filepath.Join(modsRoot, "lazylib", "lazylib.version"), []byte(versionFile), 0644))

	require.NoError(t, execute(t, updateCmd, "update"))
}
