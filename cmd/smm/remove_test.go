package main

import (
	"path/filepath"
	"testing"

	"smm/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRemoveCmd_Structure(t *testing.T) {
	assert.Equal(t, "remove <mod-id>", removeCmd.Use)
	assert.Contains(t, removeCmd.Aliases, "rm")
	assert.NotEmpty(t, removeCmd.Short)
}

func TestRemoveCmd_RemovesMod(t *testing.T) {
	modsRoot := testEnv(t)
	writeInstalledMod(t, modsRoot, "lazylib", "LazyLib", "2.8b")

	require.NoError(t, execute(t, removeCmd, "remove", "lazylib"))
	assert.NoDirExists(t, filepath.Join(modsRoot, "lazylib"))
}

func TestRemoveCmd_NotInstalled(t *testing.T) {
	testEnv(t)

	err := execute(t, removeCmd, "remove", "ghost")
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrModNotFound)
}
