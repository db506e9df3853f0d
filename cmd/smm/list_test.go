package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestListCmd_Structure(t *testing.T) {
	assert.Equal(t, "list", listCmd.Use)
	assert.Contains(t, listCmd.Aliases, "ls")
	assert.NotEmpty(t, listCmd.Short)
	assert.NotNil(t, listCmd.Flags().Lookup("enabled"))
}

func TestListCmd_EmptyModsDir(t *testing.T) {
	testEnv(t)
	listEnabledOnly = false

	require.NoError(t, execute(t, listCmd, "list"))
}

func TestListCmd_ListsInstalledMods(t *testing.T) {
	modsRoot := testEnv(t)
	listEnabledOnly = false

	writeInstalledMod(t, modsRoot, "lazylib", "LazyLib", "2.8b")
	writeInstalledMod(t, modsRoot, "nexerelin", "Nexerelin", "0.11.2b")

	require.NoError(t, execute(t, listCmd, "list"))
}

func TestListCmd_RejectsArguments(t *testing.T) {
	err := execute(t, listCmd, "list", "stray")
	assert.Error(t, err)
}
