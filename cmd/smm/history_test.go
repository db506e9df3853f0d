package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHistoryCmd_Structure(t *testing.T) {
	assert.Equal(t, "history [mod-id]", historyCmd.Use)
	assert.NotEmpty(t, historyCmd.Short)

	limit := historyCmd.Flags().Lookup("limit")
	require.NotNil(t, limit)
	assert.Equal(t, "20", limit.DefValue)
}

func TestHistoryCmd_Empty(t *testing.T) {
	testEnv(t)
	historyLimit = 20

	require.NoError(t, execute(t, historyCmd, "history"))
}

func TestHistoryCmd_AfterInstall(t *testing.T) {
	testEnv(t)
	installForce, installDryRun, installWorkers = false, false, 0
	historyLimit = 20

	archive := writeModZip(t, "lazylib", "LazyLib", "2.8b")
	require.NoError(t, execute(t, installCmd, "install", archive))

	require.NoError(t, execute(t, historyCmd, "history"))
	require.NoError(t, execute(t, historyCmd, "history", "lazylib"))
}
