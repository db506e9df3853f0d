package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInitService_CreatesDirectories(t *testing.T) {
	testEnv(t)

	svc, err := initService()
	require.NoError(t, err)
	t.Cleanup(func() {
		require.NoError(t, svc.Close())
	})

	assert.DirExists(t, configDir)
	assert.DirExists(t, stateDir)
	assert.FileExists(t, stateDir+"/smm.db")
}

func TestRootCmd_Structure(t *testing.T) {
	assert.Equal(t, "smm", rootCmd.Use)
	assert.NotEmpty(t, rootCmd.Short)
	assert.True(t, rootCmd.SilenceUsage)
	assert.True(t, rootCmd.SilenceErrors)

	assert.NotNil(t, rootCmd.PersistentFlags().Lookup("mods-dir"))
	assert.NotNil(t, rootCmd.PersistentFlags().Lookup("config"))
	assert.NotNil(t, rootCmd.PersistentFlags().Lookup("config-file"))
	assert.NotNil(t, rootCmd.PersistentFlags().Lookup("state"))
	assert.NotNil(t, rootCmd.PersistentFlags().Lookup("verbose"))
	assert.NotNil(t, rootCmd.PersistentFlags().Lookup("no-color"))
}

func TestInitService_ExplicitConfigFile(t *testing.T) {
	testEnv(t)

	wantMods := t.TempDir()
	path := filepath.Join(t.TempDir(), "alt.yaml")
	require.NoError(t, os.WriteFile(path, []byte("mods_dir: "+wantMods+"\n"), 0644))

	modsDir = "" // let the config file decide
	configFile = path
	svc, err := initService()
	require.NoError(t, err)
	t.Cleanup(func() {
		require.NoError(t, svc.Close())
	})

	got, err := svc.ModsDir()
	require.NoError(t, err)
	assert.Equal(t, wantMods, got)
}

func TestInitService_RejectsRelativeConfigFile(t *testing.T) {
	testEnv(t)

	configFile = "relative/config.yaml"
	_, err := initService()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "absolute")
}

func TestColorEnabled(t *testing.T) {
	t.Setenv("NO_COLOR", "")
	os.Unsetenv("NO_COLOR")

	noColor = false
	assert.Equal(t, ansiGreen+"ok"+ansiReset, colorGreen("ok"))

	noColor = true
	assert.Equal(t, "ok", colorGreen("ok"))
	assert.Equal(t, "bad", colorRed("bad"))

	noColor = false
	t.Setenv("NO_COLOR", "1")
	assert.Equal(t, "ok", colorGreen("ok"))
}
