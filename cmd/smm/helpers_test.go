package main

import (
	"archive/zip"
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/require"
)

// testEnv points the global flag vars at temp directories so commands run
// against a throwaway config, state, and mods root.
func testEnv(t *testing.T) (modsRoot string) {
	t.Helper()
	configDir = t.TempDir()
	configFile = ""
	stateDir = t.TempDir()
	modsDir = t.TempDir()
	verbose = false
	noColor = true
	return modsDir
}

// execute runs a subcommand under a fresh parent the way the shell would.
func execute(t *testing.T, cmd *cobra.Command, args ...string) error {
	t.Helper()
	parent := &cobra.Command{Use: "test"}
	parent.AddCommand(cmd)

	buf := new(bytes.Buffer)
	parent.SetOut(buf)
	parent.SetErr(buf)
	parent.SetArgs(args)
	return parent.Execute()
}

// writeModZip builds a minimal installable mod archive.
func writeModZip(t *testing.T, id, name, version string) string {
	t.Helper()
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)

	descriptor := fmt.Sprintf(`{"id": %q, "name": %q, "version": %q}`, id, name, version)
	for path, content := range map[string]string{
		"mod_info.json":    descriptor,
		"data/weapons.csv": "id,name\n",
	} {
		f, err := zw.Create(path)
		require.NoError(t, err)
		_, err = f.Write([]byte(content))
		require.NoError(t, err)
	}
	require.NoError(t, zw.Close())

	path := filepath.Join(t.TempDir(), id+"-"+version+".zip")
	require.NoError(t, os.WriteFile(path, buf.Bytes(), 0644))
	return path
}

// writeTextFile produces a file no archive sniffer will accept.
func writeTextFile(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "readme.txt")
	require.NoError(t, os.WriteFile(path, []byte("not an archive"), 0644))
	return path
}

// writeInstalledMod drops an already-installed mod into the mods root.
func writeInstalledMod(t *testing.T, modsRoot, id, name, version string) {
	t.Helper()
	dir := filepath.Join(modsRoot, id)
	require.NoError(t, os.MkdirAll(dir, 0755))
	descriptor := fmt.Sprintf(`{"id": %q, "name": %q, "version": %q}`, id, name, version)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "mod_info.json"), []byte(descriptor), 0644))
}
