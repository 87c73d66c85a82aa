package cmd

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestInitConfigFile(t *testing.T) {
	t.Run("writes the default template", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "config.yaml")
		require.NoError(t, initConfigFile(path, false))

		data, err := os.ReadFile(path)
		require.NoError(t, err)
		require.Contains(t, string(data), "watch_manifest: true")
	})

	t.Run("refuses to overwrite without force", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "config.yaml")
		require.NoError(t, os.WriteFile(path, []byte("manifest: mine.yaml\n"), 0600))

		err := initConfigFile(path, false)
		require.ErrorContains(t, err, "already exists")

		data, err := os.ReadFile(path)
		require.NoError(t, err)
		require.Equal(t, "manifest: mine.yaml\n", string(data))
	})

	t.Run("force overwrites", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "config.yaml")
		require.NoError(t, os.WriteFile(path, []byte("manifest: mine.yaml\n"), 0600))

		require.NoError(t, initConfigFile(path, true))

		data, err := os.ReadFile(path)
		require.NoError(t, err)
		require.Contains(t, string(data), "sample_rate: 44100")
	})
}

func TestConfigInitCommandIsRegistered(t *testing.T) {
	cmd, _, err := rootCmd.Find([]string{"config", "init"})
	require.NoError(t, err)
	require.Equal(t, "init", cmd.Name())
}
