package config

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func writeManifest(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "sounds.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0600))
	return path
}

func TestLoadManifest(t *testing.T) {
	t.Run("parses a full manifest", func(t *testing.T) {
		path := writeManifest(t, `
music:
  theme:
    file: assets/theme.mp3
    volume: 0.6
    loop: true
sfx:
  core:
    click:
      file: assets/click.wav
      rate: 1.5
  interface:
    hover:
      file: assets/hover.wav
  aria:
    focus:
      file: assets/focus.wav
      sprites:
        short:
          start: 0s
          duration: 80ms
multitrack:
  stems:
    file: assets/stems.wav
`)

		m, err := LoadManifest(path)
		require.NoError(t, err)

		theme := m.Music["theme"]
		require.Equal(t, "assets/theme.mp3", theme.File)
		require.NotNil(t, theme.Volume)
		require.Equal(t, 0.6, *theme.Volume)
		require.True(t, theme.Loop)

		click := m.SFX.Core["click"]
		require.NotNil(t, click.Rate)
		require.Equal(t, 1.5, *click.Rate)

		focus := m.SFX.Aria["focus"]
		require.Len(t, focus.Sprites, 1)
		require.Equal(t, 80*time.Millisecond, focus.Sprites["short"].Duration)

		require.Contains(t, m.Multitrack, "stems")
	})

	t.Run("missing file errors", func(t *testing.T) {
		_, err := LoadManifest(filepath.Join(t.TempDir(), "absent.yaml"))
		require.Error(t, err)
	})

	t.Run("malformed yaml errors", func(t *testing.T) {
		path := writeManifest(t, "music: [not a map")
		_, err := LoadManifest(path)
		require.Error(t, err)
	})
}

func TestManifestValidate(t *testing.T) {
	tests := []struct {
		name    string
		yaml    string
		wantErr string
	}{
		{
			name:    "entry without file",
			yaml:    "music:\n  theme:\n    loop: true\n",
			wantErr: "file is required",
		},
		{
			name:    "volume out of range",
			yaml:    "music:\n  theme:\n    file: a.mp3\n    volume: 1.5\n",
			wantErr: "volume",
		},
		{
			name:    "non-positive rate",
			yaml:    "sfx:\n  core:\n    click:\n      file: a.wav\n      rate: 0\n",
			wantErr: "rate",
		},
		{
			name:    "sprite without duration",
			yaml:    "sfx:\n  aria:\n    focus:\n      file: a.wav\n      sprites:\n        x:\n          start: 1s\n",
			wantErr: "duration",
		},
		{
			name:    "sprite with negative start",
			yaml:    "sfx:\n  aria:\n    focus:\n      file: a.wav\n      sprites:\n        x:\n          start: -1s\n          duration: 1s\n",
			wantErr: "start",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := writeManifest(t, tt.yaml)
			_, err := LoadManifest(path)
			require.ErrorContains(t, err, tt.wantErr)
		})
	}
}

func TestWatchManifest(t *testing.T) {
	path := writeManifest(t, "music:\n  theme:\n    file: a.mp3\n")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	reloads := make(chan Manifest, 4)
	require.NoError(t, WatchManifest(ctx, path, func(m Manifest) {
		reloads <- m
	}))

	// A broken intermediate write is skipped; the next good write lands.
	require.NoError(t, os.WriteFile(path, []byte("music: [broken"), 0600))
	require.NoError(t, os.WriteFile(path, []byte("music:\n  theme:\n    file: b.mp3\n"), 0600))

	require.Eventually(t, func() bool {
		select {
		case m := <-reloads:
			return m.Music["theme"].File == "b.mp3"
		default:
			return false
		}
	}, 3*time.Second, 20*time.Millisecond)

	t.Run("missing file errors immediately", func(t *testing.T) {
		err := WatchManifest(ctx, filepath.Join(t.TempDir(), "absent.yaml"), func(Manifest) {})
		require.Error(t, err)
	})
}
