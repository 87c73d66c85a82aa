// Package sound provides the built-in accessibility cues shipped with chime.
// The cues are embedded WAV files registered under sfx/aria so screen-reader
// style feedback works without any manifest.
package sound

import (
	"embed"
	"fmt"
	"io/fs"
	"strings"
)

//go:embed sounds/*.wav
var soundFiles embed.FS

// Cues returns the embedded cue WAVs keyed by name (filename without
// extension).
func Cues() (map[string][]byte, error) {
	entries, err := fs.ReadDir(soundFiles, "sounds")
	if err != nil {
		return nil, fmt.Errorf("reading embedded sounds: %w", err)
	}

	cues := make(map[string][]byte, len(entries))
	for _, entry := range entries {
		name := strings.TrimSuffix(entry.Name(), ".wav")
		data, err := soundFiles.ReadFile("sounds/" + entry.Name())
		if err != nil {
			return nil, fmt.Errorf("reading embedded cue %s: %w", entry.Name(), err)
		}
		cues[name] = data
	}
	return cues, nil
}
