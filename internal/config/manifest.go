package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Manifest declares the sounds to register, grouped by category. Paths are
// resolved relative to the process working directory unless absolute.
type Manifest struct {
	Music      map[string]ManifestEntry `yaml:"music"`
	SFX        ManifestSFX              `yaml:"sfx"`
	Multitrack map[string]ManifestEntry `yaml:"multitrack"`
}

// ManifestSFX groups the effect subcategories.
type ManifestSFX struct {
	Core      map[string]ManifestEntry `yaml:"core"`
	Interface map[string]ManifestEntry `yaml:"interface"`
	Aria      map[string]ManifestEntry `yaml:"aria"`
}

// ManifestEntry describes one sound asset.
type ManifestEntry struct {
	// File is the asset path. Required.
	File string `yaml:"file"`

	// Volume in [0, 1]. Defaults to 1 when omitted.
	Volume *float64 `yaml:"volume"`

	// Rate is the playback rate multiplier. Defaults to 1 when omitted.
	Rate *float64 `yaml:"rate"`

	// Loop makes the sound repeat until stopped.
	Loop bool `yaml:"loop"`

	// Sprites maps sub-clip names to segments of the asset.
	Sprites map[string]ManifestSprite `yaml:"sprites"`
}

// ManifestSprite is a named segment inside an asset.
type ManifestSprite struct {
	Start    time.Duration `yaml:"start"`
	Duration time.Duration `yaml:"duration"`
}

// LoadManifest reads and parses the manifest at path.
func LoadManifest(path string) (Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Manifest{}, fmt.Errorf("reading manifest: %w", err)
	}

	var m Manifest
	if err := yaml.Unmarshal(data, &m); err != nil {
		return Manifest{}, fmt.Errorf("parsing manifest: %w", err)
	}
	if err := m.Validate(); err != nil {
		return Manifest{}, err
	}
	return m, nil
}

// Validate checks every entry for errors.
func (m Manifest) Validate() error {
	groups := []struct {
		name    string
		entries map[string]ManifestEntry
	}{
		{"music", m.Music},
		{"sfx.core", m.SFX.Core},
		{"sfx.interface", m.SFX.Interface},
		{"sfx.aria", m.SFX.Aria},
		{"multitrack", m.Multitrack},
	}

	for _, g := range groups {
		for key, entry := range g.entries {
			if entry.File == "" {
				return fmt.Errorf("%s.%s: file is required", g.name, key)
			}
			if entry.Volume != nil && (*entry.Volume < 0 || *entry.Volume > 1) {
				return fmt.Errorf("%s.%s: volume must be in [0, 1]", g.name, key)
			}
			if entry.Rate != nil && *entry.Rate <= 0 {
				return fmt.Errorf("%s.%s: rate must be positive", g.name, key)
			}
			for name, sp := range entry.Sprites {
				if sp.Duration <= 0 {
					return fmt.Errorf("%s.%s: sprite %q needs a positive duration", g.name, key, name)
				}
				if sp.Start < 0 {
					return fmt.Errorf("%s.%s: sprite %q has a negative start", g.name, key, name)
				}
			}
		}
	}
	return nil
}
