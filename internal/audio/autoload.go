package audio

import (
	"context"

	"github.com/zjrosen/chime/internal/audio/engine"
	"github.com/zjrosen/chime/internal/config"
	"github.com/zjrosen/chime/internal/log"
)

// ApplyManifest registers every sound the manifest declares. Keys already
// registered are overwritten with the manifest's current definition, so
// re-applying an edited manifest is how runtime registration happens.
func ApplyManifest(s *System, m config.Manifest) {
	apply := func(cat Category, sub Subcategory, entries map[string]config.ManifestEntry) {
		for key, entry := range entries {
			s.Register(Address{Category: cat, Subcategory: sub, Key: key}, assetFromEntry(entry))
		}
	}

	apply(CategoryMusic, SubNone, m.Music)
	apply(CategorySFX, SubCore, m.SFX.Core)
	apply(CategorySFX, SubInterface, m.SFX.Interface)
	apply(CategorySFX, SubAria, m.SFX.Aria)
	apply(CategoryMultitrack, SubNone, m.Multitrack)
}

// WatchManifest applies the manifest whenever it changes on disk, until ctx
// is cancelled.
func WatchManifest(ctx context.Context, s *System, path string) error {
	log.Info(log.CatConfig, "Watching sound manifest", "path", path)
	return config.WatchManifest(ctx, path, func(m config.Manifest) {
		ApplyManifest(s, m)
	})
}

func assetFromEntry(entry config.ManifestEntry) Asset {
	asset := NewAsset(entry.File)
	if entry.Volume != nil {
		asset.Volume = *entry.Volume
	}
	if entry.Rate != nil {
		asset.Rate = *entry.Rate
	}
	asset.Loop = entry.Loop

	if len(entry.Sprites) > 0 {
		asset.Sprites = make(map[string]engine.Sprite, len(entry.Sprites))
		for name, sp := range entry.Sprites {
			asset.Sprites[name] = engine.Sprite{Start: sp.Start, Duration: sp.Duration}
		}
	}
	return asset
}
