// Package audio implements the state synchronization core: the registry of
// playable handles, the mirrored state store, the observer bus, and the
// per-category facades that drive the playback engine.
package audio

import (
	"fmt"
	"strings"
)

// Category is the top-level sound classification. The set is closed.
type Category string

const (
	// CategoryMusic holds long-form background tracks.
	CategoryMusic Category = "music"
	// CategorySFX holds short effects, split into subcategories.
	CategorySFX Category = "sfx"
	// CategoryMultitrack holds layered stem sets. Playback is supported but
	// multitrack state is not mirrored into AudioState; the gap is
	// intentional and carried forward from the original design.
	CategoryMultitrack Category = "multitrack"
)

// Subcategory subdivides CategorySFX. Other categories use SubNone.
type Subcategory string

const (
	// SubNone marks categories without subdivision.
	SubNone Subcategory = ""
	// SubCore holds gameplay/application effects.
	SubCore Subcategory = "core"
	// SubInterface holds UI interaction effects.
	SubInterface Subcategory = "interface"
	// SubAria holds accessibility cues.
	SubAria Subcategory = "aria"
)

// Address identifies one registered sound.
type Address struct {
	Category    Category
	Subcategory Subcategory
	Key         string
}

// String renders the address as "category/subcategory/key". Categories
// without a subcategory keep the empty middle segment so the form stays
// reversible.
func (a Address) String() string {
	return string(a.Category) + "/" + string(a.Subcategory) + "/" + a.Key
}

// ParseAddress parses the String form back into an Address.
func ParseAddress(s string) (Address, error) {
	parts := strings.SplitN(s, "/", 3)
	if len(parts) != 3 || parts[0] == "" || parts[2] == "" {
		return Address{}, fmt.Errorf("malformed sound address %q", s)
	}
	return Address{
		Category:    Category(parts[0]),
		Subcategory: Subcategory(parts[1]),
		Key:         parts[2],
	}, nil
}

// Valid reports whether the address names one of the closed category slots.
func (a Address) Valid() bool {
	switch a.Category {
	case CategoryMusic, CategoryMultitrack:
		return a.Subcategory == SubNone
	case CategorySFX:
		switch a.Subcategory {
		case SubCore, SubInterface, SubAria:
			return true
		}
	}
	return false
}

// Mirrored reports whether the address's category is tracked in the state
// store. Multitrack is registry-only.
func (a Address) Mirrored() bool {
	return a.Category == CategoryMusic || a.Category == CategorySFX
}
