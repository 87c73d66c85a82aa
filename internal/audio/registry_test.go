package audio

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/zjrosen/chime/internal/audio/engine"
	"github.com/zjrosen/chime/internal/audio/engine/enginetest"
)

func loadHandle(t *testing.T, addr Address) engine.Handle {
	t.Helper()
	eng := enginetest.NewReady()
	require.NoError(t, eng.Start(func(engine.Event) {}))
	return eng.Load(engine.Descriptor{ID: addr.String(), Volume: 1, Rate: 1})
}

func TestRegistryResolve(t *testing.T) {
	r := NewRegistry()
	click := Address{Category: CategorySFX, Subcategory: SubCore, Key: "click"}

	_, ok := r.Resolve(click)
	require.False(t, ok)

	h := loadHandle(t, click)
	r.Register(click, h)

	got, ok := r.Resolve(click)
	require.True(t, ok)
	require.Same(t, h, got)
	require.Equal(t, 1, r.Len())
}

// Registering the same address twice replaces the handle without complaint;
// the old handle is simply unreachable afterwards.
func TestRegistryReRegisterOverwritesSilently(t *testing.T) {
	r := NewRegistry()
	theme := Address{Category: CategoryMusic, Key: "theme"}

	first := loadHandle(t, theme)
	second := loadHandle(t, theme)

	r.Register(theme, first)
	r.Register(theme, second)

	got, ok := r.Resolve(theme)
	require.True(t, ok)
	require.Same(t, second, got)
	require.NotSame(t, first, got)
	require.Equal(t, 1, r.Len())
}

func TestRegistryEach(t *testing.T) {
	r := NewRegistry()
	addrs := []Address{
		{Category: CategoryMusic, Key: "theme"},
		{Category: CategorySFX, Subcategory: SubAria, Key: "focus"},
		{Category: CategoryMultitrack, Key: "stems"},
	}
	for _, addr := range addrs {
		r.Register(addr, loadHandle(t, addr))
	}

	seen := make(map[Address]bool)
	r.Each(func(addr Address, h engine.Handle) {
		require.NotNil(t, h)
		seen[addr] = true
	})

	require.Len(t, seen, len(addrs))
	for _, addr := range addrs {
		require.True(t, seen[addr], "missing %s", addr.String())
	}
}
