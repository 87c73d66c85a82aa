package audio

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"
)

func mustSound(t *testing.T, s *Store, addr Address) SoundState {
	t.Helper()
	st, ok := s.Sound(addr)
	require.True(t, ok, "sound %s not in store", addr.String())
	return st
}

func TestStoreInit(t *testing.T) {
	click := Address{Category: CategorySFX, Subcategory: SubCore, Key: "click"}

	t.Run("seeds a stopped entry with the configured settings", func(t *testing.T) {
		s := NewStore()
		s.Init(click, 0.7, true, 1.5)

		st := mustSound(t, s, click)
		require.True(t, st.Stopped)
		require.False(t, st.Playing)
		require.False(t, st.Paused)
		require.Equal(t, 0.7, st.Volume)
		require.True(t, st.Loop)
		require.Equal(t, 1.5, st.Rate)
		require.True(t, st.LastPlayed.IsZero())
	})

	t.Run("re-init resets the entry", func(t *testing.T) {
		s := NewStore()
		s.Init(click, 1, false, 1)
		s.Apply(click, PatchPlaying(time.Now()))

		s.Init(click, 0.5, false, 1)
		st := mustSound(t, s, click)
		require.True(t, st.Stopped)
		require.Equal(t, 0.5, st.Volume)
		require.True(t, st.LastPlayed.IsZero())
	})

	t.Run("multitrack is not mirrored", func(t *testing.T) {
		s := NewStore()
		stems := Address{Category: CategoryMultitrack, Key: "stems"}
		s.Init(stems, 1, false, 1)

		_, ok := s.Sound(stems)
		require.False(t, ok)
		require.Empty(t, s.Snapshot().Music)
	})
}

func TestStoreApply(t *testing.T) {
	theme := Address{Category: CategoryMusic, Key: "theme"}

	t.Run("transitions flow through the tri-state", func(t *testing.T) {
		s := NewStore()
		s.Init(theme, 1, false, 1)

		s.Apply(theme, PatchPlaying(time.Now()))
		st := mustSound(t, s, theme)
		require.True(t, st.Playing)
		require.False(t, st.LastPlayed.IsZero())

		s.Apply(theme, PatchPaused())
		st = mustSound(t, s, theme)
		require.True(t, st.Paused)
		require.False(t, st.Playing)

		s.Apply(theme, PatchStopped())
		st = mustSound(t, s, theme)
		require.True(t, st.Stopped)
	})

	t.Run("unregistered key is a no-op", func(t *testing.T) {
		s := NewStore()
		calls := 0
		unsubscribe := s.Subscribe(func(AudioState) { calls++ })
		defer unsubscribe()

		s.Apply(theme, PatchPlaying(time.Now()))
		require.Zero(t, calls, "no broadcast for a dropped patch")
		_, ok := s.Sound(theme)
		require.False(t, ok)
	})
}

func TestStoreSnapshotIsolation(t *testing.T) {
	theme := Address{Category: CategoryMusic, Key: "theme"}
	s := NewStore()
	s.Init(theme, 1, false, 1)

	snap := s.Snapshot()
	snap.Music["theme"] = SoundState{Playing: true}
	snap.Music["ghost"] = SoundState{}
	snap.GlobalVolume = 0

	st := mustSound(t, s, theme)
	require.True(t, st.Stopped)
	require.Len(t, s.Snapshot().Music, 1)
	require.Equal(t, float64(1), s.Snapshot().GlobalVolume)
}

// However a caller mangles a snapshot, the store's own state is untouched.
func TestStoreSnapshotIsolationProperty(t *testing.T) {
	slots := []Address{
		{Category: CategoryMusic, Key: "theme"},
		{Category: CategorySFX, Subcategory: SubCore, Key: "click"},
		{Category: CategorySFX, Subcategory: SubInterface, Key: "hover"},
		{Category: CategorySFX, Subcategory: SubAria, Key: "focus"},
	}

	rapid.Check(t, func(t *rapid.T) {
		s := NewStore()
		for _, addr := range slots {
			s.Init(addr, 1, false, 1)
		}
		addr := rapid.SampledFrom(slots).Draw(t, "addr")
		s.Apply(addr, PatchPlaying(time.Now()))

		before := s.Snapshot()

		snap := s.Snapshot()
		for key := range snap.Music {
			snap.Music[key] = SoundState{Playing: rapid.Bool().Draw(t, "playing")}
		}
		snap.Music[rapid.StringMatching(`[a-z]{1,8}`).Draw(t, "extra")] = SoundState{}
		delete(snap.SFX.Core, "click")
		snap.SFX.Aria["focus"] = SoundState{Paused: true}
		snap.GlobalVolume = rapid.Float64Range(0, 1).Draw(t, "volume")
		snap.GlobalMute = true

		require.Equal(t, before, s.Snapshot())
	})
}

func TestStoreGlobals(t *testing.T) {
	s := NewStore()

	require.False(t, s.Snapshot().GlobalMute)
	require.Equal(t, float64(1), s.Snapshot().GlobalVolume)

	s.SetGlobalMute(true)
	s.SetGlobalVolume(0.3)

	snap := s.Snapshot()
	require.True(t, snap.GlobalMute)
	require.Equal(t, 0.3, snap.GlobalVolume)
}

func TestStoreSubscribe(t *testing.T) {
	click := Address{Category: CategorySFX, Subcategory: SubCore, Key: "click"}

	t.Run("every mutation broadcasts one snapshot", func(t *testing.T) {
		s := NewStore()
		var got []AudioState
		unsubscribe := s.Subscribe(func(st AudioState) { got = append(got, st) })
		defer unsubscribe()

		s.Init(click, 1, false, 1)
		s.Apply(click, PatchPlaying(time.Now()))
		s.SetGlobalMute(true)

		require.Len(t, got, 3)
		require.True(t, got[0].SFX.Core["click"].Stopped)
		require.True(t, got[1].SFX.Core["click"].Playing)
		require.True(t, got[2].GlobalMute)
	})

	t.Run("listeners fire in subscription order", func(t *testing.T) {
		s := NewStore()
		var order []string
		defer s.Subscribe(func(AudioState) { order = append(order, "first") })()
		defer s.Subscribe(func(AudioState) { order = append(order, "second") })()

		s.SetGlobalVolume(0.5)
		require.Equal(t, []string{"first", "second"}, order)
	})

	t.Run("unsubscribe stops delivery", func(t *testing.T) {
		s := NewStore()
		calls := 0
		unsubscribe := s.Subscribe(func(AudioState) { calls++ })

		s.SetGlobalVolume(0.5)
		unsubscribe()
		s.SetGlobalVolume(0.7)

		require.Equal(t, 1, calls)
	})

	t.Run("unsubscribe during a broadcast finishes the in-flight pass", func(t *testing.T) {
		s := NewStore()
		var order []string
		var unsubSecond func()

		unsubFirst := s.Subscribe(func(AudioState) {
			order = append(order, "first")
			unsubSecond()
		})
		defer unsubFirst()
		unsubSecond = s.Subscribe(func(AudioState) { order = append(order, "second") })

		// The second listener is removed mid-pass but still sees this
		// broadcast; it is gone by the next one.
		s.SetGlobalVolume(0.5)
		require.Equal(t, []string{"first", "second"}, order)

		s.SetGlobalVolume(0.7)
		require.Equal(t, []string{"first", "second", "first"}, order)
	})

	t.Run("subscribe during a broadcast waits for the next pass", func(t *testing.T) {
		s := NewStore()
		var order []string

		unsubscribe := s.Subscribe(func(AudioState) {
			order = append(order, "outer")
			if len(order) == 1 {
				s.Subscribe(func(AudioState) { order = append(order, "inner") })
			}
		})
		defer unsubscribe()

		s.SetGlobalVolume(0.5)
		require.Equal(t, []string{"outer"}, order)

		s.SetGlobalVolume(0.7)
		require.Equal(t, []string{"outer", "outer", "inner"}, order)
	})

	t.Run("listener may call back into the store", func(t *testing.T) {
		s := NewStore()
		var sawVolume float64
		unsubscribe := s.Subscribe(func(st AudioState) {
			sawVolume = s.Snapshot().GlobalVolume
		})
		defer unsubscribe()

		s.SetGlobalVolume(0.5)
		require.Equal(t, 0.5, sawVolume)
	})

	t.Run("all listeners see the same snapshot value", func(t *testing.T) {
		s := NewStore()
		s.Init(click, 1, false, 1)

		var a, b AudioState
		defer s.Subscribe(func(st AudioState) { a = st })()
		defer s.Subscribe(func(st AudioState) { b = st })()

		s.Apply(click, PatchPlaying(time.Now()))
		require.Equal(t, a, b)
		require.True(t, a.SFX.Core["click"].Playing)
	})
}
