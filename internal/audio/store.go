package audio

import (
	"sync"

	"github.com/zjrosen/chime/internal/log"
)

// Listener observes state snapshots. Listeners receive the same snapshot
// value per broadcast and must treat it as read-only shared data; the store
// never mutates a snapshot after handing it out.
type Listener func(AudioState)

// Store owns the mirrored AudioState. All mutation goes through Init, Apply,
// and the global setters; every mutation broadcasts a fresh snapshot to the
// subscribed listeners, synchronously and in subscription order.
type Store struct {
	mu    sync.Mutex
	state AudioState

	nextListenerID int
	listeners      []storeListener
}

type storeListener struct {
	id int
	fn Listener
}

// NewStore creates a store with no sounds, unmuted, at full volume.
func NewStore() *Store {
	return &Store{
		state: AudioState{
			GlobalVolume: 1,
			Music:        make(map[string]SoundState),
			SFX: SFXState{
				Core:      make(map[string]SoundState),
				Interface: make(map[string]SoundState),
				Aria:      make(map[string]SoundState),
			},
		},
	}
}

// Init seeds the entry for addr with a stopped tri-state, carrying the
// volume/loop/rate the handle was configured with. Re-initializing an
// existing key resets it (mirrors registry overwrite semantics). Multitrack
// addresses are ignored.
func (s *Store) Init(addr Address, volume float64, loop bool, rate float64) {
	if !addr.Mirrored() {
		return
	}

	s.mu.Lock()
	m := s.soundsLocked(addr)
	if m == nil {
		s.mu.Unlock()
		log.Warn(log.CatAudio, "Init on unknown category slot", "address", addr.String())
		return
	}
	m[addr.Key] = SoundState{
		Stopped: true,
		Volume:  volume,
		Loop:    loop,
		Rate:    rate,
	}
	snapshot, listeners := s.broadcastLocked()
	s.mu.Unlock()

	notify(snapshot, listeners)
}

// Apply merges the patch into the entry for addr and broadcasts. Applying to
// a key that was never initialized is a logged no-op.
func (s *Store) Apply(addr Address, patch Patch) {
	s.mu.Lock()
	m := s.soundsLocked(addr)
	if m == nil {
		s.mu.Unlock()
		log.Warn(log.CatAudio, "Apply on unknown category slot", "address", addr.String())
		return
	}
	entry, ok := m[addr.Key]
	if !ok {
		s.mu.Unlock()
		log.Debug(log.CatAudio, "Apply on unregistered key ignored", "address", addr.String())
		return
	}
	patch.apply(&entry)
	m[addr.Key] = entry
	snapshot, listeners := s.broadcastLocked()
	s.mu.Unlock()

	notify(snapshot, listeners)
}

// SetGlobalMute records the engine-wide mute flag and broadcasts.
func (s *Store) SetGlobalMute(muted bool) {
	s.mu.Lock()
	s.state.GlobalMute = muted
	snapshot, listeners := s.broadcastLocked()
	s.mu.Unlock()

	notify(snapshot, listeners)
}

// SetGlobalVolume records the engine-wide volume and broadcasts.
func (s *Store) SetGlobalVolume(v float64) {
	s.mu.Lock()
	s.state.GlobalVolume = v
	snapshot, listeners := s.broadcastLocked()
	s.mu.Unlock()

	notify(snapshot, listeners)
}

// Snapshot returns a deep, independent copy of the current state. Mutating
// the returned value never affects the store.
func (s *Store) Snapshot() AudioState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.clone()
}

// Sound returns the current entry for addr, if mirrored and initialized.
func (s *Store) Sound(addr Address) (SoundState, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	m := s.soundsLocked(addr)
	if m == nil {
		return SoundState{}, false
	}
	st, ok := m[addr.Key]
	return st, ok
}

// Subscribe registers a listener and returns its unsubscribe function.
// Listeners added or removed during a broadcast do not affect the in-flight
// pass: the listener list is snapshotted before iteration.
func (s *Store) Subscribe(fn Listener) (unsubscribe func()) {
	s.mu.Lock()
	s.nextListenerID++
	id := s.nextListenerID
	s.listeners = append(s.listeners, storeListener{id: id, fn: fn})
	s.mu.Unlock()

	return func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		for i, l := range s.listeners {
			if l.id == id {
				s.listeners = append(s.listeners[:i], s.listeners[i+1:]...)
				return
			}
		}
	}
}

// broadcastLocked prepares a broadcast: one snapshot copy shared by all
// listeners, plus the listener list as of this mutation. Must be called with
// mu held; the actual notification happens after mu is released so listeners
// may call back into the store.
func (s *Store) broadcastLocked() (AudioState, []storeListener) {
	if len(s.listeners) == 0 {
		return AudioState{}, nil
	}
	return s.state.clone(), append([]storeListener(nil), s.listeners...)
}

func notify(snapshot AudioState, listeners []storeListener) {
	for _, l := range listeners {
		l.fn(snapshot)
	}
}

// soundsLocked returns the map backing addr's category slot, or nil for
// slots the store does not mirror. Must be called with mu held.
func (s *Store) soundsLocked(addr Address) map[string]SoundState {
	switch addr.Category {
	case CategoryMusic:
		if addr.Subcategory == SubNone {
			return s.state.Music
		}
	case CategorySFX:
		switch addr.Subcategory {
		case SubCore:
			return s.state.SFX.Core
		case SubInterface:
			return s.state.SFX.Interface
		case SubAria:
			return s.state.SFX.Aria
		}
	}
	return nil
}
