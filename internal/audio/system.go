package audio

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/zjrosen/chime/internal/audio/engine"
	"github.com/zjrosen/chime/internal/log"
	"github.com/zjrosen/chime/internal/pubsub"
)

// SpeechControl is the slice of the speech facade the global transport
// controls need. Stop-all and pause-all are defined to include speech.
type SpeechControl interface {
	Pause()
	Stop()
}

// Config configures a System.
type Config struct {
	// Engine is the playback engine. Required.
	Engine engine.Engine

	// Speech is included in StopAll/PauseAll when set.
	Speech SpeechControl
}

// System is the audio subsystem: one engine, one registry, one store, one
// event loop. There is exactly one System per runtime, created at startup by
// the owner and passed by reference; the package keeps no global instance.
type System struct {
	engine   engine.Engine
	speech   SpeechControl
	registry *Registry
	store    *Store
	events   *pubsub.Broker[engine.Event]

	startOnce sync.Once
	startErr  error
}

// New creates a System around the given engine. Call Start before use.
func New(cfg Config) (*System, error) {
	if cfg.Engine == nil {
		return nil, fmt.Errorf("engine is required")
	}
	return &System{
		engine:   cfg.Engine,
		speech:   cfg.Speech,
		registry: NewRegistry(),
		store:    NewStore(),
		events:   pubsub.NewBroker[engine.Event](),
	}, nil
}

// Start begins engine initialization and the event loop that mirrors engine
// events into the store. The event loop is the store's only engine-driven
// writer, so listeners never observe a half-applied transition. Start is
// idempotent; the loop runs until ctx is cancelled.
func (s *System) Start(ctx context.Context) error {
	s.startOnce.Do(func() {
		ch := s.events.Subscribe(ctx)
		if err := s.engine.Start(func(ev engine.Event) {
			s.events.Publish(pubsub.UpdatedEvent, ev)
		}); err != nil {
			s.startErr = fmt.Errorf("starting engine: %w", err)
			return
		}
		log.SafeGo("audio.eventLoop", func() {
			for ev := range ch {
				s.handleEngineEvent(ev.Payload)
			}
		})
	})
	return s.startErr
}

// AwaitReady blocks until the engine can load and play assets, or ctx ends.
func (s *System) AwaitReady(ctx context.Context) error {
	select {
	case <-s.engine.Ready():
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// isReady reports whether the engine initialization gate has resolved.
func (s *System) isReady() bool {
	select {
	case <-s.engine.Ready():
		return true
	default:
		return false
	}
}

// Asset describes a playable source for registration.
type Asset struct {
	Path    string
	Data    []byte
	Format  string
	Volume  float64
	Rate    float64
	Loop    bool
	Sprites map[string]engine.Sprite
}

// NewAsset returns a file-backed Asset at full volume and normal rate.
func NewAsset(path string) Asset {
	return Asset{Path: path, Volume: 1, Rate: 1}
}

// NewDataAsset returns an in-memory Asset at full volume and normal rate.
// format is "wav" or "mp3".
func NewDataAsset(data []byte, format string) Asset {
	return Asset{Data: data, Format: format, Volume: 1, Rate: 1}
}

// Register loads the asset and files its handle under addr. Usable at boot
// and at runtime; the new entry shows up in the very next snapshot. Before
// the engine is ready registration is a warn-logged no-op.
func (s *System) Register(addr Address, asset Asset) {
	if !addr.Valid() {
		log.Warn(log.CatAudio, "Registration with invalid address skipped", "address", addr.String())
		return
	}
	if !s.isReady() {
		log.Warn(log.CatAudio, "Registration before engine ready skipped", "address", addr.String())
		return
	}

	rate := asset.Rate
	if rate <= 0 {
		rate = 1
	}
	volume := asset.Volume
	if volume < 0 {
		volume = 0
	} else if volume > 1 {
		volume = 1
	}

	h := s.engine.Load(engine.Descriptor{
		ID:      addr.String(),
		Path:    asset.Path,
		Data:    asset.Data,
		Format:  asset.Format,
		Volume:  volume,
		Rate:    rate,
		Loop:    asset.Loop,
		Sprites: asset.Sprites,
	})
	s.registry.Register(addr, h)
	s.store.Init(addr, volume, asset.Loop, rate)
	log.Debug(log.CatAudio, "Sound registered", "address", addr.String(), "path", asset.Path)
}

// Music returns the facade for the music category.
func (s *System) Music() Facade {
	return Facade{sys: s, cat: CategoryMusic, sub: SubNone}
}

// SFX returns the facade for an effects subcategory.
func (s *System) SFX(sub Subcategory) Facade {
	return Facade{sys: s, cat: CategorySFX, sub: sub}
}

// Multitrack returns the facade for the multitrack category. Playback works;
// multitrack state is not mirrored into snapshots.
func (s *System) Multitrack() Facade {
	return Facade{sys: s, cat: CategoryMultitrack, sub: SubNone}
}

// Snapshot returns a deep, independent copy of the mirrored state.
func (s *System) Snapshot() AudioState {
	return s.store.Snapshot()
}

// Subscribe registers an observer of state snapshots. Observers are invoked
// synchronously after every mutation, in subscription order.
func (s *System) Subscribe(fn Listener) (unsubscribe func()) {
	return s.store.Subscribe(fn)
}

// MuteAll mutes every handle through the engine-wide control surface. This
// covers categories without state mirroring too.
func (s *System) MuteAll() {
	if !s.isReady() {
		log.Warn(log.CatAudio, "MuteAll before engine ready skipped")
		return
	}
	s.engine.MuteAll(true)
	s.store.SetGlobalMute(true)
}

// UnmuteAll restores sound through the engine-wide control surface.
func (s *System) UnmuteAll() {
	if !s.isReady() {
		log.Warn(log.CatAudio, "UnmuteAll before engine ready skipped")
		return
	}
	s.engine.MuteAll(false)
	s.store.SetGlobalMute(false)
}

// SetVolumeAll sets the engine-wide volume multiplier in [0, 1].
func (s *System) SetVolumeAll(v float64) {
	if !s.isReady() {
		log.Warn(log.CatAudio, "SetVolumeAll before engine ready skipped")
		return
	}
	if v < 0 {
		v = 0
	} else if v > 1 {
		v = 1
	}
	s.engine.SetVolumeAll(v)
	s.store.SetGlobalVolume(v)
}

// StopAll stops every handle at the engine level and stops speech. Global
// transport controls include the speech subsystem.
func (s *System) StopAll() {
	if !s.isReady() {
		log.Warn(log.CatAudio, "StopAll before engine ready skipped")
		return
	}
	s.engine.StopAll()
	if s.speech != nil {
		s.speech.Stop()
	}
}

// PauseAll pauses every registered handle, multitrack included, and pauses
// speech. Unlike StopAll this iterates the registry rather than the engine.
func (s *System) PauseAll() {
	if !s.isReady() {
		log.Warn(log.CatAudio, "PauseAll before engine ready skipped")
		return
	}
	s.registry.Each(func(_ Address, h engine.Handle) {
		h.Pause()
	})
	if s.speech != nil {
		s.speech.Pause()
	}
}

// PlayAll starts every registered handle, multitrack included. Speech is not
// part of play-all.
func (s *System) PlayAll() {
	if !s.isReady() {
		log.Warn(log.CatAudio, "PlayAll before engine ready skipped")
		return
	}
	s.registry.Each(func(_ Address, h engine.Handle) {
		h.Play()
	})
}

// handleEngineEvent mirrors one engine event into the store. Events for
// unmirrored categories are dropped after the transport side effect already
// happened in the engine.
func (s *System) handleEngineEvent(ev engine.Event) {
	addr, err := ParseAddress(ev.ID)
	if err != nil {
		log.Debug(log.CatAudio, "Engine event with unknown id dropped", "id", ev.ID)
		return
	}

	if ev.Type == engine.EventLoadError {
		log.ErrorErr(log.CatAudio, "Asset failed to load, sound stays stopped", ev.Err, "address", addr.String())
	}

	if !addr.Mirrored() {
		return
	}

	switch ev.Type {
	case engine.EventPlay:
		s.store.Apply(addr, PatchPlaying(time.Now()))
	case engine.EventPause:
		s.store.Apply(addr, PatchPaused())
	case engine.EventStop, engine.EventEnd, engine.EventLoadError:
		s.store.Apply(addr, PatchStopped())
	}
}
