// Package enginetest provides a deterministic in-memory Engine for tests.
// Handles emit play/pause/stop events synchronously from the calling
// goroutine; end and loaderror events are fired explicitly by the test.
package enginetest

import (
	"sync"

	"github.com/zjrosen/chime/internal/audio/engine"
)

// Engine is a fake playback engine. The zero value is not usable; create one
// with New.
type Engine struct {
	readyCh chan struct{}

	mu      sync.Mutex
	onEvent func(engine.Event)
	handles map[string]*Handle

	// FailIDs lists descriptor IDs whose Load reports a load error.
	FailIDs map[string]bool

	// Recorded engine-wide calls.
	Muted      bool
	Master     float64
	StopAllN   int
	MuteAllN   int
	VolumeAllN int
}

// New creates a fake engine. It is not ready until Start is called followed
// by MarkReady (or use NewReady).
func New() *Engine {
	return &Engine{
		readyCh: make(chan struct{}),
		handles: make(map[string]*Handle),
		FailIDs: make(map[string]bool),
		Master:  1,
	}
}

// NewReady creates a fake engine that is ready as soon as Start returns.
func NewReady() *Engine {
	e := New()
	close(e.readyCh)
	return e
}

// Start records the event sink. The fake never fails to start.
func (e *Engine) Start(onEvent func(engine.Event)) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.onEvent = onEvent
	return nil
}

// MarkReady resolves the readiness gate.
func (e *Engine) MarkReady() {
	select {
	case <-e.readyCh:
	default:
		close(e.readyCh)
	}
}

// Ready is closed once MarkReady has been called.
func (e *Engine) Ready() <-chan struct{} {
	return e.readyCh
}

// Load returns a handle seeded from the descriptor. IDs listed in FailIDs
// produce a failed handle and an immediate EventLoadError.
func (e *Engine) Load(desc engine.Descriptor) engine.Handle {
	h := &Handle{
		eng:     e,
		id:      desc.ID,
		volume:  desc.Volume,
		rate:    desc.Rate,
		loop:    desc.Loop,
		sprites: desc.Sprites,
	}
	if h.rate <= 0 {
		h.rate = 1
	}

	e.mu.Lock()
	failed := e.FailIDs[desc.ID]
	e.handles[desc.ID] = h
	e.mu.Unlock()

	if failed {
		h.failed = true
		e.emit(engine.Event{Type: engine.EventLoadError, ID: desc.ID})
	}
	return h
}

// Handle returns the fake handle loaded under id, or nil.
func (e *Engine) Handle(id string) *Handle {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.handles[id]
}

// FireEnd emits a natural-end event for the handle, as if its asset drained.
func (e *Engine) FireEnd(id string) {
	e.mu.Lock()
	h := e.handles[id]
	e.mu.Unlock()
	if h == nil {
		return
	}

	h.mu.Lock()
	h.playing = false
	h.paused = false
	h.mu.Unlock()
	e.emit(engine.Event{Type: engine.EventEnd, ID: id})
}

// MuteAll records the engine-wide mute flag.
func (e *Engine) MuteAll(muted bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.Muted = muted
	e.MuteAllN++
}

// SetVolumeAll records the engine-wide volume.
func (e *Engine) SetVolumeAll(v float64) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.Master = v
	e.VolumeAllN++
}

// StopAll stops every loaded handle, emitting a stop event per active handle.
func (e *Engine) StopAll() {
	e.mu.Lock()
	e.StopAllN++
	handles := make([]*Handle, 0, len(e.handles))
	for _, h := range e.handles {
		handles = append(handles, h)
	}
	e.mu.Unlock()

	for _, h := range handles {
		h.Stop()
	}
}

// Close is a no-op.
func (e *Engine) Close() error { return nil }

func (e *Engine) emit(ev engine.Event) {
	e.mu.Lock()
	onEvent := e.onEvent
	e.mu.Unlock()
	if onEvent != nil {
		onEvent(ev)
	}
}

// Handle is a fake engine handle. Play/Pause/Stop emit their events
// synchronously, mimicking an engine with preloaded assets.
type Handle struct {
	eng     *Engine
	id      string
	failed  bool
	sprites map[string]engine.Sprite

	mu      sync.Mutex
	volume  float64
	rate    float64
	loop    bool
	playing bool
	paused  bool

	// Call counts for assertions.
	PlayN       int
	PauseN      int
	StopN       int
	LastSprite  string
	SpritePlayN int
}

// Play starts or resumes playback and emits EventPlay.
func (h *Handle) Play() {
	if h.failed {
		return
	}
	h.mu.Lock()
	h.PlayN++
	h.playing = true
	h.paused = false
	h.mu.Unlock()
	h.eng.emit(engine.Event{Type: engine.EventPlay, ID: h.id})
}

// PlaySprite plays a named sub-clip; unknown names are no-ops.
func (h *Handle) PlaySprite(name string) {
	if h.failed {
		return
	}
	if _, ok := h.sprites[name]; !ok {
		return
	}
	h.mu.Lock()
	h.SpritePlayN++
	h.LastSprite = name
	h.playing = true
	h.paused = false
	h.mu.Unlock()
	h.eng.emit(engine.Event{Type: engine.EventPlay, ID: h.id})
}

// Pause pauses playback and emits EventPause. No-op unless playing.
func (h *Handle) Pause() {
	h.mu.Lock()
	if !h.playing || h.paused {
		h.mu.Unlock()
		return
	}
	h.PauseN++
	h.paused = true
	h.mu.Unlock()
	h.eng.emit(engine.Event{Type: engine.EventPause, ID: h.id})
}

// Stop halts playback and emits EventStop. No-op unless playing or paused.
func (h *Handle) Stop() {
	h.mu.Lock()
	if !h.playing && !h.paused {
		h.mu.Unlock()
		return
	}
	h.StopN++
	h.playing = false
	h.paused = false
	h.mu.Unlock()
	h.eng.emit(engine.Event{Type: engine.EventStop, ID: h.id})
}

// SetVolume records the handle volume.
func (h *Handle) SetVolume(v float64) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.volume = v
}

// Volume returns the handle volume.
func (h *Handle) Volume() float64 {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.volume
}

// SetRate records the playback rate.
func (h *Handle) SetRate(r float64) {
	if r <= 0 {
		return
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	h.rate = r
}

// Rate returns the playback rate.
func (h *Handle) Rate() float64 {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.rate
}

// SetLoop records looping.
func (h *Handle) SetLoop(loop bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.loop = loop
}

// Loop returns whether the handle loops.
func (h *Handle) Loop() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.loop
}

// Playing reports whether the handle is audibly playing.
func (h *Handle) Playing() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.playing && !h.paused
}
