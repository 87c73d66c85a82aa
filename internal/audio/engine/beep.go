package engine

import (
	"bytes"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/faiface/beep"
	"github.com/faiface/beep/effects"
	"github.com/faiface/beep/mp3"
	"github.com/faiface/beep/speaker"
	"github.com/faiface/beep/wav"
	gocache "github.com/patrickmn/go-cache"

	"github.com/zjrosen/chime/internal/log"
)

// resampleQuality is the beep resampler quality used for rate changes and
// sample rate conversion.
const resampleQuality = 4

// BeepConfig configures the beep-backed playback engine.
type BeepConfig struct {
	// SampleRate is the device sample rate. Defaults to 44100.
	SampleRate int
	// BufferMs is the speaker buffer length in milliseconds. Defaults to 100.
	BufferMs int
	// CacheTTL is how long decoded buffers stay cached. Defaults to 10 minutes.
	CacheTTL time.Duration
}

// BeepEngine implements Engine on top of faiface/beep and the system speaker.
// Decoded assets are buffered fully in memory; repeated loads of the same
// file reuse the cached buffer.
type BeepEngine struct {
	format  beep.Format
	bufMs   int
	ready   chan struct{}
	buffers *gocache.Cache

	mu      sync.Mutex
	onEvent func(Event)
	handles []*beepHandle
	muted   bool
	master  float64
	started bool
}

// NewBeep creates a beep-backed engine. Call Start before loading assets.
func NewBeep(cfg BeepConfig) *BeepEngine {
	sr := cfg.SampleRate
	if sr <= 0 {
		sr = 44100
	}
	bufMs := cfg.BufferMs
	if bufMs <= 0 {
		bufMs = 100
	}
	ttl := cfg.CacheTTL
	if ttl <= 0 {
		ttl = 10 * time.Minute
	}

	return &BeepEngine{
		format:  beep.Format{SampleRate: beep.SampleRate(sr), NumChannels: 2, Precision: 2},
		bufMs:   bufMs,
		ready:   make(chan struct{}),
		buffers: gocache.New(ttl, ttl),
		master:  1,
	}
}

// Start initializes the speaker asynchronously. Ready is closed on success;
// on failure the engine never becomes ready and every operation stays a no-op.
func (e *BeepEngine) Start(onEvent func(Event)) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.started {
		return fmt.Errorf("engine already started")
	}
	if onEvent == nil {
		return fmt.Errorf("onEvent must not be nil")
	}
	e.started = true
	e.onEvent = onEvent

	sr := e.format.SampleRate
	bufSize := sr.N(time.Duration(e.bufMs) * time.Millisecond)
	log.SafeGo("engine.init", func() {
		if err := speaker.Init(sr, bufSize); err != nil {
			log.ErrorErr(log.CatEngine, "Speaker initialization failed", err)
			return
		}
		log.Info(log.CatEngine, "Speaker initialized", "sampleRate", int(sr), "bufferSamples", bufSize)
		close(e.ready)
	})
	return nil
}

// Ready is closed once the speaker is initialized.
func (e *BeepEngine) Ready() <-chan struct{} {
	return e.ready
}

// Load decodes the descriptor into a buffered handle. Decode failures are
// reported through EventLoadError; the returned handle stays permanently
// stopped in that case.
func (e *BeepEngine) Load(desc Descriptor) Handle {
	h := &beepHandle{
		eng:       e,
		id:        desc.ID,
		sprites:   desc.Sprites,
		volume:    clamp01(desc.Volume),
		rate:      desc.Rate,
		loop:      desc.Loop,
		engMaster: 1,
	}
	if h.rate <= 0 {
		h.rate = 1
	}

	buf, err := e.buffer(desc)
	if err != nil {
		h.failed = true
		log.ErrorErr(log.CatEngine, "Asset load failed", err, "id", desc.ID, "path", desc.Path)
		e.emit(Event{Type: EventLoadError, ID: desc.ID, Err: err})
	} else {
		h.buf = buf
	}

	e.mu.Lock()
	h.engMuted = e.muted
	h.engMaster = e.master
	e.handles = append(e.handles, h)
	e.mu.Unlock()

	return h
}

// buffer returns the decoded buffer for the descriptor, reusing the cache
// for file-backed assets.
func (e *BeepEngine) buffer(desc Descriptor) (*beep.Buffer, error) {
	if desc.Path != "" {
		if cached, ok := e.buffers.Get(desc.Path); ok {
			return cached.(*beep.Buffer), nil
		}
	}

	streamer, format, err := e.decode(desc)
	if err != nil {
		return nil, err
	}

	var s beep.Streamer = streamer
	if format.SampleRate != e.format.SampleRate {
		s = beep.Resample(resampleQuality, format.SampleRate, e.format.SampleRate, streamer)
	}

	buf := beep.NewBuffer(e.format)
	buf.Append(s)
	_ = streamer.Close()

	if desc.Path != "" {
		e.buffers.Set(desc.Path, buf, gocache.DefaultExpiration)
	}
	return buf, nil
}

func (e *BeepEngine) decode(desc Descriptor) (beep.StreamSeekCloser, beep.Format, error) {
	format := desc.Format
	if format == "" {
		format = strings.TrimPrefix(strings.ToLower(filepath.Ext(desc.Path)), ".")
	}

	var r io.Reader
	var closer io.Closer
	switch {
	case desc.Data != nil:
		r = bytes.NewReader(desc.Data)
	case desc.Path != "":
		f, err := os.Open(desc.Path)
		if err != nil {
			return nil, beep.Format{}, fmt.Errorf("opening asset: %w", err)
		}
		r = f
		closer = f
	default:
		return nil, beep.Format{}, fmt.Errorf("descriptor %q has neither path nor data", desc.ID)
	}

	switch format {
	case "wav":
		s, f, err := wav.Decode(r)
		if err != nil {
			if closer != nil {
				_ = closer.Close()
			}
			return nil, beep.Format{}, fmt.Errorf("decoding wav: %w", err)
		}
		return s, f, nil
	case "mp3":
		rc, ok := r.(io.ReadCloser)
		if !ok {
			rc = io.NopCloser(r)
		}
		s, f, err := mp3.Decode(rc)
		if err != nil {
			return nil, beep.Format{}, fmt.Errorf("decoding mp3: %w", err)
		}
		return s, f, nil
	default:
		if closer != nil {
			_ = closer.Close()
		}
		return nil, beep.Format{}, fmt.Errorf("unsupported format %q", format)
	}
}

// MuteAll mutes or unmutes every handle the engine has loaded.
func (e *BeepEngine) MuteAll(muted bool) {
	e.mu.Lock()
	e.muted = muted
	master := e.master
	handles := append([]*beepHandle(nil), e.handles...)
	e.mu.Unlock()

	for _, h := range handles {
		h.setEngineGain(muted, master)
	}
}

// SetVolumeAll sets the engine-wide volume multiplier.
func (e *BeepEngine) SetVolumeAll(v float64) {
	v = clamp01(v)

	e.mu.Lock()
	e.master = v
	muted := e.muted
	handles := append([]*beepHandle(nil), e.handles...)
	e.mu.Unlock()

	for _, h := range handles {
		h.setEngineGain(muted, v)
	}
}

// StopAll stops every live handle.
func (e *BeepEngine) StopAll() {
	e.mu.Lock()
	handles := append([]*beepHandle(nil), e.handles...)
	e.mu.Unlock()

	for _, h := range handles {
		h.Stop()
	}
}

// Close silences the speaker. The device itself stays owned by the process.
func (e *BeepEngine) Close() error {
	select {
	case <-e.ready:
		speaker.Clear()
	default:
	}
	return nil
}

func (e *BeepEngine) emit(ev Event) {
	e.mu.Lock()
	onEvent := e.onEvent
	e.mu.Unlock()
	if onEvent != nil {
		onEvent(ev)
	}
}

// beepHandle is a loaded asset plus its live playback chain:
// Ctrl -> Resampler -> Volume -> buffer streamer.
type beepHandle struct {
	eng     *BeepEngine
	id      string
	failed  bool
	buf     *beep.Buffer
	sprites map[string]Sprite

	mu        sync.Mutex
	volume    float64
	rate      float64
	loop      bool
	engMuted  bool
	engMaster float64

	active bool
	paused bool
	gen    int
	ctrl   *beep.Ctrl
	vol    *effects.Volume
	res    *beep.Resampler
}

// Play starts playback from the beginning, or resumes when paused.
func (h *beepHandle) Play() { h.play("") }

// PlaySprite plays the named sub-clip.
func (h *beepHandle) PlaySprite(name string) {
	if name == "" {
		return
	}
	h.play(name)
}

func (h *beepHandle) play(sprite string) {
	if h.failed {
		log.Debug(log.CatEngine, "Play on failed asset ignored", "id", h.id)
		return
	}

	h.mu.Lock()

	// Resume path: a plain Play on a paused handle unpauses in place.
	if h.paused && sprite == "" && h.ctrl != nil {
		h.paused = false
		ctrl := h.ctrl
		h.mu.Unlock()

		speaker.Lock()
		ctrl.Paused = false
		speaker.Unlock()
		h.eng.emit(Event{Type: EventPlay, ID: h.id})
		return
	}

	from, to := 0, h.buf.Len()
	if sprite != "" {
		sp, ok := h.sprites[sprite]
		if !ok {
			h.mu.Unlock()
			log.Debug(log.CatEngine, "Unknown sprite ignored", "id", h.id, "sprite", sprite)
			return
		}
		sr := h.buf.Format().SampleRate
		from = sr.N(sp.Start)
		to = from + sr.N(sp.Duration)
		if to > h.buf.Len() {
			to = h.buf.Len()
		}
		if from >= to {
			h.mu.Unlock()
			log.Debug(log.CatEngine, "Empty sprite segment ignored", "id", h.id, "sprite", sprite)
			return
		}
	}

	// Any playback already in flight is superseded; bumping gen makes its
	// end callback stale.
	h.gen++
	gen := h.gen
	oldCtrl := h.ctrl

	var s beep.Streamer = h.buf.Streamer(from, to)
	if h.loop {
		s = beep.Loop(-1, h.buf.Streamer(from, to))
	}
	h.res = beep.ResampleRatio(resampleQuality, h.rate, s)
	h.vol = &effects.Volume{Streamer: h.res, Base: 2}
	h.vol.Volume, h.vol.Silent = h.gainLocked()
	h.ctrl = &beep.Ctrl{Streamer: h.vol}
	ctrl := h.ctrl
	h.active = true
	h.paused = false
	h.mu.Unlock()

	if oldCtrl != nil {
		speaker.Lock()
		oldCtrl.Streamer = nil
		speaker.Unlock()
	}
	speaker.Play(beep.Seq(ctrl, beep.Callback(func() { h.finished(gen) })))
	h.eng.emit(Event{Type: EventPlay, ID: h.id})
}

// finished runs when the playback chain drains. Stale generations (stopped or
// superseded plays) are ignored.
func (h *beepHandle) finished(gen int) {
	h.mu.Lock()
	if gen != h.gen || !h.active {
		h.mu.Unlock()
		return
	}
	h.active = false
	h.paused = false
	h.ctrl = nil
	h.vol = nil
	h.res = nil
	h.mu.Unlock()

	h.eng.emit(Event{Type: EventEnd, ID: h.id})
}

// Pause pauses playback. No-op unless audibly playing.
func (h *beepHandle) Pause() {
	h.mu.Lock()
	if !h.active || h.paused {
		h.mu.Unlock()
		return
	}
	h.paused = true
	ctrl := h.ctrl
	h.mu.Unlock()

	speaker.Lock()
	ctrl.Paused = true
	speaker.Unlock()
	h.eng.emit(Event{Type: EventPause, ID: h.id})
}

// Stop halts playback. No-op unless playing or paused.
func (h *beepHandle) Stop() {
	h.mu.Lock()
	if !h.active {
		h.mu.Unlock()
		return
	}
	h.gen++
	h.active = false
	h.paused = false
	ctrl := h.ctrl
	h.ctrl = nil
	h.vol = nil
	h.res = nil
	h.mu.Unlock()

	speaker.Lock()
	ctrl.Streamer = nil
	speaker.Unlock()
	h.eng.emit(Event{Type: EventStop, ID: h.id})
}

// SetVolume sets the handle volume in [0, 1], applied immediately.
func (h *beepHandle) SetVolume(v float64) {
	h.mu.Lock()
	h.volume = clamp01(v)
	vol := h.vol
	gain, silent := h.gainLocked()
	h.mu.Unlock()

	if vol != nil {
		speaker.Lock()
		vol.Volume = gain
		vol.Silent = silent
		speaker.Unlock()
	}
}

// Volume returns the handle volume.
func (h *beepHandle) Volume() float64 {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.volume
}

// SetRate sets the playback rate multiplier, applied immediately.
func (h *beepHandle) SetRate(r float64) {
	if r <= 0 {
		log.Debug(log.CatEngine, "Non-positive rate ignored", "id", h.id, "rate", r)
		return
	}

	h.mu.Lock()
	h.rate = r
	res := h.res
	h.mu.Unlock()

	if res != nil {
		speaker.Lock()
		res.SetRatio(r)
		speaker.Unlock()
	}
}

// Rate returns the playback rate multiplier.
func (h *beepHandle) Rate() float64 {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.rate
}

// SetLoop sets looping. Takes effect on the next Play.
func (h *beepHandle) SetLoop(loop bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.loop = loop
}

// Loop returns whether the handle loops.
func (h *beepHandle) Loop() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.loop
}

// Playing reports whether the handle is audibly playing.
func (h *beepHandle) Playing() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.active && !h.paused
}

func (h *beepHandle) setEngineGain(muted bool, master float64) {
	h.mu.Lock()
	h.engMuted = muted
	h.engMaster = master
	vol := h.vol
	gain, silent := h.gainLocked()
	h.mu.Unlock()

	if vol != nil {
		speaker.Lock()
		vol.Volume = gain
		vol.Silent = silent
		speaker.Unlock()
	}
}

// gainLocked converts the effective linear volume into the log-scale value
// effects.Volume expects. Must be called with mu held.
func (h *beepHandle) gainLocked() (gain float64, silent bool) {
	eff := h.volume * h.engMaster
	if h.engMuted || eff <= 0 {
		return 0, true
	}
	return math.Log2(eff), false
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
