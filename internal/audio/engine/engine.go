// Package engine defines the playback engine boundary for chime.
//
// An Engine owns the audio device and the decoded assets. The rest of the
// system talks to it through opaque Handles and observes what actually
// happened through the event stream: requesting playback never mutates
// mirrored state directly, the engine's own events do.
package engine

import "time"

// EventType categorizes playback engine events.
type EventType string

const (
	// EventPlay fires when a handle actually starts (or resumes) playback.
	EventPlay EventType = "play"
	// EventPause fires when a handle is paused.
	EventPause EventType = "pause"
	// EventStop fires when a handle is stopped explicitly.
	EventStop EventType = "stop"
	// EventEnd fires when a handle reaches the natural end of its asset.
	EventEnd EventType = "end"
	// EventLoadError fires when an asset fails to open or decode.
	EventLoadError EventType = "loaderror"
)

// String returns the string representation of the EventType.
func (t EventType) String() string {
	return string(t)
}

// Event is emitted by an Engine as playback state actually changes.
type Event struct {
	// Type identifies the kind of event.
	Type EventType
	// ID is the descriptor ID of the handle the event belongs to.
	ID string
	// Err carries the failure for EventLoadError, nil otherwise.
	Err error
}

// Sprite names a sub-clip inside an asset.
type Sprite struct {
	Start    time.Duration
	Duration time.Duration
}

// Descriptor describes an asset to load. Exactly one of Path or Data must be
// set. ID is assigned by the caller and echoed back on every event for the
// handle.
type Descriptor struct {
	ID   string
	Path string
	Data []byte
	// Format is "wav" or "mp3". Inferred from the Path extension when empty.
	Format string

	// Initial handle configuration.
	Volume float64
	Rate   float64
	Loop   bool

	// Sprites maps sub-clip names to segments of the asset.
	Sprites map[string]Sprite
}

// Handle is an opaque reference to a loaded, playable asset. Implementations
// must be safe for use from multiple goroutines.
type Handle interface {
	// Play starts playback from the beginning, or resumes if paused.
	Play()
	// PlaySprite plays the named sub-clip. Unknown sprite names are no-ops.
	PlaySprite(name string)
	// Pause pauses playback. No-op unless playing.
	Pause()
	// Stop halts playback and rewinds. No-op unless playing or paused.
	Stop()

	SetVolume(v float64)
	Volume() float64
	SetRate(r float64)
	Rate() float64
	SetLoop(loop bool)
	Loop() bool

	// Playing reports whether the handle is audibly playing right now.
	Playing() bool
}

// Engine is the playback capability boundary.
type Engine interface {
	// Start begins asynchronous engine initialization. Events for every
	// handle are delivered to onEvent, which must not be nil. Start must be
	// called exactly once, before any Load.
	Start(onEvent func(Event)) error

	// Ready is closed once the engine can load and play assets.
	Ready() <-chan struct{}

	// Load decodes the descriptor and returns a handle for it. A failed
	// decode still returns a usable (permanently stopped) handle and reports
	// the failure via an EventLoadError.
	Load(desc Descriptor) Handle

	// MuteAll mutes or unmutes every handle the engine has ever loaded,
	// independent of any registry bookkeeping.
	MuteAll(muted bool)
	// SetVolumeAll sets the engine-wide volume multiplier in [0, 1].
	SetVolumeAll(v float64)
	// StopAll stops every live handle.
	StopAll()

	// Close releases the audio device.
	Close() error
}
