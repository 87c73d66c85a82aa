// Package speech wraps a speech synthesis capability behind a three-state
// machine (idle, speaking, paused). At most one utterance is active at a
// time; a new Speak force-stops whatever is in flight. A runtime without a
// synthesizer degrades every operation to a logged no-op.
package speech

import (
	"context"
	"sync"

	"github.com/google/uuid"

	"github.com/zjrosen/chime/internal/log"
	"github.com/zjrosen/chime/internal/pubsub"
)

// State is the facade's machine state.
type State string

const (
	StateIdle     State = "idle"
	StateSpeaking State = "speaking"
	StatePaused   State = "paused"
)

// EventType categorizes synthesizer events.
type EventType string

const (
	// EventStart fires when an utterance begins.
	EventStart EventType = "start"
	// EventEnd fires when an utterance finishes naturally.
	EventEnd EventType = "end"
	// EventError fires when an utterance fails.
	EventError EventType = "error"
)

// Event is emitted by a Synthesizer as an utterance progresses.
type Event struct {
	Type        EventType
	UtteranceID string
	Err         error
}

// Options tunes one utterance. Zero-value fields defer to the synthesizer's
// defaults. Practical ranges: Rate 0.1-10, Pitch 0-2, Volume 0-1; values are
// clamped.
type Options struct {
	Rate   float64
	Pitch  float64
	Volume float64
}

func (o Options) clamped() Options {
	if o.Rate != 0 {
		o.Rate = clampRange(o.Rate, 0.1, 10)
	}
	if o.Pitch != 0 {
		o.Pitch = clampRange(o.Pitch, 0, 2)
	}
	if o.Volume != 0 {
		o.Volume = clampRange(o.Volume, 0, 1)
	}
	return o
}

func clampRange(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// Synthesizer is the speech engine boundary.
type Synthesizer interface {
	// Available reports whether the capability exists in this runtime.
	Available() bool
	// Speak starts synthesizing text asynchronously. Events for the
	// utterance carry utteranceID.
	Speak(utteranceID, text string, opts Options) error
	// Cancel force-stops any in-flight utterance without emitting an end
	// event for it.
	Cancel()
	// Pause suspends the in-flight utterance.
	Pause()
	// Resume continues a paused utterance.
	Resume()
	// Events is the utterance lifecycle stream.
	Events() *pubsub.Broker[Event]
}

// Facade drives the three-state machine over a Synthesizer.
type Facade struct {
	synth Synthesizer

	mu      sync.Mutex
	state   State
	current string

	startOnce sync.Once
}

// New creates a facade over synth. A nil synthesizer is allowed and makes
// every operation a logged no-op.
func New(synth Synthesizer) *Facade {
	return &Facade{synth: synth, state: StateIdle}
}

// Start begins consuming synthesizer events. Runs until ctx is cancelled.
func (f *Facade) Start(ctx context.Context) {
	f.startOnce.Do(func() {
		if f.synth == nil {
			return
		}
		ch := f.synth.Events().Subscribe(ctx)
		log.SafeGo("speech.eventLoop", func() {
			for ev := range ch {
				f.handleEvent(ev.Payload)
			}
		})
	})
}

func (f *Facade) available() bool {
	if f.synth == nil || !f.synth.Available() {
		log.Warn(log.CatSpeech, "Speech capability unavailable, operation skipped")
		return false
	}
	return true
}

// Speak starts a new utterance, force-stopping any in-flight one first.
// There is no queue.
func (f *Facade) Speak(text string, opts Options) {
	if !f.available() {
		return
	}

	f.mu.Lock()
	if f.state != StateIdle {
		f.synth.Cancel()
	}
	id := uuid.NewString()
	f.current = id
	f.state = StateSpeaking
	f.mu.Unlock()

	if err := f.synth.Speak(id, text, opts.clamped()); err != nil {
		log.ErrorErr(log.CatSpeech, "Utterance failed to start", err)
		f.mu.Lock()
		if f.current == id {
			f.current = ""
			f.state = StateIdle
		}
		f.mu.Unlock()
	}
}

// Pause suspends the in-flight utterance. No-op unless speaking.
func (f *Facade) Pause() {
	if !f.available() {
		return
	}

	f.mu.Lock()
	if f.state != StateSpeaking {
		f.mu.Unlock()
		return
	}
	f.state = StatePaused
	f.mu.Unlock()

	f.synth.Pause()
}

// Resume continues a paused utterance. No-op unless paused.
func (f *Facade) Resume() {
	if !f.available() {
		return
	}

	f.mu.Lock()
	if f.state != StatePaused {
		f.mu.Unlock()
		return
	}
	f.state = StateSpeaking
	f.mu.Unlock()

	f.synth.Resume()
}

// Stop cancels the in-flight utterance and returns to idle.
func (f *Facade) Stop() {
	if !f.available() {
		return
	}

	f.mu.Lock()
	if f.state == StateIdle {
		f.mu.Unlock()
		return
	}
	f.current = ""
	f.state = StateIdle
	f.mu.Unlock()

	f.synth.Cancel()
}

// IsSpeaking reports whether an utterance is actively speaking.
func (f *Facade) IsSpeaking() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.state == StateSpeaking
}

// State returns the current machine state.
func (f *Facade) State() State {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.state
}

// handleEvent applies a synthesizer event. Events from superseded utterances
// are ignored so a late end from a cancelled utterance cannot corrupt the
// machine.
func (f *Facade) handleEvent(ev Event) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if ev.UtteranceID != f.current || f.current == "" {
		return
	}

	switch ev.Type {
	case EventStart:
		// Already speaking from the caller's perspective.
	case EventEnd:
		f.current = ""
		f.state = StateIdle
	case EventError:
		log.ErrorErr(log.CatSpeech, "Utterance failed", ev.Err, "utterance", ev.UtteranceID)
		f.current = ""
		f.state = StateIdle
	}
}
