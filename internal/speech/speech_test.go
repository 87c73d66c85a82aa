package speech

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/zjrosen/chime/internal/pubsub"
)

// fakeSynth records calls and lets tests drive utterance lifecycle events.
type fakeSynth struct {
	broker *pubsub.Broker[Event]

	available bool
	speakErr  error

	mu       sync.Mutex
	current  string
	lastText string
	lastOpts Options
	SpeakN   int
	CancelN  int
	PauseN   int
	ResumeN  int
}

func newFakeSynth() *fakeSynth {
	return &fakeSynth{broker: pubsub.NewBroker[Event](), available: true}
}

func (s *fakeSynth) Available() bool { return s.available }

func (s *fakeSynth) Speak(utteranceID, text string, opts Options) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.speakErr != nil {
		return s.speakErr
	}
	s.SpeakN++
	s.current = utteranceID
	s.lastText = text
	s.lastOpts = opts
	return nil
}

func (s *fakeSynth) Cancel() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.CancelN++
	s.current = ""
}

func (s *fakeSynth) Pause()  { s.mu.Lock(); defer s.mu.Unlock(); s.PauseN++ }
func (s *fakeSynth) Resume() { s.mu.Lock(); defer s.mu.Unlock(); s.ResumeN++ }

func (s *fakeSynth) Events() *pubsub.Broker[Event] { return s.broker }

func (s *fakeSynth) currentID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.current
}

func (s *fakeSynth) finish(utteranceID string) {
	s.broker.Publish(pubsub.UpdatedEvent, Event{Type: EventEnd, UtteranceID: utteranceID})
}

func (s *fakeSynth) fail(utteranceID string, err error) {
	s.broker.Publish(pubsub.UpdatedEvent, Event{Type: EventError, UtteranceID: utteranceID, Err: err})
}

func newTestFacade(t *testing.T) (*Facade, *fakeSynth) {
	t.Helper()
	synth := newFakeSynth()
	f := New(synth)
	f.Start(context.Background())
	return f, synth
}

func eventuallyState(t *testing.T, f *Facade, want State) {
	t.Helper()
	require.Eventually(t, func() bool {
		return f.State() == want
	}, time.Second, 5*time.Millisecond)
}

func TestSpeakLifecycle(t *testing.T) {
	f, synth := newTestFacade(t)

	require.Equal(t, StateIdle, f.State())
	require.False(t, f.IsSpeaking())

	f.Speak("hello there", Options{})
	require.Equal(t, StateSpeaking, f.State())
	require.True(t, f.IsSpeaking())
	require.Equal(t, "hello there", synth.lastText)

	synth.finish(synth.currentID())
	eventuallyState(t, f, StateIdle)
}

func TestSpeakWhileSpeakingCancelsInFlight(t *testing.T) {
	f, synth := newTestFacade(t)

	f.Speak("first", Options{})
	first := synth.currentID()

	f.Speak("second", Options{})
	require.Equal(t, 1, synth.CancelN)
	require.Equal(t, 2, synth.SpeakN)
	require.NotEqual(t, first, synth.currentID())
	require.Equal(t, StateSpeaking, f.State())

	// A late end from the cancelled utterance must not flip the machine.
	synth.finish(first)
	time.Sleep(50 * time.Millisecond)
	require.Equal(t, StateSpeaking, f.State())

	synth.finish(synth.currentID())
	eventuallyState(t, f, StateIdle)
}

func TestPauseResume(t *testing.T) {
	f, synth := newTestFacade(t)

	// Pause and resume outside their source states are no-ops.
	f.Pause()
	f.Resume()
	require.Zero(t, synth.PauseN)
	require.Zero(t, synth.ResumeN)
	require.Equal(t, StateIdle, f.State())

	f.Speak("pausable", Options{})
	f.Pause()
	require.Equal(t, StatePaused, f.State())
	require.False(t, f.IsSpeaking())
	require.Equal(t, 1, synth.PauseN)

	f.Pause()
	require.Equal(t, 1, synth.PauseN)

	f.Resume()
	require.Equal(t, StateSpeaking, f.State())
	require.Equal(t, 1, synth.ResumeN)
}

func TestStop(t *testing.T) {
	f, synth := newTestFacade(t)

	f.Stop()
	require.Zero(t, synth.CancelN)

	f.Speak("stoppable", Options{})
	id := synth.currentID()
	f.Stop()
	require.Equal(t, StateIdle, f.State())
	require.Equal(t, 1, synth.CancelN)

	// The cancelled utterance's end event arrives late and changes nothing.
	synth.finish(id)
	time.Sleep(50 * time.Millisecond)
	require.Equal(t, StateIdle, f.State())
}

func TestUtteranceErrorReturnsToIdle(t *testing.T) {
	f, synth := newTestFacade(t)

	f.Speak("doomed", Options{})
	synth.fail(synth.currentID(), errors.New("synthesis backend crashed"))
	eventuallyState(t, f, StateIdle)
}

func TestSpeakStartFailureRollsBack(t *testing.T) {
	f, synth := newTestFacade(t)
	synth.speakErr = errors.New("binary exited immediately")

	f.Speak("never heard", Options{})
	require.Equal(t, StateIdle, f.State())
	require.False(t, f.IsSpeaking())
}

func TestUnavailableSynthesizerDegradesToNoOps(t *testing.T) {
	t.Run("nil synthesizer", func(t *testing.T) {
		f := New(nil)
		f.Start(context.Background())

		f.Speak("into the void", Options{})
		f.Pause()
		f.Resume()
		f.Stop()
		require.Equal(t, StateIdle, f.State())
	})

	t.Run("synthesizer reporting unavailable", func(t *testing.T) {
		synth := newFakeSynth()
		synth.available = false
		f := New(synth)
		f.Start(context.Background())

		f.Speak("into the void", Options{})
		require.Zero(t, synth.SpeakN)
		require.Equal(t, StateIdle, f.State())
	})
}

func TestOptionsClamped(t *testing.T) {
	tests := []struct {
		name string
		in   Options
		want Options
	}{
		{"zero values pass through", Options{}, Options{}},
		{"in range untouched", Options{Rate: 1.5, Pitch: 1, Volume: 0.5}, Options{Rate: 1.5, Pitch: 1, Volume: 0.5}},
		{"rate clamps low", Options{Rate: 0.01}, Options{Rate: 0.1}},
		{"rate clamps high", Options{Rate: 50}, Options{Rate: 10}},
		{"pitch clamps high", Options{Pitch: 5}, Options{Pitch: 2}},
		{"volume clamps high", Options{Volume: 3}, Options{Volume: 1}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.want, tt.in.clamped())
		})
	}
}

func TestSpeakPassesClampedOptions(t *testing.T) {
	f, synth := newTestFacade(t)

	f.Speak("fast", Options{Rate: 99, Pitch: -1, Volume: 0.4})
	require.Equal(t, Options{Rate: 10, Pitch: 0, Volume: 0.4}, synth.lastOpts)
}
