package speech

import (
	"fmt"
	"os/exec"
	"path/filepath"
	"strconv"
	"sync"
	"syscall"

	"github.com/zjrosen/chime/internal/log"
	"github.com/zjrosen/chime/internal/pubsub"
)

// baseWordsPerMinute is the nominal speaking speed a rate of 1.0 maps to.
const baseWordsPerMinute = 175

// ExecConfig configures the command-line synthesizer.
type ExecConfig struct {
	// Binary is the synthesizer executable. Auto-detected from PATH
	// (say, espeak, espeak-ng) when empty.
	Binary string
}

// ExecSynthesizer shells out to a system speech command per utterance.
// Pause and resume are implemented with SIGSTOP/SIGCONT on the child
// process.
type ExecSynthesizer struct {
	binary string
	events *pubsub.Broker[Event]

	mu        sync.Mutex
	cmd       *exec.Cmd
	current   string
	cancelled bool
}

// NewExecSynthesizer creates a synthesizer for the configured binary. If no
// binary can be found the synthesizer reports unavailable and the facade
// degrades to no-ops.
func NewExecSynthesizer(cfg ExecConfig) *ExecSynthesizer {
	binary := cfg.Binary
	if binary == "" {
		for _, candidate := range []string{"say", "espeak", "espeak-ng"} {
			if path, err := exec.LookPath(candidate); err == nil {
				binary = path
				break
			}
		}
	} else if path, err := exec.LookPath(binary); err == nil {
		binary = path
	} else {
		log.Warn(log.CatSpeech, "Configured speech binary not found", "binary", binary)
		binary = ""
	}

	if binary != "" {
		log.Info(log.CatSpeech, "Speech synthesizer detected", "binary", binary)
	}
	return &ExecSynthesizer{
		binary: binary,
		events: pubsub.NewBroker[Event](),
	}
}

// Available reports whether a synthesizer binary was found.
func (s *ExecSynthesizer) Available() bool {
	return s.binary != ""
}

// Events is the utterance lifecycle stream.
func (s *ExecSynthesizer) Events() *pubsub.Broker[Event] {
	return s.events
}

// Speak spawns the synthesizer process for the utterance. Any running
// utterance is killed first.
func (s *ExecSynthesizer) Speak(utteranceID, text string, opts Options) error {
	if s.binary == "" {
		return fmt.Errorf("no speech binary available")
	}

	s.mu.Lock()
	s.killLocked()

	cmd := exec.Command(s.binary, s.args(text, opts)...)
	if err := cmd.Start(); err != nil {
		s.mu.Unlock()
		return fmt.Errorf("starting %s: %w", s.binary, err)
	}
	s.cmd = cmd
	s.current = utteranceID
	s.cancelled = false
	s.mu.Unlock()

	s.events.Publish(pubsub.UpdatedEvent, Event{Type: EventStart, UtteranceID: utteranceID})

	log.SafeGo("speech.wait", func() {
		err := cmd.Wait()

		s.mu.Lock()
		stale := s.current != utteranceID || s.cancelled
		if !stale {
			s.current = ""
			s.cmd = nil
		}
		s.mu.Unlock()

		if stale {
			return
		}
		if err != nil {
			s.events.Publish(pubsub.UpdatedEvent, Event{Type: EventError, UtteranceID: utteranceID, Err: err})
			return
		}
		s.events.Publish(pubsub.UpdatedEvent, Event{Type: EventEnd, UtteranceID: utteranceID})
	})
	return nil
}

// args translates Options into flags for the detected binary. Only the
// options the binary supports are passed; the rest defer to its defaults.
func (s *ExecSynthesizer) args(text string, opts Options) []string {
	var args []string
	switch filepath.Base(s.binary) {
	case "say":
		if opts.Rate != 0 {
			args = append(args, "-r", strconv.Itoa(int(opts.Rate*baseWordsPerMinute)))
		}
	case "espeak", "espeak-ng":
		if opts.Rate != 0 {
			args = append(args, "-s", strconv.Itoa(int(opts.Rate*baseWordsPerMinute)))
		}
		if opts.Pitch != 0 {
			// espeak pitch range is 0-99 with 50 as default; 1.0 maps to 50.
			args = append(args, "-p", strconv.Itoa(int(opts.Pitch*50)))
		}
		if opts.Volume != 0 {
			// espeak amplitude range is 0-200 with 100 as default.
			args = append(args, "-a", strconv.Itoa(int(opts.Volume*200)))
		}
	}
	return append(args, text)
}

// Cancel kills the in-flight utterance, if any. No end event is emitted for
// a cancelled utterance.
func (s *ExecSynthesizer) Cancel() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.killLocked()
}

func (s *ExecSynthesizer) killLocked() {
	if s.cmd == nil || s.cmd.Process == nil {
		return
	}
	s.cancelled = true
	_ = s.cmd.Process.Kill()
	s.cmd = nil
	s.current = ""
}

// Pause suspends the synthesizer process.
func (s *ExecSynthesizer) Pause() {
	s.signal(syscall.SIGSTOP)
}

// Resume continues the synthesizer process.
func (s *ExecSynthesizer) Resume() {
	s.signal(syscall.SIGCONT)
}

func (s *ExecSynthesizer) signal(sig syscall.Signal) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cmd == nil || s.cmd.Process == nil {
		return
	}
	if err := s.cmd.Process.Signal(sig); err != nil {
		log.Debug(log.CatSpeech, "Signal to synthesizer failed", "signal", sig.String(), "error", err)
	}
}
