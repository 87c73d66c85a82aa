package audio

import (
	"github.com/zjrosen/chime/internal/audio/engine"
	"github.com/zjrosen/chime/internal/log"
)

// opStatus is the internal tagged result for facade operations. The public
// surface never throws or returns errors for transport controls; non-ok
// results degrade to logged no-ops.
type opStatus int

const (
	statusOK opStatus = iota
	statusNotFound
	statusEngineUnavailable
)

// Facade is the per-category operation surface. Obtain one from
// System.Music, System.SFX, or System.Multitrack. The zero value is unusable.
//
// Transport calls (Play, Pause, Stop) only request the transition: the
// mirrored state changes when the engine reports that the transition actually
// happened. Volume, rate, and loop setters apply synchronously to both the
// handle and the store.
type Facade struct {
	sys *System
	cat Category
	sub Subcategory
}

func (f Facade) addr(key string) Address {
	return Address{Category: f.cat, Subcategory: f.sub, Key: key}
}

func (f Facade) resolve(key string) (engine.Handle, opStatus) {
	if !f.sys.isReady() {
		return nil, statusEngineUnavailable
	}
	h, ok := f.sys.registry.Resolve(f.addr(key))
	if !ok {
		return nil, statusNotFound
	}
	return h, statusOK
}

func (f Facade) skip(op, key string, st opStatus) {
	switch st {
	case statusNotFound:
		log.Debug(log.CatAudio, "Operation on unregistered sound skipped", "op", op, "address", f.addr(key).String())
	case statusEngineUnavailable:
		log.Warn(log.CatAudio, "Operation before engine ready skipped", "op", op, "address", f.addr(key).String())
	}
}

// Play asks the engine to start the sound. The store transitions to playing
// when the engine's play event lands.
func (f Facade) Play(key string) {
	h, st := f.resolve(key)
	if st != statusOK {
		f.skip("play", key, st)
		return
	}
	h.Play()
}

// PlaySprite plays the named sub-clip of the sound. It participates in the
// same state machine as Play.
func (f Facade) PlaySprite(key, sprite string) {
	h, st := f.resolve(key)
	if st != statusOK {
		f.skip("playSprite", key, st)
		return
	}
	h.PlaySprite(sprite)
}

// Pause asks the engine to pause the sound.
func (f Facade) Pause(key string) {
	h, st := f.resolve(key)
	if st != statusOK {
		f.skip("pause", key, st)
		return
	}
	h.Pause()
}

// Stop asks the engine to stop the sound.
func (f Facade) Stop(key string) {
	h, st := f.resolve(key)
	if st != statusOK {
		f.skip("stop", key, st)
		return
	}
	h.Stop()
}

// SetVolume sets the sound's volume in [0, 1], synchronously in both the
// engine and the mirrored state.
func (f Facade) SetVolume(key string, v float64) {
	h, st := f.resolve(key)
	if st != statusOK {
		f.skip("volume", key, st)
		return
	}
	if v < 0 {
		v = 0
	} else if v > 1 {
		v = 1
	}
	h.SetVolume(v)
	f.sys.store.Apply(f.addr(key), Patch{Volume: floatPtr(v)})
}

// Volume returns the sound's current volume. The bool reports whether the
// sound is registered and the engine is ready.
func (f Facade) Volume(key string) (float64, bool) {
	h, st := f.resolve(key)
	if st != statusOK {
		f.skip("volume", key, st)
		return 0, false
	}
	return h.Volume(), true
}

// SetRate sets the playback rate multiplier (> 0), synchronously in both the
// engine and the mirrored state.
func (f Facade) SetRate(key string, r float64) {
	h, st := f.resolve(key)
	if st != statusOK {
		f.skip("rate", key, st)
		return
	}
	if r <= 0 {
		log.Debug(log.CatAudio, "Non-positive rate ignored", "address", f.addr(key).String(), "rate", r)
		return
	}
	h.SetRate(r)
	f.sys.store.Apply(f.addr(key), Patch{Rate: floatPtr(r)})
}

// Rate returns the sound's playback rate multiplier.
func (f Facade) Rate(key string) (float64, bool) {
	h, st := f.resolve(key)
	if st != statusOK {
		f.skip("rate", key, st)
		return 0, false
	}
	return h.Rate(), true
}

// SetLoop sets looping, synchronously in both the engine and the mirrored
// state.
func (f Facade) SetLoop(key string, loop bool) {
	h, st := f.resolve(key)
	if st != statusOK {
		f.skip("loop", key, st)
		return
	}
	h.SetLoop(loop)
	f.sys.store.Apply(f.addr(key), Patch{Loop: boolPtr(loop)})
}

// Loop returns whether the sound loops.
func (f Facade) Loop(key string) (bool, bool) {
	h, st := f.resolve(key)
	if st != statusOK {
		f.skip("loop", key, st)
		return false, false
	}
	return h.Loop(), true
}

// Playing reports whether the engine is audibly playing the sound right now.
func (f Facade) Playing(key string) bool {
	h, st := f.resolve(key)
	if st != statusOK {
		f.skip("playing", key, st)
		return false
	}
	return h.Playing()
}
