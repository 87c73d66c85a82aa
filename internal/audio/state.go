package audio

import "time"

// SoundState is the mirrored state of one registered sound. Exactly one of
// Playing, Paused, Stopped is true at any time.
type SoundState struct {
	Playing bool    `json:"playing"`
	Paused  bool    `json:"paused"`
	Stopped bool    `json:"stopped"`
	Volume  float64 `json:"volume"`
	Loop    bool    `json:"loop"`
	Rate    float64 `json:"rate"`

	// LastPlayed is the time of the most recent transition into playing.
	// The zero value means the sound has never played. Monotonically
	// non-decreasing.
	LastPlayed time.Time `json:"last_played,omitzero"`
}

// SFXState groups the effect subcategory maps.
type SFXState struct {
	Core      map[string]SoundState `json:"core"`
	Interface map[string]SoundState `json:"interface"`
	Aria      map[string]SoundState `json:"aria"`
}

// AudioState is the full mirrored snapshot handed to observers. Multitrack
// sounds and speech state are deliberately absent.
type AudioState struct {
	GlobalMute   bool                  `json:"global_mute"`
	GlobalVolume float64               `json:"global_volume"`
	Music        map[string]SoundState `json:"music"`
	SFX          SFXState              `json:"sfx"`
}

// clone returns a deep, independent copy.
func (s AudioState) clone() AudioState {
	out := s
	out.Music = cloneSounds(s.Music)
	out.SFX.Core = cloneSounds(s.SFX.Core)
	out.SFX.Interface = cloneSounds(s.SFX.Interface)
	out.SFX.Aria = cloneSounds(s.SFX.Aria)
	return out
}

func cloneSounds(m map[string]SoundState) map[string]SoundState {
	out := make(map[string]SoundState, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

// Patch is a shallow field merge applied to one SoundState. Nil fields are
// left untouched.
type Patch struct {
	Playing    *bool
	Paused     *bool
	Stopped    *bool
	Volume     *float64
	Loop       *bool
	Rate       *float64
	LastPlayed *time.Time
}

// apply merges the patch into s. LastPlayed only moves forward.
func (p Patch) apply(s *SoundState) {
	if p.Playing != nil {
		s.Playing = *p.Playing
	}
	if p.Paused != nil {
		s.Paused = *p.Paused
	}
	if p.Stopped != nil {
		s.Stopped = *p.Stopped
	}
	if p.Volume != nil {
		s.Volume = *p.Volume
	}
	if p.Loop != nil {
		s.Loop = *p.Loop
	}
	if p.Rate != nil {
		s.Rate = *p.Rate
	}
	if p.LastPlayed != nil && p.LastPlayed.After(s.LastPlayed) {
		s.LastPlayed = *p.LastPlayed
	}
}

// Transition patches. Engine events map onto these three shapes.

// PatchPlaying flips the tri-state to playing and advances LastPlayed.
func PatchPlaying(at time.Time) Patch {
	return Patch{
		Playing:    boolPtr(true),
		Paused:     boolPtr(false),
		Stopped:    boolPtr(false),
		LastPlayed: &at,
	}
}

// PatchPaused flips the tri-state to paused.
func PatchPaused() Patch {
	return Patch{
		Playing: boolPtr(false),
		Paused:  boolPtr(true),
		Stopped: boolPtr(false),
	}
}

// PatchStopped flips the tri-state to stopped.
func PatchStopped() Patch {
	return Patch{
		Playing: boolPtr(false),
		Paused:  boolPtr(false),
		Stopped: boolPtr(true),
	}
}

func boolPtr(b bool) *bool { return &b }

func floatPtr(f float64) *float64 { return &f }
