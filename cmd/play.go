package cmd

import (
	"fmt"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/zjrosen/chime/internal/audio"
)

var (
	playSprite string
	playWait   time.Duration
)

var playCmd = &cobra.Command{
	Use:   "play <address>",
	Short: "Play a registered sound",
	Long: `Play one registered sound and wait for it to finish.

Addresses name a category and key, e.g. music/theme, sfx/core/click,
sfx/aria/focus, or multitrack/stems.`,
	Args: cobra.ExactArgs(1),
	RunE: runPlay,
}

func init() {
	playCmd.Flags().StringVar(&playSprite, "sprite", "", "play a named sub-clip instead of the full asset")
	playCmd.Flags().DurationVar(&playWait, "wait", time.Minute, "maximum time to wait for playback to finish")
	rootCmd.AddCommand(playCmd)
}

func runPlay(cmd *cobra.Command, args []string) error {
	addr, err := parseAddressArg(args[0])
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	sys, _, err := newSystem(ctx)
	if err != nil {
		return err
	}

	facade := facadeFor(sys, addr)

	// For mirrored categories the snapshot stream tells us when playback is
	// over. Multitrack has no mirrored state; fall back to polling the
	// engine's own playing flag.
	done := make(chan struct{}, 1)
	if addr.Mirrored() {
		started := false
		unsubscribe := sys.Subscribe(func(st audio.AudioState) {
			entry, ok := soundIn(st, addr)
			if !ok {
				return
			}
			if entry.Playing {
				started = true
			}
			if started && entry.Stopped {
				select {
				case done <- struct{}{}:
				default:
				}
			}
		})
		defer unsubscribe()
	}

	if playSprite != "" {
		facade.PlaySprite(addr.Key, playSprite)
	} else {
		facade.Play(addr.Key)
	}

	deadline := time.After(playWait)
	if addr.Mirrored() {
		select {
		case <-done:
		case <-deadline:
		case <-ctx.Done():
		}
	} else {
		ticker := time.NewTicker(50 * time.Millisecond)
		defer ticker.Stop()
		for facade.Playing(addr.Key) {
			select {
			case <-ticker.C:
			case <-deadline:
				return nil
			case <-ctx.Done():
				return nil
			}
		}
	}

	fmt.Printf("Played %s\n", addr.String())
	return nil
}

func facadeFor(sys *audio.System, addr audio.Address) audio.Facade {
	switch addr.Category {
	case audio.CategoryMusic:
		return sys.Music()
	case audio.CategoryMultitrack:
		return sys.Multitrack()
	default:
		return sys.SFX(addr.Subcategory)
	}
}

func soundIn(st audio.AudioState, addr audio.Address) (audio.SoundState, bool) {
	switch addr.Category {
	case audio.CategoryMusic:
		s, ok := st.Music[addr.Key]
		return s, ok
	case audio.CategorySFX:
		var m map[string]audio.SoundState
		switch addr.Subcategory {
		case audio.SubCore:
			m = st.SFX.Core
		case audio.SubInterface:
			m = st.SFX.Interface
		case audio.SubAria:
			m = st.SFX.Aria
		}
		s, ok := m[addr.Key]
		return s, ok
	}
	return audio.SoundState{}, false
}
