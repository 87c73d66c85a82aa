package cmd

import (
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/zjrosen/chime/internal/speech"
)

var (
	speakRate   float64
	speakPitch  float64
	speakVolume float64
)

var speakCmd = &cobra.Command{
	Use:   "speak <text>...",
	Short: "Synthesize speech",
	Long:  `Speak the given text through the system speech synthesizer and wait for it to finish.`,
	Args:  cobra.MinimumNArgs(1),
	RunE:  runSpeak,
}

func init() {
	speakCmd.Flags().Float64Var(&speakRate, "rate", 0, "speaking rate multiplier (0.1-10, 0 = synthesizer default)")
	speakCmd.Flags().Float64Var(&speakPitch, "pitch", 0, "pitch (0-2, 0 = synthesizer default)")
	speakCmd.Flags().Float64Var(&speakVolume, "volume", 0, "volume (0-1, 0 = synthesizer default)")
	rootCmd.AddCommand(speakCmd)
}

func runSpeak(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	synth := speech.NewExecSynthesizer(speech.ExecConfig{Binary: cfg.Speech.Binary})
	sp := speech.New(synth)
	sp.Start(ctx)

	sp.Speak(strings.Join(args, " "), speech.Options{
		Rate:   speakRate,
		Pitch:  speakPitch,
		Volume: speakVolume,
	})

	ticker := time.NewTicker(100 * time.Millisecond)
	defer ticker.Stop()
	for sp.State() != speech.StateIdle {
		select {
		case <-ticker.C:
		case <-ctx.Done():
			sp.Stop()
			return nil
		}
	}
	return nil
}
