// Package cmd implements the chime command line interface.
package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/zjrosen/chime/internal/audio"
	"github.com/zjrosen/chime/internal/audio/engine"
	"github.com/zjrosen/chime/internal/config"
	"github.com/zjrosen/chime/internal/log"
	"github.com/zjrosen/chime/internal/sound"
	"github.com/zjrosen/chime/internal/speech"
)

var (
	cfgFile string
	cfg     config.Config
)

var rootCmd = &cobra.Command{
	Use:   "chime",
	Short: "Play and inspect named audio assets and synthesized speech",
	Long: `Chime registers named audio assets (music, effects, accessibility cues)
with the playback engine and mirrors their state into an observable snapshot.
Sounds come from the embedded cues and an optional sound manifest.`,
	SilenceUsage: true,
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default ~/.config/chime/config.yaml)")
	rootCmd.PersistentFlags().String("manifest", "", "sound manifest file")
	_ = viper.BindPFlag("manifest", rootCmd.PersistentFlags().Lookup("manifest"))
}

func initConfig() {
	cfg = config.Defaults()

	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else if home, err := os.UserHomeDir(); err == nil {
		viper.AddConfigPath(filepath.Join(home, ".config", "chime"))
		viper.SetConfigName("config")
		viper.SetConfigType("yaml")
	}

	viper.SetEnvPrefix("CHIME")
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err != nil {
		// Missing config is fine; defaults apply.
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) && cfgFile != "" {
			fmt.Fprintf(os.Stderr, "reading config: %v\n", err)
		}
	}
	if err := viper.Unmarshal(&cfg); err != nil {
		fmt.Fprintf(os.Stderr, "parsing config: %v\n", err)
	}
	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "invalid config: %v\n", err)
		os.Exit(1)
	}

	if cfg.LogFile != "" {
		if err := log.Init(cfg.LogFile); err != nil {
			fmt.Fprintf(os.Stderr, "opening log file: %v\n", err)
		}
	}
}

// newSystem builds the full audio subsystem: beep engine, exec synthesizer,
// embedded cues, and manifest sounds. Blocks until the engine is ready.
func newSystem(ctx context.Context) (*audio.System, *speech.Facade, error) {
	eng := engine.NewBeep(engine.BeepConfig{
		SampleRate: cfg.Engine.SampleRate,
		BufferMs:   cfg.Engine.BufferMs,
		CacheTTL:   cfg.Engine.CacheTTL,
	})

	synth := speech.NewExecSynthesizer(speech.ExecConfig{Binary: cfg.Speech.Binary})
	sp := speech.New(synth)
	sp.Start(ctx)

	sys, err := audio.New(audio.Config{Engine: eng, Speech: sp})
	if err != nil {
		return nil, nil, err
	}
	if err := sys.Start(ctx); err != nil {
		return nil, nil, err
	}

	readyCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := sys.AwaitReady(readyCtx); err != nil {
		return nil, nil, fmt.Errorf("audio engine not ready: %w", err)
	}

	cues, err := sound.Cues()
	if err != nil {
		return nil, nil, err
	}
	for name, data := range cues {
		sys.Register(audio.Address{
			Category:    audio.CategorySFX,
			Subcategory: audio.SubAria,
			Key:         name,
		}, audio.NewDataAsset(data, "wav"))
	}

	if cfg.Manifest != "" {
		m, err := config.LoadManifest(cfg.Manifest)
		if err != nil {
			return nil, nil, err
		}
		audio.ApplyManifest(sys, m)

		if cfg.WatchManifest {
			if err := audio.WatchManifest(ctx, sys, cfg.Manifest); err != nil {
				log.ErrorErr(log.CatConfig, "Manifest watch unavailable", err, "path", cfg.Manifest)
			}
		}
	}

	return sys, sp, nil
}

// parseAddressArg accepts "music/theme", "sfx/core/click", or
// "multitrack/stems" and normalizes to a full Address.
func parseAddressArg(arg string) (audio.Address, error) {
	parts := strings.Split(arg, "/")
	switch len(parts) {
	case 2:
		addr := audio.Address{Category: audio.Category(parts[0]), Key: parts[1]}
		if addr.Valid() {
			return addr, nil
		}
	case 3:
		addr := audio.Address{
			Category:    audio.Category(parts[0]),
			Subcategory: audio.Subcategory(parts[1]),
			Key:         parts[2],
		}
		if addr.Valid() {
			return addr, nil
		}
	}
	return audio.Address{}, fmt.Errorf("invalid sound address %q (want e.g. music/theme or sfx/core/click)", arg)
}
