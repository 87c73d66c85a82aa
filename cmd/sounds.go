package cmd

import (
	"fmt"
	"sort"

	"github.com/spf13/cobra"

	"github.com/zjrosen/chime/internal/config"
	"github.com/zjrosen/chime/internal/sound"
)

var soundsCmd = &cobra.Command{
	Use:   "sounds",
	Short: "List available sounds",
	Long:  `Display all sounds chime would register, grouped by category: built-in accessibility cues plus everything in the sound manifest.`,
	RunE:  runSounds,
}

func init() {
	rootCmd.AddCommand(soundsCmd)
}

func runSounds(cmd *cobra.Command, args []string) error {
	cues, err := sound.Cues()
	if err != nil {
		return fmt.Errorf("loading built-in cues: %w", err)
	}

	fmt.Println("Built-in cues (sfx/aria):")
	if len(cues) == 0 {
		fmt.Println("  (none)")
	} else {
		names := make([]string, 0, len(cues))
		for name := range cues {
			names = append(names, name)
		}
		sort.Strings(names)
		for _, name := range names {
			fmt.Printf("  %s\n", name)
		}
	}
	fmt.Println()

	if cfg.Manifest == "" {
		fmt.Println("No sound manifest configured (set manifest in config or --manifest)")
		return nil
	}

	m, err := config.LoadManifest(cfg.Manifest)
	if err != nil {
		return fmt.Errorf("loading manifest: %w", err)
	}

	printGroup("Music (music)", m.Music)
	printGroup("Effects (sfx/core)", m.SFX.Core)
	printGroup("Interface (sfx/interface)", m.SFX.Interface)
	printGroup("Accessibility (sfx/aria)", m.SFX.Aria)
	printGroup("Multitrack (multitrack)", m.Multitrack)
	return nil
}

func printGroup(title string, entries map[string]config.ManifestEntry) {
	fmt.Printf("%s:\n", title)
	if len(entries) == 0 {
		fmt.Println("  (none)")
		fmt.Println()
		return
	}

	keys := make([]string, 0, len(entries))
	maxLen := 0
	for key := range entries {
		keys = append(keys, key)
		if len(key) > maxLen {
			maxLen = len(key)
		}
	}
	sort.Strings(keys)

	for _, key := range keys {
		entry := entries[key]
		extra := ""
		if entry.Loop {
			extra = "  (loop)"
		}
		if len(entry.Sprites) > 0 {
			extra += fmt.Sprintf("  (%d sprites)", len(entry.Sprites))
		}
		fmt.Printf("  %-*s  %s%s\n", maxLen, key, entry.File, extra)
	}
	fmt.Println()
}
