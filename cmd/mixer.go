package cmd

import (
	"fmt"
	"os/signal"
	"sort"
	"strings"
	"syscall"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/zjrosen/chime/internal/audio"
)

var mixerCmd = &cobra.Command{
	Use:   "mixer",
	Short: "Live view of the audio state",
	Long:  `Show every mirrored sound and its state, updating as the engine reports transitions. Global transport keys operate on the whole system.`,
	RunE:  runMixer,
}

func init() {
	rootCmd.AddCommand(mixerCmd)
}

var (
	mixerTitleStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#54A0FF"))
	mixerSectionStyle = lipgloss.NewStyle().Bold(true)
	mixerPlayingStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#73F59F"))
	mixerPausedStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#F5D573"))
	mixerStoppedStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#888888"))
	mixerHelpStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("#666666"))
)

// snapshotMsg delivers a fresh state snapshot to the TUI.
type snapshotMsg audio.AudioState

type mixerModel struct {
	sys      *audio.System
	snapshot audio.AudioState
}

func (m mixerModel) Init() tea.Cmd {
	return nil
}

func (m mixerModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case snapshotMsg:
		m.snapshot = audio.AudioState(msg)
		return m, nil

	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			return m, tea.Quit
		case "m":
			if m.snapshot.GlobalMute {
				m.sys.UnmuteAll()
			} else {
				m.sys.MuteAll()
			}
		case "s":
			m.sys.StopAll()
		case "p":
			m.sys.PauseAll()
		case "P":
			m.sys.PlayAll()
		case "+", "=":
			m.sys.SetVolumeAll(m.snapshot.GlobalVolume + 0.1)
		case "-":
			m.sys.SetVolumeAll(m.snapshot.GlobalVolume - 0.1)
		}
	}
	return m, nil
}

func (m mixerModel) View() string {
	var b strings.Builder

	mute := ""
	if m.snapshot.GlobalMute {
		mute = "  [MUTED]"
	}
	b.WriteString(mixerTitleStyle.Render(fmt.Sprintf("chime mixer — volume %.0f%%%s", m.snapshot.GlobalVolume*100, mute)))
	b.WriteString("\n\n")

	writeSection(&b, "music", m.snapshot.Music)
	writeSection(&b, "sfx/core", m.snapshot.SFX.Core)
	writeSection(&b, "sfx/interface", m.snapshot.SFX.Interface)
	writeSection(&b, "sfx/aria", m.snapshot.SFX.Aria)

	b.WriteString(mixerHelpStyle.Render("m mute · s stop all · p pause all · P play all · +/- volume · q quit"))
	b.WriteString("\n")
	return b.String()
}

func writeSection(b *strings.Builder, title string, sounds map[string]audio.SoundState) {
	b.WriteString(mixerSectionStyle.Render(title))
	b.WriteString("\n")
	if len(sounds) == 0 {
		b.WriteString(mixerStoppedStyle.Render("  (none)"))
		b.WriteString("\n\n")
		return
	}

	keys := make([]string, 0, len(sounds))
	for key := range sounds {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	for _, key := range keys {
		s := sounds[key]
		line := fmt.Sprintf("  %-16s %s  vol %.2f  rate %.2f", key, stateLabel(s), s.Volume, s.Rate)
		if s.Loop {
			line += "  loop"
		}
		switch {
		case s.Playing:
			line = mixerPlayingStyle.Render(line)
		case s.Paused:
			line = mixerPausedStyle.Render(line)
		default:
			line = mixerStoppedStyle.Render(line)
		}
		b.WriteString(line)
		b.WriteString("\n")
	}
	b.WriteString("\n")
}

func stateLabel(s audio.SoundState) string {
	switch {
	case s.Playing:
		return "▶ playing"
	case s.Paused:
		return "⏸ paused "
	default:
		return "■ stopped"
	}
}

func runMixer(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	sys, _, err := newSystem(ctx)
	if err != nil {
		return err
	}

	p := tea.NewProgram(mixerModel{sys: sys, snapshot: sys.Snapshot()}, tea.WithContext(ctx))

	unsubscribe := sys.Subscribe(func(st audio.AudioState) {
		p.Send(snapshotMsg(st))
	})
	defer unsubscribe()

	_, err = p.Run()
	return err
}
