package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// UniverseRPG terminal theme for the admin CLI.

const (
	IconGalaxy  = "🌌"
	IconPlanet  = "🪐"
	IconNumins  = "💠"
	IconBuild   = "🛠️"
	IconCard    = "🃏"
	IconSave    = "💾"
	IconUser    = "👤"
	IconDice    = "🎲"
	IconInfo    = "ℹ️"
	IconWarn    = "⚠️"
	IconError   = "🧨"
	IconDone    = "✅"
	IconLevelUp = "⭐"
)

var (
	cPrimary = lipgloss.Color("63")  // blue
	cAccent  = lipgloss.Color("205") // magenta
	cGood    = lipgloss.Color("42")  // green
	cWarn    = lipgloss.Color("214") // orange
	cBad     = lipgloss.Color("196") // red
	cMuted   = lipgloss.Color("244") // gray
	cGold    = lipgloss.Color("220") // gold
)

var (
	Title = lipgloss.NewStyle().Bold(true).Foreground(cAccent)
	H2    = lipgloss.NewStyle().Bold(true).Foreground(cPrimary)
	Muted = lipgloss.NewStyle().Foreground(cMuted)
	Key   = lipgloss.NewStyle().Bold(true).Foreground(cPrimary)
	Good  = lipgloss.NewStyle().Bold(true).Foreground(cGood)
	Warn  = lipgloss.NewStyle().Bold(true).Foreground(cWarn)
	Bad   = lipgloss.NewStyle().Bold(true).Foreground(cBad)
	Gold  = lipgloss.NewStyle().Bold(true).Foreground(cGold)

	Panel = lipgloss.NewStyle().BorderStyle(lipgloss.RoundedBorder()).BorderForeground(cMuted).Padding(0, 1)
)

func Heading(icon string, title string) string {
	icon = strings.TrimSpace(icon)
	if icon != "" {
		icon += " "
	}
	return Title.Render(icon + title)
}

func LabelValue(label string, value any) string {
	return fmt.Sprintf("%s %v", Key.Render(label+":"), value)
}

// OutcomeText colors a save load outcome by how much of the save survived.
func OutcomeText(outcome string) string {
	switch outcome {
	case "current":
		return Good.Render(outcome)
	case "migrated", "legacy_dictionary":
		return Warn.Render(outcome)
	case "corrupt":
		return Bad.Render(outcome)
	default:
		return Muted.Render(outcome)
	}
}

// Bar renders a horizontal bar of width cells filled to fraction.
func Bar(fraction float64, width int) string {
	if fraction < 0 {
		fraction = 0
	}
	if fraction > 1 {
		fraction = 1
	}
	filled := int(fraction*float64(width) + 0.5)
	return Gold.Render(strings.Repeat("█", filled)) + Muted.Render(strings.Repeat("░", width-filled))
}
