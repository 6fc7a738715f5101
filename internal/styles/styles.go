// Package styles provides shared lipgloss styles for CLI and TUI components.
package styles

import (
	"github.com/charmbracelet/lipgloss"
)

// Tokyo Night color palette.
var (
	ColorGreen  = lipgloss.Color("#9ece6a")
	ColorYellow = lipgloss.Color("#e0af68")
	ColorBlue   = lipgloss.Color("#7aa2f7")
	ColorRed    = lipgloss.Color("#d75f6b")
	ColorGray   = lipgloss.Color("#565f89")
)

// Banner ASCII art for the header.
const Banner = `
 ╦ ╦╔═╗╔╗╔╔═╗╦ ╦╔═╗╔═╗╔╗╔
 ╠═╣║ ║║║║║ ╦╚╦╝║╣ ║ ║║║║
 ╩ ╩╚═╝╝╚╝╚═╝ ╩ ╚═╝╚═╝╝╚╝`

// BannerStyle styles the ASCII art banner.
var BannerStyle = lipgloss.NewStyle().
	Foreground(ColorBlue).
	Bold(true)

// HeaderStyle styles view headers such as the room name.
var HeaderStyle = lipgloss.NewStyle().
	Foreground(ColorBlue).
	Bold(true)

// SubtleStyle styles secondary text like roster lines and timestamps.
var SubtleStyle = lipgloss.NewStyle().
	Foreground(ColorGray)

// DividerStyle styles horizontal dividers.
var DividerStyle = lipgloss.NewStyle().
	Foreground(ColorGray)
