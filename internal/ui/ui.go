// Package ui provides terminal rendering helpers for CLI output.
package ui

import "github.com/charmbracelet/lipgloss"

var (
	passStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("10"))
	warnStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("11"))
	failStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("9"))
	accentStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("12"))
	mutedStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
)

// RenderPass renders text in the success style.
func RenderPass(s string) string { return passStyle.Render(s) }

// RenderWarn renders text in the warning style.
func RenderWarn(s string) string { return warnStyle.Render(s) }

// RenderFail renders text in the failure style.
func RenderFail(s string) string { return failStyle.Render(s) }

// RenderAccent renders text in the accent style.
func RenderAccent(s string) string { return accentStyle.Render(s) }

// RenderMuted renders text in the muted style.
func RenderMuted(s string) string { return mutedStyle.Render(s) }
