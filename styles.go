package main

import "github.com/charmbracelet/lipgloss"

// Palette
var (
	headerColor  = lipgloss.Color("109")
	accentColor  = lipgloss.Color("171")
	barColor     = lipgloss.Color("233")
	mutedColor   = lipgloss.Color("239")
	subtleColor  = lipgloss.Color("244")
	askColor     = lipgloss.Color("179")
	dueColor     = lipgloss.Color("167")
	tagColor     = lipgloss.Color("65")
	mentionColor = lipgloss.Color("73")
)

// Task line
var (
	idStyle        = lipgloss.NewStyle().Foreground(headerColor).Bold(true)
	prefixStyle    = lipgloss.NewStyle().Foreground(subtleColor)
	doneStyle      = lipgloss.NewStyle().Foreground(mutedColor).Strikethrough(true)
	dueStyle       = lipgloss.NewStyle().Foreground(dueColor)
	tagStyle       = lipgloss.NewStyle().Foreground(tagColor)
	mentionStyle   = lipgloss.NewStyle().Foreground(mentionColor)
	separatorStyle = lipgloss.NewStyle().Foreground(mutedColor)
)

// Headers and prompts
var (
	titleNameStyle = lipgloss.NewStyle().Bold(true).Foreground(headerColor).Background(barColor)
	countStyle     = lipgloss.NewStyle().Foreground(subtleColor)
	sectionStyle   = lipgloss.NewStyle().Bold(true).Foreground(accentColor)
	promptStyle    = lipgloss.NewStyle().Bold(true).Foreground(askColor)
)

// Watch view
var (
	titleStyle    = lipgloss.NewStyle().Bold(true).Foreground(accentColor).Background(barColor)
	selectedStyle = lipgloss.NewStyle().Foreground(accentColor).Bold(true)
	cursorStyle   = lipgloss.NewStyle().Foreground(accentColor)
	helpStyle     = lipgloss.NewStyle().Foreground(mutedColor).MarginTop(1)
	dangerStyle   = lipgloss.NewStyle().Bold(true).Foreground(dueColor)
)
