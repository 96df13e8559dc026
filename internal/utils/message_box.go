package utils

import (
	"os"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"golang.org/x/term"
)

// MessageType defines the type of message box to render.
type MessageType int

const (
	InfoMessage MessageType = iota
	SuccessMessage
	WarningMessage
	ErrorMessage
)

var boxColors = map[MessageType]lipgloss.Color{
	InfoMessage:    lipgloss.Color("86"),
	SuccessMessage: lipgloss.Color("42"),
	WarningMessage: lipgloss.Color("178"),
	ErrorMessage:   lipgloss.Color("196"),
}

var boxPrefixes = map[MessageType]string{
	InfoMessage:    "ℹ",
	SuccessMessage: "✓",
	WarningMessage: "⚠",
	ErrorMessage:   "✗",
}

// Box is a builder for bordered summary messages.
type Box struct {
	messageType MessageType
	title       string
	lines       []string
}

// NewBox creates a new message box with a specific type.
func NewBox(messageType MessageType, title string) *Box {
	return &Box{messageType: messageType, title: title}
}

// AddLine adds a line of text to the box.
func (b *Box) AddLine(text string) *Box {
	b.lines = append(b.lines, text)
	return b
}

// AddBullet adds a bulleted line to the box.
func (b *Box) AddBullet(text string) *Box {
	b.lines = append(b.lines, "• "+text)
	return b
}

// Render returns the box as a string, wrapped to the terminal width.
func (b *Box) Render() string {
	color, ok := boxColors[b.messageType]
	if !ok {
		color = boxColors[InfoMessage]
	}

	title := lipgloss.NewStyle().Bold(true).Render(boxPrefixes[b.messageType] + " " + b.title)
	body := append([]string{title}, b.lines...)

	style := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(color).
		Padding(0, 1)
	if width := terminalWidth() - 8; width > 20 && lipgloss.Width(strings.Join(body, "\n")) > width {
		style = style.Width(width)
	}
	return style.Render(strings.Join(body, "\n"))
}

// terminalWidth returns the width of stdout, or 80 when it is not a terminal.
func terminalWidth() int {
	width, _, err := term.GetSize(int(os.Stdout.Fd()))
	if err != nil || width <= 0 {
		return 80
	}
	return width
}
