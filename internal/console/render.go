package console

import (
	"strings"
	"unicode/utf8"
)

// ANSI escape codes
const (
	ClearLine = "\033[K"

	Reset = "\033[0m"
	Bold  = "\033[1m"
	Dim   = "\033[2m"

	FgRed         = "\033[31m"
	FgGreen       = "\033[32m"
	FgYellow      = "\033[33m"
	FgCyan        = "\033[36m"
	FgBrightBlack = "\033[90m"
)

// PadOrTruncate pads or truncates a string to exactly width characters.
// Uses visual width (rune count) for proper Unicode handling.
func PadOrTruncate(s string, width int) string {
	if width <= 0 {
		return ""
	}

	runeLen := utf8.RuneCountInString(s)

	if runeLen == width {
		return s
	}

	if runeLen < width {
		return s + strings.Repeat(" ", width-runeLen)
	}

	runes := []rune(s)
	if width >= 3 {
		return string(runes[:width-3]) + "..."
	}
	return string(runes[:width])
}

// Style applies ANSI style codes to text.
func Style(s string, codes ...string) string {
	if len(codes) == 0 {
		return s
	}
	return strings.Join(codes, "") + s + Reset
}

// StateColor returns the color code for an executor state name.
func StateColor(state string) string {
	switch strings.ToUpper(state) {
	case "RUNNING":
		return FgGreen
	case "LOADING":
		return FgCyan
	case "IDLE":
		return FgBrightBlack
	default:
		return ""
	}
}

// FormatState formats a state name with its color.
func FormatState(state string) string {
	color := StateColor(state)
	if color == "" {
		return state
	}
	return Style(state, color, Bold)
}

// textColor picks the color for a chunk of console text: fault reports in
// red, warnings in yellow, sketch output unstyled.
func textColor(text string) []string {
	switch {
	case strings.HasPrefix(text, "Error"):
		return []string{FgRed, Bold}
	case strings.HasPrefix(text, "Warning"):
		return []string{FgYellow}
	default:
		return nil
	}
}
