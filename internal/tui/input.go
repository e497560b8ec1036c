package tui

import (
	"strings"
	"unicode/utf8"
)

// maxInputLen is the maximum number of runes allowed in free-text form inputs.
const maxInputLen = 120

// editRune processes a keystroke for inline text editing.
// Handles backspace (rune-aware) and single printable characters.
// Returns the text unchanged for non-printable keys (enter, esc, etc.).
// Input is clamped to maxInputLen runes.
func editRune(text string, key string) string {
	switch key {
	case "backspace":
		if len(text) > 0 {
			runes := []rune(text)
			return string(runes[:len(runes)-1])
		}
		return text
	case "space":
		key = " "
	}
	if utf8.RuneCountInString(key) == 1 {
		if utf8.RuneCountInString(text) >= maxInputLen {
			return text
		}
		return text + key
	}
	return text
}

// editDigits is editRune for numeric fields: only 0-9 is accepted and the
// value never grows past limit.
func editDigits(text string, key string, limit int) string {
	if key == "backspace" {
		return editRune(text, key)
	}
	if len(key) != 1 || key[0] < '0' || key[0] > '9' || len(text) >= limit {
		return text
	}
	return text + key
}

// digitsOnly keeps the first limit digits of s, dropping everything else.
// Pasted codes often arrive as "123 456" or "123-456".
func digitsOnly(s string, limit int) string {
	var b strings.Builder
	for _, r := range s {
		if b.Len() >= limit {
			break
		}
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// mask hides a secret behind bullets of the same length.
func mask(s string) string {
	return strings.Repeat("•", utf8.RuneCountInString(s))
}

// truncateToHeight limits output to maxLines newline-delimited lines.
// Returns the original string if it fits or maxLines is <= 0.
func truncateToHeight(s string, maxLines int) string {
	if maxLines <= 0 {
		return s
	}
	n := 0
	for i := 0; i < len(s); i++ {
		if s[i] == '\n' {
			n++
			if n >= maxLines {
				return s[:i+1]
			}
		}
	}
	return s
}

// renderField renders one labelled form input. Focused fields get a cursor;
// empty unfocused fields show the placeholder.
func renderField(label, value, placeholder string, focused bool) string {
	cursor := " "
	style := metaStyle
	if focused {
		cursor = inputPromptStyle.Render(">")
		style = selectedStyle
	}
	display := normalStyle.Render(value)
	switch {
	case value == "" && !focused:
		display = inputPlaceholderStyle.Render(placeholder)
	case focused:
		display += accentStyle.Render("█")
	}
	return cursor + " " + style.Render(label) + "  " + display
}
