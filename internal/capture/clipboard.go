package capture

import (
	"errors"

	"github.com/atotto/clipboard"
)

// ErrNoClipboard is returned when no clipboard utility is available.
var ErrNoClipboard = errors.New("clipboard is not supported on this system")

// Clipboard returns the current clipboard text.
func (c *Capturer) Clipboard() (string, error) {
	if clipboard.Unsupported {
		return "", ErrNoClipboard
	}
	return clipboard.ReadAll()
}

// WriteClipboard replaces the clipboard content.
func WriteClipboard(text string) error {
	if clipboard.Unsupported {
		return ErrNoClipboard
	}
	return clipboard.WriteAll(text)
}
