package ui

import "github.com/atotto/clipboard"

// Clipboard receives the text of every fetched message
type Clipboard interface {
	WriteAll(text string) error
}

type systemClipboard struct{}

func (systemClipboard) WriteAll(text string) error {
	return clipboard.WriteAll(text)
}

// NewClipboard returns the system clipboard, or nil when it is disabled or
// unsupported on this platform.
func NewClipboard(enabled bool) Clipboard {
	if !enabled || clipboard.Unsupported {
		return nil
	}
	return systemClipboard{}
}
