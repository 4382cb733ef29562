//go:build windows

// Package stderr provides a no-op implementation for Windows.
// The Windows audio backend does not write to the process stderr.
package stderr

import (
	"os"

	"github.com/charmbracelet/log"
)

// Start is a no-op on Windows.
func Start(*log.Logger) error {
	return nil
}

// WriteOriginal writes to stderr.
func WriteOriginal(msg string) {
	_, _ = os.Stderr.WriteString(msg)
}

// Stop is a no-op on Windows.
func Stop() {}
