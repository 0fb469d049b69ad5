// internal/platform/config/exit.go
// Purpose: fatal exit helper for command entrypoints.

package config

import (
	"fmt"
	"os"
)

// --- Public methods ---

// Exitf writes a formatted error message to stderr and exits with code 1.
func Exitf(format string, args ...any) {
	fmt.Fprintf(os.Stderr, format+"\n", args...)
	os.Exit(1)
}
