// internal/platform/config/env.go
// Purpose: environment parsing. Every variable the process reads carries the
// GEOCOIN_ prefix; struct tags name only the suffix.

package config

import (
	"fmt"

	"github.com/caarlos0/env/v11"
)

// --- Constants ---

// EnvPrefix is prepended to every env tag.
const EnvPrefix = "GEOCOIN_"

// --- Public methods ---

// ParseEnv loads configuration from prefixed environment variables.
func ParseEnv(target any) error {
	if err := env.ParseWithOptions(target, env.Options{Prefix: EnvPrefix}); err != nil {
		return fmt.Errorf("parse env: %w", err)
	}
	return nil
}
