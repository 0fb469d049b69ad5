// internal/platform/config/game.go
// Purpose: world parameters from the environment, validated before use.

package config

import (
	"errors"
	"fmt"
	"math"
)

// --- Types ---

// ErrInvalid marks a configuration rejected by Validate.
var ErrInvalid = errors.New("invalid configuration")

// Game holds the world parameters. Defaults reproduce the classic board:
// 1e-4° tiles, an 8-tile visibility radius and a 10% spawn rate, centered on
// the Merrill College classroom.
type Game struct {
	TileWidth        float64 `env:"TILE_WIDTH" envDefault:"0.0001"`
	Radius           int     `env:"VISIBILITY_RADIUS" envDefault:"8"`
	SpawnProbability float64 `env:"SPAWN_PROBABILITY" envDefault:"0.1"`
	OriginLat        float64 `env:"ORIGIN_LAT" envDefault:"36.9995"`
	OriginLng        float64 `env:"ORIGIN_LNG" envDefault:"-122.0533"`

	// DBPath selects the SQLite store; empty keeps state in memory.
	DBPath   string `env:"DB_PATH"`
	LogLevel string `env:"LOG_LEVEL" envDefault:"info"`
}

// --- Public methods ---

// LoadGame parses the environment and validates the result.
func LoadGame() (Game, error) {
	var cfg Game
	if err := ParseEnv(&cfg); err != nil {
		return Game{}, err
	}
	if err := cfg.Validate(); err != nil {
		return Game{}, err
	}
	return cfg, nil
}

// Validate rejects parameters the core cannot work with. Checks run here so
// queries never have to.
func (g Game) Validate() error {
	var errs []error
	if !(g.TileWidth > 0) || math.IsInf(g.TileWidth, 0) {
		errs = append(errs, fmt.Errorf("tile width must be positive, got %v", g.TileWidth))
	}
	if g.Radius <= 0 {
		errs = append(errs, fmt.Errorf("visibility radius must be positive, got %d", g.Radius))
	}
	if math.IsNaN(g.SpawnProbability) || g.SpawnProbability < 0 || g.SpawnProbability > 1 {
		errs = append(errs, fmt.Errorf("spawn probability must be within [0,1], got %v", g.SpawnProbability))
	}
	if !finite(g.OriginLat) || !finite(g.OriginLng) {
		errs = append(errs, fmt.Errorf("origin must be finite, got (%v, %v)", g.OriginLat, g.OriginLng))
	}
	if len(errs) > 0 {
		return fmt.Errorf("%w: %w", ErrInvalid, errors.Join(errs...))
	}
	return nil
}

// --- Private helpers ---

func finite(f float64) bool {
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}
