// internal/mathx/hash.go
// Purpose: fast deterministic hashing for generation seeds.
// Keep portable and stable across versions (no use of rand, no per-process salt).

package mathx

import "github.com/cespare/xxhash/v2"

// --- Constants ---

const (
	// unitBits is the mantissa width of a float64; the top bits of the hash are
	// scaled by 2^-53 so every output is exactly representable and < 1.
	unitBits  = 53
	unitScale = 1.0 / (1 << unitBits)
)

// --- Public methods ---

// Hash64 returns the xxhash64 digest of seed.
func Hash64(seed string) uint64 {
	return xxhash.Sum64String(seed)
}

// Unit maps a 64-bit hash onto [0,1).
func Unit(h uint64) float64 {
	return float64(h>>(64-unitBits)) * unitScale
}

// Luck returns a reproducible pseudo-random value in [0,1) for seed.
// Equal seeds yield bit-identical results, including across restarts.
func Luck(seed string) float64 {
	return Unit(Hash64(seed))
}
