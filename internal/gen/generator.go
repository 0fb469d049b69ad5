// internal/gen/generator.go
// Purpose: deterministic cache generation. Cell coord -> same output, always.
// Nothing here reads or writes state.

package gen

import (
	"errors"
	"fmt"
	"math"

	"github.com/Conwinds/geocoin/internal/coin"
	"github.com/Conwinds/geocoin/internal/grid"
	"github.com/Conwinds/geocoin/internal/mathx"
)

// --- Constants ---

// DefaultMaxCoins scales the sizing hash: initial sizes fall in [0, 100).
const DefaultMaxCoins = 100

// --- Types ---

// Generator decides cache existence and initial contents per cell.
type Generator struct {
	spawnProbability float64
	maxCoins         int
}

// ErrInvalidProbability is returned for a spawn probability outside [0,1].
var ErrInvalidProbability = errors.New("gen: spawn probability must be within [0,1]")

// --- Constructors ---

// New returns a generator with the default coin scale.
func New(spawnProbability float64) (*Generator, error) {
	if math.IsNaN(spawnProbability) || spawnProbability < 0 || spawnProbability > 1 {
		return nil, fmt.Errorf("%w: %v", ErrInvalidProbability, spawnProbability)
	}
	return &Generator{spawnProbability: spawnProbability, maxCoins: DefaultMaxCoins}, nil
}

// --- Public methods ---

// SpawnProbability returns the configured existence threshold.
func (g *Generator) SpawnProbability() float64 { return g.spawnProbability }

// Exists reports whether the cell hosts a cache: Luck("i,j") < p.
func (g *Generator) Exists(c grid.Cell) bool {
	return mathx.Luck(ExistenceSeed(c.I, c.J)) < g.spawnProbability
}

// InitialSize is floor(Luck("i,j,initialValue") × 100).
func (g *Generator) InitialSize(c grid.Cell) int {
	return int(math.Floor(mathx.Luck(SizeSeed(c.I, c.J)) * float64(g.maxCoins)))
}

// Coins returns the initial contents of the cell's cache: serials 0..N-1,
// each with the cell as origin.
func (g *Generator) Coins(c grid.Cell) coin.List {
	n := g.InitialSize(c)
	out := make(coin.List, n)
	for k := range out {
		out[k] = coin.Coin{I: c.I, J: c.J, Serial: k}
	}
	return out
}
