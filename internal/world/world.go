// internal/world/world.go
// Purpose: authoritative game state for one session. Owns the grid index, the
// cache store, the player inventory and path history, and exposes the only
// operations allowed to mutate them.
//
// Rule: single-threaded. Every entry point runs to completion; callers that
// receive input from several sources serialize it through Run.

package world

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"go.opentelemetry.io/otel"

	"github.com/Conwinds/geocoin/internal/cache"
	"github.com/Conwinds/geocoin/internal/coin"
	"github.com/Conwinds/geocoin/internal/gen"
	"github.com/Conwinds/geocoin/internal/grid"
	"github.com/Conwinds/geocoin/internal/snapshot"
	"github.com/Conwinds/geocoin/internal/storage"
)

var tracer = otel.Tracer("github.com/Conwinds/geocoin/internal/world")

// --- Types ---

// Options configures a World.
type Options struct {
	TileWidth        float64
	Radius           int
	SpawnProbability float64
	Logger           *slog.Logger
}

// World is the explicit context every core operation runs against.
type World struct {
	idx    *grid.Index
	gen    *gen.Generator
	caches *cache.Store
	kv     storage.Store
	logger *slog.Logger
	radius int

	inventory coin.List
	path      [][]grid.Point
	breakPath bool

	view viewport
}

// ErrInvalidRadius is returned for a non-positive visibility radius.
var ErrInvalidRadius = errors.New("world: visibility radius must be positive")

// --- Constructors ---

// New builds a World over kv and restores the player inventory and path
// history persisted by an earlier session. Invalid parameters are rejected
// here so later queries never see them.
func New(ctx context.Context, opts Options, kv storage.Store) (*World, error) {
	if kv == nil {
		return nil, errors.New("world: storage is required")
	}
	if opts.Radius <= 0 {
		return nil, fmt.Errorf("%w: %d", ErrInvalidRadius, opts.Radius)
	}
	idx, err := grid.NewIndex(opts.TileWidth)
	if err != nil {
		return nil, err
	}
	g, err := gen.New(opts.SpawnProbability)
	if err != nil {
		return nil, err
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	w := &World{
		idx:    idx,
		gen:    g,
		caches: cache.New(idx, g, kv, logger),
		kv:     kv,
		logger: logger,
		radius: opts.Radius,
		view:   newViewport(),
	}
	w.caches.SetHeld(func(c coin.Coin) bool { return w.inventory.Contains(c) })
	if err := w.restorePlayer(ctx); err != nil {
		return nil, err
	}
	return w, nil
}

// --- Public methods ---

// Index exposes the grid index for presentation (bounds, keys).
func (w *World) Index() *grid.Index { return w.idx }

// Generator exposes the deterministic generator.
func (w *World) Generator() *gen.Generator { return w.gen }

// Caches exposes the cache store for read access.
func (w *World) Caches() *cache.Store { return w.caches }

// Radius returns the visibility radius in tiles.
func (w *World) Radius() int { return w.radius }

// Inventory returns a copy of the coins the player holds.
func (w *World) Inventory() coin.List { return w.inventory.Clone() }

// CoinHome returns the center of the cell a coin was minted in.
func (w *World) CoinHome(c coin.Coin) grid.Point {
	return w.idx.Center(w.idx.Intern(c.I, c.J))
}

// Reset returns every held coin to its origin cache and clears the path
// history. Coins are moved through Transfer, so conservation holds.
func (w *World) Reset(ctx context.Context) (int, error) {
	held := w.inventory.Clone()
	for n, c := range held {
		home := w.idx.Intern(c.I, c.J)
		if _, err := w.transfer(ctx, c, Player(), CacheAt(home), false); err != nil {
			return n, fmt.Errorf("reset: return %s: %w", c, err)
		}
	}
	if err := w.writePath(ctx, [][]grid.Point{}); err != nil {
		return len(held), fmt.Errorf("reset: %w", err)
	}
	w.path = [][]grid.Point{}
	w.breakPath = false
	w.logger.Info("world reset", "returned", len(held))
	return len(held), nil
}

// --- Private helpers ---

func (w *World) restorePlayer(ctx context.Context) error {
	raw, found, err := w.kv.Get(ctx, snapshot.InventoryKey)
	if err != nil {
		return fmt.Errorf("load inventory: %w", err)
	}
	w.inventory = coin.List{}
	if found {
		inv, derr := snapshot.DecodeCoins(raw)
		if derr != nil {
			w.logger.Warn("discarding malformed inventory snapshot", "error", derr)
		} else {
			w.inventory = inv
		}
	}

	raw, found, err = w.kv.Get(ctx, snapshot.PathKey)
	if err != nil {
		return fmt.Errorf("load path: %w", err)
	}
	w.path = [][]grid.Point{}
	if found {
		lines, derr := snapshot.DecodePath(raw)
		if derr != nil {
			w.logger.Warn("discarding malformed path snapshot", "error", derr)
		} else {
			w.path = lines
		}
	}
	// A restored session continues on a fresh polyline.
	w.breakPath = len(w.path) > 0
	return nil
}

func (w *World) writeInventory(ctx context.Context, next coin.List) error {
	raw, err := snapshot.EncodeCoins(next)
	if err != nil {
		return fmt.Errorf("persist inventory: %w", err)
	}
	if err := w.kv.Set(ctx, snapshot.InventoryKey, raw); err != nil {
		return fmt.Errorf("persist inventory: %w", err)
	}
	return nil
}
