// internal/cache/store.go
// Purpose: cell -> cache contents. Generate once, then snapshot-and-restore.
//
// Rule: every mutation of a Cache's coins goes through Replace (or is followed
// by Persist) so the persisted snapshot never lags the in-memory list.

package cache

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/Conwinds/geocoin/internal/coin"
	"github.com/Conwinds/geocoin/internal/gen"
	"github.com/Conwinds/geocoin/internal/grid"
	"github.com/Conwinds/geocoin/internal/snapshot"
	"github.com/Conwinds/geocoin/internal/storage"
)

var tracer = otel.Tracer("github.com/Conwinds/geocoin/internal/cache")

// --- Types ---

// Origin says how a cache came into memory.
type Origin int

const (
	// Generated: no snapshot existed; contents come from the generator.
	Generated Origin = iota
	// Restored: contents were decoded from a snapshot.
	Restored
	// Regenerated: a snapshot existed but was malformed and was replaced.
	Regenerated
)

func (o Origin) String() string {
	switch o {
	case Generated:
		return "generated"
	case Restored:
		return "restored"
	case Regenerated:
		return "regenerated"
	default:
		return fmt.Sprintf("origin(%d)", int(o))
	}
}

// Cache is the live state of one cell's cache.
type Cache struct {
	Cell   grid.CellID
	Key    string
	Origin Origin

	coins coin.List
}

// Coins returns a copy of the current contents in list order.
func (c *Cache) Coins() coin.List { return c.coins.Clone() }

// Len returns how many coins the cache holds.
func (c *Cache) Len() int { return len(c.coins) }

// Contains reports whether the cache holds k.
func (c *Cache) Contains(k coin.Coin) bool { return c.coins.Contains(k) }

// Store owns every cache materialized in this session.
type Store struct {
	idx    *grid.Index
	gen    *gen.Generator
	kv     storage.Store
	logger *slog.Logger

	// held reports coins that live outside every cache (the player
	// inventory). Regeneration skips them.
	held func(coin.Coin) bool

	caches map[grid.CellID]*Cache
}

// ErrNotMaterialized is returned when an operation names a cache that has not
// been materialized in this session.
var ErrNotMaterialized = errors.New("cache: not materialized")

// --- Constructors ---

// New wires a store. A nil logger falls back to slog.Default().
func New(idx *grid.Index, g *gen.Generator, kv storage.Store, logger *slog.Logger) *Store {
	if logger == nil {
		logger = slog.Default()
	}
	return &Store{
		idx:    idx,
		gen:    g,
		kv:     kv,
		logger: logger,
		caches: make(map[grid.CellID]*Cache, 64),
	}
}

// --- Public methods ---

// SetHeld installs the predicate regeneration uses to leave out coins that
// already sit in another container.
func (s *Store) SetHeld(fn func(coin.Coin) bool) { s.held = fn }

// Materialize returns the cache for id, loading it on first use in the
// session. With no snapshot the initial contents are generated and persisted
// immediately; with a snapshot they are restored verbatim. A malformed
// snapshot is logged and replaced by a fresh deterministic generation, minus
// any coin the held predicate claims.
//
// Materialize does not run the existence test; callers decide which cells
// host caches.
func (s *Store) Materialize(ctx context.Context, id grid.CellID) (*Cache, error) {
	if c, ok := s.caches[id]; ok {
		return c, nil
	}

	key := s.idx.Key(id)
	ctx, span := tracer.Start(ctx, "cache.Materialize")
	defer span.End()
	span.SetAttributes(attribute.String("cache.key", key))

	c := &Cache{Cell: id, Key: key}
	raw, found, err := s.kv.Get(ctx, key)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "load snapshot")
		return nil, fmt.Errorf("load cache %s: %w", key, err)
	}

	switch {
	case !found:
		c.Origin = Generated
		c.coins = s.gen.Coins(s.idx.Cell(id))
	default:
		coins, derr := snapshot.DecodeCoins(raw)
		if derr == nil {
			c.Origin = Restored
			c.coins = coins
			break
		}
		s.logger.Warn("discarding malformed cache snapshot",
			"key", key,
			"error", derr,
		)
		c.Origin = Regenerated
		c.coins = s.regenerate(id)
	}

	if c.Origin != Restored {
		if err := s.write(ctx, c.Key, c.coins); err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, "persist generated cache")
			return nil, err
		}
	}

	span.SetAttributes(
		attribute.String("cache.origin", c.Origin.String()),
		attribute.Int("cache.coins", len(c.coins)),
	)
	s.logger.Debug("cache materialized", "key", key, "origin", c.Origin.String(), "coins", len(c.coins))
	s.caches[id] = c
	return c, nil
}

// Lookup returns a cache materialized earlier in this session.
func (s *Store) Lookup(id grid.CellID) (*Cache, bool) {
	c, ok := s.caches[id]
	return c, ok
}

// Persist writes the current contents of a materialized cache.
func (s *Store) Persist(ctx context.Context, id grid.CellID) error {
	c, ok := s.caches[id]
	if !ok {
		return fmt.Errorf("%w: %s", ErrNotMaterialized, s.idx.Key(id))
	}
	return s.write(ctx, c.Key, c.coins)
}

// Replace persists next as the cache's contents and, only once the write
// succeeded, swaps it into memory.
func (s *Store) Replace(ctx context.Context, id grid.CellID, next coin.List) error {
	c, ok := s.caches[id]
	if !ok {
		return fmt.Errorf("%w: %s", ErrNotMaterialized, s.idx.Key(id))
	}
	if err := s.write(ctx, c.Key, next); err != nil {
		return err
	}
	c.coins = next
	return nil
}

// Materialized returns the number of caches loaded this session.
func (s *Store) Materialized() int { return len(s.caches) }

// Each calls fn for every materialized cache, in no particular order.
func (s *Store) Each(fn func(*Cache)) {
	for _, c := range s.caches {
		fn(c)
	}
}

// --- Private helpers ---

func (s *Store) regenerate(id grid.CellID) coin.List {
	fresh := s.gen.Coins(s.idx.Cell(id))
	if s.held == nil {
		return fresh
	}
	out := make(coin.List, 0, len(fresh))
	for _, k := range fresh {
		if !s.held(k) {
			out = append(out, k)
		}
	}
	return out
}

func (s *Store) write(ctx context.Context, key string, coins coin.List) error {
	raw, err := snapshot.EncodeCoins(coins)
	if err != nil {
		return fmt.Errorf("persist cache %s: %w", key, err)
	}
	if err := s.kv.Set(ctx, key, raw); err != nil {
		return fmt.Errorf("persist cache %s: %w", key, err)
	}
	return nil
}
