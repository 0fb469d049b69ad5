// internal/world/transfer.go
// Purpose: the only way coins move. One coin, one source, one destination.
//
// Invariant: every coin ever generated sits in exactly one container. A
// transfer computes both new lists first, writes both through storage, and
// only then exposes them; a failed write leaves memory and storage as they were.

package world

import (
	"context"
	"errors"
	"fmt"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/Conwinds/geocoin/internal/coin"
	"github.com/Conwinds/geocoin/internal/grid"
)

// --- Types ---

type endpointKind uint8

const (
	playerEndpoint endpointKind = iota + 1
	cacheEndpoint
)

// Endpoint names a container: the player inventory or one cache.
type Endpoint struct {
	kind endpointKind
	cell grid.CellID
}

// Player is the player inventory endpoint.
func Player() Endpoint { return Endpoint{kind: playerEndpoint} }

// CacheAt is the endpoint for the cache in cell id.
func CacheAt(id grid.CellID) Endpoint { return Endpoint{kind: cacheEndpoint, cell: id} }

// IsPlayer reports whether e is the player inventory.
func (e Endpoint) IsPlayer() bool { return e.kind == playerEndpoint }

// Cell returns the cache cell of a cache endpoint.
func (e Endpoint) Cell() (grid.CellID, bool) {
	return e.cell, e.kind == cacheEndpoint
}

// TransferResult reports a completed transfer.
type TransferResult struct {
	Coin     coin.Coin
	From, To Endpoint
	// FromLen and ToLen are the container sizes after the move.
	FromLen, ToLen int
}

var (
	// ErrCoinNotInContainer is returned when the coin is absent from the source.
	ErrCoinNotInContainer = coin.ErrNotFound
	// ErrSameContainer is returned when source and destination are equal.
	ErrSameContainer = errors.New("world: source and destination are the same container")
	// ErrCacheNotFound is returned for a cell that hosts no cache.
	ErrCacheNotFound = errors.New("world: no cache in cell")
	// ErrInvalidEndpoint is returned for the zero Endpoint.
	ErrInvalidEndpoint = errors.New("world: invalid endpoint")
)

// --- Public methods ---

// Transfer moves c from one container to another. If c is not in from, it
// fails with ErrCoinNotInContainer and nothing changes.
func (w *World) Transfer(ctx context.Context, c coin.Coin, from, to Endpoint) (TransferResult, error) {
	return w.transfer(ctx, c, from, to, true)
}

// Collect moves c from the cache in cell into the player inventory.
func (w *World) Collect(ctx context.Context, cell grid.CellID, c coin.Coin) (TransferResult, error) {
	return w.Transfer(ctx, c, CacheAt(cell), Player())
}

// Deposit moves c from the player inventory into the cache in cell.
func (w *World) Deposit(ctx context.Context, cell grid.CellID, c coin.Coin) (TransferResult, error) {
	return w.Transfer(ctx, c, Player(), CacheAt(cell))
}

// EndpointName renders an endpoint for logs and presentation.
func (w *World) EndpointName(e Endpoint) string {
	switch e.kind {
	case playerEndpoint:
		return "player"
	case cacheEndpoint:
		return "cache " + w.idx.Key(e.cell)
	default:
		return "invalid"
	}
}

// --- Private helpers ---

// transfer implements Transfer. With requireSpawn false a cache endpoint is
// materialized even if the generator would not place one there (coins always
// go home on reset, whatever the current spawn probability).
func (w *World) transfer(ctx context.Context, c coin.Coin, from, to Endpoint, requireSpawn bool) (TransferResult, error) {
	ctx, span := tracer.Start(ctx, "world.Transfer")
	defer span.End()
	span.SetAttributes(
		attribute.String("coin", c.String()),
		attribute.String("from", w.EndpointName(from)),
		attribute.String("to", w.EndpointName(to)),
	)

	res, err := w.doTransfer(ctx, c, from, to, requireSpawn)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "transfer failed")
		w.logger.Debug("transfer rejected",
			"coin", c.String(),
			"from", w.EndpointName(from),
			"to", w.EndpointName(to),
			"error", err,
		)
		return TransferResult{}, err
	}
	w.logger.Info("coin transferred",
		"coin", c.String(),
		"from", w.EndpointName(from),
		"to", w.EndpointName(to),
	)
	return res, nil
}

func (w *World) doTransfer(ctx context.Context, c coin.Coin, from, to Endpoint, requireSpawn bool) (TransferResult, error) {
	if from.kind == 0 || to.kind == 0 {
		return TransferResult{}, ErrInvalidEndpoint
	}
	if from == to {
		return TransferResult{}, ErrSameContainer
	}

	src, err := w.contents(ctx, from, requireSpawn)
	if err != nil {
		return TransferResult{}, err
	}
	dst, err := w.contents(ctx, to, requireSpawn)
	if err != nil {
		return TransferResult{}, err
	}

	nextSrc, err := src.Without(c)
	if err != nil {
		return TransferResult{}, fmt.Errorf("transfer from %s: %w", w.EndpointName(from), err)
	}
	nextDst := dst.With(c)

	// Destination first: if the source write then fails, the destination is
	// rolled back and the coin is still only in the source.
	if err := w.store(ctx, to, nextDst); err != nil {
		return TransferResult{}, err
	}
	if err := w.store(ctx, from, nextSrc); err != nil {
		if rerr := w.store(ctx, to, dst); rerr != nil {
			w.logger.Error("transfer rollback failed",
				"coin", c.String(),
				"container", w.EndpointName(to),
				"error", rerr,
			)
			return TransferResult{}, errors.Join(err, rerr)
		}
		return TransferResult{}, err
	}

	return TransferResult{
		Coin:    c,
		From:    from,
		To:      to,
		FromLen: len(nextSrc),
		ToLen:   len(nextDst),
	}, nil
}

// contents returns the current list behind e, materializing a cache on demand.
func (w *World) contents(ctx context.Context, e Endpoint, requireSpawn bool) (coin.List, error) {
	if e.IsPlayer() {
		return w.inventory, nil
	}
	id, _ := e.Cell()
	if c, ok := w.caches.Lookup(id); ok {
		return c.Coins(), nil
	}
	if requireSpawn && !w.gen.Exists(w.idx.Cell(id)) {
		return nil, fmt.Errorf("%w: %s", ErrCacheNotFound, w.idx.Key(id))
	}
	c, err := w.caches.Materialize(ctx, id)
	if err != nil {
		return nil, err
	}
	return c.Coins(), nil
}

// store persists next for e and then makes it current.
func (w *World) store(ctx context.Context, e Endpoint, next coin.List) error {
	if e.IsPlayer() {
		if err := w.writeInventory(ctx, next); err != nil {
			return err
		}
		w.inventory = next
		return nil
	}
	id, _ := e.Cell()
	return w.caches.Replace(ctx, id, next)
}
