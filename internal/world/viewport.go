// internal/world/viewport.go
// Purpose: which caches are on screen. Relocation recomputes the visible
// neighborhood, materializing caches entering view and dropping (display only)
// those leaving it.
//
// Rule: while any cache is under interaction the recompute is deferred, so an
// open transfer view is never torn down underneath the player.

package world

import (
	"context"
	"errors"
	"fmt"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/Conwinds/geocoin/internal/cache"
	"github.com/Conwinds/geocoin/internal/grid"
)

// --- Types ---

// Direction is a one-tile step on the grid.
type Direction int

const (
	North Direction = iota
	South
	East
	West
)

func (d Direction) String() string {
	switch d {
	case North:
		return "north"
	case South:
		return "south"
	case East:
		return "east"
	case West:
		return "west"
	default:
		return fmt.Sprintf("direction(%d)", int(d))
	}
}

func (d Direction) delta() (di, dj int, ok bool) {
	switch d {
	case North:
		return 1, 0, true
	case South:
		return -1, 0, true
	case East:
		return 0, 1, true
	case West:
		return 0, -1, true
	default:
		return 0, 0, false
	}
}

// ViewportDelta describes what a relocation changed on screen.
type ViewportDelta struct {
	Cell    grid.CellID
	Entered []grid.CellID
	Left    []grid.CellID
	// Deferred is set when an open interaction postponed the recompute.
	Deferred bool
}

type viewport struct {
	placed bool
	point  grid.Point
	cell   grid.CellID

	visible map[grid.CellID]struct{}
	order   []grid.CellID

	holds   map[grid.CellID]int
	pending bool
}

var (
	// ErrNotPlaced is returned before the first Relocate.
	ErrNotPlaced = errors.New("world: player has not been placed")
	// ErrNotVisible is returned when interacting with a cache that is not on screen.
	ErrNotVisible = errors.New("world: cache is not visible")
	// ErrNotInteracting is returned when closing an interaction that is not open.
	ErrNotInteracting = errors.New("world: no open interaction with cache")
	// ErrInvalidDirection is returned for an unknown Direction.
	ErrInvalidDirection = errors.New("world: invalid direction")
)

func newViewport() viewport {
	return viewport{
		visible: make(map[grid.CellID]struct{}),
		holds:   make(map[grid.CellID]int),
	}
}

// --- Public methods ---

// Relocate moves the player to p, records it in the path history, and
// refreshes the visible caches unless an interaction is open.
func (w *World) Relocate(ctx context.Context, p grid.Point) (ViewportDelta, error) {
	ctx, span := tracer.Start(ctx, "world.Relocate")
	defer span.End()

	if err := w.recordPosition(ctx, p); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "record position")
		return ViewportDelta{}, err
	}
	w.view.placed = true
	w.view.point = p
	w.view.cell = w.idx.CellFor(p)
	span.SetAttributes(attribute.String("cell", w.idx.Key(w.view.cell)))

	if len(w.view.holds) > 0 {
		w.view.pending = true
		return ViewportDelta{Cell: w.view.cell, Deferred: true}, nil
	}
	delta, err := w.refresh(ctx)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "refresh viewport")
	}
	return delta, err
}

// Move steps the player one tile in d.
func (w *World) Move(ctx context.Context, d Direction) (ViewportDelta, error) {
	if !w.view.placed {
		return ViewportDelta{}, ErrNotPlaced
	}
	di, dj, ok := d.delta()
	if !ok {
		return ViewportDelta{}, fmt.Errorf("%w: %d", ErrInvalidDirection, int(d))
	}
	return w.Relocate(ctx, w.idx.Step(w.view.point, di, dj))
}

// Position returns the player point and cell.
func (w *World) Position() (grid.Point, grid.CellID, bool) {
	return w.view.point, w.view.cell, w.view.placed
}

// Visible returns the on-screen caches in neighborhood order.
func (w *World) Visible() []grid.CellID {
	return append([]grid.CellID(nil), w.view.order...)
}

// IsVisible reports whether the cache in id is on screen.
func (w *World) IsVisible(id grid.CellID) bool {
	_, ok := w.view.visible[id]
	return ok
}

// BeginInteraction marks a visible cache as under interaction (its transfer
// view is open). Nested calls for the same cache are counted.
func (w *World) BeginInteraction(id grid.CellID) (*cache.Cache, error) {
	if !w.IsVisible(id) {
		return nil, fmt.Errorf("%w: %s", ErrNotVisible, w.idx.Key(id))
	}
	c, ok := w.caches.Lookup(id)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNotVisible, w.idx.Key(id))
	}
	w.view.holds[id]++
	return c, nil
}

// EndInteraction closes an interaction. When the last one closes, a
// recompute deferred by Relocate runs now; otherwise the delta is empty.
func (w *World) EndInteraction(ctx context.Context, id grid.CellID) (ViewportDelta, error) {
	n, ok := w.view.holds[id]
	if !ok {
		return ViewportDelta{}, fmt.Errorf("%w: %s", ErrNotInteracting, w.idx.Key(id))
	}
	if n > 1 {
		w.view.holds[id] = n - 1
		return ViewportDelta{Cell: w.view.cell}, nil
	}
	delete(w.view.holds, id)
	if len(w.view.holds) > 0 || !w.view.pending {
		return ViewportDelta{Cell: w.view.cell}, nil
	}
	w.view.pending = false
	return w.refresh(ctx)
}

// Interacting reports whether any interaction is open.
func (w *World) Interacting() bool { return len(w.view.holds) > 0 }

// --- Private helpers ---

// refresh recomputes the visible set around the player's cell.
func (w *World) refresh(ctx context.Context) (ViewportDelta, error) {
	delta := ViewportDelta{Cell: w.view.cell}
	hood := w.idx.Neighborhood(w.view.cell, w.radius)

	// A cell whose cache fails to load is skipped; the rest still refresh.
	var errs []error
	want := make(map[grid.CellID]struct{}, len(hood)/8)
	order := make([]grid.CellID, 0, len(hood)/8)
	for _, id := range hood {
		if !w.gen.Exists(w.idx.Cell(id)) {
			continue
		}
		if _, shown := w.view.visible[id]; !shown {
			if _, err := w.caches.Materialize(ctx, id); err != nil {
				errs = append(errs, fmt.Errorf("materialize %s: %w", w.idx.Key(id), err))
				continue
			}
			w.view.visible[id] = struct{}{}
			delta.Entered = append(delta.Entered, id)
		}
		want[id] = struct{}{}
		order = append(order, id)
	}

	for _, id := range w.view.order {
		if _, keep := want[id]; keep {
			continue
		}
		delete(w.view.visible, id)
		delta.Left = append(delta.Left, id)
	}
	w.view.order = order

	w.logger.Debug("viewport refreshed",
		"cell", w.idx.Key(w.view.cell),
		"visible", len(order),
		"entered", len(delta.Entered),
		"left", len(delta.Left),
	)
	return delta, errors.Join(errs...)
}
