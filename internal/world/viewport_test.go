package world

import (
	"context"
	"errors"
	"testing"

	"github.com/Conwinds/geocoin/internal/grid"
	"github.com/Conwinds/geocoin/internal/storage/memory"
)

func TestMoveBeforePlacement(t *testing.T) {
	w := newWorld(t, memory.New(), 2, 1)
	if _, err := w.Move(context.Background(), North); !errors.Is(err, ErrNotPlaced) {
		t.Fatalf("err = %v, want ErrNotPlaced", err)
	}
}

func TestRelocateShowsNeighborhood(t *testing.T) {
	ctx := context.Background()
	w := newWorld(t, memory.New(), 2, 1)
	d, err := w.Relocate(ctx, grid.Point{})
	if err != nil {
		t.Fatalf("relocate: %v", err)
	}
	if len(d.Entered) != 16 || len(d.Left) != 0 || d.Deferred {
		t.Fatalf("delta = %+v", d)
	}
	if got := len(w.Visible()); got != 16 {
		t.Fatalf("visible = %d, want 16", got)
	}
	if w.Caches().Materialized() != 16 {
		t.Fatalf("materialized = %d", w.Caches().Materialized())
	}
}

func TestRelocateOnlyShowsSpawnedCells(t *testing.T) {
	ctx := context.Background()
	w := newWorld(t, memory.New(), 8, 0.1)
	if _, err := w.Relocate(ctx, grid.Point{}); err != nil {
		t.Fatalf("relocate: %v", err)
	}
	for _, id := range w.Visible() {
		if !w.Generator().Exists(w.Index().Cell(id)) {
			t.Fatalf("cell %s shown without a cache", w.Index().Key(id))
		}
	}
	if w.Caches().Materialized() != len(w.Visible()) {
		t.Fatalf("materialized %d caches for %d visible", w.Caches().Materialized(), len(w.Visible()))
	}
}

func TestMoveShiftsViewport(t *testing.T) {
	ctx := context.Background()
	w := newWorld(t, memory.New(), 2, 1)
	if _, err := w.Relocate(ctx, grid.Point{}); err != nil {
		t.Fatalf("relocate: %v", err)
	}
	d, err := w.Move(ctx, North)
	if err != nil {
		t.Fatalf("move: %v", err)
	}
	if len(d.Entered) != 4 || len(d.Left) != 4 {
		t.Fatalf("delta = %d entered / %d left", len(d.Entered), len(d.Left))
	}
	for _, id := range d.Left {
		if w.Index().Cell(id).I != -2 {
			t.Fatalf("unexpected cell left view: %v", w.Index().Cell(id))
		}
		if _, ok := w.Caches().Lookup(id); !ok {
			t.Fatal("leaving view must not drop cache state")
		}
	}
	for _, id := range d.Entered {
		if w.Index().Cell(id).I != 2 {
			t.Fatalf("unexpected cell entered view: %v", w.Index().Cell(id))
		}
	}
	_, cell, _ := w.Position()
	if w.Index().Cell(cell) != (grid.Cell{I: 1, J: 0}) {
		t.Fatalf("player cell = %v", w.Index().Cell(cell))
	}
}

func TestMoveInvalidDirection(t *testing.T) {
	ctx := context.Background()
	w := newWorld(t, memory.New(), 2, 1)
	if _, err := w.Relocate(ctx, grid.Point{}); err != nil {
		t.Fatalf("relocate: %v", err)
	}
	if _, err := w.Move(ctx, Direction(9)); !errors.Is(err, ErrInvalidDirection) {
		t.Fatalf("err = %v", err)
	}
}

func TestInteractionDefersRefresh(t *testing.T) {
	ctx := context.Background()
	w := newWorld(t, memory.New(), 2, 1)
	if _, err := w.Relocate(ctx, grid.Point{}); err != nil {
		t.Fatalf("relocate: %v", err)
	}
	edge := w.Index().Intern(-2, 0)
	if _, err := w.BeginInteraction(edge); err != nil {
		t.Fatalf("begin: %v", err)
	}
	before := w.Visible()

	d, err := w.Move(ctx, North)
	if err != nil {
		t.Fatalf("move: %v", err)
	}
	if !d.Deferred || len(d.Entered) != 0 || len(d.Left) != 0 {
		t.Fatalf("expected deferred refresh, got %+v", d)
	}
	if !w.IsVisible(edge) || len(w.Visible()) != len(before) {
		t.Fatal("open cache was torn down while interacting")
	}
	_, cell, _ := w.Position()
	if w.Index().Cell(cell) != (grid.Cell{I: 1, J: 0}) {
		t.Fatal("player position must still update while deferred")
	}

	d, err = w.EndInteraction(ctx, edge)
	if err != nil {
		t.Fatalf("end: %v", err)
	}
	if len(d.Entered) != 4 || len(d.Left) != 4 {
		t.Fatalf("refresh after close: %d entered / %d left", len(d.Entered), len(d.Left))
	}
	if w.IsVisible(edge) {
		t.Fatal("edge cache should leave view after interaction closes")
	}
}

func TestNestedInteractions(t *testing.T) {
	ctx := context.Background()
	w := newWorld(t, memory.New(), 2, 1)
	if _, err := w.Relocate(ctx, grid.Point{}); err != nil {
		t.Fatalf("relocate: %v", err)
	}
	a := w.Index().Intern(0, 0)
	b := w.Index().Intern(1, 1)
	for _, id := range []grid.CellID{a, a, b} {
		if _, err := w.BeginInteraction(id); err != nil {
			t.Fatalf("begin: %v", err)
		}
	}
	if _, err := w.Move(ctx, East); err != nil {
		t.Fatalf("move: %v", err)
	}
	for _, id := range []grid.CellID{a, b} {
		d, err := w.EndInteraction(ctx, id)
		if err != nil {
			t.Fatalf("end: %v", err)
		}
		if len(d.Entered)+len(d.Left) != 0 {
			t.Fatal("refresh ran while an interaction was still open")
		}
	}
	if !w.Interacting() {
		t.Fatal("expected one interaction still open")
	}
	d, err := w.EndInteraction(ctx, a)
	if err != nil {
		t.Fatalf("end: %v", err)
	}
	if len(d.Entered) != 4 || len(d.Left) != 4 {
		t.Fatalf("deferred refresh: %+v", d)
	}
}

func TestInteractionErrors(t *testing.T) {
	ctx := context.Background()
	w := newWorld(t, memory.New(), 2, 1)
	if _, err := w.Relocate(ctx, grid.Point{}); err != nil {
		t.Fatalf("relocate: %v", err)
	}
	far := w.Index().Intern(50, 50)
	if _, err := w.BeginInteraction(far); !errors.Is(err, ErrNotVisible) {
		t.Fatalf("begin far: err = %v", err)
	}
	if _, err := w.EndInteraction(ctx, w.Index().Intern(0, 0)); !errors.Is(err, ErrNotInteracting) {
		t.Fatalf("end unopened: err = %v", err)
	}
}

func TestPathHistory(t *testing.T) {
	ctx := context.Background()
	kv := memory.New()
	w := newWorld(t, kv, 1, 0)
	if _, err := w.Relocate(ctx, grid.Point{}); err != nil {
		t.Fatalf("relocate: %v", err)
	}
	for _, d := range []Direction{North, East} {
		if _, err := w.Move(ctx, d); err != nil {
			t.Fatalf("move: %v", err)
		}
	}
	w.BreakPath()
	if _, err := w.Relocate(ctx, grid.Point{Lat: 1, Lng: 1}); err != nil {
		t.Fatalf("relocate: %v", err)
	}

	path := w.Path()
	if len(path) != 2 || len(path[0]) != 3 || len(path[1]) != 1 {
		t.Fatalf("path shape = %v", path)
	}

	restarted := newWorld(t, kv, 1, 0)
	got := restarted.Path()
	if len(got) != 2 || len(got[0]) != 3 || got[1][0] != (grid.Point{Lat: 1, Lng: 1}) {
		t.Fatalf("restored path = %v", got)
	}
	if _, err := restarted.Relocate(ctx, grid.Point{Lat: 2, Lng: 2}); err != nil {
		t.Fatalf("relocate: %v", err)
	}
	if len(restarted.Path()) != 3 {
		t.Fatal("restored session must start a new polyline")
	}
}
