// internal/world/path.go
// Purpose: path history. Every relocation appends a point; BreakPath starts
// a new polyline. The whole history is persisted on each change.

package world

import (
	"context"
	"fmt"

	"github.com/Conwinds/geocoin/internal/grid"
	"github.com/Conwinds/geocoin/internal/snapshot"
)

// --- Public methods ---

// Path returns a copy of the traveled polylines, oldest first.
func (w *World) Path() [][]grid.Point {
	out := make([][]grid.Point, len(w.path))
	for n, line := range w.path {
		out[n] = append([]grid.Point(nil), line...)
	}
	return out
}

// BreakPath makes the next recorded position start a new polyline, e.g. when
// switching between manual movement and the position sensor.
func (w *World) BreakPath() {
	w.breakPath = true
}

// --- Private helpers ---

// recordPosition appends p to the path history and persists it.
func (w *World) recordPosition(ctx context.Context, p grid.Point) error {
	next := w.Path()
	if w.breakPath || len(next) == 0 {
		next = append(next, []grid.Point{p})
	} else {
		last := len(next) - 1
		next[last] = append(next[last], p)
	}
	if err := w.writePath(ctx, next); err != nil {
		return err
	}
	w.path = next
	w.breakPath = false
	return nil
}

func (w *World) writePath(ctx context.Context, lines [][]grid.Point) error {
	raw, err := snapshot.EncodePath(lines)
	if err != nil {
		return fmt.Errorf("persist path: %w", err)
	}
	if err := w.kv.Set(ctx, snapshot.PathKey, raw); err != nil {
		return fmt.Errorf("persist path: %w", err)
	}
	return nil
}
