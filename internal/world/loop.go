// internal/world/loop.go
// Purpose: serialize external inputs. Position updates and transfer requests
// may originate on other goroutines; Run applies them one at a time, each to
// completion, so the core itself needs no locks.

package world

import (
	"context"
	"fmt"

	"github.com/Conwinds/geocoin/internal/coin"
	"github.com/Conwinds/geocoin/internal/grid"
)

// --- Types ---

// Event is one discrete input to the world.
type Event interface {
	apply(ctx context.Context, w *World) Outcome
}

// PositionEvent relocates the player (sensor or navigation input).
type PositionEvent struct {
	Point grid.Point
}

// MoveEvent steps the player one tile.
type MoveEvent struct {
	Direction Direction
}

// TransferEvent requests a coin transfer.
type TransferEvent struct {
	Coin     coin.Coin
	From, To Endpoint
}

// Func runs a presentation-layer request on the loop, so reads and writes
// issued from other goroutines see a consistent world.
type Func func(ctx context.Context, w *World) error

// Outcome is the result of applying one Event.
type Outcome struct {
	Event    Event
	Delta    *ViewportDelta
	Transfer *TransferResult
	Err      error
}

// --- Public methods ---

// Apply runs a single event to completion.
func (w *World) Apply(ctx context.Context, ev Event) Outcome {
	if ev == nil {
		return Outcome{Err: fmt.Errorf("world: nil event")}
	}
	out := ev.apply(ctx, w)
	out.Event = ev
	return out
}

// Run consumes events until the channel closes (returns nil) or ctx is
// cancelled (returns ctx.Err()). handle, if set, observes every outcome
// before the next event is taken.
func (w *World) Run(ctx context.Context, events <-chan Event, handle func(Outcome)) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case ev, ok := <-events:
			if !ok {
				return nil
			}
			out := w.Apply(ctx, ev)
			if out.Err != nil {
				w.logger.Debug("event failed", "event", fmt.Sprintf("%T", ev), "error", out.Err)
			}
			if handle != nil {
				handle(out)
			}
		}
	}
}

// --- Private helpers ---

func (e PositionEvent) apply(ctx context.Context, w *World) Outcome {
	d, err := w.Relocate(ctx, e.Point)
	return Outcome{Delta: &d, Err: err}
}

func (e MoveEvent) apply(ctx context.Context, w *World) Outcome {
	d, err := w.Move(ctx, e.Direction)
	return Outcome{Delta: &d, Err: err}
}

func (f Func) apply(ctx context.Context, w *World) Outcome {
	return Outcome{Err: f(ctx, w)}
}

func (e TransferEvent) apply(ctx context.Context, w *World) Outcome {
	r, err := w.Transfer(ctx, e.Coin, e.From, e.To)
	if err != nil {
		return Outcome{Err: err}
	}
	return Outcome{Transfer: &r}
}
