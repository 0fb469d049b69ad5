package world

import (
	"context"
	"errors"
	"math/rand/v2"
	"testing"

	"github.com/Conwinds/geocoin/internal/coin"
	"github.com/Conwinds/geocoin/internal/grid"
	"github.com/Conwinds/geocoin/internal/storage/memory"
)

func TestRunAppliesEventsInOrder(t *testing.T) {
	ctx := context.Background()
	w := newWorld(t, memory.New(), 2, 1)

	events := make(chan Event, 4)
	events <- PositionEvent{Point: grid.Point{}}
	events <- MoveEvent{Direction: North}
	events <- TransferEvent{Coin: coin.Coin{I: 7, J: 7}, From: Player(), To: CacheAt(w.Index().Intern(0, 0))}
	close(events)

	var outcomes []Outcome
	if err := w.Run(ctx, events, func(o Outcome) { outcomes = append(outcomes, o) }); err != nil {
		t.Fatalf("run: %v", err)
	}
	if len(outcomes) != 3 {
		t.Fatalf("outcomes = %d, want 3", len(outcomes))
	}
	if outcomes[0].Err != nil || len(outcomes[0].Delta.Entered) != 16 {
		t.Fatalf("position outcome = %+v", outcomes[0])
	}
	if outcomes[1].Err != nil || len(outcomes[1].Delta.Entered) != 4 {
		t.Fatalf("move outcome = %+v", outcomes[1])
	}
	if !errors.Is(outcomes[2].Err, ErrCoinNotInContainer) || outcomes[2].Transfer != nil {
		t.Fatalf("transfer outcome = %+v", outcomes[2])
	}
	if _, ok := outcomes[2].Event.(TransferEvent); !ok {
		t.Fatalf("outcome event = %T", outcomes[2].Event)
	}
}

func TestRunStopsOnCancel(t *testing.T) {
	w := newWorld(t, memory.New(), 2, 1)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	events := make(chan Event)
	if err := w.Run(ctx, events, nil); !errors.Is(err, context.Canceled) {
		t.Fatalf("err = %v, want context.Canceled", err)
	}
}

func TestApplyNilEvent(t *testing.T) {
	w := newWorld(t, memory.New(), 2, 1)
	if out := w.Apply(context.Background(), nil); out.Err == nil {
		t.Fatal("expected error for nil event")
	}
}

// countCoins returns every coin's container count and the grand total.
func countCoins(t *testing.T, w *World, cells []grid.CellID) (map[coin.Coin]int, int) {
	t.Helper()
	seen := make(map[coin.Coin]int)
	total := 0
	for _, k := range w.Inventory() {
		seen[k]++
		total++
	}
	for _, id := range cells {
		c, ok := w.Caches().Lookup(id)
		if !ok {
			t.Fatalf("cache %s vanished", w.Index().Key(id))
		}
		for _, k := range c.Coins() {
			seen[k]++
			total++
		}
	}
	return seen, total
}

func TestTransfersConserveCoins(t *testing.T) {
	ctx := context.Background()
	w := newWorld(t, memory.New(), 2, 1)
	if _, err := w.Relocate(ctx, grid.Point{}); err != nil {
		t.Fatalf("relocate: %v", err)
	}
	cells := w.Visible()
	_, generated := countCoins(t, w, cells)

	rng := rand.New(rand.NewPCG(121, 2024))
	for step := 0; step < 500; step++ {
		id := cells[rng.IntN(len(cells))]
		c, _ := w.Caches().Lookup(id)
		inv := w.Inventory()

		switch {
		case rng.IntN(10) == 0:
			// A coin that is in neither the cache nor the inventory.
			ghost := coin.Coin{I: 1000, J: 1000, Serial: step}
			if _, err := w.Collect(ctx, id, ghost); !errors.Is(err, ErrCoinNotInContainer) {
				t.Fatalf("step %d: ghost collect err = %v", step, err)
			}
		case len(inv) > 0 && (c.Len() == 0 || rng.IntN(2) == 0):
			k := inv[rng.IntN(len(inv))]
			if _, err := w.Deposit(ctx, id, k); err != nil {
				t.Fatalf("step %d: deposit: %v", step, err)
			}
		case c.Len() > 0:
			coins := c.Coins()
			k := coins[rng.IntN(len(coins))]
			if _, err := w.Collect(ctx, id, k); err != nil {
				t.Fatalf("step %d: collect: %v", step, err)
			}
		}

		seen, total := countCoins(t, w, cells)
		if total != generated {
			t.Fatalf("step %d: total %d, want %d", step, total, generated)
		}
		for k, n := range seen {
			if n != 1 {
				t.Fatalf("step %d: coin %s appears in %d containers", step, k, n)
			}
		}
	}
}

func TestFuncEventRunsOnLoop(t *testing.T) {
	w := newWorld(t, memory.New(), 2, 1)
	events := make(chan Event, 2)
	called := false
	events <- Func(func(ctx context.Context, got *World) error {
		called = got == w
		return nil
	})
	boom := errors.New("boom")
	events <- Func(func(context.Context, *World) error { return boom })
	close(events)

	var errs []error
	if err := w.Run(context.Background(), events, func(o Outcome) { errs = append(errs, o.Err) }); err != nil {
		t.Fatalf("run: %v", err)
	}
	if !called {
		t.Fatal("func did not receive the world")
	}
	if len(errs) != 2 || errs[0] != nil || !errors.Is(errs[1], boom) {
		t.Fatalf("errs = %v", errs)
	}
}
