// cmd/geocoin/session.go
// Purpose: line-command presentation. Parses input, drives the world through
// its public operations, prints results, and owns the simulated sensor feed.

package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/Conwinds/geocoin/internal/cache"
	"github.com/Conwinds/geocoin/internal/coin"
	"github.com/Conwinds/geocoin/internal/command"
	"github.com/Conwinds/geocoin/internal/grid"
	"github.com/Conwinds/geocoin/internal/mathx"
	"github.com/Conwinds/geocoin/internal/world"
)

const (
	sensorInterval = time.Second
	// listLimit caps how many coins a single listing prints.
	listLimit = 12
)

var errNoOpenCache = errors.New("no cache is open; use open <i,j> first")

// session is the text presentation layer. Every method runs on the world
// loop except startSensor's goroutine, which only sends events.
type session struct {
	out    io.Writer
	w      *world.World
	reg    *command.Registry
	events chan<- world.Event
	quit   context.CancelFunc

	open    grid.CellID
	hasOpen bool

	sensorStop context.CancelFunc
	interval   time.Duration
}

func newSession(out io.Writer, w *world.World, events chan<- world.Event, quit context.CancelFunc) *session {
	return &session{
		out:      out,
		w:        w,
		reg:      command.DefaultRegistry(),
		events:   events,
		quit:     quit,
		interval: sensorInterval,
	}
}

// observe prints loop outcomes that no command printed itself.
func (s *session) observe(o world.Outcome) {
	if o.Err != nil {
		fmt.Fprintf(s.out, "error: %v\n", o.Err)
		return
	}
	if _, ok := o.Event.(world.PositionEvent); ok && o.Delta != nil {
		s.printDelta(*o.Delta)
	}
}

func (s *session) exec(ctx context.Context, w *world.World, line string) error {
	cmd, err := s.reg.Parse(line)
	if errors.Is(err, command.ErrEmpty) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("%w (try help)", err)
	}
	if cmd.Corrected {
		fmt.Fprintf(s.out, "(%s)\n", cmd.Verb)
	}

	switch cmd.Verb {
	case command.North, command.South, command.East, command.West:
		d, err := w.Move(ctx, direction(cmd.Verb))
		if err != nil {
			return err
		}
		s.printDelta(d)
	case command.Goto:
		p, err := parsePoint(cmd.Args)
		if err != nil {
			return err
		}
		d, err := w.Relocate(ctx, p)
		if err != nil {
			return err
		}
		s.printDelta(d)
	case command.Look:
		s.printView(w)
	case command.Open:
		return s.openCache(ctx, w, cmd.Args)
	case command.Close:
		return s.closeCache(ctx, w)
	case command.Collect, command.Deposit:
		return s.move(ctx, w, cmd)
	case command.Inventory:
		s.printCoins("inventory", w.Inventory())
	case command.Home:
		if len(cmd.Args) != 1 {
			return errors.New("usage: home <i:j#serial>")
		}
		k, err := coin.Parse(cmd.Args[0])
		if err != nil {
			return err
		}
		p := w.CoinHome(k)
		fmt.Fprintf(s.out, "%s was minted at cell %d,%d (center %.6f, %.6f)\n", k, k.I, k.J, p.Lat, p.Lng)
	case command.Path:
		s.printPath(w)
	case command.Sensor:
		return s.toggleSensor(w, cmd.Args)
	case command.Reset:
		if s.hasOpen {
			if err := s.closeCache(ctx, w); err != nil {
				return err
			}
		}
		n, err := w.Reset(ctx)
		if err != nil {
			return err
		}
		fmt.Fprintf(s.out, "returned %d coins to their caches\n", n)
	case command.Help:
		s.printHelp()
	case command.Quit:
		s.quit()
	}
	return nil
}

func (s *session) openCache(ctx context.Context, w *world.World, args []string) error {
	if len(args) != 1 {
		return errors.New("usage: open <i,j>")
	}
	i, j, err := parseCell(args[0])
	if err != nil {
		return err
	}
	id, ok := w.Index().Lookup(i, j)
	if !ok || !w.IsVisible(id) {
		return fmt.Errorf("no visible cache at %d,%d", i, j)
	}
	if s.hasOpen {
		if err := s.closeCache(ctx, w); err != nil {
			return err
		}
	}
	c, err := w.BeginInteraction(id)
	if err != nil {
		return err
	}
	s.open, s.hasOpen = id, true
	s.printCoins("cache "+c.Key, c.Coins())
	return nil
}

func (s *session) closeCache(ctx context.Context, w *world.World) error {
	if !s.hasOpen {
		return errNoOpenCache
	}
	d, err := w.EndInteraction(ctx, s.open)
	s.hasOpen = false
	if err != nil {
		return err
	}
	if len(d.Entered)+len(d.Left) > 0 {
		s.printDelta(d)
	}
	return nil
}

func (s *session) move(ctx context.Context, w *world.World, cmd command.Command) error {
	if !s.hasOpen {
		return errNoOpenCache
	}
	if len(cmd.Args) != 1 {
		return fmt.Errorf("usage: %s <i:j#serial>", cmd.Verb)
	}
	k, err := coin.Parse(cmd.Args[0])
	if err != nil {
		return err
	}
	var res world.TransferResult
	if cmd.Verb == command.Collect {
		res, err = w.Collect(ctx, s.open, k)
	} else {
		res, err = w.Deposit(ctx, s.open, k)
	}
	if err != nil {
		return err
	}
	fmt.Fprintf(s.out, "%s: %s -> %s (%d left, %d there)\n",
		k, w.EndpointName(res.From), w.EndpointName(res.To), res.FromLen, res.ToLen)
	return nil
}

func (s *session) toggleSensor(w *world.World, args []string) error {
	on := len(args) == 0 || args[0] == "on"
	if len(args) > 0 && args[0] != "on" && args[0] != "off" {
		return errors.New("usage: sensor on|off")
	}
	if !on {
		if s.sensorStop == nil {
			return errors.New("sensor is already off")
		}
		s.stopSensor()
		w.BreakPath()
		fmt.Fprintln(s.out, "sensor off")
		return nil
	}
	if s.sensorStop != nil {
		return errors.New("sensor is already on")
	}
	w.BreakPath()
	s.startSensor(w.Index().TileWidth())
	fmt.Fprintln(s.out, "sensor on")
	return nil
}

// startSensor simulates a position feed: every reading drifts up to half a
// tile per axis from wherever the player is at that moment, so manual moves
// made while the sensor is on are kept. Readings run on the world loop.
func (s *session) startSensor(tileWidth float64) {
	ctx, cancel := context.WithCancel(context.Background())
	s.sensorStop = cancel
	go func() {
		ticker := time.NewTicker(s.interval)
		defer ticker.Stop()
		for n := 0; ; n++ {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
			}
			select {
			case s.events <- s.reading(n, tileWidth):
			case <-ctx.Done():
				return
			}
		}
	}()
}

func (s *session) reading(n int, tileWidth float64) world.Event {
	return world.Func(func(ctx context.Context, w *world.World) error {
		p, _, ok := w.Position()
		if !ok {
			return nil
		}
		p.Lat += (mathx.Luck("sensor,lat,"+strconv.Itoa(n)) - 0.5) * tileWidth
		p.Lng += (mathx.Luck("sensor,lng,"+strconv.Itoa(n)) - 0.5) * tileWidth
		d, err := w.Relocate(ctx, p)
		if err != nil {
			return err
		}
		s.printDelta(d)
		return nil
	})
}

func (s *session) stopSensor() {
	if s.sensorStop != nil {
		s.sensorStop()
		s.sensorStop = nil
	}
}

// --- printing ---

func (s *session) printDelta(d world.ViewportDelta) {
	p, _, _ := s.w.Position()
	fmt.Fprintf(s.out, "at %.6f, %.6f (cell %s)", p.Lat, p.Lng, s.w.Index().Key(d.Cell))
	if d.Deferred {
		fmt.Fprintln(s.out, "; map frozen while a cache is open")
		return
	}
	fmt.Fprintf(s.out, "; %d caches in view (+%d -%d)\n", len(s.w.Visible()), len(d.Entered), len(d.Left))
}

func (s *session) printView(w *world.World) {
	p, cell, _ := w.Position()
	fmt.Fprintf(s.out, "you are at %.6f, %.6f in cell %s\n", p.Lat, p.Lng, w.Index().Key(cell))
	loaded, coins := 0, 0
	w.Caches().Each(func(c *cache.Cache) {
		loaded++
		coins += c.Len()
	})
	fmt.Fprintf(s.out, "view radius %d tiles, spawn chance %.0f%%, %d caches loaded holding %d coins\n",
		w.Radius(), w.Generator().SpawnProbability()*100, loaded, coins)
	for _, id := range w.Visible() {
		c, ok := w.Caches().Lookup(id)
		if !ok {
			continue
		}
		marker := " "
		if s.hasOpen && s.open == id {
			marker = "*"
		}
		b := w.Index().Bounds(id)
		fmt.Fprintf(s.out, "%s cache %-12s %3d coins  [%.4f,%.4f]-[%.4f,%.4f]\n",
			marker, c.Key, c.Len(), b.SW.Lat, b.SW.Lng, b.NE.Lat, b.NE.Lng)
	}
}

func (s *session) printCoins(title string, l coin.List) {
	fmt.Fprintf(s.out, "%s: %d coins\n", title, len(l))
	for n, k := range l {
		if n == listLimit {
			fmt.Fprintf(s.out, "  ... %d more\n", len(l)-listLimit)
			break
		}
		fmt.Fprintf(s.out, "  %s\n", k)
	}
}

func (s *session) printPath(w *world.World) {
	lines := w.Path()
	points := 0
	for _, l := range lines {
		points += len(l)
	}
	fmt.Fprintf(s.out, "path: %d segments, %d points\n", len(lines), points)
}

func (s *session) printHelp() {
	fmt.Fprintln(s.out, "commands:")
	for _, d := range s.reg.Defs() {
		fmt.Fprintf(s.out, "  %-22s %s\n", d.Usage, strings.Join(d.Aliases, " "))
	}
}

// --- parsing ---

func direction(v command.Verb) world.Direction {
	switch v {
	case command.South:
		return world.South
	case command.East:
		return world.East
	case command.West:
		return world.West
	default:
		return world.North
	}
}

func parsePoint(args []string) (grid.Point, error) {
	if len(args) != 2 {
		return grid.Point{}, errors.New("usage: goto <lat> <lng>")
	}
	lat, err := strconv.ParseFloat(args[0], 64)
	if err != nil {
		return grid.Point{}, fmt.Errorf("bad latitude %q", args[0])
	}
	lng, err := strconv.ParseFloat(args[1], 64)
	if err != nil {
		return grid.Point{}, fmt.Errorf("bad longitude %q", args[1])
	}
	return grid.Point{Lat: lat, Lng: lng}, nil
}

func parseCell(s string) (int, int, error) {
	is, js, ok := strings.Cut(s, ",")
	if !ok {
		return 0, 0, fmt.Errorf("bad cell %q, want i,j", s)
	}
	i, err := strconv.Atoi(is)
	if err != nil {
		return 0, 0, fmt.Errorf("bad cell %q, want i,j", s)
	}
	j, err := strconv.Atoi(js)
	if err != nil {
		return 0, 0, fmt.Errorf("bad cell %q, want i,j", s)
	}
	return i, j, nil
}
