// cmd/geocoin/main.go
// Purpose: process entrypoint. Parse config, open storage, build the world,
// place the player, then serve line commands and sensor input on one loop.

package main

import (
	"bufio"
	"context"
	"errors"
	"io"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/Conwinds/geocoin/internal/grid"
	"github.com/Conwinds/geocoin/internal/platform/config"
	"github.com/Conwinds/geocoin/internal/platform/otel"
	"github.com/Conwinds/geocoin/internal/storage"
	"github.com/Conwinds/geocoin/internal/storage/memory"
	"github.com/Conwinds/geocoin/internal/storage/sqlite"
	"github.com/Conwinds/geocoin/internal/world"
)

const serviceName = "geocoin"

// --- main ---

func main() {
	cfg, err := config.LoadGame()
	if err != nil {
		config.Exitf("geocoin: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, os.Stdin, os.Stdout); err != nil {
		config.Exitf("geocoin: %v", err)
	}
}

func run(ctx context.Context, cfg config.Game, in io.Reader, out io.Writer) error {
	logger := newLogger(cfg.LogLevel)
	slog.SetDefault(logger)

	shutdown, err := otel.Setup(ctx, serviceName)
	if err != nil {
		return err
	}
	defer func() {
		if err := shutdown(context.Background()); err != nil {
			log.Printf("%s otel shutdown: %v", serviceName, err)
		}
	}()

	kv, closeStore, err := openStore(ctx, cfg.DBPath)
	if err != nil {
		return err
	}
	defer closeStore()

	w, err := world.New(ctx, world.Options{
		TileWidth:        cfg.TileWidth,
		Radius:           cfg.Radius,
		SpawnProbability: cfg.SpawnProbability,
		Logger:           logger,
	}, kv)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	events := make(chan world.Event)
	s := newSession(out, w, events, cancel)

	// Place the player before any input goroutine starts.
	start := grid.Point{Lat: cfg.OriginLat, Lng: cfg.OriginLng}
	s.observe(w.Apply(ctx, world.PositionEvent{Point: start}))
	s.printHelp()

	go readLines(ctx, in, events, s, cancel)
	err = w.Run(ctx, events, s.observe)
	s.stopSensor()
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

// --- Private helpers ---

func openStore(ctx context.Context, path string) (storage.Store, func(), error) {
	if path == "" {
		return memory.New(), func() {}, nil
	}
	store, err := sqlite.Open(ctx, path)
	if err != nil {
		return nil, nil, err
	}
	return store, func() {
		if err := store.Close(); err != nil {
			log.Printf("%s close store: %v", serviceName, err)
		}
	}, nil
}

// readLines turns each input line into a loop event. EOF ends the session.
func readLines(ctx context.Context, in io.Reader, events chan<- world.Event, s *session, cancel context.CancelFunc) {
	defer cancel()
	scanner := bufio.NewScanner(in)
	for scanner.Scan() {
		line := scanner.Text()
		ev := world.Func(func(ctx context.Context, w *world.World) error {
			return s.exec(ctx, w, line)
		})
		select {
		case events <- ev:
		case <-ctx.Done():
			return
		}
	}
}

func newLogger(level string) *slog.Logger {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(level)); err != nil {
		lvl = slog.LevelInfo
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: lvl}))
}
