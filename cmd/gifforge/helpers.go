package main

import (
	"os"

	"github.com/mattn/go-isatty"

	"github.com/calibancode/gifforge/config"
	"github.com/calibancode/gifforge/internal/adapter/cache/jsonfile"
	"github.com/calibancode/gifforge/internal/adapter/probe/ffprobe"
	"github.com/calibancode/gifforge/internal/adapter/runner"
	sqlitestore "github.com/calibancode/gifforge/internal/adapter/storage/sqlite"
	"github.com/calibancode/gifforge/internal/infrastructure/logger"
	"github.com/calibancode/gifforge/internal/port"
	"github.com/calibancode/gifforge/internal/service"
)

// serviceStack wires the adapters behind one conversion service.
type serviceStack struct {
	svc *service.ConversionService
	bus *service.EventBus
}

// newServiceStack assembles the prober, runner, history store, and event bus
// for a command. The returned cleanup closes the store.
func newServiceStack(cfg *config.Config) (*serviceStack, func(), error) {
	if err := cfg.EnsureDataDir(); err != nil {
		return nil, nil, err
	}

	var probeCache port.ProbeCache
	if cache, err := jsonfile.New(cfg.DataDir); err != nil {
		// A broken probe cache costs an extra ffprobe run, nothing more.
		logger.Warn.Printf("probe cache unavailable: %v", err)
	} else {
		probeCache = cache
	}

	store, err := sqlitestore.NewStore(cfg.DataDir)
	if err != nil {
		return nil, nil, err
	}

	prober := ffprobe.New(cfg.FFprobePath, probeCache)
	bus := service.NewEventBus()
	svc := service.NewConversionService(prober, runner.New(), store, bus, cfg.Tools(), cfg.DataDir)

	cleanup := func() { _ = store.Close() }
	return &serviceStack{svc: svc, bus: bus}, cleanup, nil
}

// isTerminal reports whether the file is attached to a terminal.
func isTerminal(file *os.File) bool {
	if file == nil {
		return false
	}
	fd := file.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}
