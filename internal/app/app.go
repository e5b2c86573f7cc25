// Package app wires the engine together: persistence driver, item store,
// landmark generator, snapshot import/export, and the optional snapshot file
// watcher.
package app

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/rs/zerolog"

	"github.com/msstter/Infinite-canvas/internal/camera"
	"github.com/msstter/Infinite-canvas/internal/domain"
	"github.com/msstter/Infinite-canvas/internal/landmark"
	"github.com/msstter/Infinite-canvas/internal/render"
	"github.com/msstter/Infinite-canvas/internal/storage"
	"github.com/msstter/Infinite-canvas/internal/store"
)

// Config selects the persistence backend and background pattern.
type Config struct {
	Driver string // storage.Driver* constants
	DSN    string // file path for sqlite, connection string otherwise

	// SnapshotPath, when set, is watched for external rewrites and
	// re-imported automatically.
	SnapshotPath string

	Landmarks landmark.Config
	Logger    zerolog.Logger
}

// App owns one canvas: a store over the configured backend plus its
// landmark generator. Viewports and render loops are created per surface.
type App struct {
	log     zerolog.Logger
	records domain.RecordStore
	canvas  *store.Store
	gen     *landmark.Generator
	watcher *snapshotWatcher
}

// New opens the persistence backend and builds the canvas. Call Startup to
// load persisted items before rendering.
func New(cfg Config) (*App, error) {
	if cfg.Driver == "" {
		cfg.Driver = storage.DriverMemory
	}
	if cfg.Landmarks.RootCount == 0 {
		cfg.Landmarks = landmark.DefaultConfig()
	}
	records, err := storage.Open(cfg.Driver, cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("open storage: %w", err)
	}
	a := &App{
		log:     cfg.Logger,
		records: records,
		canvas:  store.New(records, cfg.Logger),
		gen:     landmark.New(cfg.Landmarks, cfg.Logger),
	}
	if cfg.SnapshotPath != "" {
		a.watcher = newSnapshotWatcher(a, cfg.SnapshotPath, cfg.Logger)
	}
	return a, nil
}

// Startup loads persisted items and starts the snapshot watcher.
func (a *App) Startup(ctx context.Context) error {
	if err := a.canvas.Init(ctx); err != nil {
		return err
	}
	if a.watcher != nil {
		if err := a.watcher.Start(); err != nil {
			// The watcher is a convenience; the canvas works without it.
			a.log.Warn().Err(err).Msg("snapshot watcher unavailable")
			a.watcher = nil
		}
	}
	return nil
}

// Shutdown stops the watcher and closes the backend.
func (a *App) Shutdown() {
	if a.watcher != nil {
		a.watcher.Stop()
	}
	if c, ok := a.records.(io.Closer); ok {
		if err := c.Close(); err != nil {
			a.log.Warn().Err(err).Msg("closing record store")
		}
	}
}

// Canvas returns the item store.
func (a *App) Canvas() *store.Store { return a.canvas }

// Landmarks returns the background generator.
func (a *App) Landmarks() *landmark.Generator { return a.gen }

// NewSurface creates a viewport and render loop for a surface of the given
// pixel size.
func (a *App) NewSurface(width, height float64, surface render.Surface) (*camera.Viewport, *render.Loop) {
	view := camera.NewViewport(width, height)
	return view, render.NewLoop(view, a.canvas, a.gen, surface, a.log)
}

// ImportSnapshotFile reads and imports a snapshot. Validation failures come
// back as *domain.SnapshotError with no state touched.
func (a *App) ImportSnapshotFile(ctx context.Context, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read snapshot: %w", err)
	}
	var snap domain.Snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return &domain.SnapshotError{Reason: err.Error()}
	}
	return a.canvas.LoadSnapshot(ctx, snap)
}

// ExportSnapshotFile writes all items to a snapshot file.
func (a *App) ExportSnapshotFile(path string) error {
	snap, err := a.canvas.ExportSnapshot()
	if err != nil {
		return err
	}
	data, err := json.MarshalIndent(snap, "", "  ")
	if err != nil {
		return fmt.Errorf("encode snapshot: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("write snapshot: %w", err)
	}
	return nil
}
