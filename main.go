package main

import (
	"context"
	"flag"
	"os"
	"time"

	"github.com/rs/zerolog"

	canvasApp "github.com/msstter/Infinite-canvas/internal/app"
	"github.com/msstter/Infinite-canvas/internal/domain"
	"github.com/msstter/Infinite-canvas/internal/landmark"
	"github.com/msstter/Infinite-canvas/internal/render"
	"github.com/msstter/Infinite-canvas/internal/storage"
)

func main() {
	var (
		driver   = flag.String("driver", storage.DriverSQLite, "persistence driver: memory, sqlite, postgres, mysql, mongo")
		dsn      = flag.String("dsn", "canvas.db", "file path (sqlite) or connection string")
		snapshot = flag.String("snapshot", "", "snapshot file to watch for external changes")
		out      = flag.String("out", "frame.png", "output PNG for the rendered frame")
		width    = flag.Int("width", 1280, "frame width in pixels")
		height   = flag.Int("height", 800, "frame height in pixels")
		seed     = flag.Int64("seed", 1, "landmark pattern seed")
		debug    = flag.Bool("debug", false, "verbose logging")
	)
	flag.Parse()

	log := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen}).
		With().Timestamp().Logger()
	if !*debug {
		log = log.Level(zerolog.InfoLevel)
	}

	lm := landmark.DefaultConfig()
	lm.Seed = *seed

	a, err := canvasApp.New(canvasApp.Config{
		Driver:       *driver,
		DSN:          *dsn,
		SnapshotPath: *snapshot,
		Landmarks:    lm,
		Logger:       log,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("open canvas")
	}
	defer a.Shutdown()

	ctx := context.Background()
	if err := a.Startup(ctx); err != nil {
		log.Fatal().Err(err).Msg("startup")
	}

	canvas := a.Canvas()
	if canvas.Len() == 0 {
		seedDemoContent(a, log)
	}

	surface, err := render.NewImageSurface(*width, *height)
	if err != nil {
		log.Fatal().Err(err).Msg("create surface")
	}
	view, loop := a.NewSurface(float64(*width), float64(*height), surface)
	defer loop.Close()

	// Center the world origin and back the camera off far enough to see the
	// demo content and a few landmasses.
	view.SetPan(float64(*width)/2, float64(*height)/2)
	for i := 0; i < 40; i++ {
		view.HandleWheel(float64(*width)/2, float64(*height)/2, 1)
	}
	loop.RenderFrame()

	if err := surface.SavePNG(*out); err != nil {
		log.Fatal().Err(err).Msg("save frame")
	}
	st := a.Landmarks().Stats()
	log.Info().Str("out", *out).Int("items", canvas.Len()).
		Int("cachedNodes", st.CachedNodes).Uint64("generated", st.Generated).
		Msg("frame rendered")
}

func seedDemoContent(a *canvasApp.App, log zerolog.Logger) {
	canvas := a.Canvas()
	if _, err := canvas.AddStroke([]domain.Point{
		{X: -120, Y: 0}, {X: -40, Y: -90}, {X: 40, Y: 60}, {X: 140, Y: -30},
	}, 4, "#d4a24e"); err != nil {
		log.Warn().Err(err).Msg("seed stroke")
	}
	if _, err := canvas.AddTextCard(
		domain.BoundingBox{X: 180, Y: -140, Width: 260, Height: 120},
		domain.ZoomState{Mantissa: 1, Exponent: 0},
		"Welcome", "pan with drag, zoom with the wheel",
		260, 120,
	); err != nil {
		log.Warn().Err(err).Msg("seed card")
	}
}
