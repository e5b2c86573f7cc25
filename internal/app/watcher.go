package app

import (
	"context"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/rs/zerolog"
)

// snapshotWatcher re-imports the snapshot file when an external process
// rewrites it, so a running canvas picks up edits made elsewhere. Events are
// debounced because editors and exporters write in bursts.
type snapshotWatcher struct {
	app    *App
	path   string
	log    zerolog.Logger
	fw     *fsnotify.Watcher
	stopCh chan struct{}
}

const snapshotDebounce = 250 * time.Millisecond

func newSnapshotWatcher(app *App, path string, log zerolog.Logger) *snapshotWatcher {
	return &snapshotWatcher{app: app, path: path, log: log}
}

// Start begins watching. Watching the directory rather than the file keeps
// the watch alive across rename-over-write saves.
func (w *snapshotWatcher) Start() error {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	if err := fw.Add(filepath.Dir(w.path)); err != nil {
		fw.Close()
		return err
	}
	w.fw = fw
	w.stopCh = make(chan struct{})
	go w.loop()
	return nil
}

// Stop terminates the watch loop.
func (w *snapshotWatcher) Stop() {
	if w.stopCh != nil {
		close(w.stopCh)
	}
}

func (w *snapshotWatcher) loop() {
	defer w.fw.Close()
	var timer *time.Timer
	var fire <-chan time.Time
	for {
		select {
		case ev, ok := <-w.fw.Events:
			if !ok {
				return
			}
			if filepath.Clean(ev.Name) != filepath.Clean(w.path) {
				continue
			}
			if !ev.Has(fsnotify.Write) && !ev.Has(fsnotify.Create) {
				continue
			}
			if timer == nil {
				timer = time.NewTimer(snapshotDebounce)
			} else {
				timer.Reset(snapshotDebounce)
			}
			fire = timer.C
		case <-fire:
			fire = nil
			w.reimport()
		case err, ok := <-w.fw.Errors:
			if !ok {
				return
			}
			w.log.Warn().Err(err).Msg("snapshot watcher error")
		case <-w.stopCh:
			return
		}
	}
}

func (w *snapshotWatcher) reimport() {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := w.app.ImportSnapshotFile(ctx, w.path); err != nil {
		w.log.Warn().Err(err).Str("path", w.path).Msg("snapshot re-import failed")
		return
	}
	w.log.Info().Str("path", w.path).Msg("snapshot re-imported")
}
