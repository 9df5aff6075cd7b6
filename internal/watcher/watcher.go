// Package watcher feeds filesystem changes of tenant source documents into
// the render pipeline. It is one of several change sources; debouncing and
// coalescing happen downstream in the scheduler, so this package only maps
// raw events to tenant notifications.
package watcher

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/fsnotify/fsnotify"
	"github.com/rs/zerolog"

	"screend/internal/registry"
	"screend/pkg/types"
)

// Notifier is the downstream sink for change notifications.
type Notifier interface {
	Notify(tenant string) error
}

// Watcher observes every tenant directory for changes to the active source
// document.
type Watcher struct {
	log      zerolog.Logger
	notifier Notifier
	fw       *fsnotify.Watcher
	dirs     map[string]string // tenant dir -> tenant id
}

// New sets up watches on each tenant's directory. Call Run to start
// dispatching.
func New(log zerolog.Logger, notifier Notifier, tenants []types.Tenant) (*Watcher, error) {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("fsnotify: %w", err)
	}
	w := &Watcher{log: log, notifier: notifier, fw: fw, dirs: make(map[string]string, len(tenants))}
	for _, tn := range tenants {
		if err := fw.Add(tn.Dir); err != nil {
			_ = fw.Close()
			return nil, fmt.Errorf("watch %s: %w", tn.Dir, err)
		}
		w.dirs[tn.Dir] = tn.ID
	}
	return w, nil
}

// Run dispatches events until ctx is canceled, then closes the watcher.
func (w *Watcher) Run(ctx context.Context) error {
	defer w.fw.Close()
	for {
		select {
		case ev, ok := <-w.fw.Events:
			if !ok {
				return nil
			}
			w.handle(ev)
		case err, ok := <-w.fw.Errors:
			if !ok {
				return nil
			}
			w.log.Warn().Err(err).Msg("watch error")
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

func (w *Watcher) handle(ev fsnotify.Event) {
	if filepath.Base(ev.Name) != registry.SourceName {
		return
	}
	tenant, ok := w.dirs[filepath.Dir(ev.Name)]
	if !ok {
		return
	}
	switch {
	case ev.Op.Has(fsnotify.Create) || ev.Op.Has(fsnotify.Write) || ev.Op.Has(fsnotify.Rename):
		w.log.Debug().Str("tenant", tenant).Str("op", ev.Op.String()).Msg("source changed")
		if err := w.notifier.Notify(tenant); err != nil {
			w.log.Warn().Err(err).Str("tenant", tenant).Msg("notify failed")
		}
	case ev.Op.Has(fsnotify.Remove):
		// nothing to render; the live artifact stays on screen
		w.log.Info().Str("tenant", tenant).Msg("source removed")
	}
}
