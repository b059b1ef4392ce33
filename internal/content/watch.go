package content

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"

	"github.com/cory-johannsen/quizboss/internal/game/question"
	"github.com/cory-johannsen/quizboss/internal/scripting"
)

// DefaultDebounce is how long the watcher waits for a burst of file events to
// settle before reloading.
const DefaultDebounce = 250 * time.Millisecond

// WatchOptions configures a Watcher. Either side may be left empty.
type WatchOptions struct {
	// PacksDir is reloaded into Catalog on change.
	PacksDir string
	Catalog  *Catalog
	// ScriptsDir and its encounter subdirectories are reloaded into Scripts on change.
	ScriptsDir string
	Scripts    *scripting.Manager
	Debounce   time.Duration
	Logger     *zap.Logger
}

// Watcher reloads packs and scripts when their files change. Reloads affect
// only sessions started afterwards.
type Watcher struct {
	opts    WatchOptions
	watcher *fsnotify.Watcher
	// Reloaded receives one value per completed reload attempt. It never blocks the watcher.
	Reloaded chan error
}

// NewWatcher starts watching the configured directories.
//
// Precondition: opts.Logger must be non-nil.
// Postcondition: Returns a Watcher whose Run must be called to process
// events, or an error if a directory cannot be watched.
func NewWatcher(opts WatchOptions) (*Watcher, error) {
	if opts.Logger == nil {
		panic("content.NewWatcher: logger must not be nil")
	}
	if opts.Debounce <= 0 {
		opts.Debounce = DefaultDebounce
	}
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("creating watcher: %w", err)
	}
	w := &Watcher{opts: opts, watcher: fw, Reloaded: make(chan error, 4)}

	if opts.PacksDir != "" && opts.Catalog != nil {
		if err := fw.Add(opts.PacksDir); err != nil {
			_ = fw.Close()
			return nil, fmt.Errorf("watching %q: %w", opts.PacksDir, err)
		}
	}
	if opts.ScriptsDir != "" && opts.Scripts != nil {
		if err := w.addTree(opts.ScriptsDir); err != nil {
			_ = fw.Close()
			return nil, err
		}
	}
	return w, nil
}

// addTree watches dir and its immediate subdirectories.
func (w *Watcher) addTree(dir string) error {
	if err := w.watcher.Add(dir); err != nil {
		return fmt.Errorf("watching %q: %w", dir, err)
	}
	entries, err := os.ReadDir(dir)
	if err != nil {
		return fmt.Errorf("reading %q: %w", dir, err)
	}
	for _, e := range entries {
		if !e.IsDir() {
			continue
		}
		sub := filepath.Join(dir, e.Name())
		if err := w.watcher.Add(sub); err != nil {
			return fmt.Errorf("watching %q: %w", sub, err)
		}
	}
	return nil
}

// Run processes file events until ctx is cancelled, then closes the
// underlying watcher.
//
// Postcondition: Returns nil on cancellation.
func (w *Watcher) Run(ctx context.Context) error {
	defer w.watcher.Close()

	var (
		timer        *time.Timer
		fire         <-chan time.Time
		packsDirty   bool
		scriptsDirty bool
	)
	for {
		select {
		case <-ctx.Done():
			if timer != nil {
				timer.Stop()
			}
			return nil
		case ev, ok := <-w.watcher.Events:
			if !ok {
				return nil
			}
			p, s := w.classify(ev)
			if !p && !s {
				continue
			}
			packsDirty = packsDirty || p
			scriptsDirty = scriptsDirty || s
			if timer == nil {
				timer = time.NewTimer(w.opts.Debounce)
			} else {
				timer.Reset(w.opts.Debounce)
			}
			fire = timer.C
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return nil
			}
			w.opts.Logger.Warn("content watcher error", zap.Error(err))
		case <-fire:
			fire = nil
			err := w.reload(ctx, packsDirty, scriptsDirty)
			packsDirty, scriptsDirty = false, false
			select {
			case w.Reloaded <- err:
			default:
			}
		}
	}
}

// classify reports whether ev touches packs, scripts or neither.
func (w *Watcher) classify(ev fsnotify.Event) (packs, scripts bool) {
	if !ev.Op.Has(fsnotify.Write) && !ev.Op.Has(fsnotify.Create) &&
		!ev.Op.Has(fsnotify.Remove) && !ev.Op.Has(fsnotify.Rename) {
		return false, false
	}
	dir := filepath.Dir(ev.Name)
	if w.opts.Scripts != nil && w.opts.ScriptsDir != "" && within(w.opts.ScriptsDir, dir) {
		if ev.Op.Has(fsnotify.Create) {
			if info, err := os.Stat(ev.Name); err == nil && info.IsDir() {
				if err := w.watcher.Add(ev.Name); err != nil {
					w.opts.Logger.Warn("watching new script dir", zap.String("dir", ev.Name), zap.Error(err))
				}
				return false, true
			}
		}
		if isScriptFile(ev.Name) {
			return false, true
		}
	}
	if w.opts.Catalog != nil && w.opts.PacksDir != "" && filepath.Clean(dir) == filepath.Clean(w.opts.PacksDir) {
		if question.IsPackFile(ev.Name) {
			return true, false
		}
	}
	return false, false
}

func (w *Watcher) reload(ctx context.Context, packs, scripts bool) error {
	log := w.opts.Logger
	if packs {
		if err := w.opts.Catalog.Reload(ctx); err != nil {
			log.Warn("pack reload failed, keeping previous packs", zap.Error(err))
			return err
		}
	}
	if scripts {
		if err := w.opts.Scripts.LoadDir(w.opts.ScriptsDir); err != nil {
			log.Warn("script reload failed, keeping previous scripts", zap.Error(err))
			return err
		}
	}
	return nil
}

func within(root, dir string) bool {
	rel, err := filepath.Rel(root, dir)
	return err == nil && rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator))
}

func isScriptFile(path string) bool {
	return strings.EqualFold(filepath.Ext(path), ".lua")
}
