// Package watch nudges the reconciler when files change under a linked
// directory, so edits show up before the next scheduled tick.
//
// The watcher only shortens latency. The scheduled reconciliation tick stays
// the source of truth: events may be dropped or coalesced without losing
// changes.
package watch

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/custodia-labs/casesync/internal/core/ports/driven"
	"github.com/custodia-labs/casesync/internal/logger"
)

// DefaultDebounce is the quiet period after the last event before a nudge.
const DefaultDebounce = 2 * time.Second

// Target receives nudges. driving.Scheduler satisfies it.
type Target interface {
	Nudge()
}

// Nudger watches linked base directories with fsnotify.
type Nudger struct {
	fsw     *fsnotify.Watcher
	sources driven.LinkedSourceStore
	target  Target
	window  time.Duration

	mu     sync.Mutex
	roots  map[string]struct{}
	dirs   map[string]string // watched dir -> root it belongs to
	timer  *time.Timer
	closed bool

	nudges atomic.Int64
}

// Option configures a Nudger.
type Option func(*Nudger)

// WithDebounce sets the quiet period before a nudge is sent.
func WithDebounce(d time.Duration) Option {
	return func(n *Nudger) {
		if d > 0 {
			n.window = d
		}
	}
}

// New creates a Nudger. Call Refresh to pick up linked sources and Run to
// start delivering events.
func New(sources driven.LinkedSourceStore, target Target, opts ...Option) (*Nudger, error) {
	if sources == nil || target == nil {
		return nil, errors.New("watch: sources and target are required")
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("watch: create watcher: %w", err)
	}

	n := &Nudger{
		fsw:     fsw,
		sources: sources,
		target:  target,
		window:  DefaultDebounce,
		roots:   make(map[string]struct{}),
		dirs:    make(map[string]string),
	}
	for _, opt := range opts {
		opt(n)
	}
	return n, nil
}

// Refresh syncs the watch list with the registered linked sources. Roots
// that no longer exist on disk are skipped; the reconciler reports them.
func (n *Nudger) Refresh(ctx context.Context) error {
	sources, err := n.sources.List(ctx)
	if err != nil {
		return fmt.Errorf("watch: list sources: %w", err)
	}

	want := make(map[string]struct{}, len(sources))
	for _, src := range sources {
		want[filepath.Clean(src.BasePath)] = struct{}{}
	}

	n.mu.Lock()
	defer n.mu.Unlock()
	if n.closed {
		return nil
	}

	for root := range n.roots {
		if _, ok := want[root]; !ok {
			n.unwatchRootLocked(root)
		}
	}
	for root := range want {
		if _, ok := n.roots[root]; ok {
			continue
		}
		if err := n.watchTreeLocked(root, root); err != nil {
			logger.Debug("watch: skipping %s: %v", root, err)
			continue
		}
		n.roots[root] = struct{}{}
	}
	return nil
}

// Run delivers filesystem events until ctx is cancelled or Close is called.
func (n *Nudger) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			_ = n.Close()
			return ctx.Err()
		case event, ok := <-n.fsw.Events:
			if !ok {
				return nil
			}
			n.handle(event)
		case err, ok := <-n.fsw.Errors:
			if !ok {
				return nil
			}
			logger.Warn("watch: %v", err)
		}
	}
}

// Close stops watching. Pending nudges are discarded.
func (n *Nudger) Close() error {
	n.mu.Lock()
	if n.closed {
		n.mu.Unlock()
		return nil
	}
	n.closed = true
	if n.timer != nil {
		n.timer.Stop()
	}
	n.mu.Unlock()
	return n.fsw.Close()
}

// Watched returns the watched directories in sorted order.
func (n *Nudger) Watched() []string {
	n.mu.Lock()
	defer n.mu.Unlock()
	dirs := make([]string, 0, len(n.dirs))
	for dir := range n.dirs {
		dirs = append(dirs, dir)
	}
	sort.Strings(dirs)
	return dirs
}

// Nudges returns the number of nudges sent so far.
func (n *Nudger) Nudges() int64 {
	return n.nudges.Load()
}

func (n *Nudger) handle(event fsnotify.Event) {
	// Attribute changes alone never change content.
	if event.Op == fsnotify.Chmod {
		return
	}
	if isHidden(filepath.Base(event.Name)) {
		return
	}

	n.mu.Lock()
	defer n.mu.Unlock()
	if n.closed {
		return
	}

	switch {
	case event.Op.Has(fsnotify.Create):
		if info, err := os.Lstat(event.Name); err == nil && info.IsDir() {
			if root, ok := n.dirs[filepath.Dir(event.Name)]; ok {
				if err := n.watchTreeLocked(root, event.Name); err != nil {
					logger.Debug("watch: add %s: %v", event.Name, err)
				}
			}
		}
	case event.Op.Has(fsnotify.Remove), event.Op.Has(fsnotify.Rename):
		n.forgetTreeLocked(event.Name)
	}

	n.scheduleLocked()
}

func (n *Nudger) scheduleLocked() {
	if n.timer != nil {
		n.timer.Stop()
	}
	n.timer = time.AfterFunc(n.window, n.fire)
}

func (n *Nudger) fire() {
	n.mu.Lock()
	closed := n.closed
	n.mu.Unlock()
	if closed {
		return
	}
	n.nudges.Add(1)
	n.target.Nudge()
}

// watchTreeLocked adds dir and its visible subdirectories under root.
func (n *Nudger) watchTreeLocked(root, dir string) error {
	info, err := os.Stat(dir)
	if err != nil {
		return err
	}
	if !info.IsDir() {
		return fmt.Errorf("%s is not a directory", dir)
	}

	return filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil // Unreadable entries are reported by the reconciler
		}
		if !d.IsDir() {
			return nil
		}
		if path != dir && isHidden(d.Name()) {
			return filepath.SkipDir
		}
		if _, ok := n.dirs[path]; ok {
			return nil
		}
		if err := n.fsw.Add(path); err != nil {
			return fmt.Errorf("add %s: %w", path, err)
		}
		n.dirs[path] = root
		return nil
	})
}

func (n *Nudger) unwatchRootLocked(root string) {
	for dir, r := range n.dirs {
		if r == root {
			_ = n.fsw.Remove(dir)
			delete(n.dirs, dir)
		}
	}
	delete(n.roots, root)
}

// forgetTreeLocked drops bookkeeping for a removed directory. fsnotify has
// already dropped the kernel watches.
func (n *Nudger) forgetTreeLocked(path string) {
	prefix := path + string(filepath.Separator)
	for dir := range n.dirs {
		if dir == path || strings.HasPrefix(dir, prefix) {
			_ = n.fsw.Remove(dir)
			delete(n.dirs, dir)
		}
	}
	delete(n.roots, path)
}

func isHidden(name string) bool {
	return strings.HasPrefix(name, ".") && name != "." && name != ".."
}
