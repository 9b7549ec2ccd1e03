package assetio

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path"
	"path/filepath"
	"strings"
	"sync"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/fsnotify/fsnotify"
	"github.com/jchantrell/assetzip/pkg/bundle"
)

// changeBuffer is how many change notifications may queue before new ones are dropped.
const changeBuffer = 256

// defaultIgnores are never reported as changes nor walked by WatchAll.
var defaultIgnores = []string{
	"**/.git/**",
	"**/*.swp",
	"**/*.swo",
	"**/*~",
	"**/.DS_Store",
}

// DirSource serves assets from a directory tree. It is the plain
// directory-based loader a Resolver usually falls back to.
type DirSource struct {
	root    string
	ignores []string
	changes chan string

	mu       sync.Mutex
	watcher  *fsnotify.Watcher
	watchAll bool
	closed   bool
	done     chan struct{}
	stopped  chan struct{}
}

var _ Source = (*DirSource)(nil)

// DirOption configures a DirSource.
type DirOption func(*DirSource)

// WithIgnore adds doublestar patterns, relative to the root, whose changes are
// not reported.
func WithIgnore(patterns ...string) DirOption {
	return func(d *DirSource) {
		d.ignores = append(d.ignores, patterns...)
	}
}

// NewDirSource creates a source rooted at root. The directory does not need
// to exist yet; loads from a missing root report fs.ErrNotExist.
func NewDirSource(root string, opts ...DirOption) (*DirSource, error) {
	absRoot, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("resolving asset root: %w", err)
	}

	d := &DirSource{
		root:    absRoot,
		ignores: append([]string(nil), defaultIgnores...),
		changes: make(chan string, changeBuffer),
	}
	for _, opt := range opts {
		opt(d)
	}

	for _, pat := range d.ignores {
		if _, err := doublestar.Match(pat, ""); err != nil {
			return nil, fmt.Errorf("invalid ignore pattern %q: %w", pat, err)
		}
	}

	return d, nil
}

// Root returns the absolute root directory.
func (d *DirSource) Root() string {
	return d.root
}

// resolve maps a request path to a filesystem path inside the root.
func (d *DirSource) resolve(p string) (string, error) {
	name := bundle.EntryName(p)
	if name == ".." || strings.HasPrefix(name, "../") {
		return "", &fs.PathError{Op: "open", Path: p, Err: fs.ErrInvalid}
	}
	return filepath.Join(d.root, filepath.FromSlash(name)), nil
}

func (d *DirSource) Load(ctx context.Context, p string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	full, err := d.resolve(p)
	if err != nil {
		return nil, err
	}

	data, err := os.ReadFile(full)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, &fs.PathError{Op: "open", Path: p, Err: fs.ErrNotExist}
		}
		return nil, fmt.Errorf("reading asset %s: %w", p, err)
	}
	return data, nil
}

// ReadDirectory returns the children of p as request paths, sorted by name.
func (d *DirSource) ReadDirectory(p string) ([]string, error) {
	full, err := d.resolve(p)
	if err != nil {
		return nil, err
	}

	entries, err := os.ReadDir(full)
	if err != nil {
		return nil, fmt.Errorf("reading asset directory %s: %w", p, err)
	}

	base := bundle.EntryName(p)
	paths := make([]string, 0, len(entries))
	for _, e := range entries {
		paths = append(paths, path.Join(base, e.Name()))
	}
	return paths, nil
}

func (d *DirSource) IsDirectory(p string) bool {
	full, err := d.resolve(p)
	if err != nil {
		return false
	}
	info, err := os.Stat(full)
	return err == nil && info.IsDir()
}

// WatchPath reports changes to p, or to the entries of p when it is a directory.
func (d *DirSource) WatchPath(p string) error {
	full, err := d.resolve(p)
	if err != nil {
		return err
	}

	w, err := d.ensureWatcher()
	if err != nil {
		return err
	}

	if err := w.Add(full); err != nil {
		return fmt.Errorf("watching %s: %w", p, err)
	}
	slog.Debug("Watching asset path", "path", p)
	return nil
}

// WatchAll reports changes anywhere under the root, including directories
// created later.
func (d *DirSource) WatchAll() error {
	w, err := d.ensureWatcher()
	if err != nil {
		return err
	}

	d.mu.Lock()
	d.watchAll = true
	d.mu.Unlock()

	count := 0
	walkErr := filepath.WalkDir(d.root, func(p string, entry fs.DirEntry, err error) error {
		if err != nil {
			slog.Warn("Skipping unreadable asset path", "path", p, "error", err)
			return nil
		}
		if !entry.IsDir() {
			return nil
		}
		if p != d.root && d.isIgnored(d.relative(p)+"/") {
			return filepath.SkipDir
		}
		if err := w.Add(p); err != nil {
			return fmt.Errorf("watching directory %s: %w", p, err)
		}
		count++
		return nil
	})
	if walkErr != nil {
		return walkErr
	}

	slog.Debug("Watching asset tree", "root", d.root, "directories", count)
	return nil
}

// Changes delivers root-relative, slash-separated paths of changed assets.
// The channel is closed by Close.
func (d *DirSource) Changes() <-chan string {
	return d.changes
}

// Close stops watching. It is safe to call more than once.
func (d *DirSource) Close() error {
	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		return nil
	}
	d.closed = true
	w := d.watcher
	d.mu.Unlock()

	if w == nil {
		close(d.changes)
		return nil
	}

	close(d.done)
	err := w.Close()
	<-d.stopped
	close(d.changes)
	return err
}

func (d *DirSource) ensureWatcher() (*fsnotify.Watcher, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.closed {
		return nil, fs.ErrClosed
	}
	if d.watcher != nil {
		return d.watcher, nil
	}

	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("creating file watcher: %w", err)
	}

	d.watcher = w
	d.done = make(chan struct{})
	d.stopped = make(chan struct{})
	go d.run(w)
	return w, nil
}

func (d *DirSource) run(w *fsnotify.Watcher) {
	defer close(d.stopped)

	for {
		select {
		case <-d.done:
			return

		case evt, ok := <-w.Events:
			if !ok {
				return
			}

			rel := d.relative(evt.Name)
			if d.isIgnored(rel) {
				continue
			}

			if evt.Has(fsnotify.Create) {
				d.maybeAddDir(w, evt.Name)
			}

			select {
			case d.changes <- rel:
			case <-d.done:
				return
			default:
				slog.Warn("Dropping asset change notification", "path", rel)
			}

		case err, ok := <-w.Errors:
			if !ok {
				return
			}
			slog.Warn("Asset watcher error", "error", err)
		}
	}
}

// maybeAddDir extends a WatchAll to directories created after it started.
func (d *DirSource) maybeAddDir(w *fsnotify.Watcher, p string) {
	d.mu.Lock()
	all := d.watchAll
	d.mu.Unlock()
	if !all {
		return
	}

	info, err := os.Stat(p)
	if err != nil || !info.IsDir() {
		return
	}
	if d.isIgnored(d.relative(p) + "/") {
		return
	}
	if err := w.Add(p); err != nil {
		slog.Warn("Failed to watch new directory", "path", p, "error", err)
	}
}

func (d *DirSource) relative(p string) string {
	rel, err := filepath.Rel(d.root, p)
	if err != nil {
		return filepath.ToSlash(p)
	}
	return filepath.ToSlash(rel)
}

func (d *DirSource) isIgnored(rel string) bool {
	for _, pat := range d.ignores {
		if matched, err := doublestar.Match(pat, rel); err == nil && matched {
			return true
		}
	}
	return false
}
