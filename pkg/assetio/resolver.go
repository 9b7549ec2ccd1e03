package assetio

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/jchantrell/assetzip/pkg/bundle"
)

// Resolver serves assets from a bundle beside the executable and defers to a
// fallback Source when the bundle or the entry is absent.
//
// A Resolver holds no mutable state. Every Load locates and opens the bundle
// from scratch, so the bundle file may appear, disappear or be replaced
// between calls, and concurrent Loads never share a file handle.
type Resolver struct {
	fallback Source
	cfg      bundle.Config
}

var _ Source = (*Resolver)(nil)

// NewResolver creates a resolver over fallback. cfg.SearchDir is where the
// bundle is looked up; use bundle.ExecutableDir for the usual layout.
func NewResolver(fallback Source, cfg bundle.Config) *Resolver {
	return &Resolver{
		fallback: fallback,
		cfg:      cfg,
	}
}

// Fallback returns the wrapped source.
func (r *Resolver) Fallback() Source {
	return r.fallback
}

// Load returns the asset at path. Bundle entries win over the fallback. A
// bundle that exists but cannot be parsed, or an entry that exists but
// cannot be read, is an error and does not fall back.
//
// path must be valid UTF-8; anything else panics.
func (r *Resolver) Load(ctx context.Context, path string) ([]byte, error) {
	name := bundle.EntryName(path)

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	data, found, err := r.loadFromBundle(name)
	if err != nil {
		return nil, err
	}
	if found {
		return data, nil
	}

	slog.Debug("Loading asset from fallback", "path", path)
	return r.fallback.Load(ctx, path)
}

// loadFromBundle reads name from the current bundle. found is false when
// there is no bundle or the bundle has no such entry.
func (r *Resolver) loadFromBundle(name string) (data []byte, found bool, err error) {
	candidate, ok := bundle.Locate(r.cfg.SearchDir, r.cfg.BaseName)
	if !ok {
		return nil, false, nil
	}

	archive, err := bundle.Open(candidate)
	if err != nil {
		return nil, false, fmt.Errorf("opening asset bundle: %w", err)
	}
	defer archive.Close()

	data, err = archive.ReadEntry(name)
	if errors.Is(err, bundle.ErrEntryNotFound) {
		slog.Debug("Asset not in bundle", "path", name, "bundle", candidate.Path)
		return nil, false, nil
	}
	if err != nil {
		slog.Error("Failed to read asset from bundle", "path", name, "bundle", candidate.Path, "error", err)
		return nil, false, fmt.Errorf("reading asset %s from bundle %s: %w", name, candidate.Path, err)
	}

	slog.Debug("Loaded asset from bundle", "path", name, "bundle", candidate.Path, "size", len(data))
	return data, true, nil
}

// ReadDirectory always defers to the fallback; bundle directories are not listed.
func (r *Resolver) ReadDirectory(path string) ([]string, error) {
	return r.fallback.ReadDirectory(path)
}

// IsDirectory always defers to the fallback.
func (r *Resolver) IsDirectory(path string) bool {
	return r.fallback.IsDirectory(path)
}

// WatchPath defers to the fallback. Changes inside a bundle are not observable.
func (r *Resolver) WatchPath(path string) error {
	return r.fallback.WatchPath(path)
}

// WatchAll defers to the fallback. Changes inside a bundle are not observable.
func (r *Resolver) WatchAll() error {
	return r.fallback.WatchAll()
}
