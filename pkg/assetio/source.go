// Package assetio resolves asset reads against a zip bundle first and an
// alternate Source second.
//
// The Resolver is meant to be installed as the asset source of a hosting
// application, wrapping the host's own default source:
//
//	resolver, err := assetio.Install(func() (assetio.Source, error) {
//	    return assetio.NewDirSource("assets")
//	}, cfg)
//	if err != nil {
//	    return err
//	}
//	data, err := resolver.Load(ctx, "textures/player.png")
//
// Each Load looks for {SearchDir}/{BaseName}.bin (obfuscated) and then
// {SearchDir}/{BaseName}.zip. If neither exists, or the bundle has no entry
// for the path, the request goes to the fallback. Directory listing and file
// watching always go to the fallback; the bundle contents are never listed or
// watched.
package assetio

import (
	"context"
	"fmt"

	"github.com/jchantrell/assetzip/pkg/bundle"
)

// Source is the capability set a hosting application expects of an asset source.
type Source interface {
	// Load returns the full contents of the asset at path.
	Load(ctx context.Context, path string) ([]byte, error)
	// ReadDirectory returns the paths of the children of the directory at path.
	ReadDirectory(path string) ([]string, error)
	// IsDirectory reports whether path names a directory.
	IsDirectory(path string) bool
	// WatchPath starts watching path for changes.
	WatchPath(path string) error
	// WatchAll starts watching every asset for changes.
	WatchAll() error
}

// SourceFactory builds the host's default Source.
type SourceFactory func() (Source, error)

// Install builds the host's default source and wraps it in a Resolver. The
// Resolver has to be registered before the host builds its own default
// source so that source can serve as the fallback.
func Install(factory SourceFactory, cfg bundle.Config) (*Resolver, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid bundle config: %w", err)
	}

	fallback, err := factory()
	if err != nil {
		return nil, fmt.Errorf("creating fallback source: %w", err)
	}

	return NewResolver(fallback, cfg), nil
}
