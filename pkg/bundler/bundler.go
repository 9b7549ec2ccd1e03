// Package bundler packs an asset directory into a bundle the assetio
// Resolver can read.
//
// The source tree is walked in lexical order. Every directory except the
// root gets an explicit "name/" entry, since some unzip tools do not
// recreate directories from file paths alone. When obfuscation is enabled
// every byte of the output file, headers and central directory included, is
// passed through xorio on its way to disk.
//
// Output is written to a temporary file beside the target and renamed into
// place only after the archive is complete. A failed run leaves nothing
// under the bundle name.
package bundler

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/jchantrell/assetzip/pkg/bundle"
	"github.com/jchantrell/assetzip/pkg/xorio"
	"github.com/klauspost/compress/zip"
	"github.com/woozymasta/pathrules"
	"github.com/zeebo/blake3"
)

// writeBufferSize is the buffered writer size between the zip writer and disk.
const writeBufferSize = 1 << 20

// ErrInvalidOptions means Options are missing a required field or hold an invalid value.
var ErrInvalidOptions = errors.New("invalid bundle options")

// ProgressCallback is called after each entry is written
type ProgressCallback func(current int, total int, description string)

// Options configures one bundling run.
type Options struct {
	// SourceDir is the asset directory to pack.
	SourceDir string
	// Target is the bundle file to write.
	Target string
	// Compression is applied to every file entry.
	Compression bundle.Compression
	// Obfuscate passes the whole output through xorio.
	Obfuscate bool
	// Exclude lists glob patterns, relative to SourceDir, that are left out.
	// A matching directory is skipped with everything below it.
	Exclude []string
	// OnEntryDone reports progress; nil disables reporting.
	OnEntryDone ProgressCallback
}

// Result summarizes a completed run.
type Result struct {
	Target string
	// Files and Dirs count written entries.
	Files int
	Dirs  int
	// Skipped counts paths left out by Exclude or because they are not regular files.
	Skipped int
	// RawBytes is the total size of the source files.
	RawBytes int64
	// WrittenBytes is the size of the bundle file.
	WrittenBytes int64
	// Digest is the BLAKE3-256 hash of the bundle file as stored on disk.
	Digest   [32]byte
	Duration time.Duration
}

// item is one collected filesystem entry.
type item struct {
	path  string
	name  string
	isDir bool
	info  fs.FileInfo
}

// FromConfig derives Options for cfg: the target is cfg.OutDir joined with
// cfg.FileName(). OutDir is created if needed.
func FromConfig(cfg bundle.Config, sourceDir string, exclude []string) (Options, error) {
	if err := cfg.Validate(); err != nil {
		return Options{}, err
	}
	if err := os.MkdirAll(cfg.OutDir, 0o755); err != nil {
		return Options{}, fmt.Errorf("creating output directory: %w", err)
	}

	return Options{
		SourceDir:   sourceDir,
		Target:      filepath.Join(cfg.OutDir, cfg.FileName()),
		Compression: cfg.Compression,
		Obfuscate:   cfg.Obfuscate,
		Exclude:     exclude,
	}, nil
}

// Bundle packs opts.SourceDir into opts.Target. Any failure aborts the run
// and removes the partial output.
func Bundle(ctx context.Context, opts Options) (*Result, error) {
	start := time.Now()

	if err := opts.validate(); err != nil {
		return nil, err
	}

	matcher, err := newExcludeMatcher(opts.Exclude)
	if err != nil {
		return nil, err
	}

	target, err := filepath.Abs(opts.Target)
	if err != nil {
		return nil, fmt.Errorf("resolving target path: %w", err)
	}

	items, skipped, err := collect(opts.SourceDir, target, matcher)
	if err != nil {
		return nil, err
	}

	slog.Info("Bundling assets",
		"source", opts.SourceDir,
		"target", target,
		"entries", len(items),
		"compression", opts.Compression,
		"obfuscate", opts.Obfuscate)

	result := &Result{Target: target, Skipped: skipped}
	if err := write(ctx, target, items, opts, result); err != nil {
		return nil, err
	}

	result.Duration = time.Since(start)
	warnShadowed(target, opts.Obfuscate)

	slog.Info("Bundle written",
		"target", target,
		"files", result.Files,
		"dirs", result.Dirs,
		"bytes", result.WrittenBytes,
		"digest", fmt.Sprintf("%x", result.Digest))

	return result, nil
}

func (opts *Options) validate() error {
	if opts.SourceDir == "" {
		return fmt.Errorf("%w: source directory is required", ErrInvalidOptions)
	}
	if opts.Target == "" {
		return fmt.Errorf("%w: target file is required", ErrInvalidOptions)
	}
	if opts.Compression > bundle.Bzip2 {
		return fmt.Errorf("%w: %w: %s", ErrInvalidOptions, bundle.ErrInvalidCompression, opts.Compression)
	}

	info, err := os.Stat(opts.SourceDir)
	if err != nil {
		return fmt.Errorf("reading source directory: %w", err)
	}
	if !info.IsDir() {
		return fmt.Errorf("%w: %s is not a directory", ErrInvalidOptions, opts.SourceDir)
	}
	return nil
}

// collect walks sourceDir in lexical order. The target file is never
// collected, even when it lives inside sourceDir.
func collect(sourceDir, target string, matcher *pathrules.Matcher) ([]item, int, error) {
	var items []item
	skipped := 0

	root, err := filepath.Abs(sourceDir)
	if err != nil {
		return nil, 0, fmt.Errorf("resolving source directory: %w", err)
	}

	walkErr := filepath.WalkDir(root, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return fmt.Errorf("walking %s: %w", p, err)
		}
		if p == root {
			return nil
		}

		rel, err := filepath.Rel(root, p)
		if err != nil {
			return fmt.Errorf("relative path for %s: %w", p, err)
		}
		name := filepath.ToSlash(rel)

		if matcher != nil && !matcher.Included(name, d.IsDir()) {
			slog.Debug("Excluding path", "path", name)
			skipped++
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}

		if d.IsDir() {
			info, err := d.Info()
			if err != nil {
				return fmt.Errorf("stat %s: %w", p, err)
			}
			items = append(items, item{path: p, name: name, isDir: true, info: info})
			return nil
		}

		if p == target {
			skipped++
			return nil
		}

		// Stat follows symlinks so linked files are packed by content.
		info, err := os.Stat(p)
		if err != nil {
			return fmt.Errorf("stat %s: %w", p, err)
		}
		if !info.Mode().IsRegular() {
			slog.Debug("Skipping non-regular file", "path", name, "mode", info.Mode())
			skipped++
			return nil
		}

		items = append(items, item{path: p, name: name, info: info})
		return nil
	})
	if walkErr != nil {
		return nil, 0, walkErr
	}

	return items, skipped, nil
}

// write produces the archive in a temp file and renames it onto target.
func write(ctx context.Context, target string, items []item, opts Options, result *Result) error {
	tmp, err := os.CreateTemp(filepath.Dir(target), "."+filepath.Base(target)+"-*.tmp")
	if err != nil {
		return fmt.Errorf("creating bundle file: %w", err)
	}
	tmpName := tmp.Name()

	committed := false
	defer func() {
		if committed {
			return
		}
		tmp.Close()
		if removeErr := os.Remove(tmpName); removeErr != nil && !errors.Is(removeErr, fs.ErrNotExist) {
			slog.Warn("Failed to remove partial bundle", "path", tmpName, "error", removeErr)
		}
	}()

	hasher := blake3.New()
	counter := &countingWriter{}
	var sink io.Writer = io.MultiWriter(tmp, hasher, counter)
	if opts.Obfuscate {
		sink = xorio.NewWriter(sink)
	}
	buffered := bufio.NewWriterSize(sink, writeBufferSize)

	zw := zip.NewWriter(buffered)
	bundle.RegisterCompressors(zw)

	method := opts.Compression.Method()
	for i, it := range items {
		if err := ctx.Err(); err != nil {
			return fmt.Errorf("bundling canceled: %w", err)
		}

		if it.isDir {
			if err := writeDir(zw, it); err != nil {
				return err
			}
			result.Dirs++
		} else {
			n, err := writeFile(zw, it, method)
			if err != nil {
				return err
			}
			result.Files++
			result.RawBytes += n
		}

		if opts.OnEntryDone != nil {
			opts.OnEntryDone(i+1, len(items), it.name)
		}
	}

	if err := zw.Close(); err != nil {
		return fmt.Errorf("finalizing archive: %w", err)
	}
	if err := buffered.Flush(); err != nil {
		return fmt.Errorf("flushing bundle: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		return fmt.Errorf("syncing bundle: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("closing bundle: %w", err)
	}
	if err := os.Rename(tmpName, target); err != nil {
		return fmt.Errorf("moving bundle into place: %w", err)
	}
	committed = true

	result.WrittenBytes = counter.n
	copy(result.Digest[:], hasher.Sum(nil))
	return nil
}

func writeDir(zw *zip.Writer, it item) error {
	header := &zip.FileHeader{
		Name:   it.name + "/",
		Method: zip.Store,
	}
	header.Modified = it.info.ModTime()
	header.SetMode(it.info.Mode())

	if _, err := zw.CreateHeader(header); err != nil {
		return fmt.Errorf("adding directory %s: %w", it.name, err)
	}
	slog.Debug("Added directory", "name", it.name)
	return nil
}

func writeFile(zw *zip.Writer, it item, method uint16) (int64, error) {
	header, err := zip.FileInfoHeader(it.info)
	if err != nil {
		return 0, fmt.Errorf("creating header for %s: %w", it.name, err)
	}
	header.Name = it.name
	header.Method = method

	w, err := zw.CreateHeader(header)
	if err != nil {
		return 0, fmt.Errorf("adding file %s: %w", it.name, err)
	}

	f, err := os.Open(it.path)
	if err != nil {
		return 0, fmt.Errorf("opening source file %s: %w", it.path, err)
	}
	defer f.Close()

	n, err := io.Copy(w, f)
	if err != nil {
		return 0, fmt.Errorf("writing file %s: %w", it.name, err)
	}

	slog.Debug("Added file", "name", it.name, "size", n)
	return n, nil
}

// warnShadowed logs when the other bundle variant sits beside target. The
// resolver always prefers .bin, so a stale .bin hides a fresh .zip.
func warnShadowed(target string, obfuscated bool) {
	ext := filepath.Ext(target)
	base := strings.TrimSuffix(target, ext)

	other := base + bundle.ExtObfuscated
	if obfuscated {
		other = base + bundle.ExtPlain
	}
	if _, err := os.Stat(other); err != nil {
		return
	}

	if obfuscated {
		slog.Warn("Plain bundle left beside obfuscated bundle", "path", other)
	} else {
		slog.Warn("Obfuscated bundle shadows the new plain bundle", "path", other, "bundle", target)
	}
}

type countingWriter struct{ n int64 }

func (c *countingWriter) Write(p []byte) (int, error) {
	c.n += int64(len(p))
	return len(p), nil
}
