package export

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
)

// ErrUnsafePath means an asset path would be written outside the output directory.
var ErrUnsafePath = errors.New("asset path escapes output directory")

// Loader defines the interface for loading assets by path
type Loader interface {
	Load(ctx context.Context, path string) ([]byte, error)
}

// Exporter handles exporting assets to disk
type Exporter struct {
	loader    Loader
	outputDir string
	flatten   bool
}

// NewExporter creates a new asset exporter. With flatten set, directory
// separators in asset paths are replaced by "@" and every file lands
// directly in outputDir.
func NewExporter(loader Loader, outputDir string, flatten bool) *Exporter {
	return &Exporter{
		loader:    loader,
		outputDir: outputDir,
		flatten:   flatten,
	}
}

// ProgressCallback is called to report export progress
type ProgressCallback func(current int, total int, description string)

// Stats summarizes an export run.
type Stats struct {
	Files int
	Bytes int64
}

// ExportFiles loads each path through the loader and writes it below the
// output directory. Directory entries (paths ending in "/") are skipped.
// The first failure stops the export.
func (e *Exporter) ExportFiles(ctx context.Context, files []string, progressCallback ProgressCallback) (Stats, error) {
	var stats Stats
	if len(files) == 0 {
		return stats, nil
	}

	// Create output directory
	if err := os.MkdirAll(e.outputDir, 0o755); err != nil {
		return stats, fmt.Errorf("creating output directory: %w", err)
	}

	totalFiles := len(files)
	for i, filePath := range files {
		if err := ctx.Err(); err != nil {
			return stats, err
		}

		if !strings.HasSuffix(filePath, "/") {
			n, err := e.exportFile(ctx, filePath)
			if err != nil {
				return stats, err
			}
			stats.Files++
			stats.Bytes += n
		}

		if progressCallback != nil {
			progressCallback(i+1, totalFiles, filePath)
		}
	}

	return stats, nil
}

func (e *Exporter) exportFile(ctx context.Context, filePath string) (int64, error) {
	outputPath, err := e.outputPath(filePath)
	if err != nil {
		return 0, err
	}

	fileData, err := e.loader.Load(ctx, filePath)
	if err != nil {
		return 0, fmt.Errorf("loading file %s: %w", filePath, err)
	}

	if err := os.MkdirAll(filepath.Dir(outputPath), 0o755); err != nil {
		return 0, fmt.Errorf("creating directory for %s: %w", filePath, err)
	}
	if err := os.WriteFile(outputPath, fileData, 0o644); err != nil {
		return 0, fmt.Errorf("writing file %s: %w", outputPath, err)
	}

	slog.Debug("Exported file", "path", filePath, "output", outputPath, "size", len(fileData))
	return int64(len(fileData)), nil
}

// outputPath maps an asset path to its destination, refusing anything that
// would land outside the output directory.
func (e *Exporter) outputPath(filePath string) (string, error) {
	clean := filepath.Clean(filepath.FromSlash(strings.TrimLeft(filePath, "/")))
	if clean == "." || clean == ".." || strings.HasPrefix(clean, ".."+string(filepath.Separator)) || filepath.IsAbs(clean) {
		return "", fmt.Errorf("%w: %s", ErrUnsafePath, filePath)
	}

	if e.flatten {
		clean = sanitizePath(filepath.ToSlash(clean))
	}
	return filepath.Join(e.outputDir, clean), nil
}

// sanitizePath sanitizes a file path for use as a filename
// Replaces forward slashes with @ symbols
func sanitizePath(path string) string {
	return strings.ReplaceAll(path, "/", "@")
}
