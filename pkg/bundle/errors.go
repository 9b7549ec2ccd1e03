package bundle

import "errors"

// Sentinel errors for bundle operations. Use errors.Is in callers.
var (
	// ErrArchiveOpen means a bundle file exists but is not a readable zip archive.
	ErrArchiveOpen = errors.New("bundle is not a valid archive")
	// ErrEntryNotFound means the archive has no entry with the requested name.
	ErrEntryNotFound = errors.New("entry not found in bundle")
	// ErrInvalidBaseName means the configured bundle name is empty or contains a separator.
	ErrInvalidBaseName = errors.New("invalid bundle base name")
	// ErrInvalidCompression means the compression name or value is not supported.
	ErrInvalidCompression = errors.New("invalid compression")

	// ErrInvalidOutDir means the bundler output directory is empty.
	ErrInvalidOutDir = errors.New("invalid bundle output directory")
)
