package bundle

import (
	"fmt"
	"strings"

	"github.com/klauspost/compress/zip"
)

// Bundle file extensions. An obfuscated bundle is a zip whose every byte has
// been passed through xorio.
const (
	ExtObfuscated = ".bin"
	ExtPlain      = ".zip"
)

// DefaultBaseName is the bundle file name used when none is configured.
const DefaultBaseName = "assets"

// MethodBzip2 is the zip compression method id for BZIP2.
const MethodBzip2 uint16 = 12

// Compression selects how file entries are compressed inside a bundle
type Compression uint8

const (
	None Compression = iota
	Deflate
	Bzip2
)

func (c Compression) String() string {
	switch c {
	case None:
		return "none"
	case Deflate:
		return "deflate"
	case Bzip2:
		return "bzip2"
	default:
		return fmt.Sprintf("unknown(%d)", uint8(c))
	}
}

// Method returns the zip method id used for entries written with c.
func (c Compression) Method() uint16 {
	switch c {
	case Deflate:
		return zip.Deflate
	case Bzip2:
		return MethodBzip2
	default:
		return zip.Store
	}
}

// ParseCompression parses one of "none", "deflate" or "bzip2".
func ParseCompression(name string) (Compression, error) {
	switch name {
	case "none":
		return None, nil
	case "deflate":
		return Deflate, nil
	case "bzip2":
		return Bzip2, nil
	default:
		return 0, fmt.Errorf("%w: %q (want none, deflate or bzip2)", ErrInvalidCompression, name)
	}
}

// Config describes where a bundle lives and how it is written. It is built
// once at startup and shared read-only by the resolver and the bundler.
type Config struct {
	// BaseName is the bundle file name without extension.
	BaseName string
	// Compression is used by the bundler for file entries.
	Compression Compression
	// Obfuscate makes the bundler write a .bin bundle.
	Obfuscate bool
	// SearchDir is where the resolver looks for a bundle.
	SearchDir string
	// OutDir is where the bundler writes.
	OutDir string
}

// DefaultConfig returns the defaults: "assets", bzip2, plain, ./target.
func DefaultConfig() Config {
	return Config{
		BaseName:    DefaultBaseName,
		Compression: Bzip2,
		OutDir:      "./target",
	}
}

// Validate checks the base name, compression and output directory.
func (c Config) Validate() error {
	if c.BaseName == "" {
		return fmt.Errorf("%w: empty", ErrInvalidBaseName)
	}
	if strings.ContainsAny(c.BaseName, `/\`) {
		return fmt.Errorf("%w: %q contains a path separator", ErrInvalidBaseName, c.BaseName)
	}
	if c.BaseName == "." || c.BaseName == ".." {
		return fmt.Errorf("%w: %q", ErrInvalidBaseName, c.BaseName)
	}
	if c.Compression > Bzip2 {
		return fmt.Errorf("%w: %s", ErrInvalidCompression, c.Compression)
	}
	if c.OutDir == "" {
		return fmt.Errorf("%w: empty", ErrInvalidOutDir)
	}
	return nil
}

// FileName returns the bundle file name the bundler produces for c.
func (c Config) FileName() string {
	if c.Obfuscate {
		return c.BaseName + ExtObfuscated
	}
	return c.BaseName + ExtPlain
}

// Candidate is a bundle file found on disk. It is recomputed on every lookup.
type Candidate struct {
	Path       string
	Obfuscated bool
}

// EntryInfo describes one entry of an opened bundle
type EntryInfo struct {
	Name             string
	Method           uint16
	CompressedSize   uint64
	UncompressedSize uint64
	IsDir            bool
}
