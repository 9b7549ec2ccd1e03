package bundle

import (
	"bytes"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"github.com/jchantrell/assetzip/pkg/xorio"
	"github.com/klauspost/compress/zip"
)

// maxPrealloc bounds the buffer reserved up front from an entry's declared size.
const maxPrealloc = 64 << 20

// Archive is an open, indexed view over one bundle file. It is meant to be
// opened for a single request and closed right after.
type Archive struct {
	path       string
	obfuscated bool
	closer     io.Closer
	zr         *zip.Reader
	index      map[string]*zip.File
}

// Open opens the bundle described by c. Obfuscated bundles are transformed
// back through xorio before the zip structure is parsed. A file that exists
// but does not parse returns an error wrapping ErrArchiveOpen.
func Open(c Candidate) (*Archive, error) {
	f, err := os.Open(c.Path)
	if err != nil {
		return nil, fmt.Errorf("opening bundle file %s: %w", c.Path, err)
	}

	info, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("stat bundle file %s: %w", c.Path, err)
	}

	a, err := OpenReaderAt(f, info.Size(), c.Obfuscated)
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("%s: %w", c.Path, err)
	}

	a.path = c.Path
	a.closer = f

	slog.Debug("Bundle opened", "path", c.Path, "obfuscated", c.Obfuscated, "entries", len(a.zr.File))
	return a, nil
}

// OpenReaderAt parses size bytes of r as a bundle. The caller keeps ownership of r.
func OpenReaderAt(r io.ReaderAt, size int64, obfuscated bool) (*Archive, error) {
	if obfuscated {
		r = xorio.NewReaderAt(r)
	}

	zr, err := zip.NewReader(r, size)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrArchiveOpen, err)
	}
	zr.RegisterDecompressor(MethodBzip2, Bzip2Decompressor)

	index := make(map[string]*zip.File, len(zr.File))
	for _, f := range zr.File {
		if _, dup := index[f.Name]; !dup {
			index[f.Name] = f
		}
	}

	return &Archive{
		obfuscated: obfuscated,
		zr:         zr,
		index:      index,
	}, nil
}

// Path returns the bundle file path, or "" for archives opened from a ReaderAt.
func (a *Archive) Path() string {
	return a.path
}

// Obfuscated reports whether the archive was read through the XOR transform.
func (a *Archive) Obfuscated() bool {
	return a.obfuscated
}

// Lookup returns the entry stored under name exactly.
func (a *Archive) Lookup(name string) (*zip.File, bool) {
	f, ok := a.index[name]
	return f, ok
}

// ReadEntry reads and decompresses the whole entry stored under name. A
// missing entry returns an error wrapping ErrEntryNotFound; any other error
// means the entry exists but could not be read.
func (a *Archive) ReadEntry(name string) ([]byte, error) {
	f, ok := a.Lookup(name)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrEntryNotFound, name)
	}

	rc, err := f.Open()
	if err != nil {
		return nil, fmt.Errorf("opening entry %s: %w", name, err)
	}
	defer rc.Close()

	prealloc := f.UncompressedSize64
	if prealloc > maxPrealloc {
		prealloc = maxPrealloc
	}

	// ReadFrom runs to EOF so the zip reader gets to verify the CRC.
	buf := bytes.NewBuffer(make([]byte, 0, int(prealloc)))
	if _, err := buf.ReadFrom(rc); err != nil {
		return nil, fmt.Errorf("reading entry %s (size=%d): %w", name, f.UncompressedSize64, err)
	}

	return buf.Bytes(), nil
}

// Entries lists entries in central directory order.
func (a *Archive) Entries() []EntryInfo {
	entries := make([]EntryInfo, 0, len(a.zr.File))
	for _, f := range a.zr.File {
		entries = append(entries, EntryInfo{
			Name:             f.Name,
			Method:           f.Method,
			CompressedSize:   f.CompressedSize64,
			UncompressedSize: f.UncompressedSize64,
			IsDir:            strings.HasSuffix(f.Name, "/"),
		})
	}
	return entries
}

// Close releases the underlying file, if Open created one.
func (a *Archive) Close() error {
	if a.closer == nil {
		return nil
	}
	err := a.closer.Close()
	a.closer = nil
	return err
}

// EntryName converts a request path to the archive's naming convention:
// forward slashes, cleaned, relative. A path that is not valid UTF-8 is a
// caller bug and panics.
func EntryName(p string) string {
	if !utf8.ValidString(p) {
		panic(fmt.Sprintf("bundle: asset path %q is not valid UTF-8", p))
	}

	name := path.Clean(filepath.ToSlash(p))
	name = strings.TrimLeft(name, "/")
	if name == "." {
		return ""
	}
	return name
}
