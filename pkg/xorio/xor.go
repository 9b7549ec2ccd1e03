// Package xorio provides the byte transform used for obfuscated bundles.
//
// Every byte passing through an Xor is XOR-ed with Key. The transform is its
// own inverse and does not depend on stream position, so it can wrap readers,
// writers, seekers and random-access sources without changing their offsets.
//
// This is a deterrent against casual inspection of bundle contents. It is not
// encryption and provides no confidentiality.
package xorio

import (
	"errors"
	"io"
)

// Key is the single-byte XOR key applied to every byte.
const Key byte = 0x55

// ErrUnsupported is returned when the wrapped value lacks the requested capability.
var ErrUnsupported = errors.New("xorio: operation not supported by underlying value")

// Apply XORs every byte of p with Key in place.
func Apply(p []byte) {
	for i := range p {
		p[i] ^= Key
	}
}

// Xor wraps an underlying stream and transforms all bytes read or written.
type Xor struct {
	inner any
}

// New wraps v. The returned value supports each of Read, Write, Seek, ReadAt,
// WriteAt and Close only when v does.
func New(v any) *Xor {
	return &Xor{inner: v}
}

// NewReader wraps r for transformed reads.
func NewReader(r io.Reader) *Xor { return New(r) }

// NewWriter wraps w for transformed writes.
func NewWriter(w io.Writer) *Xor { return New(w) }

// NewReaderAt wraps r for transformed random-access reads.
func NewReaderAt(r io.ReaderAt) *Xor { return New(r) }

// Unwrap returns the wrapped value.
func (x *Xor) Unwrap() any { return x.inner }

func (x *Xor) Read(p []byte) (int, error) {
	r, ok := x.inner.(io.Reader)
	if !ok {
		return 0, ErrUnsupported
	}
	n, err := r.Read(p)
	Apply(p[:n])
	return n, err
}

func (x *Xor) ReadAt(p []byte, off int64) (int, error) {
	r, ok := x.inner.(io.ReaderAt)
	if !ok {
		return 0, ErrUnsupported
	}
	n, err := r.ReadAt(p, off)
	Apply(p[:n])
	return n, err
}

// Write transforms a copy of p; the caller's buffer is left untouched.
func (x *Xor) Write(p []byte) (int, error) {
	w, ok := x.inner.(io.Writer)
	if !ok {
		return 0, ErrUnsupported
	}
	return w.Write(transformed(p))
}

func (x *Xor) WriteAt(p []byte, off int64) (int, error) {
	w, ok := x.inner.(io.WriterAt)
	if !ok {
		return 0, ErrUnsupported
	}
	return w.WriteAt(transformed(p), off)
}

func (x *Xor) Seek(offset int64, whence int) (int64, error) {
	s, ok := x.inner.(io.Seeker)
	if !ok {
		return 0, ErrUnsupported
	}
	return s.Seek(offset, whence)
}

// Close closes the wrapped value if it is an io.Closer.
func (x *Xor) Close() error {
	if c, ok := x.inner.(io.Closer); ok {
		return c.Close()
	}
	return nil
}

func transformed(p []byte) []byte {
	out := make([]byte, len(p))
	for i, b := range p {
		out[i] = b ^ Key
	}
	return out
}
