package xorio

import (
	"bytes"
	"errors"
	"io"
	"os"
	"path/filepath"
	"testing"
)

func allBytes() []byte {
	b := make([]byte, 256)
	for i := range b {
		b[i] = byte(i)
	}
	return b
}

func TestApply_RoundTrip(t *testing.T) {
	t.Parallel()

	original := allBytes()
	data := bytes.Clone(original)

	Apply(data)
	for i, b := range data {
		if b != original[i]^Key {
			t.Fatalf("byte %d: got %#x, want %#x", i, b, original[i]^Key)
		}
	}

	Apply(data)
	if !bytes.Equal(data, original) {
		t.Fatal("Apply twice is not the identity")
	}
}

func TestReadWrite_RoundTrip(t *testing.T) {
	t.Parallel()

	original := bytes.Repeat(allBytes(), 9)

	var encoded bytes.Buffer
	w := NewWriter(&encoded)
	if _, err := w.Write(original); err != nil {
		t.Fatalf("Write: %v", err)
	}
	if bytes.Equal(encoded.Bytes(), original) {
		t.Fatal("encoded bytes equal the input")
	}

	decoded, err := io.ReadAll(NewReader(bytes.NewReader(encoded.Bytes())))
	if err != nil {
		t.Fatalf("ReadAll: %v", err)
	}
	if !bytes.Equal(decoded, original) {
		t.Fatal("decode(encode(b)) != b")
	}
}

func TestWrite_DoesNotMutateInput(t *testing.T) {
	t.Parallel()

	input := []byte("hello bundle")
	want := bytes.Clone(input)

	var sink bytes.Buffer
	if _, err := NewWriter(&sink).Write(input); err != nil {
		t.Fatalf("Write: %v", err)
	}
	if !bytes.Equal(input, want) {
		t.Fatalf("input mutated: %q", input)
	}
}

func TestRead_OnlyTransformsReturnedBytes(t *testing.T) {
	t.Parallel()

	buf := []byte{0xAA, 0xAA, 0xAA, 0xAA}
	r := NewReader(bytes.NewReader([]byte{0x00, 0x01}))

	n, err := r.Read(buf)
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if n != 2 {
		t.Fatalf("n = %d, want 2", n)
	}
	want := []byte{0x55, 0x54, 0xAA, 0xAA}
	if !bytes.Equal(buf, want) {
		t.Fatalf("buf = %x, want %x", buf, want)
	}
}

func TestPositionIndependent(t *testing.T) {
	t.Parallel()

	plain := bytes.Repeat([]byte("0123456789abcdef"), 64)
	encoded := bytes.Clone(plain)
	Apply(encoded)

	x := New(bytes.NewReader(encoded))

	// Seek around and read pieces in an arbitrary order.
	offsets := []int64{700, 3, 512, 0, 1000, 17}
	for _, off := range offsets {
		if _, err := x.Seek(off, io.SeekStart); err != nil {
			t.Fatalf("Seek(%d): %v", off, err)
		}
		got := make([]byte, 13)
		n, err := io.ReadFull(x, got)
		if err != nil {
			t.Fatalf("ReadFull at %d: %v", off, err)
		}
		if !bytes.Equal(got[:n], plain[off:off+int64(n)]) {
			t.Fatalf("mismatch at offset %d", off)
		}

		at := make([]byte, 9)
		if _, err := x.ReadAt(at, off); err != nil {
			t.Fatalf("ReadAt(%d): %v", off, err)
		}
		if !bytes.Equal(at, plain[off:off+9]) {
			t.Fatalf("ReadAt mismatch at offset %d", off)
		}
	}
}

func TestSeekWriteInterleaving_File(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "out.bin")
	f, err := os.Create(path)
	if err != nil {
		t.Fatal(err)
	}
	x := New(f)

	plain := []byte("the quick brown fox jumps over the lazy dog")
	// Write the second half first, then the first half.
	half := int64(len(plain) / 2)
	if _, err := x.WriteAt(plain[half:], half); err != nil {
		t.Fatalf("WriteAt: %v", err)
	}
	if _, err := x.Seek(0, io.SeekStart); err != nil {
		t.Fatalf("Seek: %v", err)
	}
	if _, err := x.Write(plain[:half]); err != nil {
		t.Fatalf("Write: %v", err)
	}
	if err := x.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	want := bytes.Clone(plain)
	Apply(want)
	if !bytes.Equal(raw, want) {
		t.Fatalf("on-disk bytes differ from whole-sequence transform")
	}
}

func TestUnsupported(t *testing.T) {
	t.Parallel()

	x := NewWriter(&bytes.Buffer{})
	if _, err := x.ReadAt(make([]byte, 1), 0); !errors.Is(err, ErrUnsupported) {
		t.Fatalf("ReadAt err = %v, want ErrUnsupported", err)
	}
	if _, err := x.Seek(0, io.SeekStart); !errors.Is(err, ErrUnsupported) {
		t.Fatalf("Seek err = %v, want ErrUnsupported", err)
	}
	if err := x.Close(); err != nil {
		t.Fatalf("Close on non-closer: %v", err)
	}
}
