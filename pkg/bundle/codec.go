package bundle

import (
	"io"

	"github.com/dsnet/compress/bzip2"
	"github.com/klauspost/compress/flate"
	"github.com/klauspost/compress/zip"
)

// Bzip2Decompressor is the zip.Decompressor registered for MethodBzip2.
func Bzip2Decompressor(r io.Reader) io.ReadCloser {
	br, err := bzip2.NewReader(r, nil)
	if err != nil {
		return errReadCloser{err}
	}
	return br
}

// Bzip2Compressor is the zip.Compressor registered for MethodBzip2.
func Bzip2Compressor(w io.Writer) (io.WriteCloser, error) {
	return bzip2.NewWriter(w, &bzip2.WriterConfig{Level: bzip2.DefaultCompression})
}

// DeflateCompressor is the zip.Compressor registered for zip.Deflate.
func DeflateCompressor(w io.Writer) (io.WriteCloser, error) {
	return flate.NewWriter(w, flate.DefaultCompression)
}

// RegisterCompressors installs the bundle codecs on a zip writer.
func RegisterCompressors(zw *zip.Writer) {
	zw.RegisterCompressor(zip.Deflate, DeflateCompressor)
	zw.RegisterCompressor(MethodBzip2, Bzip2Compressor)
}

type errReadCloser struct{ err error }

func (e errReadCloser) Read([]byte) (int, error) { return 0, e.err }
func (e errReadCloser) Close() error             { return nil }
