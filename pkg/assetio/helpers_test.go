package assetio_test

import (
	"bytes"
	"context"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"testing"

	"github.com/jchantrell/assetzip/pkg/bundle"
	"github.com/jchantrell/assetzip/pkg/xorio"
	"github.com/klauspost/compress/zip"
)

var (
	errWatch = errors.New("watch failed")
	errList  = errors.New("list failed")
)

// fakeSource is an in-memory Source that records every call.
type fakeSource struct {
	files    map[string][]byte
	dirs     map[string][]string
	listErr  error
	watchErr error

	mu    sync.Mutex
	calls []string
}

func newFakeSource(files map[string]string) *fakeSource {
	f := &fakeSource{
		files: make(map[string][]byte, len(files)),
		dirs:  make(map[string][]string),
	}
	for name, content := range files {
		f.files[name] = []byte(content)
		dir := filepath.ToSlash(filepath.Dir(name))
		if dir == "." {
			dir = ""
		}
		f.dirs[dir] = append(f.dirs[dir], name)
	}
	for dir := range f.dirs {
		sort.Strings(f.dirs[dir])
	}
	return f
}

func (f *fakeSource) record(call string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, call)
}

func (f *fakeSource) Calls() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.calls...)
}

func (f *fakeSource) Load(_ context.Context, p string) ([]byte, error) {
	f.record("load " + p)
	data, ok := f.files[p]
	if !ok {
		return nil, &fs.PathError{Op: "open", Path: p, Err: fs.ErrNotExist}
	}
	return data, nil
}

func (f *fakeSource) ReadDirectory(p string) ([]string, error) {
	f.record("readdir " + p)
	if f.listErr != nil {
		return nil, f.listErr
	}
	entries, ok := f.dirs[p]
	if !ok {
		return nil, &fs.PathError{Op: "readdir", Path: p, Err: fs.ErrNotExist}
	}
	return entries, nil
}

func (f *fakeSource) IsDirectory(p string) bool {
	f.record("isdir " + p)
	_, ok := f.dirs[p]
	return ok
}

func (f *fakeSource) WatchPath(p string) error {
	f.record("watch " + p)
	return f.watchErr
}

func (f *fakeSource) WatchAll() error {
	f.record("watchall")
	return f.watchErr
}

// writeBundle writes a deflated zip holding files to dir/name. Names ending
// in "/" become directory entries. The bytes are obfuscated when name ends in .bin.
func writeBundle(t *testing.T, dir, name string, files map[string]string) string {
	t.Helper()

	names := make([]string, 0, len(files))
	for n := range files {
		names = append(names, n)
	}
	sort.Strings(names)

	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	bundle.RegisterCompressors(zw)
	for _, n := range names {
		method := zip.Deflate
		if strings.HasSuffix(n, "/") {
			method = zip.Store
		}
		w, err := zw.CreateHeader(&zip.FileHeader{Name: n, Method: method})
		if err != nil {
			t.Fatalf("CreateHeader(%s): %v", n, err)
		}
		if _, err := w.Write([]byte(files[n])); err != nil {
			t.Fatalf("write %s: %v", n, err)
		}
	}
	if err := zw.Close(); err != nil {
		t.Fatalf("zip close: %v", err)
	}

	data := buf.Bytes()
	if strings.HasSuffix(name, bundle.ExtObfuscated) {
		xorio.Apply(data)
	}

	p := filepath.Join(dir, name)
	if err := os.WriteFile(p, data, 0o644); err != nil {
		t.Fatal(err)
	}
	return p
}

func testConfig(dir string) bundle.Config {
	cfg := bundle.DefaultConfig()
	cfg.SearchDir = dir
	return cfg
}

func mustWriteFile(t *testing.T, p, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(p, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
}
