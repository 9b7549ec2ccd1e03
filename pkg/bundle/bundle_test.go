package bundle

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/jchantrell/assetzip/pkg/xorio"
	"github.com/klauspost/compress/zip"
)

// buildZip returns a zip holding files with the given method. Directory
// names end with "/" and get no content.
func buildZip(t *testing.T, method uint16, files map[string]string, order ...string) []byte {
	t.Helper()

	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	RegisterCompressors(zw)

	for _, name := range order {
		header := &zip.FileHeader{Name: name, Method: method}
		if name[len(name)-1] == '/' {
			header.Method = zip.Store
		}
		w, err := zw.CreateHeader(header)
		if err != nil {
			t.Fatalf("CreateHeader(%s): %v", name, err)
		}
		if _, err := w.Write([]byte(files[name])); err != nil {
			t.Fatalf("write %s: %v", name, err)
		}
	}
	if err := zw.Close(); err != nil {
		t.Fatalf("zip close: %v", err)
	}
	return buf.Bytes()
}

func writeFile(t *testing.T, path string, data []byte) {
	t.Helper()
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatal(err)
	}
}

func obfuscate(data []byte) []byte {
	out := bytes.Clone(data)
	xorio.Apply(out)
	return out
}

func TestLocate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		files      []string
		wantOK     bool
		wantFile   string
		obfuscated bool
	}{
		{name: "absent", wantOK: false},
		{name: "plain only", files: []string{"assets.zip"}, wantOK: true, wantFile: "assets.zip"},
		{name: "obfuscated only", files: []string{"assets.bin"}, wantOK: true, wantFile: "assets.bin", obfuscated: true},
		{name: "both prefers bin", files: []string{"assets.zip", "assets.bin"}, wantOK: true, wantFile: "assets.bin", obfuscated: true},
		{name: "other base name ignored", files: []string{"other.zip"}, wantOK: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			dir := t.TempDir()
			for _, f := range tt.files {
				writeFile(t, filepath.Join(dir, f), []byte("x"))
			}

			c, ok := Locate(dir, "assets")
			if ok != tt.wantOK {
				t.Fatalf("ok = %v, want %v", ok, tt.wantOK)
			}
			if !ok {
				return
			}
			if c.Path != filepath.Join(dir, tt.wantFile) {
				t.Errorf("path = %s, want %s", c.Path, tt.wantFile)
			}
			if c.Obfuscated != tt.obfuscated {
				t.Errorf("obfuscated = %v, want %v", c.Obfuscated, tt.obfuscated)
			}
		})
	}
}

func TestLocate_IgnoresDirectories(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	if err := os.Mkdir(filepath.Join(dir, "assets.bin"), 0o755); err != nil {
		t.Fatal(err)
	}
	writeFile(t, filepath.Join(dir, "assets.zip"), []byte("x"))

	c, ok := Locate(dir, "assets")
	if !ok || c.Obfuscated {
		t.Fatalf("got %+v, %v; want plain candidate", c, ok)
	}
}

func TestOpen_ReadsEveryCompression(t *testing.T) {
	t.Parallel()

	files := map[string]string{
		"a.txt":     "alpha alpha alpha alpha",
		"sub/":      "",
		"sub/b.txt": string(bytes.Repeat([]byte("bravo "), 500)),
	}
	order := []string{"a.txt", "sub/", "sub/b.txt"}

	for _, method := range []Compression{None, Deflate, Bzip2} {
		for _, obf := range []bool{false, true} {
			name := method.String()
			if obf {
				name += "/obfuscated"
			}
			t.Run(name, func(t *testing.T) {
				t.Parallel()

				data := buildZip(t, method.Method(), files, order...)
				ext := ExtPlain
				if obf {
					data = obfuscate(data)
					ext = ExtObfuscated
				}
				path := filepath.Join(t.TempDir(), "assets"+ext)
				writeFile(t, path, data)

				a, err := Open(Candidate{Path: path, Obfuscated: obf})
				if err != nil {
					t.Fatalf("Open: %v", err)
				}
				defer a.Close()

				for _, entry := range []string{"a.txt", "sub/b.txt"} {
					got, err := a.ReadEntry(entry)
					if err != nil {
						t.Fatalf("ReadEntry(%s): %v", entry, err)
					}
					if string(got) != files[entry] {
						t.Errorf("ReadEntry(%s) content mismatch", entry)
					}
				}

				entries := a.Entries()
				if len(entries) != 3 {
					t.Fatalf("Entries() = %d, want 3", len(entries))
				}
				if !entries[1].IsDir || entries[1].Name != "sub/" {
					t.Errorf("entries[1] = %+v, want directory sub/", entries[1])
				}
				if entries[0].Method != method.Method() {
					t.Errorf("method = %d, want %d", entries[0].Method, method.Method())
				}
			})
		}
	}
}

func TestReadEntry_Missing(t *testing.T) {
	t.Parallel()

	data := buildZip(t, zip.Store, map[string]string{"a.txt": "a"}, "a.txt")
	a, err := OpenReaderAt(bytes.NewReader(data), int64(len(data)), false)
	if err != nil {
		t.Fatalf("OpenReaderAt: %v", err)
	}

	_, err = a.ReadEntry("missing/path")
	if !errors.Is(err, ErrEntryNotFound) {
		t.Fatalf("err = %v, want ErrEntryNotFound", err)
	}
	if _, ok := a.Lookup("a.txt"); !ok {
		t.Fatal("Lookup(a.txt) failed")
	}
}

func TestOpen_Malformed(t *testing.T) {
	t.Parallel()

	valid := buildZip(t, zip.Deflate, map[string]string{"a.txt": "hello"}, "a.txt")

	tests := []struct {
		name string
		data []byte
		obf  bool
	}{
		{name: "garbage", data: []byte("this is not a zip file at all")},
		{name: "empty", data: nil},
		{name: "truncated", data: valid[:len(valid)-10]},
		{name: "plain bytes read as obfuscated", data: valid, obf: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			path := filepath.Join(t.TempDir(), "assets.zip")
			writeFile(t, path, tt.data)

			_, err := Open(Candidate{Path: path, Obfuscated: tt.obf})
			if !errors.Is(err, ErrArchiveOpen) {
				t.Fatalf("err = %v, want ErrArchiveOpen", err)
			}
		})
	}
}

func TestEntryName(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in   string
		want string
	}{
		{"a.txt", "a.txt"},
		{"sub/b.txt", "sub/b.txt"},
		{"./sub/b.txt", "sub/b.txt"},
		{"/sub/b.txt", "sub/b.txt"},
		{"sub//b.txt", "sub/b.txt"},
		{"sub/", "sub"},
		{"", ""},
		{".", ""},
	}
	for _, tt := range tests {
		if got := EntryName(tt.in); got != tt.want {
			t.Errorf("EntryName(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestEntryName_PanicsOnInvalidUTF8(t *testing.T) {
	t.Parallel()

	defer func() {
		if recover() == nil {
			t.Fatal("expected panic")
		}
	}()
	EntryName("bad\xffname")
}

func TestParseCompression(t *testing.T) {
	t.Parallel()

	for _, c := range []Compression{None, Deflate, Bzip2} {
		got, err := ParseCompression(c.String())
		if err != nil || got != c {
			t.Errorf("ParseCompression(%q) = %v, %v", c.String(), got, err)
		}
	}
	for _, bad := range []string{"", "zstd", "Bzip2", "DEFLATE"} {
		if _, err := ParseCompression(bad); !errors.Is(err, ErrInvalidCompression) {
			t.Errorf("ParseCompression(%q) err = %v, want ErrInvalidCompression", bad, err)
		}
	}
}

func TestConfig(t *testing.T) {
	t.Parallel()

	cfg := DefaultConfig()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("default config invalid: %v", err)
	}
	if cfg.BaseName != "assets" || cfg.Compression != Bzip2 || cfg.Obfuscate {
		t.Errorf("unexpected defaults: %+v", cfg)
	}
	if cfg.FileName() != "assets.zip" {
		t.Errorf("FileName() = %s", cfg.FileName())
	}
	cfg.Obfuscate = true
	if cfg.FileName() != "assets.bin" {
		t.Errorf("FileName() = %s", cfg.FileName())
	}

	for _, name := range []string{"", "a/b", `a\b`, ".."} {
		bad := DefaultConfig()
		bad.BaseName = name
		if err := bad.Validate(); !errors.Is(err, ErrInvalidBaseName) {
			t.Errorf("Validate(%q) err = %v, want ErrInvalidBaseName", name, err)
		}
	}

	noOut := DefaultConfig()
	noOut.OutDir = ""
	if err := noOut.Validate(); !errors.Is(err, ErrInvalidOutDir) {
		t.Errorf("Validate(empty OutDir) err = %v, want ErrInvalidOutDir", err)
	}
}
