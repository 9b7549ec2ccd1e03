package assetio

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"io/fs"
	"path"
	"time"
)

// sourceFS implements fs.FS over any Source
type sourceFS struct {
	ctx context.Context
	src Source
}

// NewFS exposes src as a read-only fs.FS. Files are read with src.Load using
// ctx; directories are detected with IsDirectory and listed with
// ReadDirectory. Through a Resolver this means files come from the bundle
// when present while directory listings come from the fallback.
//
// ctx is held for the lifetime of the returned FS, since fs.FS methods take
// no context; canceling it fails every later read.
func NewFS(ctx context.Context, src Source) fs.ReadDirFS {
	return &sourceFS{ctx: ctx, src: src}
}

func (s *sourceFS) Open(name string) (fs.File, error) {
	if !fs.ValidPath(name) {
		return nil, &fs.PathError{Op: "open", Path: name, Err: fs.ErrInvalid}
	}

	if name == "." || s.src.IsDirectory(name) {
		return &sourceDir{fs: s, name: name}, nil
	}

	data, err := s.src.Load(s.ctx, name)
	if err != nil {
		return nil, &fs.PathError{Op: "open", Path: name, Err: err}
	}

	return &sourceFile{
		name:   name,
		size:   int64(len(data)),
		reader: bytes.NewReader(data),
	}, nil
}

func (s *sourceFS) ReadDir(name string) ([]fs.DirEntry, error) {
	if !fs.ValidPath(name) {
		return nil, &fs.PathError{Op: "readdir", Path: name, Err: fs.ErrInvalid}
	}

	paths, err := s.src.ReadDirectory(name)
	if err != nil {
		return nil, &fs.PathError{Op: "readdir", Path: name, Err: err}
	}

	entries := make([]fs.DirEntry, 0, len(paths))
	for _, p := range paths {
		entries = append(entries, &sourceDirEnt{
			name:  path.Base(p),
			isDir: s.src.IsDirectory(p),
		})
	}
	return entries, nil
}

// sourceFile implements fs.File for loaded assets
type sourceFile struct {
	name   string
	size   int64
	reader *bytes.Reader
}

func (f *sourceFile) Read(p []byte) (int, error) {
	return f.reader.Read(p)
}

func (f *sourceFile) Seek(offset int64, whence int) (int64, error) {
	return f.reader.Seek(offset, whence)
}

func (f *sourceFile) ReadAt(p []byte, off int64) (int, error) {
	return f.reader.ReadAt(p, off)
}

func (f *sourceFile) Close() error {
	return nil
}

func (f *sourceFile) Stat() (fs.FileInfo, error) {
	return &sourceInfo{name: path.Base(f.name), size: f.size}, nil
}

// sourceDir implements fs.ReadDirFile for source directories
type sourceDir struct {
	fs      *sourceFS
	name    string
	entries []fs.DirEntry
	loaded  bool
	offset  int
}

func (d *sourceDir) Read([]byte) (int, error) {
	return 0, &fs.PathError{Op: "read", Path: d.name, Err: fmt.Errorf("is a directory")}
}

func (d *sourceDir) Close() error {
	return nil
}

func (d *sourceDir) Stat() (fs.FileInfo, error) {
	return &sourceInfo{name: path.Base(d.name), isDir: true}, nil
}

func (d *sourceDir) ReadDir(n int) ([]fs.DirEntry, error) {
	if !d.loaded {
		entries, err := d.fs.ReadDir(d.name)
		if err != nil {
			return nil, err
		}
		d.entries = entries
		d.loaded = true
	}

	remaining := d.entries[d.offset:]
	if n <= 0 {
		d.offset = len(d.entries)
		return remaining, nil
	}
	if len(remaining) == 0 {
		return nil, io.EOF
	}
	if n > len(remaining) {
		n = len(remaining)
	}
	d.offset += n
	return remaining[:n], nil
}

// sourceInfo implements fs.FileInfo
type sourceInfo struct {
	name  string
	size  int64
	isDir bool
}

func (i *sourceInfo) Name() string { return i.name }
func (i *sourceInfo) Size() int64  { return i.size }

func (i *sourceInfo) Mode() fs.FileMode {
	if i.isDir {
		return 0o444 | fs.ModeDir
	}
	return 0o444
}

func (i *sourceInfo) ModTime() time.Time { return time.Unix(0, 0) }
func (i *sourceInfo) IsDir() bool        { return i.isDir }
func (i *sourceInfo) Sys() any           { return nil }

// sourceDirEnt implements fs.DirEntry
type sourceDirEnt struct {
	name  string
	isDir bool
}

func (e *sourceDirEnt) Name() string { return e.name }
func (e *sourceDirEnt) IsDir() bool  { return e.isDir }

func (e *sourceDirEnt) Type() fs.FileMode {
	if e.isDir {
		return fs.ModeDir
	}
	return 0
}

func (e *sourceDirEnt) Info() (fs.FileInfo, error) {
	return &sourceInfo{name: e.name, isDir: e.isDir}, nil
}
