// Package staging keeps request payloads in private temp files that are always removed.
package staging

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/google/uuid"
	"github.com/spf13/afero"
)

const (
	stageSuffix = ".stage"
)

type Stager struct {
	fs  afero.Fs
	dir string
}

// New creates a stager rooted at dir, an empty dir means a subdirectory of the os temp dir.
func New(fs afero.Fs, dir string) (*Stager, error) {
	if len(dir) == 0 {
		dir = filepath.Join(os.TempDir(), "davgate-staging")
	}
	if err := fs.MkdirAll(dir, 0700); err != nil {
		return nil, fmt.Errorf("create staging dir failed, dir:%s, err:%w", dir, err)
	}
	return &Stager{fs: fs, dir: dir}, nil
}

func (s *Stager) Dir() string {
	return s.dir
}

// File is a staged temp file, Release must be called on every path.
type File struct {
	afero.File
	fs   afero.Fs
	name string
	size int64
	once sync.Once
	rerr error
}

func (f *File) Size() int64 {
	return f.size
}

// Release closes and removes the temp file, calling it more than once is fine.
func (f *File) Release() error {
	f.once.Do(func() {
		_ = f.File.Close()
		if err := f.fs.Remove(f.name); err != nil && !os.IsNotExist(err) {
			f.rerr = fmt.Errorf("remove staged file failed, name:%s, err:%w", f.name, err)
		}
	})
	return f.rerr
}

func (s *Stager) create() (*File, error) {
	name := filepath.Join(s.dir, uuid.NewString()+stageSuffix)
	fd, err := s.fs.OpenFile(name, os.O_RDWR|os.O_CREATE|os.O_EXCL, 0600)
	if err != nil {
		return nil, fmt.Errorf("create staged file failed, err:%w", err)
	}
	return &File{File: fd, fs: s.fs, name: name}, nil
}

// Stage runs fill against a fresh temp file and rewinds it, failures leave nothing behind.
func (s *Stager) Stage(fill func(w io.Writer) error) (*File, error) {
	f, err := s.create()
	if err != nil {
		return nil, err
	}
	cw := &countWriter{w: f.File}
	if err := fill(cw); err != nil {
		_ = f.Release()
		return nil, err
	}
	if _, err := f.Seek(0, io.SeekStart); err != nil {
		_ = f.Release()
		return nil, fmt.Errorf("rewind staged file failed, err:%w", err)
	}
	f.size = cw.n
	return f, nil
}

// StageReader copies r into a temp file.
func (s *Stager) StageReader(r io.Reader) (*File, error) {
	return s.Stage(func(w io.Writer) error {
		if _, err := io.Copy(w, r); err != nil {
			return fmt.Errorf("copy stream to staged file failed, err:%w", err)
		}
		return nil
	})
}

// Sweep removes files left over by a previous process, it returns the file count and their total size.
func (s *Stager) Sweep() (int, int64, error) {
	ents, err := afero.ReadDir(s.fs, s.dir)
	if err != nil {
		return 0, 0, fmt.Errorf("read staging dir failed, err:%w", err)
	}
	cnt := 0
	var total int64
	for _, ent := range ents {
		if ent.IsDir() || !strings.HasSuffix(ent.Name(), stageSuffix) {
			continue
		}
		if err := s.fs.Remove(filepath.Join(s.dir, ent.Name())); err != nil {
			return cnt, total, fmt.Errorf("remove stale file failed, name:%s, err:%w", ent.Name(), err)
		}
		cnt++
		total += ent.Size()
	}
	return cnt, total, nil
}

type countWriter struct {
	w io.Writer
	n int64
}

func (c *countWriter) Write(p []byte) (int, error) {
	n, err := c.w.Write(p)
	c.n += int64(n)
	return n, err
}
