package db

import (
	"io"
	"os"
	"path/filepath"

	"github.com/dsnet/golib/memfile"
	"github.com/pkg/errors"
	"github.com/spaolacci/murmur3"
)

// Sink is a handle to the bytes of a heap file.
type Sink interface {
	io.Closer
	io.ReaderAt
}

// Store hands out a fresh Sink for every read, so concurrent readers never
// share a handle or its position.
type Store interface {
	// Name is the canonical identity of the store. Equal names mean the same
	// underlying bytes.
	Name() string
	Open() (Sink, error)
	Size() (int64, error)
}

// FileStore is a Store backed by a file on disk.
type FileStore struct {
	path string
}

// NewFileStore returns a store for path. The file does not have to exist yet.
func NewFileStore(path string) *FileStore {
	return &FileStore{path: canonicalPath(path)}
}

func canonicalPath(path string) string {
	abs, err := filepath.Abs(path)
	if err != nil {
		return filepath.Clean(path)
	}
	if resolved, err := filepath.EvalSymlinks(abs); err == nil {
		return resolved
	}
	// The file may not exist yet; resolve its directory so the name is the
	// same before and after it is created.
	if dir, err := filepath.EvalSymlinks(filepath.Dir(abs)); err == nil {
		return filepath.Join(dir, filepath.Base(abs))
	}
	return abs
}

func (s *FileStore) Name() string {
	return s.path
}

func (s *FileStore) Open() (Sink, error) {
	return os.Open(s.path)
}

func (s *FileStore) Size() (int64, error) {
	stat, err := os.Stat(s.path)
	if err != nil {
		return 0, err
	}
	return stat.Size(), nil
}

// MemStore is a Store held in memory.
type MemStore struct {
	name string
	file *memfile.File
}

func NewMemStore(name string, data []byte) *MemStore {
	return &MemStore{name: name, file: memfile.New(data)}
}

func (s *MemStore) Name() string {
	return s.name
}

func (s *MemStore) Open() (Sink, error) {
	return memSink{s.file}, nil
}

func (s *MemStore) Size() (int64, error) {
	return int64(len(s.file.Bytes())), nil
}

// WriteAt modifies the stored bytes, growing them as needed.
func (s *MemStore) WriteAt(p []byte, off int64) (int, error) {
	return s.file.WriteAt(p, off)
}

type memSink struct {
	*memfile.File
}

func (memSink) Close() error {
	return nil
}

// storeID hashes a store name into a file id that is stable across runs.
func storeID(s Store) int {
	return int(murmur3.Sum32([]byte(s.Name())))
}

func readFull(sink Sink, buf []byte, off int64) error {
	n, err := sink.ReadAt(buf, off)
	if n == len(buf) {
		return nil
	}
	if err == nil || err == io.EOF {
		err = io.ErrUnexpectedEOF
	}
	return errors.Wrapf(err, "read %d of %d bytes at offset %d", n, len(buf), off)
}
