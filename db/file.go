package db

import (
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"go.uber.org/multierr"
)

// DbFile is the storage of one table.
type DbFile interface {
	ID() int
	TupleDesc() *TupleDesc
	NumPages() (int, error)
	ReadPage(pid PageID) (Page, error)
	WritePage(page Page) error
	InsertTuple(txn TransactionID, t *Tuple) ([]Page, error)
	DeleteTuple(txn TransactionID, t *Tuple) (Page, error)
	Iterator(txn TransactionID, cache PageCache) *FileIterator
}

// HeapFile stores the tuples of a table, unordered, in fixed-size pages.
// It keeps no cursor state and opens a new handle for every read.
type HeapFile struct {
	store Store
	desc  *TupleDesc
	id    int
}

var _ DbFile = (*HeapFile)(nil)

// OpenHeapFile returns a heap file for the file at path. The file is not
// read until a page is requested.
func OpenHeapFile(path string, td *TupleDesc) *HeapFile {
	return NewHeapFile(NewFileStore(path), td)
}

func NewHeapFile(store Store, td *TupleDesc) *HeapFile {
	return &HeapFile{
		store: store,
		desc:  td,
		id:    storeID(store),
	}
}

// ID is derived from the canonical path of the file and does not change
// between runs.
func (file *HeapFile) ID() int {
	return file.id
}

func (file *HeapFile) Store() Store {
	return file.store
}

func (file *HeapFile) TupleDesc() *TupleDesc {
	return file.desc
}

// NumPages is recomputed from the current file length on every call. Trailing
// bytes that do not fill a whole page are not counted.
func (file *HeapFile) NumPages() (int, error) {
	size, err := file.store.Size()
	if err != nil {
		return 0, &IOError{Op: "stat", Page: PageID{FileID: file.id}, Err: err}
	}
	return int(size / int64(PageSize())), nil
}

func (file *HeapFile) ReadPage(pid PageID) (Page, error) {
	page, err := file.readHeapPage(pid)
	if err != nil {
		return nil, err
	}
	return page, nil
}

func (file *HeapFile) readHeapPage(pid PageID) (page *HeapPage, err error) {
	if pid.FileID != file.id {
		return nil, errors.Wrapf(ErrInvalidPage, "%s does not belong to file %d", pid, file.id)
	}
	if pid.PageNo < 0 {
		return nil, errors.Wrapf(ErrIndexOutOfRange, "page number %d", pid.PageNo)
	}
	sink, err := file.store.Open()
	if err != nil {
		return nil, &IOError{Op: "open", Page: pid, Err: err}
	}
	defer func() {
		err = multierr.Append(err, sink.Close())
	}()

	off := int64(pid.PageNo) * int64(PageSize())
	buf := make([]byte, PageSize())
	if err := readFull(sink, buf, off); err != nil {
		logger.WithFields(logrus.Fields{
			"file": file.store.Name(),
			"page": pid.PageNo,
		}).WithError(err).Debug("page read failed")
		return nil, &IOError{Op: "read", Page: pid, Err: err}
	}
	return NewHeapPage(pid, buf, file.desc)
}

// WritePage is not supported; heap files are read-only.
func (file *HeapFile) WritePage(page Page) error {
	return errors.Wrapf(ErrNotSupported, "write %s", page.ID())
}

// InsertTuple is not supported; heap files are read-only.
func (file *HeapFile) InsertTuple(txn TransactionID, t *Tuple) ([]Page, error) {
	return nil, errors.Wrap(ErrNotSupported, "insert tuple")
}

// DeleteTuple is not supported; heap files are read-only.
func (file *HeapFile) DeleteTuple(txn TransactionID, t *Tuple) (Page, error) {
	return nil, errors.Wrap(ErrNotSupported, "delete tuple")
}

// Iterator returns a closed scan over the file. Pages are fetched through
// cache on behalf of txn.
func (file *HeapFile) Iterator(txn TransactionID, cache PageCache) *FileIterator {
	return newFileIterator(file, txn, cache)
}
