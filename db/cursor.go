package db

// FileIterator scans every tuple of a heap file, page by page in ascending
// page number order. Pages come from the page cache, never from the file
// directly, so the cache can apply its locking.
//
// An iterator left behind by a failed fetch must be discarded.
type FileIterator struct {
	file   *HeapFile
	txn    TransactionID
	cache  PageCache
	pageNo int
	cursor TupleIterator
}

func newFileIterator(file *HeapFile, txn TransactionID, cache PageCache) *FileIterator {
	return &FileIterator{
		file:  file,
		txn:   txn,
		cache: cache,
	}
}

func (it *FileIterator) fetch(pageNo int) (TupleIterator, error) {
	pid := PageID{FileID: it.file.ID(), PageNo: pageNo}
	page, err := it.cache.FetchPage(it.txn, pid, ReadOnly)
	if err != nil {
		return nil, err
	}
	return page.Iterator(), nil
}

// Open positions the iterator before the first tuple of page 0. Errors from
// the page cache are returned unchanged.
func (it *FileIterator) Open() error {
	it.pageNo = 0
	it.cursor = nil
	numPages, err := it.file.NumPages()
	if err != nil {
		return err
	}
	if numPages == 0 {
		it.cursor = emptyIterator{}
		return nil
	}
	cursor, err := it.fetch(0)
	if err != nil {
		return err
	}
	it.cursor = cursor
	return nil
}

// HasNext reports whether another tuple is available, moving on to the next
// non-empty page when the current one is used up. It returns false if the
// iterator is not open.
func (it *FileIterator) HasNext() (bool, error) {
	if it.cursor == nil {
		return false, nil
	}
	if it.cursor.HasNext() {
		return true, nil
	}
	numPages, err := it.file.NumPages()
	if err != nil {
		return false, err
	}
	for it.pageNo+1 < numPages {
		it.pageNo++
		cursor, err := it.fetch(it.pageNo)
		if err != nil {
			return false, err
		}
		it.cursor = cursor
		if cursor.HasNext() {
			return true, nil
		}
	}
	return false, nil
}

// Next returns the next tuple. Callers check HasNext first.
func (it *FileIterator) Next() (*Tuple, error) {
	if it.cursor == nil {
		return nil, ErrNoSuchElement
	}
	return it.cursor.Next()
}

func (it *FileIterator) Rewind() error {
	return it.Open()
}

// Close drops the current page. Cached pages stay in the cache.
func (it *FileIterator) Close() {
	it.pageNo = 0
	it.cursor = nil
}

type emptyIterator struct{}

func (emptyIterator) HasNext() bool { return false }

func (emptyIterator) Next() (*Tuple, error) { return nil, ErrNoSuchElement }
