package db

import (
	"container/list"
	"time"

	"github.com/pkg/errors"
	"github.com/sasha-s/go-deadlock"
	"github.com/sirupsen/logrus"
)

const (
	DefaultCachePages  = 50
	DefaultLockTimeout = 500 * time.Millisecond

	lockRetryInterval = time.Millisecond
)

// Permission is the lock mode a page is requested with.
type Permission int

const (
	ReadOnly Permission = iota
	ReadWrite
)

func (p Permission) String() string {
	if p == ReadWrite {
		return "READ_WRITE"
	}
	return "READ_ONLY"
}

// PageCache hands out pages on behalf of transactions. FetchPage may block
// while waiting for a page lock and fails with ErrTransactionAborted when
// the lock cannot be granted.
type PageCache interface {
	FetchPage(txn TransactionID, pid PageID, perm Permission) (Page, error)
}

// FileResolver finds the file a page belongs to.
type FileResolver interface {
	DbFile(fileID int) (DbFile, error)
}

type pageList struct {
	lst      *list.List
	elements map[PageID]*list.Element
}

func newPageList() *pageList {
	l := &pageList{
		lst:      list.New(),
		elements: map[PageID]*list.Element{},
	}
	return l
}

func (l *pageList) len() int {
	return l.lst.Len()
}

func (l *pageList) find(id PageID) Page {
	e, ok := l.elements[id]
	if !ok {
		return nil
	}
	return e.Value.(Page)
}

func (l *pageList) clear() {
	l.lst.Init()
	l.elements = map[PageID]*list.Element{}
}

func (l *pageList) add(page Page) {
	e, ok := l.elements[page.ID()]
	if !ok {
		e := l.lst.PushFront(page)
		l.elements[page.ID()] = e
	} else {
		e.Value = page
		l.lst.MoveToFront(e)
	}
}

func (l *pageList) remove(id PageID) {
	e, ok := l.elements[id]
	if !ok {
		return
	}
	l.lst.Remove(e)
	delete(l.elements, id)
}

func (l *pageList) getLast() Page {
	last := l.lst.Back()
	if last == nil {
		return nil
	}
	return last.Value.(Page)
}

type pageLock struct {
	shared    map[TransactionID]struct{}
	exclusive TransactionID
}

type lockTable struct {
	pages map[PageID]*pageLock
	held  map[TransactionID]map[PageID]struct{}
}

func newLockTable() *lockTable {
	return &lockTable{
		pages: map[PageID]*pageLock{},
		held:  map[TransactionID]map[PageID]struct{}{},
	}
}

func (lt *lockTable) acquire(txn TransactionID, pid PageID, perm Permission) bool {
	lock, ok := lt.pages[pid]
	if !ok {
		lock = &pageLock{shared: map[TransactionID]struct{}{}}
		lt.pages[pid] = lock
	}
	if lock.exclusive != 0 && lock.exclusive != txn {
		return false
	}
	if perm == ReadWrite && lock.exclusive != txn {
		for other := range lock.shared {
			if other != txn {
				return false
			}
		}
		lock.exclusive = txn
	} else if lock.exclusive != txn {
		lock.shared[txn] = struct{}{}
	}
	pages, ok := lt.held[txn]
	if !ok {
		pages = map[PageID]struct{}{}
		lt.held[txn] = pages
	}
	pages[pid] = struct{}{}
	return true
}

func (lt *lockTable) release(txn TransactionID, pid PageID) {
	if lock, ok := lt.pages[pid]; ok {
		delete(lock.shared, txn)
		if lock.exclusive == txn {
			lock.exclusive = 0
		}
		if lock.exclusive == 0 && len(lock.shared) == 0 {
			delete(lt.pages, pid)
		}
	}
	if pages, ok := lt.held[txn]; ok {
		delete(pages, pid)
		if len(pages) == 0 {
			delete(lt.held, txn)
		}
	}
}

func (lt *lockTable) holds(txn TransactionID, pid PageID) bool {
	_, ok := lt.held[txn][pid]
	return ok
}

func (lt *lockTable) releaseAll(txn TransactionID) {
	for pid := range lt.held[txn] {
		lt.release(txn, pid)
	}
}

// BufferPool is an LRU page cache with page-level shared/exclusive locks.
// A lock request that cannot be granted within the lock timeout aborts the
// requesting transaction.
type BufferPool struct {
	mu          deadlock.Mutex
	resolver    FileResolver
	pages       *pageList
	locks       *lockTable
	maxSize     int
	lockTimeout time.Duration
}

var _ PageCache = (*BufferPool)(nil)

func NewBufferPool(resolver FileResolver, maxSize int) *BufferPool {
	if maxSize <= 0 {
		maxSize = DefaultCachePages
	}
	return &BufferPool{
		resolver:    resolver,
		pages:       newPageList(),
		locks:       newLockTable(),
		maxSize:     maxSize,
		lockTimeout: DefaultLockTimeout,
	}
}

func (bp *BufferPool) SetLockTimeout(d time.Duration) {
	bp.mu.Lock()
	defer bp.mu.Unlock()
	bp.lockTimeout = d
}

// lock blocks until txn holds pid in mode perm. It reports whether txn held
// any lock on pid before the call.
func (bp *BufferPool) lock(txn TransactionID, pid PageID, perm Permission) (bool, error) {
	bp.mu.Lock()
	deadline := time.Now().Add(bp.lockTimeout)
	held := bp.locks.holds(txn, pid)
	bp.mu.Unlock()
	for {
		bp.mu.Lock()
		ok := bp.locks.acquire(txn, pid, perm)
		bp.mu.Unlock()
		if ok {
			return held, nil
		}
		if time.Now().After(deadline) {
			logger.WithFields(logrus.Fields{
				"txn":  txn,
				"page": pid,
				"perm": perm,
			}).Debug("lock wait timed out")
			return held, errors.Wrapf(ErrTransactionAborted, "%s waiting for %s lock on %s", txn, perm, pid)
		}
		time.Sleep(lockRetryInterval)
	}
}

// FetchPage returns pid locked for txn. When the page cannot be read, a lock
// taken by this call is released again; locks txn held before are kept.
func (bp *BufferPool) FetchPage(txn TransactionID, pid PageID, perm Permission) (Page, error) {
	held, err := bp.lock(txn, pid, perm)
	if err != nil {
		return nil, err
	}

	bp.mu.Lock()
	defer bp.mu.Unlock()
	if page := bp.pages.find(pid); page != nil {
		bp.pages.add(page)
		return page, nil
	}
	file, err := bp.resolver.DbFile(pid.FileID)
	if err != nil {
		if !held {
			bp.locks.release(txn, pid)
		}
		return nil, errors.Wrapf(ErrStorage, "resolve %s: %v", pid, err)
	}
	page, err := file.ReadPage(pid)
	if err != nil {
		if !held {
			bp.locks.release(txn, pid)
		}
		return nil, err
	}
	if bp.pages.len() >= bp.maxSize {
		bp.evictPage()
	}
	bp.pages.add(page)
	logger.WithFields(logrus.Fields{"txn": txn, "page": pid}).Debug("page cached")
	return page, nil
}

// evictPage drops the least recently used page. Cached pages are never
// dirty, so nothing is written back.
func (bp *BufferPool) evictPage() {
	page := bp.pages.getLast()
	if page == nil {
		return
	}
	bp.pages.remove(page.ID())
	logger.WithField("page", page.ID()).Debug("page evicted")
}

// ReleasePage gives up txn's lock on pid before the transaction ends.
func (bp *BufferPool) ReleasePage(txn TransactionID, pid PageID) {
	bp.mu.Lock()
	defer bp.mu.Unlock()
	bp.locks.release(txn, pid)
}

func (bp *BufferPool) HoldsLock(txn TransactionID, pid PageID) bool {
	bp.mu.Lock()
	defer bp.mu.Unlock()
	return bp.locks.holds(txn, pid)
}

// TransactionComplete releases every lock held by txn.
func (bp *BufferPool) TransactionComplete(txn TransactionID) {
	bp.mu.Lock()
	defer bp.mu.Unlock()
	bp.locks.releaseAll(txn)
}

// DiscardPage removes pid from the cache without touching its locks.
func (bp *BufferPool) DiscardPage(pid PageID) {
	bp.mu.Lock()
	defer bp.mu.Unlock()
	bp.pages.remove(pid)
}

func (bp *BufferPool) NumCached() int {
	bp.mu.Lock()
	defer bp.mu.Unlock()
	return bp.pages.len()
}

// Reset empties the cache. Locks are kept.
func (bp *BufferPool) Reset() {
	bp.mu.Lock()
	defer bp.mu.Unlock()
	bp.pages.clear()
}
