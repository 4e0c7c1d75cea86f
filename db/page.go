package db

import (
	"bytes"
	"fmt"
	"io"
	"math"

	"github.com/pkg/errors"
	"go.uber.org/atomic"
)

// DefaultPageSize is the page size used unless SetPageSize changes it.
const DefaultPageSize = 4096

var pageSize = atomic.NewInt32(DefaultPageSize)

// PageSize returns the process-wide page size in bytes.
func PageSize() int {
	return int(pageSize.Load())
}

// SetPageSize changes the process-wide page size. It must be called before
// any heap file is read.
func SetPageSize(n int) error {
	if n <= 0 || n > math.MaxInt32 {
		return errors.Errorf("db: invalid page size %d", n)
	}
	pageSize.Store(int32(n))
	return nil
}

// ResetPageSize restores DefaultPageSize.
func ResetPageSize() {
	pageSize.Store(DefaultPageSize)
}

// PageID identifies a page within a heap file.
type PageID struct {
	FileID int
	PageNo int
}

func (pid PageID) String() string {
	return fmt.Sprintf("page(%d:%d)", pid.FileID, pid.PageNo)
}

// Page is a unit of caching and locking.
type Page interface {
	ID() PageID
	Iterator() TupleIterator
}

// TupleIterator walks the live tuples of a single page.
type TupleIterator interface {
	HasNext() bool
	Next() (*Tuple, error)
}

// numSlots is the number of tuples of the given byte size that fit on a page
// together with one header bit each.
func numSlots(tupleSize int) int {
	return (PageSize() * 8) / (tupleSize*8 + 1)
}

func headerSize(slots int) int {
	return (slots + 7) / 8
}

// HeapPage is a page decoded into a presence bitmap and a slot array.
//
//	+--------------+--------+--------+-----+
//	| slot bitmap  | slot 0 | slot 1 | ... |
//	+--------------+--------+--------+-----+
//
// Bit i%8 of header byte i/8 is set when slot i holds a tuple.
type HeapPage struct {
	id     PageID
	desc   *TupleDesc
	header []byte
	tuples []*Tuple
}

// NewHeapPage decodes buf, which must be exactly one page long.
func NewHeapPage(id PageID, buf []byte, td *TupleDesc) (*HeapPage, error) {
	if len(buf) != PageSize() {
		return nil, errors.Wrapf(ErrInvalidPage, "%s: %d bytes, want %d", id, len(buf), PageSize())
	}
	slots := numSlots(td.Size())
	if slots == 0 {
		return nil, errors.Wrapf(ErrInvalidPage, "tuple of %d bytes does not fit a page", td.Size())
	}
	hdrSize := headerSize(slots)
	page := &HeapPage{
		id:     id,
		desc:   td,
		header: make([]byte, hdrSize),
		tuples: make([]*Tuple, slots),
	}
	copy(page.header, buf[:hdrSize])

	r := bytes.NewReader(buf[hdrSize:])
	for i := 0; i < slots; i++ {
		if !page.IsSlotUsed(i) {
			if _, err := r.Seek(int64(td.Size()), io.SeekCurrent); err != nil {
				return nil, err
			}
			continue
		}
		tup := NewTuple(td)
		for j := 0; j < td.NumFields(); j++ {
			f, err := td.fields[j].Type.Parse(r)
			if err != nil {
				return nil, errors.Wrapf(ErrInvalidPage, "%s slot %d: %v", id, i, err)
			}
			tup.fields[j] = f
		}
		tup.SetRecordID(&RecordID{Page: id, Slot: i})
		page.tuples[i] = tup
	}
	return page, nil
}

// newEmptyHeapPage returns a page with no used slots.
func newEmptyHeapPage(id PageID, td *TupleDesc) *HeapPage {
	slots := numSlots(td.Size())
	return &HeapPage{
		id:     id,
		desc:   td,
		header: make([]byte, headerSize(slots)),
		tuples: make([]*Tuple, slots),
	}
}

// EmptyPageData returns the bytes of a page without tuples.
func EmptyPageData() []byte {
	return make([]byte, PageSize())
}

func (page *HeapPage) ID() PageID {
	return page.id
}

func (page *HeapPage) NumSlots() int {
	return len(page.tuples)
}

func (page *HeapPage) IsSlotUsed(i int) bool {
	if i < 0 || i >= len(page.tuples) {
		return false
	}
	return page.header[i/8]&(1<<uint(i%8)) != 0
}

func (page *HeapPage) markSlotUsed(i int, used bool) {
	if used {
		page.header[i/8] |= 1 << uint(i%8)
	} else {
		page.header[i/8] &^= 1 << uint(i%8)
	}
}

func (page *HeapPage) NumEmptySlots() int {
	n := 0
	for i := range page.tuples {
		if !page.IsSlotUsed(i) {
			n++
		}
	}
	return n
}

// addTuple stores t in the first free slot. Only the encoder uses it; heap
// files themselves are read-only.
func (page *HeapPage) addTuple(t *Tuple) error {
	if !page.desc.Equals(t.TupleDesc()) {
		return errors.Wrap(ErrSchema, "tuple schema does not match page")
	}
	if err := page.checkFields(t); err != nil {
		return err
	}
	for i := range page.tuples {
		if page.IsSlotUsed(i) {
			continue
		}
		page.markSlotUsed(i, true)
		page.tuples[i] = t
		return nil
	}
	return errors.Wrapf(ErrInvalidPage, "%s is full", page.id)
}

// checkFields rejects values whose type differs from the schema. Unset
// values are left to Serialize.
func (page *HeapPage) checkFields(t *Tuple) error {
	for j, f := range t.fields {
		if f == Unset {
			continue
		}
		if want := page.desc.fields[j].Type; f.Type() != want {
			return errors.Wrapf(ErrSchema, "field %d is %s, want %s", j, f.Type(), want)
		}
	}
	return nil
}

// Bytes encodes the page back into its on-disk form.
func (page *HeapPage) Bytes() ([]byte, error) {
	var buf bytes.Buffer
	buf.Grow(PageSize())
	buf.Write(page.header)
	zero := make([]byte, page.desc.Size())
	for i, t := range page.tuples {
		if !page.IsSlotUsed(i) {
			buf.Write(zero)
			continue
		}
		if err := page.checkFields(t); err != nil {
			return nil, errors.Wrapf(err, "slot %d", i)
		}
		for j, f := range t.fields {
			if err := f.Serialize(&buf); err != nil {
				return nil, errors.Wrapf(err, "slot %d field %d", i, j)
			}
		}
	}
	out := buf.Bytes()
	if len(out) < PageSize() {
		out = append(out, make([]byte, PageSize()-len(out))...)
	}
	return out, nil
}

func (page *HeapPage) Iterator() TupleIterator {
	return &slotIterator{page: page}
}

type slotIterator struct {
	page *HeapPage
	slot int
}

func (it *slotIterator) advance() {
	for it.slot < len(it.page.tuples) && !it.page.IsSlotUsed(it.slot) {
		it.slot++
	}
}

func (it *slotIterator) HasNext() bool {
	it.advance()
	return it.slot < len(it.page.tuples)
}

func (it *slotIterator) Next() (*Tuple, error) {
	if !it.HasNext() {
		return nil, ErrNoSuchElement
	}
	t := it.page.tuples[it.slot]
	it.slot++
	return t, nil
}
