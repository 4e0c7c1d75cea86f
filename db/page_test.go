package db

import (
	"bytes"
	"encoding/binary"
	"errors"
	"strings"
	"testing"
	"unicode/utf8"

	"gotest.tools/v3/assert"
)

func TestPage(t *testing.T) {
	td := intDesc(t, "a", "b")
	slots := numSlots(td.Size())
	assert.Equal(t, 504, slots)
	hdrSize := headerSize(slots)
	assert.Equal(t, 63, hdrSize)

	buf := make([]byte, PageSize())
	buf[0] = 0x05 // slots 0 and 2
	put := func(slot int, a, b int32) {
		off := hdrSize + slot*td.Size()
		binary.BigEndian.PutUint32(buf[off:], uint32(a))
		binary.BigEndian.PutUint32(buf[off+4:], uint32(b))
	}
	put(0, 1, 2)
	put(1, 3, 4)
	put(2, 5, -6)

	pid := PageID{FileID: 9, PageNo: 3}
	page, err := NewHeapPage(pid, buf, td)
	assert.NilError(t, err)
	assert.Equal(t, pid, page.ID())
	assert.Assert(t, page.IsSlotUsed(0))
	assert.Assert(t, !page.IsSlotUsed(1))
	assert.Assert(t, page.IsSlotUsed(2))
	assert.Equal(t, slots-2, page.NumEmptySlots())

	var got []string
	var rids []RecordID
	it := page.Iterator()
	for it.HasNext() {
		tup, err := it.Next()
		assert.NilError(t, err)
		got = append(got, render(t, tup))
		rids = append(rids, *tup.RecordID())
	}
	assert.DeepEqual(t, []string{"1\t2\n", "5\t-6\n"}, got)
	assert.DeepEqual(t, []RecordID{{Page: pid, Slot: 0}, {Page: pid, Slot: 2}}, rids)

	_, err = it.Next()
	assert.Assert(t, errors.Is(err, ErrNoSuchElement))

	out, err := page.Bytes()
	assert.NilError(t, err)
	put(1, 0, 0)
	assert.DeepEqual(t, buf, out)
}

func TestPageStrings(t *testing.T) {
	td, err := NewTupleDesc([]Type{IntType, StringType}, nil)
	assert.NilError(t, err)
	long := make([]byte, StringLen+10)
	for i := range long {
		long[i] = 'x'
	}
	tuples := []*Tuple{
		makeTuple(t, td, IntField(1), StringField("hello")),
		makeTuple(t, td, IntField(2), StringField("")),
		makeTuple(t, td, IntField(3), StringField(long)),
	}
	data, err := EncodePage(td, tuples)
	assert.NilError(t, err)
	assert.Equal(t, PageSize(), len(data))

	page, err := NewHeapPage(PageID{}, data, td)
	assert.NilError(t, err)
	var got []string
	it := page.Iterator()
	for it.HasNext() {
		tup, err := it.Next()
		assert.NilError(t, err)
		got = append(got, render(t, tup))
	}
	assert.DeepEqual(t, []string{
		"1\thello\n",
		"2\t\n",
		"3\t" + string(long[:StringLen]) + "\n",
	}, got)
}

func TestEmptyPage(t *testing.T) {
	td := intDesc(t, "a")
	page, err := NewHeapPage(PageID{}, EmptyPageData(), td)
	assert.NilError(t, err)
	assert.Equal(t, page.NumSlots(), page.NumEmptySlots())
	assert.Assert(t, !page.Iterator().HasNext())
}

func TestPageBadSize(t *testing.T) {
	_, err := NewHeapPage(PageID{}, make([]byte, PageSize()-1), intDesc(t, "a"))
	assert.Assert(t, errors.Is(err, ErrInvalidPage))
}

func TestPageFull(t *testing.T) {
	td := intDesc(t, "a")
	rows := make([][]int32, numSlots(td.Size())+1)
	for i := range rows {
		rows[i] = []int32{int32(i)}
	}
	_, err := EncodePage(td, intRows(t, td, rows...))
	assert.Assert(t, errors.Is(err, ErrInvalidPage))
}

func TestPageSizeSetting(t *testing.T) {
	defer ResetPageSize()
	assert.NilError(t, SetPageSize(64))
	assert.Equal(t, 64, PageSize())
	td := intDesc(t, "a")
	assert.Equal(t, 15, numSlots(td.Size()))
	ResetPageSize()
	assert.Equal(t, DefaultPageSize, PageSize())

	for _, n := range []int{0, -1} {
		assert.ErrorContains(t, SetPageSize(n), "invalid page size")
		assert.Equal(t, DefaultPageSize, PageSize())
	}
}

func TestStringTruncatesOnRuneBoundary(t *testing.T) {
	s := strings.Repeat("x", StringLen-1) + "\u00e9"
	assert.Equal(t, StringLen+1, len(s))

	var buf bytes.Buffer
	assert.NilError(t, StringField(s).Serialize(&buf))
	f, err := StringType.Parse(&buf)
	assert.NilError(t, err)
	got := string(f.(StringField))
	assert.Equal(t, strings.Repeat("x", StringLen-1), got)
	assert.Assert(t, utf8.ValidString(got))

	exact := strings.Repeat("y", StringLen-2) + "\u00e9"
	buf.Reset()
	assert.NilError(t, StringField(exact).Serialize(&buf))
	f, err = StringType.Parse(&buf)
	assert.NilError(t, err)
	assert.Equal(t, StringField(exact), f)
}
