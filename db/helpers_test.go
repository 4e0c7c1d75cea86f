package db

import (
	"bytes"
	"testing"

	"gotest.tools/v3/assert"
)

func intDesc(t *testing.T, names ...string) *TupleDesc {
	types := make([]Type, len(names))
	for i := range types {
		types[i] = IntType
	}
	td, err := NewTupleDesc(types, names)
	assert.NilError(t, err)
	return td
}

func makeTuple(t *testing.T, td *TupleDesc, values ...Field) *Tuple {
	tup := NewTuple(td)
	for i, v := range values {
		assert.NilError(t, tup.SetField(i, v))
	}
	return tup
}

func intRows(t *testing.T, td *TupleDesc, rows ...[]int32) []*Tuple {
	tuples := make([]*Tuple, len(rows))
	for i, row := range rows {
		fields := make([]Field, len(row))
		for j, v := range row {
			fields[j] = IntField(v)
		}
		tuples[i] = makeTuple(t, td, fields...)
	}
	return tuples
}

// pagedData encodes each element of pages as exactly one page.
func pagedData(t *testing.T, td *TupleDesc, pages ...[]*Tuple) []byte {
	var buf bytes.Buffer
	for _, tuples := range pages {
		data, err := EncodePage(td, tuples)
		assert.NilError(t, err)
		buf.Write(data)
	}
	return buf.Bytes()
}

func render(t *testing.T, tup *Tuple) string {
	s, err := tup.Render()
	assert.NilError(t, err)
	return s
}

// fakeCache reads straight from the file and records every fetch.
type fakeCache struct {
	file    DbFile
	fetched []int
	failAt  int
	err     error
}

func newFakeCache(file DbFile) *fakeCache {
	return &fakeCache{file: file, failAt: -1}
}

func (c *fakeCache) FetchPage(txn TransactionID, pid PageID, perm Permission) (Page, error) {
	c.fetched = append(c.fetched, pid.PageNo)
	if pid.PageNo == c.failAt {
		return nil, c.err
	}
	return c.file.ReadPage(pid)
}

func drain(t *testing.T, it interface {
	HasNext() (bool, error)
	Next() (*Tuple, error)
}) []string {
	var out []string
	for {
		ok, err := it.HasNext()
		assert.NilError(t, err)
		if !ok {
			return out
		}
		tup, err := it.Next()
		assert.NilError(t, err)
		out = append(out, render(t, tup))
	}
}
