package db

import (
	"bufio"
	"io"
	"strings"

	"github.com/pkg/errors"
)

// EncodePage returns the on-disk bytes of one page holding tuples in slot
// order.
func EncodePage(td *TupleDesc, tuples []*Tuple) ([]byte, error) {
	page := newEmptyHeapPage(PageID{}, td)
	for _, t := range tuples {
		if err := page.addTuple(t); err != nil {
			return nil, err
		}
	}
	return page.Bytes()
}

// EncodeTuples writes tuples to w as a sequence of full pages and returns
// the number of pages written. No page is written for an empty input.
func EncodeTuples(w io.Writer, td *TupleDesc, tuples []*Tuple) (int, error) {
	perPage := numSlots(td.Size())
	if perPage == 0 {
		return 0, errors.Wrapf(ErrInvalidPage, "tuple of %d bytes does not fit a page", td.Size())
	}
	pages := 0
	for start := 0; start < len(tuples); start += perPage {
		end := start + perPage
		if end > len(tuples) {
			end = len(tuples)
		}
		buf, err := EncodePage(td, tuples[start:end])
		if err != nil {
			return pages, err
		}
		if _, err := w.Write(buf); err != nil {
			return pages, err
		}
		pages++
	}
	return pages, nil
}

// ParseRows reads one tuple per line of comma separated values. Blank lines
// are skipped.
func ParseRows(r io.Reader, td *TupleDesc) ([]*Tuple, error) {
	var tuples []*Tuple
	sc := bufio.NewScanner(r)
	line := 0
	for sc.Scan() {
		line++
		text := strings.TrimSpace(sc.Text())
		if text == "" {
			continue
		}
		values := strings.Split(text, ",")
		if len(values) != td.NumFields() {
			return nil, errors.Wrapf(ErrSchema, "line %d: %d values, want %d", line, len(values), td.NumFields())
		}
		t := NewTuple(td)
		for i, v := range values {
			f, err := ParseField(td.fields[i].Type, strings.TrimSpace(v))
			if err != nil {
				return nil, errors.Wrapf(err, "line %d", line)
			}
			t.fields[i] = f
		}
		tuples = append(tuples, t)
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}
	return tuples, nil
}
