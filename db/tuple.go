package db

import (
	"strings"

	"github.com/pkg/errors"
)

// RecordID locates a tuple on disk.
type RecordID struct {
	Page PageID
	Slot int
}

// Tuple is a row of field values bound to a schema. The schema is shared and
// never modified through the tuple.
type Tuple struct {
	desc   *TupleDesc
	fields []Field
	rid    *RecordID
}

// NewTuple returns a tuple with every field unset.
func NewTuple(td *TupleDesc) *Tuple {
	fields := make([]Field, td.NumFields())
	for i := range fields {
		fields[i] = Unset
	}
	return &Tuple{desc: td, fields: fields}
}

func (t *Tuple) TupleDesc() *TupleDesc {
	return t.desc
}

// RecordID returns the location of the tuple, or nil if it has none.
func (t *Tuple) RecordID() *RecordID {
	return t.rid
}

func (t *Tuple) SetRecordID(rid *RecordID) {
	t.rid = rid
}

func (t *Tuple) SetField(i int, f Field) error {
	if i < 0 || i >= len(t.fields) {
		return errors.Wrapf(ErrIndexOutOfRange, "field %d of %d", i, len(t.fields))
	}
	if f == nil {
		f = Unset
	}
	t.fields[i] = f
	return nil
}

// Field returns the value of field i, which is Unset if it was never assigned.
func (t *Tuple) Field(i int) (Field, error) {
	if i < 0 || i >= len(t.fields) {
		return nil, errors.Wrapf(ErrIndexOutOfRange, "field %d of %d", i, len(t.fields))
	}
	return t.fields[i], nil
}

// Fields calls fn for each field in order until fn returns false. Values are
// read as the iteration reaches them.
func (t *Tuple) Fields(fn func(i int, f Field) bool) {
	for i := 0; i < len(t.fields); i++ {
		if !fn(i, t.fields[i]) {
			return
		}
	}
}

// Render returns the tab separated field values followed by a newline.
func (t *Tuple) Render() (string, error) {
	var sb strings.Builder
	for i, f := range t.fields {
		if f == Unset {
			return "", errors.Wrapf(ErrNullField, "field %d", i)
		}
		if i > 0 {
			sb.WriteByte('\t')
		}
		sb.WriteString(f.String())
	}
	sb.WriteByte('\n')
	return sb.String(), nil
}

func (t *Tuple) String() string {
	s, err := t.Render()
	if err != nil {
		return err.Error()
	}
	return s
}
