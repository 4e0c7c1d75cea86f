package db

import (
	"strings"

	"github.com/pkg/errors"
)

// FieldDesc describes one field of a tuple. An empty Name means the field
// is anonymous.
type FieldDesc struct {
	Type Type
	Name string
}

func (fd FieldDesc) String() string {
	return fd.Type.String() + "(" + fd.Name + ")"
}

// TupleDesc is the schema of a tuple. It is immutable once built, so a single
// descriptor is shared by every tuple and page of a table.
type TupleDesc struct {
	fields []FieldDesc
	size   int
}

// NewTupleDesc builds a schema from types and optional names. When names is
// nil every field is anonymous; otherwise it must have one entry per type.
func NewTupleDesc(types []Type, names []string) (*TupleDesc, error) {
	if len(types) == 0 {
		return nil, errors.Wrap(ErrSchema, "schema needs at least one field")
	}
	if names != nil && len(names) != len(types) {
		return nil, errors.Wrapf(ErrSchema, "%d types but %d names", len(types), len(names))
	}
	fields := make([]FieldDesc, len(types))
	for i, t := range types {
		if !t.valid() {
			return nil, errors.Wrapf(ErrSchema, "unknown type %d", int(t))
		}
		fields[i].Type = t
		if names != nil {
			fields[i].Name = names[i]
		}
	}
	return newTupleDesc(fields), nil
}

func newTupleDesc(fields []FieldDesc) *TupleDesc {
	td := &TupleDesc{fields: fields}
	for _, fd := range fields {
		td.size += fd.Type.Len()
	}
	return td
}

// MergeTupleDesc returns a schema holding a's fields followed by b's.
func MergeTupleDesc(a, b *TupleDesc) *TupleDesc {
	fields := make([]FieldDesc, 0, len(a.fields)+len(b.fields))
	fields = append(fields, a.fields...)
	fields = append(fields, b.fields...)
	return newTupleDesc(fields)
}

// WithAlias returns a copy of td whose field names are prefixed with
// "alias.". An anonymous field becomes "alias.".
func (td *TupleDesc) WithAlias(alias string) *TupleDesc {
	fields := make([]FieldDesc, len(td.fields))
	for i, fd := range td.fields {
		fields[i] = FieldDesc{Type: fd.Type, Name: alias + "." + fd.Name}
	}
	return newTupleDesc(fields)
}

func (td *TupleDesc) NumFields() int {
	return len(td.fields)
}

func (td *TupleDesc) FieldType(i int) (Type, error) {
	if i < 0 || i >= len(td.fields) {
		return 0, errors.Wrapf(ErrIndexOutOfRange, "field %d of %d", i, len(td.fields))
	}
	return td.fields[i].Type, nil
}

func (td *TupleDesc) FieldName(i int) (string, error) {
	if i < 0 || i >= len(td.fields) {
		return "", errors.Wrapf(ErrIndexOutOfRange, "field %d of %d", i, len(td.fields))
	}
	return td.fields[i].Name, nil
}

// IndexOf returns the index of the first field called name.
func (td *TupleDesc) IndexOf(name string) (int, error) {
	if name == "" {
		return -1, errors.Wrap(ErrNotFound, "empty field name")
	}
	for i, fd := range td.fields {
		if fd.Name == name {
			return i, nil
		}
	}
	return -1, errors.Wrapf(ErrNotFound, "field %q", name)
}

// Size is the number of bytes one encoded tuple occupies.
func (td *TupleDesc) Size() int {
	return td.size
}

// Equals reports whether both schemas have the same field types in the same
// order. Names are ignored.
func (td *TupleDesc) Equals(other *TupleDesc) bool {
	if td == other {
		return true
	}
	if other == nil || len(td.fields) != len(other.fields) {
		return false
	}
	for i := range td.fields {
		if td.fields[i].Type != other.fields[i].Type {
			return false
		}
	}
	return true
}

func (td *TupleDesc) Fields() []FieldDesc {
	fields := make([]FieldDesc, len(td.fields))
	copy(fields, td.fields)
	return fields
}

func (td *TupleDesc) Types() []Type {
	types := make([]Type, len(td.fields))
	for i, fd := range td.fields {
		types[i] = fd.Type
	}
	return types
}

func (td *TupleDesc) String() string {
	parts := make([]string, len(td.fields))
	for i, fd := range td.fields {
		parts[i] = fd.String()
	}
	return strings.Join(parts, ",")
}

// ParseTupleDesc parses "name type, name type, ..." as used by catalog files
// and the command line. A bare type declares an anonymous field.
func ParseTupleDesc(s string) (*TupleDesc, error) {
	var (
		types []Type
		names []string
	)
	for _, col := range strings.Split(s, ",") {
		parts := strings.Fields(col)
		var name, typ string
		switch len(parts) {
		case 1:
			typ = parts[0]
		case 2:
			name, typ = parts[0], parts[1]
		default:
			return nil, errors.Wrapf(ErrSchema, "bad column %q", strings.TrimSpace(col))
		}
		t, err := ParseType(typ)
		if err != nil {
			return nil, err
		}
		types = append(types, t)
		names = append(names, name)
	}
	return NewTupleDesc(types, names)
}
