package db

import (
	"encoding/binary"
	"io"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/pkg/errors"
)

// StringLen is the fixed number of payload bytes stored for a string field.
const StringLen = 128

// Type is the type of a single tuple field.
type Type int

const (
	IntType Type = iota
	StringType
)

func (t Type) valid() bool {
	return t == IntType || t == StringType
}

// Len returns the number of bytes a field of this type occupies on a page.
func (t Type) Len() int {
	switch t {
	case IntType:
		return 4
	case StringType:
		return StringLen + 4
	}
	panic("db: unknown type " + strconv.Itoa(int(t)))
}

func (t Type) String() string {
	switch t {
	case IntType:
		return "INT_TYPE"
	case StringType:
		return "STRING_TYPE"
	}
	return "UNKNOWN_TYPE(" + strconv.Itoa(int(t)) + ")"
}

// ParseType maps a type keyword ("int", "string") to a Type.
func ParseType(s string) (Type, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "int", "int_type":
		return IntType, nil
	case "string", "string_type":
		return StringType, nil
	}
	return 0, errors.Wrapf(ErrSchema, "unknown type %q", s)
}

// Parse reads one encoded field of this type from r.
func (t Type) Parse(r io.Reader) (Field, error) {
	switch t {
	case IntType:
		var v int32
		if err := binary.Read(r, binary.BigEndian, &v); err != nil {
			return nil, err
		}
		return IntField(v), nil
	case StringType:
		var n int32
		if err := binary.Read(r, binary.BigEndian, &n); err != nil {
			return nil, err
		}
		buf := make([]byte, StringLen)
		if _, err := io.ReadFull(r, buf); err != nil {
			return nil, err
		}
		if n < 0 || n > StringLen {
			return nil, errors.Wrapf(ErrInvalidPage, "string length %d", n)
		}
		return StringField(buf[:n]), nil
	}
	return nil, errors.Wrapf(ErrSchema, "cannot parse %s", t)
}

// Field is a single typed value stored in a tuple.
type Field interface {
	Type() Type
	Serialize(w io.Writer) error
	Equals(other Field) bool
	String() string
}

// IntField is a 32-bit integer value.
type IntField int32

func (f IntField) Type() Type { return IntType }

func (f IntField) Serialize(w io.Writer) error {
	return binary.Write(w, binary.BigEndian, int32(f))
}

func (f IntField) Equals(other Field) bool {
	o, ok := other.(IntField)
	return ok && o == f
}

func (f IntField) String() string {
	return strconv.Itoa(int(f))
}

// StringField is a string value. Values longer than StringLen bytes are
// truncated to a rune boundary when serialized.
type StringField string

func (f StringField) Type() Type { return StringType }

func (f StringField) Serialize(w io.Writer) error {
	s := truncate(string(f), StringLen)
	if err := binary.Write(w, binary.BigEndian, int32(len(s))); err != nil {
		return err
	}
	buf := make([]byte, StringLen)
	copy(buf, s)
	_, err := w.Write(buf)
	return err
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	for n > 0 && !utf8.RuneStart(s[n]) {
		n--
	}
	return s[:n]
}

func (f StringField) Equals(other Field) bool {
	o, ok := other.(StringField)
	return ok && o == f
}

func (f StringField) String() string {
	return string(f)
}

type unsetField struct{}

func (unsetField) Type() Type                { return -1 }
func (unsetField) Serialize(io.Writer) error { return ErrNullField }
func (unsetField) Equals(other Field) bool   { return other == Unset }
func (unsetField) String() string            { return "<unset>" }

// Unset is held by tuple slots that have not been assigned a value.
var Unset Field = unsetField{}

// ParseField converts the textual form of a value into a field of type t.
func ParseField(t Type, s string) (Field, error) {
	switch t {
	case IntType:
		v, err := strconv.ParseInt(s, 10, 32)
		if err != nil {
			return nil, errors.Wrapf(err, "parse int field %q", s)
		}
		return IntField(v), nil
	case StringType:
		return StringField(s), nil
	}
	return nil, errors.Wrapf(ErrSchema, "cannot parse %s", t)
}
