package db

import (
	"errors"
	"fmt"
)

var (
	ErrSchema             = errors.New("db: invalid schema")
	ErrIndexOutOfRange    = errors.New("db: index out of range")
	ErrNotFound           = errors.New("db: not found")
	ErrNullField          = errors.New("db: field is not set")
	ErrNoSuchElement      = errors.New("db: no such element")
	ErrOperatorState      = errors.New("db: invalid operator state")
	ErrNotSupported       = errors.New("db: operation not supported")
	ErrTransactionAborted = errors.New("db: transaction aborted")
	ErrStorage            = errors.New("db: storage error")
	ErrInvalidPage        = errors.New("db: invalid page")
)

// IOError reports a failed read or write of a page on the underlying store.
type IOError struct {
	Op   string
	Page PageID
	Err  error
}

func (e *IOError) Error() string {
	return fmt.Sprintf("db: %s %s: %v", e.Op, e.Page, e.Err)
}

func (e *IOError) Unwrap() error {
	return e.Err
}
