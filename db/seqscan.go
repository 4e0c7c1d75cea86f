package db

import (
	"github.com/pkg/errors"
)

// TableResolver is the part of the catalog a scan needs.
type TableResolver interface {
	TableName(id int) (string, error)
	TupleDesc(id int) (*TupleDesc, error)
	DbFile(id int) (DbFile, error)
}

// SeqScan reads every tuple of a table in on-disk order. Field names of its
// schema are prefixed with the table alias.
type SeqScan struct {
	tables  TableResolver
	cache   PageCache
	txn     TransactionID
	tableID int
	alias   string
	it      *FileIterator
}

// NewSeqScan returns a scan of tableID aliased by the table's own name.
func NewSeqScan(tables TableResolver, cache PageCache, txn TransactionID, tableID int) (*SeqScan, error) {
	name, err := tables.TableName(tableID)
	if err != nil {
		return nil, err
	}
	return NewAliasedSeqScan(tables, cache, txn, tableID, name), nil
}

func NewAliasedSeqScan(tables TableResolver, cache PageCache, txn TransactionID, tableID int, alias string) *SeqScan {
	return &SeqScan{
		tables:  tables,
		cache:   cache,
		txn:     txn,
		tableID: tableID,
		alias:   alias,
	}
}

func (s *SeqScan) TableName() (string, error) {
	return s.tables.TableName(s.tableID)
}

func (s *SeqScan) Alias() string {
	return s.alias
}

// Reset points a closed scan at another table.
func (s *SeqScan) Reset(tableID int, alias string) error {
	if s.it != nil {
		return errors.Wrap(ErrOperatorState, "reset of an open scan")
	}
	s.tableID = tableID
	s.alias = alias
	return nil
}

func (s *SeqScan) Open() error {
	if s.it != nil {
		return errors.Wrap(ErrOperatorState, "scan is already open")
	}
	file, err := s.tables.DbFile(s.tableID)
	if err != nil {
		return err
	}
	it := file.Iterator(s.txn, s.cache)
	if err := it.Open(); err != nil {
		return err
	}
	s.it = it
	return nil
}

// TupleDesc is computed from the catalog on every call.
func (s *SeqScan) TupleDesc() (*TupleDesc, error) {
	td, err := s.tables.TupleDesc(s.tableID)
	if err != nil {
		return nil, err
	}
	return td.WithAlias(s.alias), nil
}

func (s *SeqScan) HasNext() (bool, error) {
	if s.it == nil {
		return false, errors.Wrap(ErrOperatorState, "scan is not open")
	}
	return s.it.HasNext()
}

func (s *SeqScan) Next() (*Tuple, error) {
	if s.it == nil {
		return nil, errors.Wrap(ErrOperatorState, "scan is not open")
	}
	return s.it.Next()
}

func (s *SeqScan) Rewind() error {
	if s.it == nil {
		return errors.Wrap(ErrOperatorState, "scan is not open")
	}
	return s.it.Rewind()
}

// Close ends the scan. The scan may be opened again afterwards.
func (s *SeqScan) Close() error {
	if s.it == nil {
		return errors.Wrap(ErrOperatorState, "scan is not open")
	}
	s.it.Close()
	s.it = nil
	return nil
}
