package db

import (
	"strconv"

	"go.uber.org/atomic"
)

// TransactionID identifies the transaction a page is fetched for.
type TransactionID int64

var lastTransactionID = atomic.NewInt64(0)

// NewTransactionID returns an id not handed out before in this process.
func NewTransactionID() TransactionID {
	return TransactionID(lastTransactionID.Inc())
}

func (txn TransactionID) String() string {
	return "txn-" + strconv.FormatInt(int64(txn), 10)
}
