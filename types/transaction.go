package types

import (
	"time"

	"github.com/shopspring/decimal"
)

// TransactionType distinguishes money coming in from money going out.
type TransactionType string

const (
	TransactionIncome  TransactionType = "income"
	TransactionExpense TransactionType = "expense"
)

// TransactionStatus is the settlement state of a transaction.
type TransactionStatus string

const (
	TransactionCompleted TransactionStatus = "Completed"
	TransactionPending   TransactionStatus = "Pending"
)

// Transaction is a single ledger entry owned by a user.
type Transaction struct {
	ID       int    `json:"id" db:"id"`
	UserID   int    `json:"user_id" db:"user_id"`
	Title    string `json:"title" db:"title"`
	Category string `json:"category" db:"category"`

	// Amount is signed: income is positive, expenses are negative.
	Amount decimal.Decimal `json:"amount" db:"amount"`

	Type   TransactionType   `json:"type" db:"type"`
	Status TransactionStatus `json:"status" db:"status"`
	Date   time.Time         `json:"date" db:"date"`
}
