// Package store provides SQLite-backed persistence for labkit.
// It stands in for the hosted document database of the expense tracker and
// for the string-keyed slot the student directory persists into.
package store

import "errors"

// ErrNotFound is returned by updates that target a missing document.
var ErrNotFound = errors.New("store: not found")

// ExpenseType is either "income" or "expense".
type ExpenseType string

const (
	TypeIncome  ExpenseType = "income"
	TypeExpense ExpenseType = "expense"
)

// Expense is one income/expense line item.
// CreatedAt and UpdatedAt are unix milliseconds assigned by the store.
type Expense struct {
	ID        string      `json:"id"`
	Title     string      `json:"title"`
	Amount    float64     `json:"amount"`
	Type      ExpenseType `json:"type"`
	Category  string      `json:"category"`
	Note      string      `json:"note"`
	CreatedAt int64       `json:"createdAt"`
	UpdatedAt int64       `json:"updatedAt"`
}

// ExpenseFields are the user-editable fields of an Expense.
type ExpenseFields struct {
	Title    string
	Amount   float64
	Type     ExpenseType
	Category string
	Note     string
}

// Item is one entry of the key/value slot table.
type Item struct {
	Key   string `json:"key"`
	Value string `json:"value"`
}

// Storer defines the interface for data persistence.
// SQLiteStore is the sole implementation.
type Storer interface {
	// Expenses
	AddExpense(e *Expense) error
	GetExpense(id string) (*Expense, error)
	UpdateExpense(id string, fields ExpenseFields) error
	DeleteExpense(id string) error
	ListExpenses() ([]*Expense, error)
	CountExpenses() (int, error)

	// Key/value slot (localStorage stand-in)
	GetItem(key string) (string, bool, error)
	SetItem(key, value string) error
	RemoveItem(key string) error

	// Export/Import (JSON snapshot of every table)
	Export() ([]byte, error)
	Import(data []byte) error

	// Lifecycle
	Close() error
}
