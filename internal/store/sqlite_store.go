// Package store provides SQLite-backed persistence for labkit.
// Uses ncruces/go-sqlite3/driver which provides a database/sql interface.
package store

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	_ "github.com/asg017/sqlite-vec-go-bindings/ncruces"
	"github.com/google/uuid"
	_ "github.com/ncruces/go-sqlite3/driver"
)

// SQLiteStore is the SQLite-backed data store.
// Thread-safe for concurrent WASM callbacks and CLI goroutines.
type SQLiteStore struct {
	mu  sync.RWMutex
	db  *sql.DB
	now func() time.Time
}

// schema defines all tables.
const schema = `
-- Expenses (income/expense line items)
CREATE TABLE IF NOT EXISTS expenses (
    id TEXT PRIMARY KEY,
    title TEXT NOT NULL,
    amount REAL NOT NULL,
    type TEXT NOT NULL,
    category TEXT NOT NULL,
    note TEXT,
    created_at INTEGER NOT NULL,
    updated_at INTEGER NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_expenses_created ON expenses(created_at);

-- Key/value slot (one string value per key)
CREATE TABLE IF NOT EXISTS kv (
    key TEXT PRIMARY KEY,
    value TEXT NOT NULL
);
`

// NewSQLiteStore creates a new in-memory SQLite store.
func NewSQLiteStore() (*SQLiteStore, error) {
	return NewSQLiteStoreWithDSN(":memory:")
}

// NewSQLiteStoreWithDSN creates a store with a specific data source name.
// Use ":memory:" for in-memory or a file path for persistent storage.
func NewSQLiteStoreWithDSN(dsn string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	// Every :memory: connection is its own database.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create schema: %w", err)
	}

	return &SQLiteStore{db: db, now: time.Now}, nil
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// =============================================================================
// Expense CRUD
// =============================================================================

// AddExpense inserts a new expense. The store assigns the ID when empty and
// always assigns CreatedAt/UpdatedAt, like a server timestamp.
func (s *SQLiteStore) AddExpense(e *Expense) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	now := s.now().UnixMilli()
	e.CreatedAt = now
	e.UpdatedAt = now

	_, err := s.db.Exec(`
		INSERT INTO expenses (id, title, amount, type, category, note, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`, e.ID, e.Title, e.Amount, string(e.Type), e.Category, e.Note, e.CreatedAt, e.UpdatedAt)
	if err != nil {
		return fmt.Errorf("insert expense %s: %w", e.ID, err)
	}
	return nil
}

// GetExpense retrieves an expense by ID. Returns nil, nil if not found.
func (s *SQLiteStore) GetExpense(id string) (*Expense, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	row := s.db.QueryRow(`
		SELECT id, title, amount, type, category, note, created_at, updated_at
		FROM expenses WHERE id = ?
	`, id)

	e, err := scanExpense(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return e, nil
}

// UpdateExpense overwrites the editable fields of an expense.
// CreatedAt is preserved; UpdatedAt is bumped.
func (s *SQLiteStore) UpdateExpense(id string, f ExpenseFields) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.db.Exec(`
		UPDATE expenses SET title = ?, amount = ?, type = ?, category = ?, note = ?, updated_at = ?
		WHERE id = ?
	`, f.Title, f.Amount, string(f.Type), f.Category, f.Note, s.now().UnixMilli(), id)
	if err != nil {
		return fmt.Errorf("update expense %s: %w", id, err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("expense %s: %w", id, ErrNotFound)
	}
	return nil
}

// DeleteExpense removes an expense. Deleting a missing ID is not an error.
func (s *SQLiteStore) DeleteExpense(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.Exec("DELETE FROM expenses WHERE id = ?", id)
	return err
}

// ListExpenses returns every expense, newest first.
// Expenses created in the same millisecond keep reverse insertion order.
func (s *SQLiteStore) ListExpenses() ([]*Expense, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.listExpenses()
}

// listExpenses expects s.mu to be held.
func (s *SQLiteStore) listExpenses() ([]*Expense, error) {
	rows, err := s.db.Query(`
		SELECT id, title, amount, type, category, note, created_at, updated_at
		FROM expenses ORDER BY created_at DESC, rowid DESC
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	expenses := []*Expense{}
	for rows.Next() {
		e, err := scanExpense(rows)
		if err != nil {
			return nil, err
		}
		expenses = append(expenses, e)
	}

	return expenses, rows.Err()
}

// CountExpenses returns the total number of expenses.
func (s *SQLiteStore) CountExpenses() (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var count int
	err := s.db.QueryRow("SELECT COUNT(*) FROM expenses").Scan(&count)
	return count, err
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanExpense(r rowScanner) (*Expense, error) {
	var e Expense
	var typ string
	var note sql.NullString

	if err := r.Scan(
		&e.ID, &e.Title, &e.Amount, &typ, &e.Category, &note, &e.CreatedAt, &e.UpdatedAt,
	); err != nil {
		return nil, err
	}

	e.Type = ExpenseType(typ)
	if note.Valid {
		e.Note = note.String
	}
	return &e, nil
}

// =============================================================================
// Key/value slot
// =============================================================================

// GetItem returns the value stored under key.
func (s *SQLiteStore) GetItem(key string) (string, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var value string
	err := s.db.QueryRow("SELECT value FROM kv WHERE key = ?", key).Scan(&value)
	if err == sql.ErrNoRows {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return value, true, nil
}

// SetItem stores value under key, overwriting any previous value.
func (s *SQLiteStore) SetItem(key, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.Exec(`
		INSERT INTO kv (key, value) VALUES (?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value
	`, key, value)
	return err
}

// RemoveItem deletes key. Removing a missing key is not an error.
func (s *SQLiteStore) RemoveItem(key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.Exec("DELETE FROM kv WHERE key = ?", key)
	return err
}

// =============================================================================
// Export/Import
// =============================================================================

type exportData struct {
	Expenses []*Expense `json:"expenses"`
	Items    []*Item    `json:"items"`
}

// Export serializes all tables to JSON bytes.
// This is a portable export that doesn't depend on sqlite3 serialization APIs.
func (s *SQLiteStore) Export() ([]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	expenses, err := s.listExpenses()
	if err != nil {
		return nil, fmt.Errorf("export expenses: %w", err)
	}
	data := exportData{Expenses: expenses, Items: []*Item{}}

	rows, err := s.db.Query("SELECT key, value FROM kv ORDER BY key")
	if err != nil {
		return nil, fmt.Errorf("export kv: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var it Item
		if err := rows.Scan(&it.Key, &it.Value); err != nil {
			return nil, fmt.Errorf("scan kv: %w", err)
		}
		data.Items = append(data.Items, &it)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("export kv: %w", err)
	}

	return json.Marshal(data)
}

// Import restores the database state from an exported JSON byte slice.
// Clears all existing data and re-inserts from the export.
func (s *SQLiteStore) Import(data []byte) error {
	if len(data) == 0 {
		return nil
	}

	var in exportData
	if err := json.Unmarshal(data, &in); err != nil {
		return fmt.Errorf("import unmarshal: %w", err)
	}

	for i, e := range in.Expenses {
		if e == nil {
			return fmt.Errorf("import expense %d: null entry", i)
		}
	}
	for i, it := range in.Items {
		if it == nil {
			return fmt.Errorf("import item %d: null entry", i)
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("import begin: %w", err)
	}
	defer tx.Rollback()

	for _, table := range []string{"expenses", "kv"} {
		if _, err := tx.Exec("DELETE FROM " + table); err != nil {
			return fmt.Errorf("clear %s: %w", table, err)
		}
	}

	// Oldest first so rowid order matches creation order.
	for i := len(in.Expenses) - 1; i >= 0; i-- {
		e := in.Expenses[i]
		_, err := tx.Exec(`
			INSERT INTO expenses (id, title, amount, type, category, note, created_at, updated_at)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		`, e.ID, e.Title, e.Amount, string(e.Type), e.Category, e.Note, e.CreatedAt, e.UpdatedAt)
		if err != nil {
			return fmt.Errorf("import expense %s: %w", e.ID, err)
		}
	}

	for _, it := range in.Items {
		if _, err := tx.Exec("INSERT INTO kv (key, value) VALUES (?, ?)", it.Key, it.Value); err != nil {
			return fmt.Errorf("import item %s: %w", it.Key, err)
		}
	}

	return tx.Commit()
}

// Compile-time interface check
var _ Storer = (*SQLiteStore)(nil)
