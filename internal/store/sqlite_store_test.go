package store

import (
	"encoding/json"
	"errors"
	"fmt"
	"testing"
	"time"
)

// steppingClock returns a clock that advances one second per call.
func steppingClock(start time.Time) func() time.Time {
	t := start
	return func() time.Time {
		t = t.Add(time.Second)
		return t
	}
}

func newTestStore(t *testing.T) *SQLiteStore {
	t.Helper()
	s, err := NewSQLiteStore()
	if err != nil {
		t.Fatalf("Failed to create store: %v", err)
	}
	s.now = steppingClock(time.Unix(1700000000, 0))
	t.Cleanup(func() { s.Close() })
	return s
}

func TestExpenseCRUD(t *testing.T) {
	s := newTestStore(t)

	// Create
	e := &Expense{Title: "Lunch", Amount: 80, Type: TypeExpense, Category: "food"}
	if err := s.AddExpense(e); err != nil {
		t.Fatalf("AddExpense failed: %v", err)
	}
	if e.ID == "" {
		t.Fatal("expected store-assigned ID")
	}
	if e.CreatedAt == 0 || e.CreatedAt != e.UpdatedAt {
		t.Fatalf("expected server timestamps, got created=%d updated=%d", e.CreatedAt, e.UpdatedAt)
	}

	// Read
	got, err := s.GetExpense(e.ID)
	if err != nil {
		t.Fatalf("GetExpense failed: %v", err)
	}
	if got == nil || got.Title != "Lunch" || got.Type != TypeExpense || got.Amount != 80 {
		t.Fatalf("GetExpense mismatch: %+v", got)
	}

	// Update
	err = s.UpdateExpense(e.ID, ExpenseFields{
		Title: "Dinner", Amount: 120, Type: TypeExpense, Category: "food", Note: "with friends",
	})
	if err != nil {
		t.Fatalf("UpdateExpense failed: %v", err)
	}
	got, _ = s.GetExpense(e.ID)
	if got.Title != "Dinner" || got.Note != "with friends" {
		t.Errorf("update not persisted: %+v", got)
	}
	if got.CreatedAt != e.CreatedAt {
		t.Errorf("created_at changed: %d -> %d", e.CreatedAt, got.CreatedAt)
	}
	if got.UpdatedAt <= e.UpdatedAt {
		t.Errorf("updated_at not bumped: %d -> %d", e.UpdatedAt, got.UpdatedAt)
	}

	// Delete
	if err := s.DeleteExpense(e.ID); err != nil {
		t.Fatalf("DeleteExpense failed: %v", err)
	}
	if err := s.DeleteExpense(e.ID); err != nil {
		t.Fatalf("DeleteExpense of missing id failed: %v", err)
	}
	got, err = s.GetExpense(e.ID)
	if err != nil || got != nil {
		t.Errorf("expected nil after delete, got %+v err=%v", got, err)
	}
}

func TestUpdateMissingExpense(t *testing.T) {
	s := newTestStore(t)

	err := s.UpdateExpense("nope", ExpenseFields{Title: "x", Amount: 1, Type: TypeIncome, Category: "bonus"})
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestListExpensesNewestFirst(t *testing.T) {
	s := newTestStore(t)

	for _, title := range []string{"first", "second", "third"} {
		if err := s.AddExpense(&Expense{Title: title, Amount: 1, Type: TypeIncome, Category: "salary"}); err != nil {
			t.Fatalf("AddExpense %s: %v", title, err)
		}
	}

	list, err := s.ListExpenses()
	if err != nil {
		t.Fatalf("ListExpenses failed: %v", err)
	}
	want := []string{"third", "second", "first"}
	if len(list) != len(want) {
		t.Fatalf("expected %d expenses, got %d", len(want), len(list))
	}
	for i, e := range list {
		if e.Title != want[i] {
			t.Errorf("list[%d] = %s, want %s", i, e.Title, want[i])
		}
	}

	count, err := s.CountExpenses()
	if err != nil || count != 3 {
		t.Errorf("CountExpenses = %d, %v", count, err)
	}
}

func TestListExpensesSameTimestamp(t *testing.T) {
	s := newTestStore(t)
	fixed := time.Unix(1700000000, 0)
	s.now = func() time.Time { return fixed }

	for _, title := range []string{"a", "b"} {
		if err := s.AddExpense(&Expense{Title: title, Amount: 1, Type: TypeIncome, Category: "salary"}); err != nil {
			t.Fatalf("AddExpense %s: %v", title, err)
		}
	}

	list, _ := s.ListExpenses()
	if len(list) != 2 || list[0].Title != "b" || list[1].Title != "a" {
		t.Fatalf("expected reverse insertion order on ties, got %+v", list)
	}
}

func TestListExpensesEmpty(t *testing.T) {
	s := newTestStore(t)

	list, err := s.ListExpenses()
	if err != nil {
		t.Fatalf("ListExpenses failed: %v", err)
	}
	if list == nil || len(list) != 0 {
		t.Fatalf("expected empty non-nil list, got %v", list)
	}
}

func TestKeyValueSlot(t *testing.T) {
	s := newTestStore(t)

	if _, ok, err := s.GetItem("students"); ok || err != nil {
		t.Fatalf("expected missing key, got ok=%v err=%v", ok, err)
	}
	if err := s.SetItem("students", "[]"); err != nil {
		t.Fatalf("SetItem failed: %v", err)
	}
	if err := s.SetItem("students", `[{"id":"1"}]`); err != nil {
		t.Fatalf("SetItem overwrite failed: %v", err)
	}

	v, ok, err := s.GetItem("students")
	if err != nil || !ok || v != `[{"id":"1"}]` {
		t.Fatalf("GetItem = %q, %v, %v", v, ok, err)
	}

	if err := s.RemoveItem("students"); err != nil {
		t.Fatalf("RemoveItem failed: %v", err)
	}
	if _, ok, _ := s.GetItem("students"); ok {
		t.Fatal("expected key removed")
	}
}

func TestExportImport(t *testing.T) {
	s := newTestStore(t)

	for _, title := range []string{"old", "new"} {
		if err := s.AddExpense(&Expense{Title: title, Amount: 10, Type: TypeExpense, Category: "food"}); err != nil {
			t.Fatalf("AddExpense failed: %v", err)
		}
	}
	if err := s.SetItem("students", `[{"id":"1"}]`); err != nil {
		t.Fatalf("SetItem failed: %v", err)
	}

	// Export
	data, err := s.Export()
	if err != nil {
		t.Fatalf("Export failed: %v", err)
	}
	if len(data) == 0 {
		t.Fatal("Exported data is empty")
	}

	// Create a NEW store to simulate a fresh start/reload
	s2 := newTestStore(t)
	if err := s2.AddExpense(&Expense{Title: "stale", Amount: 1, Type: TypeIncome, Category: "other"}); err != nil {
		t.Fatalf("AddExpense failed: %v", err)
	}

	// Import
	if err := s2.Import(data); err != nil {
		t.Fatalf("Import failed: %v", err)
	}

	list, err := s2.ListExpenses()
	if err != nil {
		t.Fatalf("ListExpenses failed: %v", err)
	}
	if len(list) != 2 || list[0].Title != "new" || list[1].Title != "old" {
		t.Fatalf("unexpected restored list: %+v", list)
	}

	v, ok, _ := s2.GetItem("students")
	if !ok || v != `[{"id":"1"}]` {
		t.Errorf("kv item not restored: %q", v)
	}
}

func TestImportEmptyAndMalformed(t *testing.T) {
	s := newTestStore(t)

	if err := s.Import(nil); err != nil {
		t.Fatalf("Import(nil) failed: %v", err)
	}
	if err := s.Import([]byte("{broken")); err == nil {
		t.Fatal("expected error for malformed import")
	}
}

func TestImportRejectsNullEntries(t *testing.T) {
	s := newTestStore(t)
	if err := s.AddExpense(&Expense{Title: "keep", Amount: 1, Type: TypeIncome, Category: "other"}); err != nil {
		t.Fatalf("AddExpense failed: %v", err)
	}

	for _, data := range []string{
		`{"expenses":[null],"items":[]}`,
		`{"expenses":[],"items":[null]}`,
		`{"expenses":[null],"items":[null]}`,
	} {
		if err := s.Import([]byte(data)); err == nil {
			t.Fatalf("expected error importing %s", data)
		}
	}

	list, err := s.ListExpenses()
	if err != nil {
		t.Fatalf("ListExpenses failed: %v", err)
	}
	if len(list) != 1 || list[0].Title != "keep" {
		t.Fatalf("rejected import must leave data untouched, got %+v", list)
	}
}

func TestExportConsistentWithConcurrentWrites(t *testing.T) {
	s := newTestStore(t)

	done := make(chan struct{})
	go func() {
		defer close(done)
		for i := 0; i < 50; i++ {
			if err := s.AddExpense(&Expense{Title: "w", Amount: 1, Type: TypeIncome, Category: "other"}); err != nil {
				t.Errorf("AddExpense failed: %v", err)
				return
			}
			if err := s.SetItem(fmt.Sprintf("k%03d", i), "v"); err != nil {
				t.Errorf("SetItem failed: %v", err)
				return
			}
		}
	}()

	for i := 0; i < 20; i++ {
		data, err := s.Export()
		if err != nil {
			t.Fatalf("Export failed: %v", err)
		}
		var got exportData
		if err := json.Unmarshal(data, &got); err != nil {
			t.Fatalf("decode export: %v", err)
		}
		// Each writer step adds an expense before its item.
		if n, m := len(got.Expenses), len(got.Items); m != n && m != n-1 {
			t.Fatalf("export tables out of step: %d expenses, %d items", n, m)
		}
	}
	<-done
}
