// Package expense implements the income/expense tracker on top of the
// document store: form validation, category lists, totals and a live,
// newest-first query that re-delivers the whole list on every change.
package expense

import (
	"fmt"
	"math"
	"slices"
	"strconv"
	"strings"

	"github.com/kittclouds/labkit/internal/store"
)

// Category lists per type, in display order.
var (
	incomeCategories  = []string{"salary", "bonus", "investment", "other"}
	expenseCategories = []string{"food", "transport", "utilities", "entertainment", "education", "health", "other"}
)

// Categories returns the categories selectable for t.
// Unknown types get the expense list, as the entry form does.
func Categories(t store.ExpenseType) []string {
	if t == store.TypeIncome {
		return slices.Clone(incomeCategories)
	}
	return slices.Clone(expenseCategories)
}

// Form is the raw entry form. Amount is kept as typed text.
type Form struct {
	Title    string `json:"title"`
	Amount   string `json:"amount"`
	Type     string `json:"type"`
	Category string `json:"category"`
	Note     string `json:"note"`
}

// NewForm returns an empty form defaulting to the expense type.
func NewForm() Form {
	return Form{Type: string(store.TypeExpense)}
}

// FormFrom fills a form from a stored expense for editing.
func FormFrom(e *store.Expense) Form {
	return Form{
		Title:    e.Title,
		Amount:   strconv.FormatFloat(e.Amount, 'f', -1, 64),
		Type:     string(e.Type),
		Category: e.Category,
		Note:     e.Note,
	}
}

// ValidationError names the first invalid form field.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

// Validate checks the form in field order and reports the first problem.
func (f Form) Validate() error {
	if strings.TrimSpace(f.Title) == "" {
		return &ValidationError{Field: "title", Message: "please enter a title"}
	}
	amount, err := strconv.ParseFloat(strings.TrimSpace(f.Amount), 64)
	if err != nil || math.IsNaN(amount) || math.IsInf(amount, 0) || amount <= 0 {
		return &ValidationError{Field: "amount", Message: "please enter a valid amount"}
	}
	t := store.ExpenseType(f.Type)
	if t != store.TypeIncome && t != store.TypeExpense {
		return &ValidationError{Field: "type", Message: "please choose a type"}
	}
	if f.Category == "" {
		return &ValidationError{Field: "category", Message: "please choose a category"}
	}
	if !slices.Contains(Categories(t), f.Category) {
		return &ValidationError{
			Field:   "category",
			Message: fmt.Sprintf("category %q is not valid for %s", f.Category, t),
		}
	}
	return nil
}

// Fields validates the form and converts it into store fields.
func (f Form) Fields() (store.ExpenseFields, error) {
	if err := f.Validate(); err != nil {
		return store.ExpenseFields{}, err
	}
	amount, _ := strconv.ParseFloat(strings.TrimSpace(f.Amount), 64)
	return store.ExpenseFields{
		Title:    f.Title,
		Amount:   amount,
		Type:     store.ExpenseType(f.Type),
		Category: f.Category,
		Note:     f.Note,
	}, nil
}

// SetType switches the type and clears the category, since the category
// list depends on the type.
func (f *Form) SetType(t string) {
	f.Type = t
	f.Category = ""
}

// Summary holds the totals shown above the list.
type Summary struct {
	Income  float64 `json:"income"`
	Expense float64 `json:"expense"`
	Balance float64 `json:"balance"`
}

// Summarize totals income and expense amounts.
func Summarize(expenses []*store.Expense) Summary {
	var s Summary
	for _, e := range expenses {
		switch e.Type {
		case store.TypeIncome:
			s.Income += e.Amount
		case store.TypeExpense:
			s.Expense += e.Amount
		}
	}
	s.Balance = s.Income - s.Expense
	return s
}
