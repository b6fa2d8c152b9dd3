//go:build js && wasm

package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"syscall/js"

	"github.com/kittclouds/labkit/internal/store"
	"github.com/kittclouds/labkit/pkg/expense"
	"go.uber.org/zap"
)

// expensesKey is the localStorage slot holding the expense export.
const expensesKey = "labkit.expenses"

// =============================================================================
// Expense Tracker API
// =============================================================================

// expensesInit opens the in-memory store, reloads the last export from
// localStorage and keeps it saved after every change.
// Args: []
func expensesInit(this js.Value, args []js.Value) interface{} {
	if expenses != nil {
		return successResult("expenses already initialized")
	}

	var err error
	sqlStore, err = store.NewSQLiteStore()
	if err != nil {
		return errorResult("failed to initialize SQLite store: " + err.Error())
	}

	if localStore != nil {
		if data, ok, err := localStore.GetItem(expensesKey); err != nil {
			logger.Warn("load saved expenses", zap.Error(err))
		} else if ok {
			if err := sqlStore.Import([]byte(data)); err != nil {
				fmt.Println("[Labkit] ⚠️ Saved expenses were unreadable, starting empty:", err.Error())
			}
		}
	}

	expenses = expense.NewService(sqlStore, logger.Named("expenses"))

	if localStore != nil {
		_, err = expenses.Watch(context.Background(), func([]*store.Expense) {
			data, err := sqlStore.Export()
			if err != nil {
				logger.Warn("export expenses", zap.Error(err))
				return
			}
			if err := localStore.SetItem(expensesKey, string(data)); err != nil {
				logger.Warn("save expenses", zap.Error(err))
			}
		})
		if err != nil {
			return errorResult("autosave failed: " + err.Error())
		}
	}

	n, _ := sqlStore.CountExpenses()
	fmt.Printf("[Labkit] ✅ Expense tracker initialized (%d entries)\n", n)
	return successResult("expenses initialized")
}

// expensesAdd validates a form and stores a new entry.
// Args: [formJSON string]
// Returns: Promise<Expense JSON>
func expensesAdd(this js.Value, args []js.Value) interface{} {
	f, err := parseForm(args, 0)
	if err != nil {
		return errorResult(err.Error())
	}
	return async(func() (interface{}, error) {
		if expenses == nil {
			return nil, errNotInitialized
		}
		e, err := expenses.Add(context.Background(), f)
		if err != nil {
			return nil, err
		}
		return jsonResult(e), nil
	}, userMessage)
}

// expensesGet loads one entry.
// Args: [id string]
// Returns: Promise<Expense JSON>
func expensesGet(this js.Value, args []js.Value) interface{} {
	id := argString(args, 0)
	return async(func() (interface{}, error) {
		if expenses == nil {
			return nil, errNotInitialized
		}
		e, err := expenses.Get(context.Background(), id)
		if err != nil {
			return nil, err
		}
		return jsonResult(e), nil
	}, userMessage)
}

// expensesUpdate validates a form and overwrites an entry.
// Args: [id string, formJSON string]
// Returns: Promise<success JSON>
func expensesUpdate(this js.Value, args []js.Value) interface{} {
	if len(args) < 2 {
		return errorResult("expensesUpdate requires 2 args: id, formJSON")
	}
	id := args[0].String()
	f, err := parseForm(args, 1)
	if err != nil {
		return errorResult(err.Error())
	}
	return async(func() (interface{}, error) {
		if expenses == nil {
			return nil, errNotInitialized
		}
		if err := expenses.Update(context.Background(), id, f); err != nil {
			return nil, err
		}
		return successResult("updated " + id), nil
	}, userMessage)
}

// expensesDelete removes an entry.
// Args: [id string]
// Returns: Promise<success JSON>
func expensesDelete(this js.Value, args []js.Value) interface{} {
	id := argString(args, 0)
	return async(func() (interface{}, error) {
		if expenses == nil {
			return nil, errNotInitialized
		}
		if err := expenses.Delete(context.Background(), id); err != nil {
			return nil, err
		}
		return successResult("deleted " + id), nil
	}, userMessage)
}

// expensesList returns every entry, newest first.
// Returns: Promise<JSON array>
func expensesList(this js.Value, args []js.Value) interface{} {
	return async(func() (interface{}, error) {
		if expenses == nil {
			return nil, errNotInitialized
		}
		list, err := expenses.List(context.Background())
		if err != nil {
			return nil, err
		}
		return jsonResult(list), nil
	}, userMessage)
}

// expensesSummary totals income, expense and balance.
// Returns: Promise<Summary JSON>
func expensesSummary(this js.Value, args []js.Value) interface{} {
	return async(func() (interface{}, error) {
		if expenses == nil {
			return nil, errNotInitialized
		}
		sum, err := expenses.Summary(context.Background())
		if err != nil {
			return nil, err
		}
		return jsonResult(sum), nil
	}, userMessage)
}

// expensesWatch calls back with the full list now and after every change.
// Args: [callback function(listJSON string)]
// Returns: unsubscribe function
func expensesWatch(this js.Value, args []js.Value) interface{} {
	if len(args) < 1 || args[0].Type() != js.TypeFunction {
		return errorResult("expensesWatch requires 1 arg: callback")
	}
	if expenses == nil {
		return errorResult("expenses not initialized")
	}

	callback := args[0]
	cancel, err := expenses.Watch(context.Background(), func(list []*store.Expense) {
		callback.Invoke(jsonResult(list))
	})
	if err != nil {
		return errorResult(err.Error())
	}

	var unsubscribe js.Func
	unsubscribe = js.FuncOf(func(this js.Value, args []js.Value) interface{} {
		cancel()
		unsubscribe.Release()
		return nil
	})
	return unsubscribe
}

// expensesCategories lists the categories for a type.
// Args: [type string] ("income" | "expense")
func expensesCategories(this js.Value, args []js.Value) interface{} {
	return jsonResult(expense.Categories(store.ExpenseType(argString(args, 0))))
}

// expensesValidate checks a form without saving it.
// Args: [formJSON string]
// Returns: {"valid":true} or {"field":..., "message":...}
func expensesValidate(this js.Value, args []js.Value) interface{} {
	f, err := parseForm(args, 0)
	if err != nil {
		return errorResult(err.Error())
	}
	var verr *expense.ValidationError
	if err := f.Validate(); errors.As(err, &verr) {
		return jsonResult(map[string]string{"field": verr.Field, "message": verr.Message})
	}
	return jsonResult(map[string]bool{"valid": true})
}

// expensesExport serializes every entry to a Uint8Array.
func expensesExport(this js.Value, args []js.Value) interface{} {
	if sqlStore == nil {
		return errorResult("store not initialized")
	}

	data, err := sqlStore.Export()
	if err != nil {
		return errorResult("export failed: " + err.Error())
	}

	jsArray := js.Global().Get("Uint8Array").New(len(data))
	js.CopyBytesToJS(jsArray, data)

	fmt.Printf("[Labkit] ✅ Exported %d bytes\n", len(data))
	return jsArray
}

// expensesImport replaces every entry from a Uint8Array export.
// Args: [data Uint8Array]
func expensesImport(this js.Value, args []js.Value) interface{} {
	if len(args) < 1 {
		return errorResult("expensesImport requires 1 arg: data (Uint8Array)")
	}
	if sqlStore == nil {
		return errorResult("store not initialized")
	}

	jsArray := args[0]
	length := jsArray.Get("length").Int()
	data := make([]byte, length)
	js.CopyBytesToGo(data, jsArray)

	if err := sqlStore.Import(data); err != nil {
		return errorResult("import failed: " + err.Error())
	}
	if expenses != nil {
		expenses.Refresh()
	}

	fmt.Printf("[Labkit] ✅ Imported %d bytes\n", length)
	return successResult(fmt.Sprintf("imported %d bytes", length))
}

var errNotInitialized = errors.New("expenses not initialized")

func parseForm(args []js.Value, i int) (expense.Form, error) {
	f := expense.NewForm()
	raw := argString(args, i)
	if raw == "" {
		return f, errors.New("form JSON required")
	}
	if err := json.Unmarshal([]byte(raw), &f); err != nil {
		return f, fmt.Errorf("invalid form json: %w", err)
	}
	return f, nil
}

func userMessage(err error) string {
	if errors.Is(err, errNotInitialized) {
		return err.Error()
	}
	return expense.UserMessage(err)
}
