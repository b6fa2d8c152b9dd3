//go:build js && wasm

package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"syscall/js"

	"github.com/kittclouds/labkit/internal/config"
	"github.com/kittclouds/labkit/internal/logging"
	"github.com/kittclouds/labkit/internal/store"
	"github.com/kittclouds/labkit/pkg/auth"
	"github.com/kittclouds/labkit/pkg/directory"
	"github.com/kittclouds/labkit/pkg/expense"
	"github.com/kittclouds/labkit/pkg/kvstore"
	"go.uber.org/zap"
)

// Version info
const Version = "1.0.0"

// Global state
var (
	cfg        config.Config
	logger     *zap.Logger
	localStore *kvstore.Browser    // window.localStorage
	students   *directory.Store    // Student directory
	sqlStore   *store.SQLiteStore  // Expense documents
	expenses   *expense.Service    // Expense tracker + live query
	provider   *auth.MemoryProvider
	session    *auth.Session
	login      *auth.Login
)

func main() {
	var err error
	cfg, err = config.Load()
	if err != nil {
		fmt.Println("[Labkit] config error, using defaults:", err.Error())
		cfg = config.Config{DBPath: ":memory:", StudentsKey: directory.DefaultKey, LogLevel: "info"}
	}

	logger, err = logging.New(cfg.LogLevel)
	if err != nil {
		fmt.Println("[Labkit] logger error:", err.Error())
		logger = zap.NewNop()
	}

	localStore, err = kvstore.NewBrowser()
	if err != nil {
		fmt.Println("[Labkit] FATAL: localStorage unavailable:", err.Error())
	}

	fmt.Println("[Labkit] WASM Ready v" + Version)

	// Register exports
	js.Global().Set("Labkit", js.ValueOf(map[string]interface{}{
		"version": js.FuncOf(getVersion),
		// Student directory
		"studentsInit":        js.FuncOf(studentsInit),
		"studentsAdd":         js.FuncOf(studentsAdd),
		"studentsAll":         js.FuncOf(studentsAll),
		"studentsCount":       js.FuncOf(studentsCount),
		"studentsFindById":    js.FuncOf(studentsFindByID),
		"studentsFindByName":  js.FuncOf(studentsFindByName),
		"studentsFindByMajor": js.FuncOf(studentsFindByMajor),
		"studentsFindByEmail": js.FuncOf(studentsFindByEmail),
		"studentsSearch":      js.FuncOf(studentsSearch),
		// Expense tracker
		"expensesInit":       js.FuncOf(expensesInit),
		"expensesAdd":        js.FuncOf(expensesAdd),
		"expensesGet":        js.FuncOf(expensesGet),
		"expensesUpdate":     js.FuncOf(expensesUpdate),
		"expensesDelete":     js.FuncOf(expensesDelete),
		"expensesList":       js.FuncOf(expensesList),
		"expensesSummary":    js.FuncOf(expensesSummary),
		"expensesWatch":      js.FuncOf(expensesWatch),
		"expensesCategories": js.FuncOf(expensesCategories),
		"expensesValidate":   js.FuncOf(expensesValidate),
		"expensesExport":     js.FuncOf(expensesExport),
		"expensesImport":     js.FuncOf(expensesImport),
		// Auth
		"authInit":         js.FuncOf(authInit),
		"authRegister":     js.FuncOf(authRegister),
		"authLoginEmail":   js.FuncOf(authLoginEmail),
		"authLoginGoogle":  js.FuncOf(authLoginGoogle),
		"authStartPhone":   js.FuncOf(authStartPhone),
		"authConfirmPhone": js.FuncOf(authConfirmPhone),
		"authLogout":       js.FuncOf(authLogout),
		"authState":        js.FuncOf(authState),
		"authOnChange":     js.FuncOf(authOnChange),
		"authStep":         js.FuncOf(authStep),
	}))

	// Keep alive
	select {}
}

// getVersion returns the module version
func getVersion(this js.Value, args []js.Value) interface{} {
	return Version
}

// Helper: Create error result
func errorResult(msg string) interface{} {
	result := map[string]interface{}{
		"error": msg,
	}
	jsonBytes, _ := json.Marshal(result)
	return string(jsonBytes)
}

// Helper: Create success result
func successResult(msg string) interface{} {
	result := map[string]interface{}{
		"success": msg,
	}
	jsonBytes, _ := json.Marshal(result)
	return string(jsonBytes)
}

// Helper: Marshal any value; nil pointers become "null"
func jsonResult(v interface{}) interface{} {
	jsonBytes, err := json.Marshal(v)
	if err != nil {
		return errorResult("encode failed: " + err.Error())
	}
	return string(jsonBytes)
}

// argString returns args[i] as a string, or "" when missing.
func argString(args []js.Value, i int) string {
	if i >= len(args) || args[i].IsUndefined() || args[i].IsNull() {
		return ""
	}
	return args[i].String()
}

// makePromise creates a JS Promise and returns it along with resolve/reject functions.
func makePromise() (promise js.Value, resolve js.Value, reject js.Value) {
	var resolveFn, rejectFn js.Value
	handler := js.FuncOf(func(this js.Value, args []js.Value) interface{} {
		resolveFn = args[0]
		rejectFn = args[1]
		return nil
	})
	defer handler.Release()

	promise = js.Global().Get("Promise").New(handler)
	return promise, resolveFn, rejectFn
}

// async runs fn on a goroutine and settles a Promise with its result.
// Errors reject with a JS Error carrying msg(err).
func async(fn func() (interface{}, error), msg func(error) string) js.Value {
	promise, resolve, reject := makePromise()

	go func() {
		result, err := fn()
		if err != nil {
			reject.Invoke(js.Global().Get("Error").New(msg(err)))
			return
		}
		resolve.Invoke(result)
	}()

	return promise
}

// await blocks the calling goroutine until a thenable settles. Non-promise
// values are returned as is. Must not be called from the JS event loop.
func await(v js.Value) (js.Value, error) {
	if v.Type() != js.TypeObject || v.Get("then").Type() != js.TypeFunction {
		return v, nil
	}

	var (
		result js.Value
		err    error
		done   = make(chan struct{})
	)
	onResolve := js.FuncOf(func(this js.Value, args []js.Value) interface{} {
		if len(args) > 0 {
			result = args[0]
		}
		close(done)
		return nil
	})
	onReject := js.FuncOf(func(this js.Value, args []js.Value) interface{} {
		err = errors.New("promise rejected")
		if len(args) > 0 {
			err = errors.New(jsString(args[0]))
		}
		close(done)
		return nil
	})
	defer onResolve.Release()
	defer onReject.Release()

	v.Call("then", onResolve, onReject)
	<-done
	return result, err
}

// jsString renders errors by message and everything else via String().
func jsString(v js.Value) string {
	if v.Type() == js.TypeObject && v.Get("message").Type() == js.TypeString {
		return v.Get("message").String()
	}
	return v.String()
}
