//go:build js && wasm

package main

import (
	"encoding/json"
	"fmt"
	"syscall/js"

	"github.com/kittclouds/labkit/pkg/directory"
	"go.uber.org/zap"
)

// =============================================================================
// Student Directory API
// =============================================================================

// studentsInit binds the directory to localStorage and restores it.
// Args: [key string] (optional, defaults to LABKIT_STUDENTS_KEY)
func studentsInit(this js.Value, args []js.Value) interface{} {
	if localStore == nil {
		return errorResult("localStorage unavailable")
	}

	key := argString(args, 0)
	if key == "" {
		key = cfg.StudentsKey
	}

	opts := []directory.Option{
		directory.WithKey(key),
		directory.WithLogger(logger.Named("students")),
		directory.OnRestoreError(func(err error) {
			fmt.Println("[Labkit] ⚠️ Stored students were unreadable, starting empty:", err.Error())
		}),
	}
	if cfg.UniqueStudentIDs {
		opts = append(opts, directory.WithUniqueIDs())
	}

	students = directory.New(localStore, opts...)
	if err := students.Restore(); err != nil {
		return errorResult("restore failed: " + err.Error())
	}

	fmt.Printf("[Labkit] ✅ Student directory loaded (%d records)\n", students.Count())
	return successResult(fmt.Sprintf("loaded %d students", students.Count()))
}

// studentsAdd validates and appends a student, then persists the directory.
// Args: [studentJSON string]
func studentsAdd(this js.Value, args []js.Value) interface{} {
	if len(args) < 1 {
		return errorResult("studentsAdd requires 1 arg: studentJSON")
	}
	if students == nil {
		return errorResult("students not initialized")
	}

	var st directory.Student
	if err := json.Unmarshal([]byte(args[0].String()), &st); err != nil {
		return errorResult("invalid student json: " + err.Error())
	}
	st = st.Trimmed()
	if err := st.Validate(); err != nil {
		return errorResult(err.Error())
	}

	if err := students.Add(st); err != nil {
		logger.Warn("add student", zap.String("id", st.ID), zap.Error(err))
		return errorResult(err.Error())
	}
	return successResult("added " + st.ID)
}

// studentsAll returns every student in insertion order.
// Returns: JSON array
func studentsAll(this js.Value, args []js.Value) interface{} {
	if students == nil {
		return errorResult("students not initialized")
	}
	return jsonResult(students.All())
}

// studentsCount returns the number of students.
func studentsCount(this js.Value, args []js.Value) interface{} {
	if students == nil {
		return 0
	}
	return students.Count()
}

// studentsFindByID returns the first student with the exact id.
// Args: [id string]
// Returns: Student JSON or null
func studentsFindByID(this js.Value, args []js.Value) interface{} {
	if students == nil {
		return errorResult("students not initialized")
	}
	st, ok := students.FindByID(argString(args, 0))
	if !ok {
		return "null"
	}
	return jsonResult(st)
}

// studentsFindByName matches first or last name by substring.
// Args: [text string]
func studentsFindByName(this js.Value, args []js.Value) interface{} {
	if students == nil {
		return errorResult("students not initialized")
	}
	return jsonResult(students.FindByName(argString(args, 0)))
}

// studentsFindByMajor matches major by substring.
// Args: [text string]
func studentsFindByMajor(this js.Value, args []js.Value) interface{} {
	if students == nil {
		return errorResult("students not initialized")
	}
	return jsonResult(students.FindByMajor(argString(args, 0)))
}

// studentsFindByEmail returns the student with the exact email.
// Args: [email string]
// Returns: Student JSON or null
func studentsFindByEmail(this js.Value, args []js.Value) interface{} {
	if students == nil {
		return errorResult("students not initialized")
	}
	st, ok := students.FindByEmail(argString(args, 0))
	if !ok {
		return "null"
	}
	return jsonResult(st)
}

// studentsSearch runs a free-text keyword search.
// Args: [query string]
func studentsSearch(this js.Value, args []js.Value) interface{} {
	if students == nil {
		return errorResult("students not initialized")
	}
	found, err := students.Search(argString(args, 0))
	if err != nil {
		return errorResult("search failed: " + err.Error())
	}
	return jsonResult(found)
}
