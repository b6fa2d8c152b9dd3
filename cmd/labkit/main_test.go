package main

import (
	"bytes"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func runCLI(t *testing.T, db string, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	err := run(append([]string{"--db", db}, args...), &out)
	return out.String(), err
}

func TestStudentsCommands(t *testing.T) {
	db := filepath.Join(t.TempDir(), "labkit.db")

	_, err := runCLI(t, db, "students", "add", "--id", "6501", "--title", "Mr.",
		"--first", "Somchai", "--last", "Jaidee", "--email", "somchai@example.com",
		"--year", "2", "--major", "Computer Science")
	require.NoError(t, err)
	_, err = runCLI(t, db, "students", "add", "--id", "6502", "--title", "Ms.",
		"--first", "Anong", "--last", "Sukjai", "--email", "anong@example.com",
		"--year", "3", "--major", "Information Technology")
	require.NoError(t, err)

	_, err = runCLI(t, db, "students", "add", "--id", "6503", "--first", "NoEmail", "--last", "X")
	assert.Error(t, err)

	out, err := runCLI(t, db, "students", "list")
	require.NoError(t, err)
	assert.Less(t, strings.Index(out, "Somchai"), strings.Index(out, "Anong"))

	out, err = runCLI(t, db, "students", "find", "--major", "tech")
	require.NoError(t, err)
	assert.Contains(t, out, "Anong")
	assert.NotContains(t, out, "Somchai")

	out, err = runCLI(t, db, "students", "find", "--id", "9999")
	require.NoError(t, err)
	assert.Contains(t, out, "no students found")

	out, err = runCLI(t, db, "students", "search", "jaidee")
	require.NoError(t, err)
	assert.Contains(t, out, "Somchai")

	_, err = runCLI(t, db, "students", "find")
	assert.Error(t, err)
}

func TestExpensesCommands(t *testing.T) {
	db := filepath.Join(t.TempDir(), "labkit.db")

	out, err := runCLI(t, db, "expenses", "add", "--title", "Pay", "--amount", "1000",
		"--type", "income", "--category", "salary")
	require.NoError(t, err)
	id := strings.TrimSpace(strings.TrimPrefix(out, "added "))
	require.NotEmpty(t, id)

	_, err = runCLI(t, db, "expenses", "add", "--title", "Lunch", "--amount", "80", "--category", "food")
	require.NoError(t, err)

	_, err = runCLI(t, db, "expenses", "add", "--title", "Bad", "--amount", "0", "--category", "food")
	require.EqualError(t, err, "please enter a valid amount")

	_, err = runCLI(t, db, "expenses", "edit", id, "--amount", "1200")
	require.NoError(t, err)

	out, err = runCLI(t, db, "expenses", "summary")
	require.NoError(t, err)
	assert.Contains(t, out, "income:  1200.00")
	assert.Contains(t, out, "balance: 1120.00")

	_, err = runCLI(t, db, "expenses", "delete", id)
	require.NoError(t, err)
	_, err = runCLI(t, db, "expenses", "edit", id, "--title", "gone")
	require.EqualError(t, err, "the selected item was not found")

	out, err = runCLI(t, db, "expenses", "list")
	require.NoError(t, err)
	assert.Contains(t, out, "Lunch")
	assert.NotContains(t, out, "Pay")
}

func TestExpensesExportImport(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "src.db")
	dst := filepath.Join(dir, "dst.db")
	dump := filepath.Join(dir, "dump.json")

	_, err := runCLI(t, src, "expenses", "add", "--title", "Bus", "--amount", "25", "--category", "transport")
	require.NoError(t, err)
	_, err = runCLI(t, src, "expenses", "export", dump)
	require.NoError(t, err)

	_, err = runCLI(t, dst, "expenses", "import", dump)
	require.NoError(t, err)
	out, err := runCLI(t, dst, "expenses", "list")
	require.NoError(t, err)
	assert.Contains(t, out, "Bus")
}
