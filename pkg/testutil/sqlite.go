// Package testutil provides SQLite test helpers
package testutil

import (
	"database/sql"
	"fmt"
	"path/filepath"
	"testing"

	_ "github.com/mattn/go-sqlite3"
)

// SQLiteTestHelper inspects a SQLite database written by the code under test
type SQLiteTestHelper struct {
	DB     *sql.DB
	DBPath string
}

// TempDBPath returns a database path inside the test's temp directory
func TempDBPath(t *testing.T) string {
	t.Helper()
	return filepath.Join(t.TempDir(), "test.db")
}

// NewSQLiteTestHelper opens a second connection to the database at dbPath
func NewSQLiteTestHelper(t *testing.T, dbPath string) *SQLiteTestHelper {
	t.Helper()

	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		t.Fatalf("Failed to open test database: %v", err)
	}

	helper := &SQLiteTestHelper{
		DB:     db,
		DBPath: dbPath,
	}

	t.Cleanup(func() {
		helper.DB.Close()
	})

	return helper
}

// Exec executes a SQL statement
func (h *SQLiteTestHelper) Exec(t *testing.T, sql string, args ...interface{}) {
	t.Helper()
	_, err := h.DB.Exec(sql, args...)
	if err != nil {
		t.Fatalf("Failed to execute SQL: %v", err)
	}
}

// QuerySingle queries a single value
func (h *SQLiteTestHelper) QuerySingle(t *testing.T, sql string, args ...interface{}) interface{} {
	t.Helper()
	var result interface{}
	err := h.DB.QueryRow(sql, args...).Scan(&result)
	if err != nil {
		t.Fatalf("Failed to query: %v", err)
	}
	return result
}

// RowExists checks if a row exists
func (h *SQLiteTestHelper) RowExists(t *testing.T, table string, where string, args ...interface{}) bool {
	t.Helper()
	var count int
	query := fmt.Sprintf("SELECT COUNT(*) FROM %s WHERE %s", table, where)
	err := h.DB.QueryRow(query, args...).Scan(&count)
	if err != nil {
		t.Fatalf("Failed to check existence: %v", err)
	}
	return count > 0
}

// Count returns the count of rows in a table
func (h *SQLiteTestHelper) Count(t *testing.T, table string) int {
	t.Helper()
	var count int
	err := h.DB.QueryRow(fmt.Sprintf("SELECT COUNT(*) FROM %s", table)).Scan(&count)
	if err != nil {
		t.Fatalf("Failed to count: %v", err)
	}
	return count
}
