// Package history persists validation runs and their per-resource results.
package history

import (
	"database/sql"
	"fmt"
	"regexp"
	"time"

	"github.com/huangsam/fhirgate/internal/contract"
	"github.com/huangsam/fhirgate/schema"

	_ "github.com/go-sql-driver/mysql"  // MySQL driver
	_ "github.com/jackc/pgx/v5/stdlib" // PostgreSQL driver
	_ "modernc.org/sqlite"             // SQLite driver
)

// Table names for run history.
const (
	runsTable    = "fhirgate_validation_runs"
	resultsTable = "fhirgate_validation_results"
)

// HistoryTables lists every table owned by the history store.
var HistoryTables = []string{runsTable, resultsTable}

// sqliteTimeLayout has a fixed width so stored text sorts chronologically.
const sqliteTimeLayout = "2006-01-02T15:04:05.000000000Z07:00"

var tableNamePattern = regexp.MustCompile(`^[a-zA-Z_][a-zA-Z0-9_]*$`)

// GetDBFilePath returns the default SQLite file for run history.
func GetDBFilePath() string {
	return contract.GetHistoryDBFilePath()
}

// driverFor maps a backend to its database/sql driver name.
func driverFor(backend schema.DatabaseBackend) (string, error) {
	switch backend {
	case schema.SQLiteBackend:
		return "sqlite", nil
	case schema.MySQLBackend:
		return "mysql", nil
	case schema.PostgreSQLBackend:
		return "pgx", nil
	default:
		return "", fmt.Errorf("unsupported backend: %s", backend)
	}
}

// openDB opens and pings the database for backend. An empty SQLite
// connection string falls back to the default history file.
func openDB(backend schema.DatabaseBackend, connStr string) (*sql.DB, error) {
	driverName, err := driverFor(backend)
	if err != nil {
		return nil, err
	}
	if backend == schema.SQLiteBackend && connStr == "" {
		connStr = GetDBFilePath()
	}

	db, err := sql.Open(driverName, connStr)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s database: %w", backend, err)
	}
	if backend == schema.SQLiteBackend {
		// Limit SQLite to a single open connection to avoid "database is locked" errors
		db.SetMaxOpenConns(1)
	}

	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to connect to %s database: %w", backend, err)
	}
	return db, nil
}

// validateTableName validates that the table name is a safe SQL identifier.
func validateTableName(name string) error {
	if name == "" {
		return fmt.Errorf("table name cannot be empty")
	}
	if !tableNamePattern.MatchString(name) {
		return fmt.Errorf("invalid table name: %s (must match pattern ^[a-zA-Z_][a-zA-Z0-9_]*$)", name)
	}
	return nil
}

// quoteTableName returns the properly quoted table name for the given backend.
func quoteTableName(name string, backend schema.DatabaseBackend) string {
	switch backend {
	case schema.MySQLBackend:
		return fmt.Sprintf("`%s`", name)
	default: // SQLite and PostgreSQL
		return fmt.Sprintf("\"%s\"", name)
	}
}

// formatTime converts a time for storage. SQLite keeps text, the others native timestamps.
func formatTime(t time.Time, backend schema.DatabaseBackend) any {
	if backend == schema.SQLiteBackend {
		return t.UTC().Format(sqliteTimeLayout)
	}
	return t.UTC()
}

// parseSQLiteTime reads a timestamp written by formatTime.
func parseSQLiteTime(value string) (time.Time, error) {
	t, err := time.Parse(sqliteTimeLayout, value)
	if err != nil {
		return time.Time{}, fmt.Errorf("failed to parse timestamp %q: %w", value, err)
	}
	return t, nil
}
