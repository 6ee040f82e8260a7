package history

import (
	"fmt"
	"os"

	"github.com/huangsam/fhirgate/schema"
)

// migrationsTable is the bookkeeping table golang-migrate creates.
const migrationsTable = "schema_migrations"

// Clear removes all run history for the specified backend.
// For SQLite, it deletes the database file.
// For MySQL and PostgreSQL, it drops the history tables and the migration bookkeeping.
// For the none backend, it does nothing.
func Clear(backend schema.DatabaseBackend, dbFilePath, connStr string) error {
	switch backend {
	case schema.SQLiteBackend:
		if dbFilePath == "" {
			return fmt.Errorf("dbFilePath cannot be empty for SQLite backend")
		}
		// Remove the file; ignore if it doesn't exist
		if err := os.Remove(dbFilePath); err != nil && !os.IsNotExist(err) {
			return fmt.Errorf("failed to remove SQLite database file %s: %w", dbFilePath, err)
		}
		return nil

	case schema.MySQLBackend, schema.PostgreSQLBackend:
		// Results first so no orphaned rows survive a partial failure
		tables := []string{resultsTable, runsTable, migrationsTable}
		return clearSQLTables(backend, connStr, tables)

	case schema.NoneBackend:
		return nil

	default:
		return fmt.Errorf("unsupported history backend for clearing: %s", backend)
	}
}

// clearSQLTables connects to the SQL database and drops each table if it exists.
func clearSQLTables(backend schema.DatabaseBackend, connStr string, tables []string) error {
	db, err := openDB(backend, connStr)
	if err != nil {
		return err
	}
	defer func() { _ = db.Close() }()

	for _, table := range tables {
		if err := validateTableName(table); err != nil {
			return err
		}
		query := fmt.Sprintf("DROP TABLE IF EXISTS %s", quoteTableName(table, backend))
		if _, err := db.Exec(query); err != nil {
			return fmt.Errorf("failed to drop table %s: %w", table, err)
		}
	}
	return nil
}
