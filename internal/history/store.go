package history

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/huangsam/fhirgate/internal/contract"
	"github.com/huangsam/fhirgate/schema"
)

// Store implements contract.HistoryStore on top of database/sql.
type Store struct {
	db      *sql.DB
	backend schema.DatabaseBackend
}

var _ contract.HistoryStore = &Store{} // Compile-time check

// NewStore opens the history store for backend and creates its tables when missing.
// The none backend returns a store whose operations do nothing.
func NewStore(backend schema.DatabaseBackend, connStr string) (*Store, error) {
	if backend == schema.NoneBackend {
		return &Store{backend: backend}, nil
	}

	db, err := openDB(backend, connStr)
	if err != nil {
		return nil, err
	}

	if err := createHistoryTables(db, backend); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to create history tables: %w", err)
	}

	return &Store{db: db, backend: backend}, nil
}

// createHistoryTables creates the run and result tables.
func createHistoryTables(db *sql.DB, backend schema.DatabaseBackend) error {
	tables := []struct {
		name  string
		query string
	}{
		{runsTable, getCreateRunsQuery(backend)},
		{resultsTable, getCreateResultsQuery(backend)},
	}

	for _, table := range tables {
		if _, err := db.Exec(table.query); err != nil {
			return fmt.Errorf("failed to create table %s: %w", table.name, err)
		}
	}
	return nil
}

// getCreateRunsQuery returns the CREATE TABLE query for fhirgate_validation_runs.
func getCreateRunsQuery(backend schema.DatabaseBackend) string {
	quotedTableName := quoteTableName(runsTable, backend)

	switch backend {
	case schema.MySQLBackend:
		return fmt.Sprintf(`
			CREATE TABLE IF NOT EXISTS %s (
				id BIGINT AUTO_INCREMENT PRIMARY KEY,
				run_id VARCHAR(64) NOT NULL UNIQUE,
				batch_name VARCHAR(255) NOT NULL,
				start_time DATETIME(6) NOT NULL,
				end_time DATETIME(6) NOT NULL,
				duration_ms BIGINT NOT NULL,
				total_resources INT NOT NULL,
				passed_resources INT NOT NULL,
				failed_resources INT NOT NULL,
				warning_resources INT NOT NULL,
				total_issues INT NOT NULL,
				pass_rate DOUBLE NOT NULL,
				threshold DOUBLE NOT NULL,
				overall_success BOOLEAN NOT NULL,
				config_params TEXT
			);
		`, quotedTableName)

	case schema.PostgreSQLBackend:
		return fmt.Sprintf(`
			CREATE TABLE IF NOT EXISTS %s (
				id BIGSERIAL PRIMARY KEY,
				run_id TEXT NOT NULL UNIQUE,
				batch_name TEXT NOT NULL,
				start_time TIMESTAMPTZ NOT NULL,
				end_time TIMESTAMPTZ NOT NULL,
				duration_ms BIGINT NOT NULL,
				total_resources INT NOT NULL,
				passed_resources INT NOT NULL,
				failed_resources INT NOT NULL,
				warning_resources INT NOT NULL,
				total_issues INT NOT NULL,
				pass_rate DOUBLE PRECISION NOT NULL,
				threshold DOUBLE PRECISION NOT NULL,
				overall_success BOOLEAN NOT NULL,
				config_params TEXT
			);
		`, quotedTableName)

	default: // SQLite
		return fmt.Sprintf(`
			CREATE TABLE IF NOT EXISTS %s (
				id INTEGER PRIMARY KEY AUTOINCREMENT,
				run_id TEXT NOT NULL UNIQUE,
				batch_name TEXT NOT NULL,
				start_time TEXT NOT NULL,
				end_time TEXT NOT NULL,
				duration_ms INTEGER NOT NULL,
				total_resources INTEGER NOT NULL,
				passed_resources INTEGER NOT NULL,
				failed_resources INTEGER NOT NULL,
				warning_resources INTEGER NOT NULL,
				total_issues INTEGER NOT NULL,
				pass_rate REAL NOT NULL,
				threshold REAL NOT NULL,
				overall_success INTEGER NOT NULL,
				config_params TEXT
			);
		`, quotedTableName)
	}
}

// getCreateResultsQuery returns the CREATE TABLE query for fhirgate_validation_results.
func getCreateResultsQuery(backend schema.DatabaseBackend) string {
	quotedTableName := quoteTableName(resultsTable, backend)

	switch backend {
	case schema.MySQLBackend:
		return fmt.Sprintf(`
			CREATE TABLE IF NOT EXISTS %s (
				run_id VARCHAR(64) NOT NULL,
				ordinal INT NOT NULL,
				resource_name VARCHAR(1024) NOT NULL,
				resource_type VARCHAR(100) NOT NULL,
				resource_id VARCHAR(64) NOT NULL,
				is_valid BOOLEAN NOT NULL,
				has_warnings BOOLEAN NOT NULL,
				error_count INT NOT NULL,
				warning_count INT NOT NULL,
				issue_count INT NOT NULL,
				duration_ms BIGINT NOT NULL,
				validated_at DATETIME(6) NOT NULL,
				profile_urls TEXT NOT NULL,
				PRIMARY KEY (run_id, ordinal)
			);
		`, quotedTableName)

	case schema.PostgreSQLBackend:
		return fmt.Sprintf(`
			CREATE TABLE IF NOT EXISTS %s (
				run_id TEXT NOT NULL,
				ordinal INT NOT NULL,
				resource_name TEXT NOT NULL,
				resource_type TEXT NOT NULL,
				resource_id TEXT NOT NULL,
				is_valid BOOLEAN NOT NULL,
				has_warnings BOOLEAN NOT NULL,
				error_count INT NOT NULL,
				warning_count INT NOT NULL,
				issue_count INT NOT NULL,
				duration_ms BIGINT NOT NULL,
				validated_at TIMESTAMPTZ NOT NULL,
				profile_urls TEXT NOT NULL,
				PRIMARY KEY (run_id, ordinal)
			);
		`, quotedTableName)

	default: // SQLite
		return fmt.Sprintf(`
			CREATE TABLE IF NOT EXISTS %s (
				run_id TEXT NOT NULL,
				ordinal INTEGER NOT NULL,
				resource_name TEXT NOT NULL,
				resource_type TEXT NOT NULL,
				resource_id TEXT NOT NULL,
				is_valid INTEGER NOT NULL,
				has_warnings INTEGER NOT NULL,
				error_count INTEGER NOT NULL,
				warning_count INTEGER NOT NULL,
				issue_count INTEGER NOT NULL,
				duration_ms INTEGER NOT NULL,
				validated_at TEXT NOT NULL,
				profile_urls TEXT NOT NULL,
				PRIMARY KEY (run_id, ordinal)
			);
		`, quotedTableName)
	}
}

// placeholders returns n bind parameters in the dialect of the backend.
func (s *Store) placeholders(n int) string {
	parts := make([]string, n)
	for i := range parts {
		if s.backend == schema.PostgreSQLBackend {
			parts[i] = fmt.Sprintf("$%d", i+1)
		} else {
			parts[i] = "?"
		}
	}
	return strings.Join(parts, ", ")
}

// RecordRun stores the run row and one row per result in a single transaction.
func (s *Store) RecordRun(ctx context.Context, report schema.BatchValidationReport) error {
	if s.db == nil {
		return nil
	}
	if report.RunID == "" {
		return errors.New("cannot record a run without a run ID")
	}

	configJSON, err := json.Marshal(report.Configuration)
	if err != nil {
		return fmt.Errorf("failed to marshal run configuration: %w", err)
	}
	configParams := string(configJSON)

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	sum := report.Summary
	runQuery := fmt.Sprintf(`
		INSERT INTO %s (run_id, batch_name, start_time, end_time, duration_ms,
		                total_resources, passed_resources, failed_resources, warning_resources,
		                total_issues, pass_rate, threshold, overall_success, config_params)
		VALUES (%s)
	`, quoteTableName(runsTable, s.backend), s.placeholders(14))
	if _, err := tx.ExecContext(ctx, runQuery,
		report.RunID, report.BatchName,
		formatTime(report.ValidationStartTime, s.backend), formatTime(report.ValidationEndTime, s.backend),
		report.TotalDuration.Milliseconds(),
		sum.TotalResources, sum.PassedResources, sum.FailedResources, sum.WarningResources,
		sum.TotalIssues, sum.PassRate, report.Configuration.PassThreshold, sum.OverallSuccess,
		configParams,
	); err != nil {
		return fmt.Errorf("failed to insert validation run: %w", err)
	}

	resultQuery := fmt.Sprintf(`
		INSERT INTO %s (run_id, ordinal, resource_name, resource_type, resource_id,
		                is_valid, has_warnings, error_count, warning_count, issue_count,
		                duration_ms, validated_at, profile_urls)
		VALUES (%s)
	`, quoteTableName(resultsTable, s.backend), s.placeholders(13))
	stmt, err := tx.PrepareContext(ctx, resultQuery)
	if err != nil {
		return fmt.Errorf("failed to prepare result insert: %w", err)
	}
	defer func() { _ = stmt.Close() }()

	for i, r := range report.Results {
		errCount := r.CountBySeverity(schema.SeverityError) + r.CountBySeverity(schema.SeverityFatal)
		if _, err := stmt.ExecContext(ctx,
			report.RunID, i, r.ResourceName, r.ResourceType, r.ResourceID,
			r.IsValid, r.HasWarnings, errCount, r.CountBySeverity(schema.SeverityWarning), len(r.Issues),
			r.ValidationDuration.Milliseconds(), formatTime(r.Timestamp, s.backend),
			strings.Join(r.ProfileURLs, ","),
		); err != nil {
			return fmt.Errorf("failed to insert result %s: %w", r.ResourceName, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit validation run: %w", err)
	}
	return nil
}

// ListRuns returns up to limit runs, newest first. A limit of zero or less returns every run.
func (s *Store) ListRuns(limit int) ([]schema.RunRecord, error) {
	if s.db == nil {
		return nil, nil
	}

	query := fmt.Sprintf(`SELECT run_id, batch_name, start_time, end_time, duration_ms,
    total_resources, passed_resources, failed_resources, warning_resources,
    total_issues, pass_rate, threshold, overall_success, config_params
    FROM %s ORDER BY id DESC`, quoteTableName(runsTable, s.backend))
	if limit > 0 {
		query += fmt.Sprintf(" LIMIT %d", limit)
	}

	rows, err := s.db.Query(query)
	if err != nil {
		return nil, fmt.Errorf("failed to query validation runs: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var records []schema.RunRecord
	for rows.Next() {
		var record schema.RunRecord
		var start, end dbTime
		if err := rows.Scan(&record.RunID, &record.BatchName, &start, &end, &record.DurationMs,
			&record.TotalResources, &record.PassedResources, &record.FailedResources, &record.WarningResources,
			&record.TotalIssues, &record.PassRate, &record.Threshold, &record.OverallSuccess,
			&record.ConfigParams); err != nil {
			return nil, fmt.Errorf("failed to scan validation run: %w", err)
		}
		record.StartTime = start.Time
		record.EndTime = end.Time
		records = append(records, record)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating validation runs: %w", err)
	}
	return records, nil
}

// GetAllResults returns every stored result in run order, then ordinal.
func (s *Store) GetAllResults() ([]schema.ResultRecord, error) {
	if s.db == nil {
		return nil, nil
	}

	query := fmt.Sprintf(`SELECT r.run_id, r.ordinal, r.resource_name, r.resource_type, r.resource_id,
    r.is_valid, r.has_warnings, r.error_count, r.warning_count, r.issue_count,
    r.duration_ms, r.validated_at, r.profile_urls
    FROM %s r JOIN %s u ON r.run_id = u.run_id
    ORDER BY u.id, r.ordinal`, quoteTableName(resultsTable, s.backend), quoteTableName(runsTable, s.backend))

	rows, err := s.db.Query(query)
	if err != nil {
		return nil, fmt.Errorf("failed to query validation results: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var records []schema.ResultRecord
	for rows.Next() {
		var record schema.ResultRecord
		var validatedAt dbTime
		if err := rows.Scan(&record.RunID, &record.Ordinal, &record.ResourceName, &record.ResourceType,
			&record.ResourceID, &record.IsValid, &record.HasWarnings, &record.ErrorCount,
			&record.WarningCount, &record.IssueCount, &record.DurationMs, &validatedAt,
			&record.ProfileURLs); err != nil {
			return nil, fmt.Errorf("failed to scan validation result: %w", err)
		}
		record.ValidatedAt = validatedAt.Time
		records = append(records, record)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating validation results: %w", err)
	}
	return records, nil
}

// GetStatus returns status information about the history store.
func (s *Store) GetStatus() (schema.HistoryStatus, error) {
	status := schema.HistoryStatus{
		Backend:    string(s.backend),
		Connected:  s.db != nil,
		TableSizes: make(map[string]int64),
	}
	if s.db == nil {
		return status, nil
	}

	quotedRuns := quoteTableName(runsTable, s.backend)
	row := s.db.QueryRow(fmt.Sprintf("SELECT COUNT(*) FROM %s", quotedRuns))
	if err := row.Scan(&status.TotalRuns); err != nil {
		return status, fmt.Errorf("failed to get total runs: %w", err)
	}

	if status.TotalRuns > 0 {
		var lastRun dbTime
		row = s.db.QueryRow(fmt.Sprintf("SELECT run_id, start_time FROM %s ORDER BY id DESC LIMIT 1", quotedRuns))
		if err := row.Scan(&status.LastRunID, &lastRun); err != nil {
			return status, fmt.Errorf("failed to get last run info: %w", err)
		}
		status.LastRunTime = lastRun.Time

		var oldestRun dbTime
		row = s.db.QueryRow(fmt.Sprintf("SELECT start_time FROM %s ORDER BY id ASC LIMIT 1", quotedRuns))
		if err := row.Scan(&oldestRun); err != nil {
			return status, fmt.Errorf("failed to get oldest run time: %w", err)
		}
		status.OldestRunTime = oldestRun.Time

		var totalResources int64
		row = s.db.QueryRow(fmt.Sprintf("SELECT COALESCE(SUM(total_resources), 0), COALESCE(AVG(pass_rate), 0) FROM %s", quotedRuns))
		if err := row.Scan(&totalResources, &status.AveragePassRate); err != nil {
			return status, fmt.Errorf("failed to aggregate runs: %w", err)
		}
		status.TotalResources = int(totalResources)
	}

	for _, table := range HistoryTables {
		var count int64
		row = s.db.QueryRow(fmt.Sprintf("SELECT COUNT(*) FROM %s", quoteTableName(table, s.backend)))
		if err := row.Scan(&count); err != nil {
			return status, fmt.Errorf("failed to get count for table %s: %w", table, err)
		}
		status.TableSizes[table] = count
	}

	return status, nil
}

// Close closes the underlying connection.
func (s *Store) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// dbTime scans the timestamp representations of every backend.
type dbTime struct {
	time.Time
}

// Scan implements sql.Scanner.
func (d *dbTime) Scan(src any) error {
	switch v := src.(type) {
	case nil:
		d.Time = time.Time{}
	case time.Time:
		d.Time = v.UTC()
	case string:
		return d.parse(v)
	case []byte:
		return d.parse(string(v))
	default:
		return fmt.Errorf("unsupported timestamp type %T", src)
	}
	return nil
}

func (d *dbTime) parse(value string) error {
	if t, err := parseSQLiteTime(value); err == nil {
		d.Time = t.UTC()
		return nil
	}
	// MySQL without parseTime=true returns DATETIME as text
	t, err := time.Parse("2006-01-02 15:04:05.999999", value)
	if err != nil {
		return fmt.Errorf("failed to parse timestamp %q: %w", value, err)
	}
	d.Time = t.UTC()
	return nil
}
