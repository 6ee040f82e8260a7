package cmd

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/huangsam/fhirgate/internal/contract"
	"github.com/huangsam/fhirgate/internal/history"
	"github.com/huangsam/fhirgate/schema"
)

// historyConfig reads the backend settings used by the history commands.
// It skips the full sharedSetup so that a broken profile directory never blocks
// history maintenance.
func historyConfig() (schema.DatabaseBackend, string, error) {
	if err := loadConfigFile(); err != nil {
		return "", "", err
	}

	backend := schema.DatabaseBackend(strings.ToLower(strings.TrimSpace(viper.GetString("history-backend"))))
	if backend == "" {
		backend = schema.NoneBackend
	}
	if _, ok := schema.ValidDatabaseBackends[backend]; !ok {
		return "", "", fmt.Errorf("invalid history backend '%s'. must be sqlite, mysql, postgresql, none", backend)
	}
	connStr := viper.GetString("history-db-connect")
	if err := contract.ValidateDatabaseConnectionString(backend, connStr); err != nil {
		return "", "", err
	}
	return backend, connStr, nil
}

// historySetup opens the history store for the status, list and export commands.
func historySetup(_ *cobra.Command, _ []string) error {
	backend, connStr, err := historyConfig()
	if err != nil {
		return err
	}
	store, err := history.NewStore(backend, connStr)
	if err != nil {
		return fmt.Errorf("failed to initialize run history: %w", err)
	}
	cfg.HistoryBackend = backend
	cfg.HistoryDBConnect = connStr
	historyStore = store
	return nil
}

// historyMaintenanceSetup loads the backend settings without opening the store,
// allowing clear and migrate to run on a fresh or broken database.
func historyMaintenanceSetup(_ *cobra.Command, _ []string) error {
	backend, connStr, err := historyConfig()
	if err != nil {
		return err
	}
	if backend == schema.SQLiteBackend && connStr == "" {
		connStr = history.GetDBFilePath()
	}
	cfg.HistoryBackend = backend
	cfg.HistoryDBConnect = connStr
	return nil
}

// historyCmd focused on run history management.
//
// Note: History subcommands use minimal initialization instead of the full
// validationSetup. This avoids loading profiles for simple history operations.
var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Manage the history of validation runs",
	Long: `Manage the recorded history of validation runs.

When a history backend is configured, every validate and validate-directory run stores:
- Run metadata (batch name, timing, configuration, verdict)
- One row per validated resource with its issue counts

Supported backends: SQLite, MySQL, PostgreSQL, or None (disabled, the default)

Subcommands:
  status  - Show history statistics
  list    - List the most recent runs
  export  - Export data to Parquet for analytics
  clear   - Remove all history
  migrate - Run database schema migrations

Examples:
  # Check history status
  fhirgate history status --history-backend sqlite

  # Export for analysis in pandas/DuckDB
  fhirgate history export --history-backend sqlite --output-file fhirgate-history`,
}

// historyStatusCmd shows history status.
var historyStatusCmd = &cobra.Command{
	Use:     "status",
	Short:   "Display history statistics and connection details",
	PreRunE: historySetup,
	Run: func(_ *cobra.Command, _ []string) {
		status, err := historyStore.GetStatus()
		if err != nil {
			contract.LogFatal("Failed to get history status", err)
		}
		if err := history.PrintStatus(os.Stdout, status); err != nil {
			contract.LogFatal("Failed to print history status", err)
		}
	},
}

// historyListCmd lists the most recent runs.
var historyListCmd = &cobra.Command{
	Use:     "list",
	Short:   "List the most recent validation runs",
	PreRunE: historySetup,
	Run: func(_ *cobra.Command, _ []string) {
		runs, err := historyStore.ListRuns(viper.GetInt("limit"))
		if err != nil {
			contract.LogFatal("Failed to list runs", err)
		}
		if len(runs) == 0 {
			fmt.Println("No runs recorded.")
			return
		}

		useColors, err := contract.ParseBoolString(viper.GetString("color"))
		if err != nil {
			useColors = false
		}

		table := tablewriter.NewWriter(os.Stdout)
		table.Header([]string{"Run ID", "Batch", "Started", "Resources", "Pass Rate", "Threshold", "Result"})
		for _, run := range runs {
			if err := table.Append([]string{
				run.RunID,
				run.BatchName,
				run.StartTime.Local().Format(time.DateTime),
				strconv.Itoa(int(run.TotalResources)),
				fmt.Sprintf("%.1f%%", run.PassRate),
				fmt.Sprintf("%.1f%%", run.Threshold),
				contract.GetStatusLabel(run.OverallSuccess, useColors),
			}); err != nil {
				contract.LogFatal("Failed to list runs", err)
			}
		}
		if err := table.Render(); err != nil {
			contract.LogFatal("Failed to list runs", err)
		}
	},
}

// historyExportCmd exports run history to Parquet files.
var historyExportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export run history to Parquet for BI tools and analytics",
	Long: `Export all stored runs and results to Parquet format.

Exports two datasets:
- <prefix>.runs.parquet - one row per validation run
- <prefix>.results.parquet - one row per validated resource

Requires: --output-file parameter

Examples:
  fhirgate history export --history-backend sqlite --output-file nightly
  duckdb -c "SELECT batch_name, pass_rate FROM read_parquet('nightly.runs.parquet')"`,
	PreRunE: historySetup,
	Run: func(_ *cobra.Command, _ []string) {
		if _, err := history.ExportParquet(os.Stdout, historyStore, viper.GetString("output-file")); err != nil {
			contract.LogFatal("Failed to export run history", err)
		}
	},
}

// historyClearCmd clears the run history.
var historyClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Remove all recorded run history",
	Long: `Delete all stored runs and results.

For SQLite this removes the database file. For MySQL and PostgreSQL the history
tables are dropped.

WARNING: This action cannot be undone. Consider exporting data first.`,
	PreRunE: historyMaintenanceSetup,
	Run: func(_ *cobra.Command, _ []string) {
		if err := history.Clear(cfg.HistoryBackend, cfg.HistoryDBConnect, cfg.HistoryDBConnect); err != nil {
			contract.LogFatal("Failed to clear run history", err)
		}
		fmt.Println("Run history cleared successfully.")
	},
}

// historyMigrateCmd runs database migrations for the history store.
var historyMigrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Run database schema migrations (upgrades/downgrades)",
	Long: `Manage database schema versions for the run history store.

By default, migrates to the latest version. Use --target-version for specific versions.

Examples:
  # Migrate to latest version (default)
  fhirgate history migrate --history-backend sqlite

  # Rollback everything
  fhirgate history migrate --history-backend sqlite --target-version 0`,
	PreRunE: historyMaintenanceSetup,
	Run: func(_ *cobra.Command, _ []string) {
		targetVersion := viper.GetInt("target-version")
		if err := history.Migrate(cfg.HistoryBackend, cfg.HistoryDBConnect, targetVersion); err != nil {
			contract.LogFatal("Failed to run migrations", err)
		}
	},
}
