package schema

import "time"

// HistoryStatus represents the status of the run history store.
type HistoryStatus struct {
	Backend         string           `json:"backend"`
	Connected       bool             `json:"connected"`
	TotalRuns       int              `json:"total_runs"`
	LastRunID       string           `json:"last_run_id"`
	LastRunTime     time.Time        `json:"last_run_time"`
	OldestRunTime   time.Time        `json:"oldest_run_time"`
	TotalResources  int              `json:"total_resources"`
	AveragePassRate float64          `json:"average_pass_rate"`
	TableSizes      map[string]int64 `json:"table_sizes"`
}
