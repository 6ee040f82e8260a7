package schema

import "time"

// RunRecord represents a row from the fhirgate_validation_runs table.
type RunRecord struct {
	RunID            string
	BatchName        string
	StartTime        time.Time
	EndTime          time.Time
	DurationMs       int64
	TotalResources   int32
	PassedResources  int32
	FailedResources  int32
	WarningResources int32
	TotalIssues      int32
	PassRate         float64
	Threshold        float64
	OverallSuccess   bool
	ConfigParams     *string
}

// ResultRecord represents a row from the fhirgate_validation_results table.
type ResultRecord struct {
	RunID        string
	Ordinal      int32
	ResourceName string
	ResourceType string
	ResourceID   string
	IsValid      bool
	HasWarnings  bool
	ErrorCount   int32
	WarningCount int32
	IssueCount   int32
	DurationMs   int64
	ValidatedAt  time.Time
	ProfileURLs  string
}
