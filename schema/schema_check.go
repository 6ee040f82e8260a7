package schema

// CiSummary is the terminal decision of a run.
type CiSummary struct {
	Summary   string            `json:"summary"`
	ExitCode  int               `json:"exitCode"`
	Passed    bool              `json:"passed"`
	Threshold float64           `json:"threshold"`
	Decided   ValidationSummary `json:"decided"`
}

// Exit codes returned to the shell.
const (
	ExitSuccess = 0
	ExitFailure = 1
)
