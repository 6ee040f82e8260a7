package core

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/huangsam/fhirgate/core/agg"
	"github.com/huangsam/fhirgate/internal/contract"
	"github.com/huangsam/fhirgate/internal/outwriter"
	"github.com/huangsam/fhirgate/schema"
)

// SingleResourceThreshold is the pass threshold of single-resource runs, which
// pass only when the resource itself is valid.
const SingleResourceThreshold = contract.MaxPassThreshold

// ExecuteValidate validates a single resource file, emits the reports and returns the CI verdict.
// It serves as the main entry point for the 'validate' command.
func ExecuteValidate(ctx context.Context, cfg *contract.Config, checker contract.Checker, store contract.HistoryStore, path string) (schema.CiSummary, error) {
	o := NewOrchestrator(checker, cfg)

	start := time.Now()
	result, err := o.ValidateResource(ctx, path, cfg.Profiles)
	if err != nil {
		return RunErrorSummary(err), err
	}
	end := time.Now()

	name := batchNameFrom(ctx, filepath.Base(path))
	runCfg := o.runConfiguration(path, "", cfg.Profiles)
	runCfg.PassThreshold = SingleResourceThreshold
	report := agg.BuildReport(name, []schema.ValidationResult{result}, start, end, runCfg)
	return finishRun(ctx, cfg, store, report, SingleResourceThreshold)
}

// ExecuteValidateDirectory validates every matching file under root, emits the reports
// and returns the CI verdict against the configured pass threshold.
// It serves as the main entry point for the 'validate-directory' command.
func ExecuteValidateDirectory(ctx context.Context, cfg *contract.Config, checker contract.Checker, store contract.HistoryStore, root string) (schema.CiSummary, error) {
	o := NewOrchestrator(checker, cfg)

	var progress schema.ProgressFunc
	if !isQuiet(ctx) {
		progress = func(p schema.BatchValidationProgress) {
			outwriter.PrintProgress(os.Stderr, p, cfg.Width)
		}
	}

	report, err := o.ValidateDirectory(ctx, root, cfg.Pattern, cfg.Profiles, progress)
	if err != nil {
		return RunErrorSummary(err), err
	}
	return finishRun(ctx, cfg, store, report, cfg.PassThreshold)
}

// finishRun decides the verdict, then renders, persists and records the decided report.
func finishRun(ctx context.Context, cfg *contract.Config, store contract.HistoryStore, report schema.BatchValidationReport, threshold float64) (schema.CiSummary, error) {
	ci, err := EvaluateCI(report, threshold)
	if err != nil {
		return ci, err
	}
	decided := report.WithSummary(ci.Decided)
	opts := outwriter.OptionsFromConfig(cfg)

	if !isQuiet(ctx) {
		if err := outwriter.WriteNarrative(os.Stdout, decided, opts); err != nil {
			contract.LogWarn("Failed to print narrative", err)
		}
	}

	if cfg.OutputDir != "" {
		outcomes := outwriter.WriteReports(decided, cfg.Formats, cfg.OutputDir, time.Now(), opts)
		if failed := outwriter.FailedOutcomes(outcomes); failed > 0 {
			contract.LogWarn("Report output incomplete", fmt.Errorf("%d of %d formats failed", failed, len(outcomes)))
		}
	}

	if store != nil {
		if err := store.RecordRun(ctx, decided); err != nil {
			contract.LogWarn("Run history tracking failed", err)
		}
	}

	outwriter.PrintCISummary(os.Stdout, ci, cfg.UseColors)
	return ci, nil
}
