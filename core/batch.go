package core

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"sync"
	"time"

	"github.com/huangsam/fhirgate/core/agg"
	"github.com/huangsam/fhirgate/internal/parser"
	"github.com/huangsam/fhirgate/schema"
)

// Issue codes of the synthetic issue attached to files that could not be validated.
const (
	codeException = "exception"
	codeStructure = "structure"
)

// indexedResult carries a worker outcome back to the collector.
type indexedResult struct {
	index  int
	result schema.ValidationResult
	err    error
}

// ValidateDirectory validates every matching file under root and aggregates a report.
// Per-file failures become failed results; only cancellation and input errors abort the run.
func (o *Orchestrator) ValidateDirectory(ctx context.Context, root, pattern string, profiles []string, progress schema.ProgressFunc) (schema.BatchValidationReport, error) {
	info, err := os.Stat(root)
	if err != nil {
		return schema.BatchValidationReport{}, fmt.Errorf("directory %s: %w", root, err)
	}
	if !info.IsDir() {
		return schema.BatchValidationReport{}, fmt.Errorf("directory %s: %w", root, ErrNotDirectory)
	}
	if pattern == "" {
		pattern = o.cfg.Pattern
	}

	files, err := discoverFiles(ctx, root, pattern)
	if err != nil {
		return schema.BatchValidationReport{}, err
	}

	start := o.now()
	results, err := o.validateFiles(ctx, files, profiles, progress)
	if err != nil {
		return schema.BatchValidationReport{}, err
	}
	end := o.now()

	name := batchNameFrom(ctx, defaultBatchName(root))
	return agg.BuildReport(name, results, start, end, o.runConfiguration(root, pattern, profiles)), nil
}

// validateFiles returns one result per file in discovery order.
func (o *Orchestrator) validateFiles(ctx context.Context, files []string, profiles []string, progress schema.ProgressFunc) ([]schema.ValidationResult, error) {
	results := make([]schema.ValidationResult, len(files))
	emit := func(i int) {
		if progress != nil {
			progress(schema.NewBatchValidationProgress(i+1, len(files), files[i]))
		}
	}

	workers := min(o.cfg.Workers, len(files))
	if workers <= 1 {
		for i, path := range files {
			if err := ctx.Err(); err != nil {
				return nil, fmt.Errorf("batch cancelled: %w", err)
			}
			result, err := o.validateFile(ctx, path, profiles)
			if err != nil {
				return nil, err
			}
			results[i] = result
			emit(i)
		}
		return results, nil
	}

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	jobCh := make(chan int)
	resultCh := make(chan indexedResult, workers)
	var wg sync.WaitGroup

	for range workers {
		wg.Go(func() {
			for i := range jobCh {
				result, err := o.validateFile(runCtx, files[i], profiles)
				resultCh <- indexedResult{index: i, result: result, err: err}
			}
		})
	}

	go func() {
		defer close(jobCh)
		for i := range files {
			select {
			case jobCh <- i:
			case <-runCtx.Done():
				return
			}
		}
	}()

	go func() {
		wg.Wait()
		close(resultCh)
	}()

	// Reassemble by index so progress is reported in discovery order.
	pending := make(map[int]schema.ValidationResult)
	next := 0
	var firstErr error
	for item := range resultCh {
		if item.err != nil {
			if firstErr == nil {
				firstErr = item.err
				cancel()
			}
			continue
		}
		if firstErr != nil {
			continue
		}
		pending[item.index] = item.result
		for {
			result, ok := pending[next]
			if !ok {
				break
			}
			delete(pending, next)
			results[next] = result
			emit(next)
			next++
		}
	}

	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("batch cancelled: %w", err)
	}
	if firstErr != nil {
		return nil, firstErr
	}
	return results, nil
}

// validateFile validates one batch member. Failures other than cancellation
// are folded into a failed result carrying one fatal issue.
func (o *Orchestrator) validateFile(ctx context.Context, path string, profiles []string) (schema.ValidationResult, error) {
	if err := ctx.Err(); err != nil {
		return schema.ValidationResult{}, fmt.Errorf("batch cancelled: %w", err)
	}
	start := o.now()
	result, err := o.ValidateResource(ctx, path, profiles)
	if err == nil {
		return result, nil
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return schema.ValidationResult{}, fmt.Errorf("batch cancelled: %w", err)
	}
	end := o.now()
	return failedResult(path, profiles, err, end.Sub(start), end), nil
}

// failedResult builds the result recorded for a file that could not be validated.
func failedResult(path string, profiles []string, err error, duration time.Duration, ts time.Time) schema.ValidationResult {
	code := codeException
	if errors.Is(err, parser.ErrParse) {
		code = codeStructure
	}
	issue := schema.ValidationIssue{
		Severity:    schema.SeverityFatal,
		Code:        code,
		Description: err.Error(),
	}
	return schema.NewValidationResult(path, "", "", profiles, []schema.ValidationIssue{issue}, duration, ts)
}

// runConfiguration captures the parameters of a batch for the report.
func (o *Orchestrator) runConfiguration(root, pattern string, profiles []string) schema.RunConfiguration {
	return schema.RunConfiguration{
		PassThreshold: o.cfg.PassThreshold,
		Profiles:      slices.Clone(profiles),
		Root:          root,
		Pattern:       pattern,
		Workers:       o.cfg.Workers,
		Normalize:     o.cfg.Normalize,
		Formats:       slices.Clone(o.cfg.Formats),
	}
}

// defaultBatchName is the base name of the absolute root.
func defaultBatchName(root string) string {
	if abs, err := filepath.Abs(root); err == nil {
		root = abs
	}
	return filepath.Base(root)
}
