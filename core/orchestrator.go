// Package core has core logic for validation orchestration and CI gating.
package core

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/huangsam/fhirgate/internal/contract"
	"github.com/huangsam/fhirgate/internal/normalize"
	"github.com/huangsam/fhirgate/internal/parser"
	"github.com/huangsam/fhirgate/schema"
)

// ErrNotDirectory is returned when a batch root exists but is not a directory.
var ErrNotDirectory = errors.New("not a directory")

// Orchestrator drives parsing, optional normalization and conformance checking.
// It is safe for concurrent use as long as the checker is.
type Orchestrator struct {
	checker    contract.Checker
	normalizer *normalize.Normalizer // nil when normalization is disabled
	cfg        *contract.Config
	now        func() time.Time
}

// NewOrchestrator creates an orchestrator over a checker and a validated config.
func NewOrchestrator(checker contract.Checker, cfg *contract.Config) *Orchestrator {
	if cfg == nil {
		cfg = contract.DefaultConfig()
	}
	o := &Orchestrator{
		checker: checker,
		cfg:     cfg.Clone(),
		now:     time.Now,
	}
	if o.cfg.Workers < 1 {
		o.cfg.Workers = 1
	}
	if o.cfg.Normalize {
		o.normalizer = normalize.New(o.cfg.Normalization)
	}
	return o
}

// ValidateContent validates one in-memory document against the given profiles.
// When profiles is empty the base profile of the document's resource type is used.
func (o *Orchestrator) ValidateContent(ctx context.Context, name string, data []byte, ct schema.ContentType, profiles []string) (schema.ValidationResult, error) {
	if err := ctx.Err(); err != nil {
		return schema.ValidationResult{}, fmt.Errorf("validation of %s cancelled: %w", name, err)
	}
	start := o.now()

	doc, err := parser.Parse(name, data, ct)
	if err != nil {
		return schema.ValidationResult{}, err
	}
	doc = o.normalizeDocument(doc)

	profiles = effectiveProfiles(profiles, doc.ResourceType)
	var issues []schema.ValidationIssue
	for _, profile := range profiles {
		found, err := o.checker.Check(ctx, doc, profile)
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return schema.ValidationResult{}, fmt.Errorf("validation of %s cancelled: %w", name, ctxErr)
			}
			return schema.ValidationResult{}, &contract.ValidationFault{ResourceType: doc.ResourceType, Profile: profile, Err: err}
		}
		issues = append(issues, found...)
	}

	if err := ctx.Err(); err != nil {
		return schema.ValidationResult{}, fmt.Errorf("validation of %s cancelled: %w", name, err)
	}
	end := o.now()
	return schema.NewValidationResult(name, doc.ResourceType, doc.ID, profiles, issues, end.Sub(start), end), nil
}

// ValidateResource reads a file and validates it. The content type comes from the extension.
func (o *Orchestrator) ValidateResource(ctx context.Context, path string, profiles []string) (schema.ValidationResult, error) {
	info, err := os.Stat(path)
	if err != nil {
		return schema.ValidationResult{}, fmt.Errorf("resource %s: %w", path, err)
	}
	if info.IsDir() {
		return schema.ValidationResult{}, fmt.Errorf("resource %s is a directory", path)
	}
	ct, err := parser.DetectContentType(path)
	if err != nil {
		return schema.ValidationResult{}, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return schema.ValidationResult{}, fmt.Errorf("failed to read %s: %w", path, err)
	}
	return o.ValidateContent(ctx, path, data, ct, profiles)
}

// normalizeDocument returns the normalized document, or doc itself when normalization is off.
// Values that could not be normalized are logged redacted and left for the checker to report.
func (o *Orchestrator) normalizeDocument(doc schema.Document) schema.Document {
	if o.normalizer == nil {
		return doc
	}
	normalized, changes, err := o.normalizer.NormalizeResource(doc)
	if err != nil {
		contract.LogWarn(fmt.Sprintf("Normalization skipped for %s", doc.Name), err)
		return doc
	}
	for _, c := range changes {
		if c.OK {
			continue
		}
		if c.Reason != "" {
			contract.LogWarn(fmt.Sprintf("Invalid %s in %s", c.Path, doc.Name),
				fmt.Errorf("value %s %s", normalize.Redact(c.Field, c.From), c.Reason))
			continue
		}
		contract.LogWarn(fmt.Sprintf("Could not normalize %s in %s", c.Path, doc.Name),
			fmt.Errorf("value %s", normalize.Redact(c.Field, c.From)))
	}
	return normalized
}

// effectiveProfiles falls back to the base profile of the resource type.
func effectiveProfiles(profiles []string, resourceType string) []string {
	if len(profiles) == 0 {
		return []string{schema.DefaultProfileURL(resourceType)}
	}
	return profiles
}
