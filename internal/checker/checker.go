// Package checker provides the built-in conformance checker.
//
// It covers structural rules (resource type, id, required elements, coded values, dates and
// literal references) and FHIRPath invariants declared by a profile. It does not implement
// the complete FHIR conformance grammar; a fuller engine can replace it behind
// contract.Checker.
package checker

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/huangsam/fhirgate/internal/contract"
	"github.com/huangsam/fhirgate/schema"
)

// ErrUnknownProfile means no profile is registered under the requested URL.
var ErrUnknownProfile = errors.New("unknown profile")

type ruleGroup func(doc schema.Document, p *Profile) []schema.ValidationIssue

// Checker checks documents against profiles from a Registry.
type Checker struct {
	registry  *Registry
	evaluator *invariantEvaluator
}

var _ contract.Checker = &Checker{} // Compile-time check

// New creates a Checker backed by reg.
func New(reg *Registry) *Checker {
	return &Checker{registry: reg, evaluator: newInvariantEvaluator()}
}

// NewDefault creates a Checker with the base profiles plus any profiles under profileDir.
func NewDefault(profileDir string) (*Checker, error) {
	reg, err := NewBaseRegistry()
	if err != nil {
		return nil, err
	}
	if profileDir != "" {
		if _, err := reg.LoadDir(profileDir); err != nil {
			return nil, err
		}
	}
	return New(reg), nil
}

// Registry returns the profile registry in use.
func (c *Checker) Registry() *Registry {
	return c.registry
}

// Check implements contract.Checker. Rule groups run in a fixed order and cancellation
// is honored between them.
func (c *Checker) Check(ctx context.Context, doc schema.Document, profileURL string) ([]schema.ValidationIssue, error) {
	p, err := c.resolve(profileURL)
	if err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if mismatch := checkResourceType(doc, p); len(mismatch) > 0 {
		return mismatch, nil
	}
	if len(doc.Raw) == 0 {
		raw, err := json.Marshal(doc.Data)
		if err != nil {
			return nil, fmt.Errorf("failed to encode %s for evaluation: %w", doc.Name, err)
		}
		doc.Raw = raw
	}

	groups := []ruleGroup{checkID, checkRequired, checkCodes, checkDates, checkReferences, c.evaluator.check}
	issues := []schema.ValidationIssue{}
	for _, group := range groups {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		issues = append(issues, group(doc, p)...)
	}
	return issues, nil
}

// resolve finds the profile for url. Core resource URLs without registered rules resolve to
// a profile carrying only the generic structural checks.
func (c *Checker) resolve(url string) (*Profile, error) {
	if p, ok := c.registry.Lookup(url); ok {
		return p, nil
	}
	if name, ok := strings.CutPrefix(url, BaseProfilePrefix); ok && name != "" && isUpper(name[0]) && !strings.Contains(name, "/") {
		return &Profile{URL: url, Name: name, ResourceType: name}, nil
	}
	return nil, fmt.Errorf("%w: %s", ErrUnknownProfile, url)
}
