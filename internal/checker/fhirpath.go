package checker

import (
	"fmt"
	"sync"

	"github.com/gofhir/fhirpath"

	"github.com/huangsam/fhirgate/schema"
)

// invariantEvaluator evaluates profile invariants with a shared cache of compiled expressions.
type invariantEvaluator struct {
	exprCache   map[string]*fhirpath.Expression
	exprCacheMu sync.RWMutex
}

func newInvariantEvaluator() *invariantEvaluator {
	return &invariantEvaluator{exprCache: make(map[string]*fhirpath.Expression)}
}

func (e *invariantEvaluator) check(doc schema.Document, p *Profile) []schema.ValidationIssue {
	if len(p.Invariants) == 0 {
		return nil
	}
	var issues []schema.ValidationIssue
	for _, inv := range p.Invariants {
		expr, err := e.compiled(inv.Expression)
		if err != nil {
			issues = append(issues, issue(schema.SeverityWarning, "processing", p.ResourceType,
				"invariant %s could not be compiled: %v", inv.Key, err))
			continue
		}
		result, err := expr.Evaluate(doc.Raw)
		if err != nil {
			issues = append(issues, issue(schema.SeverityWarning, "processing", p.ResourceType,
				"invariant %s could not be evaluated: %v", inv.Key, err))
			continue
		}
		if !invariantPassed(result) {
			issues = append(issues, schema.ValidationIssue{
				Severity:    inv.severity,
				Code:        "invariant",
				Description: fmt.Sprintf("constraint failed: %s: %s", inv.Key, inv.Human),
				Location:    p.ResourceType,
			})
		}
	}
	return issues
}

// compiled returns a cached compiled expression or compiles a new one.
func (e *invariantEvaluator) compiled(expr string) (*fhirpath.Expression, error) {
	e.exprCacheMu.RLock()
	compiled, ok := e.exprCache[expr]
	e.exprCacheMu.RUnlock()
	if ok {
		return compiled, nil
	}

	compiled, err := fhirpath.Compile(expr)
	if err != nil {
		return nil, err
	}

	e.exprCacheMu.Lock()
	e.exprCache[expr] = compiled
	e.exprCacheMu.Unlock()
	return compiled, nil
}

func (e *invariantEvaluator) cacheSize() int {
	e.exprCacheMu.RLock()
	defer e.exprCacheMu.RUnlock()
	return len(e.exprCache)
}

// invariantPassed treats an empty result as not applicable. A result that is not a
// boolean counts as satisfied.
func invariantPassed(result fhirpath.Collection) bool {
	if result.Empty() {
		return true
	}
	b, err := result.ToBoolean()
	if err != nil {
		return true
	}
	return b
}
