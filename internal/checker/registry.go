package checker

import (
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"maps"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"sync"

	"github.com/gofhir/fhir/r4"
	"gopkg.in/yaml.v3"

	"github.com/huangsam/fhirgate/schema"
)

//go:embed profiles/base.yaml
var baseProfiles []byte

// BaseProfilePrefix is the canonical URL prefix of the core resource profiles.
const BaseProfilePrefix = "http://hl7.org/fhir/StructureDefinition/"

// Invariant is a FHIRPath constraint evaluated at the resource root.
type Invariant struct {
	Key        string `yaml:"key"`
	Human      string `yaml:"human"`
	Expression string `yaml:"expression"`
	Severity   string `yaml:"severity"`

	severity schema.Severity
}

// Profile is the set of rules a resource is checked against.
type Profile struct {
	URL          string              `yaml:"url"`
	Name         string              `yaml:"name"`
	ResourceType string              `yaml:"resourceType"`
	Base         string              `yaml:"base"`
	Required     []string            `yaml:"required"`
	Codes        map[string][]string `yaml:"codes"`
	DateElements []string            `yaml:"dateElements"`
	Invariants   []Invariant         `yaml:"invariants"`
}

type profileFile struct {
	Profiles []Profile `yaml:"profiles"`
}

// Registry holds profiles keyed by canonical URL. It is safe for concurrent use.
type Registry struct {
	mu       sync.RWMutex
	profiles map[string]*Profile
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{profiles: make(map[string]*Profile)}
}

// NewBaseRegistry creates a registry preloaded with the embedded base profiles.
func NewBaseRegistry() (*Registry, error) {
	r := NewRegistry()
	if _, err := r.LoadYAML(baseProfiles); err != nil {
		return nil, fmt.Errorf("failed to load base profiles: %w", err)
	}
	return r, nil
}

// Register validates and adds a profile, replacing any profile with the same URL.
// A profile naming a registered base inherits its rules.
func (r *Registry) Register(p Profile) error {
	if p.URL == "" {
		return errors.New("profile url is required")
	}
	if p.ResourceType == "" {
		return fmt.Errorf("profile %s: resourceType is required", p.URL)
	}
	p.Invariants = slices.Clone(p.Invariants)
	for i := range p.Invariants {
		inv := &p.Invariants[i]
		if inv.Key == "" || inv.Expression == "" {
			return fmt.Errorf("profile %s: invariant %d needs a key and an expression", p.URL, i)
		}
		sev := schema.SeverityError
		if inv.Severity != "" {
			parsed, err := schema.ParseSeverity(inv.Severity)
			if err != nil {
				return fmt.Errorf("profile %s: invariant %s: %w", p.URL, inv.Key, err)
			}
			sev = parsed
		}
		inv.severity = sev
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if p.Base != "" && p.Base != p.URL {
		if base, ok := r.profiles[p.Base]; ok {
			p = inherit(*base, p)
		}
	}
	r.profiles[p.URL] = &p
	return nil
}

// Lookup returns the profile registered under url.
func (r *Registry) Lookup(url string) (*Profile, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	p, ok := r.profiles[url]
	return p, ok
}

// URLs returns every registered profile URL in sorted order.
func (r *Registry) URLs() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	urls := make([]string, 0, len(r.profiles))
	for url := range r.profiles {
		urls = append(urls, url)
	}
	slices.Sort(urls)
	return urls
}

// LoadYAML registers every profile of a YAML rule file and returns how many were added.
func (r *Registry) LoadYAML(data []byte) (int, error) {
	var file profileFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return 0, fmt.Errorf("failed to decode profile rules: %w", err)
	}
	for i, p := range file.Profiles {
		if err := r.Register(p); err != nil {
			return i, err
		}
	}
	return len(file.Profiles), nil
}

// LoadStructureDefinition converts a FHIR StructureDefinition (JSON) into a profile and registers it.
func (r *Registry) LoadStructureDefinition(data []byte) (Profile, error) {
	var sd r4.StructureDefinition
	if err := json.Unmarshal(data, &sd); err != nil {
		return Profile{}, fmt.Errorf("failed to decode StructureDefinition: %w", err)
	}
	p := profileFromStructureDefinition(&sd)
	if err := r.Register(p); err != nil {
		return Profile{}, err
	}
	return p, nil
}

// LoadDir registers YAML rule files and StructureDefinition JSON files found under dir.
// Other files are ignored. Files are loaded in lexical order so bases precede derived profiles
// that sort after them.
func (r *Registry) LoadDir(dir string) (int, error) {
	var paths []string
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		switch strings.ToLower(filepath.Ext(path)) {
		case ".yaml", ".yml", ".json":
			paths = append(paths, path)
		}
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("failed to scan profile directory %s: %w", dir, err)
	}
	slices.Sort(paths)

	loaded := 0
	for _, path := range paths {
		data, err := os.ReadFile(path)
		if err != nil {
			return loaded, fmt.Errorf("failed to read profile %s: %w", path, err)
		}
		if strings.EqualFold(filepath.Ext(path), ".json") {
			if _, err := r.LoadStructureDefinition(data); err != nil {
				return loaded, fmt.Errorf("%s: %w", path, err)
			}
			loaded++
			continue
		}
		n, err := r.LoadYAML(data)
		loaded += n
		if err != nil {
			return loaded, fmt.Errorf("%s: %w", path, err)
		}
	}
	return loaded, nil
}

func profileFromStructureDefinition(sd *r4.StructureDefinition) Profile {
	p := Profile{
		URL:          derefString(sd.Url),
		Name:         derefString(sd.Name),
		ResourceType: derefString(sd.Type),
		Base:         derefString(sd.BaseDefinition),
		Codes:        map[string][]string{},
	}

	var elements []r4.ElementDefinition
	switch {
	case sd.Snapshot != nil && len(sd.Snapshot.Element) > 0:
		elements = sd.Snapshot.Element
	case sd.Differential != nil:
		elements = sd.Differential.Element
	}

	for i := range elements {
		ed := &elements[i]
		path := derefString(ed.Path)
		if path == p.ResourceType {
			for j := range ed.Constraint {
				p.Invariants = append(p.Invariants, invariantFromConstraint(&ed.Constraint[j]))
			}
			continue
		}
		element, ok := topLevelElement(p.ResourceType, path)
		if !ok {
			continue
		}
		if ed.Min != nil && *ed.Min >= 1 {
			p.Required = append(p.Required, element)
		}
		for _, t := range ed.Type {
			switch derefString(t.Code) {
			case "date", "dateTime", "instant":
				p.DateElements = append(p.DateElements, strings.TrimSuffix(element, "[x]")+dateSuffix(element, derefString(t.Code)))
			}
		}
	}
	return p
}

func invariantFromConstraint(c *r4.ElementDefinitionConstraint) Invariant {
	sev := "error"
	if c.Severity != nil && *c.Severity != r4.ConstraintSeverityError {
		sev = "warning"
	}
	return Invariant{
		Key:        derefString(c.Key),
		Human:      derefString(c.Human),
		Expression: derefString(c.Expression),
		Severity:   sev,
	}
}

// topLevelElement returns the element name for a direct child path such as Patient.birthDate.
func topLevelElement(resourceType, path string) (string, bool) {
	rest, ok := strings.CutPrefix(path, resourceType+".")
	if !ok || rest == "" || strings.Contains(rest, ".") {
		return "", false
	}
	return rest, true
}

// dateSuffix names the concrete JSON property of a date-typed choice element.
func dateSuffix(element, code string) string {
	if !strings.HasSuffix(element, "[x]") {
		return ""
	}
	return strings.ToUpper(code[:1]) + code[1:]
}

// inherit merges the base rules into p. Rules declared on p win for codes.
func inherit(base, p Profile) Profile {
	merged := p
	merged.Required = mergeUnique(base.Required, p.Required)
	merged.DateElements = mergeUnique(base.DateElements, p.DateElements)
	merged.Codes = make(map[string][]string, len(base.Codes)+len(p.Codes))
	maps.Copy(merged.Codes, base.Codes)
	maps.Copy(merged.Codes, p.Codes)
	merged.Invariants = slices.Clone(base.Invariants)
	for _, inv := range p.Invariants {
		if idx := slices.IndexFunc(merged.Invariants, func(b Invariant) bool { return b.Key == inv.Key }); idx >= 0 {
			merged.Invariants[idx] = inv
			continue
		}
		merged.Invariants = append(merged.Invariants, inv)
	}
	return merged
}

func mergeUnique(a, b []string) []string {
	out := slices.Clone(a)
	for _, v := range b {
		if !slices.Contains(out, v) {
			out = append(out, v)
		}
	}
	return out
}

func derefString(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
