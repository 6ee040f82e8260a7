package contract

import "fmt"

// ValidationFault reports that the conformance checker could not evaluate a resource.
// It is distinct from a resource failing validation.
type ValidationFault struct {
	ResourceType string
	Profile      string
	Err          error
}

// Error implements the error interface.
func (f *ValidationFault) Error() string {
	return fmt.Sprintf("checker failed for %s against %s: %v", f.ResourceType, f.Profile, f.Err)
}

// Unwrap returns the underlying checker error.
func (f *ValidationFault) Unwrap() error {
	return f.Err
}
