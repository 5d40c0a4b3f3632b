package resolve

import (
	"fmt"

	"github.com/vk/gfxprobe/internal/scene"
)

// UnresolvedReferenceError reports a reference to a name that no declared
// entity carries.
type UnresolvedReferenceError struct {
	// Name is the dangling reference.
	Name string
	// Expected is the kind of entity the reference needed.
	Expected string
	// ReferencedBy is the declaring resource or job.
	ReferencedBy string
}

func (e *UnresolvedReferenceError) Error() string {
	return fmt.Sprintf("unresolved reference: %q (referenced by %q) does not name a declared %s",
		e.Name, e.ReferencedBy, e.Expected)
}

// KindMismatchError reports a reference that resolved to an entity of the
// wrong kind.
type KindMismatchError struct {
	Name         string
	Expected     scene.Kind
	Found        scene.Kind
	ReferencedBy string
}

func (e *KindMismatchError) Error() string {
	return fmt.Sprintf("kind mismatch: %q (referenced by %q) is a %s, expected a %s",
		e.Name, e.ReferencedBy, e.Found, e.Expected)
}

// CyclicDependencyError reports that the resource graph is not a DAG.
type CyclicDependencyError struct {
	Cause error
}

func (e *CyclicDependencyError) Error() string {
	return fmt.Sprintf("cyclic dependency in resource graph: %v", e.Cause)
}

func (e *CyclicDependencyError) Unwrap() error {
	return e.Cause
}
