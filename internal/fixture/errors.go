package fixture

import (
	"fmt"
	"strings"
)

// UndeclaredFixtureError reports a request for a fixture the file never
// declares.
type UndeclaredFixtureError struct {
	File      string
	Requester string
	Name      string
}

func (e *UndeclaredFixtureError) Error() string {
	return fmt.Sprintf("%s: %s: fixture %q not found", e.File, e.Requester, e.Name)
}

// CycleError reports a fixture dependency loop. Path starts and ends with
// the same fixture.
type CycleError struct {
	File string
	Path []string
}

func (e *CycleError) Error() string {
	return fmt.Sprintf("%s: fixture dependency cycle: %s", e.File, strings.Join(e.Path, " -> "))
}

// DuplicateFixtureError reports two fixtures sharing one name.
type DuplicateFixtureError struct {
	File string
	Name string
}

func (e *DuplicateFixtureError) Error() string {
	return fmt.Sprintf("%s: fixture %q declared more than once", e.File, e.Name)
}

// ScopeMismatchError reports a fixture depending on a fixture with a
// narrower scope.
type ScopeMismatchError struct {
	File            string
	Fixture         string
	Scope           Scope
	Dependency      string
	DependencyScope Scope
}

func (e *ScopeMismatchError) Error() string {
	return fmt.Sprintf("%s: ScopeMismatch: %s scoped fixture %s requests %s scoped fixture %s",
		e.File, e.Scope, e.Fixture, e.DependencyScope, e.Dependency)
}
