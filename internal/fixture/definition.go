package fixture

import (
	"fmt"
	"sort"
	"strings"

	"github.com/hashicorp/go-multierror"
)

// RequestArg is the built-in pseudo-fixture every parametrized fixture reads
// its current parameter from. It is never set up or torn down.
const RequestArg = "request"

// Scope controls how long a fixture instance may be shared.
type Scope string

const (
	ScopeFunction Scope = "function"
	ScopeSession  Scope = "session"
)

// Marker returns the single-letter scope tag used in setup plans.
func (s Scope) Marker() string {
	switch s {
	case ScopeSession:
		return "S"
	default:
		return "F"
	}
}

// Indent is the number of spaces a setup plan line is indented by for the
// scope. Wider scopes sit further left.
func (s Scope) Indent() int {
	switch s {
	case ScopeSession:
		return 0
	default:
		return 8
	}
}

// Rank orders scopes from narrowest to widest.
func (s Scope) Rank() int {
	switch s {
	case ScopeSession:
		return 1
	default:
		return 0
	}
}

func (s Scope) valid() bool {
	return s == ScopeFunction || s == ScopeSession
}

// File declares the fixtures and test functions of one test module.
type File struct {
	Path     string       `json:"path" yaml:"path" toml:"path"`
	Fixtures []FixtureDef `json:"fixtures,omitempty" yaml:"fixtures,omitempty" toml:"fixtures,omitempty"`
	Tests    []TestFunc   `json:"tests" yaml:"tests" toml:"tests"`
}

// FixtureDef declares a single named fixture.
type FixtureDef struct {
	Name   string   `json:"name" yaml:"name" toml:"name"`
	Scope  Scope    `json:"scope,omitempty" yaml:"scope,omitempty" toml:"scope,omitempty"`
	Params []any    `json:"params,omitempty" yaml:"params,omitempty" toml:"params,omitempty"`
	IDs    []string `json:"ids,omitempty" yaml:"ids,omitempty" toml:"ids,omitempty"`
	Uses   []string `json:"uses,omitempty" yaml:"uses,omitempty" toml:"uses,omitempty"`
}

// TestFunc declares a test function and the arguments it requests, in
// signature order.
type TestFunc struct {
	Name        string     `json:"name" yaml:"name" toml:"name"`
	Uses        []string   `json:"uses,omitempty" yaml:"uses,omitempty" toml:"uses,omitempty"`
	Parametrize []ParamSet `json:"parametrize,omitempty" yaml:"parametrize,omitempty" toml:"parametrize,omitempty"`
}

// ParamSet is a direct parametrization of a test argument.
type ParamSet struct {
	Name   string   `json:"name" yaml:"name" toml:"name"`
	Values []any    `json:"values" yaml:"values" toml:"values"`
	IDs    []string `json:"ids,omitempty" yaml:"ids,omitempty" toml:"ids,omitempty"`
}

// Parametrized reports whether the fixture carries a parameter list.
func (def FixtureDef) Parametrized() bool {
	return len(def.Params) > 0
}

// ParamValues wraps the normalized parameter list.
func (def FixtureDef) ParamValues() []Value {
	return wrapValues(def.Params)
}

// Dependencies returns the fixtures this fixture requests, without the
// request pseudo-fixture.
func (def FixtureDef) Dependencies() []string {
	out := make([]string, 0, len(def.Uses))
	for _, name := range def.Uses {
		if name == RequestArg {
			continue
		}
		out = append(out, name)
	}
	if len(out) == 0 {
		return nil
	}
	return out
}

// ParamValues wraps the normalized value list.
func (ps ParamSet) ParamValues() []Value {
	return wrapValues(ps.Values)
}

// Clone returns a deep copy of the file.
func (f File) Clone() File {
	clone := File{Path: f.Path}
	if len(f.Fixtures) > 0 {
		clone.Fixtures = make([]FixtureDef, len(f.Fixtures))
		for i, def := range f.Fixtures {
			clone.Fixtures[i] = def.Clone()
		}
	}
	if len(f.Tests) > 0 {
		clone.Tests = make([]TestFunc, len(f.Tests))
		for i, test := range f.Tests {
			clone.Tests[i] = test.Clone()
		}
	}
	return clone
}

// Clone returns a deep copy of the fixture definition.
func (def FixtureDef) Clone() FixtureDef {
	return FixtureDef{
		Name:   def.Name,
		Scope:  def.Scope,
		Params: cloneAnySlice(def.Params),
		IDs:    cloneStringSlice(def.IDs),
		Uses:   cloneStringSlice(def.Uses),
	}
}

// Clone returns a deep copy of the test declaration.
func (t TestFunc) Clone() TestFunc {
	clone := TestFunc{
		Name: t.Name,
		Uses: cloneStringSlice(t.Uses),
	}
	if len(t.Parametrize) > 0 {
		clone.Parametrize = make([]ParamSet, len(t.Parametrize))
		for i, ps := range t.Parametrize {
			clone.Parametrize[i] = ParamSet{
				Name:   ps.Name,
				Values: cloneAnySlice(ps.Values),
				IDs:    cloneStringSlice(ps.IDs),
			}
		}
	}
	return clone
}

// Normalized clones the file, fills in defaults and validates the result.
// Parametrized fixtures implicitly request the request pseudo-fixture and
// parameter values are converted to their canonical scalar types.
func (f File) Normalized() (File, error) {
	clone := f.Clone()
	clone.Path = strings.TrimSpace(clone.Path)
	var errs error
	for i := range clone.Fixtures {
		def := &clone.Fixtures[i]
		def.Name = strings.TrimSpace(def.Name)
		def.Scope = Scope(strings.ToLower(strings.TrimSpace(string(def.Scope))))
		if def.Scope == "" {
			def.Scope = ScopeFunction
		}
		def.Uses = trimAll(def.Uses)
		if def.Parametrized() && !containsString(def.Uses, RequestArg) {
			def.Uses = append(def.Uses, RequestArg)
		}
		params, err := normalizeScalars(def.Params)
		if err != nil {
			errs = multierror.Append(errs, fmt.Errorf("%s: fixture %s params: %w", clone.Path, def.Name, err))
		}
		def.Params = params
	}
	for i := range clone.Tests {
		test := &clone.Tests[i]
		test.Name = strings.TrimSpace(test.Name)
		test.Uses = trimAll(test.Uses)
		for j := range test.Parametrize {
			ps := &test.Parametrize[j]
			ps.Name = strings.TrimSpace(ps.Name)
			values, err := normalizeScalars(ps.Values)
			if err != nil {
				errs = multierror.Append(errs, fmt.Errorf("%s: test %s parametrize %s: %w", clone.Path, test.Name, ps.Name, err))
			}
			ps.Values = values
		}
	}
	if errs != nil {
		return File{}, errs
	}
	if err := clone.Validate(); err != nil {
		return File{}, err
	}
	return clone, nil
}

// Validate checks the file for every configuration error it can find and
// returns them together. Dependency cycles are detected by the resolver.
func (f File) Validate() error {
	var errs *multierror.Error
	if f.Path == "" {
		errs = multierror.Append(errs, fmt.Errorf("fixture: file path is required"))
	}
	if len(f.Tests) == 0 {
		errs = multierror.Append(errs, fmt.Errorf("%s: at least one test is required", f.Path))
	}
	declared := make(map[string]FixtureDef, len(f.Fixtures))
	for idx, def := range f.Fixtures {
		switch {
		case def.Name == "":
			errs = multierror.Append(errs, fmt.Errorf("%s: fixture[%d]: name is required", f.Path, idx))
			continue
		case def.Name == RequestArg:
			errs = multierror.Append(errs, fmt.Errorf("%s: fixture name %q is reserved", f.Path, RequestArg))
			continue
		}
		if _, exists := declared[def.Name]; exists {
			errs = multierror.Append(errs, &DuplicateFixtureError{File: f.Path, Name: def.Name})
			continue
		}
		declared[def.Name] = def
		if !def.Scope.valid() {
			errs = multierror.Append(errs, fmt.Errorf("%s: fixture %s: scope must be %q or %q, got %q", f.Path, def.Name, ScopeFunction, ScopeSession, def.Scope))
		}
		if len(def.IDs) > 0 && len(def.IDs) != len(def.Params) {
			errs = multierror.Append(errs, fmt.Errorf("%s: fixture %s: %d ids for %d params", f.Path, def.Name, len(def.IDs), len(def.Params)))
		}
		if dup := firstDuplicate(def.Uses); dup != "" {
			errs = multierror.Append(errs, fmt.Errorf("%s: fixture %s requests %s twice", f.Path, def.Name, dup))
		}
	}
	for _, def := range f.Fixtures {
		if _, ok := declared[def.Name]; !ok {
			continue
		}
		for _, dep := range def.Uses {
			if dep == RequestArg {
				continue
			}
			target, ok := declared[dep]
			if !ok {
				errs = multierror.Append(errs, &UndeclaredFixtureError{File: f.Path, Requester: "fixture " + def.Name, Name: dep})
				continue
			}
			if target.Scope.Rank() < def.Scope.Rank() {
				errs = multierror.Append(errs, &ScopeMismatchError{
					File:            f.Path,
					Fixture:         def.Name,
					Scope:           def.Scope,
					Dependency:      dep,
					DependencyScope: target.Scope,
				})
			}
		}
	}
	seenTests := map[string]struct{}{}
	for idx, test := range f.Tests {
		if test.Name == "" {
			errs = multierror.Append(errs, fmt.Errorf("%s: test[%d]: name is required", f.Path, idx))
			continue
		}
		if _, exists := seenTests[test.Name]; exists {
			errs = multierror.Append(errs, fmt.Errorf("%s: duplicate test %s", f.Path, test.Name))
			continue
		}
		seenTests[test.Name] = struct{}{}
		if dup := firstDuplicate(test.Uses); dup != "" {
			errs = multierror.Append(errs, fmt.Errorf("%s: test %s requests %s twice", f.Path, test.Name, dup))
		}
		direct := map[string]struct{}{}
		for _, ps := range test.Parametrize {
			if ps.Name == "" {
				errs = multierror.Append(errs, fmt.Errorf("%s: test %s: parametrize name is required", f.Path, test.Name))
				continue
			}
			if _, exists := direct[ps.Name]; exists {
				errs = multierror.Append(errs, fmt.Errorf("%s: test %s parametrizes %s twice", f.Path, test.Name, ps.Name))
				continue
			}
			direct[ps.Name] = struct{}{}
			if !containsString(test.Uses, ps.Name) {
				errs = multierror.Append(errs, fmt.Errorf("%s: test %s: function uses no argument %q", f.Path, test.Name, ps.Name))
			}
			if len(ps.Values) == 0 {
				errs = multierror.Append(errs, fmt.Errorf("%s: test %s: parametrize %s has no values", f.Path, test.Name, ps.Name))
			}
			if len(ps.IDs) > 0 && len(ps.IDs) != len(ps.Values) {
				errs = multierror.Append(errs, fmt.Errorf("%s: test %s: parametrize %s has %d ids for %d values", f.Path, test.Name, ps.Name, len(ps.IDs), len(ps.Values)))
			}
		}
		for _, arg := range test.Uses {
			if arg == RequestArg {
				continue
			}
			if _, ok := direct[arg]; ok {
				continue
			}
			if _, ok := declared[arg]; !ok {
				errs = multierror.Append(errs, &UndeclaredFixtureError{File: f.Path, Requester: "test " + test.Name, Name: arg})
			}
		}
	}
	return errs.ErrorOrNil()
}

func trimAll(values []string) []string {
	if len(values) == 0 {
		return nil
	}
	out := make([]string, 0, len(values))
	for _, v := range values {
		v = strings.TrimSpace(v)
		if v == "" {
			continue
		}
		out = append(out, v)
	}
	return out
}

func firstDuplicate(values []string) string {
	sorted := append([]string{}, values...)
	sort.Strings(sorted)
	for i := 1; i < len(sorted); i++ {
		if sorted[i] == sorted[i-1] {
			return sorted[i]
		}
	}
	return ""
}

func containsString(values []string, target string) bool {
	for _, v := range values {
		if v == target {
			return true
		}
	}
	return false
}

func cloneStringSlice(values []string) []string {
	if len(values) == 0 {
		return nil
	}
	clone := make([]string, len(values))
	copy(clone, values)
	return clone
}

func cloneAnySlice(values []any) []any {
	if len(values) == 0 {
		return nil
	}
	clone := make([]any, len(values))
	copy(clone, values)
	return clone
}
