package resolver

import (
	"sort"

	"github.com/kingrea/setupplan/internal/fixture"
)

// Node captures a declared fixture plus its dependency metadata.
type Node struct {
	Name         string
	Def          fixture.FixtureDef
	Dependencies []string
	Dependents   []string
}

// Scope returns the node's fixture scope.
func (n *Node) Scope() fixture.Scope {
	return n.Def.Scope
}

// Resolver holds the fixture graph of one file.
type Resolver struct {
	file         fixture.File
	nodes        map[string]*Node
	orderedNames []string
}

// New normalizes the file and builds its fixture graph. Undeclared
// references and dependency cycles are reported here so nothing downstream
// ever sees a broken graph.
func New(file fixture.File) (*Resolver, error) {
	normalized, err := file.Normalized()
	if err != nil {
		return nil, err
	}
	nodes := make(map[string]*Node, len(normalized.Fixtures))
	ordered := make([]string, 0, len(normalized.Fixtures))
	for _, def := range normalized.Fixtures {
		nodes[def.Name] = &Node{
			Name:         def.Name,
			Def:          def,
			Dependencies: def.Dependencies(),
		}
		ordered = append(ordered, def.Name)
	}
	for _, name := range ordered {
		node := nodes[name]
		for _, depName := range node.Dependencies {
			dep, ok := nodes[depName]
			if !ok {
				return nil, &fixture.UndeclaredFixtureError{File: normalized.Path, Requester: "fixture " + node.Name, Name: depName}
			}
			dep.Dependents = append(dep.Dependents, node.Name)
		}
	}
	for _, node := range nodes {
		if len(node.Dependents) > 1 {
			sort.Strings(node.Dependents)
		}
	}
	r := &Resolver{
		file:         normalized,
		nodes:        nodes,
		orderedNames: ordered,
	}
	if err := r.checkCycles(); err != nil {
		return nil, err
	}
	return r, nil
}

// Path returns the test module path.
func (r *Resolver) Path() string {
	return r.file.Path
}

// Node retrieves a fixture node by name.
func (r *Resolver) Node(name string) (*Node, bool) {
	node, ok := r.nodes[name]
	return node, ok
}

// Queue returns the fixtures needed to provide the targets, dependencies
// before the fixtures that request them. With no targets every declared
// fixture is queued.
func (r *Resolver) Queue(targets ...string) ([]*Node, error) {
	if len(targets) == 0 {
		targets = append([]string{}, r.orderedNames...)
	}
	visited := make(map[string]bool, len(targets))
	ordered := make([]*Node, 0, len(r.nodes))
	var visit func(string) error
	visit = func(name string) error {
		if name == fixture.RequestArg || visited[name] {
			return nil
		}
		node, ok := r.nodes[name]
		if !ok {
			return &fixture.UndeclaredFixtureError{File: r.file.Path, Requester: "queue", Name: name}
		}
		visited[name] = true
		for _, dep := range node.Dependencies {
			if err := visit(dep); err != nil {
				return err
			}
		}
		ordered = append(ordered, node)
		return nil
	}
	for _, name := range targets {
		if err := visit(name); err != nil {
			return nil, err
		}
	}
	return ordered, nil
}

// Closure returns every argument name the test needs: its own arguments
// followed by their transitive fixture dependencies, breadth first, then
// stably ordered with session fixtures first. Directly parametrized
// arguments are not expanded.
func (r *Resolver) Closure(test fixture.TestFunc) []string {
	direct := make(map[string]bool, len(test.Parametrize))
	for _, ps := range test.Parametrize {
		direct[ps.Name] = true
	}
	closure := make([]string, 0, len(test.Uses))
	seen := make(map[string]bool, len(test.Uses))
	for _, name := range test.Uses {
		if !seen[name] {
			seen[name] = true
			closure = append(closure, name)
		}
	}
	for i := 0; i < len(closure); i++ {
		name := closure[i]
		if direct[name] {
			continue
		}
		node, ok := r.nodes[name]
		if !ok {
			continue
		}
		for _, dep := range node.Def.Uses {
			if !seen[dep] {
				seen[dep] = true
				closure = append(closure, dep)
			}
		}
	}
	sort.SliceStable(closure, func(i, j int) bool {
		return r.argScope(closure[i], direct).Rank() > r.argScope(closure[j], direct).Rank()
	})
	return closure
}

// argScope is the scope an argument name sorts under. Unknown names, the
// request pseudo-fixture and direct arguments count as function scope.
func (r *Resolver) argScope(name string, direct map[string]bool) fixture.Scope {
	if direct[name] {
		return fixture.ScopeFunction
	}
	if node, ok := r.nodes[name]; ok {
		return node.Def.Scope
	}
	return fixture.ScopeFunction
}

const (
	visitNone = iota
	visitActive
	visitDone
)

func (r *Resolver) checkCycles() error {
	state := make(map[string]int, len(r.nodes))
	var stack []string
	var visit func(string) error
	visit = func(name string) error {
		switch state[name] {
		case visitDone:
			return nil
		case visitActive:
			start := 0
			for i, entry := range stack {
				if entry == name {
					start = i
					break
				}
			}
			path := append(append([]string{}, stack[start:]...), name)
			return &fixture.CycleError{File: r.file.Path, Path: path}
		}
		state[name] = visitActive
		stack = append(stack, name)
		for _, dep := range r.nodes[name].Dependencies {
			if err := visit(dep); err != nil {
				return err
			}
		}
		stack = stack[:len(stack)-1]
		state[name] = visitDone
		return nil
	}
	for _, name := range r.orderedNames {
		if err := visit(name); err != nil {
			return err
		}
	}
	return nil
}
