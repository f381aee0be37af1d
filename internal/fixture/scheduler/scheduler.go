package scheduler

import (
	"fmt"

	"github.com/kingrea/setupplan/internal/fixture"
	"github.com/kingrea/setupplan/internal/fixture/resolver"
)

// Planner exposes the contract callers use to obtain a setup plan.
type Planner interface {
	Plan() (*Plan, error)
}

// Scheduler implements Planner on top of a resolver.
type Scheduler struct {
	resolver *resolver.Resolver
}

// New wires a Scheduler to a resolver.
func New(res *resolver.Resolver) (*Scheduler, error) {
	if res == nil {
		return nil, fmt.Errorf("scheduler: resolver is required")
	}
	return &Scheduler{resolver: res}, nil
}

// Build resolves the file and plans it in one step.
func Build(file fixture.File) (*Plan, error) {
	res, err := resolver.New(file)
	if err != nil {
		return nil, err
	}
	s, err := New(res)
	if err != nil {
		return nil, err
	}
	return s.Plan()
}

// EventKind enumerates plan events.
type EventKind string

const (
	EventSetup    EventKind = "SETUP"
	EventTeardown EventKind = "TEARDOWN"
	EventRun      EventKind = "RUN"
)

// InstanceState tracks a fixture instance through its lifecycle.
type InstanceState string

const (
	InstanceUncreated InstanceState = "uncreated"
	InstanceActive    InstanceState = "active"
	InstanceTornDown  InstanceState = "torn-down"
)

// FixtureInstance is one live value of a fixture.
type FixtureInstance struct {
	Fixture string
	Scope   fixture.Scope
	// ParamIndex is -1 for unparametrized fixtures.
	ParamIndex int
	Param      fixture.Value
	// Uses lists the fixtures this instance was built from.
	Uses  []string
	State InstanceState

	key        string
	finalizers []*FixtureInstance
}

// Parametrized reports whether the instance holds a parameter value.
func (fi *FixtureInstance) Parametrized() bool {
	return fi.ParamIndex >= 0
}

func (fi *FixtureInstance) matches(p resolver.Param, ok bool) bool {
	if !ok {
		return !fi.Parametrized()
	}
	return fi.Parametrized() && fi.Param.Equal(p.Value)
}

// Event is a single step of a plan. Instance is set for SETUP and TEARDOWN;
// Item is the test being set up, run or torn down, and is nil for teardowns
// at the end of the session.
type Event struct {
	Kind     EventKind
	Instance *FixtureInstance
	Item     *resolver.Item
}

// Plan is the full schedule of one file.
type Plan struct {
	Path      string
	Items     []*resolver.Item
	Events    []Event
	Instances []*FixtureInstance
}

// Plan computes the reordered item list and the event sequence.
func (s *Scheduler) Plan() (*Plan, error) {
	items := reorderItems(s.resolver.Collect())
	st := &state{
		res:    s.resolver,
		active: make(map[string]*FixtureInstance),
		plan:   &Plan{Path: s.resolver.Path(), Items: items},
	}
	for _, item := range items {
		if err := st.runItem(item); err != nil {
			return nil, err
		}
	}
	st.item = nil
	st.finishAll(st.session)
	if err := Check(st.plan); err != nil {
		return nil, err
	}
	return st.plan, nil
}

type state struct {
	res     *resolver.Resolver
	active  map[string]*FixtureInstance
	session []*FixtureInstance
	local   []*FixtureInstance
	item    *resolver.Item
	plan    *Plan
}

func (st *state) runItem(item *resolver.Item) error {
	st.item = item
	st.local = nil
	for _, name := range item.FixtureNames {
		if _, err := st.get(name); err != nil {
			return err
		}
	}
	st.emit(EventRun, nil)
	st.finishAll(st.local)
	st.local = nil
	return nil
}

// get returns the live instance for name, building it and its dependencies
// when needed. A live instance holding a different parameter is torn down
// first, together with everything built on top of it.
func (st *state) get(name string) (*FixtureInstance, error) {
	if name == fixture.RequestArg {
		return nil, nil
	}
	param, hasParam := st.item.Param(name)
	scope := fixture.ScopeFunction
	key := name
	var deps []string
	if param.Direct {
		// Direct values shadow any fixture of the same name for this test only.
		key = st.item.Test + "::" + name
	} else {
		node, ok := st.res.Node(name)
		if !ok {
			return nil, &fixture.UndeclaredFixtureError{File: st.plan.Path, Requester: "test " + st.item.Test, Name: name}
		}
		scope = node.Scope()
		deps = node.Dependencies
	}
	parents := make([]*FixtureInstance, 0, len(deps))
	for _, dep := range deps {
		parent, err := st.get(dep)
		if err != nil {
			return nil, err
		}
		if parent.Scope.Rank() < scope.Rank() {
			return nil, &fixture.ScopeMismatchError{
				File:            st.plan.Path,
				Fixture:         name,
				Scope:           scope,
				Dependency:      dep,
				DependencyScope: parent.Scope,
			}
		}
		parents = append(parents, parent)
	}
	if inst, ok := st.active[key]; ok {
		if inst.matches(param, hasParam) {
			return inst, nil
		}
		st.finish(inst)
	}
	inst := &FixtureInstance{
		Fixture:    name,
		Scope:      scope,
		ParamIndex: -1,
		Uses:       deps,
		State:      InstanceActive,
		key:        key,
	}
	if hasParam {
		inst.ParamIndex = param.Index
		inst.Param = param.Value
	}
	st.active[key] = inst
	for _, parent := range parents {
		parent.finalizers = append(pruneFinished(parent.finalizers), inst)
	}
	st.plan.Instances = append(st.plan.Instances, inst)
	st.emit(EventSetup, inst)
	if scope == fixture.ScopeSession {
		st.session = append(st.session, inst)
	} else {
		st.local = append(st.local, inst)
	}
	return inst, nil
}

// finish tears an instance down after everything registered on it, newest
// first. Finishing an instance that is no longer active does nothing.
func (st *state) finish(inst *FixtureInstance) {
	if inst.State != InstanceActive {
		return
	}
	for len(inst.finalizers) > 0 {
		last := inst.finalizers[len(inst.finalizers)-1]
		inst.finalizers = inst.finalizers[:len(inst.finalizers)-1]
		st.finish(last)
	}
	st.emit(EventTeardown, inst)
	inst.State = InstanceTornDown
	if st.active[inst.key] == inst {
		delete(st.active, inst.key)
	}
}

// pruneFinished drops finalizers that were already torn down, so a session
// instance outliving many function instances keeps only the live ones.
func pruneFinished(finalizers []*FixtureInstance) []*FixtureInstance {
	live := finalizers[:0]
	for _, fin := range finalizers {
		if fin.State == InstanceActive {
			live = append(live, fin)
		}
	}
	clear(finalizers[len(live):])
	return live
}

func (st *state) finishAll(stack []*FixtureInstance) {
	for i := len(stack) - 1; i >= 0; i-- {
		st.finish(stack[i])
	}
}

func (st *state) emit(kind EventKind, inst *FixtureInstance) {
	st.plan.Events = append(st.plan.Events, Event{Kind: kind, Instance: inst, Item: st.item})
}
