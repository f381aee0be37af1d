package resolver

import (
	"strconv"
	"strings"

	"github.com/kingrea/setupplan/internal/fixture"
)

// Param is one parametrized argument of a collected item.
type Param struct {
	Argname string
	Index   int
	Value   fixture.Value
	ID      string
	Scope   fixture.Scope
	// Direct marks values given to the test itself rather than to a fixture.
	Direct bool
}

// Item is a single collected test: a test function bound to one parameter
// combination.
type Item struct {
	Test   string
	NodeID string
	// ID is the bracketed part of NodeID, empty for unparametrized tests.
	ID string
	// FixtureNames is the test's closure, session fixtures first.
	FixtureNames []string
	// Params lists parametrized arguments in the order they were applied.
	Params []Param
}

// Param returns the parameter bound to argname.
func (it *Item) Param(argname string) (Param, bool) {
	for _, p := range it.Params {
		if p.Argname == argname {
			return p, true
		}
	}
	return Param{}, false
}

// Parametrized reports whether argname is bound to a value for this item.
func (it *Item) Parametrized(argname string) bool {
	_, ok := it.Param(argname)
	return ok
}

// Collect expands every test into items, in test declaration order. Fixture
// parameters are applied first, in closure order, then direct ones. Each
// application multiplies the combinations collected so far, so the first
// argument applied varies slowest.
func (r *Resolver) Collect() []*Item {
	var items []*Item
	for _, test := range r.file.Tests {
		items = append(items, r.collectTest(test)...)
	}
	return items
}

type callSpec struct {
	params []Param
	ids    []string
}

func (cs callSpec) with(p Param) callSpec {
	return callSpec{
		params: append(append([]Param{}, cs.params...), p),
		ids:    append(append([]string{}, cs.ids...), p.ID),
	}
}

func (r *Resolver) collectTest(test fixture.TestFunc) []*Item {
	closure := r.Closure(test)
	direct := make(map[string]bool, len(test.Parametrize))
	for _, ps := range test.Parametrize {
		direct[ps.Name] = true
	}
	calls := []callSpec{{}}
	for _, name := range closure {
		if direct[name] {
			continue
		}
		node, ok := r.nodes[name]
		if !ok || !node.Def.Parametrized() {
			continue
		}
		calls = parametrize(calls, name, node.Def.ParamValues(), node.Def.IDs, node.Def.Scope, false)
	}
	for _, ps := range test.Parametrize {
		calls = parametrize(calls, ps.Name, ps.ParamValues(), ps.IDs, fixture.ScopeFunction, true)
	}

	items := make([]*Item, 0, len(calls))
	for _, cs := range calls {
		item := &Item{
			Test:         test.Name,
			NodeID:       r.file.Path + "::" + test.Name,
			FixtureNames: append([]string{}, closure...),
			Params:       cs.params,
		}
		if len(cs.ids) > 0 {
			item.ID = strings.Join(cs.ids, "-")
			item.NodeID += "[" + item.ID + "]"
		}
		items = append(items, item)
	}
	return items
}

func parametrize(calls []callSpec, argname string, values []fixture.Value, explicit []string, scope fixture.Scope, isDirect bool) []callSpec {
	ids := paramIDs(values, explicit)
	next := make([]callSpec, 0, len(calls)*len(values))
	for _, cs := range calls {
		for idx, v := range values {
			next = append(next, cs.with(Param{
				Argname: argname,
				Index:   idx,
				Value:   v,
				ID:      ids[idx],
				Scope:   scope,
				Direct:  isDirect,
			}))
		}
	}
	return next
}

// paramIDs renders the id of each value and makes duplicates unique with a
// counter suffix.
func paramIDs(values []fixture.Value, explicit []string) []string {
	ids := make([]string, len(values))
	for i, v := range values {
		if i < len(explicit) {
			ids[i] = explicit[i]
			continue
		}
		ids[i] = v.ID()
	}
	return makeUnique(ids)
}

func makeUnique(ids []string) []string {
	counts := make(map[string]int, len(ids))
	for _, id := range ids {
		counts[id]++
	}
	if len(counts) == len(ids) {
		return ids
	}
	taken := func(candidate string) bool {
		for _, id := range ids {
			if id == candidate {
				return true
			}
		}
		return false
	}
	suffixes := make(map[string]int, len(counts))
	for i, id := range ids {
		if counts[id] <= 1 {
			continue
		}
		sep := ""
		if id != "" && id[len(id)-1] >= '0' && id[len(id)-1] <= '9' {
			sep = "_"
		}
		candidate := id + sep + strconv.Itoa(suffixes[id])
		for taken(candidate) {
			suffixes[id]++
			candidate = id + sep + strconv.Itoa(suffixes[id])
		}
		ids[i] = candidate
		suffixes[id]++
	}
	return ids
}
