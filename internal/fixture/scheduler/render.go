package scheduler

import (
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/kingrea/setupplan/internal/fixture"
	"github.com/kingrea/setupplan/internal/fixture/resolver"
)

const runIndent = "        "

// Lines renders the plan one event per line, headed by the file path.
func (p *Plan) Lines() []string {
	lines := make([]string, 0, len(p.Events)+1)
	lines = append(lines, p.Path)
	for _, ev := range p.Events {
		lines = append(lines, ev.Line())
	}
	return lines
}

// String renders the plan with a trailing newline.
func (p *Plan) String() string {
	return strings.Join(p.Lines(), "\n") + "\n"
}

// WriteTo writes the rendered plan to w.
func (p *Plan) WriteTo(w io.Writer) (int64, error) {
	n, err := io.WriteString(w, p.String())
	return int64(n), err
}

// Line renders a single event.
func (ev Event) Line() string {
	if ev.Kind == EventRun {
		return runLine(ev.Item)
	}
	inst := ev.Instance
	var b strings.Builder
	b.WriteString(strings.Repeat(" ", inst.Scope.Indent()))
	fmt.Fprintf(&b, "%-8s %s %s", ev.Kind, inst.Scope.Marker(), inst.Fixture)
	if ev.Kind == EventSetup {
		if deps := usedFixtures(inst.Uses, false); len(deps) > 0 {
			fmt.Fprintf(&b, " (fixtures used: %s)", strings.Join(deps, ", "))
		}
	}
	if inst.Parametrized() {
		fmt.Fprintf(&b, "[%s]", inst.Param.Repr())
	}
	return b.String()
}

func runLine(item *resolver.Item) string {
	line := runIndent + item.NodeID
	if used := usedFixtures(item.FixtureNames, true); len(used) > 0 {
		line += " (fixtures used: " + strings.Join(used, ", ") + ")"
	}
	return line
}

func usedFixtures(names []string, withRequest bool) []string {
	out := make([]string, 0, len(names))
	for _, name := range names {
		if !withRequest && name == fixture.RequestArg {
			continue
		}
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}
