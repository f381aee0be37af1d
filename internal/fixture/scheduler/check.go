package scheduler

import (
	"fmt"

	"github.com/kingrea/setupplan/internal/fixture/resolver"
)

// Check verifies the lifecycle guarantees of a plan: every item runs exactly
// once, every instance is set up once and torn down once after that, and
// no fixture ever holds two live values at the same time.
func Check(p *Plan) error {
	if p == nil {
		return fmt.Errorf("scheduler: plan is nil")
	}
	ran := make(map[*resolver.Item]int, len(p.Items))
	states := make(map[*FixtureInstance]InstanceState, len(p.Instances))
	live := make(map[string]*FixtureInstance)
	for idx, ev := range p.Events {
		switch ev.Kind {
		case EventRun:
			if ev.Item == nil {
				return fmt.Errorf("scheduler: %s: event %d runs no item", p.Path, idx)
			}
			ran[ev.Item]++
		case EventSetup:
			inst := ev.Instance
			if states[inst] != "" && states[inst] != InstanceUncreated {
				return fmt.Errorf("scheduler: %s: %s set up twice", p.Path, describe(inst))
			}
			if other, ok := live[inst.key]; ok {
				return fmt.Errorf("scheduler: %s: %s set up while %s is live", p.Path, describe(inst), describe(other))
			}
			states[inst] = InstanceActive
			live[inst.key] = inst
		case EventTeardown:
			inst := ev.Instance
			if states[inst] != InstanceActive {
				return fmt.Errorf("scheduler: %s: %s torn down while not active", p.Path, describe(inst))
			}
			states[inst] = InstanceTornDown
			delete(live, inst.key)
		default:
			return fmt.Errorf("scheduler: %s: unknown event kind %q", p.Path, ev.Kind)
		}
	}
	for _, item := range p.Items {
		if ran[item] != 1 {
			return fmt.Errorf("scheduler: %s: %s ran %d times", p.Path, item.NodeID, ran[item])
		}
	}
	if len(ran) != len(p.Items) {
		return fmt.Errorf("scheduler: %s: %d items ran, %d collected", p.Path, len(ran), len(p.Items))
	}
	for inst, st := range states {
		if st != InstanceTornDown {
			return fmt.Errorf("scheduler: %s: %s left %s", p.Path, describe(inst), st)
		}
	}
	return nil
}

func describe(inst *FixtureInstance) string {
	if inst.Parametrized() {
		return fmt.Sprintf("%s[%s]", inst.Fixture, inst.Param.Repr())
	}
	return inst.Fixture
}
