package scheduler

import (
	"github.com/kingrea/setupplan/internal/fixture"
	"github.com/kingrea/setupplan/internal/fixture/resolver"
)

// argKey identifies one value of one session parameter.
type argKey struct {
	argname string
	index   int
}

// reorderItems groups items that share session-scoped parameter values so
// fewer session instances have to be rebuilt. The result is a permutation of
// items; lists shorter than three are returned unchanged.
func reorderItems(items []*resolver.Item) []*resolver.Item {
	if len(items) < 3 {
		return items
	}
	keysByItem := make([][]argKey, len(items))
	itemsByKey := make(map[argKey][]int)
	for idx, item := range items {
		for _, p := range item.Params {
			if p.Scope != fixture.ScopeSession {
				continue
			}
			key := argKey{argname: p.Argname, index: p.Index}
			keysByItem[idx] = append(keysByItem[idx], key)
			itemsByKey[key] = append(itemsByKey[key], idx)
		}
	}
	ignore := make(map[argKey]bool)
	queue := make([]int, len(items))
	for i := range queue {
		queue[i] = i
	}
	done := make(map[int]bool, len(items))
	order := make([]int, 0, len(items))
	for len(queue) > 0 {
		var pending []int
		pendingSet := make(map[int]bool)
		var slicing *argKey
		for len(queue) > 0 {
			idx := queue[0]
			queue = queue[1:]
			if done[idx] || pendingSet[idx] {
				continue
			}
			var live []argKey
			for _, key := range keysByItem[idx] {
				if !ignore[key] {
					live = append(live, key)
				}
			}
			if len(live) == 0 {
				pending = append(pending, idx)
				pendingSet[idx] = true
				continue
			}
			key := live[len(live)-1]
			slicing = &key
			matching := append([]int{}, itemsByKey[key]...)
			for i := len(matching) - 1; i >= 0; i-- {
				m := matching[i]
				for _, k := range keysByItem[m] {
					itemsByKey[k] = append([]int{m}, itemsByKey[k]...)
				}
				queue = append([]int{m}, queue...)
			}
			break
		}
		// Narrower scopes carry no keys, so pending items keep the order
		// they were popped in.
		for _, idx := range pending {
			done[idx] = true
			order = append(order, idx)
		}
		if slicing != nil {
			ignore[*slicing] = true
		}
	}
	out := make([]*resolver.Item, len(order))
	for i, idx := range order {
		out[i] = items[idx]
	}
	return out
}
