package summary

import (
	"github.com/callprofiler/callprofiler/internal/calltree"
)

type (
	// Summary holds the aggregates the report needs: the total run time, the
	// call count, the node with the largest exclusive duration and the chain
	// of ancestors leading to it.
	Summary struct {
		TotalDurationNS uint64
		FunctionCount   int
		Slowest         int
		CriticalPath    []int
	}
)

// ExclusiveDurationNS returns the node's own time: its duration minus the
// time spent inside its direct children.
func ExclusiveDurationNS(t *calltree.Tree, i int) uint64 {
	n := t.Nodes[i]
	d := n.DurationNS
	for _, c := range n.Children {
		child := t.Nodes[c].DurationNS
		if child > d {
			return 0
		}
		d -= child
	}
	return d
}

// Summarize ranks every node by exclusive duration and records the path from
// the root to the slowest one.
//
// The root is only a candidate when it has no descendants: a profiled entry
// point always spans the whole run, flagging it tells the user nothing.
// Ranking by exclusive rather than inclusive duration keeps a node from
// winning just because it contains many cheap descendants. Ties go to the
// earliest start time, then to the earliest pre-order position.
func Summarize(t *calltree.Tree) Summary {
	root := t.Nodes[t.Root]
	s := Summary{
		TotalDurationNS: root.DurationNS,
		FunctionCount:   len(t.Nodes),
		Slowest:         t.Root,
	}

	var (
		best      uint64
		bestStart uint64
		found     bool
	)
	// Pre-order walk with an explicit stack, children pushed in reverse so
	// they are visited in call order.
	stack := []int{t.Root}
	for len(stack) > 0 {
		i := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		n := t.Nodes[i]
		for c := len(n.Children) - 1; c >= 0; c-- {
			stack = append(stack, n.Children[c])
		}
		if i == t.Root && len(root.Children) > 0 {
			continue
		}
		excl := ExclusiveDurationNS(t, i)
		if !found || excl > best || (excl == best && n.StartNS < bestStart) {
			best = excl
			bestStart = n.StartNS
			s.Slowest = i
			found = true
		}
	}

	for i := s.Slowest; i != -1; i = t.Nodes[i].Parent {
		s.CriticalPath = append(s.CriticalPath, i)
	}
	for l, r := 0, len(s.CriticalPath)-1; l < r; l, r = l+1, r-1 {
		s.CriticalPath[l], s.CriticalPath[r] = s.CriticalPath[r], s.CriticalPath[l]
	}

	return s
}
