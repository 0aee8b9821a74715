package calltree

import (
	"github.com/callprofiler/callprofiler/internal/event"
)

type (
	// Node is one reconstructed call activation. Nodes live in the Tree's
	// arena and refer to each other by index so that deeply recursive traces
	// don't turn into deeply recursive ownership.
	Node struct {
		Function   string           `json:"function"`
		Module     string           `json:"module,omitempty"`
		Path       string           `json:"path,omitempty"`
		Line       uint32           `json:"line,omitempty"`
		Tag        event.LibraryTag `json:"library_tag"`
		Native     bool             `json:"native,omitempty"`
		StartNS    uint64           `json:"start_ns"`
		EndNS      uint64           `json:"end_ns"`
		DurationNS uint64           `json:"duration_ns"`
		Children   []int            `json:"children,omitempty"`
		Parent     int              `json:"-"`
	}

	Tree struct {
		Root  int    `json:"root"`
		Nodes []Node `json:"nodes"`
	}
)

func nodeFromEvent(ev event.Event) Node {
	return Node{
		Function: ev.Function,
		Module:   ev.Module,
		Path:     ev.Path,
		Line:     ev.Line,
		Tag:      ev.Tag,
		Native:   ev.Kind.IsNative(),
		StartNS:  ev.TimestampNS,
		Parent:   -1,
	}
}

func (n *Node) SetDuration(t uint64) {
	n.EndNS = t
	n.DurationNS = n.EndNS - n.StartNS
}

func (n *Node) ref() FrameRef {
	return FrameRef{Function: n.Function, Path: n.Path, Line: n.Line}
}

// Build reconstructs the call hierarchy from a time-ordered event sequence.
//
// Call events push a new node onto an explicit stack, return events pop and
// finalize the top. The bottom of the stack is the profiled entry point
// itself; it is the only frame allowed to still be open when the stream ends,
// in which case its end time is taken from the last observed event.
func Build(events []event.Event) (*Tree, error) {
	t := Tree{Root: -1}
	var stack []int

	for _, ev := range events {
		switch {
		case ev.Kind.IsCall():
			n := nodeFromEvent(ev)
			i := len(t.Nodes)
			if len(stack) > 0 {
				parent := stack[len(stack)-1]
				n.Parent = parent
				t.Nodes = append(t.Nodes, n)
				t.Nodes[parent].Children = append(t.Nodes[parent].Children, i)
			} else {
				t.Nodes = append(t.Nodes, n)
				t.Root = i
			}
			stack = append(stack, i)
		case ev.Kind.IsReturn():
			if len(stack) == 0 {
				return nil, &StructuralError{
					Kind:   UnmatchedReturn,
					Frames: []FrameRef{{Function: ev.Function, Path: ev.Path, Line: ev.Line}},
				}
			}
			top := stack[len(stack)-1]
			stack = stack[:len(stack)-1]
			n := &t.Nodes[top]
			if n.Native != ev.Kind.IsNative() {
				return nil, &StructuralError{
					Kind: KindMismatch,
					Frames: []FrameRef{
						n.ref(),
						{Function: ev.Function, Path: ev.Path, Line: ev.Line},
					},
				}
			}
			n.SetDuration(ev.TimestampNS)
		}
	}

	if t.Root == -1 {
		return nil, &StructuralError{Kind: EmptyTrace}
	}
	if len(stack) > 1 {
		frames := make([]FrameRef, 0, len(stack)-1)
		for _, i := range stack[1:] {
			frames = append(frames, t.Nodes[i].ref())
		}
		return nil, &StructuralError{Kind: UnclosedCalls, Frames: frames}
	}
	if len(stack) == 1 {
		// The profiled call itself never returned before the stream ended.
		// There is no out-of-band end timestamp, so close it at the last
		// event observed.
		t.Nodes[stack[0]].SetDuration(events[len(events)-1].TimestampNS)
	}

	return &t, nil
}
