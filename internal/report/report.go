// Package report turns a finished call tree into a single self-contained HTML
// document. The document embeds all styling and interaction logic so it stays
// functional offline, and its bytes are a pure function of the tree and
// summary it was rendered from.
package report

import (
	"errors"
	"fmt"
	"html"
	"strings"

	"github.com/callprofiler/callprofiler/internal/calltree"
	"github.com/callprofiler/callprofiler/internal/event"
	"github.com/callprofiler/callprofiler/internal/summary"
)

// ErrInvalidTree indicates the tree handed to Render violates the structural
// invariants the builder guarantees. No partial document is ever returned.
var ErrInvalidTree = errors.New("report: invalid call tree")

type Options struct {
	// GeneratedAt, when set, is displayed in the report footer. It is pure
	// metadata: it never affects anything else in the document.
	GeneratedAt string
}

// Render serializes the tree depth-first into a collapsible HTML document.
//
// Every node on the critical path is highlighted so the whole chain from the
// root down to the slowest call can be traced without drilling down by hand;
// subtrees off that chain start collapsed. All start/end times are shown
// relative to the root's start.
func Render(t *calltree.Tree, s summary.Summary, opts Options) ([]byte, error) {
	if err := validate(t); err != nil {
		return nil, err
	}

	critical := make(map[int]bool, len(s.CriticalPath))
	for _, i := range s.CriticalPath {
		critical[i] = true
	}

	root := t.Nodes[t.Root]
	var b strings.Builder
	b.Grow(1024 + 256*len(t.Nodes))

	writeHead(&b, root.Function)
	writeSummaryBar(&b, t, s)
	writeTree(&b, t, s, critical)
	writeFoot(&b, opts)

	return []byte(b.String()), nil
}

// validate checks the invariants Render relies on: a root in range, end times
// not before start times, and children nested inside their parent without
// overlapping each other in call order.
func validate(t *calltree.Tree) error {
	if t == nil || t.Root < 0 || t.Root >= len(t.Nodes) {
		return ErrInvalidTree
	}
	for i := range t.Nodes {
		n := t.Nodes[i]
		if n.EndNS < n.StartNS {
			return fmt.Errorf("%w: %s ends before it starts", ErrInvalidTree, n.Function)
		}
		prevEnd := n.StartNS
		for _, c := range n.Children {
			if c < 0 || c >= len(t.Nodes) || t.Nodes[c].Parent != i {
				return ErrInvalidTree
			}
			child := t.Nodes[c]
			if child.StartNS < prevEnd || child.EndNS > n.EndNS {
				return fmt.Errorf("%w: %s escapes its parent interval", ErrInvalidTree, child.Function)
			}
			prevEnd = child.EndNS
		}
	}
	return nil
}

func writeSummaryBar(b *strings.Builder, t *calltree.Tree, s summary.Summary) {
	slowest := t.Nodes[s.Slowest]
	b.WriteString(`<div class="summary">`)
	fmt.Fprintf(b,
		`<div class="item"><span class="label">Total Duration:</span><span class="value">%s</span></div>`,
		formatDuration(s.TotalDurationNS))
	fmt.Fprintf(b,
		`<div class="item"><span class="label">Slowest Function:</span><span class="slowest-name">%s (%s self)</span></div>`,
		html.EscapeString(slowest.Function),
		formatDuration(summary.ExclusiveDurationNS(t, s.Slowest)))
	fmt.Fprintf(b,
		`<div class="item"><span class="label">Functions:</span><span class="value">%d</span></div>`,
		s.FunctionCount)
	b.WriteString("</div>\n")
}

// writeTree walks the arena with an explicit stack so the Go call depth stays
// constant no matter how deep the profiled recursion went.
func writeTree(b *strings.Builder, t *calltree.Tree, s summary.Summary, critical map[int]bool) {
	type frame struct {
		idx  int
		next int
	}

	b.WriteString(`<div class="tree"><ul>`)
	writeNode(b, t, s, critical, t.Root)
	stack := []frame{{idx: t.Root}}
	for len(stack) > 0 {
		top := &stack[len(stack)-1]
		n := t.Nodes[top.idx]
		if top.next < len(n.Children) {
			if top.next == 0 {
				// Subtrees start collapsed unless they continue the
				// critical path, which must stay visible end to end.
				if critical[top.idx] && top.idx != s.Slowest {
					b.WriteString("<ul>")
				} else {
					b.WriteString(`<ul class="hidden">`)
				}
			}
			child := n.Children[top.next]
			top.next++
			writeNode(b, t, s, critical, child)
			stack = append(stack, frame{idx: child})
			continue
		}
		if len(n.Children) > 0 {
			b.WriteString("</ul>")
		}
		b.WriteString("</li>\n")
		stack = stack[:len(stack)-1]
	}
	b.WriteString("</ul></div>\n")
}

func writeNode(b *strings.Builder, t *calltree.Tree, s summary.Summary, critical map[int]bool, i int) {
	n := t.Nodes[i]
	base := t.Nodes[t.Root].StartNS

	b.WriteString("<li>")

	classes := "node"
	if n.Tag.Kind != "" {
		classes += " " + string(n.Tag.Kind)
	}
	if critical[i] {
		classes += " critical"
	}
	if i == s.Slowest {
		classes += " slowest"
	}
	fmt.Fprintf(b, `<div class="%s">`, classes)

	if len(n.Children) > 0 {
		arrow := "▶"
		if critical[i] && i != s.Slowest {
			arrow = "▼"
		}
		fmt.Fprintf(b, `<span class="toggle" onclick="toggle(this)">%s</span>`, arrow)
	}

	fmt.Fprintf(b, `<span class="func-name">%s</span>`, html.EscapeString(n.Function))
	if n.Path != "" {
		fmt.Fprintf(b, `<span class="location">%s:%d</span>`, html.EscapeString(shortPath(n.Path)), n.Line)
	}
	fmt.Fprintf(b, `<span class="duration">%s</span>`, formatDuration(n.DurationNS))
	fmt.Fprintf(b, `<span class="times">[start: %s | end: %s]</span>`,
		formatDuration(n.StartNS-base), formatDuration(n.EndNS-base))
	if badge := badgeText(n); badge != "" {
		fmt.Fprintf(b, `<span class="lib-badge">%s</span>`, html.EscapeString(badge))
	}

	b.WriteString("</div>")
}

func badgeText(n calltree.Node) string {
	switch n.Tag.Kind {
	case event.Stdlib:
		return "stdlib"
	case event.ThirdParty:
		if n.Tag.Library != "" {
			return n.Tag.Library
		}
		return "third-party"
	}
	return ""
}

func formatDuration(ns uint64) string {
	switch {
	case ns < 1_000:
		return fmt.Sprintf("%dns", ns)
	case ns < 1_000_000:
		return fmt.Sprintf("%.2fµs", float64(ns)/1_000)
	case ns < 1_000_000_000:
		return fmt.Sprintf("%.2fms", float64(ns)/1_000_000)
	default:
		return fmt.Sprintf("%.3fs", float64(ns)/1_000_000_000)
	}
}

func shortPath(p string) string {
	if i := strings.LastIndexAny(p, `/\`); i >= 0 {
		return p[i+1:]
	}
	return p
}
