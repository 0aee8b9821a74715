package calltree

import (
	"fmt"
	"strings"

	"github.com/callprofiler/callprofiler/internal/errorutil"
)

type ErrorKind string

const (
	// UnmatchedReturn is raised when a return event arrives with no call in
	// progress.
	UnmatchedReturn ErrorKind = "unmatched_return"
	// KindMismatch is raised when a native return closes a non-native call or
	// vice versa.
	KindMismatch ErrorKind = "kind_mismatch"
	// UnclosedCalls is raised when non-root frames are still open once the
	// event stream ends.
	UnclosedCalls ErrorKind = "unclosed_calls"
	// EmptyTrace is raised when the stream contains no call event at all.
	EmptyTrace ErrorKind = "empty_trace"
)

// FrameRef identifies a frame in an error message: which function, where.
type FrameRef struct {
	Function string
	Path     string
	Line     uint32
}

func (f FrameRef) String() string {
	if f.Path == "" {
		return f.Function
	}
	return fmt.Sprintf("%s (%s:%d)", f.Function, f.Path, f.Line)
}

// StructuralError reports an event stream that cannot form a well-formed call
// tree. These are terminal for the profiling run: they indicate an
// instrumentation bug or a trace truncated mid-run, not a transient condition.
type StructuralError struct {
	Kind   ErrorKind
	Frames []FrameRef
}

func (e *StructuralError) Error() string {
	switch e.Kind {
	case UnmatchedReturn:
		return fmt.Sprintf("calltree: return without a matching call: %s", e.Frames[0])
	case KindMismatch:
		return fmt.Sprintf("calltree: %s closed by a return of the wrong kind (%s)", e.Frames[0], e.Frames[1])
	case UnclosedCalls:
		names := make([]string, 0, len(e.Frames))
		for _, f := range e.Frames {
			names = append(names, f.String())
		}
		return fmt.Sprintf("calltree: calls never returned: %s", strings.Join(names, ", "))
	case EmptyTrace:
		return "calltree: trace contains no call events"
	}
	return fmt.Sprintf("calltree: structural error %q", string(e.Kind))
}

func (e *StructuralError) Unwrap() error {
	return errorutil.ErrMalformedTrace
}
