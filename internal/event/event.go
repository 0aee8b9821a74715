package event

import "errors"

// ErrMissingName indicates a trace envelope without a profiled entry point name.
var ErrMissingName = errors.New("trace is missing a name")

type Kind string

const (
	Call         Kind = "call"
	Return       Kind = "return"
	NativeCall   Kind = "native_call"
	NativeReturn Kind = "native_return"
)

// IsCall returns true for the kinds that open a new call activation.
func (k Kind) IsCall() bool {
	return k == Call || k == NativeCall
}

// IsReturn returns true for the kinds that close the current call activation.
func (k Kind) IsReturn() bool {
	return k == Return || k == NativeReturn
}

// IsNative returns true for activations observed in native (non-interpreted) code.
func (k Kind) IsNative() bool {
	return k == NativeCall || k == NativeReturn
}

type TagKind string

const (
	UserCode   TagKind = "user"
	Stdlib     TagKind = "stdlib"
	ThirdParty TagKind = "third_party"
)

type (
	// LibraryTag is the code-origin classification computed by the
	// instrumentation hook. The engine carries it through to the report
	// unchanged, it never interprets specific library names.
	LibraryTag struct {
		Kind    TagKind `json:"kind"`
		Library string  `json:"library,omitempty"`
	}

	Event struct {
		Kind        Kind       `json:"kind"`
		Function    string     `json:"function"`
		Module      string     `json:"module,omitempty"`
		Path        string     `json:"path,omitempty"`
		Line        uint32     `json:"line,omitempty"`
		TimestampNS uint64     `json:"timestamp_ns"`
		Tag         LibraryTag `json:"library_tag"`
	}

	// Trace is the envelope emitted by the instrumentation hook: the name of
	// the profiled entry point plus every call/return observed during its
	// execution, in the exact order they occurred.
	Trace struct {
		Name   string  `json:"name"`
		Events []Event `json:"events"`
	}
)

func (t Trace) Validate() error {
	if t.Name == "" {
		return ErrMissingName
	}
	return nil
}
