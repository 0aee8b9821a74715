package errorutil

import "errors"

// ErrMalformedTrace is a base error type to use for failures that are due to
// an event stream that cannot be turned into a well-formed call tree.
var ErrMalformedTrace = errors.New("malformed trace")
