package domain

import "errors"

// Sentinel errors classifying every failure pairdb surfaces.
// Wrap with fmt.Errorf("...: %w", Err...) so errors.Is works across layers.
var (
	// ErrFormat indicates malformed input: wrong array shape, unsupported
	// dtype, out-of-range score, or an empty protein identifier.
	ErrFormat = errors.New("format error")

	// ErrIO indicates a file or database access failure.
	ErrIO = errors.New("io error")

	// ErrQuery indicates invalid query parameters, such as a min-score
	// threshold above the max-score threshold.
	ErrQuery = errors.New("query error")
)
