// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package generate

import "errors"

var (
	// ErrBackendUnavailable reports that the backend could not be reached,
	// answered with an error, or dropped the stream before completion.
	ErrBackendUnavailable = errors.New("generation backend unavailable")

	// ErrMalformedChunk reports a stream line that is not a chunk record.
	ErrMalformedChunk = errors.New("malformed stream chunk")
)

// IsBackendFailure reports whether err is one of the backend failure kinds.
// Malformed chunks propagate like an unavailable backend.
func IsBackendFailure(err error) bool {
	return errors.Is(err, ErrBackendUnavailable) || errors.Is(err, ErrMalformedChunk)
}
