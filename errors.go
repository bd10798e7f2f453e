package filterio

import "errors"

// Errors returned by persistence operations. Every operation wraps one of
// these, so callers classify failures with errors.Is.
var (
	// ErrUnsupportedFormat indicates an extension outside the registry, a
	// format not offered for the current filter, or an optional codec that
	// is unavailable.
	ErrUnsupportedFormat = errors.New("unsupported file format")

	// ErrIO indicates an open, read, write or close failure at the storage layer.
	ErrIO = errors.New("file I/O failed")

	// ErrDecode indicates a readable file with unexpected structure, such as
	// an archive without the expected entry.
	ErrDecode = errors.New("malformed file content")

	// ErrEncode indicates a state value no codec of the chosen format can store.
	ErrEncode = errors.New("value cannot be encoded")

	// ErrInvalidConfig indicates invalid session configuration.
	ErrInvalidConfig = errors.New("invalid filterio configuration")
)
