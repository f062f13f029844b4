package appconfig

import "errors"

var (
	// ErrMalformedState is returned when a persisted blob is not a JSON
	// object or a nested section has the wrong type.
	ErrMalformedState = errors.New("malformed persisted settings")
	// ErrUnsupportedVersion is returned for blobs written by a newer schema.
	ErrUnsupportedVersion = errors.New("unsupported settings version")
)
