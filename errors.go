package storekit

import "errors"

var (
	// ErrUnsupportedScheme is returned by Open when no loader is
	// registered for the URI's scheme.
	ErrUnsupportedScheme = errors.New("unsupported store scheme")

	// ErrBackendOpen is returned by Open when a loader was found but
	// produced no session.
	ErrBackendOpen = errors.New("backend failed to open store")

	// ErrTypeMismatch is returned by the duplicating accessors when the
	// Info holds a different kind. The borrowing accessors signal the
	// same condition by returning a zero value instead.
	ErrTypeMismatch = errors.New("info holds a different kind")

	// ErrCtrlUnsupported is returned by Ctrl when the session does not
	// understand the command, or accepts no commands at all.
	ErrCtrlUnsupported = errors.New("control command not supported")

	// ErrUnknownFormat is reported by loaders that could not decode
	// their input as any supported format.
	ErrUnknownFormat = errors.New("data in unknown format")
)
