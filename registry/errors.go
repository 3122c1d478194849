package registry

import "errors"

var (
	// ErrNotFound is returned when a name, identity or clone does not resolve.
	ErrNotFound = errors.New("registry: asset not found")
	// ErrDuplicateName is returned when registering a name already bound.
	ErrDuplicateName = errors.New("registry: duplicate asset name")
	// ErrInvalidArgument is returned for malformed requests.
	ErrInvalidArgument = errors.New("registry: invalid argument")
	// ErrCorrupt signals broken internal bookkeeping.
	ErrCorrupt = errors.New("registry: internal state corrupt")
)
