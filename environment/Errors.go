package environment

import "errors"

var (
	// ErrConfiguration reports an invalid construction option. All mode
	// names, backend names, and replica counts are validated up front
	// so a constructed environment never fails a dispatch later.
	ErrConfiguration = errors.New("environment: invalid configuration")

	// ErrPartialReconfigure reports a reset that asked for both a
	// partial replica subset and a reconfiguration. Reconfiguration
	// rebuilds the whole batch, so the combination is contradictory.
	ErrPartialReconfigure = errors.New("environment: partial reset " +
		"cannot reconfigure")

	// ErrClosed reports use of an environment after Close
	ErrClosed = errors.New("environment: closed")
)
