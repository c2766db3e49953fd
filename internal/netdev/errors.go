package netdev

import "errors"

var (
	// ErrSourceUnavailable indicates the counter source could not be
	// read at all (missing /proc on non-Linux hosts, sandboxed
	// environments). Fatal to the sampling attempt that hit it.
	ErrSourceUnavailable = errors.New("counter source unavailable")

	// ErrMetadataUnavailable indicates link attributes could not be
	// read for a single interface. Non-fatal: utilization and detail
	// fields degrade to unknown for that interface only.
	ErrMetadataUnavailable = errors.New("interface metadata unavailable")
)
