// Package netdev reads per-interface network counters and link
// attributes from the kernel. It owns the snapshot and metadata value
// types consumed by the rate engine; the actual counter source is
// abstracted behind Provider so it can be swapped per platform and
// faked in tests.
package netdev

import "time"

// CounterSet holds the cumulative counters of one interface at a single
// point in time. All values are monotonically non-decreasing between
// reads unless the underlying adapter was reset or its counter wrapped.
type CounterSet struct {
	RxBytes     uint64
	TxBytes     uint64
	RxPackets   uint64
	TxPackets   uint64
	RxErrors    uint64
	TxErrors    uint64
	RxDropped   uint64
	TxDropped   uint64
	RxMulticast uint64
}

// Snapshot is the full counter state of all interfaces captured at one
// instant. CapturedAt carries Go's monotonic clock reading, so the
// elapsed time between two snapshots is immune to wall-clock jumps.
type Snapshot struct {
	Interfaces map[string]CounterSet
	CapturedAt time.Time
}

// Operational states reported by the kernel for a network interface.
const (
	OperStateUp      = "up"
	OperStateDown    = "down"
	OperStateUnknown = "unknown"
)

// Metadata holds the static/state attributes of one interface. Zero
// values mean "unknown": many virtual and loopback interfaces report no
// link speed at all.
type Metadata struct {
	// OperState is one of the OperState* constants.
	OperState string

	// MTU in bytes, 0 if unknown.
	MTU int64

	// SpeedBits is the nominal link speed in bits per second, 0 if
	// unknown.
	SpeedBits uint64
}
