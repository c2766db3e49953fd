// Package rate derives per-second rates from pairs of counter
// snapshots. Everything in here is a pure function over value types:
// no clocks, no I/O, no logging.
package rate

import (
	"errors"
	"time"

	"github.com/netrate/netrate/internal/netdev"
)

// ErrInvalidInterval is returned when the elapsed time between two
// snapshots is not positive. Computing a rate over such an interval
// would divide by zero or produce a negative window.
var ErrInvalidInterval = errors.New("elapsed time between snapshots must be positive")

// Record holds the derived rates of one interface over one sampling
// window. All fields are >= 0; an observed counter decrease never
// produces a negative rate. Records are immutable values, recomputed
// fresh each cycle.
type Record struct {
	RxBytesPerSec     float64
	TxBytesPerSec     float64
	RxPacketsPerSec   float64
	TxPacketsPerSec   float64
	RxErrorsPerSec    float64
	TxErrorsPerSec    float64
	RxDroppedPerSec   float64
	TxDroppedPerSec   float64
	RxMulticastPerSec float64
}

// TotalBytesPerSec is the combined rx+tx byte rate.
func (r Record) TotalBytesPerSec() float64 {
	return r.RxBytesPerSec + r.TxBytesPerSec
}

// TotalPacketsPerSec is the combined rx+tx packet rate.
func (r Record) TotalPacketsPerSec() float64 {
	return r.RxPacketsPerSec + r.TxPacketsPerSec
}

// Add returns the fieldwise sum of two records.
func (r Record) Add(o Record) Record {
	return Record{
		RxBytesPerSec:     r.RxBytesPerSec + o.RxBytesPerSec,
		TxBytesPerSec:     r.TxBytesPerSec + o.TxBytesPerSec,
		RxPacketsPerSec:   r.RxPacketsPerSec + o.RxPacketsPerSec,
		TxPacketsPerSec:   r.TxPacketsPerSec + o.TxPacketsPerSec,
		RxErrorsPerSec:    r.RxErrorsPerSec + o.RxErrorsPerSec,
		TxErrorsPerSec:    r.TxErrorsPerSec + o.TxErrorsPerSec,
		RxDroppedPerSec:   r.RxDroppedPerSec + o.RxDroppedPerSec,
		TxDroppedPerSec:   r.TxDroppedPerSec + o.TxDroppedPerSec,
		RxMulticastPerSec: r.RxMulticastPerSec + o.RxMulticastPerSec,
	}
}

// Between computes per-interface rates from two snapshots separated by
// the measured wall-clock duration elapsed. Only interfaces present in
// both snapshots appear in the result; hot-plugged or removed
// interfaces are excluded, not errors.
//
// A counter that decreased between the snapshots is treated as a reset:
// the effective delta is the current value alone, as if the counter
// restarted from zero. This under-reports traffic sent before the
// reset but never yields a negative rate. See DESIGN.md for the
// wraparound trade-off.
func Between(prior, current netdev.Snapshot, elapsed time.Duration) (map[string]Record, error) {
	if elapsed <= 0 {
		return nil, ErrInvalidInterval
	}

	seconds := elapsed.Seconds()
	rates := make(map[string]Record, len(current.Interfaces))

	for name, cur := range current.Interfaces {
		prev, ok := prior.Interfaces[name]
		if !ok {
			continue
		}

		rates[name] = Record{
			RxBytesPerSec:     rateOf(prev.RxBytes, cur.RxBytes, seconds),
			TxBytesPerSec:     rateOf(prev.TxBytes, cur.TxBytes, seconds),
			RxPacketsPerSec:   rateOf(prev.RxPackets, cur.RxPackets, seconds),
			TxPacketsPerSec:   rateOf(prev.TxPackets, cur.TxPackets, seconds),
			RxErrorsPerSec:    rateOf(prev.RxErrors, cur.RxErrors, seconds),
			TxErrorsPerSec:    rateOf(prev.TxErrors, cur.TxErrors, seconds),
			RxDroppedPerSec:   rateOf(prev.RxDropped, cur.RxDropped, seconds),
			TxDroppedPerSec:   rateOf(prev.TxDropped, cur.TxDropped, seconds),
			RxMulticastPerSec: rateOf(prev.RxMulticast, cur.RxMulticast, seconds),
		}
	}

	return rates, nil
}

func rateOf(prev, cur uint64, seconds float64) float64 {
	delta := cur - prev
	if cur < prev {
		// Reset: assume the counter restarted from zero.
		delta = cur
	}

	return float64(delta) / seconds
}
