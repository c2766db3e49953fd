// Package report renders sampling results for the terminal. It is
// pure formatting over the core's value types: the engine never
// prints, and nothing in here feeds back into rate computation.
package report

import (
	"fmt"
	"time"

	"github.com/netrate/netrate/internal/rate"
)

// Unit selects whether throughput is displayed in bytes or bits.
type Unit string

const (
	UnitBytes Unit = "bytes"
	UnitBits  Unit = "bits"
)

// ParseUnit validates a display unit from config or flags.
func ParseUnit(s string) (Unit, error) {
	switch Unit(s) {
	case UnitBytes, UnitBits:
		return Unit(s), nil
	case "":
		return UnitBytes, nil
	default:
		return "", fmt.Errorf("unknown unit %q (want bytes or bits)", s)
	}
}

// Report is the output of one sampling cycle: the ordered, filtered,
// truncated samples plus the optional aggregate and utilization map.
type Report struct {
	// Samples in display order.
	Samples []rate.Sample

	// Total is the aggregate over the full filtered set, nil when not
	// requested.
	Total *rate.Record

	// Utilization holds percentage-of-capacity per interface; absent
	// keys mean the link speed is unknown.
	Utilization map[string]float64

	// Elapsed is the measured duration between the two snapshots.
	Elapsed time.Duration

	// Cycle counts sampling cycles from 1.
	Cycle int
}
