package rate

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/netrate/netrate/internal/netdev"
)

func snap(ifaces map[string]netdev.CounterSet) netdev.Snapshot {
	return netdev.Snapshot{Interfaces: ifaces}
}

func TestBetween_SimpleDelta(t *testing.T) {
	prior := snap(map[string]netdev.CounterSet{
		"eth0": {RxBytes: 1000},
	})
	current := snap(map[string]netdev.CounterSet{
		"eth0": {RxBytes: 2232},
	})

	rates, err := Between(prior, current, time.Second)
	require.NoError(t, err)
	require.Contains(t, rates, "eth0")

	assert.InDelta(t, 1232.0, rates["eth0"].RxBytesPerSec, 1e-9)
}

func TestBetween_AllFields(t *testing.T) {
	prior := snap(map[string]netdev.CounterSet{
		"eth0": {
			RxBytes: 100, TxBytes: 200,
			RxPackets: 10, TxPackets: 20,
			RxErrors: 1, TxErrors: 2,
			RxDropped: 3, TxDropped: 4,
			RxMulticast: 5,
		},
	})
	current := snap(map[string]netdev.CounterSet{
		"eth0": {
			RxBytes: 300, TxBytes: 600,
			RxPackets: 30, TxPackets: 60,
			RxErrors: 3, TxErrors: 6,
			RxDropped: 9, TxDropped: 12,
			RxMulticast: 15,
		},
	})

	rates, err := Between(prior, current, 2*time.Second)
	require.NoError(t, err)

	r := rates["eth0"]
	assert.InDelta(t, 100.0, r.RxBytesPerSec, 1e-9)
	assert.InDelta(t, 200.0, r.TxBytesPerSec, 1e-9)
	assert.InDelta(t, 10.0, r.RxPacketsPerSec, 1e-9)
	assert.InDelta(t, 20.0, r.TxPacketsPerSec, 1e-9)
	assert.InDelta(t, 1.0, r.RxErrorsPerSec, 1e-9)
	assert.InDelta(t, 2.0, r.TxErrorsPerSec, 1e-9)
	assert.InDelta(t, 3.0, r.RxDroppedPerSec, 1e-9)
	assert.InDelta(t, 4.0, r.TxDroppedPerSec, 1e-9)
	assert.InDelta(t, 5.0, r.RxMulticastPerSec, 1e-9)
}

func TestBetween_EqualSnapshotsYieldZeroRates(t *testing.T) {
	counters := map[string]netdev.CounterSet{
		"eth0": {RxBytes: 5000, TxBytes: 7000, RxPackets: 42},
	}

	rates, err := Between(snap(counters), snap(counters), time.Second)
	require.NoError(t, err)

	assert.Equal(t, Record{}, rates["eth0"])
}

func TestBetween_CounterResetClampsToCurrent(t *testing.T) {
	prior := snap(map[string]netdev.CounterSet{
		"eth0": {RxBytes: 5000},
	})
	current := snap(map[string]netdev.CounterSet{
		"eth0": {RxBytes: 200},
	})

	rates, err := Between(prior, current, 2*time.Second)
	require.NoError(t, err)

	// Effective delta is the post-reset value alone, never negative.
	assert.InDelta(t, 100.0, rates["eth0"].RxBytesPerSec, 1e-9)
}

func TestBetween_RatesNeverNegative(t *testing.T) {
	prior := snap(map[string]netdev.CounterSet{
		"eth0": {RxBytes: 1 << 40, TxBytes: 9999, RxPackets: 500, RxErrors: 7},
	})
	current := snap(map[string]netdev.CounterSet{
		"eth0": {RxBytes: 12, TxBytes: 10000, RxPackets: 0, RxErrors: 7},
	})

	rates, err := Between(prior, current, time.Second)
	require.NoError(t, err)

	r := rates["eth0"]
	assert.GreaterOrEqual(t, r.RxBytesPerSec, 0.0)
	assert.GreaterOrEqual(t, r.TxBytesPerSec, 0.0)
	assert.GreaterOrEqual(t, r.RxPacketsPerSec, 0.0)
	assert.GreaterOrEqual(t, r.RxErrorsPerSec, 0.0)
}

func TestBetween_ScalesLinearlyWithElapsed(t *testing.T) {
	prior := snap(map[string]netdev.CounterSet{
		"eth0": {RxBytes: 0, TxBytes: 0},
	})
	current := snap(map[string]netdev.CounterSet{
		"eth0": {RxBytes: 4096, TxBytes: 2048},
	})

	one, err := Between(prior, current, time.Second)
	require.NoError(t, err)

	two, err := Between(prior, current, 2*time.Second)
	require.NoError(t, err)

	assert.InDelta(t, one["eth0"].RxBytesPerSec/2, two["eth0"].RxBytesPerSec, 1e-9)
	assert.InDelta(t, one["eth0"].TxBytesPerSec/2, two["eth0"].TxBytesPerSec, 1e-9)
}

func TestBetween_HotplugExcluded(t *testing.T) {
	prior := snap(map[string]netdev.CounterSet{
		"eth0":    {RxBytes: 100},
		"removed": {RxBytes: 50},
	})
	current := snap(map[string]netdev.CounterSet{
		"eth0":  {RxBytes: 200},
		"added": {RxBytes: 10},
	})

	rates, err := Between(prior, current, time.Second)
	require.NoError(t, err)

	assert.Len(t, rates, 1)
	assert.Contains(t, rates, "eth0")
	assert.NotContains(t, rates, "added")
	assert.NotContains(t, rates, "removed")
}

func TestBetween_InvalidInterval(t *testing.T) {
	s := snap(map[string]netdev.CounterSet{"eth0": {}})

	_, err := Between(s, s, 0)
	assert.ErrorIs(t, err, ErrInvalidInterval)

	_, err = Between(s, s, -time.Second)
	assert.ErrorIs(t, err, ErrInvalidInterval)
}

func TestRecord_Totals(t *testing.T) {
	r := Record{
		RxBytesPerSec:   100,
		TxBytesPerSec:   50,
		RxPacketsPerSec: 7,
		TxPacketsPerSec: 3,
	}

	assert.InDelta(t, 150.0, r.TotalBytesPerSec(), 1e-9)
	assert.InDelta(t, 10.0, r.TotalPacketsPerSec(), 1e-9)
}

func TestRecord_Add(t *testing.T) {
	a := Record{RxBytesPerSec: 1, TxBytesPerSec: 2, RxMulticastPerSec: 3}
	b := Record{RxBytesPerSec: 10, TxBytesPerSec: 20, RxMulticastPerSec: 30}

	sum := a.Add(b)
	assert.InDelta(t, 11.0, sum.RxBytesPerSec, 1e-9)
	assert.InDelta(t, 22.0, sum.TxBytesPerSec, 1e-9)
	assert.InDelta(t, 33.0, sum.RxMulticastPerSec, 1e-9)
}
