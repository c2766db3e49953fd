package rate

import (
	"fmt"
	"sort"
)

// SortKey names the metric used to order a result set.
type SortKey string

// Supported sort keys. All sort descending by the named metric with
// ties broken by interface name ascending, so output order is
// deterministic across runs.
const (
	SortTotal     SortKey = "total"
	SortRx        SortKey = "rx"
	SortTx        SortKey = "tx"
	SortRxPackets SortKey = "rx-pkts"
	SortTxPackets SortKey = "tx-pkts"
)

// ParseSortKey validates a sort key from config or flags.
func ParseSortKey(s string) (SortKey, error) {
	switch SortKey(s) {
	case SortTotal, SortRx, SortTx, SortRxPackets, SortTxPackets:
		return SortKey(s), nil
	case "":
		return SortTotal, nil
	default:
		return "", fmt.Errorf("unknown sort key %q (want total, rx, tx, rx-pkts or tx-pkts)", s)
	}
}

func (k SortKey) metric(r Record) float64 {
	switch k {
	case SortRx:
		return r.RxBytesPerSec
	case SortTx:
		return r.TxBytesPerSec
	case SortRxPackets:
		return r.RxPacketsPerSec
	case SortTxPackets:
		return r.TxPacketsPerSec
	default:
		return r.TotalBytesPerSec()
	}
}

// Sample pairs an interface name with its rate record in an ordered
// result set.
type Sample struct {
	Name   string
	Record Record
}

// Select filters rates to the named interfaces, orders them by key and
// truncates to the first topN. A nil or empty filter keeps everything;
// filter names absent from rates are silently ignored (they were
// already excluded as hot-plug cases). topN <= 0 means all.
func Select(rates map[string]Record, filter []string, key SortKey, topN int) []Sample {
	samples := filtered(rates, filter)

	sort.Slice(samples, func(i, j int) bool {
		mi, mj := key.metric(samples[i].Record), key.metric(samples[j].Record)
		if mi != mj {
			return mi > mj
		}

		return samples[i].Name < samples[j].Name
	})

	if topN > 0 && topN < len(samples) {
		samples = samples[:topN]
	}

	return samples
}

// Aggregate sums the rates of every interface in the post-filter set
// fieldwise into one synthetic record. It is computed independent of
// sort order and top-N truncation, so the total always reflects the
// full filtered set, not just the displayed subset.
func Aggregate(rates map[string]Record, filter []string) Record {
	var total Record
	for _, s := range filtered(rates, filter) {
		total = total.Add(s.Record)
	}

	return total
}

func filtered(rates map[string]Record, filter []string) []Sample {
	samples := make([]Sample, 0, len(rates))

	if len(filter) == 0 {
		for name, rec := range rates {
			samples = append(samples, Sample{Name: name, Record: rec})
		}

		return samples
	}

	seen := make(map[string]bool, len(filter))
	for _, name := range filter {
		if seen[name] {
			continue
		}

		seen[name] = true

		if rec, ok := rates[name]; ok {
			samples = append(samples, Sample{Name: name, Record: rec})
		}
	}

	return samples
}
