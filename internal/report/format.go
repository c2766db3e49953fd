package report

import (
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/netrate/netrate/internal/netdev"
	"github.com/netrate/netrate/internal/rate"
)

const rule = "======================================================"

var (
	byteUnits = []string{"B/s", "KB/s", "MB/s", "GB/s", "TB/s"}
	bitUnits  = []string{"b/s", "Kb/s", "Mb/s", "Gb/s", "Tb/s"}
)

// FormatRate humanizes a byte rate into the requested unit, stepping
// in factors of 1024 up to TB/s.
func FormatRate(bytesPerSec float64, unit Unit) string {
	value := bytesPerSec
	units := byteUnits

	if unit == UnitBits {
		value *= 8
		units = bitUnits
	}

	idx := 0
	for value >= 1024 && idx < len(units)-1 {
		value /= 1024
		idx++
	}

	return fmt.Sprintf("%6.2f %s", value, units[idx])
}

// FormatCountRate formats packet/error/drop style rates.
func FormatCountRate(perSec float64) string {
	return fmt.Sprintf("%5.1f/s", perSec)
}

// FormatUtilization formats a capacity percentage, "n/a" when the link
// speed is unknown. Values above 100 are printed as-is.
func FormatUtilization(util float64, known bool) string {
	if !known {
		return "n/a"
	}

	return fmt.Sprintf("%4.1f%%", util)
}

func formatSpeed(speedBits uint64) string {
	if speedBits == 0 {
		return "n/a"
	}

	return fmt.Sprintf("%dMb/s", speedBits/1_000_000)
}

func formatMTU(mtu int64) string {
	if mtu <= 0 {
		return "n/a"
	}

	return fmt.Sprintf("%d", mtu)
}

// Options selects which columns a Renderer emits.
type Options struct {
	Unit            Unit
	ShowPackets     bool
	ShowErrors      bool
	ShowDrops       bool
	ShowMulticast   bool
	ShowUtilization bool
}

// Renderer writes sampling reports to a terminal-ish writer.
type Renderer struct {
	w    io.Writer
	opts Options
}

// NewRenderer creates a renderer writing to w.
func NewRenderer(w io.Writer, opts Options) *Renderer {
	if opts.Unit == "" {
		opts.Unit = UnitBytes
	}

	return &Renderer{w: w, opts: opts}
}

// Render writes one cycle's report.
func (r *Renderer) Render(rep Report) error {
	if _, err := fmt.Fprintf(r.w, "\nSample over %.2fs\n%s\n", rep.Elapsed.Seconds(), rule); err != nil {
		return err
	}

	for _, s := range rep.Samples {
		util, known := rep.Utilization[s.Name]
		if _, err := fmt.Fprintln(r.w, r.line(s.Name, s.Record, util, known)); err != nil {
			return err
		}
	}

	if rep.Total != nil {
		if _, err := fmt.Fprintln(r.w, r.line("TOTAL", *rep.Total, 0, false)); err != nil {
			return err
		}
	}

	return nil
}

func (r *Renderer) line(name string, rec rate.Record, util float64, utilKnown bool) string {
	parts := []string{
		fmt.Sprintf("%-12s", name),
		fmt.Sprintf("RX %12s", FormatRate(rec.RxBytesPerSec, r.opts.Unit)),
		fmt.Sprintf("TX %12s", FormatRate(rec.TxBytesPerSec, r.opts.Unit)),
		fmt.Sprintf("TOTAL %12s", FormatRate(rec.TotalBytesPerSec(), r.opts.Unit)),
	}

	if r.opts.ShowPackets {
		parts = append(parts, fmt.Sprintf("PKTS %8s/%8s",
			FormatCountRate(rec.RxPacketsPerSec),
			FormatCountRate(rec.TxPacketsPerSec)))
	}

	if r.opts.ShowErrors {
		parts = append(parts, fmt.Sprintf("ERR %6s/%6s",
			FormatCountRate(rec.RxErrorsPerSec),
			FormatCountRate(rec.TxErrorsPerSec)))
	}

	if r.opts.ShowDrops {
		parts = append(parts, fmt.Sprintf("DROP %6s/%6s",
			FormatCountRate(rec.RxDroppedPerSec),
			FormatCountRate(rec.TxDroppedPerSec)))
	}

	if r.opts.ShowMulticast {
		parts = append(parts, fmt.Sprintf("MCAST %6s", FormatCountRate(rec.RxMulticastPerSec)))
	}

	if r.opts.ShowUtilization {
		parts = append(parts, fmt.Sprintf("UTIL %6s", FormatUtilization(util, utilKnown)))
	}

	return strings.Join(parts, " ")
}

// RenderDetails writes the per-interface attribute view shown by
// --details and --list-interfaces.
func RenderDetails(w io.Writer, title string, details map[string]netdev.Metadata) error {
	if _, err := fmt.Fprintf(w, "%s\n%s\n", title, rule); err != nil {
		return err
	}

	names := make([]string, 0, len(details))
	for name := range details {
		names = append(names, name)
	}

	sort.Strings(names)

	for _, name := range names {
		md := details[name]

		state := md.OperState
		if state == "" {
			state = "n/a"
		}

		_, err := fmt.Fprintf(w, "%-12s state=%-8s mtu=%-6s speed=%s\n",
			name, state, formatMTU(md.MTU), formatSpeed(md.SpeedBits))
		if err != nil {
			return err
		}
	}

	return nil
}
