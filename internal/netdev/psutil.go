package netdev

import (
	"context"
	"fmt"
	"time"

	gnet "github.com/shirou/gopsutil/v3/net"
)

// PsutilProvider reads per-interface counters through gopsutil. It is
// the portable fallback for hosts without a readable /proc/net/dev.
// gopsutil does not expose the multicast column, so RxMulticast is
// always 0 from this provider.
type PsutilProvider struct{}

// NewPsutilProvider creates a gopsutil-backed snapshot provider.
func NewPsutilProvider() *PsutilProvider {
	return &PsutilProvider{}
}

// ReadSnapshot returns the current counters of every interface.
func (p *PsutilProvider) ReadSnapshot(ctx context.Context) (Snapshot, error) {
	counters, err := gnet.IOCountersWithContext(ctx, true)
	if err != nil {
		return Snapshot{}, fmt.Errorf("%w: reading io counters: %w", ErrSourceUnavailable, err)
	}

	ifaces := make(map[string]CounterSet, len(counters))
	for _, c := range counters {
		ifaces[c.Name] = CounterSet{
			RxBytes:   c.BytesRecv,
			TxBytes:   c.BytesSent,
			RxPackets: c.PacketsRecv,
			TxPackets: c.PacketsSent,
			RxErrors:  c.Errin,
			TxErrors:  c.Errout,
			RxDropped: c.Dropin,
			TxDropped: c.Dropout,
		}
	}

	return Snapshot{Interfaces: ifaces, CapturedAt: time.Now()}, nil
}

// PsutilResolver derives interface metadata from gopsutil. Link speed
// is not available through gopsutil and is always reported unknown;
// operational state is inferred from the interface flags.
type PsutilResolver struct{}

// NewPsutilResolver creates a gopsutil-backed metadata resolver.
func NewPsutilResolver() *PsutilResolver {
	return &PsutilResolver{}
}

// ReadMetadata returns state and MTU for one interface.
func (r *PsutilResolver) ReadMetadata(ctx context.Context, name string) (Metadata, error) {
	ifaces, err := gnet.InterfacesWithContext(ctx)
	if err != nil {
		return Metadata{}, fmt.Errorf("%w: %s: %w", ErrMetadataUnavailable, name, err)
	}

	for _, iface := range ifaces {
		if iface.Name != name {
			continue
		}

		md := Metadata{OperState: OperStateDown}
		if iface.MTU > 0 {
			md.MTU = int64(iface.MTU)
		}

		for _, flag := range iface.Flags {
			if flag == "up" {
				md.OperState = OperStateUp

				break
			}
		}

		return md, nil
	}

	return Metadata{}, fmt.Errorf("%w: %s: no such interface", ErrMetadataUnavailable, name)
}
