//go:build linux

package netdev

import (
	"context"
	"fmt"
	"time"

	"github.com/prometheus/procfs"
	"github.com/prometheus/procfs/sysfs"
)

// ProcFSProvider reads /proc/net/dev through the procfs library.
type ProcFSProvider struct {
	fs procfs.FS
}

// NewProcFSProvider opens the proc filesystem at mountPoint, or the
// default /proc when empty. Alternate mountpoints are used in tests and
// in containers that bind-mount the host's /proc elsewhere.
func NewProcFSProvider(mountPoint string) (*ProcFSProvider, error) {
	if mountPoint == "" {
		mountPoint = procfs.DefaultMountPoint
	}

	fs, err := procfs.NewFS(mountPoint)
	if err != nil {
		return nil, fmt.Errorf("%w: opening %s: %w", ErrSourceUnavailable, mountPoint, err)
	}

	return &ProcFSProvider{fs: fs}, nil
}

// ReadSnapshot parses net/dev and returns the cumulative counters of
// every interface, timestamped with the monotonic clock.
func (p *ProcFSProvider) ReadSnapshot(_ context.Context) (Snapshot, error) {
	dev, err := p.fs.NetDev()
	if err != nil {
		return Snapshot{}, fmt.Errorf("%w: reading net/dev: %w", ErrSourceUnavailable, err)
	}

	ifaces := make(map[string]CounterSet, len(dev))
	for name, line := range dev {
		ifaces[name] = CounterSet{
			RxBytes:     line.RxBytes,
			TxBytes:     line.TxBytes,
			RxPackets:   line.RxPackets,
			TxPackets:   line.TxPackets,
			RxErrors:    line.RxErrors,
			TxErrors:    line.TxErrors,
			RxDropped:   line.RxDropped,
			TxDropped:   line.TxDropped,
			RxMulticast: line.RxMulticast,
		}
	}

	return Snapshot{Interfaces: ifaces, CapturedAt: time.Now()}, nil
}

// SysFSResolver reads link attributes from /sys/class/net.
type SysFSResolver struct {
	fs sysfs.FS
}

// NewSysFSResolver opens the sys filesystem at mountPoint, or the
// default /sys when empty.
func NewSysFSResolver(mountPoint string) (*SysFSResolver, error) {
	if mountPoint == "" {
		mountPoint = sysfs.DefaultMountPoint
	}

	fs, err := sysfs.NewFS(mountPoint)
	if err != nil {
		return nil, fmt.Errorf("%w: opening %s: %w", ErrMetadataUnavailable, mountPoint, err)
	}

	return &SysFSResolver{fs: fs}, nil
}

// ReadMetadata reads operstate, mtu and speed for one interface.
// The kernel reports speed in Mbits/s and uses -1 for links that have
// no meaningful speed; both map to SpeedBits == 0 here.
func (r *SysFSResolver) ReadMetadata(_ context.Context, name string) (Metadata, error) {
	iface, err := r.fs.NetClassByIface(name)
	if err != nil {
		return Metadata{}, fmt.Errorf("%w: %s: %w", ErrMetadataUnavailable, name, err)
	}

	md := Metadata{OperState: OperStateUnknown}

	if iface.OperState != "" {
		md.OperState = iface.OperState
	}

	if iface.MTU != nil && *iface.MTU > 0 {
		md.MTU = *iface.MTU
	}

	if iface.Speed != nil && *iface.Speed > 0 {
		md.SpeedBits = uint64(*iface.Speed) * 1_000_000
	}

	return md, nil
}

func newProcFSPair(procPath, sysPath string) (Provider, Resolver, error) {
	provider, err := NewProcFSProvider(procPath)
	if err != nil {
		return nil, nil, err
	}

	resolver, err := NewSysFSResolver(sysPath)
	if err != nil {
		// Metadata degrades per interface; an unreadable /sys should
		// not block rate sampling entirely.
		return provider, unavailableResolver{err: err}, nil
	}

	return provider, resolver, nil
}

// unavailableResolver reports every interface as unresolvable. Used
// when /sys itself cannot be opened.
type unavailableResolver struct {
	err error
}

func (r unavailableResolver) ReadMetadata(_ context.Context, name string) (Metadata, error) {
	return Metadata{}, fmt.Errorf("%s: %w", name, r.err)
}
