package netdev

import (
	"context"
	"fmt"
	"runtime"
	"sort"
)

// Provider reads a counter snapshot for all interfaces at call time.
type Provider interface {
	// ReadSnapshot returns the current counters of every interface.
	// Errors wrap ErrSourceUnavailable.
	ReadSnapshot(ctx context.Context) (Snapshot, error)
}

// Resolver reads link attributes for a single interface. Failures are
// per-interface and wrap ErrMetadataUnavailable.
type Resolver interface {
	ReadMetadata(ctx context.Context, name string) (Metadata, error)
}

// Source selects which counter backend to use.
type Source string

const (
	// SourceAuto picks /proc/net/dev on Linux and falls back to
	// gopsutil elsewhere.
	SourceAuto Source = "auto"

	// SourceProcFS reads /proc/net/dev and /sys/class/net directly.
	// Linux only.
	SourceProcFS Source = "procfs"

	// SourcePsutil reads counters through gopsutil. Works on every
	// platform gopsutil supports but does not expose multicast.
	SourcePsutil Source = "gopsutil"
)

// ParseSource validates a source name from config or flags.
func ParseSource(s string) (Source, error) {
	switch Source(s) {
	case SourceAuto, SourceProcFS, SourcePsutil:
		return Source(s), nil
	case "":
		return SourceAuto, nil
	default:
		return "", fmt.Errorf("unknown source %q (want auto, procfs or gopsutil)", s)
	}
}

// New builds the provider and resolver pair for the requested source.
// procPath and sysPath override the /proc and /sys mountpoints; empty
// means the platform default. Both overrides are procfs-only knobs.
func New(source Source, procPath, sysPath string) (Provider, Resolver, error) {
	switch source {
	case SourceProcFS:
		return newProcFSPair(procPath, sysPath)
	case SourcePsutil:
		return NewPsutilProvider(), NewPsutilResolver(), nil
	case SourceAuto, "":
		if runtime.GOOS == "linux" {
			provider, resolver, err := newProcFSPair(procPath, sysPath)
			if err == nil {
				return provider, resolver, nil
			}
		}

		return NewPsutilProvider(), NewPsutilResolver(), nil
	default:
		return nil, nil, fmt.Errorf("unknown source %q", source)
	}
}

// ListInterfaces returns the names of all interfaces the provider
// currently sees, sorted for stable output.
func ListInterfaces(ctx context.Context, p Provider) ([]string, error) {
	snap, err := p.ReadSnapshot(ctx)
	if err != nil {
		return nil, err
	}

	names := make([]string, 0, len(snap.Interfaces))
	for name := range snap.Interfaces {
		names = append(names, name)
	}

	sort.Strings(names)

	return names, nil
}
