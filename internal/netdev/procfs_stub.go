//go:build !linux

package netdev

import "fmt"

// The procfs source needs a Linux /proc and /sys. On other platforms
// SourceAuto falls back to gopsutil and an explicit procfs request is
// rejected here.
func newProcFSPair(_, _ string) (Provider, Resolver, error) {
	return nil, nil, fmt.Errorf("%w: procfs source requires Linux", ErrSourceUnavailable)
}
