package rate

// Utilization estimates how much of the link's nominal capacity the
// observed throughput consumes, as a percentage. speedBits is the link
// speed in bits per second; 0 means unknown and yields ok == false
// rather than a spurious 0%.
//
// The ratio is not clamped: values above 100 are possible on
// half-duplex links or under measurement skew and are passed through
// so callers can flag them.
func Utilization(rec Record, speedBits uint64) (float64, bool) {
	if speedBits == 0 {
		return 0, false
	}

	bitsPerSec := rec.TotalBytesPerSec() * 8

	return bitsPerSec / float64(speedBits) * 100, true
}
