package export

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/netrate/netrate/internal/rate"
	"github.com/netrate/netrate/internal/report"
)

func testLog() logrus.FieldLogger {
	log := logrus.New()
	log.SetLevel(logrus.DebugLevel)

	return log
}

func startHealth(t *testing.T) *HealthMetrics {
	t.Helper()

	h := NewHealthMetrics(testLog(), HealthConfig{
		Addr: "127.0.0.1:0",
	})

	ctx := context.Background()
	require.NoError(t, h.Start(ctx))

	t.Cleanup(func() {
		h.Stop()
	})

	// Give server a moment to start serving.
	time.Sleep(50 * time.Millisecond)

	return h
}

func scrape(t *testing.T, h *HealthMetrics, path string) (int, string) {
	t.Helper()

	url := fmt.Sprintf("http://%s%s", h.Addr(), path)

	resp, err := http.Get(url)
	require.NoError(t, err)
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	return resp.StatusCode, string(body)
}

func TestHealthMetrics_StartStop(t *testing.T) {
	h := startHealth(t)
	assert.True(t, h.running.Load())
	assert.NotEmpty(t, h.Addr())
}

func TestHealthMetrics_Counters(t *testing.T) {
	h := startHealth(t)

	h.CyclesTotal.Inc()
	h.CyclesTotal.Inc()
	h.CyclesSkipped.Inc()
	h.SourceErrors.Inc()
	h.InterfacesReported.Set(4)

	status, body := scrape(t, h, "/metrics")
	assert.Equal(t, http.StatusOK, status)

	assert.Contains(t, body, "netrate_cycles_total 2")
	assert.Contains(t, body, "netrate_cycles_skipped_total 1")
	assert.Contains(t, body, "netrate_source_errors_total 1")
	assert.Contains(t, body, "netrate_interfaces_reported 4")
}

func TestHealthMetrics_ObserveReport(t *testing.T) {
	h := startHealth(t)

	h.ObserveReport(report.Report{
		Samples: []rate.Sample{
			{Name: "eth0", Record: rate.Record{RxBytesPerSec: 1000, TxBytesPerSec: 500}},
			{Name: "lo", Record: rate.Record{RxBytesPerSec: 10}},
		},
		Utilization: map[string]float64{"eth0": 12.5},
		Elapsed:     time.Second,
	})

	_, body := scrape(t, h, "/metrics")

	assert.Contains(t, body, `netrate_rx_bytes_per_second{interface="eth0"} 1000`)
	assert.Contains(t, body, `netrate_tx_bytes_per_second{interface="eth0"} 500`)
	assert.Contains(t, body, `netrate_rx_bytes_per_second{interface="lo"} 10`)
	assert.Contains(t, body, `netrate_utilization_percent{interface="eth0"} 12.5`)
	assert.NotContains(t, body, `netrate_utilization_percent{interface="lo"}`)
}

func TestHealthMetrics_ObserveReportResetsStaleInterfaces(t *testing.T) {
	h := startHealth(t)

	h.ObserveReport(report.Report{
		Samples: []rate.Sample{
			{Name: "gone0", Record: rate.Record{RxBytesPerSec: 99}},
		},
		Elapsed: time.Second,
	})
	h.ObserveReport(report.Report{
		Samples: []rate.Sample{
			{Name: "eth0", Record: rate.Record{RxBytesPerSec: 1}},
		},
		Elapsed: time.Second,
	})

	_, body := scrape(t, h, "/metrics")
	assert.Contains(t, body, `netrate_rx_bytes_per_second{interface="eth0"}`)
	assert.NotContains(t, body, "gone0")
}

func TestHealthMetrics_HealthzResponse(t *testing.T) {
	h := startHealth(t)

	status, body := scrape(t, h, "/healthz")
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, "ok", body)
}

func TestHealthMetrics_StopIdempotent(t *testing.T) {
	h := NewHealthMetrics(testLog(), HealthConfig{})

	assert.NoError(t, h.Stop())
	assert.NoError(t, h.Stop())
}

func TestHealthMetrics_AddrBeforeStart(t *testing.T) {
	h := NewHealthMetrics(testLog(), HealthConfig{
		Addr: ":9999",
	})

	// Before Start, Addr returns the configured address.
	assert.Equal(t, ":9999", h.Addr())
}
