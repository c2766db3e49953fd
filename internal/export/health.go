package export

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"net/http/pprof"
	"sync/atomic"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"

	"github.com/netrate/netrate/internal/report"
)

// HealthConfig configures the optional Prometheus metrics server.
type HealthConfig struct {
	// Enabled turns the server on. Off by default: netrate is a
	// terminal tool first.
	Enabled bool `yaml:"enabled"`

	// Addr is the listen address. Defaults to ":9090".
	Addr string `yaml:"addr"`
}

// HealthMetrics exposes sampler health and the current cycle's rates
// over /metrics. The gauges always reflect the latest cycle only;
// nothing is accumulated across cycles beyond plain counters.
type HealthMetrics struct {
	log      logrus.FieldLogger
	addr     string
	server   *http.Server
	listener net.Listener
	registry *prometheus.Registry

	CyclesTotal    prometheus.Counter
	CyclesSkipped  prometheus.Counter
	SourceErrors   prometheus.Counter
	MetadataErrors prometheus.Counter

	InterfacesReported prometheus.Gauge
	SampleElapsed      prometheus.Histogram

	RxBytesPerSec   *prometheus.GaugeVec
	TxBytesPerSec   *prometheus.GaugeVec
	RxPacketsPerSec *prometheus.GaugeVec
	TxPacketsPerSec *prometheus.GaugeVec
	Utilization     *prometheus.GaugeVec

	running atomic.Bool
}

// NewHealthMetrics creates the metrics server with its own registry.
func NewHealthMetrics(
	log logrus.FieldLogger,
	cfg HealthConfig,
) *HealthMetrics {
	reg := prometheus.NewRegistry()

	h := &HealthMetrics{
		log:      log.WithField("component", "health"),
		addr:     cfg.Addr,
		registry: reg,

		CyclesTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "netrate",
			Name:      "cycles_total",
			Help:      "Total completed sampling cycles.",
		}),
		CyclesSkipped: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "netrate",
			Name:      "cycles_skipped_total",
			Help:      "Cycles skipped due to a non-positive elapsed interval.",
		}),
		SourceErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "netrate",
			Name:      "source_errors_total",
			Help:      "Failed counter source reads.",
		}),
		MetadataErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "netrate",
			Name:      "metadata_errors_total",
			Help:      "Per-interface metadata resolution failures.",
		}),
		InterfacesReported: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "netrate",
			Name:      "interfaces_reported",
			Help:      "Interfaces in the most recent report.",
		}),
		SampleElapsed: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "netrate",
			Name:      "sample_elapsed_seconds",
			Help:      "Measured elapsed time between snapshot pairs.",
			Buckets:   []float64{0.1, 0.5, 1, 2, 5, 10, 30, 60},
		}),
		RxBytesPerSec: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: "netrate",
				Name:      "rx_bytes_per_second",
				Help:      "Receive byte rate of the most recent cycle.",
			},
			[]string{"interface"},
		),
		TxBytesPerSec: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: "netrate",
				Name:      "tx_bytes_per_second",
				Help:      "Transmit byte rate of the most recent cycle.",
			},
			[]string{"interface"},
		),
		RxPacketsPerSec: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: "netrate",
				Name:      "rx_packets_per_second",
				Help:      "Receive packet rate of the most recent cycle.",
			},
			[]string{"interface"},
		),
		TxPacketsPerSec: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: "netrate",
				Name:      "tx_packets_per_second",
				Help:      "Transmit packet rate of the most recent cycle.",
			},
			[]string{"interface"},
		),
		Utilization: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: "netrate",
				Name:      "utilization_percent",
				Help:      "Estimated link utilization; only set when speed is known.",
			},
			[]string{"interface"},
		),
	}

	reg.MustRegister(
		h.CyclesTotal,
		h.CyclesSkipped,
		h.SourceErrors,
		h.MetadataErrors,
		h.InterfacesReported,
		h.SampleElapsed,
		h.RxBytesPerSec,
		h.TxBytesPerSec,
		h.RxPacketsPerSec,
		h.TxPacketsPerSec,
		h.Utilization,
	)

	return h
}

// ObserveReport publishes one cycle's result. Per-interface gauges are
// reset first so interfaces that disappeared don't linger with stale
// values.
func (h *HealthMetrics) ObserveReport(rep report.Report) {
	h.CyclesTotal.Inc()
	h.InterfacesReported.Set(float64(len(rep.Samples)))
	h.SampleElapsed.Observe(rep.Elapsed.Seconds())

	h.RxBytesPerSec.Reset()
	h.TxBytesPerSec.Reset()
	h.RxPacketsPerSec.Reset()
	h.TxPacketsPerSec.Reset()
	h.Utilization.Reset()

	for _, s := range rep.Samples {
		h.RxBytesPerSec.WithLabelValues(s.Name).Set(s.Record.RxBytesPerSec)
		h.TxBytesPerSec.WithLabelValues(s.Name).Set(s.Record.TxBytesPerSec)
		h.RxPacketsPerSec.WithLabelValues(s.Name).Set(s.Record.RxPacketsPerSec)
		h.TxPacketsPerSec.WithLabelValues(s.Name).Set(s.Record.TxPacketsPerSec)

		if util, ok := rep.Utilization[s.Name]; ok {
			h.Utilization.WithLabelValues(s.Name).Set(util)
		}
	}
}

// Start begins serving the /metrics endpoint.
func (h *HealthMetrics) Start(_ context.Context) error {
	if h.addr == "" {
		h.addr = ":9090"
	}

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(
		h.registry,
		promhttp.HandlerOpts{},
	))
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		fmt.Fprint(w, "ok")
	})

	// pprof endpoints for CPU/memory profiling.
	mux.HandleFunc("/debug/pprof/", pprof.Index)
	mux.HandleFunc("/debug/pprof/cmdline", pprof.Cmdline)
	mux.HandleFunc("/debug/pprof/profile", pprof.Profile)
	mux.HandleFunc("/debug/pprof/symbol", pprof.Symbol)
	mux.HandleFunc("/debug/pprof/trace", pprof.Trace)

	ln, err := net.Listen("tcp", h.addr)
	if err != nil {
		return fmt.Errorf("listening on %s: %w", h.addr, err)
	}

	h.listener = ln

	h.server = &http.Server{
		Handler: mux,
	}

	h.running.Store(true)

	go func() {
		h.log.WithField("addr", ln.Addr().String()).
			Info("Metrics server started")

		if err := h.server.Serve(ln); err != nil &&
			err != http.ErrServerClosed {
			h.log.WithError(err).
				Error("Metrics server error")
		}

		h.running.Store(false)
	}()

	return nil
}

// Addr returns the actual listener address. Useful when started
// with ":0" to get the OS-assigned port.
func (h *HealthMetrics) Addr() string {
	if h.listener != nil {
		return h.listener.Addr().String()
	}

	return h.addr
}

// Stop gracefully shuts down the metrics server.
func (h *HealthMetrics) Stop() error {
	if h.server == nil {
		return nil
	}

	return h.server.Close()
}
