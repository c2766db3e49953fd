package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/netrate/netrate/internal/export"
	"github.com/netrate/netrate/internal/netdev"
	"github.com/netrate/netrate/internal/report"
	"github.com/netrate/netrate/internal/sampler"
	"github.com/netrate/netrate/internal/version"
)

var (
	cfgFile string

	flagInterval   time.Duration
	flagCount      int
	flagTop        int
	flagInterfaces []string
	flagUnit       string
	flagSort       string
	flagSource     string
	flagLogLevel   string

	flagShowPackets     bool
	flagShowErrors      bool
	flagShowDrops       bool
	flagShowMulticast   bool
	flagShowUtilization bool
	flagShowTotal       bool
	flagDetails         bool
	flagListInterfaces  bool

	flagHealth     bool
	flagHealthAddr string
)

func main() {
	if err := rootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "netrate",
		Short: "Real-time network interface throughput monitor",
		Long: `netrate samples per-interface network counters at a fixed
cadence and derives throughput, packet, error, drop, multicast and
utilization rates, sorted and truncated the way you ask for. On Linux
it reads /proc/net/dev directly; elsewhere it falls back to gopsutil.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE:          run,
	}

	f := cmd.Flags()

	f.StringVar(&cfgFile, "config", "", "path to optional YAML config file")
	f.StringVar(&flagLogLevel, "log-level", "",
		"override log level (debug, info, warn, error)")

	f.DurationVarP(&flagInterval, "interval", "i", time.Second,
		"sampling interval")
	f.IntVarP(&flagCount, "count", "c", 0,
		"number of samples to capture (0 = infinite)")
	f.IntVarP(&flagTop, "top", "t", 5,
		"number of interfaces to display per sample")
	f.StringSliceVar(&flagInterfaces, "interfaces", nil,
		"specific interface names to monitor")
	f.StringVar(&flagUnit, "unit", "bytes",
		"display rates in bytes or bits")
	f.StringVar(&flagSort, "sort", "total",
		"sort by total, rx, tx, rx-pkts or tx-pkts")
	f.StringVar(&flagSource, "source", "auto",
		"counter source: auto, procfs or gopsutil")

	f.BoolVar(&flagShowPackets, "show-packets", false,
		"include packet rates in the output")
	f.BoolVar(&flagShowErrors, "show-errors", false,
		"include error rates in the output")
	f.BoolVar(&flagShowDrops, "show-drops", false,
		"include drop rates in the output")
	f.BoolVar(&flagShowMulticast, "show-multicast", false,
		"include multicast receive rates in the output")
	f.BoolVar(&flagShowUtilization, "show-utilization", false,
		"include utilization estimates when link speed is known")
	f.BoolVar(&flagShowTotal, "show-total", false,
		"include an aggregate total line across interfaces")
	f.BoolVar(&flagDetails, "details", false,
		"show interface details (state, MTU, speed) before samples")
	f.BoolVar(&flagListInterfaces, "list-interfaces", false,
		"list detected interfaces and exit")

	f.BoolVar(&flagHealth, "health", false,
		"serve Prometheus metrics for the current cycle")
	f.StringVar(&flagHealthAddr, "health-addr", "",
		"metrics server listen address")

	cmd.AddCommand(versionCmd())

	return cmd
}

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Println(version.FullWithPlatform())
		},
	}
}

// applyFlags copies every flag the user set on the command line over
// the config file values. Flags win over the file.
func applyFlags(cmd *cobra.Command, cfg *sampler.Config) {
	f := cmd.Flags()

	if f.Changed("log-level") {
		cfg.LogLevel = flagLogLevel
	}

	if f.Changed("interval") {
		cfg.Interval = flagInterval
	}

	if f.Changed("count") {
		cfg.Count = flagCount
	}

	if f.Changed("top") {
		cfg.Top = flagTop
	}

	if f.Changed("interfaces") {
		cfg.Interfaces = flagInterfaces
	}

	if f.Changed("unit") {
		cfg.Unit = flagUnit
	}

	if f.Changed("sort") {
		cfg.Sort = flagSort
	}

	if f.Changed("source") {
		cfg.Source = flagSource
	}

	if f.Changed("show-packets") {
		cfg.ShowPackets = flagShowPackets
	}

	if f.Changed("show-errors") {
		cfg.ShowErrors = flagShowErrors
	}

	if f.Changed("show-drops") {
		cfg.ShowDrops = flagShowDrops
	}

	if f.Changed("show-multicast") {
		cfg.ShowMulticast = flagShowMulticast
	}

	if f.Changed("show-utilization") {
		cfg.ShowUtilization = flagShowUtilization
	}

	if f.Changed("show-total") {
		cfg.ShowTotal = flagShowTotal
	}

	if f.Changed("details") {
		cfg.Details = flagDetails
	}

	if f.Changed("health") {
		cfg.Health.Enabled = flagHealth
	}

	if f.Changed("health-addr") {
		cfg.Health.Addr = flagHealthAddr
	}
}

func run(cmd *cobra.Command, args []string) error {
	log := logrus.New()
	log.SetFormatter(&logrus.TextFormatter{
		FullTimestamp: true,
	})

	cfg := sampler.DefaultConfig()

	if cfgFile != "" {
		loaded, err := sampler.LoadConfig(cfgFile)
		if err != nil {
			return fmt.Errorf("loading config: %w", err)
		}

		cfg = loaded
	}

	applyFlags(cmd, cfg)

	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("validating config: %w", err)
	}

	level, err := logrus.ParseLevel(cfg.LogLevel)
	if err != nil {
		return fmt.Errorf("parsing log level %q: %w", cfg.LogLevel, err)
	}

	log.SetLevel(level)

	ctx, cancel := signal.NotifyContext(
		context.Background(),
		syscall.SIGINT,
		syscall.SIGTERM,
	)
	defer cancel()

	provider, resolver, err := netdev.New(cfg.SourceKind(), cfg.ProcPath, cfg.SysPath)
	if err != nil {
		return fmt.Errorf("creating counter source: %w", err)
	}

	if flagListInterfaces {
		return listInterfaces(ctx, log, cfg, provider, resolver)
	}

	var health *export.HealthMetrics

	if cfg.Health.Enabled {
		health = export.NewHealthMetrics(log, cfg.Health)

		if err := health.Start(ctx); err != nil {
			return fmt.Errorf("starting metrics server: %w", err)
		}

		defer func() {
			if err := health.Stop(); err != nil {
				log.WithError(err).Error("Error stopping metrics server")
			}
		}()
	}

	s := sampler.New(log, cfg, provider, resolver, health)

	if cfg.Details {
		details, err := s.Describe(ctx, cfg.Interfaces)
		if err != nil {
			return fmt.Errorf("reading interface details: %w", err)
		}

		if err := report.RenderDetails(os.Stdout, "Interface details", details); err != nil {
			return err
		}
	}

	renderer := report.NewRenderer(os.Stdout, report.Options{
		Unit:            cfg.DisplayUnit(),
		ShowPackets:     cfg.ShowPackets,
		ShowErrors:      cfg.ShowErrors,
		ShowDrops:       cfg.ShowDrops,
		ShowMulticast:   cfg.ShowMulticast,
		ShowUtilization: cfg.ShowUtilization,
	})

	err = s.Run(ctx, renderer.Render)
	if errors.Is(err, context.Canceled) {
		log.Info("Stopping netrate")

		return nil
	}

	return err
}

func listInterfaces(
	ctx context.Context,
	log logrus.FieldLogger,
	cfg *sampler.Config,
	provider netdev.Provider,
	resolver netdev.Resolver,
) error {
	s := sampler.New(log, cfg, provider, resolver, nil)

	details, err := s.Describe(ctx, cfg.Interfaces)
	if err != nil {
		return fmt.Errorf("listing interfaces: %w", err)
	}

	if len(details) == 0 {
		return fmt.Errorf("no interfaces detected")
	}

	return report.RenderDetails(os.Stdout, "Interfaces", details)
}
