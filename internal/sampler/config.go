package sampler

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/netrate/netrate/internal/export"
	"github.com/netrate/netrate/internal/netdev"
	"github.com/netrate/netrate/internal/rate"
	"github.com/netrate/netrate/internal/report"
)

// Config is the top-level configuration for netrate. It maps to the
// optional YAML config file; CLI flags override individual fields.
type Config struct {
	// LogLevel sets the logging verbosity (debug, info, warn, error).
	LogLevel string `yaml:"log_level"`

	// Interval is the requested time between the two snapshots of a
	// cycle. The measured elapsed time is what rates are divided by.
	Interval time.Duration `yaml:"interval"`

	// Count is how many sampling cycles to run; 0 means run until
	// interrupted.
	Count int `yaml:"count"`

	// Top limits how many interfaces each report shows.
	Top int `yaml:"top"`

	// Interfaces restricts sampling to the named interfaces; empty
	// means all.
	Interfaces []string `yaml:"interfaces"`

	// Unit is the display unit, bytes or bits.
	Unit string `yaml:"unit"`

	// Sort is the ordering metric: total, rx, tx, rx-pkts or tx-pkts.
	Sort string `yaml:"sort"`

	ShowPackets     bool `yaml:"show_packets"`
	ShowErrors      bool `yaml:"show_errors"`
	ShowDrops       bool `yaml:"show_drops"`
	ShowMulticast   bool `yaml:"show_multicast"`
	ShowUtilization bool `yaml:"show_utilization"`
	ShowTotal       bool `yaml:"show_total"`

	// Details prints interface attributes before sampling starts.
	Details bool `yaml:"details"`

	// Source selects the counter backend: auto, procfs or gopsutil.
	Source string `yaml:"source"`

	// ProcPath and SysPath override the /proc and /sys mountpoints for
	// the procfs source.
	ProcPath string `yaml:"proc_path"`
	SysPath  string `yaml:"sys_path"`

	// Health configures the optional Prometheus metrics server.
	Health export.HealthConfig `yaml:"health"`
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		LogLevel: "info",
		Interval: time.Second,
		Count:    0,
		Top:      5,
		Unit:     string(report.UnitBytes),
		Sort:     string(rate.SortTotal),
		Source:   string(netdev.SourceAuto),
		Health: export.HealthConfig{
			Addr: ":9090",
		},
	}
}

// LoadConfig reads and parses a YAML configuration file on top of the
// defaults. Validation is left to the caller so flag overrides can be
// applied first.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file %s: %w", path, err)
	}

	cfg := DefaultConfig()

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config file %s: %w", path, err)
	}

	return cfg, nil
}

// Validate checks the configuration for consistency.
func (c *Config) Validate() error {
	if c.Interval <= 0 {
		return fmt.Errorf("interval must be greater than zero")
	}

	if c.Top <= 0 {
		return fmt.Errorf("top must be greater than zero")
	}

	if c.Count < 0 {
		return fmt.Errorf("count must be zero or positive")
	}

	if _, err := report.ParseUnit(c.Unit); err != nil {
		return err
	}

	if _, err := rate.ParseSortKey(c.Sort); err != nil {
		return err
	}

	if _, err := netdev.ParseSource(c.Source); err != nil {
		return err
	}

	return nil
}

// SortKey returns the parsed sort key. Call after Validate.
func (c *Config) SortKey() rate.SortKey {
	key, _ := rate.ParseSortKey(c.Sort)

	return key
}

// DisplayUnit returns the parsed display unit. Call after Validate.
func (c *Config) DisplayUnit() report.Unit {
	unit, _ := report.ParseUnit(c.Unit)

	return unit
}

// SourceKind returns the parsed counter source. Call after Validate.
func (c *Config) SourceKind() netdev.Source {
	source, _ := netdev.ParseSource(c.Source)

	return source
}
