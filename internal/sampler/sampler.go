// Package sampler drives the sampling loop: read a snapshot, wait one
// interval, read another, hand the pair to the rate engine and emit
// the resulting report. It owns nothing across cycles except the prior
// snapshot.
package sampler

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/netrate/netrate/internal/export"
	"github.com/netrate/netrate/internal/netdev"
	"github.com/netrate/netrate/internal/rate"
	"github.com/netrate/netrate/internal/report"
)

// ErrNoInterfaces is returned when a cycle produced no samples, either
// because no interfaces exist or the filter matched nothing.
var ErrNoInterfaces = errors.New("no interfaces matched the requested filters")

// EmitFunc receives one report per completed cycle.
type EmitFunc func(report.Report) error

// Sampler orchestrates sampling cycles. The provider and resolver are
// passed in explicitly; the sampler holds no process-wide state.
type Sampler struct {
	log      logrus.FieldLogger
	cfg      *Config
	provider netdev.Provider
	resolver netdev.Resolver
	health   *export.HealthMetrics
}

// New creates a Sampler. health may be nil when the metrics server is
// disabled.
func New(
	log logrus.FieldLogger,
	cfg *Config,
	provider netdev.Provider,
	resolver netdev.Resolver,
	health *export.HealthMetrics,
) *Sampler {
	return &Sampler{
		log:      log.WithField("component", "sampler"),
		cfg:      cfg,
		provider: provider,
		resolver: resolver,
		health:   health,
	}
}

// Run executes sampling cycles until the context is canceled, the
// configured count is reached, or a fatal error occurs. Each cycle
// reuses the previous snapshot as its prior, so a run with interval i
// emits a report every i seconds after the first.
func (s *Sampler) Run(ctx context.Context, emit EmitFunc) error {
	prior, err := s.provider.ReadSnapshot(ctx)
	if err != nil {
		s.countSourceError()

		return fmt.Errorf("reading initial snapshot: %w", err)
	}

	cycles := 0

	for {
		if err := s.wait(ctx); err != nil {
			return err
		}

		current, err := s.provider.ReadSnapshot(ctx)
		if err != nil {
			s.countSourceError()

			return fmt.Errorf("reading snapshot: %w", err)
		}

		elapsed := current.CapturedAt.Sub(prior.CapturedAt)

		rates, err := rate.Between(prior, current, elapsed)
		if err != nil {
			if !errors.Is(err, rate.ErrInvalidInterval) {
				return err
			}

			// Clock anomaly; drop the window and rebase on the
			// current snapshot.
			s.log.WithField("elapsed", elapsed).
				Warn("Skipping cycle with non-positive elapsed time")

			if s.health != nil {
				s.health.CyclesSkipped.Inc()
			}

			prior = current

			continue
		}

		rep, err := s.buildReport(ctx, rates, elapsed, cycles+1)
		if err != nil {
			return err
		}

		if s.health != nil {
			s.health.ObserveReport(rep)
		}

		if err := emit(rep); err != nil {
			return fmt.Errorf("emitting report: %w", err)
		}

		cycles++
		if s.cfg.Count > 0 && cycles >= s.cfg.Count {
			return nil
		}

		prior = current
	}
}

func (s *Sampler) buildReport(
	ctx context.Context,
	rates map[string]rate.Record,
	elapsed time.Duration,
	cycle int,
) (report.Report, error) {
	samples := rate.Select(rates, s.cfg.Interfaces, s.cfg.SortKey(), s.cfg.Top)
	if len(samples) == 0 {
		return report.Report{}, ErrNoInterfaces
	}

	rep := report.Report{
		Samples: samples,
		Elapsed: elapsed,
		Cycle:   cycle,
	}

	if s.cfg.ShowTotal {
		total := rate.Aggregate(rates, s.cfg.Interfaces)
		rep.Total = &total
	}

	if s.cfg.ShowUtilization {
		rep.Utilization = s.utilization(ctx, samples)
	}

	return rep, nil
}

// utilization resolves link speeds for the displayed interfaces and
// computes capacity ratios where the speed is known. Resolution
// failures degrade that interface to unknown, never the whole report.
func (s *Sampler) utilization(ctx context.Context, samples []rate.Sample) map[string]float64 {
	utils := make(map[string]float64, len(samples))

	for _, sample := range samples {
		md, err := s.resolver.ReadMetadata(ctx, sample.Name)
		if err != nil {
			s.log.WithError(err).WithField("interface", sample.Name).
				Debug("Metadata resolution failed")

			if s.health != nil {
				s.health.MetadataErrors.Inc()
			}

			continue
		}

		if util, ok := rate.Utilization(sample.Record, md.SpeedBits); ok {
			utils[sample.Name] = util
		}
	}

	return utils
}

// Describe returns link attributes for the named interfaces, or for
// every detected interface when names is empty. Unresolvable
// interfaces are reported with unknown attributes.
func (s *Sampler) Describe(ctx context.Context, names []string) (map[string]netdev.Metadata, error) {
	if len(names) == 0 {
		detected, err := netdev.ListInterfaces(ctx, s.provider)
		if err != nil {
			return nil, err
		}

		names = detected
	}

	details := make(map[string]netdev.Metadata, len(names))

	for _, name := range names {
		md, err := s.resolver.ReadMetadata(ctx, name)
		if err != nil {
			s.log.WithError(err).WithField("interface", name).
				Debug("Metadata resolution failed")

			if s.health != nil {
				s.health.MetadataErrors.Inc()
			}

			md = netdev.Metadata{OperState: netdev.OperStateUnknown}
		}

		details[name] = md
	}

	return details, nil
}

func (s *Sampler) wait(ctx context.Context) error {
	timer := time.NewTimer(s.cfg.Interval)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

func (s *Sampler) countSourceError() {
	if s.health != nil {
		s.health.SourceErrors.Inc()
	}
}
