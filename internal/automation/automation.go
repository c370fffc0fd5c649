// Package automation runs batches of zoom scenarios: YAML suites, slew-rate
// sweeps and randomized command trials.
package automation

import (
	"context"
	"fmt"
	"io"
	"math"
	"math/rand"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/san-kum/zoomsim/internal/config"
	"github.com/san-kum/zoomsim/internal/experiment"
	"github.com/san-kum/zoomsim/internal/logging"
	"github.com/san-kum/zoomsim/internal/metrics"
	"github.com/san-kum/zoomsim/internal/sim"
)

// Suite is a named list of runs loaded from YAML.
type Suite struct {
	Name        string     `yaml:"name"`
	Description string     `yaml:"description"`
	Runs        []SuiteRun `yaml:"runs"`
}

// SuiteRun starts from a preset (or the defaults) and applies overrides.
type SuiteRun struct {
	Preset     string           `yaml:"preset"`
	Name       string           `yaml:"name"`
	Duration   float64          `yaml:"duration"`
	MaxZoom    float64          `yaml:"max_zoom"`
	SlewRate   float64          `yaml:"slew_rate"`
	Commands   []config.Command `yaml:"commands"`
	TeardownAt float64          `yaml:"teardown_at"`
}

// Outcome is the result of one suite run.
type Outcome struct {
	Config *config.Config
	Result *sim.Result
}

func LoadSuite(path string) (*Suite, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var suite Suite
	if err := yaml.Unmarshal(data, &suite); err != nil {
		return nil, err
	}
	if len(suite.Runs) == 0 {
		return nil, fmt.Errorf("suite %q has no runs", suite.Name)
	}

	return &suite, nil
}

// Config resolves the run into a validated scenario config.
func (r SuiteRun) Config() (*config.Config, error) {
	cfg := config.DefaultConfig()
	if r.Preset != "" {
		cfg = config.GetPreset(r.Preset)
		if cfg == nil {
			return nil, fmt.Errorf("unknown preset: %s", r.Preset)
		}
	}

	if r.Name != "" {
		cfg.Name = r.Name
	}
	if r.Duration > 0 {
		cfg.Duration = r.Duration
	}
	if r.MaxZoom > 0 {
		cfg.Plugin.MaxZoom = r.MaxZoom
	}
	if r.SlewRate > 0 {
		cfg.Plugin.SlewRate = r.SlewRate
	}
	if len(r.Commands) > 0 {
		cfg.Commands = append([]config.Command(nil), r.Commands...)
	}
	if r.TeardownAt > 0 {
		cfg.TeardownAt = r.TeardownAt
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// RunSuite executes the runs in order. Progress lines go to out when it is
// not nil.
func RunSuite(ctx context.Context, suite *Suite, registry *experiment.Registry, log *logging.Logger, out io.Writer) ([]Outcome, error) {
	outcomes := make([]Outcome, 0, len(suite.Runs))

	for i, run := range suite.Runs {
		cfg, err := run.Config()
		if err != nil {
			return outcomes, fmt.Errorf("run %d: %w", i+1, err)
		}
		progress(out, "Running %d/%d: %s\n", i+1, len(suite.Runs), cfg.Name)

		result, err := registry.RunConfig(ctx, cfg, log)
		if err != nil {
			return outcomes, fmt.Errorf("run %d: %w", i+1, err)
		}

		outcomes = append(outcomes, Outcome{Config: cfg, Result: result})
	}

	return outcomes, nil
}

// SlewSweep runs Base once per slew rate, spaced logarithmically between
// Min and Max inclusive.
type SlewSweep struct {
	Base     *config.Config
	Min      float64
	Max      float64
	NumSteps int
	Workers  int
}

type SweepResult struct {
	SlewRate     float64
	SettleTime   float64
	MaxFocalStep float64
	FocalTravel  float64
	FinalError   float64
}

func (s *SlewSweep) Rates() ([]float64, error) {
	if s.NumSteps < 1 {
		return nil, fmt.Errorf("sweep needs at least one step, got %d", s.NumSteps)
	}
	if s.Min <= 0 || s.Max < s.Min || math.IsInf(s.Max, 0) {
		return nil, fmt.Errorf("invalid slew range [%g, %g]", s.Min, s.Max)
	}
	if s.NumSteps == 1 {
		return []float64{s.Min}, nil
	}

	rates := make([]float64, s.NumSteps)
	ratio := math.Log(s.Max / s.Min)
	for i := range rates {
		rates[i] = s.Min * math.Exp(ratio*float64(i)/float64(s.NumSteps-1))
	}
	rates[len(rates)-1] = s.Max
	return rates, nil
}

// RunSweep executes every rate concurrently on separate simulators.
func RunSweep(ctx context.Context, sweep *SlewSweep, registry *experiment.Registry, log *logging.Logger) ([]SweepResult, error) {
	rates, err := sweep.Rates()
	if err != nil {
		return nil, err
	}

	jobs := make([]sim.Job, len(rates))
	for i, rate := range rates {
		cfg := sweep.Base.Clone()
		cfg.Name = fmt.Sprintf("%s-slew-%g", sweep.Base.Name, rate)
		cfg.Plugin.SlewRate = rate
		jobs[i] = func(ctx context.Context) (*sim.Result, error) {
			return registry.RunConfig(ctx, cfg, log)
		}
	}

	results, err := sim.NewEnsemble(sweep.Workers, jobs...).Run(ctx)
	if err != nil {
		return nil, err
	}

	out := make([]SweepResult, len(results))
	for i, r := range results {
		out[i] = SweepResult{
			SlewRate:     rates[i],
			SettleTime:   r.Metrics["settle_time"],
			MaxFocalStep: r.Metrics["max_focal_step"],
			FocalTravel:  r.Metrics["focal_travel"],
			FinalError:   r.Metrics["final_fov_error"],
		}
	}
	return out, nil
}

// MonteCarloConfig drives trials with random zoom commands, including out
// of range ones, and checks that the lens stays inside its limits.
type MonteCarloConfig struct {
	Base        *config.Config
	NumTrials   int
	NumCommands int
	Seed        int64
}

type MonteCarloResult struct {
	TrialID      int
	Commands     []config.Command
	FinalFov     float64
	WithinLimits bool
	RateLimited  bool
}

func RunMonteCarlo(ctx context.Context, cfg *MonteCarloConfig, registry *experiment.Registry, log *logging.Logger, out io.Writer) ([]MonteCarloResult, error) {
	results := make([]MonteCarloResult, 0, cfg.NumTrials)

	rng := rand.New(rand.NewSource(cfg.Seed))
	if cfg.Seed == 0 {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}

	base := cfg.Base
	refFov := base.Plugin.ReferenceFov
	if refFov == 0 {
		refFov = base.Camera.Hfov
	}
	minFov := refFov / base.Plugin.MaxZoom
	stepLimit := base.Plugin.SlewRate * base.Dt

	for trial := 0; trial < cfg.NumTrials; trial++ {
		commands := make([]config.Command, cfg.NumCommands)
		for i := range commands {
			commands[i] = config.Command{
				Time: rng.Float64() * base.Duration,
				Zoom: rng.Float64() * base.Plugin.MaxZoom * 1.5,
			}
		}

		trialCfg := base.Clone()
		trialCfg.Name = fmt.Sprintf("%s-trial-%d", base.Name, trial)
		trialCfg.Commands = commands

		result, err := registry.RunConfig(ctx, trialCfg, log)
		if err != nil {
			return nil, err
		}

		within := true
		var finalFov float64
		for _, s := range result.Samples {
			if s.Bound && (s.Hfov < minFov-1e-9 || s.Hfov > refFov+1e-9) {
				within = false
			}
			finalFov = s.Hfov
		}

		results = append(results, MonteCarloResult{
			TrialID:      trial,
			Commands:     commands,
			FinalFov:     finalFov,
			WithinLimits: within,
			RateLimited:  result.Metrics["max_focal_step"] <= stepLimit*(1+1e-9),
		})

		if (trial+1)%10 == 0 {
			progress(out, "Monte Carlo: %d/%d trials complete\n", trial+1, cfg.NumTrials)
		}
	}

	return results, nil
}

// MonteCarloStats counts trials that kept every limit.
func MonteCarloStats(results []MonteCarloResult) (passed int, failed int) {
	for _, r := range results {
		if r.WithinLimits && r.RateLimited {
			passed++
		} else {
			failed++
		}
	}
	return
}

// SettledFraction is the share of sweep results that settled.
func SettledFraction(results []SweepResult) float64 {
	if len(results) == 0 {
		return 0
	}
	n := 0
	for _, r := range results {
		if r.SettleTime != metrics.NotSettled {
			n++
		}
	}
	return float64(n) / float64(len(results))
}

func progress(out io.Writer, format string, args ...any) {
	if out != nil {
		fmt.Fprintf(out, format, args...)
	}
}
