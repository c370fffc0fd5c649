package experiment

import (
	"context"
	"fmt"
	"sort"

	"github.com/san-kum/zoomsim/internal/config"
	"github.com/san-kum/zoomsim/internal/logging"
	"github.com/san-kum/zoomsim/internal/metrics"
	"github.com/san-kum/zoomsim/internal/sim"
)

// Registry maps metric names to factories.
type Registry struct {
	metrics map[string]func(cfg *config.Config) sim.Metric
}

func NewRegistry() *Registry {
	r := &Registry{
		metrics: make(map[string]func(cfg *config.Config) sim.Metric),
	}

	r.metrics["settle_time"] = func(cfg *config.Config) sim.Metric { return metrics.NewSettleTime(cfg.Tolerance) }
	r.metrics["final_fov_error"] = func(*config.Config) sim.Metric { return metrics.NewFinalFovError() }
	r.metrics["max_focal_step"] = func(*config.Config) sim.Metric { return metrics.NewMaxFocalStep() }
	r.metrics["focal_travel"] = func(*config.Config) sim.Metric { return metrics.NewFocalTravel() }

	return r
}

func (r *Registry) GetMetric(name string, cfg *config.Config) (sim.Metric, error) {
	fn, ok := r.metrics[name]
	if !ok {
		return nil, fmt.Errorf("unknown metric: %s", name)
	}
	return fn(cfg), nil
}

func (r *Registry) ListMetrics() []string {
	names := make([]string, 0, len(r.metrics))
	for name := range r.metrics {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// DefaultMetrics returns a fresh instance of every registered metric.
func (r *Registry) DefaultMetrics(cfg *config.Config) []sim.Metric {
	out := make([]sim.Metric, 0, len(r.metrics))
	for _, name := range r.ListMetrics() {
		out = append(out, r.metrics[name](cfg))
	}
	return out
}

// RunConfig sets up and runs cfg with the default metrics.
func (r *Registry) RunConfig(ctx context.Context, cfg *config.Config, log *logging.Logger) (*sim.Result, error) {
	exp := New(cfg, log)
	if err := exp.Setup(r.DefaultMetrics(cfg)); err != nil {
		return nil, err
	}
	defer exp.Close()
	return exp.Run(ctx)
}
