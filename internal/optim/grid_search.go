// Package optim searches plugin parameters for the best scoring scenario.
package optim

import (
	"context"
	"fmt"
	"math"
	"sort"

	"github.com/san-kum/zoomsim/internal/config"
	"github.com/san-kum/zoomsim/internal/experiment"
	"github.com/san-kum/zoomsim/internal/logging"
)

// Setters maps searchable parameter names to the config field they change.
var Setters = map[string]func(cfg *config.Config, v float64){
	"slew_rate": func(cfg *config.Config, v float64) { cfg.Plugin.SlewRate = v },
	"max_zoom":  func(cfg *config.Config, v float64) { cfg.Plugin.MaxZoom = v },
	"dt":        func(cfg *config.Config, v float64) { cfg.Dt = v },
}

// Constraint rejects candidates by their metrics.
type Constraint func(metrics map[string]float64) bool

// SettlesWithin accepts runs that settled no later than deadline.
func SettlesWithin(deadline float64) Constraint {
	return func(m map[string]float64) bool {
		v, ok := m["settle_time"]
		return ok && v >= 0 && v <= deadline
	}
}

type GridSearch struct {
	paramNames []string
	ranges     [][]float64
}

func NewGridSearch(params []string, ranges [][]float64) (*GridSearch, error) {
	if len(params) != len(ranges) {
		return nil, fmt.Errorf("got %d parameters and %d ranges", len(params), len(ranges))
	}
	for _, p := range params {
		if _, ok := Setters[p]; !ok {
			return nil, fmt.Errorf("unknown parameter: %s", p)
		}
	}
	return &GridSearch{paramNames: params, ranges: ranges}, nil
}

// Best is the winning point of a search.
type Best struct {
	Params  map[string]float64
	Value   float64
	Metrics map[string]float64
	Tried   int
}

// Search runs base once per grid point and returns the point with the
// lowest metric among those accepted by every constraint. Points whose
// config does not validate are skipped.
func (g *GridSearch) Search(
	ctx context.Context,
	base *config.Config,
	registry *experiment.Registry,
	metricName string,
	log *logging.Logger,
	constraints ...Constraint,
) (*Best, error) {
	best := &Best{Value: math.Inf(1)}

	err := g.visit(0, map[string]float64{}, func(point map[string]float64) error {
		cfg := base.Clone()
		for name, v := range point {
			Setters[name](cfg, v)
		}
		if err := cfg.Validate(); err != nil {
			log.Debugf("skip %v: %v", point, err)
			return nil
		}

		result, err := registry.RunConfig(ctx, cfg, log)
		if err != nil {
			return err
		}
		best.Tried++

		for _, c := range constraints {
			if !c(result.Metrics) {
				return nil
			}
		}

		val, ok := result.Metrics[metricName]
		if !ok {
			return fmt.Errorf("metric %s not recorded", metricName)
		}
		if val < best.Value {
			best.Value = val
			best.Params = point
			best.Metrics = result.Metrics
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	if best.Params == nil {
		return best, fmt.Errorf("no candidate out of %d satisfied the constraints", best.Tried)
	}
	return best, nil
}

func (g *GridSearch) visit(depth int, current map[string]float64, fn func(map[string]float64) error) error {
	if depth == len(g.paramNames) {
		return fn(current)
	}

	name := g.paramNames[depth]
	for _, val := range g.ranges[depth] {
		next := make(map[string]float64, len(current)+1)
		for k, v := range current {
			next[k] = v
		}
		next[name] = val

		if err := g.visit(depth+1, next, fn); err != nil {
			return err
		}
	}
	return nil
}

// ParamNames lists the searchable parameters.
func ParamNames() []string {
	names := make([]string, 0, len(Setters))
	for name := range Setters {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
