package sim

import (
	"context"
	"fmt"
	"math"
	"sort"

	"github.com/san-kum/zoomsim/internal/logging"
	"github.com/san-kum/zoomsim/internal/render"
	"github.com/san-kum/zoomsim/internal/world"
)

// hookTolerance absorbs float error when matching hook times to ticks.
const hookTolerance = 1e-9

type hook struct {
	at  float64
	seq int
	fn  func()
}

// Simulator is the host tick loop. Each tick fires due hooks, runs system
// PreUpdate, syncs the renderer with the world, runs system PostUpdate and
// records a sample.
type Simulator struct {
	world     *world.World
	renderer  *render.Engine
	probe     Probe
	systems   []System
	metrics   []Metric
	observers []Observer
	hooks     []hook
	nextSeq   int
	iteration uint64
	paused    bool
	log       *logging.Logger
}

// New returns a simulator over w. renderer and probe may be nil.
func New(w *world.World, renderer *render.Engine, probe Probe, log *logging.Logger) *Simulator {
	return &Simulator{
		world:    w,
		renderer: renderer,
		probe:    probe,
		log:      log,
	}
}

func (s *Simulator) AddSystem(sys System)   { s.systems = append(s.systems, sys) }
func (s *Simulator) AddMetric(m Metric)     { s.metrics = append(s.metrics, m) }
func (s *Simulator) AddObserver(o Observer) { s.observers = append(s.observers, o) }

// Schedule runs fn at the start of the first tick whose sim time reaches at.
// Hooks scheduled for the same time run in the order they were added.
func (s *Simulator) Schedule(at float64, fn func()) {
	s.hooks = append(s.hooks, hook{at: at, seq: s.nextSeq, fn: fn})
	s.nextSeq++
	sort.SliceStable(s.hooks, func(i, j int) bool {
		if s.hooks[i].at != s.hooks[j].at {
			return s.hooks[i].at < s.hooks[j].at
		}
		return s.hooks[i].seq < s.hooks[j].seq
	})
}

func (s *Simulator) SetPaused(p bool)  { s.paused = p }
func (s *Simulator) Paused() bool      { return s.paused }
func (s *Simulator) Iteration() uint64 { return s.iteration }

// Step evaluates exactly one tick of length dt. While paused, systems still
// run but time does not advance and hooks stay pending.
func (s *Simulator) Step(dt float64) (Sample, error) {
	if math.IsNaN(dt) || dt <= 0 {
		return Sample{}, fmt.Errorf("dt must be positive, got %f", dt)
	}

	info := UpdateInfo{Iteration: s.iteration, SimTime: float64(s.iteration) * dt, Paused: s.paused}
	if !s.paused {
		s.iteration++
		info.Iteration = s.iteration
		info.SimTime = float64(s.iteration) * dt
		info.Dt = dt
		s.fireHooks(info.SimTime)
	}

	var stepErr error
	for _, sys := range s.systems {
		if err := sys.PreUpdate(info); err != nil {
			s.log.Warnf("tick %d: %v", info.Iteration, err)
			if stepErr == nil {
				stepErr = SimError{Time: info.SimTime, Step: info.Iteration, Err: err}
			}
		}
	}

	if s.renderer != nil {
		s.renderer.Update(s.world)
	}

	for _, sys := range s.systems {
		sys.PostUpdate(info)
	}

	sample := Sample{Time: info.SimTime}
	if s.probe != nil {
		sample = s.probe.Sample(info)
	}

	for _, m := range s.metrics {
		m.Observe(sample)
	}
	for _, obs := range s.observers {
		obs.OnStep(info, sample)
	}
	return sample, stepErr
}

// Run resets metrics and advances Duration/Dt ticks. System errors are
// collected in the result and never stop the run.
func (s *Simulator) Run(ctx context.Context, cfg Config) (*Result, error) {
	if err := s.validateConfig(cfg); err != nil {
		return nil, err
	}

	steps := int(math.Round(cfg.Duration / cfg.Dt))
	result := &Result{
		Samples: make([]Sample, 0, steps),
		Times:   make([]float64, 0, steps),
		Metrics: make(map[string]float64),
	}

	for _, m := range s.metrics {
		m.Reset()
	}

	for i := 0; i < steps; i++ {
		select {
		case <-ctx.Done():
			return result, ctx.Err()
		default:
		}

		sample, err := s.Step(cfg.Dt)
		if err != nil {
			result.Errors = append(result.Errors, err)
		}

		result.StepsTaken++
		result.Samples = append(result.Samples, sample)
		result.Times = append(result.Times, sample.Time)
	}

	for _, m := range s.metrics {
		result.Metrics[m.Name()] = m.Value()
	}

	return result, nil
}

func (s *Simulator) fireHooks(now float64) {
	n := 0
	for n < len(s.hooks) && s.hooks[n].at <= now+hookTolerance {
		n++
	}
	due := s.hooks[:n]
	s.hooks = append([]hook(nil), s.hooks[n:]...)
	for _, h := range due {
		h.fn()
	}
}

func (s *Simulator) validateConfig(cfg Config) error {
	if math.IsNaN(cfg.Dt) || cfg.Dt <= 0 {
		return fmt.Errorf("dt must be positive, got %f", cfg.Dt)
	}
	if math.IsNaN(cfg.Duration) || cfg.Duration <= 0 {
		return fmt.Errorf("duration must be positive, got %f", cfg.Duration)
	}
	if cfg.Duration < cfg.Dt {
		return fmt.Errorf("duration %f shorter than dt %f", cfg.Duration, cfg.Dt)
	}
	return nil
}
