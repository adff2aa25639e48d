// Package simulation owns a population and drives it one frame at a time.
// Spawn requests may arrive from any goroutine; they are queued and applied
// only between frames.
package simulation

import (
	"fmt"
	"log/slog"
	"math/rand"
	"runtime"
	"sync"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/quillaja/revolver/config"
	"github.com/quillaja/revolver/physics"
)

// FrameResult describes one completed StepFrame.
type FrameResult struct {
	Frame   uint64           // 1 for the first step
	Spawned []physics.Handle // bodies added at the start of this frame
	Live    int              // live bodies after the step
	physics.StepResult
}

// Observer is notified after every frame. Views are shared between
// observers and must not be modified.
type Observer interface {
	ObserveFrame(res FrameResult, views []physics.View)
}

// ObserverFunc adapts a function to Observer.
type ObserverFunc func(res FrameResult, views []physics.View)

func (f ObserverFunc) ObserveFrame(res FrameResult, views []physics.View) { f(res, views) }

// Option configures a Simulation.
type Option func(*Simulation)

// WithLogger sets the logger. The default is slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(s *Simulation) { s.log = l }
}

// WithAccumulator overrides the accumulator chosen by the config.
func WithAccumulator(acc physics.Accumulator) Option {
	return func(s *Simulation) { s.acc = acc }
}

// Simulation runs the frame loop over one population.
type Simulation struct {
	dt      float64
	policy  string
	minMass float64

	pop *physics.Population
	acc physics.Accumulator
	log *slog.Logger

	mu      sync.Mutex
	pending []SpawnRequest

	frame     uint64
	snap      []physics.View
	observers []Observer
}

// New validates cfg and creates a simulation holding only the primary.
func New(cfg *config.Config, opts ...Option) (*Simulation, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	pop := physics.NewPopulation(physics.Params{
		G:          cfg.Physics.Gravity,
		Epsilon:    cfg.Physics.Epsilon,
		BaseRadius: cfg.Body.BaseRadius,
		DepthScale: cfg.Body.DepthScale,
		StartDepth: cfg.Body.StartDepth,
	})
	x, y, z := cfg.PrimaryPos()
	pop.CreatePrimary(mgl64.Vec3{x, y, z}, cfg.Primary.Mass, cfg.Primary.Radius)

	s := &Simulation{
		dt:      cfg.Physics.DT,
		policy:  cfg.Spawn.MassPolicy,
		minMass: cfg.Spawn.MinMass,
		pop:     pop,
		log:     slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.acc == nil {
		acc, err := newAccumulator(cfg.Physics)
		if err != nil {
			return nil, err
		}
		s.acc = acc
	}
	s.snap = pop.Snapshot()

	s.log.Info("simulation created",
		"primary_mass", cfg.Primary.Mass,
		"primary_pos", []float64{x, y, z},
		"dt", s.dt,
		"gravity", cfg.Physics.Gravity,
		"accumulator", cfg.Physics.Accumulator,
	)
	return s, nil
}

func newAccumulator(cfg config.PhysicsConfig) (physics.Accumulator, error) {
	switch cfg.Accumulator {
	case config.AccPairwise:
		return physics.Pairwise{}, nil
	case config.AccParallel:
		return &physics.ParallelPairwise{Workers: cfg.Workers}, nil
	case config.AccOctree:
		groups := cfg.Workers
		if groups <= 0 {
			groups = runtime.GOMAXPROCS(0)
		}
		return physics.Octree{Theta: cfg.Theta, Groups: groups}, nil
	}
	return nil, fmt.Errorf("%w: unknown physics.accumulator %q", config.ErrInvalid, cfg.Accumulator)
}

// Observe registers o to be called after every frame.
func (s *Simulation) Observe(o Observer) {
	s.observers = append(s.observers, o)
}

// RequestSpawn queues a body for the next frame. It is safe for concurrent
// use. The mass policy is applied here.
func (s *Simulation) RequestSpawn(req SpawnRequest) error {
	mass, err := applyMassPolicy(s.policy, s.minMass, req.Mass)
	if err != nil {
		s.log.Warn("spawn rejected", "mass", req.Mass, "error", err)
		return err
	}
	req.Mass = mass

	s.mu.Lock()
	s.pending = append(s.pending, req)
	s.mu.Unlock()
	return nil
}

// Pending is the number of queued spawns.
func (s *Simulation) Pending() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.pending)
}

// StepFrame applies queued spawns and runs one frame.
func (s *Simulation) StepFrame() FrameResult {
	s.mu.Lock()
	pending := s.pending
	s.pending = nil
	s.mu.Unlock()

	s.frame++
	res := FrameResult{Frame: s.frame}
	for _, req := range pending {
		h := s.pop.Spawn(req.Pos, req.Vel, req.Mass)
		res.Spawned = append(res.Spawned, h)
		s.log.Debug("body spawned", "frame", s.frame, "handle", h, "mass", req.Mass)
	}

	res.StepResult = physics.Step(s.pop, s.acc, s.dt)
	res.Live = s.pop.Live()
	if res.Merges > 0 {
		s.log.Debug("bodies absorbed", "frame", s.frame, "merges", res.Merges, "live", res.Live)
	}

	s.snap = s.pop.Snapshot()
	for _, o := range s.observers {
		o.ObserveFrame(res, s.snap)
	}
	return res
}

// Snapshot returns the state as of the end of the most recent StepFrame.
func (s *Simulation) Snapshot() []physics.View {
	out := make([]physics.View, len(s.snap))
	copy(out, s.snap)
	return out
}

// Frame is the number of completed frames.
func (s *Simulation) Frame() uint64 { return s.frame }

// DT is the fixed time step.
func (s *Simulation) DT() float64 { return s.dt }

// Params are the physical constants of the population.
func (s *Simulation) Params() physics.Params { return s.pop.Params() }

// SeedCloud queues a Cloud around the primary for the next frame and
// returns how many requests were accepted.
func (s *Simulation) SeedCloud(rng *rand.Rand, c CloudParams) int {
	primary := s.Snapshot()[0] // the primary always holds the first slot
	n := 0
	for _, req := range Cloud(rng, primary, s.Params(), c) {
		if s.RequestSpawn(req) == nil {
			n++
		}
	}
	return n
}
