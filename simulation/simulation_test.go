package simulation

import (
	"errors"
	"io"
	"log/slog"
	"math"
	"math/rand"
	"sync"
	"testing"
	"time"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/quillaja/revolver/config"
	"github.com/quillaja/revolver/physics"
)

var quiet = WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil)))

func newSim(t *testing.T, mutate func(*config.Config), opts ...Option) *Simulation {
	t.Helper()
	cfg := config.Default()
	if mutate != nil {
		mutate(cfg)
	}
	s, err := New(cfg, append([]Option{quiet}, opts...)...)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return s
}

func TestNew(t *testing.T) {
	s := newSim(t, nil)
	snap := s.Snapshot()
	if len(snap) != 1 {
		t.Fatalf("len = %d, want primary only", len(snap))
	}
	p := snap[0]
	if !p.Primary || p.Pos != (mgl64.Vec3{750, 450, 0}) || p.Radius != 40 || p.Mass != 4000 {
		t.Errorf("primary = %+v", p)
	}
	if s.DT() != 0.008 || s.Frame() != 0 {
		t.Errorf("dt=%v frame=%d", s.DT(), s.Frame())
	}
}

func TestNewInvalid(t *testing.T) {
	cfg := config.Default()
	cfg.Physics.DT = 0
	if _, err := New(cfg, quiet); !errors.Is(err, config.ErrInvalid) {
		t.Errorf("New = %v, want ErrInvalid", err)
	}
}

func TestNewAccumulators(t *testing.T) {
	tests := []struct {
		kind string
		want physics.Accumulator
	}{
		{config.AccPairwise, physics.Pairwise{}},
		{config.AccParallel, &physics.ParallelPairwise{Workers: 3}},
		{config.AccOctree, physics.Octree{Theta: 0.5, Groups: 3}},
	}
	for _, tt := range tests {
		t.Run(tt.kind, func(t *testing.T) {
			s := newSim(t, func(c *config.Config) {
				c.Physics.Accumulator = tt.kind
				c.Physics.Workers = 3
			})
			switch want := tt.want.(type) {
			case *physics.ParallelPairwise:
				got, ok := s.acc.(*physics.ParallelPairwise)
				if !ok || got.Workers != want.Workers {
					t.Errorf("acc = %#v", s.acc)
				}
			default:
				if s.acc != tt.want {
					t.Errorf("acc = %#v, want %#v", s.acc, tt.want)
				}
			}
		})
	}
}

func TestSpawnAppliedAtFrameBoundary(t *testing.T) {
	s := newSim(t, nil)
	if err := s.RequestSpawn(SpawnRequest{Pos: mgl64.Vec2{750, 200}, Vel: mgl64.Vec3{200, 0, 0}, Mass: 50}); err != nil {
		t.Fatal(err)
	}

	if len(s.Snapshot()) != 1 || s.Pending() != 1 {
		t.Fatalf("spawn visible before the frame boundary")
	}

	res := s.StepFrame()

	if len(res.Spawned) != 1 || res.Spawned[0] != 1 {
		t.Errorf("spawned = %v, want [1]", res.Spawned)
	}
	if res.Frame != 1 || res.Live != 2 || s.Pending() != 0 {
		t.Errorf("res = %+v pending=%d", res, s.Pending())
	}
	snap := s.Snapshot()
	if len(snap) != 2 || snap[1].Primary || snap[1].Mass != 50 {
		t.Errorf("snapshot = %+v", snap)
	}
	// the new body was integrated in the frame it was added
	if snap[1].Pos[0] <= 750 {
		t.Errorf("x = %v, body did not move", snap[1].Pos[0])
	}
}

func TestSnapshotStableBetweenFrames(t *testing.T) {
	s := newSim(t, nil)
	s.RequestSpawn(SpawnRequest{Pos: mgl64.Vec2{100, 100}, Mass: 1})
	s.StepFrame()
	before := s.Snapshot()

	s.RequestSpawn(SpawnRequest{Pos: mgl64.Vec2{200, 100}, Mass: 1})
	after := s.Snapshot()

	if len(after) != len(before) || after[1] != before[1] {
		t.Error("snapshot changed without a StepFrame")
	}

	after[1].Pos[0] = -1
	if s.Snapshot()[1].Pos[0] == -1 {
		t.Error("Snapshot returns shared state")
	}
}

func TestConcurrentRequestSpawn(t *testing.T) {
	s := newSim(t, nil)
	const n = 64

	wg := sync.WaitGroup{}
	wg.Add(n)
	for i := 0; i < n; i++ {
		go func(i int) {
			defer wg.Done()
			s.RequestSpawn(SpawnRequest{Pos: mgl64.Vec2{float64(i * 40), 0}, Mass: 1})
		}(i)
	}
	wg.Wait()

	res := s.StepFrame()
	if len(res.Spawned) != n {
		t.Errorf("spawned %d, want %d", len(res.Spawned), n)
	}
}

func TestMassPolicy(t *testing.T) {
	tests := []struct {
		policy   string
		mass     float64
		wantErr  error
		wantMass float64
	}{
		{config.PolicyReject, 0, ErrNonPositiveMass, 0},
		{config.PolicyReject, -2, ErrNonPositiveMass, 0},
		{config.PolicyReject, 3, nil, 3},
		{config.PolicyClamp, 0, nil, 0.01},
		{config.PolicyClamp, -1, nil, 0.01},
		{config.PolicyClamp, 0.5, nil, 0.5},
		{config.PolicyAccept, 0, nil, 0},
	}
	for _, tt := range tests {
		t.Run(tt.policy, func(t *testing.T) {
			s := newSim(t, func(c *config.Config) { c.Spawn.MassPolicy = tt.policy })

			err := s.RequestSpawn(SpawnRequest{Pos: mgl64.Vec2{100, 100}, Mass: tt.mass})

			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("err = %v, want %v", err, tt.wantErr)
			}
			if tt.wantErr != nil {
				if s.Pending() != 0 {
					t.Error("rejected spawn was queued")
				}
				return
			}
			s.StepFrame()
			if got := s.Snapshot()[1].Mass; got != tt.wantMass {
				t.Errorf("mass = %v, want %v", got, tt.wantMass)
			}
		})
	}
}

func TestFromGesture(t *testing.T) {
	req := FromGesture(mgl64.Vec2{100, 100}, mgl64.Vec2{130, 80}, 1500*time.Millisecond)

	if req.Pos != (mgl64.Vec2{100, 100}) {
		t.Errorf("pos = %v", req.Pos)
	}
	if req.Vel != (mgl64.Vec3{-30, 20, 0}) {
		t.Errorf("vel = %v, want the drag reversed", req.Vel)
	}
	if req.Mass != 1.5 {
		t.Errorf("mass = %v, want hold seconds", req.Mass)
	}
}

func TestObservers(t *testing.T) {
	var frames []uint64
	var lens []int
	s := newSim(t, nil)
	s.Observe(ObserverFunc(func(res FrameResult, views []physics.View) {
		frames = append(frames, res.Frame)
		lens = append(lens, len(views))
	}))

	s.StepFrame()
	s.RequestSpawn(SpawnRequest{Pos: mgl64.Vec2{100, 100}, Mass: 1})
	s.StepFrame()

	if len(frames) != 2 || frames[0] != 1 || frames[1] != 2 {
		t.Errorf("frames = %v", frames)
	}
	if lens[0] != 1 || lens[1] != 2 {
		t.Errorf("view lengths = %v", lens)
	}
}

type countingAcc struct{ calls int }

func (c *countingAcc) Accumulate([]physics.Body, physics.Params) { c.calls++ }

func TestWithAccumulator(t *testing.T) {
	acc := &countingAcc{}
	s := newSim(t, nil, WithAccumulator(acc))
	s.StepFrame()
	s.StepFrame()
	if acc.calls != 2 {
		t.Errorf("calls = %d, want one per frame", acc.calls)
	}
}

func TestOrbitScenario(t *testing.T) {
	s := newSim(t, nil)
	s.RequestSpawn(SpawnRequest{Pos: mgl64.Vec2{750, 200}, Vel: mgl64.Vec3{200, 0, 0}, Mass: 50})

	var res FrameResult
	for i := 0; i < 1000; i++ {
		res = s.StepFrame()
		if res.Merges != 0 {
			t.Fatalf("frame %d: merge", res.Frame)
		}
	}
	if res.Live != 2 {
		t.Errorf("live = %d, want 2", res.Live)
	}
	if v := s.Snapshot()[1].Vel; v[1] == 0 {
		t.Error("orbiting body gained no y velocity")
	}
}

func TestCloud(t *testing.T) {
	s := newSim(t, nil)
	primary := s.Snapshot()[0]
	c := CloudParams{Count: 50, Spread: 200, MeanMass: 2, MassSD: 0.5, Damping: 1}

	reqs := Cloud(rand.New(rand.NewSource(7)), primary, s.Params(), c)
	if len(reqs) != c.Count {
		t.Fatalf("len = %d, want %d", len(reqs), c.Count)
	}
	for i, r := range reqs {
		off := r.Pos.Sub(primary.Pos.Vec2())
		if off.Len() > c.Spread {
			t.Errorf("%d: %v outside the disk", i, r.Pos)
		}
		if !(r.Mass > 0) {
			t.Errorf("%d: mass %v", i, r.Mass)
		}
		if r.Vel.Z() != 0 || math.Abs(r.Vel.Vec2().Dot(off)) > 1e-6*off.Len()*r.Vel.Len() {
			t.Errorf("%d: velocity %v not tangent to offset %v", i, r.Vel, off)
		}
		d := math.Hypot(off.Len(), s.Params().StartDepth)
		want := math.Sqrt(s.Params().G * primary.Mass / d)
		if math.Abs(r.Vel.Len()-want) > 1e-9*want {
			t.Errorf("%d: speed %v, want %v", i, r.Vel.Len(), want)
		}
	}

	again := Cloud(rand.New(rand.NewSource(7)), primary, s.Params(), c)
	for i := range reqs {
		if reqs[i] != again[i] {
			t.Fatalf("same seed gave different clouds at %d", i)
		}
	}

	if n := s.SeedCloud(rand.New(rand.NewSource(7)), c); n != c.Count || s.Pending() != c.Count {
		t.Fatalf("SeedCloud = %d, pending %d", n, s.Pending())
	}
	if res := s.StepFrame(); len(res.Spawned) != c.Count {
		t.Errorf("spawned %d, want %d", len(res.Spawned), c.Count)
	}
}
