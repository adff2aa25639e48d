package physics

import (
	"math"
	"runtime"
	"sync"

	"github.com/go-gl/mathgl/mgl64"
)

// Accumulator adds one frame's gravitational forces into each live body's
// Force.
type Accumulator interface {
	Accumulate(bodies []Body, p Params)
}

// pairForce is the force acting on a from b. The caller adds it to a and
// subtracts it from b.
func pairForce(a, b *Body, p Params) mgl64.Vec3 {
	d := b.Pos.Sub(a.Pos)
	rsq := d.Dot(d)
	if rsq == 0 {
		rsq = p.Epsilon
	}
	r := math.Sqrt(rsq)
	f := p.G * (a.Mass * b.Mass) / rsq // magnitude of force

	return d.Mul(f / r)
}

// Pairwise is the exact O(n^2) pass. Every unordered pair is visited once.
type Pairwise struct{}

func (Pairwise) Accumulate(bodies []Body, p Params) {
	for i := 0; i < len(bodies)-1; i++ {
		if !bodies[i].Alive() {
			continue
		}

		for j := i + 1; j < len(bodies); j++ {
			if !bodies[j].Alive() {
				continue
			}

			f := pairForce(&bodies[i], &bodies[j], p)
			bodies[i].Force = bodies[i].Force.Add(f)
			bodies[j].Force = bodies[j].Force.Sub(f)
		}
	}
}

// parallelThreshold is the smallest population worth splitting across
// goroutines.
const parallelThreshold = 256

// ParallelPairwise visits the same pairs as Pairwise, with rows dealt out
// round-robin to workers. Each worker writes into its own buffer; buffers are
// summed into the bodies once all workers are done.
type ParallelPairwise struct {
	Workers int // 0 means GOMAXPROCS

	buffers [][]mgl64.Vec3
}

func (pp *ParallelPairwise) Accumulate(bodies []Body, p Params) {
	n := len(bodies)
	if n < parallelThreshold {
		Pairwise{}.Accumulate(bodies, p)
		return
	}

	workers := pp.Workers
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	pp.reset(workers, n)

	wg := sync.WaitGroup{}
	wg.Add(workers)
	for w := 0; w < workers; w++ {
		go func(w int, buf []mgl64.Vec3) {
			defer wg.Done()
			for i := w; i < n-1; i += workers {
				if !bodies[i].Alive() {
					continue
				}
				for j := i + 1; j < n; j++ {
					if !bodies[j].Alive() {
						continue
					}
					f := pairForce(&bodies[i], &bodies[j], p)
					buf[i] = buf[i].Add(f)
					buf[j] = buf[j].Sub(f)
				}
			}
		}(w, pp.buffers[w])
	}
	wg.Wait()

	for w := range pp.buffers {
		for i, f := range pp.buffers[w] {
			bodies[i].Force = bodies[i].Force.Add(f)
		}
	}
}

// reset sizes and zeroes the per-worker buffers, keeping their memory.
func (pp *ParallelPairwise) reset(workers, n int) {
	if len(pp.buffers) != workers {
		pp.buffers = make([][]mgl64.Vec3, workers)
	}
	for w := range pp.buffers {
		if cap(pp.buffers[w]) < n {
			pp.buffers[w] = make([]mgl64.Vec3, n)
			continue
		}
		pp.buffers[w] = pp.buffers[w][:n]
		for i := range pp.buffers[w] {
			pp.buffers[w][i] = mgl64.Vec3{}
		}
	}
}
