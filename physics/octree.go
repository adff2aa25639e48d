package physics

import (
	"math"
	"sync"

	"github.com/go-gl/mathgl/mgl64"
)

/*

spacial tree acceleration structure.
point oct-tree based on Barnes-Hut.
https://en.wikipedia.org/wiki/Barnes%E2%80%93Hut_simulation

*/

type nodekind uint8

// node types
const (
	external nodekind = iota
	internal
)

type octant uint8

// child positions (octants)
// low bit is X axis, high bit is Z axis
// L (0) means < center, H (1) means >= center
const (
	LLL octant = 0b000
	LLH octant = 0b001
	LHL octant = 0b010
	LHH octant = 0b011
	HLL octant = 0b100
	HLH octant = 0b101
	HHL octant = 0b110
	HHH octant = 0b111
)

// bodies closer together than this many splits share a leaf.
const maxTreeDepth = 32

type nodebound struct {
	center, width mgl64.Vec3
}

// returns the max width among the 3 dimensions.
func (n nodebound) max() float64 {
	return math.Max(n.width[0], math.Max(n.width[1], n.width[2]))
}

// generate the bounds for an octant of the parent's bounds.
func octantBound(parent nodebound, oct octant) nodebound {
	// each octant is ±1/4 of the parent's width from the parent's center.
	tx := mgl64.Vec3{
		parent.width[0] * 0.25 * (float64((oct&LLH)*2) - 1.0),
		parent.width[1] * 0.25 * (float64(((oct&LHL)>>1)*2) - 1.0),
		parent.width[2] * 0.25 * (float64(((oct&HLL)>>2)*2) - 1.0),
	}
	return nodebound{
		center: parent.center.Add(tx),
		width:  parent.width.Mul(0.5),
	}
}

// determines which octant (relative to midpoint) in which point belongs.
func octantBits(midpoint, point mgl64.Vec3) octant {
	return octant((^math.Float64bits(point[0]-midpoint[0]) >> 63) |
		(^math.Float64bits(point[1]-midpoint[1])>>63)<<1 |
		(^math.Float64bits(point[2]-midpoint[2])>>63)<<2)
}

// boundsOf returns a cube enclosing every live body.
func boundsOf(bodies []Body) nodebound {
	lo := mgl64.Vec3{math.Inf(1), math.Inf(1), math.Inf(1)}
	hi := mgl64.Vec3{math.Inf(-1), math.Inf(-1), math.Inf(-1)}
	for i := range bodies {
		if !bodies[i].Alive() {
			continue
		}
		for k := 0; k < 3; k++ {
			lo[k] = math.Min(lo[k], bodies[i].Pos[k])
			hi[k] = math.Max(hi[k], bodies[i].Pos[k])
		}
	}
	if lo[0] > hi[0] {
		return nodebound{width: mgl64.Vec3{1, 1, 1}}
	}
	span := hi.Sub(lo)
	w := math.Max(span[0], math.Max(span[1], span[2]))*1.01 + 1
	return nodebound{
		center: lo.Add(hi).Mul(0.5),
		width:  mgl64.Vec3{w, w, w},
	}
}

type node struct {
	kind         nodekind
	depth        int
	children     []*node
	particles    []int // body indices held by an external node
	totalMass    float64
	centerOfMass mgl64.Vec3
	bounds       nodebound
}

// create children nodes with appropriate bounds
func (n *node) split() {
	n.children = make([]*node, 8)
	for i := LLL; i <= HHH; i++ {
		n.children[i] = &node{bounds: octantBound(n.bounds, i), depth: n.depth + 1}
	}
}

// place body i in the tree rooted at this node. The octant is chosen by
// octantBits alone, so a body never falls between children.
func (n *node) push(bodies []Body, i int) {
	b := &bodies[i]

	switch n.kind {
	case external:
		// empty leaf, or a leaf too deep to split further
		if len(n.particles) == 0 || n.depth >= maxTreeDepth {
			n.particles = append(n.particles, i)
			n.addMass(b.Pos, b.Mass)
			return
		}

		// occupied leaf: convert to internal and push the existing
		// bodies into the appropriate children
		n.split()
		for _, k := range n.particles {
			n.children[octantBits(n.bounds.center, bodies[k].Pos)].push(bodies, k)
		}
		n.kind = internal
		n.particles = nil

		// the incoming body is handled exactly as for an internal node
		fallthrough

	case internal:
		n.children[octantBits(n.bounds.center, b.Pos)].push(bodies, i)
		n.addMass(b.Pos, b.Mass)
	}
}

// fold a point mass into the node's aggregate.
func (n *node) addMass(pos mgl64.Vec3, m float64) {
	total := n.totalMass + m
	if total == 0 {
		return
	}
	n.centerOfMass = n.centerOfMass.Mul(n.totalMass / total).Add(pos.Mul(m / total))
	n.totalMass = total
}

// walk body i through the tree, accumulating the force on it from nearby
// bodies or distant aggregates, using theta as the accuracy dial. onPath
// marks nodes whose subtree holds body i; those are always opened.
func (n *node) gravity(bodies []Body, i int, onPath bool, theta float64, p Params) {
	if n.totalMass == 0 {
		return // empty leaf
	}
	b := &bodies[i]

	switch n.kind {
	case internal:
		r := n.centerOfMass.Sub(b.Pos).Len()
		if onPath || n.bounds.max() >= theta*r {
			// too close to treat the node as a single distant point
			own := octantBits(n.bounds.center, b.Pos)
			for k := LLL; k <= HHH; k++ {
				n.children[k].gravity(bodies, i, onPath && k == own, theta, p)
			}
			return
		}
		b.Force = b.Force.Add(pointForce(b, n.centerOfMass, n.totalMass, p))

	case external:
		for _, k := range n.particles {
			if k == i {
				continue // a body does not pull on itself
			}
			b.Force = b.Force.Add(pairForce(b, &bodies[k], p))
		}
	}
}

// pointForce is the force on b from mass m concentrated at pos.
func pointForce(b *Body, pos mgl64.Vec3, m float64, p Params) mgl64.Vec3 {
	d := pos.Sub(b.Pos)
	rsq := d.Dot(d)
	if rsq == 0 {
		rsq = p.Epsilon
	}
	r := math.Sqrt(rsq)
	f := p.G * (m * b.Mass) / rsq
	return d.Mul(f / r)
}

// builds a tree by pushing all live bodies into the root
func maketree(bodies []Body) (root *node) {
	root = &node{bounds: boundsOf(bodies)}
	for i := range bodies {
		if !bodies[i].Alive() {
			continue
		}
		root.push(bodies, i)
	}
	return
}

// Octree approximates gravity in O(n log n) with a Barnes-Hut tree. Unlike
// the pairwise accumulators it does not apply equal and opposite forces, so
// the net force over the population is only approximately zero.
type Octree struct {
	Theta  float64 // opening angle; 0 degenerates to the exact sum
	Groups int     // goroutines walking the tree; 0 or 1 walks serially
}

func (o Octree) Accumulate(bodies []Body, p Params) {
	root := maketree(bodies)

	walk := func(lo, hi int) {
		for i := lo; i < hi; i++ {
			if !bodies[i].Alive() {
				continue
			}
			root.gravity(bodies, i, true, o.Theta, p)
		}
	}

	if o.Groups <= 1 || len(bodies) < parallelThreshold {
		walk(0, len(bodies))
		return
	}

	// each body's force is written only by the group that owns it
	groupsize := (len(bodies) + o.Groups - 1) / o.Groups
	gravgroups := sync.WaitGroup{}
	for lo := 0; lo < len(bodies); lo += groupsize {
		hi := lo + groupsize
		if hi > len(bodies) {
			hi = len(bodies)
		}
		gravgroups.Add(1)
		go func(lo, hi int) {
			defer gravgroups.Done()
			walk(lo, hi)
		}(lo, hi)
	}
	gravgroups.Wait()
}
