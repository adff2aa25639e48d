package physics

import (
	"fmt"
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

// Handle identifies a body by its slot in the population.
type Handle int

// Params are the constants the passes need. They are fixed for the life of a
// population.
type Params struct {
	G          float64 // gravity constant
	Epsilon    float64 // substituted for a zero squared distance
	BaseRadius float64 // ordinary-body radius at depth 0
	DepthScale float64 // depth units per unit of radius
	StartDepth float64 // depth of newly spawned bodies
}

// Population owns every body of one simulation. Slot 0 holds the primary.
// Bodies are appended by Spawn and never removed.
type Population struct {
	params Params
	bodies []Body
}

// NewPopulation returns an empty population. CreatePrimary must be called
// before any Spawn.
func NewPopulation(p Params) *Population {
	return &Population{
		params: p,
		bodies: make([]Body, 0, 64),
	}
}

// Params returns the population's constants.
func (p *Population) Params() Params { return p.params }

// DepthRadius is the radius an ordinary body has at depth z.
func (p *Population) DepthRadius(z float64) float64 {
	return math.Max(0, p.params.BaseRadius+z/p.params.DepthScale)
}

// CreatePrimary places the reference body in slot 0. It panics if the
// population is not empty.
func (p *Population) CreatePrimary(pos mgl64.Vec3, mass, radius float64) Handle {
	if len(p.bodies) != 0 {
		panic("physics: CreatePrimary on a non-empty population")
	}
	p.bodies = append(p.bodies, Body{
		Pos:     pos,
		Mass:    mass,
		Radius:  radius,
		Primary: true,
	})
	return 0
}

// Spawn appends an ordinary body at pos, at the configured start depth.
// Mass is not validated here.
func (p *Population) Spawn(pos mgl64.Vec2, vel mgl64.Vec3, mass float64) Handle {
	if len(p.bodies) == 0 {
		panic("physics: Spawn before CreatePrimary")
	}
	z := p.params.StartDepth
	p.bodies = append(p.bodies, Body{
		Pos:    pos.Vec3(z),
		Vel:    vel,
		Mass:   mass,
		Radius: p.DepthRadius(z),
	})
	return Handle(len(p.bodies) - 1)
}

// Len is the number of slots, dead bodies included.
func (p *Population) Len() int { return len(p.bodies) }

// Live counts the bodies that are still alive.
func (p *Population) Live() int {
	n := 0
	for i := range p.bodies {
		if p.bodies[i].Alive() {
			n++
		}
	}
	return n
}

// Body returns the body in slot h. An out-of-range handle panics.
func (p *Population) Body(h Handle) *Body {
	if h < 0 || int(h) >= len(p.bodies) {
		panic(fmt.Sprintf("physics: handle %d out of range [0,%d)", h, len(p.bodies)))
	}
	return &p.bodies[h]
}

// Primary returns the reference body, or nil for an empty population.
func (p *Population) Primary() *Body {
	if len(p.bodies) == 0 {
		return nil
	}
	return &p.bodies[0]
}

// Bodies exposes the backing slice to the passes. Callers must not append.
func (p *Population) Bodies() []Body { return p.bodies }

// View is a read-only copy of one body for the presentation layer.
type View struct {
	Handle   Handle
	Pos      mgl64.Vec3
	Vel      mgl64.Vec3
	Mass     float64
	Radius   float64
	Primary  bool
	Occluded bool
	Alive    bool
}

// Snapshot copies the state of every slot in population order.
func (p *Population) Snapshot() []View {
	out := make([]View, len(p.bodies))
	for i := range p.bodies {
		b := &p.bodies[i]
		out[i] = View{
			Handle:   Handle(i),
			Pos:      b.Pos,
			Vel:      b.Vel,
			Mass:     b.Mass,
			Radius:   b.Radius,
			Primary:  b.Primary,
			Occluded: b.Occluded,
			Alive:    b.Alive(),
		}
	}
	return out
}
