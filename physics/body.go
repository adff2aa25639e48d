// Package physics implements the per-frame passes of the gravity engine:
// collision, occlusion, force accumulation and integration.
package physics

import (
	"fmt"

	"github.com/go-gl/mathgl/mgl64"
)

// Body is one point mass in the population.
type Body struct {
	Pos   mgl64.Vec3 // x, y on screen; z is depth
	Vel   mgl64.Vec3
	Force mgl64.Vec3 // accumulated force, cleared by the integrator

	Mass   float64
	Radius float64

	Primary  bool // set at creation, never changes
	Occluded bool // written only by the occlusion pass

	dead bool
}

// Alive reports whether the body still takes part in the simulation.
func (b *Body) Alive() bool { return !b.dead }

// Kill tombstones the body. It keeps its slot in the population.
func (b *Body) Kill() {
	b.dead = true
	b.Mass = 0
	b.Radius = 0
	b.Occluded = false
}

// update advances position and velocity by dt and clears the accumulated force.
// Ordinary bodies take their radius from depth after the position update.
func (b *Body) update(dt float64, radius func(z float64) float64) {
	// dp = v*dt
	b.Pos = b.Pos.Add(b.Vel.Mul(dt))

	if !b.Primary {
		b.Radius = radius(b.Pos.Z())
	}

	// a = F/m
	// dv = a*dt
	if b.Mass > 0 {
		b.Vel = b.Vel.Add(b.Force.Mul(dt / b.Mass))
	}

	// clear force
	b.Force = mgl64.Vec3{}
}

func (b Body) String() string {
	return fmt.Sprintf("m: %.4f r: %.2f\np: [%.2f, %.2f, %.2f]\nv: [%.2f, %.2f, %.2f]\n",
		b.Mass, b.Radius, b.Pos[0], b.Pos[1], b.Pos[2], b.Vel[0], b.Vel[1], b.Vel[2])
}

// distance between two bodies.
func dist(a, b *Body) float64 {
	return b.Pos.Sub(a.Pos).Len()
}

// planar distance between two bodies, ignoring depth.
func planarDist(a, b *Body) float64 {
	return b.Pos.Vec2().Sub(a.Pos.Vec2()).Len()
}
