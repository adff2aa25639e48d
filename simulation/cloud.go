package simulation

import (
	"math"
	"math/rand"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/quillaja/revolver/physics"
)

// CloudParams describes a random population seeded around the primary.
type CloudParams struct {
	Count    int
	Spread   float64 // disk radius around the primary
	MeanMass float64
	MassSD   float64
	Damping  float64 // scales the circular orbit speed, 1 = circular
}

// Cloud returns spawn requests scattered uniformly over a disk centred on
// the primary. Each body gets the speed of a circular orbit at its distance,
// perpendicular to the line to the primary in the screen plane.
func Cloud(rng *rand.Rand, primary physics.View, p physics.Params, c CloudParams) []SpawnRequest {
	reqs := make([]SpawnRequest, 0, c.Count)
	for i := 0; i < c.Count; i++ {
		x, y := uniformSampleDisk(rng, c.Spread)
		pos := mgl64.Vec2{primary.Pos.X() + x, primary.Pos.Y() + y}

		// distance in 3d; new bodies start at StartDepth
		toward := primary.Pos.Sub(pos.Vec3(p.StartDepth))
		d := toward.Len()
		var vel mgl64.Vec3
		if tangent := toward.Cross(mgl64.Vec3{0, 0, 1}); tangent.Len() > 0 {
			vel = tangent.Normalize().Mul(c.Damping * math.Sqrt(p.G*primary.Mass/d))
		}

		reqs = append(reqs, SpawnRequest{
			Pos:  pos,
			Vel:  vel,
			Mass: math.Abs(rng.NormFloat64()*c.MassSD + c.MeanMass),
		})
	}
	return reqs
}

// uniformly (no bias towards center) sample a disk with the given radius.
func uniformSampleDisk(rng *rand.Rand, radius float64) (x, y float64) {
	r := radius * math.Sqrt(rng.Float64())
	sin, cos := math.Sincos(2 * math.Pi * rng.Float64())
	return r * cos, r * sin
}
