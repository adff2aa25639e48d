package physics

import "github.com/go-gl/mathgl/mgl64"

// Integrate advances every body by dt from its accumulated force and clears
// the force. Dead bodies only have their force cleared.
func Integrate(pop *Population, dt float64) {
	bodies := pop.bodies
	for i := range bodies {
		if !bodies[i].Alive() {
			bodies[i].Force = mgl64.Vec3{}
			continue
		}
		bodies[i].update(dt, pop.DepthRadius)
	}
}
