package physics

// Merge resolves an overlap by absorption: the larger body survives
// unchanged and the other is killed. On equal radii self survives.
// It returns the survivor.
func Merge(self, other *Body) *Body {
	if self.Radius >= other.Radius {
		other.Kill()
		return self
	}
	self.Kill()
	return other
}

// Collide merges every overlapping pair of live bodies and returns the
// number of merges. Pairs are visited once, lower index first, and the lower
// index is the self side of the merge.
func Collide(pop *Population) (merges int) {
	bodies := pop.bodies
	for i := 0; i < len(bodies)-1; i++ {
		for j := i + 1; j < len(bodies); j++ {
			if !bodies[i].Alive() {
				break // i was absorbed earlier in this row
			}
			if !bodies[j].Alive() {
				continue
			}

			if dist(&bodies[i], &bodies[j]) <= bodies[i].Radius+bodies[j].Radius {
				Merge(&bodies[i], &bodies[j])
				merges++
			}
		}
	}
	return merges
}
