package physics

// Classify recomputes Occluded for every body against the primary and
// returns how many are occluded. A body is occluded when its projected circle
// touches the primary's and its near edge is not in front of the primary's
// far edge.
func Classify(pop *Population) (occluded int) {
	star := pop.Primary()
	if star == nil {
		return 0
	}

	bodies := pop.bodies
	for i := range bodies {
		b := &bodies[i]
		b.Occluded = false
		if b.Primary || !b.Alive() {
			continue
		}

		if planarDist(b, star) <= b.Radius+star.Radius &&
			b.Pos.Z()-b.Radius <= star.Pos.Z()+star.Radius {
			b.Occluded = true
			occluded++
		}
	}
	return occluded
}
