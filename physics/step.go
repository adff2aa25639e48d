package physics

// StepResult summarizes one frame.
type StepResult struct {
	Merges   int // overlapping pairs absorbed this frame
	Occluded int // bodies behind the primary
}

// Step runs one frame: collisions, occlusion, gravity, integration. Collision
// must come before gravity so absorbed bodies exert no force this frame.
func Step(pop *Population, acc Accumulator, dt float64) StepResult {
	var res StepResult
	res.Merges = Collide(pop)
	res.Occluded = Classify(pop)
	acc.Accumulate(pop.bodies, pop.params)
	Integrate(pop, dt)
	return res
}
