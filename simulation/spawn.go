package simulation

import (
	"errors"
	"fmt"
	"time"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/quillaja/revolver/config"
)

// ErrNonPositiveMass is returned for a spawn with mass <= 0 under the reject
// policy.
var ErrNonPositiveMass = errors.New("spawn mass must be positive")

// SpawnRequest describes one ordinary body to add at the next frame
// boundary.
type SpawnRequest struct {
	Pos  mgl64.Vec2 // screen position
	Vel  mgl64.Vec3
	Mass float64
}

// FromGesture maps a press-drag-release to a spawn. The body starts where
// the press began and is launched opposite to the drag, like a slingshot.
// Its mass is the hold time in seconds.
func FromGesture(start, end mgl64.Vec2, held time.Duration) SpawnRequest {
	drag := end.Sub(start)
	return SpawnRequest{
		Pos:  start,
		Vel:  drag.Mul(-1).Vec3(0),
		Mass: held.Seconds(),
	}
}

// applyMassPolicy returns the mass to spawn with.
func applyMassPolicy(policy string, minMass, mass float64) (float64, error) {
	if mass > 0 {
		return mass, nil
	}
	switch policy {
	case config.PolicyAccept:
		return mass, nil
	case config.PolicyClamp:
		return minMass, nil
	case config.PolicyReject:
		return 0, fmt.Errorf("%w: got %v", ErrNonPositiveMass, mass)
	}
	return 0, fmt.Errorf("unknown mass policy %q", policy)
}
