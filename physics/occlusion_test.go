package physics

import (
	"testing"

	"github.com/go-gl/mathgl/mgl64"
)

func TestClassify(t *testing.T) {
	// primary at the origin, radius 40; spawned bodies have radius 5
	tests := []struct {
		name     string
		pos      mgl64.Vec3
		occluded bool
	}{
		{"far away", mgl64.Vec3{300, 0, -250}, false},
		{"tangent on screen", mgl64.Vec3{45, 0, -250}, true},
		{"just outside", mgl64.Vec3{45.001, 0, -250}, false},
		{"diagonal overlap", mgl64.Vec3{20, 20, -250}, true},
		{"in front of primary", mgl64.Vec3{10, 0, 46}, false},
		{"near edge touches far edge", mgl64.Vec3{10, 0, 45}, true},
		{"overlap ignores depth gap for planar test", mgl64.Vec3{0, 44, -5000}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			pop := newTestPopulation()
			b := pop.Body(pop.Spawn(tt.pos.Vec2(), mgl64.Vec3{}, 1))
			b.Pos = tt.pos
			b.Radius = 5

			n := Classify(pop)

			if b.Occluded != tt.occluded {
				t.Errorf("occluded = %t, want %t", b.Occluded, tt.occluded)
			}
			want := 0
			if tt.occluded {
				want = 1
			}
			if n != want {
				t.Errorf("count = %d, want %d", n, want)
			}
			if pop.Primary().Occluded {
				t.Error("primary marked occluded")
			}
		})
	}
}

func TestClassifyRecomputes(t *testing.T) {
	pop := newTestPopulation()
	b := pop.Body(pop.Spawn(mgl64.Vec2{10, 0}, mgl64.Vec3{}, 1))

	Classify(pop)
	if !b.Occluded {
		t.Fatal("expected occluded behind primary")
	}

	b.Pos[0] = 500
	Classify(pop)
	if b.Occluded {
		t.Error("flag kept from a previous frame")
	}
}

func TestClassifySkipsDead(t *testing.T) {
	pop := newTestPopulation()
	b := pop.Body(pop.Spawn(mgl64.Vec2{0, 0}, mgl64.Vec3{}, 1))
	b.Kill()

	if n := Classify(pop); n != 0 || b.Occluded {
		t.Errorf("dead body classified: n=%d occluded=%t", n, b.Occluded)
	}
}
