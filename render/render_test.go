package render

import (
	"image"
	"image/color"
	"testing"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/quillaja/revolver/physics"
)

func TestBodyColor(t *testing.T) {
	tests := []struct {
		name string
		v    physics.View
		want color.RGBA
	}{
		{"primary", physics.View{Primary: true, Vel: mgl64.Vec3{0, 0, 999}}, yellow},
		{"still", physics.View{}, color.RGBA{128, 0, 127, 255}},
		{"receding fast", physics.View{Vel: mgl64.Vec3{0, 0, -300}}, red},
		{"approaching fast", physics.View{Vel: mgl64.Vec3{0, 0, 300}}, blue},
		{"approaching", physics.View{Vel: mgl64.Vec3{0, 0, 100}}, color.RGBA{78, 0, 177, 255}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := BodyColor(tt.v); got != tt.want {
				t.Errorf("BodyColor = %v, want %v", got, tt.want)
			}
		})
	}
}

func scene(occluded bool) []physics.View {
	return []physics.View{
		{Pos: mgl64.Vec3{50, 50, 0}, Radius: 20, Primary: true, Alive: true},
		{Pos: mgl64.Vec3{60, 50, -250}, Radius: 5, Occluded: occluded, Alive: true},
		{Pos: mgl64.Vec3{10, 10, -250}, Radius: 3, Alive: false},
	}
}

func TestDrawOcclusionOrder(t *testing.T) {
	tests := []struct {
		name     string
		occluded bool
		want     color.RGBA
	}{
		{"behind the primary", true, yellow},
		{"in front of the primary", false, color.RGBA{128, 0, 127, 255}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			img := image.NewRGBA(image.Rect(0, 0, 100, 100))
			Draw(img, scene(tt.occluded))

			if got := img.RGBAAt(60, 50); got != tt.want {
				t.Errorf("pixel at body = %v, want %v", got, tt.want)
			}
			if got := img.RGBAAt(50, 50); got != yellow {
				t.Errorf("primary centre = %v", got)
			}
			if got := img.RGBAAt(10, 10); got != (color.RGBA{}) {
				t.Errorf("dead body drawn: %v", got)
			}
		})
	}
}

func TestCanvasFade(t *testing.T) {
	views := []physics.View{{Pos: mgl64.Vec3{5, 5, 0}, Radius: 2, Primary: true, Alive: true}}

	clear := NewCanvas(20, 20, 255)
	clear.Frame(views)
	img := clear.Frame(nil)
	if got := img.RGBAAt(5, 5); got != (color.RGBA{0, 0, 0, 255}) {
		t.Errorf("opaque fade left %v", got)
	}

	trail := NewCanvas(20, 20, 5)
	trail.Frame(views)
	img = trail.Frame(nil)
	if got := img.RGBAAt(5, 5); got.R == 0 || got.R >= yellow.R {
		t.Errorf("trail pixel = %v, want a dimmed yellow", got)
	}

	// the returned image is a copy
	img.SetRGBA(0, 0, color.RGBA{1, 2, 3, 255})
	if trail.Frame(nil).RGBAAt(0, 0) == (color.RGBA{1, 2, 3, 255}) {
		t.Error("Frame returned the live canvas")
	}
}
