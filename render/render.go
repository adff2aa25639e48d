// Package render draws simulation snapshots to images. It is a headless
// stand-in for the interactive presentation layer.
package render

import (
	"image"
	"image/color"
	"image/draw"
	"math"
	"sync"

	"github.com/quillaja/revolver/physics"
)

var (
	red    = color.RGBA{255, 0, 0, 255}
	blue   = color.RGBA{0, 0, 255, 255}
	yellow = color.RGBA{253, 184, 19, 255}
)

// maxVZ is the depth speed at which the colour ramp saturates.
const maxVZ = 255.0

// BodyColor maps a body to its draw colour. The primary is yellow; ordinary
// bodies run from red (moving away) to blue (moving closer) with their
// depth velocity.
func BodyColor(v physics.View) color.RGBA {
	if v.Primary {
		return yellow
	}
	vz := v.Vel.Z()
	switch {
	case vz <= -maxVZ:
		return red
	case vz >= maxVZ:
		return blue
	}
	c := int(vz/(2*maxVZ/255)) + 127
	return color.RGBA{uint8(255 - c), 0, uint8(c), 255}
}

// Draw paints views onto dst without clearing it. The primary goes first;
// every occluded body is followed by the primary again so it appears to
// pass behind it.
func Draw(dst draw.Image, views []physics.View) {
	var star *physics.View
	for i := range views {
		if views[i].Primary {
			star = &views[i]
			break
		}
	}
	drawStar := func() {
		if star != nil {
			plotbody(dst, *star)
		}
	}

	drawStar()
	for _, v := range views {
		if !v.Alive {
			continue
		}
		plotbody(dst, v)
		if v.Occluded && !v.Primary {
			drawStar()
		}
	}
}

func plotbody(img draw.Image, v physics.View) {
	plotcirclefilled(img, BodyColor(v), int(v.Pos.X()), int(v.Pos.Y()), int(v.Radius))
}

// Canvas keeps an image between frames so moving bodies leave fading
// trails. It is safe for concurrent use.
type Canvas struct {
	mu   sync.Mutex
	img  *image.RGBA
	fade *image.Uniform
}

// NewCanvas returns a black canvas. fade is the alpha of the black wash laid
// over the previous frame; 255 clears it completely.
func NewCanvas(width, height int, fade uint8) *Canvas {
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	draw.Draw(img, img.Bounds(), image.NewUniform(color.Black), image.Point{}, draw.Src)
	return &Canvas{
		img:  img,
		fade: image.NewUniform(color.RGBA{0, 0, 0, fade}),
	}
}

// Frame fades the previous contents, draws views and returns a copy of the
// result.
func (c *Canvas) Frame(views []physics.View) *image.RGBA {
	c.mu.Lock()
	defer c.mu.Unlock()

	draw.Draw(c.img, c.img.Bounds(), c.fade, image.Point{}, draw.Over)
	Draw(c.img, views)

	out := image.NewRGBA(c.img.Bounds())
	copy(out.Pix, c.img.Pix)
	return out
}

// plotcirclefilled draws a filled circle at (x0,y0) of radius r.
//
// This seems to perform just slightly faster than other versions I've tried.
func plotcirclefilled(img draw.Image, c color.Color, x0, y0, r int) {
	if r < 0 {
		return
	}
	rsqr := float64(r * r)
	for y := r; y >= 0; y-- {
		xright := int(math.Sqrt(rsqr - float64(y*y)))
		for x := -xright; x <= xright; x++ {
			img.Set(x0+x, y0+y, c)
			img.Set(x0+x, y0-y, c)
		}
	}
}
