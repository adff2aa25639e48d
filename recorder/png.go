package recorder

import (
	"fmt"
	"image/png"
	"os"
	"path/filepath"

	"github.com/quillaja/revolver/render"
)

// PNGSink renders each frame to dir/<frame>.png.
type PNGSink struct {
	dir    string
	canvas *render.Canvas
}

// NewPNGSink creates dir and a canvas of the given size. fade is passed to
// render.NewCanvas; with more than one worker, frames can reach the canvas
// out of order, so trails need a single worker.
func NewPNGSink(dir string, width, height int, fade uint8) (*PNGSink, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("creating image directory: %w", err)
	}
	return &PNGSink{dir: dir, canvas: render.NewCanvas(width, height, fade)}, nil
}

// WriteFrame draws and encodes one frame.
func (s *PNGSink) WriteFrame(f *Frame) error {
	film := s.canvas.Frame(f.Bodies)

	name := filepath.Join(s.dir, fmt.Sprintf("%010d.png", f.Number))
	file, err := os.Create(name)
	if err != nil {
		return fmt.Errorf("creating %s: %w", name, err)
	}
	if err := png.Encode(file, film); err != nil {
		file.Close()
		os.Remove(name)
		return fmt.Errorf("encoding %s: %w", name, err)
	}
	return file.Close()
}

// Close is a no-op; every frame is closed as it is written.
func (s *PNGSink) Close() error { return nil }
