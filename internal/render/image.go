package render

import (
	"fmt"
	"image"
	"math"

	"github.com/fogleman/gg"
	"github.com/golang/freetype/truetype"
	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/goregular"
)

// ImageSurface is a software raster Surface on fogleman/gg, used by the demo
// binary for offline PNG frames and by tests that want real pixels.
type ImageSurface struct {
	dc    *gg.Context
	font  *truetype.Font
	faces map[int]font.Face // keyed by rounded pixel size
}

// NewImageSurface creates a surface of the given pixel dimensions.
func NewImageSurface(width, height int) (*ImageSurface, error) {
	f, err := truetype.Parse(goregular.TTF)
	if err != nil {
		return nil, fmt.Errorf("parse font: %w", err)
	}
	return &ImageSurface{
		dc:    gg.NewContext(width, height),
		font:  f,
		faces: make(map[int]font.Face),
	}, nil
}

func (s *ImageSurface) Clear(color string) {
	s.dc.SetHexColor(color)
	s.dc.Clear()
}

func (s *ImageSurface) MoveTo(x, y float64) { s.dc.MoveTo(x, y) }
func (s *ImageSurface) LineTo(x, y float64) { s.dc.LineTo(x, y) }
func (s *ImageSurface) ClosePath()          { s.dc.ClosePath() }

func (s *ImageSurface) Fill(color string) {
	s.dc.SetHexColor(color)
	s.dc.Fill()
}

func (s *ImageSurface) Stroke(color string, width float64) {
	s.dc.SetHexColor(color)
	s.dc.SetLineWidth(width)
	s.dc.Stroke()
}

func (s *ImageSurface) Text(x, y, size float64, color, text string) {
	px := int(math.Round(size))
	if px < 1 {
		px = 1
	}
	face, ok := s.faces[px]
	if !ok {
		face = truetype.NewFace(s.font, &truetype.Options{Size: float64(px)})
		s.faces[px] = face
	}
	s.dc.SetFontFace(face)
	s.dc.SetHexColor(color)
	s.dc.DrawString(text, x, y)
}

// Image returns the rendered frame.
func (s *ImageSurface) Image() image.Image { return s.dc.Image() }

// SavePNG writes the frame to disk.
func (s *ImageSurface) SavePNG(path string) error { return s.dc.SavePNG(path) }
