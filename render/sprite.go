package render

import (
	"image"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/hajimehoshi/ebiten/v2"
	"github.com/milk9111/scenegraph/ecs"
)

type Sprite struct {
	ecs.Base
	Image *ebiten.Image
	// ImageKey names the image for scene files and reloads.
	ImageKey  string
	Source    image.Rectangle
	UseSource bool
	Origin    mgl64.Vec2
	FlipX     bool
	Z         int
}

func NewSprite(img *ebiten.Image) *Sprite {
	return &Sprite{Image: img}
}

func (s *Sprite) Kind() ecs.Kind { return ecs.KindSprite }

func (s *Sprite) Layer() int { return s.Z }

// frame returns the image region to draw, or nil when there is none.
func (s *Sprite) frame() *ebiten.Image {
	if s.Image == nil {
		return nil
	}
	if s.UseSource {
		if sub, ok := s.Image.SubImage(s.Source).(*ebiten.Image); ok {
			return sub
		}
	}
	return s.Image
}
