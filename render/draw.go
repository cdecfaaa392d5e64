package render

import (
	"image/color"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/vector"
	"github.com/milk9111/scenegraph/ecs"
	"github.com/milk9111/scenegraph/physics"
	"golang.org/x/image/colornames"
)

// Drawer renders collected instances onto an ebiten image.
type Drawer struct {
	// Colliders enables the collider outline overlay.
	Colliders       bool
	StandaloneColor color.Color
	OwnedColor      color.Color
	ContactColor    color.Color
}

func NewDrawer() *Drawer {
	return &Drawer{
		StandaloneColor: colornames.Limegreen,
		OwnedColor:      colornames.Orange,
		ContactColor:    colornames.Red,
	}
}

// Draw renders instances in order through cam.
func (d *Drawer) Draw(dst *ebiten.Image, cam *Camera, instances []Instance) {
	if d == nil || dst == nil {
		return
	}
	for _, inst := range instances {
		switch c := inst.Component.(type) {
		case *Sprite:
			d.drawSprite(dst, cam, inst, c)
		case *Primitive:
			d.drawPrimitive(dst, cam, inst, c)
		}
	}
}

func (d *Drawer) drawSprite(dst *ebiten.Image, cam *Camera, inst Instance, s *Sprite) {
	img := s.frame()
	if img == nil {
		return
	}
	camPos, zoom := cam.View()

	op := &ebiten.DrawImageOptions{}
	op.GeoM.Translate(-s.Origin.X(), -s.Origin.Y())
	sx, sy := inst.Scale.X(), inst.Scale.Y()
	if s.FlipX {
		sx = -sx
		op.GeoM.Translate(float64(-img.Bounds().Dx()), 0)
	}
	op.GeoM.Scale(sx, sy)
	op.GeoM.Rotate(inst.Rotation)
	op.GeoM.Scale(zoom, zoom)
	screen := inst.Position.Sub(camPos).Mul(zoom)
	op.GeoM.Translate(screen.X(), screen.Y())
	dst.DrawImage(img, op)
}

func (d *Drawer) drawPrimitive(dst *ebiten.Image, cam *Camera, inst Instance, p *Primitive) {
	clr := p.color()
	points := p.Points(inst)
	if p.Shape == PrimitiveLine {
		d.polyline(dst, cam, points, p.strokeWidth(), clr, false)
		return
	}
	if p.Shape == PrimitiveRect && p.Filled && inst.Rotation == 0 {
		lo := cam.WorldToScreen(points[0])
		hi := cam.WorldToScreen(points[2])
		x, y := min(lo.X(), hi.X()), min(lo.Y(), hi.Y())
		w, h := max(lo.X(), hi.X())-x, max(lo.Y(), hi.Y())-y
		vector.FillRect(dst, float32(x), float32(y), float32(w), float32(h), clr, false)
		return
	}
	d.polyline(dst, cam, points, p.strokeWidth(), clr, true)
}

// DrawColliders outlines every connected collider in s. Standalone and owned
// colliders use different colors; touching pairs are marked at their
// contact points.
func (d *Drawer) DrawColliders(dst *ebiten.Image, cam *Camera, s *ecs.Scene) {
	if d == nil || dst == nil || s == nil {
		return
	}
	for _, c := range ecs.ComponentsOf[physics.Collider](s, ecs.KindCollider) {
		var clr color.Color
		switch c.State() {
		case physics.Standalone:
			clr = d.StandaloneColor
		case physics.Owned:
			clr = d.OwnedColor
		default:
			continue
		}
		d.polyline(dst, cam, c.Outline(), 1, clr, true)
	}
	if w, ok := ecs.Resource[*physics.World](s); ok {
		for _, p := range w.ContactPoints() {
			d.drawContact(dst, cam, p)
		}
	}
}

func (d *Drawer) drawContact(dst *ebiten.Image, cam *Camera, p mgl64.Vec2) {
	const half = 3
	s := cam.WorldToScreen(p)
	x, y := float32(s.X()), float32(s.Y())
	vector.StrokeLine(dst, x-half, y, x+half, y, 1, d.ContactColor, false)
	vector.StrokeLine(dst, x, y-half, x, y+half, 1, d.ContactColor, false)
}

func (d *Drawer) polyline(dst *ebiten.Image, cam *Camera, points []mgl64.Vec2, width float32, clr color.Color, closed bool) {
	n := len(points)
	if n < 2 {
		return
	}
	segments := n - 1
	if closed {
		segments = n
	}
	for i := 0; i < segments; i++ {
		a := cam.WorldToScreen(points[i])
		b := cam.WorldToScreen(points[(i+1)%n])
		vector.StrokeLine(dst, float32(a.X()), float32(a.Y()), float32(b.X()), float32(b.Y()), width, clr, true)
	}
}
