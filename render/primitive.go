package render

import (
	"fmt"
	"image/color"
	"math"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/milk9111/scenegraph/ecs"
	"golang.org/x/image/colornames"
)

type PrimitiveShape uint8

const (
	PrimitiveRect PrimitiveShape = iota
	PrimitiveCircle
	PrimitiveLine
)

func (p PrimitiveShape) String() string {
	switch p {
	case PrimitiveRect:
		return "rect"
	case PrimitiveCircle:
		return "circle"
	case PrimitiveLine:
		return "line"
	default:
		return fmt.Sprintf("PrimitiveShape(%d)", uint8(p))
	}
}

const circleSegments = 24

// Primitive draws a vector shape in its entity's local frame. Size is the
// rectangle extent, or the line's end point relative to the origin.
type Primitive struct {
	ecs.Base
	Shape  PrimitiveShape
	Size   mgl64.Vec2
	Radius float64
	Color  color.Color
	Filled bool
	Width  float32
	Z      int
}

func NewRect(width, height float64, clr color.Color) *Primitive {
	return &Primitive{Shape: PrimitiveRect, Size: mgl64.Vec2{width, height}, Color: clr, Filled: true}
}

func NewCircle(radius float64, clr color.Color) *Primitive {
	return &Primitive{Shape: PrimitiveCircle, Radius: radius, Color: clr}
}

func NewLine(to mgl64.Vec2, clr color.Color) *Primitive {
	return &Primitive{Shape: PrimitiveLine, Size: to, Color: clr}
}

func (p *Primitive) Kind() ecs.Kind { return ecs.KindPrimitive }

func (p *Primitive) Layer() int { return p.Z }

func (p *Primitive) color() color.Color {
	if p.Color == nil {
		return colornames.White
	}
	return p.Color
}

func (p *Primitive) strokeWidth() float32 {
	if p.Width <= 0 {
		return 1
	}
	return p.Width
}

// Points returns the outline of the primitive in world space for the given
// instance pose. Lines yield two points.
func (p *Primitive) Points(inst Instance) []mgl64.Vec2 {
	var local []mgl64.Vec2
	switch p.Shape {
	case PrimitiveRect:
		hw, hh := p.Size[0]/2, p.Size[1]/2
		local = []mgl64.Vec2{{-hw, -hh}, {hw, -hh}, {hw, hh}, {-hw, hh}}
	case PrimitiveCircle:
		local = make([]mgl64.Vec2, circleSegments)
		for i := range local {
			a := 2 * math.Pi * float64(i) / circleSegments
			local[i] = mgl64.Vec2{math.Cos(a), math.Sin(a)}.Mul(p.Radius)
		}
	case PrimitiveLine:
		local = []mgl64.Vec2{{}, p.Size}
	}
	rot := mgl64.Rotate2D(inst.Rotation)
	out := make([]mgl64.Vec2, len(local))
	for i, v := range local {
		scaled := mgl64.Vec2{v[0] * inst.Scale[0], v[1] * inst.Scale[1]}
		out[i] = rot.Mul2x1(scaled).Add(inst.Position)
	}
	return out
}
