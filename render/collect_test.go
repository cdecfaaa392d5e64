package render

import (
	"math"
	"testing"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/milk9111/scenegraph/ecs"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/image/colornames"
)

func newScene(t *testing.T) *ecs.Scene {
	t.Helper()
	s := ecs.NewScene(ecs.WithName(t.Name()))
	require.NoError(t, s.Load())
	require.NoError(t, s.Start())
	return s
}

func newEntity(t *testing.T, s *ecs.Scene, name string, parent *ecs.Entity, pos mgl64.Vec2) *ecs.Entity {
	t.Helper()
	e, err := s.NewEntity(name)
	require.NoError(t, err)
	if parent != nil {
		require.NoError(t, e.SetParent(parent))
	}
	e.Transform().SetPosition(pos)
	return e
}

func TestCollectOrdersByLayerThenCreation(t *testing.T) {
	s := newScene(t)
	a := newEntity(t, s, "a", nil, mgl64.Vec2{})
	b := newEntity(t, s, "b", nil, mgl64.Vec2{})
	c := newEntity(t, s, "c", nil, mgl64.Vec2{})

	back := NewRect(1, 1, colornames.Blue)
	back.Z = -1
	first := NewSprite(nil)
	second := NewCircle(2, nil)
	require.NoError(t, b.AddComponent(first))
	require.NoError(t, c.AddComponent(second))
	require.NoError(t, a.AddComponent(back))

	got, err := Collect(s)
	require.NoError(t, err)
	require.Len(t, got, 3)
	assert.Same(t, back, got[0].Component)
	assert.Same(t, first, got[1].Component)
	assert.Same(t, second, got[2].Component)
	assert.Equal(t, b.ID(), got[1].Entity)
}

func TestCollectSkipsInactive(t *testing.T) {
	s := newScene(t)
	root := newEntity(t, s, "root", nil, mgl64.Vec2{})
	child := newEntity(t, s, "child", root, mgl64.Vec2{})
	other := newEntity(t, s, "other", nil, mgl64.Vec2{})
	doomed := newEntity(t, s, "doomed", nil, mgl64.Vec2{})

	require.NoError(t, child.AddComponent(NewSprite(nil)))
	disabled := NewRect(1, 1, nil)
	require.NoError(t, other.AddComponent(disabled))
	require.NoError(t, disabled.SetEnabled(false))
	require.NoError(t, doomed.AddComponent(NewCircle(1, nil)))
	kept := NewLine(mgl64.Vec2{1, 0}, nil)
	require.NoError(t, root.AddComponent(kept))

	root.SetActive(false)
	doomed.Destroy()
	got, err := Collect(s)
	require.NoError(t, err)
	assert.Empty(t, got)

	root.SetActive(true)
	got, err = Collect(s)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Same(t, kept, got[1].Component)
}

func TestCollectResolvesGlobalPose(t *testing.T) {
	s := newScene(t)
	root := newEntity(t, s, "root", nil, mgl64.Vec2{10, 0})
	root.Transform().SetRotation(math.Pi / 2)
	require.NoError(t, root.Transform().SetScale(mgl64.Vec2{2, 2}))
	child := newEntity(t, s, "child", root, mgl64.Vec2{1, 0})
	require.NoError(t, child.AddComponent(NewSprite(nil)))

	got, err := Collect(s)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.InDelta(t, 10, got[0].Position.X(), 1e-9)
	assert.InDelta(t, 2, got[0].Position.Y(), 1e-9)
	assert.InDelta(t, math.Pi/2, got[0].Rotation, 1e-9)
	assert.Equal(t, mgl64.Vec2{2, 2}, got[0].Scale)
}

func TestCamera(t *testing.T) {
	var none *Camera
	pos, zoom := none.View()
	assert.Equal(t, mgl64.Vec2{}, pos)
	assert.Equal(t, 1.0, zoom)

	s := newScene(t)
	idle := newEntity(t, s, "idle", nil, mgl64.Vec2{})
	off := NewCamera(4)
	require.NoError(t, idle.AddComponent(off))
	require.NoError(t, off.SetEnabled(false))
	e := newEntity(t, s, "cam", nil, mgl64.Vec2{10, 20})
	cam := NewCamera(2)
	require.NoError(t, e.AddComponent(cam))

	assert.Same(t, cam, ActiveCamera(s))
	screen := cam.WorldToScreen(mgl64.Vec2{15, 20})
	assert.Equal(t, mgl64.Vec2{10, 0}, screen)
	assert.Equal(t, mgl64.Vec2{15, 20}, cam.ScreenToWorld(screen))
}

func TestPrimitivePoints(t *testing.T) {
	inst := Instance{Position: mgl64.Vec2{10, 0}, Rotation: math.Pi / 2, Scale: mgl64.Vec2{1, 2}}

	rect := NewRect(2, 4, nil)
	want := []mgl64.Vec2{{14, -1}, {14, 1}, {6, 1}, {6, -1}}
	for i, p := range rect.Points(inst) {
		assert.InDelta(t, want[i].X(), p.X(), 1e-9)
		assert.InDelta(t, want[i].Y(), p.Y(), 1e-9)
	}

	line := NewLine(mgl64.Vec2{0, 3}, nil)
	pts := line.Points(inst)
	require.Len(t, pts, 2)
	assert.InDelta(t, 4, pts[1].X(), 1e-9)
	assert.InDelta(t, 0, pts[1].Y(), 1e-9)

	circle := NewCircle(1, nil)
	assert.Len(t, circle.Points(Instance{Scale: mgl64.Vec2{1, 1}}), circleSegments)
	assert.Equal(t, colornames.White, circle.color())
	assert.Equal(t, float32(1), circle.strokeWidth())
}
