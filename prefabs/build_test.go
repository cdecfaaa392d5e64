package prefabs

import (
	"errors"
	"image/color"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/milk9111/scenegraph/ecs"
	"github.com/milk9111/scenegraph/physics"
	"github.com/milk9111/scenegraph/render"
	"github.com/milk9111/scenegraph/space"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

func parse(t *testing.T, src string) SceneSpec {
	t.Helper()
	spec, err := ParseScene([]byte(src))
	require.NoError(t, err)
	return spec
}

func TestLoadDemoScene(t *testing.T) {
	spec, err := LoadScene("demo.yaml")
	require.NoError(t, err)

	assert.Equal(t, "demo", spec.Name)
	require.Len(t, spec.Entities, 7)
	assert.Equal(t, "cart", spec.Entities[3].Name)
	assert.Len(t, spec.Entities[3].Children, 2)

	_, err = LoadScene("missing.yaml")
	assert.ErrorIs(t, err, os.ErrNotExist)
	assert.Contains(t, Scenes(), "demo.yaml")
}

func TestLoadPrefersDiskCopies(t *testing.T) {
	root := t.TempDir()
	old := DiskRoot
	DiskRoot = root
	t.Cleanup(func() { DiskRoot = old })

	require.NoError(t, os.MkdirAll(filepath.Join(root, "scripts"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(root, "demo.yaml"), []byte("entities: [{name: only}]"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(root, "scripts", "spinner.tengo"), []byte("handlers := {}"), 0o644))

	spec, err := LoadScene("prefabs/demo.yaml")
	require.NoError(t, err)
	assert.Equal(t, "demo", spec.Name)
	require.Len(t, spec.Entities, 1)

	src, err := LoadScript("prefabs/scripts/spinner.tengo")
	require.NoError(t, err)
	assert.Equal(t, "handlers := {}", string(src))

	src, err = LoadScript("logger.tengo")
	require.NoError(t, err)
	assert.Contains(t, string(src), "collision_enter")

	outside := filepath.Join(t.TempDir(), "level.yml")
	require.NoError(t, os.WriteFile(outside, []byte("entities: []"), 0o644))
	spec, err = LoadScene(outside)
	require.NoError(t, err)
	assert.Equal(t, "level", spec.Name)
}

func TestInstantiateDemoScene(t *testing.T) {
	spec, err := LoadScene("demo.yaml")
	require.NoError(t, err)

	s, err := Instantiate(spec, Options{Physics: physics.DefaultConfig()})
	require.NoError(t, err)
	require.NoError(t, s.Start())
	assert.Equal(t, 9, s.EntityCount())

	cart := s.Find("cart")
	require.NotNil(t, cart)
	rb, ok := ecs.Get[*physics.RigidBody](cart)
	require.True(t, ok)

	wheel := s.Find("wheel_left")
	require.NotNil(t, wheel)
	assert.Equal(t, cart, wheel.Parent())
	wheelCollider, ok := wheel.GetComponent(ecs.KindCollider).(physics.Collider)
	require.True(t, ok)
	assert.Equal(t, physics.Owned, wheelCollider.State())
	assert.Equal(t, rb, wheelCollider.Owner())

	floor, ok := s.Find("floor").GetComponent(ecs.KindCollider).(physics.Collider)
	require.True(t, ok)
	assert.Equal(t, physics.Standalone, floor.State())

	goal, ok := s.Find("goal").GetComponent(ecs.KindCollider).(physics.Collider)
	require.True(t, ok)
	assert.True(t, goal.Sensor())

	assert.NotNil(t, render.ActiveCamera(s))

	start := cart.Transform().Position()
	for i := 0; i < 30; i++ {
		require.NoError(t, s.Update(1.0/60.0))
	}
	assert.Greater(t, cart.Transform().Position().Y(), start.Y())

	instances, err := render.Collect(s)
	require.NoError(t, err)
	assert.Len(t, instances, 9)
}

func TestBuildRollsBackOnUnknownComponent(t *testing.T) {
	s, err := Instantiate(SceneSpec{}, Options{})
	require.NoError(t, err)

	err = Build(s, parse(t, `
entities:
  - name: ok
    components:
      transform: {x: 1}
  - name: broken
    components:
      gizmo: {}
`), Options{})
	assert.ErrorIs(t, err, ErrUnknownComponent)
	assert.ErrorContains(t, err, `"broken"`)
	assert.Equal(t, 0, s.EntityCount())
}

func TestBuildRejectsInvalidComponents(t *testing.T) {
	tests := []struct {
		name       string
		components string
		want       error
	}{
		{name: "flat box", components: "box_collider: {width: 0, height: 4}", want: ErrInvalidSpec},
		{name: "no radius", components: "circle_collider: {}", want: ErrInvalidSpec},
		{name: "degenerate polygon", components: "polygon_collider: {points: [[0, 0], [1, 1]]}", want: physics.ErrInvalidShape},
		{name: "bad primitive", components: "primitive: {shape: star}", want: ErrInvalidSpec},
		{name: "zero scale", components: "transform: {scale_x: 0}", want: space.ErrZeroScale},
		{name: "still tween", components: "tween: {to_x: 1}", want: ErrInvalidSpec},
		{name: "unknown easing", components: "tween: {duration: 1, easing: wobble}", want: ErrInvalidSpec},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, err := Instantiate(SceneSpec{}, Options{})
			require.NoError(t, err)

			var components map[string]any
			require.NoError(t, yaml.Unmarshal([]byte(tt.components), &components))
			err = Build(s, SceneSpec{Entities: []EntitySpec{{Name: "e", Components: components}}}, Options{})
			assert.ErrorIs(t, err, tt.want)
			assert.Equal(t, 0, s.EntityCount())
		})
	}
}

func TestBuildNestedTransforms(t *testing.T) {
	s, err := Instantiate(parse(t, `
entities:
  - name: root
    components:
      transform: {x: 10, y: 0, scale_x: 2}
    children:
      - name: child
        components:
          transform: {x: 5, y: 1}
        children:
          - name: leaf
`), Options{})
	require.NoError(t, err)

	leaf := s.Find("leaf")
	require.NotNil(t, leaf)
	assert.Equal(t, "child", leaf.Parent().Name())

	g, err := s.Find("child").Transform().Global()
	require.NoError(t, err)
	assert.InDelta(t, 20, g.Position.X(), 1e-9)
	assert.InDelta(t, 1, g.Position.Y(), 1e-9)
	assert.Equal(t, 1.0, s.Find("child").Transform().Scale().Y())
}

func TestBuildInactiveEntity(t *testing.T) {
	s, err := Instantiate(parse(t, `
entities:
  - name: hidden
    active: false
    components:
      box_collider: {width: 4, height: 4}
    children:
      - name: inner
        components:
          circle_collider: {radius: 2}
`), Options{})
	require.NoError(t, err)

	hidden := s.Find("hidden")
	assert.False(t, hidden.ActiveSelf())
	assert.False(t, s.Find("inner").Active())
	for _, name := range []string{"hidden", "inner"} {
		c, ok := s.Find(name).GetComponent(ecs.KindCollider).(physics.Collider)
		require.True(t, ok)
		assert.Equal(t, physics.Disconnected, c.State(), name)
	}

	hidden.SetActive(true)
	c, ok := s.Find("inner").GetComponent(ecs.KindCollider).(physics.Collider)
	require.True(t, ok)
	assert.Equal(t, physics.Standalone, c.State())
}

func TestBuildColliderOptions(t *testing.T) {
	s, err := Instantiate(parse(t, `
entities:
  - name: pad
    components:
      box_collider:
        width: 10
        height: 2
        offset_x: 3
        material: {friction: 0.2, elasticity: 0.5, density: 4}
        filter: {group: 3, mask: 1}
`), Options{})
	require.NoError(t, err)

	c, ok := s.Find("pad").GetComponent(ecs.KindBoxCollider).(*physics.BoxCollider)
	require.True(t, ok)
	assert.Equal(t, physics.Material{Friction: 0.2, Elasticity: 0.5, Density: 4}, c.Material())
	assert.Equal(t, 3.0, c.Offset().X())

	filter := c.Shape().Filter
	assert.Equal(t, uint(3), filter.Group)
	assert.Equal(t, uint(1), filter.Mask)
}

func TestBuildCompilesEachScriptOnce(t *testing.T) {
	var mu sync.Mutex
	loads := map[string]int{}
	sources := map[string]string{
		"a.tengo": `handlers := {}`,
		"b.tengo": `handlers := {start: func(engine, state, ev) { state.started = true }}`,
	}
	opts := Options{Scripts: func(name string) ([]byte, error) {
		mu.Lock()
		defer mu.Unlock()
		loads[name]++
		src, ok := sources[name]
		if !ok {
			return nil, os.ErrNotExist
		}
		return []byte(src), nil
	}}

	s, err := Instantiate(parse(t, `
entities:
  - name: one
    components:
      scripts: [a.tengo, b.tengo]
    children:
      - name: two
        components:
          scripts: [b.tengo]
`), opts)
	require.NoError(t, err)
	require.NoError(t, s.Start())

	assert.Equal(t, map[string]int{"a.tengo": 1, "b.tengo": 1}, loads)
	behaviours := ecs.GetAll[*ecs.Behaviour](s.Find("one"))
	require.Len(t, behaviours, 2)
	assert.Equal(t, "a.tengo", behaviours[0].Name())
	assert.Equal(t, "b.tengo", behaviours[1].Name())
	assert.Len(t, ecs.GetAll[*ecs.Behaviour](s.Find("two")), 1)

	_, err = Instantiate(parse(t, `
entities:
  - name: lost
    components:
      scripts: [missing.tengo]
`), opts)
	assert.True(t, errors.Is(err, os.ErrNotExist))

	sources["bad.tengo"] = `handlers := {`
	_, err = Instantiate(parse(t, `
entities:
  - name: broken
    components:
      scripts: [bad.tengo]
`), opts)
	assert.ErrorContains(t, err, "script: compile bad.tengo")
}

func TestBuildSpriteUsesImageResolver(t *testing.T) {
	var keys []string
	opts := Options{Images: func(key string) (*ebiten.Image, error) {
		keys = append(keys, key)
		return nil, nil
	}}
	s, err := Instantiate(parse(t, `
entities:
  - name: hero
    components:
      sprite: {image: hero.png, use_source: true, source_w: 16, source_h: 8, layer: 3, facing_left: true}
`), opts)
	require.NoError(t, err)

	sprite, ok := ecs.Get[*render.Sprite](s.Find("hero"))
	require.True(t, ok)
	assert.Equal(t, []string{"hero.png"}, keys)
	assert.Equal(t, "hero.png", sprite.ImageKey)
	assert.Equal(t, 16, sprite.Source.Dx())
	assert.Equal(t, 3, sprite.Layer())
	assert.True(t, sprite.FlipX)
}

func TestYAMLColor(t *testing.T) {
	tests := []struct {
		in      string
		want    color.Color
		wantErr bool
	}{
		{in: `"#ff8000"`, want: color.NRGBA{R: 255, G: 128, A: 255}},
		{in: `"10203040"`, want: color.NRGBA{R: 0x10, G: 0x20, B: 0x30, A: 0x40}},
		{in: `"#fff"`, wantErr: true},
		{in: `"#gg0000"`, wantErr: true},
		{in: `[1, 2]`, wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			var c YAMLColor
			err := yaml.Unmarshal([]byte(tt.in), &c)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, c.Color)
		})
	}
}

func TestWatcherReportsSceneAndScriptChanges(t *testing.T) {
	dir := t.TempDir()
	w, err := NewWatcher(nil, dir)
	require.NoError(t, err)
	defer w.Close()

	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("x"), 0o644))
	scene := filepath.Join(dir, "level.yaml")
	require.NoError(t, os.WriteFile(scene, []byte("name: level"), 0o644))

	select {
	case got := <-w.Events:
		assert.Equal(t, scene, got)
	case <-time.After(5 * time.Second):
		t.Fatal("no watch event")
	}

	require.NoError(t, w.Close())
	for range w.Events {
	}
}
