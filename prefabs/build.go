package prefabs

import (
	"fmt"
	"image"
	"path"
	"slices"
	"time"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/hajimehoshi/ebiten/v2"
	"github.com/jakecoffman/cp"
	"github.com/milk9111/scenegraph/audio"
	"github.com/milk9111/scenegraph/ecs"
	"github.com/milk9111/scenegraph/physics"
	"github.com/milk9111/scenegraph/render"
	"github.com/milk9111/scenegraph/script"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// Options controls how a scene spec becomes a scene.
type Options struct {
	Logger        *zap.Logger
	Physics       physics.Config
	ScriptTimeout time.Duration
	// Images resolves sprite image keys. Sprites keep only their key when nil.
	Images func(key string) (*ebiten.Image, error)
	// Scripts loads script sources. Defaults to LoadScript.
	Scripts func(name string) ([]byte, error)
}

type buildContext struct {
	opts     Options
	programs map[string]*script.Program
	path     string
}

type componentBuildFn func(e *ecs.Entity, raw any, ctx *buildContext) error

var componentRegistry = map[string]componentBuildFn{
	"transform":        addTransform,
	"rigidbody":        addRigidBody,
	"box_collider":     addBoxCollider,
	"circle_collider":  addCircleCollider,
	"polygon_collider": addPolygonCollider,
	"sprite":           addSprite,
	"primitive":        addPrimitive,
	"camera":           addCamera,
	"audio_listener":   addAudioListener,
	"scripts":          addScripts,
	"tween":            addTween,
}

// Rigid bodies go before colliders so colliders bind as owned on attach.
// Behaviours go last so their awake handlers see the finished entity.
var componentBuildOrder = []string{
	"transform",
	"rigidbody",
	"box_collider",
	"circle_collider",
	"polygon_collider",
	"sprite",
	"primitive",
	"camera",
	"audio_listener",
	"scripts",
	"tween",
}

// Instantiate creates a loaded scene with a physics world attached and builds
// spec into it. The caller starts the scene.
func Instantiate(spec SceneSpec, opts Options) (*ecs.Scene, error) {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	s := ecs.NewScene(ecs.WithName(spec.Name), ecs.WithLogger(logger))
	if err := s.Load(); err != nil {
		return nil, err
	}
	physics.NewWorld(opts.Physics, s.Logger()).Attach(s)
	if err := Build(s, spec, opts); err != nil {
		s.Unload()
		return nil, err
	}
	return s, nil
}

// Build adds the entities of spec to a loaded scene. Scripts are compiled
// up front; on any failure the entities built so far are destroyed.
func Build(s *ecs.Scene, spec SceneSpec, opts Options) error {
	if s == nil || s.State() == ecs.SceneUnloaded {
		return ecs.ErrMissingScene
	}
	if opts.Scripts == nil {
		opts.Scripts = LoadScript
	}
	programs, err := compileScripts(spec, opts.Scripts)
	if err != nil {
		return err
	}

	ctx := &buildContext{opts: opts, programs: programs}
	roots := make([]*ecs.Entity, 0, len(spec.Entities))
	for _, es := range spec.Entities {
		e, err := buildEntity(s, es, nil, ctx)
		if err != nil {
			for _, root := range roots {
				root.Destroy()
			}
			s.Flush()
			return err
		}
		roots = append(roots, e)
	}
	s.Logger().Debug("scene built", zap.String("scene", spec.Name), zap.Int("entities", s.EntityCount()), zap.Int("scripts", len(programs)))
	return nil
}

func buildEntity(s *ecs.Scene, spec EntitySpec, parent *ecs.Entity, ctx *buildContext) (*ecs.Entity, error) {
	at := spec.Name
	if ctx.path != "" {
		at = path.Join(ctx.path, spec.Name)
	}

	e, err := s.NewEntity(spec.Name)
	if err != nil {
		return nil, fmt.Errorf("prefabs: build %q: %w", at, err)
	}
	fail := func(err error) (*ecs.Entity, error) {
		e.Destroy()
		s.Flush()
		return nil, err
	}
	if parent != nil {
		if err := e.SetParent(parent); err != nil {
			return fail(fmt.Errorf("prefabs: build %q: %w", at, err))
		}
	}
	if spec.Active != nil && !*spec.Active {
		e.SetActive(false)
	}

	for _, name := range sortedKeys(spec.Components) {
		if _, ok := componentRegistry[name]; !ok {
			return fail(fmt.Errorf("prefabs: build %q: %w %q", at, ErrUnknownComponent, name))
		}
	}
	for _, name := range componentBuildOrder {
		raw, ok := spec.Components[name]
		if !ok {
			continue
		}
		if err := componentRegistry[name](e, raw, ctx); err != nil {
			return fail(fmt.Errorf("prefabs: build %q: add %q: %w", at, name, err))
		}
	}

	outer := ctx.path
	ctx.path = at
	defer func() { ctx.path = outer }()
	for _, child := range spec.Children {
		if _, err := buildEntity(s, child, e, ctx); err != nil {
			return fail(err)
		}
	}
	return e, nil
}

// compileScripts compiles every distinct script the spec references in
// parallel.
func compileScripts(spec SceneSpec, load func(string) ([]byte, error)) (map[string]*script.Program, error) {
	var files []string
	if err := collectScripts(spec.Entities, &files); err != nil {
		return nil, err
	}

	programs := make([]*script.Program, len(files))
	var g errgroup.Group
	for i, file := range files {
		g.Go(func() error {
			src, err := load(file)
			if err != nil {
				return fmt.Errorf("prefabs: load script %s: %w", file, err)
			}
			prog, err := script.Compile(file, src)
			if err != nil {
				return err
			}
			programs[i] = prog
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	out := make(map[string]*script.Program, len(files))
	for i, file := range files {
		out[file] = programs[i]
	}
	return out, nil
}

func collectScripts(entities []EntitySpec, files *[]string) error {
	for _, es := range entities {
		names, err := DecodeComponentSpec[[]string](es.Components["scripts"])
		if err != nil {
			return fmt.Errorf("prefabs: decode scripts of %q: %w", es.Name, err)
		}
		for _, name := range names {
			if !slices.Contains(*files, name) {
				*files = append(*files, name)
			}
		}
		if err := collectScripts(es.Children, files); err != nil {
			return err
		}
	}
	return nil
}

func sortedKeys(m map[string]any) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}

func addTransform(e *ecs.Entity, raw any, _ *buildContext) error {
	spec, err := DecodeComponentSpec[TransformComponentSpec](raw)
	if err != nil {
		return fmt.Errorf("decode transform spec: %w", err)
	}
	t := e.Transform()
	if err := t.SetScale(spec.Scale()); err != nil {
		return err
	}
	t.SetPosition(mgl64.Vec2{spec.X, spec.Y})
	t.SetRotation(spec.Rotation)
	return nil
}

func addRigidBody(e *ecs.Entity, raw any, _ *buildContext) error {
	spec, err := DecodeComponentSpec[RigidBodyComponentSpec](raw)
	if err != nil {
		return fmt.Errorf("decode rigidbody spec: %w", err)
	}
	var opts []physics.RigidBodyOption
	if spec.Mass > 0 {
		opts = append(opts, physics.WithMass(spec.Mass))
	}
	if spec.Moment > 0 {
		opts = append(opts, physics.WithMoment(spec.Moment))
	}
	if spec.Kinematic {
		opts = append(opts, physics.WithKinematic())
	}
	if spec.FreezePosition {
		opts = append(opts, physics.WithFreezePosition())
	}
	if spec.FreezeRotation {
		opts = append(opts, physics.WithFreezeRotation())
	}
	if spec.GravityScale != nil {
		opts = append(opts, physics.WithGravityScale(*spec.GravityScale))
	}
	rb := physics.NewRigidBody(opts...)
	if err := e.AddComponent(rb); err != nil {
		return err
	}
	if v := mgl64.Vec2(spec.Velocity); v != (mgl64.Vec2{}) {
		rb.SetVelocity(v)
	}
	return nil
}

type configurableCollider interface {
	physics.Collider
	SetMaterial(m physics.Material)
	SetFilter(group, categories, mask uint)
}

func addCollider(e *ecs.Entity, c configurableCollider, spec ColliderComponentSpec) error {
	c.SetSensor(spec.Sensor)
	if m := spec.Material; m != nil {
		c.SetMaterial(physics.Material{Friction: m.Friction, Elasticity: m.Elasticity, Density: m.Density})
	}
	if f := spec.Filter; f != nil {
		categories, mask := cp.ALL_CATEGORIES, cp.ALL_CATEGORIES
		if f.Categories != nil {
			categories = *f.Categories
		}
		if f.Mask != nil {
			mask = *f.Mask
		}
		c.SetFilter(f.Group, categories, mask)
	}
	return e.AddComponent(c)
}

func addBoxCollider(e *ecs.Entity, raw any, _ *buildContext) error {
	spec, err := DecodeComponentSpec[ColliderComponentSpec](raw)
	if err != nil {
		return fmt.Errorf("decode box_collider spec: %w", err)
	}
	if spec.Width <= 0 || spec.Height <= 0 {
		return fmt.Errorf("%w: box size %gx%g", ErrInvalidSpec, spec.Width, spec.Height)
	}
	c := physics.NewBoxCollider(spec.Width, spec.Height)
	c.SetOffset(mgl64.Vec2{spec.OffsetX, spec.OffsetY})
	return addCollider(e, c, spec)
}

func addCircleCollider(e *ecs.Entity, raw any, _ *buildContext) error {
	spec, err := DecodeComponentSpec[ColliderComponentSpec](raw)
	if err != nil {
		return fmt.Errorf("decode circle_collider spec: %w", err)
	}
	if spec.Radius <= 0 {
		return fmt.Errorf("%w: circle radius %g", ErrInvalidSpec, spec.Radius)
	}
	c := physics.NewCircleCollider(spec.Radius)
	c.SetOffset(mgl64.Vec2{spec.OffsetX, spec.OffsetY})
	return addCollider(e, c, spec)
}

func addPolygonCollider(e *ecs.Entity, raw any, _ *buildContext) error {
	spec, err := DecodeComponentSpec[ColliderComponentSpec](raw)
	if err != nil {
		return fmt.Errorf("decode polygon_collider spec: %w", err)
	}
	points := make([]mgl64.Vec2, len(spec.Points))
	for i, p := range spec.Points {
		points[i] = mgl64.Vec2{p[0] + spec.OffsetX, p[1] + spec.OffsetY}
	}
	c, err := physics.NewPolygonCollider(points)
	if err != nil {
		return err
	}
	return addCollider(e, c, spec)
}

func addSprite(e *ecs.Entity, raw any, ctx *buildContext) error {
	spec, err := DecodeComponentSpec[SpriteComponentSpec](raw)
	if err != nil {
		return fmt.Errorf("decode sprite spec: %w", err)
	}
	sprite := render.NewSprite(nil)
	sprite.ImageKey = spec.Image
	sprite.Origin = mgl64.Vec2{spec.OriginX, spec.OriginY}
	sprite.FlipX = spec.FacingLeft
	sprite.Z = spec.Layer
	if spec.UseSource {
		sprite.UseSource = true
		sprite.Source = image.Rect(spec.SourceX, spec.SourceY, spec.SourceX+spec.SourceW, spec.SourceY+spec.SourceH)
	}
	if spec.Image != "" && ctx.opts.Images != nil {
		img, err := ctx.opts.Images(spec.Image)
		if err != nil {
			return fmt.Errorf("load sprite image %q: %w", spec.Image, err)
		}
		sprite.Image = img
	}
	return e.AddComponent(sprite)
}

func addPrimitive(e *ecs.Entity, raw any, _ *buildContext) error {
	spec, err := DecodeComponentSpec[PrimitiveComponentSpec](raw)
	if err != nil {
		return fmt.Errorf("decode primitive spec: %w", err)
	}
	var p *render.Primitive
	switch spec.Shape {
	case "", "rect":
		p = render.NewRect(spec.Width, spec.Height, nil)
	case "circle":
		p = render.NewCircle(spec.Radius, nil)
	case "line":
		p = render.NewLine(mgl64.Vec2{spec.EndX, spec.EndY}, nil)
	default:
		return fmt.Errorf("%w: primitive shape %q", ErrInvalidSpec, spec.Shape)
	}
	if spec.Color != nil {
		p.Color = spec.Color.Color
	}
	if spec.Filled != nil {
		p.Filled = *spec.Filled
	}
	p.Width = spec.Stroke
	p.Z = spec.Layer
	return e.AddComponent(p)
}

func addCamera(e *ecs.Entity, raw any, _ *buildContext) error {
	spec, err := DecodeComponentSpec[CameraComponentSpec](raw)
	if err != nil {
		return fmt.Errorf("decode camera spec: %w", err)
	}
	return e.AddComponent(render.NewCamera(spec.Zoom))
}

func addAudioListener(e *ecs.Entity, raw any, _ *buildContext) error {
	spec, err := DecodeComponentSpec[AudioListenerComponentSpec](raw)
	if err != nil {
		return fmt.Errorf("decode audio_listener spec: %w", err)
	}
	volume := 1.0
	if spec.Volume != nil {
		volume = *spec.Volume
	}
	return e.AddComponent(audio.NewListener(volume, spec.Range))
}

func addScripts(e *ecs.Entity, raw any, ctx *buildContext) error {
	names, err := DecodeComponentSpec[[]string](raw)
	if err != nil {
		return fmt.Errorf("decode scripts spec: %w", err)
	}
	for _, name := range names {
		prog, ok := ctx.programs[name]
		if !ok {
			return fmt.Errorf("%w: script %q was not compiled", ErrInvalidSpec, name)
		}
		if err := e.AddComponent(ecs.NewBehaviour(prog.Name(), prog.NewRuntime(ctx.opts.ScriptTimeout))); err != nil {
			return err
		}
	}
	return nil
}

func addTween(e *ecs.Entity, raw any, _ *buildContext) error {
	spec, err := DecodeComponentSpec[TweenComponentSpec](raw)
	if err != nil {
		return fmt.Errorf("decode tween spec: %w", err)
	}
	if spec.Duration <= 0 {
		return fmt.Errorf("%w: tween duration %g", ErrInvalidSpec, spec.Duration)
	}
	name := spec.Easing
	if name == "" {
		name = "linear"
	}
	fn, ok := script.Easing(name)
	if !ok {
		return fmt.Errorf("%w: unknown easing %q", ErrInvalidSpec, name)
	}
	tw := script.NewTween(mgl64.Vec2{spec.ToX, spec.ToY}, spec.Duration, fn)
	tw.Yoyo = spec.Yoyo
	return e.AddComponent(ecs.NewBehaviour("tween", tw))
}
