package prefabs

import (
	"errors"
	"fmt"
	"image/color"
	"path"
	"strconv"
	"strings"

	"github.com/go-gl/mathgl/mgl64"
	"gopkg.in/yaml.v3"
)

var (
	ErrUnknownComponent = errors.New("prefabs: unknown component")
	ErrInvalidSpec      = errors.New("prefabs: invalid spec")
)

// SceneSpec describes a scene file: a forest of entities.
type SceneSpec struct {
	Name     string       `yaml:"name"`
	Entities []EntitySpec `yaml:"entities"`
}

// EntitySpec is one entity with its components keyed by component name and
// its nested children.
type EntitySpec struct {
	Name       string         `yaml:"name"`
	Active     *bool          `yaml:"active"`
	Components map[string]any `yaml:"components"`
	Children   []EntitySpec   `yaml:"children"`
}

func LoadSpec[T any](filename string) (T, error) {
	var zero T
	data, err := Load(filename)
	if err != nil {
		return zero, fmt.Errorf("prefabs: load %s: %w", filename, err)
	}

	var spec T
	if err := yaml.Unmarshal(data, &spec); err != nil {
		return zero, fmt.Errorf("prefabs: unmarshal %s: %w", filename, err)
	}

	return spec, nil
}

// LoadScene reads a scene file from disk, falling back to the embedded copy.
func LoadScene(filename string) (SceneSpec, error) {
	spec, err := LoadSpec[SceneSpec](filename)
	if err != nil {
		return SceneSpec{}, err
	}
	if spec.Name == "" {
		base := path.Base(scenePath(filename))
		spec.Name = strings.TrimSuffix(base, path.Ext(base))
	}
	return spec, nil
}

// ParseScene decodes a scene from memory.
func ParseScene(data []byte) (SceneSpec, error) {
	var spec SceneSpec
	if err := yaml.Unmarshal(data, &spec); err != nil {
		return SceneSpec{}, fmt.Errorf("prefabs: unmarshal scene: %w", err)
	}
	return spec, nil
}

func DecodeComponentSpec[T any](raw any) (T, error) {
	var zero T
	if raw == nil {
		return zero, nil
	}
	b, err := yaml.Marshal(raw)
	if err != nil {
		return zero, err
	}
	var out T
	if err := yaml.Unmarshal(b, &out); err != nil {
		return zero, err
	}
	return out, nil
}

type TransformComponentSpec struct {
	X        float64  `yaml:"x"`
	Y        float64  `yaml:"y"`
	ScaleX   *float64 `yaml:"scale_x"`
	ScaleY   *float64 `yaml:"scale_y"`
	Rotation float64  `yaml:"rotation"`
}

func (s TransformComponentSpec) Scale() mgl64.Vec2 {
	scale := mgl64.Vec2{1, 1}
	if s.ScaleX != nil {
		scale[0] = *s.ScaleX
	}
	if s.ScaleY != nil {
		scale[1] = *s.ScaleY
	}
	return scale
}

type RigidBodyComponentSpec struct {
	Mass           float64    `yaml:"mass"`
	Moment         float64    `yaml:"moment"`
	Kinematic      bool       `yaml:"kinematic"`
	FreezePosition bool       `yaml:"freeze_position"`
	FreezeRotation bool       `yaml:"freeze_rotation"`
	GravityScale   *float64   `yaml:"gravity_scale"`
	Velocity       [2]float64 `yaml:"velocity"`
}

type MaterialSpec struct {
	Friction   float64 `yaml:"friction"`
	Elasticity float64 `yaml:"elasticity"`
	Density    float64 `yaml:"density"`
}

type FilterSpec struct {
	Group      uint  `yaml:"group"`
	Categories *uint `yaml:"categories"`
	Mask       *uint `yaml:"mask"`
}

// ColliderComponentSpec covers the box, circle and polygon colliders. Only
// the fields of the named shape are read.
type ColliderComponentSpec struct {
	Width    float64       `yaml:"width"`
	Height   float64       `yaml:"height"`
	Radius   float64       `yaml:"radius"`
	Points   [][2]float64  `yaml:"points"`
	OffsetX  float64       `yaml:"offset_x"`
	OffsetY  float64       `yaml:"offset_y"`
	Sensor   bool          `yaml:"sensor"`
	Material *MaterialSpec `yaml:"material"`
	Filter   *FilterSpec   `yaml:"filter"`
}

type SpriteComponentSpec struct {
	Image      string  `yaml:"image"`
	UseSource  bool    `yaml:"use_source"`
	SourceX    int     `yaml:"source_x"`
	SourceY    int     `yaml:"source_y"`
	SourceW    int     `yaml:"source_w"`
	SourceH    int     `yaml:"source_h"`
	OriginX    float64 `yaml:"origin_x"`
	OriginY    float64 `yaml:"origin_y"`
	FacingLeft bool    `yaml:"facing_left"`
	Layer      int     `yaml:"layer"`
}

type PrimitiveComponentSpec struct {
	Shape  string     `yaml:"shape"`
	Width  float64    `yaml:"width"`
	Height float64    `yaml:"height"`
	Radius float64    `yaml:"radius"`
	EndX   float64    `yaml:"end_x"`
	EndY   float64    `yaml:"end_y"`
	Color  *YAMLColor `yaml:"color"`
	Filled *bool      `yaml:"filled"`
	Stroke float32    `yaml:"stroke"`
	Layer  int        `yaml:"layer"`
}

type CameraComponentSpec struct {
	Zoom float64 `yaml:"zoom"`
}

type AudioListenerComponentSpec struct {
	Volume *float64 `yaml:"volume"`
	Range  float64  `yaml:"range"`
}

type ScriptComponentSpec struct {
	File string `yaml:"file"`
}

type TweenComponentSpec struct {
	ToX      float64 `yaml:"to_x"`
	ToY      float64 `yaml:"to_y"`
	Duration float32 `yaml:"duration"`
	Easing   string  `yaml:"easing"`
	Yoyo     bool    `yaml:"yoyo"`
}

type YAMLColor struct {
	color.Color
}

func (c *YAMLColor) UnmarshalYAML(value *yaml.Node) error {
	if value.Kind != yaml.ScalarNode {
		return fmt.Errorf("color must be a string")
	}

	s := strings.TrimPrefix(value.Value, "#")

	if len(s) != 6 && len(s) != 8 {
		return fmt.Errorf("invalid color format: %s", value.Value)
	}

	parse := func(start int) (uint8, error) {
		v, err := strconv.ParseUint(s[start:start+2], 16, 8)
		return uint8(v), err
	}

	r, err := parse(0)
	if err != nil {
		return err
	}
	g, err := parse(2)
	if err != nil {
		return err
	}
	b, err := parse(4)
	if err != nil {
		return err
	}

	a := uint8(255)
	if len(s) == 8 {
		a, err = parse(6)
		if err != nil {
			return err
		}
	}

	c.Color = color.NRGBA{R: r, G: g, B: b, A: a}
	return nil
}
