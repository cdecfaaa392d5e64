package script

import (
	"fmt"
	"strings"

	"github.com/d5/tengo/v2"
	"github.com/go-gl/mathgl/mgl64"
	"github.com/milk9111/scenegraph/ecs"
	"github.com/milk9111/scenegraph/physics"
	"go.uber.org/zap"
)

type engineFunc func(e *ecs.Entity, args ...tengo.Object) (tengo.Object, error)

var engineFuncs = map[string]engineFunc{
	"name": func(e *ecs.Entity, _ ...tengo.Object) (tengo.Object, error) {
		return &tengo.String{Value: e.Name()}, nil
	},
	"position": func(e *ecs.Entity, _ ...tengo.Object) (tengo.Object, error) {
		p := e.Transform().Position()
		return vec2Object(p[0], p[1]), nil
	},
	"set_position": func(e *ecs.Entity, args ...tengo.Object) (tengo.Object, error) {
		v, err := vec2Args("set_position", args)
		if err != nil {
			return nil, err
		}
		e.Transform().SetPosition(v)
		return tengo.TrueValue, nil
	},
	"translate": func(e *ecs.Entity, args ...tengo.Object) (tengo.Object, error) {
		v, err := vec2Args("translate", args)
		if err != nil {
			return nil, err
		}
		e.Transform().Translate(v)
		return tengo.TrueValue, nil
	},
	"rotation": func(e *ecs.Entity, _ ...tengo.Object) (tengo.Object, error) {
		return &tengo.Float{Value: e.Transform().Rotation()}, nil
	},
	"set_rotation": func(e *ecs.Entity, args ...tengo.Object) (tengo.Object, error) {
		r, err := floatArg("set_rotation", args, 0)
		if err != nil {
			return nil, err
		}
		e.Transform().SetRotation(r)
		return tengo.TrueValue, nil
	},
	"rotate": func(e *ecs.Entity, args ...tengo.Object) (tengo.Object, error) {
		r, err := floatArg("rotate", args, 0)
		if err != nil {
			return nil, err
		}
		e.Transform().Rotate(r)
		return tengo.TrueValue, nil
	},
	"set_scale": func(e *ecs.Entity, args ...tengo.Object) (tengo.Object, error) {
		v, err := vec2Args("set_scale", args)
		if err != nil {
			return nil, err
		}
		if err := e.Transform().SetScale(v); err != nil {
			return nil, err
		}
		return tengo.TrueValue, nil
	},
	"add_force": func(e *ecs.Entity, args ...tengo.Object) (tengo.Object, error) {
		v, err := vec2Args("add_force", args)
		if err != nil {
			return nil, err
		}
		rb, ok := ecs.Get[*physics.RigidBody](e)
		if !ok {
			return tengo.FalseValue, nil
		}
		rb.AddForce(v)
		return tengo.TrueValue, nil
	},
	"set_velocity": func(e *ecs.Entity, args ...tengo.Object) (tengo.Object, error) {
		v, err := vec2Args("set_velocity", args)
		if err != nil {
			return nil, err
		}
		rb, ok := ecs.Get[*physics.RigidBody](e)
		if !ok {
			return tengo.FalseValue, nil
		}
		rb.SetVelocity(v)
		return tengo.TrueValue, nil
	},
	"set_active": func(e *ecs.Entity, args ...tengo.Object) (tengo.Object, error) {
		if len(args) < 1 {
			return nil, tengo.ErrWrongNumArguments
		}
		e.SetActive(!args[0].IsFalsy())
		return tengo.TrueValue, nil
	},
	"destroy": func(e *ecs.Entity, _ ...tengo.Object) (tengo.Object, error) {
		e.Destroy()
		return tengo.TrueValue, nil
	},
}

// buildEngine exposes the behaviour's entity to the script. Functions are
// no-ops returning false once the entity is gone.
func buildEngine(b *ecs.Behaviour) *tengo.ImmutableMap {
	values := make(map[string]tengo.Object, len(engineFuncs)+1)
	for name, fn := range engineFuncs {
		values[name] = &tengo.UserFunction{Name: name, Value: func(args ...tengo.Object) (tengo.Object, error) {
			e := b.Entity()
			if e == nil {
				return tengo.FalseValue, nil
			}
			return fn(e, args...)
		}}
	}
	values["log"] = &tengo.UserFunction{Name: "log", Value: func(args ...tengo.Object) (tengo.Object, error) {
		parts := make([]string, 0, len(args))
		for _, a := range args {
			parts = append(parts, objectAsString(a))
		}
		logger := zap.NewNop()
		if s := b.Scene(); s != nil {
			logger = s.Logger()
		}
		logger.Info("script log",
			zap.String("behaviour", b.Name()),
			zap.String("message", strings.Join(parts, " ")))
		return tengo.UndefinedValue, nil
	}}
	return &tengo.ImmutableMap{Value: values}
}

func vec2Args(fn string, args []tengo.Object) (mgl64.Vec2, error) {
	x, err := floatArg(fn, args, 0)
	if err != nil {
		return mgl64.Vec2{}, err
	}
	y, err := floatArg(fn, args, 1)
	if err != nil {
		return mgl64.Vec2{}, err
	}
	return mgl64.Vec2{x, y}, nil
}

func floatArg(fn string, args []tengo.Object, i int) (float64, error) {
	if i >= len(args) {
		return 0, tengo.ErrWrongNumArguments
	}
	v, ok := tengo.ToFloat64(args[i])
	if !ok {
		return 0, tengo.ErrInvalidArgumentType{
			Name:     fmt.Sprintf("%s argument %d", fn, i+1),
			Expected: "float(compatible)",
			Found:    args[i].TypeName(),
		}
	}
	return v, nil
}

func vec2Object(x, y float64) *tengo.Array {
	return &tengo.Array{Value: []tengo.Object{&tengo.Float{Value: x}, &tengo.Float{Value: y}}}
}

func boolObject(v bool) tengo.Object {
	if v {
		return tengo.TrueValue
	}
	return tengo.FalseValue
}

func objectAsString(obj tengo.Object) string {
	if obj == nil {
		return ""
	}
	switch v := obj.(type) {
	case *tengo.String:
		return v.Value
	default:
		return strings.Trim(v.String(), "\"")
	}
}

func objectToAny(obj tengo.Object) any {
	if obj == nil {
		return nil
	}
	switch v := obj.(type) {
	case *tengo.String:
		return v.Value
	case *tengo.Int:
		return int(v.Value)
	case *tengo.Float:
		return v.Value
	case *tengo.Bool:
		return !v.IsFalsy()
	case *tengo.Array:
		out := make([]any, 0, len(v.Value))
		for _, item := range v.Value {
			out = append(out, objectToAny(item))
		}
		return out
	case *tengo.Map:
		out := make(map[string]any, len(v.Value))
		for k, item := range v.Value {
			out[k] = objectToAny(item)
		}
		return out
	case *tengo.ImmutableMap:
		out := make(map[string]any, len(v.Value))
		for k, item := range v.Value {
			out[k] = objectToAny(item)
		}
		return out
	case *tengo.Undefined:
		return nil
	default:
		return v.String()
	}
}
