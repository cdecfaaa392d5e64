package script

import (
	"github.com/go-gl/mathgl/mgl64"
	"github.com/milk9111/scenegraph/ecs"
	"github.com/tanema/gween"
	"github.com/tanema/gween/ease"
)

var easings = map[string]ease.TweenFunc{
	"linear":       ease.Linear,
	"in_quad":      ease.InQuad,
	"out_quad":     ease.OutQuad,
	"in_out_quad":  ease.InOutQuad,
	"in_cubic":     ease.InCubic,
	"out_cubic":    ease.OutCubic,
	"in_out_cubic": ease.InOutCubic,
	"in_sine":      ease.InSine,
	"out_sine":     ease.OutSine,
	"in_out_sine":  ease.InOutSine,
	"out_bounce":   ease.OutBounce,
	"out_elastic":  ease.OutElastic,
}

// Easing looks up an easing function by its snake_case name.
func Easing(name string) (ease.TweenFunc, bool) {
	fn, ok := easings[name]
	return fn, ok
}

// Tween moves its entity's local position from where it is on start to a
// target. With Yoyo set it travels back and forth forever.
type Tween struct {
	To       mgl64.Vec2
	Duration float32
	Easing   ease.TweenFunc
	Yoyo     bool

	from   mgl64.Vec2
	tweens [2]*gween.Tween
	done   bool
}

func NewTween(to mgl64.Vec2, duration float32, fn ease.TweenFunc) *Tween {
	return &Tween{To: to, Duration: duration, Easing: fn}
}

// Done reports whether a non-yoyo tween reached its target.
func (tw *Tween) Done() bool { return tw.done }

func (tw *Tween) HandleEvent(b *ecs.Behaviour, ev ecs.Event) error {
	e := b.Entity()
	if e == nil {
		return nil
	}
	switch ev.Kind {
	case ecs.EventStart:
		tw.from = e.Transform().Position()
		tw.reset(tw.from, tw.To)
	case ecs.EventUpdate:
		if tw.done || tw.tweens[0] == nil {
			return nil
		}
		x, finishedX := tw.tweens[0].Update(float32(ev.DT))
		y, finishedY := tw.tweens[1].Update(float32(ev.DT))
		e.Transform().SetPosition(mgl64.Vec2{float64(x), float64(y)})
		if finishedX && finishedY {
			if !tw.Yoyo {
				tw.done = true
				return nil
			}
			tw.from, tw.To = tw.To, tw.from
			tw.reset(tw.from, tw.To)
		}
	}
	return nil
}

func (tw *Tween) reset(from, to mgl64.Vec2) {
	fn := tw.Easing
	if fn == nil {
		fn = ease.Linear
	}
	tw.tweens[0] = gween.New(float32(from[0]), float32(to[0]), tw.Duration, fn)
	tw.tweens[1] = gween.New(float32(from[1]), float32(to[1]), tw.Duration, fn)
	tw.done = false
}
