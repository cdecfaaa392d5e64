package audio

import (
	"github.com/go-gl/mathgl/mgl64"
	"github.com/milk9111/scenegraph/ecs"
)

// Listener is the scene's single point of hearing. Sources are attenuated
// linearly with distance and fall silent beyond Range.
type Listener struct {
	ecs.Base
	Volume float64
	// Range of zero disables attenuation.
	Range float64
}

func NewListener(volume, rng float64) *Listener {
	return &Listener{Volume: volume, Range: rng}
}

func (l *Listener) Kind() ecs.Kind { return ecs.KindAudioListener }

// Position is the listener's global position.
func (l *Listener) Position() (mgl64.Vec2, error) {
	e := l.Entity()
	if e == nil {
		return mgl64.Vec2{}, ecs.ErrMissingScene
	}
	g, err := e.Transform().Global()
	if err != nil {
		return mgl64.Vec2{}, err
	}
	return g.Position, nil
}

// Gain returns the volume for a source at the given global position. An
// inactive listener hears nothing.
func (l *Listener) Gain(source mgl64.Vec2) float64 {
	if l == nil || !l.Active() {
		return 0
	}
	if l.Range <= 0 {
		return l.Volume
	}
	pos, err := l.Position()
	if err != nil {
		return 0
	}
	d := source.Sub(pos).Len()
	if d >= l.Range {
		return 0
	}
	return l.Volume * (1 - d/l.Range)
}

// Current returns the scene's listener, if any.
func Current(s *ecs.Scene) *Listener {
	ls := ecs.ComponentsOf[*Listener](s, ecs.KindAudioListener)
	if len(ls) == 0 {
		return nil
	}
	return ls[0]
}
