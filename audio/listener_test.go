package audio

import (
	"testing"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/milk9111/scenegraph/ecs"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestListenerIsSceneSingleton(t *testing.T) {
	s := ecs.NewScene()
	require.NoError(t, s.Load())
	a, err := s.NewEntity("a")
	require.NoError(t, err)
	b, err := s.NewEntity("b")
	require.NoError(t, err)

	l := NewListener(1, 0)
	require.NoError(t, a.AddComponent(l))
	assert.ErrorIs(t, b.AddComponent(NewListener(1, 0)), ecs.ErrDuplicateSingletonComponent)
	assert.Same(t, l, Current(s))
}

func TestListenerGain(t *testing.T) {
	s := ecs.NewScene()
	require.NoError(t, s.Load())
	parent, err := s.NewEntity("parent")
	require.NoError(t, err)
	parent.Transform().SetPosition(mgl64.Vec2{100, 0})
	e, err := s.NewEntity("ears")
	require.NoError(t, err)
	require.NoError(t, e.SetParent(parent))

	l := NewListener(0.8, 50)
	require.NoError(t, e.AddComponent(l))

	tests := []struct {
		name   string
		source mgl64.Vec2
		want   float64
	}{
		{"on top", mgl64.Vec2{100, 0}, 0.8},
		{"half way", mgl64.Vec2{125, 0}, 0.4},
		{"at range", mgl64.Vec2{100, 50}, 0},
		{"beyond", mgl64.Vec2{0, 0}, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, l.Gain(tt.source), 1e-9)
		})
	}

	l.Range = 0
	assert.InDelta(t, 0.8, l.Gain(mgl64.Vec2{1000, 0}), 1e-9)
	parent.SetActive(false)
	assert.Zero(t, l.Gain(mgl64.Vec2{100, 0}))
}
