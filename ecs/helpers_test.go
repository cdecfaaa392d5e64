package ecs

import (
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

type testBody struct {
	Base
}

func (*testBody) Kind() Kind { return KindRigidBody }

type testListener struct {
	Base
}

func (*testListener) Kind() Kind { return KindAudioListener }

type testSprite struct {
	Base
}

func (*testSprite) Kind() Kind { return KindSprite }

type testPrimitive struct {
	Base
}

func (*testPrimitive) Kind() Kind { return KindPrimitive }

// hookLog records hook calls made on a collider-kind component.
type hookLog struct {
	Base
	hierarchy  int
	transforms []TransformChange
	enables    int
	disables   int
	destroys   int
}

func (*hookLog) Kind() Kind { return KindBoxCollider }

func (p *hookLog) OnHierarchyChanged() { p.hierarchy++ }
func (p *hookLog) OnTransformChanged(ch TransformChange) { p.transforms = append(p.transforms, ch) }
func (p *hookLog) OnEnable() { p.enables++ }
func (p *hookLog) OnDisable() { p.disables++ }
func (p *hookLog) OnDestroy() { p.destroys++ }

type recorder struct {
	events []EventKind
	fail   map[EventKind]error
	panics map[EventKind]bool
	on     map[EventKind]func(b *Behaviour, ev Event)
}

func (r *recorder) HandleEvent(b *Behaviour, ev Event) error {
	r.events = append(r.events, ev.Kind)
	if fn := r.on[ev.Kind]; fn != nil {
		fn(b, ev)
	}
	if r.panics[ev.Kind] {
		panic("boom")
	}
	return r.fail[ev.Kind]
}

func (r *recorder) count(kind EventKind) int {
	n := 0
	for _, k := range r.events {
		if k == kind {
			n++
		}
	}
	return n
}

func newLoadedScene(t *testing.T) (*Scene, *observer.ObservedLogs) {
	t.Helper()
	core, logs := observer.New(zapcore.DebugLevel)
	s := NewScene(WithName("test"), WithLogger(zap.New(core)))
	require.NoError(t, s.Load())
	return s, logs
}

func newRunningScene(t *testing.T) (*Scene, *observer.ObservedLogs) {
	t.Helper()
	s, logs := newLoadedScene(t)
	require.NoError(t, s.Start())
	return s, logs
}

func mustEntity(t *testing.T, s *Scene, name string, parent *Entity) *Entity {
	t.Helper()
	e, err := s.NewEntity(name)
	require.NoError(t, err)
	if parent != nil {
		require.NoError(t, e.SetParent(parent))
	}
	return e
}
