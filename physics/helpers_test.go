package physics

import (
	"testing"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/jakecoffman/cp"
	"github.com/milk9111/scenegraph/ecs"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func newTestScene(t *testing.T, cfg Config) (*ecs.Scene, *World, *observer.ObservedLogs) {
	t.Helper()
	core, logs := observer.New(zapcore.DebugLevel)
	logger := zap.New(core)
	s := ecs.NewScene(ecs.WithName(t.Name()), ecs.WithLogger(logger))
	require.NoError(t, s.Load())
	w := NewWorld(cfg, logger)
	w.Attach(s)
	require.NoError(t, s.Start())
	return s, w, logs
}

func zeroGravity() Config {
	cfg := DefaultConfig()
	cfg.Gravity = mgl64.Vec2{}
	return cfg
}

func entityAt(t *testing.T, s *ecs.Scene, name string, parent *ecs.Entity, pos mgl64.Vec2) *ecs.Entity {
	t.Helper()
	e, err := s.NewEntity(name)
	require.NoError(t, err)
	if parent != nil {
		require.NoError(t, e.SetParent(parent))
	}
	e.Transform().SetPosition(pos)
	return e
}

func shapeCount(w *World, shape *cp.Shape) int {
	n := 0
	w.Space().EachShape(func(s *cp.Shape) {
		if s == shape {
			n++
		}
	})
	return n
}

type eventLog struct {
	kinds    []ecs.EventKind
	contacts []*ecs.Contact
}

func (l *eventLog) HandleEvent(_ *ecs.Behaviour, ev ecs.Event) error {
	if ev.Kind.IsContact() {
		l.kinds = append(l.kinds, ev.Kind)
		l.contacts = append(l.contacts, ev.Contact)
	}
	return nil
}

func (l *eventLog) count(kind ecs.EventKind) int {
	n := 0
	for _, k := range l.kinds {
		if k == kind {
			n++
		}
	}
	return n
}
