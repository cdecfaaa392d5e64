package ecs

import (
	"testing"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewEntityRequiresLoadedScene(t *testing.T) {
	var nilScene *Scene
	_, err := nilScene.NewEntity("a")
	assert.ErrorIs(t, err, ErrMissingScene)

	s := NewScene()
	_, err = s.NewEntity("a")
	assert.ErrorIs(t, err, ErrMissingScene)

	require.NoError(t, s.Load())
	e, err := s.NewEntity("a")
	require.NoError(t, err)
	assert.NotNil(t, e.Transform())
	assert.Equal(t, []*Entity{e}, s.Roots())

	s.Unload()
	assert.False(t, e.Alive())
	_, err = s.NewEntity("b")
	assert.ErrorIs(t, err, ErrMissingScene)
}

func TestSceneStateTransitions(t *testing.T) {
	s := NewScene()
	assert.Equal(t, SceneUnloaded, s.State())
	assert.ErrorIs(t, s.Update(0.016), ErrMissingScene)

	require.NoError(t, s.Load())
	assert.ErrorIs(t, s.Update(0.016), ErrSceneNotRunning)

	require.NoError(t, s.Start())
	assert.Equal(t, SceneRunning, s.State())
	require.NoError(t, s.Update(0.016))
	assert.Equal(t, uint64(1), s.Frame())
}

func TestDestroyIsDeferredUntilDrain(t *testing.T) {
	s, _ := newRunningScene(t)
	victim := mustEntity(t, s, "victim", nil)
	child := mustEntity(t, s, "child", victim)
	other := mustEntity(t, s, "other", nil)

	victimScript := &recorder{}
	require.NoError(t, victim.AddComponent(NewBehaviour("victim", victimScript)))
	victimCollider := &hookLog{}
	require.NoError(t, victim.AddComponent(victimCollider))
	otherCollider := &hookLog{}
	require.NoError(t, other.AddComponent(otherCollider))

	var seenDuringFrame bool
	killer := &recorder{on: map[EventKind]func(*Behaviour, Event){
		EventUpdate: func(b *Behaviour, ev Event) {
			victim.Destroy()
			victim.Destroy()
			seenDuringFrame = s.Entity(victim.ID()) == victim && victim.PendingDestroy()
		},
	}}
	require.NoError(t, other.AddComponent(NewBehaviour("killer", killer)))

	s.AddSystem(SystemFunc(func(s *Scene, dt float64) error {
		assert.NotNil(t, s.Entity(victim.ID()))
		s.QueueContact(ContactEnter, false, victimCollider, otherCollider, nil, mgl64.Vec2{1, 0})
		return nil
	}))

	require.NoError(t, s.Update(0.016))

	assert.True(t, seenDuringFrame)
	assert.Equal(t, 1, victimScript.count(EventCollisionEnter))
	assert.Equal(t, 1, victimScript.count(EventDestroy))
	assert.Equal(t, 1, victimCollider.destroys)
	assert.Nil(t, s.Entity(victim.ID()))
	assert.Nil(t, s.Entity(child.ID()))
	assert.False(t, victim.Alive())
	assert.Zero(t, s.PendingDestroyCount())
	assert.Equal(t, []*Entity{other}, s.Roots())
	assert.Nil(t, s.Component(victimCollider.ID()))
}

func TestRemovedComponentDrainsOnce(t *testing.T) {
	s, _ := newRunningScene(t)
	e := mustEntity(t, s, "e", nil)
	p := &hookLog{}
	require.NoError(t, e.AddComponent(p))

	require.NoError(t, e.RemoveComponent(p))
	assert.Equal(t, 1, p.disables)
	assert.True(t, p.PendingDestroy())
	assert.Nil(t, e.GetComponent(KindCollider))
	assert.NotNil(t, s.Component(p.ID()))

	e.Destroy()
	s.Flush()
	assert.Equal(t, 1, p.destroys)
	assert.Nil(t, s.Component(p.ID()))
}

func TestChildAddedAfterDestroyIsDestroyedToo(t *testing.T) {
	s, _ := newRunningScene(t)
	parent := mustEntity(t, s, "parent", nil)
	parent.Destroy()
	late := mustEntity(t, s, "late", parent)

	s.Flush()
	assert.False(t, parent.Alive())
	assert.False(t, late.Alive())
	assert.Zero(t, s.EntityCount())
}

func TestComponentsOfKindOrder(t *testing.T) {
	s, _ := newLoadedScene(t)
	a := mustEntity(t, s, "a", nil)
	b := mustEntity(t, s, "b", nil)
	p1 := &testPrimitive{}
	s1 := &testSprite{}
	p2 := &testPrimitive{}
	require.NoError(t, a.AddComponent(p1))
	require.NoError(t, b.AddComponent(s1))
	require.NoError(t, b.AddComponent(p2))

	got := s.ComponentsOfKind(KindRenderable)
	assert.Equal(t, []Component{s1, p1, p2}, got)
	assert.Len(t, s.ComponentsOfKind(KindTransform), 2)
	assert.Len(t, ComponentsOf[*testPrimitive](s, KindPrimitive), 2)
}

func TestSystemErrorsDoNotStopFrame(t *testing.T) {
	s, logs := newRunningScene(t)
	ran := 0
	s.AddSystem(SystemFunc(func(*Scene, float64) error { return assert.AnError }))
	s.AddSystem(SystemFunc(func(*Scene, float64) error { ran++; return nil }))

	err := s.Update(0.016)
	assert.ErrorIs(t, err, assert.AnError)
	assert.Equal(t, 1, ran)
	assert.Equal(t, 1, logs.FilterMessage("system update failed").Len())
}

func TestResources(t *testing.T) {
	s := NewScene()
	type gravity struct{ Y float64 }

	_, ok := Resource[*gravity](s)
	assert.False(t, ok)

	SetResource(s, &gravity{Y: -9.8})
	g, ok := Resource[*gravity](s)
	require.True(t, ok)
	assert.Equal(t, -9.8, g.Y)
}
