package physics

import (
	"math"
	"testing"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRigidBodyFallsUnderGravity(t *testing.T) {
	s, _, _ := newTestScene(t, DefaultConfig())
	e := entityAt(t, s, "crate", nil, mgl64.Vec2{0, 0})
	rb := NewRigidBody()
	require.NoError(t, e.AddComponent(rb))
	require.NoError(t, e.AddComponent(NewBoxCollider(10, 10)))

	for i := 0; i < 10; i++ {
		require.NoError(t, s.Update(1.0/60))
	}

	pos := e.Transform().Position()
	assert.Greater(t, pos.Y(), 0.0)
	assert.InDelta(t, 0, pos.X(), 1e-9)
	assert.InDelta(t, 0, e.Transform().Rotation(), 1e-9)
	assert.Greater(t, rb.Velocity().Y(), 0.0)
}

func TestRigidBodyGravityScale(t *testing.T) {
	s, _, _ := newTestScene(t, DefaultConfig())
	e := entityAt(t, s, "balloon", nil, mgl64.Vec2{5, 5})
	require.NoError(t, e.AddComponent(NewRigidBody(WithGravityScale(0))))

	for i := 0; i < 5; i++ {
		require.NoError(t, s.Update(1.0/60))
	}
	assert.Equal(t, mgl64.Vec2{5, 5}, e.Transform().Position())
}

func TestRigidBodyMass(t *testing.T) {
	tests := []struct {
		name      string
		opts      []RigidBodyOption
		collider  bool
		wantMass  float64
		infMoment bool
	}{
		{name: "from density", collider: true, wantMass: 100},
		{name: "override", opts: []RigidBodyOption{WithMass(5)}, collider: true, wantMass: 5},
		{name: "no shapes", wantMass: 1},
		{name: "frozen rotation", opts: []RigidBodyOption{WithFreezeRotation()}, collider: true, wantMass: 100, infMoment: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, _, _ := newTestScene(t, zeroGravity())
			e := entityAt(t, s, "e", nil, mgl64.Vec2{})
			rb := NewRigidBody(tt.opts...)
			require.NoError(t, e.AddComponent(rb))
			if tt.collider {
				require.NoError(t, e.AddComponent(NewBoxCollider(10, 10)))
			}

			assert.InDelta(t, tt.wantMass, rb.Mass(), 1e-9)
			moment := rb.Body().Moment()
			if tt.infMoment {
				assert.True(t, math.IsInf(moment, 1))
			} else {
				assert.Greater(t, moment, 0.0)
				assert.False(t, math.IsInf(moment, 0))
			}
		})
	}
}

func TestRigidBodyForces(t *testing.T) {
	s, _, _ := newTestScene(t, zeroGravity())
	e := entityAt(t, s, "e", nil, mgl64.Vec2{})
	rb := NewRigidBody()
	require.NoError(t, e.AddComponent(rb))
	require.NoError(t, e.AddComponent(NewBoxCollider(1, 1)))
	require.InDelta(t, 1, rb.Mass(), 1e-9)

	rb.AddForce(mgl64.Vec2{600, 0})
	require.NoError(t, s.Update(1.0/60))
	assert.InDelta(t, 10, rb.Velocity().X(), 1e-9)

	// Forces last one frame.
	require.NoError(t, s.Update(1.0/60))
	assert.InDelta(t, 10, rb.Velocity().X(), 1e-9)

	rb.ApplyImpulse(mgl64.Vec2{-10, 0})
	assert.InDelta(t, 0, rb.Velocity().X(), 1e-9)
}

func TestFrozenBodyStaysPut(t *testing.T) {
	s, _, _ := newTestScene(t, DefaultConfig())
	e := entityAt(t, s, "pinned", nil, mgl64.Vec2{3, 4})
	rb := NewRigidBody(WithFreezePosition(), WithFreezeRotation())
	require.NoError(t, e.AddComponent(rb))
	require.NoError(t, e.AddComponent(NewCircleCollider(2)))

	rb.AddTorque(100)
	for i := 0; i < 5; i++ {
		require.NoError(t, s.Update(1.0/60))
	}
	assert.InDelta(t, 3, e.Transform().Position().X(), 1e-9)
	assert.InDelta(t, 4, e.Transform().Position().Y(), 1e-9)
	assert.Zero(t, rb.AngularVelocity())
}

func TestKinematicWriteBackIntoParentSpace(t *testing.T) {
	s, _, _ := newTestScene(t, zeroGravity())
	parent := entityAt(t, s, "platform", nil, mgl64.Vec2{100, 0})
	parent.Transform().SetRotation(math.Pi / 2)
	child := entityAt(t, s, "cart", parent, mgl64.Vec2{})
	rb := NewRigidBody(WithKinematic())
	require.NoError(t, child.AddComponent(rb))
	require.NoError(t, child.AddComponent(NewBoxCollider(2, 2)))
	assert.True(t, rb.Kinematic())

	rb.SetVelocity(mgl64.Vec2{60, 0})
	require.NoError(t, s.Update(1.0/60))

	g, err := child.Transform().Global()
	require.NoError(t, err)
	assert.InDelta(t, 101, g.Position.X(), 1e-9)
	assert.InDelta(t, 0, g.Position.Y(), 1e-9)
	assert.InDelta(t, 0, child.Transform().Position().X(), 1e-9)
	assert.InDelta(t, -1, child.Transform().Position().Y(), 1e-9)
}

func TestMovedEntityTeleportsBody(t *testing.T) {
	s, _, _ := newTestScene(t, zeroGravity())
	e := entityAt(t, s, "e", nil, mgl64.Vec2{})
	rb := NewRigidBody()
	require.NoError(t, e.AddComponent(rb))
	require.NoError(t, e.AddComponent(NewBoxCollider(2, 2)))
	require.NoError(t, s.Update(1.0/60))

	e.Transform().SetPosition(mgl64.Vec2{50, 50})
	assert.True(t, rb.poseDirty)
	require.NoError(t, s.Update(1.0/60))

	assert.False(t, rb.poseDirty)
	assert.InDelta(t, 50, rb.Body().Position().X, 1e-9)
	assert.InDelta(t, 50, rb.Body().Position().Y, 1e-9)
	assert.InDelta(t, 50, e.Transform().Position().X(), 1e-9)
}
