package telemetry

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/milk9111/scenegraph/ecs"
	"github.com/milk9111/scenegraph/physics"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSampleScene(t *testing.T) {
	s := ecs.NewScene()
	require.NoError(t, s.Load())
	physics.NewWorld(physics.Config{FixedStep: 0.5}, nil).Attach(s)
	require.NoError(t, s.Start())

	floor, err := s.NewEntity("floor")
	require.NoError(t, err)
	require.NoError(t, floor.AddComponent(physics.NewBoxCollider(10, 1)))
	crate, err := s.NewEntity("crate")
	require.NoError(t, err)
	crate.Transform().SetPosition(mgl64.Vec2{0, -50})
	require.NoError(t, crate.AddComponent(physics.NewRigidBody()))
	require.NoError(t, crate.AddComponent(physics.NewBoxCollider(1, 1)))
	_, err = s.NewEntity("doomed")
	require.NoError(t, err)

	var sm Sampler
	require.NoError(t, s.Update(1))
	st := sm.Sample(s, 1, 3*time.Millisecond)
	assert.Equal(t, FrameStats{
		Frame:        1,
		DT:           1,
		Entities:     3,
		Bodies:       1,
		StaticBodies: 1,
		Shapes:       2,
		Steps:        2,
		UpdateUS:     3000,
	}, st)

	s.Find("doomed").Destroy()
	require.NoError(t, s.Update(0.25))
	st = sm.Sample(s, 0.25, 0)
	assert.Equal(t, uint64(1), st.Destroyed)
	assert.Equal(t, 2, st.Entities)
	assert.Equal(t, 0, st.Steps)
}

func TestWriterHeaderOnce(t *testing.T) {
	var buf bytes.Buffer
	w := NewWriter(&buf)
	require.NoError(t, w.Write(FrameStats{Frame: 1, Entities: 2}))
	require.NoError(t, w.Write(FrameStats{Frame: 2, Entities: 3}, FrameStats{Frame: 3}))
	require.NoError(t, w.Write())

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 4)
	assert.Equal(t, "frame,dt,entities,bodies,static_bodies,shapes,contacts,steps,destroyed,pending_destroys,update_us", lines[0])
	assert.Equal(t, "1,0,2,0,0,0,0,0,0,0,0", lines[1])
	assert.True(t, strings.HasPrefix(lines[2], "2,0,3,"))
}
