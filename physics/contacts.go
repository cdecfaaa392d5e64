package physics

import (
	"github.com/go-gl/mathgl/mgl64"
	"github.com/jakecoffman/cp"
	"github.com/milk9111/scenegraph/ecs"
)

// pairKey orders a touching pair by collider id.
type pairKey struct {
	a, b ecs.ComponentID
}

type contact struct {
	a, b   Collider
	sensor bool
	points []mgl64.Vec2
	// normal points from a to b.
	normal mgl64.Vec2
}

// record is called from inside Step while the space is locked.
func (w *World) record(a, b Collider, set cp.ContactPointSet, sensor bool) {
	normal := fromVector(set.Normal)
	if a.ID() > b.ID() {
		a, b = b, a
		normal = normal.Mul(-1)
	}
	points := make([]mgl64.Vec2, 0, set.Count)
	for i := 0; i < set.Count; i++ {
		p := set.Points[i]
		points = append(points, fromVector(p.PointA.Lerp(p.PointB, 0.5)))
	}
	w.touching[pairKey{a.ID(), b.ID()}] = &contact{
		a:      a,
		b:      b,
		sensor: sensor,
		points: points,
		normal: normal,
	}
}

// dispatchContacts diffs this frame's touching pairs against the previous
// frame and queues enter, active and exit events on the scene.
func (w *World) dispatchContacts(s *ecs.Scene) {
	for _, key := range sortedKeys(w.touching) {
		cur := w.touching[key]
		phase := ecs.ContactEnter
		if _, ok := w.previous[key]; ok {
			phase = ecs.ContactActive
		}
		s.QueueContact(phase, cur.sensor, cur.a, cur.b, cur.points, cur.normal)
	}
	for _, key := range sortedKeys(w.previous) {
		if _, ok := w.touching[key]; ok {
			continue
		}
		prev := w.previous[key]
		s.QueueContact(ecs.ContactExit, prev.sensor, prev.a, prev.b, nil, prev.normal)
	}
	w.previous, w.touching = w.touching, w.previous
	clear(w.touching)
}

// Touching reports whether the two colliders touched during the last frame.
func (w *World) Touching(a, b Collider) bool {
	if w == nil || a == nil || b == nil {
		return false
	}
	key := pairKey{a.ID(), b.ID()}
	if key.a > key.b {
		key.a, key.b = key.b, key.a
	}
	_, ok := w.previous[key]
	return ok
}

// ContactPoints returns the contact points of every pair touching during the
// last frame.
func (w *World) ContactPoints() []mgl64.Vec2 {
	if w == nil {
		return nil
	}
	var out []mgl64.Vec2
	for _, key := range sortedKeys(w.previous) {
		out = append(out, w.previous[key].points...)
	}
	return out
}
