package ecs

import (
	"fmt"

	"github.com/go-gl/mathgl/mgl64"
)

// EventKind enumerates the behaviour lifecycle surface.
type EventKind uint8

const (
	EventAwake EventKind = iota + 1
	EventStart
	EventUpdate
	EventCollisionEnter
	EventCollisionActive
	EventCollisionExit
	EventTriggerEnter
	EventTriggerActive
	EventTriggerExit
	EventEnable
	EventDisable
	EventDestroy
)

var eventNames = map[EventKind]string{
	EventAwake:           "awake",
	EventStart:           "start",
	EventUpdate:          "update",
	EventCollisionEnter:  "collisionenter",
	EventCollisionActive: "collisionactive",
	EventCollisionExit:   "collisionexit",
	EventTriggerEnter:    "triggerenter",
	EventTriggerActive:   "triggeractive",
	EventTriggerExit:     "triggerexit",
	EventEnable:          "enable",
	EventDisable:         "disable",
	EventDestroy:         "destroy",
}

func (k EventKind) String() string {
	if s, ok := eventNames[k]; ok {
		return s
	}
	return fmt.Sprintf("event(%d)", uint8(k))
}

// IsContact reports whether k carries a Contact.
func (k EventKind) IsContact() bool {
	return k >= EventCollisionEnter && k <= EventTriggerExit
}

// ContactPhase is the enter/active/exit stage of a touching pair.
type ContactPhase uint8

const (
	ContactEnter ContactPhase = iota
	ContactActive
	ContactExit
)

// ContactEvent maps a phase to the collision or trigger event kind.
func ContactEvent(phase ContactPhase, sensor bool) EventKind {
	base := EventCollisionEnter
	if sensor {
		base = EventTriggerEnter
	}
	return base + EventKind(phase)
}

// Contact describes one side of a touching collider pair.
type Contact struct {
	Self        Component
	Other       Component
	SelfEntity  EntityID
	OtherEntity EntityID
	Points      []mgl64.Vec2
	// Normal points from Self towards Other.
	Normal mgl64.Vec2
	Sensor bool
}

// Event is delivered to behaviour scripts.
type Event struct {
	Kind    EventKind
	DT      float64
	Contact *Contact
}

type queuedEvent struct {
	target ComponentID
	event  Event
}

// EventQueue is a simple FIFO queue.
type EventQueue struct {
	items []queuedEvent
}

func (q *EventQueue) push(target ComponentID, evt Event) {
	if q == nil {
		return
	}
	q.items = append(q.items, queuedEvent{target: target, event: evt})
}

// drain returns all events and clears the queue.
func (q *EventQueue) drain() []queuedEvent {
	if q == nil || len(q.items) == 0 {
		return nil
	}
	out := q.items
	q.items = nil
	return out
}

func (q *EventQueue) Len() int {
	if q == nil {
		return 0
	}
	return len(q.items)
}
