package ecs

import "fmt"

// Kind tags every component type. The set is closed; aggregate kinds
// resolve to a fixed list of concrete members.
type Kind uint8

const (
	KindTransform Kind = iota + 1
	KindRigidBody
	KindBoxCollider
	KindCircleCollider
	KindPolygonCollider
	KindBehaviour
	KindCamera
	KindAudioListener
	KindSprite
	KindPrimitive

	// KindComponent matches every concrete kind.
	KindComponent
	// KindRenderable matches Sprite then Primitive.
	KindRenderable
	// KindCollider matches Box, Circle then Polygon colliders.
	KindCollider

	kindCount
)

var kindNames = [...]string{
	KindTransform:       "Transform",
	KindRigidBody:       "RigidBody",
	KindBoxCollider:     "BoxCollider",
	KindCircleCollider:  "CircleCollider",
	KindPolygonCollider: "PolygonCollider",
	KindBehaviour:       "Behaviour",
	KindCamera:          "Camera",
	KindAudioListener:   "AudioListener",
	KindSprite:          "Sprite",
	KindPrimitive:       "Primitive",
	KindComponent:       "Component",
	KindRenderable:      "Renderable",
	KindCollider:        "Collider",
}

var concreteKinds = []Kind{
	KindTransform,
	KindRigidBody,
	KindBoxCollider,
	KindCircleCollider,
	KindPolygonCollider,
	KindBehaviour,
	KindCamera,
	KindAudioListener,
	KindSprite,
	KindPrimitive,
}

var aggregateMembers = map[Kind][]Kind{
	KindComponent:  concreteKinds,
	KindRenderable: {KindSprite, KindPrimitive},
	KindCollider:   {KindBoxCollider, KindCircleCollider, KindPolygonCollider},
}

func (k Kind) String() string {
	if k > 0 && k < kindCount {
		return kindNames[k]
	}
	return fmt.Sprintf("Kind(%d)", uint8(k))
}

func (k Kind) Valid() bool {
	return k > 0 && k < kindCount
}

func (k Kind) IsAggregate() bool {
	_, ok := aggregateMembers[k]
	return ok
}

// Members lists the concrete kinds k stands for, in resolution order.
func (k Kind) Members() []Kind {
	if m, ok := aggregateMembers[k]; ok {
		return m
	}
	if k.Valid() {
		return []Kind{k}
	}
	return nil
}

// Matches reports whether concrete kind c is k or a member of k.
func (k Kind) Matches(c Kind) bool {
	if k == c {
		return true
	}
	for _, m := range aggregateMembers[k] {
		if m == c {
			return true
		}
	}
	return false
}

func (k Kind) singletonPerEntity() bool {
	switch k {
	case KindTransform, KindRigidBody, KindAudioListener, KindCamera, KindSprite:
		return true
	}
	return false
}

func (k Kind) singletonPerScene() bool {
	return k == KindAudioListener
}

func (k Kind) deactivatable() bool {
	return k != KindTransform
}
