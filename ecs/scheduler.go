package ecs

import (
	"errors"

	"go.uber.org/zap"
)

// System runs once per frame after behaviour updates.
type System interface {
	Update(s *Scene, dt float64) error
}

type SystemFunc func(s *Scene, dt float64) error

func (f SystemFunc) Update(s *Scene, dt float64) error {
	return f(s, dt)
}

type Scheduler struct {
	systems []System
}

func (s *Scheduler) Add(system System) {
	if system == nil {
		return
	}
	s.systems = append(s.systems, system)
}

// Update runs every system in order. A failing system is logged and the
// remaining systems still run.
func (s *Scheduler) Update(scene *Scene, dt float64) error {
	var errs []error
	for _, system := range s.systems {
		if err := system.Update(scene, dt); err != nil {
			scene.Logger().Error("system update failed", zap.Error(err))
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (s *Scheduler) Systems() []System {
	systems := make([]System, 0, len(s.systems))
	return append(systems, s.systems...)
}
