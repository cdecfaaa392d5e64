// Package telemetry samples per-frame scene statistics and writes them as
// CSV.
package telemetry

import (
	"fmt"
	"io"
	"time"

	"github.com/gocarina/gocsv"
	"github.com/milk9111/scenegraph/ecs"
	"github.com/milk9111/scenegraph/physics"
)

// FrameStats is one row of the frame statistics CSV.
type FrameStats struct {
	Frame        uint64  `csv:"frame"`
	DT           float64 `csv:"dt"`
	Entities     int     `csv:"entities"`
	Bodies       int     `csv:"bodies"`
	StaticBodies int     `csv:"static_bodies"`
	Shapes       int     `csv:"shapes"`
	Contacts     int     `csv:"contacts"`
	Steps        int     `csv:"steps"`
	Destroyed    uint64  `csv:"destroyed"`
	Pending      int     `csv:"pending_destroys"`
	UpdateUS     int64   `csv:"update_us"`
}

// Sampler turns scene state after each update into FrameStats.
type Sampler struct {
	lastDestroyed uint64
	lastSteps     int
}

// Sample reads s after an update that took elapsed wall time.
func (sm *Sampler) Sample(s *ecs.Scene, dt float64, elapsed time.Duration) FrameStats {
	st := FrameStats{
		Frame:    s.Frame(),
		DT:       dt,
		Entities: s.EntityCount(),
		Pending:  s.PendingDestroyCount(),
		UpdateUS: elapsed.Microseconds(),
	}
	destroyed := s.Destroyed()
	st.Destroyed = destroyed - sm.lastDestroyed
	sm.lastDestroyed = destroyed

	if w, ok := ecs.Resource[*physics.World](s); ok {
		ps := w.Stats()
		st.Bodies = ps.Bodies
		st.StaticBodies = ps.StaticBodies
		st.Shapes = ps.Shapes
		st.Contacts = ps.Contacts
		st.Steps = ps.Steps - sm.lastSteps
		sm.lastSteps = ps.Steps
	}
	return st
}

// Writer appends FrameStats rows to a CSV stream. The header is written with
// the first row.
type Writer struct {
	out           io.Writer
	headerWritten bool
}

func NewWriter(out io.Writer) *Writer {
	return &Writer{out: out}
}

func (w *Writer) Write(stats ...FrameStats) error {
	if w == nil || len(stats) == 0 {
		return nil
	}
	if !w.headerWritten {
		if err := gocsv.Marshal(stats, w.out); err != nil {
			return fmt.Errorf("writing frame stats: %w", err)
		}
		w.headerWritten = true
		return nil
	}
	if err := gocsv.MarshalWithoutHeaders(stats, w.out); err != nil {
		return fmt.Errorf("writing frame stats: %w", err)
	}
	return nil
}
