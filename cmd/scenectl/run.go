package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"time"

	"github.com/milk9111/scenegraph/config"
	"github.com/milk9111/scenegraph/ecs"
	"github.com/milk9111/scenegraph/physics"
	"github.com/milk9111/scenegraph/prefabs"
	"github.com/milk9111/scenegraph/telemetry"
	"go.uber.org/zap"
)

type options struct {
	configPath string
	scene      string
	frames     int
	dt         float64
	statsPath  string
	watch      bool
}

type runner struct {
	cfg     *config.Config
	logger  *zap.Logger
	scene   string
	sampler telemetry.Sampler
	stats   *telemetry.Writer
}

func run(ctx context.Context, opts options) error {
	if opts.dt <= 0 {
		return fmt.Errorf("scenectl: dt must be positive, got %g", opts.dt)
	}
	cfg, err := config.Load(opts.configPath)
	if err != nil {
		return err
	}
	logger, err := cfg.Logger()
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	r := &runner{cfg: cfg, logger: logger, scene: opts.scene}
	if r.scene == "" {
		r.scene = cfg.Scene
	}

	if opts.statsPath != "" {
		f, err := os.Create(opts.statsPath)
		if err != nil {
			return fmt.Errorf("creating stats file: %w", err)
		}
		defer f.Close()
		r.stats = telemetry.NewWriter(f)
	}

	s, err := r.load()
	if err != nil {
		return err
	}
	defer func() { s.Unload() }()

	var changes <-chan string
	var pace <-chan time.Time
	if opts.watch {
		w, err := prefabs.NewWatcher(logger, r.watchDirs()...)
		if err != nil {
			return fmt.Errorf("watching scene files: %w", err)
		}
		defer w.Close()
		changes = w.Events
		ticker := time.NewTicker(time.Duration(opts.dt * float64(time.Second)))
		defer ticker.Stop()
		pace = ticker.C
	}

	for frame := 0; opts.frames <= 0 || frame < opts.frames; frame++ {
		select {
		case <-ctx.Done():
			logger.Info("interrupted", zap.Int("frame", frame))
			return nil
		case path, ok := <-changes:
			if !ok {
				changes = nil
				break
			}
			next, err := r.load()
			if err != nil {
				logger.Warn("reload failed, keeping current scene", zap.String("path", path), zap.Error(err))
				break
			}
			s.Unload()
			s = next
			logger.Info("scene reloaded", zap.String("path", path))
		default:
		}
		if pace != nil {
			select {
			case <-ctx.Done():
				return nil
			case <-pace:
			}
		}
		if err := r.step(s, opts.dt); err != nil {
			return err
		}
	}

	st := physicsStats(s)
	logger.Info("simulation finished",
		zap.Uint64("frames", s.Frame()),
		zap.Int("entities", s.EntityCount()),
		zap.Int("bodies", st.Bodies),
		zap.Int("contacts", st.Contacts),
	)
	return nil
}

func (r *runner) load() (*ecs.Scene, error) {
	spec, err := prefabs.LoadScene(r.scene)
	if err != nil {
		return nil, err
	}
	s, err := prefabs.Instantiate(spec, prefabs.Options{
		Logger:        r.logger,
		Physics:       r.cfg.Physics,
		ScriptTimeout: r.cfg.Script.Timeout,
	})
	if err != nil {
		return nil, err
	}
	if err := s.Start(); err != nil {
		s.Unload()
		return nil, err
	}
	r.sampler = telemetry.Sampler{}
	return s, nil
}

// step advances one frame. Frame errors are logged; only failing to write
// statistics stops the run.
func (r *runner) step(s *ecs.Scene, dt float64) error {
	start := time.Now()
	if err := s.Update(dt); err != nil {
		if errors.Is(err, ecs.ErrSceneNotRunning) {
			return err
		}
		r.logger.Warn("frame failed", zap.Uint64("frame", s.Frame()), zap.Error(err))
	}
	if r.stats == nil {
		return nil
	}
	return r.stats.Write(r.sampler.Sample(s, dt, time.Since(start)))
}

func (r *runner) watchDirs() []string {
	var dirs []string
	for _, dir := range []string{"prefabs", filepath.Join("prefabs", "scripts"), filepath.Dir(r.scene)} {
		dir = filepath.Clean(dir)
		if info, err := os.Stat(dir); err == nil && info.IsDir() && !slices.Contains(dirs, dir) {
			dirs = append(dirs, dir)
		}
	}
	return dirs
}

func physicsStats(s *ecs.Scene) physics.Stats {
	w, _ := ecs.Resource[*physics.World](s)
	return w.Stats()
}
