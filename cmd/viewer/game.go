package main

import (
	"fmt"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/ebitenutil"
	"github.com/hajimehoshi/ebiten/v2/inpututil"
	"github.com/milk9111/scenegraph/assets"
	"github.com/milk9111/scenegraph/config"
	"github.com/milk9111/scenegraph/ecs"
	"github.com/milk9111/scenegraph/prefabs"
	"github.com/milk9111/scenegraph/render"
	"go.uber.org/zap"
	"golang.org/x/image/colornames"
)

// Game drives a scene from ebiten's loop. F1 toggles the collider overlay,
// P pauses, N steps one frame while paused and R rebuilds the scene.
type Game struct {
	cfg    *config.Config
	logger *zap.Logger
	scene  *ecs.Scene
	drawer *render.Drawer
	paused bool
	step   bool
}

func NewGame(cfg *config.Config, logger *zap.Logger) (*Game, error) {
	g := &Game{
		cfg:    cfg,
		logger: logger,
		drawer: render.NewDrawer(),
	}
	g.drawer.Colliders = cfg.Window.Debug
	s, err := g.load()
	if err != nil {
		return nil, err
	}
	g.scene = s
	return g, nil
}

func (g *Game) load() (*ecs.Scene, error) {
	spec, err := prefabs.LoadScene(g.cfg.Scene)
	if err != nil {
		return nil, err
	}
	s, err := prefabs.Instantiate(spec, prefabs.Options{
		Logger:        g.logger,
		Physics:       g.cfg.Physics,
		ScriptTimeout: g.cfg.Script.Timeout,
		Images:        assets.LoadImage,
	})
	if err != nil {
		return nil, err
	}
	if err := s.Start(); err != nil {
		s.Unload()
		return nil, err
	}
	return s, nil
}

func (g *Game) Update() error {
	switch {
	case inpututil.IsKeyJustPressed(ebiten.KeyF1):
		g.drawer.Colliders = !g.drawer.Colliders
	case inpututil.IsKeyJustPressed(ebiten.KeyP):
		g.paused = !g.paused
	case inpututil.IsKeyJustPressed(ebiten.KeyN):
		g.step = true
	case inpututil.IsKeyJustPressed(ebiten.KeyR):
		s, err := g.load()
		if err != nil {
			g.logger.Warn("reload failed", zap.Error(err))
			break
		}
		g.scene.Unload()
		g.scene = s
	}

	if g.paused && !g.step {
		return nil
	}
	g.step = false
	if err := g.scene.Update(1 / float64(ebiten.TPS())); err != nil {
		g.logger.Warn("frame failed", zap.Uint64("frame", g.scene.Frame()), zap.Error(err))
	}
	return nil
}

func (g *Game) Draw(screen *ebiten.Image) {
	screen.Fill(colornames.Midnightblue)

	cam := render.ActiveCamera(g.scene)
	instances, err := render.Collect(g.scene)
	if err != nil {
		g.logger.Debug("collect failed", zap.Error(err))
	}
	g.drawer.Draw(screen, cam, instances)
	if g.drawer.Colliders {
		g.drawer.DrawColliders(screen, cam, g.scene)
	}

	status := ""
	if g.paused {
		status = "  [paused]"
	}
	mx, my := ebiten.CursorPosition()
	cursor := cam.ScreenToWorld(mgl64.Vec2{float64(mx), float64(my)})
	ebitenutil.DebugPrint(screen, fmt.Sprintf("FPS: %.1f  frame: %d  entities: %d  cursor: %.0f,%.0f%s",
		ebiten.ActualFPS(), g.scene.Frame(), g.scene.EntityCount(), cursor.X(), cursor.Y(), status))
}

func (g *Game) Layout(outsideWidth, outsideHeight int) (int, int) {
	return g.cfg.Window.Width, g.cfg.Window.Height
}
