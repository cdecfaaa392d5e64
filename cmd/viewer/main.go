// Command viewer opens a window on a scene file.
package main

import (
	"flag"
	"log"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/milk9111/scenegraph/config"
)

func main() {
	configPath := flag.String("config", "", "engine config yaml; embedded defaults when empty")
	sceneName := flag.String("scene", "", "scene file (prefabs/ name or path); config scene when empty")
	debug := flag.Bool("debug", false, "draw collider outlines and contacts")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatal(err)
	}
	if *sceneName != "" {
		cfg.Scene = *sceneName
	}
	if *debug {
		cfg.Window.Debug = true
	}

	logger, err := cfg.Logger()
	if err != nil {
		log.Fatal(err)
	}
	defer func() { _ = logger.Sync() }()

	game, err := NewGame(cfg, logger)
	if err != nil {
		log.Fatal(err)
	}

	ebiten.SetWindowResizingMode(ebiten.WindowResizingModeEnabled)
	ebiten.SetWindowSize(cfg.Window.Width, cfg.Window.Height)
	ebiten.SetWindowTitle(cfg.Window.Title)

	if err := ebiten.RunGame(game); err != nil {
		log.Fatal(err)
	}
}
