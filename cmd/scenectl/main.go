// Command scenectl runs a scene headless, optionally recording per-frame
// statistics and rebuilding the scene when its files change.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"

	"github.com/milk9111/scenegraph/prefabs"
)

func main() {
	var opts options
	flag.StringVar(&opts.configPath, "config", "", "engine config yaml; embedded defaults when empty")
	flag.StringVar(&opts.scene, "scene", "", "scene file (prefabs/ name or path); config scene when empty")
	flag.IntVar(&opts.frames, "frames", 600, "frames to simulate; 0 runs until interrupted")
	flag.Float64Var(&opts.dt, "dt", 1.0/60.0, "seconds per frame")
	flag.StringVar(&opts.statsPath, "stats", "", "write per-frame statistics CSV to this path")
	flag.BoolVar(&opts.watch, "watch", false, "rebuild the scene when scene or script files change")
	list := flag.Bool("list", false, "print the embedded scenes and exit")
	flag.Parse()

	if *list {
		for _, name := range prefabs.Scenes() {
			fmt.Println(name)
		}
		return
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := run(ctx, opts); err != nil {
		log.Fatal(err)
	}
}
