package main

import (
	"context"
	"flag"
	"log"
	"os"
	"path/filepath"

	"github.com/milk9111/pistage/engine"
	"github.com/milk9111/pistage/prefabs"
)

func main() {
	debug := flag.Bool("debug", false, "draw physics outlines and counters (toggle with F3)")
	sceneFile := flag.String("scene", "demo.yaml", "scene file in prefabs/ (embedded copy used when missing on disk)")
	watch := flag.Bool("watch", false, "reload the scene when files in prefabs/ change")
	headless := flag.Int("headless", 0, "run this many ticks without a window and exit")
	flag.Parse()

	cfg := engine.DefaultConfig()
	cfg.Debug = *debug
	cfg.Title = "pistage - " + *sceneFile

	demo, err := NewDemo(cfg, *sceneFile)
	if err != nil {
		log.Fatal(err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if *headless > 0 {
		if err := demo.engine.RunHeadless(ctx, *headless); err != nil {
			log.Fatal(err)
		}
		for i, a := range demo.engine.Scene().MainLayer().Actors() {
			log.Printf("actor %d %q at %v", i, a.Name(), a.Position())
		}
		return
	}

	if *watch {
		dirs := []string{prefabs.Dir}
		if info, err := os.Stat(filepath.Join(prefabs.Dir, "scripts")); err == nil && info.IsDir() {
			dirs = append(dirs, filepath.Join(prefabs.Dir, "scripts"))
		}
		if err := demo.Watch(ctx, dirs...); err != nil {
			log.Printf("watch disabled: %v", err)
		}
	}

	if err := demo.engine.RunGame(demo); err != nil {
		log.Fatal(err)
	}
}
