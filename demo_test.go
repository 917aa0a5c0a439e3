package main

import (
	"errors"
	"testing"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/milk9111/pistage/engine"
	"github.com/milk9111/pistage/prefabs"
	"github.com/milk9111/pistage/stage"
)

func TestDemoQuitWhilePaused(t *testing.T) {
	e, err := engine.New(engine.DefaultConfig(), stage.NewScene("test"))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	d := &Demo{engine: e}
	d.SetPaused(true)

	e.Stop()
	if err := d.Update(); !errors.Is(err, ebiten.Termination) {
		t.Fatalf("Update while paused after Stop err = %v, want ebiten.Termination", err)
	}
	if !d.Paused() {
		t.Fatalf("Paused = false, want true")
	}
}

func TestDemoReloadsOnRelevantChanges(t *testing.T) {
	d := &Demo{sceneFile: "demo.yaml"}
	tests := []struct {
		name  string
		batch []prefabs.Change
		want  bool
	}{
		{"own scene", []prefabs.Change{{Path: "prefabs/demo.yaml", Kind: prefabs.SceneFile}}, true},
		{"other scene", []prefabs.Change{{Path: "prefabs/level.yaml", Kind: prefabs.SceneFile}}, false},
		{"script", []prefabs.Change{{Path: "prefabs/scripts/roll.tengo", Kind: prefabs.ScriptFile}}, true},
		{"mixed", []prefabs.Change{
			{Path: "prefabs/level.yaml", Kind: prefabs.SceneFile},
			{Path: "prefabs/scripts/spin.tengo", Kind: prefabs.ScriptFile},
		}, true},
		{"empty", nil, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := d.affects(tt.batch); got != tt.want {
				t.Fatalf("affects = %v, want %v", got, tt.want)
			}
		})
	}
}
