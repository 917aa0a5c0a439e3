package engine

import (
	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/inpututil"
	"github.com/milk9111/pistage/stage"
)

var mouseButtons = []ebiten.MouseButton{
	ebiten.MouseButtonLeft,
	ebiten.MouseButtonRight,
	ebiten.MouseButtonMiddle,
}

// Input polls ebiten once per update and posts what changed to a scene.
type Input struct {
	keys []ebiten.Key

	cursorX, cursorY int
	hasCursor        bool
}

func NewInput() *Input {
	return &Input{}
}

// Poll queues key, mouse button, cursor and wheel changes on s in that
// order.
func (i *Input) Poll(s *stage.Scene) {
	if s == nil {
		return
	}

	i.keys = inpututil.AppendJustPressedKeys(i.keys[:0])
	for _, k := range i.keys {
		s.Post(stage.KeyEvent{Key: k, Pressed: true})
	}
	i.keys = inpututil.AppendJustReleasedKeys(i.keys[:0])
	for _, k := range i.keys {
		s.Post(stage.KeyEvent{Key: k, Pressed: false})
	}

	mx, my := ebiten.CursorPosition()
	x, y := float64(mx), float64(my)
	for _, b := range mouseButtons {
		if inpututil.IsMouseButtonJustPressed(b) {
			s.Post(stage.MouseButtonEvent{Button: b, Pressed: true, X: x, Y: y})
		}
		if inpututil.IsMouseButtonJustReleased(b) {
			s.Post(stage.MouseButtonEvent{Button: b, Pressed: false, X: x, Y: y})
		}
	}

	if !i.hasCursor || mx != i.cursorX || my != i.cursorY {
		if i.hasCursor {
			s.Post(stage.MouseMoveEvent{X: x, Y: y})
		}
		i.cursorX, i.cursorY = mx, my
		i.hasCursor = true
	}

	if dx, dy := ebiten.Wheel(); dx != 0 || dy != 0 {
		s.Post(stage.ScrollEvent{DX: dx, DY: dy, X: x, Y: y})
	}
}
