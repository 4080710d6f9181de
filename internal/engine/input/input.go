// Package input turns SDL2 events into viewer events and actions.
package input

import (
	"github.com/veandco/go-sdl2/sdl"
)

// EventType classifies a processed event.
type EventType int

const (
	EventNone EventType = iota
	EventQuit
	EventWindowResize
	EventKeyDown
	EventDrag
	EventZoom
	EventClick
)

// Event represents a processed input event.
type Event struct {
	Type   EventType
	Key    sdl.Scancode
	Width  int
	Height int
	DX, DY float32
	X, Y   float32
}

// Action is a viewer command bound to a key.
type Action int

const (
	ActionNone Action = iota
	ActionQuit
	ActionNextFrame
	ActionPreviousFrame
	ActionRestart
	ActionToggleInterpolation
	ActionToggleWireframe
	ActionTogglePause
	ActionFitCamera
	ActionToggleLighting
	ActionToggleBounds
	ActionScreenshot
)

var bindings = map[sdl.Scancode]Action{
	sdl.SCANCODE_ESCAPE: ActionQuit,
	sdl.SCANCODE_Q:      ActionQuit,
	sdl.SCANCODE_RIGHT:  ActionNextFrame,
	sdl.SCANCODE_LEFT:   ActionPreviousFrame,
	sdl.SCANCODE_R:      ActionRestart,
	sdl.SCANCODE_I:      ActionToggleInterpolation,
	sdl.SCANCODE_W:      ActionToggleWireframe,
	sdl.SCANCODE_SPACE:  ActionTogglePause,
	sdl.SCANCODE_F:      ActionFitCamera,
	sdl.SCANCODE_L:      ActionToggleLighting,
	sdl.SCANCODE_B:      ActionToggleBounds,
	sdl.SCANCODE_P:      ActionScreenshot,
}

// ActionFor returns the action bound to scancode.
func ActionFor(scancode sdl.Scancode) Action {
	return bindings[scancode]
}

// Input collects the events of one frame.
type Input struct {
	events   []Event
	dragging bool
}

// New creates a new input handler.
func New() *Input {
	return &Input{
		events: make([]Event, 0, 16),
	}
}

// Update polls SDL events and converts them to viewer events.
// Returns true if the viewer should quit.
func (i *Input) Update() bool {
	i.events = i.events[:0]
	quit := false
	for event := sdl.PollEvent(); event != nil; event = sdl.PollEvent() {
		if i.handle(event) {
			quit = true
		}
	}
	return quit
}

func (i *Input) handle(event sdl.Event) bool {
	switch e := event.(type) {
	case *sdl.QuitEvent:
		i.events = append(i.events, Event{Type: EventQuit})
		return true

	case *sdl.WindowEvent:
		if e.Event == sdl.WINDOWEVENT_RESIZED || e.Event == sdl.WINDOWEVENT_SIZE_CHANGED {
			i.events = append(i.events, Event{
				Type:   EventWindowResize,
				Width:  int(e.Data1),
				Height: int(e.Data2),
			})
		}

	case *sdl.KeyboardEvent:
		if e.Type == sdl.KEYDOWN && e.Repeat == 0 {
			i.events = append(i.events, Event{Type: EventKeyDown, Key: e.Keysym.Scancode})
			return ActionFor(e.Keysym.Scancode) == ActionQuit
		}

	case *sdl.MouseButtonEvent:
		if e.Button == sdl.BUTTON_LEFT || e.Button == sdl.BUTTON_RIGHT {
			i.dragging = e.State == sdl.PRESSED
		}
		if e.Button == sdl.BUTTON_LEFT && e.State == sdl.PRESSED {
			i.events = append(i.events, Event{Type: EventClick, X: float32(e.X), Y: float32(e.Y)})
		}

	case *sdl.MouseMotionEvent:
		if i.dragging {
			i.events = append(i.events, Event{Type: EventDrag, DX: float32(e.XRel), DY: float32(e.YRel)})
		}

	case *sdl.MouseWheelEvent:
		i.events = append(i.events, Event{Type: EventZoom, DY: float32(e.Y)})
	}
	return false
}

// Events returns the events from the last Update.
func (i *Input) Events() []Event {
	return i.events
}

// Actions returns the actions triggered by key presses in the last Update.
func (i *Input) Actions() []Action {
	var out []Action
	for _, e := range i.events {
		if e.Type != EventKeyDown {
			continue
		}
		if a := ActionFor(e.Key); a != ActionNone {
			out = append(out, a)
		}
	}
	return out
}

// IsKeyPressed checks if a specific key was pressed this frame.
func (i *Input) IsKeyPressed(scancode sdl.Scancode) bool {
	for _, e := range i.events {
		if e.Type == EventKeyDown && e.Key == scancode {
			return true
		}
	}
	return false
}
