package sprite

import (
	"math"
	"sync"

	"github.com/gogpu/gpucontext"
)

// Event is a window or input notification. The concrete types are
// ResizeEvent, CloseEvent, KeyEvent, TextEvent, MouseMoveEvent,
// MouseButtonEvent, ScrollEvent and FocusEvent.
type Event interface {
	isEvent()
}

// ResizeEvent reports the framebuffer was resized to Width x Height pixels.
type ResizeEvent struct {
	Width, Height int
}

// CloseEvent reports the user asked to close the window.
type CloseEvent struct{}

// KeyEvent reports a key press or release.
type KeyEvent struct {
	Key     gpucontext.Key
	Mods    gpucontext.Modifiers
	Pressed bool
	Repeat  bool
}

// TextEvent carries committed text input.
type TextEvent struct {
	Text string
}

// MouseMoveEvent reports the cursor position.
type MouseMoveEvent struct {
	X, Y float64
}

// MouseButtonEvent reports a mouse button press or release.
type MouseButtonEvent struct {
	Button  gpucontext.MouseButton
	X, Y    float64
	Pressed bool
}

// ScrollEvent reports a scroll delta.
type ScrollEvent struct {
	DX, DY float64
}

// FocusEvent reports a focus change.
type FocusEvent struct {
	Focused bool
}

func (ResizeEvent) isEvent()      {}
func (CloseEvent) isEvent()       {}
func (KeyEvent) isEvent()         {}
func (TextEvent) isEvent()        {}
func (MouseMoveEvent) isEvent()   {}
func (MouseButtonEvent) isEvent() {}
func (ScrollEvent) isEvent()      {}
func (FocusEvent) isEvent()       {}

// ResizeEventFrom returns a ResizeEvent for w's current size in physical
// pixels.
func ResizeEventFrom(w gpucontext.WindowProvider) ResizeEvent {
	lw, lh := w.Size()
	sf := w.ScaleFactor()
	if sf <= 0 {
		sf = 1
	}
	return ResizeEvent{
		Width:  int(math.Round(float64(lw) * sf)),
		Height: int(math.Round(float64(lh) * sf)),
	}
}

// EventQueue buffers events delivered by callbacks until the frame loop
// polls them. Push may be called from any goroutine.
type EventQueue struct {
	mu     sync.Mutex
	events []Event
}

// Push appends an event.
func (q *EventQueue) Push(ev Event) {
	q.mu.Lock()
	q.events = append(q.events, ev)
	q.mu.Unlock()
}

// Poll returns and removes all queued events in arrival order.
func (q *EventQueue) Poll() []Event {
	q.mu.Lock()
	defer q.mu.Unlock()
	out := q.events
	q.events = nil
	return out
}

// Len returns the number of queued events.
func (q *EventQueue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.events)
}

// Listen subscribes q to every notification src offers.
func (q *EventQueue) Listen(src gpucontext.EventSource) {
	src.OnKeyPress(func(k gpucontext.Key, m gpucontext.Modifiers) {
		q.Push(KeyEvent{Key: k, Mods: m, Pressed: true})
	})
	src.OnKeyRelease(func(k gpucontext.Key, m gpucontext.Modifiers) {
		q.Push(KeyEvent{Key: k, Mods: m})
	})
	src.OnTextInput(func(text string) {
		q.Push(TextEvent{Text: text})
	})
	src.OnMouseMove(func(x, y float64) {
		q.Push(MouseMoveEvent{X: x, Y: y})
	})
	src.OnMousePress(func(b gpucontext.MouseButton, x, y float64) {
		q.Push(MouseButtonEvent{Button: b, X: x, Y: y, Pressed: true})
	})
	src.OnMouseRelease(func(b gpucontext.MouseButton, x, y float64) {
		q.Push(MouseButtonEvent{Button: b, X: x, Y: y})
	})
	src.OnScroll(func(dx, dy float64) {
		q.Push(ScrollEvent{DX: dx, DY: dy})
	})
	src.OnResize(func(w, h int) {
		q.Push(ResizeEvent{Width: w, Height: h})
	})
	src.OnFocus(func(focused bool) {
		q.Push(FocusEvent{Focused: focused})
	})
}
