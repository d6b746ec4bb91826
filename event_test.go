package sprite

import (
	"testing"

	"github.com/gogpu/gpucontext"
	"github.com/google/go-cmp/cmp"
)

// captureSource records the callbacks an EventQueue registers.
type captureSource struct {
	gpucontext.NullEventSource
	keyPress   func(gpucontext.Key, gpucontext.Modifiers)
	keyRelease func(gpucontext.Key, gpucontext.Modifiers)
	text       func(string)
	move       func(float64, float64)
	press      func(gpucontext.MouseButton, float64, float64)
	scroll     func(float64, float64)
	resize     func(int, int)
	focus      func(bool)
}

func (s *captureSource) OnKeyPress(fn func(gpucontext.Key, gpucontext.Modifiers)) {
	s.keyPress = fn
}

func (s *captureSource) OnKeyRelease(fn func(gpucontext.Key, gpucontext.Modifiers)) {
	s.keyRelease = fn
}

func (s *captureSource) OnMousePress(fn func(gpucontext.MouseButton, float64, float64)) {
	s.press = fn
}

func (s *captureSource) OnTextInput(fn func(string))           { s.text = fn }
func (s *captureSource) OnMouseMove(fn func(float64, float64)) { s.move = fn }
func (s *captureSource) OnScroll(fn func(float64, float64))    { s.scroll = fn }
func (s *captureSource) OnResize(fn func(int, int))            { s.resize = fn }
func (s *captureSource) OnFocus(fn func(bool))                 { s.focus = fn }

func TestEventQueueListen(t *testing.T) {
	src := &captureSource{}
	var q EventQueue
	q.Listen(src)

	src.keyPress(gpucontext.KeyA, gpucontext.ModShift)
	src.keyRelease(gpucontext.KeyA, 0)
	src.text("a")
	src.move(1, 2)
	src.press(gpucontext.MouseButtonLeft, 3, 4)
	src.scroll(0, -1)
	src.resize(640, 480)
	src.focus(false)

	want := []Event{
		KeyEvent{Key: gpucontext.KeyA, Mods: gpucontext.ModShift, Pressed: true},
		KeyEvent{Key: gpucontext.KeyA},
		TextEvent{Text: "a"},
		MouseMoveEvent{X: 1, Y: 2},
		MouseButtonEvent{Button: gpucontext.MouseButtonLeft, X: 3, Y: 4, Pressed: true},
		ScrollEvent{DY: -1},
		ResizeEvent{Width: 640, Height: 480},
		FocusEvent{},
	}
	if q.Len() != len(want) {
		t.Fatalf("Len() = %d, want %d", q.Len(), len(want))
	}
	if diff := cmp.Diff(want, q.Poll()); diff != "" {
		t.Errorf("Poll() mismatch (-want +got):\n%s", diff)
	}
	if q.Len() != 0 {
		t.Errorf("Len() after Poll = %d, want 0", q.Len())
	}
}

func TestResizeEventFrom(t *testing.T) {
	tests := []struct {
		name string
		w    gpucontext.NullWindowProvider
		want ResizeEvent
	}{
		{"unscaled", gpucontext.NullWindowProvider{W: 800, H: 600}, ResizeEvent{800, 600}},
		{"hidpi", gpucontext.NullWindowProvider{W: 800, H: 600, SF: 2}, ResizeEvent{1600, 1200}},
		{"fractional", gpucontext.NullWindowProvider{W: 101, H: 51, SF: 1.5}, ResizeEvent{152, 77}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ResizeEventFrom(tt.w); got != tt.want {
				t.Errorf("ResizeEventFrom = %+v, want %+v", got, tt.want)
			}
		})
	}
}
