// Package glfw opens native windows with GLFW and turns their callbacks
// into sprite events.
//
// GLFW must be driven from the main thread. Programs using this package
// lock it in main's init:
//
//	func init() { runtime.LockOSThread() }
//
// A Window implements gpucontext.WindowProvider and gpucontext.EventSource,
// so it can be handed to Camera.Listen, Camera.FitWindow and
// EventQueue.Listen. The windows are created without a client API; the
// GPU surface is up to the caller.
package glfw

import (
	"errors"
	"fmt"
	"sync"

	"github.com/go-gl/glfw/v3.3/glfw"
	"github.com/gogpu/gpucontext"

	"github.com/gogpu/sprite"
)

// ErrClosed is returned when using a closed Window.
var ErrClosed = errors.New("glfw: window closed")

// Config describes a new window.
type Config struct {
	Title     string
	Width     int // logical points
	Height    int
	Resizable bool
	Hidden    bool
}

// DefaultConfig returns an 800x600 resizable window.
func DefaultConfig() Config {
	return Config{Title: "sprite", Width: 800, Height: 600, Resizable: true}
}

var (
	initMu    sync.Mutex
	initCount int
)

func acquire() error {
	initMu.Lock()
	defer initMu.Unlock()
	if initCount == 0 {
		if err := glfw.Init(); err != nil {
			return fmt.Errorf("glfw: init: %w", err)
		}
	}
	initCount++
	return nil
}

func release() {
	initMu.Lock()
	defer initMu.Unlock()
	initCount--
	if initCount == 0 {
		glfw.Terminate()
	}
}

// handlers holds the EventSource subscriptions.
type handlers struct {
	keyPress   []func(gpucontext.Key, gpucontext.Modifiers)
	keyRelease []func(gpucontext.Key, gpucontext.Modifiers)
	text       []func(string)
	mouseMove  []func(x, y float64)
	mousePress []func(gpucontext.MouseButton, float64, float64)
	mouseUp    []func(gpucontext.MouseButton, float64, float64)
	scroll     []func(dx, dy float64)
	resize     []func(w, h int)
	focus      []func(bool)
	imeStart   []func()
	imeUpdate  []func(gpucontext.IMEState)
	imeEnd     []func(string)
}

// Window is a GLFW window with a polled event queue.
type Window struct {
	glw    *glfw.Window
	events sprite.EventQueue
	on     handlers
	mods   gpucontext.Modifiers
	closed bool
}

var (
	_ gpucontext.WindowProvider = (*Window)(nil)
	_ gpucontext.EventSource    = (*Window)(nil)
)

// Open initialises GLFW if needed and creates a window.
func Open(cfg Config) (*Window, error) {
	if cfg.Width <= 0 || cfg.Height <= 0 {
		return nil, fmt.Errorf("glfw: invalid window size %dx%d", cfg.Width, cfg.Height)
	}
	if err := acquire(); err != nil {
		return nil, err
	}

	glfw.DefaultWindowHints()
	glfw.WindowHint(glfw.ClientAPI, glfw.NoAPI)
	glfw.WindowHint(glfw.Resizable, boolHint(cfg.Resizable))
	glfw.WindowHint(glfw.Visible, boolHint(!cfg.Hidden))

	glw, err := glfw.CreateWindow(cfg.Width, cfg.Height, cfg.Title, nil, nil)
	if err != nil {
		release()
		return nil, fmt.Errorf("glfw: create window: %w", err)
	}

	w := &Window{glw: glw}
	w.install()

	fw, fh := glw.GetFramebufferSize()
	sprite.Logger().Info("glfw: window opened", "title", cfg.Title,
		"size", fmt.Sprintf("%dx%d", cfg.Width, cfg.Height),
		"framebuffer", fmt.Sprintf("%dx%d", fw, fh))
	return w, nil
}

func boolHint(b bool) int {
	if b {
		return glfw.True
	}
	return glfw.False
}

func (w *Window) install() {
	w.glw.SetFramebufferSizeCallback(func(_ *glfw.Window, width, height int) {
		w.events.Push(sprite.ResizeEvent{Width: width, Height: height})
		for _, fn := range w.on.resize {
			fn(width, height)
		}
	})
	w.glw.SetCloseCallback(func(_ *glfw.Window) {
		w.events.Push(sprite.CloseEvent{})
	})
	w.glw.SetFocusCallback(func(_ *glfw.Window, focused bool) {
		w.events.Push(sprite.FocusEvent{Focused: focused})
		for _, fn := range w.on.focus {
			fn(focused)
		}
	})
	w.glw.SetKeyCallback(func(_ *glfw.Window, key glfw.Key, _ int, action glfw.Action, mods glfw.ModifierKey) {
		w.keyEvent(key, action, mods)
	})
	w.glw.SetCharCallback(func(_ *glfw.Window, char rune) {
		text := string(char)
		w.events.Push(sprite.TextEvent{Text: text})
		for _, fn := range w.on.text {
			fn(text)
		}
	})
	w.glw.SetCursorPosCallback(func(_ *glfw.Window, x, y float64) {
		w.events.Push(sprite.MouseMoveEvent{X: x, Y: y})
		for _, fn := range w.on.mouseMove {
			fn(x, y)
		}
	})
	w.glw.SetMouseButtonCallback(func(gw *glfw.Window, button glfw.MouseButton, action glfw.Action, mods glfw.ModifierKey) {
		b, ok := MapMouseButton(button)
		if !ok {
			return
		}
		w.mods = MapMods(mods)
		x, y := gw.GetCursorPos()
		pressed := action != glfw.Release
		w.events.Push(sprite.MouseButtonEvent{Button: b, X: x, Y: y, Pressed: pressed})
		fns := w.on.mouseUp
		if pressed {
			fns = w.on.mousePress
		}
		for _, fn := range fns {
			fn(b, x, y)
		}
	})
	w.glw.SetScrollCallback(func(_ *glfw.Window, dx, dy float64) {
		w.events.Push(sprite.ScrollEvent{DX: dx, DY: dy})
		for _, fn := range w.on.scroll {
			fn(dx, dy)
		}
	})
}

func (w *Window) keyEvent(key glfw.Key, action glfw.Action, mods glfw.ModifierKey) {
	k := MapKey(key)
	w.mods = MapMods(mods)
	pressed := action != glfw.Release
	w.events.Push(sprite.KeyEvent{
		Key:     k,
		Mods:    w.mods,
		Pressed: pressed,
		Repeat:  action == glfw.Repeat,
	})

	fns := w.on.keyRelease
	if pressed {
		fns = w.on.keyPress
	}
	for _, fn := range fns {
		fn(k, w.mods)
	}
}

// PollEvents processes pending GLFW events and returns everything queued
// since the last call, in arrival order.
func (w *Window) PollEvents() []sprite.Event {
	if w.closed {
		return nil
	}
	glfw.PollEvents()
	return w.events.Poll()
}

// ShouldClose reports whether the user asked to close the window.
func (w *Window) ShouldClose() bool {
	return w.closed || w.glw.ShouldClose()
}

// SetTitle changes the window title.
func (w *Window) SetTitle(title string) {
	if !w.closed {
		w.glw.SetTitle(title)
	}
}

// Modifiers returns the modifiers of the last key or button event.
func (w *Window) Modifiers() gpucontext.Modifiers { return w.mods }

// Size returns the client area in logical points.
func (w *Window) Size() (width, height int) {
	if w.closed {
		return 0, 0
	}
	return w.glw.GetSize()
}

// FramebufferSize returns the client area in pixels.
func (w *Window) FramebufferSize() (width, height int) {
	if w.closed {
		return 0, 0
	}
	return w.glw.GetFramebufferSize()
}

// ScaleFactor returns the horizontal content scale.
func (w *Window) ScaleFactor() float64 {
	if w.closed {
		return 1
	}
	sx, _ := w.glw.GetContentScale()
	if sx <= 0 {
		return 1
	}
	return float64(sx)
}

// RequestRedraw wakes a loop blocked in event processing.
func (w *Window) RequestRedraw() { glfw.PostEmptyEvent() }

// Native returns the GLFW window for surface creation.
func (w *Window) Native() *glfw.Window { return w.glw }

// Close destroys the window. GLFW is terminated with the last window.
func (w *Window) Close() error {
	if w.closed {
		return ErrClosed
	}
	w.closed = true
	w.glw.Destroy()
	w.glw = nil
	release()
	return nil
}

func (w *Window) OnKeyPress(fn func(gpucontext.Key, gpucontext.Modifiers)) {
	w.on.keyPress = append(w.on.keyPress, fn)
}

func (w *Window) OnKeyRelease(fn func(gpucontext.Key, gpucontext.Modifiers)) {
	w.on.keyRelease = append(w.on.keyRelease, fn)
}

func (w *Window) OnTextInput(fn func(string)) { w.on.text = append(w.on.text, fn) }

func (w *Window) OnMouseMove(fn func(x, y float64)) { w.on.mouseMove = append(w.on.mouseMove, fn) }

func (w *Window) OnMousePress(fn func(gpucontext.MouseButton, float64, float64)) {
	w.on.mousePress = append(w.on.mousePress, fn)
}

func (w *Window) OnMouseRelease(fn func(gpucontext.MouseButton, float64, float64)) {
	w.on.mouseUp = append(w.on.mouseUp, fn)
}

func (w *Window) OnScroll(fn func(dx, dy float64)) { w.on.scroll = append(w.on.scroll, fn) }

func (w *Window) OnResize(fn func(width, height int)) { w.on.resize = append(w.on.resize, fn) }

func (w *Window) OnFocus(fn func(bool)) { w.on.focus = append(w.on.focus, fn) }

// GLFW 3.3 reports committed text only, so the IME callbacks never fire.

func (w *Window) OnIMECompositionStart(fn func()) { w.on.imeStart = append(w.on.imeStart, fn) }

func (w *Window) OnIMECompositionUpdate(fn func(gpucontext.IMEState)) {
	w.on.imeUpdate = append(w.on.imeUpdate, fn)
}

func (w *Window) OnIMECompositionEnd(fn func(string)) { w.on.imeEnd = append(w.on.imeEnd, fn) }
