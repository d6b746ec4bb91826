package sprite

import (
	"fmt"

	"github.com/gogpu/gpucontext"
)

// StretchModeKind enumerates stretch policies.
type StretchModeKind uint8

const (
	// StretchNone uses the whole viewport at a 1:1 pixel ratio; the render
	// resolution follows the viewport.
	StretchNone StretchModeKind = iota
	// StretchFill stretches to fill the viewport, ignoring aspect ratio.
	StretchFill
	// StretchKeepAspect fills as much of the viewport as possible at a
	// fixed aspect ratio, centred with bars on the borders.
	StretchKeepAspect
)

// StretchMode is the policy for mapping the logical render resolution onto
// the physical viewport. Only the Kind is used by the projection; Fill and
// KeepAspect are consumed by an external viewport-mapping step.
type StretchMode struct {
	Kind  StretchModeKind
	Ratio float32 // aspect ratio for StretchKeepAspect
}

// KeepAspect returns a StretchKeepAspect mode with the given ratio.
func KeepAspect(ratio float32) StretchMode {
	return StretchMode{Kind: StretchKeepAspect, Ratio: ratio}
}

func (m StretchMode) String() string {
	switch m.Kind {
	case StretchNone:
		return "none"
	case StretchFill:
		return "fill"
	case StretchKeepAspect:
		return fmt.Sprintf("keep-aspect(%g)", m.Ratio)
	default:
		return fmt.Sprintf("StretchMode(%d)", m.Kind)
	}
}

// DefaultViewport is the viewport size of a new camera.
var DefaultViewport = SzU(480, 270)

// Camera owns a viewport size, a stretch policy, a transform and the
// projection derived from them. The projection is recomputed eagerly
// whenever the viewport size or stretch mode changes.
type Camera struct {
	stretch   StretchMode
	transform Transform
	viewport  SizeU
	proj      Mat4
	hasProj   bool
}

// NewCamera returns a camera with the default viewport and no projection.
func NewCamera() *Camera {
	return &Camera{
		transform: NewTransform(),
		viewport:  DefaultViewport,
	}
}

// StretchMode returns the stretch policy.
func (c *Camera) StretchMode() StretchMode { return c.stretch }

// Transform returns the camera transform.
func (c *Camera) Transform() Transform { return c.transform }

// ViewportSize returns the viewport size.
func (c *Camera) ViewportSize() SizeU { return c.viewport }

// SetStretchMode sets the stretch policy and recomputes the projection.
func (c *Camera) SetStretchMode(m StretchMode) {
	c.stretch = m
	c.recompute()
}

// SetTransform sets the camera transform.
func (c *Camera) SetTransform(t Transform) { c.transform = t }

// SetViewportSize sets the viewport size and recomputes the projection.
func (c *Camera) SetViewportSize(s SizeU) {
	c.viewport = s
	c.recompute()
}

// recompute maps [0,w] x [h,0] to clip space with a top-left origin.
// Depth is unused, so near and far are fixed at 1 and -1.
func (c *Camera) recompute() {
	w := float32(c.viewport.W)
	h := float32(c.viewport.H)
	c.proj = Ortho(0, w, h, 0, 1, -1)
	c.hasProj = true
}

// HasProjection reports whether a projection has been computed.
func (c *Camera) HasProjection() bool { return c.hasProj }

// Projection returns the cached projection. It panics if neither the
// viewport size nor the stretch mode was ever set.
func (c *Camera) Projection() Mat4 {
	if !c.hasProj {
		panic("sprite: a viewport size must be assigned to the Camera before using it")
	}
	return c.proj
}

// ResizeEvent applies a ResizeEvent to the viewport; other events are
// ignored.
func (c *Camera) ResizeEvent(ev Event) {
	if r, ok := ev.(ResizeEvent); ok {
		c.SetViewportSize(SzU(uint32(max(r.Width, 0)), uint32(max(r.Height, 0))))
	}
}

// Listen keeps the viewport in sync with src's resize notifications.
func (c *Camera) Listen(src gpucontext.EventSource) {
	src.OnResize(func(w, h int) {
		c.ResizeEvent(ResizeEvent{Width: w, Height: h})
	})
}

// FitWindow sets the viewport to the window's current size.
func (c *Camera) FitWindow(w gpucontext.WindowProvider) {
	c.ResizeEvent(ResizeEventFrom(w))
}
