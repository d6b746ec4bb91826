package wgpu

import (
	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"
)

// Default target dimensions when no size is given.
const (
	DefaultWidth  = 800
	DefaultHeight = 600
)

// Option configures a Device during creation.
type Option func(*options)

type options struct {
	width, height  uint32
	format         gputypes.TextureFormat
	label          string
	view           hal.TextureView
	preferLowPower bool
}

func defaultOptions() options {
	return options{
		width:  DefaultWidth,
		height: DefaultHeight,
		format: gputypes.TextureFormatRGBA8Unorm,
		label:  "sprite",
	}
}

// WithTargetSize sets the size of the offscreen render target.
func WithTargetSize(width, height int) Option {
	return func(o *options) {
		if width > 0 && height > 0 {
			o.width, o.height = uint32(width), uint32(height)
		}
	}
}

// WithFormat sets the color format of the render target. It must match
// the format of a view passed to WithTargetView.
func WithFormat(format gputypes.TextureFormat) Option {
	return func(o *options) {
		o.format = format
	}
}

// WithLabel prefixes the debug labels of every GPU object the device
// creates.
func WithLabel(label string) Option {
	return func(o *options) {
		if label != "" {
			o.label = label
		}
	}
}

// WithTargetView renders into a caller-owned view, typically a surface
// texture, instead of an offscreen texture. The device never destroys it.
func WithTargetView(view hal.TextureView, width, height int) Option {
	return func(o *options) {
		o.view = view
		WithTargetSize(width, height)(o)
	}
}

// WithLowPower prefers an integrated adapter over a discrete one.
func WithLowPower(enabled bool) Option {
	return func(o *options) {
		o.preferLowPower = enabled
	}
}
