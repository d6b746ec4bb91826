package sprite

import "errors"

// Errors returned by sprite operations.
var (
	// ErrNoDevice is returned when a GPU-backed object is created without a
	// graphics device.
	ErrNoDevice = errors.New("sprite: no graphics device")

	// ErrEmptyCanvas is returned when a texture or decode would produce a
	// zero-sized image.
	ErrEmptyCanvas = errors.New("sprite: empty canvas")

	// ErrUniformNotFound is returned when a renderer program lacks the
	// projection uniform.
	ErrUniformNotFound = errors.New("sprite: uniform not found")

	// ErrRendererClosed is returned by Draw after Close.
	ErrRendererClosed = errors.New("sprite: renderer closed")
)
