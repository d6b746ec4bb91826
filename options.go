package sprite

import "github.com/gogpu/sprite/gfx"

// RendererOption configures a QuadRenderer during creation.
//
// Example:
//
//	qr, err := sprite.NewQuadRenderer(dev, sprite.KindGPU,
//	    sprite.WithParallel(false),
//	    sprite.WithIndexCapacity(4096))
type RendererOption func(*rendererOptions)

type rendererOptions struct {
	parallel      bool
	workers       int
	indexCapacity int
	minChunk      int
	source        *gfx.ProgramSource
}

// DefaultIndexCapacity is the number of quads the shared index buffer is
// sized for at construction.
const DefaultIndexCapacity = 1024

func defaultRendererOptions() rendererOptions {
	return rendererOptions{
		parallel:      true,
		workers:       0, // GOMAXPROCS
		indexCapacity: DefaultIndexCapacity,
		minChunk:      256,
	}
}

// WithParallel sets whether vertex generation runs on a worker pool.
// The default is true.
func WithParallel(enabled bool) RendererOption {
	return func(o *rendererOptions) {
		o.parallel = enabled
	}
}

// WithWorkers sets the size of the vertex generation pool. Zero or less
// means GOMAXPROCS.
func WithWorkers(n int) RendererOption {
	return func(o *rendererOptions) {
		o.workers = n
	}
}

// WithIndexCapacity sets the initial index buffer capacity in quads.
func WithIndexCapacity(quads int) RendererOption {
	return func(o *rendererOptions) {
		if quads >= 0 {
			o.indexCapacity = quads
		}
	}
}

// WithMinChunk sets the smallest number of quads handed to one worker.
func WithMinChunk(quads int) RendererOption {
	return func(o *rendererOptions) {
		if quads > 0 {
			o.minChunk = quads
		}
	}
}

// WithProgramSource replaces the built-in shaders. The replacement must
// declare the same vertex inputs and the UniProj uniform.
func WithProgramSource(src gfx.ProgramSource) RendererOption {
	return func(o *rendererOptions) {
		o.source = &src
	}
}
