// Package gfx defines the narrow graphics contract the quad renderer draws
// through.
//
// The contract follows the bind/operate/unbind model of immediate-mode
// graphics APIs: a Device holds the currently bound program, vertex array,
// index buffer and image, and DrawIndexed draws with whatever is bound.
// Every method must be called from the goroutine that owns the device.
//
// Implementations live in backend/wgpu (GPU through gogpu/wgpu) and
// gfx/record (headless, records calls for tests and benchmarks).
package gfx

import (
	"errors"
	"fmt"
)

// ErrDestroyed is returned when a destroyed resource is used.
var ErrDestroyed = errors.New("gfx: resource destroyed")

// Usage is the update-frequency hint attached to buffer uploads.
type Usage uint8

const (
	// UsageStatic data is uploaded once and drawn many times.
	UsageStatic Usage = iota
	// UsageDynamic data is updated occasionally.
	UsageDynamic
	// UsageStream data is replaced every frame.
	UsageStream
)

// String returns the hint name.
func (u Usage) String() string {
	switch u {
	case UsageStatic:
		return "static"
	case UsageDynamic:
		return "dynamic"
	case UsageStream:
		return "stream"
	default:
		return fmt.Sprintf("Usage(%d)", uint8(u))
	}
}

// BufferKind selects what a buffer is bound as.
type BufferKind uint8

const (
	// VertexBuffer holds vertex records.
	VertexBuffer BufferKind = iota
	// IndexBuffer holds uint32 indices.
	IndexBuffer
)

// Filter is a texture sampling filter.
type Filter uint8

const (
	FilterNearest Filter = iota
	FilterLinear
)

// Filters pairs the minification and magnification filters of an image.
type Filters struct {
	Min, Mag Filter
}

// NearestFilters is the default pixel-art friendly filter pair.
var NearestFilters = Filters{Min: FilterNearest, Mag: FilterNearest}

// LinearFilters smooths both minification and magnification.
var LinearFilters = Filters{Min: FilterLinear, Mag: FilterLinear}

// ImageDesc describes a 2D image upload. Pixels holds Width*Height RGBA8
// texels, row-major, top row first.
type ImageDesc struct {
	Label   string
	Width   int
	Height  int
	Pixels  []byte
	Filters Filters
}

// AttribFormat is the format of one vertex attribute.
type AttribFormat uint8

const (
	Float32 AttribFormat = iota + 1
	Float32x2
	Float32x3
	// Unorm8x4 is four bytes normalised to [0,1], used for packed colors.
	Unorm8x4
)

// Size returns the attribute's size in bytes.
func (f AttribFormat) Size() int {
	switch f {
	case Float32:
		return 4
	case Float32x2:
		return 8
	case Float32x3:
		return 12
	case Unorm8x4:
		return 4
	default:
		return 0
	}
}

// Attrib is one vertex attribute. Location matches the shader input.
type Attrib struct {
	Location int
	Format   AttribFormat
	Offset   int
}

// VertexLayout describes an interleaved vertex record.
type VertexLayout struct {
	Stride  int
	Attribs []Attrib
}

// Layout builds a tightly packed layout from formats in shader-location
// order.
func Layout(formats ...AttribFormat) VertexLayout {
	l := VertexLayout{Attribs: make([]Attrib, len(formats))}
	for i, f := range formats {
		l.Attribs[i] = Attrib{Location: i, Format: f, Offset: l.Stride}
		l.Stride += f.Size()
	}
	return l
}

// ProgramSource is a vertex/fragment shader pair in WGSL. Each stage is a
// standalone module with entry points VertexEntry and FragmentEntry.
type ProgramSource struct {
	Label    string
	Vertex   string
	Fragment string
}

// Shader entry points expected in ProgramSource modules.
const (
	VertexEntry   = "vs_main"
	FragmentEntry = "fs_main"
)

// ProgramError carries a shader compile or link diagnostic.
type ProgramError struct {
	Stage string // "vertex", "fragment" or "link"
	Log   string
	Err   error
}

func (e *ProgramError) Error() string {
	return fmt.Sprintf("gfx: %s shader: %s", e.Stage, e.Log)
}

func (e *ProgramError) Unwrap() error { return e.Err }

// Device creates resources and issues draw calls.
type Device interface {
	// NewBuffer creates an empty buffer.
	NewBuffer(kind BufferKind, usage Usage) (Buffer, error)

	// NewImage uploads a 2D RGBA8 image.
	NewImage(desc ImageDesc) (Image, error)

	// CompileProgram compiles a shader pair. Compile failures are returned
	// as *ProgramError.
	CompileProgram(src ProgramSource) (Program, error)

	// NewVertexArray binds a vertex layout to a vertex buffer.
	NewVertexArray(layout VertexLayout, vbo Buffer) (VertexArray, error)

	// DrawIndexed draws count indices starting at first from the bound
	// index buffer as a triangle list, using the bound program, vertex
	// array and image.
	DrawIndexed(first, count int) error

	// Flush submits pending work. Immediate-mode devices may do nothing.
	Flush() error

	// Destroy releases the device.
	Destroy()
}

// Buffer is a GPU buffer object.
type Buffer interface {
	Bind()
	Unbind()

	// Upload replaces the buffer contents.
	Upload(data []byte, usage Usage) error

	// Len returns the size of the last upload in bytes.
	Len() int

	Destroy()
}

// Image is a 2D GPU image.
type Image interface {
	Bind()
	Unbind()
	Size() (w, h int)
	Destroy()
}

// Program is a compiled shader pair.
type Program interface {
	Bind()
	Unbind()

	// Uniform looks up a uniform by name.
	Uniform(name string) (Uniform, error)

	Destroy()
}

// Uniform is a located shader uniform.
type Uniform interface {
	SetMat4(m [16]float32)
}

// VertexArray associates a vertex layout with a vertex buffer.
type VertexArray interface {
	Bind()
	Unbind()
	Destroy()
}
