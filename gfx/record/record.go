// Package record provides a headless gfx.Device that performs no GPU work
// and records every call instead. Tests use it to observe uploads, binds
// and draw calls; cmd/quadbench uses it to measure CPU-side cost alone.
package record

import (
	"fmt"
	"strings"

	"github.com/gogpu/sprite/gfx"
)

// CallKind identifies a recorded call.
type CallKind uint8

const (
	CallUpload CallKind = iota
	CallBindBuffer
	CallUnbindBuffer
	CallBindImage
	CallUnbindImage
	CallBindProgram
	CallUnbindProgram
	CallBindVertexArray
	CallUnbindVertexArray
	CallSetUniform
	CallDraw
	CallFlush
)

var callNames = [...]string{
	CallUpload:            "upload",
	CallBindBuffer:        "bind-buffer",
	CallUnbindBuffer:      "unbind-buffer",
	CallBindImage:         "bind-image",
	CallUnbindImage:       "unbind-image",
	CallBindProgram:       "bind-program",
	CallUnbindProgram:     "unbind-program",
	CallBindVertexArray:   "bind-vao",
	CallUnbindVertexArray: "unbind-vao",
	CallSetUniform:        "set-uniform",
	CallDraw:              "draw",
	CallFlush:             "flush",
}

func (k CallKind) String() string {
	if int(k) < len(callNames) {
		return callNames[k]
	}
	return fmt.Sprintf("CallKind(%d)", uint8(k))
}

// Call is one recorded device call.
type Call struct {
	Kind  CallKind
	ID    int // resource id, 0 when not applicable
	First int
	Count int
}

// Draw captures the state an indexed draw used.
type Draw struct {
	First, Count int
	Image        *Image
	Program      *Program
	VertexArray  *VertexArray
	IndexBuffer  *Buffer
}

// Device records calls. The zero value is not usable; call New.
type Device struct {
	Calls []Call
	Draws []Draw

	// UploadErr, when set, is returned by every buffer upload.
	UploadErr error
	// DrawErr, when set, is returned by DrawIndexed.
	DrawErr error

	nextID int

	program *Program
	vao     *VertexArray
	index   *Buffer
	vertex  *Buffer
	image   *Image

	destroyed bool
}

var _ gfx.Device = (*Device)(nil)

// New returns an empty recording device.
func New() *Device {
	return &Device{}
}

func (d *Device) id() int {
	d.nextID++
	return d.nextID
}

func (d *Device) record(c Call) {
	d.Calls = append(d.Calls, c)
}

// Reset forgets recorded calls and draws.
func (d *Device) Reset() {
	d.Calls = d.Calls[:0]
	d.Draws = d.Draws[:0]
}

// Count returns how many calls of kind k were recorded.
func (d *Device) Count(k CallKind) int {
	n := 0
	for _, c := range d.Calls {
		if c.Kind == k {
			n++
		}
	}
	return n
}

// NewBuffer implements gfx.Device.
func (d *Device) NewBuffer(kind gfx.BufferKind, usage gfx.Usage) (gfx.Buffer, error) {
	if d.destroyed {
		return nil, gfx.ErrDestroyed
	}
	return &Buffer{dev: d, ID: d.id(), Kind: kind, Usage: usage}, nil
}

// NewImage implements gfx.Device.
func (d *Device) NewImage(desc gfx.ImageDesc) (gfx.Image, error) {
	if d.destroyed {
		return nil, gfx.ErrDestroyed
	}
	if desc.Width <= 0 || desc.Height <= 0 {
		return nil, fmt.Errorf("record: invalid image size %dx%d", desc.Width, desc.Height)
	}
	if len(desc.Pixels) != desc.Width*desc.Height*4 {
		return nil, fmt.Errorf("record: image data is %d bytes, want %d",
			len(desc.Pixels), desc.Width*desc.Height*4)
	}
	return &Image{dev: d, ID: d.id(), Desc: desc}, nil
}

// CompileProgram implements gfx.Device. A stage fails to compile when it
// is empty or lacks its entry point.
func (d *Device) CompileProgram(src gfx.ProgramSource) (gfx.Program, error) {
	if d.destroyed {
		return nil, gfx.ErrDestroyed
	}
	if !strings.Contains(src.Vertex, "fn "+gfx.VertexEntry) {
		return nil, &gfx.ProgramError{Stage: "vertex", Log: "missing entry point " + gfx.VertexEntry}
	}
	if !strings.Contains(src.Fragment, "fn "+gfx.FragmentEntry) {
		return nil, &gfx.ProgramError{Stage: "fragment", Log: "missing entry point " + gfx.FragmentEntry}
	}
	return &Program{dev: d, ID: d.id(), Source: src, Values: map[string][16]float32{}}, nil
}

// NewVertexArray implements gfx.Device.
func (d *Device) NewVertexArray(layout gfx.VertexLayout, vbo gfx.Buffer) (gfx.VertexArray, error) {
	b, ok := vbo.(*Buffer)
	if !ok {
		return nil, fmt.Errorf("record: foreign buffer %T", vbo)
	}
	return &VertexArray{dev: d, ID: d.id(), Layout: layout, Buffer: b}, nil
}

// DrawIndexed implements gfx.Device.
func (d *Device) DrawIndexed(first, count int) error {
	if d.DrawErr != nil {
		return d.DrawErr
	}
	if d.program == nil || d.vao == nil || d.index == nil {
		return fmt.Errorf("record: draw with program=%v vao=%v ibo=%v bound",
			d.program != nil, d.vao != nil, d.index != nil)
	}
	d.record(Call{Kind: CallDraw, First: first, Count: count})
	d.Draws = append(d.Draws, Draw{
		First:       first,
		Count:       count,
		Image:       d.image,
		Program:     d.program,
		VertexArray: d.vao,
		IndexBuffer: d.index,
	})
	return nil
}

// Flush implements gfx.Device.
func (d *Device) Flush() error {
	d.record(Call{Kind: CallFlush})
	return nil
}

// Destroy implements gfx.Device.
func (d *Device) Destroy() {
	d.destroyed = true
}

// Bound reports the currently bound program, vertex array, index buffer
// and image. All are nil in the neutral state.
func (d *Device) Bound() (*Program, *VertexArray, *Buffer, *Image) {
	return d.program, d.vao, d.index, d.image
}

// Buffer is a recorded buffer. Data holds the last upload.
type Buffer struct {
	dev     *Device
	ID      int
	Kind    gfx.BufferKind
	Usage   gfx.Usage
	Data    []byte
	Uploads int
	Dead    bool
}

func (b *Buffer) Bind() {
	b.dev.record(Call{Kind: CallBindBuffer, ID: b.ID})
	switch b.Kind {
	case gfx.IndexBuffer:
		b.dev.index = b
	default:
		b.dev.vertex = b
	}
}

func (b *Buffer) Unbind() {
	b.dev.record(Call{Kind: CallUnbindBuffer, ID: b.ID})
	switch {
	case b.Kind == gfx.IndexBuffer && b.dev.index == b:
		b.dev.index = nil
	case b.dev.vertex == b:
		b.dev.vertex = nil
	}
}

func (b *Buffer) Upload(data []byte, usage gfx.Usage) error {
	if b.Dead {
		return gfx.ErrDestroyed
	}
	if b.dev.UploadErr != nil {
		return b.dev.UploadErr
	}
	b.dev.record(Call{Kind: CallUpload, ID: b.ID, Count: len(data)})
	b.Data = append(b.Data[:0], data...)
	b.Usage = usage
	b.Uploads++
	return nil
}

func (b *Buffer) Len() int { return len(b.Data) }

func (b *Buffer) Destroy() { b.Dead = true }

// Image is a recorded image.
type Image struct {
	dev  *Device
	ID   int
	Desc gfx.ImageDesc
	Dead bool
}

func (i *Image) Bind() {
	i.dev.record(Call{Kind: CallBindImage, ID: i.ID})
	i.dev.image = i
}

func (i *Image) Unbind() {
	i.dev.record(Call{Kind: CallUnbindImage, ID: i.ID})
	if i.dev.image == i {
		i.dev.image = nil
	}
}

func (i *Image) Size() (int, int) { return i.Desc.Width, i.Desc.Height }

func (i *Image) Destroy() {
	i.Dead = true
	if i.dev.image == i {
		i.dev.image = nil
	}
}

// Program is a recorded program. Values holds the last value set for each
// uniform.
type Program struct {
	dev    *Device
	ID     int
	Source gfx.ProgramSource
	Values map[string][16]float32
	Dead   bool
}

func (p *Program) Bind() {
	p.dev.record(Call{Kind: CallBindProgram, ID: p.ID})
	p.dev.program = p
}

func (p *Program) Unbind() {
	p.dev.record(Call{Kind: CallUnbindProgram, ID: p.ID})
	if p.dev.program == p {
		p.dev.program = nil
	}
}

// Uniform finds name in either stage's source.
func (p *Program) Uniform(name string) (gfx.Uniform, error) {
	if name == "" || (!strings.Contains(p.Source.Vertex, name) && !strings.Contains(p.Source.Fragment, name)) {
		return nil, fmt.Errorf("record: uniform %q not found", name)
	}
	return &uniform{p: p, name: name}, nil
}

func (p *Program) Destroy() { p.Dead = true }

type uniform struct {
	p    *Program
	name string
}

func (u *uniform) SetMat4(m [16]float32) {
	u.p.dev.record(Call{Kind: CallSetUniform, ID: u.p.ID})
	u.p.Values[u.name] = m
}

// VertexArray is a recorded vertex array.
type VertexArray struct {
	dev    *Device
	ID     int
	Layout gfx.VertexLayout
	Buffer *Buffer
	Dead   bool
}

func (v *VertexArray) Bind() {
	v.dev.record(Call{Kind: CallBindVertexArray, ID: v.ID})
	v.dev.vao = v
}

func (v *VertexArray) Unbind() {
	v.dev.record(Call{Kind: CallUnbindVertexArray, ID: v.ID})
	if v.dev.vao == v {
		v.dev.vao = nil
	}
}

func (v *VertexArray) Destroy() { v.Dead = true }
