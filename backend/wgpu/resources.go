package wgpu

import (
	"fmt"
	"math/bits"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"

	"github.com/gogpu/sprite"
	"github.com/gogpu/sprite/gfx"
)

// minBufferSize is the smallest GPU allocation made for a buffer.
const minBufferSize = 256

// Buffer is a vertex or index buffer. Its GPU allocation grows to the next
// power of two on demand and is never shrunk.
type Buffer struct {
	dev      *Device
	kind     gfx.BufferKind
	usage    gfx.Usage
	buf      hal.Buffer
	capacity uint64
	size     int
	dead     bool
}

// NewBuffer implements gfx.Device. The GPU allocation is deferred to the
// first Upload.
func (d *Device) NewBuffer(kind gfx.BufferKind, usage gfx.Usage) (gfx.Buffer, error) {
	if d.destroyed {
		return nil, gfx.ErrDestroyed
	}
	return &Buffer{dev: d, kind: kind, usage: usage}, nil
}

func kindName(k gfx.BufferKind) string {
	if k == gfx.IndexBuffer {
		return "index"
	}
	return "vertex"
}

// Bind makes an index buffer current. Vertex buffers are bound through
// their vertex array.
func (b *Buffer) Bind() {
	if b.kind == gfx.IndexBuffer {
		b.dev.index = b
	}
}

func (b *Buffer) Unbind() {
	if b.dev.index == b {
		b.dev.index = nil
	}
}

// Upload replaces the buffer contents through the queue. Data whose length
// is not a multiple of four is zero padded on the GPU side; Len still
// reports the unpadded length.
func (b *Buffer) Upload(data []byte, usage gfx.Usage) error {
	if b.dead || b.dev.destroyed {
		return gfx.ErrDestroyed
	}
	b.usage = usage

	size := alignUp(uint64(len(data)), 4)
	if size > b.capacity {
		if err := b.grow(size); err != nil {
			return err
		}
	}
	if len(data) > 0 {
		payload := data
		if uint64(len(data)) != size {
			payload = make([]byte, size)
			copy(payload, data)
		}
		if err := b.dev.queue.WriteBuffer(b.buf, 0, payload); err != nil {
			return fmt.Errorf("wgpu: write %s buffer: %w", kindName(b.kind), err)
		}
	}
	b.size = len(data)
	return nil
}

// grow replaces the allocation with one that holds at least size bytes.
// Static buffers are sized exactly; the others round up to a power of two
// so per-frame uploads settle quickly.
func (b *Buffer) grow(size uint64) error {
	capacity := max(size, minBufferSize)
	if b.usage != gfx.UsageStatic {
		capacity = nextPow2(capacity)
	}

	usage := gputypes.BufferUsageVertex | gputypes.BufferUsageCopyDst
	if b.kind == gfx.IndexBuffer {
		usage = gputypes.BufferUsageIndex | gputypes.BufferUsageCopyDst
	}
	buf, err := b.dev.device.CreateBuffer(&hal.BufferDescriptor{
		Label: fmt.Sprintf("%s_%s_buffer", b.dev.label, kindName(b.kind)),
		Size:  capacity,
		Usage: usage,
	})
	if err != nil {
		return fmt.Errorf("wgpu: create %d byte %s buffer: %w", capacity, kindName(b.kind), err)
	}

	b.release()
	sprite.Logger().Debug("wgpu: buffer grown", "kind", kindName(b.kind), "from", b.capacity, "to", capacity)
	b.buf = buf
	b.capacity = capacity
	return nil
}

func (b *Buffer) release() {
	if b.buf == nil {
		return
	}
	old := b.buf
	b.dev.retire(func() { b.dev.device.DestroyBuffer(old) })
	b.buf = nil
	b.capacity = 0
}

// Len returns the size of the last upload in bytes.
func (b *Buffer) Len() int { return b.size }

// Capacity returns the size of the GPU allocation in bytes.
func (b *Buffer) Capacity() int { return int(b.capacity) }

func (b *Buffer) Destroy() {
	if b.dead {
		return
	}
	b.dead = true
	b.Unbind()
	if !b.dev.destroyed {
		b.release()
	}
}

func alignUp(v, a uint64) uint64 { return (v + a - 1) &^ (a - 1) }

func nextPow2(v uint64) uint64 {
	if v <= 1 {
		return 1
	}
	return 1 << bits.Len64(v-1)
}

// Image is a sampled RGBA8 texture with its bind group.
type Image struct {
	dev   *Device
	tex   hal.Texture
	view  hal.TextureView
	group hal.BindGroup
	w, h  int
	dead  bool
}

// NewImage implements gfx.Device.
func (d *Device) NewImage(desc gfx.ImageDesc) (gfx.Image, error) {
	img, err := d.newImage(desc)
	if err != nil {
		return nil, err
	}
	return img, nil
}

func (d *Device) newImage(desc gfx.ImageDesc) (*Image, error) {
	if d.destroyed {
		return nil, gfx.ErrDestroyed
	}
	if desc.Width <= 0 || desc.Height <= 0 {
		return nil, fmt.Errorf("wgpu: invalid image size %dx%d", desc.Width, desc.Height)
	}
	if want := desc.Width * desc.Height * 4; len(desc.Pixels) != want {
		return nil, fmt.Errorf("wgpu: image data is %d bytes, want %d", len(desc.Pixels), want)
	}
	w, h := uint32(desc.Width), uint32(desc.Height)
	label := d.label + "_image"
	if desc.Label != "" {
		label = d.label + "_" + desc.Label
	}

	img := &Image{dev: d, w: desc.Width, h: desc.Height}
	tex, err := d.device.CreateTexture(&hal.TextureDescriptor{
		Label:         label,
		Size:          hal.Extent3D{Width: w, Height: h, DepthOrArrayLayers: 1},
		MipLevelCount: 1,
		SampleCount:   1,
		Dimension:     gputypes.TextureDimension2D,
		Format:        gputypes.TextureFormatRGBA8Unorm,
		Usage:         gputypes.TextureUsageTextureBinding | gputypes.TextureUsageCopyDst,
	})
	if err != nil {
		return nil, fmt.Errorf("wgpu: create %dx%d texture: %w", w, h, err)
	}
	img.tex = tex

	err = d.queue.WriteTexture(
		&hal.ImageCopyTexture{Texture: tex, MipLevel: 0, Aspect: gputypes.TextureAspectAll},
		desc.Pixels,
		&hal.ImageDataLayout{Offset: 0, BytesPerRow: w * 4, RowsPerImage: h},
		&hal.Extent3D{Width: w, Height: h, DepthOrArrayLayers: 1},
	)
	if err != nil {
		img.free()
		return nil, fmt.Errorf("wgpu: upload %s: %w", label, err)
	}

	view, err := d.device.CreateTextureView(tex, &hal.TextureViewDescriptor{
		Label:         label + "_view",
		Format:        gputypes.TextureFormatRGBA8Unorm,
		Dimension:     gputypes.TextureViewDimension2D,
		Aspect:        gputypes.TextureAspectAll,
		MipLevelCount: 1,
	})
	if err != nil {
		img.free()
		return nil, fmt.Errorf("wgpu: create %s view: %w", label, err)
	}
	img.view = view

	sampler, err := d.sampler(desc.Filters)
	if err != nil {
		img.free()
		return nil, err
	}
	group, err := d.device.CreateBindGroup(&hal.BindGroupDescriptor{
		Label:  label + "_group",
		Layout: d.textureLayout,
		Entries: []gputypes.BindGroupEntry{
			{Binding: 0, Resource: gputypes.TextureViewBinding{TextureView: view.NativeHandle()}},
			{Binding: 1, Resource: gputypes.SamplerBinding{Sampler: sampler.NativeHandle()}},
		},
	})
	if err != nil {
		img.free()
		return nil, fmt.Errorf("wgpu: create %s bind group: %w", label, err)
	}
	img.group = group
	return img, nil
}

// free destroys the GPU objects immediately, in reverse creation order.
func (i *Image) free() {
	d := i.dev
	if i.group != nil {
		d.device.DestroyBindGroup(i.group)
		i.group = nil
	}
	if i.view != nil {
		d.device.DestroyTextureView(i.view)
		i.view = nil
	}
	if i.tex != nil {
		d.device.DestroyTexture(i.tex)
		i.tex = nil
	}
}

func (i *Image) Bind() { i.dev.image = i }

func (i *Image) Unbind() {
	if i.dev.image == i {
		i.dev.image = nil
	}
}

func (i *Image) Size() (int, int) { return i.w, i.h }

func (i *Image) Destroy() {
	if i.dead {
		return
	}
	i.dead = true
	if i.dev.image == i {
		i.dev.image = nil
	}
	if !i.dev.destroyed {
		i.dev.retire(i.free)
	}
}

// VertexArray ties a vertex layout to a vertex buffer.
type VertexArray struct {
	dev    *Device
	layout gputypes.VertexBufferLayout
	key    string
	vbo    *Buffer
	dead   bool
}

// NewVertexArray implements gfx.Device.
func (d *Device) NewVertexArray(layout gfx.VertexLayout, vbo gfx.Buffer) (gfx.VertexArray, error) {
	if d.destroyed {
		return nil, gfx.ErrDestroyed
	}
	b, ok := vbo.(*Buffer)
	if !ok || b.dev != d {
		return nil, fmt.Errorf("wgpu: vertex array needs a buffer from this device, got %T", vbo)
	}
	if b.kind != gfx.VertexBuffer {
		return nil, fmt.Errorf("wgpu: vertex array bound to a %s buffer", kindName(b.kind))
	}
	vl, err := vertexBufferLayout(layout)
	if err != nil {
		return nil, err
	}
	return &VertexArray{dev: d, layout: vl, key: layoutKey(vl), vbo: b}, nil
}

func (v *VertexArray) Bind() { v.dev.vao = v }

func (v *VertexArray) Unbind() {
	if v.dev.vao == v {
		v.dev.vao = nil
	}
}

func (v *VertexArray) Destroy() {
	v.dead = true
	v.Unbind()
}

func vertexFormat(f gfx.AttribFormat) (gputypes.VertexFormat, bool) {
	switch f {
	case gfx.Float32:
		return gputypes.VertexFormatFloat32, true
	case gfx.Float32x2:
		return gputypes.VertexFormatFloat32x2, true
	case gfx.Float32x3:
		return gputypes.VertexFormatFloat32x3, true
	case gfx.Unorm8x4:
		return gputypes.VertexFormatUnorm8x4, true
	default:
		return gputypes.VertexFormatUndefined, false
	}
}

func vertexBufferLayout(l gfx.VertexLayout) (gputypes.VertexBufferLayout, error) {
	if l.Stride <= 0 || len(l.Attribs) == 0 {
		return gputypes.VertexBufferLayout{}, fmt.Errorf("wgpu: empty vertex layout (stride %d)", l.Stride)
	}
	attrs := make([]gputypes.VertexAttribute, len(l.Attribs))
	for i, a := range l.Attribs {
		f, ok := vertexFormat(a.Format)
		if !ok {
			return gputypes.VertexBufferLayout{}, fmt.Errorf("wgpu: unsupported vertex format %d at location %d", a.Format, a.Location)
		}
		if a.Offset+a.Format.Size() > l.Stride {
			return gputypes.VertexBufferLayout{}, fmt.Errorf("wgpu: attribute %d overruns stride %d", a.Location, l.Stride)
		}
		attrs[i] = gputypes.VertexAttribute{
			Format:         f,
			Offset:         uint64(a.Offset),
			ShaderLocation: uint32(a.Location),
		}
	}
	return gputypes.VertexBufferLayout{
		ArrayStride: uint64(l.Stride),
		StepMode:    gputypes.VertexStepModeVertex,
		Attributes:  attrs,
	}, nil
}

// layoutKey identifies a vertex layout in a program's pipeline cache.
func layoutKey(l gputypes.VertexBufferLayout) string {
	key := fmt.Sprintf("%d", l.ArrayStride)
	for _, a := range l.Attributes {
		key += fmt.Sprintf(":%d/%d/%d", a.ShaderLocation, a.Format, a.Offset)
	}
	return key
}
