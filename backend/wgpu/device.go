package wgpu

import (
	"errors"
	"fmt"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"

	"github.com/gogpu/sprite"
	"github.com/gogpu/sprite/gfx"
)

// Errors returned by the wgpu backend.
var (
	// ErrNoAdapter is returned when an instance exposes no adapters.
	ErrNoAdapter = errors.New("wgpu: no adapter found")

	// ErrNotHAL is returned by FromProvider when the provider does not
	// expose hal.Device and hal.Queue.
	ErrNotHAL = errors.New("wgpu: provider does not expose HAL types")

	// ErrNotBound is returned by DrawIndexed when the program, vertex
	// array or index buffer is missing.
	ErrNotBound = errors.New("wgpu: draw without program, vertex array and index buffer bound")

	// ErrExternalTarget is returned by Resize when the device renders into
	// a caller-owned view.
	ErrExternalTarget = errors.New("wgpu: target view is owned by the caller")
)

// drawCmd is one recorded indexed draw, replayed at Flush.
type drawCmd struct {
	program      *Program
	vao          *VertexArray
	index        *Buffer
	image        *Image
	pipeline     hal.RenderPipeline
	first, count uint32
}

func (c *drawCmd) live() bool {
	return !c.program.dead && !c.vao.dead && !c.vao.vbo.dead && !c.index.dead && !c.image.dead
}

// submission is a command buffer the GPU may still be executing.
type submission struct {
	index uint64
	cmd   hal.CommandBuffer
}

// retired is a GPU object released by the caller while a submission may
// still reference it. It is freed once the queue passes after.
type retired struct {
	after uint64
	free  func()
}

// Device is a gfx.Device on gogpu/wgpu HAL.
//
// Draw calls are recorded and replayed in a single render pass on Flush.
// Buffer uploads, image uploads and uniform writes go through the queue
// immediately and are therefore visible to every draw of the next Flush.
// The render target is cleared by the first Flush after creation or after
// Clear; later flushes load the previous contents.
//
// Resources created by a Device must be destroyed before the Device.
// A Device must only be used from one goroutine.
type Device struct {
	instance hal.Instance
	device   hal.Device
	queue    hal.Queue
	info     gputypes.AdapterInfo
	external bool // true when the HAL device belongs to someone else

	label         string
	format        gputypes.TextureFormat
	width, height uint32

	target     hal.Texture
	targetView hal.TextureView
	ownsTarget bool

	uniformLayout hal.BindGroupLayout
	textureLayout hal.BindGroupLayout
	pipeLayout    hal.PipelineLayout
	samplers      map[gfx.Filters]hal.Sampler
	white         *Image

	program *Program
	vao     *VertexArray
	index   *Buffer
	image   *Image

	cmds       []drawCmd
	clearColor gputypes.Color
	clearNext  bool

	lastSubmit uint64
	inflight   []submission
	garbage    []retired
	destroyed  bool
}

var _ gfx.Device = (*Device)(nil)

// Open creates an instance on backend, picks an adapter and opens a
// device with an offscreen render target.
func Open(backend hal.Backend, opts ...Option) (*Device, error) {
	if backend == nil {
		return nil, errors.New("wgpu: nil backend")
	}
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}

	instance, err := backend.CreateInstance(&hal.InstanceDescriptor{Flags: 0})
	if err != nil {
		return nil, fmt.Errorf("wgpu: create %s instance: %w", backend.Variant(), err)
	}
	adapters := instance.EnumerateAdapters(nil)
	if len(adapters) == 0 {
		instance.Destroy()
		return nil, fmt.Errorf("%w on %s", ErrNoAdapter, backend.Variant())
	}
	selected := selectAdapter(adapters, o.preferLowPower)

	openDev, err := selected.Adapter.Open(gputypes.Features(0), gputypes.DefaultLimits())
	if err != nil {
		instance.Destroy()
		return nil, fmt.Errorf("wgpu: open device on %s: %w", selected.Info.Name, err)
	}

	d := newDevice(openDev.Device, openDev.Queue, o)
	d.instance = instance
	d.info = selected.Info
	if err := d.init(o); err != nil {
		d.Destroy()
		return nil, err
	}
	sprite.Logger().Info("wgpu: device opened",
		"adapter", selected.Info.Name,
		"backend", selected.Info.Backend,
		"type", selected.Info.DeviceType,
		"target", fmt.Sprintf("%dx%d", d.width, d.height))
	return d, nil
}

// FromHAL wraps a device and queue owned by the caller. Destroy releases
// only the objects this package created.
func FromHAL(device hal.Device, queue hal.Queue, opts ...Option) (*Device, error) {
	if device == nil || queue == nil {
		return nil, fmt.Errorf("%w: nil device or queue", ErrNotHAL)
	}
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}

	d := newDevice(device, queue, o)
	d.external = true
	if err := d.init(o); err != nil {
		d.Destroy()
		return nil, err
	}
	sprite.Logger().Info("wgpu: using shared device", "target", fmt.Sprintf("%dx%d", d.width, d.height))
	return d, nil
}

// FromProvider adopts the GPU device of an external provider, such as a
// gpucontext.DeviceProvider. The provider must implement HalDevice() any
// and HalQueue() any returning hal.Device and hal.Queue.
func FromProvider(provider any, opts ...Option) (*Device, error) {
	type halProvider interface {
		HalDevice() any
		HalQueue() any
	}
	hp, ok := provider.(halProvider)
	if !ok {
		return nil, ErrNotHAL
	}
	device, ok := hp.HalDevice().(hal.Device)
	if !ok || device == nil {
		return nil, fmt.Errorf("%w: HalDevice is %T", ErrNotHAL, hp.HalDevice())
	}
	queue, ok := hp.HalQueue().(hal.Queue)
	if !ok || queue == nil {
		return nil, fmt.Errorf("%w: HalQueue is %T", ErrNotHAL, hp.HalQueue())
	}
	return FromHAL(device, queue, opts...)
}

func newDevice(device hal.Device, queue hal.Queue, o options) *Device {
	return &Device{
		device:    device,
		queue:     queue,
		label:     o.label,
		format:    o.format,
		width:     o.width,
		height:    o.height,
		samplers:  make(map[gfx.Filters]hal.Sampler),
		clearNext: true,
	}
}

// selectAdapter prefers a discrete GPU, or an integrated one when
// lowPower is set, and falls back to the first adapter.
func selectAdapter(adapters []hal.ExposedAdapter, lowPower bool) *hal.ExposedAdapter {
	order := []gputypes.DeviceType{gputypes.DeviceTypeDiscreteGPU, gputypes.DeviceTypeIntegratedGPU}
	if lowPower {
		order[0], order[1] = order[1], order[0]
	}
	for _, want := range order {
		for i := range adapters {
			if adapters[i].Info.DeviceType == want {
				return &adapters[i]
			}
		}
	}
	return &adapters[0]
}

func (d *Device) init(o options) error {
	if err := d.createLayouts(); err != nil {
		return err
	}
	if o.view != nil {
		d.targetView = o.view
	} else if err := d.createTarget(); err != nil {
		return err
	}

	white, err := d.newImage(gfx.ImageDesc{
		Label:  "white",
		Width:  1,
		Height: 1,
		Pixels: []byte{0xff, 0xff, 0xff, 0xff},
	})
	if err != nil {
		return fmt.Errorf("wgpu: create white image: %w", err)
	}
	d.white = white
	return nil
}

// createLayouts builds the two bind group layouts every quad program
// shares:
//
//	group 0, binding 0: projection uniform (vertex)
//	group 1, binding 0: texture_2d<f32> (fragment)
//	group 1, binding 1: filtering sampler (fragment)
func (d *Device) createLayouts() error {
	uniformLayout, err := d.device.CreateBindGroupLayout(&hal.BindGroupLayoutDescriptor{
		Label: d.label + "_uniform_layout",
		Entries: []gputypes.BindGroupLayoutEntry{
			{
				Binding:    0,
				Visibility: gputypes.ShaderStageVertex,
				Buffer:     &gputypes.BufferBindingLayout{Type: gputypes.BufferBindingTypeUniform},
			},
		},
	})
	if err != nil {
		return fmt.Errorf("wgpu: create uniform layout: %w", err)
	}
	d.uniformLayout = uniformLayout

	textureLayout, err := d.device.CreateBindGroupLayout(&hal.BindGroupLayoutDescriptor{
		Label: d.label + "_texture_layout",
		Entries: []gputypes.BindGroupLayoutEntry{
			{
				Binding:    0,
				Visibility: gputypes.ShaderStageFragment,
				Texture: &gputypes.TextureBindingLayout{
					SampleType:    gputypes.TextureSampleTypeFloat,
					ViewDimension: gputypes.TextureViewDimension2D,
				},
			},
			{
				Binding:    1,
				Visibility: gputypes.ShaderStageFragment,
				Sampler:    &gputypes.SamplerBindingLayout{Type: gputypes.SamplerBindingTypeFiltering},
			},
		},
	})
	if err != nil {
		return fmt.Errorf("wgpu: create texture layout: %w", err)
	}
	d.textureLayout = textureLayout

	pipeLayout, err := d.device.CreatePipelineLayout(&hal.PipelineLayoutDescriptor{
		Label:            d.label + "_pipe_layout",
		BindGroupLayouts: []hal.BindGroupLayout{d.uniformLayout, d.textureLayout},
	})
	if err != nil {
		return fmt.Errorf("wgpu: create pipeline layout: %w", err)
	}
	d.pipeLayout = pipeLayout
	return nil
}

func (d *Device) createTarget() error {
	tex, err := d.device.CreateTexture(&hal.TextureDescriptor{
		Label:         d.label + "_target",
		Size:          hal.Extent3D{Width: d.width, Height: d.height, DepthOrArrayLayers: 1},
		MipLevelCount: 1,
		SampleCount:   1,
		Dimension:     gputypes.TextureDimension2D,
		Format:        d.format,
		Usage: gputypes.TextureUsageRenderAttachment |
			gputypes.TextureUsageCopySrc |
			gputypes.TextureUsageTextureBinding,
	})
	if err != nil {
		return fmt.Errorf("wgpu: create %dx%d target: %w", d.width, d.height, err)
	}
	view, err := d.device.CreateTextureView(tex, &hal.TextureViewDescriptor{
		Label:         d.label + "_target_view",
		Format:        d.format,
		Dimension:     gputypes.TextureViewDimension2D,
		Aspect:        gputypes.TextureAspectAll,
		MipLevelCount: 1,
	})
	if err != nil {
		d.device.DestroyTexture(tex)
		return fmt.Errorf("wgpu: create target view: %w", err)
	}
	d.target = tex
	d.targetView = view
	d.ownsTarget = true
	return nil
}

func (d *Device) destroyTarget() {
	if !d.ownsTarget {
		d.targetView = nil
		return
	}
	view, tex := d.targetView, d.target
	d.retire(func() {
		if view != nil {
			d.device.DestroyTextureView(view)
		}
		if tex != nil {
			d.device.DestroyTexture(tex)
		}
	})
	d.target, d.targetView, d.ownsTarget = nil, nil, false
}

// sampler returns the shared sampler for f, creating it on first use.
func (d *Device) sampler(f gfx.Filters) (hal.Sampler, error) {
	if s, ok := d.samplers[f]; ok {
		return s, nil
	}
	s, err := d.device.CreateSampler(&hal.SamplerDescriptor{
		Label:        fmt.Sprintf("%s_sampler_%d%d", d.label, f.Min, f.Mag),
		AddressModeU: gputypes.AddressModeClampToEdge,
		AddressModeV: gputypes.AddressModeClampToEdge,
		AddressModeW: gputypes.AddressModeClampToEdge,
		MagFilter:    filterMode(f.Mag),
		MinFilter:    filterMode(f.Min),
		MipmapFilter: gputypes.FilterModeNearest,
	})
	if err != nil {
		return nil, fmt.Errorf("wgpu: create sampler: %w", err)
	}
	d.samplers[f] = s
	return s, nil
}

func filterMode(f gfx.Filter) gputypes.FilterMode {
	if f == gfx.FilterLinear {
		return gputypes.FilterModeLinear
	}
	return gputypes.FilterModeNearest
}

// Info returns the adapter the device was opened on. It is zero for
// devices adopted with FromHAL or FromProvider.
func (d *Device) Info() gputypes.AdapterInfo { return d.info }

// HalDevice returns the underlying hal.Device so other gogpu libraries can
// share it.
func (d *Device) HalDevice() any { return d.device }

// HalQueue returns the underlying hal.Queue.
func (d *Device) HalQueue() any { return d.queue }

// Format returns the render target format.
func (d *Device) Format() gputypes.TextureFormat { return d.format }

// Size returns the render target size in pixels.
func (d *Device) Size() (width, height int) { return int(d.width), int(d.height) }

// Target returns the render target. The texture is nil when rendering into
// a caller-owned view.
func (d *Device) Target() (hal.Texture, hal.TextureView) { return d.target, d.targetView }

// Pending returns the number of draws recorded since the last Flush.
func (d *Device) Pending() int { return len(d.cmds) }

// InFlight returns the number of submitted command buffers not yet known
// to be complete.
func (d *Device) InFlight() int { return len(d.inflight) }

// Clear makes the next Flush clear the target to c before drawing.
func (d *Device) Clear(c sprite.Color) {
	r, g, b, a := c.ComponentsF()
	d.clearColor = gputypes.Color{R: float64(r), G: float64(g), B: float64(b), A: float64(a)}
	d.clearNext = true
}

// Resize flushes pending draws and replaces the offscreen target with one
// of the given size. The new target is cleared by the next Flush.
func (d *Device) Resize(width, height int) error {
	if d.destroyed {
		return gfx.ErrDestroyed
	}
	if !d.ownsTarget {
		return ErrExternalTarget
	}
	if width <= 0 || height <= 0 {
		return fmt.Errorf("wgpu: invalid target size %dx%d", width, height)
	}
	if uint32(width) == d.width && uint32(height) == d.height {
		return nil
	}
	if err := d.Flush(); err != nil {
		return err
	}
	d.destroyTarget()
	d.width, d.height = uint32(width), uint32(height)
	if err := d.createTarget(); err != nil {
		return err
	}
	d.clearNext = true
	sprite.Logger().Debug("wgpu: target resized", "width", width, "height", height)
	return nil
}

// SetTargetView flushes pending draws and renders into view from now on.
// Use it to present into a new surface texture every frame. The view must
// have the device's format; the device never destroys it.
func (d *Device) SetTargetView(view hal.TextureView, width, height int) error {
	if d.destroyed {
		return gfx.ErrDestroyed
	}
	if view == nil || width <= 0 || height <= 0 {
		return fmt.Errorf("wgpu: invalid target view %dx%d", width, height)
	}
	if err := d.Flush(); err != nil {
		return err
	}
	d.destroyTarget()
	d.targetView = view
	d.width, d.height = uint32(width), uint32(height)
	return nil
}

// DrawIndexed records an indexed draw with the bound state. The pipeline
// for the bound program and vertex layout is created on first use, so
// pipeline errors surface here rather than at Flush.
func (d *Device) DrawIndexed(first, count int) error {
	if d.destroyed {
		return gfx.ErrDestroyed
	}
	if d.program == nil || d.vao == nil || d.index == nil {
		return fmt.Errorf("%w: program=%t vao=%t ibo=%t", ErrNotBound,
			d.program != nil, d.vao != nil, d.index != nil)
	}
	if first < 0 || count < 0 {
		return fmt.Errorf("wgpu: invalid draw range first=%d count=%d", first, count)
	}
	if count == 0 {
		return nil
	}
	if indices := d.index.Len() / 4; first+count > indices {
		return fmt.Errorf("wgpu: draw range %d+%d exceeds index buffer of %d indices", first, count, indices)
	}

	pipeline, err := d.program.pipeline(d.vao)
	if err != nil {
		return err
	}
	img := d.image
	if img == nil || img.dead {
		img = d.white
	}
	d.cmds = append(d.cmds, drawCmd{
		program:  d.program,
		vao:      d.vao,
		index:    d.index,
		image:    img,
		pipeline: pipeline,
		first:    uint32(first),
		count:    uint32(count),
	})
	return nil
}

// Flush encodes the recorded draws into one render pass and submits it.
// Flush does not wait for the GPU.
func (d *Device) Flush() error {
	if d.destroyed {
		return gfx.ErrDestroyed
	}
	d.reclaim()
	if len(d.cmds) == 0 && !d.clearNext {
		return nil
	}
	defer func() {
		clear(d.cmds)
		d.cmds = d.cmds[:0]
	}()

	encoder, err := d.device.CreateCommandEncoder(&hal.CommandEncoderDescriptor{
		Label: d.label + "_encoder",
	})
	if err != nil {
		return fmt.Errorf("wgpu: create command encoder: %w", err)
	}
	if err := encoder.BeginEncoding(d.label + "_frame"); err != nil {
		return fmt.Errorf("wgpu: begin encoding: %w", err)
	}

	load := gputypes.LoadOpLoad
	if d.clearNext {
		load = gputypes.LoadOpClear
	}
	pass := encoder.BeginRenderPass(&hal.RenderPassDescriptor{
		Label: d.label + "_pass",
		ColorAttachments: []hal.RenderPassColorAttachment{
			{
				View:       d.targetView,
				LoadOp:     load,
				StoreOp:    gputypes.StoreOpStore,
				ClearValue: d.clearColor,
			},
		},
	})
	d.encode(pass)
	pass.End()

	cmdBuf, err := encoder.EndEncoding()
	if err != nil {
		return fmt.Errorf("wgpu: end encoding: %w", err)
	}
	index, err := d.queue.Submit([]hal.CommandBuffer{cmdBuf})
	if err != nil {
		d.device.FreeCommandBuffer(cmdBuf)
		return fmt.Errorf("wgpu: submit: %w", err)
	}
	d.lastSubmit = index
	d.inflight = append(d.inflight, submission{index: index, cmd: cmdBuf})
	d.clearNext = false
	return nil
}

// encode replays the recorded draws, skipping state that did not change
// between consecutive draws and draws whose resources were destroyed.
func (d *Device) encode(pass hal.RenderPassEncoder) {
	var (
		pipeline hal.RenderPipeline
		program  *Program
		vertex   hal.Buffer
		index    hal.Buffer
		image    *Image
	)
	for i := range d.cmds {
		c := &d.cmds[i]
		if !c.live() {
			sprite.Logger().Warn("wgpu: dropping draw with destroyed resources", "first", c.first, "count", c.count)
			continue
		}
		if c.pipeline != pipeline {
			pass.SetPipeline(c.pipeline)
			pipeline = c.pipeline
		}
		if c.program != program {
			pass.SetBindGroup(0, c.program.group, nil)
			program = c.program
		}
		if vb := c.vao.vbo.buf; vb != vertex {
			pass.SetVertexBuffer(0, vb, 0)
			vertex = vb
		}
		if ib := c.index.buf; ib != index {
			pass.SetIndexBuffer(ib, gputypes.IndexFormatUint32, 0)
			index = ib
		}
		if c.image != image {
			pass.SetBindGroup(1, c.image.group, nil)
			image = c.image
		}
		pass.DrawIndexed(c.count, 1, c.first, 0, 0)
	}
}

// retire schedules free to run once every submission made so far has
// completed.
func (d *Device) retire(free func()) {
	d.garbage = append(d.garbage, retired{after: d.lastSubmit, free: free})
}

// reclaim frees command buffers and retired objects the GPU is done with.
func (d *Device) reclaim() {
	done := d.queue.PollCompleted()

	n := 0
	for _, s := range d.inflight {
		if s.index <= done {
			d.device.FreeCommandBuffer(s.cmd)
			continue
		}
		d.inflight[n] = s
		n++
	}
	clear(d.inflight[n:])
	d.inflight = d.inflight[:n]

	n = 0
	for _, g := range d.garbage {
		if g.after <= done {
			g.free()
			continue
		}
		d.garbage[n] = g
		n++
	}
	clear(d.garbage[n:])
	d.garbage = d.garbage[:n]
}

// Destroy waits for the GPU, then releases the device's own objects in
// reverse creation order. A device adopted with FromHAL or FromProvider is
// left open.
func (d *Device) Destroy() {
	if d.destroyed {
		return
	}

	if err := d.device.WaitIdle(); err != nil {
		sprite.Logger().Warn("wgpu: wait idle failed", "err", err)
	}
	d.cmds = nil
	d.program, d.vao, d.index, d.image = nil, nil, nil, nil

	for _, s := range d.inflight {
		d.device.FreeCommandBuffer(s.cmd)
	}
	d.inflight = nil

	if d.white != nil {
		d.white.Destroy()
		d.white = nil
	}
	d.destroyTarget()
	for _, g := range d.garbage {
		g.free()
	}
	d.garbage = nil
	d.destroyed = true

	for f, s := range d.samplers {
		d.device.DestroySampler(s)
		delete(d.samplers, f)
	}
	if d.pipeLayout != nil {
		d.device.DestroyPipelineLayout(d.pipeLayout)
		d.pipeLayout = nil
	}
	if d.textureLayout != nil {
		d.device.DestroyBindGroupLayout(d.textureLayout)
		d.textureLayout = nil
	}
	if d.uniformLayout != nil {
		d.device.DestroyBindGroupLayout(d.uniformLayout)
		d.uniformLayout = nil
	}

	if d.external {
		return
	}
	d.device.Destroy()
	if d.instance != nil {
		d.instance.Destroy()
		d.instance = nil
	}
}
