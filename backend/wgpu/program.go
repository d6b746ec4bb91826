package wgpu

import (
	"encoding/binary"
	"fmt"
	"math"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/naga"
	"github.com/gogpu/naga/ir"
	"github.com/gogpu/wgpu/hal"

	"github.com/gogpu/sprite"
	"github.com/gogpu/sprite/gfx"
)

// uniformSize is the size of the projection uniform block: one mat4x4<f32>.
const uniformSize = 64

// Program is a compiled vertex/fragment pair with its projection uniform
// buffer. Render pipelines are created per vertex layout on first draw.
type Program struct {
	dev       *Device
	label     string
	vertex    hal.ShaderModule
	fragment  hal.ShaderModule
	uniforms  map[string]bool
	ubuf      hal.Buffer
	group     hal.BindGroup
	pipelines map[string]hal.RenderPipeline
	dead      bool
}

// CompileProgram implements gfx.Device. Each stage is compiled with naga
// first so WGSL errors come back as *gfx.ProgramError with naga's
// diagnostic, independent of the HAL backend in use.
func (d *Device) CompileProgram(src gfx.ProgramSource) (gfx.Program, error) {
	if d.destroyed {
		return nil, gfx.ErrDestroyed
	}
	label := src.Label
	if label == "" {
		label = "program"
	}

	p := &Program{
		dev:       d,
		label:     d.label + "_" + label,
		uniforms:  make(map[string]bool),
		pipelines: make(map[string]hal.RenderPipeline),
	}
	var err error
	if p.vertex, err = p.compileStage("vertex", src.Vertex); err != nil {
		p.free()
		return nil, err
	}
	if p.fragment, err = p.compileStage("fragment", src.Fragment); err != nil {
		p.free()
		return nil, err
	}
	if err := p.createUniforms(); err != nil {
		p.free()
		return nil, err
	}
	sprite.Logger().Debug("wgpu: program compiled", "label", p.label, "uniforms", len(p.uniforms))
	return p, nil
}

// ValidateWGSL compiles a WGSL module with naga and reports the first
// error, or nil when the module is valid.
func ValidateWGSL(source string) error {
	_, err := lowerWGSL(source)
	return err
}

// lowerWGSL parses, lowers and validates source into naga IR.
func lowerWGSL(source string) (*ir.Module, error) {
	ast, err := naga.Parse(source)
	if err != nil {
		return nil, err
	}
	module, err := naga.LowerWithSource(ast, source)
	if err != nil {
		return nil, fmt.Errorf("lowering error: %w", err)
	}
	verrs, err := naga.Validate(module)
	if err != nil {
		return nil, fmt.Errorf("validation error: %w", err)
	}
	if len(verrs) > 0 {
		return nil, fmt.Errorf("validation failed: %w", &verrs[0])
	}
	return module, nil
}

// uniformNames returns the names of the module's var<uniform> globals.
func uniformNames(module *ir.Module) []string {
	var names []string
	for _, g := range module.GlobalVariables {
		if g.Space == ir.SpaceUniform && g.Name != "" {
			names = append(names, g.Name)
		}
	}
	return names
}

// compileStage validates one stage, records its uniforms and creates the
// HAL shader module.
func (p *Program) compileStage(stage, source string) (hal.ShaderModule, error) {
	if source == "" {
		return nil, &gfx.ProgramError{Stage: stage, Log: "empty source"}
	}
	mod, err := lowerWGSL(source)
	if err != nil {
		return nil, &gfx.ProgramError{Stage: stage, Log: err.Error(), Err: err}
	}
	for _, name := range uniformNames(mod) {
		p.uniforms[name] = true
	}
	module, err := p.dev.device.CreateShaderModule(&hal.ShaderModuleDescriptor{
		Label:  p.label + "_" + stage,
		Source: hal.ShaderSource{WGSL: source},
	})
	if err != nil {
		return nil, &gfx.ProgramError{Stage: stage, Log: err.Error(), Err: err}
	}
	return module, nil
}

func (p *Program) createUniforms() error {
	d := p.dev
	ubuf, err := d.device.CreateBuffer(&hal.BufferDescriptor{
		Label: p.label + "_uniforms",
		Size:  uniformSize,
		Usage: gputypes.BufferUsageUniform | gputypes.BufferUsageCopyDst,
	})
	if err != nil {
		return fmt.Errorf("wgpu: create uniform buffer: %w", err)
	}
	p.ubuf = ubuf

	group, err := d.device.CreateBindGroup(&hal.BindGroupDescriptor{
		Label:  p.label + "_uniform_group",
		Layout: d.uniformLayout,
		Entries: []gputypes.BindGroupEntry{
			{Binding: 0, Resource: gputypes.BufferBinding{Buffer: ubuf.NativeHandle(), Offset: 0, Size: uniformSize}},
		},
	})
	if err != nil {
		return fmt.Errorf("wgpu: create uniform bind group: %w", err)
	}
	p.group = group
	return nil
}

// pipeline returns the render pipeline for the vertex array's layout.
func (p *Program) pipeline(vao *VertexArray) (hal.RenderPipeline, error) {
	if rp, ok := p.pipelines[vao.key]; ok {
		return rp, nil
	}

	d := p.dev
	blend := gputypes.BlendStateAlpha()
	rp, err := d.device.CreateRenderPipeline(&hal.RenderPipelineDescriptor{
		Label:  p.label + "_pipeline",
		Layout: d.pipeLayout,
		Vertex: hal.VertexState{
			Module:     p.vertex,
			EntryPoint: gfx.VertexEntry,
			Buffers:    []gputypes.VertexBufferLayout{vao.layout},
		},
		Fragment: &hal.FragmentState{
			Module:     p.fragment,
			EntryPoint: gfx.FragmentEntry,
			Targets: []gputypes.ColorTargetState{
				{
					Format:    d.format,
					Blend:     &blend,
					WriteMask: gputypes.ColorWriteMaskAll,
				},
			},
		},
		Primitive: gputypes.PrimitiveState{
			Topology: gputypes.PrimitiveTopologyTriangleList,
			CullMode: gputypes.CullModeNone,
		},
		Multisample: gputypes.MultisampleState{
			Count: 1,
			Mask:  0xFFFFFFFF,
		},
	})
	if err != nil {
		return nil, &gfx.ProgramError{Stage: "link", Log: err.Error(), Err: err}
	}
	p.pipelines[vao.key] = rp
	return rp, nil
}

func (p *Program) Bind() { p.dev.program = p }

func (p *Program) Unbind() {
	if p.dev.program == p {
		p.dev.program = nil
	}
}

// Uniform returns the named uniform. Every uniform shares the program's
// single 64-byte block at group 0, binding 0.
func (p *Program) Uniform(name string) (gfx.Uniform, error) {
	if !p.uniforms[name] {
		return nil, fmt.Errorf("wgpu: uniform %q not declared in %s", name, p.label)
	}
	return &uniform{p: p, name: name}, nil
}

// free destroys the GPU objects immediately, in reverse creation order.
func (p *Program) free() {
	d := p.dev
	for key, rp := range p.pipelines {
		d.device.DestroyRenderPipeline(rp)
		delete(p.pipelines, key)
	}
	if p.group != nil {
		d.device.DestroyBindGroup(p.group)
		p.group = nil
	}
	if p.ubuf != nil {
		d.device.DestroyBuffer(p.ubuf)
		p.ubuf = nil
	}
	if p.fragment != nil {
		d.device.DestroyShaderModule(p.fragment)
		p.fragment = nil
	}
	if p.vertex != nil {
		d.device.DestroyShaderModule(p.vertex)
		p.vertex = nil
	}
}

func (p *Program) Destroy() {
	if p.dead {
		return
	}
	p.dead = true
	p.Unbind()
	if !p.dev.destroyed {
		p.dev.retire(p.free)
	}
}

type uniform struct {
	p    *Program
	name string
}

// SetMat4 writes m, column-major, to the uniform block. The write is
// visible to every draw of the next Flush.
func (u *uniform) SetMat4(m [16]float32) {
	if u.p.dead || u.p.dev.destroyed {
		return
	}
	var buf [uniformSize]byte
	for i, v := range m {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(v))
	}
	if err := u.p.dev.queue.WriteBuffer(u.p.ubuf, 0, buf[:]); err != nil {
		sprite.Logger().Warn("wgpu: uniform write failed", "uniform", u.name, "err", err)
	}
}
