package sprite

import (
	_ "embed"

	"github.com/gogpu/sprite/gfx"
)

//go:embed shaders/quad_cpu.wgsl
var cpuVertexShader string

//go:embed shaders/quad_gpu.wgsl
var gpuVertexShader string

//go:embed shaders/quad_frag.wgsl
var quadFragmentShader string

// ProjectionUniform is the name of the projection matrix uniform every
// quad program declares.
const ProjectionUniform = "UniProj"

// ProgramSource returns the built-in shader pair for kind.
func ProgramSource(kind RendererKind) gfx.ProgramSource {
	switch kind {
	case KindGPU:
		return gfx.ProgramSource{Label: "quad-gpu", Vertex: gpuVertexShader, Fragment: quadFragmentShader}
	default:
		return gfx.ProgramSource{Label: "quad-cpu", Vertex: cpuVertexShader, Fragment: quadFragmentShader}
	}
}
