package sprite

import (
	"encoding/binary"
	"math"

	"github.com/gogpu/sprite/gfx"
)

// CPUVertex is a vertex already transformed to world space.
//
// Layout (24 bytes): pos vec3<f32>, color unorm8x4, uv vec2<f32>.
type CPUVertex struct {
	Pos   [3]float32
	Color uint32
	U, V  float32
}

// GPUVertex carries a local corner position plus the quad's raw transform,
// repeated on all four vertices; the vertex shader rebuilds the matrix.
//
// Layout (48 bytes): translation vec2<f32>, rotation f32, scale vec2<f32>,
// origin vec2<f32>, position vec2<f32>, color unorm8x4, uv vec2<f32>.
type GPUVertex struct {
	TX, TY float32
	Rot    float32
	SX, SY float32
	OX, OY float32
	PX, PY float32
	Color  uint32
	U, V   float32
}

// Vertex record sizes in bytes.
const (
	CPUVertexSize = 24
	GPUVertexSize = 48
)

// CPUVertexLayout matches CPUVertex and the CPU quad shader inputs.
var CPUVertexLayout = gfx.Layout(gfx.Float32x3, gfx.Unorm8x4, gfx.Float32x2)

// GPUVertexLayout matches GPUVertex and the GPU quad shader inputs.
var GPUVertexLayout = gfx.Layout(
	gfx.Float32x2, // translation
	gfx.Float32,   // rotation
	gfx.Float32x2, // scale
	gfx.Float32x2, // origin
	gfx.Float32x2, // position
	gfx.Unorm8x4,  // color
	gfx.Float32x2, // uv
)

func putF32(b []byte, v float32) {
	binary.LittleEndian.PutUint32(b, math.Float32bits(v))
}

// Put writes v into b, which must hold at least CPUVertexSize bytes.
func (v *CPUVertex) Put(b []byte) {
	_ = b[CPUVertexSize-1]
	putF32(b[0:], v.Pos[0])
	putF32(b[4:], v.Pos[1])
	putF32(b[8:], v.Pos[2])
	binary.LittleEndian.PutUint32(b[12:], v.Color)
	putF32(b[16:], v.U)
	putF32(b[20:], v.V)
}

// Put writes v into b, which must hold at least GPUVertexSize bytes.
func (v *GPUVertex) Put(b []byte) {
	_ = b[GPUVertexSize-1]
	putF32(b[0:], v.TX)
	putF32(b[4:], v.TY)
	putF32(b[8:], v.Rot)
	putF32(b[12:], v.SX)
	putF32(b[16:], v.SY)
	putF32(b[20:], v.OX)
	putF32(b[24:], v.OY)
	putF32(b[28:], v.PX)
	putF32(b[32:], v.PY)
	binary.LittleEndian.PutUint32(b[36:], v.Color)
	putF32(b[40:], v.U)
	putF32(b[44:], v.V)
}

// putCPUQuad encodes the four CPU vertices of q at the start of b.
func putCPUQuad(b []byte, q *Quad) {
	vs := q.CPUVertices()
	for i := range vs {
		vs[i].Put(b[i*CPUVertexSize:])
	}
}

// putGPUQuad encodes the four GPU vertices of q at the start of b.
func putGPUQuad(b []byte, q *Quad) {
	vs := q.GPUVertices()
	for i := range vs {
		vs[i].Put(b[i*GPUVertexSize:])
	}
}

// DecodeCPUVertex reads a CPUVertex from b.
func DecodeCPUVertex(b []byte) CPUVertex {
	f := func(o int) float32 { return math.Float32frombits(binary.LittleEndian.Uint32(b[o:])) }
	return CPUVertex{
		Pos:   [3]float32{f(0), f(4), f(8)},
		Color: binary.LittleEndian.Uint32(b[12:]),
		U:     f(16),
		V:     f(20),
	}
}
