package sprite

import (
	"encoding/binary"
	"errors"
	"fmt"

	"github.com/gogpu/sprite/gfx"
	"github.com/gogpu/sprite/internal/parallel"
)

// RendererKind selects where quad transforms are computed.
type RendererKind uint8

const (
	// KindCPU transforms corners on the CPU and uploads world positions.
	KindCPU RendererKind = iota
	// KindGPU uploads local corners plus raw transform parameters and
	// lets the vertex shader build the matrix.
	KindGPU
)

func (k RendererKind) String() string {
	switch k {
	case KindCPU:
		return "cpu"
	case KindGPU:
		return "gpu"
	default:
		return fmt.Sprintf("RendererKind(%d)", uint8(k))
	}
}

// VertexSize returns the size of one vertex record in bytes.
func (k RendererKind) VertexSize() int {
	if k == KindGPU {
		return GPUVertexSize
	}
	return CPUVertexSize
}

// Layout returns the vertex layout for k.
func (k RendererKind) Layout() gfx.VertexLayout {
	if k == KindGPU {
		return GPUVertexLayout
	}
	return CPUVertexLayout
}

// Batch is a contiguous run of queued quads sharing one texture, drawn with
// a single indexed draw call. A nil Texture means untextured.
type Batch struct {
	Texture *Texture
	Start   int
	Count   int
}

// Stats describes the last Draw.
type Stats struct {
	Quads         int
	Batches       int
	DrawCalls     int
	IndexUploaded bool
}

// Index buffer layout: two triangles per quad.
const (
	verticesPerQuad = 4
	indicesPerQuad  = 6
)

// QuadRenderer batches quads by texture, encodes them into vertices and
// draws them through a camera's projection.
//
// Each frame the caller Adds quads and then calls Draw once. Draw uploads
// the vertices, grows the shared index buffer if needed, issues one draw
// call per batch and leaves the renderer empty for the next frame.
//
// A QuadRenderer must only be used from the goroutine that owns its
// device. The optional worker pool is internal to Draw.
type QuadRenderer struct {
	kind RendererKind
	dev  gfx.Device

	program gfx.Program
	proj    gfx.Uniform
	vbo     gfx.Buffer
	vao     gfx.VertexArray
	ibo     gfx.Buffer
	// white is bound for untextured batches.
	white gfx.Image

	// iboQuads is the number of quads the index buffer covers. It only
	// grows.
	iboQuads int

	quads   []Quad
	batches []Batch

	parallel bool
	workers  int
	minChunk int
	pool     *parallel.WorkerPool

	vertices []byte
	stats    Stats
	closed   bool
}

// NewQuadRenderer compiles the program for kind and allocates the vertex
// and index buffers on dev. Shader compile failures are returned as
// *gfx.ProgramError.
func NewQuadRenderer(dev gfx.Device, kind RendererKind, opts ...RendererOption) (*QuadRenderer, error) {
	if dev == nil {
		return nil, ErrNoDevice
	}

	o := defaultRendererOptions()
	for _, opt := range opts {
		opt(&o)
	}

	r := &QuadRenderer{
		kind:     kind,
		dev:      dev,
		parallel: o.parallel,
		workers:  o.workers,
		minChunk: o.minChunk,
	}
	if err := r.init(o); err != nil {
		r.Close()
		return nil, err
	}
	return r, nil
}

func (r *QuadRenderer) init(o rendererOptions) error {
	src := ProgramSource(r.kind)
	if o.source != nil {
		src = *o.source
	}

	var err error
	if r.program, err = r.dev.CompileProgram(src); err != nil {
		return fmt.Errorf("compile %s quad program: %w", r.kind, err)
	}
	if r.proj, err = r.program.Uniform(ProjectionUniform); err != nil {
		return fmt.Errorf("%w: %s: %w", ErrUniformNotFound, ProjectionUniform, err)
	}
	if r.vbo, err = r.dev.NewBuffer(gfx.VertexBuffer, gfx.UsageStream); err != nil {
		return fmt.Errorf("create vertex buffer: %w", err)
	}
	if r.vao, err = r.dev.NewVertexArray(r.kind.Layout(), r.vbo); err != nil {
		return fmt.Errorf("create vertex array: %w", err)
	}
	if r.ibo, err = r.dev.NewBuffer(gfx.IndexBuffer, gfx.UsageStatic); err != nil {
		return fmt.Errorf("create index buffer: %w", err)
	}
	if r.white, err = r.dev.NewImage(gfx.ImageDesc{
		Label:  "sprite-white",
		Width:  1,
		Height: 1,
		Pixels: []byte{0xff, 0xff, 0xff, 0xff},
	}); err != nil {
		return fmt.Errorf("create white image: %w", err)
	}
	if o.indexCapacity > 0 {
		if err := r.resizeIndices(o.indexCapacity); err != nil {
			return err
		}
	}
	return nil
}

// Kind returns the vertex encoding.
func (r *QuadRenderer) Kind() RendererKind { return r.kind }

// Parallel reports whether vertex generation runs on the worker pool.
func (r *QuadRenderer) Parallel() bool { return r.parallel }

// SetParallel toggles parallel vertex generation. The vertex encoding is
// unaffected.
func (r *QuadRenderer) SetParallel(enabled bool) { r.parallel = enabled }

// Len returns the number of queued quads.
func (r *QuadRenderer) Len() int { return len(r.quads) }

// IndexCapacity returns how many quads the index buffer covers.
func (r *QuadRenderer) IndexCapacity() int { return r.iboQuads }

// Batches returns a copy of the current batch list.
func (r *QuadRenderer) Batches() []Batch {
	return append([]Batch(nil), r.batches...)
}

// LastStats describes the most recent Draw.
func (r *QuadRenderer) LastStats() Stats { return r.stats }

// Add queues a copy of q. Quads without a resolvable size are skipped.
//
// The quad joins the last batch when its texture equals that batch's
// texture; otherwise it starts a new batch. Earlier batches are never
// reopened, so textures A, B, A produce three batches.
func (r *QuadRenderer) Add(q *Quad) {
	if !q.HasSize() {
		return
	}

	start := len(r.quads)
	r.quads = append(r.quads, *q)

	if n := len(r.batches); n > 0 && r.batches[n-1].Texture.Equal(q.texture) {
		r.batches[n-1].Count++
		return
	}
	r.batches = append(r.batches, Batch{Texture: q.texture, Start: start, Count: 1})
}

// Clear drops all queued quads and batches.
func (r *QuadRenderer) Clear() {
	clear(r.quads)
	r.quads = r.quads[:0]
	clear(r.batches)
	r.batches = r.batches[:0]
}

// Draw renders every queued quad through cam and empties the renderer.
//
// Draw panics if cam has no projection. Backend failures are returned;
// the queued quads are dropped either way.
func (r *QuadRenderer) Draw(cam *Camera) error {
	if r.closed {
		return ErrRendererClosed
	}
	proj := cam.Projection()
	defer r.Clear()

	n := len(r.quads)
	r.stats = Stats{Quads: n, Batches: len(r.batches)}

	if err := r.vbo.Upload(r.buildVertices(), gfx.UsageStream); err != nil {
		return fmt.Errorf("upload vertices: %w", err)
	}
	if err := r.fitIndices(n); err != nil {
		return err
	}

	r.program.Bind()
	r.proj.SetMat4(proj)
	r.vao.Bind()
	r.ibo.Bind()

	err := r.drawBatches()

	r.ibo.Unbind()
	r.vao.Unbind()
	r.program.Unbind()

	if err != nil {
		return err
	}
	if err := r.dev.Flush(); err != nil {
		return fmt.Errorf("flush: %w", err)
	}

	Logger().Debug("sprite: frame drawn", "kind", r.kind, "quads", n,
		"batches", r.stats.Batches, "indexQuads", r.iboQuads)
	return nil
}

// drawBatches issues one draw per batch and leaves no image bound.
func (r *QuadRenderer) drawBatches() error {
	var bound gfx.Image
	defer func() {
		if bound != nil {
			bound.Unbind()
		}
	}()
	for _, b := range r.batches {
		bound = r.white
		if b.Texture != nil {
			bound = b.Texture.Image()
		}
		bound.Bind()
		if err := r.dev.DrawIndexed(b.Start*indicesPerQuad, b.Count*indicesPerQuad); err != nil {
			return fmt.Errorf("draw batch at %d: %w", b.Start, err)
		}
		r.stats.DrawCalls++
	}
	return nil
}

// buildVertices encodes every queued quad into the scratch buffer. Quad i
// always lands at offset i*4*stride, so the parallel path produces the
// same bytes as the sequential one.
func (r *QuadRenderer) buildVertices() []byte {
	quadBytes := verticesPerQuad * r.kind.VertexSize()
	size := len(r.quads) * quadBytes
	if cap(r.vertices) < size {
		r.vertices = make([]byte, size)
	}
	buf := r.vertices[:size]

	put := putCPUQuad
	if r.kind == KindGPU {
		put = putGPUQuad
	}

	encode := func(lo, hi int) {
		for i := lo; i < hi; i++ {
			put(buf[i*quadBytes:], &r.quads[i])
		}
	}

	if r.parallel && len(r.quads) > r.minChunk {
		r.workerPool().ForRange(len(r.quads), r.minChunk, encode)
	} else {
		encode(0, len(r.quads))
	}
	return buf
}

func (r *QuadRenderer) workerPool() *parallel.WorkerPool {
	if r.pool == nil {
		r.pool = parallel.NewWorkerPool(r.workers)
	}
	return r.pool
}

// fitIndices grows the index buffer to cover n quads. It never shrinks
// and never re-uploads when the buffer is already large enough.
func (r *QuadRenderer) fitIndices(n int) error {
	if n <= r.iboQuads {
		return nil
	}
	return r.resizeIndices(n)
}

func (r *QuadRenderer) resizeIndices(n int) error {
	if err := r.ibo.Upload(QuadIndices(n), gfx.UsageStatic); err != nil {
		return fmt.Errorf("upload indices for %d quads: %w", n, err)
	}
	Logger().Debug("sprite: index buffer resized", "from", r.iboQuads, "to", n)
	r.iboQuads = n
	r.stats.IndexUploaded = true
	return nil
}

// QuadIndices returns little-endian uint32 indices for n quads, two
// triangles each: [i, i+1, i+2, i+2, i+1, i+3] for i = 0, 4, 8, ...
func QuadIndices(n int) []byte {
	out := make([]byte, n*indicesPerQuad*4)
	pattern := [indicesPerQuad]uint32{0, 1, 2, 2, 1, 3}
	o := 0
	for q := range n {
		base := uint32(q * verticesPerQuad)
		for _, p := range pattern {
			binary.LittleEndian.PutUint32(out[o:], base+p)
			o += 4
		}
	}
	return out
}

// Close releases the renderer's GPU resources and worker pool. Textures
// referenced by queued quads are not released.
func (r *QuadRenderer) Close() {
	if r.closed {
		return
	}
	r.closed = true
	r.Clear()

	if r.pool != nil {
		r.pool.Close()
		r.pool = nil
	}
	if r.white != nil {
		r.white.Destroy()
		r.white = nil
	}
	if r.ibo != nil {
		r.ibo.Destroy()
		r.ibo = nil
	}
	if r.vao != nil {
		r.vao.Destroy()
		r.vao = nil
	}
	if r.vbo != nil {
		r.vbo.Destroy()
		r.vbo = nil
	}
	if r.program != nil {
		r.program.Destroy()
		r.program = nil
	}
}

// IsProgramError reports whether err carries a shader diagnostic.
func IsProgramError(err error) bool {
	var pe *gfx.ProgramError
	return errors.As(err, &pe)
}
