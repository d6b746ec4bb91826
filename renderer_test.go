package sprite

import (
	"bytes"
	"encoding/binary"
	"errors"
	"math/rand/v2"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/gogpu/sprite/gfx"
	"github.com/gogpu/sprite/gfx/record"
)

func newTestRenderer(t *testing.T, dev *record.Device, kind RendererKind, opts ...RendererOption) *QuadRenderer {
	t.Helper()
	r, err := NewQuadRenderer(dev, kind, opts...)
	if err != nil {
		t.Fatalf("NewQuadRenderer: %v", err)
	}
	t.Cleanup(r.Close)
	return r
}

func newTestCamera() *Camera {
	c := NewCamera()
	c.SetViewportSize(SzU(640, 360))
	return c
}

func texturedQuad(tex *Texture) *Quad {
	q := NewQuad()
	q.SetTexture(tex)
	return &q
}

func sizedQuad(w, h float32) *Quad {
	q := NewQuad()
	q.SetSize(Sz(w, h))
	return &q
}

func TestRendererBatching(t *testing.T) {
	dev := record.New()
	r := newTestRenderer(t, dev, KindCPU)
	a := newTestTexture(t, dev, 8, 8)
	b := newTestTexture(t, dev, 8, 8)

	r.Add(texturedQuad(a))
	r.Add(texturedQuad(a.Sub(RU(0, 0, 4, 4))))
	r.Add(texturedQuad(b))
	r.Add(texturedQuad(b))
	r.Add(texturedQuad(a))

	want := []Batch{
		{Texture: a, Start: 0, Count: 2},
		{Texture: b, Start: 2, Count: 2},
		{Texture: a, Start: 4, Count: 1},
	}
	got := r.Batches()
	if len(got) != len(want) {
		t.Fatalf("got %d batches, want %d", len(got), len(want))
	}
	for i := range want {
		if !got[i].Texture.Equal(want[i].Texture) || got[i].Start != want[i].Start || got[i].Count != want[i].Count {
			t.Errorf("batch %d = {%p %d %d}, want {%p %d %d}", i,
				got[i].Texture, got[i].Start, got[i].Count, want[i].Texture, want[i].Start, want[i].Count)
		}
	}
	if r.Len() != 5 {
		t.Errorf("Len() = %d, want 5", r.Len())
	}
}

func TestRendererUntexturedBatch(t *testing.T) {
	r := newTestRenderer(t, record.New(), KindCPU)
	r.Add(sizedQuad(1, 1))
	r.Add(sizedQuad(2, 2))

	want := []Batch{{Texture: nil, Start: 0, Count: 2}}
	if diff := cmp.Diff(want, r.Batches(), cmp.Comparer(func(x, y *Texture) bool { return x.Equal(y) })); diff != "" {
		t.Errorf("Batches() mismatch (-want +got):\n%s", diff)
	}
}

func TestRendererSkipsSizelessQuad(t *testing.T) {
	r := newTestRenderer(t, record.New(), KindCPU)
	q := NewQuad()
	r.Add(&q)
	if r.Len() != 0 || len(r.Batches()) != 0 {
		t.Errorf("sizeless quad was queued: len=%d batches=%d", r.Len(), len(r.Batches()))
	}
}

func TestRendererAddCopiesQuad(t *testing.T) {
	r := newTestRenderer(t, record.New(), KindCPU)
	q := sizedQuad(1, 1)
	r.Add(q)
	q.SetPos(Pt(100, 100))
	if r.quads[0].Pos() != (Point{}) {
		t.Errorf("queued quad follows later edits: %+v", r.quads[0].Pos())
	}
}

func TestRendererDraw(t *testing.T) {
	dev := record.New()
	r := newTestRenderer(t, dev, KindCPU)
	a := newTestTexture(t, dev, 4, 4)
	b := newTestTexture(t, dev, 4, 4)
	cam := newTestCamera()

	r.Add(texturedQuad(a))
	r.Add(texturedQuad(a))
	r.Add(texturedQuad(b))
	r.Add(sizedQuad(2, 2))
	dev.Reset()

	if err := r.Draw(cam); err != nil {
		t.Fatalf("Draw: %v", err)
	}

	type draw struct {
		First, Count int
		Image        *record.Image
	}
	var got []draw
	for _, d := range dev.Draws {
		got = append(got, draw{d.First, d.Count, d.Image})
	}
	want := []draw{
		{0, 12, a.Image().(*record.Image)},
		{12, 6, b.Image().(*record.Image)},
		{18, 6, r.white.(*record.Image)},
	}
	if len(got) != len(want) {
		t.Fatalf("got %d draws, want %d", len(got), len(want))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("draw %d = {%d %d image %d}, want {%d %d image %d}", i,
				got[i].First, got[i].Count, got[i].Image.ID, want[i].First, want[i].Count, want[i].Image.ID)
		}
	}

	vbo := r.vbo.(*record.Buffer)
	if len(vbo.Data) != 4*4*CPUVertexSize {
		t.Errorf("vertex upload = %d bytes, want %d", len(vbo.Data), 4*4*CPUVertexSize)
	}
	if vbo.Usage != gfx.UsageStream {
		t.Errorf("vertex usage = %v, want stream", vbo.Usage)
	}

	prog := r.program.(*record.Program)
	if got := Mat4(prog.Values[ProjectionUniform]); got != cam.Projection() {
		t.Errorf("projection uniform = %v, want %v", got, cam.Projection())
	}

	if p, vao, ibo, img := dev.Bound(); p != nil || vao != nil || ibo != nil || img != nil {
		t.Errorf("Draw left state bound: program=%v vao=%v ibo=%v image=%v", p != nil, vao != nil, ibo != nil, img != nil)
	}
	if n := dev.Count(record.CallUnbindImage); n != 1 {
		t.Errorf("image unbinds = %d, want 1", n)
	}
	if dev.Count(record.CallFlush) != 1 {
		t.Errorf("flushes = %d, want 1", dev.Count(record.CallFlush))
	}

	if r.Len() != 0 || len(r.Batches()) != 0 {
		t.Errorf("renderer not empty after Draw: len=%d batches=%d", r.Len(), len(r.Batches()))
	}
	if st := r.LastStats(); st.Quads != 4 || st.Batches != 3 || st.DrawCalls != 3 {
		t.Errorf("LastStats() = %+v", st)
	}
}

func TestRendererDrawEmpty(t *testing.T) {
	dev := record.New()
	r := newTestRenderer(t, dev, KindGPU)
	if err := r.Draw(newTestCamera()); err != nil {
		t.Fatalf("Draw: %v", err)
	}
	if len(dev.Draws) != 0 {
		t.Errorf("empty Draw issued %d draw calls", len(dev.Draws))
	}
}

func TestRendererDrawWithoutProjectionPanics(t *testing.T) {
	r := newTestRenderer(t, record.New(), KindCPU)
	r.Add(sizedQuad(1, 1))
	defer func() {
		if recover() == nil {
			t.Error("Draw with an unsized camera did not panic")
		}
	}()
	_ = r.Draw(NewCamera())
}

func TestRendererDrawUploadError(t *testing.T) {
	dev := record.New()
	r := newTestRenderer(t, dev, KindCPU)
	r.Add(sizedQuad(1, 1))

	boom := errors.New("boom")
	dev.UploadErr = boom
	if err := r.Draw(newTestCamera()); !errors.Is(err, boom) {
		t.Fatalf("Draw error = %v, want %v", err, boom)
	}
	if r.Len() != 0 {
		t.Errorf("queued quads survived a failed Draw: %d", r.Len())
	}
}

func TestRendererDrawError(t *testing.T) {
	dev := record.New()
	r := newTestRenderer(t, dev, KindCPU)
	r.Add(sizedQuad(1, 1))

	boom := errors.New("lost device")
	dev.DrawErr = boom
	if err := r.Draw(newTestCamera()); !errors.Is(err, boom) {
		t.Fatalf("Draw error = %v, want %v", err, boom)
	}
	if p, vao, ibo, _ := dev.Bound(); p != nil || vao != nil || ibo != nil {
		t.Error("failed Draw left state bound")
	}
}

func TestRendererIndexBufferGrowth(t *testing.T) {
	dev := record.New()
	r := newTestRenderer(t, dev, KindCPU, WithIndexCapacity(4))
	ibo := r.ibo.(*record.Buffer)
	cam := newTestCamera()

	tests := []struct {
		quads       int
		wantCap     int
		wantUploads int
	}{
		{5, 5, 2},
		{3, 5, 2},
		{10, 10, 3},
		{2, 10, 3},
	}
	for _, tt := range tests {
		for range tt.quads {
			r.Add(sizedQuad(1, 1))
		}
		if err := r.Draw(cam); err != nil {
			t.Fatalf("Draw(%d quads): %v", tt.quads, err)
		}
		if r.IndexCapacity() != tt.wantCap {
			t.Errorf("after %d quads: IndexCapacity() = %d, want %d", tt.quads, r.IndexCapacity(), tt.wantCap)
		}
		if ibo.Uploads != tt.wantUploads {
			t.Errorf("after %d quads: index uploads = %d, want %d", tt.quads, ibo.Uploads, tt.wantUploads)
		}
		if len(ibo.Data) != tt.wantCap*6*4 {
			t.Errorf("after %d quads: index bytes = %d, want %d", tt.quads, len(ibo.Data), tt.wantCap*6*4)
		}
	}
}

func TestQuadIndices(t *testing.T) {
	b := QuadIndices(2)
	got := make([]uint32, len(b)/4)
	for i := range got {
		got[i] = binary.LittleEndian.Uint32(b[i*4:])
	}
	want := []uint32{0, 1, 2, 2, 1, 3, 4, 5, 6, 6, 5, 7}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("QuadIndices(2) mismatch (-want +got):\n%s", diff)
	}
	if len(QuadIndices(0)) != 0 {
		t.Error("QuadIndices(0) is not empty")
	}
}

func randomQuads(n int, tex *Texture) []Quad {
	rng := rand.New(rand.NewPCG(7, 11))
	quads := make([]Quad, n)
	for i := range quads {
		q := NewQuad()
		if i%3 == 0 {
			q.SetTexture(tex)
		} else {
			q.SetSize(Sz(1+rng.Float32()*32, 1+rng.Float32()*32))
		}
		q.SetPos(Pt(rng.Float32()*640, rng.Float32()*360))
		q.SetRot(Rad(rng.Float32() * 6))
		q.SetScale(Scaling{0.5 + rng.Float32(), 0.5 + rng.Float32()})
		q.SetOrigin(Pt(rng.Float32()*4, rng.Float32()*4))
		q.SetColor(RandomColor(rng))
		quads[i] = q
	}
	return quads
}

func TestRendererParallelMatchesSequential(t *testing.T) {
	for _, kind := range []RendererKind{KindCPU, KindGPU} {
		t.Run(kind.String(), func(t *testing.T) {
			dev := record.New()
			tex := newTestTexture(t, dev, 16, 16)
			quads := randomQuads(1000, tex)
			cam := newTestCamera()

			vertices := func(parallel bool) []byte {
				r := newTestRenderer(t, dev, kind, WithParallel(parallel), WithWorkers(4), WithMinChunk(16))
				for i := range quads {
					r.Add(&quads[i])
				}
				if err := r.Draw(cam); err != nil {
					t.Fatalf("Draw: %v", err)
				}
				return bytes.Clone(r.vbo.(*record.Buffer).Data)
			}

			seq := vertices(false)
			par := vertices(true)
			if len(seq) != 1000*4*kind.VertexSize() {
				t.Fatalf("sequential upload = %d bytes", len(seq))
			}
			if !bytes.Equal(seq, par) {
				t.Error("parallel vertex bytes differ from sequential")
			}
		})
	}
}

func TestRendererSetParallel(t *testing.T) {
	r := newTestRenderer(t, record.New(), KindGPU, WithParallel(false))
	if r.Parallel() {
		t.Fatal("WithParallel(false) ignored")
	}
	r.SetParallel(true)
	if !r.Parallel() {
		t.Error("SetParallel(true) ignored")
	}
	if r.Kind() != KindGPU {
		t.Errorf("Kind() = %v", r.Kind())
	}
}

func TestNewQuadRendererErrors(t *testing.T) {
	if _, err := NewQuadRenderer(nil, KindCPU); !errors.Is(err, ErrNoDevice) {
		t.Errorf("nil device: err = %v, want ErrNoDevice", err)
	}

	_, err := NewQuadRenderer(record.New(), KindCPU, WithProgramSource(gfx.ProgramSource{
		Vertex:   "garbage",
		Fragment: "@fragment fn fs_main() {}",
	}))
	var pe *gfx.ProgramError
	if !errors.As(err, &pe) || pe.Stage != "vertex" {
		t.Errorf("bad vertex stage: err = %v, want vertex ProgramError", err)
	}
	if !IsProgramError(err) {
		t.Error("IsProgramError = false")
	}

	_, err = NewQuadRenderer(record.New(), KindCPU, WithProgramSource(gfx.ProgramSource{
		Vertex:   "@vertex fn vs_main() {}",
		Fragment: "@fragment fn fs_main() {}",
	}))
	if !errors.Is(err, ErrUniformNotFound) {
		t.Errorf("missing uniform: err = %v, want ErrUniformNotFound", err)
	}
}

func TestRendererClose(t *testing.T) {
	dev := record.New()
	r, err := NewQuadRenderer(dev, KindCPU)
	if err != nil {
		t.Fatal(err)
	}
	vbo := r.vbo.(*record.Buffer)
	r.Close()
	r.Close()

	if !vbo.Dead {
		t.Error("vertex buffer not destroyed")
	}
	if err := r.Draw(newTestCamera()); !errors.Is(err, ErrRendererClosed) {
		t.Errorf("Draw after Close: err = %v, want ErrRendererClosed", err)
	}
}
