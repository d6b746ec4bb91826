// Package sprite draws large numbers of textured 2D quads with as few draw
// calls as possible.
//
// # Overview
//
// A frame is built by adding quads to a QuadRenderer and drawing them
// through a Camera. Consecutive quads that share a texture are merged into
// one batch, and each batch is a single indexed draw call:
//
//	dev, _, err := backend.Default()
//	if err != nil {
//		log.Fatal(err)
//	}
//	defer dev.Destroy()
//
//	tex, _ := sprite.TextureFromCanvas(dev, canvas)
//	qr, _ := sprite.NewQuadRenderer(dev, sprite.KindCPU)
//	defer qr.Close()
//
//	cam := sprite.NewCamera()
//	cam.SetViewportSize(sprite.SzU(800, 600))
//
//	q := sprite.NewQuad()
//	q.SetTexture(tex)
//	q.SetPos(sprite.Pt(100, 100))
//
//	qr.Add(&q)
//	err = qr.Draw(cam)
//
// # Renderer Kinds
//
// KindCPU transforms the four corners of every quad on the CPU and uploads
// 24-byte vertices. KindGPU uploads 48-byte vertices carrying the local
// corner and the raw transform and builds the matrix in the vertex shader.
// Both kinds can spread vertex generation over a worker pool with
// WithParallel; the output bytes are identical either way.
//
// # Batching
//
// Batches only ever extend the most recent one. Textures A, A, B, A give
// three batches, so sort quads by texture when draw calls matter.
// Sub-textures share their root's GPU image and therefore batch with it.
//
// # Devices
//
// The renderer talks to the GPU through the narrow gfx.Device contract.
// Implementations live in backend/wgpu (gogpu/wgpu HAL, hardware or
// software rasterizer) and gfx/record (headless, for tests and CPU-side
// benchmarks). The backend package picks one by name or priority.
//
// # Coordinate System
//
//   - Origin (0,0) at the top-left of the viewport
//   - X increases right, Y increases down
//   - Rotation in radians, clockwise on screen
//
// # Logging
//
// The package is silent by default. SetLogger installs an slog.Logger that
// every sub-package shares.
package sprite
