// Package backend selects the graphics device a QuadRenderer draws through.
//
// Backends register a Factory under a name from init() and are opened at
// runtime by name or by priority. The recording device is registered by
// this package; the GPU backends register when backend/wgpu is imported:
//
//	import _ "github.com/gogpu/sprite/backend/wgpu"
//
// # Backend Selection
//
// Use Default to open the best available device, or Get to request one by
// name:
//
//	dev, name, err := backend.Default()
//	if err != nil {
//		log.Fatal(err)
//	}
//	defer dev.Destroy()
//
//	dev, err = backend.Get("software")
//
// # Available Backends
//
//   - "wgpu": hardware adapter through gogpu/wgpu (Vulkan, Metal or DX12)
//   - "software": the wgpu CPU rasterizer, no GPU required
//   - "record": no rendering, records calls (always available)
package backend
