// Package wgpu provides a GPU gfx.Device using gogpu/wgpu.
//
// The device talks to the WebGPU HAL directly: gogpu/wgpu supports Vulkan,
// Metal, DX12 and GLES depending on the platform, plus a CPU rasterizer
// that needs no GPU at all. Shaders are WGSL and are validated with
// gogpu/naga before the HAL sees them, so compile errors carry naga's
// diagnostic regardless of the backend.
//
// # Architecture Overview
//
// The gfx contract is bind/operate/unbind. The device keeps the bound
// program, vertex array, index buffer and image, and DrawIndexed records
// a draw with that state. Flush replays every recorded draw in one render
// pass:
//
//	Bind* -> DrawIndexed (record) -> Flush (encode pass, submit)
//
// Key components:
//
//   - Device: adapter selection, render target, bind group layouts,
//     sampler cache, draw recording and submission
//   - Program: vertex and fragment modules, the projection uniform block
//     and one render pipeline per vertex layout
//   - Buffer: vertex or index data, grown to the next power of two
//   - Image: RGBA8 texture, view and its texture+sampler bind group
//
// Bind groups follow the quad shaders:
//
//	group 0, binding 0: var<uniform> UniProj (vertex)
//	group 1, binding 0: texture_2d<f32>      (fragment)
//	group 1, binding 1: sampler              (fragment)
//
// # Backend Registration
//
// Importing this package registers two backends with the backend
// registry:
//
//	import _ "github.com/gogpu/sprite/backend/wgpu"
//
//	dev, err := backend.Get("wgpu")     // hardware adapter
//	dev, err = backend.Get("software")  // CPU rasterizer
//
// # Sharing a Device
//
// FromProvider adopts the device of a host application that exposes
// HalDevice() and HalQueue(), and SetTargetView points rendering at the
// surface texture acquired for each frame.
//
// # Resource Lifetime
//
// Objects the caller destroys while a submission may still use them are
// kept until the queue reports that submission complete. Destroy waits
// for the GPU to go idle.
package wgpu
