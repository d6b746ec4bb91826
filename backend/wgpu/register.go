package wgpu

import (
	"fmt"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"
	"github.com/gogpu/wgpu/hal/software"

	"github.com/gogpu/sprite/backend"
	"github.com/gogpu/sprite/gfx"

	// Register the platform HAL backends (Vulkan, Metal, DX12, GLES).
	_ "github.com/gogpu/wgpu/hal/allbackends"
)

// hardwarePriority is the order hardware HAL backends are tried in.
var hardwarePriority = []gputypes.Backend{
	gputypes.BackendVulkan,
	gputypes.BackendMetal,
	gputypes.BackendDX12,
	gputypes.BackendGL,
}

// init registers the wgpu and software backends on package import.
func init() {
	backend.Register(backend.BackendWGPU, func() (gfx.Device, error) {
		return OpenHardware()
	})
	backend.Register(backend.BackendSoftware, func() (gfx.Device, error) {
		return OpenSoftware()
	})
}

// OpenHardware opens a device on the first hardware HAL backend that has
// an adapter, trying Vulkan, Metal, DX12 and GLES in that order.
func OpenHardware(opts ...Option) (*Device, error) {
	var lastErr error
	for _, variant := range hardwarePriority {
		b, ok := hal.GetBackend(variant)
		if !ok {
			continue
		}
		d, err := Open(b, opts...)
		if err == nil {
			return d, nil
		}
		lastErr = err
	}
	if lastErr == nil {
		lastErr = fmt.Errorf("%w: no hardware HAL backend registered", ErrNoAdapter)
	}
	return nil, lastErr
}

// OpenSoftware opens a device on the wgpu CPU rasterizer.
func OpenSoftware(opts ...Option) (*Device, error) {
	return Open(software.API{}, opts...)
}
