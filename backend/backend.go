package backend

import (
	"errors"

	"github.com/gogpu/sprite/gfx"
)

// Backend name constants.
const (
	// BackendWGPU renders on a hardware adapter through gogpu/wgpu.
	BackendWGPU = "wgpu"
	// BackendSoftware runs the same wgpu device on the CPU rasterizer.
	BackendSoftware = "software"
	// BackendRecord performs no rendering and records calls.
	BackendRecord = "record"
)

// Common backend errors.
var (
	// ErrBackendNotAvailable is returned when a requested backend is not
	// registered or none of the registered backends could open a device.
	ErrBackendNotAvailable = errors.New("backend: not available")

	// ErrNilFactory is returned by Get when a backend was registered with a
	// nil factory.
	ErrNilFactory = errors.New("backend: nil factory")
)

// Factory opens a new device. Each call returns an independent device that
// the caller must Destroy.
type Factory func() (gfx.Device, error)
