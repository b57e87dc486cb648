package gpu

import (
	"errors"
	"fmt"

	"github.com/gogpu/gpucontext"
	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"
)

// Device errors.
var (
	// ErrNilDevice is returned when a nil device or queue is supplied.
	ErrNilDevice = errors.New("gpu: device and queue are required")

	// ErrNoHALAccess is returned when a device provider does not expose
	// raw wgpu/hal handles.
	ErrNoHALAccess = errors.New("gpu: device provider does not expose HAL handles")
)

// DeviceHandle provides GPU device access from the host application.
//
// The host (for example a gogpu.App) implements DeviceHandle and passes it
// to the text renderer, which shares the host's device instead of creating
// its own.
//
// DeviceHandle is an alias for gpucontext.DeviceProvider, keeping etext
// compatible with the gpucontext ecosystem.
type DeviceHandle = gpucontext.DeviceProvider

// Handles carries the raw wgpu/hal device handles the backend renders
// with, plus the surface format pipelines must target.
type Handles struct {
	Device        hal.Device
	Queue         hal.Queue
	SurfaceFormat gputypes.TextureFormat
}

// ExtractHAL resolves raw HAL handles from a device provider.
//
// The provider must additionally implement HalDevice() any and
// HalQueue() any returning hal.Device and hal.Queue, as gogpu providers
// do. Providers without HAL access cannot drive this backend.
func ExtractHAL(provider DeviceHandle) (Handles, error) {
	if provider == nil {
		return Handles{}, ErrNilDevice
	}

	hp, ok := provider.(interface {
		HalDevice() any
		HalQueue() any
	})
	if !ok {
		return Handles{}, ErrNoHALAccess
	}

	device, ok := hp.HalDevice().(hal.Device)
	if !ok || device == nil {
		return Handles{}, fmt.Errorf("%w: HalDevice is not hal.Device", ErrNoHALAccess)
	}
	queue, ok := hp.HalQueue().(hal.Queue)
	if !ok || queue == nil {
		return Handles{}, fmt.Errorf("%w: HalQueue is not hal.Queue", ErrNoHALAccess)
	}

	return Handles{
		Device:        device,
		Queue:         queue,
		SurfaceFormat: provider.SurfaceFormat(),
	}, nil
}
