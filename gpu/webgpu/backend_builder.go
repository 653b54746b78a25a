package webgpu

import (
	"github.com/cogentcore/webgpu/wgpu"
)

// BackendBuilderOption is a function that configures a backend instance during construction.
type BackendBuilderOption func(*wgpuBackendImpl)

// WithSurfaceDescriptor is an option builder that sets the presentation
// surface the backend renders to. Without one the backend renders offscreen,
// which suits compute-only and capture use.
//
// Parameters:
//   - descriptor: the platform surface descriptor, usually built from a window handle
//
// Returns:
//   - BackendBuilderOption: a function that applies the surface option to a backend
func WithSurfaceDescriptor(descriptor *wgpu.SurfaceDescriptor) BackendBuilderOption {
	return func(b *wgpuBackendImpl) {
		b.surfaceDescriptor = descriptor
	}
}

// WithForceFallbackAdapter is an option builder that forces the software
// fallback adapter, useful on machines without a usable GPU.
//
// Parameters:
//   - force: true to require the fallback adapter
//
// Returns:
//   - BackendBuilderOption: a function that applies the fallback option to a backend
func WithForceFallbackAdapter(force bool) BackendBuilderOption {
	return func(b *wgpuBackendImpl) {
		b.forceFallbackAdapter = force
	}
}

// WithVSync is an option builder that selects the presentation mode. VSync
// uses FIFO presentation; otherwise frames present immediately.
//
// Parameters:
//   - enabled: true for FIFO presentation
//
// Returns:
//   - BackendBuilderOption: a function that applies the present mode option to a backend
func WithVSync(enabled bool) BackendBuilderOption {
	return func(b *wgpuBackendImpl) {
		if enabled {
			b.presentMode = wgpu.PresentModeFifo
		} else {
			b.presentMode = wgpu.PresentModeImmediate
		}
	}
}
