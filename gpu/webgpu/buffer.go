package webgpu

import (
	"log"

	"github.com/Carmen-Shannon/oxy-draw/gpu"
	"github.com/cogentcore/webgpu/wgpu"
)

// wgpuStorageBuffer is the storage buffer implementation. Buffers carry the
// Indirect usage as well so the same buffer can feed indirect draws and
// dispatches without a copy.
type wgpuStorageBuffer struct {
	backend *wgpuBackendImpl
	name    string
	size    int
	buffer  *wgpu.Buffer
	id      uint64
}

var _ gpu.StorageBuffer = &wgpuStorageBuffer{}

func (sb *wgpuStorageBuffer) Name() string {
	return sb.name
}

func (sb *wgpuStorageBuffer) Len() int {
	return sb.size
}

func (sb *wgpuStorageBuffer) Initialized() bool {
	return sb.buffer != nil
}

func (sb *wgpuStorageBuffer) Bind(slot int) {
	sb.backend.bindBufferSlot(slot, slotBinding{
		kind:       bindingStorage,
		buffer:     sb.buffer,
		bufferID:   sb.id,
		bufferSize: uint64(sb.size),
	})
}

func (sb *wgpuStorageBuffer) Update(data []byte) {
	if sb.buffer == nil || len(data) > sb.size {
		sb.allocate(len(data))
	}
	if len(data) == 0 {
		return
	}
	sb.backend.queue.WriteBuffer(sb.buffer, 0, data)
}

// allocate creates or grows the GPU buffer. Growing replaces the buffer, so
// the identity is bumped and any cached bind group referencing the old buffer
// falls out of use through its cache key.
func (sb *wgpuStorageBuffer) allocate(size int) {
	if sb.buffer != nil {
		sb.buffer.Release()
		sb.buffer = nil
	}
	if size < 4 {
		size = 4
	}
	buffer, err := sb.backend.device.CreateBuffer(&wgpu.BufferDescriptor{
		Label: sb.name,
		Size:  uint64(size),
		Usage: wgpu.BufferUsageStorage | wgpu.BufferUsageCopyDst | wgpu.BufferUsageIndirect,
	})
	if err != nil {
		log.Printf("[WGPUBackend] failed to allocate storage buffer %s: %v", sb.name, err)
		return
	}
	sb.buffer = buffer
	sb.size = size
	sb.id = sb.backend.nextResourceID()
}

// wgpuUniformBuffer is the uniform buffer implementation.
type wgpuUniformBuffer struct {
	backend *wgpuBackendImpl
	name    string
	size    int
	buffer  *wgpu.Buffer
	id      uint64
}

var _ gpu.UniformBuffer = &wgpuUniformBuffer{}

func (ub *wgpuUniformBuffer) Name() string {
	return ub.name
}

func (ub *wgpuUniformBuffer) Initialized() bool {
	return ub.buffer != nil
}

func (ub *wgpuUniformBuffer) Bind(slot int) {
	ub.backend.bindBufferSlot(slot, slotBinding{
		kind:       bindingUniform,
		buffer:     ub.buffer,
		bufferID:   ub.id,
		bufferSize: uint64(ub.size),
	})
}

func (ub *wgpuUniformBuffer) Update(data []byte) {
	if ub.buffer == nil || len(data) > ub.size {
		ub.allocate(len(data))
	}
	if len(data) == 0 {
		return
	}
	ub.backend.queue.WriteBuffer(ub.buffer, 0, data)
}

func (ub *wgpuUniformBuffer) allocate(size int) {
	if ub.buffer != nil {
		ub.buffer.Release()
		ub.buffer = nil
	}
	if size < 4 {
		size = 4
	}
	buffer, err := ub.backend.device.CreateBuffer(&wgpu.BufferDescriptor{
		Label: ub.name,
		Size:  uint64(size),
		Usage: wgpu.BufferUsageUniform | wgpu.BufferUsageCopyDst,
	})
	if err != nil {
		log.Printf("[WGPUBackend] failed to allocate uniform buffer %s: %v", ub.name, err)
		return
	}
	ub.buffer = buffer
	ub.size = size
	ub.id = ub.backend.nextResourceID()
}
