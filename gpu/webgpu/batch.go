package webgpu

import (
	"fmt"
	"log"
	"strings"

	"github.com/Carmen-Shannon/oxy-draw/common"
	"github.com/Carmen-Shannon/oxy-draw/gpu"
	"github.com/cogentcore/webgpu/wgpu"
)

// wgpuBatch is the geometry batch implementation: staged vertex/index data,
// its vertex layout, and the primitive topology. GPU buffers are created on
// first draw. Procedural batches carry no buffers at all; their vertex shader
// generates geometry from the vertex index.
type wgpuBatch struct {
	backend *wgpuBackendImpl
	name    string

	vertexData []byte
	indexData  []uint32
	stride     uint64
	attributes []wgpu.VertexAttribute
	vertexLen  uint32
	topology   gpu.PrimitiveType
	procedural bool

	vertexBuffer *wgpu.Buffer
	indexBuffer  *wgpu.Buffer
	initialized  bool
	layoutKey    string
}

var _ gpu.Batch = &wgpuBatch{}

func (bt *wgpuBatch) Name() string {
	return bt.name
}

func (bt *wgpuBatch) VertexLen() uint32 {
	return bt.vertexLen
}

func (bt *wgpuBatch) Initialized() bool {
	return bt.initialized
}

func (bt *wgpuBatch) Draw(sh gpu.Shader, instanceLen, vertexLen, vertexFirst, resourceID uint32) {
	if !bt.ensureBuffers() {
		return
	}
	bt.backend.batchDraw(bt, sh, instanceLen, vertexLen, vertexFirst, resourceID)
}

func (bt *wgpuBatch) DrawIndirect(sh gpu.Shader, buf gpu.StorageBuffer, offset uint64) {
	if !bt.ensureBuffers() {
		return
	}
	bt.backend.batchDrawIndirect(bt, sh, buf, 1, offset)
}

func (bt *wgpuBatch) MultiDrawIndirect(sh gpu.Shader, buf gpu.StorageBuffer, count int, offset uint64) {
	if !bt.ensureBuffers() {
		return
	}
	bt.backend.batchDrawIndirect(bt, sh, buf, count, offset)
}

// Indexed reports whether draws of this batch use the index buffer.
func (bt *wgpuBatch) Indexed() bool {
	return len(bt.indexData) > 0 || bt.indexBuffer != nil
}

// ensureBuffers uploads staged geometry on first use. Procedural batches have
// nothing to upload and are always ready.
func (bt *wgpuBatch) ensureBuffers() bool {
	if bt.initialized {
		return true
	}
	if bt.procedural || len(bt.vertexData) == 0 {
		bt.initialized = true
		return true
	}

	vb, err := bt.backend.device.CreateBuffer(&wgpu.BufferDescriptor{
		Label: bt.name + " vertex buffer",
		Size:  uint64(len(bt.vertexData)),
		Usage: wgpu.BufferUsageVertex | wgpu.BufferUsageCopyDst,
	})
	if err != nil {
		log.Printf("[WGPUBackend] failed to create vertex buffer for batch %s: %v", bt.name, err)
		return false
	}
	bt.backend.queue.WriteBuffer(vb, 0, bt.vertexData)
	bt.vertexBuffer = vb

	if len(bt.indexData) > 0 {
		ib, ibErr := bt.backend.device.CreateBuffer(&wgpu.BufferDescriptor{
			Label: bt.name + " index buffer",
			Size:  uint64(len(bt.indexData) * 4),
			Usage: wgpu.BufferUsageIndex | wgpu.BufferUsageCopyDst,
		})
		if ibErr != nil {
			log.Printf("[WGPUBackend] failed to create index buffer for batch %s: %v", bt.name, ibErr)
			return false
		}
		bt.backend.queue.WriteBuffer(ib, 0, common.SliceToBytes(bt.indexData))
		bt.indexBuffer = ib
	}

	// Staged data is on the GPU now; drop the CPU copies.
	bt.vertexData = nil
	bt.initialized = true
	return true
}

// vertexBufferLayouts returns the pipeline vertex state for this batch, or
// nil for procedural batches.
func (bt *wgpuBatch) vertexBufferLayouts() []wgpu.VertexBufferLayout {
	if bt.procedural || bt.stride == 0 {
		return nil
	}
	return []wgpu.VertexBufferLayout{
		{
			ArrayStride: bt.stride,
			StepMode:    wgpu.VertexStepModeVertex,
			Attributes:  bt.attributes,
		},
	}
}

// pipelineLayoutKey identifies the batch's contribution to the render
// pipeline cache key: topology, indexedness, and vertex layout.
func (bt *wgpuBatch) pipelineLayoutKey() string {
	if bt.layoutKey == "" {
		var sb strings.Builder
		fmt.Fprintf(&sb, "t%d/i%t/s%d", bt.topology, bt.Indexed(), bt.stride)
		for _, a := range bt.attributes {
			fmt.Fprintf(&sb, "/%d:%d@%d", a.ShaderLocation, a.Format, a.Offset)
		}
		bt.layoutKey = sb.String()
	}
	return bt.layoutKey
}

// primitiveTopology maps the batch's primitive kind to the WebGPU topology.
func (bt *wgpuBatch) primitiveTopology() wgpu.PrimitiveTopology {
	switch bt.topology {
	case gpu.PrimitivePoints:
		return wgpu.PrimitiveTopologyPointList
	case gpu.PrimitiveLines:
		return wgpu.PrimitiveTopologyLineList
	case gpu.PrimitiveTriangleStrip:
		return wgpu.PrimitiveTopologyTriangleStrip
	default:
		return wgpu.PrimitiveTopologyTriangleList
	}
}
