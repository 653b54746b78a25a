package webgpu

import (
	"github.com/Carmen-Shannon/oxy-draw/gpu"
	"github.com/cogentcore/webgpu/wgpu"
)

// BatchBuilderOption is a function that configures a batch instance during construction.
type BatchBuilderOption func(*wgpuBatch)

// WithBatchName is an option builder that sets the batch's debug label.
//
// Parameters:
//   - name: the identifier for the batch
//
// Returns:
//   - BatchBuilderOption: a function that applies the name option to a batch
func WithBatchName(name string) BatchBuilderOption {
	return func(bt *wgpuBatch) {
		bt.name = name
	}
}

// WithVertexData is an option builder that stages interleaved vertex data and
// its layout. The vertex count is derived from the data size and stride.
//
// Parameters:
//   - data: the interleaved vertex bytes
//   - stride: bytes per vertex
//   - attributes: the vertex attribute layout
//
// Returns:
//   - BatchBuilderOption: a function that applies the vertex data option to a batch
func WithVertexData(data []byte, stride uint64, attributes []wgpu.VertexAttribute) BatchBuilderOption {
	return func(bt *wgpuBatch) {
		bt.vertexData = data
		bt.stride = stride
		bt.attributes = attributes
		if stride > 0 {
			bt.vertexLen = uint32(uint64(len(data)) / stride)
		}
	}
}

// WithIndexData is an option builder that stages 32-bit index data. Indexed
// batches draw their index count unless the caller overrides the vertex count.
//
// Parameters:
//   - indices: the index data
//
// Returns:
//   - BatchBuilderOption: a function that applies the index data option to a batch
func WithIndexData(indices []uint32) BatchBuilderOption {
	return func(bt *wgpuBatch) {
		bt.indexData = indices
		bt.vertexLen = uint32(len(indices))
	}
}

// WithTopology is an option builder that sets the primitive topology.
// Defaults to triangles.
//
// Parameters:
//   - topology: the primitive kind
//
// Returns:
//   - BatchBuilderOption: a function that applies the topology option to a batch
func WithTopology(topology gpu.PrimitiveType) BatchBuilderOption {
	return func(bt *wgpuBatch) {
		bt.topology = topology
	}
}
