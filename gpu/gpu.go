// Package gpu defines the contracts the draw-command recording system consumes
// from a GPU backend: shaders with name-based interface resolution, geometry
// batches, storage/uniform buffers, textures, and the backend operations needed
// to replay recorded commands. Implementations live in sub-packages (e.g. the
// WebGPU backend); tests use in-memory trace implementations.
package gpu

import (
	"github.com/Carmen-Shannon/oxy-draw/common"
)

// Shader is a compiled GPU shader exposing its binding interface by name.
// Resolution happens at record time; all lookups return -1 when the name is
// not part of the shader's interface.
type Shader interface {
	// Name returns the shader's debug identifier, used for markers and serialization.
	//
	// Returns:
	//   - string: the shader name
	Name() string

	// UniformLocation resolves a push-constant/uniform name to its location.
	//
	// Parameters:
	//   - name: the uniform variable name in the shader source
	//
	// Returns:
	//   - int: the uniform location, or -1 if the name is not found
	UniformLocation(name string) int

	// StorageBufferBinding resolves a storage buffer block name to its binding slot.
	//
	// Parameters:
	//   - name: the storage buffer block name in the shader source
	//
	// Returns:
	//   - int: the binding slot, or -1 if the name is not found
	StorageBufferBinding(name string) int

	// UniformBufferBinding resolves a uniform buffer block name to its binding slot.
	//
	// Parameters:
	//   - name: the uniform buffer block name in the shader source
	//
	// Returns:
	//   - int: the binding slot, or -1 if the name is not found
	UniformBufferBinding(name string) int

	// TextureBinding resolves a sampled texture name to its binding slot.
	//
	// Parameters:
	//   - name: the texture variable name in the shader source
	//
	// Returns:
	//   - int: the binding slot, or -1 if the name is not found
	TextureBinding(name string) int
}

// Batch is a drawable geometry batch (vertex/index buffers plus topology).
// The batch is owned by the caller of the recording API; recorded commands
// borrow it and replay against it at submission time.
type Batch interface {
	// Name returns the batch's debug identifier.
	//
	// Returns:
	//   - string: the batch name
	Name() string

	// VertexLen returns the number of vertices the batch draws when the caller
	// does not override the vertex count.
	//
	// Returns:
	//   - uint32: the batch's own vertex count
	VertexLen() uint32

	// Initialized reports whether the batch's GPU resources exist.
	//
	// Returns:
	//   - bool: true once the batch has been allocated on the GPU
	Initialized() bool

	// Indexed reports whether draws of this batch consume an index buffer.
	// Indirect draw records are laid out differently for indexed and
	// non-indexed draws; writers of DrawArgs records check this.
	//
	// Returns:
	//   - bool: true when the batch draws through an index buffer
	Indexed() bool

	// Draw issues one instanced draw of this batch using the given shader.
	//
	// Parameters:
	//   - sh: the currently bound shader
	//   - instanceLen: the number of instances to draw
	//   - vertexLen: the number of vertices to draw
	//   - vertexFirst: the first vertex index
	//   - resourceID: the object resource-table index instances pull data from
	Draw(sh Shader, instanceLen, vertexLen, vertexFirst, resourceID uint32)

	// DrawIndirect issues one indirect draw of this batch. The draw parameters
	// are read from buf on the GPU at execution time.
	//
	// Parameters:
	//   - sh: the currently bound shader
	//   - buf: the buffer holding one DrawArgs record
	//   - offset: byte offset of the record within buf
	DrawIndirect(sh Shader, buf StorageBuffer, offset uint64)

	// MultiDrawIndirect issues count consecutive indirect draws of this batch
	// from buf, starting at the given byte offset.
	//
	// Parameters:
	//   - sh: the currently bound shader
	//   - buf: the buffer holding count consecutive DrawArgs records
	//   - count: the number of draw records to execute
	//   - offset: byte offset of the first record within buf
	MultiDrawIndirect(sh Shader, buf StorageBuffer, count int, offset uint64)
}

// StorageBuffer is a GPU storage (read/write) buffer handle.
type StorageBuffer interface {
	// Name returns the buffer's debug identifier.
	//
	// Returns:
	//   - string: the buffer name
	Name() string

	// Len returns the buffer's current size in bytes.
	//
	// Returns:
	//   - int: the size in bytes
	Len() int

	// Initialized reports whether the buffer's GPU storage exists.
	//
	// Returns:
	//   - bool: true once the buffer has been allocated on the GPU
	Initialized() bool

	// Bind binds the buffer to a storage buffer slot.
	//
	// Parameters:
	//   - slot: the binding slot
	Bind(slot int)

	// Update replaces the buffer contents, growing the buffer if needed.
	//
	// Parameters:
	//   - data: the new contents
	Update(data []byte)
}

// UniformBuffer is a GPU uniform (read-only, std140-style) buffer handle.
type UniformBuffer interface {
	// Name returns the buffer's debug identifier.
	//
	// Returns:
	//   - string: the buffer name
	Name() string

	// Initialized reports whether the buffer's GPU storage exists.
	//
	// Returns:
	//   - bool: true once the buffer has been allocated on the GPU
	Initialized() bool

	// Bind binds the buffer to a uniform buffer slot.
	//
	// Parameters:
	//   - slot: the binding slot
	Bind(slot int)

	// Update replaces the buffer contents.
	//
	// Parameters:
	//   - data: the new contents
	Update(data []byte)
}

// Texture is a GPU texture handle. Residency is managed externally (see the
// draw manager's AcquireTexture); recorded commands assume the texture is
// resident by submission time.
type Texture interface {
	// Name returns the texture's debug identifier.
	//
	// Returns:
	//   - string: the texture name
	Name() string

	// Initialized reports whether the texture's GPU storage exists.
	//
	// Returns:
	//   - bool: true once the texture has been allocated on the GPU
	Initialized() bool

	// Allocate creates the texture's GPU storage and uploads any staged pixel
	// data. Calling Allocate on an initialized texture is a no-op.
	//
	// Returns:
	//   - error: an error if allocation or upload fails
	Allocate() error

	// Bind binds the texture to a sampled texture slot with the given sampler.
	//
	// Parameters:
	//   - slot: the binding slot
	//   - sampler: the sampler state to sample with
	Bind(slot int, sampler SamplerState)
}

// Backend exposes the GPU operations the replay path needs beyond what the
// individual resource handles cover: pipeline state, clears, barriers,
// dispatches, uniform updates, resource creation, and debug markers.
// Replay runs single-threaded on the thread that owns the GPU context.
type Backend interface {
	// ShaderBind makes sh the active shader for subsequent draws and dispatches.
	//
	// Parameters:
	//   - sh: the shader to bind
	ShaderBind(sh Shader)

	// StateSet applies the fixed-function pipeline state described by state.
	//
	// Parameters:
	//   - state: the raster/depth/blend state bits to apply
	StateSet(state State)

	// StencilSet sets the stencil write mask, reference value, and compare mask.
	// These are independent of StateSet and persist until changed.
	//
	// Parameters:
	//   - writeMask: bits of the stencil buffer writes may touch
	//   - reference: the stencil reference value
	//   - compareMask: bits included in the stencil comparison
	StencilSet(writeMask, reference, compareMask uint8)

	// Clear clears the selected planes of the current frame-buffer.
	//
	// Parameters:
	//   - planes: which planes (color/depth/stencil) to clear
	//   - color: the clear color
	//   - depth: the clear depth value
	//   - stencil: the clear stencil value
	Clear(planes FrameBufferBits, color common.Float4, depth float32, stencil uint8)

	// Barrier inserts a memory/execution barrier between prior and subsequent
	// load/store operations. No automatic barrier insertion happens anywhere;
	// ordering across hazards is the recording caller's responsibility.
	//
	// Parameters:
	//   - barrier: the barrier type bits
	Barrier(barrier BarrierType)

	// Dispatch dispatches compute work on the active shader.
	//
	// Parameters:
	//   - sh: the currently bound compute shader
	//   - groups: the workgroup counts in x, y, z
	Dispatch(sh Shader, groups common.Int3)

	// DispatchIndirect dispatches compute work whose group counts are read from
	// buf on the GPU at execution time.
	//
	// Parameters:
	//   - sh: the currently bound compute shader
	//   - buf: the buffer holding one DispatchArgs record
	DispatchIndirect(sh Shader, buf StorageBuffer)

	// UniformFloat updates a float uniform (scalar, vector, matrix, or array)
	// at the given location of the shader.
	//
	// Parameters:
	//   - sh: the shader owning the uniform
	//   - location: the uniform location from Shader.UniformLocation
	//   - compLen: components per element (1, 2, 3, 4, or 16 for a 4x4 matrix)
	//   - arrayLen: number of array elements
	//   - data: the flattened float data, compLen*arrayLen values
	UniformFloat(sh Shader, location, compLen, arrayLen int, data []float32)

	// UniformInt updates an int uniform (scalar, vector, or array) at the given
	// location of the shader.
	//
	// Parameters:
	//   - sh: the shader owning the uniform
	//   - location: the uniform location from Shader.UniformLocation
	//   - compLen: components per element (1, 2, 3, or 4)
	//   - arrayLen: number of array elements
	//   - data: the flattened int data, compLen*arrayLen values
	UniformInt(sh Shader, location, compLen, arrayLen int, data []int32)

	// NewStorageBuffer creates a storage buffer of the given size.
	//
	// Parameters:
	//   - label: debug label for the buffer
	//   - size: initial size in bytes
	//
	// Returns:
	//   - StorageBuffer: the new buffer
	NewStorageBuffer(label string, size int) StorageBuffer

	// NewUniformBuffer creates a uniform buffer of the given size.
	//
	// Parameters:
	//   - label: debug label for the buffer
	//   - size: size in bytes
	//
	// Returns:
	//   - UniformBuffer: the new buffer
	NewUniformBuffer(label string, size int) UniformBuffer

	// ProceduralBatch returns a shared batch that sources no vertex data and
	// generates primitive geometry procedurally in the vertex shader.
	//
	// Parameters:
	//   - prim: the primitive kind
	//
	// Returns:
	//   - Batch: the shared procedural batch for prim
	ProceduralBatch(prim PrimitiveType) Batch

	// DebugGroupBegin opens a named debug marker region in the GPU command stream.
	//
	// Parameters:
	//   - name: the marker region name
	DebugGroupBegin(name string)

	// DebugGroupEnd closes the innermost debug marker region.
	DebugGroupEnd()
}
