package command

import (
	"fmt"

	"github.com/Carmen-Shannon/oxy-draw/common"
	"github.com/Carmen-Shannon/oxy-draw/gpu"
)

// NoCount is the sentinel for "use the batch's own count" in draw commands.
// It substitutes the batch vertex count for vertex length, 1 for instance
// length, and 0 for the first vertex.
const NoCount = ^uint32(0)

// ShaderBind records a shader bind. Executing it updates the replay state's
// interface context before forwarding to the backend.
type ShaderBind struct {
	Shader gpu.Shader
}

// Execute binds the shader and makes it the replay state's current shader.
//
// Parameters:
//   - state: the ambient replay state
func (c ShaderBind) Execute(state *RecordingState) {
	state.Shader = c.Shader
	state.Backend.ShaderBind(c.Shader)
}

// Serialize returns the command as a human-readable line.
//
// Returns:
//   - string: the serialized command
func (c ShaderBind) Serialize() string {
	return fmt.Sprintf(".shader_bind(%s)", c.Shader.Name())
}

// ResourceBindKind discriminates what a ResourceBind holds and whether the
// handle is dereferenced at record time (value) or replay time (ref).
type ResourceBindKind uint8

const (
	// BindStorageBuf binds a storage buffer captured at record time.
	BindStorageBuf ResourceBindKind = iota

	// BindUniformBuf binds a uniform buffer captured at record time.
	BindUniformBuf

	// BindTexture binds a texture captured at record time.
	BindTexture

	// BindStorageBufRef dereferences a storage buffer pointer at replay time,
	// allowing the buffer to be reallocated between record and submit.
	BindStorageBufRef

	// BindUniformBufRef dereferences a uniform buffer pointer at replay time.
	BindUniformBufRef

	// BindTextureRef dereferences a texture pointer at replay time.
	BindTextureRef
)

// ResourceBind records a resource bind to a numeric slot. The slot was
// resolved from a name against the shader interface at record time; if the
// interface changes between record and replay the binding is undefined.
type ResourceBind struct {
	Slot    int
	Kind    ResourceBindKind
	Sampler gpu.SamplerState

	StorageBuf    gpu.StorageBuffer
	UniformBuf    gpu.UniformBuffer
	Texture       gpu.Texture
	StorageBufRef *gpu.StorageBuffer
	UniformBufRef *gpu.UniformBuffer
	TextureRef    *gpu.Texture
}

// Execute binds the resource, dereferencing ref kinds now.
func (c ResourceBind) Execute() {
	switch c.Kind {
	case BindStorageBuf:
		c.StorageBuf.Bind(c.Slot)
	case BindUniformBuf:
		c.UniformBuf.Bind(c.Slot)
	case BindTexture:
		c.Texture.Bind(c.Slot, c.Sampler)
	case BindStorageBufRef:
		(*c.StorageBufRef).Bind(c.Slot)
	case BindUniformBufRef:
		(*c.UniformBufRef).Bind(c.Slot)
	case BindTextureRef:
		(*c.TextureRef).Bind(c.Slot, c.Sampler)
	}
}

// Serialize returns the command as a human-readable line.
//
// Returns:
//   - string: the serialized command
func (c ResourceBind) Serialize() string {
	switch c.Kind {
	case BindStorageBuf:
		return fmt.Sprintf(".bind_storage_buf(%d)", c.Slot)
	case BindUniformBuf:
		return fmt.Sprintf(".bind_uniform_buf(%d)", c.Slot)
	case BindTexture:
		return fmt.Sprintf(".bind_texture(%d)", c.Slot)
	case BindStorageBufRef:
		return fmt.Sprintf(".bind_storage_buf_ref(%d)", c.Slot)
	case BindUniformBufRef:
		return fmt.Sprintf(".bind_uniform_buf_ref(%d)", c.Slot)
	case BindTextureRef:
		return fmt.Sprintf(".bind_texture_ref(%d)", c.Slot)
	default:
		return ".bind(?)"
	}
}

// PushConstantTag discriminates the element type of a push constant and
// whether its data was captured by value at record time or is read through a
// borrowed slice at replay time.
type PushConstantTag uint8

const (
	// PushFloatValue holds float data copied at record time.
	PushFloatValue PushConstantTag = iota

	// PushIntValue holds int data copied at record time.
	PushIntValue

	// PushFloatRef reads float data through a borrowed slice at replay time.
	PushFloatRef

	// PushIntRef reads int data through a borrowed slice at replay time.
	PushIntRef
)

// PushConstant records one logical uniform update: a scalar, vector, matrix,
// or array of either. One recorded call always replays as exactly one update.
type PushConstant struct {
	Location int
	CompLen  int
	ArrayLen int
	Tag      PushConstantTag

	// Value storage for by-value variants. Float storage covers up to one
	// 4x4 matrix; int storage covers up to one 4-component vector.
	FloatValue [16]float32
	IntValue   [4]int32

	// Borrowed views for ref variants, dereferenced at replay time. The
	// backing memory must stay alive until submission.
	FloatRef []float32
	IntRef   []int32
}

// Execute applies the uniform update to the currently bound shader.
//
// Parameters:
//   - state: the ambient replay state; its Shader receives the update
func (c PushConstant) Execute(state *RecordingState) {
	switch c.Tag {
	case PushFloatValue:
		state.Backend.UniformFloat(state.Shader, c.Location, c.CompLen, c.ArrayLen, c.FloatValue[:c.CompLen*c.ArrayLen])
	case PushIntValue:
		state.Backend.UniformInt(state.Shader, c.Location, c.CompLen, c.ArrayLen, c.IntValue[:c.CompLen*c.ArrayLen])
	case PushFloatRef:
		state.Backend.UniformFloat(state.Shader, c.Location, c.CompLen, c.ArrayLen, c.FloatRef)
	case PushIntRef:
		state.Backend.UniformInt(state.Shader, c.Location, c.CompLen, c.ArrayLen, c.IntRef)
	}
}

// Serialize returns the command as a human-readable line.
//
// Returns:
//   - string: the serialized command
func (c PushConstant) Serialize() string {
	return fmt.Sprintf(".push_constant(%d, comp_len=%d, array_len=%d)", c.Location, c.CompLen, c.ArrayLen)
}

// Draw records one direct draw. Counts recorded as NoCount resolve against
// the batch (vertex length) or default to 1 instance / first vertex 0.
type Draw struct {
	Batch       gpu.Batch
	InstanceLen uint32
	VertexLen   uint32
	VertexFirst uint32
	Handle      ResourceHandle
}

// Execute resolves count sentinels and issues the draw.
//
// Parameters:
//   - state: the ambient replay state
func (c Draw) Execute(state *RecordingState) {
	instanceLen := c.InstanceLen
	if instanceLen == NoCount {
		instanceLen = max(state.InstanceLen, 1)
	}
	vertexLen := c.VertexLen
	if vertexLen == NoCount {
		vertexLen = c.Batch.VertexLen()
	}
	vertexFirst := c.VertexFirst
	if vertexFirst == NoCount {
		vertexFirst = 0
	}
	state.ResourceID = c.Handle.Index()
	c.Batch.Draw(state.Shader, instanceLen, vertexLen, vertexFirst, state.ResourceID)
}

// Serialize returns the command as a human-readable line.
//
// Returns:
//   - string: the serialized command
func (c Draw) Serialize() string {
	instanceLen := int64(-1)
	if c.InstanceLen != NoCount {
		instanceLen = int64(c.InstanceLen)
	}
	vertexLen := int64(-1)
	if c.VertexLen != NoCount {
		vertexLen = int64(c.VertexLen)
	}
	vertexFirst := int64(-1)
	if c.VertexFirst != NoCount {
		vertexFirst = int64(c.VertexFirst)
	}
	return fmt.Sprintf(".draw(inst_len=%d, vert_len=%d, vert_first=%d, res_id=%d)",
		instanceLen, vertexLen, vertexFirst, c.Handle.Index())
}

// DrawPrototype is one recorded draw awaiting conversion into an indirect
// record. Vertex count may still be the NoCount sentinel; it resolves against
// the batch when the multi-draw buffer is populated.
type DrawPrototype struct {
	InstanceLen uint32
	VertexLen   uint32
	VertexFirst uint32
	Handle      ResourceHandle
}

// DrawGroup is the shared record for one coalesced run of draws: the batch
// they target, the prototypes recorded into the run, and the contiguous range
// of indirect records the group owns in the multi-draw buffer. Prototypes
// accumulate during recording; the range is only assigned when the buffer is
// bound for submission.
type DrawGroup struct {
	Batch gpu.Batch

	// Prototypes are the recorded draws, in record order.
	Prototypes []DrawPrototype

	// Start is the index of the group's first record in the indirect buffer.
	Start int

	// Len is the number of draw records in the group.
	Len int

	// FrontFacingLen counts the prototypes with normal handedness. Records
	// with inverted handedness fill the group range from the back so a
	// backend can flip face culling per half-range.
	FrontFacingLen int

	// InstanceTotal is the accumulated instance count across the group.
	InstanceTotal uint32
}

// DrawMulti records one multi-draw-indirect submission covering a DrawGroup.
// The indirect buffer is dereferenced at replay time because it is created
// and populated lazily during submission prep, never at record time.
type DrawMulti struct {
	Group *DrawGroup
	Buf   *gpu.StorageBuffer
}

// Execute issues the group's multi-draw-indirect call. Empty groups are
// skipped entirely.
//
// Parameters:
//   - state: the ambient replay state
func (c DrawMulti) Execute(state *RecordingState) {
	if c.Group.Len == 0 {
		return
	}
	offset := uint64(c.Group.Start) * gpu.DrawArgsSize
	c.Group.Batch.MultiDrawIndirect(state.Shader, *c.Buf, c.Group.Len, offset)
}

// Serialize returns the command and its group as human-readable lines.
//
// Parameters:
//   - linePrefix: indentation applied to each line
//
// Returns:
//   - string: the serialized command, newline-terminated
func (c DrawMulti) Serialize(linePrefix string) string {
	s := fmt.Sprintf("%s.draw_multi(%d)\n", linePrefix, c.Group.Len)
	s += fmt.Sprintf("%s  .group(batch=%s, draw_len=%d, inst_total=%d)\n",
		linePrefix, c.Group.Batch.Name(), c.Group.Len, c.Group.InstanceTotal)
	return s
}

// DrawIndirect records a draw whose parameters are read from a caller-owned
// GPU buffer at execution time. The buffer content only needs to be valid by
// submission; a compute dispatch recorded earlier in the stream may write it.
type DrawIndirect struct {
	Batch  gpu.Batch
	Buf    *gpu.StorageBuffer
	Handle ResourceHandle
}

// Execute issues the indirect draw.
//
// Parameters:
//   - state: the ambient replay state
func (c DrawIndirect) Execute(state *RecordingState) {
	state.ResourceID = c.Handle.Index()
	c.Batch.DrawIndirect(state.Shader, *c.Buf, 0)
}

// Serialize returns the command as a human-readable line.
//
// Returns:
//   - string: the serialized command
func (c DrawIndirect) Serialize() string {
	return ".draw_indirect()"
}

// Dispatch records a compute dispatch. When GroupsRef is set, the group
// counts are read through it at replay time, so a prior pass (or CPU code
// running between record and submit) may update them.
type Dispatch struct {
	Groups    common.Int3
	GroupsRef *common.Int3
}

// Execute issues the dispatch on the currently bound shader.
//
// Parameters:
//   - state: the ambient replay state
func (c Dispatch) Execute(state *RecordingState) {
	groups := c.Groups
	if c.GroupsRef != nil {
		groups = *c.GroupsRef
	}
	state.Backend.Dispatch(state.Shader, groups)
}

// Serialize returns the command as a human-readable line.
//
// Returns:
//   - string: the serialized command
func (c Dispatch) Serialize() string {
	if c.GroupsRef != nil {
		g := *c.GroupsRef
		return fmt.Sprintf(".dispatch_ref(%d, %d, %d)", g[0], g[1], g[2])
	}
	return fmt.Sprintf(".dispatch(%d, %d, %d)", c.Groups[0], c.Groups[1], c.Groups[2])
}

// DispatchIndirect records a dispatch whose group counts are read from a
// caller-owned GPU buffer at execution time.
type DispatchIndirect struct {
	Buf *gpu.StorageBuffer
}

// Execute issues the indirect dispatch on the currently bound shader.
//
// Parameters:
//   - state: the ambient replay state
func (c DispatchIndirect) Execute(state *RecordingState) {
	state.Backend.DispatchIndirect(state.Shader, *c.Buf)
}

// Serialize returns the command as a human-readable line.
//
// Returns:
//   - string: the serialized command
func (c DispatchIndirect) Serialize() string {
	return ".dispatch_indirect()"
}

// Barrier records an explicit memory/execution barrier.
type Barrier struct {
	Type gpu.BarrierType
}

// Execute inserts the barrier.
//
// Parameters:
//   - state: the ambient replay state
func (c Barrier) Execute(state *RecordingState) {
	state.Backend.Barrier(c.Type)
}

// Serialize returns the command as a human-readable line.
//
// Returns:
//   - string: the serialized command
func (c Barrier) Serialize() string {
	return fmt.Sprintf(".barrier(%s)", c.Type)
}

// Clear records a frame-buffer clear affecting only the selected planes.
type Clear struct {
	Planes  gpu.FrameBufferBits
	Color   common.Float4
	Depth   float32
	Stencil uint8
}

// Execute clears the selected planes.
//
// Parameters:
//   - state: the ambient replay state
func (c Clear) Execute(state *RecordingState) {
	state.Backend.Clear(c.Planes, c.Color, c.Depth, c.Stencil)
}

// Serialize returns the command as a human-readable line.
//
// Returns:
//   - string: the serialized command
func (c Clear) Serialize() string {
	planes := ""
	if c.Planes&gpu.ColorBit != 0 {
		planes += "color|"
	}
	if c.Planes&gpu.DepthBit != 0 {
		planes += "depth|"
	}
	if c.Planes&gpu.StencilBit != 0 {
		planes += "stencil|"
	}
	if len(planes) > 0 {
		planes = planes[:len(planes)-1]
	}
	return fmt.Sprintf(".clear(planes=%s, color=(%g, %g, %g, %g), depth=%g, stencil=%d)",
		planes, c.Color[0], c.Color[1], c.Color[2], c.Color[3], c.Depth, c.Stencil)
}

// StateSet records a fixed-function pipeline state change. State persists
// until the next StateSet; it is never reset between draws or clears.
type StateSet struct {
	State gpu.State
}

// Execute applies the state.
//
// Parameters:
//   - state: the ambient replay state
func (c StateSet) Execute(state *RecordingState) {
	state.Backend.StateSet(c.State)
}

// Serialize returns the command as a human-readable line.
//
// Returns:
//   - string: the serialized command
func (c StateSet) Serialize() string {
	return fmt.Sprintf(".state_set(%s)", c.State)
}

// StencilSet records stencil write mask, reference, and compare mask. These
// are independent of StateSet and stale values persist until explicitly
// re-issued.
type StencilSet struct {
	WriteMask   uint8
	Reference   uint8
	CompareMask uint8
}

// Execute applies the stencil parameters.
//
// Parameters:
//   - state: the ambient replay state
func (c StencilSet) Execute(state *RecordingState) {
	state.Backend.StencilSet(c.WriteMask, c.Reference, c.CompareMask)
}

// Serialize returns the command as a human-readable line.
//
// Returns:
//   - string: the serialized command
func (c StencilSet) Serialize() string {
	return fmt.Sprintf(".stencil_set(write_mask=0b%08b, reference=0b%08b, compare_mask=0b%08b)",
		c.WriteMask, c.Reference, c.CompareMask)
}
