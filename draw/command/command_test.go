package command

import (
	"testing"

	"github.com/Carmen-Shannon/oxy-draw/common"
	"github.com/Carmen-Shannon/oxy-draw/gpu"
	"github.com/Carmen-Shannon/oxy-draw/gpu/gputest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResourceHandlePacking(t *testing.T) {
	h := NewResourceHandle(42, false)
	assert.Equal(t, uint32(42), h.Index())
	assert.False(t, h.HandednessInverted())

	h = NewResourceHandle(42, true)
	assert.Equal(t, uint32(42), h.Index())
	assert.True(t, h.HandednessInverted())

	// The full 31-bit index range round-trips past the handedness bit.
	h = NewResourceHandle(0x7FFFFFFF, true)
	assert.Equal(t, uint32(0x7FFFFFFF), h.Index())
	assert.True(t, h.HandednessInverted())

	zero := ResourceHandle(0)
	assert.Equal(t, uint32(0), zero.Index())
	assert.False(t, zero.HandednessInverted())
}

func TestListAppendReturnsPerTypeIndices(t *testing.T) {
	var l List

	assert.Equal(t, uint32(0), l.AppendStateSet(StateSet{State: gpu.StateWriteColor}))
	assert.Equal(t, uint32(0), l.AppendBarrier(Barrier{Type: gpu.BarrierShaderStorage}))
	assert.Equal(t, uint32(1), l.AppendStateSet(StateSet{State: gpu.StateWriteDepth}))
	assert.Equal(t, uint32(2), l.AppendStateSet(StateSet{}))

	l.Reset()
	assert.Equal(t, uint32(0), l.AppendStateSet(StateSet{}))
	assert.Len(t, l.Barriers, 0)
}

func TestDrawExecuteResolvesSentinels(t *testing.T) {
	backend := gputest.NewBackend()
	shader := gputest.NewShader("test_shader")
	batch := gputest.NewBatch("quad", 6)
	batch.AttachBackend(backend)

	state := &RecordingState{Backend: backend, Shader: shader}
	Draw{
		Batch:       batch,
		InstanceLen: NoCount,
		VertexLen:   NoCount,
		VertexFirst: NoCount,
		Handle:      NewResourceHandle(7, false),
	}.Execute(state)

	require.Len(t, backend.Trace, 1)
	assert.Equal(t, "draw(test_shader, batch=quad, inst=1, vert=6, first=0, res=7)", backend.Trace[0])
	assert.Equal(t, uint32(7), state.ResourceID)
}

func TestDrawExecuteKeepsExplicitCounts(t *testing.T) {
	backend := gputest.NewBackend()
	shader := gputest.NewShader("test_shader")
	batch := gputest.NewBatch("quad", 6)
	batch.AttachBackend(backend)

	state := &RecordingState{Backend: backend, Shader: shader}
	Draw{
		Batch:       batch,
		InstanceLen: 4,
		VertexLen:   3,
		VertexFirst: 9,
		Handle:      NewResourceHandle(1, true),
	}.Execute(state)

	require.Len(t, backend.Trace, 1)
	// The handedness bit does not leak into the resource ID.
	assert.Equal(t, "draw(test_shader, batch=quad, inst=4, vert=3, first=9, res=1)", backend.Trace[0])
}

func TestDrawMultiExecuteSkipsEmptyGroups(t *testing.T) {
	backend := gputest.NewBackend()
	shader := gputest.NewShader("test_shader")
	batch := gputest.NewBatch("quad", 6)
	batch.AttachBackend(backend)
	var buf gpu.StorageBuffer = backend.NewStorageBuffer("indirect", 64)
	backend.Trace = backend.Trace[:0]

	state := &RecordingState{Backend: backend, Shader: shader}
	DrawMulti{Group: &DrawGroup{Batch: batch}, Buf: &buf}.Execute(state)
	assert.Empty(t, backend.Trace)

	DrawMulti{Group: &DrawGroup{Batch: batch, Start: 2, Len: 3}, Buf: &buf}.Execute(state)
	require.Len(t, backend.Trace, 1)
	assert.Equal(t, "multi_draw_indirect(test_shader, batch=quad, buf=indirect, count=3, offset=40)", backend.Trace[0])
}

func TestPushConstantExecuteVariants(t *testing.T) {
	backend := gputest.NewBackend()
	shader := gputest.NewShader("test_shader")
	state := &RecordingState{Backend: backend, Shader: shader}

	c := PushConstant{Location: 2, CompLen: 16, ArrayLen: 1, Tag: PushFloatValue}
	c.Execute(state)

	ref := []float32{1, 2, 3}
	PushConstant{Location: 0, CompLen: 3, ArrayLen: 1, Tag: PushFloatRef, FloatRef: ref}.Execute(state)

	require.Len(t, backend.Trace, 2)
	assert.Equal(t, "uniform_float(test_shader, loc=2, comp=16, array=1, n=16)", backend.Trace[0])
	assert.Equal(t, "uniform_float(test_shader, loc=0, comp=3, array=1, n=3)", backend.Trace[1])
}

func TestDispatchExecuteDereferencesGroupsRef(t *testing.T) {
	backend := gputest.NewBackend()
	shader := gputest.NewShader("cull_shader")
	state := &RecordingState{Backend: backend, Shader: shader}

	groups := common.Int3{1, 1, 1}
	c := Dispatch{GroupsRef: &groups}
	groups = common.Int3{8, 4, 2}
	c.Execute(state)

	require.Len(t, backend.Trace, 1)
	assert.Equal(t, "dispatch(cull_shader, 8, 4, 2)", backend.Trace[0])
}

func TestSerializeFormats(t *testing.T) {
	shader := gputest.NewShader("my_shader")
	batch := gputest.NewBatch("mesh", 12)

	assert.Equal(t, ".shader_bind(my_shader)", ShaderBind{Shader: shader}.Serialize())
	assert.Equal(t, ".bind_storage_buf(3)", ResourceBind{Slot: 3, Kind: BindStorageBuf}.Serialize())
	assert.Equal(t, ".bind_texture_ref(5)", ResourceBind{Slot: 5, Kind: BindTextureRef}.Serialize())
	assert.Equal(t, ".push_constant(1, comp_len=4, array_len=2)",
		PushConstant{Location: 1, CompLen: 4, ArrayLen: 2}.Serialize())
	assert.Equal(t, ".draw(inst_len=2, vert_len=-1, vert_first=0, res_id=9)",
		Draw{Batch: batch, InstanceLen: 2, VertexLen: NoCount, VertexFirst: 0, Handle: NewResourceHandle(9, true)}.Serialize())
	assert.Equal(t, ".dispatch(4, 2, 1)", Dispatch{Groups: [3]int32{4, 2, 1}}.Serialize())
	assert.Equal(t, ".barrier(shader_storage|command)",
		Barrier{Type: gpu.BarrierShaderStorage | gpu.BarrierCommand}.Serialize())
	assert.Equal(t, ".clear(planes=color|depth, color=(0, 0.5, 0, 1), depth=1, stencil=0)",
		Clear{Planes: gpu.ColorBit | gpu.DepthBit, Color: common.Float4{0, 0.5, 0, 1}, Depth: 1}.Serialize())
	assert.Equal(t, ".state_set(write_color|depth_less)",
		StateSet{State: gpu.StateWriteColor | gpu.StateDepthLess}.Serialize())
	assert.Equal(t, ".stencil_set(write_mask=0b11111111, reference=0b00000001, compare_mask=0b00001111)",
		StencilSet{WriteMask: 0xFF, Reference: 0x01, CompareMask: 0x0F}.Serialize())
}
