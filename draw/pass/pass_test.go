package pass

import (
	"testing"

	"github.com/Carmen-Shannon/oxy-draw/common"
	"github.com/Carmen-Shannon/oxy-draw/draw/cache"
	"github.com/Carmen-Shannon/oxy-draw/draw/command"
	"github.com/Carmen-Shannon/oxy-draw/draw/material"
	"github.com/Carmen-Shannon/oxy-draw/gpu"
	"github.com/Carmen-Shannon/oxy-draw/gpu/gputest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestShader(name string) *gputest.Shader {
	sh := gputest.NewShader(name)
	sh.Uniforms["model_matrix"] = 0
	sh.Uniforms["tint"] = 1
	sh.StorageBufs["object_data"] = 4
	sh.UniformBufs["view_data"] = 0
	sh.UniformBufs["material_data"] = 2
	sh.Textures["base_color"] = 6
	return sh
}

func TestPassSimpleReplaysInRecordOrder(t *testing.T) {
	backend := gputest.NewBackend()
	shader := newTestShader("surface")
	batch := gputest.NewBatch("mesh", 36)
	batch.AttachBackend(backend)

	p := NewPassSimple("opaque")
	p.Init()
	p.StateSet(gpu.StateWriteColor | gpu.StateWriteDepth | gpu.StateDepthLess)
	p.ShaderSet(shader)
	p.PushConstantFloat("tint", 0.5)
	p.Draw(batch, 2, All, All, command.NewResourceHandle(3, false))
	p.Barrier(gpu.BarrierShaderStorage)

	state := &command.RecordingState{Backend: backend}
	p.Submit(state)

	assert.Equal(t, []string{
		"debug_group_begin(opaque)",
		"state_set(write_color|write_depth|depth_less)",
		"shader_bind(surface)",
		"uniform_float(surface, loc=1, comp=1, array=1, n=1)",
		"draw(surface, batch=mesh, inst=2, vert=36, first=0, res=3)",
		"barrier(shader_storage)",
		"debug_group_end()",
	}, backend.Trace)
	assert.Equal(t, 1, p.DrawCount())
}

func TestPassSubmitIsRepeatable(t *testing.T) {
	backend := gputest.NewBackend()
	shader := newTestShader("surface")
	batch := gputest.NewBatch("mesh", 3)
	batch.AttachBackend(backend)

	p := NewPassSimple("opaque")
	p.Init()
	p.ShaderSet(shader)
	p.DrawBatch(batch, command.NewResourceHandle(1, false))

	state := &command.RecordingState{Backend: backend}
	p.Submit(state)
	first := append([]string(nil), backend.Trace...)

	backend.Trace = backend.Trace[:0]
	p.Submit(state)
	assert.Equal(t, first, backend.Trace)
}

func TestSubPassesExpandDepthFirst(t *testing.T) {
	backend := gputest.NewBackend()
	shader := newTestShader("surface")
	batch := gputest.NewBatch("mesh", 3)
	batch.AttachBackend(backend)

	p := NewPassSimple("root")
	p.Init()
	p.ShaderSet(shader)

	sub := p.Sub("shadows")
	nested := sub.Sub("cascade_0")

	// Recorded after the sub-passes were created, replays after both.
	p.Barrier(gpu.BarrierFramebuffer)

	// Sub-pass recording order is independent of creation order.
	nested.DrawBatch(batch, command.NewResourceHandle(2, false))
	sub.StateSet(gpu.StateWriteDepth)

	state := &command.RecordingState{Backend: backend}
	p.Submit(state)

	assert.Equal(t, []string{
		"debug_group_begin(root)",
		"shader_bind(surface)",
		"debug_group_begin(shadows)",
		"debug_group_begin(cascade_0)",
		"draw(surface, batch=mesh, inst=1, vert=3, first=0, res=2)",
		"debug_group_end()",
		"state_set(write_depth)",
		"debug_group_end()",
		"barrier(framebuffer)",
		"debug_group_end()",
	}, backend.Trace)
}

func TestSubPassInheritsCurrentShader(t *testing.T) {
	backend := gputest.NewBackend()
	shader := newTestShader("surface")
	batch := gputest.NewBatch("mesh", 3)
	batch.AttachBackend(backend)

	p := NewPassSimple("root")
	p.Init()
	p.ShaderSet(shader)
	sub := p.Sub("detail")

	// Inherited interface context; no panic, the draw resolves against shader.
	sub.DrawBatch(batch, command.ResourceHandle(0))

	state := &command.RecordingState{Backend: backend}
	p.Submit(state)
	assert.Contains(t, backend.Trace, "draw(surface, batch=mesh, inst=1, vert=3, first=0, res=0)")
}

func TestZeroCountDrawsRecordNothing(t *testing.T) {
	p := NewPassSimple("opaque")
	p.Init()
	p.ShaderSet(newTestShader("surface"))
	batch := gputest.NewBatch("mesh", 3)

	p.Draw(batch, 0, All, All, command.ResourceHandle(0))
	p.Draw(batch, All, 0, All, command.ResourceHandle(0))
	assert.Equal(t, 0, p.DrawCount())

	backend := gputest.NewBackend()
	p.Submit(&command.RecordingState{Backend: backend})
	assert.Equal(t, []string{
		"debug_group_begin(opaque)",
		"shader_bind(surface)",
		"debug_group_end()",
	}, backend.Trace)
}

func TestUnresolvedNamesAreSkippedSilently(t *testing.T) {
	backend := gputest.NewBackend()
	shader := newTestShader("surface")

	p := NewPassSimple("opaque")
	p.Init()
	p.ShaderSet(shader)
	p.PushConstantFloat("missing_uniform", 1)
	p.BindStorageBuf("missing_block", backend.NewStorageBuffer("buf", 16))
	p.PushConstantInt("missing_flag", 1)

	backend.Trace = backend.Trace[:0]
	p.Submit(&command.RecordingState{Backend: backend})
	assert.Equal(t, []string{
		"debug_group_begin(opaque)",
		"shader_bind(surface)",
		"debug_group_end()",
	}, backend.Trace)
}

func TestRecordingPanicsWithoutShader(t *testing.T) {
	batch := gputest.NewBatch("mesh", 3)

	p := NewPassSimple("opaque")
	p.Init()
	assert.PanicsWithValue(t, "pass: draw recorded before a shader is set", func() {
		p.DrawBatch(batch, command.ResourceHandle(0))
	})
	assert.PanicsWithValue(t, "pass: bind recorded before a shader is set", func() {
		p.BindStorageBuf("object_data", nil)
	})
	assert.PanicsWithValue(t, "pass: push constant recorded before a shader is set", func() {
		p.PushConstantFloat("tint", 1)
	})
	assert.PanicsWithValue(t, "pass: dispatch recorded before a shader is set", func() {
		p.Dispatch(common.Int3{1, 1, 1})
	})
	assert.PanicsWithValue(t, "pass: ShaderSet requires a non-nil shader", func() {
		p.ShaderSet(nil)
	})
}

func TestDrawProceduralRequiresExplicitVertexCount(t *testing.T) {
	p := NewPassSimple("opaque")
	p.Init()
	p.ShaderSet(newTestShader("surface"))
	assert.PanicsWithValue(t, "pass: procedural draw requires an explicit vertex count", func() {
		p.DrawProcedural(gpu.PrimitiveTriangles, 1, All, All, command.ResourceHandle(0))
	})
}

func TestDrawProceduralUsesSharedBatch(t *testing.T) {
	backend := gputest.NewBackend()
	cache.Init(backend)
	defer cache.Free()

	shader := newTestShader("wire")
	p := NewPassSimple("overlay")
	p.Init()
	p.ShaderSet(shader)
	p.DrawProcedural(gpu.PrimitiveLines, 1, 2, All, command.ResourceHandle(0))

	backend.Trace = backend.Trace[:0]
	p.Submit(&command.RecordingState{Backend: backend})
	assert.Contains(t, backend.Trace, "draw(wire, batch=procedural_lines, inst=1, vert=2, first=0, res=0)")
}

func TestInitResetsRecording(t *testing.T) {
	backend := gputest.NewBackend()
	shader := newTestShader("surface")
	batch := gputest.NewBatch("mesh", 3)
	batch.AttachBackend(backend)

	p := NewPassSimple("opaque")
	p.Init()
	p.ShaderSet(shader)
	p.DrawBatch(batch, command.ResourceHandle(0))
	p.Sub("child")

	p.Init()
	assert.Equal(t, 0, p.DrawCount())

	p.Submit(&command.RecordingState{Backend: backend})
	assert.Equal(t, []string{
		"debug_group_begin(opaque)",
		"debug_group_end()",
	}, backend.Trace)

	// A fresh recording after Init panics without a shader again.
	assert.Panics(t, func() { p.DrawBatch(batch, command.ResourceHandle(0)) })
}

func TestMaterialSetRecordsFullBindingSet(t *testing.T) {
	backend := gputest.NewBackend()
	shader := newTestShader("surface")

	var baseColor gpu.Texture = gputest.NewTexture(backend, "grid")
	paramBuf := backend.NewUniformBuffer("surface_params", 64)
	mat := material.NewMaterial(
		material.WithName("checker"),
		material.WithShader(shader),
		material.WithTexture("base_color", &baseColor, gpu.SamplerLinearRepeat),
		material.WithUniformBuffer(paramBuf),
	)

	p := NewPassSimple("opaque")
	p.Init()
	acquirer := &recordingAcquirer{}
	p.MaterialSet(acquirer, mat)

	require.Len(t, acquirer.acquired, 1)
	assert.Same(t, &baseColor, acquirer.acquired[0])

	backend.Trace = backend.Trace[:0]
	p.Submit(&command.RecordingState{Backend: backend})
	assert.Equal(t, []string{
		"debug_group_begin(opaque)",
		"shader_bind(surface)",
		"bind_texture(grid, slot=6, sampler=3)",
		"bind_uniform_buf(surface_params, slot=2)",
		"debug_group_end()",
	}, backend.Trace)
}

func TestMaterialSetSkipsUndeclaredBindings(t *testing.T) {
	backend := gputest.NewBackend()
	shader := gputest.NewShader("flat")

	var tex gpu.Texture = gputest.NewTexture(backend, "unused")
	mat := material.NewMaterial(
		material.WithShader(shader),
		material.WithTexture("base_color", &tex, gpu.SamplerLinear),
		material.WithUniformBuffer(backend.NewUniformBuffer("params", 16)),
	)

	p := NewPassSimple("opaque")
	p.Init()
	p.MaterialSet(nil, mat)

	backend.Trace = backend.Trace[:0]
	p.Submit(&command.RecordingState{Backend: backend})
	assert.Equal(t, []string{
		"debug_group_begin(opaque)",
		"shader_bind(flat)",
		"debug_group_end()",
	}, backend.Trace)
}

func TestRefBindsDereferenceAtSubmission(t *testing.T) {
	backend := gputest.NewBackend()
	shader := newTestShader("surface")

	var buf gpu.StorageBuffer = backend.NewStorageBuffer("first", 16)
	p := NewPassSimple("opaque")
	p.Init()
	p.ShaderSet(shader)
	p.BindStorageBufRef("object_data", &buf)

	// Reallocated between record and submit; the recording follows.
	buf = backend.NewStorageBuffer("second", 32)

	backend.Trace = backend.Trace[:0]
	p.Submit(&command.RecordingState{Backend: backend})
	assert.Contains(t, backend.Trace, "bind_storage_buf(second, slot=4)")
}

func TestPushConstantMat4RefReadsAtSubmission(t *testing.T) {
	backend := gputest.NewBackend()
	shader := newTestShader("surface")

	m := common.Float4x4Identity()

	p := NewPassSimple("opaque")
	p.Init()
	p.ShaderSet(shader)
	p.PushConstantMat4Ref("model_matrix", &m)

	backend.Trace = backend.Trace[:0]
	p.Submit(&command.RecordingState{Backend: backend})
	assert.Contains(t, backend.Trace, "uniform_float(surface, loc=0, comp=16, array=1, n=16)")
}

func TestSerializeDumpsTree(t *testing.T) {
	shader := newTestShader("surface")
	batch := gputest.NewBatch("mesh", 3)

	p := NewPassSimple("root")
	p.Init()
	p.ShaderSet(shader)
	sub := p.Sub("child")
	sub.StateSet(gpu.StateWriteColor)
	p.DrawBatch(batch, command.NewResourceHandle(5, false))

	expected := ".root\n" +
		"  .shader_bind(surface)\n" +
		"  .child\n" +
		"    .state_set(write_color)\n" +
		"  .draw(inst_len=-1, vert_len=-1, vert_first=-1, res_id=5)\n"
	assert.Equal(t, expected, p.Serialize())
}

// recordingAcquirer records every texture acquired through it.
type recordingAcquirer struct {
	acquired []*gpu.Texture
}

func (a *recordingAcquirer) AcquireTexture(tex *gpu.Texture) {
	a.acquired = append(a.acquired, tex)
}
