// Package pass implements retained GPU command recording. A pass is recorded
// once on the CPU, in program order, with no GPU work happening at record
// time; submitting it replays the recorded commands against a backend, and
// the same recording can be submitted any number of times with identical
// results. PassSimple keeps one command per recorded draw, PassMain coalesces
// consecutive draws of the same batch into multi-draw-indirect groups.
package pass

import (
	"github.com/Carmen-Shannon/oxy-draw/common"
	"github.com/Carmen-Shannon/oxy-draw/draw/cache"
	"github.com/Carmen-Shannon/oxy-draw/draw/command"
	"github.com/Carmen-Shannon/oxy-draw/draw/material"
	"github.com/Carmen-Shannon/oxy-draw/gpu"
)

// All is the sentinel count for draw recording: vertex length resolves to the
// batch's own count, instance length to 1, and first vertex to 0. Note that
// All is distinct from zero; a draw recorded with a zero instance or vertex
// count records nothing at all.
const All = command.NoCount

// materialUniformBlock is the uniform block name MaterialSet binds a
// material's parameter buffer to, when the shader interface declares it.
const materialUniformBlock = "material_data"

// TextureAcquirer pins textures for the duration of a submission cycle.
// MaterialSet routes every material texture through it so residency is
// guaranteed by the time the recording is replayed.
type TextureAcquirer interface {
	// AcquireTexture marks the texture as used this cycle, allocating its GPU
	// storage if it does not exist yet.
	//
	// Parameters:
	//   - tex: pointer to the texture handle; may be reallocated by residency
	//     management between record and submit
	AcquireTexture(tex *gpu.Texture)
}

// drawBuffer is the strategy a pass records draws through. CommandBuf emits
// one command per draw; DrawMultiBuf coalesces consecutive same-batch draws.
type drawBuffer interface {
	clear()
	draw(p *Pass, batch gpu.Batch, instanceLen, vertexLen, vertexFirst uint32, handle command.ResourceHandle)
	bind(state *command.RecordingState)
}

// Pass is the recording surface shared by PassSimple, PassMain, and their
// sub-passes. Each pass owns its header stream and command storage; the draw
// buffer and the sub-pass list are shared with the root so sub-passes created
// anywhere in the tree coalesce and reset together.
//
// Recording is append-only: commands replay in the exact order they were
// recorded, with sub-passes expanded depth-first at their creation point.
// Recording is not safe for concurrent use; distinct passes (including
// sibling sub-passes of one root) may be recorded from different goroutines.
type Pass struct {
	name     string
	headers  []command.Header
	commands command.List
	drawBuf  drawBuffer
	subs     *[]*Pass
	shader   gpu.Shader
}

// Name returns the pass name used for debug markers and serialization.
//
// Returns:
//   - string: the pass name
func (p *Pass) Name() string {
	return p.name
}

func (p *Pass) header(t command.Type, index uint32) {
	p.headers = append(p.headers, command.Header{Type: t, Index: index})
}

func (p *Pass) requireShader(op string) {
	if p.shader == nil {
		panic("pass: " + op + " recorded before a shader is set")
	}
}

// Sub creates a named sub-pass at the current position in the command stream.
// The sub-pass inherits the currently set shader, shares the root's draw
// buffer, and replays in full at this position before any later command of
// the parent. Sub-passes may be recorded in any order, including from
// different goroutines, once created.
//
// Parameters:
//   - name: the sub-pass name
//
// Returns:
//   - *Pass: the sub-pass recording surface
func (p *Pass) Sub(name string) *Pass {
	sub := &Pass{
		name:    name,
		drawBuf: p.drawBuf,
		subs:    p.subs,
		shader:  p.shader,
	}
	*p.subs = append(*p.subs, sub)
	p.header(command.TypeSubPass, uint32(len(*p.subs)-1))
	return sub
}

// StateSet records a fixed-function pipeline state change. The state persists
// for all subsequent draws, including across sub-pass boundaries, until the
// next StateSet executes.
//
// Parameters:
//   - state: the raster/depth/blend state bits to apply
func (p *Pass) StateSet(state gpu.State) {
	p.header(command.TypeStateSet, p.commands.AppendStateSet(command.StateSet{State: state}))
}

// StateStencil records stencil write mask, reference, and compare mask. These
// persist independently of StateSet until re-issued.
//
// Parameters:
//   - writeMask: bits of the stencil buffer writes may touch
//   - reference: the stencil reference value
//   - compareMask: bits included in the stencil comparison
func (p *Pass) StateStencil(writeMask, reference, compareMask uint8) {
	p.header(command.TypeStencilSet, p.commands.AppendStencilSet(command.StencilSet{
		WriteMask:   writeMask,
		Reference:   reference,
		CompareMask: compareMask,
	}))
}

func (p *Pass) clear(planes gpu.FrameBufferBits, color common.Float4, depth float32, stencil uint8) {
	p.header(command.TypeClear, p.commands.AppendClear(command.Clear{
		Planes:  planes,
		Color:   color,
		Depth:   depth,
		Stencil: stencil,
	}))
}

// ClearColor records a clear of the color planes only.
//
// Parameters:
//   - color: the clear color
func (p *Pass) ClearColor(color common.Float4) {
	p.clear(gpu.ColorBit, color, 0, 0)
}

// ClearDepth records a clear of the depth plane only.
//
// Parameters:
//   - depth: the clear depth value
func (p *Pass) ClearDepth(depth float32) {
	p.clear(gpu.DepthBit, common.Float4{}, depth, 0)
}

// ClearStencil records a clear of the stencil plane only.
//
// Parameters:
//   - stencil: the clear stencil value
func (p *Pass) ClearStencil(stencil uint8) {
	p.clear(gpu.StencilBit, common.Float4{}, 0, stencil)
}

// ClearDepthStencil records a clear of the depth and stencil planes.
//
// Parameters:
//   - depth: the clear depth value
//   - stencil: the clear stencil value
func (p *Pass) ClearDepthStencil(depth float32, stencil uint8) {
	p.clear(gpu.DepthBit|gpu.StencilBit, common.Float4{}, depth, stencil)
}

// ClearColorDepthStencil records a clear of all planes.
//
// Parameters:
//   - color: the clear color
//   - depth: the clear depth value
//   - stencil: the clear stencil value
func (p *Pass) ClearColorDepthStencil(color common.Float4, depth float32, stencil uint8) {
	p.clear(gpu.ColorBit|gpu.DepthBit|gpu.StencilBit, color, depth, stencil)
}

// ShaderSet records a shader bind. The shader becomes the interface context
// for subsequent name-based binds, push constants, draws, and dispatches
// recorded on this pass and on sub-passes created after this call.
//
// Parameters:
//   - sh: the shader to bind; must not be nil
func (p *Pass) ShaderSet(sh gpu.Shader) {
	if sh == nil {
		panic("pass: ShaderSet requires a non-nil shader")
	}
	p.shader = sh
	p.header(command.TypeShaderBind, p.commands.AppendShaderBind(command.ShaderBind{Shader: sh}))
}

// MaterialSet records the full binding set of a material: its shader, every
// texture it samples (acquired through acquirer so residency holds until
// submission), and its parameter uniform buffer when the shader interface
// declares the material block.
//
// Parameters:
//   - acquirer: the residency manager textures are acquired through; may be
//     nil when residency is managed externally
//   - mat: the material to bind
func (p *Pass) MaterialSet(acquirer TextureAcquirer, mat material.Material) {
	p.ShaderSet(mat.Shader())
	for _, tb := range mat.Textures() {
		if acquirer != nil {
			acquirer.AcquireTexture(tb.Texture)
		}
		p.BindTextureRef(tb.Name, tb.Texture, tb.Sampler)
	}
	if ub := mat.UniformBuffer(); ub != nil {
		p.BindUniformBuf(materialUniformBlock, ub)
	}
}

// BindStorageBuf records a storage buffer bind, resolving name against the
// current shader interface now and capturing the buffer handle by value.
// Nothing is recorded when the shader does not declare name.
//
// Parameters:
//   - name: the storage buffer block name in the shader source
//   - buf: the buffer to bind
func (p *Pass) BindStorageBuf(name string, buf gpu.StorageBuffer) {
	p.requireShader("bind")
	if slot := p.shader.StorageBufferBinding(name); slot >= 0 {
		p.header(command.TypeResourceBind, p.commands.AppendResourceBind(command.ResourceBind{
			Slot:       slot,
			Kind:       command.BindStorageBuf,
			StorageBuf: buf,
		}))
	}
}

// BindStorageBufRef records a storage buffer bind that dereferences buf at
// submission time, so the buffer may be created or reallocated between record
// and submit. Nothing is recorded when the shader does not declare name.
//
// Parameters:
//   - name: the storage buffer block name in the shader source
//   - buf: pointer to the buffer handle, dereferenced at submission
func (p *Pass) BindStorageBufRef(name string, buf *gpu.StorageBuffer) {
	p.requireShader("bind")
	if slot := p.shader.StorageBufferBinding(name); slot >= 0 {
		p.header(command.TypeResourceBind, p.commands.AppendResourceBind(command.ResourceBind{
			Slot:          slot,
			Kind:          command.BindStorageBufRef,
			StorageBufRef: buf,
		}))
	}
}

// BindUniformBuf records a uniform buffer bind, resolving name against the
// current shader interface now and capturing the buffer handle by value.
// Nothing is recorded when the shader does not declare name.
//
// Parameters:
//   - name: the uniform buffer block name in the shader source
//   - buf: the buffer to bind
func (p *Pass) BindUniformBuf(name string, buf gpu.UniformBuffer) {
	p.requireShader("bind")
	if slot := p.shader.UniformBufferBinding(name); slot >= 0 {
		p.header(command.TypeResourceBind, p.commands.AppendResourceBind(command.ResourceBind{
			Slot:       slot,
			Kind:       command.BindUniformBuf,
			UniformBuf: buf,
		}))
	}
}

// BindUniformBufRef records a uniform buffer bind that dereferences buf at
// submission time. Nothing is recorded when the shader does not declare name.
//
// Parameters:
//   - name: the uniform buffer block name in the shader source
//   - buf: pointer to the buffer handle, dereferenced at submission
func (p *Pass) BindUniformBufRef(name string, buf *gpu.UniformBuffer) {
	p.requireShader("bind")
	if slot := p.shader.UniformBufferBinding(name); slot >= 0 {
		p.header(command.TypeResourceBind, p.commands.AppendResourceBind(command.ResourceBind{
			Slot:          slot,
			Kind:          command.BindUniformBufRef,
			UniformBufRef: buf,
		}))
	}
}

// BindTexture records a texture bind, resolving name against the current
// shader interface now and capturing the texture handle by value. Nothing is
// recorded when the shader does not declare name.
//
// Parameters:
//   - name: the texture variable name in the shader source
//   - tex: the texture to bind
//   - sampler: optional sampler override; defaults to the texture's own sampler
func (p *Pass) BindTexture(name string, tex gpu.Texture, sampler ...gpu.SamplerState) {
	p.requireShader("bind")
	if slot := p.shader.TextureBinding(name); slot >= 0 {
		p.header(command.TypeResourceBind, p.commands.AppendResourceBind(command.ResourceBind{
			Slot:    slot,
			Kind:    command.BindTexture,
			Texture: tex,
			Sampler: samplerOrDefault(sampler),
		}))
	}
}

// BindTextureRef records a texture bind that dereferences tex at submission
// time, so residency management may swap the underlying texture between
// record and submit. Nothing is recorded when the shader does not declare name.
//
// Parameters:
//   - name: the texture variable name in the shader source
//   - tex: pointer to the texture handle, dereferenced at submission
//   - sampler: optional sampler override; defaults to the texture's own sampler
func (p *Pass) BindTextureRef(name string, tex *gpu.Texture, sampler ...gpu.SamplerState) {
	p.requireShader("bind")
	if slot := p.shader.TextureBinding(name); slot >= 0 {
		p.header(command.TypeResourceBind, p.commands.AppendResourceBind(command.ResourceBind{
			Slot:       slot,
			Kind:       command.BindTextureRef,
			TextureRef: tex,
			Sampler:    samplerOrDefault(sampler),
		}))
	}
}

func samplerOrDefault(sampler []gpu.SamplerState) gpu.SamplerState {
	if len(sampler) > 0 {
		return sampler[0]
	}
	return gpu.SamplerDefault
}

func (p *Pass) pushConstantFloat(name string, compLen, arrayLen int, data []float32) {
	p.requireShader("push constant")
	location := p.shader.UniformLocation(name)
	if location < 0 {
		return
	}
	c := command.PushConstant{
		Location: location,
		CompLen:  compLen,
		ArrayLen: arrayLen,
		Tag:      command.PushFloatValue,
	}
	copy(c.FloatValue[:], data)
	p.header(command.TypePushConstant, p.commands.AppendPushConstant(c))
}

func (p *Pass) pushConstantInt(name string, compLen, arrayLen int, data []int32) {
	p.requireShader("push constant")
	location := p.shader.UniformLocation(name)
	if location < 0 {
		return
	}
	c := command.PushConstant{
		Location: location,
		CompLen:  compLen,
		ArrayLen: arrayLen,
		Tag:      command.PushIntValue,
	}
	copy(c.IntValue[:], data)
	p.header(command.TypePushConstant, p.commands.AppendPushConstant(c))
}

// PushConstantFloat records a scalar float uniform update, captured by value.
// Nothing is recorded when the shader does not declare name.
//
// Parameters:
//   - name: the uniform variable name in the shader source
//   - v: the value
func (p *Pass) PushConstantFloat(name string, v float32) {
	p.pushConstantFloat(name, 1, 1, []float32{v})
}

// PushConstantFloat2 records a 2-component float uniform update, captured by value.
//
// Parameters:
//   - name: the uniform variable name in the shader source
//   - v: the value
func (p *Pass) PushConstantFloat2(name string, v common.Float2) {
	p.pushConstantFloat(name, 2, 1, v[:])
}

// PushConstantFloat3 records a 3-component float uniform update, captured by value.
//
// Parameters:
//   - name: the uniform variable name in the shader source
//   - v: the value
func (p *Pass) PushConstantFloat3(name string, v common.Float3) {
	p.pushConstantFloat(name, 3, 1, v[:])
}

// PushConstantFloat4 records a 4-component float uniform update, captured by value.
//
// Parameters:
//   - name: the uniform variable name in the shader source
//   - v: the value
func (p *Pass) PushConstantFloat4(name string, v common.Float4) {
	p.pushConstantFloat(name, 4, 1, v[:])
}

// PushConstantInt records a scalar int uniform update, captured by value.
//
// Parameters:
//   - name: the uniform variable name in the shader source
//   - v: the value
func (p *Pass) PushConstantInt(name string, v int32) {
	p.pushConstantInt(name, 1, 1, []int32{v})
}

// PushConstantInt2 records a 2-component int uniform update, captured by value.
//
// Parameters:
//   - name: the uniform variable name in the shader source
//   - v: the value
func (p *Pass) PushConstantInt2(name string, v common.Int2) {
	p.pushConstantInt(name, 2, 1, v[:])
}

// PushConstantInt3 records a 3-component int uniform update, captured by value.
//
// Parameters:
//   - name: the uniform variable name in the shader source
//   - v: the value
func (p *Pass) PushConstantInt3(name string, v common.Int3) {
	p.pushConstantInt(name, 3, 1, v[:])
}

// PushConstantInt4 records a 4-component int uniform update, captured by value.
//
// Parameters:
//   - name: the uniform variable name in the shader source
//   - v: the value
func (p *Pass) PushConstantInt4(name string, v common.Int4) {
	p.pushConstantInt(name, 4, 1, v[:])
}

// PushConstantBool records a bool uniform update as an int 0/1, captured by value.
//
// Parameters:
//   - name: the uniform variable name in the shader source
//   - v: the value
func (p *Pass) PushConstantBool(name string, v bool) {
	i := int32(0)
	if v {
		i = 1
	}
	p.pushConstantInt(name, 1, 1, []int32{i})
}

// PushConstantMat4 records a 4x4 matrix uniform update as one logical update,
// captured by value.
//
// Parameters:
//   - name: the uniform variable name in the shader source
//   - m: the column-major matrix
func (p *Pass) PushConstantMat4(name string, m common.Float4x4) {
	p.pushConstantFloat(name, 16, 1, m[:])
}

// PushConstantMat4Ref records a 4x4 matrix uniform update that reads through
// m at submission time. The matrix may change between record and submit; the
// caller must keep it alive until submission.
//
// Parameters:
//   - name: the uniform variable name in the shader source
//   - m: pointer to the column-major matrix, read at submission
func (p *Pass) PushConstantMat4Ref(name string, m *common.Float4x4) {
	p.requireShader("push constant")
	location := p.shader.UniformLocation(name)
	if location < 0 {
		return
	}
	p.header(command.TypePushConstant, p.commands.AppendPushConstant(command.PushConstant{
		Location: location,
		CompLen:  16,
		ArrayLen: 1,
		Tag:      command.PushFloatRef,
		FloatRef: m[:],
	}))
}

// PushConstantFloatArray records a float array uniform update that reads
// through data at submission time. len(data) must be a multiple of compLen;
// the caller must keep the backing array alive until submission.
//
// Parameters:
//   - name: the uniform variable name in the shader source
//   - compLen: components per array element (1 to 4, or 16 for matrices)
//   - data: the flattened values, read at submission
func (p *Pass) PushConstantFloatArray(name string, compLen int, data []float32) {
	p.requireShader("push constant")
	location := p.shader.UniformLocation(name)
	if location < 0 {
		return
	}
	p.header(command.TypePushConstant, p.commands.AppendPushConstant(command.PushConstant{
		Location: location,
		CompLen:  compLen,
		ArrayLen: len(data) / compLen,
		Tag:      command.PushFloatRef,
		FloatRef: data,
	}))
}

// PushConstantIntArray records an int array uniform update that reads through
// data at submission time. len(data) must be a multiple of compLen; the
// caller must keep the backing array alive until submission.
//
// Parameters:
//   - name: the uniform variable name in the shader source
//   - compLen: components per array element (1 to 4)
//   - data: the flattened values, read at submission
func (p *Pass) PushConstantIntArray(name string, compLen int, data []int32) {
	p.requireShader("push constant")
	location := p.shader.UniformLocation(name)
	if location < 0 {
		return
	}
	p.header(command.TypePushConstant, p.commands.AppendPushConstant(command.PushConstant{
		Location: location,
		CompLen:  compLen,
		ArrayLen: len(data) / compLen,
		Tag:      command.PushIntRef,
		IntRef:   data,
	}))
}

func (p *Pass) drawInternal(batch gpu.Batch, instanceLen, vertexLen, vertexFirst uint32, handle command.ResourceHandle) {
	if instanceLen == 0 || vertexLen == 0 {
		return
	}
	p.requireShader("draw")
	p.drawBuf.draw(p, batch, instanceLen, vertexLen, vertexFirst, handle)
}

// Draw records an instanced draw of batch. Counts may be the All sentinel to
// use the batch's own vertex count, one instance, or first vertex zero. A
// zero instance or vertex count records nothing.
//
// Parameters:
//   - batch: the geometry batch to draw; borrowed until submission
//   - instanceLen: the instance count, or All for 1
//   - vertexLen: the vertex count, or All for the batch's own count
//   - vertexFirst: the first vertex, or All for 0
//   - handle: the object resource handle instances pull per-object data from
func (p *Pass) Draw(batch gpu.Batch, instanceLen, vertexLen, vertexFirst uint32, handle command.ResourceHandle) {
	p.drawInternal(batch, instanceLen, vertexLen, vertexFirst, handle)
}

// DrawBatch records a draw of the full batch with one instance.
//
// Parameters:
//   - batch: the geometry batch to draw; borrowed until submission
//   - handle: the object resource handle
func (p *Pass) DrawBatch(batch gpu.Batch, handle command.ResourceHandle) {
	p.drawInternal(batch, All, All, All, handle)
}

// DrawProcedural records a draw with no vertex data; geometry is generated in
// the vertex shader from the vertex index. The shared procedural batch for
// prim backs the draw, so consecutive procedural draws of the same primitive
// kind coalesce like any other batch.
//
// Parameters:
//   - prim: the primitive kind to generate
//   - instanceLen: the instance count, or All for 1
//   - vertexLen: the vertex count; must not be All
//   - vertexFirst: the first vertex, or All for 0
//   - handle: the object resource handle
func (p *Pass) DrawProcedural(prim gpu.PrimitiveType, instanceLen, vertexLen, vertexFirst uint32, handle command.ResourceHandle) {
	if vertexLen == All {
		panic("pass: procedural draw requires an explicit vertex count")
	}
	p.drawInternal(cache.ProceduralBatch(prim), instanceLen, vertexLen, vertexFirst, handle)
}

// DrawIndirect records a draw whose parameters are read from a caller-owned
// GPU buffer at execution time. The buffer only needs valid contents by
// submission; a dispatch recorded earlier in this pass may populate it,
// separated by a Barrier with gpu.BarrierCommand.
//
// Parameters:
//   - batch: the geometry batch to draw; borrowed until submission
//   - buf: pointer to the buffer holding one draw argument record, dereferenced
//     at submission
//   - handle: the object resource handle
func (p *Pass) DrawIndirect(batch gpu.Batch, buf *gpu.StorageBuffer, handle command.ResourceHandle) {
	p.requireShader("draw")
	p.header(command.TypeDrawIndirect, p.commands.AppendDrawIndirect(command.DrawIndirect{
		Batch:  batch,
		Buf:    buf,
		Handle: handle,
	}))
}

// DrawProceduralIndirect records an indirect draw backed by the shared
// procedural batch for prim.
//
// Parameters:
//   - prim: the primitive kind to generate
//   - buf: pointer to the buffer holding one draw argument record, dereferenced
//     at submission
//   - handle: the object resource handle
func (p *Pass) DrawProceduralIndirect(prim gpu.PrimitiveType, buf *gpu.StorageBuffer, handle command.ResourceHandle) {
	p.DrawIndirect(cache.ProceduralBatch(prim), buf, handle)
}

// Dispatch records a compute dispatch with group counts captured by value.
//
// Parameters:
//   - groups: the workgroup counts in x, y, z
func (p *Pass) Dispatch(groups common.Int3) {
	p.requireShader("dispatch")
	p.header(command.TypeDispatch, p.commands.AppendDispatch(command.Dispatch{Groups: groups}))
}

// DispatchRef records a compute dispatch whose group counts are read through
// groups at submission time. The caller must keep the value alive until
// submission.
//
// Parameters:
//   - groups: pointer to the workgroup counts, read at submission
func (p *Pass) DispatchRef(groups *common.Int3) {
	p.requireShader("dispatch")
	p.header(command.TypeDispatch, p.commands.AppendDispatch(command.Dispatch{GroupsRef: groups}))
}

// DispatchIndirect records a compute dispatch whose group counts are read
// from a caller-owned GPU buffer at execution time.
//
// Parameters:
//   - buf: pointer to the buffer holding one dispatch argument record,
//     dereferenced at submission
func (p *Pass) DispatchIndirect(buf *gpu.StorageBuffer) {
	p.requireShader("dispatch")
	p.header(command.TypeDispatchIndirect, p.commands.AppendDispatchIndirect(command.DispatchIndirect{Buf: buf}))
}

// Barrier records an explicit memory/execution barrier. No barrier is ever
// inserted automatically; ordering across read-after-write hazards between
// recorded commands is entirely the recording caller's responsibility.
//
// Parameters:
//   - barrier: the barrier type bits
func (p *Pass) Barrier(barrier gpu.BarrierType) {
	p.header(command.TypeBarrier, p.commands.AppendBarrier(command.Barrier{Type: barrier}))
}

// Submit replays the recorded commands in record order, expanding sub-passes
// depth-first at their creation point. The recording is left untouched;
// submitting again replays the identical sequence. Replay runs on the calling
// goroutine, which must own the GPU context.
//
// Parameters:
//   - state: the ambient replay state threaded through the walk
func (p *Pass) Submit(state *command.RecordingState) {
	state.Backend.DebugGroupBegin(p.name)
	for _, h := range p.headers {
		switch h.Type {
		case command.TypeNone:
		case command.TypeSubPass:
			(*p.subs)[h.Index].Submit(state)
		case command.TypeShaderBind:
			p.commands.ShaderBinds[h.Index].Execute(state)
		case command.TypeResourceBind:
			p.commands.ResourceBinds[h.Index].Execute()
		case command.TypePushConstant:
			p.commands.PushConstants[h.Index].Execute(state)
		case command.TypeDraw:
			p.commands.Draws[h.Index].Execute(state)
		case command.TypeDrawMulti:
			p.commands.DrawMultis[h.Index].Execute(state)
		case command.TypeDrawIndirect:
			p.commands.DrawIndirects[h.Index].Execute(state)
		case command.TypeDispatch:
			p.commands.Dispatches[h.Index].Execute(state)
		case command.TypeDispatchIndirect:
			p.commands.DispatchIndirects[h.Index].Execute(state)
		case command.TypeBarrier:
			p.commands.Barriers[h.Index].Execute(state)
		case command.TypeClear:
			p.commands.Clears[h.Index].Execute(state)
		case command.TypeStateSet:
			p.commands.StateSets[h.Index].Execute(state)
		case command.TypeStencilSet:
			p.commands.StencilSets[h.Index].Execute(state)
		}
	}
	state.Backend.DebugGroupEnd()
}

// Serialize returns a human-readable dump of the recorded command stream in
// execution order, one command per line, with sub-passes indented under their
// creation point.
//
// Parameters:
//   - linePrefix: indentation applied to every line; sub-passes add two spaces
//
// Returns:
//   - string: the serialized pass, newline-terminated
func (p *Pass) Serialize(linePrefix string) string {
	s := linePrefix + "." + p.name + "\n"
	inner := linePrefix + "  "
	for _, h := range p.headers {
		switch h.Type {
		case command.TypeNone:
		case command.TypeSubPass:
			s += (*p.subs)[h.Index].Serialize(inner)
		case command.TypeShaderBind:
			s += inner + p.commands.ShaderBinds[h.Index].Serialize() + "\n"
		case command.TypeResourceBind:
			s += inner + p.commands.ResourceBinds[h.Index].Serialize() + "\n"
		case command.TypePushConstant:
			s += inner + p.commands.PushConstants[h.Index].Serialize() + "\n"
		case command.TypeDraw:
			s += inner + p.commands.Draws[h.Index].Serialize() + "\n"
		case command.TypeDrawMulti:
			s += p.commands.DrawMultis[h.Index].Serialize(inner)
		case command.TypeDrawIndirect:
			s += inner + p.commands.DrawIndirects[h.Index].Serialize() + "\n"
		case command.TypeDispatch:
			s += inner + p.commands.Dispatches[h.Index].Serialize() + "\n"
		case command.TypeDispatchIndirect:
			s += inner + p.commands.DispatchIndirects[h.Index].Serialize() + "\n"
		case command.TypeBarrier:
			s += inner + p.commands.Barriers[h.Index].Serialize() + "\n"
		case command.TypeClear:
			s += inner + p.commands.Clears[h.Index].Serialize() + "\n"
		case command.TypeStateSet:
			s += inner + p.commands.StateSets[h.Index].Serialize() + "\n"
		case command.TypeStencilSet:
			s += inner + p.commands.StencilSets[h.Index].Serialize() + "\n"
		}
	}
	return s
}
