package webgpu

import (
	"fmt"
	"log"
	"strings"

	"github.com/Carmen-Shannon/oxy-draw/common"
	"github.com/Carmen-Shannon/oxy-draw/gpu"
	"github.com/cogentcore/webgpu/wgpu"
)

// batchDraw replays one direct draw: resolve the pipeline for the current
// state, bind groups and push constants, geometry, then draw. The resource ID
// rides in the first-instance slot; shaders recover it from the instance index.
func (b *wgpuBackendImpl) batchDraw(bt *wgpuBatch, sh gpu.Shader, instanceLen, vertexLen, vertexFirst, resourceID uint32) {
	b.mu.Lock()
	defer b.mu.Unlock()

	shader := b.resolveShader(sh)
	if shader == nil || shader.refl.vertexEntry == "" {
		return
	}
	b.beginRenderPass()
	if b.renderPass == nil {
		return
	}
	if !b.bindRenderPipeline(shader, bt) {
		return
	}
	if !b.bindShaderGroups(b.renderPass, shader) {
		return
	}
	b.bindGeometry(bt)

	if bt.Indexed() {
		b.renderPass.DrawIndexed(vertexLen, instanceLen, vertexFirst, 0, resourceID)
	} else {
		b.renderPass.Draw(vertexLen, instanceLen, vertexFirst, resourceID)
	}
}

// batchDrawIndirect replays count indirect draws of bt from consecutive
// records in buf. WebGPU has no multi-draw call, so the records are issued as
// a loop of single indirect draws sharing one pipeline and bind state.
func (b *wgpuBackendImpl) batchDrawIndirect(bt *wgpuBatch, sh gpu.Shader, buf gpu.StorageBuffer, count int, offset uint64) {
	b.mu.Lock()
	defer b.mu.Unlock()

	shader := b.resolveShader(sh)
	if shader == nil || shader.refl.vertexEntry == "" {
		return
	}
	sb, ok := buf.(*wgpuStorageBuffer)
	if !ok || sb.buffer == nil {
		log.Printf("[WGPUBackend] indirect draw of batch %s dropped: argument buffer not resident", bt.name)
		return
	}
	b.beginRenderPass()
	if b.renderPass == nil {
		return
	}
	if !b.bindRenderPipeline(shader, bt) {
		return
	}
	if !b.bindShaderGroups(b.renderPass, shader) {
		return
	}
	b.bindGeometry(bt)

	indexed := bt.Indexed()
	for i := 0; i < count; i++ {
		recordOffset := offset + uint64(i)*gpu.DrawArgsSize
		if indexed {
			b.renderPass.DrawIndexedIndirect(sb.buffer, recordOffset)
		} else {
			b.renderPass.DrawIndirect(sb.buffer, recordOffset)
		}
	}
}

func (b *wgpuBackendImpl) Dispatch(sh gpu.Shader, groups common.Int3) {
	b.mu.Lock()
	defer b.mu.Unlock()

	shader := b.resolveShader(sh)
	if shader == nil || shader.refl.computeEntry == "" {
		return
	}
	b.beginComputePass()
	if b.computePass == nil {
		return
	}
	if !b.bindComputePipeline(shader) {
		return
	}
	if !b.bindShaderGroups(b.computePass, shader) {
		return
	}
	x, y, z := clampGroups(groups)
	b.computePass.DispatchWorkgroups(x, y, z)
}

func (b *wgpuBackendImpl) DispatchIndirect(sh gpu.Shader, buf gpu.StorageBuffer) {
	b.mu.Lock()
	defer b.mu.Unlock()

	shader := b.resolveShader(sh)
	if shader == nil || shader.refl.computeEntry == "" {
		return
	}
	sb, ok := buf.(*wgpuStorageBuffer)
	if !ok || sb.buffer == nil {
		log.Printf("[WGPUBackend] indirect dispatch dropped: argument buffer not resident")
		return
	}
	b.beginComputePass()
	if b.computePass == nil {
		return
	}
	if !b.bindComputePipeline(shader) {
		return
	}
	if !b.bindShaderGroups(b.computePass, shader) {
		return
	}
	b.computePass.DispatchWorkgroupsIndirect(sb.buffer, 0)
}

func (b *wgpuBackendImpl) UniformFloat(sh gpu.Shader, location, compLen, arrayLen int, data []float32) {
	shader := b.resolveShader(sh)
	if shader == nil {
		return
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	shader.writeUniform(location, common.SliceToBytes(data))
}

func (b *wgpuBackendImpl) UniformInt(sh gpu.Shader, location, compLen, arrayLen int, data []int32) {
	shader := b.resolveShader(sh)
	if shader == nil {
		return
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	shader.writeUniform(location, common.SliceToBytes(data))
}

// passBinder is the shared surface of render and compute pass encoders the
// bind group path needs.
type passBinder interface {
	SetBindGroup(groupIndex uint32, group *wgpu.BindGroup, dynamicOffsets []uint32)
}

// bindShaderGroups sets every bind group of the shader on the pass, flushing
// staged push constants into the ring buffer and passing their dynamic offset
// alongside the group that contains them.
func (b *wgpuBackendImpl) bindShaderGroups(pass passBinder, shader *wgpuShader) bool {
	var pcOffset uint32
	hasPC := shader.hasPushConstants()
	if hasPC {
		offset, ok := b.flushPushConstants(shader)
		if !ok {
			return false
		}
		pcOffset = offset
	}

	for g := range shader.groupLayouts {
		group := b.bindGroupFor(shader, g)
		if group == nil {
			return false
		}
		// Group 0 holds the push-constants binding when the shader has one.
		if hasPC && g == 0 {
			pass.SetBindGroup(uint32(g), group, []uint32{pcOffset})
		} else {
			pass.SetBindGroup(uint32(g), group, nil)
		}
	}
	return true
}

// bindGeometry sets the batch's vertex and index buffers on the render pass.
func (b *wgpuBackendImpl) bindGeometry(bt *wgpuBatch) {
	if bt.vertexBuffer != nil {
		b.renderPass.SetVertexBuffer(0, bt.vertexBuffer, 0, wgpu.WholeSize)
	}
	if bt.indexBuffer != nil {
		b.renderPass.SetIndexBuffer(bt.indexBuffer, wgpu.IndexFormatUint32, 0, wgpu.WholeSize)
	}
}

// bindRenderPipeline resolves and sets the pipeline specialization for the
// shader, current state, and batch layout.
func (b *wgpuBackendImpl) bindRenderPipeline(shader *wgpuShader, bt *wgpuBatch) bool {
	pipeline := b.renderPipeline(shader, bt)
	if pipeline == nil {
		return false
	}
	if pipeline != b.boundPipeline {
		b.renderPass.SetPipeline(pipeline)
		b.boundPipeline = pipeline
	}
	return true
}

func (b *wgpuBackendImpl) bindComputePipeline(shader *wgpuShader) bool {
	pipeline := b.computePipeline(shader)
	if pipeline == nil {
		return false
	}
	if pipeline != b.boundCompute {
		b.computePass.SetPipeline(pipeline)
		b.boundCompute = pipeline
	}
	return true
}

// renderPipeline returns the cached pipeline for the key, creating it on
// first use.
func (b *wgpuBackendImpl) renderPipeline(shader *wgpuShader, bt *wgpuBatch) *wgpu.RenderPipeline {
	key := renderPipelineKey{
		shader:         shader.name,
		state:          b.currentState,
		stencilWrite:   b.stencilWrite,
		stencilCompare: b.stencilCompare,
		layout:         bt.pipelineLayoutKey(),
	}
	if pipeline, ok := b.renderPipelines[key]; ok {
		return pipeline
	}

	descriptor := &wgpu.RenderPipelineDescriptor{
		Label:  fmt.Sprintf("%s [%s]", shader.name, b.currentState),
		Layout: shader.pipelineLayout,
		Vertex: wgpu.VertexState{
			Module:     shader.module,
			EntryPoint: shader.refl.vertexEntry,
			Buffers:    bt.vertexBufferLayouts(),
		},
		Primitive: wgpu.PrimitiveState{
			Topology:  bt.primitiveTopology(),
			FrontFace: wgpu.FrontFaceCCW,
			CullMode:  cullMode(b.currentState),
		},
		DepthStencil: b.depthStencilState(),
		Multisample: wgpu.MultisampleState{
			Count: 1,
			Mask:  0xFFFFFFFF,
		},
	}
	if shader.refl.fragmentEntry != "" {
		descriptor.Fragment = &wgpu.FragmentState{
			Module:     shader.module,
			EntryPoint: shader.refl.fragmentEntry,
			Targets: []wgpu.ColorTargetState{
				{
					Format:    b.targetFormat,
					Blend:     blendState(b.currentState),
					WriteMask: colorWriteMask(b.currentState),
				},
			},
		}
	}

	pipeline, err := b.device.CreateRenderPipeline(descriptor)
	if err != nil {
		log.Printf("[WGPUBackend] failed to create render pipeline for %s: %v", shader.name, err)
		return nil
	}
	b.renderPipelines[key] = pipeline
	return pipeline
}

func (b *wgpuBackendImpl) computePipeline(shader *wgpuShader) *wgpu.ComputePipeline {
	if pipeline, ok := b.computePipes[shader.name]; ok {
		return pipeline
	}
	pipeline, err := b.device.CreateComputePipeline(&wgpu.ComputePipelineDescriptor{
		Label:  shader.name,
		Layout: shader.pipelineLayout,
		Compute: wgpu.ProgrammableStageDescriptor{
			Module:     shader.module,
			EntryPoint: shader.refl.computeEntry,
		},
	})
	if err != nil {
		log.Printf("[WGPUBackend] failed to create compute pipeline for %s: %v", shader.name, err)
		return nil
	}
	b.computePipes[shader.name] = pipeline
	return pipeline
}

// depthStencilState translates the current state bits and stencil masks into
// pipeline depth/stencil state. StateNoDraw compiles to a pipeline that
// passes nothing.
func (b *wgpuBackendImpl) depthStencilState() *wgpu.DepthStencilState {
	state := b.currentState

	depthCompare := wgpu.CompareFunctionAlways
	switch {
	case state == gpu.StateNoDraw:
		depthCompare = wgpu.CompareFunctionNever
	case state&gpu.StateDepthLess != 0:
		depthCompare = wgpu.CompareFunctionLess
	case state&gpu.StateDepthLessEqual != 0:
		depthCompare = wgpu.CompareFunctionLessEqual
	case state&gpu.StateDepthEqual != 0:
		depthCompare = wgpu.CompareFunctionEqual
	case state&gpu.StateDepthGreater != 0:
		depthCompare = wgpu.CompareFunctionGreater
	}

	stencilCompare := wgpu.CompareFunctionAlways
	if state&gpu.StateStencilEqual != 0 {
		stencilCompare = wgpu.CompareFunctionEqual
	}
	passOp := wgpu.StencilOperationKeep
	stencilWriteMask := uint32(0)
	if state&gpu.StateWriteStencil != 0 {
		passOp = wgpu.StencilOperationReplace
		stencilWriteMask = uint32(b.stencilWrite)
	}
	face := wgpu.StencilFaceState{
		Compare:     stencilCompare,
		FailOp:      wgpu.StencilOperationKeep,
		DepthFailOp: wgpu.StencilOperationKeep,
		PassOp:      passOp,
	}

	return &wgpu.DepthStencilState{
		Format:            depthFormat,
		DepthWriteEnabled: state&gpu.StateWriteDepth != 0,
		DepthCompare:      depthCompare,
		StencilFront:      face,
		StencilBack:       face,
		StencilReadMask:   uint32(b.stencilCompare),
		StencilWriteMask:  stencilWriteMask,
	}
}

func cullMode(state gpu.State) wgpu.CullMode {
	switch {
	case state&gpu.StateCullBack != 0:
		return wgpu.CullModeBack
	case state&gpu.StateCullFront != 0:
		return wgpu.CullModeFront
	default:
		return wgpu.CullModeNone
	}
}

func colorWriteMask(state gpu.State) wgpu.ColorWriteMask {
	if state&gpu.StateWriteColor != 0 {
		return wgpu.ColorWriteMaskAll
	}
	return wgpu.ColorWriteMaskNone
}

func blendState(state gpu.State) *wgpu.BlendState {
	switch {
	case state&gpu.StateBlendAlpha != 0:
		return &wgpu.BlendState{
			Color: wgpu.BlendComponent{
				SrcFactor: wgpu.BlendFactorSrcAlpha,
				DstFactor: wgpu.BlendFactorOneMinusSrcAlpha,
				Operation: wgpu.BlendOperationAdd,
			},
			Alpha: wgpu.BlendComponent{
				SrcFactor: wgpu.BlendFactorOne,
				DstFactor: wgpu.BlendFactorOneMinusSrcAlpha,
				Operation: wgpu.BlendOperationAdd,
			},
		}
	case state&gpu.StateBlendAdd != 0:
		return &wgpu.BlendState{
			Color: wgpu.BlendComponent{
				SrcFactor: wgpu.BlendFactorOne,
				DstFactor: wgpu.BlendFactorOne,
				Operation: wgpu.BlendOperationAdd,
			},
			Alpha: wgpu.BlendComponent{
				SrcFactor: wgpu.BlendFactorOne,
				DstFactor: wgpu.BlendFactorOne,
				Operation: wgpu.BlendOperationAdd,
			},
		}
	case state&gpu.StateBlendMul != 0:
		return &wgpu.BlendState{
			Color: wgpu.BlendComponent{
				SrcFactor: wgpu.BlendFactorDst,
				DstFactor: wgpu.BlendFactorZero,
				Operation: wgpu.BlendOperationAdd,
			},
			Alpha: wgpu.BlendComponent{
				SrcFactor: wgpu.BlendFactorDstAlpha,
				DstFactor: wgpu.BlendFactorZero,
				Operation: wgpu.BlendOperationAdd,
			},
		}
	default:
		return nil
	}
}

func clampGroups(groups common.Int3) (uint32, uint32, uint32) {
	clamp := func(v int32) uint32 {
		if v < 1 {
			return 1
		}
		return uint32(v)
	}
	return clamp(groups[0]), clamp(groups[1]), clamp(groups[2])
}

// flushPushConstants writes the shader's staged push-constants block into the
// ring buffer and returns the dynamic offset to bind it at. Unchanged blocks
// reuse their offset from earlier in the frame.
func (b *wgpuBackendImpl) flushPushConstants(shader *wgpuShader) (uint32, bool) {
	if !shader.pcDirty && shader.pcFrame == b.frameIndex {
		return uint32(shader.pcOffset), true
	}

	alloc := roundUpAlign(pcRingAlign, shader.refl.pcSize)
	if b.pcRing == nil || b.pcRingOffset+alloc > b.pcRingSize {
		if !b.growPushConstantRing(alloc) {
			return 0, false
		}
	}

	b.queue.WriteBuffer(b.pcRing, b.pcRingOffset, shader.pcStaging)
	shader.pcOffset = b.pcRingOffset
	shader.pcFrame = b.frameIndex
	shader.pcDirty = false
	b.pcRingOffset += alloc
	return uint32(shader.pcOffset), true
}

// growPushConstantRing replaces the ring buffer with a larger one. The old
// buffer stays alive until its last frame retires on the GPU; the new
// identity pushes cached bind groups that referenced it out of use.
func (b *wgpuBackendImpl) growPushConstantRing(minSize uint64) bool {
	size := b.pcRingSize * 2
	if size < pcRingInitialSize {
		size = pcRingInitialSize
	}
	for size < minSize {
		size *= 2
	}
	ring, err := b.device.CreateBuffer(&wgpu.BufferDescriptor{
		Label: "push_constant_ring",
		Size:  size,
		Usage: wgpu.BufferUsageUniform | wgpu.BufferUsageCopyDst,
	})
	if err != nil {
		log.Printf("[WGPUBackend] failed to grow push constant ring to %d bytes: %v", size, err)
		return false
	}
	b.pcRing = ring
	b.pcRingSize = size
	b.pcRingOffset = 0
	b.pcRingID = b.nextResourceID()
	return true
}

// bindGroupFor builds or reuses the bind group for one group of the shader
// from the slot table. The cache key carries the identity of every referenced
// resource, so rebinding a slot or recreating a buffer produces a new group
// while steady-state frames hit the cache.
func (b *wgpuBackendImpl) bindGroupFor(shader *wgpuShader, groupIndex int) *wgpu.BindGroup {
	var key strings.Builder
	fmt.Fprintf(&key, "%s/g%d/r%d", shader.name, groupIndex, b.pcRingID)

	entries := make([]wgpu.BindGroupEntry, 0, 8)
	for _, info := range shader.refl.bindings {
		if info.group != groupIndex {
			continue
		}

		if info.binding == shader.refl.pcBinding && info.kind == bindingUniform && info.name == pushConstantsVar {
			if b.pcRing == nil && !b.growPushConstantRing(roundUpAlign(pcRingAlign, shader.refl.pcSize)) {
				return nil
			}
			entries = append(entries, wgpu.BindGroupEntry{
				Binding: uint32(info.binding),
				Buffer:  b.pcRing,
				Offset:  0,
				Size:    shader.refl.pcSize,
			})
			continue
		}

		if info.binding >= maxBindingSlots {
			log.Printf("[WGPUBackend] shader %s declares %s at binding %d beyond the slot table", shader.name, info.name, info.binding)
			return nil
		}
		slot := b.slots[info.binding]

		switch info.kind {
		case bindingStorage, bindingUniform:
			if slot.buffer == nil || slot.kind != info.kind {
				log.Printf("[WGPUBackend] draw dropped: %s of shader %s has no %s bound at slot %d",
					info.name, shader.name, bindingKindName(info.kind), info.binding)
				return nil
			}
			size := slot.bufferSize
			if info.kind == bindingUniform && info.minSize > 0 && info.minSize < size {
				// Uniform blocks bind exactly their declared size.
				size = info.minSize
			}
			entries = append(entries, wgpu.BindGroupEntry{
				Binding: uint32(info.binding),
				Buffer:  slot.buffer,
				Offset:  0,
				Size:    size,
			})
			fmt.Fprintf(&key, "/b%d:%d", info.binding, slot.bufferID)
		case bindingTexture, bindingStorageTexture:
			if slot.view == nil {
				log.Printf("[WGPUBackend] draw dropped: %s of shader %s has no texture bound at slot %d",
					info.name, shader.name, info.binding)
				return nil
			}
			entries = append(entries, wgpu.BindGroupEntry{
				Binding:     uint32(info.binding),
				TextureView: slot.view,
			})
			fmt.Fprintf(&key, "/t%d:%d", info.binding, slot.textureID)
		case bindingSampler:
			state := b.samplerStateFor(shader, info.name)
			sampler := b.samplerFor(state)
			if sampler == nil {
				return nil
			}
			entries = append(entries, wgpu.BindGroupEntry{
				Binding: uint32(info.binding),
				Sampler: sampler,
			})
			fmt.Fprintf(&key, "/s%d:%d", info.binding, state)
		}
	}

	if group, ok := b.bindGroupCache[key.String()]; ok {
		return group
	}
	group, err := b.device.CreateBindGroup(&wgpu.BindGroupDescriptor{
		Label:   fmt.Sprintf("%s group %d", shader.name, groupIndex),
		Layout:  shader.groupLayouts[groupIndex],
		Entries: entries,
	})
	if err != nil {
		log.Printf("[WGPUBackend] failed to create bind group %d for %s: %v", groupIndex, shader.name, err)
		return nil
	}
	b.bindGroupCache[key.String()] = group
	return group
}

// samplerStateFor resolves the sampler state a sampler binding should use. A
// sampler named <texture>_sampler follows the sampler bound with that texture;
// anything else samples linearly.
func (b *wgpuBackendImpl) samplerStateFor(shader *wgpuShader, samplerName string) gpu.SamplerState {
	textureName := strings.TrimSuffix(samplerName, "_sampler")
	slot := shader.TextureBinding(textureName)
	if slot < 0 || slot >= maxBindingSlots {
		return gpu.SamplerLinear
	}
	bound := b.slots[slot]
	if bound.view == nil || bound.sampler == gpu.SamplerDefault {
		return gpu.SamplerLinear
	}
	return bound.sampler
}

// samplerFor returns the cached sampler object for a sampler state.
func (b *wgpuBackendImpl) samplerFor(state gpu.SamplerState) *wgpu.Sampler {
	if sampler, ok := b.samplers[state]; ok {
		return sampler
	}

	descriptor := wgpu.SamplerDescriptor{
		Label:         fmt.Sprintf("sampler_%d", state),
		AddressModeU:  wgpu.AddressModeClampToEdge,
		AddressModeV:  wgpu.AddressModeClampToEdge,
		AddressModeW:  wgpu.AddressModeClampToEdge,
		MagFilter:     wgpu.FilterModeLinear,
		MinFilter:     wgpu.FilterModeLinear,
		MipmapFilter:  wgpu.MipmapFilterModeLinear,
		LodMinClamp:   0.0,
		LodMaxClamp:   32.0,
		MaxAnisotropy: 1,
	}
	switch state {
	case gpu.SamplerNearest:
		descriptor.MagFilter = wgpu.FilterModeNearest
		descriptor.MinFilter = wgpu.FilterModeNearest
		descriptor.MipmapFilter = wgpu.MipmapFilterModeNearest
	case gpu.SamplerLinearRepeat:
		descriptor.AddressModeU = wgpu.AddressModeRepeat
		descriptor.AddressModeV = wgpu.AddressModeRepeat
		descriptor.AddressModeW = wgpu.AddressModeRepeat
	case gpu.SamplerCompareDepth:
		descriptor.Compare = wgpu.CompareFunctionLessEqual
	}

	sampler, err := b.device.CreateSampler(&descriptor)
	if err != nil {
		log.Printf("[WGPUBackend] failed to create sampler %d: %v", state, err)
		return nil
	}
	b.samplers[state] = sampler
	return sampler
}

func bindingKindName(kind bindingKind) string {
	switch kind {
	case bindingUniform:
		return "uniform buffer"
	case bindingStorage:
		return "storage buffer"
	case bindingTexture:
		return "texture"
	case bindingSampler:
		return "sampler"
	case bindingStorageTexture:
		return "storage texture"
	default:
		return "resource"
	}
}
