// Package webgpu implements the gpu contracts on top of WebGPU via
// wgpu-native. Shaders are single WGSL modules whose binding interface is
// reflected at creation; pipelines are specialized per shader and pipeline
// state on demand and cached.
//
// The recording API binds resources by slot number. The backend maps a slot
// directly to a @binding number in bind group 0, so shaders written against
// this backend declare their recording-visible resources in group 0. Uniform
// updates target a uniform buffer named push_constants; the backend stages
// updates on the CPU and flushes them through a dynamic-offset ring buffer
// before each draw or dispatch that consumes them.
package webgpu

import (
	"fmt"
	"log"
	"runtime"
	"sync"

	"github.com/Carmen-Shannon/oxy-draw/common"
	"github.com/Carmen-Shannon/oxy-draw/gpu"
	"github.com/cogentcore/webgpu/wgpu"
)

const (
	// maxBindingSlots bounds the slot table. Slot numbers map to @binding
	// numbers, so this is the highest binding the recording API can target.
	maxBindingSlots = 32

	// pcRingAlign is the dynamic offset alignment required for uniform
	// buffers by the WebGPU default limits.
	pcRingAlign = 256

	// pcRingInitialSize is the starting size of the push-constant ring
	// buffer. The ring grows when a frame records more uniform updates than
	// fit.
	pcRingInitialSize = 1 << 20

	// depthFormat is the depth/stencil attachment format. Stencil state in
	// the recording API requires a format with a stencil aspect.
	depthFormat = wgpu.TextureFormatDepth24PlusStencil8
)

// slotBinding is one entry of the slot table: whatever resource the recording
// API most recently bound to a slot.
type slotBinding struct {
	kind       bindingKind
	buffer     *wgpu.Buffer
	bufferID   uint64
	bufferSize uint64
	view       *wgpu.TextureView
	textureID  uint64
	sampler    gpu.SamplerState
}

// renderPipelineKey identifies one specialization of a shader: the pipeline
// state bits, the stencil masks baked into pipeline state, and the geometry
// layout of the batch being drawn.
type renderPipelineKey struct {
	shader         string
	state          gpu.State
	stencilWrite   uint8
	stencilCompare uint8
	layout         string
}

// wgpuBackendImpl is the implementation of the Backend interface.
type wgpuBackendImpl struct {
	mu       *sync.Mutex
	instance *wgpu.Instance
	surface  *wgpu.Surface
	adapter  *wgpu.Adapter
	device   *wgpu.Device
	queue    *wgpu.Queue

	surfaceDescriptor    *wgpu.SurfaceDescriptor
	forceFallbackAdapter bool
	presentMode          wgpu.PresentMode

	targetFormat  wgpu.TextureFormat
	offscreenView *wgpu.TextureView
	depthView     *wgpu.TextureView
	width, height int

	frameEncoder *wgpu.CommandEncoder
	frameSurface *wgpu.Texture
	frameView    *wgpu.TextureView
	renderPass   *wgpu.RenderPassEncoder
	computePass  *wgpu.ComputePassEncoder
	frameIndex   uint64

	pendingClear   gpu.FrameBufferBits
	clearColor     common.Float4
	clearDepth     float32
	clearStencil   uint8
	attachmentUsed bool

	activeShader    *wgpuShader
	currentState    gpu.State
	stencilWrite    uint8
	stencilRef      uint8
	stencilCompare  uint8
	boundPipeline   *wgpu.RenderPipeline
	boundCompute    *wgpu.ComputePipeline
	debugStack      []string
	slots           [maxBindingSlots]slotBinding
	bindGroupCache  map[string]*wgpu.BindGroup
	renderPipelines map[renderPipelineKey]*wgpu.RenderPipeline
	computePipes    map[string]*wgpu.ComputePipeline
	samplers        map[gpu.SamplerState]*wgpu.Sampler
	procedural      map[gpu.PrimitiveType]gpu.Batch

	pcRing       *wgpu.Buffer
	pcRingID     uint64
	pcRingSize   uint64
	pcRingOffset uint64

	resourceSeq uint64
}

// Backend is the WebGPU backend: the gpu.Backend replay operations plus the
// surface and frame lifecycle and resource constructors.
type Backend interface {
	gpu.Backend

	// ConfigureSurface (re)configures the presentation surface, or the
	// offscreen render target when the backend was built without a surface,
	// along with the matching depth/stencil attachment.
	//
	// Parameters:
	//   - width: the surface width in pixels
	//   - height: the surface height in pixels
	ConfigureSurface(width, height int)

	// BeginFrame acquires the frame's render target and opens its command
	// encoder. The frame starts with a full clear of all planes.
	//
	// Returns:
	//   - error: an error if the surface texture could not be acquired
	BeginFrame() error

	// EndFrame closes the frame's passes and submits its commands.
	EndFrame()

	// Present presents the frame's surface texture. A no-op for offscreen
	// backends.
	Present()

	// CreateShader compiles a WGSL module and reflects its binding interface.
	//
	// Parameters:
	//   - name: the shader's debug identifier
	//   - source: the WGSL source
	//
	// Returns:
	//   - gpu.Shader: the compiled shader
	//   - error: an error if compilation or reflection fails
	CreateShader(name, source string) (gpu.Shader, error)

	// CreateBatch creates a geometry batch configured with the provided options.
	//
	// Parameters:
	//   - options: variadic list of BatchBuilderOption functions to configure the batch
	//
	// Returns:
	//   - gpu.Batch: the new batch
	CreateBatch(options ...BatchBuilderOption) gpu.Batch

	// CreateTexture creates a texture configured with the provided options.
	// The texture's GPU storage is created when Allocate runs.
	//
	// Parameters:
	//   - options: variadic list of TextureBuilderOption functions to configure the texture
	//
	// Returns:
	//   - gpu.Texture: the new texture
	CreateTexture(options ...TextureBuilderOption) gpu.Texture

	// Device returns the underlying WebGPU device.
	//
	// Returns:
	//   - *wgpu.Device: the device
	Device() *wgpu.Device

	// Queue returns the underlying WebGPU queue.
	//
	// Returns:
	//   - *wgpu.Queue: the queue
	Queue() *wgpu.Queue
}

var _ Backend = &wgpuBackendImpl{}

// NewBackend brings up the WebGPU instance, adapter, device, and queue, and
// returns a Backend configured with the provided options. Bring-up failures
// panic; there is nothing to render without a device.
//
// The calling goroutine is locked to its OS thread; all replay runs on it.
//
// Parameters:
//   - options: variadic list of BackendBuilderOption functions to configure the backend
//
// Returns:
//   - Backend: a new Backend instance
func NewBackend(options ...BackendBuilderOption) Backend {
	runtime.LockOSThread()
	b := &wgpuBackendImpl{
		mu:              &sync.Mutex{},
		presentMode:     wgpu.PresentModeImmediate,
		targetFormat:    wgpu.TextureFormatRGBA8UnormSrgb,
		bindGroupCache:  make(map[string]*wgpu.BindGroup),
		renderPipelines: make(map[renderPipelineKey]*wgpu.RenderPipeline),
		computePipes:    make(map[string]*wgpu.ComputePipeline),
		samplers:        make(map[gpu.SamplerState]*wgpu.Sampler),
		procedural:      make(map[gpu.PrimitiveType]gpu.Batch),
	}
	for _, opt := range options {
		opt(b)
	}

	b.instance = wgpu.CreateInstance(nil)
	if b.surfaceDescriptor != nil {
		b.surface = b.instance.CreateSurface(b.surfaceDescriptor)
	}

	a, err := b.instance.RequestAdapter(&wgpu.RequestAdapterOptions{
		ForceFallbackAdapter: b.forceFallbackAdapter,
		CompatibleSurface:    b.surface,
	})
	if err != nil {
		panic(err)
	}
	b.adapter = a

	limits := wgpu.DefaultLimits()
	limits.MaxBindGroups = 8

	d, err := a.RequestDevice(&wgpu.DeviceDescriptor{
		Label: "Draw Device",
		RequiredLimits: &wgpu.RequiredLimits{
			Limits: limits,
		},
	})
	if err != nil {
		panic(err)
	}
	b.device = d
	b.queue = d.GetQueue()

	return b
}

func (b *wgpuBackendImpl) ConfigureSurface(width, height int) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.width, b.height = width, height

	if b.surface != nil {
		capabilities := b.surface.GetCapabilities(b.adapter)
		b.targetFormat = capabilities.Formats[0]

		b.surface.Configure(b.adapter, b.device, &wgpu.SurfaceConfiguration{
			Usage:       wgpu.TextureUsageRenderAttachment,
			Format:      b.targetFormat,
			Width:       uint32(width),
			Height:      uint32(height),
			PresentMode: b.presentMode,
			AlphaMode:   capabilities.AlphaModes[0],
		})
	} else {
		// Offscreen target for surfaceless (compute or test capture) use.
		colorTexture, err := b.device.CreateTexture(&wgpu.TextureDescriptor{
			Label: "Offscreen Color Texture",
			Size: wgpu.Extent3D{
				Width:              uint32(width),
				Height:             uint32(height),
				DepthOrArrayLayers: 1,
			},
			MipLevelCount: 1,
			SampleCount:   1,
			Dimension:     wgpu.TextureDimension2D,
			Format:        b.targetFormat,
			Usage:         wgpu.TextureUsageRenderAttachment | wgpu.TextureUsageCopySrc,
		})
		if err != nil {
			panic(err)
		}
		b.offscreenView, err = colorTexture.CreateView(nil)
		if err != nil {
			panic(err)
		}
	}

	depthTexture, err := b.device.CreateTexture(&wgpu.TextureDescriptor{
		Label: "Depth Stencil Texture",
		Size: wgpu.Extent3D{
			Width:              uint32(width),
			Height:             uint32(height),
			DepthOrArrayLayers: 1,
		},
		MipLevelCount: 1,
		SampleCount:   1,
		Dimension:     wgpu.TextureDimension2D,
		Format:        depthFormat,
		Usage:         wgpu.TextureUsageRenderAttachment,
	})
	if err != nil {
		panic(err)
	}
	b.depthView, err = depthTexture.CreateView(nil)
	if err != nil {
		panic(err)
	}

	// Surface format participates in every render pipeline; drop stale ones.
	b.renderPipelines = make(map[renderPipelineKey]*wgpu.RenderPipeline)
	b.boundPipeline = nil
}

func (b *wgpuBackendImpl) BeginFrame() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.frameEncoder != nil {
		return fmt.Errorf("previous frame not yet submitted")
	}

	if b.surface != nil {
		surfaceTexture, err := b.surface.GetCurrentTexture()
		if err != nil {
			return err
		}
		view, err := surfaceTexture.CreateView(nil)
		if err != nil {
			surfaceTexture.Release()
			return err
		}
		b.frameSurface = surfaceTexture
		b.frameView = view
	} else {
		if b.offscreenView == nil {
			return fmt.Errorf("offscreen backend not configured; call ConfigureSurface first")
		}
		b.frameView = b.offscreenView
	}

	encoder, err := b.device.CreateCommandEncoder(nil)
	if err != nil {
		b.releaseFrameTarget()
		return err
	}
	b.frameEncoder = encoder
	b.frameIndex++

	b.pendingClear = gpu.ColorBit | gpu.DepthBit | gpu.StencilBit
	b.clearColor = common.Float4{0.1, 0.1, 0.1, 1.0}
	b.clearDepth = 1.0
	b.clearStencil = 0
	b.attachmentUsed = false

	b.currentState = gpu.StateNoDraw
	b.activeShader = nil
	b.boundPipeline = nil
	b.boundCompute = nil
	b.pcRingOffset = 0

	return nil
}

func (b *wgpuBackendImpl) EndFrame() {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.frameEncoder == nil {
		return
	}

	// A clear with no draws after it still has to reach the attachments.
	if b.pendingClear != 0 {
		b.beginRenderPass()
	}
	b.endActivePasses()

	commandBuffer, err := b.frameEncoder.Finish(nil)
	if err != nil {
		b.frameEncoder.Release()
		b.frameEncoder = nil
		b.releaseFrameTarget()
		return
	}

	b.queue.Submit(commandBuffer)

	commandBuffer.Release()
	b.frameEncoder.Release()
	b.frameEncoder = nil
}

func (b *wgpuBackendImpl) Present() {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.surface != nil && b.frameSurface != nil {
		b.surface.Present()
	}
	b.releaseFrameTarget()
}

// releaseFrameTarget drops the frame's surface texture and view. Offscreen
// frame views alias the persistent offscreen target and are not released.
func (b *wgpuBackendImpl) releaseFrameTarget() {
	if b.frameView != nil && b.frameView != b.offscreenView {
		b.frameView.Release()
	}
	b.frameView = nil
	if b.frameSurface != nil {
		b.frameSurface.Release()
		b.frameSurface = nil
	}
}

// beginRenderPass opens a render pass on the frame encoder, consuming any
// pending clear as the pass's load ops. Anything already rendered this frame
// is loaded back in.
func (b *wgpuBackendImpl) beginRenderPass() {
	if b.renderPass != nil {
		return
	}
	b.endComputePass()
	if b.frameEncoder == nil || b.frameView == nil {
		return
	}

	loadOp := func(bit gpu.FrameBufferBits) wgpu.LoadOp {
		if b.pendingClear&bit != 0 || !b.attachmentUsed {
			return wgpu.LoadOpClear
		}
		return wgpu.LoadOpLoad
	}

	b.renderPass = b.frameEncoder.BeginRenderPass(&wgpu.RenderPassDescriptor{
		ColorAttachments: []wgpu.RenderPassColorAttachment{
			{
				View:    b.frameView,
				LoadOp:  loadOp(gpu.ColorBit),
				StoreOp: wgpu.StoreOpStore,
				ClearValue: wgpu.Color{
					R: float64(b.clearColor[0]),
					G: float64(b.clearColor[1]),
					B: float64(b.clearColor[2]),
					A: float64(b.clearColor[3]),
				},
			},
		},
		DepthStencilAttachment: &wgpu.RenderPassDepthStencilAttachment{
			View:              b.depthView,
			DepthLoadOp:       loadOp(gpu.DepthBit),
			DepthStoreOp:      wgpu.StoreOpStore,
			DepthClearValue:   b.clearDepth,
			StencilLoadOp:     loadOp(gpu.StencilBit),
			StencilStoreOp:    wgpu.StoreOpStore,
			StencilClearValue: uint32(b.clearStencil),
		},
	})
	b.pendingClear = 0
	b.attachmentUsed = true
	b.boundPipeline = nil

	b.renderPass.SetStencilReference(uint32(b.stencilRef))
	for _, name := range b.debugStack {
		b.renderPass.PushDebugGroup(name)
	}
}

// beginComputePass opens a compute pass on the frame encoder, closing any
// open render pass first.
func (b *wgpuBackendImpl) beginComputePass() {
	if b.computePass != nil {
		return
	}
	b.endRenderPass()
	if b.frameEncoder == nil {
		return
	}
	b.computePass = b.frameEncoder.BeginComputePass(nil)
	b.boundCompute = nil
	for _, name := range b.debugStack {
		b.computePass.PushDebugGroup(name)
	}
}

func (b *wgpuBackendImpl) endRenderPass() {
	if b.renderPass == nil {
		return
	}
	for range b.debugStack {
		b.renderPass.PopDebugGroup()
	}
	b.renderPass.End()
	b.renderPass = nil
	b.boundPipeline = nil
}

func (b *wgpuBackendImpl) endComputePass() {
	if b.computePass == nil {
		return
	}
	for range b.debugStack {
		b.computePass.PopDebugGroup()
	}
	b.computePass.End()
	b.computePass = nil
	b.boundCompute = nil
}

func (b *wgpuBackendImpl) endActivePasses() {
	b.endRenderPass()
	b.endComputePass()
}

func (b *wgpuBackendImpl) ShaderBind(sh gpu.Shader) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.activeShader = b.resolveShader(sh)
	b.boundPipeline = nil
	b.boundCompute = nil
}

func (b *wgpuBackendImpl) StateSet(state gpu.State) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.currentState = state
	b.boundPipeline = nil
}

func (b *wgpuBackendImpl) StencilSet(writeMask, reference, compareMask uint8) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.stencilWrite = writeMask
	b.stencilRef = reference
	b.stencilCompare = compareMask
	b.boundPipeline = nil
	if b.renderPass != nil {
		b.renderPass.SetStencilReference(uint32(reference))
	}
}

func (b *wgpuBackendImpl) Clear(planes gpu.FrameBufferBits, color common.Float4, depth float32, stencil uint8) {
	b.mu.Lock()
	defer b.mu.Unlock()

	// Clears become the load ops of the next render pass.
	b.endActivePasses()
	b.pendingClear |= planes
	if planes&gpu.ColorBit != 0 {
		b.clearColor = color
	}
	if planes&gpu.DepthBit != 0 {
		b.clearDepth = depth
	}
	if planes&gpu.StencilBit != 0 {
		b.clearStencil = stencil
	}
}

func (b *wgpuBackendImpl) Barrier(barrier gpu.BarrierType) {
	b.mu.Lock()
	defer b.mu.Unlock()

	// WebGPU tracks hazards at pass boundaries. Splitting the current pass is
	// the strongest ordering point available and covers every barrier type.
	b.endActivePasses()
}

func (b *wgpuBackendImpl) DebugGroupBegin(name string) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.debugStack = append(b.debugStack, name)
	if b.renderPass != nil {
		b.renderPass.PushDebugGroup(name)
	} else if b.computePass != nil {
		b.computePass.PushDebugGroup(name)
	}
}

func (b *wgpuBackendImpl) DebugGroupEnd() {
	b.mu.Lock()
	defer b.mu.Unlock()

	if len(b.debugStack) == 0 {
		return
	}
	if b.renderPass != nil {
		b.renderPass.PopDebugGroup()
	} else if b.computePass != nil {
		b.computePass.PopDebugGroup()
	}
	b.debugStack = b.debugStack[:len(b.debugStack)-1]
}

func (b *wgpuBackendImpl) NewStorageBuffer(label string, size int) gpu.StorageBuffer {
	b.mu.Lock()
	defer b.mu.Unlock()

	sb := &wgpuStorageBuffer{backend: b, name: label}
	sb.allocate(size)
	return sb
}

func (b *wgpuBackendImpl) NewUniformBuffer(label string, size int) gpu.UniformBuffer {
	b.mu.Lock()
	defer b.mu.Unlock()

	ub := &wgpuUniformBuffer{backend: b, name: label}
	ub.allocate(size)
	return ub
}

func (b *wgpuBackendImpl) ProceduralBatch(prim gpu.PrimitiveType) gpu.Batch {
	b.mu.Lock()
	defer b.mu.Unlock()

	if bt, ok := b.procedural[prim]; ok {
		return bt
	}
	switch prim {
	case gpu.PrimitivePoints, gpu.PrimitiveLines, gpu.PrimitiveTriangles, gpu.PrimitiveTriangleStrip:
	default:
		panic(fmt.Sprintf("webgpu: unsupported procedural primitive %s", prim))
	}
	bt := &wgpuBatch{
		backend:    b,
		name:       "procedural_" + prim.String(),
		topology:   prim,
		procedural: true,
	}
	b.procedural[prim] = bt
	return bt
}

func (b *wgpuBackendImpl) CreateShader(name, source string) (gpu.Shader, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	return newWGPUShader(b.device, name, source)
}

func (b *wgpuBackendImpl) CreateBatch(options ...BatchBuilderOption) gpu.Batch {
	bt := &wgpuBatch{
		backend:  b,
		topology: gpu.PrimitiveTriangles,
	}
	for _, opt := range options {
		opt(bt)
	}
	return bt
}

func (b *wgpuBackendImpl) CreateTexture(options ...TextureBuilderOption) gpu.Texture {
	t := &wgpuTexture{backend: b}
	for _, opt := range options {
		opt(t)
	}
	return t
}

func (b *wgpuBackendImpl) Device() *wgpu.Device {
	return b.device
}

func (b *wgpuBackendImpl) Queue() *wgpu.Queue {
	return b.queue
}

// bindBufferSlot records a buffer binding in the slot table. Out-of-range
// slots are dropped with a log line rather than panicking; the slot number
// came from shader reflection and a bad one means a shader bug, not a caller
// bug.
func (b *wgpuBackendImpl) bindBufferSlot(slot int, binding slotBinding) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if slot < 0 || slot >= maxBindingSlots {
		log.Printf("[WGPUBackend] buffer bind to out-of-range slot %d dropped", slot)
		return
	}
	b.slots[slot] = binding
}

// bindTextureSlot records a texture binding in the slot table.
func (b *wgpuBackendImpl) bindTextureSlot(slot int, binding slotBinding) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if slot < 0 || slot >= maxBindingSlots {
		log.Printf("[WGPUBackend] texture bind to out-of-range slot %d dropped", slot)
		return
	}
	b.slots[slot] = binding
}

// resolveShader narrows a gpu.Shader to this backend's implementation.
func (b *wgpuBackendImpl) resolveShader(sh gpu.Shader) *wgpuShader {
	if sh == nil {
		return nil
	}
	shader, ok := sh.(*wgpuShader)
	if !ok {
		log.Printf("[WGPUBackend] shader %s was not created by this backend", sh.Name())
		return nil
	}
	return shader
}

// nextResourceID issues a fresh identity for a GPU resource. Identities
// participate in bind group cache keys, so recreating a resource naturally
// invalidates bind groups that referenced its old storage.
func (b *wgpuBackendImpl) nextResourceID() uint64 {
	b.resourceSeq++
	return b.resourceSeq
}
