// Package gputest provides in-memory implementations of the gpu contracts
// that record every operation as a human-readable trace line. Tests replay
// recorded passes against a trace backend and assert on the resulting
// operation order instead of talking to a real GPU.
package gputest

import (
	"fmt"

	"github.com/Carmen-Shannon/oxy-draw/common"
	"github.com/Carmen-Shannon/oxy-draw/gpu"
)

// Backend is a gpu.Backend that appends one line per operation to Trace.
type Backend struct {
	Trace []string

	// Buffers and UniformBuffers collect every buffer the backend created,
	// keyed by label, so tests can inspect uploaded contents.
	Buffers        map[string]*StorageBuffer
	UniformBuffers map[string]*UniformBuffer

	procedural map[gpu.PrimitiveType]*Batch
}

var _ gpu.Backend = &Backend{}

// NewBackend creates an empty trace backend.
//
// Returns:
//   - *Backend: the new backend
func NewBackend() *Backend {
	return &Backend{
		Buffers:        make(map[string]*StorageBuffer),
		UniformBuffers: make(map[string]*UniformBuffer),
		procedural:     make(map[gpu.PrimitiveType]*Batch),
	}
}

func (b *Backend) log(format string, args ...any) {
	b.Trace = append(b.Trace, fmt.Sprintf(format, args...))
}

func (b *Backend) ShaderBind(sh gpu.Shader) {
	b.log("shader_bind(%s)", sh.Name())
}

func (b *Backend) StateSet(state gpu.State) {
	b.log("state_set(%s)", state)
}

func (b *Backend) StencilSet(writeMask, reference, compareMask uint8) {
	b.log("stencil_set(%d, %d, %d)", writeMask, reference, compareMask)
}

func (b *Backend) Clear(planes gpu.FrameBufferBits, color common.Float4, depth float32, stencil uint8) {
	b.log("clear(planes=%d, depth=%g, stencil=%d)", planes, depth, stencil)
}

func (b *Backend) Barrier(barrier gpu.BarrierType) {
	b.log("barrier(%s)", barrier)
}

func (b *Backend) Dispatch(sh gpu.Shader, groups common.Int3) {
	b.log("dispatch(%s, %d, %d, %d)", sh.Name(), groups[0], groups[1], groups[2])
}

func (b *Backend) DispatchIndirect(sh gpu.Shader, buf gpu.StorageBuffer) {
	b.log("dispatch_indirect(%s, %s)", sh.Name(), buf.Name())
}

func (b *Backend) UniformFloat(sh gpu.Shader, location, compLen, arrayLen int, data []float32) {
	b.log("uniform_float(%s, loc=%d, comp=%d, array=%d, n=%d)", sh.Name(), location, compLen, arrayLen, len(data))
}

func (b *Backend) UniformInt(sh gpu.Shader, location, compLen, arrayLen int, data []int32) {
	b.log("uniform_int(%s, loc=%d, comp=%d, array=%d, n=%d)", sh.Name(), location, compLen, arrayLen, len(data))
}

func (b *Backend) NewStorageBuffer(label string, size int) gpu.StorageBuffer {
	b.log("new_storage_buffer(%s, %d)", label, size)
	sb := &StorageBuffer{backend: b, name: label, size: size}
	b.Buffers[label] = sb
	return sb
}

func (b *Backend) NewUniformBuffer(label string, size int) gpu.UniformBuffer {
	b.log("new_uniform_buffer(%s, %d)", label, size)
	ub := &UniformBuffer{backend: b, name: label, size: size}
	b.UniformBuffers[label] = ub
	return ub
}

func (b *Backend) ProceduralBatch(prim gpu.PrimitiveType) gpu.Batch {
	if bt, ok := b.procedural[prim]; ok {
		return bt
	}
	bt := NewBatch("procedural_"+prim.String(), 0)
	bt.backend = b
	b.procedural[prim] = bt
	return bt
}

func (b *Backend) DebugGroupBegin(name string) {
	b.log("debug_group_begin(%s)", name)
}

func (b *Backend) DebugGroupEnd() {
	b.log("debug_group_end()")
}

// Shader is a gpu.Shader whose interface is declared through plain maps.
// Absent names resolve to -1 like a real shader.
type Shader struct {
	ShaderName  string
	Uniforms    map[string]int
	StorageBufs map[string]int
	UniformBufs map[string]int
	Textures    map[string]int
}

var _ gpu.Shader = &Shader{}

// NewShader creates a shader mock with empty interface maps.
//
// Parameters:
//   - name: the shader's debug identifier
//
// Returns:
//   - *Shader: the new shader
func NewShader(name string) *Shader {
	return &Shader{
		ShaderName:  name,
		Uniforms:    make(map[string]int),
		StorageBufs: make(map[string]int),
		UniformBufs: make(map[string]int),
		Textures:    make(map[string]int),
	}
}

func (s *Shader) Name() string {
	return s.ShaderName
}

func (s *Shader) UniformLocation(name string) int {
	return lookup(s.Uniforms, name)
}

func (s *Shader) StorageBufferBinding(name string) int {
	return lookup(s.StorageBufs, name)
}

func (s *Shader) UniformBufferBinding(name string) int {
	return lookup(s.UniformBufs, name)
}

func (s *Shader) TextureBinding(name string) int {
	return lookup(s.Textures, name)
}

func lookup(m map[string]int, name string) int {
	if slot, ok := m[name]; ok {
		return slot
	}
	return -1
}

// Batch is a gpu.Batch that logs its draws into the backend trace of the
// shader's replay. Draws issued before the batch ever touches a trace backend
// are dropped silently, mirroring an uninitialized real batch.
type Batch struct {
	BatchName  string
	VertexN    uint32
	UsesIndex  bool
	backend    *Backend
	DrawCalls  int
	MultiCalls int
}

var _ gpu.Batch = &Batch{}

// NewBatch creates a batch mock.
//
// Parameters:
//   - name: the batch's debug identifier
//   - vertexLen: the batch's own vertex count
//
// Returns:
//   - *Batch: the new batch
func NewBatch(name string, vertexLen uint32) *Batch {
	return &Batch{BatchName: name, VertexN: vertexLen}
}

// NewIndexedBatch creates a batch mock that reports indexed drawing.
//
// Parameters:
//   - name: the batch's debug identifier
//   - vertexLen: the batch's own index count
//
// Returns:
//   - *Batch: the new batch
func NewIndexedBatch(name string, vertexLen uint32) *Batch {
	return &Batch{BatchName: name, VertexN: vertexLen, UsesIndex: true}
}

// AttachBackend points the batch's draw logging at a trace backend.
//
// Parameters:
//   - b: the backend to log draws into
func (bt *Batch) AttachBackend(b *Backend) {
	bt.backend = b
}

func (bt *Batch) Name() string {
	return bt.BatchName
}

func (bt *Batch) VertexLen() uint32 {
	return bt.VertexN
}

func (bt *Batch) Initialized() bool {
	return true
}

func (bt *Batch) Indexed() bool {
	return bt.UsesIndex
}

func (bt *Batch) Draw(sh gpu.Shader, instanceLen, vertexLen, vertexFirst, resourceID uint32) {
	bt.DrawCalls++
	if bt.backend != nil {
		bt.backend.log("draw(%s, batch=%s, inst=%d, vert=%d, first=%d, res=%d)",
			sh.Name(), bt.BatchName, instanceLen, vertexLen, vertexFirst, resourceID)
	}
}

func (bt *Batch) DrawIndirect(sh gpu.Shader, buf gpu.StorageBuffer, offset uint64) {
	bt.DrawCalls++
	if bt.backend != nil {
		bt.backend.log("draw_indirect(%s, batch=%s, buf=%s, offset=%d)", sh.Name(), bt.BatchName, buf.Name(), offset)
	}
}

func (bt *Batch) MultiDrawIndirect(sh gpu.Shader, buf gpu.StorageBuffer, count int, offset uint64) {
	bt.MultiCalls++
	if bt.backend != nil {
		bt.backend.log("multi_draw_indirect(%s, batch=%s, buf=%s, count=%d, offset=%d)",
			sh.Name(), bt.BatchName, buf.Name(), count, offset)
	}
}

// StorageBuffer is a gpu.StorageBuffer that retains its last uploaded
// contents for inspection.
type StorageBuffer struct {
	backend *Backend
	name    string
	size    int
	Data    []byte
}

var _ gpu.StorageBuffer = &StorageBuffer{}

func (sb *StorageBuffer) Name() string {
	return sb.name
}

func (sb *StorageBuffer) Len() int {
	return sb.size
}

func (sb *StorageBuffer) Initialized() bool {
	return true
}

func (sb *StorageBuffer) Bind(slot int) {
	sb.backend.log("bind_storage_buf(%s, slot=%d)", sb.name, slot)
}

func (sb *StorageBuffer) Update(data []byte) {
	if len(data) > sb.size {
		sb.size = len(data)
	}
	sb.Data = append(sb.Data[:0], data...)
	sb.backend.log("update(%s, %d)", sb.name, len(data))
}

// UniformBuffer is a gpu.UniformBuffer that retains its last uploaded
// contents for inspection.
type UniformBuffer struct {
	backend *Backend
	name    string
	size    int
	Data    []byte
}

var _ gpu.UniformBuffer = &UniformBuffer{}

func (ub *UniformBuffer) Name() string {
	return ub.name
}

func (ub *UniformBuffer) Initialized() bool {
	return true
}

func (ub *UniformBuffer) Bind(slot int) {
	ub.backend.log("bind_uniform_buf(%s, slot=%d)", ub.name, slot)
}

func (ub *UniformBuffer) Update(data []byte) {
	if len(data) > ub.size {
		ub.size = len(data)
	}
	ub.Data = append(ub.Data[:0], data...)
	ub.backend.log("update(%s, %d)", ub.name, len(data))
}

// Texture is a gpu.Texture whose allocation just flips a flag. Binds are
// logged with the sampler state.
type Texture struct {
	TexName   string
	backend   *Backend
	Allocated bool
	FailAlloc error
}

var _ gpu.Texture = &Texture{}

// NewTexture creates a texture mock attached to a trace backend.
//
// Parameters:
//   - b: the backend binds are logged into
//   - name: the texture's debug identifier
//
// Returns:
//   - *Texture: the new texture
func NewTexture(b *Backend, name string) *Texture {
	return &Texture{TexName: name, backend: b}
}

func (t *Texture) Name() string {
	return t.TexName
}

func (t *Texture) Initialized() bool {
	return t.Allocated
}

func (t *Texture) Allocate() error {
	if t.FailAlloc != nil {
		return t.FailAlloc
	}
	t.Allocated = true
	if t.backend != nil {
		t.backend.log("allocate_texture(%s)", t.TexName)
	}
	return nil
}

func (t *Texture) Bind(slot int, sampler gpu.SamplerState) {
	if t.backend != nil {
		t.backend.log("bind_texture(%s, slot=%d, sampler=%d)", t.TexName, slot, sampler)
	}
}
