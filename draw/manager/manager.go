// Package manager owns the per-cycle object resource tables and drives pass
// submission. A cycle is: BeginSync, register every object drawn this cycle,
// EndSync to upload the tables, then submit any number of recorded passes
// against any number of views. Draws recorded with a resource handle pull
// their per-object data (matrices, bounds, attributes) from the tables by
// handle index.
package manager

import (
	"log"
	"runtime"
	"time"

	"github.com/Carmen-Shannon/automation/tools/worker"
	"github.com/Carmen-Shannon/oxy-draw/common"
	"github.com/Carmen-Shannon/oxy-draw/draw/cache"
	"github.com/Carmen-Shannon/oxy-draw/draw/command"
	"github.com/Carmen-Shannon/oxy-draw/draw/pass"
	"github.com/Carmen-Shannon/oxy-draw/gpu"
)

// Storage slots the object resource tables are bound to before a pass
// replays. Shaders consuming manager submissions declare their object blocks
// at these slots; slot 11 is reserved for the multi-draw resource ID buffer.
const (
	objectMatrixSlot = 8
	objectInfosSlot  = 9
	objectBoundsSlot = 10
)

// ObjectMatrices is the GPU-side layout of one object transform table entry.
type ObjectMatrices struct {
	Model        common.Float4x4
	ModelInverse common.Float4x4
}

// ObjectBounds is the GPU-side layout of one object bounds table entry,
// expressed as a local-space box center and half extent. The fourth
// components pad to 16-byte alignment.
type ObjectBounds struct {
	Center     common.Float4
	HalfExtent common.Float4
}

// ObjectInfos is the GPU-side layout of one object attribute table entry.
type ObjectInfos struct {
	Color  common.Float4
	Random float32
	Index  uint32
	_      [2]uint32
}

// Submitter is a recorded pass the manager can replay. Both root pass kinds
// implement it.
type Submitter interface {
	// Name returns the pass name used for debug markers.
	//
	// Returns:
	//   - string: the pass name
	Name() string

	// Submit replays the recorded commands against the state's backend.
	//
	// Parameters:
	//   - state: the ambient replay state
	Submit(state *command.RecordingState)

	// Serialize returns a human-readable dump of the recorded command stream.
	//
	// Returns:
	//   - string: the serialized pass
	Serialize() string
}

// drawManager is the implementation of the Manager interface.
type drawManager struct {
	backend gpu.Backend
	workers worker.DynamicWorkerPool

	matrices []ObjectMatrices
	bounds   []ObjectBounds
	infos    []ObjectInfos

	matrixBuf gpu.StorageBuffer
	boundsBuf gpu.StorageBuffer
	infosBuf  gpu.StorageBuffer

	acquired []*gpu.Texture
	syncing  bool
	stats    *stats

	computeWorkers int
	statsInterval  time.Duration
}

// Manager defines the interface for the draw manager: object resource table
// building, texture residency, and pass submission.
//
// BeginSync, registration, and EndSync run on one goroutine; Submit runs on
// the goroutine that owns the GPU context. Registering outside a sync cycle
// or submitting inside one is a programmer error.
type Manager interface {
	// BeginSync starts a sync cycle, clearing the resource tables and the
	// acquired texture list. Entry zero of every table is seeded with the
	// default resource: identity transform, white color, unit bounds.
	BeginSync()

	// RegisterObject appends an object transform to the resource tables and
	// returns its handle. The inverse matrix and the handedness flag are
	// derived here; bounds and attributes start at their defaults and can be
	// filled in afterwards through the handle.
	//
	// Parameters:
	//   - model: the object's model matrix
	//
	// Returns:
	//   - command.ResourceHandle: the handle draws reference the object by
	RegisterObject(model common.Float4x4) command.ResourceHandle

	// SetObjectBounds sets the local-space bounding box of a registered object.
	//
	// Parameters:
	//   - h: the object's resource handle
	//   - center: the box center
	//   - halfExtent: the box half extent
	SetObjectBounds(h command.ResourceHandle, center, halfExtent common.Float3)

	// SetObjectColor sets the per-object color attribute of a registered object.
	//
	// Parameters:
	//   - h: the object's resource handle
	//   - color: the RGBA color
	SetObjectColor(h command.ResourceHandle, color common.Float4)

	// EndSync closes the sync cycle and uploads the resource tables to their
	// GPU buffers.
	EndSync()

	// ResourceLen returns the number of table entries in the current cycle,
	// including the default entry.
	//
	// Returns:
	//   - int: the table length
	ResourceLen() int

	// AcquireTexture pins a texture for the next submissions, allocating its
	// GPU storage at submit time if it does not exist yet. MaterialSet routes
	// material textures through this automatically.
	//
	// Parameters:
	//   - tex: pointer to the texture handle
	AcquireTexture(tex *gpu.Texture)

	// Submit binds the resource tables and the given views, ensures acquired
	// textures are resident, and replays the pass. The recording is left
	// untouched and may be submitted again.
	//
	// Parameters:
	//   - p: the recorded pass to replay
	//   - views: views to bind before replay, usually zero or one
	Submit(p Submitter, views ...View)
}

var _ Manager = &drawManager{}
var _ pass.TextureAcquirer = Manager(nil)

// NewManager creates a new Manager instance configured with the provided
// options and registers its backend with the procedural batch cache.
//
// Parameters:
//   - options: variadic list of ManagerBuilderOption functions to configure the manager
//
// Returns:
//   - Manager: a new Manager instance
func NewManager(options ...ManagerBuilderOption) Manager {
	m := &drawManager{
		computeWorkers: runtime.NumCPU(),
		statsInterval:  time.Second,
	}
	for _, opt := range options {
		opt(m)
	}
	if m.backend == nil {
		panic("manager: NewManager requires a backend")
	}
	if m.computeWorkers > 1 {
		m.workers = worker.NewDynamicWorkerPool(m.computeWorkers, 256, 1*time.Second)
	}
	m.stats = newStats(m.statsInterval)
	cache.Init(m.backend)
	return m
}

func (m *drawManager) BeginSync() {
	m.syncing = true
	m.matrices = m.matrices[:0]
	m.bounds = m.bounds[:0]
	m.infos = m.infos[:0]
	m.acquired = m.acquired[:0]

	// Entry zero is the default resource every zero handle resolves to.
	m.matrices = append(m.matrices, ObjectMatrices{
		Model:        common.Float4x4Identity(),
		ModelInverse: common.Float4x4Identity(),
	})
	m.bounds = append(m.bounds, ObjectBounds{
		HalfExtent: common.Float4{1, 1, 1, 0},
	})
	m.infos = append(m.infos, ObjectInfos{Color: common.Float4{1, 1, 1, 1}})
}

func (m *drawManager) RegisterObject(model common.Float4x4) command.ResourceHandle {
	if !m.syncing {
		panic("manager: RegisterObject outside of a sync cycle")
	}
	index := uint32(len(m.matrices))
	inverse, _ := model.Inverted()
	m.matrices = append(m.matrices, ObjectMatrices{Model: model, ModelInverse: inverse})
	m.bounds = append(m.bounds, ObjectBounds{HalfExtent: common.Float4{1, 1, 1, 0}})
	m.infos = append(m.infos, ObjectInfos{
		Color:  common.Float4{1, 1, 1, 1},
		Random: objectRandom(index),
		Index:  index,
	})
	return command.NewResourceHandle(index, det3(model) < 0)
}

func (m *drawManager) SetObjectBounds(h command.ResourceHandle, center, halfExtent common.Float3) {
	if !m.syncing {
		panic("manager: SetObjectBounds outside of a sync cycle")
	}
	b := &m.bounds[h.Index()]
	b.Center = common.Float4{center[0], center[1], center[2], 0}
	b.HalfExtent = common.Float4{halfExtent[0], halfExtent[1], halfExtent[2], 0}
}

func (m *drawManager) SetObjectColor(h command.ResourceHandle, color common.Float4) {
	if !m.syncing {
		panic("manager: SetObjectColor outside of a sync cycle")
	}
	m.infos[h.Index()].Color = color
}

func (m *drawManager) EndSync() {
	if !m.syncing {
		panic("manager: EndSync without BeginSync")
	}
	m.syncing = false

	if m.matrixBuf == nil {
		m.matrixBuf = m.backend.NewStorageBuffer("object_matrix_buf", len(common.SliceToBytes(m.matrices)))
	}
	m.matrixBuf.Update(common.SliceToBytes(m.matrices))

	if m.boundsBuf == nil {
		m.boundsBuf = m.backend.NewStorageBuffer("object_bounds_buf", len(common.SliceToBytes(m.bounds)))
	}
	m.boundsBuf.Update(common.SliceToBytes(m.bounds))

	if m.infosBuf == nil {
		m.infosBuf = m.backend.NewStorageBuffer("object_infos_buf", len(common.SliceToBytes(m.infos)))
	}
	m.infosBuf.Update(common.SliceToBytes(m.infos))
}

func (m *drawManager) ResourceLen() int {
	return len(m.matrices)
}

func (m *drawManager) AcquireTexture(tex *gpu.Texture) {
	if tex == nil {
		panic("manager: AcquireTexture requires a non-nil texture pointer")
	}
	m.acquired = append(m.acquired, tex)
}

func (m *drawManager) Submit(p Submitter, views ...View) {
	if m.syncing {
		panic("manager: Submit during a sync cycle")
	}
	start := time.Now()

	for _, tex := range m.acquired {
		t := *tex
		if t == nil || t.Initialized() {
			continue
		}
		if err := t.Allocate(); err != nil {
			log.Printf("[DrawManager] failed to allocate texture %s: %v", t.Name(), err)
		}
	}

	if m.matrixBuf != nil {
		m.matrixBuf.Bind(objectMatrixSlot)
		m.infosBuf.Bind(objectInfosSlot)
		m.boundsBuf.Bind(objectBoundsSlot)
	}
	for _, v := range views {
		v.Bind(m.backend)
	}

	state := &command.RecordingState{
		Backend: m.backend,
		Workers: m.workers,
	}
	p.Submit(state)

	m.stats.tick(len(m.matrices), time.Since(start))
}

// objectRandom derives a stable per-object random value in [0, 1) from the
// table index, for shaders that dither or jitter per object.
func objectRandom(index uint32) float32 {
	x := index*2654435761 + 1
	x ^= x >> 16
	x *= 0x45d9f3b
	x ^= x >> 16
	return float32(x&0xffffff) / float32(0x1000000)
}
