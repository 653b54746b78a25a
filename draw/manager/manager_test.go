package manager

import (
	"fmt"
	"testing"

	"github.com/Carmen-Shannon/oxy-draw/common"
	"github.com/Carmen-Shannon/oxy-draw/draw/command"
	"github.com/Carmen-Shannon/oxy-draw/draw/pass"
	"github.com/Carmen-Shannon/oxy-draw/gpu"
	"github.com/Carmen-Shannon/oxy-draw/gpu/gputest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestManager(backend *gputest.Backend) Manager {
	return NewManager(
		WithBackend(backend),
		WithComputeWorkers(1),
		WithStatsInterval(0),
	)
}

func TestNewManagerRequiresBackend(t *testing.T) {
	assert.PanicsWithValue(t, "manager: NewManager requires a backend", func() {
		NewManager()
	})
}

func TestSyncCycleGuards(t *testing.T) {
	m := newTestManager(gputest.NewBackend())

	assert.PanicsWithValue(t, "manager: RegisterObject outside of a sync cycle", func() {
		m.RegisterObject(common.Float4x4Identity())
	})
	assert.PanicsWithValue(t, "manager: SetObjectBounds outside of a sync cycle", func() {
		m.SetObjectBounds(command.ResourceHandle(0), common.Float3{}, common.Float3{1, 1, 1})
	})
	assert.PanicsWithValue(t, "manager: SetObjectColor outside of a sync cycle", func() {
		m.SetObjectColor(command.ResourceHandle(0), common.Float4{1, 0, 0, 1})
	})
	assert.PanicsWithValue(t, "manager: EndSync without BeginSync", func() {
		m.EndSync()
	})

	m.BeginSync()
	assert.PanicsWithValue(t, "manager: Submit during a sync cycle", func() {
		m.Submit(pass.NewPassSimple("p"))
	})
	m.EndSync()
}

func TestBeginSyncSeedsDefaultEntry(t *testing.T) {
	m := newTestManager(gputest.NewBackend())

	m.BeginSync()
	assert.Equal(t, 1, m.ResourceLen())

	h := m.RegisterObject(common.Float4x4Identity())
	assert.Equal(t, uint32(1), h.Index())
	assert.Equal(t, 2, m.ResourceLen())
	m.EndSync()
}

func TestRegisterObjectDerivesHandedness(t *testing.T) {
	m := newTestManager(gputest.NewBackend())
	m.BeginSync()
	defer m.EndSync()

	plain := m.RegisterObject(common.Float4x4Identity())
	assert.False(t, plain.HandednessInverted())

	mirrored := common.Float4x4Identity()
	mirrored[0] = -1
	flipped := m.RegisterObject(mirrored)
	assert.True(t, flipped.HandednessInverted())

	// Two negative axes cancel out.
	mirrored[5] = -1
	restored := m.RegisterObject(mirrored)
	assert.False(t, restored.HandednessInverted())
}

func TestEndSyncUploadsResourceTables(t *testing.T) {
	backend := gputest.NewBackend()
	m := newTestManager(backend)

	m.BeginSync()
	var model common.Float4x4
	common.BuildModelMatrix(model[:], 1, 2, 3, 0, 0, 0, 1, 1, 1)
	h := m.RegisterObject(model)
	m.SetObjectBounds(h, common.Float3{0, 1, 0}, common.Float3{2, 2, 2})
	m.SetObjectColor(h, common.Float4{1, 0, 0, 1})
	m.EndSync()

	matrixBuf := backend.Buffers["object_matrix_buf"]
	require.NotNil(t, matrixBuf)
	assert.Len(t, matrixBuf.Data, 2*128)

	boundsBuf := backend.Buffers["object_bounds_buf"]
	require.NotNil(t, boundsBuf)
	assert.Len(t, boundsBuf.Data, 2*32)

	infosBuf := backend.Buffers["object_infos_buf"]
	require.NotNil(t, infosBuf)
	assert.Len(t, infosBuf.Data, 2*32)

	inverse, ok := model.Inverted()
	require.True(t, ok)
	expectedMatrices := []ObjectMatrices{
		{Model: common.Float4x4Identity(), ModelInverse: common.Float4x4Identity()},
		{Model: model, ModelInverse: inverse},
	}
	assert.Equal(t, common.SliceToBytes(expectedMatrices), matrixBuf.Data)

	expectedBounds := []ObjectBounds{
		{HalfExtent: common.Float4{1, 1, 1, 0}},
		{Center: common.Float4{0, 1, 0, 0}, HalfExtent: common.Float4{2, 2, 2, 0}},
	}
	assert.Equal(t, common.SliceToBytes(expectedBounds), boundsBuf.Data)
}

func TestSubmitBindsTablesViewsAndReplays(t *testing.T) {
	backend := gputest.NewBackend()
	m := newTestManager(backend)

	m.BeginSync()
	m.RegisterObject(common.Float4x4Identity())
	m.EndSync()

	v := NewView(WithViewName("camera"))

	p := pass.NewPassSimple("opaque")
	p.Init()

	backend.Trace = backend.Trace[:0]
	m.Submit(p, v)

	assert.Equal(t, []string{
		"bind_storage_buf(object_matrix_buf, slot=8)",
		"bind_storage_buf(object_infos_buf, slot=9)",
		"bind_storage_buf(object_bounds_buf, slot=10)",
		"new_uniform_buffer(camera_infos, 480)",
		"update(camera_infos, 480)",
		"bind_uniform_buf(camera_infos, slot=0)",
		"debug_group_begin(opaque)",
		"debug_group_end()",
	}, backend.Trace)
}

func TestSubmitWithoutSyncSkipsTableBinds(t *testing.T) {
	backend := gputest.NewBackend()
	m := newTestManager(backend)

	p := pass.NewPassSimple("opaque")
	p.Init()
	m.Submit(p)

	assert.Equal(t, []string{
		"debug_group_begin(opaque)",
		"debug_group_end()",
	}, backend.Trace)
}

func TestSubmitAllocatesAcquiredTextures(t *testing.T) {
	backend := gputest.NewBackend()
	m := newTestManager(backend)

	var fresh gpu.Texture = gputest.NewTexture(backend, "fresh")
	resident := gputest.NewTexture(backend, "resident")
	resident.Allocated = true
	var residentTex gpu.Texture = resident
	failing := gputest.NewTexture(backend, "broken")
	failing.FailAlloc = fmt.Errorf("no pixel data")
	var failingTex gpu.Texture = failing

	m.BeginSync()
	m.AcquireTexture(&fresh)
	m.AcquireTexture(&residentTex)
	m.AcquireTexture(&failingTex)
	m.EndSync()

	p := pass.NewPassSimple("opaque")
	p.Init()
	backend.Trace = backend.Trace[:0]
	m.Submit(p)

	// Only the unallocated texture is touched; the failure is logged, not fatal.
	assert.Contains(t, backend.Trace, "allocate_texture(fresh)")
	assert.NotContains(t, backend.Trace, "allocate_texture(resident)")
	assert.NotContains(t, backend.Trace, "allocate_texture(broken)")
}

func TestAcquireTextureRequiresPointer(t *testing.T) {
	m := newTestManager(gputest.NewBackend())
	assert.PanicsWithValue(t, "manager: AcquireTexture requires a non-nil texture pointer", func() {
		m.AcquireTexture(nil)
	})
}

func TestResourceTableBuffersReusedAcrossCycles(t *testing.T) {
	backend := gputest.NewBackend()
	m := newTestManager(backend)

	for cycle := 0; cycle < 3; cycle++ {
		m.BeginSync()
		m.RegisterObject(common.Float4x4Identity())
		m.EndSync()
	}

	created := 0
	for _, line := range backend.Trace {
		if line == "new_storage_buffer(object_matrix_buf, 256)" {
			created++
		}
	}
	assert.Equal(t, 1, created)
}

func TestObjectRandomIsStableAndBounded(t *testing.T) {
	for i := uint32(0); i < 64; i++ {
		r := objectRandom(i)
		assert.GreaterOrEqual(t, r, float32(0))
		assert.Less(t, r, float32(1))
		assert.Equal(t, r, objectRandom(i))
	}
	assert.NotEqual(t, objectRandom(1), objectRandom(2))
}
