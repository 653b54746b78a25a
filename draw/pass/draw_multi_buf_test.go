package pass

import (
	"testing"
	"time"

	"github.com/Carmen-Shannon/automation/tools/worker"
	"github.com/Carmen-Shannon/oxy-draw/common"
	"github.com/Carmen-Shannon/oxy-draw/draw/command"
	"github.com/Carmen-Shannon/oxy-draw/gpu"
	"github.com/Carmen-Shannon/oxy-draw/gpu/gputest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDrawMultiCoalescesConsecutiveSameBatch(t *testing.T) {
	backend := gputest.NewBackend()
	shader := newTestShader("surface")
	batchA := gputest.NewBatch("a", 6)
	batchA.AttachBackend(backend)
	batchB := gputest.NewBatch("b", 3)
	batchB.AttachBackend(backend)

	p := NewPassMain("main")
	p.Init()
	p.ShaderSet(shader)
	p.Draw(batchA, 1, All, All, command.NewResourceHandle(1, false))
	p.Draw(batchA, 1, All, All, command.NewResourceHandle(2, false))
	p.Draw(batchA, 1, All, All, command.NewResourceHandle(3, false))
	p.Draw(batchB, 1, All, All, command.NewResourceHandle(4, false))
	p.Draw(batchA, 1, All, All, command.NewResourceHandle(5, false))
	p.Draw(batchA, 1, All, All, command.NewResourceHandle(6, false))

	assert.Equal(t, 6, p.DrawCount())
	assert.Equal(t, 3, p.GroupCount())

	p.Submit(&command.RecordingState{Backend: backend})

	assert.Equal(t, []string{
		"new_storage_buffer(draw_multi_command_buf, 120)",
		"update(draw_multi_command_buf, 120)",
		"new_storage_buffer(draw_multi_resource_id_buf, 24)",
		"update(draw_multi_resource_id_buf, 24)",
		"bind_storage_buf(draw_multi_resource_id_buf, slot=11)",
		"debug_group_begin(main)",
		"shader_bind(surface)",
		"multi_draw_indirect(surface, batch=a, buf=draw_multi_command_buf, count=3, offset=0)",
		"multi_draw_indirect(surface, batch=b, buf=draw_multi_command_buf, count=1, offset=60)",
		"multi_draw_indirect(surface, batch=a, buf=draw_multi_command_buf, count=2, offset=80)",
		"debug_group_end()",
	}, backend.Trace)
}

func TestInterleavedCommandSplitsGroup(t *testing.T) {
	shader := newTestShader("surface")
	batch := gputest.NewBatch("mesh", 3)

	p := NewPassMain("main")
	p.Init()
	p.ShaderSet(shader)
	p.Draw(batch, 1, All, All, command.ResourceHandle(0))
	p.PushConstantFloat("tint", 1)
	p.Draw(batch, 1, All, All, command.ResourceHandle(0))

	assert.Equal(t, 2, p.DrawCount())
	assert.Equal(t, 2, p.GroupCount())
}

func TestSubPassDrawsDoNotMergeWithParent(t *testing.T) {
	shader := newTestShader("surface")
	batch := gputest.NewBatch("mesh", 3)

	p := NewPassMain("main")
	p.Init()
	p.ShaderSet(shader)
	p.Draw(batch, 1, All, All, command.ResourceHandle(0))
	sub := p.Sub("child")
	sub.Draw(batch, 1, All, All, command.ResourceHandle(0))

	// The sub-pass records into the shared draw buffer but owns its own
	// header stream, so its first draw starts a fresh group.
	assert.Equal(t, 2, p.DrawCount())
	assert.Equal(t, 2, p.GroupCount())
}

func TestPopulateFillsHandednessHalvesFromBothEnds(t *testing.T) {
	backend := gputest.NewBackend()
	shader := newTestShader("surface")
	batch := gputest.NewBatch("mesh", 6)
	batch.AttachBackend(backend)

	p := NewPassMain("main")
	p.Init()
	p.ShaderSet(shader)
	p.Draw(batch, 1, All, All, command.NewResourceHandle(1, false))
	p.Draw(batch, 2, All, All, command.NewResourceHandle(2, true))
	p.Draw(batch, 1, All, 4, command.NewResourceHandle(3, false))

	p.Submit(&command.RecordingState{Backend: backend})

	// Front-facing records pack from the front of the group range, the
	// inverted record lands at the back. Non-indexed records carry their
	// resource ID offset in the fourth argument word.
	expectedArgs := []gpu.DrawArgs{
		{VertexLen: 6, InstanceLen: 1, VertexFirst: 0, BaseIndex: 0},
		{VertexLen: 6, InstanceLen: 1, VertexFirst: 4, BaseIndex: 3},
		{VertexLen: 6, InstanceLen: 2, VertexFirst: 0, BaseIndex: 1},
	}
	cmdBuf := backend.Buffers["draw_multi_command_buf"]
	require.NotNil(t, cmdBuf)
	assert.Equal(t, common.SliceToBytes(expectedArgs), cmdBuf.Data)

	// The per-instance ID buffer carries the raw handles, handedness bit
	// included, in prototype order.
	expectedIDs := []uint32{1, 2 | 1<<31, 2 | 1<<31, 3}
	idBuf := backend.Buffers["draw_multi_resource_id_buf"]
	require.NotNil(t, idBuf)
	assert.Equal(t, common.SliceToBytes(expectedIDs), idBuf.Data)
}

func TestPopulateIndexedBatchUsesFifthArgumentWord(t *testing.T) {
	backend := gputest.NewBackend()
	shader := newTestShader("surface")
	batch := gputest.NewIndexedBatch("mesh", 12)
	batch.AttachBackend(backend)

	p := NewPassMain("main")
	p.Init()
	p.ShaderSet(shader)
	p.Draw(batch, 2, All, All, command.NewResourceHandle(1, false))
	p.Draw(batch, 1, All, All, command.NewResourceHandle(2, false))

	p.Submit(&command.RecordingState{Backend: backend})

	expectedArgs := []gpu.DrawArgs{
		{VertexLen: 12, InstanceLen: 2, InstanceFirst: 0},
		{VertexLen: 12, InstanceLen: 1, InstanceFirst: 2},
	}
	cmdBuf := backend.Buffers["draw_multi_command_buf"]
	require.NotNil(t, cmdBuf)
	assert.Equal(t, common.SliceToBytes(expectedArgs), cmdBuf.Data)
}

func TestEmptyPassMainCreatesNoBuffers(t *testing.T) {
	backend := gputest.NewBackend()

	p := NewPassMain("main")
	p.Init()
	p.Submit(&command.RecordingState{Backend: backend})

	assert.Equal(t, []string{
		"debug_group_begin(main)",
		"debug_group_end()",
	}, backend.Trace)
	assert.Empty(t, backend.Buffers)
}

func TestIndirectBuffersSurviveReInit(t *testing.T) {
	backend := gputest.NewBackend()
	shader := newTestShader("surface")
	batch := gputest.NewBatch("mesh", 3)
	batch.AttachBackend(backend)

	pm := NewPassMain("main")
	for frame := 0; frame < 2; frame++ {
		pm.Init()
		pm.ShaderSet(shader)
		pm.Draw(batch, 1, All, All, command.ResourceHandle(0))
		pm.Submit(&command.RecordingState{Backend: backend})
	}

	created := 0
	for _, line := range backend.Trace {
		if line == "new_storage_buffer(draw_multi_command_buf, 20)" {
			created++
		}
	}
	assert.Equal(t, 1, created, "indirect buffer allocated once across frames")
}

func TestWorkerPoolPopulationMatchesSerial(t *testing.T) {
	record := func(p *PassMain, backend *gputest.Backend) {
		shader := newTestShader("surface")
		batchA := gputest.NewBatch("a", 6)
		batchA.AttachBackend(backend)
		batchB := gputest.NewBatch("b", 3)
		batchB.AttachBackend(backend)

		p.Init()
		p.ShaderSet(shader)
		for i := uint32(0); i < 8; i++ {
			p.Draw(batchA, 1+i%2, All, All, command.NewResourceHandle(i, i%3 == 0))
		}
		for i := uint32(0); i < 5; i++ {
			p.Draw(batchB, 1, All, All, command.NewResourceHandle(100+i, false))
		}
	}

	serialBackend := gputest.NewBackend()
	serial := NewPassMain("main")
	record(serial, serialBackend)
	serial.Submit(&command.RecordingState{Backend: serialBackend})

	pool := worker.NewDynamicWorkerPool(2, 256, 1*time.Second)
	parallelBackend := gputest.NewBackend()
	parallel := NewPassMain("main")
	record(parallel, parallelBackend)
	parallel.Submit(&command.RecordingState{Backend: parallelBackend, Workers: pool})

	assert.Equal(t,
		serialBackend.Buffers["draw_multi_command_buf"].Data,
		parallelBackend.Buffers["draw_multi_command_buf"].Data)
	assert.Equal(t,
		serialBackend.Buffers["draw_multi_resource_id_buf"].Data,
		parallelBackend.Buffers["draw_multi_resource_id_buf"].Data)
}
