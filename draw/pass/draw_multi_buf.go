package pass

import (
	"sync"

	"github.com/Carmen-Shannon/automation/tools/worker"
	"github.com/Carmen-Shannon/oxy-draw/common"
	"github.com/Carmen-Shannon/oxy-draw/draw/command"
	"github.com/Carmen-Shannon/oxy-draw/gpu"
)

// resourceIDSlot is the storage slot the per-instance resource ID buffer is
// bound to before a multi-draw pass replays. Shaders consuming multi-draw
// passes index this buffer with the instance index to recover their object
// resource handle.
const resourceIDSlot = 11

// DrawMultiBuf is the PassMain draw strategy: a recorded draw merges into the
// previous one when, and only when, the pass's most recent command is a
// multi-draw of the same batch. Any other command in between, including a
// draw of a different batch, starts a new group. Merged draws replay as one
// multi-draw-indirect call per group.
//
// Nothing touches the GPU at record time. The indirect argument buffer and
// the per-instance resource ID buffer are built and uploaded in bind, during
// submission prep, from the prototypes accumulated across the whole pass tree.
type DrawMultiBuf struct {
	groups        []*command.DrawGroup
	commandBuf    gpu.StorageBuffer
	resourceIDBuf gpu.StorageBuffer
	prototypeLen  int
}

var _ drawBuffer = &DrawMultiBuf{}

func (b *DrawMultiBuf) clear() {
	b.groups = b.groups[:0]
	b.prototypeLen = 0
}

func (b *DrawMultiBuf) draw(p *Pass, batch gpu.Batch, instanceLen, vertexLen, vertexFirst uint32, handle command.ResourceHandle) {
	if instanceLen == command.NoCount {
		instanceLen = 1
	}
	group := b.mergeGroup(p, batch)
	if group == nil {
		group = &command.DrawGroup{Batch: batch}
		b.groups = append(b.groups, group)
		p.header(command.TypeDrawMulti, p.commands.AppendDrawMulti(command.DrawMulti{
			Group: group,
			Buf:   &b.commandBuf,
		}))
	}
	group.Prototypes = append(group.Prototypes, command.DrawPrototype{
		InstanceLen: instanceLen,
		VertexLen:   vertexLen,
		VertexFirst: vertexFirst,
		Handle:      handle,
	})
	group.Len++
	if !handle.HandednessInverted() {
		group.FrontFacingLen++
	}
	group.InstanceTotal += instanceLen
	b.prototypeLen++
}

// mergeGroup returns the group of p's most recent command when that command
// is a multi-draw of batch, nil otherwise.
func (b *DrawMultiBuf) mergeGroup(p *Pass, batch gpu.Batch) *command.DrawGroup {
	if len(p.headers) == 0 {
		return nil
	}
	h := p.headers[len(p.headers)-1]
	if h.Type != command.TypeDrawMulti {
		return nil
	}
	group := p.commands.DrawMultis[h.Index].Group
	if group.Batch != batch {
		return nil
	}
	return group
}

func (b *DrawMultiBuf) bind(state *command.RecordingState) {
	if b.prototypeLen == 0 {
		return
	}

	recordTotal, instanceTotal := 0, 0
	instanceStarts := make([]int, len(b.groups))
	for i, g := range b.groups {
		g.Start = recordTotal
		recordTotal += g.Len
		instanceStarts[i] = instanceTotal
		instanceTotal += int(g.InstanceTotal)
	}

	args := make([]gpu.DrawArgs, recordTotal)
	ids := make([]uint32, instanceTotal)

	// Groups own disjoint ranges of both slices, so population is
	// embarrassingly parallel. The pool is reused across frames; a WaitGroup
	// provides the per-submission barrier.
	if state.Workers != nil && len(b.groups) > 1 {
		var wg sync.WaitGroup
		for i, g := range b.groups {
			wg.Add(1)
			gCap, startCap := g, instanceStarts[i]
			state.Workers.SubmitTask(worker.Task{
				ID: i,
				Do: func() (any, error) {
					defer wg.Done()
					populateGroup(gCap, startCap, args, ids)
					return nil, nil
				},
			})
		}
		wg.Wait()
	} else {
		for i, g := range b.groups {
			populateGroup(g, instanceStarts[i], args, ids)
		}
	}

	if b.commandBuf == nil {
		b.commandBuf = state.Backend.NewStorageBuffer("draw_multi_command_buf", len(args)*int(gpu.DrawArgsSize))
	}
	b.commandBuf.Update(common.SliceToBytes(args))

	if b.resourceIDBuf == nil {
		b.resourceIDBuf = state.Backend.NewStorageBuffer("draw_multi_resource_id_buf", len(ids)*4)
	}
	b.resourceIDBuf.Update(common.SliceToBytes(ids))
	b.resourceIDBuf.Bind(resourceIDSlot)
}

// populateGroup converts a group's prototypes into indirect records and
// per-instance resource IDs. Front-facing records fill the group range from
// the front, inverted-handedness records from the back, so a backend can flip
// face culling per half-range.
func populateGroup(g *command.DrawGroup, instanceStart int, args []gpu.DrawArgs, ids []uint32) {
	front := g.Start
	back := g.Start + g.Len - 1
	idOffset := instanceStart
	indexed := g.Batch.Indexed()
	for _, proto := range g.Prototypes {
		vertexLen := proto.VertexLen
		if vertexLen == command.NoCount {
			vertexLen = g.Batch.VertexLen()
		}
		vertexFirst := proto.VertexFirst
		if vertexFirst == command.NoCount {
			vertexFirst = 0
		}
		slot := front
		if proto.Handle.HandednessInverted() {
			slot = back
			back--
		} else {
			front++
		}
		args[slot] = gpu.DrawArgs{
			VertexLen:   vertexLen,
			InstanceLen: proto.InstanceLen,
			VertexFirst: vertexFirst,
		}
		// Indexed indirect records carry the first instance in their fifth
		// word; non-indexed records carry it in their fourth.
		if indexed {
			args[slot].InstanceFirst = uint32(idOffset)
		} else {
			args[slot].BaseIndex = uint32(idOffset)
		}
		for i := 0; i < int(proto.InstanceLen); i++ {
			ids[idOffset+i] = uint32(proto.Handle)
		}
		idOffset += int(proto.InstanceLen)
	}
}

// DrawCount returns the number of draws recorded since the last reset, before
// coalescing.
//
// Returns:
//   - int: the recorded draw count
func (b *DrawMultiBuf) DrawCount() int {
	return b.prototypeLen
}

// GroupCount returns the number of multi-draw groups the recorded draws
// coalesced into.
//
// Returns:
//   - int: the group count
func (b *DrawMultiBuf) GroupCount() int {
	return len(b.groups)
}
