package gpu

import "unsafe"

// DrawArgs is the GPU-side layout of one indirect draw record. Buffers passed
// to Batch.DrawIndirect and Batch.MultiDrawIndirect hold one or more of these
// records. For non-indexed draws BaseIndex carries the first instance index.
type DrawArgs struct {
	VertexLen   uint32
	InstanceLen uint32
	VertexFirst uint32
	BaseIndex   uint32
	// InstanceFirst is the first instance index for indexed draws, and doubles
	// as the per-draw resource ID carrier for multi-draw batching.
	InstanceFirst uint32
}

// DispatchArgs is the GPU-side layout of one indirect dispatch record.
type DispatchArgs struct {
	GroupsX uint32
	GroupsY uint32
	GroupsZ uint32
}

// DrawArgsSize is the byte size of one DrawArgs record, used to compute
// multi-draw offsets into indirect buffers.
const DrawArgsSize = uint64(unsafe.Sizeof(DrawArgs{}))
