// Package command defines the recorded GPU command variants, the header stream
// that orders them, and the replay state threaded through submission. Commands
// are POD-like records: reference-type fields hold non-owning handles into
// caller-managed memory that must outlive submission. No GPU call happens at
// record time; every variant replays itself through its Execute method.
package command

// Type discriminates command variants within a pass's header stream.
type Type uint8

const (
	// TypeNone is a placeholder header that replays as a no-op.
	TypeNone Type = iota

	// TypeSubPass recurses into the sub-pass at Header.Index.
	TypeSubPass

	// TypeShaderBind binds a shader and updates the replay state's interface context.
	TypeShaderBind

	// TypeResourceBind binds a storage buffer, uniform buffer, or texture to a slot.
	TypeResourceBind

	// TypePushConstant updates a shader uniform value.
	TypePushConstant

	// TypeDraw issues a single direct draw.
	TypeDraw

	// TypeDrawMulti issues a coalesced multi-draw-indirect group.
	TypeDrawMulti

	// TypeDrawIndirect issues a draw whose parameters live in a GPU buffer.
	TypeDrawIndirect

	// TypeDispatch issues a compute dispatch.
	TypeDispatch

	// TypeDispatchIndirect issues a dispatch whose group counts live in a GPU buffer.
	TypeDispatchIndirect

	// TypeBarrier inserts an explicit memory/execution barrier.
	TypeBarrier

	// TypeClear clears frame-buffer planes.
	TypeClear

	// TypeStateSet applies fixed-function pipeline state.
	TypeStateSet

	// TypeStencilSet sets stencil write mask, reference, and compare mask.
	TypeStencilSet
)

// Header locates one command within its owning pass: the variant type plus the
// index into the per-type command storage (or the sub-pass list for
// TypeSubPass). The header sequence is the execution order; it is append-only
// within a recording cycle and only a full pass reset clears it.
type Header struct {
	Type  Type
	Index uint32
}

// ResourceHandle identifies which object resource-table entry (matrices,
// bounds, per-object attributes) a draw pulls per-instance data from. The
// zero handle selects the default entry. Bit 31 flags inverted handedness
// (negative object scale); the remaining bits are the table index.
type ResourceHandle uint32

const handednessBit ResourceHandle = 1 << 31

// NewResourceHandle builds a handle from a resource-table index and a
// handedness flag.
//
// Parameters:
//   - index: the resource-table index (must fit in 31 bits)
//   - invertedHandedness: true when the object transform has negative scale
//
// Returns:
//   - ResourceHandle: the packed handle
func NewResourceHandle(index uint32, invertedHandedness bool) ResourceHandle {
	h := ResourceHandle(index)
	if invertedHandedness {
		h |= handednessBit
	}
	return h
}

// Index returns the resource-table index encoded in the handle.
//
// Returns:
//   - uint32: the table index
func (h ResourceHandle) Index() uint32 {
	return uint32(h &^ handednessBit)
}

// HandednessInverted reports whether the handle's object has inverted
// handedness.
//
// Returns:
//   - bool: true when the handedness bit is set
func (h ResourceHandle) HandednessInverted() bool {
	return h&handednessBit != 0
}
