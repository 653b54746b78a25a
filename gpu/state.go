package gpu

import "strings"

// State is a bit set describing the fixed-function pipeline state a pass
// applies before drawing: write masks, depth test, culling, and blending.
// A pass submission starts from StateNoDraw; state persists until the next
// StateSet command, including across sub-passes.
type State uint32

const (
	// StateWriteColor enables writes to the color planes.
	StateWriteColor State = 1 << iota

	// StateWriteDepth enables writes to the depth plane.
	StateWriteDepth

	// StateWriteStencil enables writes to the stencil plane, subject to the
	// stencil write mask set via StencilSet.
	StateWriteStencil

	// StateDepthLess passes fragments strictly closer than the stored depth.
	StateDepthLess

	// StateDepthLessEqual passes fragments closer than or equal to the stored depth.
	StateDepthLessEqual

	// StateDepthEqual passes fragments exactly at the stored depth.
	StateDepthEqual

	// StateDepthGreater passes fragments strictly farther than the stored depth.
	StateDepthGreater

	// StateDepthAlways disables the depth comparison.
	StateDepthAlways

	// StateCullBack culls back-facing triangles.
	StateCullBack

	// StateCullFront culls front-facing triangles.
	StateCullFront

	// StateBlendAlpha enables standard src-alpha/one-minus-src-alpha blending.
	StateBlendAlpha

	// StateBlendAdd enables additive blending.
	StateBlendAdd

	// StateBlendMul enables multiplicative blending.
	StateBlendMul

	// StateStencilEqual passes fragments whose masked stencil value equals the reference.
	StateStencilEqual

	// StateStencilAlways disables the stencil comparison but still writes when
	// StateWriteStencil is set.
	StateStencilAlways
)

// StateNoDraw is the state every pass submission starts from: nothing is
// written and no test passes until the first StateSet command executes.
const StateNoDraw State = 0

// stateNames is ordered to match the State bit declarations.
var stateNames = []string{
	"write_color",
	"write_depth",
	"write_stencil",
	"depth_less",
	"depth_less_equal",
	"depth_equal",
	"depth_greater",
	"depth_always",
	"cull_back",
	"cull_front",
	"blend_alpha",
	"blend_add",
	"blend_mul",
	"stencil_equal",
	"stencil_always",
}

// String returns a pipe-separated list of the set state bits, or "no_draw"
// when none are set.
//
// Returns:
//   - string: the human-readable state description
func (s State) String() string {
	if s == StateNoDraw {
		return "no_draw"
	}
	var parts []string
	for i, name := range stateNames {
		if s&(1<<i) != 0 {
			parts = append(parts, name)
		}
	}
	return strings.Join(parts, "|")
}

// BarrierType is a bit set selecting which memory accesses a barrier orders.
type BarrierType uint32

const (
	// BarrierShaderStorage orders storage buffer reads/writes.
	BarrierShaderStorage BarrierType = 1 << iota

	// BarrierShaderImageAccess orders storage image reads/writes.
	BarrierShaderImageAccess

	// BarrierTextureFetch orders sampled texture fetches against prior writes.
	BarrierTextureFetch

	// BarrierTextureUpdate orders texture uploads against subsequent access.
	BarrierTextureUpdate

	// BarrierFramebuffer orders frame-buffer attachment access.
	BarrierFramebuffer

	// BarrierVertexAttribArray orders vertex buffer reads against prior writes.
	BarrierVertexAttribArray

	// BarrierElementArray orders index buffer reads against prior writes.
	BarrierElementArray

	// BarrierCommand orders indirect command buffer reads against prior writes.
	// Required between a compute dispatch that populates an indirect buffer and
	// the draw or dispatch that consumes it.
	BarrierCommand
)

var barrierNames = []string{
	"shader_storage",
	"shader_image_access",
	"texture_fetch",
	"texture_update",
	"framebuffer",
	"vertex_attrib_array",
	"element_array",
	"command",
}

// String returns a pipe-separated list of the set barrier bits.
//
// Returns:
//   - string: the human-readable barrier description
func (b BarrierType) String() string {
	var parts []string
	for i, name := range barrierNames {
		if b&(1<<i) != 0 {
			parts = append(parts, name)
		}
	}
	if len(parts) == 0 {
		return "none"
	}
	return strings.Join(parts, "|")
}

// FrameBufferBits selects frame-buffer planes for clear operations.
type FrameBufferBits uint8

const (
	// ColorBit selects the color planes.
	ColorBit FrameBufferBits = 1 << iota

	// DepthBit selects the depth plane.
	DepthBit

	// StencilBit selects the stencil plane.
	StencilBit
)

// PrimitiveType identifies the primitive kind of a procedural batch.
// The supported set is closed; requesting any other kind is a
// programmer error.
type PrimitiveType int

const (
	// PrimitivePoints draws point primitives.
	PrimitivePoints PrimitiveType = iota

	// PrimitiveLines draws line-list primitives.
	PrimitiveLines

	// PrimitiveTriangles draws triangle-list primitives.
	PrimitiveTriangles

	// PrimitiveTriangleStrip draws triangle-strip primitives.
	PrimitiveTriangleStrip
)

// String returns the primitive kind name.
//
// Returns:
//   - string: the primitive name
func (p PrimitiveType) String() string {
	switch p {
	case PrimitivePoints:
		return "points"
	case PrimitiveLines:
		return "lines"
	case PrimitiveTriangles:
		return "triangles"
	case PrimitiveTriangleStrip:
		return "triangle_strip"
	default:
		return "unknown"
	}
}

// SamplerState selects how a bound texture is sampled.
type SamplerState int

const (
	// SamplerDefault keeps the texture's own sampler configuration.
	SamplerDefault SamplerState = iota

	// SamplerNearest uses nearest-neighbor filtering with clamped addressing.
	SamplerNearest

	// SamplerLinear uses linear filtering with clamped addressing.
	SamplerLinear

	// SamplerLinearRepeat uses linear filtering with repeat addressing.
	SamplerLinearRepeat

	// SamplerCompareDepth is a comparison sampler for depth/shadow lookups.
	SamplerCompareDepth
)
