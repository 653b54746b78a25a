package manager

import (
	"github.com/Carmen-Shannon/oxy-draw/common"
	"github.com/Carmen-Shannon/oxy-draw/gpu"
)

// viewInfosSlot is the uniform slot the view data buffer is bound to before a
// pass replays. Shaders consuming manager submissions declare their view
// block at this slot.
const viewInfosSlot = 0

// viewInfos is the GPU-side layout of the view uniform block.
type viewInfos struct {
	ViewMat common.Float4x4
	ViewInv common.Float4x4
	WinMat  common.Float4x4
	WinInv  common.Float4x4
	PersMat common.Float4x4
	PersInv common.Float4x4

	FrustumPlanes [6]common.Float4
}

// view is the implementation of the View interface.
type view struct {
	name     string
	infos    viewInfos
	frustum  common.Frustum
	inverted bool
	dirty    bool
	buf      gpu.UniformBuffer
}

// View holds the matrices of one viewpoint and their derived data: inverses,
// the combined view-projection matrix, and the frustum planes. Sync updates
// everything at once; the GPU-side uniform block uploads lazily on the next
// submission that uses the view.
//
// A view can be synced at any time between submissions; recorded passes do
// not capture view data, they read the bound view block at replay.
type View interface {
	// Name retrieves the view identifier.
	//
	// Returns:
	//   - string: the name of the view
	Name() string

	// Sync sets the view and projection matrices and recomputes all derived
	// data on the CPU.
	//
	// Parameters:
	//   - viewMat: the world-to-view matrix
	//   - winMat: the view-to-clip (projection) matrix
	Sync(viewMat, winMat common.Float4x4)

	// ViewMatrix retrieves the world-to-view matrix from the last Sync.
	//
	// Returns:
	//   - common.Float4x4: the view matrix
	ViewMatrix() common.Float4x4

	// WinMatrix retrieves the projection matrix from the last Sync.
	//
	// Returns:
	//   - common.Float4x4: the projection matrix
	WinMatrix() common.Float4x4

	// PersMatrix retrieves the combined view-projection matrix from the last Sync.
	//
	// Returns:
	//   - common.Float4x4: the view-projection matrix
	PersMatrix() common.Float4x4

	// Frustum retrieves the view frustum extracted from the combined matrix.
	//
	// Returns:
	//   - common.Frustum: the frustum with normalized planes
	Frustum() common.Frustum

	// Inverted reports whether the view matrix has negative handedness.
	//
	// Returns:
	//   - bool: true when the view is mirrored
	Inverted() bool

	// Bind uploads the view uniform block if it changed since the last bind
	// and binds it to the view uniform slot. The manager calls this during
	// submission; call it directly only when submitting passes without a
	// manager.
	//
	// Parameters:
	//   - backend: the backend the block is uploaded through
	Bind(backend gpu.Backend)
}

var _ View = &view{}

// NewView creates a new View instance configured with the provided options.
// The view starts at identity matrices; call Sync before the first submission.
//
// Parameters:
//   - options: variadic list of ViewBuilderOption functions to configure the view
//
// Returns:
//   - View: a new View instance
func NewView(options ...ViewBuilderOption) View {
	v := &view{}
	for _, opt := range options {
		opt(v)
	}
	v.name = common.Coalesce(v.name, "view")
	v.Sync(common.Float4x4Identity(), common.Float4x4Identity())
	return v
}

func (v *view) Name() string {
	return v.name
}

func (v *view) Sync(viewMat, winMat common.Float4x4) {
	v.infos.ViewMat = viewMat
	v.infos.ViewInv, _ = viewMat.Inverted()
	v.infos.WinMat = winMat
	v.infos.WinInv, _ = winMat.Inverted()
	v.infos.PersMat = winMat.Mul(viewMat)
	v.infos.PersInv, _ = v.infos.PersMat.Inverted()

	v.frustum = common.ExtractFrustum(v.infos.PersMat)
	for i, p := range v.frustum.Planes {
		v.infos.FrustumPlanes[i] = p.AsFloat4()
	}
	v.inverted = det3(viewMat) < 0
	v.dirty = true
}

func (v *view) ViewMatrix() common.Float4x4 {
	return v.infos.ViewMat
}

func (v *view) WinMatrix() common.Float4x4 {
	return v.infos.WinMat
}

func (v *view) PersMatrix() common.Float4x4 {
	return v.infos.PersMat
}

func (v *view) Frustum() common.Frustum {
	return v.frustum
}

func (v *view) Inverted() bool {
	return v.inverted
}

func (v *view) Bind(backend gpu.Backend) {
	if v.buf == nil {
		v.buf = backend.NewUniformBuffer(v.name+"_infos", len(common.StructToBytes(&v.infos)))
		v.dirty = true
	}
	if v.dirty {
		v.buf.Update(common.StructToBytes(&v.infos))
		v.dirty = false
	}
	v.buf.Bind(viewInfosSlot)
}

// det3 returns the determinant of the upper 3x3 of a column-major matrix,
// whose sign carries the transform's handedness.
func det3(m common.Float4x4) float32 {
	return m[0]*(m[5]*m[10]-m[9]*m[6]) -
		m[4]*(m[1]*m[10]-m[9]*m[2]) +
		m[8]*(m[1]*m[6]-m[5]*m[2])
}
