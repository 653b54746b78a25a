package manager

import (
	"testing"

	"github.com/Carmen-Shannon/oxy-draw/common"
	"github.com/Carmen-Shannon/oxy-draw/gpu/gputest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testCamera() (common.Float4x4, common.Float4x4) {
	var viewMat, winMat common.Float4x4
	common.LookAt(viewMat[:], 0, 2, 5, 0, 0, 0, 0, 1, 0)
	common.Perspective(winMat[:], 1.0, 16.0/9.0, 0.1, 100)
	return viewMat, winMat
}

func TestNewViewStartsAtIdentity(t *testing.T) {
	v := NewView()
	assert.Equal(t, "view", v.Name())
	assert.Equal(t, common.Float4x4Identity(), v.ViewMatrix())
	assert.Equal(t, common.Float4x4Identity(), v.PersMatrix())
	assert.False(t, v.Inverted())
}

func TestSyncDerivesCombinedMatrix(t *testing.T) {
	viewMat, winMat := testCamera()

	v := NewView(WithViewName("camera"))
	v.Sync(viewMat, winMat)

	assert.Equal(t, viewMat, v.ViewMatrix())
	assert.Equal(t, winMat, v.WinMatrix())
	assert.Equal(t, winMat.Mul(viewMat), v.PersMatrix())
}

func TestSyncDetectsMirroredView(t *testing.T) {
	v := NewView()
	assert.False(t, v.Inverted())

	mirrored := common.Float4x4Identity()
	mirrored[0] = -1
	v.Sync(mirrored, common.Float4x4Identity())
	assert.True(t, v.Inverted())
}

func TestFrustumContainsLookedAtPoint(t *testing.T) {
	viewMat, winMat := testCamera()

	v := NewView()
	v.Sync(viewMat, winMat)

	// The look-at target sits inside every frustum plane's positive half-space.
	target := [3]float32{0, 0, 0}
	for i, p := range v.Frustum().Planes {
		dist := p.Normal[0]*target[0] + p.Normal[1]*target[1] + p.Normal[2]*target[2] + p.Distance
		assert.Greater(t, dist, float32(0), "plane %d", i)
	}

	// A point far behind the camera is outside at least one plane.
	behind := [3]float32{0, 0, 200}
	outside := false
	for _, p := range v.Frustum().Planes {
		dist := p.Normal[0]*behind[0] + p.Normal[1]*behind[1] + p.Normal[2]*behind[2] + p.Distance
		if dist < 0 {
			outside = true
		}
	}
	assert.True(t, outside)
}

func TestBindUploadsOnlyWhenDirty(t *testing.T) {
	backend := gputest.NewBackend()
	v := NewView(WithViewName("camera"))

	v.Bind(backend)
	v.Bind(backend)

	assert.Equal(t, []string{
		"new_uniform_buffer(camera_infos, 480)",
		"update(camera_infos, 480)",
		"bind_uniform_buf(camera_infos, slot=0)",
		"bind_uniform_buf(camera_infos, slot=0)",
	}, backend.Trace)

	viewMat, winMat := testCamera()
	v.Sync(viewMat, winMat)
	backend.Trace = backend.Trace[:0]
	v.Bind(backend)
	assert.Equal(t, []string{
		"update(camera_infos, 480)",
		"bind_uniform_buf(camera_infos, slot=0)",
	}, backend.Trace)
}

func TestBindUploadsFrustumPlanes(t *testing.T) {
	backend := gputest.NewBackend()
	viewMat, winMat := testCamera()

	v := NewView(WithViewName("camera"))
	v.Sync(viewMat, winMat)
	v.Bind(backend)

	buf := backend.UniformBuffers["camera_infos"]
	require.NotNil(t, buf)
	require.Len(t, buf.Data, 480)

	// The packed plane block starts after the six matrices.
	planes := buf.Data[6*64:]
	left := v.Frustum().Planes[0].AsFloat4()
	assert.Equal(t, common.SliceToBytes(left[:]), planes[:16])
}
