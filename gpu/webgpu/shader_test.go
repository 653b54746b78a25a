package webgpu

import (
	"testing"

	"github.com/Carmen-Shannon/oxy-draw/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// newReflectedShader builds a shader around reflected source without touching
// a device, enough to exercise name resolution and push-constant staging.
func newReflectedShader(t *testing.T, source string) *wgpuShader {
	t.Helper()
	sh := &wgpuShader{
		name:            "test",
		source:          source,
		refl:            reflectSource(source),
		storageBindings: make(map[string]int),
		uniformBindings: make(map[string]int),
		textureBindings: make(map[string]int),
	}
	for _, info := range sh.refl.bindings {
		if info.group != 0 {
			continue
		}
		switch info.kind {
		case bindingStorage:
			sh.storageBindings[info.name] = info.binding
		case bindingUniform:
			if info.name != pushConstantsVar {
				sh.uniformBindings[info.name] = info.binding
			}
		case bindingTexture, bindingStorageTexture:
			sh.textureBindings[info.name] = info.binding
		}
	}
	if sh.refl.pcSize > 0 {
		sh.pcStaging = make([]byte, sh.refl.pcSize)
	}
	return sh
}

func TestShaderNameResolutionIsKindScoped(t *testing.T) {
	sh := newReflectedShader(t, testRenderSource)

	assert.Equal(t, 0, sh.UniformBufferBinding("view_infos"))
	assert.Equal(t, 2, sh.StorageBufferBinding("bounds"))
	assert.Equal(t, 4, sh.TextureBinding("base_color"))

	// Names resolve only within their resource kind.
	assert.Equal(t, -1, sh.StorageBufferBinding("view_infos"))
	assert.Equal(t, -1, sh.UniformBufferBinding("bounds"))
	assert.Equal(t, -1, sh.TextureBinding("missing"))

	// The push-constants block is not addressable as a uniform buffer.
	assert.Equal(t, -1, sh.UniformBufferBinding(pushConstantsVar))
	assert.True(t, sh.hasPushConstants())
}

func TestUniformLocationFollowsFieldOrder(t *testing.T) {
	sh := newReflectedShader(t, testRenderSource)

	assert.Equal(t, 0, sh.UniformLocation("model_mat"))
	assert.Equal(t, 1, sh.UniformLocation("color"))
	assert.Equal(t, 3, sh.UniformLocation("alpha"))
	assert.Equal(t, 4, sh.UniformLocation("weights"))
	assert.Equal(t, -1, sh.UniformLocation("missing"))
}

func TestWriteUniformContiguousField(t *testing.T) {
	sh := newReflectedShader(t, testRenderSource)

	color := []float32{0.25, 0.5, 0.75, 1}
	require.True(t, sh.writeUniform(sh.UniformLocation("color"), common.SliceToBytes(color)))
	assert.True(t, sh.pcDirty)

	stored := sh.pcStaging[64:80]
	assert.Equal(t, common.SliceToBytes(color), stored)
}

func TestWriteUniformClampsOversizedData(t *testing.T) {
	sh := newReflectedShader(t, testRenderSource)

	// Eight floats against a vec4 field must not spill into the next field.
	tooMuch := []float32{1, 2, 3, 4, 5, 6, 7, 8}
	require.True(t, sh.writeUniform(sh.UniformLocation("color"), common.SliceToBytes(tooMuch)))

	assert.Equal(t, common.SliceToBytes(tooMuch[:4]), sh.pcStaging[64:80])
	for _, b := range sh.pcStaging[80:96] {
		assert.Zero(t, b)
	}
}

func TestWriteUniformScattersArrayElements(t *testing.T) {
	sh := newReflectedShader(t, testRenderSource)

	weights := []float32{10, 20, 30, 40}
	require.True(t, sh.writeUniform(sh.UniformLocation("weights"), common.SliceToBytes(weights)))

	// Each f32 element lands at a 16-byte stride starting at offset 96.
	for i, w := range weights {
		got := sh.pcStaging[96+i*16 : 96+i*16+4]
		want := common.SliceToBytes([]float32{w})
		assert.Equal(t, want, got, "element %d", i)
	}
}

func TestWriteUniformRejectsBadLocations(t *testing.T) {
	sh := newReflectedShader(t, testRenderSource)

	assert.False(t, sh.writeUniform(-1, nil))
	assert.False(t, sh.writeUniform(len(sh.refl.pcFields), nil))
	assert.False(t, sh.pcDirty)
}
