package material

import (
	"testing"

	"github.com/Carmen-Shannon/oxy-draw/gpu"
	"github.com/Carmen-Shannon/oxy-draw/gpu/gputest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewMaterialAppliesOptions(t *testing.T) {
	backend := gputest.NewBackend()
	shader := gputest.NewShader("surface")
	var base gpu.Texture = gputest.NewTexture(backend, "base")
	params := backend.NewUniformBuffer("params", 64)

	m := NewMaterial(
		WithName("metal"),
		WithShader(shader),
		WithTexture("base_color", &base, gpu.SamplerLinearRepeat),
		WithUniformBuffer(params),
	)

	assert.Equal(t, "metal", m.Name())
	assert.Same(t, gpu.Shader(shader), m.Shader())
	assert.Same(t, gpu.UniformBuffer(params), m.UniformBuffer())

	require.Len(t, m.Textures(), 1)
	tb := m.Textures()[0]
	assert.Equal(t, "base_color", tb.Name)
	assert.Same(t, &base, tb.Texture)
	assert.Equal(t, gpu.SamplerLinearRepeat, tb.Sampler)
}

func TestWithTiledTextureAppendsTwoBindings(t *testing.T) {
	backend := gputest.NewBackend()
	var tiles gpu.Texture = gputest.NewTexture(backend, "tiles")
	var tileData gpu.Texture = gputest.NewTexture(backend, "tile_data")

	m := NewMaterial(WithTiledTexture("base_color", &tiles, &tileData, gpu.SamplerLinear))

	require.Len(t, m.Textures(), 2)
	assert.Equal(t, "base_color", m.Textures()[0].Name)
	assert.Equal(t, gpu.SamplerLinear, m.Textures()[0].Sampler)
	assert.Equal(t, "base_color_tile_data", m.Textures()[1].Name)
	// Tile mapping data is lookup data, never filtered.
	assert.Equal(t, gpu.SamplerNearest, m.Textures()[1].Sampler)
}

func TestWithColorRampBindsSharedName(t *testing.T) {
	backend := gputest.NewBackend()
	var ramp gpu.Texture = gputest.NewTexture(backend, "ramp")

	m := NewMaterial(WithColorRamp(&ramp))

	require.Len(t, m.Textures(), 1)
	assert.Equal(t, "color_ramp", m.Textures()[0].Name)
	assert.Equal(t, gpu.SamplerLinear, m.Textures()[0].Sampler)
}

func TestShaderAndBufferAreMutableAfterConstruction(t *testing.T) {
	backend := gputest.NewBackend()
	m := NewMaterial(WithName("late_init"))
	assert.Nil(t, m.Shader())
	assert.Nil(t, m.UniformBuffer())

	shader := gputest.NewShader("compiled")
	m.SetShader(shader)
	assert.Same(t, gpu.Shader(shader), m.Shader())

	buf := backend.NewUniformBuffer("params", 16)
	m.SetUniformBuffer(buf)
	assert.Same(t, gpu.UniformBuffer(buf), m.UniformBuffer())
}
