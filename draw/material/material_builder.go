package material

import (
	"github.com/Carmen-Shannon/oxy-draw/gpu"
)

// tileDataSuffix is appended to a tiled texture's sampler name to form the
// sampler name of its tile mapping data texture.
const tileDataSuffix = "_tile_data"

// colorRampName is the sampler name color ramp lookup textures bind to.
const colorRampName = "color_ramp"

// MaterialBuilderOption is a function that configures a material instance during construction.
type MaterialBuilderOption func(*material)

// WithName is an option builder that sets the name of the material.
//
// Parameters:
//   - name: the identifier for the material
//
// Returns:
//   - MaterialBuilderOption: a function that applies the name option to a material
func WithName(name string) MaterialBuilderOption {
	return func(m *material) {
		m.name = name
	}
}

// WithShader is an option builder that sets the shader the material draws with.
//
// Parameters:
//   - sh: the compiled shader
//
// Returns:
//   - MaterialBuilderOption: a function that applies the shader option to a material
func WithShader(sh gpu.Shader) MaterialBuilderOption {
	return func(m *material) {
		m.shader = sh
	}
}

// WithTexture is an option builder that appends a sampled texture binding.
//
// Parameters:
//   - name: the sampler name in the shader source
//   - tex: the texture handle, dereferenced at submission
//   - sampler: the sampler state the texture is bound with
//
// Returns:
//   - MaterialBuilderOption: a function that applies the texture option to a material
func WithTexture(name string, tex *gpu.Texture, sampler gpu.SamplerState) MaterialBuilderOption {
	return func(m *material) {
		m.textures = append(m.textures, TextureBinding{Name: name, Texture: tex, Sampler: sampler})
	}
}

// WithTiledTexture is an option builder that appends a tiled (UDIM) texture
// as two consecutive bindings: the tile array under name and the tile mapping
// data under name plus the tile data suffix.
//
// Parameters:
//   - name: the sampler name in the shader source
//   - tiles: the tile array texture, dereferenced at submission
//   - tileData: the tile mapping data texture, dereferenced at submission
//   - sampler: the sampler state the tile array is bound with
//
// Returns:
//   - MaterialBuilderOption: a function that applies the tiled texture option to a material
func WithTiledTexture(name string, tiles, tileData *gpu.Texture, sampler gpu.SamplerState) MaterialBuilderOption {
	return func(m *material) {
		m.textures = append(m.textures,
			TextureBinding{Name: name, Texture: tiles, Sampler: sampler},
			TextureBinding{Name: name + tileDataSuffix, Texture: tileData, Sampler: gpu.SamplerNearest},
		)
	}
}

// WithColorRamp is an option builder that appends the material's color ramp
// lookup texture, sampled linearly under the shared color ramp sampler name.
//
// Parameters:
//   - tex: the color ramp lookup texture, dereferenced at submission
//
// Returns:
//   - MaterialBuilderOption: a function that applies the color ramp option to a material
func WithColorRamp(tex *gpu.Texture) MaterialBuilderOption {
	return func(m *material) {
		m.textures = append(m.textures, TextureBinding{Name: colorRampName, Texture: tex, Sampler: gpu.SamplerLinear})
	}
}

// WithUniformBuffer is an option builder that sets the material parameter buffer.
//
// Parameters:
//   - buf: the parameter buffer
//
// Returns:
//   - MaterialBuilderOption: a function that applies the uniform buffer option to a material
func WithUniformBuffer(buf gpu.UniformBuffer) MaterialBuilderOption {
	return func(m *material) {
		m.uniformBuf = buf
	}
}
