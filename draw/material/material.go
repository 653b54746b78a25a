// Package material groups the full binding set a surface draws with: the
// shader, every texture it samples, and its parameter uniform buffer. A pass
// records all of it in one MaterialSet call.
package material

import (
	"github.com/Carmen-Shannon/oxy-draw/gpu"
)

// TextureBinding pairs a shader sampler name with the texture bound to it.
// The texture is held by pointer so residency management may reallocate it
// between record and submit; recorded passes dereference at submission.
type TextureBinding struct {
	// Name is the sampler name in the shader source.
	Name string

	// Texture is the texture handle, dereferenced at submission.
	Texture *gpu.Texture

	// Sampler is the sampler state the texture is bound with.
	Sampler gpu.SamplerState
}

// material is the implementation of the Material interface.
type material struct {
	name       string
	shader     gpu.Shader
	textures   []TextureBinding
	uniformBuf gpu.UniformBuffer
}

// Material defines the interface for a draw material, encapsulating the
// shader and the resource bindings a pass records when the material is set.
//
// The texture list and parameter buffer are assembled at load time through
// builder options. The shader and uniform buffer references are mutable so
// they can be configured after construction during GPU initialization.
type Material interface {
	// Name retrieves the material identifier.
	//
	// Returns:
	//   - string: the name of the material
	Name() string

	// Shader retrieves the shader the material draws with.
	//
	// Returns:
	//   - gpu.Shader: the shader, or nil if not yet initialized
	Shader() gpu.Shader

	// Textures retrieves the texture bindings the material samples, in bind
	// order. Tiled textures contribute two consecutive entries (the tile
	// array and its mapping data); color ramps contribute one.
	//
	// Returns:
	//   - []TextureBinding: the texture bindings
	Textures() []TextureBinding

	// UniformBuffer retrieves the material parameter buffer, or nil when the
	// material has no parameters.
	//
	// Returns:
	//   - gpu.UniformBuffer: the parameter buffer, or nil
	UniformBuffer() gpu.UniformBuffer

	// SetShader sets the shader the material draws with.
	//
	// Parameters:
	//   - sh: the compiled shader
	SetShader(sh gpu.Shader)

	// SetUniformBuffer sets the material parameter buffer.
	//
	// Parameters:
	//   - buf: the parameter buffer
	SetUniformBuffer(buf gpu.UniformBuffer)
}

var _ Material = &material{}

// NewMaterial creates a new Material instance configured with the provided options.
//
// Parameters:
//   - options: variadic list of MaterialBuilderOption functions to configure the material
//
// Returns:
//   - Material: a new Material instance
func NewMaterial(options ...MaterialBuilderOption) Material {
	m := &material{}
	for _, opt := range options {
		opt(m)
	}
	return m
}

func (m *material) Name() string {
	return m.name
}

func (m *material) Shader() gpu.Shader {
	return m.shader
}

func (m *material) Textures() []TextureBinding {
	return m.textures
}

func (m *material) UniformBuffer() gpu.UniformBuffer {
	return m.uniformBuf
}

func (m *material) SetShader(sh gpu.Shader) {
	m.shader = sh
}

func (m *material) SetUniformBuffer(buf gpu.UniformBuffer) {
	m.uniformBuf = buf
}
