package webgpu

import (
	"github.com/Carmen-Shannon/oxy-draw/common"
)

// TextureBuilderOption is a function that configures a texture instance during construction.
type TextureBuilderOption func(*wgpuTexture)

// WithTextureName is an option builder that sets the texture's debug label.
//
// Parameters:
//   - name: the identifier for the texture
//
// Returns:
//   - TextureBuilderOption: a function that applies the name option to a texture
func WithTextureName(name string) TextureBuilderOption {
	return func(t *wgpuTexture) {
		t.name = name
	}
}

// WithTexturePixels is an option builder that stages raw RGBA pixel data for
// upload when the texture is allocated.
//
// Parameters:
//   - pixels: RGBA pixel data, 4 bytes per pixel, row-major
//   - width: the texture width in pixels
//   - height: the texture height in pixels
//
// Returns:
//   - TextureBuilderOption: a function that applies the pixel data option to a texture
func WithTexturePixels(pixels []byte, width, height uint32) TextureBuilderOption {
	return func(t *wgpuTexture) {
		t.staging = common.TextureStagingData{Pixels: pixels, Width: width, Height: height}
	}
}

// WithImportedTexture is an option builder that sources the texture's pixel
// data from an image file or embedded image bytes, decoded lazily when the
// texture is allocated.
//
// Parameters:
//   - imported: the image source
//
// Returns:
//   - TextureBuilderOption: a function that applies the image source option to a texture
func WithImportedTexture(imported *common.ImportedTexture) TextureBuilderOption {
	return func(t *wgpuTexture) {
		t.imported = imported
		if t.name == "" && imported != nil {
			t.name = imported.Name
		}
	}
}
