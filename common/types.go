// package common contains common types that are used throughout this library. They are not interface-wrapped structs, just plain structs that express
// commonly used data-types.
package common

import (
	"bytes"
	"fmt"
	"image"
	"image/draw"
	_ "image/jpeg"
	_ "image/png"
	"os"
)

// Float2 is a 2-component float vector.
type Float2 [2]float32

// Float3 is a 3-component float vector.
type Float3 [3]float32

// Float4 is a 4-component float vector, also used for RGBA colors and clear values.
type Float4 [4]float32

// Int2 is a 2-component signed integer vector.
type Int2 [2]int32

// Int3 is a 3-component signed integer vector, used for compute dispatch group counts.
type Int3 [3]int32

// Int4 is a 4-component signed integer vector.
type Int4 [4]int32

// Float4x4 is a 4x4 matrix stored flat in column-major order (OpenGL/WebGPU convention).
type Float4x4 [16]float32

// Float4x4Identity returns the identity matrix.
//
// Returns:
//   - Float4x4: a fresh identity matrix
func Float4x4Identity() Float4x4 {
	var m Float4x4
	Identity(m[:])
	return m
}

// Mul returns the product m * o. Both operands are column-major.
//
// Parameters:
//   - o: the right-hand matrix
//
// Returns:
//   - Float4x4: the matrix product
func (m Float4x4) Mul(o Float4x4) Float4x4 {
	var out Float4x4
	Mul4(out[:], m[:], o[:])
	return out
}

// Inverted returns the inverse of m. If m is singular the identity matrix is
// returned alongside false.
//
// Returns:
//   - Float4x4: the inverse, or identity if m is singular
//   - bool: true if m was invertible
func (m Float4x4) Inverted() (Float4x4, bool) {
	out := Float4x4Identity()
	ok := Invert4(out[:], m[:])
	return out, ok
}

// TextureStagingData holds RGBA pixel data for a texture pending GPU upload.
// This is primarily used by GPU texture implementations to stage pixel data
// before the texture is made resident.
type TextureStagingData struct {
	// Pixels is the byte slice representing the actual pixel data for the texture. It should be in RGBA format, with 4 bytes per pixel.
	Pixels []byte
	// Width is the width of the texture in pixels. This is required to correctly create the GPU texture and interpret the pixel data.
	Width uint32
	// Height is the height of the texture in pixels. This is required to correctly create the GPU texture and interpret the pixel data.
	Height uint32
}

// ImportedTexture represents texture data sourced from an image file.
// For embedded textures, the Data field contains raw image bytes.
// For external textures, the Path field contains the file path.
type ImportedTexture struct {
	// Name is an identifier for this texture (e.g., "diffuse", "normal").
	Name string

	// Path is the file path for external textures (empty for embedded).
	Path string

	// Data contains raw image bytes for embedded textures (PNG/JPEG).
	Data []byte

	// MimeType indicates the image format (e.g., "image/png", "image/jpeg").
	MimeType string

	// Width is the texture width in pixels (populated after Decode).
	Width int

	// Height is the texture height in pixels (populated after Decode).
	Height int
}

// Decode decodes the texture to raw RGBA pixel data.
// Uses either embedded Data bytes or loads from Path on disk.
// Supports PNG and JPEG formats.
// Reference: https://pkg.go.dev/image
//
// Returns:
//   - []byte: raw RGBA pixel data (4 bytes per pixel, row-major order)
//   - uint32: texture width in pixels
//   - uint32: texture height in pixels
//   - error: error if decoding fails
func (t *ImportedTexture) Decode() ([]byte, uint32, uint32, error) {
	if t == nil {
		return nil, 0, 0, fmt.Errorf("texture is nil")
	}

	var img image.Image
	var err error

	if len(t.Data) > 0 {
		img, _, err = image.Decode(bytes.NewReader(t.Data))
		if err != nil {
			return nil, 0, 0, fmt.Errorf("failed to decode embedded image: %w", err)
		}
	} else if t.Path != "" {
		file, fileErr := os.Open(t.Path)
		if fileErr != nil {
			return nil, 0, 0, fmt.Errorf("failed to open texture file %s: %w", t.Path, fileErr)
		}
		defer file.Close()

		img, _, err = image.Decode(file)
		if err != nil {
			return nil, 0, 0, fmt.Errorf("failed to decode texture file %s: %w", t.Path, err)
		}
	} else {
		return nil, 0, 0, fmt.Errorf("texture has neither data nor path")
	}

	bounds := img.Bounds()
	width := bounds.Dx()
	height := bounds.Dy()

	rgba := image.NewRGBA(bounds)
	draw.Draw(rgba, bounds, img, bounds.Min, draw.Src)

	t.Width = width
	t.Height = height

	return rgba.Pix, uint32(width), uint32(height), nil
}
