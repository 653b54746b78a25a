package webgpu

import (
	"fmt"

	"github.com/Carmen-Shannon/oxy-draw/common"
	"github.com/Carmen-Shannon/oxy-draw/gpu"
	"github.com/cogentcore/webgpu/wgpu"
)

// wgpuTexture is the sampled texture implementation. Pixel data is staged on
// the CPU until Allocate runs; the draw manager calls Allocate at submit time
// for every texture acquired during the sync cycle.
type wgpuTexture struct {
	backend *wgpuBackendImpl
	name    string

	staging  common.TextureStagingData
	imported *common.ImportedTexture

	texture *wgpu.Texture
	view    *wgpu.TextureView
	id      uint64
}

var _ gpu.Texture = &wgpuTexture{}

func (t *wgpuTexture) Name() string {
	return t.name
}

func (t *wgpuTexture) Initialized() bool {
	return t.view != nil
}

func (t *wgpuTexture) Allocate() error {
	if t.view != nil {
		return nil
	}

	if t.imported != nil {
		pixels, width, height, err := t.imported.Decode()
		if err != nil {
			return fmt.Errorf("failed to decode texture %s: %w", t.name, err)
		}
		t.staging = common.TextureStagingData{Pixels: pixels, Width: width, Height: height}
		t.imported = nil
	}
	if t.staging.Width == 0 || t.staging.Height == 0 {
		return fmt.Errorf("texture %s has no staged pixel data", t.name)
	}

	tex, err := t.backend.device.CreateTexture(&wgpu.TextureDescriptor{
		Label:     t.name,
		Usage:     wgpu.TextureUsageTextureBinding | wgpu.TextureUsageCopyDst,
		Dimension: wgpu.TextureDimension2D,
		Size: wgpu.Extent3D{
			Width:              t.staging.Width,
			Height:             t.staging.Height,
			DepthOrArrayLayers: 1,
		},
		Format:        wgpu.TextureFormatRGBA8UnormSrgb,
		MipLevelCount: 1,
		SampleCount:   1,
	})
	if err != nil {
		return fmt.Errorf("failed to create texture %s: %w", t.name, err)
	}

	if len(t.staging.Pixels) > 0 {
		t.backend.queue.WriteTexture(
			&wgpu.ImageCopyTexture{
				Texture:  tex,
				MipLevel: 0,
				Origin:   wgpu.Origin3D{},
				Aspect:   wgpu.TextureAspectAll,
			},
			t.staging.Pixels,
			&wgpu.TextureDataLayout{
				Offset:       0,
				BytesPerRow:  t.staging.Width * 4,
				RowsPerImage: t.staging.Height,
			},
			&wgpu.Extent3D{
				Width:              t.staging.Width,
				Height:             t.staging.Height,
				DepthOrArrayLayers: 1,
			},
		)
	}

	view, err := tex.CreateView(nil)
	if err != nil {
		tex.Release()
		return fmt.Errorf("failed to create texture view %s: %w", t.name, err)
	}

	t.texture = tex
	t.view = view
	t.id = t.backend.nextResourceID()
	// Staged pixels are on the GPU now; drop the CPU copy.
	t.staging.Pixels = nil
	return nil
}

func (t *wgpuTexture) Bind(slot int, sampler gpu.SamplerState) {
	t.backend.bindTextureSlot(slot, slotBinding{
		kind:      bindingTexture,
		view:      t.view,
		textureID: t.id,
		sampler:   sampler,
	})
}
