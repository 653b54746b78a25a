package webgpu

import (
	"testing"

	"github.com/cogentcore/webgpu/wgpu"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testRenderSource = `
// Per-view data, bound by the draw manager.
struct ViewInfos {
    view_mat: mat4x4<f32>,
    win_mat: mat4x4<f32>,
};

struct PushConstants {
    model_mat: mat4x4<f32>,
    color: vec4<f32>,
    offset: vec3<f32>,
    alpha: f32,
    weights: array<f32, 4>,
};

@group(0) @binding(0) var<uniform> view_infos: ViewInfos;
@group(0) @binding(1) var<uniform> push_constants: PushConstants;
@group(0) @binding(2) var<storage, read> bounds: array<vec4<f32>>;
@group(0) @binding(3) var<storage, read_write> out_args: array<vec4<u32>>;
@group(0) @binding(4) var base_color: texture_2d<f32>;
@group(0) @binding(5) var base_color_sampler: sampler;

@vertex
fn vs_main(@builtin(vertex_index) index: u32) -> @builtin(position) vec4<f32> {
    return vec4<f32>(0.0);
}

@fragment
fn fs_main() -> @location(0) vec4<f32> {
    return view_infos.win_mat[0] * push_constants.alpha;
}
`

func TestReflectRenderShader(t *testing.T) {
	r := reflectSource(testRenderSource)

	assert.Equal(t, "vs_main", r.vertexEntry)
	assert.Equal(t, "fs_main", r.fragmentEntry)
	assert.Empty(t, r.computeEntry)

	require.Len(t, r.bindings, 6)
	wantVis := wgpu.ShaderStageVertex | wgpu.ShaderStageFragment
	for i, b := range r.bindings {
		assert.Equal(t, 0, b.group)
		assert.Equal(t, i, b.binding)
		assert.Equal(t, wantVis, b.entry.Visibility)
	}

	view := r.bindings[0]
	assert.Equal(t, "view_infos", view.name)
	assert.Equal(t, bindingUniform, view.kind)
	assert.Equal(t, wgpu.BufferBindingTypeUniform, view.entry.Buffer.Type)
	assert.Equal(t, uint64(128), view.minSize)

	pc := r.bindings[1]
	assert.Equal(t, pushConstantsVar, pc.name)
	assert.True(t, pc.entry.Buffer.HasDynamicOffset)

	readOnly := r.bindings[2]
	assert.Equal(t, bindingStorage, readOnly.kind)
	assert.Equal(t, wgpu.BufferBindingTypeReadOnlyStorage, readOnly.entry.Buffer.Type)
	assert.Equal(t, uint64(16), readOnly.minSize)

	readWrite := r.bindings[3]
	assert.Equal(t, bindingStorage, readWrite.kind)
	assert.Equal(t, wgpu.BufferBindingTypeStorage, readWrite.entry.Buffer.Type)

	tex := r.bindings[4]
	assert.Equal(t, bindingTexture, tex.kind)
	assert.Equal(t, wgpu.TextureSampleTypeFloat, tex.entry.Texture.SampleType)
	assert.Equal(t, wgpu.TextureViewDimension2D, tex.entry.Texture.ViewDimension)

	samp := r.bindings[5]
	assert.Equal(t, bindingSampler, samp.kind)
	assert.Equal(t, wgpu.SamplerBindingTypeFiltering, samp.entry.Sampler.Type)
}

func TestReflectPushConstantLayout(t *testing.T) {
	r := reflectSource(testRenderSource)

	assert.Equal(t, 1, r.pcBinding)
	require.Len(t, r.pcFields, 5)

	// mat4x4 at 0, vec4 at 64, vec3 padded to a 16-byte slot at 80, the f32
	// packs into the vec3's pad at 92, the array starts 16-aligned at 96.
	assert.Equal(t, pushConstantField{
		name: "model_mat", offset: 0, size: 64, compLen: 16, elemSize: 64, elemStride: 64, elemCount: 1,
	}, r.pcFields[0])
	assert.Equal(t, pushConstantField{
		name: "color", offset: 64, size: 16, compLen: 4, elemSize: 16, elemStride: 16, elemCount: 1,
	}, r.pcFields[1])
	assert.Equal(t, pushConstantField{
		name: "offset", offset: 80, size: 12, compLen: 3, elemSize: 12, elemStride: 12, elemCount: 1,
	}, r.pcFields[2])
	assert.Equal(t, pushConstantField{
		name: "alpha", offset: 92, size: 4, compLen: 1, elemSize: 4, elemStride: 4, elemCount: 1,
	}, r.pcFields[3])

	// Uniform address space rounds the f32 element stride up to 16.
	assert.Equal(t, pushConstantField{
		name: "weights", offset: 96, size: 64, compLen: 1, elemSize: 4, elemStride: 16, elemCount: 4,
	}, r.pcFields[4])

	assert.Equal(t, uint64(160), r.pcSize)
}

func TestReflectComputeShader(t *testing.T) {
	source := `
struct DispatchArgs {
    groups_x: u32,
    groups_y: u32,
    groups_z: u32,
};

@group(0) @binding(0) var<storage, read_write> args: DispatchArgs;

@compute @workgroup_size(64, 2)
fn cull_main(@builtin(global_invocation_id) id: vec3<u32>) {
}
`
	r := reflectSource(source)

	assert.Equal(t, "cull_main", r.computeEntry)
	assert.Empty(t, r.vertexEntry)
	assert.Empty(t, r.fragmentEntry)
	assert.Equal(t, [3]uint32{64, 2, 1}, r.workgroup)
	assert.Equal(t, -1, r.pcBinding)

	require.Len(t, r.bindings, 1)
	assert.Equal(t, wgpu.ShaderStageCompute, r.bindings[0].entry.Visibility)
	assert.Equal(t, uint64(12), r.bindings[0].minSize)
}

func TestReflectSpecialTextureKinds(t *testing.T) {
	source := `
@group(0) @binding(0) var shadow_map: texture_depth_2d;
@group(0) @binding(1) var shadow_sampler: sampler_comparison;
@group(0) @binding(2) var tiles: texture_2d_array<f32>;
@group(0) @binding(3) var id_map: texture_2d<u32>;
@group(0) @binding(4) var out_img: texture_storage_2d<rgba8unorm, write>;

@fragment fn fs_main() {}
`
	r := reflectSource(source)
	require.Len(t, r.bindings, 5)

	assert.Equal(t, wgpu.TextureSampleTypeDepth, r.bindings[0].entry.Texture.SampleType)
	assert.Equal(t, wgpu.SamplerBindingTypeComparison, r.bindings[1].entry.Sampler.Type)
	assert.Equal(t, wgpu.TextureViewDimension2DArray, r.bindings[2].entry.Texture.ViewDimension)
	assert.Equal(t, wgpu.TextureSampleTypeUint, r.bindings[3].entry.Texture.SampleType)

	storage := r.bindings[4]
	assert.Equal(t, bindingStorageTexture, storage.kind)
	assert.Equal(t, wgpu.TextureFormatRGBA8Unorm, storage.entry.StorageTexture.Format)
	assert.Equal(t, wgpu.StorageTextureAccessWriteOnly, storage.entry.StorageTexture.Access)
}

func TestReflectIgnoresCommentedDeclarations(t *testing.T) {
	source := `
// @group(0) @binding(0) var<uniform> dead_line: f32;
/* @group(0) @binding(1) var<uniform> dead_block: f32;
   /* nested */ @group(0) @binding(2) var<uniform> still_dead: f32; */
@group(0) @binding(3) var<uniform> alive: vec4<f32>;
@vertex fn vs_main() {}
`
	r := reflectSource(source)

	require.Len(t, r.bindings, 1)
	assert.Equal(t, "alive", r.bindings[0].name)
	assert.Equal(t, 3, r.bindings[0].binding)
}

func TestReflectNestedStructSizes(t *testing.T) {
	source := `
struct Inner {
    a: vec3<f32>,
    b: f32,
};

struct Outer {
    first: Inner,
    second: Inner,
    tail: f32,
};

@group(0) @binding(0) var<uniform> data: Outer;
@vertex fn vs_main() {}
`
	r := reflectSource(source)

	require.Len(t, r.bindings, 1)
	// Inner is 16 bytes (vec3 + f32 packed into its pad); Outer rounds the
	// trailing f32 up to the struct's 16-byte alignment.
	assert.Equal(t, uint64(48), r.bindings[0].minSize)
}

func TestWorkgroupSizeDefaultsToOne(t *testing.T) {
	r := reflectSource(`@compute @workgroup_size(8) fn main_cs() {}`)
	assert.Equal(t, [3]uint32{8, 1, 1}, r.workgroup)

	r = reflectSource(`@vertex fn vs() {}`)
	assert.Equal(t, [3]uint32{1, 1, 1}, r.workgroup)
}
