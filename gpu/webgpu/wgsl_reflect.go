package webgpu

import (
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/cogentcore/webgpu/wgpu"
)

// pushConstantsVar is the WGSL variable name the recording API's uniform
// updates target. A shader that wants push-constant style updates declares
// one uniform buffer under this name; each struct field becomes a location.
const pushConstantsVar = "push_constants"

// wgslTypeLayout is the byte size and alignment of a WGSL type.
type wgslTypeLayout struct {
	size  uint64
	align uint64
}

// wgslLayoutMap maps WGSL scalar, vector, and matrix type names to their
// uniform-address-space layout per the WGSL specification.
//
// Reference: https://www.w3.org/TR/WGSL/#alignment-and-size
var wgslLayoutMap = map[string]wgslTypeLayout{
	"f32":  {4, 4},
	"i32":  {4, 4},
	"u32":  {4, 4},
	"bool": {4, 4},

	"vec2<f32>": {8, 8},
	"vec2f":     {8, 8},
	"vec3<f32>": {12, 16},
	"vec3f":     {12, 16},
	"vec4<f32>": {16, 16},
	"vec4f":     {16, 16},

	"vec2<i32>": {8, 8},
	"vec2i":     {8, 8},
	"vec3<i32>": {12, 16},
	"vec3i":     {12, 16},
	"vec4<i32>": {16, 16},
	"vec4i":     {16, 16},

	"vec2<u32>": {8, 8},
	"vec2u":     {8, 8},
	"vec3<u32>": {12, 16},
	"vec3u":     {12, 16},
	"vec4<u32>": {16, 16},
	"vec4u":     {16, 16},

	"mat4x4<f32>": {64, 16},
	"mat4x4f":     {64, 16},
	"mat3x3<f32>": {48, 16},
	"mat3x3f":     {48, 16},

	"atomic<u32>": {4, 4},
	"atomic<i32>": {4, 4},
}

// wgslComponentLenMap maps WGSL type names to the flat float/int component
// count the recording API's uniform updates carry for them.
var wgslComponentLenMap = map[string]int{
	"f32": 1, "i32": 1, "u32": 1, "bool": 1,
	"vec2<f32>": 2, "vec2f": 2, "vec2<i32>": 2, "vec2i": 2, "vec2<u32>": 2, "vec2u": 2,
	"vec3<f32>": 3, "vec3f": 3, "vec3<i32>": 3, "vec3i": 3, "vec3<u32>": 3, "vec3u": 3,
	"vec4<f32>": 4, "vec4f": 4, "vec4<i32>": 4, "vec4i": 4, "vec4<u32>": 4, "vec4u": 4,
	"mat4x4<f32>": 16, "mat4x4f": 16,
}

var (
	// resourceDeclRegex captures group, binding, optional address space,
	// variable name, and type from declarations like:
	// @group(0) @binding(2) var<storage, read> bounds: array<ObjectBounds>;
	resourceDeclRegex = regexp.MustCompile(`@group\((\d+)\)\s*@binding\((\d+)\)\s*var(?:<([^>]*)>)?\s+(\w+)\s*:\s*([^;]+?)\s*;`)

	// structBlockRegex matches struct declarations and captures name and body.
	structBlockRegex = regexp.MustCompile(`struct\s+(\w+)\s*\{([^}]*)\}`)

	vertexEntryRegex   = regexp.MustCompile(`(?s)@vertex\b.*?\bfn\s+(\w+)`)
	fragmentEntryRegex = regexp.MustCompile(`(?s)@fragment\b.*?\bfn\s+(\w+)`)
	computeEntryRegex  = regexp.MustCompile(`(?s)@compute\b.*?\bfn\s+(\w+)`)
	workgroupSizeRegex = regexp.MustCompile(`@workgroup_size\(\s*(\d+)\s*(?:,\s*(\d+)\s*(?:,\s*(\d+)\s*)?)?\)`)
)

// bindingKind categorizes a reflected resource for name lookups. Lookups are
// kind-scoped so a storage buffer and a texture may not share a slot number
// namespace accidentally.
type bindingKind uint8

const (
	bindingUniform bindingKind = iota
	bindingStorage
	bindingTexture
	bindingSampler
	bindingStorageTexture
)

// bindingInfo is one reflected @group/@binding resource declaration.
type bindingInfo struct {
	group   int
	binding int
	name    string
	kind    bindingKind
	minSize uint64
	entry   wgpu.BindGroupLayoutEntry
}

// pushConstantField is one field of the push-constants struct. The field
// index in declaration order is the location the recording API resolves.
// Array fields carry a uniform-address-space element stride so tightly packed
// update data can be scattered to the padded GPU layout.
type pushConstantField struct {
	name       string
	offset     uint64
	size       uint64
	compLen    int
	elemSize   uint64
	elemStride uint64
	elemCount  int
}

// reflection is everything the backend needs to know about a WGSL module:
// its resource interface, push-constant layout, entry points, and workgroup
// size.
type reflection struct {
	bindings []bindingInfo

	pcFields  []pushConstantField
	pcSize    uint64
	pcBinding int

	vertexEntry   string
	fragmentEntry string
	computeEntry  string
	workgroup     [3]uint32
}

// reflectSource parses a WGSL module. Unresolvable declarations are skipped
// rather than failing the whole shader; a name that was skipped simply
// resolves to no slot.
func reflectSource(source string) reflection {
	cleaned := stripComments(source)
	structs := parseStructs(cleaned)
	sizes := computeStructSizes(structs)

	r := reflection{
		pcBinding: -1,
		workgroup: [3]uint32{1, 1, 1},
	}

	if m := vertexEntryRegex.FindStringSubmatch(cleaned); m != nil {
		r.vertexEntry = m[1]
	}
	if m := fragmentEntryRegex.FindStringSubmatch(cleaned); m != nil {
		r.fragmentEntry = m[1]
	}
	if m := computeEntryRegex.FindStringSubmatch(cleaned); m != nil {
		r.computeEntry = m[1]
	}
	if m := workgroupSizeRegex.FindStringSubmatch(cleaned); m != nil {
		for i := 0; i < 3; i++ {
			if m[i+1] != "" {
				if v, err := strconv.ParseUint(m[i+1], 10, 32); err == nil {
					r.workgroup[i] = uint32(v)
				}
			}
		}
	}

	visibility := wgpu.ShaderStageNone
	if r.vertexEntry != "" {
		visibility |= wgpu.ShaderStageVertex
	}
	if r.fragmentEntry != "" {
		visibility |= wgpu.ShaderStageFragment
	}
	if r.computeEntry != "" {
		visibility |= wgpu.ShaderStageCompute
	}

	for _, m := range resourceDeclRegex.FindAllStringSubmatch(cleaned, -1) {
		group, _ := strconv.Atoi(m[1])
		binding, _ := strconv.Atoi(m[2])
		addressSpace := strings.TrimSpace(m[3])
		varName := strings.TrimSpace(m[4])
		typeName := strings.TrimSpace(m[5])

		info := bindingInfo{
			group:   group,
			binding: binding,
			name:    varName,
			entry:   wgpu.BindGroupLayoutEntry{Binding: uint32(binding), Visibility: visibility},
		}
		classifyBinding(addressSpace, typeName, &info)

		if info.kind == bindingUniform || info.kind == bindingStorage {
			if layout, ok := resolveTypeLayout(typeName, sizes); ok && layout.size > 0 {
				info.minSize = layout.size
				info.entry.Buffer.MinBindingSize = layout.size
			}
		}

		if varName == pushConstantsVar && info.kind == bindingUniform {
			r.pcBinding = binding
			r.pcFields, r.pcSize = pushConstantLayout(typeName, structs)
			info.entry.Buffer.HasDynamicOffset = true
			info.minSize = r.pcSize
			info.entry.Buffer.MinBindingSize = r.pcSize
		}

		r.bindings = append(r.bindings, info)
	}

	sort.Slice(r.bindings, func(i, j int) bool {
		if r.bindings[i].group != r.bindings[j].group {
			return r.bindings[i].group < r.bindings[j].group
		}
		return r.bindings[i].binding < r.bindings[j].binding
	})

	return r
}

// classifyBinding fills the kind and layout entry fields from the address
// space qualifier and type name of a resource declaration.
func classifyBinding(addressSpace, typeName string, info *bindingInfo) {
	if addressSpace != "" {
		switch {
		case addressSpace == "uniform":
			info.kind = bindingUniform
			info.entry.Buffer.Type = wgpu.BufferBindingTypeUniform
		case strings.HasPrefix(addressSpace, "storage"):
			info.kind = bindingStorage
			if strings.Contains(addressSpace, "read_write") {
				info.entry.Buffer.Type = wgpu.BufferBindingTypeStorage
			} else {
				info.entry.Buffer.Type = wgpu.BufferBindingTypeReadOnlyStorage
			}
		}
		return
	}

	base, param := splitTypeParams(typeName)
	switch {
	case typeName == "sampler":
		info.kind = bindingSampler
		info.entry.Sampler.Type = wgpu.SamplerBindingTypeFiltering
	case typeName == "sampler_comparison":
		info.kind = bindingSampler
		info.entry.Sampler.Type = wgpu.SamplerBindingTypeComparison
	case strings.HasPrefix(base, "texture_storage_"):
		info.kind = bindingStorageTexture
		info.entry.StorageTexture.ViewDimension = wgpu.TextureViewDimension2D
		info.entry.StorageTexture.Access = wgpu.StorageTextureAccessWriteOnly
		parts := strings.SplitN(param, ",", 2)
		if len(parts) == 2 && strings.TrimSpace(parts[1]) == "read_write" {
			info.entry.StorageTexture.Access = wgpu.StorageTextureAccessReadWrite
		}
		if format, ok := texelFormatMap[strings.TrimSpace(parts[0])]; ok {
			info.entry.StorageTexture.Format = format
		}
	case strings.HasPrefix(base, "texture_depth_"):
		info.kind = bindingTexture
		info.entry.Texture.SampleType = wgpu.TextureSampleTypeDepth
		info.entry.Texture.ViewDimension = wgpu.TextureViewDimension2D
	case strings.HasPrefix(base, "texture_"):
		info.kind = bindingTexture
		info.entry.Texture.ViewDimension = wgpu.TextureViewDimension2D
		if base == "texture_2d_array" {
			info.entry.Texture.ViewDimension = wgpu.TextureViewDimension2DArray
		}
		switch param {
		case "i32":
			info.entry.Texture.SampleType = wgpu.TextureSampleTypeSint
		case "u32":
			info.entry.Texture.SampleType = wgpu.TextureSampleTypeUint
		default:
			info.entry.Texture.SampleType = wgpu.TextureSampleTypeFloat
		}
	}
}

// texelFormatMap maps the storage texture texel formats the backend supports.
var texelFormatMap = map[string]wgpu.TextureFormat{
	"rgba8unorm":  wgpu.TextureFormatRGBA8Unorm,
	"rgba16float": wgpu.TextureFormatRGBA16Float,
	"rgba32float": wgpu.TextureFormatRGBA32Float,
	"r32uint":     wgpu.TextureFormatR32Uint,
	"r32float":    wgpu.TextureFormatR32Float,
}

// parsedStruct is one struct declaration with its field names and types.
type parsedStruct struct {
	name   string
	fields []parsedField
}

type parsedField struct {
	name     string
	typeName string
}

var fieldDeclRegex = regexp.MustCompile(`(\w+)\s*:\s*(.+)`)

func parseStructs(cleaned string) []parsedStruct {
	matches := structBlockRegex.FindAllStringSubmatch(cleaned, -1)
	structs := make([]parsedStruct, 0, len(matches))
	for _, m := range matches {
		ps := parsedStruct{name: m[1]}
		for _, line := range splitTopLevelCommas(m[2]) {
			line = strings.TrimSpace(line)
			if line == "" || strings.Contains(line, "@builtin") {
				continue
			}
			// Strip attributes like @location(0) or @align(16).
			for strings.HasPrefix(line, "@") {
				end := strings.Index(line, ")")
				if end < 0 {
					break
				}
				line = strings.TrimSpace(line[end+1:])
			}
			if fm := fieldDeclRegex.FindStringSubmatch(line); fm != nil {
				ps.fields = append(ps.fields, parsedField{name: fm[1], typeName: strings.TrimSpace(fm[2])})
			}
		}
		structs = append(structs, ps)
	}
	return structs
}

// resolveTypeLayout resolves a WGSL type name to its size and alignment from
// primitives, known structs, and array types. Runtime-sized arrays resolve to
// one element stride, the minimum useful binding size.
func resolveTypeLayout(typeName string, known map[string]wgslTypeLayout) (wgslTypeLayout, bool) {
	if layout, ok := wgslLayoutMap[typeName]; ok {
		return layout, true
	}
	if layout, ok := known[typeName]; ok {
		return layout, true
	}
	if strings.HasPrefix(typeName, "array<") && strings.HasSuffix(typeName, ">") {
		inner := typeName[6 : len(typeName)-1]
		parts := strings.SplitN(inner, ",", 2)
		elem, ok := resolveTypeLayout(strings.TrimSpace(parts[0]), known)
		if !ok {
			return wgslTypeLayout{}, false
		}
		stride := roundUpAlign(elem.align, elem.size)
		if len(parts) == 2 {
			count, err := strconv.ParseUint(strings.TrimSpace(parts[1]), 10, 64)
			if err != nil {
				return wgslTypeLayout{}, false
			}
			return wgslTypeLayout{count * stride, elem.align}, true
		}
		return wgslTypeLayout{stride, elem.align}, true
	}
	return wgslTypeLayout{}, false
}

// computeStructSizes resolves all struct layouts, iterating until structs
// that contain other structs settle.
func computeStructSizes(structs []parsedStruct) map[string]wgslTypeLayout {
	resolved := make(map[string]wgslTypeLayout, len(structs))
	remaining := structs
	for {
		progress := false
		var next []parsedStruct
		for _, ps := range remaining {
			if layout, ok := computeStructLayout(ps, resolved); ok {
				resolved[ps.name] = layout
				progress = true
			} else {
				next = append(next, ps)
			}
		}
		remaining = next
		if !progress || len(remaining) == 0 {
			break
		}
	}
	return resolved
}

func computeStructLayout(ps parsedStruct, known map[string]wgslTypeLayout) (wgslTypeLayout, bool) {
	offset := uint64(0)
	maxAlign := uint64(1)
	for _, f := range ps.fields {
		layout, ok := resolveTypeLayout(f.typeName, known)
		if !ok {
			return wgslTypeLayout{}, false
		}
		offset = roundUpAlign(layout.align, offset) + layout.size
		if layout.align > maxAlign {
			maxAlign = layout.align
		}
	}
	return wgslTypeLayout{roundUpAlign(maxAlign, offset), maxAlign}, true
}

// pushConstantLayout computes per-field offsets of the push-constants struct
// using uniform layout rules. Fields with unknown types end the layout early.
func pushConstantLayout(typeName string, structs []parsedStruct) ([]pushConstantField, uint64) {
	var ps *parsedStruct
	for i := range structs {
		if structs[i].name == typeName {
			ps = &structs[i]
			break
		}
	}
	if ps == nil {
		return nil, 0
	}

	var fields []pushConstantField
	offset := uint64(0)
	maxAlign := uint64(1)
	for _, f := range ps.fields {
		field := pushConstantField{name: f.name, elemCount: 1}
		var align uint64

		if strings.HasPrefix(f.typeName, "array<") && strings.HasSuffix(f.typeName, ">") {
			inner := f.typeName[6 : len(f.typeName)-1]
			parts := strings.SplitN(inner, ",", 2)
			if len(parts) != 2 {
				break
			}
			elem, ok := wgslLayoutMap[strings.TrimSpace(parts[0])]
			if !ok {
				break
			}
			count, err := strconv.ParseUint(strings.TrimSpace(parts[1]), 10, 32)
			if err != nil || count == 0 {
				break
			}
			// Uniform address space rounds array element strides up to 16.
			stride := roundUpAlign(16, roundUpAlign(elem.align, elem.size))
			field.compLen = wgslComponentLenMap[strings.TrimSpace(parts[0])]
			field.elemSize = elem.size
			field.elemStride = stride
			field.elemCount = int(count)
			field.size = uint64(count) * stride
			align = 16
		} else {
			layout, ok := wgslLayoutMap[f.typeName]
			if !ok {
				break
			}
			field.compLen = wgslComponentLenMap[f.typeName]
			field.size = layout.size
			field.elemSize = layout.size
			field.elemStride = layout.size
			align = layout.align
		}

		offset = roundUpAlign(align, offset)
		field.offset = offset
		fields = append(fields, field)
		offset += field.size
		if align > maxAlign {
			maxAlign = align
		}
	}
	return fields, roundUpAlign(maxAlign, offset)
}

func roundUpAlign(alignment, value uint64) uint64 {
	if alignment == 0 {
		return value
	}
	return (value + alignment - 1) &^ (alignment - 1)
}

func splitTypeParams(typeName string) (base, params string) {
	before, after, ok := strings.Cut(typeName, "<")
	if !ok {
		return typeName, ""
	}
	return before, strings.TrimSpace(strings.TrimSuffix(after, ">"))
}

func splitTopLevelCommas(s string) []string {
	var parts []string
	depth, start := 0, 0
	for i := 0; i < len(s); i++ {
		switch s[i] {
		case '<':
			depth++
		case '>':
			if depth > 0 {
				depth--
			}
		case ',':
			if depth == 0 {
				parts = append(parts, s[start:i])
				start = i + 1
			}
		}
	}
	return append(parts, s[start:])
}

// stripComments removes line and nested block comments so they do not
// interfere with declaration parsing.
func stripComments(source string) string {
	var sb strings.Builder
	sb.Grow(len(source))
	depth := 0
	for i := 0; i < len(source); i++ {
		if i+1 < len(source) {
			if source[i] == '/' && source[i+1] == '*' {
				depth++
				i++
				continue
			}
			if source[i] == '*' && source[i+1] == '/' && depth > 0 {
				depth--
				i++
				continue
			}
			if depth == 0 && source[i] == '/' && source[i+1] == '/' {
				for i < len(source) && source[i] != '\n' {
					i++
				}
				if i < len(source) {
					sb.WriteByte('\n')
				}
				continue
			}
		}
		if depth == 0 {
			sb.WriteByte(source[i])
		}
	}
	return sb.String()
}
