package webgpu

import (
	"fmt"
	"sort"

	"github.com/Carmen-Shannon/oxy-draw/gpu"
	"github.com/cogentcore/webgpu/wgpu"
)

// wgpuShader is a compiled WGSL module together with its reflected binding
// interface. One shader may carry vertex, fragment, and compute entry points;
// pipelines are specialized from it per draw state by the backend.
type wgpuShader struct {
	name   string
	source string
	module *wgpu.ShaderModule
	refl   reflection

	storageBindings map[string]int
	uniformBindings map[string]int
	textureBindings map[string]int

	groupLayouts   []*wgpu.BindGroupLayout
	pipelineLayout *wgpu.PipelineLayout

	// pcStaging is the CPU copy of the push-constants block. Uniform updates
	// write into it at field offsets; the backend flushes it into the dynamic
	// ring buffer before the draw or dispatch that consumes it.
	pcStaging []byte
	pcDirty   bool
	pcOffset  uint64
	pcFrame   uint64
}

var _ gpu.Shader = &wgpuShader{}

// newWGPUShader compiles source into a shader module and reflects its binding
// interface. Name lookups through the gpu.Shader interface resolve against
// group 0 only; higher groups are honored in pipeline layouts but are bound
// by slot-number convention, not by name.
func newWGPUShader(device *wgpu.Device, name, source string) (*wgpuShader, error) {
	module, err := device.CreateShaderModule(&wgpu.ShaderModuleDescriptor{
		Label: name,
		WGSLDescriptor: &wgpu.ShaderModuleWGSLDescriptor{
			Code: source,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create shader module %s: %w", name, err)
	}

	sh := &wgpuShader{
		name:            name,
		source:          source,
		module:          module,
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

	if err := sh.buildLayouts(device); err != nil {
		return nil, err
	}

	if sh.refl.pcSize > 0 {
		sh.pcStaging = make([]byte, sh.refl.pcSize)
	}

	return sh, nil
}

// buildLayouts creates one bind group layout per reflected group and the
// pipeline layout spanning them. Groups with no declarations between used
// groups get an empty layout so group indices stay aligned.
func (s *wgpuShader) buildLayouts(device *wgpu.Device) error {
	grouped := make(map[int][]wgpu.BindGroupLayoutEntry)
	maxGroup := -1
	for _, info := range s.refl.bindings {
		grouped[info.group] = append(grouped[info.group], info.entry)
		if info.group > maxGroup {
			maxGroup = info.group
		}
	}
	if maxGroup < 0 {
		maxGroup = 0
	}

	s.groupLayouts = make([]*wgpu.BindGroupLayout, maxGroup+1)
	for g := 0; g <= maxGroup; g++ {
		entries := grouped[g]
		sort.Slice(entries, func(i, j int) bool { return entries[i].Binding < entries[j].Binding })
		layout, err := device.CreateBindGroupLayout(&wgpu.BindGroupLayoutDescriptor{
			Label:   fmt.Sprintf("%s group %d", s.name, g),
			Entries: entries,
		})
		if err != nil {
			return fmt.Errorf("failed to create bind group layout for group %d of %s: %w", g, s.name, err)
		}
		s.groupLayouts[g] = layout
	}

	pipelineLayout, err := device.CreatePipelineLayout(&wgpu.PipelineLayoutDescriptor{
		Label:            s.name,
		BindGroupLayouts: s.groupLayouts,
	})
	if err != nil {
		return fmt.Errorf("failed to create pipeline layout for %s: %w", s.name, err)
	}
	s.pipelineLayout = pipelineLayout
	return nil
}

func (s *wgpuShader) Name() string {
	return s.name
}

func (s *wgpuShader) UniformLocation(name string) int {
	for i, f := range s.refl.pcFields {
		if f.name == name {
			return i
		}
	}
	return -1
}

func (s *wgpuShader) StorageBufferBinding(name string) int {
	if slot, ok := s.storageBindings[name]; ok {
		return slot
	}
	return -1
}

func (s *wgpuShader) UniformBufferBinding(name string) int {
	if slot, ok := s.uniformBindings[name]; ok {
		return slot
	}
	return -1
}

func (s *wgpuShader) TextureBinding(name string) int {
	if slot, ok := s.textureBindings[name]; ok {
		return slot
	}
	return -1
}

// writeUniform copies raw bytes into the push-constants staging block at the
// field identified by location. Update data arrives tightly packed; array
// fields are scattered element by element to the field's padded GPU stride.
// Writes past the field's extent are clamped so a mismatched array length
// cannot corrupt neighboring fields.
func (s *wgpuShader) writeUniform(location int, data []byte) bool {
	if location < 0 || location >= len(s.refl.pcFields) {
		return false
	}
	f := s.refl.pcFields[location]
	if f.offset >= uint64(len(s.pcStaging)) {
		return false
	}

	if f.elemCount <= 1 || f.elemStride == f.elemSize {
		end := f.offset + uint64(len(data))
		if max := f.offset + f.size; end > max {
			end = max
		}
		copy(s.pcStaging[f.offset:end], data)
		s.pcDirty = true
		return true
	}

	for i := 0; i < f.elemCount; i++ {
		src := uint64(i) * f.elemSize
		if src >= uint64(len(data)) {
			break
		}
		srcEnd := src + f.elemSize
		if srcEnd > uint64(len(data)) {
			srcEnd = uint64(len(data))
		}
		dst := f.offset + uint64(i)*f.elemStride
		copy(s.pcStaging[dst:dst+(srcEnd-src)], data[src:srcEnd])
	}
	s.pcDirty = true
	return true
}

// hasPushConstants reports whether the shader declares a push-constants block.
func (s *wgpuShader) hasPushConstants() bool {
	return s.refl.pcBinding >= 0 && len(s.pcStaging) > 0
}
