package command

import (
	"github.com/Carmen-Shannon/automation/tools/worker"
	"github.com/Carmen-Shannon/oxy-draw/gpu"
)

// RecordingState is the mutable ambient context threaded through a pass
// submission. It tracks the currently bound shader so that commands recorded
// relative to "the bound shader" (draws, dispatches, push constants) resolve
// correctly during the depth-first walk, regardless of which sub-pass bound it.
type RecordingState struct {
	// Backend receives all replayed GPU operations.
	Backend gpu.Backend

	// Shader is the shader bound by the most recently executed ShaderBind.
	Shader gpu.Shader

	// ResourceID is the resource-table index the next direct draw pulls
	// per-instance data from; updated by each Draw before it executes.
	ResourceID uint32

	// InstanceLen is the instance count substituted when a draw was recorded
	// without an explicit count. Defaults to 1 when zero.
	InstanceLen uint32

	// Workers optionally parallelizes submission prep (multi-draw group
	// population). Nil-safe: prep runs serially without it.
	Workers worker.DynamicWorkerPool
}
