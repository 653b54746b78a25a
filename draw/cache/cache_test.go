package cache

import (
	"testing"

	"github.com/Carmen-Shannon/oxy-draw/gpu"
	"github.com/Carmen-Shannon/oxy-draw/gpu/gputest"
	"github.com/stretchr/testify/assert"
)

func TestInitRequiresBackend(t *testing.T) {
	assert.PanicsWithValue(t, "cache: Init requires a non-nil backend", func() {
		Init(nil)
	})
}

func TestProceduralBatchIsSharedPerPrimitive(t *testing.T) {
	backend := gputest.NewBackend()
	Init(backend)
	defer Free()

	tris := ProceduralBatch(gpu.PrimitiveTriangles)
	assert.Same(t, tris, ProceduralBatch(gpu.PrimitiveTriangles))

	lines := ProceduralBatch(gpu.PrimitiveLines)
	assert.NotSame(t, tris, lines)
	assert.Equal(t, "procedural_lines", lines.Name())
}

func TestProceduralBatchRejectsUnknownPrimitive(t *testing.T) {
	Init(gputest.NewBackend())
	defer Free()

	assert.PanicsWithValue(t, "cache: unsupported procedural primitive unknown", func() {
		ProceduralBatch(gpu.PrimitiveType(99))
	})
}

func TestInitClearsCacheForNewBackend(t *testing.T) {
	Init(gputest.NewBackend())
	first := ProceduralBatch(gpu.PrimitivePoints)

	Init(gputest.NewBackend())
	defer Free()
	second := ProceduralBatch(gpu.PrimitivePoints)
	assert.NotSame(t, first, second)
}
