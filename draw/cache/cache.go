// Package cache holds the process-wide procedural batch cache. Procedural
// draws source no vertex data, so every pass in the process can share one
// batch per primitive kind; the cache creates them lazily against the backend
// registered at startup.
package cache

import (
	"fmt"
	"sync"

	"github.com/Carmen-Shannon/oxy-draw/gpu"
)

var (
	mu      sync.Mutex
	backend gpu.Backend
	batches map[gpu.PrimitiveType]gpu.Batch
)

// Init registers the backend procedural batches are created against and
// clears any batches cached for a previous backend. The draw manager calls
// this during construction; call it directly only when recording passes
// without a manager.
//
// Parameters:
//   - b: the backend; must not be nil
func Init(b gpu.Backend) {
	if b == nil {
		panic("cache: Init requires a non-nil backend")
	}
	mu.Lock()
	defer mu.Unlock()
	backend = b
	batches = make(map[gpu.PrimitiveType]gpu.Batch)
}

// ProceduralBatch returns the shared batch for the given primitive kind,
// creating it on first use. The supported kinds are points, lines, triangles,
// and triangle strips; requesting anything else is a programmer error.
//
// Parameters:
//   - prim: the primitive kind
//
// Returns:
//   - gpu.Batch: the shared procedural batch
func ProceduralBatch(prim gpu.PrimitiveType) gpu.Batch {
	switch prim {
	case gpu.PrimitivePoints, gpu.PrimitiveLines, gpu.PrimitiveTriangles, gpu.PrimitiveTriangleStrip:
	default:
		panic(fmt.Sprintf("cache: unsupported procedural primitive %s", prim))
	}
	mu.Lock()
	defer mu.Unlock()
	if backend == nil {
		panic("cache: procedural batch requested before Init")
	}
	batch, ok := batches[prim]
	if !ok {
		batch = backend.ProceduralBatch(prim)
		batches[prim] = batch
	}
	return batch
}

// Free drops all cached batches. Recorded passes referencing them must be
// re-initialized before their next submission.
func Free() {
	mu.Lock()
	defer mu.Unlock()
	batches = make(map[gpu.PrimitiveType]gpu.Batch)
}
