package command

// List is the per-type command storage a pass records into. Headers index
// into the slice matching their type, so the storage is append-only within a
// recording cycle; Reset reuses the backing arrays across cycles.
type List struct {
	ShaderBinds       []ShaderBind
	ResourceBinds     []ResourceBind
	PushConstants     []PushConstant
	Draws             []Draw
	DrawMultis        []DrawMulti
	DrawIndirects     []DrawIndirect
	Dispatches        []Dispatch
	DispatchIndirects []DispatchIndirect
	Barriers          []Barrier
	Clears            []Clear
	StateSets         []StateSet
	StencilSets       []StencilSet
}

// Reset empties all per-type storage while keeping capacity for the next
// recording cycle.
func (l *List) Reset() {
	l.ShaderBinds = l.ShaderBinds[:0]
	l.ResourceBinds = l.ResourceBinds[:0]
	l.PushConstants = l.PushConstants[:0]
	l.Draws = l.Draws[:0]
	l.DrawMultis = l.DrawMultis[:0]
	l.DrawIndirects = l.DrawIndirects[:0]
	l.Dispatches = l.Dispatches[:0]
	l.DispatchIndirects = l.DispatchIndirects[:0]
	l.Barriers = l.Barriers[:0]
	l.Clears = l.Clears[:0]
	l.StateSets = l.StateSets[:0]
	l.StencilSets = l.StencilSets[:0]
}

// AppendShaderBind stores c and returns its index for the header stream.
func (l *List) AppendShaderBind(c ShaderBind) uint32 {
	l.ShaderBinds = append(l.ShaderBinds, c)
	return uint32(len(l.ShaderBinds) - 1)
}

// AppendResourceBind stores c and returns its index for the header stream.
func (l *List) AppendResourceBind(c ResourceBind) uint32 {
	l.ResourceBinds = append(l.ResourceBinds, c)
	return uint32(len(l.ResourceBinds) - 1)
}

// AppendPushConstant stores c and returns its index for the header stream.
func (l *List) AppendPushConstant(c PushConstant) uint32 {
	l.PushConstants = append(l.PushConstants, c)
	return uint32(len(l.PushConstants) - 1)
}

// AppendDraw stores c and returns its index for the header stream.
func (l *List) AppendDraw(c Draw) uint32 {
	l.Draws = append(l.Draws, c)
	return uint32(len(l.Draws) - 1)
}

// AppendDrawMulti stores c and returns its index for the header stream.
func (l *List) AppendDrawMulti(c DrawMulti) uint32 {
	l.DrawMultis = append(l.DrawMultis, c)
	return uint32(len(l.DrawMultis) - 1)
}

// AppendDrawIndirect stores c and returns its index for the header stream.
func (l *List) AppendDrawIndirect(c DrawIndirect) uint32 {
	l.DrawIndirects = append(l.DrawIndirects, c)
	return uint32(len(l.DrawIndirects) - 1)
}

// AppendDispatch stores c and returns its index for the header stream.
func (l *List) AppendDispatch(c Dispatch) uint32 {
	l.Dispatches = append(l.Dispatches, c)
	return uint32(len(l.Dispatches) - 1)
}

// AppendDispatchIndirect stores c and returns its index for the header stream.
func (l *List) AppendDispatchIndirect(c DispatchIndirect) uint32 {
	l.DispatchIndirects = append(l.DispatchIndirects, c)
	return uint32(len(l.DispatchIndirects) - 1)
}

// AppendBarrier stores c and returns its index for the header stream.
func (l *List) AppendBarrier(c Barrier) uint32 {
	l.Barriers = append(l.Barriers, c)
	return uint32(len(l.Barriers) - 1)
}

// AppendClear stores c and returns its index for the header stream.
func (l *List) AppendClear(c Clear) uint32 {
	l.Clears = append(l.Clears, c)
	return uint32(len(l.Clears) - 1)
}

// AppendStateSet stores c and returns its index for the header stream.
func (l *List) AppendStateSet(c StateSet) uint32 {
	l.StateSets = append(l.StateSets, c)
	return uint32(len(l.StateSets) - 1)
}

// AppendStencilSet stores c and returns its index for the header stream.
func (l *List) AppendStencilSet(c StencilSet) uint32 {
	l.StencilSets = append(l.StencilSets, c)
	return uint32(len(l.StencilSets) - 1)
}
