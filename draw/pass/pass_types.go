package pass

import (
	"github.com/Carmen-Shannon/oxy-draw/draw/command"
)

// PassSimple is a root pass that keeps one command per recorded draw. Use it
// when draw order must be preserved exactly as recorded, or when draws rarely
// share batches. Sub-passes created from it record into the same storage
// strategy.
type PassSimple struct {
	Pass
	buf        CommandBuf
	subStorage []*Pass
}

// NewPassSimple creates an empty simple pass.
//
// Parameters:
//   - name: the pass name, used for debug markers and serialization
//
// Returns:
//   - *PassSimple: the pass, ready for recording
func NewPassSimple(name string) *PassSimple {
	p := &PassSimple{}
	p.Pass = Pass{
		name:    name,
		drawBuf: &p.buf,
		subs:    &p.subStorage,
	}
	return p
}

// Init resets the pass to empty, discarding all recorded commands and
// sub-passes while keeping allocated storage for the next recording cycle.
// A freshly initialized pass submits as a no-op.
func (p *PassSimple) Init() {
	p.headers = p.headers[:0]
	p.commands.Reset()
	p.subStorage = p.subStorage[:0]
	p.shader = nil
	p.buf.clear()
}

// Submit prepares the draw buffer and replays the full pass tree.
//
// Parameters:
//   - state: the ambient replay state
func (p *PassSimple) Submit(state *command.RecordingState) {
	p.buf.bind(state)
	p.Pass.Submit(state)
}

// Serialize returns a human-readable dump of the full pass tree.
//
// Returns:
//   - string: the serialized pass, newline-terminated
func (p *PassSimple) Serialize() string {
	return p.Pass.Serialize("")
}

// DrawCount returns the number of draws recorded since the last Init.
//
// Returns:
//   - int: the recorded draw count
func (p *PassSimple) DrawCount() int {
	return p.buf.DrawCount()
}

// PassMain is a root pass that coalesces consecutive draws of the same batch
// into multi-draw-indirect groups. Use it for high draw-count passes where
// neighboring draws tend to share geometry; interleaving other commands
// between draws splits groups and costs the coalescing benefit.
type PassMain struct {
	Pass
	buf        DrawMultiBuf
	subStorage []*Pass
}

// NewPassMain creates an empty coalescing pass.
//
// Parameters:
//   - name: the pass name, used for debug markers and serialization
//
// Returns:
//   - *PassMain: the pass, ready for recording
func NewPassMain(name string) *PassMain {
	p := &PassMain{}
	p.Pass = Pass{
		name:    name,
		drawBuf: &p.buf,
		subs:    &p.subStorage,
	}
	return p
}

// Init resets the pass to empty, discarding all recorded commands, groups,
// and sub-passes while keeping allocated storage (including GPU-side indirect
// buffers) for the next recording cycle. A freshly initialized pass submits
// as a no-op.
func (p *PassMain) Init() {
	p.headers = p.headers[:0]
	p.commands.Reset()
	p.subStorage = p.subStorage[:0]
	p.shader = nil
	p.buf.clear()
}

// Submit populates and uploads the multi-draw buffers, then replays the full
// pass tree.
//
// Parameters:
//   - state: the ambient replay state
func (p *PassMain) Submit(state *command.RecordingState) {
	p.buf.bind(state)
	p.Pass.Submit(state)
}

// Serialize returns a human-readable dump of the full pass tree.
//
// Returns:
//   - string: the serialized pass, newline-terminated
func (p *PassMain) Serialize() string {
	return p.Pass.Serialize("")
}

// DrawCount returns the number of draws recorded since the last Init, before
// coalescing.
//
// Returns:
//   - int: the recorded draw count
func (p *PassMain) DrawCount() int {
	return p.buf.DrawCount()
}

// GroupCount returns the number of multi-draw groups the recorded draws
// coalesced into.
//
// Returns:
//   - int: the group count
func (p *PassMain) GroupCount() int {
	return p.buf.GroupCount()
}
