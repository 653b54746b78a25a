package pass

import (
	"github.com/Carmen-Shannon/oxy-draw/draw/command"
	"github.com/Carmen-Shannon/oxy-draw/gpu"
)

// CommandBuf is the PassSimple draw strategy: every recorded draw becomes one
// command in the owning pass's stream, replayed as one direct draw call.
// Count sentinels stay in the recording and resolve at replay time, so a
// batch whose vertex data is uploaded between record and submit still draws
// its final vertex count.
type CommandBuf struct {
	drawCount int
}

var _ drawBuffer = &CommandBuf{}

func (b *CommandBuf) clear() {
	b.drawCount = 0
}

func (b *CommandBuf) draw(p *Pass, batch gpu.Batch, instanceLen, vertexLen, vertexFirst uint32, handle command.ResourceHandle) {
	b.drawCount++
	p.header(command.TypeDraw, p.commands.AppendDraw(command.Draw{
		Batch:       batch,
		InstanceLen: instanceLen,
		VertexLen:   vertexLen,
		VertexFirst: vertexFirst,
		Handle:      handle,
	}))
}

func (b *CommandBuf) bind(state *command.RecordingState) {
	// Direct draws carry everything they need; nothing to prepare.
}

// DrawCount returns the number of draws recorded since the last reset.
//
// Returns:
//   - int: the recorded draw count
func (b *CommandBuf) DrawCount() int {
	return b.drawCount
}
