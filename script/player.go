package script

import "github.com/cwbudde/algo-siren/siren"

// Player replays a Script as a siren.ControlSource. Each ReadControls call covers one
// block: events falling inside the block take effect at its start, and encoder steps
// inside the block are summed into one increment.
type Player struct {
	script *Script
	state  siren.ControlInput
	next   int
	pos    int
	total  int
}

// NewPlayer returns a player positioned at frame 0.
func NewPlayer(s *Script) *Player {
	p := &Player{script: s}
	p.Rewind()
	return p
}

// Rewind restarts playback from the initial panel state.
func (p *Player) Rewind() {
	p.state = p.script.Initial
	p.state.EncoderIncrement = 0
	p.next = 0
	p.pos = 0
	p.total = p.script.TotalFrames()
}

// ReadControls implements siren.ControlSource.
func (p *Player) ReadControls() siren.ControlInput {
	end := p.pos + p.script.BlockSize
	p.state.EncoderIncrement = 0
	for p.next < len(p.script.Events) && p.script.Events[p.next].Frame < end {
		ev := p.script.Events[p.next]
		switch ev.Type {
		case SwitchEvent:
			p.state.Switches[ev.Index] = ev.On
		case KnobEvent:
			p.state.Knobs[ev.Index] = ev.Value
		case EncoderEvent:
			p.state.EncoderIncrement += ev.Steps
		}
		p.next++
	}
	p.pos = end
	return p.state
}

// Position returns the first frame of the next block.
func (p *Player) Position() int { return p.pos }

// Done reports whether the script duration has been covered.
func (p *Player) Done() bool { return p.pos >= p.total }

// NextBlock returns the size of the next block, shortened to the script end.
func (p *Player) NextBlock() int {
	n := p.script.BlockSize
	if rem := p.total - p.pos; rem < n {
		n = rem
	}
	if n < 0 {
		return 0
	}
	return n
}
