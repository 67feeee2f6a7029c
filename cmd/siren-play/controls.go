package main

import (
	"sync"
	"sync/atomic"

	dspcore "github.com/cwbudde/algo-dsp/dsp/core"

	"github.com/cwbudde/algo-siren/siren"
)

// liveControls is the emulated pedal surface. The keyboard goroutine edits it and
// publishes whole ControlInput values; the audio goroutine reads one per block.
type liveControls struct {
	mu    sync.Mutex
	state siren.ControlInput

	published atomic.Pointer[siren.ControlInput]
	encoder   atomic.Int32
}

func newLiveControls(initial siren.ControlInput) *liveControls {
	c := &liveControls{state: initial}
	c.state.EncoderIncrement = 0
	c.publish()
	return c
}

// ReadControls implements siren.ControlSource. It does not allocate.
func (c *liveControls) ReadControls() siren.ControlInput {
	in := *c.published.Load()
	in.EncoderIncrement = int(c.encoder.Swap(0))
	return in
}

func (c *liveControls) ToggleSwitch(idx int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.state.Switches[idx] = !c.state.Switches[idx]
	c.publish()
}

func (c *liveControls) NudgeKnob(idx int, delta float64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.state.Knobs[idx] = dspcore.Clamp(c.state.Knobs[idx]+delta, 0, 1)
	c.publish()
}

func (c *liveControls) TurnEncoder(steps int) {
	c.encoder.Add(int32(steps))
}

// Knobs returns a copy of the current knob positions.
func (c *liveControls) Knobs() [siren.NumKnobs]float64 {
	return c.published.Load().Knobs
}

// publish must be called with mu held.
func (c *liveControls) publish() {
	in := c.state
	c.published.Store(&in)
}
