package siren

import (
	dspcore "github.com/cwbudde/algo-dsp/dsp/core"

	"github.com/cwbudde/algo-siren/dsp"
)

// ControlInput is one block's worth of settled panel state.
type ControlInput struct {
	Switches [NumSwitches]bool
	// Knobs are normalized readings in [0, 1).
	Knobs            [NumKnobs]float64
	EncoderIncrement int
}

// ControlSource supplies the panel state at the start of every block.
type ControlSource interface {
	ReadControls() ControlInput
}

// StaticControls is a ControlSource that always returns the same input.
type StaticControls ControlInput

func (s *StaticControls) ReadControls() ControlInput { return ControlInput(*s) }

// Snapshot is the control state every sample of one block sees.
type Snapshot struct {
	RegularOn bool
	LFOOn     bool
	Lowpass   bool
	Volume    float64
	BaseFreq  float64
}

// Sounding reports whether the oscillator is gated open.
func (s Snapshot) Sounding() bool { return s.RegularOn || s.LFOOn }

// EventKind identifies a control-rate event.
type EventKind int

const (
	// EventEncoderAck fires when the encoder moves exactly one step up.
	EventEncoderAck EventKind = iota + 1
)

// Event is emitted by the ControlUpdater for the display side.
type Event struct {
	Kind       EventKind
	Footswitch int
}

// Listener receives control events. OnEvent is called from the audio goroutine and
// must not block.
type Listener interface {
	OnEvent(Event)
}

// ControlUpdater turns a ControlInput into parameter updates and a Snapshot.
type ControlUpdater struct {
	knobs      [NumKnobs]Parameter
	volumeStep float64

	lfo    *dsp.Oscillator
	filter *ModeFilter
	delay  *DelayLine

	listener Listener
	volume   float64
	snap     Snapshot
}

func newControlUpdater(p *Params, lfo *dsp.Oscillator, filter *ModeFilter, delay *DelayLine) *ControlUpdater {
	return &ControlUpdater{
		knobs:      p.Knobs,
		volumeStep: p.VolumeStep,
		lfo:        lfo,
		filter:     filter,
		delay:      delay,
		volume:     p.InitialVolume,
		snap:       Snapshot{Volume: p.InitialVolume},
	}
}

// Update applies one block of input. Steps run in a fixed order: switches, knobs,
// then the encoder.
func (c *ControlUpdater) Update(in ControlInput) Snapshot {
	c.snap.RegularOn = in.Switches[SwitchRegular]
	c.snap.LFOOn = in.Switches[SwitchLFO]
	c.snap.Lowpass = in.Switches[SwitchLowpass]

	c.lfo.SetFreq(c.knobs[KnobLFORate].Process(in.Knobs[KnobLFORate]))
	c.lfo.SetAmp(c.knobs[KnobLFODepth].Process(in.Knobs[KnobLFODepth]))
	c.snap.BaseFreq = c.knobs[KnobPitch].Process(in.Knobs[KnobPitch])
	c.delay.Update(
		c.knobs[KnobDelayTime].Process(in.Knobs[KnobDelayTime]),
		c.knobs[KnobFeedback].Process(in.Knobs[KnobFeedback]),
	)
	if c.filter != nil {
		c.filter.SetFreq(c.knobs[KnobCutoff].Process(in.Knobs[KnobCutoff]))
		if c.snap.Lowpass {
			c.filter.SetMode(Lowpass)
		} else {
			c.filter.SetMode(Highpass)
		}
	}

	if in.EncoderIncrement == 1 && c.listener != nil {
		c.listener.OnEvent(Event{Kind: EventEncoderAck, Footswitch: 0})
	}
	c.volume = dspcore.Clamp(c.volume+c.volumeStep*float64(in.EncoderIncrement), 0, 1)
	c.snap.Volume = c.volume

	return c.snap
}

// SetListener registers the event receiver; nil disables events.
func (c *ControlUpdater) SetListener(l Listener) { c.listener = l }

func (c *ControlUpdater) setVolume(v float64) {
	c.volume = dspcore.Clamp(v, 0, 1)
	c.snap.Volume = c.volume
}

// Volume returns the current output volume in [0, 1].
func (c *ControlUpdater) Volume() float64 { return c.volume }

// Snapshot returns the state produced by the last Update.
func (c *ControlUpdater) Snapshot() Snapshot { return c.snap }
