package siren

import (
	"fmt"
	"math"
)

// Knob slots on the panel.
const (
	KnobLFORate = iota
	KnobLFODepth
	KnobPitch
	KnobDelayTime
	KnobFeedback
	KnobCutoff
	NumKnobs
)

// Switch slots on the panel. 0-3 are footswitches, 4-6 toggles.
const (
	SwitchRegular = 0
	SwitchLFO     = 1
	SwitchLowpass = 6
	NumSwitches   = 7
)

var knobNames = [NumKnobs]string{
	KnobLFORate:   "lfo_rate",
	KnobLFODepth:  "lfo_depth",
	KnobPitch:     "pitch",
	KnobDelayTime: "delay_time",
	KnobFeedback:  "feedback",
	KnobCutoff:    "cutoff",
}

// KnobName returns the short name of a knob slot.
func KnobName(knob int) string {
	if knob < 0 || knob >= NumKnobs {
		return fmt.Sprintf("knob%d", knob)
	}
	return knobNames[knob]
}

// Params holds the construction-time configuration of the engine.
type Params struct {
	SampleRate float64

	// Knobs maps each knob slot to its musical range. The delay time range is in
	// samples and must not exceed MaxDelaySeconds*SampleRate.
	Knobs [NumKnobs]Parameter

	FilterResonance float64
	FilterDrive     float64

	MaxDelaySeconds float64
	DelaySlew       float64

	VolumeStep    float64
	InitialVolume float64
}

// NewDefaultParams returns the stock pedal configuration for sampleRate.
func NewDefaultParams(sampleRate float64) *Params {
	const maxDelaySeconds = 2.5
	return &Params{
		SampleRate: sampleRate,
		Knobs: [NumKnobs]Parameter{
			KnobLFORate:   {Min: 0.25, Max: 15, Curve: Logarithmic},
			KnobLFODepth:  {Min: 0, Max: 500, Curve: Linear},
			KnobPitch:     {Min: 50, Max: 5000, Curve: Logarithmic},
			KnobDelayTime: {Min: sampleRate * 0.05, Max: sampleRate * maxDelaySeconds, Curve: Logarithmic},
			KnobFeedback:  {Min: 0, Max: 1, Curve: Linear},
			KnobCutoff:    {Min: 20, Max: 20000, Curve: Logarithmic},
		},
		FilterResonance: 0.1,
		FilterDrive:     0.1,
		MaxDelaySeconds: maxDelaySeconds,
		DelaySlew:       0.0002,
		VolumeStep:      0.05,
		InitialVolume:   0.5,
	}
}

// DelayCapacity returns the delay buffer length in samples.
func (p *Params) DelayCapacity() int {
	return int(p.SampleRate * p.MaxDelaySeconds)
}

// Validate checks every knob range and scalar setting.
func (p *Params) Validate() error {
	if p == nil {
		return fmt.Errorf("nil params")
	}
	if p.SampleRate <= 0 || math.IsNaN(p.SampleRate) || math.IsInf(p.SampleRate, 0) {
		return fmt.Errorf("sample rate must be > 0 and finite: %f", p.SampleRate)
	}
	if p.MaxDelaySeconds <= 0 {
		return fmt.Errorf("max delay must be > 0: %f", p.MaxDelaySeconds)
	}
	for i, k := range p.Knobs {
		if err := k.Validate(); err != nil {
			return fmt.Errorf("knob %s: %w", KnobName(i), err)
		}
	}
	if d := p.Knobs[KnobDelayTime]; d.Min < 1 || d.Max > float64(p.DelayCapacity()) {
		return fmt.Errorf("knob %s: range [%g, %g] must lie in [1, %d] samples",
			KnobName(KnobDelayTime), d.Min, d.Max, p.DelayCapacity())
	}
	if fb := p.Knobs[KnobFeedback]; fb.Min < 0 || fb.Max > 1 {
		return fmt.Errorf("knob %s: range [%g, %g] must lie in [0, 1]", KnobName(KnobFeedback), fb.Min, fb.Max)
	}
	if p.FilterResonance < 0 || p.FilterResonance > 1 {
		return fmt.Errorf("filter resonance must be in [0, 1]: %f", p.FilterResonance)
	}
	if p.FilterDrive < 0 {
		return fmt.Errorf("filter drive must be >= 0: %f", p.FilterDrive)
	}
	if p.DelaySlew <= 0 || p.DelaySlew > 1 {
		return fmt.Errorf("delay slew must be in (0, 1]: %f", p.DelaySlew)
	}
	if p.VolumeStep <= 0 {
		return fmt.Errorf("volume step must be > 0: %f", p.VolumeStep)
	}
	if p.InitialVolume < 0 || p.InitialVolume > 1 {
		return fmt.Errorf("initial volume must be in [0, 1]: %f", p.InitialVolume)
	}
	return nil
}
