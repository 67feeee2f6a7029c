package siren

import (
	"fmt"

	dspcore "github.com/cwbudde/algo-dsp/dsp/core"
	dspdelay "github.com/cwbudde/algo-dsp/dsp/delay"

	"github.com/cwbudde/algo-siren/dsp"
)

// hermiteGuard is the extra room ReadFractional needs past the longest delay.
const hermiteGuard = 3

// DelayLine is a feedback delay whose read tap runs through a Filter before it is
// both re-injected and mixed to the output. The feedback gain doubles as the wet
// level: out = fb*wet + (1-fb)*dry.
type DelayLine struct {
	line     *dspdelay.Line
	filter   Filter
	capacity int

	current  float64
	target   float64
	feedback float64
	slew     float64

	lastTap float64
}

// NewDelayLine allocates a delay of capacity samples. The buffer is never resized.
func NewDelayLine(capacity int, slew float64, filter Filter) (*DelayLine, error) {
	if capacity < 1 {
		return nil, fmt.Errorf("delay capacity must be >= 1: %d", capacity)
	}
	if slew <= 0 || slew > 1 {
		return nil, fmt.Errorf("delay slew must be in (0, 1]: %f", slew)
	}
	if filter == nil {
		filter = PassThrough{}
	}
	line, err := dspdelay.New(capacity + hermiteGuard)
	if err != nil {
		return nil, err
	}
	return &DelayLine{
		line:     line,
		filter:   filter,
		capacity: capacity,
		current:  1,
		target:   1,
		slew:     slew,
	}, nil
}

// Update sets the target length (clamped to [1, capacity]) and feedback (clamped to [0, 1]).
func (d *DelayLine) Update(targetSamples, feedback float64) {
	d.target = dspcore.Clamp(targetSamples, 1, float64(d.capacity))
	d.feedback = dspcore.Clamp(feedback, 0, 1)
}

// Snap sets both current and target length, skipping the slew.
func (d *DelayLine) Snap(samples float64) {
	d.target = dspcore.Clamp(samples, 1, float64(d.capacity))
	d.current = d.target
}

// Process runs one sample through the delay.
func (d *DelayLine) Process(in float64) float64 {
	d.current = dsp.OnePole(d.current, d.target, d.slew)

	tap := d.filter.Process(d.line.ReadFractional(d.current))
	d.lastTap = tap

	wet := d.feedback * tap
	d.line.Write(wet + in)
	return wet + (1-d.feedback)*in
}

// Reset clears the buffer and jumps the current length to the target.
func (d *DelayLine) Reset() {
	d.line.Reset()
	d.current = d.target
	d.lastTap = 0
}

func (d *DelayLine) Current() float64  { return d.current }
func (d *DelayLine) Target() float64   { return d.target }
func (d *DelayLine) Feedback() float64 { return d.feedback }
func (d *DelayLine) Capacity() int     { return d.capacity }

// LastTap returns the filtered delayed sample read by the most recent Process call.
func (d *DelayLine) LastTap() float64 { return d.lastTap }
