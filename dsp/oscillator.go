package dsp

import "math"

// Waveform selects the shape produced by an Oscillator.
type Waveform int

const (
	WaveSquare Waveform = iota
	WaveSine
)

func (w Waveform) String() string {
	switch w {
	case WaveSquare:
		return "square"
	case WaveSine:
		return "sine"
	default:
		return "unknown"
	}
}

// Oscillator is a phase-accumulator waveform generator (no heap allocations in Process).
type Oscillator struct {
	sampleRate float64
	freq       float64
	amp        float64
	phase      float64
	phaseInc   float64
	waveform   Waveform
}

// NewOscillator creates an oscillator at 100 Hz, amplitude 0.5, sine.
func NewOscillator(sampleRate float64) *Oscillator {
	o := &Oscillator{
		sampleRate: sampleRate,
		amp:        0.5,
		waveform:   WaveSine,
	}
	o.SetFreq(100)
	return o
}

// SetFreq sets the frequency in Hz. The phase increment is recomputed immediately,
// so calling SetFreq before every Process gives per-sample frequency modulation.
func (o *Oscillator) SetFreq(hz float64) {
	o.freq = hz
	o.phaseInc = hz / o.sampleRate
}

// SetAmp sets the peak amplitude.
func (o *Oscillator) SetAmp(a float64) {
	o.amp = a
}

// SetWaveform selects the output shape.
func (o *Oscillator) SetWaveform(w Waveform) {
	o.waveform = w
}

// SetPhase sets the phase (wrapped to [0,1)).
func (o *Oscillator) SetPhase(phase float64) {
	o.phase = phase - math.Floor(phase)
}

// Reset returns the phase to zero.
func (o *Oscillator) Reset() {
	o.phase = 0
}

func (o *Oscillator) Freq() float64      { return o.freq }
func (o *Oscillator) Amp() float64       { return o.amp }
func (o *Oscillator) Phase() float64     { return o.phase }
func (o *Oscillator) Waveform() Waveform { return o.waveform }

// Process returns the sample at the current phase and advances the phase.
func (o *Oscillator) Process() float64 {
	var out float64
	switch o.waveform {
	case WaveSquare:
		if o.phase < 0.5 {
			out = o.amp
		} else {
			out = -o.amp
		}
	default:
		out = o.amp * math.Sin(2*math.Pi*o.phase)
	}

	o.phase += o.phaseInc
	if o.phase >= 1 {
		o.phase -= 1
		if o.phase >= 1 {
			o.phase -= math.Floor(o.phase)
		}
	} else if o.phase < 0 {
		o.phase += 1
		if o.phase < 0 {
			o.phase -= math.Floor(o.phase)
		}
	}
	return out
}
