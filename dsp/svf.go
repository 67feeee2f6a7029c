package dsp

import (
	"math"

	dspcore "github.com/cwbudde/algo-dsp/dsp/core"
)

// SVF is a double-sampled Chamberlin state variable filter with a cubic drive term
// in the band integrator. One Process call updates the low, high and band outputs
// from the same two integrators.
type SVF struct {
	sampleRate float64
	maxFreq    float64

	cutoff   float64
	res      float64
	preDrive float64
	drive    float64
	freq     float64
	damp     float64

	low  float64
	band float64

	outLow  float64
	outHigh float64
	outBand float64
}

// NewSVF creates a filter at 200 Hz with resonance 0.5 and drive 0.5.
func NewSVF(sampleRate float64) *SVF {
	s := &SVF{
		sampleRate: sampleRate,
		maxFreq:    sampleRate / 3,
		res:        0.5,
		preDrive:   0.05,
	}
	s.drive = s.preDrive * s.res
	s.SetFreq(200)
	return s
}

// SetFreq sets the cutoff in Hz, clamped to (0, sampleRate/3].
func (s *SVF) SetFreq(hz float64) {
	s.cutoff = dspcore.Clamp(hz, 1e-6, s.maxFreq)
	s.freq = 2 * math.Sin(math.Pi*math.Min(0.25, s.cutoff/(s.sampleRate*2)))
	s.updateDamping()
}

// SetRes sets the resonance in [0, 1].
func (s *SVF) SetRes(r float64) {
	s.res = dspcore.Clamp(r, 0, 1)
	s.updateDamping()
	s.drive = s.preDrive * s.res
}

// SetDrive sets the drive amount; the internal coefficient is 0.1*d clamped to [0,1].
func (s *SVF) SetDrive(d float64) {
	s.preDrive = dspcore.Clamp(d*0.1, 0, 1)
	s.drive = s.preDrive * s.res
}

func (s *SVF) updateDamping() {
	s.damp = math.Min(2*(1-math.Pow(s.res, 0.25)), math.Min(2, 2/s.freq-s.freq*0.5))
}

// Process runs one input sample through both passes of the filter.
// Read the results with Low, High and Band.
func (s *SVF) Process(in float64) {
	s.outLow, s.outHigh, s.outBand = 0, 0, 0
	for pass := 0; pass < 2; pass++ {
		notch := in - s.damp*s.band
		s.low += s.freq * s.band
		high := notch - s.low
		s.band = s.freq*high + s.band - s.drive*s.band*s.band*s.band

		s.outLow += 0.5 * s.low
		s.outHigh += 0.5 * high
		s.outBand += 0.5 * s.band
	}
	s.low = dspcore.FlushDenormals(s.low)
	s.band = dspcore.FlushDenormals(s.band)
}

func (s *SVF) Low() float64  { return s.outLow }
func (s *SVF) High() float64 { return s.outHigh }
func (s *SVF) Band() float64 { return s.outBand }

// Cutoff returns the clamped cutoff in Hz.
func (s *SVF) Cutoff() float64 { return s.cutoff }

// Reset clears the integrators and outputs.
func (s *SVF) Reset() {
	s.low, s.band = 0, 0
	s.outLow, s.outHigh, s.outBand = 0, 0, 0
}
