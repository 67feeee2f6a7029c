package siren

import "github.com/cwbudde/algo-siren/dsp"

// Filter is the capability the delay line runs its read tap through.
type Filter interface {
	Process(x float64) float64
}

// PassThrough is a Filter that returns its input unchanged.
type PassThrough struct{}

func (PassThrough) Process(x float64) float64 { return x }

// FilterMode selects the SVF output tap.
type FilterMode int

const (
	Highpass FilterMode = iota
	Lowpass
)

func (m FilterMode) String() string {
	if m == Lowpass {
		return "lowpass"
	}
	return "highpass"
}

// ModeFilter wraps an SVF with fixed resonance and drive and a switchable tap.
// Switching the tap leaves the integrators alone, so the only discontinuity is the
// difference between the two outputs at that sample.
type ModeFilter struct {
	svf  *dsp.SVF
	mode FilterMode
}

// NewModeFilter creates a highpass-tapped filter.
func NewModeFilter(sampleRate, resonance, drive float64) *ModeFilter {
	svf := dsp.NewSVF(sampleRate)
	svf.SetRes(resonance)
	svf.SetDrive(drive)
	return &ModeFilter{svf: svf, mode: Highpass}
}

func (f *ModeFilter) SetFreq(hz float64)      { f.svf.SetFreq(hz) }
func (f *ModeFilter) SetMode(mode FilterMode) { f.mode = mode }
func (f *ModeFilter) Mode() FilterMode        { return f.mode }
func (f *ModeFilter) Cutoff() float64         { return f.svf.Cutoff() }
func (f *ModeFilter) Reset()                  { f.svf.Reset() }

// Process filters one sample and returns the selected tap.
func (f *ModeFilter) Process(x float64) float64 {
	f.svf.Process(x)
	if f.mode == Lowpass {
		return f.svf.Low()
	}
	return f.svf.High()
}
