package analysis

import (
	"fmt"
	"math"
	"math/cmplx"

	algofft "github.com/cwbudde/algo-fft"
)

// Spectrum holds the Hann-windowed magnitude spectrum of one frame.
type Spectrum struct {
	SampleRate int
	Size       int
	Mag        []float64
}

// BinHz returns the width of one bin in Hz.
func (s Spectrum) BinHz() float64 {
	return float64(s.SampleRate) / float64(s.Size)
}

// Analyzer computes magnitude spectra of a fixed power-of-two size and reuses its
// buffers between calls.
type Analyzer struct {
	size       int
	sampleRate int
	plan       *algofft.Plan[complex128]
	window     []float64
	frame      []complex128
	spec       []complex128
}

// NewAnalyzer prepares an FFT plan of the given size.
func NewAnalyzer(size int, sampleRate int) (*Analyzer, error) {
	if size < 16 || size&(size-1) != 0 {
		return nil, fmt.Errorf("analyzer size must be a power of two >= 16: %d", size)
	}
	if sampleRate <= 0 {
		return nil, fmt.Errorf("analyzer sample rate must be > 0: %d", sampleRate)
	}
	plan, err := algofft.NewPlan64(size)
	if err != nil {
		return nil, fmt.Errorf("fft plan: %w", err)
	}
	window := make([]float64, size)
	for i := range window {
		window[i] = 0.5 - 0.5*math.Cos(2*math.Pi*float64(i)/float64(size-1))
	}
	return &Analyzer{
		size:       size,
		sampleRate: sampleRate,
		plan:       plan,
		window:     window,
		frame:      make([]complex128, size),
		spec:       make([]complex128, size),
	}, nil
}

// Size returns the FFT length.
func (a *Analyzer) Size() int { return a.size }

// Magnitudes writes |X[k]| for k in [0, size/2] of x[:size] into dst and returns it.
// Missing input samples are treated as zero.
func (a *Analyzer) Magnitudes(dst []float64, x []float64) []float64 {
	for i := range a.frame {
		v := 0.0
		if i < len(x) {
			v = x[i]
		}
		a.frame[i] = complex(v*a.window[i], 0)
	}
	bins := a.size/2 + 1
	if cap(dst) < bins {
		dst = make([]float64, bins)
	}
	dst = dst[:bins]
	if err := a.plan.Forward(a.spec, a.frame); err != nil {
		for k := range dst {
			dst[k] = 0
		}
		return dst
	}
	for k := range dst {
		dst[k] = cmplx.Abs(a.spec[k])
	}
	return dst
}

// Spectrum returns the magnitude spectrum of the first Size samples of x.
func (a *Analyzer) Spectrum(x []float64) Spectrum {
	return Spectrum{
		SampleRate: a.sampleRate,
		Size:       a.size,
		Mag:        a.Magnitudes(nil, x),
	}
}

// PeakFrequency returns the frequency of the strongest bin above minHz, refined by
// parabolic interpolation over the neighbouring bins.
func (s Spectrum) PeakFrequency(minHz float64) float64 {
	start := int(math.Ceil(minHz / s.BinHz()))
	if start < 1 {
		start = 1
	}
	best := -1
	bestMag := 0.0
	for k := start; k < len(s.Mag)-1; k++ {
		if s.Mag[k] > bestMag {
			bestMag = s.Mag[k]
			best = k
		}
	}
	if best < 1 {
		return 0
	}
	l, c, r := s.Mag[best-1], s.Mag[best], s.Mag[best+1]
	offset := 0.0
	if den := l - 2*c + r; den != 0 {
		offset = 0.5 * (l - r) / den
	}
	return (float64(best) + offset) * s.BinHz()
}

// DominantFrequency estimates the strongest frequency component of x using the
// largest power-of-two frame that fits.
func DominantFrequency(x []float64, sampleRate int) (float64, error) {
	size := 1
	for size*2 <= len(x) {
		size *= 2
	}
	if size < 16 {
		return 0, fmt.Errorf("need at least 16 samples, got %d", len(x))
	}
	if size > 1<<16 {
		size = 1 << 16
	}
	a, err := NewAnalyzer(size, sampleRate)
	if err != nil {
		return 0, err
	}
	return a.Spectrum(x).PeakFrequency(20), nil
}
