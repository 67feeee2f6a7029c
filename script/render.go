package script

import (
	"fmt"

	"github.com/cwbudde/algo-siren/siren"
)

// Render plays s through a fresh engine built from params and returns stereo
// interleaved samples. A nil params uses siren.NewDefaultParams(s.SampleRate).
func Render(s *Script, params *siren.Params, opts ...siren.Option) ([]float32, error) {
	if s == nil {
		return nil, fmt.Errorf("nil script")
	}
	if params == nil {
		params = siren.NewDefaultParams(s.SampleRate)
	}
	if params.SampleRate != s.SampleRate {
		return nil, fmt.Errorf("params sample rate %g does not match script %g", params.SampleRate, s.SampleRate)
	}

	p := NewPlayer(s)
	all := append([]siren.Option{siren.WithSource(p)}, opts...)
	if s.HasVolume {
		all = append(all, siren.WithInitialVolume(s.Volume))
	}
	e, err := siren.NewEngine(params, all...)
	if err != nil {
		return nil, err
	}

	total := s.TotalFrames()
	samples := make([]float32, 0, 2*total)
	left := make([]float32, s.BlockSize)
	right := make([]float32, s.BlockSize)
	out := [][]float32{left, right}
	for !p.Done() {
		n := p.NextBlock()
		e.Process(nil, out, n)
		for i := 0; i < n; i++ {
			samples = append(samples, left[i], right[i])
		}
	}
	return samples, nil
}
