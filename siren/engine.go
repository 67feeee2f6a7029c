package siren

import (
	"fmt"

	dspcore "github.com/cwbudde/algo-dsp/dsp/core"

	"github.com/cwbudde/algo-siren/dsp"
)

// minOscFreq keeps the frequency-modulated oscillator strictly positive.
const minOscFreq = 0.01

// Option configures an Engine at construction.
type Option func(*engineConfig)

type engineConfig struct {
	filter        Filter
	source        ControlSource
	initialVolume float64
	hasVolume     bool
}

// WithFilter replaces the feedback-path filter. The knob and switch settings for
// cutoff and mode are then ignored.
func WithFilter(f Filter) Option {
	return func(cfg *engineConfig) {
		cfg.filter = f
	}
}

// WithSource sets where Process reads the panel state from.
func WithSource(src ControlSource) Option {
	return func(cfg *engineConfig) {
		cfg.source = src
	}
}

// WithInitialVolume overrides Params.InitialVolume. The value is clamped to [0, 1].
func WithInitialVolume(v float64) Option {
	return func(cfg *engineConfig) {
		cfg.initialVolume = v
		cfg.hasVolume = true
	}
}

// Engine is the siren voice: LFO -> oscillator -> filtered feedback delay -> volume.
// It is not safe for concurrent use; Process is meant to be called from a single
// audio goroutine.
type Engine struct {
	sampleRate float64
	maxOscFreq float64

	osc    *dsp.Oscillator
	lfo    *dsp.Oscillator
	filter *ModeFilter
	delay  *DelayLine

	controls *ControlUpdater
	source   ControlSource
}

// NewEngine builds an engine from params. A nil params uses NewDefaultParams(48000).
func NewEngine(params *Params, opts ...Option) (*Engine, error) {
	if params == nil {
		params = NewDefaultParams(48000)
	}
	if err := params.Validate(); err != nil {
		return nil, fmt.Errorf("siren params: %w", err)
	}
	cfg := engineConfig{}
	for _, opt := range opts {
		if opt != nil {
			opt(&cfg)
		}
	}

	e := &Engine{
		sampleRate: params.SampleRate,
		maxOscFreq: params.SampleRate * 0.5 * 0.999,
		osc:        dsp.NewOscillator(params.SampleRate),
		lfo:        dsp.NewOscillator(params.SampleRate),
		source:     cfg.source,
	}
	e.osc.SetWaveform(dsp.WaveSquare)
	e.osc.SetAmp(1)
	e.lfo.SetWaveform(dsp.WaveSine)

	var fb Filter
	if cfg.filter != nil {
		fb = cfg.filter
	} else {
		e.filter = NewModeFilter(params.SampleRate, params.FilterResonance, params.FilterDrive)
		fb = e.filter
	}

	delay, err := NewDelayLine(params.DelayCapacity(), params.DelaySlew, fb)
	if err != nil {
		return nil, fmt.Errorf("siren delay: %w", err)
	}
	delay.Snap(params.Knobs[KnobDelayTime].Min)
	e.delay = delay

	e.controls = newControlUpdater(params, e.lfo, e.filter, e.delay)
	if cfg.hasVolume {
		e.controls.setVolume(cfg.initialVolume)
	}
	return e, nil
}

// Process renders size samples into every channel of out. The input block is
// accepted for the audio callback contract and ignored: the siren is a generator.
func (e *Engine) Process(in, out [][]float32, size int) {
	var ctrl ControlInput
	if e.source != nil {
		ctrl = e.source.ReadControls()
	} else {
		ctrl = e.controlsWithoutSource()
	}
	e.ProcessBlock(ctrl, out, size)
}

// ProcessBlock runs the control update once for ctrl and then renders size samples.
func (e *Engine) ProcessBlock(ctrl ControlInput, out [][]float32, size int) {
	snap := e.controls.Update(ctrl)
	if len(out) == 0 {
		for i := 0; i < size; i++ {
			e.tick(snap)
		}
		return
	}
	for i := 0; i < size; i++ {
		s := float32(e.tick(snap))
		for ch := range out {
			out[ch][i] = s
		}
	}
}

// RenderInterleaved fills dst with stereo interleaved frames for one block of
// len(dst)/2 samples, reading controls from the configured source.
func (e *Engine) RenderInterleaved(dst []float32) {
	var ctrl ControlInput
	if e.source != nil {
		ctrl = e.source.ReadControls()
	} else {
		ctrl = e.controlsWithoutSource()
	}
	snap := e.controls.Update(ctrl)
	frames := len(dst) / 2
	for i := 0; i < frames; i++ {
		s := float32(e.tick(snap))
		dst[2*i] = s
		dst[2*i+1] = s
	}
}

func (e *Engine) tick(snap Snapshot) float64 {
	lfo := e.lfo.Process()
	if !snap.LFOOn {
		lfo = 0
	}

	e.osc.SetFreq(dspcore.Clamp(snap.BaseFreq+lfo, minOscFreq, e.maxOscFreq))
	osc := e.osc.Process()
	if !snap.Sounding() {
		osc = 0
	}

	return e.delay.Process(osc) * snap.Volume
}

// controlsWithoutSource keeps the previous switch state and leaves knobs at zero.
func (e *Engine) controlsWithoutSource() ControlInput {
	snap := e.controls.Snapshot()
	var in ControlInput
	in.Switches[SwitchRegular] = snap.RegularOn
	in.Switches[SwitchLFO] = snap.LFOOn
	in.Switches[SwitchLowpass] = snap.Lowpass
	return in
}

// SetListener forwards control events (encoder acknowledgment) to l.
func (e *Engine) SetListener(l Listener) { e.controls.SetListener(l) }

// SetSource replaces the control source. Not safe to call while Process runs.
func (e *Engine) SetSource(src ControlSource) { e.source = src }

func (e *Engine) SampleRate() float64 { return e.sampleRate }
func (e *Engine) Volume() float64     { return e.controls.Volume() }
func (e *Engine) Snapshot() Snapshot  { return e.controls.Snapshot() }
func (e *Engine) Delay() *DelayLine   { return e.delay }

// Oscillator exposes the audible oscillator for inspection.
func (e *Engine) Oscillator() *dsp.Oscillator { return e.osc }

// LFO exposes the modulation oscillator for inspection.
func (e *Engine) LFO() *dsp.Oscillator { return e.lfo }

// Filter returns the built-in mode filter, or nil when WithFilter replaced it.
func (e *Engine) Filter() *ModeFilter { return e.filter }
