package siren

import (
	"math"
	"testing"

	"github.com/cwbudde/algo-siren/analysis"
	"github.com/cwbudde/algo-siren/dsp"
)

func fixedParams(sampleRate, pitch, delaySamples, feedback float64) *Params {
	p := NewDefaultParams(sampleRate)
	p.Knobs[KnobPitch] = Parameter{Min: pitch, Max: pitch, Curve: Linear}
	p.Knobs[KnobDelayTime] = Parameter{Min: delaySamples, Max: delaySamples, Curve: Linear}
	p.Knobs[KnobFeedback] = Parameter{Min: feedback, Max: feedback, Curve: Linear}
	return p
}

func TestNewEngineDefaults(t *testing.T) {
	e, err := NewEngine(nil)
	if err != nil {
		t.Fatalf("NewEngine: %v", err)
	}
	if e.SampleRate() != 48000 {
		t.Fatalf("sample rate %v", e.SampleRate())
	}
	if e.Volume() != 0.5 {
		t.Fatalf("volume %v", e.Volume())
	}
	if e.Filter() == nil {
		t.Fatal("expected built-in filter")
	}
	if e.Delay().Capacity() != 120000 {
		t.Fatalf("delay capacity %d", e.Delay().Capacity())
	}
}

func TestWithInitialVolume(t *testing.T) {
	e, err := NewEngine(nil, WithInitialVolume(0.8))
	if err != nil {
		t.Fatalf("NewEngine: %v", err)
	}
	if e.Volume() != 0.8 || e.Snapshot().Volume != 0.8 {
		t.Fatalf("volume %v", e.Volume())
	}
	e, err = NewEngine(nil, WithInitialVolume(3))
	if err != nil {
		t.Fatalf("NewEngine: %v", err)
	}
	if e.Volume() != 1 {
		t.Fatalf("volume %v want clamp to 1", e.Volume())
	}
}

func TestNewEngineRejectsInvalidParams(t *testing.T) {
	p := NewDefaultParams(48000)
	p.SampleRate = 0
	if _, err := NewEngine(p); err == nil {
		t.Fatal("expected error for zero sample rate")
	}
}

func TestEngineSilentWhenGateClosed(t *testing.T) {
	e, err := NewEngine(NewDefaultParams(48000))
	if err != nil {
		t.Fatalf("NewEngine: %v", err)
	}
	var in ControlInput
	in.Knobs = [NumKnobs]float64{0.5, 0.5, 0.5, 0.5, 0.9, 0.5}
	in.Switches[SwitchLowpass] = true

	out := [][]float32{make([]float32, 256), make([]float32, 256)}
	for b := 0; b < 200; b++ {
		e.ProcessBlock(in, out, 256)
		for ch := range out {
			for i, v := range out[ch] {
				if v != 0 {
					t.Fatalf("block %d ch %d sample %d: %v", b, ch, i, v)
				}
			}
		}
	}
}

func TestEngineRegularSquareThroughZeroFeedback(t *testing.T) {
	const (
		sampleRate = 48000.0
		delay      = 24000
		total      = 48000
	)
	e, err := NewEngine(fixedParams(sampleRate, 440, delay, 0), WithFilter(PassThrough{}))
	if err != nil {
		t.Fatalf("NewEngine: %v", err)
	}

	ref := dsp.NewOscillator(sampleRate)
	ref.SetWaveform(dsp.WaveSquare)
	ref.SetAmp(1)
	square := make([]float64, total)

	var in ControlInput
	in.Switches[SwitchRegular] = true

	rendered := make([]float64, total)
	out := [][]float32{make([]float32, 1), make([]float32, 1)}
	for i := 0; i < total; i++ {
		ref.SetFreq(440)
		square[i] = ref.Process()

		e.ProcessBlock(in, out, 1)
		if out[0][0] != out[1][0] {
			t.Fatalf("sample %d: channels differ %v vs %v", i, out[0][0], out[1][0])
		}
		if want := float32(0.5 * square[i]); out[0][0] != want {
			t.Fatalf("sample %d: got %v want %v", i, out[0][0], want)
		}
		rendered[i] = float64(out[0][0])

		tap := 0.0
		if i >= delay {
			tap = square[i-delay]
		}
		if got := e.Delay().LastTap(); got != tap {
			t.Fatalf("sample %d: tap %v want %v", i, got, tap)
		}
	}

	f, err := analysis.DominantFrequency(rendered, sampleRate)
	if err != nil {
		t.Fatalf("DominantFrequency: %v", err)
	}
	if math.Abs(f-440) > 1.5 {
		t.Fatalf("dominant frequency %v want ~440", f)
	}
}

func TestEngineFullFeedbackEchoes(t *testing.T) {
	const (
		delay = 1000
		burst = 100
	)
	e, err := NewEngine(fixedParams(48000, 440, delay, 1), WithFilter(PassThrough{}))
	if err != nil {
		t.Fatalf("NewEngine: %v", err)
	}

	ref := dsp.NewOscillator(48000)
	ref.SetWaveform(dsp.WaveSquare)
	ref.SetAmp(1)
	square := make([]float64, burst)
	for i := range square {
		ref.SetFreq(440)
		square[i] = ref.Process()
	}

	var on, off ControlInput
	on.Switches[SwitchRegular] = true

	// At feedback 1 the dry path is muted; only the wet tap reaches the output.
	out := [][]float32{make([]float32, delay)}
	e.ProcessBlock(on, out, burst)
	e.ProcessBlock(off, [][]float32{out[0][burst:]}, delay-burst)
	for i, v := range out[0] {
		if v != 0 {
			t.Fatalf("sample %d before first echo: %v", i, v)
		}
	}

	for pass := 1; pass <= 3; pass++ {
		echo := [][]float32{make([]float32, delay)}
		e.ProcessBlock(off, echo, delay)
		for i, v := range echo[0] {
			want := float32(0)
			if i < burst {
				want = float32(0.5 * square[i])
			}
			if v != want {
				t.Fatalf("pass %d sample %d: got %v want %v", pass, i, v, want)
			}
		}
	}
}

func TestEngineLFOModulatesPitch(t *testing.T) {
	p := NewDefaultParams(48000)
	e, err := NewEngine(p)
	if err != nil {
		t.Fatalf("NewEngine: %v", err)
	}
	var in ControlInput
	in.Switches[SwitchLFO] = true
	in.Knobs[KnobLFORate] = 1
	in.Knobs[KnobLFODepth] = 1
	in.Knobs[KnobPitch] = 0

	lo, hi := math.Inf(1), math.Inf(-1)
	for i := 0; i < 48000; i++ {
		e.ProcessBlock(in, nil, 1)
		f := e.Oscillator().Freq()
		lo = math.Min(lo, f)
		hi = math.Max(hi, f)
	}
	if lo != minOscFreq {
		t.Fatalf("minimum oscillator freq %v want clamp at %v", lo, minOscFreq)
	}
	if hi < 500 || hi > 550 {
		t.Fatalf("maximum oscillator freq %v want ~550", hi)
	}
}

func TestEngineLFOIgnoredWhenOff(t *testing.T) {
	e, err := NewEngine(fixedParams(48000, 300, 2400, 0.5))
	if err != nil {
		t.Fatalf("NewEngine: %v", err)
	}
	var in ControlInput
	in.Switches[SwitchRegular] = true
	in.Knobs[KnobLFODepth] = 1
	for i := 0; i < 4800; i++ {
		e.ProcessBlock(in, nil, 1)
		if f := e.Oscillator().Freq(); f != 300 {
			t.Fatalf("sample %d: freq %v want 300", i, f)
		}
	}
}

func TestEngineProcessReadsSource(t *testing.T) {
	src := &StaticControls{EncoderIncrement: 1}
	src.Switches[SwitchRegular] = true
	e, err := NewEngine(fixedParams(48000, 440, 480, 0), WithSource(src))
	if err != nil {
		t.Fatalf("NewEngine: %v", err)
	}
	rec := &recordingListener{}
	e.SetListener(rec)

	out := [][]float32{make([]float32, 64), make([]float32, 64)}
	e.Process(nil, out, 64)
	if len(rec.events) != 1 {
		t.Fatalf("got %d events want 1", len(rec.events))
	}
	if math.Abs(e.Volume()-0.55) > 1e-12 {
		t.Fatalf("volume %v want 0.55", e.Volume())
	}
	if out[0][0] == 0 {
		t.Fatal("expected sound from the regular switch")
	}
}

func TestEngineProcessWithoutSourceKeepsSwitches(t *testing.T) {
	e, err := NewEngine(fixedParams(48000, 440, 480, 0))
	if err != nil {
		t.Fatalf("NewEngine: %v", err)
	}
	var in ControlInput
	in.Switches[SwitchRegular] = true
	e.ProcessBlock(in, nil, 16)

	out := [][]float32{make([]float32, 16)}
	e.Process(nil, out, 16)
	if !e.Snapshot().RegularOn {
		t.Fatal("switch state lost")
	}
	if e.Volume() != 0.5 {
		t.Fatalf("volume changed: %v", e.Volume())
	}
}

func TestEngineRenderInterleaved(t *testing.T) {
	src := &StaticControls{}
	src.Switches[SwitchRegular] = true
	e, err := NewEngine(fixedParams(48000, 440, 480, 0.3), WithSource(src))
	if err != nil {
		t.Fatalf("NewEngine: %v", err)
	}
	dst := make([]float32, 512)
	e.RenderInterleaved(dst)
	nonzero := false
	for i := 0; i < len(dst); i += 2 {
		if dst[i] != dst[i+1] {
			t.Fatalf("frame %d: left %v right %v", i/2, dst[i], dst[i+1])
		}
		if dst[i] != 0 {
			nonzero = true
		}
	}
	if !nonzero {
		t.Fatal("expected non-silent output")
	}
}

func TestEngineDefaultFilterBounded(t *testing.T) {
	e, err := NewEngine(NewDefaultParams(48000))
	if err != nil {
		t.Fatalf("NewEngine: %v", err)
	}
	var in ControlInput
	in.Switches[SwitchRegular] = true
	in.Switches[SwitchLFO] = true
	in.Knobs = [NumKnobs]float64{0.4, 0.6, 0.5, 0.1, 0.6, 0.7}

	out := [][]float32{make([]float32, 48)}
	for b := 0; b < 2000; b++ {
		if b == 1000 {
			in.Switches[SwitchLowpass] = true
			in.Switches[SwitchRegular] = false
			in.Switches[SwitchLFO] = false
		}
		e.ProcessBlock(in, out, 48)
		for i, v := range out[0] {
			f := float64(v)
			if math.IsNaN(f) || math.IsInf(f, 0) || math.Abs(f) > 50 {
				t.Fatalf("block %d sample %d: %v", b, i, v)
			}
		}
	}
}

func BenchmarkEngineProcess(b *testing.B) {
	src := &StaticControls{}
	src.Switches[SwitchRegular] = true
	src.Switches[SwitchLFO] = true
	src.Knobs = [NumKnobs]float64{0.4, 0.6, 0.5, 0.3, 0.7, 0.6}
	e, err := NewEngine(NewDefaultParams(48000), WithSource(src))
	if err != nil {
		b.Fatalf("NewEngine: %v", err)
	}
	out := [][]float32{make([]float32, 48), make([]float32, 48)}
	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		e.Process(nil, out, 48)
	}
}
