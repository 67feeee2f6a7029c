package siren

import (
	"math"
	"testing"
)

func TestDelayLineRejectsBadConfig(t *testing.T) {
	if _, err := NewDelayLine(0, 0.0002, nil); err == nil {
		t.Fatal("expected error for zero capacity")
	}
	if _, err := NewDelayLine(100, 0, nil); err == nil {
		t.Fatal("expected error for zero slew")
	}
	if _, err := NewDelayLine(100, 1.5, nil); err == nil {
		t.Fatal("expected error for slew > 1")
	}
}

func TestDelayLineUpdateClamps(t *testing.T) {
	d, err := NewDelayLine(1000, 0.0002, nil)
	if err != nil {
		t.Fatalf("NewDelayLine: %v", err)
	}
	d.Update(5000, 3)
	if d.Target() != 1000 || d.Feedback() != 1 {
		t.Fatalf("got target=%v feedback=%v", d.Target(), d.Feedback())
	}
	d.Update(-20, -1)
	if d.Target() != 1 || d.Feedback() != 0 {
		t.Fatalf("got target=%v feedback=%v", d.Target(), d.Feedback())
	}
}

func TestDelayLineSmoothingIsMonotonic(t *testing.T) {
	d, err := NewDelayLine(48000, 0.0002, nil)
	if err != nil {
		t.Fatalf("NewDelayLine: %v", err)
	}
	d.Snap(100)
	d.Update(20000, 0.5)

	prev := d.Current()
	for i := 0; i < 100000; i++ {
		d.Process(0)
		cur := d.Current()
		if cur < prev {
			t.Fatalf("step %d: length moved away from target: %v -> %v", i, prev, cur)
		}
		if cur > 20000 {
			t.Fatalf("step %d: overshoot %v", i, cur)
		}
		prev = cur
	}
	if math.Abs(prev-20000) > 1 {
		t.Fatalf("length did not converge: %v", prev)
	}

	d.Update(500, 0.5)
	prev = d.Current()
	for i := 0; i < 1000; i++ {
		d.Process(0)
		cur := d.Current()
		if cur > prev || cur < 500 {
			t.Fatalf("step %d: bad descent %v -> %v", i, prev, cur)
		}
		prev = cur
	}
}

func TestDelayLineZeroFeedbackTapIsPlainDelay(t *testing.T) {
	const delay = 37
	d, err := NewDelayLine(256, 0.0002, PassThrough{})
	if err != nil {
		t.Fatalf("NewDelayLine: %v", err)
	}
	d.Snap(delay)
	d.Update(delay, 0)

	in := make([]float64, 400)
	for i := range in {
		in[i] = math.Sin(0.1*float64(i)) + 0.3*math.Cos(0.37*float64(i))
	}
	for i, x := range in {
		out := d.Process(x)
		if out != x {
			t.Fatalf("sample %d: dry output %v want %v", i, out, x)
		}
		want := 0.0
		if i >= delay {
			want = in[i-delay]
		}
		if d.LastTap() != want {
			t.Fatalf("sample %d: tap %v want %v", i, d.LastTap(), want)
		}
	}
}

func TestDelayLineFullFeedbackRecirculates(t *testing.T) {
	const delay = 50
	d, err := NewDelayLine(128, 0.0002, PassThrough{})
	if err != nil {
		t.Fatalf("NewDelayLine: %v", err)
	}
	d.Snap(delay)
	d.Update(delay, 1)

	for i := 0; i < 10*delay+1; i++ {
		in := 0.0
		if i == 0 {
			in = 1
		}
		out := d.Process(in)
		want := 0.0
		if i > 0 && i%delay == 0 {
			want = 1
		}
		if out != want {
			t.Fatalf("sample %d: got %v want %v", i, out, want)
		}
	}
}

func TestDelayLineFilteredFeedbackStaysBounded(t *testing.T) {
	f := NewModeFilter(48000, 0.1, 0.1)
	f.SetFreq(1000)
	f.SetMode(Lowpass)
	d, err := NewDelayLine(4800, 0.0002, f)
	if err != nil {
		t.Fatalf("NewDelayLine: %v", err)
	}
	d.Snap(480)
	d.Update(480, 0.7)

	peak := 0.0
	for i := 0; i < 96000; i++ {
		in := -1.0
		if (i/64)%2 == 0 {
			in = 1
		}
		if i > 48000 {
			in = 0
		}
		out := d.Process(in)
		if math.IsNaN(out) || math.IsInf(out, 0) {
			t.Fatalf("sample %d: non-finite output", i)
		}
		peak = math.Max(peak, math.Abs(out))
	}
	if peak > 100 {
		t.Fatalf("output grew without bound: peak %v", peak)
	}
}

func TestDelayLineReset(t *testing.T) {
	d, err := NewDelayLine(64, 0.5, PassThrough{})
	if err != nil {
		t.Fatalf("NewDelayLine: %v", err)
	}
	d.Update(10, 1)
	for i := 0; i < 100; i++ {
		d.Process(1)
	}
	d.Reset()
	if d.Current() != d.Target() {
		t.Fatalf("current %v want target %v", d.Current(), d.Target())
	}
	if got := d.Process(0); got != 0 {
		t.Fatalf("output after reset: %v", got)
	}
}
