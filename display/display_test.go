package display

import (
	"math"
	"sync"
	"testing"
	"time"

	"github.com/cwbudde/algo-siren/siren"
)

func TestRingMapping(t *testing.T) {
	cases := []struct {
		volume float64
		want   [RingSegments]float64
	}{
		{0, [RingSegments]float64{}},
		{0.0625, [RingSegments]float64{0.5}},
		{0.5, [RingSegments]float64{1, 1, 1, 1, 0, 0, 0, 0}},
		{0.5625, [RingSegments]float64{1, 1, 1, 1, 0.5, 0, 0, 0}},
		{0.9375, [RingSegments]float64{1, 1, 1, 1, 1, 1, 1, 0.5}},
		{1, [RingSegments]float64{1, 1, 1, 1, 1, 1, 1, 1}},
		{-0.2, [RingSegments]float64{}},
		{1.7, [RingSegments]float64{1, 1, 1, 1, 1, 1, 1, 1}},
	}
	for _, tc := range cases {
		got := Ring(tc.volume)
		for i := range got {
			if math.Abs(got[i]-tc.want[i]) > 1e-12 {
				t.Fatalf("Ring(%v) = %v want %v", tc.volume, got, tc.want)
			}
		}
	}
}

func TestRingMonotonicInVolume(t *testing.T) {
	prev := Ring(0)
	for i := 1; i <= 200; i++ {
		cur := Ring(float64(i) / 200)
		for s := range cur {
			if cur[s] < prev[s]-1e-12 {
				t.Fatalf("segment %d dimmed at volume %v", s, float64(i)/200)
			}
		}
		prev = cur
	}
}

func TestPanelMirrorsSwitches(t *testing.T) {
	p := NewPanel(0)
	p.Publish(siren.Snapshot{RegularOn: true, Volume: 0.25})
	f := p.Render(DefaultRefresh)
	if f.Footswitch[0] != 1 || f.Footswitch[1] != 0 {
		t.Fatalf("footswitches %v", f.Footswitch)
	}
	if f.Ring[0] != 1 || f.Ring[1] != 1 || f.Ring[2] != 0 {
		t.Fatalf("ring %v", f.Ring)
	}

	p.Publish(siren.Snapshot{LFOOn: true, Lowpass: true, Volume: 0.25})
	f = p.Render(DefaultRefresh)
	if f.Footswitch[0] != 0 || f.Footswitch[1] != 1 {
		t.Fatalf("footswitches %v", f.Footswitch)
	}
	snap := p.Snapshot()
	if !snap.Lowpass || !snap.LFOOn || snap.RegularOn || snap.Volume != 0.25 {
		t.Fatalf("snapshot %+v", snap)
	}
}

func TestPanelAckFlashDecays(t *testing.T) {
	p := NewPanel(50 * time.Millisecond)
	p.Publish(siren.Snapshot{Volume: 0.5})
	p.OnEvent(siren.Event{Kind: siren.EventEncoderAck, Footswitch: 0})

	f := p.Render(DefaultRefresh)
	if f.Footswitch[0] != 1 {
		t.Fatalf("flash not lit: %v", f.Footswitch[0])
	}
	prev := f.Footswitch[0]
	for i := 0; i < 200; i++ {
		f = p.Render(DefaultRefresh)
		if f.Footswitch[0] > prev {
			t.Fatalf("flash grew at refresh %d: %v > %v", i, f.Footswitch[0], prev)
		}
		prev = f.Footswitch[0]
	}
	if prev != 0 {
		t.Fatalf("flash did not die out: %v", prev)
	}
}

func TestPanelIgnoresOtherEvents(t *testing.T) {
	p := NewPanel(0)
	p.OnEvent(siren.Event{Kind: siren.EventKind(99), Footswitch: 0})
	p.OnEvent(siren.Event{Kind: siren.EventEncoderAck, Footswitch: 9})
	f := p.Render(DefaultRefresh)
	for i, v := range f.Footswitch {
		if v != 0 {
			t.Fatalf("footswitch %d lit: %v", i, v)
		}
	}
}

func TestPanelWithEngine(t *testing.T) {
	src := &siren.StaticControls{EncoderIncrement: 1}
	src.Switches[siren.SwitchLFO] = true
	e, err := siren.NewEngine(nil, siren.WithSource(src))
	if err != nil {
		t.Fatalf("NewEngine: %v", err)
	}
	p := NewPanel(0)
	e.SetListener(p)

	out := [][]float32{make([]float32, 48), make([]float32, 48)}
	for i := 0; i < 3; i++ {
		e.Process(nil, out, 48)
		p.Publish(e.Snapshot())
	}
	f := p.Render(DefaultRefresh)
	if f.Footswitch[0] != 1 || f.Footswitch[1] != 1 {
		t.Fatalf("footswitches %v", f.Footswitch)
	}
	// 0.5 + 3*0.05 = 0.65: five segments lit, the sixth at 0.2.
	want := Ring(0.65)
	for i := range want {
		if math.Abs(f.Ring[i]-want[i]) > 1e-6 {
			t.Fatalf("ring %v want %v", f.Ring, want)
		}
	}
}

func TestPanelConcurrentPublish(t *testing.T) {
	p := NewPanel(0)
	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		for i := 0; i < 10000; i++ {
			p.Publish(siren.Snapshot{RegularOn: i%2 == 0, Volume: float64(i%100) / 100})
			if i%7 == 0 {
				p.OnEvent(siren.Event{Kind: siren.EventEncoderAck})
			}
		}
	}()
	go func() {
		defer wg.Done()
		for i := 0; i < 1000; i++ {
			f := p.Render(time.Millisecond)
			for _, v := range f.Ring {
				if v < 0 || v > 1 {
					t.Errorf("ring value out of range: %v", v)
					return
				}
			}
		}
	}()
	wg.Wait()
}
