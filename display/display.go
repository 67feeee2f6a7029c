// Package display turns engine state into LED levels for the pedal panel: the
// 8-segment volume ring and the footswitch indicators.
package display

import (
	"math"
	"sync/atomic"
	"time"

	"github.com/cwbudde/algo-approx"

	"github.com/cwbudde/algo-siren/siren"
)

const (
	RingSegments   = 8
	NumFootswitches = 4

	segmentSpan = 1.0 / RingSegments

	// DefaultRefresh is the display loop period.
	DefaultRefresh = 6 * time.Millisecond
	// DefaultFlashDecay is the time constant of the encoder acknowledgment flash.
	DefaultFlashDecay = 80 * time.Millisecond
)

// Frame is one display refresh. Values are brightness in [0, 1].
type Frame struct {
	Footswitch [NumFootswitches]float64
	Ring       [RingSegments]float64
}

// Ring maps a volume in [0, 1] onto the LED ring: segments below floor(v/0.125) are
// fully lit and the next one shows the remainder.
func Ring(volume float64) [RingSegments]float64 {
	var ring [RingSegments]float64
	if !(volume > 0) {
		return ring
	}
	if volume > 1 {
		volume = 1
	}
	pos := volume / segmentSpan
	whole := int(math.Floor(pos))
	frac := pos - float64(whole)
	for i := 0; i < whole && i < RingSegments; i++ {
		ring[i] = 1
	}
	if whole < RingSegments {
		ring[whole] = frac
	}
	return ring
}

const (
	flagRegular = 1 << 32
	flagLFO     = 1 << 33
	flagLowpass = 1 << 34
)

// Panel is the display side of the engine. The audio goroutine calls Publish and
// OnEvent; the display goroutine calls Render. Neither side blocks.
type Panel struct {
	state   atomic.Uint64
	pending atomic.Uint32

	flashDecay float64
	flash      [NumFootswitches]float64
}

// NewPanel returns a panel whose acknowledgment flash decays with time constant
// flashDecay (DefaultFlashDecay when <= 0).
func NewPanel(flashDecay time.Duration) *Panel {
	if flashDecay <= 0 {
		flashDecay = DefaultFlashDecay
	}
	return &Panel{flashDecay: flashDecay.Seconds()}
}

// Publish records the snapshot of the block just rendered. It does not allocate.
func (p *Panel) Publish(snap siren.Snapshot) {
	v := uint64(math.Float32bits(float32(snap.Volume)))
	if snap.RegularOn {
		v |= flagRegular
	}
	if snap.LFOOn {
		v |= flagLFO
	}
	if snap.Lowpass {
		v |= flagLowpass
	}
	p.state.Store(v)
}

// OnEvent implements siren.Listener.
func (p *Panel) OnEvent(ev siren.Event) {
	if ev.Kind != siren.EventEncoderAck {
		return
	}
	if ev.Footswitch < 0 || ev.Footswitch >= NumFootswitches {
		return
	}
	p.pending.Or(1 << uint(ev.Footswitch))
}

// Snapshot returns the last published state. BaseFreq is not carried.
func (p *Panel) Snapshot() siren.Snapshot {
	v := p.state.Load()
	return siren.Snapshot{
		RegularOn: v&flagRegular != 0,
		LFOOn:     v&flagLFO != 0,
		Lowpass:   v&flagLowpass != 0,
		Volume:    float64(math.Float32frombits(uint32(v))),
	}
}

// Render produces the frame for a refresh that comes dt after the previous one.
func (p *Panel) Render(dt time.Duration) Frame {
	decay := float64(approx.FastExp(float32(-dt.Seconds() / p.flashDecay)))
	acks := p.pending.Swap(0)
	for i := range p.flash {
		p.flash[i] *= decay
		if p.flash[i] < 1e-3 {
			p.flash[i] = 0
		}
		if acks&(1<<uint(i)) != 0 {
			p.flash[i] = 1
		}
	}

	snap := p.Snapshot()
	var f Frame
	f.Footswitch = p.flash
	if snap.RegularOn {
		f.Footswitch[siren.SwitchRegular] = 1
	}
	if snap.LFOOn {
		f.Footswitch[siren.SwitchLFO] = 1
	}
	f.Ring = Ring(snap.Volume)
	return f
}
