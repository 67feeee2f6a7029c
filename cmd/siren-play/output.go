package main

import (
	"encoding/binary"
	"math"
	"sync"
	"sync/atomic"

	"github.com/ebitengine/oto/v3"

	"github.com/cwbudde/algo-siren/display"
	"github.com/cwbudde/algo-siren/siren"
)

// otoOutput pulls audio from the engine in fixed blocks whenever oto asks for bytes.
// Read runs on oto's goroutine, which is the only goroutine that touches the engine.
type otoOutput struct {
	ctx    *oto.Context
	player *oto.Player

	engine atomic.Pointer[siren.Engine]
	panel  *display.Panel

	block   []float32
	readPos int

	mu      sync.Mutex
	started bool
}

func newOtoOutput(sampleRate, blockSize int, panel *display.Panel) (*otoOutput, error) {
	op := &oto.NewContextOptions{
		SampleRate:   sampleRate,
		ChannelCount: 2,
		Format:       oto.FormatFloat32LE,
		BufferSize:   0,
	}
	ctx, ready, err := oto.NewContext(op)
	if err != nil {
		return nil, err
	}
	<-ready

	o := &otoOutput{
		ctx:   ctx,
		panel: panel,
		block: make([]float32, 2*blockSize),
	}
	o.readPos = len(o.block)
	return o, nil
}

func (o *otoOutput) Attach(e *siren.Engine) {
	o.mu.Lock()
	defer o.mu.Unlock()

	o.engine.Store(e)
	if o.player == nil {
		o.player = o.ctx.NewPlayer(o)
	}
}

func (o *otoOutput) Read(p []byte) (int, error) {
	e := o.engine.Load()
	n := len(p) / 4 * 4
	if e == nil {
		clear(p[:n])
		return n, nil
	}

	for off := 0; off < n; off += 4 {
		if o.readPos >= len(o.block) {
			e.RenderInterleaved(o.block)
			o.panel.Publish(e.Snapshot())
			o.readPos = 0
		}
		s := o.block[o.readPos]
		if s > 1 {
			s = 1
		} else if s < -1 {
			s = -1
		}
		binary.LittleEndian.PutUint32(p[off:], math.Float32bits(s))
		o.readPos++
	}
	return n, nil
}

func (o *otoOutput) Start() {
	o.mu.Lock()
	defer o.mu.Unlock()

	if !o.started && o.player != nil {
		o.player.Play()
		o.started = true
	}
}

func (o *otoOutput) Close() error {
	o.mu.Lock()
	defer o.mu.Unlock()

	o.started = false
	if o.player == nil {
		return nil
	}
	err := o.player.Close()
	o.player = nil
	return err
}
