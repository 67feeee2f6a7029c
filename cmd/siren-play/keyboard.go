package main

import (
	"fmt"
	"os"

	"golang.org/x/term"

	"github.com/cwbudde/algo-siren/siren"
)

const knobStep = 0.02

type knobKeys struct {
	up, down byte
}

// Rows of a QWERTY keyboard: the top row raises a knob, the home row lowers it.
var knobKeyMap = [siren.NumKnobs]knobKeys{
	siren.KnobLFORate:   {'q', 'a'},
	siren.KnobLFODepth:  {'w', 's'},
	siren.KnobPitch:     {'e', 'd'},
	siren.KnobDelayTime: {'r', 'f'},
	siren.KnobFeedback:  {'t', 'g'},
	siren.KnobCutoff:    {'y', 'h'},
}

const helpText = `keys: z regular  x lfo  c lowpass  , / . encoder down / up
      q/a lfo rate  w/s lfo depth  e/d pitch  r/f delay  t/g feedback  y/h cutoff
      esc or ctrl-c quits`

// keyboard puts the terminal in raw mode and routes key presses to the controls.
type keyboard struct {
	fd       int
	oldState *term.State
	controls *liveControls
	quit     chan struct{}
}

func newKeyboard(controls *liveControls) (*keyboard, error) {
	fd := int(os.Stdin.Fd())
	if !term.IsTerminal(fd) {
		return nil, fmt.Errorf("stdin is not a terminal")
	}
	oldState, err := term.MakeRaw(fd)
	if err != nil {
		return nil, fmt.Errorf("set raw mode: %w", err)
	}
	return &keyboard{
		fd:       fd,
		oldState: oldState,
		controls: controls,
		quit:     make(chan struct{}),
	}, nil
}

// Run reads stdin until a quit key or read error, then closes Done.
func (k *keyboard) Run() {
	defer close(k.quit)
	buf := make([]byte, 1)
	for {
		n, err := os.Stdin.Read(buf)
		if err != nil {
			return
		}
		if n == 0 {
			continue
		}
		if !k.handle(buf[0]) {
			return
		}
	}
}

func (k *keyboard) Done() <-chan struct{} { return k.quit }

// handle applies one key and reports whether to keep reading.
func (k *keyboard) handle(b byte) bool {
	switch b {
	case 0x03, 0x1b:
		return false
	case 'z':
		k.controls.ToggleSwitch(siren.SwitchRegular)
	case 'x':
		k.controls.ToggleSwitch(siren.SwitchLFO)
	case 'c':
		k.controls.ToggleSwitch(siren.SwitchLowpass)
	case '.':
		k.controls.TurnEncoder(1)
	case ',':
		k.controls.TurnEncoder(-1)
	default:
		for i, m := range knobKeyMap {
			switch b {
			case m.up:
				k.controls.NudgeKnob(i, knobStep)
			case m.down:
				k.controls.NudgeKnob(i, -knobStep)
			}
		}
	}
	return true
}

func (k *keyboard) Restore() {
	if k.oldState != nil {
		_ = term.Restore(k.fd, k.oldState)
		k.oldState = nil
	}
}
