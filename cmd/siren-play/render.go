package main

import (
	"fmt"
	"strings"

	"github.com/cwbudde/algo-siren/display"
	"github.com/cwbudde/algo-siren/siren"
)

var shades = []rune(" ░▒▓█")

func shade(v float64) rune {
	if v <= 0 {
		return '·'
	}
	i := int(v*float64(len(shades)-1) + 0.5)
	if i >= len(shades) {
		i = len(shades) - 1
	}
	if i < 1 {
		i = 1
	}
	return shades[i]
}

func led(v float64) string {
	if v >= 0.5 {
		return "●"
	}
	if v > 0 {
		return "◐"
	}
	return "○"
}

// formatFrame renders one status line for the terminal.
func formatFrame(f display.Frame, snap siren.Snapshot, knobs [siren.NumKnobs]float64) string {
	var b strings.Builder
	fmt.Fprintf(&b, "REG %s  LFO %s  ", led(f.Footswitch[0]), led(f.Footswitch[1]))
	b.WriteByte('[')
	for _, v := range f.Ring {
		b.WriteRune(shade(v))
	}
	fmt.Fprintf(&b, "] vol %.2f  ", snap.Volume)
	if snap.Lowpass {
		b.WriteString("LP ")
	} else {
		b.WriteString("HP ")
	}
	for i, v := range knobs {
		fmt.Fprintf(&b, " %s %.2f", siren.KnobName(i), v)
	}
	return b.String()
}
