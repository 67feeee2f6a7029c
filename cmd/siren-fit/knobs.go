package main

import (
	"fmt"
	"strings"

	"github.com/cwbudde/algo-siren/script"
	"github.com/cwbudde/algo-siren/siren"
)

// knobDef is one optimized dimension: a panel knob in [0, 1].
type knobDef struct {
	Name string
	Slot int
}

type candidate struct {
	Vals []float64
}

func cloneCandidate(c candidate) candidate {
	return candidate{Vals: append([]float64(nil), c.Vals...)}
}

// parseFitKnobs resolves a comma-separated list of knob names or slots. "all"
// selects every knob.
func parseFitKnobs(raw string) ([]knobDef, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, fmt.Errorf("no knobs specified")
	}
	if strings.EqualFold(raw, "all") {
		defs := make([]knobDef, siren.NumKnobs)
		for i := range defs {
			defs[i] = knobDef{Name: siren.KnobName(i), Slot: i}
		}
		return defs, nil
	}
	seen := make(map[int]bool)
	var defs []knobDef
	for _, s := range strings.Split(raw, ",") {
		s = strings.TrimSpace(s)
		if s == "" {
			continue
		}
		slot, err := script.KnobIndex(s)
		if err != nil {
			return nil, err
		}
		if seen[slot] {
			continue
		}
		seen[slot] = true
		defs = append(defs, knobDef{Name: siren.KnobName(slot), Slot: slot})
	}
	if len(defs) == 0 {
		return nil, fmt.Errorf("no knobs specified")
	}
	return defs, nil
}

// initCandidate reads the starting point for defs from the base panel.
func initCandidate(base *script.Script, defs []knobDef) candidate {
	vals := make([]float64, len(defs))
	for i, d := range defs {
		vals[i] = base.Initial.Knobs[d.Slot]
	}
	return candidate{Vals: vals}
}

// applyCandidate returns a copy of base with the candidate's knob positions held
// for the whole run. Knob events in base are dropped for fitted slots.
func applyCandidate(base *script.Script, defs []knobDef, cand candidate) *script.Script {
	s := *base
	fitted := make(map[int]bool, len(defs))
	for i, d := range defs {
		s.Initial.Knobs[d.Slot] = clamp(cand.Vals[i], 0, 1)
		fitted[d.Slot] = true
	}
	s.Events = make([]script.Event, 0, len(base.Events))
	for _, ev := range base.Events {
		if ev.Type == script.KnobEvent && fitted[ev.Index] {
			continue
		}
		s.Events = append(s.Events, ev)
	}
	return &s
}

func knobMap(defs []knobDef, cand candidate) map[string]float64 {
	m := make(map[string]float64, len(defs))
	for i, d := range defs {
		m[d.Name] = cand.Vals[i]
	}
	return m
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
