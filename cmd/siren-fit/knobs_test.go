package main

import (
	"path/filepath"
	"testing"

	"github.com/cwbudde/algo-siren/script"
	"github.com/cwbudde/algo-siren/siren"
)

func TestParseFitKnobs(t *testing.T) {
	defs, err := parseFitKnobs("all")
	if err != nil || len(defs) != siren.NumKnobs {
		t.Fatalf("all: %v %v", defs, err)
	}
	defs, err = parseFitKnobs("pitch, 5, pitch")
	if err != nil {
		t.Fatalf("parseFitKnobs: %v", err)
	}
	if len(defs) != 2 || defs[0].Slot != siren.KnobPitch || defs[1].Slot != siren.KnobCutoff || defs[1].Name != "cutoff" {
		t.Fatalf("defs %+v", defs)
	}
	for _, bad := range []string{"", " , ", "wobble", "9"} {
		if _, err := parseFitKnobs(bad); err == nil {
			t.Fatalf("expected error for %q", bad)
		}
	}
}

func TestApplyCandidateOverridesFittedKnobs(t *testing.T) {
	base := script.NewDefault()
	base.Initial.Knobs[siren.KnobFeedback] = 0.3
	base.Events = []script.Event{
		{Frame: 100, Type: script.KnobEvent, Index: siren.KnobPitch, Value: 0.9},
		{Frame: 200, Type: script.KnobEvent, Index: siren.KnobFeedback, Value: 0.8},
		{Frame: 300, Type: script.SwitchEvent, Index: siren.SwitchLFO, On: true},
	}
	defs := []knobDef{{Name: "pitch", Slot: siren.KnobPitch}}
	s := applyCandidate(base, defs, candidate{Vals: []float64{1.4}})

	if s.Initial.Knobs[siren.KnobPitch] != 1 {
		t.Fatalf("pitch %v want clamp to 1", s.Initial.Knobs[siren.KnobPitch])
	}
	if s.Initial.Knobs[siren.KnobFeedback] != 0.3 {
		t.Fatalf("unfitted knob changed")
	}
	if len(s.Events) != 2 || s.Events[0].Index != siren.KnobFeedback {
		t.Fatalf("events %+v", s.Events)
	}
	if len(base.Events) != 3 || base.Initial.Knobs[siren.KnobPitch] != 0 {
		t.Fatal("base script was modified")
	}
}

func TestWriteScriptJSONRoundTrip(t *testing.T) {
	s := script.NewDefault()
	s.SampleRate = 44100
	s.Duration = 1.5
	s.Volume, s.HasVolume = 0.65, true
	s.Initial.Switches[siren.SwitchRegular] = true
	s.Initial.Switches[3] = true
	s.Initial.Knobs = [siren.NumKnobs]float64{0.1, 0.2, 0.3, 0.4, 0.5, 0.6}
	s.Events = []script.Event{
		{Frame: 22050, Type: script.SwitchEvent, Index: siren.SwitchLowpass, On: true},
		{Frame: 44100, Type: script.EncoderEvent, Steps: -2},
		{Frame: 44100, Type: script.KnobEvent, Index: siren.KnobCutoff, Value: 0.9},
	}

	path := filepath.Join(t.TempDir(), "fit", "fitted.json")
	if err := writeScriptJSON(path, s); err != nil {
		t.Fatalf("writeScriptJSON: %v", err)
	}
	got, err := script.LoadJSON(path)
	if err != nil {
		t.Fatalf("LoadJSON: %v", err)
	}
	if got.SampleRate != 44100 || got.Duration != 1.5 || !got.HasVolume || got.Volume != 0.65 {
		t.Fatalf("settings %+v", got)
	}
	if got.Initial != s.Initial {
		t.Fatalf("initial %+v want %+v", got.Initial, s.Initial)
	}
	if len(got.Events) != len(s.Events) {
		t.Fatalf("events %+v", got.Events)
	}
	for i := range got.Events {
		if got.Events[i] != s.Events[i] {
			t.Fatalf("event %d: %+v want %+v", i, got.Events[i], s.Events[i])
		}
	}
}
