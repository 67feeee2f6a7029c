package script

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/cwbudde/algo-siren/siren"
)

func TestParseLuaBuildsTimeline(t *testing.T) {
	s, err := ParseLua(`
sample_rate(32000)
block_size(32)
duration(3)
volume(0.25)
switch(0, "regular", true)
knob(0, "pitch", 0.3)
for i = 1, 4 do
  knob(i * 0.5, "pitch", 0.3 + i * 0.1)
end
switch(2.5, 6, true)
encoder(2.75, -2)
`)
	if err != nil {
		t.Fatalf("ParseLua: %v", err)
	}
	if s.SampleRate != 32000 || s.BlockSize != 32 || s.Duration != 3 {
		t.Fatalf("timing mismatch: %+v", s)
	}
	if !s.HasVolume || s.Volume != 0.25 {
		t.Fatalf("volume mismatch: %v", s.Volume)
	}
	if len(s.Events) != 8 {
		t.Fatalf("got %d events want 8", len(s.Events))
	}
	last := s.Events[len(s.Events)-1]
	if last.Type != EncoderEvent || last.Steps != -2 || last.Frame != 88000 {
		t.Fatalf("last event %+v", last)
	}
	lowpass := s.Events[len(s.Events)-2]
	if lowpass.Type != SwitchEvent || lowpass.Index != siren.SwitchLowpass || !lowpass.On {
		t.Fatalf("lowpass event %+v", lowpass)
	}
}

func TestLoadLuaFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "wail.lua")
	src := "duration(1)\nswitch(0, 'lfo', true)\nknob(0, 'lfo_rate', 0.5)\n"
	if err := os.WriteFile(path, []byte(src), 0o644); err != nil {
		t.Fatalf("write script: %v", err)
	}
	s, err := LoadLua(path)
	if err != nil {
		t.Fatalf("LoadLua: %v", err)
	}
	in := NewPlayer(s).ReadControls()
	if !in.Switches[siren.SwitchLFO] || in.Knobs[siren.KnobLFORate] != 0.5 {
		t.Fatalf("first block %+v", in)
	}
}

func TestParseLuaErrors(t *testing.T) {
	cases := []string{
		`knob(0, "pitch")`,
		`knob(0, "nope", 0.5)`,
		`switch(0, {}, true)`,
		`encoder(1, 0)`,
		`block_size(0)`,
		`this is not lua`,
	}
	for _, c := range cases {
		if _, err := ParseLua(c); err == nil {
			t.Fatalf("expected error for %q", c)
		}
	}
}
