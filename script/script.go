// Package script loads control automation for offline siren renders: the panel
// state at the start of a run and a timeline of switch, knob and encoder moves.
package script

import (
	"encoding/json"
	"fmt"
	"math"
	"os"
	"sort"
	"strconv"
	"strings"

	"github.com/cwbudde/algo-siren/siren"
)

const (
	DefaultSampleRate = 48000
	DefaultBlockSize  = 48
	DefaultDuration   = 4.0
)

// File is the JSON schema for control scripts.
type File struct {
	SampleRate *float64           `json:"sample_rate"`
	BlockSize  *int               `json:"block_size"`
	Duration   *float64           `json:"duration"`
	Volume     *float64           `json:"volume"`
	Switches   map[string]bool    `json:"switches"`
	Knobs      map[string]float64 `json:"knobs"`
	Events     []EventSetting     `json:"events"`
}

// EventSetting is one timeline entry. Type is "switch", "knob" or "encoder".
type EventSetting struct {
	At    float64  `json:"at"`
	Type  string   `json:"type"`
	Name  string   `json:"name,omitempty"`
	On    *bool    `json:"on,omitempty"`
	Value *float64 `json:"value,omitempty"`
	Steps int      `json:"steps,omitempty"`
}

// EventType identifies what a timeline event changes.
type EventType int

const (
	SwitchEvent EventType = iota
	KnobEvent
	EncoderEvent
)

func (t EventType) String() string {
	switch t {
	case SwitchEvent:
		return "switch"
	case KnobEvent:
		return "knob"
	case EncoderEvent:
		return "encoder"
	default:
		return fmt.Sprintf("EventType(%d)", int(t))
	}
}

// Event is a validated timeline entry positioned in sample frames.
type Event struct {
	Frame int
	Type  EventType
	Index int
	On    bool
	Value float64
	Steps int
}

// Script is a validated render run.
type Script struct {
	SampleRate float64
	BlockSize  int
	Duration   float64

	// Volume overrides the engine's initial volume when HasVolume is set.
	Volume    float64
	HasVolume bool

	Initial siren.ControlInput
	Events  []Event
}

// NewDefault returns a silent script with the default timing.
func NewDefault() *Script {
	return &Script{
		SampleRate: DefaultSampleRate,
		BlockSize:  DefaultBlockSize,
		Duration:   DefaultDuration,
	}
}

// TotalFrames returns the run length in samples.
func (s *Script) TotalFrames() int {
	return int(math.Round(s.Duration * s.SampleRate))
}

// LoadJSON loads a control script and applies it on top of NewDefault.
func LoadJSON(path string) (*Script, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return ParseJSON(b)
}

// ParseJSON parses script JSON from memory.
func ParseJSON(b []byte) (*Script, error) {
	var f File
	if err := json.Unmarshal(b, &f); err != nil {
		return nil, err
	}
	s := NewDefault()
	if err := ApplyFile(s, &f); err != nil {
		return nil, err
	}
	return s, nil
}

// ApplyFile applies a parsed file onto an existing script.
func ApplyFile(dst *Script, f *File) error {
	if dst == nil {
		return fmt.Errorf("nil destination script")
	}
	if f == nil {
		return nil
	}

	if f.SampleRate != nil {
		if *f.SampleRate <= 0 || math.IsNaN(*f.SampleRate) || math.IsInf(*f.SampleRate, 0) {
			return fmt.Errorf("sample_rate must be > 0")
		}
		dst.SampleRate = *f.SampleRate
	}
	if f.BlockSize != nil {
		if *f.BlockSize < 1 {
			return fmt.Errorf("block_size must be >= 1")
		}
		dst.BlockSize = *f.BlockSize
	}
	if f.Duration != nil {
		if *f.Duration <= 0 {
			return fmt.Errorf("duration must be > 0")
		}
		dst.Duration = *f.Duration
	}
	if f.Volume != nil {
		if *f.Volume < 0 || *f.Volume > 1 {
			return fmt.Errorf("volume must be in [0,1]")
		}
		dst.Volume = *f.Volume
		dst.HasVolume = true
	}

	for _, name := range sortedKeys(f.Switches) {
		idx, err := SwitchIndex(name)
		if err != nil {
			return fmt.Errorf("switches: %w", err)
		}
		dst.Initial.Switches[idx] = f.Switches[name]
	}
	for _, name := range sortedKeys(f.Knobs) {
		idx, err := KnobIndex(name)
		if err != nil {
			return fmt.Errorf("knobs: %w", err)
		}
		v := f.Knobs[name]
		if v < 0 || v > 1 {
			return fmt.Errorf("knobs[%s] must be in [0,1]", name)
		}
		dst.Initial.Knobs[idx] = v
	}

	for i, es := range f.Events {
		ev, err := es.resolve(dst.SampleRate)
		if err != nil {
			return fmt.Errorf("events[%d]: %w", i, err)
		}
		dst.Events = append(dst.Events, ev)
	}
	sort.SliceStable(dst.Events, func(i, j int) bool {
		return dst.Events[i].Frame < dst.Events[j].Frame
	})
	return nil
}

func (es EventSetting) resolve(sampleRate float64) (Event, error) {
	if es.At < 0 || math.IsNaN(es.At) {
		return Event{}, fmt.Errorf("at must be >= 0")
	}
	ev := Event{Frame: int(math.Round(es.At * sampleRate))}
	switch strings.ToLower(strings.TrimSpace(es.Type)) {
	case "switch":
		idx, err := SwitchIndex(es.Name)
		if err != nil {
			return Event{}, err
		}
		if es.On == nil {
			return Event{}, fmt.Errorf("switch event needs on")
		}
		ev.Type, ev.Index, ev.On = SwitchEvent, idx, *es.On
	case "knob":
		idx, err := KnobIndex(es.Name)
		if err != nil {
			return Event{}, err
		}
		if es.Value == nil || *es.Value < 0 || *es.Value > 1 {
			return Event{}, fmt.Errorf("knob event needs value in [0,1]")
		}
		ev.Type, ev.Index, ev.Value = KnobEvent, idx, *es.Value
	case "encoder":
		if es.Steps == 0 {
			return Event{}, fmt.Errorf("encoder event needs non-zero steps")
		}
		ev.Type, ev.Steps = EncoderEvent, es.Steps
	default:
		return Event{}, fmt.Errorf("unknown event type %q", es.Type)
	}
	return ev, nil
}

var switchAliases = map[string]int{
	"regular": siren.SwitchRegular,
	"lfo":     siren.SwitchLFO,
	"lowpass": siren.SwitchLowpass,
}

// SwitchIndex resolves a switch by alias ("regular", "lfo", "lowpass") or by slot
// number.
func SwitchIndex(name string) (int, error) {
	key := strings.ToLower(strings.TrimSpace(name))
	if idx, ok := switchAliases[key]; ok {
		return idx, nil
	}
	idx, err := strconv.Atoi(key)
	if err != nil || idx < 0 || idx >= siren.NumSwitches {
		return 0, fmt.Errorf("invalid switch %q (expected regular, lfo, lowpass or 0..%d)", name, siren.NumSwitches-1)
	}
	return idx, nil
}

// KnobIndex resolves a knob by its short name or by slot number.
func KnobIndex(name string) (int, error) {
	key := strings.ToLower(strings.TrimSpace(name))
	for i := 0; i < siren.NumKnobs; i++ {
		if siren.KnobName(i) == key {
			return i, nil
		}
	}
	idx, err := strconv.Atoi(key)
	if err != nil || idx < 0 || idx >= siren.NumKnobs {
		return 0, fmt.Errorf("invalid knob %q", name)
	}
	return idx, nil
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
