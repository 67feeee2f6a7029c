package main

import (
	"encoding/json"
	"os"
	"path/filepath"
	"sort"

	"github.com/cwbudde/algo-siren/analysis"
	"github.com/cwbudde/algo-siren/internal/wavio"
	"github.com/cwbudde/algo-siren/script"
	"github.com/cwbudde/algo-siren/siren"
)

type runReport struct {
	ReferencePath  string             `json:"reference_path"`
	ScriptPath     string             `json:"script_path,omitempty"`
	OutputScript   string             `json:"output_script"`
	OutputWAV      string             `json:"output_wav,omitempty"`
	SampleRate     float64            `json:"sample_rate"`
	DurationSec    float64            `json:"elapsed_seconds"`
	Evaluations    int                `json:"evaluations"`
	MayflyVariant  string             `json:"mayfly_variant"`
	BestScore      float64            `json:"best_score"`
	BestSimilarity float64            `json:"best_similarity"`
	BestMetrics    analysis.Metrics   `json:"best_metrics"`
	BestKnobs      map[string]float64 `json:"best_knobs"`
	TopCandidates  []topCandidate     `json:"top_candidates,omitempty"`
}

type outputConfig struct {
	referencePath string
	scriptPath    string
	outputScript  string
	outputWAV     string
	reportPath    string
	variant       string
}

func writeOutputs(oc outputConfig, base *script.Script, defs []knobDef, res *optimizationResult) error {
	fitted := applyCandidate(base, defs, res.best)
	if err := writeScriptJSON(oc.outputScript, fitted); err != nil {
		return err
	}
	if oc.outputWAV != "" {
		if err := wavio.WriteStereoInterleaved(oc.outputWAV, res.bestRender, int(fitted.SampleRate)); err != nil {
			return err
		}
	}

	rep := runReport{
		ReferencePath:  oc.referencePath,
		ScriptPath:     oc.scriptPath,
		OutputScript:   oc.outputScript,
		OutputWAV:      oc.outputWAV,
		SampleRate:     fitted.SampleRate,
		DurationSec:    res.elapsed,
		Evaluations:    res.evals,
		MayflyVariant:  oc.variant,
		BestScore:      res.bestMetrics.Score,
		BestSimilarity: res.bestMetrics.Similarity,
		BestMetrics:    res.bestMetrics,
		BestKnobs:      knobMap(defs, res.best),
		TopCandidates:  res.top,
	}
	reportPath := oc.reportPath
	if reportPath == "" {
		reportPath = oc.outputScript + ".report.json"
	}
	return writeJSON(reportPath, rep)
}

// writeScriptJSON writes s in the format script.LoadJSON reads back.
func writeScriptJSON(path string, s *script.Script) error {
	sr := s.SampleRate
	bs := s.BlockSize
	dur := s.Duration
	f := script.File{
		SampleRate: &sr,
		BlockSize:  &bs,
		Duration:   &dur,
		Switches:   make(map[string]bool),
		Knobs:      make(map[string]float64, siren.NumKnobs),
	}
	if s.HasVolume {
		v := s.Volume
		f.Volume = &v
	}
	for i, on := range s.Initial.Switches {
		if on {
			f.Switches[switchKey(i)] = true
		}
	}
	for i, v := range s.Initial.Knobs {
		f.Knobs[siren.KnobName(i)] = v
	}

	events := append([]script.Event(nil), s.Events...)
	sort.SliceStable(events, func(i, j int) bool { return events[i].Frame < events[j].Frame })
	for _, ev := range events {
		es := script.EventSetting{At: float64(ev.Frame) / s.SampleRate, Type: ev.Type.String()}
		switch ev.Type {
		case script.SwitchEvent:
			on := ev.On
			es.Name, es.On = switchKey(ev.Index), &on
		case script.KnobEvent:
			v := ev.Value
			es.Name, es.Value = siren.KnobName(ev.Index), &v
		case script.EncoderEvent:
			es.Steps = ev.Steps
		}
		f.Events = append(f.Events, es)
	}
	return writeJSON(path, f)
}

func switchKey(idx int) string {
	switch idx {
	case siren.SwitchRegular:
		return "regular"
	case siren.SwitchLFO:
		return "lfo"
	case siren.SwitchLowpass:
		return "lowpass"
	default:
		return string(rune('0' + idx))
	}
}

func writeJSON(path string, v any) error {
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	b = append(b, '\n')
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}
	return os.WriteFile(path, b, 0o644)
}
