package main

import (
	"flag"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/cwbudde/algo-siren/internal/wavio"
	"github.com/cwbudde/algo-siren/script"
	"github.com/cwbudde/algo-siren/siren"
)

func main() {
	scriptPath := flag.String("script", "", "Control script (.json or .lua). Empty renders a fixed panel from -knobs/-switches")
	knobs := flag.String("knobs", "0.5,0.3,0.5,0.4,0.5,0.6", "Six knob positions in [0,1] used without -script")
	switches := flag.String("switches", "regular", "Comma-separated switches held on without -script (regular, lfo, lowpass or slot numbers)")
	duration := flag.Float64("duration", 0, "Override the script duration in seconds")
	sampleRate := flag.Float64("sample-rate", 0, "Override the script sample rate in Hz")
	volume := flag.Float64("volume", -1, "Override the initial volume in [0,1]")
	tail := flag.Float64("tail", 0, "Extra seconds rendered with both gate switches released")
	decayDBFS := flag.Float64("decay-dbfs", math.Inf(-1), "Stop the tail early once block RMS stays below this dBFS (e.g. -80)")
	output := flag.String("output", "siren.wav", "Output WAV file path")
	flag.Parse()

	s, err := loadScript(*scriptPath, *knobs, *switches)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading script: %v\n", err)
		os.Exit(1)
	}
	if *sampleRate > 0 {
		ratio := *sampleRate / s.SampleRate
		for i := range s.Events {
			s.Events[i].Frame = int(math.Round(float64(s.Events[i].Frame) * ratio))
		}
		s.SampleRate = *sampleRate
	}
	if *duration > 0 {
		s.Duration = *duration
	}
	if *volume >= 0 {
		if *volume > 1 {
			fmt.Fprintf(os.Stderr, "Invalid -volume %g (must be in [0,1])\n", *volume)
			os.Exit(1)
		}
		s.Volume = *volume
		s.HasVolume = true
	}
	if *tail > 0 {
		releaseAt := s.Duration
		s.Duration += *tail
		for _, sw := range []int{siren.SwitchRegular, siren.SwitchLFO} {
			s.Events = append(s.Events, script.Event{
				Frame: int(math.Round(releaseAt * s.SampleRate)),
				Type:  script.SwitchEvent,
				Index: sw,
			})
		}
		sort.SliceStable(s.Events, func(i, j int) bool { return s.Events[i].Frame < s.Events[j].Frame })
	}

	fmt.Printf("Rendering %.2f s at %.0f Hz, block %d (script: %s)...\n", s.Duration, s.SampleRate, s.BlockSize, describe(*scriptPath))

	samples, err := script.Render(s, nil)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error rendering: %v\n", err)
		os.Exit(1)
	}
	if *tail > 0 && !math.IsInf(*decayDBFS, -1) {
		start := int(math.Round((s.Duration - *tail) * s.SampleRate))
		samples = trimDecay(samples, start, s.BlockSize, math.Pow(10, *decayDBFS/20))
	}

	sr := int(math.Round(s.SampleRate))
	if err := wavio.WriteStereoInterleaved(*output, samples, sr); err != nil {
		fmt.Fprintf(os.Stderr, "Error writing WAV file: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("Successfully wrote %s (%d frames, peak %.3f)\n", *output, len(samples)/2, wavio.Peak(samples))
}

func loadScript(path, knobs, switches string) (*script.Script, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case "":
		if path != "" {
			return nil, fmt.Errorf("script %q has no extension (.json or .lua)", path)
		}
	case ".json":
		return script.LoadJSON(path)
	case ".lua":
		return script.LoadLua(path)
	default:
		return nil, fmt.Errorf("unsupported script type %q", filepath.Ext(path))
	}

	s := script.NewDefault()
	vals := strings.Split(knobs, ",")
	if len(vals) != siren.NumKnobs {
		return nil, fmt.Errorf("-knobs needs %d values, got %d", siren.NumKnobs, len(vals))
	}
	for i, raw := range vals {
		v, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
		if err != nil || v < 0 || v > 1 {
			return nil, fmt.Errorf("-knobs[%d]=%q must be a number in [0,1]", i, raw)
		}
		s.Initial.Knobs[i] = v
	}
	for _, name := range strings.Split(switches, ",") {
		if strings.TrimSpace(name) == "" {
			continue
		}
		idx, err := script.SwitchIndex(name)
		if err != nil {
			return nil, err
		}
		s.Initial.Switches[idx] = true
	}
	return s, nil
}

// trimDecay cuts the tail after start once blockSize-long windows stay below
// threshold for several blocks in a row.
func trimDecay(samples []float32, start, blockSize int, threshold float64) []float32 {
	const holdBlocks = 6
	below := 0
	for pos := 2 * start; pos < len(samples); pos += 2 * blockSize {
		end := pos + 2*blockSize
		if end > len(samples) {
			end = len(samples)
		}
		if wavio.RMS(samples[pos:end]) < threshold {
			below++
			if below >= holdBlocks {
				return samples[:end]
			}
		} else {
			below = 0
		}
	}
	return samples
}

func describe(path string) string {
	if path == "" {
		return "fixed panel"
	}
	return path
}
