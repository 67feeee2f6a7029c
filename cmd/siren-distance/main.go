package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/cwbudde/algo-siren/analysis"
	"github.com/cwbudde/algo-siren/internal/wavio"
	"github.com/cwbudde/algo-siren/script"
)

func main() {
	referencePath := flag.String("reference", "reference/siren.wav", "Reference WAV path")
	candidatePath := flag.String("candidate", "", "Candidate WAV path; if empty, render the candidate from -script")
	scriptPath := flag.String("script", "", "Control script (.json or .lua) for the rendered candidate")
	sampleRate := flag.Int("sample-rate", 48000, "Analysis sample rate in Hz")
	writeCandidate := flag.String("write-candidate", "", "Optional path to write the rendered candidate WAV")
	jsonOut := flag.Bool("json", false, "Print metrics as JSON")
	flag.Parse()

	ref, err := wavio.ReadMonoAt(*referencePath, *sampleRate)
	if err != nil {
		die("failed to read reference: %v", err)
	}

	var cand []float64
	if *candidatePath != "" {
		cand, err = wavio.ReadMonoAt(*candidatePath, *sampleRate)
		if err != nil {
			die("failed to read candidate: %v", err)
		}
	} else {
		if *scriptPath == "" {
			die("either -candidate or -script is required")
		}
		stereo, err := renderCandidate(*scriptPath, *sampleRate)
		if err != nil {
			die("failed to render candidate: %v", err)
		}
		cand = wavio.StereoToMono(stereo)
		if *writeCandidate != "" {
			if err := wavio.WriteStereoInterleaved(*writeCandidate, stereo, *sampleRate); err != nil {
				die("failed to write candidate wav: %v", err)
			}
		}
	}

	metrics := analysis.Compare(ref, cand, *sampleRate)
	if *jsonOut {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(metrics); err != nil {
			die("json encode failed: %v", err)
		}
		return
	}

	fmt.Printf("Reference frames: %d\n", metrics.ReferenceFrames)
	fmt.Printf("Candidate frames: %d\n", metrics.CandidateFrames)
	fmt.Printf("Aligned frames:   %d\n", metrics.AlignedFrames)
	fmt.Printf("Lag:              %d samples (%.3f ms)\n", metrics.LagSamples, 1000.0*float64(metrics.LagSamples)/float64(metrics.SampleRate))
	fmt.Println()
	fmt.Printf("Envelope RMSE:    %.2f dB\n", metrics.EnvelopeRMSEDB)
	fmt.Printf("Spectral RMSE:    %.2f dB\n", metrics.SpectralRMSEDB)
	fmt.Printf("Pitch RMSE:       %.1f cents (ref %.1f Hz, cand %.1f Hz)\n", metrics.PitchRMSECents, metrics.RefMeanPitchHz, metrics.CandMeanPitchHz)
	fmt.Printf("Score:            %.4f  (0 best, 1 worst)\n", metrics.Score)
	fmt.Printf("Similarity:       %.2f%%\n", metrics.Similarity*100.0)
}

func renderCandidate(path string, sampleRate int) ([]float32, error) {
	var (
		s   *script.Script
		err error
	)
	if strings.HasSuffix(strings.ToLower(path), ".lua") {
		s, err = script.LoadLua(path)
	} else {
		s, err = script.LoadJSON(path)
	}
	if err != nil {
		return nil, err
	}
	if s.SampleRate != float64(sampleRate) {
		return nil, fmt.Errorf("script sample rate %g differs from -sample-rate %d", s.SampleRate, sampleRate)
	}
	return script.Render(s, nil)
}

func die(format string, args ...any) {
	fmt.Fprintf(os.Stderr, format+"\n", args...)
	os.Exit(1)
}
