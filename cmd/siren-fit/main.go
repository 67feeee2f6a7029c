package main

import (
	"flag"
	"fmt"
	"math"
	"os"
	"strings"

	"github.com/cwbudde/algo-siren/internal/wavio"
	"github.com/cwbudde/algo-siren/script"
	"github.com/cwbudde/algo-siren/siren"
)

func main() {
	referencePath := flag.String("reference", "reference/siren.wav", "Reference WAV path")
	scriptPath := flag.String("script", "", "Base control script (.json or .lua); switches, timing and unfitted knobs come from here")
	fitKnobs := flag.String("knobs", "all", "Comma-separated knobs to fit (names or slots) or 'all'")
	outputScript := flag.String("output-script", "out/fitted.json", "Path to write the fitted control script")
	outputWAV := flag.String("output-wav", "", "Optional path to write the best render")
	reportPath := flag.String("report", "", "Optional report JSON path (default: <output-script>.report.json)")
	seed := flag.Int64("seed", 1, "Random seed")
	timeBudget := flag.Float64("time-budget", 60.0, "Optimization time budget in seconds")
	maxEvals := flag.Int("max-evals", 2000, "Maximum objective evaluations")
	reportEvery := flag.Int("report-every", 20, "Print progress every N evaluations")
	topK := flag.Int("top-k", 5, "How many top candidates to keep in report")
	workers := flag.String("workers", "1", "Parallel workers running independent Mayfly rounds (number or 'auto')")
	mayflyVariant := flag.String("mayfly-variant", "desma", "Mayfly variant: ma|desma|olce|eobbma|gsasma|mpma|aoblmoa")
	mayflyPop := flag.Int("mayfly-pop", 10, "Male and female population size per Mayfly run")
	mayflyRoundEvals := flag.Int("mayfly-round-evals", 240, "Target eval budget per Mayfly round")
	flag.Parse()

	if *maxEvals < 1 {
		die("max-evals must be >= 1")
	}
	if *timeBudget <= 0 {
		die("time-budget must be > 0")
	}
	if *outputScript == "" {
		die("output-script must not be empty")
	}
	if *reportEvery < 1 {
		*reportEvery = 1
	}
	if *topK < 1 {
		*topK = 1
	}
	if *mayflyPop < 2 {
		*mayflyPop = 2
	}
	if *mayflyRoundEvals < *mayflyPop*2 {
		*mayflyRoundEvals = *mayflyPop * 2
	}
	nWorkers, err := wavio.ParseWorkers(*workers)
	if err != nil {
		die("invalid workers value: %v", err)
	}
	defs, err := parseFitKnobs(*fitKnobs)
	if err != nil {
		die("invalid -knobs: %v", err)
	}

	base, err := loadBase(*scriptPath)
	if err != nil {
		die("failed to load script: %v", err)
	}
	sr := int(math.Round(base.SampleRate))
	reference, err := wavio.ReadMonoAt(*referencePath, sr)
	if err != nil {
		die("failed to read reference: %v", err)
	}
	if *scriptPath == "" {
		base.Duration = float64(len(reference)) / base.SampleRate
	}

	fmt.Printf("Fitting %d knobs against %s (%.2fs at %d Hz)\n", len(defs), *referencePath, base.Duration, sr)

	cfg := &optimizationConfig{
		reference:        reference,
		base:             base,
		defs:             defs,
		initCandidate:    initCandidate(base, defs),
		seed:             *seed,
		timeBudget:       *timeBudget,
		maxEvals:         *maxEvals,
		reportEvery:      *reportEvery,
		mayflyVariant:    *mayflyVariant,
		mayflyPop:        *mayflyPop,
		mayflyRoundEvals: *mayflyRoundEvals,
		workers:          nWorkers,
		topK:             *topK,
	}
	result, err := runOptimization(cfg)
	if err != nil {
		die("optimization failed: %v", err)
	}

	variant := strings.ToLower(*mayflyVariant)
	oc := outputConfig{
		referencePath: *referencePath,
		scriptPath:    *scriptPath,
		outputScript:  *outputScript,
		outputWAV:     *outputWAV,
		reportPath:    *reportPath,
		variant:       variant,
	}
	if err := writeOutputs(oc, base, defs, result); err != nil {
		die("failed to write outputs: %v", err)
	}

	fmt.Printf("Done evals=%d elapsed=%.1fs best_score=%.4f best_similarity=%.2f%% variant=%s\n", result.evals, result.elapsed, result.bestMetrics.Score, result.bestMetrics.Similarity*100.0, variant)
}

// loadBase loads the base script, or a panel with the regular switch held and every
// knob centred when path is empty.
func loadBase(path string) (*script.Script, error) {
	switch {
	case path == "":
		s := script.NewDefault()
		s.Initial.Switches[siren.SwitchRegular] = true
		for i := range s.Initial.Knobs {
			s.Initial.Knobs[i] = 0.5
		}
		return s, nil
	case strings.HasSuffix(strings.ToLower(path), ".lua"):
		return script.LoadLua(path)
	default:
		return script.LoadJSON(path)
	}
}

func die(format string, args ...any) {
	fmt.Fprintf(os.Stderr, format+"\n", args...)
	os.Exit(1)
}
