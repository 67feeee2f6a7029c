package analysis

import (
	"math"
)

const (
	frameSize = 2048
	frameHop  = 1024
)

// Metrics contains distance and similarity measurements between two siren recordings.
type Metrics struct {
	SampleRate int `json:"sample_rate"`

	ReferenceFrames int `json:"reference_frames"`
	CandidateFrames int `json:"candidate_frames"`
	AlignedFrames   int `json:"aligned_frames"`
	LagSamples      int `json:"lag_samples"`

	EnvelopeRMSEDB  float64 `json:"envelope_rmse_db"`
	SpectralRMSEDB  float64 `json:"spectral_rmse_db"`
	PitchRMSECents  float64 `json:"pitch_rmse_cents"`
	RefMeanPitchHz  float64 `json:"ref_mean_pitch_hz"`
	CandMeanPitchHz float64 `json:"cand_mean_pitch_hz"`

	Score      float64 `json:"score"`
	Similarity float64 `json:"similarity"`
}

// Compare returns objective distance metrics and a combined score in [0,1]
// (0 = identical).
func Compare(reference []float64, candidate []float64, sampleRate int) Metrics {
	m := Metrics{
		SampleRate:      sampleRate,
		ReferenceFrames: len(reference),
		CandidateFrames: len(candidate),
		Score:           1,
	}
	if sampleRate <= 0 || len(reference) == 0 || len(candidate) == 0 {
		return m
	}

	ref := trimLeadingSilence(reference, 1e-6)
	cand := trimLeadingSilence(candidate, 1e-6)
	if len(ref) == 0 || len(cand) == 0 {
		return m
	}
	ref = normalizeRMS(ref, 0.1)
	cand = normalizeRMS(cand, 0.1)

	maxLag := sampleRate / 10
	if maxLag > len(ref)-1 {
		maxLag = len(ref) - 1
	}
	if maxLag > len(cand)-1 {
		maxLag = len(cand) - 1
	}
	if maxLag < 1 {
		maxLag = 1
	}
	m.LagSamples = estimateLag(ref, cand, maxLag)

	refA, candA := alignByLag(ref, cand, m.LagSamples)
	n := len(refA)
	if len(candA) < n {
		n = len(candA)
	}
	if n < frameSize {
		return m
	}
	if maxFrames := sampleRate * 20; n > maxFrames {
		n = maxFrames
	}
	refA = refA[:n]
	candA = candA[:n]
	m.AlignedFrames = n

	refEnv := rmsEnvelope(refA, 256, 128)
	candEnv := rmsEnvelope(candA, 256, 128)
	envN := len(refEnv)
	if len(candEnv) < envN {
		envN = len(candEnv)
	}
	if envN > 0 {
		diff := make([]float64, envN)
		for i := 0; i < envN; i++ {
			diff[i] = linToDB(refEnv[i]) - linToDB(candEnv[i])
		}
		m.EnvelopeRMSEDB = rms1(diff)
	}

	an, err := NewAnalyzer(frameSize, sampleRate)
	if err != nil {
		return m
	}
	m.SpectralRMSEDB, m.PitchRMSECents, m.RefMeanPitchHz, m.CandMeanPitchHz = spectralAndPitch(an, refA, candA)

	envNorm := clamp01(m.EnvelopeRMSEDB / 30.0)
	specNorm := clamp01(m.SpectralRMSEDB / 30.0)
	pitchNorm := clamp01(m.PitchRMSECents / 1200.0)
	m.Score = clamp01(0.25*envNorm + 0.35*specNorm + 0.40*pitchNorm)
	m.Similarity = clamp01(math.Exp(-4.0 * m.Score))
	return m
}

// spectralAndPitch walks both signals frame by frame. It returns the RMS dB distance
// of the averaged magnitude spectra, the RMS pitch distance in cents over frames where
// both signals are audible, and the mean frame pitch of each signal.
func spectralAndPitch(an *Analyzer, ref []float64, cand []float64) (specDB, pitchCents, refHz, candHz float64) {
	bins := an.Size()/2 + 1
	avgRef := make([]float64, bins)
	avgCand := make([]float64, bins)
	magRef := make([]float64, bins)
	magCand := make([]float64, bins)

	var frames, pitched int
	var centsSum, refSum, candSum float64
	for pos := 0; pos+an.Size() <= len(ref); pos += frameHop {
		magRef = an.Magnitudes(magRef, ref[pos:pos+an.Size()])
		magCand = an.Magnitudes(magCand, cand[pos:pos+an.Size()])
		for k := 0; k < bins; k++ {
			avgRef[k] += magRef[k]
			avgCand[k] += magCand[k]
		}
		frames++

		if rms1(ref[pos:pos+an.Size()]) < 1e-4 || rms1(cand[pos:pos+an.Size()]) < 1e-4 {
			continue
		}
		rf := Spectrum{SampleRate: an.sampleRate, Size: an.Size(), Mag: magRef}.PeakFrequency(20)
		cf := Spectrum{SampleRate: an.sampleRate, Size: an.Size(), Mag: magCand}.PeakFrequency(20)
		if rf <= 0 || cf <= 0 {
			continue
		}
		c := 1200 * math.Log2(cf/rf)
		centsSum += c * c
		refSum += rf
		candSum += cf
		pitched++
	}
	if frames == 0 {
		return 0, 0, 0, 0
	}

	var sum float64
	for k := 1; k < bins; k++ {
		d := linToDB(avgRef[k]/float64(frames)) - linToDB(avgCand[k]/float64(frames))
		sum += d * d
	}
	specDB = math.Sqrt(sum / float64(bins-1))
	if pitched > 0 {
		pitchCents = math.Sqrt(centsSum / float64(pitched))
		refHz = refSum / float64(pitched)
		candHz = candSum / float64(pitched)
	}
	return specDB, pitchCents, refHz, candHz
}

func trimLeadingSilence(x []float64, threshold float64) []float64 {
	for i := 0; i < len(x); i++ {
		if math.Abs(x[i]) > threshold {
			return x[i:]
		}
	}
	return nil
}

func normalizeRMS(x []float64, target float64) []float64 {
	if len(x) == 0 {
		return x
	}
	r := rms1(x)
	if r <= 1e-12 {
		return append([]float64(nil), x...)
	}
	g := target / r
	out := make([]float64, len(x))
	for i := range x {
		out[i] = x[i] * g
	}
	return out
}

func estimateLag(ref []float64, cand []float64, maxLag int) int {
	if len(ref) == 0 || len(cand) == 0 {
		return 0
	}
	step := 2
	if len(ref) > 200000 || len(cand) > 200000 {
		step = 4
	}
	bestLag := 0
	best := math.Inf(-1)
	for lag := -maxLag; lag <= maxLag; lag++ {
		s := dotAtLag(ref, cand, lag, step)
		if s > best {
			best = s
			bestLag = lag
		}
	}
	return bestLag
}

func dotAtLag(a []float64, b []float64, lag int, step int) float64 {
	var ai, bi int
	if lag >= 0 {
		ai = lag
	} else {
		bi = -lag
	}
	n := len(a) - ai
	if len(b)-bi < n {
		n = len(b) - bi
	}
	var sum float64
	for i := 0; i < n; i += step {
		sum += a[ai+i] * b[bi+i]
	}
	return sum
}

func alignByLag(ref []float64, cand []float64, lag int) ([]float64, []float64) {
	if lag >= 0 {
		if lag >= len(ref) {
			return nil, nil
		}
		return ref[lag:], cand
	}
	o := -lag
	if o >= len(cand) {
		return nil, nil
	}
	return ref, cand[o:]
}

func rms1(x []float64) float64 {
	if len(x) == 0 {
		return 0
	}
	var sum float64
	for _, v := range x {
		sum += v * v
	}
	return math.Sqrt(sum / float64(len(x)))
}

func rmsEnvelope(x []float64, frame int, hop int) []float64 {
	if frame <= 0 || hop <= 0 || len(x) < frame {
		return nil
	}
	n := 1 + (len(x)-frame)/hop
	out := make([]float64, n)
	for i := 0; i < n; i++ {
		start := i * hop
		out[i] = rms1(x[start : start+frame])
	}
	return out
}

func linToDB(x float64) float64 {
	if x < 1e-12 {
		x = 1e-12
	}
	return 20.0 * math.Log10(x)
}

func clamp01(x float64) float64 {
	if x < 0 {
		return 0
	}
	if x > 1 {
		return 1
	}
	return x
}
