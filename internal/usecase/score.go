package usecase

import (
	"crypto/sha256"
	"encoding/hex"
	"math"

	"github.com/fairyhunter13/essay-evaluator/internal/domain"
)

// Aggregation weights. Fixed and documented: grammar correctness 40%,
// linguistic quality 30%, originality (inverse AI likelihood) 30%.
const (
	weightGrammar     = 0.40
	weightLinguistic  = 0.30
	weightOriginality = 0.30
)

// AggregateScore combines the three analyzer outputs into one bounded
// score in [0,100]. It is a pure deterministic function of its inputs.
//
// Monotonicity: the grammar component decreases with error density
// (errors per 100 tokens); the originality component decreases with
// AI confidence above aiHighThreshold; the linguistic component is a
// plateau over the 8-30 token average-sentence-length band with a
// saturating entity bonus, so extra entities or longer well-formed
// sentences inside the band never lower the score.
func AggregateScore(issues []domain.GrammarIssue, stats domain.LinguisticStats, det domain.AIDetection, aiHighThreshold float64) float64 {
	g := grammarComponent(len(issues), stats.TokenCount)
	l := linguisticComponent(stats)
	o := originalityComponent(det.Confidence, aiHighThreshold)
	return clamp(weightGrammar*g+weightLinguistic*l+weightOriginality*o, 0, 100)
}

func grammarComponent(errors, tokens int) float64 {
	if tokens == 0 {
		if errors == 0 {
			return 100
		}
		return 0
	}
	density := 100 * float64(errors) / float64(tokens)
	return clamp(100-10*density, 0, 100)
}

func linguisticComponent(stats domain.LinguisticStats) float64 {
	base := 100.0
	avg := stats.AvgSentenceLength
	switch {
	case stats.SentenceCount == 0:
		base = 0
	case avg < 8:
		base = 100 * avg / 8
	case avg > 30:
		base = clamp(100-2*(avg-30), 40, 100)
	}
	bonus := math.Min(float64(stats.EntityCount)*2, 10)
	return clamp(base+bonus, 0, 100)
}

func originalityComponent(confidence, high float64) float64 {
	if high >= 1 || confidence <= high {
		return 100
	}
	return clamp(100*(1-(confidence-high)/(1-high)), 0, 100)
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

// Fingerprint identifies the normalized text a result was computed
// from, so essay submission can detect stale or mismatched evaluations.
func Fingerprint(normalizedText string) string {
	h := sha256.Sum256([]byte(normalizedText))
	return hex.EncodeToString(h[:])
}
