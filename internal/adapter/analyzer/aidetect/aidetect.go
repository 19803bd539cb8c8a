// Package aidetect scores text for likelihood of machine-generated
// origin. The classifier is a deterministic stylometric heuristic:
// machine text tends toward uniform sentence lengths, lower lexical
// diversity, and more repeated word pairs. Confidence is mapped to a
// label through two configurable cut points.
package aidetect

import (
	"fmt"
	"math"
	"strings"
	"sync"

	tiktoken "github.com/pkoukk/tiktoken-go"

	"github.com/fairyhunter13/essay-evaluator/internal/domain"
	"github.com/fairyhunter13/essay-evaluator/pkg/textx"
)

// Config carries the classification thresholds. Confidence at or below
// Low labels "human", at or above High labels "ai-generated", anything
// between is "uncertain". Texts under MinTokens tokens are rejected.
type Config struct {
	Low       float64
	High      float64
	MinTokens int
}

// DefaultConfig matches the service defaults.
func DefaultConfig() Config { return Config{Low: 0.35, High: 0.65, MinTokens: 20} }

// Classifier implements domain.AIClassifier.
type Classifier struct {
	cfg Config

	encOnce sync.Once
	enc     *tiktoken.Tiktoken
	encErr  error
}

// New constructs a Classifier. The tiktoken encoding is loaded lazily
// on first use.
func New(cfg Config) *Classifier {
	if cfg.High < cfg.Low {
		cfg.High = cfg.Low
	}
	return &Classifier{cfg: cfg}
}

func (c *Classifier) encoding() (*tiktoken.Tiktoken, error) {
	c.encOnce.Do(func() {
		c.enc, c.encErr = tiktoken.GetEncoding("cl100k_base")
	})
	return c.enc, c.encErr
}

// Classify returns the machine-generated likelihood in [0,1] and its
// thresholded label. Fails with ErrInsufficientText below the minimum
// token count rather than guessing on short input.
func (c *Classifier) Classify(text string) (domain.AIDetection, error) {
	enc, err := c.encoding()
	if err != nil {
		return domain.AIDetection{}, fmt.Errorf("op=aidetect.encoding: %w", err)
	}
	n := len(enc.Encode(text, nil, nil))
	if n < c.cfg.MinTokens {
		return domain.AIDetection{}, fmt.Errorf("%w: %d tokens, need at least %d", domain.ErrInsufficientText, n, c.cfg.MinTokens)
	}
	conf := confidence(text)
	return domain.AIDetection{Label: c.label(conf), Confidence: conf}, nil
}

func (c *Classifier) label(conf float64) string {
	switch {
	case conf <= c.cfg.Low:
		return domain.AILabelHuman
	case conf >= c.cfg.High:
		return domain.AILabelGenerated
	default:
		return domain.AILabelUncertain
	}
}

// confidence combines three signals:
//
//	uniformity  = 1 - min(cv/0.6, 1)   cv: coefficient of variation of sentence lengths
//	flatness    = 1 - type/token ratio
//	repetition  = 1 - unique bigrams / total bigrams
//
// weighted 0.5 / 0.3 / 0.2 and clamped to [0,1].
func confidence(text string) float64 {
	tokens := textx.Tokens(text)
	sentences := textx.Sentences(text)

	uniformity := 1 - math.Min(sentenceLengthCV(sentences)/0.6, 1)
	flatness := 1 - typeTokenRatio(tokens)
	repetition := bigramRepetition(tokens)

	conf := 0.5*uniformity + 0.3*flatness + 0.2*repetition
	return math.Max(0, math.Min(1, conf))
}

func sentenceLengthCV(sentences []string) float64 {
	if len(sentences) == 0 {
		return 0
	}
	lengths := make([]float64, len(sentences))
	var sum float64
	for i, s := range sentences {
		lengths[i] = float64(len(textx.Tokens(s)))
		sum += lengths[i]
	}
	mean := sum / float64(len(lengths))
	if mean == 0 {
		return 0
	}
	var sq float64
	for _, l := range lengths {
		d := l - mean
		sq += d * d
	}
	return math.Sqrt(sq/float64(len(lengths))) / mean
}

func typeTokenRatio(tokens []string) float64 {
	if len(tokens) == 0 {
		return 1
	}
	seen := make(map[string]struct{}, len(tokens))
	for _, t := range tokens {
		seen[strings.ToLower(t)] = struct{}{}
	}
	return float64(len(seen)) / float64(len(tokens))
}

func bigramRepetition(tokens []string) float64 {
	if len(tokens) < 2 {
		return 0
	}
	total := len(tokens) - 1
	seen := make(map[string]struct{}, total)
	for i := 0; i < total; i++ {
		seen[strings.ToLower(tokens[i])+" "+strings.ToLower(tokens[i+1])] = struct{}{}
	}
	return 1 - float64(len(seen))/float64(total)
}
