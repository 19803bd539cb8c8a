// Package usecase contains application business logic services.
package usecase

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"

	"github.com/fairyhunter13/essay-evaluator/internal/domain"
	"github.com/fairyhunter13/essay-evaluator/internal/observability"
	"github.com/fairyhunter13/essay-evaluator/pkg/textx"
)

// EvaluateService orchestrates one document evaluation: extract, then
// the three analyzers concurrently over the same immutable text, then
// aggregation. It holds no per-request state and is safe to invoke
// concurrently for different documents.
type EvaluateService struct {
	Extractor  domain.TextExtractor
	Grammar    domain.GrammarAnalyzer
	Linguist   domain.LinguisticProfiler
	Classifier domain.AIClassifier

	// Timeout bounds a whole evaluation; zero disables the deadline.
	Timeout time.Duration
	// AIHighThreshold is the "ai-generated" cut point used by the
	// score aggregator's originality component.
	AIHighThreshold float64
	// PreviewLen is the number of runes included in TextPreview.
	PreviewLen int
}

// NewEvaluateService constructs an EvaluateService.
func NewEvaluateService(ex domain.TextExtractor, g domain.GrammarAnalyzer, l domain.LinguisticProfiler, c domain.AIClassifier, timeout time.Duration, aiHigh float64, previewLen int) EvaluateService {
	if previewLen <= 0 {
		previewLen = 300
	}
	return EvaluateService{
		Extractor:       ex,
		Grammar:         g,
		Linguist:        l,
		Classifier:      c,
		Timeout:         timeout,
		AIHighThreshold: aiHigh,
		PreviewLen:      previewLen,
	}
}

// Evaluate turns one Document into one EvaluationResult. Fail-fast: the
// first stage error aborts the evaluation and no partial result is ever
// returned. A deadline overrun surfaces as ErrEvaluationTimeout.
func (s EvaluateService) Evaluate(ctx domain.Context, doc domain.Document) (domain.EvaluationResult, error) {
	if s.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.Timeout)
		defer cancel()
	}

	exCtx, span := stageSpan(ctx, "evaluate.extract")
	span.SetAttributes(attribute.String("document.filename", doc.Filename))
	text, err := s.Extractor.Extract(exCtx, doc.Filename, doc.Data)
	span.End()
	if err != nil {
		return domain.EvaluationResult{}, s.mapErr(ctx, fmt.Errorf("extract: %w", err))
	}

	var (
		issues []domain.GrammarIssue
		stats  domain.LinguisticStats
		det    domain.AIDetection
	)
	// The analyzers share the immutable normalized text and have no
	// data dependency on each other; results are joined before
	// aggregation and any failure aborts the whole evaluation.
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		_, sp := stageSpan(gctx, "evaluate.grammar")
		defer sp.End()
		issues = s.Grammar.Analyze(text)
		return gctx.Err()
	})
	g.Go(func() error {
		_, sp := stageSpan(gctx, "evaluate.linguistics")
		defer sp.End()
		stats = s.Linguist.Profile(text)
		return gctx.Err()
	})
	g.Go(func() error {
		_, sp := stageSpan(gctx, "evaluate.classify")
		defer sp.End()
		var cerr error
		det, cerr = s.Classifier.Classify(text)
		return cerr
	})
	if err := g.Wait(); err != nil {
		return domain.EvaluationResult{}, s.mapErr(ctx, err)
	}

	return domain.EvaluationResult{
		OverallScore:       AggregateScore(issues, stats, det, s.AIHighThreshold),
		GrammarIssues:      issues,
		TotalGrammarErrors: len(issues),
		Linguistics:        stats,
		AIDetection:        det,
		TextPreview:        textx.Preview(text, s.PreviewLen),
		DocumentSHA:        Fingerprint(text),
		CreatedAt:          time.Now().UTC(),
	}, nil
}

// stageSpan opens a per-stage span, tagged with the originating HTTP
// request id so traces correlate with the request log lines.
func stageSpan(ctx context.Context, name string) (context.Context, trace.Span) {
	sctx, sp := otel.Tracer("usecase.evaluate").Start(ctx, name)
	if rid := observability.RequestIDFromContext(ctx); rid != "" {
		sp.SetAttributes(attribute.String("request_id", rid))
	}
	return sctx, sp
}

// mapErr converts deadline overruns into the timeout sentinel and
// passes every other stage error through unchanged.
func (s EvaluateService) mapErr(ctx context.Context, err error) error {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return fmt.Errorf("%w: evaluation exceeded %s", domain.ErrEvaluationTimeout, s.Timeout)
	}
	return err
}
