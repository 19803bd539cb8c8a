package postgres

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"github.com/fairyhunter13/essay-evaluator/internal/domain"
)

// EssayRepo persists essays with their attached evaluation as JSONB.
type EssayRepo struct{ Pool PgxPool }

// NewEssayRepo constructs an EssayRepo with the given pool.
func NewEssayRepo(p PgxPool) *EssayRepo { return &EssayRepo{Pool: p} }

// evalRecord is the stored form of an EvaluationResult.
type evalRecord struct {
	OverallScore       float64               `json:"overall_score"`
	GrammarIssues      []domain.GrammarIssue `json:"grammar_issues"`
	TotalGrammarErrors int                   `json:"total_grammar_errors"`
	SentenceCount      int                   `json:"num_sentences"`
	TokenCount         int                   `json:"num_tokens"`
	AvgSentenceLength  float64               `json:"avg_sentence_length"`
	EntityCount        int                   `json:"num_entities"`
	AILabel            string                `json:"ai_detection_label"`
	AIConfidence       float64               `json:"ai_detection_score"`
	TextPreview        string                `json:"text_preview"`
	DocumentSHA        string                `json:"document_sha"`
	CreatedAt          time.Time             `json:"created_at"`
}

func toRecord(ev domain.EvaluationResult) evalRecord {
	return evalRecord{
		OverallScore:       ev.OverallScore,
		GrammarIssues:      ev.GrammarIssues,
		TotalGrammarErrors: ev.TotalGrammarErrors,
		SentenceCount:      ev.Linguistics.SentenceCount,
		TokenCount:         ev.Linguistics.TokenCount,
		AvgSentenceLength:  ev.Linguistics.AvgSentenceLength,
		EntityCount:        ev.Linguistics.EntityCount,
		AILabel:            ev.AIDetection.Label,
		AIConfidence:       ev.AIDetection.Confidence,
		TextPreview:        ev.TextPreview,
		DocumentSHA:        ev.DocumentSHA,
		CreatedAt:          ev.CreatedAt,
	}
}

func (rec evalRecord) toDomain() domain.EvaluationResult {
	return domain.EvaluationResult{
		OverallScore:       rec.OverallScore,
		GrammarIssues:      rec.GrammarIssues,
		TotalGrammarErrors: rec.TotalGrammarErrors,
		Linguistics: domain.LinguisticStats{
			SentenceCount:     rec.SentenceCount,
			TokenCount:        rec.TokenCount,
			AvgSentenceLength: rec.AvgSentenceLength,
			EntityCount:       rec.EntityCount,
		},
		AIDetection: domain.AIDetection{Label: rec.AILabel, Confidence: rec.AIConfidence},
		TextPreview: rec.TextPreview,
		DocumentSHA: rec.DocumentSHA,
		CreatedAt:   rec.CreatedAt,
	}
}

// Create stores a new essay and returns its id (generates one if empty).
func (r *EssayRepo) Create(ctx domain.Context, e domain.Essay) (string, error) {
	ctx, span := otel.Tracer("repo.essays").Start(ctx, "essays.Create")
	defer span.End()
	span.SetAttributes(attribute.String("db.sql.table", "essays"))
	id := e.ID
	if id == "" {
		id = uuid.New().String()
	}
	evalJSON, err := json.Marshal(toRecord(e.Evaluation))
	if err != nil {
		return "", fmt.Errorf("op=essay.create: %w", err)
	}
	q := `INSERT INTO essays (id, author_id, caption, content, visibility, evaluation, version, created_at, updated_at)
	      VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)`
	if _, err := r.Pool.Exec(ctx, q, id, e.AuthorID, e.Caption, e.Content, e.Visibility, evalJSON, e.Version, e.CreatedAt, e.UpdatedAt); err != nil {
		return "", fmt.Errorf("op=essay.create: %w", err)
	}
	return id, nil
}

// Get loads an essay by id.
func (r *EssayRepo) Get(ctx domain.Context, id string) (domain.Essay, error) {
	ctx, span := otel.Tracer("repo.essays").Start(ctx, "essays.Get")
	defer span.End()
	q := `SELECT id, author_id, caption, content, visibility, evaluation, version, created_at, updated_at FROM essays WHERE id=$1`
	return scanEssay(r.Pool.QueryRow(ctx, q, id))
}

// Replace writes the next version of an essay. The stored version must
// match e.Version; otherwise the record changed since the caller loaded
// it and the write is rejected with ErrConflict.
func (r *EssayRepo) Replace(ctx domain.Context, e domain.Essay) (domain.Essay, error) {
	ctx, span := otel.Tracer("repo.essays").Start(ctx, "essays.Replace")
	defer span.End()
	q := `UPDATE essays SET caption=$1, visibility=$2, version=version+1, updated_at=$3
	      WHERE id=$4 AND version=$5`
	tag, err := r.Pool.Exec(ctx, q, e.Caption, e.Visibility, e.UpdatedAt, e.ID, e.Version)
	if err != nil {
		return domain.Essay{}, fmt.Errorf("op=essay.replace: %w", err)
	}
	if tag.RowsAffected() == 0 {
		if _, err := r.Get(ctx, e.ID); err != nil {
			return domain.Essay{}, err
		}
		return domain.Essay{}, fmt.Errorf("%w: essay version changed", domain.ErrConflict)
	}
	return r.Get(ctx, e.ID)
}

// Delete removes an essay by id.
func (r *EssayRepo) Delete(ctx domain.Context, id string) error {
	ctx, span := otel.Tracer("repo.essays").Start(ctx, "essays.Delete")
	defer span.End()
	tag, err := r.Pool.Exec(ctx, `DELETE FROM essays WHERE id=$1`, id)
	if err != nil {
		return fmt.Errorf("op=essay.delete: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w: essay", domain.ErrNotFound)
	}
	return nil
}

// Feed lists essays visible to viewerID, newest first: public essays,
// the viewer's own, and friends-only essays from the viewer's friends.
func (r *EssayRepo) Feed(ctx domain.Context, viewerID string, limit int) ([]domain.Essay, error) {
	ctx, span := otel.Tracer("repo.essays").Start(ctx, "essays.Feed")
	defer span.End()
	q := `SELECT id, author_id, caption, content, visibility, evaluation, version, created_at, updated_at
	      FROM essays
	      WHERE visibility = 'public'
	         OR author_id = $1
	         OR (visibility = 'friends' AND EXISTS (
	               SELECT 1 FROM friendships f WHERE f.user_id = author_id AND f.friend_id = $1))
	      ORDER BY created_at DESC
	      LIMIT $2`
	rows, err := r.Pool.Query(ctx, q, viewerID, limit)
	if err != nil {
		return nil, fmt.Errorf("op=essay.feed: %w", err)
	}
	defer rows.Close()
	var out []domain.Essay
	for rows.Next() {
		e, err := scanEssay(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("op=essay.feed: %w", err)
	}
	return out, nil
}

func scanEssay(row pgx.Row) (domain.Essay, error) {
	var (
		e        domain.Essay
		evalJSON []byte
	)
	if err := row.Scan(&e.ID, &e.AuthorID, &e.Caption, &e.Content, &e.Visibility, &evalJSON, &e.Version, &e.CreatedAt, &e.UpdatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.Essay{}, fmt.Errorf("%w: essay", domain.ErrNotFound)
		}
		return domain.Essay{}, fmt.Errorf("op=essay.scan: %w", err)
	}
	var rec evalRecord
	if err := json.Unmarshal(evalJSON, &rec); err != nil {
		return domain.Essay{}, fmt.Errorf("op=essay.scan: %w", err)
	}
	e.Evaluation = rec.toDomain()
	return e, nil
}
