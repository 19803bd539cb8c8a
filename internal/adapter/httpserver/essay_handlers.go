package httpserver

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/fairyhunter13/essay-evaluator/internal/domain"
)

// evaluationPayload is the evaluation result as the client echoes it
// back on essay submission. It mirrors the evaluation endpoint's
// success shape; the fingerprint ties it to the submitted content.
type evaluationPayload struct {
	Score              float64               `json:"score"`
	TotalGrammarErrors int                   `json:"total_grammar_errors"`
	ErrorFeedback      []domain.GrammarIssue `json:"error_feedback"`
	NumSentences       int                   `json:"num_sentences"`
	NumTokens          int                   `json:"num_tokens"`
	AvgSentenceLength  float64               `json:"avg_sentence_length"`
	NumEntities        int                   `json:"num_entities"`
	AIDetectionLabel   string                `json:"ai_detection_label"`
	AIDetectionScore   float64               `json:"ai_detection_score"`
	TextPreview        string                `json:"text_preview"`
	DocumentSHA        string                `json:"document_sha"`
}

func (p evaluationPayload) toDomain() domain.EvaluationResult {
	return domain.EvaluationResult{
		OverallScore:       p.Score,
		GrammarIssues:      p.ErrorFeedback,
		TotalGrammarErrors: p.TotalGrammarErrors,
		Linguistics: domain.LinguisticStats{
			SentenceCount:     p.NumSentences,
			TokenCount:        p.NumTokens,
			AvgSentenceLength: p.AvgSentenceLength,
			EntityCount:       p.NumEntities,
		},
		AIDetection: domain.AIDetection{Label: p.AIDetectionLabel, Confidence: p.AIDetectionScore},
		TextPreview: p.TextPreview,
		DocumentSHA: p.DocumentSHA,
	}
}

type essayView struct {
	ID         string             `json:"id"`
	AuthorID   string             `json:"author_id"`
	Caption    string             `json:"caption"`
	Content    string             `json:"content"`
	Visibility string             `json:"visibility"`
	Evaluation evaluationResponse `json:"evaluation"`
	Version    int                `json:"version"`
	CreatedAt  string             `json:"created_at"`
	UpdatedAt  string             `json:"updated_at"`
}

func toEssayView(e domain.Essay) essayView {
	feedback := e.Evaluation.GrammarIssues
	if feedback == nil {
		feedback = []domain.GrammarIssue{}
	}
	return essayView{
		ID:         e.ID,
		AuthorID:   e.AuthorID,
		Caption:    e.Caption,
		Content:    e.Content,
		Visibility: e.Visibility,
		Evaluation: evaluationResponse{
			Success:            true,
			Score:              e.Evaluation.OverallScore,
			TotalGrammarErrors: e.Evaluation.TotalGrammarErrors,
			ErrorFeedback:      feedback,
			NumSentences:       e.Evaluation.Linguistics.SentenceCount,
			NumTokens:          e.Evaluation.Linguistics.TokenCount,
			AvgSentenceLength:  e.Evaluation.Linguistics.AvgSentenceLength,
			NumEntities:        e.Evaluation.Linguistics.EntityCount,
			AIDetectionLabel:   e.Evaluation.AIDetection.Label,
			AIDetectionScore:   e.Evaluation.AIDetection.Confidence,
			TextPreview:        e.Evaluation.TextPreview,
			DocumentSHA:        e.Evaluation.DocumentSHA,
		},
		Version:   e.Version,
		CreatedAt: e.CreatedAt.Format(time.RFC3339),
		UpdatedAt: e.UpdatedAt.Format(time.RFC3339),
	}
}

// CreateEssayHandler stores essay content together with the evaluation
// the client obtained for it.
func (s *Server) CreateEssayHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		r.Body = http.MaxBytesReader(w, r.Body, 2<<20)
		var req struct {
			Caption    string            `json:"caption" validate:"max=280"`
			Content    string            `json:"content" validate:"required"`
			Visibility string            `json:"visibility" validate:"required,oneof=public friends private"`
			Evaluation evaluationPayload `json:"evaluation"`
		}
		if err := decodeValidated(r, &req); err != nil {
			writeError(w, r, err, nil)
			return
		}
		e, err := s.Essays.Submit(r.Context(), UserFromContext(r.Context()), req.Caption, req.Visibility, req.Content, req.Evaluation.toDomain())
		if err != nil {
			writeError(w, r, err, nil)
			return
		}
		writeJSON(w, http.StatusCreated, map[string]any{"essay": toEssayView(e)})
	}
}

// GetEssayHandler returns one essay, subject to its visibility.
func (s *Server) GetEssayHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		e, err := s.Essays.Get(r.Context(), UserFromContext(r.Context()), chi.URLParam(r, "id"))
		if err != nil {
			writeError(w, r, err, nil)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"essay": toEssayView(e)})
	}
}

// FeedHandler lists essays visible to the viewer, newest first.
func (s *Server) FeedHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		limit := 0
		if raw := r.URL.Query().Get("limit"); raw != "" {
			limit, _ = strconv.Atoi(raw)
		}
		essays, err := s.Essays.Feed(r.Context(), UserFromContext(r.Context()), limit)
		if err != nil {
			writeError(w, r, err, nil)
			return
		}
		views := make([]essayView, 0, len(essays))
		for _, e := range essays {
			views = append(views, toEssayView(e))
		}
		writeJSON(w, http.StatusOK, map[string]any{"posts": views})
	}
}

// EditEssayHandler updates caption and visibility. Author only.
func (s *Server) EditEssayHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		r.Body = http.MaxBytesReader(w, r.Body, 1<<20)
		var req struct {
			Caption    string `json:"caption" validate:"max=280"`
			Visibility string `json:"visibility" validate:"omitempty,oneof=public friends private"`
		}
		if err := decodeValidated(r, &req); err != nil {
			writeError(w, r, err, nil)
			return
		}
		e, err := s.Essays.Edit(r.Context(), UserFromContext(r.Context()), chi.URLParam(r, "id"), req.Caption, req.Visibility)
		if err != nil {
			writeError(w, r, err, nil)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"essay": toEssayView(e)})
	}
}

// DeleteEssayHandler removes an essay. Author or admin.
func (s *Server) DeleteEssayHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := s.Essays.Delete(r.Context(), UserFromContext(r.Context()), chi.URLParam(r, "id")); err != nil {
			writeError(w, r, err, nil)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}
