// Package httpserver contains HTTP handlers and middleware.
//
// It provides the REST API for the platform: essay evaluation upload,
// account/session endpoints, and the essay feed. HTTP concerns stay
// here; business logic lives in the usecase layer.
package httpserver

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/fairyhunter13/essay-evaluator/internal/domain"
)

type errorEnvelope struct {
	Error apiError `json:"error"`
}

type apiError struct {
	Code    string      `json:"code"`
	Message string      `json:"message"`
	Details interface{} `json:"details"`
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func statusFor(err error) (int, string) {
	switch {
	case errors.Is(err, domain.ErrInvalidArgument):
		return http.StatusBadRequest, "INVALID_ARGUMENT"
	case errors.Is(err, domain.ErrUnauthorized):
		return http.StatusUnauthorized, "UNAUTHORIZED"
	case errors.Is(err, domain.ErrForbidden):
		return http.StatusForbidden, "FORBIDDEN"
	case errors.Is(err, domain.ErrNotFound):
		return http.StatusNotFound, "NOT_FOUND"
	case errors.Is(err, domain.ErrStaleEvaluation):
		return http.StatusConflict, "STALE_EVALUATION"
	case errors.Is(err, domain.ErrConflict):
		return http.StatusConflict, "CONFLICT"
	case errors.Is(err, domain.ErrUnsupportedFormat):
		return http.StatusUnsupportedMediaType, "UNSUPPORTED_FORMAT"
	case errors.Is(err, domain.ErrCorruptDocument):
		return http.StatusBadRequest, "CORRUPT_DOCUMENT"
	case errors.Is(err, domain.ErrInsufficientText):
		return http.StatusUnprocessableEntity, "INSUFFICIENT_TEXT"
	case errors.Is(err, domain.ErrEvaluationTimeout):
		return http.StatusGatewayTimeout, "EVALUATION_TIMEOUT"
	default:
		return http.StatusInternalServerError, "INTERNAL"
	}
}

func writeError(w http.ResponseWriter, _ *http.Request, err error, details interface{}) {
	code, codeStr := statusFor(err)
	writeJSON(w, code, errorEnvelope{Error: apiError{Code: codeStr, Message: err.Error(), Details: details}})
}

// evaluationResponse is the canonical flat shape of the evaluation
// endpoint. On failure only success and error are populated; partial
// result fields are never mixed into an error response.
type evaluationResponse struct {
	Success            bool                  `json:"success"`
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

type evaluationFailure struct {
	Success bool   `json:"success"`
	Error   string `json:"error"`
}

func writeEvaluation(w http.ResponseWriter, res domain.EvaluationResult) {
	feedback := res.GrammarIssues
	if feedback == nil {
		feedback = []domain.GrammarIssue{}
	}
	writeJSON(w, http.StatusOK, evaluationResponse{
		Success:            true,
		Score:              res.OverallScore,
		TotalGrammarErrors: res.TotalGrammarErrors,
		ErrorFeedback:      feedback,
		NumSentences:       res.Linguistics.SentenceCount,
		NumTokens:          res.Linguistics.TokenCount,
		AvgSentenceLength:  res.Linguistics.AvgSentenceLength,
		NumEntities:        res.Linguistics.EntityCount,
		AIDetectionLabel:   res.AIDetection.Label,
		AIDetectionScore:   res.AIDetection.Confidence,
		TextPreview:        res.TextPreview,
		DocumentSHA:        res.DocumentSHA,
	})
}

func writeEvaluationError(w http.ResponseWriter, err error) {
	status, _ := statusFor(err)
	writeJSON(w, status, evaluationFailure{Success: false, Error: err.Error()})
}
