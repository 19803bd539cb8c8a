package httpserver

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/gabriel-vasile/mimetype"
	"github.com/go-playground/validator/v10"

	"github.com/fairyhunter13/essay-evaluator/internal/config"
	"github.com/fairyhunter13/essay-evaluator/internal/domain"
	"github.com/fairyhunter13/essay-evaluator/internal/observability"
	"github.com/fairyhunter13/essay-evaluator/internal/usecase"
)

// Server aggregates handler dependencies.
type Server struct {
	Cfg        config.Config
	Evaluate   usecase.EvaluateService
	Essays     usecase.EssayService
	Friends    usecase.FriendService
	Auth       usecase.AuthService
	DBCheck    func(ctx context.Context) error
	RedisCheck func(ctx context.Context) error
}

// NewServer constructs an HTTP server with all handlers and checks wired.
func NewServer(cfg config.Config, eval usecase.EvaluateService, essays usecase.EssayService, friends usecase.FriendService, auth usecase.AuthService, dbCheck, redisCheck func(context.Context) error) *Server {
	return &Server{Cfg: cfg, Evaluate: eval, Essays: essays, Friends: friends, Auth: auth, DBCheck: dbCheck, RedisCheck: redisCheck}
}

var (
	vldOnce sync.Once
	vld     *validator.Validate
)

func getValidator() *validator.Validate {
	vldOnce.Do(func() { vld = validator.New() })
	return vld
}

// allowedExt enforces the upload allowlist: .txt, .docx
func allowedExt(name string) bool {
	n := strings.ToLower(name)
	return strings.HasSuffix(n, ".txt") || strings.HasSuffix(n, ".docx")
}

// allowedMIMEFor checks that sniffed content agrees with the declared
// extension. For .txt any text/* is accepted since detectors sometimes
// misclassify rich plain text.
func allowedMIMEFor(m, filename string) bool {
	m = strings.ToLower(m)
	if strings.HasSuffix(strings.ToLower(filename), ".txt") {
		return strings.HasPrefix(m, "text/")
	}
	// .docx: the OOXML MIME, or a bare zip from sniffers that don't
	// descend into the container
	return m == "application/vnd.openxmlformats-officedocument.wordprocessingml.document" || m == "application/zip"
}

// UploadEssayHandler runs one synchronous evaluation over the uploaded
// document and responds with the canonical flat evaluation shape.
// Failures use success=false with an error message only, never partial
// result fields.
func (s *Server) UploadEssayHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !strings.Contains(r.Header.Get("Content-Type"), "multipart/form-data") {
			writeEvaluationError(w, fmt.Errorf("%w: content-type must be multipart/form-data", domain.ErrInvalidArgument))
			return
		}
		maxBytes := s.Cfg.MaxUploadMB * 1024 * 1024
		r.Body = http.MaxBytesReader(w, r.Body, maxBytes)
		if err := r.ParseMultipartForm(maxBytes); err != nil {
			if strings.Contains(strings.ToLower(err.Error()), "too large") {
				writeJSON(w, http.StatusRequestEntityTooLarge, evaluationFailure{Success: false, Error: fmt.Sprintf("file exceeds %d MB", s.Cfg.MaxUploadMB)})
				return
			}
			writeEvaluationError(w, fmt.Errorf("%w: %v", domain.ErrInvalidArgument, err))
			return
		}
		file, header, err := r.FormFile("file")
		if err != nil {
			writeEvaluationError(w, fmt.Errorf("%w: no file part in request", domain.ErrInvalidArgument))
			return
		}
		defer func() { _ = file.Close() }()

		if !allowedExt(header.Filename) {
			writeEvaluationError(w, fmt.Errorf("%w: %s", domain.ErrUnsupportedFormat, filepath.Ext(header.Filename)))
			return
		}
		data, err := io.ReadAll(file)
		if err != nil {
			writeEvaluationError(w, fmt.Errorf("%w: read: %v", domain.ErrInvalidArgument, err))
			return
		}
		if m := mimetype.Detect(data); !allowedMIMEFor(m.String(), header.Filename) {
			writeEvaluationError(w, fmt.Errorf("%w: detected %s", domain.ErrUnsupportedFormat, m.String()))
			return
		}

		start := time.Now()
		res, err := s.Evaluate.Evaluate(r.Context(), domain.Document{
			Filename: header.Filename,
			MIME:     header.Header.Get("Content-Type"),
			Data:     data,
		})
		if err != nil {
			LoggerFrom(r).Warn("evaluation failed",
				"filename", header.Filename,
				"error", err)
			observability.ObserveEvaluation(outcomeFor(err), time.Since(start), 0, 0)
			writeEvaluationError(w, err)
			return
		}
		observability.ObserveEvaluation("ok", time.Since(start), res.OverallScore, res.TotalGrammarErrors)
		writeEvaluation(w, res)
	}
}

func outcomeFor(err error) string {
	_, code := statusFor(err)
	return strings.ToLower(code)
}

// ReadyzHandler probes Postgres and Redis.
func (s *Server) ReadyzHandler() http.HandlerFunc {
	type check struct {
		Name    string `json:"name"`
		OK      bool   `json:"ok"`
		Details string `json:"details,omitempty"`
	}
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		checks := make([]check, 0, 2)
		if s.DBCheck != nil {
			if err := s.DBCheck(ctx); err != nil {
				checks = append(checks, check{Name: "db", Details: err.Error()})
			} else {
				checks = append(checks, check{Name: "db", OK: true})
			}
		}
		if s.RedisCheck != nil {
			if err := s.RedisCheck(ctx); err != nil {
				checks = append(checks, check{Name: "redis", Details: err.Error()})
			} else {
				checks = append(checks, check{Name: "redis", OK: true})
			}
		}
		st := http.StatusOK
		for _, c := range checks {
			if !c.OK {
				st = http.StatusServiceUnavailable
				break
			}
		}
		writeJSON(w, st, map[string]any{"checks": checks})
	}
}
