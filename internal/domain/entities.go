package domain

import (
	"context"
	"errors"
	"time"
)

// Error taxonomy (sentinels)
var (
	ErrInvalidArgument   = errors.New("invalid argument")
	ErrNotFound          = errors.New("not found")
	ErrConflict          = errors.New("conflict")
	ErrUnauthorized      = errors.New("unauthorized")
	ErrForbidden         = errors.New("forbidden")
	ErrUnsupportedFormat = errors.New("unsupported format")
	ErrCorruptDocument   = errors.New("corrupt document")
	ErrInsufficientText  = errors.New("insufficient text")
	ErrEvaluationTimeout = errors.New("evaluation timeout")
	ErrStaleEvaluation   = errors.New("stale evaluation")
	ErrInternal          = errors.New("internal error")
)

// Document is one uploaded file submitted for evaluation. It is immutable
// once received and is never persisted; the pipeline consumes it and
// discards it when the evaluation completes.
type Document struct {
	Filename string
	MIME     string
	Data     []byte
}

// GrammarIssue is one detected grammar or style problem.
// Replacements are ranked best-first and may be empty.
type GrammarIssue struct {
	Message      string   `json:"message"`
	Context      string   `json:"context"`
	Replacements []string `json:"replacements"`
}

// LinguisticStats holds structural text metrics.
// Invariant: AvgSentenceLength == TokenCount/SentenceCount when
// SentenceCount > 0, and 0 otherwise.
type LinguisticStats struct {
	SentenceCount     int
	TokenCount        int
	AvgSentenceLength float64
	EntityCount       int
}

// AI detection labels
const (
	AILabelHuman     = "human"
	AILabelGenerated = "ai-generated"
	AILabelUncertain = "uncertain"
)

// AIDetection classifies text as human- or machine-authored.
// Confidence is the machine-generated likelihood in [0,1].
type AIDetection struct {
	Label      string
	Confidence float64
}

// EvaluationResult is the unified outcome of evaluating one Document.
// Immutable once produced; DocumentSHA fingerprints the normalized text
// so a later essay submission can be checked against the document that
// was actually evaluated.
type EvaluationResult struct {
	OverallScore       float64
	GrammarIssues      []GrammarIssue
	TotalGrammarErrors int
	Linguistics        LinguisticStats
	AIDetection        AIDetection
	TextPreview        string
	DocumentSHA        string
	CreatedAt          time.Time
}

// Visibility of a feed essay
const (
	VisibilityPublic  = "public"
	VisibilityFriends = "friends"
	VisibilityPrivate = "private"
)

// Essay is an evaluated document shared to the feed. Essays are
// versioned records: edits replace the stored row (with a version
// check) rather than mutating fields in place.
type Essay struct {
	ID         string
	AuthorID   string
	Caption    string
	Content    string
	Visibility string
	Evaluation EvaluationResult
	Version    int
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// User roles
const (
	RoleUser  = "user"
	RoleAdmin = "admin"
)

type User struct {
	ID           string
	Username     string
	Email        string
	PasswordHash string
	Role         string
	CreatedAt    time.Time
}

// Session is an authenticated login resolved from a bearer token.
type Session struct {
	Token     string
	UserID    string
	ExpiresAt time.Time
}

// Analyzer ports. All three operate on the same immutable normalized
// text and must be deterministic for identical input.

type TextExtractor interface {
	// Extract converts raw uploaded bytes into normalized plain text.
	Extract(ctx Context, filename string, data []byte) (string, error)
}

type GrammarAnalyzer interface {
	// Analyze returns issues in first-occurrence order; empty text
	// yields an empty slice, not an error.
	Analyze(text string) []GrammarIssue
}

type LinguisticProfiler interface {
	Profile(text string) LinguisticStats
}

type AIClassifier interface {
	// Classify fails with ErrInsufficientText when the text is too
	// short to score reliably.
	Classify(text string) (AIDetection, error)
}

// Repositories (ports)

type UserRepository interface {
	Create(ctx Context, u User) (string, error)
	GetByUsername(ctx Context, username string) (User, error)
	Get(ctx Context, id string) (User, error)
}

type EssayRepository interface {
	Create(ctx Context, e Essay) (string, error)
	Get(ctx Context, id string) (Essay, error)
	// Replace writes a new version of the essay. It fails with
	// ErrConflict when the stored version differs from e.Version.
	Replace(ctx Context, e Essay) (Essay, error)
	Delete(ctx Context, id string) error
	// Feed lists essays visible to viewerID, newest first.
	Feed(ctx Context, viewerID string, limit int) ([]Essay, error)
}

// FriendRepository stores the mutual friendship graph consulted by the
// feed's friends visibility tier. Edges are symmetric: Add records both
// directions, Remove deletes both.
type FriendRepository interface {
	// Add records a friendship; adding an existing edge is a no-op.
	Add(ctx Context, userID, friendID string) error
	// Remove fails with ErrNotFound when the users are not friends.
	Remove(ctx Context, userID, friendID string) error
	List(ctx Context, userID string) ([]User, error)
}

// SessionStore (port)

type SessionStore interface {
	Put(ctx Context, s Session) error
	Get(ctx Context, token string) (Session, error)
	Delete(ctx Context, token string) error
}

// Context is an alias so the domain layer does not import adapters;
// usecases and adapters pass context.Context straight through.
type Context = context.Context
