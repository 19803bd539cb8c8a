package usecase

import (
	"fmt"
	"strings"
	"time"

	"github.com/fairyhunter13/essay-evaluator/internal/domain"
	"github.com/fairyhunter13/essay-evaluator/pkg/textx"
)

const defaultFeedLimit = 50

// EssayService owns essay records and the feed. Edits replace the
// stored record with a new version; authorization for mutations is
// enforced here, never trusted from the UI layer.
type EssayService struct {
	Essays domain.EssayRepository
	Users  domain.UserRepository
}

// NewEssayService constructs an EssayService.
func NewEssayService(e domain.EssayRepository, u domain.UserRepository) EssayService {
	return EssayService{Essays: e, Users: u}
}

// Submit attaches a completed evaluation to new essay content and
// stores it. The evaluation must have been computed from exactly the
// content being submitted: a fingerprint mismatch means the caller is
// trying to reuse a result from a different (or re-selected) document
// and is rejected with ErrStaleEvaluation.
func (s EssayService) Submit(ctx domain.Context, authorID, caption, visibility, content string, eval domain.EvaluationResult) (domain.Essay, error) {
	if authorID == "" {
		return domain.Essay{}, fmt.Errorf("%w: author required", domain.ErrInvalidArgument)
	}
	if !validVisibility(visibility) {
		return domain.Essay{}, fmt.Errorf("%w: visibility %q", domain.ErrInvalidArgument, visibility)
	}
	normalized := textx.SanitizeText(content)
	if normalized == "" {
		return domain.Essay{}, fmt.Errorf("%w: empty content", domain.ErrInvalidArgument)
	}
	if eval.DocumentSHA == "" || eval.DocumentSHA != Fingerprint(normalized) {
		return domain.Essay{}, fmt.Errorf("%w: evaluation does not match submitted content", domain.ErrStaleEvaluation)
	}
	now := time.Now().UTC()
	e := domain.Essay{
		AuthorID:   authorID,
		Caption:    strings.TrimSpace(caption),
		Content:    normalized,
		Visibility: visibility,
		Evaluation: eval,
		Version:    1,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	id, err := s.Essays.Create(ctx, e)
	if err != nil {
		return domain.Essay{}, fmt.Errorf("essay create: %w", err)
	}
	e.ID = id
	return e, nil
}

// Get loads one essay, enforcing visibility for the viewer.
func (s EssayService) Get(ctx domain.Context, viewerID, essayID string) (domain.Essay, error) {
	e, err := s.Essays.Get(ctx, essayID)
	if err != nil {
		return domain.Essay{}, err
	}
	if e.Visibility == domain.VisibilityPrivate && e.AuthorID != viewerID {
		if ok, err := s.viewerIsAdmin(ctx, viewerID); err != nil || !ok {
			return domain.Essay{}, fmt.Errorf("%w: essay is private", domain.ErrForbidden)
		}
	}
	return e, nil
}

// Feed lists essays visible to the viewer, newest first.
func (s EssayService) Feed(ctx domain.Context, viewerID string, limit int) ([]domain.Essay, error) {
	if limit <= 0 || limit > 200 {
		limit = defaultFeedLimit
	}
	return s.Essays.Feed(ctx, viewerID, limit)
}

// Edit replaces the essay record with an updated caption/visibility
// version. Only the author may edit; the stored version must match the
// one the caller loaded, otherwise the repository reports ErrConflict.
func (s EssayService) Edit(ctx domain.Context, userID, essayID, caption, visibility string) (domain.Essay, error) {
	e, err := s.Essays.Get(ctx, essayID)
	if err != nil {
		return domain.Essay{}, err
	}
	if e.AuthorID != userID {
		return domain.Essay{}, fmt.Errorf("%w: only the author may edit", domain.ErrForbidden)
	}
	if visibility != "" {
		if !validVisibility(visibility) {
			return domain.Essay{}, fmt.Errorf("%w: visibility %q", domain.ErrInvalidArgument, visibility)
		}
		e.Visibility = visibility
	}
	if caption != "" {
		e.Caption = strings.TrimSpace(caption)
	}
	e.UpdatedAt = time.Now().UTC()
	return s.Essays.Replace(ctx, e)
}

// Delete removes an essay. Allowed for the author and for admins.
func (s EssayService) Delete(ctx domain.Context, userID, essayID string) error {
	e, err := s.Essays.Get(ctx, essayID)
	if err != nil {
		return err
	}
	if e.AuthorID != userID {
		ok, err := s.viewerIsAdmin(ctx, userID)
		if err != nil {
			return err
		}
		if !ok {
			return fmt.Errorf("%w: not the author", domain.ErrForbidden)
		}
	}
	return s.Essays.Delete(ctx, essayID)
}

func (s EssayService) viewerIsAdmin(ctx domain.Context, userID string) (bool, error) {
	if userID == "" {
		return false, nil
	}
	u, err := s.Users.Get(ctx, userID)
	if err != nil {
		return false, err
	}
	return u.Role == domain.RoleAdmin, nil
}

func validVisibility(v string) bool {
	switch v {
	case domain.VisibilityPublic, domain.VisibilityFriends, domain.VisibilityPrivate:
		return true
	}
	return false
}
