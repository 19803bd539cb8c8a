package httpserver

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/fairyhunter13/essay-evaluator/internal/domain"
)

type userView struct {
	ID       string `json:"id"`
	Username string `json:"username"`
	Email    string `json:"email,omitempty"`
	Role     string `json:"role"`
}

func toUserView(u domain.User) userView {
	return userView{ID: u.ID, Username: u.Username, Email: u.Email, Role: u.Role}
}

func decodeValidated(r *http.Request, dst any) error {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		return fmt.Errorf("%w: invalid json", domain.ErrInvalidArgument)
	}
	if err := getValidator().Struct(dst); err != nil {
		verrs := map[string]string{}
		if ve, ok := err.(validator.ValidationErrors); ok {
			for _, fe := range ve {
				verrs[strings.ToLower(fe.Field())] = fe.Tag()
			}
		}
		return fmt.Errorf("%w: validation failed (%v)", domain.ErrInvalidArgument, verrs)
	}
	return nil
}

// RegisterHandler creates an account.
func (s *Server) RegisterHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		r.Body = http.MaxBytesReader(w, r.Body, 1<<20)
		var req struct {
			Username string `json:"username" validate:"required,min=3,max=64"`
			Email    string `json:"email" validate:"omitempty,email"`
			Password string `json:"password" validate:"required,min=8,max=128"`
		}
		if err := decodeValidated(r, &req); err != nil {
			writeError(w, r, err, nil)
			return
		}
		u, err := s.Auth.Register(r.Context(), req.Username, req.Email, req.Password)
		if err != nil {
			writeError(w, r, err, nil)
			return
		}
		writeJSON(w, http.StatusCreated, map[string]any{"user": toUserView(u)})
	}
}

// LoginHandler verifies credentials and returns a bearer token.
func (s *Server) LoginHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		r.Body = http.MaxBytesReader(w, r.Body, 1<<20)
		var req struct {
			Username string `json:"username" validate:"required"`
			Password string `json:"password" validate:"required"`
		}
		if err := decodeValidated(r, &req); err != nil {
			writeError(w, r, err, nil)
			return
		}
		sess, u, err := s.Auth.Login(r.Context(), req.Username, req.Password)
		if err != nil {
			writeError(w, r, err, nil)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{
			"token":      sess.Token,
			"expires_at": sess.ExpiresAt.Format(time.RFC3339),
			"user":       toUserView(u),
		})
	}
}

// LogoutHandler deletes the presented session token.
func (s *Server) LogoutHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := s.Auth.Logout(r.Context(), bearerToken(r)); err != nil {
			writeError(w, r, err, nil)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

// RequireAuth resolves the bearer token and stores the user id in the
// request context; requests without a valid session get 401.
func (s *Server) RequireAuth() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			u, err := s.Auth.Authenticate(r.Context(), bearerToken(r))
			if err != nil {
				writeError(w, r, err, nil)
				return
			}
			next.ServeHTTP(w, r.WithContext(ContextWithUser(r.Context(), u.ID)))
		})
	}
}

// OptionalAuth resolves the bearer token when one is present but lets
// anonymous requests through; visibility rules downstream handle the
// rest.
func (s *Server) OptionalAuth() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if tok := bearerToken(r); tok != "" {
				if u, err := s.Auth.Authenticate(r.Context(), tok); err == nil {
					r = r.WithContext(ContextWithUser(r.Context(), u.ID))
				}
			}
			next.ServeHTTP(w, r)
		})
	}
}

func bearerToken(r *http.Request) string {
	h := r.Header.Get("Authorization")
	if strings.HasPrefix(h, "Bearer ") {
		return strings.TrimSpace(strings.TrimPrefix(h, "Bearer "))
	}
	return ""
}
