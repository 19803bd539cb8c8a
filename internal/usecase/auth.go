package usecase

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/oklog/ulid/v2"
	"golang.org/x/crypto/argon2"

	"github.com/fairyhunter13/essay-evaluator/internal/domain"
)

// Argon2Params defines parameters for Argon2id password hashing.
type Argon2Params struct {
	Memory      uint32
	Iterations  uint32
	Parallelism uint8
	SaltLen     uint32
	KeyLen      uint32
}

var defaultArgon2Params = Argon2Params{
	Memory:      64 * 1024, // 64 MB
	Iterations:  3,
	Parallelism: 2,
	SaltLen:     16,
	KeyLen:      32,
}

// AuthService handles registration, login, and bearer-token sessions.
type AuthService struct {
	Users      domain.UserRepository
	Sessions   domain.SessionStore
	SessionTTL time.Duration
}

// NewAuthService constructs an AuthService.
func NewAuthService(u domain.UserRepository, s domain.SessionStore, ttl time.Duration) AuthService {
	if ttl <= 0 {
		ttl = 7 * 24 * time.Hour
	}
	return AuthService{Users: u, Sessions: s, SessionTTL: ttl}
}

// Register creates a user with a hashed password. Usernames are unique;
// the repository reports ErrConflict on duplicates.
func (s AuthService) Register(ctx domain.Context, username, email, password string) (domain.User, error) {
	username = strings.TrimSpace(username)
	if username == "" || len(password) < 8 {
		return domain.User{}, fmt.Errorf("%w: username and a password of at least 8 characters are required", domain.ErrInvalidArgument)
	}
	hash, err := HashPassword(password, defaultArgon2Params)
	if err != nil {
		return domain.User{}, fmt.Errorf("op=auth.hash: %w", err)
	}
	u := domain.User{
		Username:     username,
		Email:        strings.TrimSpace(email),
		PasswordHash: hash,
		Role:         domain.RoleUser,
		CreatedAt:    time.Now().UTC(),
	}
	id, err := s.Users.Create(ctx, u)
	if err != nil {
		return domain.User{}, err
	}
	u.ID = id
	u.PasswordHash = ""
	return u, nil
}

// Login verifies credentials and opens a session. The same error is
// returned for unknown users and bad passwords.
func (s AuthService) Login(ctx domain.Context, username, password string) (domain.Session, domain.User, error) {
	u, err := s.Users.GetByUsername(ctx, strings.TrimSpace(username))
	if err != nil || !VerifyPassword(password, u.PasswordHash) {
		return domain.Session{}, domain.User{}, fmt.Errorf("%w: invalid credentials", domain.ErrUnauthorized)
	}
	sess := domain.Session{
		Token:     ulid.Make().String(),
		UserID:    u.ID,
		ExpiresAt: time.Now().UTC().Add(s.SessionTTL),
	}
	if err := s.Sessions.Put(ctx, sess); err != nil {
		return domain.Session{}, domain.User{}, fmt.Errorf("op=auth.session: %w", err)
	}
	u.PasswordHash = ""
	return sess, u, nil
}

// Logout deletes the session token; unknown tokens are a no-op.
func (s AuthService) Logout(ctx domain.Context, token string) error {
	if token == "" {
		return nil
	}
	return s.Sessions.Delete(ctx, token)
}

// Authenticate resolves a bearer token to its user.
func (s AuthService) Authenticate(ctx domain.Context, token string) (domain.User, error) {
	if token == "" {
		return domain.User{}, fmt.Errorf("%w: missing token", domain.ErrUnauthorized)
	}
	sess, err := s.Sessions.Get(ctx, token)
	if err != nil {
		return domain.User{}, fmt.Errorf("%w: invalid token", domain.ErrUnauthorized)
	}
	if time.Now().UTC().After(sess.ExpiresAt) {
		_ = s.Sessions.Delete(ctx, token)
		return domain.User{}, fmt.Errorf("%w: session expired", domain.ErrUnauthorized)
	}
	u, err := s.Users.Get(ctx, sess.UserID)
	if err != nil {
		return domain.User{}, fmt.Errorf("%w: unknown user", domain.ErrUnauthorized)
	}
	u.PasswordHash = ""
	return u, nil
}

// HashPassword creates an Argon2id hash of the password.
// Format: argon2id$iterations$memory$parallelism$salt$hash (base64 raw std).
func HashPassword(password string, params Argon2Params) (string, error) {
	salt := make([]byte, params.SaltLen)
	if _, err := rand.Read(salt); err != nil {
		return "", err
	}
	hash := argon2.IDKey([]byte(password), salt, params.Iterations, params.Memory, params.Parallelism, params.KeyLen)
	return fmt.Sprintf("argon2id$%d$%d$%d$%s$%s",
		params.Iterations,
		params.Memory,
		params.Parallelism,
		base64.RawStdEncoding.EncodeToString(salt),
		base64.RawStdEncoding.EncodeToString(hash),
	), nil
}

// VerifyPassword verifies a password against its Argon2id hash.
func VerifyPassword(password, encodedHash string) bool {
	parts := strings.Split(encodedHash, "$")
	if len(parts) != 6 || parts[0] != "argon2id" {
		return false
	}
	iters, err1 := parseUint32(parts[1])
	mem, err2 := parseUint32(parts[2])
	par, err3 := parseUint32(parts[3])
	if err1 != nil || err2 != nil || err3 != nil || par > 255 {
		return false
	}
	salt, err := base64.RawStdEncoding.DecodeString(parts[4])
	if err != nil {
		return false
	}
	want, err := base64.RawStdEncoding.DecodeString(parts[5])
	if err != nil {
		return false
	}
	got := argon2.IDKey([]byte(password), salt, iters, mem, uint8(par), uint32(len(want)))
	return subtle.ConstantTimeCompare(got, want) == 1
}

func parseUint32(s string) (uint32, error) {
	v, err := strconv.ParseUint(s, 10, 32)
	return uint32(v), err
}
