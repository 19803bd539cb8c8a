package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"github.com/fairyhunter13/essay-evaluator/internal/domain"
)

// PgxPool is a minimal subset of pgxpool used by the repos for easy testing.
type PgxPool interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

// UserRepo persists and loads users.
type UserRepo struct{ Pool PgxPool }

// NewUserRepo constructs a UserRepo with the given pool.
func NewUserRepo(p PgxPool) *UserRepo { return &UserRepo{Pool: p} }

// Create stores a new user and returns its id. Duplicate usernames map
// to ErrConflict.
func (r *UserRepo) Create(ctx domain.Context, u domain.User) (string, error) {
	ctx, span := otel.Tracer("repo.users").Start(ctx, "users.Create")
	defer span.End()
	span.SetAttributes(attribute.String("db.sql.table", "users"))
	id := u.ID
	if id == "" {
		id = uuid.New().String()
	}
	q := `INSERT INTO users (id, username, email, password_hash, role, created_at) VALUES ($1,$2,$3,$4,$5,$6)`
	if _, err := r.Pool.Exec(ctx, q, id, u.Username, u.Email, u.PasswordHash, u.Role, u.CreatedAt); err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return "", fmt.Errorf("%w: username taken", domain.ErrConflict)
		}
		return "", fmt.Errorf("op=user.create: %w", err)
	}
	return id, nil
}

// Get loads a user by id.
func (r *UserRepo) Get(ctx domain.Context, id string) (domain.User, error) {
	ctx, span := otel.Tracer("repo.users").Start(ctx, "users.Get")
	defer span.End()
	q := `SELECT id, username, email, password_hash, role, created_at FROM users WHERE id=$1`
	return r.scanUser(r.Pool.QueryRow(ctx, q, id))
}

// GetByUsername loads a user by username.
func (r *UserRepo) GetByUsername(ctx domain.Context, username string) (domain.User, error) {
	ctx, span := otel.Tracer("repo.users").Start(ctx, "users.GetByUsername")
	defer span.End()
	q := `SELECT id, username, email, password_hash, role, created_at FROM users WHERE username=$1`
	return r.scanUser(r.Pool.QueryRow(ctx, q, username))
}

func (r *UserRepo) scanUser(row pgx.Row) (domain.User, error) {
	var u domain.User
	if err := row.Scan(&u.ID, &u.Username, &u.Email, &u.PasswordHash, &u.Role, &u.CreatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.User{}, fmt.Errorf("%w: user", domain.ErrNotFound)
		}
		return domain.User{}, fmt.Errorf("op=user.get: %w", err)
	}
	return u, nil
}
