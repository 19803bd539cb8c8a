package postgres

import (
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"github.com/fairyhunter13/essay-evaluator/internal/domain"
)

// FriendRepo persists the mutual friendship edges read by the feed
// query. Both directions of an edge are written so the feed can filter
// on a single (author, viewer) lookup.
type FriendRepo struct{ Pool PgxPool }

// NewFriendRepo constructs a FriendRepo with the given pool.
func NewFriendRepo(p PgxPool) *FriendRepo { return &FriendRepo{Pool: p} }

// Add records the friendship in both directions. Re-adding an existing
// friendship is a no-op; an unknown user maps to ErrNotFound.
func (r *FriendRepo) Add(ctx domain.Context, userID, friendID string) error {
	ctx, span := otel.Tracer("repo.friends").Start(ctx, "friends.Add")
	defer span.End()
	span.SetAttributes(attribute.String("db.sql.table", "friendships"))
	q := `INSERT INTO friendships (user_id, friend_id) VALUES ($1,$2),($2,$1) ON CONFLICT DO NOTHING`
	if _, err := r.Pool.Exec(ctx, q, userID, friendID); err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23503" {
			return fmt.Errorf("%w: user", domain.ErrNotFound)
		}
		return fmt.Errorf("op=friend.add: %w", err)
	}
	return nil
}

// Remove deletes the friendship in both directions.
func (r *FriendRepo) Remove(ctx domain.Context, userID, friendID string) error {
	ctx, span := otel.Tracer("repo.friends").Start(ctx, "friends.Remove")
	defer span.End()
	q := `DELETE FROM friendships WHERE (user_id=$1 AND friend_id=$2) OR (user_id=$2 AND friend_id=$1)`
	tag, err := r.Pool.Exec(ctx, q, userID, friendID)
	if err != nil {
		return fmt.Errorf("op=friend.remove: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w: friendship", domain.ErrNotFound)
	}
	return nil
}

// List returns the user's friends ordered by username. Password hashes
// are never loaded.
func (r *FriendRepo) List(ctx domain.Context, userID string) ([]domain.User, error) {
	ctx, span := otel.Tracer("repo.friends").Start(ctx, "friends.List")
	defer span.End()
	q := `SELECT u.id, u.username, u.email, u.role, u.created_at
	      FROM friendships f
	      JOIN users u ON u.id = f.friend_id
	      WHERE f.user_id = $1
	      ORDER BY u.username`
	rows, err := r.Pool.Query(ctx, q, userID)
	if err != nil {
		return nil, fmt.Errorf("op=friend.list: %w", err)
	}
	defer rows.Close()
	var out []domain.User
	for rows.Next() {
		var u domain.User
		if err := rows.Scan(&u.ID, &u.Username, &u.Email, &u.Role, &u.CreatedAt); err != nil {
			return nil, fmt.Errorf("op=friend.list: %w", err)
		}
		out = append(out, u)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("op=friend.list: %w", err)
	}
	return out, nil
}
