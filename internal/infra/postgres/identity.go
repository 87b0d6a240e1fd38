package postgres

import (
	"context"
	"errors"
	"fmt"

	"coach-quiz-service/internal/domain"
	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"
)

// IdentityResolver reads user profiles from the users table.
type IdentityResolver struct {
	pool *pgxpool.Pool
}

func NewIdentityResolver(pool *pgxpool.Pool) *IdentityResolver {
	return &IdentityResolver{pool: pool}
}

func (r *IdentityResolver) Resolve(ctx context.Context, userID string) (domain.Identity, error) {
	id := domain.Identity{PlayerID: userID}
	err := r.pool.QueryRow(ctx, `SELECT username, role, team_name FROM users WHERE id = $1`, userID).
		Scan(&id.Username, &id.Role, &id.Team)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.Identity{}, domain.ErrIdentityNotFound
	}
	if err != nil {
		return domain.Identity{}, fmt.Errorf("resolve user: %w", err)
	}
	return id, nil
}
