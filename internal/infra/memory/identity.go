package memory

import (
	"context"

	"coach-quiz-service/internal/domain"
)

// StaticIdentityResolver resolves users from a fixed roster.
type StaticIdentityResolver struct {
	users map[string]domain.Identity
}

func NewStaticIdentityResolver(users []domain.Identity) *StaticIdentityResolver {
	m := make(map[string]domain.Identity, len(users))
	for _, u := range users {
		m[u.PlayerID] = u
	}
	return &StaticIdentityResolver{users: m}
}

func (r *StaticIdentityResolver) Resolve(_ context.Context, userID string) (domain.Identity, error) {
	if u, ok := r.users[userID]; ok {
		return u, nil
	}
	return domain.Identity{}, domain.ErrIdentityNotFound
}
