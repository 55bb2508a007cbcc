package memory

import (
	"context"

	"github.com/google/uuid"

	"estateline/internal/domain/user"
	estateline_errors "estateline/pkg/errors"
)

type userRepo struct {
	s *Store
}

func (r *userRepo) GetByID(ctx context.Context, id uuid.UUID) (user.User, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	u, ok := r.s.users[id]
	if !ok {
		return user.User{}, estateline_errors.ErrNotFound
	}
	return u, nil
}
