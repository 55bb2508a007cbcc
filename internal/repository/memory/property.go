package memory

import (
	"context"

	"github.com/google/uuid"

	"estateline/internal/domain/property"
	estateline_errors "estateline/pkg/errors"
)

type propertyRepo struct {
	s *Store
}

func (r *propertyRepo) GetByID(ctx context.Context, id uuid.UUID) (property.Property, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	p, ok := r.s.properties[id]
	if !ok {
		return property.Property{}, estateline_errors.ErrNotFound
	}
	return p, nil
}
