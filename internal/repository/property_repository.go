package repository

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"estateline/internal/domain/property"
	estateline_errors "estateline/pkg/errors"
)

type PostgresPropertyRepository struct {
	db *gorm.DB
}

func NewPropertyRepository(db *gorm.DB) PropertyRepository {
	return &PostgresPropertyRepository{db: db}
}

func (r *PostgresPropertyRepository) GetByID(ctx context.Context, id uuid.UUID) (property.Property, error) {
	var p property.Property
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&p).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return property.Property{}, estateline_errors.ErrNotFound
		}
		return property.Property{}, err
	}
	return p, nil
}
