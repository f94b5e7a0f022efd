package repository

import (
	"context"

	"find-my-doctor/internal/domain/entity"

	"github.com/google/uuid"
)

type DoctorRepository interface {
	Create(ctx context.Context, doctor *entity.Doctor) error
	// FindByID returns nil, nil when absent.
	FindByID(ctx context.Context, id uuid.UUID) (*entity.Doctor, error)
	Search(ctx context.Context, filter *entity.DoctorFilter) ([]entity.Doctor, int64, error)
	Update(ctx context.Context, doctor *entity.Doctor) error
	Delete(ctx context.Context, id uuid.UUID) (int64, error)
}
