package repository

import (
	"context"

	"find-my-doctor/internal/domain/entity"

	"github.com/google/uuid"
)

type UserRepository interface {
	Create(ctx context.Context, user *entity.User) error
	// FindByEmail matches case-insensitively; returns nil, nil when absent.
	FindByEmail(ctx context.Context, email string) (*entity.User, error)
	// FindByID returns nil, nil when absent.
	FindByID(ctx context.Context, id uuid.UUID) (*entity.User, error)
	UpdateRole(ctx context.Context, id uuid.UUID, role string) (int64, error)
}
