package repository

import (
	"context"
	"errors"

	"github.com/placeshare/places-api/internal/domain/entity"
)

// ErrNotFound is returned by repositories when the requested row does not
// exist. Callers map it to a 404 at the HTTP boundary.
var ErrNotFound = errors.New("not found")

// UserRepository defines the interface for user-related database operations.
// Implementations must honor an ambient transaction carried in ctx.
type UserRepository interface {
	Create(ctx context.Context, u *entity.User) error
	GetByID(ctx context.Context, id string) (*entity.User, error)
	GetByEmail(ctx context.Context, email string) (*entity.User, error)
	List(ctx context.Context) ([]*entity.User, error)
	Update(ctx context.Context, u *entity.User) error
}
