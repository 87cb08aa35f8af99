package repository

import (
	"context"

	"github.com/placeshare/places-api/internal/domain/entity"
)

// PlaceRepository defines the interface for place-related database
// operations. Create and DeleteByID are not atomic on their own; the place
// service pairs them with the owning user's update inside one transaction.
type PlaceRepository interface {
	Create(ctx context.Context, p *entity.Place) error
	GetByID(ctx context.Context, id string) (*entity.Place, error)
	ListByCreator(ctx context.Context, creatorID string) ([]*entity.Place, error)
	Update(ctx context.Context, p *entity.Place) error
	DeleteByID(ctx context.Context, id string) error
}

// TxManager runs fn inside a storage transaction. The transaction is carried
// through ctx so repository calls made by fn join it. A non-nil error from
// fn rolls everything back.
type TxManager interface {
	WithinTx(ctx context.Context, fn func(ctx context.Context) error) error
}
