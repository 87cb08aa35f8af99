package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/placeshare/places-api/internal/domain/entity"
	"github.com/placeshare/places-api/internal/domain/repository"
)

type PlaceRepository struct {
	pool *pgxpool.Pool
}

func NewPlaceRepository(pool *pgxpool.Pool) *PlaceRepository {
	return &PlaceRepository{pool: pool}
}

func (r *PlaceRepository) Create(ctx context.Context, p *entity.Place) error {
	row := db(ctx, r.pool).QueryRow(ctx, `
		INSERT INTO places (title, description, address, lat, lng, image_url, creator)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id, created_at, updated_at
	`, p.Title, p.Description, p.Address, p.Location.Lat, p.Location.Lng, p.ImageURL, p.Creator)

	return row.Scan(&p.ID, &p.CreatedAt, &p.UpdatedAt)
}

func (r *PlaceRepository) GetByID(ctx context.Context, id string) (*entity.Place, error) {
	p := &entity.Place{}
	row := db(ctx, r.pool).QueryRow(ctx, `
		SELECT id, title, description, address, lat, lng, image_url, creator, created_at, updated_at
		FROM places
		WHERE id = $1
	`, id)
	if err := row.Scan(&p.ID, &p.Title, &p.Description, &p.Address,
		&p.Location.Lat, &p.Location.Lng, &p.ImageURL, &p.Creator,
		&p.CreatedAt, &p.UpdatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}
	return p, nil
}

func (r *PlaceRepository) ListByCreator(ctx context.Context, creatorID string) ([]*entity.Place, error) {
	rows, err := db(ctx, r.pool).Query(ctx, `
		SELECT id, title, description, address, lat, lng, image_url, creator, created_at, updated_at
		FROM places
		WHERE creator = $1
		ORDER BY created_at
	`, creatorID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var places []*entity.Place
	for rows.Next() {
		p := &entity.Place{}
		if err := rows.Scan(&p.ID, &p.Title, &p.Description, &p.Address,
			&p.Location.Lat, &p.Location.Lng, &p.ImageURL, &p.Creator,
			&p.CreatedAt, &p.UpdatedAt); err != nil {
			return nil, err
		}
		places = append(places, p)
	}
	return places, rows.Err()
}

// Update persists title and description only. Address and coordinates are
// immutable after creation.
func (r *PlaceRepository) Update(ctx context.Context, p *entity.Place) error {
	p.UpdatedAt = time.Now()

	res, err := db(ctx, r.pool).Exec(ctx, `
		UPDATE places
		SET title = $1, description = $2, updated_at = $3
		WHERE id = $4
	`, p.Title, p.Description, p.UpdatedAt, p.ID)
	if err != nil {
		return err
	}
	if res.RowsAffected() == 0 {
		return repository.ErrNotFound
	}
	return nil
}

func (r *PlaceRepository) DeleteByID(ctx context.Context, id string) error {
	res, err := db(ctx, r.pool).Exec(ctx, `DELETE FROM places WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if res.RowsAffected() == 0 {
		return repository.ErrNotFound
	}
	return nil
}

var _ repository.PlaceRepository = (*PlaceRepository)(nil)
