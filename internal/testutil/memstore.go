// Package testutil provides in-memory doubles for the storage layer, used
// by service and handler tests.
package testutil

import (
	"context"
	"errors"
	"strconv"
	"sync"
	"time"

	"github.com/jackc/pgx/v5/pgconn"

	"github.com/placeshare/places-api/internal/domain/entity"
	"github.com/placeshare/places-api/internal/domain/repository"
	"github.com/placeshare/places-api/internal/infrastructure/geocode"
)

// MemStore is an in-memory stand-in for the postgres repositories plus the
// transaction manager. WithinTx snapshots both maps and restores them when
// fn fails, mirroring rollback semantics closely enough to exercise the
// consistency protocol.
type MemStore struct {
	mu     sync.Mutex
	users  map[string]*entity.User
	places map[string]*entity.Place
	nextID int

	// Failure injection for transaction tests.
	FailUserUpdate  bool
	FailPlaceCreate bool
}

func NewMemStore() *MemStore {
	return &MemStore{
		users:  make(map[string]*entity.User),
		places: make(map[string]*entity.Place),
	}
}

func (s *MemStore) genID() string {
	s.nextID++
	return "id-" + strconv.Itoa(s.nextID)
}

func cloneUser(u *entity.User) *entity.User {
	c := *u
	c.PlaceIDs = append([]string(nil), u.PlaceIDs...)
	return &c
}

func clonePlace(p *entity.Place) *entity.Place {
	c := *p
	return &c
}

func (s *MemStore) snapshot() (map[string]*entity.User, map[string]*entity.Place) {
	users := make(map[string]*entity.User, len(s.users))
	for k, v := range s.users {
		users[k] = cloneUser(v)
	}
	places := make(map[string]*entity.Place, len(s.places))
	for k, v := range s.places {
		places[k] = clonePlace(v)
	}
	return users, places
}

func (s *MemStore) WithinTx(ctx context.Context, fn func(ctx context.Context) error) error {
	s.mu.Lock()
	users, places := s.snapshot()
	s.mu.Unlock()

	if err := fn(ctx); err != nil {
		s.mu.Lock()
		s.users, s.places = users, places
		s.mu.Unlock()
		return err
	}
	return nil
}

// AddUser seeds a user directly, bypassing the repository.
func (s *MemStore) AddUser(u *entity.User) *entity.User {
	s.mu.Lock()
	defer s.mu.Unlock()
	if u.ID == "" {
		u.ID = s.genID()
	}
	s.users[u.ID] = cloneUser(u)
	return u
}

// PlaceCount reports the number of stored places.
func (s *MemStore) PlaceCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.places)
}

func NewUserRepo(s *MemStore) repository.UserRepository   { return &userRepo{s: s} }
func NewPlaceRepo(s *MemStore) repository.PlaceRepository { return &placeRepo{s: s} }

type userRepo struct{ s *MemStore }

func (r *userRepo) Create(ctx context.Context, u *entity.User) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, existing := range r.s.users {
		if existing.Email == u.Email {
			return &pgconn.PgError{Code: "23505", ConstraintName: "users_email_key"}
		}
	}
	u.ID = r.s.genID()
	u.CreatedAt = time.Now()
	u.UpdatedAt = u.CreatedAt
	r.s.users[u.ID] = cloneUser(u)
	return nil
}

func (r *userRepo) GetByID(ctx context.Context, id string) (*entity.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	u, ok := r.s.users[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return cloneUser(u), nil
}

func (r *userRepo) GetByEmail(ctx context.Context, email string) (*entity.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, u := range r.s.users {
		if u.Email == email {
			return cloneUser(u), nil
		}
	}
	return nil, repository.ErrNotFound
}

func (r *userRepo) List(ctx context.Context) ([]*entity.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	out := make([]*entity.User, 0, len(r.s.users))
	for _, u := range r.s.users {
		c := cloneUser(u)
		c.PasswordHash = ""
		out = append(out, c)
	}
	return out, nil
}

func (r *userRepo) Update(ctx context.Context, u *entity.User) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if r.s.FailUserUpdate {
		return errors.New("injected user update failure")
	}
	if _, ok := r.s.users[u.ID]; !ok {
		return repository.ErrNotFound
	}
	u.UpdatedAt = time.Now()
	r.s.users[u.ID] = cloneUser(u)
	return nil
}

type placeRepo struct{ s *MemStore }

func (r *placeRepo) Create(ctx context.Context, p *entity.Place) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if r.s.FailPlaceCreate {
		return errors.New("injected place create failure")
	}
	p.ID = r.s.genID()
	p.CreatedAt = time.Now()
	p.UpdatedAt = p.CreatedAt
	r.s.places[p.ID] = clonePlace(p)
	return nil
}

func (r *placeRepo) GetByID(ctx context.Context, id string) (*entity.Place, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	p, ok := r.s.places[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return clonePlace(p), nil
}

func (r *placeRepo) ListByCreator(ctx context.Context, creatorID string) ([]*entity.Place, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var out []*entity.Place
	for _, p := range r.s.places {
		if p.Creator == creatorID {
			out = append(out, clonePlace(p))
		}
	}
	return out, nil
}

func (r *placeRepo) Update(ctx context.Context, p *entity.Place) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.places[p.ID]; !ok {
		return repository.ErrNotFound
	}
	p.UpdatedAt = time.Now()
	r.s.places[p.ID] = clonePlace(p)
	return nil
}

func (r *placeRepo) DeleteByID(ctx context.Context, id string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.places[id]; !ok {
		return repository.ErrNotFound
	}
	delete(r.s.places, id)
	return nil
}

// StubGeocoder resolves every address to fixed coordinates, or fails.
type StubGeocoder struct {
	Coords entity.Coordinates
	Err    error
}

func (g *StubGeocoder) Resolve(ctx context.Context, address string) (entity.Coordinates, error) {
	if g.Err != nil {
		return entity.Coordinates{}, g.Err
	}
	return g.Coords, nil
}

var (
	_ repository.TxManager = (*MemStore)(nil)
	_ geocode.Resolver     = (*StubGeocoder)(nil)
)
