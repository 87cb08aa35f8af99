package application

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/placeshare/places-api/internal/domain/entity"
	"github.com/placeshare/places-api/internal/domain/repository"
	"github.com/placeshare/places-api/internal/infrastructure/geocode"
	"github.com/placeshare/places-api/internal/testutil"
)

func newPlaceService(store *testutil.MemStore, geocoder geocode.Resolver) *PlaceService {
	return &PlaceService{
		Places:   testutil.NewPlaceRepo(store),
		Users:    testutil.NewUserRepo(store),
		Tx:       store,
		Geocoder: geocoder,
	}
}

func seedUser(store *testutil.MemStore) *entity.User {
	return store.AddUser(&entity.User{
		Name:         "Ann",
		Email:        "ann@x.com",
		PasswordHash: "irrelevant",
	})
}

func TestCreatePlace_BidirectionalInvariant(t *testing.T) {
	t.Parallel()

	store := testutil.NewMemStore()
	user := seedUser(store)
	svc := newPlaceService(store, &testutil.StubGeocoder{Coords: entity.Coordinates{Lat: 40.75, Lng: -73.99}})

	place, err := svc.CreatePlace(context.Background(), CreatePlaceInput{
		Title:       "Empire State Building",
		Description: "Famous skyscraper",
		Address:     "20 W 34th St, New York",
		CreatorID:   user.ID,
	})
	require.NoError(t, err)
	require.NotEmpty(t, place.ID)
	require.Equal(t, user.ID, place.Creator)
	require.Equal(t, 40.75, place.Location.Lat)

	stored, err := svc.Users.GetByID(context.Background(), user.ID)
	require.NoError(t, err)
	require.True(t, stored.OwnsPlace(place.ID))

	fetched, err := svc.Places.GetByID(context.Background(), place.ID)
	require.NoError(t, err)
	require.Equal(t, stored.ID, fetched.Creator)
}

func TestCreatePlace_GeocodeFailureAbortsBeforeMutation(t *testing.T) {
	t.Parallel()

	store := testutil.NewMemStore()
	user := seedUser(store)
	svc := newPlaceService(store, &testutil.StubGeocoder{Err: geocode.ErrZeroResults})

	_, err := svc.CreatePlace(context.Background(), CreatePlaceInput{
		Title:     "Nowhere",
		Address:   "no such street",
		CreatorID: user.ID,
	})
	require.ErrorIs(t, err, geocode.ErrZeroResults)

	stored, err := svc.Users.GetByID(context.Background(), user.ID)
	require.NoError(t, err)
	require.Empty(t, stored.PlaceIDs)
	require.Zero(t, store.PlaceCount())
}

func TestCreatePlace_MissingCreator(t *testing.T) {
	t.Parallel()

	store := testutil.NewMemStore()
	svc := newPlaceService(store, &testutil.StubGeocoder{})

	_, err := svc.CreatePlace(context.Background(), CreatePlaceInput{
		Title:     "Orphan",
		Address:   "somewhere",
		CreatorID: "missing",
	})
	require.ErrorIs(t, err, ErrCreatorLookup)
	require.Zero(t, store.PlaceCount())
}

func TestCreatePlace_RollbackWhenUserUpdateFails(t *testing.T) {
	t.Parallel()

	store := testutil.NewMemStore()
	user := seedUser(store)
	svc := newPlaceService(store, &testutil.StubGeocoder{})

	store.FailUserUpdate = true
	_, err := svc.CreatePlace(context.Background(), CreatePlaceInput{
		Title:     "Half-written",
		Address:   "somewhere",
		CreatorID: user.ID,
	})
	require.Error(t, err)

	// The place insert inside the failed unit must not survive.
	require.Zero(t, store.PlaceCount())
	stored, err := svc.Users.GetByID(context.Background(), user.ID)
	require.NoError(t, err)
	require.Empty(t, stored.PlaceIDs)
}

func TestDeletePlace_DetachesAndDeletes(t *testing.T) {
	t.Parallel()

	store := testutil.NewMemStore()
	user := seedUser(store)
	svc := newPlaceService(store, &testutil.StubGeocoder{})

	place, err := svc.CreatePlace(context.Background(), CreatePlaceInput{
		Title:     "Short-lived",
		Address:   "somewhere",
		CreatorID: user.ID,
	})
	require.NoError(t, err)

	require.NoError(t, svc.DeletePlace(context.Background(), place.ID))

	_, err = svc.Places.GetByID(context.Background(), place.ID)
	require.ErrorIs(t, err, repository.ErrNotFound)

	stored, err := svc.Users.GetByID(context.Background(), user.ID)
	require.NoError(t, err)
	require.False(t, stored.OwnsPlace(place.ID))
}

func TestDeletePlace_NotFound(t *testing.T) {
	t.Parallel()

	store := testutil.NewMemStore()
	svc := newPlaceService(store, &testutil.StubGeocoder{})

	err := svc.DeletePlace(context.Background(), "missing")
	require.ErrorIs(t, err, repository.ErrNotFound)
}

func TestDeletePlace_RollbackWhenUserUpdateFails(t *testing.T) {
	t.Parallel()

	store := testutil.NewMemStore()
	user := seedUser(store)
	svc := newPlaceService(store, &testutil.StubGeocoder{})

	place, err := svc.CreatePlace(context.Background(), CreatePlaceInput{
		Title:     "Sticky",
		Address:   "somewhere",
		CreatorID: user.ID,
	})
	require.NoError(t, err)

	store.FailUserUpdate = true
	require.Error(t, svc.DeletePlace(context.Background(), place.ID))

	// Both sides of the unit must be intact after rollback.
	fetched, err := svc.Places.GetByID(context.Background(), place.ID)
	require.NoError(t, err)
	require.Equal(t, place.ID, fetched.ID)

	stored, err := svc.Users.GetByID(context.Background(), user.ID)
	require.NoError(t, err)
	require.True(t, stored.OwnsPlace(place.ID))
}

func TestUpdatePlace_OK(t *testing.T) {
	t.Parallel()

	store := testutil.NewMemStore()
	user := seedUser(store)
	svc := newPlaceService(store, &testutil.StubGeocoder{Coords: entity.Coordinates{Lat: 1, Lng: 2}})

	place, err := svc.CreatePlace(context.Background(), CreatePlaceInput{
		Title:     "Old title",
		Address:   "somewhere",
		CreatorID: user.ID,
	})
	require.NoError(t, err)

	updated, err := svc.UpdatePlace(context.Background(), place.ID, "New title", "New description")
	require.NoError(t, err)
	require.Equal(t, "New title", updated.Title)
	require.Equal(t, "New description", updated.Description)
	// Coordinates are immutable after creation.
	require.Equal(t, place.Location, updated.Location)
}

func TestUpdatePlace_NotFound(t *testing.T) {
	t.Parallel()

	store := testutil.NewMemStore()
	svc := newPlaceService(store, &testutil.StubGeocoder{})

	_, err := svc.UpdatePlace(context.Background(), "missing", "t", "d")
	require.ErrorIs(t, err, repository.ErrNotFound)
}

func TestListPlacesByCreator_ZeroPlacesIsError(t *testing.T) {
	t.Parallel()

	store := testutil.NewMemStore()
	user := seedUser(store)
	svc := newPlaceService(store, &testutil.StubGeocoder{})

	_, err := svc.ListPlacesByCreator(context.Background(), user.ID)
	require.ErrorIs(t, err, ErrNoPlacesForUser)
}

func TestListPlacesByCreator_ReturnsOwned(t *testing.T) {
	t.Parallel()

	store := testutil.NewMemStore()
	user := seedUser(store)
	other := store.AddUser(&entity.User{Name: "Ben", Email: "ben@x.com"})
	svc := newPlaceService(store, &testutil.StubGeocoder{})

	mine, err := svc.CreatePlace(context.Background(), CreatePlaceInput{
		Title: "Mine", Address: "a", CreatorID: user.ID,
	})
	require.NoError(t, err)
	_, err = svc.CreatePlace(context.Background(), CreatePlaceInput{
		Title: "Theirs", Address: "b", CreatorID: other.ID,
	})
	require.NoError(t, err)

	places, err := svc.ListPlacesByCreator(context.Background(), user.ID)
	require.NoError(t, err)
	require.Len(t, places, 1)
	require.Equal(t, mine.ID, places[0].ID)
}
