package application

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"path/filepath"
	"strings"
	"time"

	"cloud.google.com/go/storage"
	"github.com/elastic/go-elasticsearch/v8"
	"github.com/elastic/go-elasticsearch/v8/esapi"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"github.com/placeshare/places-api/internal/domain/entity"
	repo "github.com/placeshare/places-api/internal/domain/repository"
	"github.com/placeshare/places-api/internal/infrastructure/geocode"
	"github.com/placeshare/places-api/pkg/helpers"
)

var (
	// ErrNoPlacesForUser is returned when a creator has zero places. The
	// listing endpoint reports this as a 404, not an empty success.
	ErrNoPlacesForUser = errors.New("no places found for given user")
	// ErrCreatorLookup means the creator referenced by a new place could not
	// be loaded. Surfaced as a server error, matching the original API.
	ErrCreatorLookup = errors.New("failed to retrieve creator")
)

const placeCacheTTL = 10 * time.Minute

func placeCacheKey(id string) string { return "place:" + id }

// PlaceService owns the places/users consistency protocol: every place
// create or delete is paired with the owning user's place_ids update inside
// a single transaction, so a concurrent reader never observes one side
// without the other. Redis, GCS, and Elasticsearch are optional; their side
// effects run only after commit and never fail a request.
type PlaceService struct {
	Places    repo.PlaceRepository
	Users     repo.UserRepository
	Tx        repo.TxManager
	Geocoder  geocode.Resolver
	GCS       *storage.Client
	GCSBucket string
	Redis     *redis.Client
	ES        *elasticsearch.Client
	ESIndex   string
	Logger    *logrus.Logger
}

func NewPlaceService(places repo.PlaceRepository, users repo.UserRepository, tx repo.TxManager, geocoder geocode.Resolver, gcs *storage.Client, gcsBucket string, rdb *redis.Client, logger *logrus.Logger, es *elasticsearch.Client, esIndex string) *PlaceService {
	return &PlaceService{
		Places:    places,
		Users:     users,
		Tx:        tx,
		Geocoder:  geocoder,
		GCS:       gcs,
		GCSBucket: gcsBucket,
		Redis:     rdb,
		ES:        es,
		ESIndex:   esIndex,
		Logger:    logger,
	}
}

type CreatePlaceInput struct {
	Title       string
	Description string
	Address     string
	CreatorID   string
	ImageURL    string
}

// CreatePlace geocodes the address, then persists the new place and the
// creator's updated reference list as one atomic unit. A failure anywhere
// inside the unit leaves neither write behind.
func (s *PlaceService) CreatePlace(ctx context.Context, in CreatePlaceInput) (*entity.Place, error) {
	coords, err := s.Geocoder.Resolve(ctx, in.Address)
	if err != nil {
		return nil, err
	}

	place := &entity.Place{
		Title:       in.Title,
		Description: in.Description,
		Address:     in.Address,
		Location:    coords,
		ImageURL:    in.ImageURL,
		Creator:     in.CreatorID,
	}

	user, err := s.Users.GetByID(ctx, in.CreatorID)
	if err != nil {
		if s.Logger != nil {
			s.Logger.WithError(err).WithField("creator", in.CreatorID).Error("creator lookup failed")
		}
		return nil, ErrCreatorLookup
	}

	err = s.Tx.WithinTx(ctx, func(ctx context.Context) error {
		if err := s.Places.Create(ctx, place); err != nil {
			return err
		}
		user.AttachPlace(place.ID)
		return s.Users.Update(ctx, user)
	})
	if err != nil {
		if s.Logger != nil {
			s.Logger.WithError(err).WithField("creator", in.CreatorID).Error("create place transaction failed")
		}
		return nil, err
	}

	s.indexPlace(ctx, place)
	return place, nil
}

// DeletePlace removes the place and the creator's back-reference as one
// atomic unit. The stored image is removed only after commit; an orphaned
// image file is tolerated, an orphaned database reference is not.
func (s *PlaceService) DeletePlace(ctx context.Context, placeID string) error {
	place, err := s.Places.GetByID(ctx, placeID)
	if err != nil {
		return err
	}
	user, err := s.Users.GetByID(ctx, place.Creator)
	if err != nil {
		if s.Logger != nil {
			s.Logger.WithError(err).WithField("place_id", placeID).Error("creator lookup failed")
		}
		return err
	}

	imageURL := place.ImageURL

	err = s.Tx.WithinTx(ctx, func(ctx context.Context) error {
		if err := s.Places.DeleteByID(ctx, placeID); err != nil {
			return err
		}
		user.DetachPlace(placeID)
		return s.Users.Update(ctx, user)
	})
	if err != nil {
		if s.Logger != nil {
			s.Logger.WithError(err).WithField("place_id", placeID).Error("delete place transaction failed")
		}
		return err
	}

	s.deleteImage(ctx, imageURL)
	s.dropCache(ctx, placeID)
	s.deletePlaceIndex(ctx, placeID)
	return nil
}

// UpdatePlace mutates title and description only; no cross-collection
// concern.
func (s *PlaceService) UpdatePlace(ctx context.Context, placeID, title, description string) (*entity.Place, error) {
	place, err := s.Places.GetByID(ctx, placeID)
	if err != nil {
		return nil, err
	}
	place.Title = title
	place.Description = description
	if err := s.Places.Update(ctx, place); err != nil {
		return nil, err
	}

	s.dropCache(ctx, placeID)
	s.indexPlace(ctx, place)
	return place, nil
}

// GetPlace serves reads through the redis cache when available.
func (s *PlaceService) GetPlace(ctx context.Context, placeID string) (*entity.Place, error) {
	if s.Redis != nil {
		var cached entity.Place
		if ok, err := helpers.RedisGetJSON(ctx, s.Redis, placeCacheKey(placeID), &cached); err == nil && ok {
			return &cached, nil
		}
	}
	place, err := s.Places.GetByID(ctx, placeID)
	if err != nil {
		return nil, err
	}
	if s.Redis != nil {
		if err := helpers.RedisSetJSON(ctx, s.Redis, placeCacheKey(placeID), place, placeCacheTTL); err != nil && s.Logger != nil {
			s.Logger.WithError(err).WithField("place_id", placeID).Warn("place cache write failed")
		}
	}
	return place, nil
}

// ListPlacesByCreator returns the creator's places; zero places is an error
// condition, not an empty success.
func (s *PlaceService) ListPlacesByCreator(ctx context.Context, creatorID string) ([]*entity.Place, error) {
	places, err := s.Places.ListByCreator(ctx, creatorID)
	if err != nil {
		return nil, err
	}
	if len(places) == 0 {
		return nil, ErrNoPlacesForUser
	}
	return places, nil
}

// UploadImage stores a place image in GCS and returns its public URL.
// Returns "" when object storage is not configured.
func (s *PlaceService) UploadImage(ctx context.Context, r io.Reader, filename, contentType string) (string, error) {
	if s.GCS == nil || s.GCSBucket == "" {
		return "", nil
	}
	ext := strings.ToLower(filepath.Ext(filename))
	objectPath := "places/" + uuid.NewString() + ext
	return helpers.UploadObject(ctx, s.GCS, s.GCSBucket, objectPath, contentType, r)
}

// SearchPlaces performs a multi_match search over title, description, and
// address.
func (s *PlaceService) SearchPlaces(ctx context.Context, q string, size int) ([]map[string]any, error) {
	if s.ES == nil || s.ESIndex == "" {
		return []map[string]any{}, nil
	}
	if size <= 0 || size > 50 {
		size = 10
	}
	query := map[string]any{
		"query": map[string]any{
			"multi_match": map[string]any{
				"query":  q,
				"fields": []string{"title^2", "description", "address"},
			},
		},
		"size": size,
	}
	b, _ := json.Marshal(query)

	c, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	res, err := s.ES.Search(
		s.ES.Search.WithContext(c),
		s.ES.Search.WithIndex(s.ESIndex),
		s.ES.Search.WithBody(strings.NewReader(string(b))),
	)
	if err != nil {
		return nil, err
	}
	defer func() { _ = res.Body.Close() }()

	var parsed struct {
		Hits struct {
			Hits []struct {
				ID     string         `json:"_id"`
				Source map[string]any `json:"_source"`
			} `json:"hits"`
		} `json:"hits"`
	}
	if err := json.NewDecoder(res.Body).Decode(&parsed); err != nil {
		return nil, err
	}

	out := make([]map[string]any, 0, len(parsed.Hits.Hits))
	for _, h := range parsed.Hits.Hits {
		out = append(out, h.Source)
	}
	return out, nil
}

func (s *PlaceService) indexPlace(ctx context.Context, p *entity.Place) {
	if s.ES == nil || s.ESIndex == "" {
		return
	}
	doc := map[string]any{
		"id":          p.ID,
		"title":       p.Title,
		"description": p.Description,
		"address":     p.Address,
		"lat":         p.Location.Lat,
		"lng":         p.Location.Lng,
		"creator":     p.Creator,
		"created_at":  p.CreatedAt.Format(time.RFC3339Nano),
	}
	b, _ := json.Marshal(doc)
	req := esapi.IndexRequest{Index: s.ESIndex, DocumentID: p.ID, Body: strings.NewReader(string(b)), Refresh: "false"}
	c, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	res, err := req.Do(c, s.ES)
	if err != nil {
		if s.Logger != nil {
			s.Logger.WithError(err).WithField("place_id", p.ID).Warn("es index failed")
		}
		return
	}
	defer func() { _ = res.Body.Close() }()
	if res.IsError() && s.Logger != nil {
		s.Logger.WithField("status", res.Status()).WithField("place_id", p.ID).Warn("es index response error")
	}
}

func (s *PlaceService) deletePlaceIndex(ctx context.Context, placeID string) {
	if s.ES == nil || s.ESIndex == "" {
		return
	}
	req := esapi.DeleteRequest{Index: s.ESIndex, DocumentID: placeID}
	c, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	res, err := req.Do(c, s.ES)
	if err != nil {
		if s.Logger != nil {
			s.Logger.WithError(err).WithField("place_id", placeID).Warn("es delete failed")
		}
		return
	}
	_ = res.Body.Close()
}

func (s *PlaceService) deleteImage(ctx context.Context, imageURL string) {
	if s.GCS == nil || s.GCSBucket == "" || imageURL == "" {
		return
	}
	if err := helpers.DeleteObjectByURL(ctx, s.GCS, s.GCSBucket, imageURL); err != nil && s.Logger != nil {
		s.Logger.WithError(err).WithField("image_url", imageURL).Warn("image cleanup failed")
	}
}

func (s *PlaceService) dropCache(ctx context.Context, placeID string) {
	if s.Redis == nil {
		return
	}
	if err := helpers.RedisDel(ctx, s.Redis, placeCacheKey(placeID)); err != nil && s.Logger != nil {
		s.Logger.WithError(err).WithField("place_id", placeID).Warn("place cache invalidation failed")
	}
}
