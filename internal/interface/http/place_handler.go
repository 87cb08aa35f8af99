package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/placeshare/places-api/internal/application"
	"github.com/placeshare/places-api/internal/domain/entity"
	"github.com/placeshare/places-api/internal/domain/repository"
	"github.com/placeshare/places-api/internal/infrastructure/geocode"
	"github.com/placeshare/places-api/pkg/validation"
)

type PlaceHandler struct {
	Svc    *application.PlaceService
	Logger *logrus.Logger
}

func NewPlaceHandler(svc *application.PlaceService, logger *logrus.Logger) *PlaceHandler {
	return &PlaceHandler{Svc: svc, Logger: logger}
}

type createPlaceRequest struct {
	Title       string `form:"title" binding:"required"`
	Description string `form:"description" binding:"required,min=5"`
	Address     string `form:"address" binding:"required"`
	Creator     string `form:"creator" binding:"required"`
}

type updatePlaceRequest struct {
	Title       string `json:"title" binding:"required"`
	Description string `json:"description" binding:"required,min=5"`
}

// GetPlaceByID GET /api/places/:placeId
func (h *PlaceHandler) GetPlaceByID(c *gin.Context) {
	place, err := h.Svc.GetPlace(c.Request.Context(), c.Param("placeId"))
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			fail[any](c, http.StatusNotFound, "Place not found.", nil)
			return
		}
		h.Logger.WithError(err).Error("get place failed")
		fail[any](c, http.StatusInternalServerError, "Couldn't retrieve place from the database.", nil)
		return
	}
	ok(c, http.StatusOK, gin.H{"place": placeJSON(place)}, "place", nil)
}

// GetPlacesByUserID GET /api/places/user/:userId
//
// A creator with zero places is a 404, not an empty list.
func (h *PlaceHandler) GetPlacesByUserID(c *gin.Context) {
	places, err := h.Svc.ListPlacesByCreator(c.Request.Context(), c.Param("userId"))
	if err != nil {
		if errors.Is(err, application.ErrNoPlacesForUser) {
			fail[any](c, http.StatusNotFound, "No places found for given user.", nil)
			return
		}
		h.Logger.WithError(err).Error("list places failed")
		fail[any](c, http.StatusInternalServerError, "Failed to retrieve places from the database.", nil)
		return
	}
	out := make([]gin.H, 0, len(places))
	for _, p := range places {
		out = append(out, placeJSON(p))
	}
	ok(c, http.StatusOK, gin.H{"places": out}, "places", nil)
}

// CreatePlace POST /api/places (auth; multipart: title, description,
// address, creator, image)
func (h *PlaceHandler) CreatePlace(c *gin.Context) {
	var req createPlaceRequest
	if err := c.ShouldBind(&req); err != nil {
		fail[any](c, http.StatusUnprocessableEntity, "Invalid data", validation.ToDetails(err))
		return
	}

	imageURL := ""
	if file, err := c.FormFile("image"); err == nil {
		f, err := file.Open()
		if err == nil {
			imageURL, err = h.Svc.UploadImage(c.Request.Context(), f, file.Filename, file.Header.Get("Content-Type"))
			_ = f.Close()
			if err != nil {
				h.Logger.WithError(err).Warn("place image upload failed")
			}
		}
	}

	place, err := h.Svc.CreatePlace(c.Request.Context(), application.CreatePlaceInput{
		Title:       req.Title,
		Description: req.Description,
		Address:     req.Address,
		CreatorID:   req.Creator,
		ImageURL:    imageURL,
	})
	if err != nil {
		switch {
		case errors.Is(err, geocode.ErrZeroResults):
			fail[any](c, http.StatusUnprocessableEntity, "No location found for given address.", nil)
		case errors.Is(err, application.ErrCreatorLookup):
			// Preserved contract: a missing creator is reported as a server
			// error, not a client error.
			fail[any](c, http.StatusInternalServerError, "User not found.", nil)
		default:
			h.Logger.WithError(err).Error("create place failed")
			fail[any](c, http.StatusInternalServerError, "Failed to save place to database.", nil)
		}
		return
	}

	ok(c, http.StatusCreated, gin.H{"place": placeJSON(place)}, "Successfully created place.", nil)
}

// UpdatePlace PATCH /api/places/:placeId (auth)
func (h *PlaceHandler) UpdatePlace(c *gin.Context) {
	var req updatePlaceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail[any](c, http.StatusUnprocessableEntity, "Invalid data", validation.ToDetails(err))
		return
	}

	place, err := h.Svc.UpdatePlace(c.Request.Context(), c.Param("placeId"), req.Title, req.Description)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			fail[any](c, http.StatusNotFound, "Place not found.", nil)
			return
		}
		h.Logger.WithError(err).Error("update place failed")
		fail[any](c, http.StatusInternalServerError, "Failed to save updated place to the database.", nil)
		return
	}
	ok(c, http.StatusOK, gin.H{"place": placeJSON(place)}, "Successfully updated place.", nil)
}

// DeletePlace DELETE /api/places/:placeId (auth)
func (h *PlaceHandler) DeletePlace(c *gin.Context) {
	if err := h.Svc.DeletePlace(c.Request.Context(), c.Param("placeId")); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			fail[any](c, http.StatusNotFound, "No place found.", nil)
			return
		}
		h.Logger.WithError(err).Error("delete place failed")
		fail[any](c, http.StatusInternalServerError, "Failed to delete place from database.", nil)
		return
	}
	ok[any](c, http.StatusOK, nil, "Successfully deleted place.", nil)
}

// Search GET /api/places/search?q=&size= (auth)
func (h *PlaceHandler) Search(c *gin.Context) {
	q := c.Query("q")
	if q == "" {
		fail[any](c, http.StatusUnprocessableEntity, "Missing query.", nil)
		return
	}
	size, _ := strconv.Atoi(c.DefaultQuery("size", "10"))

	results, err := h.Svc.SearchPlaces(c.Request.Context(), q, size)
	if err != nil {
		h.Logger.WithError(err).Error("place search failed")
		fail[any](c, http.StatusInternalServerError, "Search failed.", nil)
		return
	}
	ok(c, http.StatusOK, gin.H{"results": results}, "search results", nil)
}

func placeJSON(p *entity.Place) gin.H {
	return gin.H{
		"id":          p.ID,
		"title":       p.Title,
		"description": p.Description,
		"address":     p.Address,
		"location":    p.Location,
		"image_url":   p.ImageURL,
		"creator":     p.Creator,
		"created_at":  p.CreatedAt,
		"updated_at":  p.UpdatedAt,
	}
}
