package modules

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/placeshare/places-api/internal/container"
	handlers "github.com/placeshare/places-api/internal/interface/http"
	"github.com/placeshare/places-api/internal/interface/middleware"
)

// PlaceModule wires place HTTP handlers into routes.
// Public: GET /api/places/:placeId, GET /api/places/user/:userId
// Protected: POST /api/places, PATCH/DELETE /api/places/:placeId,
// GET /api/places/search
type PlaceModule struct {
	Handler *handlers.PlaceHandler
}

func NewPlaceModule(h *handlers.PlaceHandler) *PlaceModule {
	return &PlaceModule{Handler: h}
}

func (m *PlaceModule) Register(rg *gin.RouterGroup) {
	rg.GET("/places/user/:userId", m.Handler.GetPlacesByUserID)
	rg.GET("/places/:placeId", m.Handler.GetPlaceByID)

	auth := rg.Group("/places")
	auth.Use(middleware.Auth(container.GetJWT()))
	// Softer limiters on mutating routes, keyed per IP and per user
	auth.Use(
		middleware.RateLimit(container.GetRedis(), 300, time.Minute, middleware.KeyByIP(), nil),
		middleware.RateLimit(container.GetRedis(), 120, time.Minute, middleware.KeyByUserID(), nil),
	)
	{
		auth.POST("", m.Handler.CreatePlace)
		auth.GET("/search", m.Handler.Search)
		auth.PATCH("/:placeId", m.Handler.UpdatePlace)
		auth.DELETE("/:placeId", m.Handler.DeletePlace)
	}
}
