package modules

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/placeshare/places-api/internal/container"
	handlers "github.com/placeshare/places-api/internal/interface/http"
	"github.com/placeshare/places-api/internal/interface/middleware"
)

// UserModule wires user HTTP handlers into routes.
// Public: POST /api/users/signup, POST /api/users/login,
// GET /api/users, GET /api/users/:userId
type UserModule struct {
	Handler *handlers.UserHandler
}

func NewUserModule(h *handlers.UserHandler) *UserModule {
	return &UserModule{Handler: h}
}

func (m *UserModule) Register(rg *gin.RouterGroup) {
	// Signup and login carry tight per-IP limits, browsing is public.
	signupLimiter := middleware.RateLimit(container.GetRedis(), 5, time.Minute, middleware.KeyByIP(), nil)
	loginLimiter := middleware.RateLimit(container.GetRedis(), 10, time.Minute, middleware.KeyByIP(), nil)

	rg.POST("/users/signup", signupLimiter, m.Handler.Signup)
	rg.POST("/users/login", loginLimiter, m.Handler.Login)
	rg.GET("/users", m.Handler.GetUsers)
	rg.GET("/users/:userId", m.Handler.GetUserByID)
}
