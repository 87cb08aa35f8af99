package handlers

import (
	"mime/multipart"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/placeshare/places-api/internal/application"
	"github.com/placeshare/places-api/internal/domain/entity"
	"github.com/placeshare/places-api/internal/domain/repository"
	"github.com/placeshare/places-api/pkg/response"
	"github.com/placeshare/places-api/pkg/validation"
)

type UserHandler struct {
	Svc    *application.UserService
	Logger *logrus.Logger
}

func NewUserHandler(svc *application.UserService, logger *logrus.Logger) *UserHandler {
	return &UserHandler{Svc: svc, Logger: logger}
}

type signupRequest struct {
	Name     string `form:"name" binding:"required"`
	Email    string `form:"email" binding:"required,email"`
	Password string `form:"password" binding:"required,pwd"`
}

type loginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

// Signup POST /api/users/signup (multipart: name, email, password, image)
func (h *UserHandler) Signup(c *gin.Context) {
	var req signupRequest
	if err := c.ShouldBind(&req); err != nil {
		fail[any](c, http.StatusUnprocessableEntity, "Invalid data", validation.ToDetails(err))
		return
	}

	imageURL, err := h.uploadAvatar(c)
	if err != nil {
		h.Logger.WithError(err).Warn("avatar upload failed")
	}

	u, tok, err := h.Svc.Signup(c.Request.Context(), application.SignupInput{
		Name:     req.Name,
		Email:    req.Email,
		Password: req.Password,
		ImageURL: imageURL,
	})
	if err != nil {
		if err == application.ErrEmailTaken {
			fail[any](c, http.StatusUnprocessableEntity, "User exists already.", nil)
			return
		}
		h.Logger.WithError(err).Error("signup failed")
		fail[any](c, http.StatusInternalServerError, "Signing up failed, please try again later.", nil)
		return
	}

	ok(c, http.StatusCreated, gin.H{
		"user":  userJSON(u),
		"token": tok.Value,
	}, "Successfully created new user.", gin.H{"expires_at": tok.ExpiresAt})
}

// Login POST /api/users/login
func (h *UserHandler) Login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail[any](c, http.StatusUnprocessableEntity, "Invalid data", validation.ToDetails(err))
		return
	}

	u, tok, err := h.Svc.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		switch err {
		case application.ErrUnknownEmail:
			fail[any](c, http.StatusUnauthorized, "No user found.", nil)
		case application.ErrWrongPassword:
			fail[any](c, http.StatusForbidden, "Invalid password.", nil)
		default:
			h.Logger.WithError(err).Error("login failed")
			fail[any](c, http.StatusInternalServerError, "Logging in failed, please try again later.", nil)
		}
		return
	}

	ok(c, http.StatusOK, gin.H{
		"user":  userJSON(u),
		"token": tok.Value,
	}, "Successfully logged in.", gin.H{"expires_at": tok.ExpiresAt})
}

// GetUsers GET /api/users
func (h *UserHandler) GetUsers(c *gin.Context) {
	users, err := h.Svc.ListUsers(c.Request.Context())
	if err != nil {
		h.Logger.WithError(err).Error("list users failed")
		fail[any](c, http.StatusInternalServerError, "Fetching users failed.", nil)
		return
	}
	out := make([]gin.H, 0, len(users))
	for _, u := range users {
		out = append(out, userJSON(u))
	}
	ok(c, http.StatusOK, gin.H{"users": out}, "users", nil)
}

// GetUserByID GET /api/users/:userId
func (h *UserHandler) GetUserByID(c *gin.Context) {
	u, err := h.Svc.GetUser(c.Request.Context(), c.Param("userId"))
	if err != nil {
		if err == repository.ErrNotFound {
			fail[any](c, http.StatusNotFound, "No user found.", nil)
			return
		}
		h.Logger.WithError(err).Error("get user failed")
		fail[any](c, http.StatusInternalServerError, "Fetching user failed.", nil)
		return
	}
	ok(c, http.StatusOK, gin.H{"user": userJSON(u)}, "user", nil)
}

func (h *UserHandler) uploadAvatar(c *gin.Context) (string, error) {
	file, err := c.FormFile("image")
	if err != nil {
		return "", nil // image is optional
	}
	return h.uploadFile(c, file)
}

func (h *UserHandler) uploadFile(c *gin.Context, file *multipart.FileHeader) (string, error) {
	f, err := file.Open()
	if err != nil {
		return "", err
	}
	defer func() { _ = f.Close() }()
	return h.Svc.UploadAvatar(c.Request.Context(), f, file.Filename, file.Header.Get("Content-Type"))
}

// userJSON serializes a user for API responses. The password hash never
// leaves the server.
func userJSON(u *entity.User) gin.H {
	places := u.PlaceIDs
	if places == nil {
		places = []string{}
	}
	return gin.H{
		"id":         u.ID,
		"name":       u.Name,
		"email":      u.Email,
		"image_url":  u.ImageURL,
		"places":     places,
		"created_at": u.CreatedAt,
		"updated_at": u.UpdatedAt,
	}
}

func ok[T any](c *gin.Context, status int, data T, message string, meta interface{}) {
	resp := response.Success(c, status, data, message, meta)
	c.JSON(resp.Status, resp)
}

func fail[T any](c *gin.Context, status int, message string, details interface{}) {
	resp := response.Error[T](c, status, message, details)
	c.JSON(resp.Status, resp)
}
