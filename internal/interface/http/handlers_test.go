package handlers

import (
	"bytes"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"

	"github.com/placeshare/places-api/internal/application"
	"github.com/placeshare/places-api/internal/domain/entity"
	"github.com/placeshare/places-api/internal/infrastructure/geocode"
	"github.com/placeshare/places-api/internal/interface/middleware"
	"github.com/placeshare/places-api/internal/testutil"
	"github.com/placeshare/places-api/pkg/helpers"
	"github.com/placeshare/places-api/pkg/validation"
)

type testEnv struct {
	store  *testutil.MemStore
	jwt    *helpers.JWTManager
	places *application.PlaceService
	router *gin.Engine
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	gin.SetMode(gin.TestMode)
	validation.Init()

	store := testutil.NewMemStore()
	jwt := &helpers.JWTManager{Secret: []byte("test-secret"), TTL: time.Hour}
	logger := helpers.NewLogger("places-api-test", "test")

	userSvc := &application.UserService{
		Repo:   testutil.NewUserRepo(store),
		JWT:    jwt,
		Logger: logger,
	}
	placeSvc := &application.PlaceService{
		Places:   testutil.NewPlaceRepo(store),
		Users:    testutil.NewUserRepo(store),
		Tx:       store,
		Geocoder: &testutil.StubGeocoder{Coords: entity.Coordinates{Lat: 40.75, Lng: -73.99}},
		Logger:   logger,
	}

	uh := NewUserHandler(userSvc, logger)
	ph := NewPlaceHandler(placeSvc, logger)

	r := gin.New()
	api := r.Group("/api")
	api.POST("/users/signup", uh.Signup)
	api.POST("/users/login", uh.Login)
	api.GET("/users", uh.GetUsers)
	api.GET("/users/:userId", uh.GetUserByID)
	api.GET("/places/:placeId", ph.GetPlaceByID)
	api.GET("/places/user/:userId", ph.GetPlacesByUserID)

	protected := api.Group("/", middleware.Auth(jwt))
	protected.POST("/places", ph.CreatePlace)
	protected.PATCH("/places/:placeId", ph.UpdatePlace)
	protected.DELETE("/places/:placeId", ph.DeletePlace)

	return &testEnv{store: store, jwt: jwt, places: placeSvc, router: r}
}

func (e *testEnv) do(t *testing.T, req *http.Request) *httptest.ResponseRecorder {
	t.Helper()
	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)
	return w
}

func multipartBody(t *testing.T, fields map[string]string) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	for k, v := range fields {
		require.NoError(t, mw.WriteField(k, v))
	}
	require.NoError(t, mw.Close())
	return &buf, mw.FormDataContentType()
}

type envelope struct {
	Success bool            `json:"success"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

func decode(t *testing.T, w *httptest.ResponseRecorder) envelope {
	t.Helper()
	var env envelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env))
	return env
}

func (e *testEnv) signup(t *testing.T, name, email, password string) (userID, token string) {
	t.Helper()
	body, ct := multipartBody(t, map[string]string{
		"name": name, "email": email, "password": password,
	})
	req := httptest.NewRequest(http.MethodPost, "/api/users/signup", body)
	req.Header.Set("Content-Type", ct)
	w := e.do(t, req)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	var data struct {
		User  struct{ ID string `json:"id"` } `json:"user"`
		Token string                          `json:"token"`
	}
	require.NoError(t, json.Unmarshal(decode(t, w).Data, &data))
	require.NotEmpty(t, data.Token)
	return data.User.ID, data.Token
}

func TestSignupThenLogin(t *testing.T) {
	env := newTestEnv(t)
	userID, _ := env.signup(t, "Ann", "ann@x.com", "secret1")
	require.NotEmpty(t, userID)

	body := strings.NewReader(`{"email":"ann@x.com","password":"secret1"}`)
	req := httptest.NewRequest(http.MethodPost, "/api/users/login", body)
	req.Header.Set("Content-Type", "application/json")
	w := env.do(t, req)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var data struct {
		Token string `json:"token"`
	}
	require.NoError(t, json.Unmarshal(decode(t, w).Data, &data))

	claims, err := env.jwt.Verify(data.Token)
	require.NoError(t, err)
	require.Equal(t, userID, claims.UserID)
	require.Equal(t, "ann@x.com", claims.Email)
}

func TestLogin_UnknownEmail401_WrongPassword403(t *testing.T) {
	env := newTestEnv(t)
	env.signup(t, "Ann", "ann@x.com", "secret1")

	req := httptest.NewRequest(http.MethodPost, "/api/users/login",
		strings.NewReader(`{"email":"nobody@x.com","password":"secret1"}`))
	req.Header.Set("Content-Type", "application/json")
	require.Equal(t, http.StatusUnauthorized, env.do(t, req).Code)

	req = httptest.NewRequest(http.MethodPost, "/api/users/login",
		strings.NewReader(`{"email":"ann@x.com","password":"wrong"}`))
	req.Header.Set("Content-Type", "application/json")
	require.Equal(t, http.StatusForbidden, env.do(t, req).Code)
}

func TestCreatePlace_RequiresAuth(t *testing.T) {
	env := newTestEnv(t)
	body, ct := multipartBody(t, map[string]string{
		"title": "ESB", "description": "tall building", "address": "NYC", "creator": "u1",
	})
	req := httptest.NewRequest(http.MethodPost, "/api/places", body)
	req.Header.Set("Content-Type", ct)
	require.Equal(t, http.StatusForbidden, env.do(t, req).Code)
}

func TestCreatePlace_EndToEnd(t *testing.T) {
	env := newTestEnv(t)
	userID, token := env.signup(t, "Ann", "ann@x.com", "secret1")

	body, ct := multipartBody(t, map[string]string{
		"title":       "Empire State Building",
		"description": "Famous skyscraper",
		"address":     "20 W 34th St, New York",
		"creator":     userID,
	})
	req := httptest.NewRequest(http.MethodPost, "/api/places", body)
	req.Header.Set("Content-Type", ct)
	req.Header.Set("Authorization", "Bearer "+token)
	w := env.do(t, req)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	var data struct {
		Place struct {
			ID      string `json:"id"`
			Creator string `json:"creator"`
		} `json:"place"`
	}
	require.NoError(t, json.Unmarshal(decode(t, w).Data, &data))
	require.Equal(t, userID, data.Place.Creator)

	// The place shows up both under its own id and on the user's listing.
	req = httptest.NewRequest(http.MethodGet, "/api/places/"+data.Place.ID, nil)
	require.Equal(t, http.StatusOK, env.do(t, req).Code)

	req = httptest.NewRequest(http.MethodGet, "/api/places/user/"+userID, nil)
	require.Equal(t, http.StatusOK, env.do(t, req).Code)
}

func TestGetPlacesByUser_EmptyIs404(t *testing.T) {
	env := newTestEnv(t)
	userID, _ := env.signup(t, "Ann", "ann@x.com", "secret1")

	req := httptest.NewRequest(http.MethodGet, "/api/places/user/"+userID, nil)
	require.Equal(t, http.StatusNotFound, env.do(t, req).Code)
}

func TestCreatePlace_GeocodeFailure422(t *testing.T) {
	env := newTestEnv(t)
	userID, token := env.signup(t, "Ann", "ann@x.com", "secret1")

	env.places.Geocoder = &testutil.StubGeocoder{Err: geocode.ErrZeroResults}
	body, ct := multipartBody(t, map[string]string{
		"title": "Nowhere", "description": "lost place", "address": "???", "creator": userID,
	})
	req := httptest.NewRequest(http.MethodPost, "/api/places", body)
	req.Header.Set("Content-Type", ct)
	req.Header.Set("Authorization", "Bearer "+token)
	require.Equal(t, http.StatusUnprocessableEntity, env.do(t, req).Code)
}

func TestUpdateAndDeletePlace(t *testing.T) {
	env := newTestEnv(t)
	userID, token := env.signup(t, "Ann", "ann@x.com", "secret1")

	body, ct := multipartBody(t, map[string]string{
		"title": "Old", "description": "description", "address": "a", "creator": userID,
	})
	req := httptest.NewRequest(http.MethodPost, "/api/places", body)
	req.Header.Set("Content-Type", ct)
	req.Header.Set("Authorization", "Bearer "+token)
	w := env.do(t, req)
	require.Equal(t, http.StatusCreated, w.Code)

	var data struct {
		Place struct{ ID string `json:"id"` } `json:"place"`
	}
	require.NoError(t, json.Unmarshal(decode(t, w).Data, &data))

	req = httptest.NewRequest(http.MethodPatch, "/api/places/"+data.Place.ID,
		strings.NewReader(`{"title":"New","description":"new description"}`))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+token)
	w = env.do(t, req)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	require.Equal(t, "Successfully updated place.", decode(t, w).Message)

	req = httptest.NewRequest(http.MethodDelete, "/api/places/"+data.Place.ID, nil)
	req.Header.Set("Authorization", "Bearer "+token)
	w = env.do(t, req)
	require.Equal(t, http.StatusOK, w.Code)
	require.Equal(t, "Successfully deleted place.", decode(t, w).Message)

	// Deleted place is gone and the user holds no dangling reference.
	req = httptest.NewRequest(http.MethodGet, "/api/places/"+data.Place.ID, nil)
	require.Equal(t, http.StatusNotFound, env.do(t, req).Code)

	req = httptest.NewRequest(http.MethodGet, "/api/places/user/"+userID, nil)
	require.Equal(t, http.StatusNotFound, env.do(t, req).Code)
}

func TestDeletePlace_NotFound404(t *testing.T) {
	env := newTestEnv(t)
	_, token := env.signup(t, "Ann", "ann@x.com", "secret1")

	req := httptest.NewRequest(http.MethodDelete, "/api/places/missing", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	require.Equal(t, http.StatusNotFound, env.do(t, req).Code)
}

func TestGetUsers_NoPasswordLeak(t *testing.T) {
	env := newTestEnv(t)
	env.signup(t, "Ann", "ann@x.com", "secret1")

	req := httptest.NewRequest(http.MethodGet, "/api/users", nil)
	w := env.do(t, req)
	require.Equal(t, http.StatusOK, w.Code)
	require.NotContains(t, w.Body.String(), "password")
	require.NotContains(t, w.Body.String(), "$2a$")
}

func TestSignup_DuplicateEmail422(t *testing.T) {
	env := newTestEnv(t)
	env.signup(t, "Ann", "ann@x.com", "secret1")

	body, ct := multipartBody(t, map[string]string{
		"name": "Ann Again", "email": "ann@x.com", "password": "secret2",
	})
	req := httptest.NewRequest(http.MethodPost, "/api/users/signup", body)
	req.Header.Set("Content-Type", ct)
	require.Equal(t, http.StatusUnprocessableEntity, env.do(t, req).Code)
}
