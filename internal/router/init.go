package router

import (
	"github.com/placeshare/places-api/internal/application"
	"github.com/placeshare/places-api/internal/container"
	pginfra "github.com/placeshare/places-api/internal/infrastructure/postgres"
	handlers "github.com/placeshare/places-api/internal/interface/http"
	"github.com/placeshare/places-api/internal/router/modules"
)

func buildUserModule() *modules.UserModule {
	cfg := container.GetConfig()
	repo := pginfra.NewUserRepository(container.GetPGPool())

	service := application.NewUserService(
		repo,
		container.GetJWT(),
		container.GetGCS(),
		cfg.GCSBucket,
		container.GetRabbitPub(),
		cfg.MailSendEnabled,
		container.GetLogger(),
	)

	handler := handlers.NewUserHandler(service, container.GetLogger())
	return modules.NewUserModule(handler)
}

func buildPlaceModule() *modules.PlaceModule {
	cfg := container.GetConfig()
	placeRepo := pginfra.NewPlaceRepository(container.GetPGPool())
	userRepo := pginfra.NewUserRepository(container.GetPGPool())
	txm := pginfra.NewTxManager(container.GetPGPool())

	service := application.NewPlaceService(
		placeRepo,
		userRepo,
		txm,
		container.GetGeocoder(),
		container.GetGCS(),
		cfg.GCSBucket,
		container.GetRedis(),
		container.GetLogger(),
		container.GetES(),
		cfg.ESPlacesIndex,
	)

	handler := handlers.NewPlaceHandler(service, container.GetLogger())
	return modules.NewPlaceModule(handler)
}

// InitModules initializes all application modules and registers them with the router registry
// This function should be called once during application startup to wire up all modules
func InitModules(r *Registry) {
	r.Add(buildUserModule())
	r.Add(buildPlaceModule())
}
