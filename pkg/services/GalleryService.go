package services

import (
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/adampresley/catgallery/pkg/catapi"
	"github.com/adampresley/catgallery/pkg/models"
)

/*
GalleryServicer hands out gallery API clients built from the current
settings. Each client holds its own snapshot, so a settings change made by an
administrator applies to the next request rather than one in flight.
*/
type GalleryServicer interface {
	Client() (catapi.GalleryClient, *models.Settings, error)
}

type GalleryServiceConfig struct {
	HttpClient      *http.Client
	Identity        catapi.IdentityProvider
	Logger          *slog.Logger
	SettingsService SettingsServicer
	Timeout         time.Duration
}

type GalleryService struct {
	httpClient      *http.Client
	identity        catapi.IdentityProvider
	logger          *slog.Logger
	settingsService SettingsServicer
	timeout         time.Duration
}

func NewGalleryService(config GalleryServiceConfig) GalleryService {
	return GalleryService{
		httpClient:      config.HttpClient,
		identity:        config.Identity,
		logger:          config.Logger,
		settingsService: config.SettingsService,
		timeout:         config.Timeout,
	}
}

func (s GalleryService) Client() (catapi.GalleryClient, *models.Settings, error) {
	var (
		err      error
		settings *models.Settings
	)

	if settings, err = s.settingsService.Get(); err != nil {
		return nil, nil, fmt.Errorf("error loading settings for gallery client: %w", err)
	}

	client := catapi.NewCatApiClient(catapi.ClientConfig{
		HttpClient: s.httpClient,
		Identity:   s.identity,
		Logger:     s.logger,
		Settings:   settings,
		Timeout:    s.timeout,
	})

	return client, settings, nil
}
