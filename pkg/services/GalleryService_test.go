package services_test

import (
	"fmt"
	"testing"

	"github.com/adampresley/catgallery/pkg/models"
	"github.com/adampresley/catgallery/pkg/services"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeSettingsService struct {
	settings *models.Settings
	err      error
}

func (f *fakeSettingsService) Get() (*models.Settings, error) {
	return f.settings, f.err
}

func (f *fakeSettingsService) Save(settings *models.Settings) error {
	f.settings = settings
	return f.err
}

func TestGalleryServiceBuildsClientFromSettings(t *testing.T) {
	settings := defaultSettings()
	settings.FormatGIF = false

	service := services.NewGalleryService(services.GalleryServiceConfig{
		SettingsService: &fakeSettingsService{settings: &settings},
	})

	client, loaded, err := service.Client()
	require.NoError(t, err)
	assert.Equal(t, "jpg,png", client.GetImageTypes())
	assert.Equal(t, settings, *loaded)
}

func TestGalleryServiceSettingsError(t *testing.T) {
	service := services.NewGalleryService(services.GalleryServiceConfig{
		SettingsService: &fakeSettingsService{err: fmt.Errorf("database is locked")},
	})

	_, _, err := service.Client()
	assert.ErrorContains(t, err, "database is locked")
}
