package services

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/adampresley/adamgokit/slices"
	"github.com/adampresley/catgallery/pkg/catapi"
	"github.com/adampresley/catgallery/pkg/models"
	"github.com/rfberaldo/sqlz"
)

const settingsRowID = 1

type SettingsServicer interface {
	Get() (*models.Settings, error)
	Save(settings *models.Settings) error
}

type SettingsServiceConfig struct {
	DB       *sqlz.DB
	Defaults models.Settings
}

type SettingsService struct {
	db       *sqlz.DB
	defaults models.Settings
}

func NewSettingsService(config SettingsServiceConfig) SettingsService {
	return SettingsService{
		db:       config.DB,
		defaults: config.Defaults,
	}
}

/*
Get returns the saved settings. Until an administrator saves the form the
defaults from the application configuration are returned.
*/
func (s SettingsService) Get() (*models.Settings, error) {
	var (
		err error
	)

	result := &models.Settings{}

	sql := `
SELECT
   s.id
   , s.api_url
   , s.api_key
   , s.image_size
   , s.format_jpg
   , s.format_gif
   , s.format_png
   , s.category
   , s.vote_enabled
   , s.favourite_enabled
   , s.report_enabled
FROM settings AS s
WHERE 1=1
   AND s.id=?
   `

	ctx, cancel := context.WithTimeout(context.Background(), time.Second*5)
	defer cancel()

	if err = s.db.QueryRow(ctx, result, sql, settingsRowID); err != nil {
		if sqlz.IsNotFound(err) {
			defaults := s.defaults
			return &defaults, nil
		}

		return nil, fmt.Errorf("error querying for settings: %w", err)
	}

	return result, nil
}

func (s SettingsService) Save(settings *models.Settings) error {
	var (
		err error
	)

	if err = ValidateSettings(settings); err != nil {
		return err
	}

	sql := `
INSERT INTO settings (
   id,
   api_url,
   api_key,
   image_size,
   format_jpg,
   format_gif,
   format_png,
   category,
   vote_enabled,
   favourite_enabled,
   report_enabled
) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
ON CONFLICT(id) DO UPDATE SET
   api_url=excluded.api_url,
   api_key=excluded.api_key,
   image_size=excluded.image_size,
   format_jpg=excluded.format_jpg,
   format_gif=excluded.format_gif,
   format_png=excluded.format_png,
   category=excluded.category,
   vote_enabled=excluded.vote_enabled,
   favourite_enabled=excluded.favourite_enabled,
   report_enabled=excluded.report_enabled
`

	params := []any{
		settingsRowID,
		settings.ApiURL,
		settings.ApiKey,
		settings.ImageSize,
		settings.FormatJPG,
		settings.FormatGIF,
		settings.FormatPNG,
		settings.Category,
		settings.VoteEnabled,
		settings.FavouriteEnabled,
		settings.ReportEnabled,
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Second*5)
	defer cancel()

	if _, err = s.db.Exec(ctx, sql, params...); err != nil {
		return fmt.Errorf("error saving settings: %w", err)
	}

	settings.ID = settingsRowID
	return nil
}

/*
ValidateSettings checks the form values, adds a trailing slash to the API URL
and fills in a category of "all" when none was chosen. A missing or unusable
API URL is a configuration error.
*/
func ValidateSettings(settings *models.Settings) error {
	settings.ApiURL = strings.TrimSpace(settings.ApiURL)
	settings.ApiKey = strings.TrimSpace(settings.ApiKey)

	if settings.ApiURL == "" {
		return fmt.Errorf("%w: the api url is required", catapi.ErrConfig)
	}

	u, err := url.Parse(settings.ApiURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("%w: '%s' is not a valid http(s) url", catapi.ErrConfig, settings.ApiURL)
	}

	// Endpoints are appended directly to the base URL
	if !strings.HasSuffix(settings.ApiURL, "/") {
		settings.ApiURL += "/"
	}

	if !slices.IsInSlice(settings.ImageSize, models.ImageSizes) {
		return fmt.Errorf("%w: unknown image size '%s'", catapi.ErrConfig, settings.ImageSize)
	}

	if settings.Category == "" {
		settings.Category = models.CategoryAll
	}

	return nil
}
