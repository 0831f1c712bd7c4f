package viewmodels

import "github.com/adampresley/catgallery/pkg/models"

const DocumentationURL = "http://thecatapi.com/docs.html"

type AdminLogin struct {
	BaseViewModel
}

type AdminSettings struct {
	BaseViewModel

	Settings         models.Settings
	Categories       []models.Category
	Stats            *models.Stats
	DocumentationURL string
	ImageSizes       []string
	ImageFormats     []FormatOption
}

type FormatOption struct {
	Name    string
	Enabled bool
}

func NewAdminSettings(settings models.Settings) AdminSettings {
	result := AdminSettings{
		Settings:         settings,
		Categories:       []models.Category{},
		DocumentationURL: DocumentationURL,
		ImageSizes:       models.ImageSizes,
		ImageFormats:     []FormatOption{},
	}

	flags := settings.FormatFlags()

	for _, format := range models.ImageFormats {
		result.ImageFormats = append(result.ImageFormats, FormatOption{Name: format, Enabled: flags[format]})
	}

	return result
}
