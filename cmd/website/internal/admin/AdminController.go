package admin

import (
	"crypto/subtle"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/adampresley/adamgokit/httphelpers"
	"github.com/adampresley/adamgokit/rendering"
	"github.com/adampresley/catgallery/cmd/website/internal/viewmodels"
	"github.com/adampresley/catgallery/pkg/catapi"
	"github.com/adampresley/catgallery/pkg/models"
	"github.com/adampresley/catgallery/pkg/services"
)

/*
VisitorSessioner is the part of the visitor session the admin pages need.
sessions.Session[*models.Visitor] satisfies it.
*/
type VisitorSessioner interface {
	Set(r *http.Request, visitor *models.Visitor) error
	Save(w http.ResponseWriter, r *http.Request) error
}

type AdminControllerConfig struct {
	AdminPassword   string
	GalleryService  services.GalleryServicer
	Renderer        rendering.TemplateRenderer
	SessionService  VisitorSessioner
	SettingsService services.SettingsServicer
}

type AdminController struct {
	adminPassword   string
	galleryService  services.GalleryServicer
	renderer        rendering.TemplateRenderer
	sessionService  VisitorSessioner
	settingsService services.SettingsServicer
}

func NewAdminController(config AdminControllerConfig) AdminController {
	return AdminController{
		adminPassword:   config.AdminPassword,
		galleryService:  config.GalleryService,
		renderer:        config.Renderer,
		sessionService:  config.SessionService,
		settingsService: config.SettingsService,
	}
}

/*
GET /admin/login
*/
func (c AdminController) LoginPage(w http.ResponseWriter, r *http.Request) {
	viewData := viewmodels.AdminLogin{
		BaseViewModel: viewmodels.BaseViewModel{
			IsHtmx: httphelpers.IsHtmx(r),
		},
	}

	c.renderer.Render("pages/admin/login", viewData, w)
}

/*
POST /admin/login
*/
func (c AdminController) LoginAction(w http.ResponseWriter, r *http.Request) {
	var (
		err error
	)

	pageName := "pages/admin/login"
	password := httphelpers.GetFromRequest[string](r, "password")

	viewData := viewmodels.AdminLogin{
		BaseViewModel: viewmodels.BaseViewModel{
			IsHtmx: httphelpers.IsHtmx(r),
		},
	}

	if !PasswordMatches(c.adminPassword, password) {
		viewData.IsWarning = true
		viewData.Message = "Your password was not correct. Please try again."

		c.renderer.Render(pageName, viewData, w)
		return
	}

	if err = c.setAdmin(w, r, true); err != nil {
		slog.Error("error saving admin session", "error", err)
	}

	http.Redirect(w, r, "/admin/settings", http.StatusFound)
}

/*
GET /admin/logout
*/
func (c AdminController) LogoutAction(w http.ResponseWriter, r *http.Request) {
	var (
		err error
	)

	if err = c.setAdmin(w, r, false); err != nil {
		slog.Error("error saving session on logout", "error", err)
	}

	http.Redirect(w, r, "/admin/login", http.StatusFound)
}

/*
setAdmin flips the admin flag on the current visitor and saves the session.
The visitor ID is kept, so votes and favourites stay with the visitor across
login and logout.
*/
func (c AdminController) setAdmin(w http.ResponseWriter, r *http.Request, isAdmin bool) error {
	var (
		err error
	)

	visitor := viewmodels.GetVisitorFromContext(r)
	visitor.IsAdmin = isAdmin

	if err = c.sessionService.Set(r, visitor); err != nil {
		return fmt.Errorf("error setting visitor session: %w", err)
	}

	if err = c.sessionService.Save(w, r); err != nil {
		return fmt.Errorf("error saving visitor session: %w", err)
	}

	return nil
}

// PasswordMatches is false whenever no admin password is configured.
func PasswordMatches(configured, given string) bool {
	if configured == "" {
		return false
	}

	return subtle.ConstantTimeCompare([]byte(given), []byte(configured)) == 1
}

/*
GET /admin/settings
*/
func (c AdminController) SettingsPage(w http.ResponseWriter, r *http.Request) {
	var (
		err      error
		settings *models.Settings
	)

	if settings, err = c.settingsService.Get(); err != nil {
		slog.Error("error loading settings", "error", err)

		viewData := viewmodels.NewAdminSettings(models.Settings{})
		viewData.IsHtmx = httphelpers.IsHtmx(r)
		viewData.IsAdmin = true
		viewData.IsError = true
		viewData.Message = "An unexpected error occurred loading the settings."

		c.renderer.Render("pages/admin/settings", viewData, w)
		return
	}

	c.renderSettings(w, r, *settings, "", false)
}

/*
POST /admin/settings
*/
func (c AdminController) SaveSettingsAction(w http.ResponseWriter, r *http.Request) {
	var (
		err error
	)

	settings := SettingsFromRequest(r)

	if err = c.settingsService.Save(&settings); err != nil {
		if errors.Is(err, catapi.ErrConfig) {
			slog.Warn("invalid settings submitted", "error", err)
			c.renderSettings(w, r, settings, configErrorMessage(err), true)
			return
		}

		slog.Error("error saving settings", "error", err)
		c.renderSettings(w, r, settings, "An unexpected error occurred saving the settings.", true)
		return
	}

	slog.Info("settings saved", "apiURL", settings.ApiURL, "imageSize", settings.ImageSize, "category", settings.Category)
	c.renderSettings(w, r, settings, "Settings saved.", false)
}

/*
SettingsFromRequest reads the settings form. Unchecked boxes are not posted,
so a missing field means false.
*/
func SettingsFromRequest(r *http.Request) models.Settings {
	return models.Settings{
		ApiURL:           httphelpers.GetFromRequest[string](r, "apiURL"),
		ApiKey:           httphelpers.GetFromRequest[string](r, "apiKey"),
		ImageSize:        httphelpers.GetFromRequest[string](r, "imageSize"),
		FormatJPG:        checked(r, "format_"+models.FormatJPG),
		FormatGIF:        checked(r, "format_"+models.FormatGIF),
		FormatPNG:        checked(r, "format_"+models.FormatPNG),
		Category:         httphelpers.GetFromRequest[string](r, "category"),
		VoteEnabled:      checked(r, "voteEnabled"),
		FavouriteEnabled: checked(r, "favouriteEnabled"),
		ReportEnabled:    checked(r, "reportEnabled"),
	}
}

func checked(r *http.Request, name string) bool {
	value := httphelpers.GetFromRequest[string](r, name)
	return value == "on" || value == "true" || value == "1"
}

func (c AdminController) renderSettings(w http.ResponseWriter, r *http.Request, settings models.Settings, message string, isError bool) {
	var (
		err        error
		client     catapi.GalleryClient
		categories []models.Category
		stats      models.Stats
	)

	viewData := viewmodels.NewAdminSettings(settings)
	viewData.IsHtmx = httphelpers.IsHtmx(r)
	viewData.IsAdmin = true
	viewData.Message = message
	viewData.IsError = isError

	if client, _, err = c.galleryService.Client(); err != nil {
		slog.Error("error getting gallery client for settings page", "error", err)
		c.renderer.Render("pages/admin/settings", viewData, w)
		return
	}

	if categories, err = client.GetCategories(r.Context()); err != nil {
		slog.Warn("could not load categories", "error", err)
		viewData.IsWarning = true
	} else {
		viewData.Categories = categories
	}

	if settings.ApiKey != "" {
		if stats, err = client.GetStats(r.Context(), settings.ApiKey); err != nil {
			slog.Warn("could not load api stats", "error", err)
			viewData.IsWarning = true
		} else {
			viewData.Stats = &stats
		}
	}

	if viewData.IsWarning && viewData.Message == "" {
		viewData.Message = "The cat gallery could not be reached. Categories and statistics may be missing."
	}

	c.renderer.Render("pages/admin/settings", viewData, w)
}

func configErrorMessage(err error) string {
	return "The settings could not be saved: " + strings.TrimPrefix(err.Error(), catapi.ErrConfig.Error()+": ")
}
