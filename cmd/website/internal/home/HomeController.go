package home

import (
	"log/slog"
	"net/http"

	"github.com/adampresley/adamgokit/httphelpers"
	"github.com/adampresley/adamgokit/rendering"
	internalmodels "github.com/adampresley/catgallery/cmd/website/internal/models"
	"github.com/adampresley/catgallery/cmd/website/internal/viewmodels"
	"github.com/adampresley/catgallery/pkg/catapi"
	"github.com/adampresley/catgallery/pkg/models"
	"github.com/adampresley/catgallery/pkg/services"
)

type HomeHandlers interface {
	HomePage(w http.ResponseWriter, r *http.Request)
}

type HomeControllerConfig struct {
	GalleryCount   int
	GalleryService services.GalleryServicer
	Renderer       rendering.TemplateRenderer
}

type HomeController struct {
	galleryCount   int
	galleryService services.GalleryServicer
	renderer       rendering.TemplateRenderer
}

func NewHomeController(config HomeControllerConfig) HomeController {
	return HomeController{
		galleryCount:   config.GalleryCount,
		galleryService: config.GalleryService,
		renderer:       config.Renderer,
	}
}

/*
GET /
*/
func (c HomeController) HomePage(w http.ResponseWriter, r *http.Request) {
	var (
		err      error
		client   catapi.GalleryClient
		settings *models.Settings
		images   []models.Image
	)

	pageName := "pages/home"
	visitor := viewmodels.GetVisitorFromContext(r)

	viewData := viewmodels.GalleryPage{
		BaseViewModel: viewmodels.BaseViewModel{
			Message:            "",
			IsHtmx:             httphelpers.IsHtmx(r),
			IsAdmin:            visitor.IsAdmin,
			JavascriptIncludes: []rendering.JavascriptInclude{},
		},
		Cats: []internalmodels.Cat{},
	}

	if client, settings, err = c.galleryService.Client(); err != nil {
		slog.Error("error getting gallery client", "error", err)
		viewData.IsError = true
		viewData.Message = "There was a problem getting cats for this page."

		c.renderer.Render(pageName, viewData, w)
		return
	}

	if images, err = client.GetImages(r.Context(), c.galleryCount); err != nil {
		slog.Error("error getting gallery images", "error", err, "count", c.galleryCount)
		viewData.IsError = true
		viewData.Message = "There was a problem getting cats for this page."

		c.renderer.Render(pageName, viewData, w)
		return
	}

	images = viewmodels.WithFavourites(r.Context(), client, settings, images)
	viewData.Cats = viewmodels.NewCats(images, settings)
	c.renderer.Render(pageName, viewData, w)
}
