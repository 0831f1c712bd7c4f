package cats

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"path/filepath"

	"github.com/adampresley/adamgokit/httphelpers"
	"github.com/adampresley/adamgokit/rendering"
	"github.com/adampresley/adamgokit/s3"
	"github.com/adampresley/catgallery/cmd/website/internal/viewmodels"
	"github.com/adampresley/catgallery/pkg/catapi"
	"github.com/adampresley/catgallery/pkg/models"
	"github.com/adampresley/catgallery/pkg/services"
)

const (
	unexpectedErrorMessage = "An unexpected error occurred. Please try again later."
	apiErrorMessage        = "The cat gallery could not be reached. Please try again later."
)

type CatControllerConfig struct {
	ArchiveService   services.ArchiveServicer
	GalleryService   services.GalleryServicer
	Renderer         rendering.TemplateRenderer
	ThumbnailService services.ThumbnailServicer
}

type CatController struct {
	archiveService   services.ArchiveServicer
	galleryService   services.GalleryServicer
	renderer         rendering.TemplateRenderer
	thumbnailService services.ThumbnailServicer
}

func NewCatController(config CatControllerConfig) CatController {
	return CatController{
		archiveService:   config.ArchiveService,
		galleryService:   config.GalleryService,
		renderer:         config.Renderer,
		thumbnailService: config.ThumbnailService,
	}
}

/*
GET /cats/{id}
*/
func (c CatController) ViewCatPage(w http.ResponseWriter, r *http.Request) {
	c.renderCatPage(w, r, httphelpers.GetFromRequest[string](r, "id"))
}

/*
GET /cats/random
*/
func (c CatController) RandomCatPage(w http.ResponseWriter, r *http.Request) {
	c.renderCatPage(w, r, "")
}

func (c CatController) renderCatPage(w http.ResponseWriter, r *http.Request, id string) {
	var (
		err      error
		client   catapi.GalleryClient
		settings *models.Settings
		image    models.Image
	)

	pageName := "pages/cats/view"
	visitor := viewmodels.GetVisitorFromContext(r)

	viewData := viewmodels.CatPage{
		BaseViewModel: viewmodels.BaseViewModel{
			IsHtmx:  httphelpers.IsHtmx(r),
			IsAdmin: visitor.IsAdmin,
		},
		CatID: id,
	}

	if client, settings, err = c.galleryService.Client(); err != nil {
		slog.Error("error getting gallery client", "error", err)
		viewData.IsError = true
		viewData.Message = unexpectedErrorMessage

		c.renderer.Render(pageName, viewData, w)
		return
	}

	if image, err = client.GetImage(r.Context(), id); err != nil {
		slog.Error("error getting image", "error", err, "imageID", id)
		viewData.IsError = true
		viewData.Message = apiErrorMessage

		c.renderer.Render(pageName, viewData, w)
		return
	}

	image = viewmodels.WithFavourites(r.Context(), client, settings, []models.Image{image})[0]

	viewData.CatID = image.ID
	viewData.Cat = viewmodels.NewCat(image, settings)
	c.renderer.Render(pageName, viewData, w)
}

/*
POST /cats/{id}/vote
*/
func (c CatController) VoteAction(w http.ResponseWriter, r *http.Request) {
	var (
		err     error
		client  catapi.GalleryClient
		outcome models.VoteOutcome
	)

	id := httphelpers.GetFromRequest[string](r, "id")
	score := httphelpers.GetFromRequest[int](r, "score")

	if client, _, err = c.galleryService.Client(); err != nil {
		slog.Error("error getting gallery client", "error", err)
		httphelpers.WriteHtml(w, http.StatusInternalServerError, viewmodels.RenderVoteFragment(viewmodels.NewFailedVoteResult(id, unexpectedErrorMessage)))
		return
	}

	if outcome, err = client.Vote(r.Context(), id, score); err != nil {
		status, message := mutationFailure(err)
		slog.Error("error voting on image", "error", err, "imageID", id, "score", score)
		httphelpers.WriteHtml(w, status, viewmodels.RenderVoteFragment(viewmodels.NewFailedVoteResult(id, message)))
		return
	}

	httphelpers.WriteHtml(w, outcomeStatus(outcome.Performed), viewmodels.RenderVoteFragment(viewmodels.NewVoteResult(outcome)))
}

/*
POST /cats/{id}/favourite
*/
func (c CatController) FavouriteAction(w http.ResponseWriter, r *http.Request) {
	var (
		err     error
		client  catapi.GalleryClient
		outcome models.FavouriteOutcome
	)

	id := httphelpers.GetFromRequest[string](r, "id")
	action := models.FavouriteAction(httphelpers.GetFromRequest[string](r, "action"))

	if client, _, err = c.galleryService.Client(); err != nil {
		slog.Error("error getting gallery client", "error", err)
		httphelpers.WriteHtml(w, http.StatusInternalServerError, viewmodels.RenderFavouriteFragment(viewmodels.NewFailedFavouriteResult(id, action, unexpectedErrorMessage)))
		return
	}

	if outcome, err = client.Favourite(r.Context(), id, action); err != nil {
		status, message := mutationFailure(err)
		slog.Error("error changing favourite", "error", err, "imageID", id, "action", action)
		httphelpers.WriteHtml(w, status, viewmodels.RenderFavouriteFragment(viewmodels.NewFailedFavouriteResult(id, action, message)))
		return
	}

	httphelpers.WriteHtml(w, outcomeStatus(outcome.Performed), viewmodels.RenderFavouriteFragment(viewmodels.NewFavouriteResult(outcome)))
}

/*
POST /cats/{id}/report
*/
func (c CatController) ReportAction(w http.ResponseWriter, r *http.Request) {
	var (
		err     error
		client  catapi.GalleryClient
		outcome models.ReportOutcome
	)

	id := httphelpers.GetFromRequest[string](r, "id")
	reason := httphelpers.GetFromRequest[string](r, "reason")

	if client, _, err = c.galleryService.Client(); err != nil {
		slog.Error("error getting gallery client", "error", err)
		httphelpers.WriteHtml(w, http.StatusInternalServerError, viewmodels.RenderReportFragment(viewmodels.NewFailedReportResult(id, unexpectedErrorMessage)))
		return
	}

	if outcome, err = client.Report(r.Context(), id, reason); err != nil {
		status, message := mutationFailure(err)
		slog.Error("error reporting image", "error", err, "imageID", id)
		httphelpers.WriteHtml(w, status, viewmodels.RenderReportFragment(viewmodels.NewFailedReportResult(id, message)))
		return
	}

	httphelpers.WriteHtml(w, outcomeStatus(outcome.Performed), viewmodels.RenderReportFragment(viewmodels.NewReportResult(outcome)))
}

/*
GET /cats/{id}/thumbnail
*/
func (c CatController) Thumbnail(w http.ResponseWriter, r *http.Request) {
	var (
		err    error
		client catapi.GalleryClient
		image  models.Image
		body   []byte
	)

	id := httphelpers.GetFromRequest[string](r, "id")

	if client, _, err = c.galleryService.Client(); err != nil {
		slog.Error("error getting gallery client", "error", err)
		httphelpers.TextInternalServerError(w, "Failed to create thumbnail")
		return
	}

	if image, err = client.GetImage(r.Context(), id); err != nil {
		slog.Error("error getting image for thumbnail", "error", err, "imageID", id)
		httphelpers.WriteText(w, http.StatusBadGateway, "Failed to get image")
		return
	}

	if body, err = c.thumbnailService.Thumbnail(r.Context(), image.URL); err != nil {
		slog.Error("error creating thumbnail", "error", err, "imageID", id, "url", image.URL)
		httphelpers.WriteText(w, http.StatusBadGateway, "Failed to create thumbnail")
		return
	}

	w.Header().Set("Content-Type", "image/jpeg")
	w.Header().Set("Content-Length", fmt.Sprintf("%d", len(body)))
	w.Header().Set("Cache-Control", "public, max-age=3600")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(body)
}

/*
GET /favourites
*/
func (c CatController) FavouritesPage(w http.ResponseWriter, r *http.Request) {
	var (
		err      error
		client   catapi.GalleryClient
		settings *models.Settings
		images   []models.Image
	)

	pageName := "pages/favourites"
	visitor := viewmodels.GetVisitorFromContext(r)

	viewData := viewmodels.FavouritesPage{
		BaseViewModel: viewmodels.BaseViewModel{
			IsHtmx:  httphelpers.IsHtmx(r),
			IsAdmin: visitor.IsAdmin,
		},
	}

	if client, settings, err = c.galleryService.Client(); err != nil {
		slog.Error("error getting gallery client", "error", err)
		viewData.IsError = true
		viewData.Message = unexpectedErrorMessage

		c.renderer.Render(pageName, viewData, w)
		return
	}

	if images, err = client.GetFavourites(r.Context()); err != nil {
		slog.Error("error getting favourites", "error", err, "visitorID", visitor.ID)
		viewData.IsError = true
		viewData.Message = apiErrorMessage

		c.renderer.Render(pageName, viewData, w)
		return
	}

	viewData.Cats = viewmodels.NewCats(images, settings)
	c.renderer.Render(pageName, viewData, w)
}

/*
POST /favourites/download
*/
func (c CatController) DownloadFavouritesAction(w http.ResponseWriter, r *http.Request) {
	var (
		err      error
		client   catapi.GalleryClient
		images   []models.Image
		filename string
	)

	visitor := viewmodels.GetVisitorFromContext(r)

	if client, _, err = c.galleryService.Client(); err != nil {
		slog.Error("error getting gallery client", "error", err)
		httphelpers.TextInternalServerError(w, "Failed to start download preparation")
		return
	}

	if images, err = client.GetFavourites(r.Context()); err != nil {
		slog.Error("error getting favourites to archive", "error", err, "visitorID", visitor.ID)
		httphelpers.WriteText(w, http.StatusBadGateway, "Failed to get your favourites")
		return
	}

	if filename, err = c.archiveService.CreateArchiveAsync(visitor.ID, images); err != nil {
		slog.Error("failed to start archive creation", "error", err, "visitorID", visitor.ID)
		httphelpers.WriteText(w, http.StatusBadRequest, "There are no favourites to download")
		return
	}

	viewData := viewmodels.DownloadStarted{
		BaseViewModel: viewmodels.BaseViewModel{
			IsHtmx:  httphelpers.IsHtmx(r),
			IsAdmin: visitor.IsAdmin,
		},
		Filename:    filename,
		DownloadURL: "/favourites/downloads/" + filename,
		NumImages:   len(images),
	}

	c.renderer.Render("pages/download-started", viewData, w)
}

/*
GET /favourites/downloads/{filename}
*/
func (c CatController) DownloadArchive(w http.ResponseWriter, r *http.Request) {
	var (
		err    error
		object s3.GetObjectResponse
	)

	visitor := viewmodels.GetVisitorFromContext(r)
	filename := filepath.Base(httphelpers.GetFromRequest[string](r, "filename"))

	if !services.IsArchiveKey(filename) {
		httphelpers.WriteText(w, http.StatusBadRequest, "Invalid download link")
		return
	}

	if object, err = c.archiveService.Open(r.Context(), visitor.ID, filename); err != nil {
		slog.Error("error getting archive", "error", err, "visitorID", visitor.ID, "filename", filename)
		httphelpers.WriteText(w, http.StatusNotFound, "Download file not found")
		return
	}

	defer object.Body.Close()

	w.Header().Set("Content-Type", "application/zip")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%s", filename))
	w.Header().Set("Content-Length", fmt.Sprintf("%d", object.Size))

	if _, err = io.Copy(w, object.Body); err != nil {
		slog.Error("error streaming archive", "error", err, "filename", filename)
		return
	}

	slog.Info("archive download completed", "filename", filename, "visitorID", visitor.ID)
}

func outcomeStatus(performed bool) int {
	if !performed {
		return http.StatusForbidden
	}

	return http.StatusOK
}

func mutationFailure(err error) (int, string) {
	if errors.Is(err, catapi.ErrInvalidArgument) {
		return http.StatusBadRequest, "That request was not valid. Please try again."
	}

	return http.StatusBadGateway, apiErrorMessage
}
