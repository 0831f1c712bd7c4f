package cats_test

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/adampresley/catgallery/cmd/website/internal/cats"
	"github.com/adampresley/catgallery/pkg/catapi"
	"github.com/adampresley/catgallery/pkg/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeGalleryService struct {
	client   catapi.GalleryClient
	settings *models.Settings
	err      error
}

func (f fakeGalleryService) Client() (catapi.GalleryClient, *models.Settings, error) {
	return f.client, f.settings, f.err
}

type fakeThumbnailService struct {
	requested string
	body      []byte
	err       error
}

func (f *fakeThumbnailService) Thumbnail(ctx context.Context, imageURL string) ([]byte, error) {
	f.requested = imageURL
	return f.body, f.err
}

/*
galleryApi answers every request with an empty successful response and
counts how many it got.
*/
func galleryApi(t *testing.T) (*httptest.Server, *atomic.Int32) {
	t.Helper()

	hits := &atomic.Int32{}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.Header().Set("Content-Type", "text/xml")
		_, _ = io.WriteString(w, `<response><data></data></response>`)
	}))

	t.Cleanup(server.Close)
	return server, hits
}

func newController(t *testing.T, apiURL string, settings models.Settings) cats.CatController {
	t.Helper()

	settings.ApiURL = apiURL
	client := catapi.NewCatApiClient(catapi.ClientConfig{Settings: &settings})

	return cats.NewCatController(cats.CatControllerConfig{
		GalleryService: fakeGalleryService{client: client, settings: &settings},
	})
}

func postRequest(target, id string) *http.Request {
	r := httptest.NewRequest(http.MethodPost, target, nil)
	r.SetPathValue("id", id)
	return r
}

func TestMutationsWhenDisabledAreForbiddenAndSendNothing(t *testing.T) {
	server, hits := galleryApi(t)
	controller := newController(t, server.URL+"/", models.Settings{})

	tests := []struct {
		name     string
		handler  http.HandlerFunc
		target   string
		contains string
	}{
		{name: "vote", handler: controller.VoteAction, target: "/cats/42/vote?score=5", contains: "Voting is currently disabled."},
		{name: "favourite", handler: controller.FavouriteAction, target: "/cats/42/favourite?action=add", contains: "Favourites are currently disabled."},
		{name: "report", handler: controller.ReportAction, target: "/cats/42/report?reason=blurry", contains: "Reporting is currently disabled."},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			tt.handler(w, postRequest(tt.target, "42"))

			assert.Equal(t, http.StatusForbidden, w.Code)
			assert.Contains(t, w.Body.String(), tt.contains)
			assert.Contains(t, w.Body.String(), "is-error")
		})
	}

	assert.Equal(t, int32(0), hits.Load())
}

func TestVoteActionSucceeds(t *testing.T) {
	server, hits := galleryApi(t)
	controller := newController(t, server.URL+"/", models.Settings{VoteEnabled: true})

	w := httptest.NewRecorder()
	controller.VoteAction(w, postRequest("/cats/42/vote?score=8", "42"))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "You gave this cat a 8.")
	assert.Equal(t, int32(1), hits.Load())
}

func TestVoteActionRejectsBadScore(t *testing.T) {
	server, hits := galleryApi(t)
	controller := newController(t, server.URL+"/", models.Settings{VoteEnabled: true})

	w := httptest.NewRecorder()
	controller.VoteAction(w, postRequest("/cats/42/vote?score=11", "42"))

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.NotContains(t, w.Body.String(), "Thanks")
	assert.Equal(t, int32(0), hits.Load())
}

func TestFavouriteActionTogglesControl(t *testing.T) {
	server, _ := galleryApi(t)
	controller := newController(t, server.URL+"/", models.Settings{FavouriteEnabled: true})

	w := httptest.NewRecorder()
	controller.FavouriteAction(w, postRequest("/cats/42/favourite?action=add", "42"))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "added to your favourites")
	assert.Contains(t, w.Body.String(), `value="remove"`)
}

func TestReportActionFailureIsNotASuccess(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer server.Close()

	controller := newController(t, server.URL+"/", models.Settings{ReportEnabled: true})

	w := httptest.NewRecorder()
	controller.ReportAction(w, postRequest("/cats/42/report?reason=blurry", "42"))

	assert.Equal(t, http.StatusBadGateway, w.Code)
	assert.NotContains(t, w.Body.String(), "Thanks")
	assert.Contains(t, w.Body.String(), `hx-post="/cats/42/report"`)
}

func TestMutationWithoutGalleryClient(t *testing.T) {
	controller := cats.NewCatController(cats.CatControllerConfig{
		GalleryService: fakeGalleryService{err: fmt.Errorf("database is gone")},
	})

	w := httptest.NewRecorder()
	controller.VoteAction(w, postRequest("/cats/42/vote?score=5", "42"))

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Contains(t, w.Body.String(), "is-error")
}

func TestThumbnail(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, `<response><data><images><image><id>42</id><url>http://cats.example/42.png</url></image></images></data></response>`)
	}))
	defer server.Close()

	settings := models.Settings{ApiURL: server.URL + "/", ImageSize: models.ImageSizeMed, Category: models.CategoryAll}
	thumbnails := &fakeThumbnailService{body: []byte("jpeg bytes")}

	controller := cats.NewCatController(cats.CatControllerConfig{
		GalleryService:   fakeGalleryService{client: catapi.NewCatApiClient(catapi.ClientConfig{Settings: &settings}), settings: &settings},
		ThumbnailService: thumbnails,
	})

	r := httptest.NewRequest(http.MethodGet, "/cats/42/thumbnail", nil)
	r.SetPathValue("id", "42")
	w := httptest.NewRecorder()

	controller.Thumbnail(w, r)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "image/jpeg", w.Header().Get("Content-Type"))
	assert.Equal(t, "jpeg bytes", w.Body.String())
	assert.Equal(t, "http://cats.example/42.png", thumbnails.requested)
}

func TestThumbnailWhenResizeFails(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, `<response><data><images><image><id>42</id><url>http://cats.example/42.png</url></image></images></data></response>`)
	}))
	defer server.Close()

	settings := models.Settings{ApiURL: server.URL + "/", ImageSize: models.ImageSizeMed, Category: models.CategoryAll}

	controller := cats.NewCatController(cats.CatControllerConfig{
		GalleryService:   fakeGalleryService{client: catapi.NewCatApiClient(catapi.ClientConfig{Settings: &settings}), settings: &settings},
		ThumbnailService: &fakeThumbnailService{err: fmt.Errorf("not an image")},
	})

	r := httptest.NewRequest(http.MethodGet, "/cats/42/thumbnail", nil)
	r.SetPathValue("id", "42")
	w := httptest.NewRecorder()

	controller.Thumbnail(w, r)

	assert.Equal(t, http.StatusBadGateway, w.Code)
}

func TestDownloadArchiveRejectsOtherFiles(t *testing.T) {
	controller := cats.NewCatController(cats.CatControllerConfig{})

	r := httptest.NewRequest(http.MethodGet, "/favourites/downloads/secrets.txt", nil)
	r.SetPathValue("filename", "secrets.txt")
	w := httptest.NewRecorder()

	controller.DownloadArchive(w, r)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}
