package catapi_test

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"testing"

	"github.com/adampresley/catgallery/pkg/catapi"
	"github.com/adampresley/catgallery/pkg/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubApi struct {
	mu       sync.Mutex
	requests []*url.URL
	status   int
	bodies   map[string]string
}

func newStubApi(t *testing.T) (*stubApi, *httptest.Server) {
	t.Helper()

	stub := &stubApi{
		status: http.StatusOK,
		bodies: map[string]string{},
	}

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		stub.mu.Lock()
		defer stub.mu.Unlock()

		u := *r.URL
		stub.requests = append(stub.requests, &u)

		w.WriteHeader(stub.status)
		_, _ = w.Write([]byte(stub.bodies[strings.TrimPrefix(r.URL.Path, "/")]))
	}))

	t.Cleanup(server.Close)
	return stub, server
}

func (s *stubApi) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.requests)
}

func (s *stubApi) last() *url.URL {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.requests[len(s.requests)-1]
}

func imagesXML(n int) string {
	sb := strings.Builder{}
	sb.WriteString(`<?xml version="1.0"?><response><data><images>`)

	for i := 1; i <= n; i++ {
		sb.WriteString(fmt.Sprintf(`<image><url>http://cats.example/%d.jpg</url><id>img%d</id><source_url>http://source.example/%d</source_url></image>`, i, i, i))
	}

	sb.WriteString(`</images></data></response>`)
	return sb.String()
}

const categoriesXML = `<?xml version="1.0"?>
<response>
  <data>
    <categories>
      <category><id>1</id><name>hats</name></category>
      <category><id>2</id><name>space</name></category>
      <category><id>2</id><name>duplicate</name></category>
    </categories>
  </data>
</response>`

func baseSettings(apiURL string) *models.Settings {
	return &models.Settings{
		ApiURL:    apiURL,
		ImageSize: models.ImageSizeSmall,
		FormatJPG: true,
		FormatGIF: false,
		FormatPNG: true,
		Category:  models.CategoryAll,
	}
}

func newTestClient(settings *models.Settings, identity catapi.IdentityProvider) (catapi.CatApiClient, *bytes.Buffer) {
	logs := &bytes.Buffer{}
	logger := slog.New(slog.NewTextHandler(logs, &slog.HandlerOptions{Level: slog.LevelDebug}))

	client := catapi.NewCatApiClient(catapi.ClientConfig{
		Identity: identity,
		Logger:   logger,
		Settings: settings,
	})

	return client, logs
}

func warningCount(logs *bytes.Buffer) int {
	return strings.Count(logs.String(), "level=WARN")
}

func TestGetImagesBuildsQueryFromSettings(t *testing.T) {
	stub, server := newStubApi(t)
	stub.bodies["images/get"] = imagesXML(5)

	client, logs := newTestClient(baseSettings(server.URL+"/"), nil)

	images, err := client.GetImages(context.Background(), 5)
	require.NoError(t, err)
	assert.Len(t, images, 5)
	assert.Equal(t, "img1", images[0].ID)
	assert.Equal(t, "http://cats.example/5.jpg", images[4].URL)

	require.Equal(t, 1, stub.count())
	u := stub.last()
	assert.Equal(t, "/images/get", u.Path)

	q := u.Query()
	assert.Equal(t, "5", q.Get("results_per_page"))
	assert.Equal(t, "xml", q.Get("format"))
	assert.Equal(t, "jpg,png", q.Get("type"))
	assert.Equal(t, "small", q.Get("size"))
	assert.False(t, q.Has("category"))
	assert.False(t, q.Has("api_key"))
	assert.False(t, q.Has("sub_id"))
	assert.Equal(t, 0, warningCount(logs))
}

func TestGetImagesKeepsParameterOrder(t *testing.T) {
	stub, server := newStubApi(t)
	stub.bodies["images/get"] = imagesXML(5)

	client, _ := newTestClient(baseSettings(server.URL+"/"), nil)

	_, err := client.GetImages(context.Background(), 5)
	require.NoError(t, err)

	assert.Equal(t, "results_per_page=5&format=xml&type=jpg%2Cpng&size=small", stub.last().RawQuery)
}

func TestGetImagesNormalizesSingleResult(t *testing.T) {
	stub, server := newStubApi(t)
	stub.bodies["images/get"] = imagesXML(1)

	client, _ := newTestClient(baseSettings(server.URL+"/"), nil)

	images, err := client.GetImages(context.Background(), 1)
	require.NoError(t, err)
	require.Len(t, images, 1)
	assert.Equal(t, "img1", images[0].ID)
	assert.Equal(t, "http://source.example/1", images[0].SourceURL)
}

func TestGetImagesClampsQuantity(t *testing.T) {
	tests := []struct {
		name          string
		requested     int
		expected      string
		expectWarning bool
	}{
		{name: "zero clamps to one", requested: 0, expected: "1", expectWarning: true},
		{name: "negative clamps to one", requested: -7, expected: "1", expectWarning: true},
		{name: "lower bound passes", requested: 1, expected: "1"},
		{name: "in range passes", requested: 42, expected: "42"},
		{name: "upper bound passes", requested: 100, expected: "100"},
		{name: "above range clamps to hundred", requested: 250, expected: "100", expectWarning: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			stub, server := newStubApi(t)
			stub.bodies["images/get"] = imagesXML(1)

			client, logs := newTestClient(baseSettings(server.URL+"/"), nil)

			_, err := client.GetImages(context.Background(), tt.requested)
			require.NoError(t, err)

			assert.Equal(t, tt.expected, stub.last().Query().Get("results_per_page"))

			if tt.expectWarning {
				assert.Equal(t, 1, warningCount(logs))
			} else {
				assert.Equal(t, 0, warningCount(logs))
			}
		})
	}
}

func TestGetImageRequestsSpecificImageWithCategoryAndSubmitter(t *testing.T) {
	stub, server := newStubApi(t)
	stub.bodies["images/get"] = imagesXML(1)
	stub.bodies["categories/list"] = categoriesXML

	settings := baseSettings(server.URL + "/")
	settings.Category = "2"

	identity := catapi.IdentityFunc(func(ctx context.Context) string { return "visitor-1" })
	client, _ := newTestClient(settings, identity)

	image, err := client.GetImage(context.Background(), "img1")
	require.NoError(t, err)
	assert.Equal(t, "img1", image.ID)

	require.Equal(t, 2, stub.count())

	q := stub.last().Query()
	assert.Equal(t, "1", q.Get("results_per_page"))
	assert.Equal(t, "img1", q.Get("image_id"))
	assert.Equal(t, "space", q.Get("category"))
	assert.Equal(t, "visitor-1", q.Get("sub_id"))
}

func TestGetImageWithEmptyResponseIsDecodeError(t *testing.T) {
	stub, server := newStubApi(t)
	stub.bodies["images/get"] = `<response><data><images></images></data></response>`

	client, _ := newTestClient(baseSettings(server.URL+"/"), nil)

	_, err := client.GetImage(context.Background(), "")
	assert.ErrorIs(t, err, catapi.ErrDecode)
}

func TestGetImageTypes(t *testing.T) {
	tests := []struct {
		name     string
		settings *models.Settings
		expected string
	}{
		{name: "no configuration", settings: nil, expected: "jpg,gif,png"},
		{name: "all enabled", settings: &models.Settings{FormatJPG: true, FormatGIF: true, FormatPNG: true}, expected: "jpg,gif,png"},
		{name: "gif disabled", settings: &models.Settings{FormatJPG: true, FormatPNG: true}, expected: "jpg,png"},
		{name: "only gif", settings: &models.Settings{FormatGIF: true}, expected: "gif"},
		{name: "none enabled", settings: &models.Settings{}, expected: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client, _ := newTestClient(tt.settings, nil)
			assert.Equal(t, tt.expected, client.GetImageTypes())
		})
	}
}

func TestGetCategoryName(t *testing.T) {
	stub, server := newStubApi(t)
	stub.bodies["categories/list"] = categoriesXML

	client, _ := newTestClient(baseSettings(server.URL+"/"), nil)

	name, err := client.GetCategoryName(context.Background(), "2")
	require.NoError(t, err)
	assert.Equal(t, "space", name)

	name, err = client.GetCategoryName(context.Background(), "99")
	require.NoError(t, err)
	assert.Equal(t, "", name)

	assert.Equal(t, 2, stub.count(), "every lookup fetches the list again")
}

func TestGetCategoriesSingleCategory(t *testing.T) {
	stub, server := newStubApi(t)
	stub.bodies["categories/list"] = `<response><data><categories><category><id>5</id><name>boxes</name></category></categories></data></response>`

	client, _ := newTestClient(baseSettings(server.URL+"/"), nil)

	categories, err := client.GetCategories(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []models.Category{{ID: "5", Name: "boxes"}}, categories)
}

func TestCallAddsConfiguredApiKeyOnlyWhenMissing(t *testing.T) {
	stub, server := newStubApi(t)
	stub.bodies["categories/list"] = categoriesXML

	settings := baseSettings(server.URL + "/")
	settings.ApiKey = "configured"

	client, logs := newTestClient(settings, nil)

	_, err := client.Call(context.Background(), catapi.EndpointListCategories, nil)
	require.NoError(t, err)
	assert.Equal(t, "configured", stub.last().Query().Get("api_key"))
	assert.NotContains(t, logs.String(), "configured")

	params := catapi.NewRequestParams().Set("api_key", "explicit")
	_, err = client.Call(context.Background(), catapi.EndpointListCategories, params)
	require.NoError(t, err)
	assert.Equal(t, "explicit", stub.last().Query().Get("api_key"))
	assert.Equal(t, 1, params.Len(), "caller params are not modified")
}

func TestCallErrors(t *testing.T) {
	t.Run("missing configuration", func(t *testing.T) {
		client, _ := newTestClient(nil, nil)
		_, err := client.Call(context.Background(), catapi.EndpointGetImages, nil)
		assert.ErrorIs(t, err, catapi.ErrConfig)
	})

	t.Run("missing api url", func(t *testing.T) {
		client, _ := newTestClient(&models.Settings{}, nil)
		_, err := client.GetImages(context.Background(), 1)
		assert.ErrorIs(t, err, catapi.ErrConfig)
	})

	t.Run("non success status", func(t *testing.T) {
		stub, server := newStubApi(t)
		stub.status = http.StatusServiceUnavailable

		client, _ := newTestClient(baseSettings(server.URL+"/"), nil)
		_, err := client.GetImages(context.Background(), 1)
		require.ErrorIs(t, err, catapi.ErrNetwork)

		var requestErr *catapi.RequestError
		require.True(t, errors.As(err, &requestErr))
		assert.Equal(t, http.StatusServiceUnavailable, requestErr.StatusCode)
		assert.Equal(t, catapi.EndpointGetImages, requestErr.Endpoint)
	})

	t.Run("transport failure", func(t *testing.T) {
		_, server := newStubApi(t)
		apiURL := server.URL + "/"
		server.Close()

		client, _ := newTestClient(baseSettings(apiURL), nil)
		_, err := client.GetCategories(context.Background())
		assert.ErrorIs(t, err, catapi.ErrNetwork)
	})

	t.Run("malformed xml", func(t *testing.T) {
		stub, server := newStubApi(t)
		stub.bodies["images/get"] = `<response><data>`

		client, _ := newTestClient(baseSettings(server.URL+"/"), nil)
		_, err := client.GetImages(context.Background(), 3)
		assert.ErrorIs(t, err, catapi.ErrDecode)
	})

	t.Run("api error element", func(t *testing.T) {
		stub, server := newStubApi(t)
		stub.bodies["images/get"] = `<response><apierror>invalid api key</apierror></response>`

		client, _ := newTestClient(baseSettings(server.URL+"/"), nil)
		_, err := client.GetImages(context.Background(), 3)
		assert.ErrorIs(t, err, catapi.ErrAPI)
		assert.Contains(t, err.Error(), "invalid api key")
	})
}

func TestGetStats(t *testing.T) {
	stub, server := newStubApi(t)
	stub.bodies["stats/getoverview"] = `<response><data><stats><statsoverview>
		<total_get_requests>120</total_get_requests>
		<total_votes>7</total_votes>
		<total_favourites>3</total_favourites>
	</statsoverview></stats></data></response>`

	settings := baseSettings(server.URL + "/")
	settings.ApiKey = "default-key"

	client, _ := newTestClient(settings, nil)

	stats, err := client.GetStats(context.Background(), "")
	require.NoError(t, err)
	assert.Equal(t, models.Stats{TotalGetRequests: 120, TotalVotes: 7, TotalFavourites: 3}, stats)
	assert.Equal(t, "default-key", stub.last().Query().Get("api_key"))

	_, err = client.GetStats(context.Background(), "other-key")
	require.NoError(t, err)
	assert.Equal(t, "other-key", stub.last().Query().Get("api_key"))
}

func TestGetStatsMissingOverviewIsDecodeError(t *testing.T) {
	stub, server := newStubApi(t)
	stub.bodies["stats/getoverview"] = `<response><data></data></response>`

	client, _ := newTestClient(baseSettings(server.URL+"/"), nil)

	_, err := client.GetStats(context.Background(), "key")
	assert.ErrorIs(t, err, catapi.ErrDecode)
}

func TestGetFavourites(t *testing.T) {
	stub, server := newStubApi(t)
	stub.bodies["images/getfavourites"] = imagesXML(2)

	identity := catapi.IdentityFunc(func(ctx context.Context) string { return "visitor-9" })
	client, _ := newTestClient(baseSettings(server.URL+"/"), identity)

	images, err := client.GetFavourites(context.Background())
	require.NoError(t, err)
	require.Len(t, images, 2)
	assert.True(t, images[0].Favourite)
	assert.Equal(t, "visitor-9", stub.last().Query().Get("sub_id"))
}

func TestMutationsAreNoOpsWhenDisabled(t *testing.T) {
	stub, server := newStubApi(t)
	client, _ := newTestClient(baseSettings(server.URL+"/"), nil)

	vote, err := client.Vote(context.Background(), "42", 10)
	require.NoError(t, err)
	assert.False(t, vote.Performed)

	favourite, err := client.Favourite(context.Background(), "42", models.FavouriteAdd)
	require.NoError(t, err)
	assert.False(t, favourite.Performed)
	assert.False(t, favourite.Added())

	report, err := client.Report(context.Background(), "42", "not a cat")
	require.NoError(t, err)
	assert.False(t, report.Performed)

	assert.Equal(t, 0, stub.count())
}

func TestMutationsWhenEnabled(t *testing.T) {
	stub, server := newStubApi(t)
	stub.bodies["images/vote"] = `<response><data></data></response>`
	stub.bodies["images/favourite"] = `<response><data></data></response>`
	stub.bodies["images/report"] = `<response><data></data></response>`

	settings := baseSettings(server.URL + "/")
	settings.VoteEnabled = true
	settings.FavouriteEnabled = true
	settings.ReportEnabled = true

	identity := catapi.IdentityFunc(func(ctx context.Context) string { return "visitor-3" })
	client, _ := newTestClient(settings, identity)
	ctx := context.Background()

	vote, err := client.Vote(ctx, "42", 10)
	require.NoError(t, err)
	assert.True(t, vote.Performed)
	assert.Equal(t, "/images/vote", stub.last().Path)
	assert.Equal(t, "10", stub.last().Query().Get("score"))
	assert.Equal(t, "42", stub.last().Query().Get("image_id"))
	assert.Equal(t, "visitor-3", stub.last().Query().Get("sub_id"))

	added, err := client.Favourite(ctx, "42", models.FavouriteAdd)
	require.NoError(t, err)
	assert.True(t, added.Added())
	assert.False(t, added.Removed())
	assert.Equal(t, "add", stub.last().Query().Get("action"))

	removed, err := client.Favourite(ctx, "42", models.FavouriteRemove)
	require.NoError(t, err)
	assert.True(t, removed.Removed())
	assert.Equal(t, "remove", stub.last().Query().Get("action"))

	report, err := client.Report(ctx, "42", "")
	require.NoError(t, err)
	assert.True(t, report.Performed)
	assert.Equal(t, "/images/report", stub.last().Path)
	assert.False(t, stub.last().Query().Has("reason"))

	assert.Equal(t, 4, stub.count())
}

func TestMutationsRejectBadArguments(t *testing.T) {
	stub, server := newStubApi(t)

	settings := baseSettings(server.URL + "/")
	settings.VoteEnabled = true
	settings.FavouriteEnabled = true

	client, _ := newTestClient(settings, nil)

	_, err := client.Vote(context.Background(), "42", 11)
	assert.ErrorIs(t, err, catapi.ErrInvalidArgument)

	_, err = client.Vote(context.Background(), "42", 0)
	assert.ErrorIs(t, err, catapi.ErrInvalidArgument)

	_, err = client.Favourite(context.Background(), "42", models.FavouriteAction("toggle"))
	assert.ErrorIs(t, err, catapi.ErrInvalidArgument)

	assert.Equal(t, 0, stub.count())
}

func TestMutationFailureDoesNotClaimSuccess(t *testing.T) {
	stub, server := newStubApi(t)
	stub.status = http.StatusInternalServerError

	settings := baseSettings(server.URL + "/")
	settings.VoteEnabled = true

	client, _ := newTestClient(settings, nil)

	outcome, err := client.Vote(context.Background(), "42", 5)
	assert.ErrorIs(t, err, catapi.ErrNetwork)
	assert.False(t, outcome.Performed)
}

func TestGetImagesDecodesLatin1Response(t *testing.T) {
	stub, server := newStubApi(t)
	stub.bodies["images/get"] = "<?xml version=\"1.0\" encoding=\"ISO-8859-1\"?>" +
		"<response><data><images><image><id>img1</id><url>http://cats.example/1.jpg</url><source_url>http://source.example/ol\xe9</source_url></image></images></data></response>"

	client, _ := newTestClient(baseSettings(server.URL+"/"), nil)

	images, err := client.GetImages(context.Background(), 1)
	require.NoError(t, err)
	require.Len(t, images, 1)
	assert.Equal(t, "img1", images[0].ID)
	assert.Equal(t, "http://source.example/olé", images[0].SourceURL)
}
