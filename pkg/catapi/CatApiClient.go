/*
Package catapi is a small client for The Cat API's XML interface. Responses
are decoded into an untyped Tree first and then projected into the records in
pkg/models.

The client does not cache anything. Every call, including category name
lookups, is a fresh round trip.
*/
package catapi

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/adampresley/catgallery/pkg/models"
)

const (
	DefaultTimeout    = 5 * time.Second
	DefaultImageTypes = "jpg,gif,png"
)

type GalleryClient interface {
	Call(ctx context.Context, endpoint Endpoint, params *RequestParams) (*Tree, error)
	GetImage(ctx context.Context, id string) (models.Image, error)
	GetImages(ctx context.Context, count int) ([]models.Image, error)
	GetImageTypes() string
	GetCategories(ctx context.Context) ([]models.Category, error)
	GetCategoryName(ctx context.Context, id string) (string, error)
	GetStats(ctx context.Context, key string) (models.Stats, error)
	GetFavourites(ctx context.Context) ([]models.Image, error)
	Vote(ctx context.Context, id string, score int) (models.VoteOutcome, error)
	Favourite(ctx context.Context, id string, action models.FavouriteAction) (models.FavouriteOutcome, error)
	Report(ctx context.Context, id, reason string) (models.ReportOutcome, error)
}

type ClientConfig struct {
	HttpClient *http.Client
	Identity   IdentityProvider
	Logger     *slog.Logger
	Settings   *models.Settings
	Timeout    time.Duration
}

type CatApiClient struct {
	httpClient *http.Client
	identity   IdentityProvider
	logger     *slog.Logger
	settings   *models.Settings
	timeout    time.Duration
}

func NewCatApiClient(config ClientConfig) CatApiClient {
	if config.Timeout <= 0 {
		config.Timeout = DefaultTimeout
	}

	if config.HttpClient == nil {
		config.HttpClient = &http.Client{Timeout: config.Timeout}
	}

	if config.Logger == nil {
		config.Logger = slog.Default()
	}

	var settings *models.Settings

	if config.Settings != nil {
		snapshot := *config.Settings
		settings = &snapshot
	}

	return CatApiClient{
		httpClient: config.HttpClient,
		identity:   config.Identity,
		logger:     config.Logger,
		settings:   settings,
		timeout:    config.Timeout,
	}
}

/*
Call issues a GET against the endpoint and decodes the XML body. The
configured API key is added unless the caller already supplied one. The
caller's params are never modified.
*/
func (c CatApiClient) Call(ctx context.Context, endpoint Endpoint, params *RequestParams) (*Tree, error) {
	var (
		err      error
		request  *http.Request
		response *http.Response
		tree     *Tree
	)

	if c.settings == nil || strings.TrimSpace(c.settings.ApiURL) == "" {
		return nil, newRequestError(ErrConfig, endpoint, fmt.Errorf("api url is not configured"))
	}

	query := params.Clone()

	if c.settings.ApiKey != "" && !query.Has(ParamApiKey) {
		query.Set(ParamApiKey, c.settings.ApiKey)
	}

	endpointURL := c.settings.ApiURL + string(endpoint)

	if _, err = url.Parse(endpointURL); err != nil {
		return nil, newRequestError(ErrConfig, endpoint, fmt.Errorf("error parsing api url '%s': %w", endpointURL, err))
	}

	if query.Len() > 0 {
		endpointURL += "?" + query.Encode()
	}

	c.logger.Debug("request made at endpoint", "endpoint", endpoint, "url", redactURL(endpointURL, query))

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	if request, err = http.NewRequestWithContext(ctx, http.MethodGet, endpointURL, nil); err != nil {
		return nil, newRequestError(ErrConfig, endpoint, fmt.Errorf("error building request: %w", err))
	}

	if response, err = c.httpClient.Do(request); err != nil {
		return nil, newRequestError(ErrNetwork, endpoint, err)
	}

	defer response.Body.Close()

	if response.StatusCode < 200 || response.StatusCode > 299 {
		return nil, &RequestError{
			Kind:       ErrNetwork,
			Endpoint:   endpoint,
			StatusCode: response.StatusCode,
			Err:        fmt.Errorf("unexpected status %s", response.Status),
		}
	}

	if tree, err = DecodeTree(response.Body); err != nil {
		return nil, newRequestError(ErrDecode, endpoint, err)
	}

	if apiError := tree.Path("apierror"); apiError.Exists() {
		return nil, newRequestError(ErrAPI, endpoint, fmt.Errorf("%s", apiError.String()))
	}

	return tree, nil
}

/*
GetImage returns one random image, or the image with the given ID when id is
not empty.
*/
func (c CatApiClient) GetImage(ctx context.Context, id string) (models.Image, error) {
	var (
		err    error
		params *RequestParams
		tree   *Tree
	)

	if params, err = c.imageParams(ctx, MinResultsPerPage); err != nil {
		return models.Image{}, err
	}

	if id != "" {
		params.Set(ParamImageID, id)
	}

	if tree, err = c.Call(ctx, EndpointGetImages, params); err != nil {
		return models.Image{}, err
	}

	images := tree.Path("data", "images", "image").List()

	if len(images) == 0 {
		return models.Image{}, newRequestError(ErrDecode, EndpointGetImages, fmt.Errorf("response contained no image"))
	}

	return imageFromTree(images[0]), nil
}

/*
GetImages returns up to count images. count is clamped into [1, 100] and
each correction is logged as a warning.
*/
func (c CatApiClient) GetImages(ctx context.Context, count int) ([]models.Image, error) {
	var (
		err    error
		params *RequestParams
		tree   *Tree
	)

	if params, err = c.imageParams(ctx, c.clampQuantity(count)); err != nil {
		return nil, err
	}

	if tree, err = c.Call(ctx, EndpointGetImages, params); err != nil {
		return nil, err
	}

	return imagesFromTree(tree.Path("data", "images", "image"), false), nil
}

// GetImageTypes returns the comma separated list of allowed image formats.
func (c CatApiClient) GetImageTypes() string {
	if c.settings == nil {
		return DefaultImageTypes
	}

	flags := c.settings.FormatFlags()
	result := []string{}

	for _, format := range models.ImageFormats {
		if flags[format] {
			result = append(result, format)
		}
	}

	return strings.Join(result, ",")
}

func (c CatApiClient) GetCategories(ctx context.Context) ([]models.Category, error) {
	var (
		err  error
		tree *Tree
	)

	if tree, err = c.Call(ctx, EndpointListCategories, NewRequestParams()); err != nil {
		return nil, err
	}

	nodes := tree.Path("data", "categories", "category").List()
	result := make([]models.Category, 0, len(nodes))

	for _, node := range nodes {
		result = append(result, models.Category{
			ID:   node.Get("id"),
			Name: node.Get("name"),
		})
	}

	return result, nil
}

/*
GetCategoryName fetches the full category list and returns the name of the
first category matching id, or an empty string. There is no memoization, so
calling this in a loop costs one request per iteration.
*/
func (c CatApiClient) GetCategoryName(ctx context.Context, id string) (string, error) {
	var (
		err        error
		categories []models.Category
	)

	if categories, err = c.GetCategories(ctx); err != nil {
		return "", err
	}

	for _, category := range categories {
		if category.ID == id {
			return category.Name, nil
		}
	}

	return "", nil
}

// GetStats returns usage statistics for key, or for the configured key when
// key is empty.
func (c CatApiClient) GetStats(ctx context.Context, key string) (models.Stats, error) {
	var (
		err    error
		tree   *Tree
		result models.Stats
	)

	if key == "" && c.settings != nil {
		key = c.settings.ApiKey
	}

	params := NewRequestParams().Set(ParamApiKey, key)

	if tree, err = c.Call(ctx, EndpointGetStats, params); err != nil {
		return result, err
	}

	overview := tree.Path("data", "stats", "statsoverview")

	if !overview.Exists() {
		return result, newRequestError(ErrDecode, EndpointGetStats, fmt.Errorf("response contained no stats overview"))
	}

	fields := []struct {
		name   string
		target *int
	}{
		{name: "total_get_requests", target: &result.TotalGetRequests},
		{name: "total_votes", target: &result.TotalVotes},
		{name: "total_favourites", target: &result.TotalFavourites},
	}

	for _, field := range fields {
		if *field.target, err = parseCount(overview.Get(field.name)); err != nil {
			return models.Stats{}, newRequestError(ErrDecode, EndpointGetStats, fmt.Errorf("error parsing '%s': %w", field.name, err))
		}
	}

	return result, nil
}

func (c CatApiClient) GetFavourites(ctx context.Context) ([]models.Image, error) {
	var (
		err  error
		tree *Tree
	)

	params := NewRequestParams()
	c.attachSubmitter(ctx, params)

	if tree, err = c.Call(ctx, EndpointGetFavourites, params); err != nil {
		return nil, err
	}

	return imagesFromTree(tree.Path("data", "images", "image"), true), nil
}

/*
Vote records a score for the image. The score must be between MinScore and
MaxScore (1 to 10), otherwise ErrInvalidArgument is returned without a
request. When voting is disabled nothing is sent and Performed is false.
*/
func (c CatApiClient) Vote(ctx context.Context, id string, score int) (models.VoteOutcome, error) {
	var (
		err error
	)

	if c.settings == nil || !c.settings.VoteEnabled {
		c.logger.Debug("voting is disabled. skipping", "imageID", id)
		return models.VoteOutcome{ImageID: id, Score: score}, nil
	}

	if id == "" {
		return models.VoteOutcome{}, newRequestError(ErrInvalidArgument, EndpointVote, fmt.Errorf("image id is required"))
	}

	if score < MinScore || score > MaxScore {
		return models.VoteOutcome{}, newRequestError(ErrInvalidArgument, EndpointVote, fmt.Errorf("score %d is outside %d-%d", score, MinScore, MaxScore))
	}

	params := NewRequestParams().
		Set(ParamImageID, id).
		Set(ParamScore, score)

	c.attachSubmitter(ctx, params)

	if _, err = c.Call(ctx, EndpointVote, params); err != nil {
		return models.VoteOutcome{}, err
	}

	return models.VoteOutcome{Performed: true, ImageID: id, Score: score}, nil
}

func (c CatApiClient) Favourite(ctx context.Context, id string, action models.FavouriteAction) (models.FavouriteOutcome, error) {
	var (
		err error
	)

	if c.settings == nil || !c.settings.FavouriteEnabled {
		c.logger.Debug("favourites are disabled. skipping", "imageID", id)
		return models.FavouriteOutcome{ImageID: id, Action: action}, nil
	}

	if id == "" {
		return models.FavouriteOutcome{}, newRequestError(ErrInvalidArgument, EndpointFavourite, fmt.Errorf("image id is required"))
	}

	if action != models.FavouriteAdd && action != models.FavouriteRemove {
		return models.FavouriteOutcome{}, newRequestError(ErrInvalidArgument, EndpointFavourite, fmt.Errorf("unknown favourite action '%s'", action))
	}

	params := NewRequestParams().
		Set(ParamImageID, id).
		Set(ParamAction, string(action))

	c.attachSubmitter(ctx, params)

	if _, err = c.Call(ctx, EndpointFavourite, params); err != nil {
		return models.FavouriteOutcome{}, err
	}

	return models.FavouriteOutcome{Performed: true, ImageID: id, Action: action}, nil
}

func (c CatApiClient) Report(ctx context.Context, id, reason string) (models.ReportOutcome, error) {
	var (
		err error
	)

	if c.settings == nil || !c.settings.ReportEnabled {
		c.logger.Debug("reporting is disabled. skipping", "imageID", id)
		return models.ReportOutcome{ImageID: id, Reason: reason}, nil
	}

	if id == "" {
		return models.ReportOutcome{}, newRequestError(ErrInvalidArgument, EndpointReport, fmt.Errorf("image id is required"))
	}

	params := NewRequestParams().Set(ParamImageID, id)

	if reason != "" {
		params.Set(ParamReason, reason)
	}

	c.attachSubmitter(ctx, params)

	if _, err = c.Call(ctx, EndpointReport, params); err != nil {
		return models.ReportOutcome{}, err
	}

	return models.ReportOutcome{Performed: true, ImageID: id, Reason: reason}, nil
}

/*
imageParams builds the query shared by GetImage and GetImages. When a
category other than "all" is configured its name is resolved here, which
costs an extra categories request.
*/
func (c CatApiClient) imageParams(ctx context.Context, count int) (*RequestParams, error) {
	var (
		err          error
		categoryName string
	)

	params := NewRequestParams().
		Set(ParamResultsPerPage, count).
		Set(ParamFormat, formatXML).
		Set(ParamType, c.GetImageTypes())

	if c.settings != nil {
		params.Set(ParamSize, c.settings.ImageSize)

		if c.settings.Category != "" && c.settings.Category != models.CategoryAll {
			if categoryName, err = c.GetCategoryName(ctx, c.settings.Category); err != nil {
				return nil, fmt.Errorf("error resolving category '%s': %w", c.settings.Category, err)
			}

			params.Set(ParamCategory, categoryName)
		}
	}

	c.attachSubmitter(ctx, params)
	return params, nil
}

func (c CatApiClient) attachSubmitter(ctx context.Context, params *RequestParams) {
	if c.identity == nil {
		return
	}

	if submitterID := c.identity.SubmitterID(ctx); submitterID != "" {
		params.Set(ParamSubID, submitterID)
	}
}

func (c CatApiClient) clampQuantity(count int) int {
	if count < MinResultsPerPage {
		c.logger.Warn("[LOW NUMBER] wrong quantity requested. using minimum instead", "requested", count, "using", MinResultsPerPage)
		return MinResultsPerPage
	}

	if count > MaxResultsPerPage {
		c.logger.Warn("[BIG NUMBER] wrong quantity requested. using maximum instead", "requested", count, "using", MaxResultsPerPage)
		return MaxResultsPerPage
	}

	return count
}

func imagesFromTree(node *Tree, favourite bool) []models.Image {
	nodes := node.List()
	result := make([]models.Image, 0, len(nodes))

	for _, n := range nodes {
		image := imageFromTree(n)
		image.Favourite = favourite
		result = append(result, image)
	}

	return result
}

func imageFromTree(node *Tree) models.Image {
	result := models.Image{
		ID:        node.Get("id"),
		URL:       node.Get("url"),
		SourceURL: node.Get("source_url"),
	}

	if score, err := strconv.Atoi(node.Get("score")); err == nil {
		result.Score = &score
	}

	return result
}

func parseCount(value string) (int, error) {
	if value == "" {
		return 0, nil
	}

	return strconv.Atoi(value)
}

func redactURL(endpointURL string, params *RequestParams) string {
	key, ok := params.Get(ParamApiKey)

	if !ok || key == "" {
		return endpointURL
	}

	return strings.Replace(endpointURL, ParamApiKey+"="+url.QueryEscape(key), ParamApiKey+"=redacted", 1)
}
