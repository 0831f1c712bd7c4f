package viewmodels

import (
	"context"
	"fmt"
	"html/template"
	"log/slog"
	"strconv"
	"strings"

	"github.com/adampresley/adamgokit/slices"
	internalmodels "github.com/adampresley/catgallery/cmd/website/internal/models"
	"github.com/adampresley/catgallery/pkg/catapi"
	"github.com/adampresley/catgallery/pkg/models"
)

var fragments = template.Must(template.New("fragments").Parse(`
{{define "message"}}{{if .Message}}<p class="message{{if .IsError}} is-error{{end}}">{{.Message}}</p>{{end}}{{end}}

{{define "vote-control"}}{{if .Visible}}<form class="vote-control" hx-post="/cats/{{.ImageID}}/vote" hx-target="closest .cat-vote" hx-swap="outerHTML">
  <select name="score"{{if .Disabled}} disabled{{end}}>{{range .Scores}}<option value="{{.}}">{{.}}</option>{{end}}</select>
  <button type="submit"{{if .Disabled}} disabled{{end}}>Vote</button>
</form>{{end}}{{end}}

{{define "favourite-control"}}{{if .Visible}}<form class="favourite-control" hx-post="/cats/{{.ImageID}}/favourite" hx-target="closest .cat-favourite" hx-swap="outerHTML">
  <input type="hidden" name="action" value="{{.NextAction}}" />
  <button type="submit">{{if .IsFavourite}}Remove from favourites{{else}}Add to favourites{{end}}</button>
</form>{{end}}{{end}}

{{define "report-control"}}{{if .Visible}}<form class="report-control" hx-post="/cats/{{.ImageID}}/report" hx-target="closest .cat-report" hx-swap="outerHTML">
  <input type="text" name="reason" placeholder="Why should this image be removed?" />
  <button type="submit">Report</button>
</form>{{end}}{{end}}

{{define "vote-result"}}<div class="cat-vote">{{template "message" .}}{{template "vote-control" .Control}}</div>{{end}}
{{define "favourite-result"}}<div class="cat-favourite">{{template "message" .}}{{template "favourite-control" .Control}}</div>{{end}}
{{define "report-result"}}<div class="cat-report">{{template "message" .}}{{if .Control}}{{template "report-control" .Control}}{{end}}</div>{{end}}

{{define "controls"}}<div class="cat-vote">{{template "vote-control" .Vote}}</div>
<div class="cat-favourite">{{template "favourite-control" .Favourite}}</div>
<div class="cat-report">{{template "report-control" .Report}}</div>{{end}}
`))

type FragmentMessage struct {
	Message string
	IsError bool
}

type VoteResult struct {
	FragmentMessage
	Control internalmodels.VoteControl
}

type FavouriteResult struct {
	FragmentMessage
	Control internalmodels.FavouriteControl
}

// ReportResult has no control once a report went through; the button is
// removed rather than toggled.
type ReportResult struct {
	FragmentMessage
	Control *internalmodels.ReportControl
}

func scoreOptions() []int {
	result := make([]int, 0, catapi.MaxScore-catapi.MinScore+1)

	for score := catapi.MinScore; score <= catapi.MaxScore; score++ {
		result = append(result, score)
	}

	return result
}

/*
NewCat maps an API image into the gallery view model. Controls are shown
only for features enabled in settings.
*/
func NewCat(image models.Image, settings *models.Settings) internalmodels.Cat {
	if settings == nil {
		settings = &models.Settings{}
	}

	result := internalmodels.Cat{
		ID:           image.ID,
		URL:          image.URL,
		SourceURL:    image.SourceURL,
		ThumbnailURL: fmt.Sprintf("/cats/%s/thumbnail", image.ID),
		IsFavourite:  image.Favourite,
		Vote: internalmodels.VoteControl{
			ImageID: image.ID,
			Visible: settings.VoteEnabled,
			Scores:  scoreOptions(),
		},
		Favourite: internalmodels.FavouriteControl{
			ImageID:     image.ID,
			Visible:     settings.FavouriteEnabled,
			IsFavourite: image.Favourite,
		},
		Report: internalmodels.ReportControl{
			ImageID: image.ID,
			Visible: settings.ReportEnabled,
		},
	}

	if image.Score != nil {
		result.Score = strconv.Itoa(*image.Score)
	}

	result.ControlsHTML = renderControls(result)
	return result
}

// MarkFavourites flags the images that appear in favourites.
func MarkFavourites(images []models.Image, favourites []models.Image) []models.Image {
	favouriteIDs := slices.Map(favourites, func(input models.Image, index int) string {
		return input.ID
	})

	for index := range images {
		if slices.IsInSlice(images[index].ID, favouriteIDs) {
			images[index].Favourite = true
		}
	}

	return images
}

/*
WithFavourites looks up the visitor's favourites and marks them in images so
the favourite control starts in the right state. Nothing is looked up when
favourites are disabled. A failed lookup leaves the images unmarked.
*/
func WithFavourites(ctx context.Context, client catapi.GalleryClient, settings *models.Settings, images []models.Image) []models.Image {
	if settings == nil || !settings.FavouriteEnabled || len(images) == 0 {
		return images
	}

	favourites, err := client.GetFavourites(ctx)

	if err != nil {
		slog.Warn("could not load favourites to mark images", "error", err)
		return images
	}

	return MarkFavourites(images, favourites)
}

func NewCats(images []models.Image, settings *models.Settings) []internalmodels.Cat {
	result := make([]internalmodels.Cat, 0, len(images))

	for _, image := range images {
		result = append(result, NewCat(image, settings))
	}

	return result
}

func NewVoteResult(outcome models.VoteOutcome) VoteResult {
	result := VoteResult{
		Control: internalmodels.VoteControl{
			ImageID:  outcome.ImageID,
			Visible:  true,
			Disabled: true,
			Scores:   scoreOptions(),
		},
	}

	if !outcome.Performed {
		result.Message = "Voting is currently disabled."
		result.IsError = true
		return result
	}

	result.Message = fmt.Sprintf("Thanks for voting! You gave this cat a %d.", outcome.Score)
	return result
}

func NewFavouriteResult(outcome models.FavouriteOutcome) FavouriteResult {
	result := FavouriteResult{
		Control: internalmodels.FavouriteControl{
			ImageID: outcome.ImageID,
		},
	}

	switch {
	case outcome.Added():
		result.Message = "This cat was added to your favourites."
		result.Control.Visible = true
		result.Control.IsFavourite = true

	case outcome.Removed():
		result.Message = "This cat was removed from your favourites."
		result.Control.Visible = true
		result.Control.IsFavourite = false

	default:
		result.Message = "Favourites are currently disabled."
		result.IsError = true
	}

	return result
}

func NewReportResult(outcome models.ReportOutcome) ReportResult {
	if !outcome.Performed {
		return ReportResult{
			FragmentMessage: FragmentMessage{Message: "Reporting is currently disabled.", IsError: true},
		}
	}

	return ReportResult{
		FragmentMessage: FragmentMessage{Message: "Thanks! This image was reported."},
	}
}

// NewFailedVoteResult keeps the vote control usable so the visitor can try again.
func NewFailedVoteResult(imageID, message string) VoteResult {
	return VoteResult{
		FragmentMessage: FragmentMessage{Message: message, IsError: true},
		Control: internalmodels.VoteControl{
			ImageID: imageID,
			Visible: true,
			Scores:  scoreOptions(),
		},
	}
}

func NewFailedFavouriteResult(imageID string, action models.FavouriteAction, message string) FavouriteResult {
	return FavouriteResult{
		FragmentMessage: FragmentMessage{Message: message, IsError: true},
		Control: internalmodels.FavouriteControl{
			ImageID:     imageID,
			Visible:     true,
			IsFavourite: action == models.FavouriteRemove,
		},
	}
}

func NewFailedReportResult(imageID, message string) ReportResult {
	return ReportResult{
		FragmentMessage: FragmentMessage{Message: message, IsError: true},
		Control: &internalmodels.ReportControl{
			ImageID: imageID,
			Visible: true,
		},
	}
}

func RenderVoteFragment(result VoteResult) string {
	return renderFragment("vote-result", result)
}

func RenderFavouriteFragment(result FavouriteResult) string {
	return renderFragment("favourite-result", result)
}

func RenderReportFragment(result ReportResult) string {
	return renderFragment("report-result", result)
}

func renderControls(cat internalmodels.Cat) template.HTML {
	return template.HTML(renderFragment("controls", cat))
}

func renderFragment(name string, data any) string {
	sb := strings.Builder{}

	if err := fragments.ExecuteTemplate(&sb, name, data); err != nil {
		slog.Error("error rendering fragment", "fragment", name, "error", err)
		return ""
	}

	return sb.String()
}
