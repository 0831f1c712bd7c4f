package models

const (
	CategoryAll = "all"

	ImageSizeFull  = "full"
	ImageSizeMed   = "med"
	ImageSizeSmall = "small"

	FormatJPG = "jpg"
	FormatGIF = "gif"
	FormatPNG = "png"
)

var (
	ImageSizes   = []string{ImageSizeFull, ImageSizeMed, ImageSizeSmall}
	ImageFormats = []string{FormatJPG, FormatGIF, FormatPNG}
)

/*
Settings is the administrator-editable configuration for talking to the
gallery API. There is only ever one row.
*/
type Settings struct {
	ID               uint   `db:"id"`
	ApiURL           string `db:"api_url"`
	ApiKey           string `db:"api_key"`
	ImageSize        string `db:"image_size"`
	FormatJPG        bool   `db:"format_jpg"`
	FormatGIF        bool   `db:"format_gif"`
	FormatPNG        bool   `db:"format_png"`
	Category         string `db:"category"`
	VoteEnabled      bool   `db:"vote_enabled"`
	FavouriteEnabled bool   `db:"favourite_enabled"`
	ReportEnabled    bool   `db:"report_enabled"`
}

// FormatFlags returns the enabled flag for each known image format.
func (s Settings) FormatFlags() map[string]bool {
	return map[string]bool{
		FormatJPG: s.FormatJPG,
		FormatGIF: s.FormatGIF,
		FormatPNG: s.FormatPNG,
	}
}
