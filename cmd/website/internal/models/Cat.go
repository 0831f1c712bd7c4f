package models

import "html/template"

/*
Cat is a gallery image prepared for display, with the state of each of its
controls already decided.
*/
type Cat struct {
	ID           string
	URL          string
	SourceURL    string
	ThumbnailURL string
	Score        string
	IsFavourite  bool
	Vote         VoteControl
	Favourite    FavouriteControl
	Report       ReportControl
	ControlsHTML template.HTML
}

type VoteControl struct {
	ImageID  string
	Visible  bool
	Disabled bool
	Scores   []int
}

type FavouriteControl struct {
	ImageID     string
	Visible     bool
	IsFavourite bool
}

// NextAction is what pressing the favourite button will do.
func (c FavouriteControl) NextAction() string {
	if c.IsFavourite {
		return "remove"
	}

	return "add"
}

type ReportControl struct {
	ImageID string
	Visible bool
}
