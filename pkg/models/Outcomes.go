package models

type FavouriteAction string

const (
	FavouriteAdd    FavouriteAction = "add"
	FavouriteRemove FavouriteAction = "remove"
)

/*
VoteOutcome is the result of a vote. Performed is false when voting is
disabled and nothing was sent.
*/
type VoteOutcome struct {
	Performed bool
	ImageID   string
	Score     int
}

type FavouriteOutcome struct {
	Performed bool
	ImageID   string
	Action    FavouriteAction
}

func (o FavouriteOutcome) Added() bool {
	return o.Performed && o.Action == FavouriteAdd
}

func (o FavouriteOutcome) Removed() bool {
	return o.Performed && o.Action == FavouriteRemove
}

type ReportOutcome struct {
	Performed bool
	ImageID   string
	Reason    string
}
