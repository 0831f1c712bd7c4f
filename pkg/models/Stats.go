package models

// Stats is the usage overview for one API key.
type Stats struct {
	TotalGetRequests int
	TotalVotes       int
	TotalFavourites  int
}
