package models

/*
Image is a single cat picture as returned by the images endpoints. Score is
only present on vote listings, and Favourite is set when the image came back
from the favourites endpoint.
*/
type Image struct {
	ID        string
	URL       string
	SourceURL string
	Score     *int
	Favourite bool
}
