package viewmodels

import internalmodels "github.com/adampresley/catgallery/cmd/website/internal/models"

type FavouritesPage struct {
	BaseViewModel
	Cats []internalmodels.Cat
}

type DownloadStarted struct {
	BaseViewModel
	Filename    string
	DownloadURL string
	NumImages   int
}
