package viewmodels

import internalmodels "github.com/adampresley/catgallery/cmd/website/internal/models"

type GalleryPage struct {
	BaseViewModel
	Cats []internalmodels.Cat
}
