package viewmodels

import internalmodels "github.com/adampresley/catgallery/cmd/website/internal/models"

type CatPage struct {
	BaseViewModel
	CatID string
	Cat   internalmodels.Cat
}
