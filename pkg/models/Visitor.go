package models

// Visitor is whoever is browsing the gallery. ID doubles as the submitter ID
// sent to the API so votes and favourites are scoped per visitor.
type Visitor struct {
	ID      string
	IsAdmin bool
}
