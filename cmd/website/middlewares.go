package main

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/adampresley/adamgokit/sessions"
	"github.com/adampresley/catgallery/cmd/website/internal/viewmodels"
	"github.com/adampresley/catgallery/pkg/models"
	"github.com/google/uuid"
)

/*
newVisitorMiddleware makes sure every request has a visitor. New visitors get
a random ID which is saved in their session cookie and used as the submitter
ID for votes and favourites.
*/
func newVisitorMiddleware(sessionService sessions.Session[*models.Visitor], excludedPaths []string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			var (
				err     error
				visitor *models.Visitor
			)

			if isExcluded(r.URL.Path, excludedPaths) {
				next.ServeHTTP(w, r)
				return
			}

			if visitor, err = sessionService.Get(r); err != nil || visitor == nil || visitor.ID == "" {
				visitor = &models.Visitor{ID: uuid.NewString()}

				if err = sessionService.Set(r, visitor); err != nil {
					slog.Error("error setting visitor session", "error", err)
				}

				if err = sessionService.Save(w, r); err != nil {
					slog.Error("error saving session", "error", err)
				}

				slog.Debug("new visitor", "visitorID", visitor.ID)
			}

			ctx := viewmodels.WithVisitor(r.Context(), visitor)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func newAdminMiddleware(excludedPaths []string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if isExcluded(r.URL.Path, excludedPaths) {
				next.ServeHTTP(w, r)
				return
			}

			if !viewmodels.GetVisitorFromContext(r).IsAdmin {
				http.Redirect(w, r, "/admin/login", http.StatusTemporaryRedirect)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

func isExcluded(path string, excludedPaths []string) bool {
	for _, excludedPath := range excludedPaths {
		if strings.HasPrefix(path, excludedPath) {
			return true
		}
	}

	return false
}
