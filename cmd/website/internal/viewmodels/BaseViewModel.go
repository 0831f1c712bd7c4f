package viewmodels

import (
	"context"
	"net/http"

	"github.com/adampresley/adamgokit/rendering"
	"github.com/adampresley/catgallery/pkg/models"
)

type contextKey string

const visitorContextKey contextKey = "visitor"

type BaseViewModel struct {
	Message            string
	IsError            bool
	IsWarning          bool
	IsHtmx             bool
	IsAdmin            bool
	JavascriptIncludes []rendering.JavascriptInclude
}

func WithVisitor(ctx context.Context, visitor *models.Visitor) context.Context {
	return context.WithValue(ctx, visitorContextKey, visitor)
}

func GetVisitorFromContext(r *http.Request) *models.Visitor {
	return visitorFromContext(r.Context())
}

// SubmitterIDFromContext returns the visitor ID used to scope votes and
// favourites, or an empty string for anonymous requests.
func SubmitterIDFromContext(ctx context.Context) string {
	return visitorFromContext(ctx).ID
}

func visitorFromContext(ctx context.Context) *models.Visitor {
	if result, ok := ctx.Value(visitorContextKey).(*models.Visitor); ok && result != nil {
		return result
	}

	return &models.Visitor{}
}
