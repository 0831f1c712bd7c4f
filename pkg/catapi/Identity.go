package catapi

import "context"

// IdentityProvider supplies the submitter ID for the current caller. An
// empty string means the caller is anonymous.
type IdentityProvider interface {
	SubmitterID(ctx context.Context) string
}

type IdentityFunc func(ctx context.Context) string

func (f IdentityFunc) SubmitterID(ctx context.Context) string {
	return f(ctx)
}
