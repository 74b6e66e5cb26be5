package domain

import "context"

// Role is the privilege level of an authenticated user.
type Role string

const (
	RoleGeneral Role = "user"
	RoleCurator Role = "curator"
	RoleAdmin   Role = "admin"
)

// Actor is the explicit capability record passed into every lifecycle call.
// The core never reads ambient session state: whoever sits at the boundary
// resolves the session once and hands the result in.
type Actor struct {
	Login string
	Role  Role
}

// Anonymous is the zero actor.
var Anonymous = Actor{}

// IsAuthenticated reports whether the actor carries a login.
func (a Actor) IsAuthenticated() bool {
	return a.Login != ""
}

// IsCurator reports whether the actor may run curation operations.
func (a Actor) IsCurator() bool {
	return a.Role == RoleCurator || a.Role == RoleAdmin
}

type actorCtxKey struct{}

// ActorCtxKey carries the resolved actor through request contexts.
var ActorCtxKey = actorCtxKey{}

// WithActor returns a context carrying the actor.
func WithActor(ctx context.Context, a Actor) context.Context {
	return context.WithValue(ctx, ActorCtxKey, a)
}

// ActorFromContext returns the actor resolved at the boundary, or Anonymous.
func ActorFromContext(ctx context.Context) Actor {
	if a, ok := ctx.Value(ActorCtxKey).(Actor); ok {
		return a
	}
	return Anonymous
}
