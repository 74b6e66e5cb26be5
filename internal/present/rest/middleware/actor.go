package middleware

import (
	"github.com/labstack/echo/v4"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"github.com/mirreg/registry/internal/domain"
)

var tracer = otel.Tracer("actor")

// ActorMiddleware resolves the acting user from the session headers an
// upstream authentication proxy sets. Requests without them proceed as
// Anonymous; the lifecycle operations decide what anonymity means.
type ActorMiddleware struct{}

func NewActorMiddleware() *ActorMiddleware {
	return &ActorMiddleware{}
}

func (m *ActorMiddleware) IdentifyActor(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		ctx, span := tracer.Start(c.Request().Context(), "Actor.Middleware.IdentifyActor")
		defer span.End()

		login := c.Request().Header.Get("X-Registry-User")
		if login != "" {
			role := domain.Role(c.Request().Header.Get("X-Registry-Role"))
			switch role {
			case domain.RoleCurator, domain.RoleAdmin:
			default:
				role = domain.RoleGeneral
			}
			actor := domain.Actor{Login: login, Role: role}
			ctx = domain.WithActor(ctx, actor)
			span.SetAttributes(
				attribute.String("actor", login),
				attribute.String("role", string(role)),
			)
		}

		c.SetRequest(c.Request().WithContext(ctx))
		return next(c)
	}
}
