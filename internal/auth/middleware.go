package auth

import (
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/repairshop-service/internal/domain"
	apperrors "github.com/spec-kit/repairshop-service/pkg/util"
)

const (
	actorKey  = "acting_actor"
	originKey = "request_origin"

	originHeader = "X-Client-Origin"
)

// ActorMiddleware resolves the acting user and request origin once at the
// boundary. A missing Authorization header resolves to the System actor;
// an invalid token is rejected.
type ActorMiddleware struct {
	tokens *TokenManager
}

// NewActorMiddleware constructs middleware.
func NewActorMiddleware(tokens *TokenManager) *ActorMiddleware {
	return &ActorMiddleware{tokens: tokens}
}

// Handle stores actor and origin in request locals.
func (m *ActorMiddleware) Handle(c *fiber.Ctx) error {
	actor := domain.SystemActor()

	if authHeader := c.Get("Authorization"); authHeader != "" {
		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
			return apperrors.NewUnauthorized("invalid authorization header")
		}
		parsed, err := m.tokens.ParseToken(parts[1])
		if err != nil {
			return apperrors.NewUnauthorized("invalid token")
		}
		actor = parsed
	}

	origin := strings.TrimSpace(c.Get(originHeader))
	if origin == "" {
		origin = c.IP()
	}

	c.Locals(actorKey, actor)
	c.Locals(originKey, origin)
	return c.Next()
}

// ActorFromContext retrieves the resolved actor; absent means System.
func ActorFromContext(c *fiber.Ctx) domain.Actor {
	if val, ok := c.Locals(actorKey).(domain.Actor); ok {
		return val
	}
	return domain.SystemActor()
}

// OriginFromContext retrieves the audit origin string.
func OriginFromContext(c *fiber.Ctx) string {
	if val, ok := c.Locals(originKey).(string); ok {
		return val
	}
	return ""
}
