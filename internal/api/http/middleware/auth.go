package middleware

import (
	"strings"

	"github.com/gofiber/fiber/v3"
	"github.com/redis/go-redis/v9"

	pasetotoken "github.com/Alijeyrad/simorq_booking/pkg/paseto"
	"github.com/Alijeyrad/simorq_booking/pkg/reqctx"
)

// SessionKeyPrefix prefixes the session keys the identity service writes.
const SessionKeyPrefix = "session:"

// AuthRequired validates a Bearer PASETO token. With sessionCheck set, a
// token carrying a session id is only accepted while that session exists
// in Redis. On success the claims are stored in c.Locals(pasetotoken.CtxKeyClaims)
// and in the request context.
func AuthRequired(mgr *pasetotoken.Manager, rdb redis.UniversalClient, sessionCheck bool) fiber.Handler {
	return func(c fiber.Ctx) error {
		h := c.Get("Authorization")
		if h == "" {
			return fiber.ErrUnauthorized
		}

		parts := strings.SplitN(h, " ", 2)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
			return fiber.ErrUnauthorized
		}

		claims, err := mgr.Verify(strings.TrimSpace(parts[1]))
		if err != nil {
			return fiber.ErrUnauthorized
		}

		if sessionCheck && claims.SessionID != "" {
			if err := rdb.Get(c.Context(), SessionKeyPrefix+claims.SessionID).Err(); err != nil {
				return fiber.ErrUnauthorized
			}
		}

		c.Locals(pasetotoken.CtxKeyClaims, claims)
		c.SetContext(reqctx.WithClaims(c.Context(), claims))
		return c.Next()
	}
}
