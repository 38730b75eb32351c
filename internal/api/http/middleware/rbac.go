package middleware

import (
	"errors"

	"github.com/gofiber/fiber/v3"

	"github.com/Alijeyrad/simorq_booking/pkg/authorize"
)

// RequirePermission checks that the authenticated account, or its role,
// may act on resource. AuthRequired must run first.
func RequirePermission(auth authorize.IAuthorization, resource authorize.Resource, action authorize.Action) fiber.Handler {
	return func(c fiber.Ctx) error {
		err := authorize.EnforceAny(c.Context(), auth, authorize.DomainSys, resource, action)
		switch {
		case err == nil:
			return c.Next()
		case errors.Is(err, authorize.ErrNoSubjectInContext):
			return fiber.ErrUnauthorized
		case errors.Is(err, authorize.ErrForbidden):
			return fiber.ErrForbidden
		default:
			return err
		}
	}
}
