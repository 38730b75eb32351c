package pasetotoken

import (
	"github.com/gofiber/fiber/v3"

	"github.com/Alijeyrad/simorq_booking/config"
)

const CtxKeyClaims = "auth.claims"

func ClaimsFromFiber(c fiber.Ctx) (*Claims, bool) {
	v := c.Locals(CtxKeyClaims)
	if v == nil {
		return nil, false
	}
	cl, ok := v.(*Claims)
	return cl, ok
}

// NewPasetoManager creates a verify-only manager from config, able to sign
// as well when a secret key is configured.
func NewPasetoManager(cfg *config.Config) (*Manager, error) {
	p := cfg.Authentication.Paseto

	keys, err := LoadKeys(p.SecretKeyHex, p.PublicKeyHex)
	if err != nil {
		return nil, err
	}

	return New(Config{
		Issuer:   p.Issuer,
		Audience: p.Audience,
	}, keys)
}
