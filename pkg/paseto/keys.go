package pasetotoken

import (
	"strings"

	paseto "aidanwoods.dev/go-paseto"
)

// Keys holds the v4.public key pair. Secret is nil on verify-only services.
type Keys struct {
	Secret *paseto.V4AsymmetricSecretKey
	Public *paseto.V4AsymmetricPublicKey
}

// LoadKeys accepts a secret key (the public key is derived), a public key, or
// both. With both set the public key wins.
func LoadKeys(secretHex, publicHex string) (Keys, error) {
	secretHex = strings.TrimSpace(secretHex)
	publicHex = strings.TrimSpace(publicHex)

	var out Keys
	if secretHex != "" {
		sk, err := paseto.NewV4AsymmetricSecretKeyFromHex(secretHex)
		if err != nil {
			return Keys{}, ErrConfig{Msg: "invalid secret key hex: " + err.Error()}
		}
		out.Secret = &sk
		pk := sk.Public()
		out.Public = &pk
	}
	if publicHex != "" {
		pk, err := paseto.NewV4AsymmetricPublicKeyFromHex(publicHex)
		if err != nil {
			return Keys{}, ErrConfig{Msg: "invalid public key hex: " + err.Error()}
		}
		out.Public = &pk
	}
	if out.Public == nil {
		return Keys{}, ErrConfig{Msg: "a public key or a secret key is required"}
	}
	return out, nil
}

// NewKeys generates a fresh key pair.
func NewKeys() Keys {
	sk := paseto.NewV4AsymmetricSecretKey()
	pk := sk.Public()
	return Keys{Secret: &sk, Public: &pk}
}
