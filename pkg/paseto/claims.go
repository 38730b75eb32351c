package pasetotoken

import "time"

// Claims is the app-facing token payload. Subject is the patient or staff
// account id issued by the identity service.
type Claims struct {
	Subject   string
	Role      string
	SessionID string

	Issuer   string
	Audience string

	IssuedAt  time.Time
	NotBefore time.Time
	ExpiresAt time.Time
	TokenID   string // jti
}

// GetSubject implements reqctx.AuthClaims.
func (c *Claims) GetSubject() string {
	return c.Subject
}

// GetRole implements reqctx.AuthClaims.
func (c *Claims) GetRole() string {
	return c.Role
}

// GetSessionID implements reqctx.AuthClaims.
func (c *Claims) GetSessionID() string {
	return c.SessionID
}

// IsExpired implements reqctx.AuthClaims.
func (c *Claims) IsExpired() bool {
	return time.Now().After(c.ExpiresAt)
}
