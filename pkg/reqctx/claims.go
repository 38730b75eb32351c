package reqctx

import "context"

// AuthClaims is what the rest of the service needs from a verified token.
type AuthClaims interface {
	// GetSubject returns the account id the token was issued to.
	GetSubject() string

	// GetRole returns the account role, e.g. "patient" or "staff".
	GetRole() string

	// GetSessionID returns the session id, or "" when the token has none.
	GetSessionID() string

	IsExpired() bool
}

// WithClaims stores authentication claims in the context.
func WithClaims(ctx context.Context, claims AuthClaims) context.Context {
	return context.WithValue(ctx, keyClaims, claims)
}

// ClaimsFromContext retrieves authentication claims from the context.
// Returns nil if the request is not authenticated.
func ClaimsFromContext(ctx context.Context) AuthClaims {
	claims, _ := ctx.Value(keyClaims).(AuthClaims)
	return claims
}

// IsAuthenticated returns true if valid claims exist in the context.
func IsAuthenticated(ctx context.Context) bool {
	claims := ClaimsFromContext(ctx)
	return claims != nil && !claims.IsExpired()
}

// SubjectFromContext returns the authenticated subject.
func SubjectFromContext(ctx context.Context) (string, bool) {
	claims := ClaimsFromContext(ctx)
	if claims == nil || claims.GetSubject() == "" {
		return "", false
	}
	return claims.GetSubject(), true
}
