package pasetotoken

import (
	"crypto/rand"
	"encoding/hex"
	"time"

	paseto "aidanwoods.dev/go-paseto"
)

type Config struct {
	Issuer   string
	Audience string
	Implicit []byte
}

type Manager struct {
	cfg   Config
	keys  Keys
	parse paseto.Parser
}

func New(cfg Config, keys Keys) (*Manager, error) {
	if cfg.Issuer == "" {
		return nil, ErrConfig{Msg: "Issuer is required"}
	}
	if cfg.Audience == "" {
		return nil, ErrConfig{Msg: "Audience is required"}
	}
	if keys.Public == nil {
		return nil, ErrConfig{Msg: "missing public key"}
	}

	// NewParser preloads NotExpired. ValidAt is not used: it pins the
	// check to a single instant.
	p := paseto.NewParser()
	p.AddRule(paseto.IssuedBy(cfg.Issuer))
	p.AddRule(paseto.ForAudience(cfg.Audience))
	p.AddRule(notBeforeNow)

	return &Manager{cfg: cfg, keys: keys, parse: p}, nil
}

// CanIssue reports whether the manager holds a secret key.
func (m *Manager) CanIssue() bool {
	return m.keys.Secret != nil
}

// Issue signs a token for subject. Production tokens come from the identity
// service; this is for local tooling and tests.
func (m *Manager) Issue(subject, role, sessionID string, ttl time.Duration) (string, error) {
	if m.keys.Secret == nil {
		return "", ErrConfig{Msg: "missing secret key"}
	}
	if subject == "" {
		return "", ErrConfig{Msg: "subject is required"}
	}
	now := time.Now()

	tok := paseto.NewToken()
	tok.SetIssuer(m.cfg.Issuer)
	tok.SetAudience(m.cfg.Audience)
	tok.SetJti(randHex(16))
	tok.SetIssuedAt(now)
	tok.SetNotBefore(now)
	tok.SetExpiration(now.Add(ttl))
	tok.SetSubject(subject)

	if role != "" {
		tok.SetString("role", role)
	}
	if sessionID != "" {
		tok.SetString("sid", sessionID)
	}

	return tok.V4Sign(*m.keys.Secret, m.cfg.Implicit), nil
}

func (m *Manager) Verify(tokenStr string) (*Claims, error) {
	tok, err := m.parse.ParseV4Public(*m.keys.Public, tokenStr, m.cfg.Implicit)
	if err != nil {
		return nil, ErrInvalidToken{Err: err}
	}

	claims, err := extractClaims(tok)
	if err != nil {
		return nil, ErrInvalidToken{Err: err}
	}
	claims.Issuer = m.cfg.Issuer
	claims.Audience = m.cfg.Audience
	return claims, nil
}

func notBeforeNow(tok paseto.Token) error {
	nbf, err := tok.GetNotBefore()
	if err != nil {
		// nbf is optional
		return nil
	}
	if time.Now().Before(nbf) {
		return errNotYetValid
	}
	return nil
}

func randHex(nBytes int) string {
	b := make([]byte, nBytes)
	_, _ = rand.Read(b)
	return hex.EncodeToString(b)
}

func extractClaims(tok *paseto.Token) (*Claims, error) {
	sub, err := tok.GetSubject()
	if err != nil {
		return nil, err
	}
	if sub == "" {
		return nil, errEmptySubject
	}
	exp, err := tok.GetExpiration()
	if err != nil {
		return nil, err
	}

	c := &Claims{Subject: sub, ExpiresAt: exp}

	// optional claims
	if jti, err := tok.GetJti(); err == nil {
		c.TokenID = jti
	}
	if iat, err := tok.GetIssuedAt(); err == nil {
		c.IssuedAt = iat
	}
	if nbf, err := tok.GetNotBefore(); err == nil {
		c.NotBefore = nbf
	}
	if role, err := tok.GetString("role"); err == nil {
		c.Role = role
	}
	if sid, err := tok.GetString("sid"); err == nil {
		c.SessionID = sid
	}
	return c, nil
}
