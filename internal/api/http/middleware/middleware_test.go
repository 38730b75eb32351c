package middleware

import (
	"context"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/gofiber/fiber/v3"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Alijeyrad/simorq_booking/pkg/authorize"
	pasetotoken "github.com/Alijeyrad/simorq_booking/pkg/paseto"
	"github.com/Alijeyrad/simorq_booking/pkg/reqctx"
)

type authFixture struct {
	mgr *pasetotoken.Manager
	mr  *miniredis.Miniredis
	rdb *redis.Client
}

func newAuthFixture(t *testing.T) *authFixture {
	t.Helper()
	mgr, err := pasetotoken.New(pasetotoken.Config{Issuer: "identity", Audience: "booking"}, pasetotoken.NewKeys())
	require.NoError(t, err)

	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	return &authFixture{mgr: mgr, mr: mr, rdb: rdb}
}

func (f *authFixture) token(t *testing.T, sub, role, sid string) string {
	t.Helper()
	tok, err := f.mgr.Issue(sub, role, sid, time.Hour)
	require.NoError(t, err)
	return tok
}

func whoami(c fiber.Ctx) error {
	sub, ok := reqctx.SubjectFromContext(c.Context())
	if !ok {
		return c.SendStatus(fiber.StatusTeapot)
	}
	return c.SendString(sub)
}

func TestAuthRequired(t *testing.T) {
	f := newAuthFixture(t)
	app := fiber.New()
	app.Get("/me", AuthRequired(f.mgr, f.rdb, true), whoami)

	require.NoError(t, f.mr.Set(SessionKeyPrefix+"live", "1"))

	tests := []struct {
		name   string
		header string
		want   int
	}{
		{"missing header", "", fiber.StatusUnauthorized},
		{"not bearer", "Basic abc", fiber.StatusUnauthorized},
		{"garbage token", "Bearer v4.public.nope", fiber.StatusUnauthorized},
		{"no session id", "Bearer " + f.token(t, "patient-1", "patient", ""), fiber.StatusOK},
		{"live session", "Bearer " + f.token(t, "patient-1", "patient", "live"), fiber.StatusOK},
		{"revoked session", "Bearer " + f.token(t, "patient-1", "patient", "gone"), fiber.StatusUnauthorized},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(fiber.MethodGet, "/me", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			resp, err := app.Test(req)
			require.NoError(t, err)
			assert.Equal(t, tt.want, resp.StatusCode)
		})
	}
}

func TestAuthRequired_SessionCheckDisabled(t *testing.T) {
	f := newAuthFixture(t)
	app := fiber.New()
	app.Get("/me", AuthRequired(f.mgr, f.rdb, false), whoami)

	req := httptest.NewRequest(fiber.MethodGet, "/me", nil)
	req.Header.Set("Authorization", "Bearer "+f.token(t, "patient-1", "patient", "unknown"))
	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
}

func TestRequirePermission(t *testing.T) {
	f := newAuthFixture(t)
	e, cleanup, err := authorize.NewEnforcer("", "", 0)
	require.NoError(t, err)
	t.Cleanup(func() { cleanup(context.Background()) })
	auth, err := authorize.NewAuthorization(e)
	require.NoError(t, err)

	app := fiber.New()
	app.Get("/clinic",
		AuthRequired(f.mgr, f.rdb, false),
		RequirePermission(auth, authorize.ResourceAppointments, authorize.ActionRead),
		func(c fiber.Ctx) error { return c.SendStatus(fiber.StatusNoContent) },
	)
	app.Get("/open",
		RequirePermission(auth, authorize.ResourceAppointments, authorize.ActionRead),
		func(c fiber.Ctx) error { return c.SendStatus(fiber.StatusNoContent) },
	)

	call := func(path, tok string) int {
		req := httptest.NewRequest(fiber.MethodGet, path, nil)
		if tok != "" {
			req.Header.Set("Authorization", "Bearer "+tok)
		}
		resp, err := app.Test(req)
		require.NoError(t, err)
		return resp.StatusCode
	}

	assert.Equal(t, fiber.StatusNoContent, call("/clinic", f.token(t, "staff-1", "staff", "")))
	assert.Equal(t, fiber.StatusForbidden, call("/clinic", f.token(t, "patient-1", "patient", "")))
	assert.Equal(t, fiber.StatusUnauthorized, call("/open", ""))
}

func TestRequestID(t *testing.T) {
	app := fiber.New()
	app.Use(RequestID())
	app.Get("/", func(c fiber.Ctx) error {
		return c.SendString(reqctx.RequestIDFromContext(c.Context()))
	})

	req := httptest.NewRequest(fiber.MethodGet, "/", nil)
	req.Header.Set(HeaderRequestID, "rid-123")
	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, "rid-123", resp.Header.Get(HeaderRequestID))

	resp, err = app.Test(httptest.NewRequest(fiber.MethodGet, "/", nil))
	require.NoError(t, err)
	assert.Len(t, resp.Header.Get(HeaderRequestID), 36)
}

func TestLimiter(t *testing.T) {
	f := newAuthFixture(t)
	app := fiber.New()
	app.Use(NewLimiterWithRedis(f.rdb, 2))
	app.Get("/", func(c fiber.Ctx) error { return c.SendStatus(fiber.StatusNoContent) })

	var codes []int
	for range 3 {
		resp, err := app.Test(httptest.NewRequest(fiber.MethodGet, "/", nil))
		require.NoError(t, err)
		codes = append(codes, resp.StatusCode)
	}
	assert.Equal(t, []int{fiber.StatusNoContent, fiber.StatusNoContent, fiber.StatusTooManyRequests}, codes)
}
