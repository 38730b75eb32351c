package router

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/gofiber/fiber/v3"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Alijeyrad/simorq_booking/config"
	"github.com/Alijeyrad/simorq_booking/internal/repo"
	"github.com/Alijeyrad/simorq_booking/internal/service/availability"
	"github.com/Alijeyrad/simorq_booking/internal/service/booking"
	"github.com/Alijeyrad/simorq_booking/internal/service/catalog"
	"github.com/Alijeyrad/simorq_booking/internal/service/discount"
	"github.com/Alijeyrad/simorq_booking/internal/service/payment"
	"github.com/Alijeyrad/simorq_booking/pkg/authorize"
	"github.com/Alijeyrad/simorq_booking/pkg/docstore"
	pasetotoken "github.com/Alijeyrad/simorq_booking/pkg/paseto"
)

type stubGateway struct{}

func (stubGateway) Request(context.Context, payment.Checkout) (string, string, error) {
	return "A42", "https://gateway.test/StartPay/A42", nil
}

func (stubGateway) Verify(context.Context, string, float64) (string, error) {
	return "777", nil
}

type testAPI struct {
	app *fiber.App
	mgr *pasetotoken.Manager
	db  *repo.Client
}

func newTestAPI(t *testing.T) *testAPI {
	t.Helper()
	ctx := context.Background()

	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	cfg := &config.Config{}
	cfg.Booking = config.BookingConfig{
		Timezone:               "UTC",
		TimeSlots:              []string{"09:00 AM", "10:00 AM", "11:00 AM"},
		DefaultConsultationFee: 1500,
		Currency:               "IRT",
		ConfirmationPath:       "/booking/confirmation",
		PaymentFailedPath:      "/booking/payment-failed",
		ReserveSlots:           true,
		CheckoutTTLMinutes:     20,
		PhoneRegion:            "IR",
	}

	db := repo.NewClient(docstore.NewRedisStore(rdb, "api"))
	cat, err := catalog.New(db)
	require.NoError(t, err)
	avail, err := availability.New(db, cfg.Booking)
	require.NoError(t, err)
	svc := booking.New(booking.Deps{
		DB:           db,
		Catalog:      cat,
		Availability: avail,
		Discounts:    discount.New(db),
		Gateway:      stubGateway{},
		Drafts:       booking.NewRedisDraftStore(rdb, "api"),
		Config:       cfg.Booking,
	})

	enforcer, cleanup, err := authorize.NewEnforcer("", "", 0)
	require.NoError(t, err)
	t.Cleanup(func() { cleanup(context.Background()) })
	auth, err := authorize.NewAuthorization(enforcer)
	require.NoError(t, err)

	mgr, err := pasetotoken.New(pasetotoken.Config{Issuer: "identity", Audience: "booking"}, pasetotoken.NewKeys())
	require.NoError(t, err)

	require.NoError(t, db.Seed(ctx, &repo.Fixtures{
		Treatments: []repo.Treatment{
			{ID: "t1", Name: "Consultation", Category: "General Care"},
			{ID: "t2", Name: "Skin Check", Category: "Dermatology"},
		},
		Doctors: []repo.Doctor{{ID: "doc1", FirstName: "Sara", LastName: "Ahmadi"}},
		ServiceOfferings: []repo.ServiceOffering{
			{DoctorID: "doc1", TreatmentID: "t1", ProvidesService: true, Price: 2000},
		},
		DiscountCodes: []repo.DiscountCode{{
			ID: "save10", Code: "SAVE10", DiscountType: repo.DiscountPercentage, DiscountValue: 10,
			IsActive: true, CriteriaType: repo.CriteriaAll,
		}},
	}))

	app := fiber.New()
	NewRouter(Params{
		Cfg:             cfg,
		Redis:           rdb,
		Auth:            auth,
		DB:              db,
		CatalogSvc:      cat,
		AvailabilitySvc: avail,
		BookingSvc:      svc,
		PasetoMgr:       mgr,
	}).Register(app)

	return &testAPI{app: app, mgr: mgr, db: db}
}

func (a *testAPI) token(t *testing.T, sub, role string) string {
	t.Helper()
	tok, err := a.mgr.Issue(sub, role, "", time.Hour)
	require.NoError(t, err)
	return tok
}

func (a *testAPI) do(t *testing.T, method, target, token, body string) (*http.Response, map[string]any) {
	t.Helper()
	var rd io.Reader
	if body != "" {
		rd = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, target, rd)
	if body != "" {
		req.Header.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
	}
	if token != "" {
		req.Header.Set(fiber.HeaderAuthorization, "Bearer "+token)
	}
	resp, err := a.app.Test(req)
	require.NoError(t, err)

	var out map[string]any
	raw, _ := io.ReadAll(resp.Body)
	_ = json.Unmarshal(raw, &out)
	return resp, out
}

const laterBooking = `{
	"service_id": "t1", "doctor_id": "doc1", "date": "2030-01-15", "time_slot": "10:00 AM",
	"patient_name": "Reza Karimi", "patient_phone": "09121234567", "payment_method": "later"
}`

func TestCatalogRoutes(t *testing.T) {
	api := newTestAPI(t)

	resp, body := api.do(t, fiber.MethodGet, "/api/v1/catalog/services", "", "")
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	services := body["data"].([]any)
	assert.Len(t, services, 2)

	resp, body = api.do(t, fiber.MethodGet, "/api/v1/catalog/services/t2", "", "")
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	svc := body["data"].(map[string]any)
	assert.Equal(t, "Skin Check", svc["name"])
	assert.Equal(t, 1500.0, svc["effective_price"])

	resp, body = api.do(t, fiber.MethodGet, "/api/v1/catalog/services/t1/doctors", "", "")
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	doctors := body["data"].([]any)
	require.Len(t, doctors, 1)
	assert.Equal(t, "doc1", doctors[0].(map[string]any)["id"])

	resp, _ = api.do(t, fiber.MethodGet, "/api/v1/catalog/services/nope", "", "")
	assert.Equal(t, fiber.StatusNotFound, resp.StatusCode)
}

func TestAvailabilityRoute(t *testing.T) {
	api := newTestAPI(t)

	resp, _ := api.do(t, fiber.MethodGet, "/api/v1/doctors/doc1/availability", "", "")
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)

	resp, body := api.do(t, fiber.MethodGet, "/api/v1/doctors/doc1/availability?date=2030-01-15", "", "")
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	data := body["data"].(map[string]any)
	assert.Equal(t, []any{"09:00 AM", "10:00 AM", "11:00 AM"}, data["slots"])

	// an unpaid booking keeps the slot open until it is confirmed
	resp, body = api.do(t, fiber.MethodPost, "/api/v1/bookings", api.token(t, "p1", "patient"), laterBooking)
	require.Equal(t, fiber.StatusCreated, resp.StatusCode)
	id := body["data"].(map[string]any)["booking"].(map[string]any)["id"].(string)

	_, body = api.do(t, fiber.MethodGet, "/api/v1/doctors/doc1/availability?date=2030-01-15", "", "")
	data = body["data"].(map[string]any)
	assert.Len(t, data["slots"], 3)

	resp, _ = api.do(t, fiber.MethodPatch, "/api/v1/clinic/appointments/"+id+"/status", api.token(t, "s1", "staff"), `{"status":"confirmed"}`)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	_, body = api.do(t, fiber.MethodGet, "/api/v1/doctors/doc1/availability?date=2030-01-15", "", "")
	data = body["data"].(map[string]any)
	assert.Equal(t, []any{"09:00 AM", "11:00 AM"}, data["slots"])
}

func TestBookingRoutes_PayLater(t *testing.T) {
	api := newTestAPI(t)
	tok := api.token(t, "p1", "patient")

	resp, _ := api.do(t, fiber.MethodPost, "/api/v1/bookings", "", laterBooking)
	assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)

	resp, body := api.do(t, fiber.MethodPost, "/api/v1/bookings", tok, laterBooking)
	require.Equal(t, fiber.StatusCreated, resp.StatusCode)
	data := body["data"].(map[string]any)
	appt := data["booking"].(map[string]any)
	id := appt["id"].(string)
	assert.Equal(t, "pending_payment", appt["paymentStatus"])
	assert.Equal(t, "/booking/confirmation/"+id, data["redirect_url"])

	// same slot again, held by the reservation
	resp, _ = api.do(t, fiber.MethodPost, "/api/v1/bookings", api.token(t, "p2", "patient"), laterBooking)
	assert.Equal(t, fiber.StatusConflict, resp.StatusCode)

	resp, body = api.do(t, fiber.MethodGet, "/api/v1/bookings", tok, "")
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Len(t, body["data"].([]any), 1)

	resp, _ = api.do(t, fiber.MethodGet, "/api/v1/bookings/"+id, tok, "")
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	resp, _ = api.do(t, fiber.MethodGet, "/api/v1/bookings/"+id, api.token(t, "p2", "patient"), "")
	assert.Equal(t, fiber.StatusNotFound, resp.StatusCode)
}

func TestBookingRoutes_QuoteAndDiscount(t *testing.T) {
	api := newTestAPI(t)
	tok := api.token(t, "p1", "patient")

	resp, body := api.do(t, fiber.MethodPost, "/api/v1/discounts/apply", tok, `{"code":"save10","service_id":"t1"}`)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	data := body["data"].(map[string]any)
	assert.Equal(t, 2000.0, data["original_price"])
	assert.Equal(t, 1800.0, data["final_price"])

	resp, _ = api.do(t, fiber.MethodPost, "/api/v1/discounts/apply", tok, `{"code":"NOPE","service_id":"t1"}`)
	assert.Equal(t, fiber.StatusUnprocessableEntity, resp.StatusCode)

	quote := strings.Replace(laterBooking, `"payment_method": "later"`, `"coupon_code": "SAVE10"`, 1)
	resp, body = api.do(t, fiber.MethodPost, "/api/v1/bookings/quote", tok, quote)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	appt := body["data"].(map[string]any)
	assert.Equal(t, 1800.0, appt["finalPrice"])
	assert.Equal(t, 200.0, appt["discountAmount"])

	bad := strings.Replace(laterBooking, `"10:00 AM"`, `"10:30 AM"`, 1)
	resp, _ = api.do(t, fiber.MethodPost, "/api/v1/bookings", tok, bad)
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)

	resp, _ = api.do(t, fiber.MethodPost, "/api/v1/bookings", tok, strings.Replace(laterBooking, "later", "cash", 1))
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
}

func TestBookingRoutes_OnlinePayment(t *testing.T) {
	api := newTestAPI(t)
	tok := api.token(t, "p1", "patient")
	online := strings.Replace(laterBooking, `"later"`, `"online"`, 1)

	resp, body := api.do(t, fiber.MethodPost, "/api/v1/bookings", tok, online)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	data := body["data"].(map[string]any)
	assert.Equal(t, "A42", data["authority"])
	assert.Equal(t, "https://gateway.test/StartPay/A42", data["pay_url"])

	resp, _ = api.do(t, fiber.MethodGet, "/api/v1/payments/callback?Authority=A42&Status=OK", "", "")
	require.GreaterOrEqual(t, resp.StatusCode, 300)
	require.Less(t, resp.StatusCode, 400)
	assert.True(t, strings.HasPrefix(resp.Header.Get(fiber.HeaderLocation), "/booking/confirmation/BK-"))

	_, body = api.do(t, fiber.MethodGet, "/api/v1/bookings", tok, "")
	list := body["data"].([]any)
	require.Len(t, list, 1)
	appt := list[0].(map[string]any)
	assert.Equal(t, "paid", appt["paymentStatus"])
	assert.Equal(t, "777", appt["paymentReference"])

	// the draft was consumed
	resp, _ = api.do(t, fiber.MethodGet, "/api/v1/payments/callback?Authority=A42&Status=OK", "", "")
	assert.Equal(t, "/booking/payment-failed?reason=expired", resp.Header.Get(fiber.HeaderLocation))

	resp, _ = api.do(t, fiber.MethodGet, "/api/v1/payments/callback", "", "")
	assert.Equal(t, "/booking/payment-failed?reason=missing_authority", resp.Header.Get(fiber.HeaderLocation))
}

func TestPaymentCallback_Cancelled(t *testing.T) {
	api := newTestAPI(t)
	tok := api.token(t, "p1", "patient")
	online := strings.Replace(laterBooking, `"later"`, `"online"`, 1)

	resp, _ := api.do(t, fiber.MethodPost, "/api/v1/bookings", tok, online)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	resp, _ = api.do(t, fiber.MethodGet, "/api/v1/payments/callback?Authority=A42&Status=NOK", "", "")
	assert.Equal(t, "/booking/payment-failed?reason=payment_failed", resp.Header.Get(fiber.HeaderLocation))

	_, body := api.do(t, fiber.MethodGet, "/api/v1/bookings", tok, "")
	assert.Empty(t, body["data"])

	// the cancelled checkout gave its slot back
	resp, _ = api.do(t, fiber.MethodPost, "/api/v1/bookings", api.token(t, "p2", "patient"), laterBooking)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
}

func TestClinicRoutes(t *testing.T) {
	api := newTestAPI(t)
	patient := api.token(t, "p1", "patient")
	staff := api.token(t, "s1", "staff")

	resp, body := api.do(t, fiber.MethodPost, "/api/v1/bookings", patient, laterBooking)
	require.Equal(t, fiber.StatusCreated, resp.StatusCode)
	id := body["data"].(map[string]any)["booking"].(map[string]any)["id"].(string)

	resp, _ = api.do(t, fiber.MethodGet, "/api/v1/clinic/appointments", patient, "")
	assert.Equal(t, fiber.StatusForbidden, resp.StatusCode)

	resp, body = api.do(t, fiber.MethodGet, "/api/v1/clinic/appointments?date=2030-01-15", staff, "")
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Len(t, body["data"].([]any), 1)

	resp, _ = api.do(t, fiber.MethodGet, "/api/v1/clinic/appointments?status=lost", staff, "")
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)

	resp, body = api.do(t, fiber.MethodPatch, "/api/v1/clinic/appointments/"+id+"/status", staff, `{"status":"confirmed"}`)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Equal(t, "confirmed", body["data"].(map[string]any)["status"])

	resp, _ = api.do(t, fiber.MethodPatch, "/api/v1/clinic/appointments/BK-none/status", staff, `{"status":"confirmed"}`)
	assert.Equal(t, fiber.StatusNotFound, resp.StatusCode)

	// the patient's own copy follows the clinic update
	_, body = api.do(t, fiber.MethodGet, "/api/v1/bookings/"+id, patient, "")
	assert.Equal(t, "confirmed", body["data"].(map[string]any)["status"])
}

func TestHealthz(t *testing.T) {
	api := newTestAPI(t)
	resp, body := api.do(t, fiber.MethodGet, "/healthz", "", "")
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Equal(t, "ok", body["status"])
}
