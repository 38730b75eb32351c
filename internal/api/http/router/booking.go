package router

import (
	"github.com/gofiber/fiber/v3"

	"github.com/Alijeyrad/simorq_booking/internal/api/http/handler"
)

func (r *Router) registerBookingRoutes(
	api fiber.Router,
	bh *handler.BookingHandler,
	authRequired fiber.Handler,
) {
	// Public: gateway callback (no auth)
	api.Get("/payments/callback", bh.PaymentCallback)

	api.Post("/discounts/apply", authRequired, bh.ApplyDiscount)

	bookings := api.Group("/bookings", authRequired)
	bookings.Post("/", bh.Create)
	bookings.Post("/quote", bh.Quote)
	bookings.Get("/", bh.ListMine)
	bookings.Get("/:id", bh.GetMine)
}
