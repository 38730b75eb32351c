package router

import (
	"github.com/gofiber/fiber/v3"

	"github.com/Alijeyrad/simorq_booking/internal/api/http/handler"
)

func (r *Router) registerCatalogRoutes(
	api fiber.Router,
	ch *handler.CatalogHandler,
	ah *handler.AvailabilityHandler,
) {
	// Public: browsing needs no account
	services := api.Group("/catalog/services")
	services.Get("/", ch.ListServices)
	services.Get("/:id", ch.GetService)
	services.Get("/:id/doctors", ch.ListDoctors)

	api.Get("/doctors/:id/availability", ah.OpenSlots)
}
