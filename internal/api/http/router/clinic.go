package router

import (
	"github.com/gofiber/fiber/v3"

	"github.com/Alijeyrad/simorq_booking/internal/api/http/handler"
	"github.com/Alijeyrad/simorq_booking/pkg/authorize"
)

func (r *Router) registerClinicRoutes(
	api fiber.Router,
	ch *handler.ClinicHandler,
	authRequired fiber.Handler,
	requirePerm func(authorize.Resource, authorize.Action) fiber.Handler,
) {
	appts := api.Group("/clinic/appointments", authRequired)

	appts.Get("/", requirePerm(authorize.ResourceAppointments, authorize.ActionRead), ch.ListAppointments)
	appts.Patch("/:id/status", requirePerm(authorize.ResourceAppointments, authorize.ActionWrite), ch.UpdateStatus)
}
