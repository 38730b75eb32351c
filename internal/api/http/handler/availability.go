package handler

import (
	"errors"

	"github.com/gofiber/fiber/v3"

	"github.com/Alijeyrad/simorq_booking/internal/service/availability"
)

type AvailabilityHandler struct {
	svc availability.Service
}

func NewAvailabilityHandler(svc availability.Service) *AvailabilityHandler {
	return &AvailabilityHandler{svc: svc}
}

// GET /doctors/:id/availability?date=YYYY-MM-DD
func (h *AvailabilityHandler) OpenSlots(c fiber.Ctx) error {
	var q struct {
		Date string `query:"date"`
	}
	_ = c.Bind().Query(&q)
	if q.Date == "" {
		return badRequest(c, "date is required")
	}

	date, err := availability.ParseDate(q.Date, h.svc.Location())
	if err != nil {
		return badRequest(c, err.Error())
	}

	slots, err := h.svc.OpenSlots(c.Context(), c.Params("id"), date)
	if err != nil {
		if errors.Is(err, availability.ErrInvalidTime) {
			return badRequest(c, err.Error())
		}
		return internalError(c)
	}

	return ok(c, fiber.Map{
		"doctor_id": c.Params("id"),
		"date":      date.Format(availability.DateLayout),
		"slots":     slots,
	})
}
