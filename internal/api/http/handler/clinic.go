package handler

import (
	"github.com/gofiber/fiber/v3"

	"github.com/Alijeyrad/simorq_booking/internal/repo"
	"github.com/Alijeyrad/simorq_booking/internal/service/booking"
)

// ClinicHandler serves the staff views over the clinic appointment index.
type ClinicHandler struct {
	svc booking.Service
}

func NewClinicHandler(svc booking.Service) *ClinicHandler {
	return &ClinicHandler{svc: svc}
}

// GET /clinic/appointments
func (h *ClinicHandler) ListAppointments(c fiber.Ctx) error {
	var q struct {
		Status   string `query:"status"`
		DoctorID string `query:"doctor_id"`
		Date     string `query:"date"`
		Page     int    `query:"page"`
		PerPage  int    `query:"per_page"`
	}
	_ = c.Bind().Query(&q)

	appts, err := h.svc.ListClinicAppointments(c.Context(), booking.ListRequest{
		Status:   repo.AppointmentStatus(q.Status),
		DoctorID: q.DoctorID,
		Date:     q.Date,
		Page:     q.Page,
		PerPage:  q.PerPage,
	})
	if err != nil {
		return mapBookingError(c, err)
	}
	return ok(c, appts)
}

// PATCH /clinic/appointments/:id/status
func (h *ClinicHandler) UpdateStatus(c fiber.Ctx) error {
	var body struct {
		Status string `json:"status"`
	}
	if err := c.Bind().JSON(&body); err != nil {
		return badRequest(c, "invalid request body")
	}
	if body.Status == "" {
		return badRequest(c, "status is required")
	}

	appt, err := h.svc.UpdateStatus(c.Context(), c.Params("id"), repo.AppointmentStatus(body.Status))
	if err != nil {
		return mapBookingError(c, err)
	}
	return ok(c, appt)
}
