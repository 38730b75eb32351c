package handler

import (
	"errors"

	"github.com/gofiber/fiber/v3"

	"github.com/Alijeyrad/simorq_booking/internal/service/catalog"
)

type CatalogHandler struct {
	svc        catalog.Service
	defaultFee float64
}

func NewCatalogHandler(svc catalog.Service, defaultFee float64) *CatalogHandler {
	return &CatalogHandler{svc: svc, defaultFee: defaultFee}
}

func mapCatalogError(c fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, catalog.ErrServiceNotFound):
		return notFound(c, err.Error())
	case errors.Is(err, catalog.ErrNoEligibleDoctor):
		return notFound(c, err.Error())
	default:
		return internalError(c)
	}
}

type serviceView struct {
	ID             string   `json:"id"`
	Name           string   `json:"name"`
	Description    string   `json:"description,omitempty"`
	Category       string   `json:"category"`
	Price          *float64 `json:"price"`
	EffectivePrice float64  `json:"effective_price"`
	Custom         bool     `json:"custom"`
	DoctorIDs      []string `json:"doctor_ids"`
}

type doctorView struct {
	ID             string `json:"id"`
	Name           string `json:"name"`
	Specialization string `json:"specialization"`
	Pending        bool   `json:"pending"`
}

func (h *CatalogHandler) serviceView(s catalog.AvailableService) serviceView {
	return serviceView{
		ID:             s.ID,
		Name:           s.Name,
		Description:    s.Description,
		Category:       s.Category,
		Price:          s.Price,
		EffectivePrice: s.EffectivePrice(h.defaultFee),
		Custom:         s.Custom,
		DoctorIDs:      s.DoctorIDs,
	}
}

// GET /catalog/services
func (h *CatalogHandler) ListServices(c fiber.Ctx) error {
	services, err := h.svc.ListServices(c.Context())
	if err != nil {
		return mapCatalogError(c, err)
	}

	out := make([]serviceView, 0, len(services))
	for _, s := range services {
		out = append(out, h.serviceView(s))
	}
	return ok(c, out)
}

// GET /catalog/services/:id
func (h *CatalogHandler) GetService(c fiber.Ctx) error {
	s, err := h.svc.GetService(c.Context(), c.Params("id"))
	if err != nil {
		return mapCatalogError(c, err)
	}
	return ok(c, h.serviceView(*s))
}

// GET /catalog/services/:id/doctors
func (h *CatalogHandler) ListDoctors(c fiber.Ctx) error {
	refs, err := h.svc.EligibleDoctors(c.Context(), c.Params("id"))
	if err != nil {
		return mapCatalogError(c, err)
	}

	out := make([]doctorView, 0, len(refs))
	for _, ref := range refs {
		out = append(out, doctorView{
			ID:             ref.ID,
			Name:           ref.DisplayName(),
			Specialization: ref.Specialization(),
			Pending:        ref.Pending(),
		})
	}
	return ok(c, out)
}
