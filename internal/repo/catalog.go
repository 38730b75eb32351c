package repo

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/Alijeyrad/simorq_booking/pkg/docstore"
)

// Treatment is a clinic-defined service template.
type Treatment struct {
	ID          string `json:"id,omitempty" yaml:"id"`
	Name        string `json:"name" yaml:"name"`
	Description string `json:"description,omitempty" yaml:"description"`
	Category    string `json:"category,omitempty" yaml:"category"`
}

// ServiceOffering is a doctor's declaration that they perform a Treatment.
type ServiceOffering struct {
	DoctorID        string  `json:"doctorId,omitempty" yaml:"doctor_id"`
	TreatmentID     string  `json:"treatmentId,omitempty" yaml:"treatment_id"`
	ProvidesService bool    `json:"providesService" yaml:"provides_service"`
	Price           float64 `json:"price" yaml:"price"`
}

// CustomService is a doctor-authored service outside the treatment list.
type CustomService struct {
	ID          string  `json:"id,omitempty" yaml:"id"`
	DoctorID    string  `json:"doctorId,omitempty" yaml:"doctor_id"`
	Name        string  `json:"name" yaml:"name"`
	Description string  `json:"description,omitempty" yaml:"description"`
	Category    string  `json:"category,omitempty" yaml:"category"`
	Price       float64 `json:"price" yaml:"price"`
	CreatedBy   string  `json:"createdBy,omitempty" yaml:"created_by"`
}

// Doctor is a doctor profile.
type Doctor struct {
	ID             string `json:"id,omitempty" yaml:"id"`
	FirstName      string `json:"firstName" yaml:"first_name"`
	LastName       string `json:"lastName" yaml:"last_name"`
	Specialization string `json:"specialization,omitempty" yaml:"specialization"`
	Status         string `json:"status,omitempty" yaml:"status"`
	Onboarded      bool   `json:"onboarded,omitempty" yaml:"onboarded"`
}

func (d Doctor) FullName() string {
	return strings.TrimSpace(d.FirstName + " " + d.LastName)
}

// ListTreatments returns every treatment definition. Records that fail to
// decode are skipped.
func (c *Client) ListTreatments(ctx context.Context) ([]Treatment, error) {
	snaps, err := c.store.List(ctx, colTreatments)
	if err != nil {
		return nil, fmt.Errorf("list treatments: %w", err)
	}
	out := make([]Treatment, 0, len(snaps))
	for _, snap := range snaps {
		var t Treatment
		if err := snap.Decode(&t); err != nil {
			slog.WarnContext(ctx, "skipping malformed treatment", slog.String("path", snap.Path), slog.Any("error", err))
			continue
		}
		t.ID = snap.ID()
		out = append(out, t)
	}
	return out, nil
}

// ListServiceOfferings returns the offerings of every doctor. DoctorID falls
// back to the owning doctor in the storage path and TreatmentID to the
// document id when the fields are absent.
func (c *Client) ListServiceOfferings(ctx context.Context) ([]ServiceOffering, error) {
	snaps, err := c.store.ListGroup(ctx, grpServices)
	if err != nil {
		return nil, fmt.Errorf("list service offerings: %w", err)
	}
	out := make([]ServiceOffering, 0, len(snaps))
	for _, snap := range snaps {
		var o ServiceOffering
		if err := snap.Decode(&o); err != nil {
			slog.WarnContext(ctx, "skipping malformed offering", slog.String("path", snap.Path), slog.Any("error", err))
			continue
		}
		if o.DoctorID == "" {
			o.DoctorID = ownerFromPath(snap, colDoctors)
		}
		if o.TreatmentID == "" {
			o.TreatmentID = snap.ID()
		}
		out = append(out, o)
	}
	return out, nil
}

// ListCustomServices returns the custom services of every doctor.
func (c *Client) ListCustomServices(ctx context.Context) ([]CustomService, error) {
	snaps, err := c.store.ListGroup(ctx, grpCustomServices)
	if err != nil {
		return nil, fmt.Errorf("list custom services: %w", err)
	}
	out := make([]CustomService, 0, len(snaps))
	for _, snap := range snaps {
		var s CustomService
		if err := snap.Decode(&s); err != nil {
			slog.WarnContext(ctx, "skipping malformed custom service", slog.String("path", snap.Path), slog.Any("error", err))
			continue
		}
		s.ID = snap.ID()
		if s.DoctorID == "" {
			s.DoctorID = ownerFromPath(snap, colDoctors)
		}
		out = append(out, s)
	}
	return out, nil
}

func (c *Client) ListDoctors(ctx context.Context) ([]Doctor, error) {
	snaps, err := c.store.List(ctx, colDoctors)
	if err != nil {
		return nil, fmt.Errorf("list doctors: %w", err)
	}
	out := make([]Doctor, 0, len(snaps))
	for _, snap := range snaps {
		var d Doctor
		if err := snap.Decode(&d); err != nil {
			slog.WarnContext(ctx, "skipping malformed doctor", slog.String("path", snap.Path), slog.Any("error", err))
			continue
		}
		d.ID = snap.ID()
		out = append(out, d)
	}
	return out, nil
}

// ---------------------------------------------------------------------------
// Seeding
// ---------------------------------------------------------------------------

func (c *Client) PutTreatment(ctx context.Context, t Treatment) error {
	return c.store.Set(ctx, docstore.Path(colTreatments, t.ID), t)
}

func (c *Client) PutDoctor(ctx context.Context, d Doctor) error {
	return c.store.Set(ctx, docstore.Path(colDoctors, d.ID), d)
}

func (c *Client) PutServiceOffering(ctx context.Context, o ServiceOffering) error {
	return c.store.Set(ctx, docstore.Path(colDoctors, o.DoctorID, grpServices, o.TreatmentID), o)
}

func (c *Client) PutCustomService(ctx context.Context, s CustomService) error {
	return c.store.Set(ctx, docstore.Path(colDoctors, s.DoctorID, grpCustomServices, s.ID), s)
}
