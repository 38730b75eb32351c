package repo

import (
	"context"
	"errors"
	"fmt"

	"github.com/Alijeyrad/simorq_booking/pkg/docstore"
)

type Patient struct {
	ID               string `json:"id,omitempty" yaml:"id"`
	FirstName        string `json:"firstName,omitempty" yaml:"first_name"`
	LastName         string `json:"lastName,omitempty" yaml:"last_name"`
	Email            string `json:"email,omitempty" yaml:"email"`
	Phone            string `json:"phone,omitempty" yaml:"phone"`
	AppointmentCount int64  `json:"appointmentCount" yaml:"appointment_count"`
}

func patientPath(id string) string {
	return docstore.Path(colPatients, id)
}

// GetPatient returns the patient profile. A patient without a stored
// profile is returned as an empty profile with a zero appointment count.
func (c *Client) GetPatient(ctx context.Context, id string) (*Patient, error) {
	snap, err := c.store.Get(ctx, patientPath(id))
	if errors.Is(err, docstore.ErrNotFound) {
		return &Patient{ID: id}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get patient: %w", err)
	}
	var p Patient
	if err := snap.Decode(&p); err != nil {
		return nil, err
	}
	p.ID = id
	return &p, nil
}

// IncrementAppointmentCount adds one completed booking to the patient's counter.
func (c *Client) IncrementAppointmentCount(ctx context.Context, id string) (int64, error) {
	n, err := c.store.Increment(ctx, patientPath(id), "appointmentCount", 1)
	if err != nil {
		return 0, fmt.Errorf("increment appointment count: %w", err)
	}
	return n, nil
}

func (c *Client) PutPatient(ctx context.Context, p Patient) error {
	return c.store.Set(ctx, patientPath(p.ID), p)
}
