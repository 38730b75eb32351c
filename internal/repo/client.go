// Package repo maps the booking entities onto document store paths.
package repo

import (
	"errors"

	"github.com/Alijeyrad/simorq_booking/pkg/docstore"
)

// Collections and groups.
const (
	colTreatments     = "treatments"
	colDoctors        = "doctors"
	colPatients       = "patients"
	colAppointments   = "appointments"
	colDiscountCodes  = "discountCodes"
	colReservations   = "reservations"
	grpServices       = "services"
	grpCustomServices = "customServices"
)

// Client is the typed data-access layer used by the services.
type Client struct {
	store docstore.Store
}

func NewClient(store docstore.Store) *Client {
	return &Client{store: store}
}

// Store exposes the underlying document store for maintenance commands.
func (c *Client) Store() docstore.Store {
	return c.store
}

// IsNotFound reports whether err means the requested record does not exist.
func IsNotFound(err error) bool {
	return errors.Is(err, docstore.ErrNotFound)
}

// ownerFromPath returns the id of the document in collection parent that
// owns the sub-collection holding snap, e.g. "doc1" for
// "doctors/doc1/services/t1".
func ownerFromPath(snap docstore.Snapshot, parent string) string {
	segs := snap.Segments()
	if len(segs) < 4 || segs[len(segs)-4] != parent {
		return ""
	}
	return segs[len(segs)-3]
}
