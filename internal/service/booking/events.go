package booking

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/Alijeyrad/simorq_booking/internal/repo"
)

// NATS subjects. The booking id is appended as the last token.
const (
	SubjectCreated = "booking.appointment.created"
	SubjectStatus  = "booking.appointment.status"
	// SubjectAll matches every appointment event.
	SubjectAll = "booking.appointment.*.*"
)

// Publisher is satisfied by *nats.Conn.
type Publisher interface {
	Publish(subject string, data []byte) error
}

// Event is the payload of every appointment subject.
type Event struct {
	BookingID string                 `json:"booking_id"`
	PatientID string                 `json:"patient_id"`
	Status    repo.AppointmentStatus `json:"status,omitempty"`
}

func eventSubject(base, bookingID string) string {
	return base + "." + bookingID
}

// DecodeEvent parses a message published on an appointment subject. The
// booking id in the subject wins over a missing one in the body.
func DecodeEvent(subject string, data []byte) (Event, error) {
	var evt Event
	if err := json.Unmarshal(data, &evt); err != nil {
		return Event{}, fmt.Errorf("decode appointment event: %w", err)
	}
	if evt.BookingID == "" {
		if i := strings.LastIndexByte(subject, '.'); i >= 0 {
			evt.BookingID = subject[i+1:]
		}
	}
	if evt.BookingID == "" || evt.PatientID == "" {
		return Event{}, fmt.Errorf("decode appointment event: missing booking or patient id")
	}
	return evt, nil
}

func (s *bookingService) publish(base string, evt Event) error {
	if s.pub == nil {
		return nil
	}
	data, err := json.Marshal(evt)
	if err != nil {
		return err
	}
	return s.pub.Publish(eventSubject(base, evt.BookingID), data)
}
