package booking

import (
	"time"

	"github.com/Alijeyrad/simorq_booking/pkg/util/codes"
)

const bookingSuffixLength = 4

// NewBookingID returns BK-YYYYMMDD-HHMM-XXXX for an appointment at at.
func NewBookingID(at time.Time) (string, error) {
	suffix, err := codes.GenerateCode(bookingSuffixLength, codes.CharsetUpperAlphanumeric)
	if err != nil {
		return "", err
	}
	return "BK-" + at.Format("20060102-1504") + "-" + suffix, nil
}
