package availability

import "errors"

var (
	ErrInvalidTime   = errors.New("time must use the 12-hour clock, e.g. 09:30 AM")
	ErrInvalidDate   = errors.New("date must be formatted as YYYY-MM-DD")
	ErrSlotNotInGrid = errors.New("time is not one of the clinic's slots")
)
