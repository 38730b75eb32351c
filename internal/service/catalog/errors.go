package catalog

import "errors"

var (
	ErrServiceNotFound   = errors.New("service not found")
	ErrNoEligibleDoctor  = errors.New("no doctor is available for this service")
	ErrDoctorNotEligible = errors.New("doctor does not offer this service")
)
