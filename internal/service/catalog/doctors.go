package catalog

import "github.com/Alijeyrad/simorq_booking/internal/repo"

const (
	pendingDisplayName    = "Doctor"
	pendingSpecialization = "General Practitioner"
)

// DoctorKind tells a known profile apart from an id without one.
type DoctorKind int

const (
	// DoctorKnown refs carry a full profile.
	DoctorKnown DoctorKind = iota + 1
	// DoctorPending refs name a doctor who configured a service but has no
	// profile yet.
	DoctorPending
)

// DoctorRef is an eligible doctor. Profile is set only for DoctorKnown.
type DoctorRef struct {
	Kind    DoctorKind
	ID      string
	Profile *repo.Doctor
}

func (d DoctorRef) Pending() bool { return d.Kind == DoctorPending }

func (d DoctorRef) DisplayName() string {
	if d.Profile != nil {
		if name := d.Profile.FullName(); name != "" {
			return name
		}
	}
	return pendingDisplayName
}

func (d DoctorRef) Specialization() string {
	if d.Profile != nil && d.Profile.Specialization != "" {
		return d.Profile.Specialization
	}
	return pendingSpecialization
}

// ResolveDoctors maps the doctor ids of svc to refs in the same order.
func ResolveDoctors(svc AvailableService, known []repo.Doctor) []DoctorRef {
	profiles := make(map[string]*repo.Doctor, len(known))
	for i := range known {
		profiles[known[i].ID] = &known[i]
	}

	refs := make([]DoctorRef, 0, len(svc.DoctorIDs))
	for _, id := range svc.DoctorIDs {
		if p, ok := profiles[id]; ok {
			refs = append(refs, DoctorRef{Kind: DoctorKnown, ID: id, Profile: p})
			continue
		}
		refs = append(refs, DoctorRef{Kind: DoctorPending, ID: id})
	}
	return refs
}
