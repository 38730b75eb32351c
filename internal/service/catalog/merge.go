package catalog

import (
	"strings"

	"github.com/Alijeyrad/simorq_booking/internal/repo"
)

// AvailableService is a bookable entry of the merged catalog.
type AvailableService struct {
	ID          string
	Name        string
	Description string
	Category    string
	// Price is the lowest positive price among the offering doctors, nil
	// when none of them set one.
	Price     *float64
	Custom    bool
	DoctorIDs []string
}

// EffectivePrice is Price, or defaultFee when the service has none.
func (s AvailableService) EffectivePrice(defaultFee float64) float64 {
	if s.Price != nil {
		return *s.Price
	}
	return defaultFee
}

// CategorySlug is the slugified category used by discount criteria.
func (s AvailableService) CategorySlug() string {
	return Slugify(s.Category)
}

// Slugify lower-cases s and joins its words with hyphens.
func Slugify(s string) string {
	return strings.Join(strings.Fields(strings.ToLower(s)), "-")
}

// Sources are the raw listings the catalog is merged from.
type Sources struct {
	Treatments     []repo.Treatment
	Offerings      []repo.ServiceOffering
	CustomServices []repo.CustomService
	Doctors        []repo.Doctor
}

// Merge combines treatments with the offerings that reference them and
// appends custom services. Treatments nobody offers are left out, as are
// records that cannot be attributed to a doctor.
func Merge(src Sources) []AvailableService {
	type offered struct {
		doctorIDs []string
		seen      map[string]struct{}
		price     *float64
	}

	byTreatment := make(map[string]*offered)
	for _, o := range src.Offerings {
		if !o.ProvidesService || o.DoctorID == "" || o.TreatmentID == "" {
			continue
		}
		entry, ok := byTreatment[o.TreatmentID]
		if !ok {
			entry = &offered{seen: make(map[string]struct{})}
			byTreatment[o.TreatmentID] = entry
		}
		if _, dup := entry.seen[o.DoctorID]; !dup {
			entry.seen[o.DoctorID] = struct{}{}
			entry.doctorIDs = append(entry.doctorIDs, o.DoctorID)
		}
		if o.Price > 0 && (entry.price == nil || o.Price < *entry.price) {
			p := o.Price
			entry.price = &p
		}
	}

	out := make([]AvailableService, 0, len(src.Treatments)+len(src.CustomServices))
	for _, t := range src.Treatments {
		if t.ID == "" || strings.TrimSpace(t.Name) == "" {
			continue
		}
		entry, ok := byTreatment[t.ID]
		if !ok || len(entry.doctorIDs) == 0 {
			continue
		}
		out = append(out, AvailableService{
			ID:          t.ID,
			Name:        t.Name,
			Description: t.Description,
			Category:    t.Category,
			Price:       entry.price,
			DoctorIDs:   entry.doctorIDs,
		})
	}

	for _, cs := range src.CustomServices {
		owner := cs.DoctorID
		if owner == "" {
			owner = cs.CreatedBy
		}
		if owner == "" || cs.ID == "" || strings.TrimSpace(cs.Name) == "" {
			continue
		}
		var price *float64
		if cs.Price > 0 {
			p := cs.Price
			price = &p
		}
		out = append(out, AvailableService{
			ID:          cs.ID,
			Name:        cs.Name,
			Description: cs.Description,
			Category:    cs.Category,
			Price:       price,
			Custom:      true,
			DoctorIDs:   []string{owner},
		})
	}

	return out
}
