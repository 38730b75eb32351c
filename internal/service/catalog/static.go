package catalog

import (
	_ "embed"
	"fmt"

	"gopkg.in/yaml.v3"

	"github.com/Alijeyrad/simorq_booking/internal/repo"
)

//go:embed static_catalog.yaml
var staticCatalogYAML []byte

type staticService struct {
	ID          string  `yaml:"id"`
	Name        string  `yaml:"name"`
	Description string  `yaml:"description"`
	Category    string  `yaml:"category"`
	Price       float64 `yaml:"price"`
}

type staticCatalog struct {
	Services []staticService `yaml:"services"`
	Doctors  []repo.Doctor   `yaml:"doctors"`
}

func loadStatic(data []byte) (staticCatalog, error) {
	var sc staticCatalog
	if err := yaml.Unmarshal(data, &sc); err != nil {
		return staticCatalog{}, fmt.Errorf("parse static catalog: %w", err)
	}
	return sc, nil
}

// fallback builds the bundled catalog. Every doctor is eligible for every
// service: the known doctors when there are any, the bundled ones otherwise.
func (sc staticCatalog) fallback(known []repo.Doctor) *Catalog {
	doctors := known
	if len(doctors) == 0 {
		doctors = sc.Doctors
	}
	ids := make([]string, 0, len(doctors))
	for _, d := range doctors {
		ids = append(ids, d.ID)
	}

	services := make([]AvailableService, 0, len(sc.Services))
	for _, s := range sc.Services {
		var price *float64
		if s.Price > 0 {
			p := s.Price
			price = &p
		}
		services = append(services, AvailableService{
			ID:          s.ID,
			Name:        s.Name,
			Description: s.Description,
			Category:    s.Category,
			Price:       price,
			DoctorIDs:   append([]string(nil), ids...),
		})
	}
	return &Catalog{Services: services, Doctors: doctors, Static: true}
}
