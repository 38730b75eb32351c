package catalog

import (
	"context"
	"fmt"
	"log/slog"

	"golang.org/x/sync/errgroup"

	"github.com/Alijeyrad/simorq_booking/internal/repo"
)

// Catalog is one merged view of the bookable services.
type Catalog struct {
	Services []AvailableService
	Doctors  []repo.Doctor
	// Static is set when the bundled catalog was served.
	Static bool
}

func (c *Catalog) Find(serviceID string) (*AvailableService, error) {
	for i := range c.Services {
		if c.Services[i].ID == serviceID {
			return &c.Services[i], nil
		}
	}
	return nil, ErrServiceNotFound
}

// EligibleDoctors resolves the doctors of a service.
func (c *Catalog) EligibleDoctors(serviceID string) ([]DoctorRef, error) {
	svc, err := c.Find(serviceID)
	if err != nil {
		return nil, err
	}
	refs := ResolveDoctors(*svc, c.Doctors)
	if len(refs) == 0 {
		return nil, ErrNoEligibleDoctor
	}
	return refs, nil
}

// Doctor returns the ref for doctorID if it may perform serviceID.
func (c *Catalog) Doctor(serviceID, doctorID string) (DoctorRef, error) {
	refs, err := c.EligibleDoctors(serviceID)
	if err != nil {
		return DoctorRef{}, err
	}
	for _, ref := range refs {
		if ref.ID == doctorID {
			return ref, nil
		}
	}
	return DoctorRef{}, ErrDoctorNotEligible
}

// ---------------------------------------------------------------------------
// Service interface
// ---------------------------------------------------------------------------

type Service interface {
	// Load merges the current store contents into a catalog.
	Load(ctx context.Context) (*Catalog, error)
	ListServices(ctx context.Context) ([]AvailableService, error)
	GetService(ctx context.Context, id string) (*AvailableService, error)
	EligibleDoctors(ctx context.Context, serviceID string) ([]DoctorRef, error)
}

type catalogService struct {
	db     *repo.Client
	static staticCatalog
}

func New(db *repo.Client) (Service, error) {
	sc, err := loadStatic(staticCatalogYAML)
	if err != nil {
		return nil, err
	}
	return &catalogService{db: db, static: sc}, nil
}

func (s *catalogService) Load(ctx context.Context) (*Catalog, error) {
	var src Sources

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		src.Treatments, err = s.db.ListTreatments(gctx)
		return err
	})
	g.Go(func() (err error) {
		src.Offerings, err = s.db.ListServiceOfferings(gctx)
		return err
	})
	g.Go(func() (err error) {
		src.CustomServices, err = s.db.ListCustomServices(gctx)
		return err
	})
	g.Go(func() (err error) {
		src.Doctors, err = s.db.ListDoctors(gctx)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("load catalog: %w", err)
	}

	services := Merge(src)
	if len(services) == 0 {
		slog.InfoContext(ctx, "no bookable services in store, serving bundled catalog")
		return s.static.fallback(src.Doctors), nil
	}
	return &Catalog{Services: services, Doctors: src.Doctors}, nil
}

func (s *catalogService) ListServices(ctx context.Context) ([]AvailableService, error) {
	c, err := s.Load(ctx)
	if err != nil {
		return nil, err
	}
	return c.Services, nil
}

func (s *catalogService) GetService(ctx context.Context, id string) (*AvailableService, error) {
	c, err := s.Load(ctx)
	if err != nil {
		return nil, err
	}
	return c.Find(id)
}

func (s *catalogService) EligibleDoctors(ctx context.Context, serviceID string) ([]DoctorRef, error) {
	c, err := s.Load(ctx)
	if err != nil {
		return nil, err
	}
	return c.EligibleDoctors(serviceID)
}
