package repo

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"

	"golang.org/x/sync/errgroup"
	"gopkg.in/yaml.v3"
)

// Fixtures is the document set loaded by `system seed`.
type Fixtures struct {
	Treatments       []Treatment       `yaml:"treatments"`
	Doctors          []Doctor          `yaml:"doctors"`
	ServiceOfferings []ServiceOffering `yaml:"service_offerings"`
	CustomServices   []CustomService   `yaml:"custom_services"`
	DiscountCodes    []DiscountCode    `yaml:"discount_codes"`
	Patients         []Patient         `yaml:"patients"`
}

// ParseFixtures decodes a fixtures YAML document. Unknown keys are rejected.
func ParseFixtures(data []byte) (*Fixtures, error) {
	var f Fixtures
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&f); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("parse fixtures: %w", err)
	}
	return &f, nil
}

// Count is the number of documents in f.
func (f *Fixtures) Count() int {
	return len(f.Treatments) + len(f.Doctors) + len(f.ServiceOfferings) +
		len(f.CustomServices) + len(f.DiscountCodes) + len(f.Patients)
}

const seedConcurrency = 8

// Seed writes every fixture document, replacing documents at the same path.
func (c *Client) Seed(ctx context.Context, f *Fixtures) error {
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(seedConcurrency)

	for _, t := range f.Treatments {
		if t.ID == "" {
			return fmt.Errorf("seed: treatment %q has no id", t.Name)
		}
		g.Go(func() error { return c.PutTreatment(gctx, t) })
	}
	for _, d := range f.Doctors {
		if d.ID == "" {
			return fmt.Errorf("seed: doctor without id")
		}
		g.Go(func() error { return c.PutDoctor(gctx, d) })
	}
	for _, o := range f.ServiceOfferings {
		if o.DoctorID == "" || o.TreatmentID == "" {
			return fmt.Errorf("seed: service offering needs doctor_id and treatment_id")
		}
		g.Go(func() error { return c.PutServiceOffering(gctx, o) })
	}
	for _, s := range f.CustomServices {
		if s.DoctorID == "" || s.ID == "" {
			return fmt.Errorf("seed: custom service needs doctor_id and id")
		}
		g.Go(func() error { return c.PutCustomService(gctx, s) })
	}
	for _, d := range f.DiscountCodes {
		if d.ID == "" || d.Code == "" {
			return fmt.Errorf("seed: discount code needs id and code")
		}
		g.Go(func() error { return c.PutDiscountCode(gctx, d) })
	}
	for _, p := range f.Patients {
		if p.ID == "" {
			return fmt.Errorf("seed: patient without id")
		}
		g.Go(func() error { return c.PutPatient(gctx, p) })
	}

	if err := g.Wait(); err != nil {
		return fmt.Errorf("seed: %w", err)
	}
	return nil
}
