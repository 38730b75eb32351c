package booking

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
)

const instrumentationName = "github.com/Alijeyrad/simorq_booking/internal/service/booking"

// Commit steps that may fail after the primary write.
const (
	stepMirror       = "mirror"
	stepDiscount     = "discount_usage"
	stepPatientCount = "appointment_count"
	stepPublish      = "publish"
	stepRelease      = "release_reservation"
)

type instruments struct {
	tracer    trace.Tracer
	partial   metric.Int64Counter
	committed metric.Int64Counter
}

func newInstruments() instruments {
	meter := otel.Meter(instrumentationName)

	partial, _ := meter.Int64Counter(
		"booking_partial_persistence_total",
		metric.WithDescription("Secondary booking writes that failed after the primary record was stored"),
		metric.WithUnit("{write}"),
	)
	committed, _ := meter.Int64Counter(
		"bookings_committed_total",
		metric.WithDescription("Bookings whose primary record was stored"),
		metric.WithUnit("{booking}"),
	)

	return instruments{
		tracer:    otel.Tracer(instrumentationName),
		partial:   partial,
		committed: committed,
	}
}

func (m instruments) recordPartial(ctx context.Context, step string) {
	if m.partial == nil {
		return
	}
	m.partial.Add(ctx, 1, metric.WithAttributes(attribute.String("step", step)))
}

func (m instruments) recordCommitted(ctx context.Context, paid bool) {
	if m.committed == nil {
		return
	}
	m.committed.Add(ctx, 1, metric.WithAttributes(attribute.Bool("paid", paid)))
}
