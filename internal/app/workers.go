package app

import (
	"context"
	"log/slog"
	"time"

	"github.com/nats-io/nats.go"
	"go.uber.org/fx"

	"github.com/Alijeyrad/simorq_booking/internal/service/booking"
)

// WorkerModule registers the NATS event workers and the checkout sweeper.
var WorkerModule = fx.Module("workers",
	fx.Invoke(RegisterWorkers),
	fx.Invoke(RegisterCheckoutSweeper),
)

const (
	projectorQueue   = "booking-projector"
	projectorTimeout = 10 * time.Second

	sweepInterval = time.Minute
	sweepTimeout  = 30 * time.Second
)

type WorkerParams struct {
	fx.In

	Lc      fx.Lifecycle
	NC      *nats.Conn `optional:"true"`
	Booking booking.Service
}

func RegisterWorkers(p WorkerParams) {
	if p.NC == nil {
		return
	}
	var sub *nats.Subscription
	p.Lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) (err error) {
			sub, err = p.NC.QueueSubscribe(booking.SubjectAll, projectorQueue, func(msg *nats.Msg) {
				ctx, cancel := context.WithTimeout(context.Background(), projectorTimeout)
				defer cancel()
				projectAppointment(ctx, p.Booking, msg.Subject, msg.Data)
			})
			if err != nil {
				return err
			}
			slog.Info("mirror_projector: started", "subject", booking.SubjectAll)
			return nil
		},
		OnStop: func(ctx context.Context) error {
			if sub == nil {
				return nil
			}
			return sub.Unsubscribe()
		},
	})
}

// projectAppointment rebuilds the clinic mirror of the booking named by an
// appointment event from its patient-scoped record.
func projectAppointment(ctx context.Context, svc booking.Service, subject string, data []byte) {
	evt, err := booking.DecodeEvent(subject, data)
	if err != nil {
		slog.WarnContext(ctx, "mirror_projector: dropping malformed event", "subject", subject, "err", err)
		return
	}
	if err := svc.ReconcileMirror(ctx, evt.PatientID, evt.BookingID); err != nil {
		slog.ErrorContext(ctx, "mirror_projector: reconcile failed",
			"booking_id", evt.BookingID,
			"patient_id", evt.PatientID,
			"err", err,
		)
		return
	}
	slog.DebugContext(ctx, "mirror_projector: mirror reconciled", "booking_id", evt.BookingID)
}

// RegisterCheckoutSweeper periodically frees slots held by checkouts that
// never came back from the gateway.
func RegisterCheckoutSweeper(lc fx.Lifecycle, svc booking.Service) {
	stop := make(chan struct{})
	done := make(chan struct{})
	lc.Append(fx.Hook{
		OnStart: func(context.Context) error {
			go func() {
				defer close(done)
				t := time.NewTicker(sweepInterval)
				defer t.Stop()
				for {
					select {
					case <-stop:
						return
					case <-t.C:
						sweepCheckouts(svc)
					}
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			close(stop)
			select {
			case <-done:
			case <-ctx.Done():
			}
			return nil
		},
	})
}

func sweepCheckouts(svc booking.Service) {
	ctx, cancel := context.WithTimeout(context.Background(), sweepTimeout)
	defer cancel()
	if _, err := svc.ReleaseExpiredCheckouts(ctx); err != nil {
		slog.ErrorContext(ctx, "checkout_sweeper: release failed", "err", err)
	}
}
