package app

import (
	"github.com/redis/go-redis/v9"
	"go.uber.org/fx"

	"github.com/Alijeyrad/simorq_booking/config"
	"github.com/Alijeyrad/simorq_booking/internal/repo"
	"github.com/Alijeyrad/simorq_booking/internal/service/availability"
	"github.com/Alijeyrad/simorq_booking/internal/service/booking"
	"github.com/Alijeyrad/simorq_booking/internal/service/catalog"
	"github.com/Alijeyrad/simorq_booking/internal/service/discount"
	"github.com/Alijeyrad/simorq_booking/internal/service/payment"
	pasetotoken "github.com/Alijeyrad/simorq_booking/pkg/paseto"
	zarinpalpkg "github.com/Alijeyrad/simorq_booking/pkg/zarinpal"
)

// ServiceModule provides all application service dependencies.
var ServiceModule = fx.Module("services",
	fx.Provide(
		catalog.New,
		ProvideAvailabilityService,
		discount.New,
		ProvidePaymentGateway,
		ProvideDraftStore,
		ProvideBookingService,
		ProvidePasetoManager,
	),
)

func ProvideAvailabilityService(db *repo.Client, cfg *config.Config) (availability.Service, error) {
	return availability.New(db, cfg.Booking)
}

func ProvidePaymentGateway(zp *zarinpalpkg.Client, cfg *config.Config) payment.Gateway {
	return payment.New(zp, cfg)
}

func ProvideDraftStore(rdb redis.UniversalClient, cfg *config.Config) booking.DraftStore {
	return booking.NewRedisDraftStore(rdb, cfg.Store.KeyPrefix)
}

type BookingParams struct {
	fx.In

	Cfg          *config.Config
	DB           *repo.Client
	Catalog      catalog.Service
	Availability availability.Service
	Discounts    discount.Service
	Gateway      payment.Gateway
	Drafts       booking.DraftStore
	Publisher    booking.Publisher `optional:"true"`
}

func ProvideBookingService(p BookingParams) booking.Service {
	return booking.New(booking.Deps{
		DB:           p.DB,
		Catalog:      p.Catalog,
		Availability: p.Availability,
		Discounts:    p.Discounts,
		Gateway:      p.Gateway,
		Drafts:       p.Drafts,
		Publisher:    p.Publisher,
		Config:       p.Cfg.Booking,
	})
}

func ProvidePasetoManager(cfg *config.Config) (*pasetotoken.Manager, error) {
	return pasetotoken.NewPasetoManager(cfg)
}

