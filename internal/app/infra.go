package app

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/redis/go-redis/v9"
	"go.uber.org/fx"

	"github.com/Alijeyrad/simorq_booking/config"
	"github.com/Alijeyrad/simorq_booking/internal/repo"
	"github.com/Alijeyrad/simorq_booking/internal/service/booking"
	"github.com/Alijeyrad/simorq_booking/pkg/authorize"
	"github.com/Alijeyrad/simorq_booking/pkg/constants"
	"github.com/Alijeyrad/simorq_booking/pkg/database"
	"github.com/Alijeyrad/simorq_booking/pkg/docstore"
	"github.com/Alijeyrad/simorq_booking/pkg/observability"
	redispkg "github.com/Alijeyrad/simorq_booking/pkg/redis"
	zarinpalpkg "github.com/Alijeyrad/simorq_booking/pkg/zarinpal"
)

// InfraModule provides all infrastructure dependencies.
var InfraModule = fx.Module("infra",
	fx.Provide(ProvideRedis),
	fx.Provide(ProvideDocStore),
	fx.Provide(repo.NewClient),
	fx.Provide(ProvideAuthorization),
	fx.Provide(ProvideOTel),
	fx.Provide(ProvideZarinPalClient),
	fx.Provide(ProvideNatsClient),
	fx.Provide(ProvidePublisher),
)

func ProvideRedis(lc fx.Lifecycle, cfg *config.Config) (redis.UniversalClient, error) {
	rdb, err := redispkg.NewRedisFromCentral(cfg.Redis)
	if err != nil {
		return nil, err
	}
	lc.Append(fx.Hook{
		OnStop: func(ctx context.Context) error {
			slog.Debug("closing Redis connection")
			return rdb.Close()
		},
	})
	return rdb, nil
}

// ProvideDocStore opens the document store selected by store.driver.
// The redis backend shares the cache connection.
func ProvideDocStore(lc fx.Lifecycle, cfg *config.Config, rdb redis.UniversalClient) (docstore.Store, error) {
	switch cfg.Store.Driver {
	case constants.StoreDriverRedis:
		return docstore.NewRedisStore(rdb, cfg.Store.KeyPrefix), nil
	case constants.StoreDriverPostgres:
		db, err := database.Open(cfg.Database)
		if err != nil {
			return nil, err
		}
		lc.Append(fx.Hook{
			OnStop: func(ctx context.Context) error {
				slog.Debug("closing document database connection")
				return db.Close()
			},
		})
		return docstore.NewPostgresStore(db), nil
	default:
		return nil, fmt.Errorf("unsupported store driver %q", cfg.Store.Driver)
	}
}

func ProvideAuthorization(lc fx.Lifecycle, cfg *config.Config) (authorize.IAuthorization, error) {
	reload := time.Duration(cfg.Authorization.PolicyReloadSeconds) * time.Second
	enforcer, cleanup, err := authorize.NewEnforcer(cfg.Authorization.CasbinModelPath, cfg.Authorization.CasbinPolicyPath, reload)
	if err != nil {
		return nil, err
	}
	auth, err := authorize.NewAuthorization(enforcer)
	if err != nil {
		cleanup(context.Background())
		return nil, err
	}
	if cfg.Authorization.EnableAudit {
		auth = authorize.NewAuditedAuthorization(auth, slog.Default())
	}
	lc.Append(fx.Hook{
		OnStop: func(ctx context.Context) error {
			cleanup(ctx)
			return nil
		},
	})
	return auth, nil
}

func ProvideZarinPalClient(cfg *config.Config) *zarinpalpkg.Client {
	return zarinpalpkg.New(cfg.ZarinPal)
}

// ProvideNatsClient connects to NATS when nats.url is set. A nil connection
// disables event publishing and the workers.
func ProvideNatsClient(lc fx.Lifecycle, cfg *config.Config) (*nats.Conn, error) {
	if cfg.Nats.URL == "" {
		slog.Warn("nats.url is empty; appointment events are disabled")
		return nil, nil
	}
	nc, err := nats.Connect(cfg.Nats.URL,
		nats.Name(cfg.Observability.ServiceName),
		nats.MaxReconnects(-1),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			if err != nil {
				slog.Warn("nats disconnected", "err", err)
			}
		}),
		nats.ReconnectHandler(func(c *nats.Conn) {
			slog.Info("nats reconnected", "url", c.ConnectedUrl())
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("connect nats: %w", err)
	}
	lc.Append(fx.Hook{
		OnStop: func(ctx context.Context) error {
			slog.Debug("draining NATS connection")
			return nc.Drain()
		},
	})
	return nc, nil
}

func ProvidePublisher(nc *nats.Conn) booking.Publisher {
	if nc == nil {
		return nil
	}
	return nc
}

func ProvideOTel(lc fx.Lifecycle, cfg *config.Config) (*observability.Provider, error) {
	if !cfg.Observability.Enabled {
		return nil, nil
	}
	settings := observability.SettingsFromConfig(cfg)
	provider, err := observability.Start(context.Background(), settings)
	if err != nil {
		return nil, err
	}
	slog.Info("observability initialized", "tracing", settings.Tracing, "metrics", settings.Metrics)
	lc.Append(fx.Hook{
		OnStop: func(ctx context.Context) error {
			return provider.Shutdown(ctx)
		},
	})
	return provider, nil
}
