package system

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/Alijeyrad/simorq_booking/config"
	"github.com/Alijeyrad/simorq_booking/pkg/constants"
	"github.com/Alijeyrad/simorq_booking/pkg/database"
	"github.com/Alijeyrad/simorq_booking/pkg/docstore"
	redispkg "github.com/Alijeyrad/simorq_booking/pkg/redis"
)

func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	cfgPath, err := cmd.Root().PersistentFlags().GetString("config")
	if err != nil {
		return nil, fmt.Errorf("failed to get config flag: %w", err)
	}
	cfg, err := config.ReadConfig(filepath.Dir(cfgPath))
	if err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}
	return cfg, nil
}

// openStore connects to the configured document store. The returned
// function closes the underlying connection.
func openStore(cfg *config.Config) (docstore.Store, func() error, error) {
	switch cfg.Store.Driver {
	case constants.StoreDriverPostgres:
		db, err := database.Open(cfg.Database)
		if err != nil {
			return nil, nil, err
		}
		return docstore.NewPostgresStore(db), db.Close, nil
	case constants.StoreDriverRedis:
		rdb, err := redispkg.NewRedisFromCentral(cfg.Redis)
		if err != nil {
			return nil, nil, err
		}
		return docstore.NewRedisStore(rdb, cfg.Store.KeyPrefix), rdb.Close, nil
	default:
		return nil, nil, fmt.Errorf("unsupported store driver %q", cfg.Store.Driver)
	}
}
