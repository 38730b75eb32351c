package system

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/Alijeyrad/simorq_booking/pkg/docstore"
)

func NewMigrateCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Create the document and reservation tables",
		Long: `Create the tables used by the postgres document store.

The redis store keeps no schema, so migrate only checks the connection.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}

			store, closeStore, err := openStore(cfg)
			if err != nil {
				return err
			}
			defer closeStore()

			timeout := time.Duration(cfg.Server.TimeoutSeconds) * time.Second
			ctx, cancel := context.WithTimeout(context.Background(), timeout)
			defer cancel()

			pg, ok := store.(*docstore.PostgresStore)
			if !ok {
				if err := store.Ping(ctx); err != nil {
					return fmt.Errorf("failed to reach store: %w", err)
				}
				fmt.Printf("Store driver %q needs no migrations.\n", cfg.Store.Driver)
				return nil
			}

			fmt.Println("Running migrations for the document store.")
			if err := pg.Migrate(ctx); err != nil {
				return fmt.Errorf("failed to run migrations: %w", err)
			}
			fmt.Println("Migrations executed successfully.")
			return nil
		},
	}

	return cmd
}
