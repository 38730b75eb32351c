package system

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Alijeyrad/simorq_booking/pkg/constants"
	"github.com/Alijeyrad/simorq_booking/pkg/database"
)

func NewInitCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "init",
		Short: "Create the postgres document database if it is missing",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			if cfg.Store.Driver != constants.StoreDriverPostgres {
				fmt.Printf("Store driver is %q; nothing to initialize.\n", cfg.Store.Driver)
				return nil
			}

			fmt.Println("Initializing database...")
			if err := database.InitializeDatabase(cfg.Database); err != nil {
				return fmt.Errorf("failed to initialize database: %w", err)
			}
			fmt.Println("Database initialized successfully.")
			return nil
		},
	}

	return cmd
}
