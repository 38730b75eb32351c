package system

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/Alijeyrad/simorq_booking/internal/repo"
)

func NewSeedCommand() *cobra.Command {
	var file string

	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Load catalog, doctor, discount and patient fixtures into the store",
		Long: `Load a fixtures YAML file into the configured document store.

Top-level keys: treatments, doctors, service_offerings, custom_services,
discount_codes and patients. Documents at an existing path are replaced.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}

			data, err := os.ReadFile(file)
			if err != nil {
				return fmt.Errorf("failed to read fixtures: %w", err)
			}
			fixtures, err := repo.ParseFixtures(data)
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

			if err := repo.NewClient(store).Seed(ctx, fixtures); err != nil {
				return err
			}
			fmt.Printf("Seeded %d documents from %s.\n", fixtures.Count(), file)
			return nil
		},
	}

	cmd.Flags().StringVar(&file, "file", "fixtures.yaml", "Fixtures YAML file")

	return cmd
}
