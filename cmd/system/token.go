package system

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	pasetotoken "github.com/Alijeyrad/simorq_booking/pkg/paseto"
)

func NewTokenCommand() *cobra.Command {
	var (
		subject string
		role    string
		ttl     time.Duration
	)

	cmd := &cobra.Command{
		Use:   "token",
		Short: "Sign an access token for local testing",
		Long: `Sign a v4.public access token with authentication.paseto.secret_key_hex.

Tokens are normally issued by the identity service; this command exists for
development and is refused when server.environment is production.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			if cfg.Server.Environment == "production" {
				return fmt.Errorf("token signing is disabled in production")
			}

			mgr, err := pasetotoken.NewPasetoManager(cfg)
			if err != nil {
				return err
			}
			if !mgr.CanIssue() {
				return fmt.Errorf("authentication.paseto.secret_key_hex is not set")
			}

			tok, err := mgr.Issue(subject, role, uuid.NewString(), ttl)
			if err != nil {
				return err
			}
			fmt.Println(tok)
			return nil
		},
	}

	cmd.Flags().StringVar(&subject, "subject", "", "Account id placed in the sub claim")
	cmd.Flags().StringVar(&role, "role", "patient", "Role claim (patient, staff, admin)")
	cmd.Flags().DurationVar(&ttl, "ttl", time.Hour, "Token lifetime")
	_ = cmd.MarkFlagRequired("subject")

	return cmd
}
