package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/noah-isme/gema-contact-relay/internal/config"
)

func newConfigCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Inspect the service configuration",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "check",
		Short: "Validate configuration and report missing delivery settings",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return fmt.Errorf("invalid configuration: %w", err)
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "mail mode:       %s\n", cfg.Delivery.Mode)
			fmt.Fprintf(out, "listen address:  %s\n", cfg.HTTPAddress())
			fmt.Fprintf(out, "allowed origins: %s\n", strings.Join(cfg.AllowedOrigins, ", "))
			fmt.Fprintf(out, "acknowledgement: %t\n", cfg.Delivery.Acknowledge)
			fmt.Fprintf(out, "dedupe:          %t\n", cfg.RedisURL != "")

			if missing := cfg.Delivery.Missing(); len(missing) > 0 {
				return fmt.Errorf("missing delivery settings: %s", strings.Join(missing, ", "))
			}
			fmt.Fprintln(out, "configuration ok")
			return nil
		},
	})
	return cmd
}
