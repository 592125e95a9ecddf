package cli

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/spf13/cobra"

	"github.com/noah-isme/gema-contact-relay/internal/config"
	"github.com/noah-isme/gema-contact-relay/internal/health"
)

func newProbeCommand() *cobra.Command {
	var (
		url     string
		timeout time.Duration
	)

	cmd := &cobra.Command{
		Use:   "probe",
		Short: "Check that the service health route answers",
		Long: `Request the health route once and exit non-zero unless it answers 2xx.

Without --url the local address is derived from PORT, which makes the
command usable as a container HEALTHCHECK.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			target := url
			if target == "" {
				cfg, err := config.Load()
				if err != nil {
					return fmt.Errorf("failed to load configuration: %w", err)
				}
				target = cfg.LocalURL() + "/health"
			}

			ctx, cancel := context.WithTimeout(cmd.Context(), timeout)
			defer cancel()

			if err := health.Probe(ctx, &http.Client{Timeout: timeout}, target); err != nil {
				return fmt.Errorf("probe failed: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "ok %s\n", target)
			return nil
		},
	}

	cmd.Flags().StringVar(&url, "url", "", "health URL to probe (default http://127.0.0.1:$PORT/health)")
	cmd.Flags().DurationVar(&timeout, "timeout", 5*time.Second, "probe timeout")
	return cmd
}
