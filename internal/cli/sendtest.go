package cli

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/noah-isme/gema-contact-relay/internal/config"
	"github.com/noah-isme/gema-contact-relay/internal/mailer"
)

func newSendTestCommand(logger func() zerolog.Logger) *cobra.Command {
	var to string

	cmd := &cobra.Command{
		Use:   "send-test",
		Short: "Deliver a test message through the configured transport",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return fmt.Errorf("invalid configuration: %w", err)
			}

			sender, err := mailer.New(cfg.Delivery, logger())
			if err != nil {
				return err
			}

			recipient := cfg.Delivery.RecipientAddress
			if to != "" {
				recipient = to
			}

			ctx, cancel := context.WithTimeout(cmd.Context(), cfg.Delivery.Timeout)
			defer cancel()

			err = sender.Send(ctx, mailer.Message{
				SenderName:       cfg.Delivery.SenderName,
				SenderAddress:    cfg.Delivery.SenderAddress,
				RecipientName:    cfg.Delivery.RecipientName,
				RecipientAddress: recipient,
				Subject:          "Contact relay test message",
				Body:             fmt.Sprintf("This message was sent by contactctl through the %q transport.\n", sender.Transport()),
			})
			if err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "test message sent to %s via %s\n", recipient, sender.Transport())
			return nil
		},
	}

	cmd.Flags().StringVar(&to, "to", "", "recipient address (default RECIPIENT_EMAIL)")
	return cmd
}
