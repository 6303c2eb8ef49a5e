package cmd

import (
	"log/slog"

	"github.com/mavericksstream/unlock/internal/app"
	"github.com/mavericksstream/unlock/internal/config"
	"github.com/mavericksstream/unlock/internal/logger"
	"github.com/mavericksstream/unlock/internal/ui"
	"github.com/spf13/cobra"
)

// setup loads config, starts logging on stderr and wires the app to the command's terminal.
func setup(cmd *cobra.Command, opts ui.TerminalOptions) (*app.App, func(), error) {
	cfg := config.Load()

	logger.Init(cfg.IsDevelopment(), cfg.SentryDSN, cmd.ErrOrStderr())

	if opts.PaymentMethod == "" {
		opts.PaymentMethod = cfg.StripePaymentMethod
	}
	term := ui.NewTerminal(cmd.InOrStdin(), cmd.OutOrStdout(), opts)

	a, err := app.New(cfg, term)
	if err != nil {
		slog.Error("failed to initialize app", "error", err)
		return nil, nil, err
	}

	cleanup := func() {
		closeErr := a.Close()
		if closeErr != nil {
			slog.Error("failed to close app", "error", closeErr)
		}
		logger.Flush()
	}
	return a, cleanup, nil
}
