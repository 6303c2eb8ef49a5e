package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"

	"github.com/mavericksstream/unlock/internal/model"
	"github.com/mavericksstream/unlock/internal/ui"
	"github.com/mavericksstream/unlock/internal/unlock"
	"github.com/spf13/cobra"
)

func VideoCmd() *cobra.Command {
	var (
		price         string
		title         string
		paymentMethod string
		openBrowser   bool
	)

	cmd := &cobra.Command{
		Use:   "video <id>",
		Short: "Unlock a paid video",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			item := model.ContentItem{ID: args[0], Title: title}
			if price != "" {
				p, err := model.ParsePrice(price)
				if err != nil {
					return err
				}
				item.Price = p
			}

			a, cleanup, err := setup(cmd, ui.TerminalOptions{PaymentMethod: paymentMethod, OpenBrowser: openBrowser})
			if err != nil {
				return err
			}
			defer cleanup()

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
			defer stop()

			return unlockVideo(ctx, a.Orchestrator, a.Terminal, item)
		},
	}

	cmd.Flags().StringVar(&price, "price", "", "Price shown to the user, e.g. 9.99")
	cmd.Flags().StringVar(&title, "title", "", "Video title")
	cmd.Flags().StringVar(&paymentMethod, "payment-method", "", "Payment method to confirm with, skips the prompt once (e.g. pm_card_visa)")
	cmd.Flags().BoolVar(&openBrowser, "open", false, "Open the completion page in the browser")

	return cmd
}

// unlockVideo runs one attempt and keeps offering the confirm control while it is usable.
func unlockVideo(ctx context.Context, o *unlock.Orchestrator, term *ui.Terminal, item model.ContentItem) error {
	defer func() {
		if ctx.Err() != nil {
			o.Reset(item.ID)
		}
	}()

	o.InitiateUnlock(ctx, item)

	for term.ConfirmEnabled(item.ID) {
		question := "Confirm payment?"
		if !item.Price.IsZero() {
			question = fmt.Sprintf("Confirm payment of %s?", item.Price.Format())
		}

		ok, err := term.Ask(ctx, question)
		if err != nil {
			return err
		}
		if !ok {
			break
		}

		o.Confirm(ctx, item.ID)
	}

	attempt, _ := o.Attempt(item.ID)
	switch {
	case attempt.Status == unlock.Redirected:
		return nil
	case attempt.LastError != nil:
		o.Reset(item.ID)
		return attempt.LastError
	default:
		o.Reset(item.ID)
		return errors.New("payment canceled")
	}
}
