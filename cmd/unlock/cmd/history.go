package cmd

import (
	"errors"
	"fmt"
	"text/tabwriter"

	"github.com/mavericksstream/unlock/internal/model"
	"github.com/mavericksstream/unlock/internal/ui"
	"github.com/spf13/cobra"
)

func HistoryCmd() *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "history [video-id]",
		Short: "Show journaled unlock attempts",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, cleanup, err := setup(cmd, ui.TerminalOptions{})
			if err != nil {
				return err
			}
			defer cleanup()

			if a.Journal == nil {
				return errors.New("attempt journal is disabled (DB_DRIVER=none)")
			}

			contentID := ""
			if len(args) == 1 {
				contentID = args[0]
			}

			events, err := a.Journal.History(cmd.Context(), contentID, limit)
			if err != nil {
				return err
			}

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "TIME\tVIDEO\tATTEMPT\tTRANSITION\tAMOUNT\tMESSAGE")
			for _, e := range events {
				fmt.Fprintf(w, "%s\t%s\t%s\t%s -> %s\t%s\t%s\n",
					e.CreatedAt.Local().Format("2006-01-02 15:04:05"),
					e.ContentID,
					shortID(e.AttemptID),
					e.FromState,
					e.ToState,
					amount(e),
					e.Message,
				)
			}
			return w.Flush()
		},
	}

	cmd.Flags().IntVar(&limit, "limit", 20, "Number of entries when no video is given")

	return cmd
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

func amount(e *model.AttemptEvent) string {
	if e.Amount == nil {
		return "-"
	}
	return model.Price{Amount: *e.Amount, Currency: e.Currency}.Format()
}
