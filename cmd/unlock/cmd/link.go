package cmd

import (
	"github.com/mavericksstream/unlock/internal/ui"
	"github.com/spf13/cobra"
)

func LinkCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "link",
		Short: "Connect a bank account as payment source",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, cleanup, err := setup(cmd, ui.TerminalOptions{})
			if err != nil {
				return err
			}
			defer cleanup()

			_, err = a.LinkFlow.Run(cmd.Context(), a.Terminal)
			return err
		},
	}
}
